package api

import (
	"net/http"

	"lawnly/internal/models"
)

func (s *Server) handleAdminBookings(w http.ResponseWriter, r *http.Request, session *models.Session) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start, end, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookings, err := s.bookings.ListBookingsByDateRange(r.Context(), session, start, end)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// handleAdminExport writes an xlsx workbook for the range and returns its path.
func (s *Server) handleAdminExport(w http.ResponseWriter, r *http.Request, session *models.Session) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "exports are not configured")
		return
	}

	start, end, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookings, err := s.bookings.ListBookingsByDateRange(r.Context(), session, start, end)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	path, err := s.exporter.BookingsWorkbook(bookings, start, end)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"file": path, "bookings": len(bookings)})
}

// handleLedgerResync rebuilds the spreadsheet ledger from the database.
func (s *Server) handleLedgerResync(w http.ResponseWriter, r *http.Request, session *models.Session) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if session.Role != models.RoleAdmin {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	if s.resyncer == nil {
		writeError(w, http.StatusServiceUnavailable, "ledger sync is not configured")
		return
	}

	start, end, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.resyncer.Resync(r.Context(), start, end); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resynced"})
}
