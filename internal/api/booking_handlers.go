package api

import (
	"net/http"
	"strings"

	"lawnly/internal/metrics"
	"lawnly/internal/models"
)

func (s *Server) handleBookings(w http.ResponseWriter, r *http.Request, session *models.Session) {
	switch r.Method {
	case http.MethodGet:
		s.listBookings(w, r, session)
	case http.MethodPost:
		s.createBooking(w, r, session)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// listBookings serves the role-scoped list through the cached store so a
// read right after a status change sees the patched booking.
func (s *Server) listBookings(w http.ResponseWriter, r *http.Request, session *models.Session) {
	if session.Role == models.RoleAdmin {
		writeError(w, http.StatusForbidden, "admins query /api/v1/admin/bookings")
		return
	}

	status := models.BookingStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	if status != "" && !status.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	bookings, err := s.store.Refresh(r.Context(), session, status)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request, session *models.Session) {
	var body struct {
		ProviderID  string  `json:"provider_id"`
		ServiceID   string  `json:"service_id"`
		CustomerID  string  `json:"customer_id"` // admins only; ignored otherwise
		BookingDate string  `json:"booking_date"`
		StartTime   string  `json:"start_time"`
		EndTime     string  `json:"end_time"`
		TotalPrice  float64 `json:"total_price"`
		Address     string  `json:"address"`
		Notes       string  `json:"notes"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.ProviderID == "" || body.ServiceID == "" {
		writeError(w, http.StatusBadRequest, "provider_id and service_id are required")
		return
	}

	booking := &models.Booking{
		CustomerID:  body.CustomerID,
		ProviderID:  body.ProviderID,
		ServiceID:   body.ServiceID,
		BookingDate: body.BookingDate,
		StartTime:   body.StartTime,
		EndTime:     body.EndTime,
		TotalPrice:  body.TotalPrice,
		Address:     body.Address,
		Notes:       body.Notes,
	}

	if err := s.bookings.CreateBooking(r.Context(), session, booking); err != nil {
		s.writeServiceError(w, err)
		return
	}

	metrics.IncBookingCreated()
	if s.store != nil {
		s.store.ApplyBooking(booking)
	}
	writeJSON(w, http.StatusCreated, map[string]any{"booking": booking})
}

// handleBookingByID routes /api/v1/bookings/{id} and
// /api/v1/bookings/{id}/{action}.
func (s *Server) handleBookingByID(w http.ResponseWriter, r *http.Request, session *models.Session) {
	const prefix = "/api/v1/bookings/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 2)

	id := strings.TrimSpace(parts[0])
	if id == "" {
		writeError(w, http.StatusBadRequest, "booking id is required")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			booking, err := s.bookings.GetBooking(r.Context(), session, id)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"booking": booking})
		case http.MethodDelete:
			if err := s.bookings.DeleteBooking(r.Context(), session, id); err != nil {
				s.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.transitionBooking(w, r, session, id, parts[1])
}

func (s *Server) transitionBooking(w http.ResponseWriter, r *http.Request, session *models.Session, id, action string) {
	var (
		booking *models.Booking
		err     error
	)

	switch action {
	case "confirm":
		booking, err = s.bookings.ConfirmBooking(r.Context(), session, id)
	case "start":
		booking, err = s.bookings.StartBooking(r.Context(), session, id)
	case "complete":
		booking, err = s.bookings.CompleteBooking(r.Context(), session, id)
	case "cancel":
		booking, err = s.bookings.CancelBooking(r.Context(), session, id)
	default:
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	metrics.IncTransition(string(booking.Status))
	if s.store != nil {
		s.store.ApplyBooking(booking)
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": booking})
}
