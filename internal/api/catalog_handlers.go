package api

import (
	"net/http"
	"strconv"
	"strings"

	"lawnly/internal/models"
)

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request, session *models.Session) {
	switch r.Method {
	case http.MethodGet:
		limit, offset := pagination(r)
		category := strings.TrimSpace(r.URL.Query().Get("category"))

		services, err := s.catalog.ListServices(r.Context(), session, category, limit, offset)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"services": services})

	case http.MethodPost:
		var body struct {
			Name            string  `json:"name"`
			Description     string  `json:"description"`
			Category        string  `json:"category"`
			BasePrice       float64 `json:"base_price"`
			DurationMinutes int64   `json:"duration_minutes"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		svc := &models.Service{
			Name:            body.Name,
			Description:     body.Description,
			Category:        body.Category,
			BasePrice:       body.BasePrice,
			DurationMinutes: body.DurationMinutes,
			Active:          true,
		}
		if err := s.catalog.CreateService(r.Context(), session, svc); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"service": svc})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleServiceByID routes /api/v1/services/{id}, /{id}/active and
// /{id}/providers.
func (s *Server) handleServiceByID(w http.ResponseWriter, r *http.Request, session *models.Session) {
	const prefix = "/api/v1/services/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 2)

	id := strings.TrimSpace(parts[0])
	if id == "" {
		writeError(w, http.StatusBadRequest, "service id is required")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			svc, err := s.catalog.GetService(r.Context(), id)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"service": svc})
		case http.MethodPut:
			s.updateService(w, r, session, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	switch parts[1] {
	case "active":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var body struct {
			Active bool `json:"active"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := s.catalog.SetServiceActive(r.Context(), session, id, body.Active); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})

	case "providers":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		area := strings.TrimSpace(r.URL.Query().Get("area"))
		links, err := s.catalog.FindProviders(r.Context(), id, area)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"providers": links})

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) updateService(w http.ResponseWriter, r *http.Request, session *models.Session, id string) {
	var body struct {
		Name            string  `json:"name"`
		Description     string  `json:"description"`
		Category        string  `json:"category"`
		BasePrice       float64 `json:"base_price"`
		DurationMinutes int64   `json:"duration_minutes"`
		Active          bool    `json:"active"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	svc := &models.Service{
		ID:              id,
		Name:            body.Name,
		Description:     body.Description,
		Category:        body.Category,
		BasePrice:       body.BasePrice,
		DurationMinutes: body.DurationMinutes,
		Active:          body.Active,
	}
	if err := s.catalog.UpdateService(r.Context(), session, svc); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"service": svc})
}

func (s *Server) handleProviderServices(w http.ResponseWriter, r *http.Request, session *models.Session) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		ProviderID      string  `json:"provider_id"`
		ServiceID       string  `json:"service_id"`
		PriceAdjustment float64 `json:"price_adjustment"`
		IsAvailable     bool    `json:"is_available"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.ServiceID == "" {
		writeError(w, http.StatusBadRequest, "service_id is required")
		return
	}

	link := &models.ProviderService{
		ProviderID:      body.ProviderID,
		ServiceID:       body.ServiceID,
		PriceAdjustment: body.PriceAdjustment,
		IsAvailable:     body.IsAvailable,
	}
	if err := s.catalog.SetProviderService(r.Context(), session, link); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"provider_service": link})
}

func (s *Server) handleAreas(w http.ResponseWriter, r *http.Request, session *models.Session) {
	switch r.Method {
	case http.MethodGet:
		activeOnly := session.Role != models.RoleAdmin
		areas, err := s.catalog.ListServiceAreas(r.Context(), activeOnly)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"areas": areas})

	case http.MethodPut:
		var body struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
			Active      bool   `json:"active"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		area := &models.ServiceArea{
			ID:          body.ID,
			Name:        body.Name,
			Description: body.Description,
			Active:      body.Active,
		}
		if err := s.catalog.UpsertServiceArea(r.Context(), session, area); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"area": area})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request, _ *models.Session) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit, offset := pagination(r)
	providers, err := s.catalog.ListProviders(r.Context(), limit, offset)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": providers})
}

// handleProviderByID routes /api/v1/providers/{id} and /{id}/reviews.
func (s *Server) handleProviderByID(w http.ResponseWriter, r *http.Request, _ *models.Session) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	const prefix = "/api/v1/providers/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 2)

	id := strings.TrimSpace(parts[0])
	if id == "" {
		writeError(w, http.StatusBadRequest, "provider id is required")
		return
	}

	if len(parts) == 1 {
		provider, err := s.profiles.GetProvider(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"provider": provider})
		return
	}

	if parts[1] != "reviews" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	limit, offset := pagination(r)
	reviews, err := s.reviews.ListProviderReviews(r.Context(), id, limit, offset)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request, session *models.Session) {
	switch r.Method {
	case http.MethodGet:
		bookingID := strings.TrimSpace(r.URL.Query().Get("booking_id"))
		if bookingID == "" {
			writeError(w, http.StatusBadRequest, "booking_id is required")
			return
		}
		review, err := s.reviews.GetReviewByBooking(r.Context(), bookingID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"review": review})

	case http.MethodPost:
		var body struct {
			BookingID string `json:"booking_id"`
			Rating    int    `json:"rating"`
			Comment   string `json:"comment"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if body.BookingID == "" {
			writeError(w, http.StatusBadRequest, "booking_id is required")
			return
		}

		review := &models.Review{
			BookingID: body.BookingID,
			Rating:    body.Rating,
			Comment:   body.Comment,
		}
		if err := s.reviews.CreateReview(r.Context(), session, review); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"review": review})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func pagination(r *http.Request) (limit, offset int) {
	limit = models.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
