package api

import (
	"net/http"

	"lawnly/internal/auth"
	"lawnly/internal/models"
	"lawnly/internal/service"
)

type credentialsResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresAt   int64           `json:"expires_at"`
	Profile     *models.Profile `json:"profile"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Email        string   `json:"email"`
		Password     string   `json:"password"`
		FullName     string   `json:"full_name"`
		Phone        string   `json:"phone"`
		Role         string   `json:"role"`
		Address      string   `json:"address"`
		BusinessName string   `json:"business_name"`
		Bio          string   `json:"bio"`
		ServiceAreas []string `json:"service_areas"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	role := models.Role(body.Role)
	if role != models.RoleCustomer && role != models.RoleProvider {
		writeError(w, http.StatusBadRequest, "role must be customer or provider")
		return
	}
	if body.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	result, err := s.auth.SignUp(r.Context(), auth.SignUpInput{
		Email:        body.Email,
		Password:     body.Password,
		FullName:     body.FullName,
		Phone:        body.Phone,
		Role:         role,
		Address:      body.Address,
		BusinessName: body.BusinessName,
		Bio:          body.Bio,
		ServiceAreas: body.ServiceAreas,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, credentialsResponse{
		AccessToken: result.AccessToken,
		ExpiresAt:   result.Session.ExpiresAt.Unix(),
		Profile:     result.Profile,
	})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := s.auth.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, credentialsResponse{
		AccessToken: result.AccessToken,
		ExpiresAt:   result.Session.ExpiresAt.Unix(),
		Profile:     result.Profile,
	})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request, session *models.Session) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := s.auth.SignOut(r.Context(), session.ID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	if s.store != nil {
		s.store.Reset(session.UserID)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

// handlePasswordResetRequest always answers the same way so the endpoint
// cannot be used to probe for registered addresses. The token itself goes
// out through a side channel, not the response.
func (s *Server) handlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	token, err := s.auth.RequestPasswordReset(r.Context(), body.Email)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if token != "" {
		s.log.Debug().Msg("password reset token issued")
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	if err := s.auth.ResetPassword(r.Context(), body.Token, body.NewPassword); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, session *models.Session) {
	switch r.Method {
	case http.MethodGet:
		profile, err := s.profiles.GetMyProfile(r.Context(), session)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": profile})

	case http.MethodPatch:
		var body struct {
			FullName     string   `json:"full_name"`
			Phone        string   `json:"phone"`
			AvatarURL    string   `json:"avatar_url"`
			Address      *string  `json:"address"`
			BusinessName *string  `json:"business_name"`
			Bio          *string  `json:"bio"`
			ServiceAreas []string `json:"service_areas"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		profile, err := s.profiles.UpdateMyProfile(r.Context(), session, service.UpdateInput{
			FullName:     body.FullName,
			Phone:        body.Phone,
			AvatarURL:    body.AvatarURL,
			Address:      body.Address,
			BusinessName: body.BusinessName,
			Bio:          body.Bio,
			ServiceAreas: body.ServiceAreas,
		})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": profile})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
