package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lawnly/internal/auth"
	"lawnly/internal/config"
	"lawnly/internal/database"
	"lawnly/internal/events"
	"lawnly/internal/export"
	"lawnly/internal/models"
	"lawnly/internal/repository"
	"lawnly/internal/service"
	"lawnly/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	server *Server
	db     *database.DB
	t      *testing.T
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sessions := repository.NewMemorySessionRepository(24 * time.Hour)
	authCfg := config.AuthConfig{
		JWTSecret:         "test-secret",
		AccessTokenTTLSec: 3600,
		SessionTTLSec:     86400,
		ResetTokenTTLSec:  900,
		BcryptCost:        4,
	}
	manager := auth.NewManager(db, sessions, authCfg, &logger)

	bus := events.NewEventBus()
	bookingSvc := service.NewBookingService(db, bus, nil, 365, &logger)
	catalogSvc := service.NewCatalogService(db, &logger)
	reviewSvc := service.NewReviewService(db, bus, &logger)
	profileSvc := service.NewProfileService(db, &logger)
	bookingStore := store.NewBookingStore(db, &logger)
	exporter := export.NewExporter(t.TempDir(), &logger)

	srv := NewServer(config.APIConfig{}, Deps{
		Auth:     manager,
		Bookings: bookingSvc,
		Catalog:  catalogSvc,
		Reviews:  reviewSvc,
		Profiles: profileSvc,
		Store:    bookingStore,
		Exporter: exporter,
	}, &logger)

	return &testEnv{server: srv, db: db, t: t}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) decode(rec *httptest.ResponseRecorder) map[string]any {
	e.t.Helper()
	var out map[string]any
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (e *testEnv) signUp(role, email string, extra map[string]any) (token, userID string) {
	e.t.Helper()
	body := map[string]any{
		"email":     email,
		"password":  "password123",
		"full_name": "Test " + role,
		"role":      role,
	}
	for k, v := range extra {
		body[k] = v
	}

	rec := e.do(http.MethodPost, "/api/v1/auth/signup", "", body)
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := e.decode(rec)
	profile := resp["profile"].(map[string]any)
	return resp["access_token"].(string), profile["id"].(string)
}

// seedAdmin creates an admin directly; admins cannot self-register.
func (e *testEnv) seedAdmin(email string) string {
	e.t.Helper()
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("adminpass123"), 4)
	require.NoError(e.t, err)

	user := &models.User{Email: email, PasswordHash: string(hash), Role: models.RoleAdmin}
	require.NoError(e.t, e.db.CreateUser(ctx, user))
	require.NoError(e.t, e.db.CreateProfile(ctx, &models.Profile{
		ID: user.ID, Email: email, Role: models.RoleAdmin, FullName: "Admin",
	}))

	rec := e.do(http.MethodPost, "/api/v1/auth/signin", "", map[string]any{
		"email": email, "password": "adminpass123",
	})
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	return e.decode(rec)["access_token"].(string)
}

func (e *testEnv) seedService(name string, price float64) *models.Service {
	e.t.Helper()
	svc := &models.Service{
		Name:            name,
		Category:        "lawn",
		BasePrice:       price,
		DurationMinutes: 60,
		Active:          true,
	}
	require.NoError(e.t, e.db.CreateService(context.Background(), svc))
	return svc
}

func futureDateStr(days int) string {
	return time.Now().AddDate(0, 0, days).Format(models.DateLayout)
}

func TestHealth(t *testing.T) {
	env := setupEnv(t)
	rec := env.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	env := setupEnv(t)

	token, _ := env.signUp("customer", "casey@example.com", map[string]any{"address": "12 Elm St"})

	t.Run("me returns the profile", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		profile := env.decode(rec)["profile"].(map[string]any)
		assert.Equal(t, "casey@example.com", profile["email"])
		assert.Equal(t, "customer", profile["role"])
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
			"email": "casey@example.com", "password": "password123", "role": "customer",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("admin self-registration is rejected", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
			"email": "boss@example.com", "password": "password123", "role": "admin",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/auth/signin", "", map[string]any{
			"email": "casey@example.com", "password": "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("signout revokes the token", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/auth/signout", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(http.MethodGet, "/api/v1/me", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestBookingLifecycle(t *testing.T) {
	env := setupEnv(t)

	customerToken, _ := env.signUp("customer", "casey@example.com", map[string]any{"address": "12 Elm St"})
	providerToken, providerID := env.signUp("provider", "pat@example.com", map[string]any{
		"business_name": "GreenThumb Co",
		"service_areas": []string{"north"},
	})
	svc := env.seedService("Lawn Mowing", 45)

	var bookingID string

	t.Run("customer places a booking", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/bookings", customerToken, map[string]any{
			"provider_id":  providerID,
			"service_id":   svc.ID,
			"booking_date": futureDateStr(7),
			"start_time":   "09:00",
			"end_time":     "10:30",
			"address":      "12 Elm St",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		booking := env.decode(rec)["booking"].(map[string]any)
		bookingID = booking["id"].(string)
		assert.Equal(t, "pending", booking["status"])
		// Price defaults to the service base price.
		assert.Equal(t, float64(45), booking["total_price"])
	})

	t.Run("provider cannot place bookings", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/bookings", providerToken, map[string]any{
			"provider_id":  providerID,
			"service_id":   svc.ID,
			"booking_date": futureDateStr(7),
			"start_time":   "09:00",
			"end_time":     "10:00",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("customer cannot confirm", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/bookings/"+bookingID+"/confirm", customerToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("provider confirms", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/bookings/"+bookingID+"/confirm", providerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		booking := env.decode(rec)["booking"].(map[string]any)
		assert.Equal(t, "confirmed", booking["status"])
	})

	t.Run("pending-only transition conflicts", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/bookings/"+bookingID+"/confirm", providerToken, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("provider completes without an explicit start", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/bookings/"+bookingID+"/complete", providerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		booking := env.decode(rec)["booking"].(map[string]any)
		assert.Equal(t, "completed", booking["status"])
	})

	t.Run("completed booking cannot be cancelled", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/bookings/"+bookingID+"/cancel", customerToken, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("customer reviews the completed booking", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/reviews", customerToken, map[string]any{
			"booking_id": bookingID,
			"rating":     5,
			"comment":    "Spotless lawn",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		// Second review for the same booking conflicts.
		rec = env.do(http.MethodPost, "/api/v1/reviews", customerToken, map[string]any{
			"booking_id": bookingID,
			"rating":     4,
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("provider rating is updated", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/providers/"+providerID, customerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		provider := env.decode(rec)["provider"].(map[string]any)
		ext := provider["provider_profile"].(map[string]any)
		assert.Equal(t, float64(5), ext["rating"])
	})

	t.Run("provider reviews are listed", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/providers/"+providerID+"/reviews", customerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		reviews := env.decode(rec)["reviews"].([]any)
		require.Len(t, reviews, 1)
	})
}

func TestListBookingsUsesStore(t *testing.T) {
	env := setupEnv(t)

	customerToken, _ := env.signUp("customer", "casey@example.com", nil)
	providerToken, providerID := env.signUp("provider", "pat@example.com", nil)
	svc := env.seedService("Hedge Trimming", 60)

	rec := env.do(http.MethodPost, "/api/v1/bookings", customerToken, map[string]any{
		"provider_id":  providerID,
		"service_id":   svc.ID,
		"booking_date": futureDateStr(3),
		"start_time":   "14:00",
		"end_time":     "15:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bookingID := env.decode(rec)["booking"].(map[string]any)["id"].(string)

	rec = env.do(http.MethodGet, "/api/v1/bookings", customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	bookings := env.decode(rec)["bookings"].([]any)
	require.Len(t, bookings, 1)

	rec = env.do(http.MethodPost, "/api/v1/bookings/"+bookingID+"/confirm", providerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The provider's list reflects the transition.
	rec = env.do(http.MethodGet, "/api/v1/bookings", providerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	bookings = env.decode(rec)["bookings"].([]any)
	require.Len(t, bookings, 1)
	assert.Equal(t, "confirmed", bookings[0].(map[string]any)["status"])

	t.Run("status filter is validated", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/bookings?status=bogus", customerToken, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("strangers cannot read the booking", func(t *testing.T) {
		strangerToken, _ := env.signUp("customer", "stranger@example.com", nil)
		rec := env.do(http.MethodGet, "/api/v1/bookings/"+bookingID, strangerToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing booking is 404", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/bookings/nope", customerToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCatalogEndpoints(t *testing.T) {
	env := setupEnv(t)

	customerToken, _ := env.signUp("customer", "casey@example.com", nil)
	providerToken, providerID := env.signUp("provider", "pat@example.com", map[string]any{
		"service_areas": []string{"north"},
	})
	adminToken := env.seedAdmin("admin@example.com")

	var serviceID string

	t.Run("only admins create services", func(t *testing.T) {
		body := map[string]any{
			"name": "Aeration", "category": "lawn", "base_price": 80.0, "duration_minutes": 90,
		}

		rec := env.do(http.MethodPost, "/api/v1/services", customerToken, body)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = env.do(http.MethodPost, "/api/v1/services", adminToken, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		serviceID = env.decode(rec)["service"].(map[string]any)["id"].(string)
	})

	t.Run("service validation", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/services", adminToken, map[string]any{
			"name": "", "base_price": 10.0, "duration_minutes": 30,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("admin maintains areas", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/api/v1/areas", providerToken, map[string]any{
			"id": "north", "name": "North District", "active": true,
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = env.do(http.MethodPut, "/api/v1/areas", adminToken, map[string]any{
			"id": "north", "name": "North District", "active": true,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = env.do(http.MethodGet, "/api/v1/areas", customerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		areas := env.decode(rec)["areas"].([]any)
		require.Len(t, areas, 1)
	})

	t.Run("provider declares a service and is found by area", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/api/v1/provider-services", providerToken, map[string]any{
			"service_id": serviceID, "price_adjustment": 5.0, "is_available": true,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = env.do(http.MethodGet, "/api/v1/services/"+serviceID+"/providers?area=north", customerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		providers := env.decode(rec)["providers"].([]any)
		require.Len(t, providers, 1)
		link := providers[0].(map[string]any)
		assert.Equal(t, providerID, link["provider_id"])

		rec = env.do(http.MethodGet, "/api/v1/services/"+serviceID+"/providers?area=south", customerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, env.decode(rec)["providers"])
	})

	t.Run("deactivated services disappear for customers", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/services/"+serviceID+"/active", adminToken, map[string]any{"active": false})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(http.MethodGet, "/api/v1/services", customerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, env.decode(rec)["services"])

		// Admins still see it.
		rec = env.do(http.MethodGet, "/api/v1/services", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, env.decode(rec)["services"].([]any), 1)
	})
}

func TestProfileUpdate(t *testing.T) {
	env := setupEnv(t)
	token, _ := env.signUp("provider", "pat@example.com", map[string]any{"business_name": "Old Name"})

	rec := env.do(http.MethodPatch, "/api/v1/me", token, map[string]any{
		"full_name":     "Pat Provider",
		"business_name": "GreenThumb Co",
		"service_areas": []string{"north", "east"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	profile := env.decode(rec)["profile"].(map[string]any)
	assert.Equal(t, "Pat Provider", profile["full_name"])
	ext := profile["provider_profile"].(map[string]any)
	assert.Equal(t, "GreenThumb Co", ext["business_name"])
}

func TestAdminEndpoints(t *testing.T) {
	env := setupEnv(t)

	customerToken, _ := env.signUp("customer", "casey@example.com", nil)
	_, providerID := env.signUp("provider", "pat@example.com", nil)
	adminToken := env.seedAdmin("admin@example.com")
	svc := env.seedService("Lawn Mowing", 45)

	date := futureDateStr(5)
	rec := env.do(http.MethodPost, "/api/v1/bookings", customerToken, map[string]any{
		"provider_id":  providerID,
		"service_id":   svc.ID,
		"booking_date": date,
		"start_time":   "09:00",
		"end_time":     "10:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rangeQuery := fmt.Sprintf("?start=%s&end=%s", futureDateStr(0), futureDateStr(10))

	t.Run("calendar view is admin only", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/admin/bookings"+rangeQuery, customerToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = env.do(http.MethodGet, "/api/v1/admin/bookings"+rangeQuery, adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Len(t, env.decode(rec)["bookings"].([]any), 1)
	})

	t.Run("range is validated", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/admin/bookings?start=2024-05-10&end=2024-05-01", adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("export writes a workbook", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/admin/export"+rangeQuery, adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := env.decode(rec)
		assert.NotEmpty(t, resp["file"])
		assert.Equal(t, float64(1), resp["bookings"])
	})

	t.Run("resync without a ledger is unavailable", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/admin/ledger/resync"+rangeQuery, adminToken, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	env := setupEnv(t)
	env.server.cfg.RateLimit = config.APIRateLimitConfig{RPS: 0.1, Burst: 1}

	rec := env.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
