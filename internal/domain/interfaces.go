package domain

import (
	"context"
	"time"

	"lawnly/internal/models"
)

// Accessor is the boundary through which all persistent reads and writes
// flow. Named collections: bookings, services, profiles, provider_services,
// reviews, service_areas, users, sync_queue.
type Accessor interface {
	// Bookings.
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetCustomerBookings(ctx context.Context, customerID string, status models.BookingStatus) ([]*models.Booking, error)
	GetProviderBookings(ctx context.Context, providerID string, status models.BookingStatus) ([]*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, next models.BookingStatus) (*models.Booking, error)
	DeleteBooking(ctx context.Context, id string) error

	// Auth identities.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error

	// Profiles.
	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error
	UpsertCustomerExtension(ctx context.Context, userID string, ext *models.CustomerExtension) error
	UpsertProviderExtension(ctx context.Context, userID string, ext *models.ProviderExtension) error
	ListProviders(ctx context.Context, limit, offset int) ([]*models.Profile, error)
	UpdateProviderRating(ctx context.Context, providerID string, rating float64, numRatings int64) error

	// Services catalog.
	CreateService(ctx context.Context, service *models.Service) error
	GetService(ctx context.Context, id string) (*models.Service, error)
	UpdateService(ctx context.Context, service *models.Service) error
	ListServices(ctx context.Context, category string, activeOnly bool, limit, offset int) ([]*models.Service, error)
	SetServiceActive(ctx context.Context, id string, active bool) error

	// Provider-service links.
	UpsertProviderService(ctx context.Context, link *models.ProviderService) error
	ListProviderServices(ctx context.Context, serviceID string, availableOnly bool) ([]*models.ProviderService, error)
	FindProvidersForService(ctx context.Context, serviceID, areaID string) ([]*models.ProviderService, error)

	// Service areas.
	UpsertServiceArea(ctx context.Context, area *models.ServiceArea) error
	ListServiceAreas(ctx context.Context, activeOnly bool) ([]*models.ServiceArea, error)

	// Reviews.
	CreateReview(ctx context.Context, review *models.Review) error
	GetReviewByBooking(ctx context.Context, bookingID string) (*models.Review, error)
	ListProviderReviews(ctx context.Context, revieweeID string, limit, offset int) ([]*models.Review, error)

	// Sync queue for the ledger worker.
	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]*models.SyncTask, error)
	MarkSyncTaskDone(ctx context.Context, id int64) error
	MarkSyncTaskFailed(ctx context.Context, id int64, attempts int, lastError string) error
}

// SessionRepository holds short-lived auth state: sessions, password-reset
// tokens and per-identity rate limit counters.
type SessionRepository interface {
	SaveSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	SaveResetToken(ctx context.Context, token, userID string, ttl time.Duration) error
	ConsumeResetToken(ctx context.Context, token string) (string, error)
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// EventPublisher fans domain events out to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// LedgerWriter mirrors bookings into the external spreadsheet ledger.
type LedgerWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus) error
	ReplaceBookings(ctx context.Context, bookings []*models.Booking) error
}

// SyncWorker schedules ledger updates without blocking the caller.
type SyncWorker interface {
	EnqueueUpsert(ctx context.Context, booking *models.Booking) error
	EnqueueStatus(ctx context.Context, bookingID string, status models.BookingStatus) error
}
