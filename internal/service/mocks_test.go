package service

import (
	"context"
	"sync"
	"time"

	"lawnly/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockAccessor struct {
	mock.Mock
}

func (m *mockAccessor) CreateBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockAccessor) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockAccessor) GetCustomerBookings(ctx context.Context, customerID string, status models.BookingStatus) ([]*models.Booking, error) {
	args := m.Called(ctx, customerID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockAccessor) GetProviderBookings(ctx context.Context, providerID string, status models.BookingStatus) ([]*models.Booking, error) {
	args := m.Called(ctx, providerID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockAccessor) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockAccessor) UpdateBookingStatus(ctx context.Context, id string, next models.BookingStatus) (*models.Booking, error) {
	args := m.Called(ctx, id, next)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockAccessor) DeleteBooking(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAccessor) CreateUser(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockAccessor) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockAccessor) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockAccessor) UpdateUserPassword(ctx context.Context, id, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *mockAccessor) CreateProfile(ctx context.Context, p *models.Profile) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockAccessor) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}
func (m *mockAccessor) UpdateProfile(ctx context.Context, p *models.Profile) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockAccessor) UpsertCustomerExtension(ctx context.Context, userID string, ext *models.CustomerExtension) error {
	return m.Called(ctx, userID, ext).Error(0)
}
func (m *mockAccessor) UpsertProviderExtension(ctx context.Context, userID string, ext *models.ProviderExtension) error {
	return m.Called(ctx, userID, ext).Error(0)
}
func (m *mockAccessor) ListProviders(ctx context.Context, limit, offset int) ([]*models.Profile, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Profile), args.Error(1)
}
func (m *mockAccessor) UpdateProviderRating(ctx context.Context, providerID string, rating float64, numRatings int64) error {
	return m.Called(ctx, providerID, rating, numRatings).Error(0)
}

func (m *mockAccessor) CreateService(ctx context.Context, s *models.Service) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockAccessor) GetService(ctx context.Context, id string) (*models.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}
func (m *mockAccessor) UpdateService(ctx context.Context, s *models.Service) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockAccessor) ListServices(ctx context.Context, category string, activeOnly bool, limit, offset int) ([]*models.Service, error) {
	args := m.Called(ctx, category, activeOnly, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Service), args.Error(1)
}
func (m *mockAccessor) SetServiceActive(ctx context.Context, id string, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *mockAccessor) UpsertProviderService(ctx context.Context, link *models.ProviderService) error {
	return m.Called(ctx, link).Error(0)
}
func (m *mockAccessor) ListProviderServices(ctx context.Context, serviceID string, availableOnly bool) ([]*models.ProviderService, error) {
	args := m.Called(ctx, serviceID, availableOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ProviderService), args.Error(1)
}
func (m *mockAccessor) FindProvidersForService(ctx context.Context, serviceID, areaID string) ([]*models.ProviderService, error) {
	args := m.Called(ctx, serviceID, areaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ProviderService), args.Error(1)
}

func (m *mockAccessor) UpsertServiceArea(ctx context.Context, area *models.ServiceArea) error {
	return m.Called(ctx, area).Error(0)
}
func (m *mockAccessor) ListServiceAreas(ctx context.Context, activeOnly bool) ([]*models.ServiceArea, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ServiceArea), args.Error(1)
}

func (m *mockAccessor) CreateReview(ctx context.Context, r *models.Review) error {
	return m.Called(ctx, r).Error(0)
}
func (m *mockAccessor) GetReviewByBooking(ctx context.Context, bookingID string) (*models.Review, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}
func (m *mockAccessor) ListProviderReviews(ctx context.Context, revieweeID string, limit, offset int) ([]*models.Review, error) {
	args := m.Called(ctx, revieweeID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Review), args.Error(1)
}

func (m *mockAccessor) CreateSyncTask(ctx context.Context, task *models.SyncTask) error {
	return m.Called(ctx, task).Error(0)
}
func (m *mockAccessor) GetPendingSyncTasks(ctx context.Context, limit int) ([]*models.SyncTask, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SyncTask), args.Error(1)
}
func (m *mockAccessor) MarkSyncTaskDone(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockAccessor) MarkSyncTaskFailed(ctx context.Context, id int64, attempts int, lastError string) error {
	return m.Called(ctx, id, attempts, lastError).Error(0)
}

// fakeSyncWorker records enqueued ledger tasks.
type fakeSyncWorker struct {
	mu       sync.Mutex
	upserts  []string
	statuses []string
}

func (f *fakeSyncWorker) EnqueueUpsert(ctx context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, booking.ID)
	return nil
}

func (f *fakeSyncWorker) EnqueueStatus(ctx context.Context, bookingID string, status models.BookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, bookingID+":"+string(status))
	return nil
}
