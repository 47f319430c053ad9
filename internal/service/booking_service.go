package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lawnly/internal/database"
	"lawnly/internal/domain"
	"lawnly/internal/events"
	"lawnly/internal/models"

	"github.com/rs/zerolog"
)

var (
	ErrForbidden   = errors.New("forbidden")
	ErrValidation  = errors.New("invalid request")
	ErrPastDate    = errors.New("booking date is in the past")
	ErrDateTooFar  = errors.New("booking date is too far ahead")
	ErrInvalidTime = errors.New("invalid time window")
)

type BookingService struct {
	accessor       domain.Accessor
	eventBus       domain.EventPublisher
	syncWorker     domain.SyncWorker
	maxBookingDays int
	logger         *zerolog.Logger
}

func NewBookingService(accessor domain.Accessor, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, maxBookingDays int, logger *zerolog.Logger) *BookingService {
	if maxBookingDays <= 0 {
		maxBookingDays = 365
	}
	return &BookingService{
		accessor:       accessor,
		eventBus:       eventBus,
		syncWorker:     syncWorker,
		maxBookingDays: maxBookingDays,
		logger:         logger,
	}
}

// ValidateSchedule checks the date/time window of a booking request.
func (s *BookingService) ValidateSchedule(bookingDate, startTime, endTime string) error {
	date, err := time.Parse(models.DateLayout, bookingDate)
	if err != nil {
		return fmt.Errorf("%w: invalid booking date", ErrValidation)
	}

	if date.Before(time.Now().AddDate(0, 0, -1)) {
		return ErrPastDate
	}
	if date.After(time.Now().AddDate(0, 0, s.maxBookingDays)) {
		return ErrDateTooFar
	}

	start, err := time.Parse(models.TimeLayout, startTime)
	if err != nil {
		return fmt.Errorf("%w: invalid start time", ErrValidation)
	}
	end, err := time.Parse(models.TimeLayout, endTime)
	if err != nil {
		return fmt.Errorf("%w: invalid end time", ErrValidation)
	}
	if !end.After(start) {
		return ErrInvalidTime
	}

	return nil
}

// CreateBooking places a pending booking for the acting customer.
func (s *BookingService) CreateBooking(ctx context.Context, actor *models.Session, booking *models.Booking) error {
	if actor.Role != models.RoleCustomer && actor.Role != models.RoleAdmin {
		return ErrForbidden
	}
	if actor.Role == models.RoleCustomer {
		booking.CustomerID = actor.UserID
	}

	if err := s.ValidateSchedule(booking.BookingDate, booking.StartTime, booking.EndTime); err != nil {
		return err
	}

	svc, err := s.accessor.GetService(ctx, booking.ServiceID)
	if err != nil {
		return err
	}
	if !svc.Active {
		return fmt.Errorf("%w: service %s is not bookable", ErrValidation, svc.ID)
	}

	provider, err := s.accessor.GetProfile(ctx, booking.ProviderID)
	if err != nil {
		return err
	}
	if provider.Role != models.RoleProvider {
		return fmt.Errorf("%w: profile %s is not a provider", ErrValidation, provider.ID)
	}

	if booking.TotalPrice <= 0 {
		booking.TotalPrice = svc.BasePrice
	}

	if err := s.accessor.CreateBooking(ctx, booking); err != nil {
		return err
	}

	booking.Service = svc
	s.publishEvent(ctx, events.EventBookingCreated, booking, actor)
	s.enqueueUpsert(ctx, booking)

	return nil
}

// ConfirmBooking moves pending -> confirmed. Provider side only.
func (s *BookingService) ConfirmBooking(ctx context.Context, actor *models.Session, bookingID string) (*models.Booking, error) {
	return s.transition(ctx, actor, bookingID, models.StatusConfirmed, providerSide)
}

// StartBooking moves confirmed -> in_progress. Provider side only.
func (s *BookingService) StartBooking(ctx context.Context, actor *models.Session, bookingID string) (*models.Booking, error) {
	return s.transition(ctx, actor, bookingID, models.StatusInProgress, providerSide)
}

// CompleteBooking moves the booking to completed. Provider side only.
func (s *BookingService) CompleteBooking(ctx context.Context, actor *models.Session, bookingID string) (*models.Booking, error) {
	return s.transition(ctx, actor, bookingID, models.StatusCompleted, providerSide)
}

// CancelBooking is reachable by either participant from any non-terminal
// state and is idempotent on an already-cancelled booking.
func (s *BookingService) CancelBooking(ctx context.Context, actor *models.Session, bookingID string) (*models.Booking, error) {
	return s.transition(ctx, actor, bookingID, models.StatusCancelled, eitherSide)
}

type transitionScope int

const (
	providerSide transitionScope = iota
	eitherSide
)

func (s *BookingService) transition(ctx context.Context, actor *models.Session, bookingID string, next models.BookingStatus, scope transitionScope) (*models.Booking, error) {
	booking, err := s.accessor.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeTransition(actor, booking, scope); err != nil {
		return nil, err
	}

	updated, err := s.accessor.UpdateBookingStatus(ctx, bookingID, next)
	if err != nil {
		return nil, err
	}

	if eventType := events.StatusEventType(string(next)); eventType != "" {
		s.publishEvent(ctx, eventType, updated, actor)
	}
	s.enqueueStatus(ctx, updated)

	return updated, nil
}

func (s *BookingService) authorizeTransition(actor *models.Session, booking *models.Booking, scope transitionScope) error {
	if actor.Role == models.RoleAdmin {
		return nil
	}

	switch scope {
	case providerSide:
		if actor.Role == models.RoleProvider && booking.ProviderID == actor.UserID {
			return nil
		}
	case eitherSide:
		if actor.Role == models.RoleProvider && booking.ProviderID == actor.UserID {
			return nil
		}
		if actor.Role == models.RoleCustomer && booking.CustomerID == actor.UserID {
			return nil
		}
	}
	return ErrForbidden
}

// GetBooking is restricted to the booking's participants and admins.
func (s *BookingService) GetBooking(ctx context.Context, actor *models.Session, id string) (*models.Booking, error) {
	booking, err := s.accessor.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role != models.RoleAdmin &&
		booking.CustomerID != actor.UserID && booking.ProviderID != actor.UserID {
		return nil, ErrForbidden
	}
	return booking, nil
}

// ListMyBookings returns the actor's bookings scoped by role, optionally
// filtered by status.
func (s *BookingService) ListMyBookings(ctx context.Context, actor *models.Session, status models.BookingStatus) ([]*models.Booking, error) {
	if status != "" && !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status filter %q", ErrValidation, status)
	}

	switch actor.Role {
	case models.RoleCustomer:
		return s.accessor.GetCustomerBookings(ctx, actor.UserID, status)
	case models.RoleProvider:
		return s.accessor.GetProviderBookings(ctx, actor.UserID, status)
	}
	return nil, ErrForbidden
}

// ListBookingsByDateRange is the admin calendar view.
func (s *BookingService) ListBookingsByDateRange(ctx context.Context, actor *models.Session, start, end time.Time) ([]*models.Booking, error) {
	if actor.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.accessor.GetBookingsByDateRange(ctx, start, end)
}

// DeleteBooking hard-deletes a row. Admin only.
func (s *BookingService) DeleteBooking(ctx context.Context, actor *models.Session, id string) error {
	if actor.Role != models.RoleAdmin {
		return ErrForbidden
	}
	return s.accessor.DeleteBooking(ctx, id)
}

func (s *BookingService) publishEvent(ctx context.Context, eventType string, booking *models.Booking, actor *models.Session) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:   booking.ID,
		CustomerID:  booking.CustomerID,
		ProviderID:  booking.ProviderID,
		Status:      string(booking.Status),
		BookingDate: booking.BookingDate,
		StartTime:   booking.StartTime,
		TotalPrice:  booking.TotalPrice,
		ChangedBy:   actor.UserID,
	}
	if booking.Customer != nil {
		payload.CustomerName = booking.Customer.FullName
	}
	if booking.Provider != nil {
		payload.ProviderName = booking.Provider.FullName
	}
	if booking.Service != nil {
		payload.ServiceName = booking.Service.Name
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueUpsert(ctx context.Context, booking *models.Booking) {
	if s.syncWorker == nil {
		return
	}
	if err := s.syncWorker.EnqueueUpsert(ctx, booking); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("ledger enqueue error")
	}
}

func (s *BookingService) enqueueStatus(ctx context.Context, booking *models.Booking) {
	if s.syncWorker == nil {
		return
	}
	if err := s.syncWorker.EnqueueStatus(ctx, booking.ID, booking.Status); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("ledger enqueue error")
	}
}

// IsNotFound tells transports apart a missing booking from other failures.
func IsNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
