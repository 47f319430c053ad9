package store

import (
	"context"
	"sync"
	"time"

	"lawnly/internal/models"

	"github.com/rs/zerolog"
)

// Phase tracks where a cached view is in its load cycle.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
)

// Loader is the slice of the booking layer the store pulls from.
type Loader interface {
	GetCustomerBookings(ctx context.Context, customerID string, status models.BookingStatus) ([]*models.Booking, error)
	GetProviderBookings(ctx context.Context, providerID string, status models.BookingStatus) ([]*models.Booking, error)
}

// View is one identity's cached booking list plus its load state.
type View struct {
	Phase     Phase
	Bookings  []*models.Booking
	Selected  *models.Booking
	Err       string
	UpdatedAt time.Time
}

// BookingStore keeps per-identity booking views warm between requests and
// patches them in place when a status changes, so a read after a write
// sees the new status without another full load.
type BookingStore struct {
	loader Loader
	log    zerolog.Logger

	mu    sync.RWMutex
	views map[string]*View
}

func NewBookingStore(loader Loader, logger *zerolog.Logger) *BookingStore {
	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "store").Logger()
	}
	return &BookingStore{
		loader: loader,
		log:    log,
		views:  make(map[string]*View),
	}
}

// Refresh loads the actor's bookings scoped by role and replaces the
// cached view. On failure the previous list is kept and the view moves to
// the error phase.
func (s *BookingStore) Refresh(ctx context.Context, actor *models.Session, status models.BookingStatus) ([]*models.Booking, error) {
	s.setPhase(actor.UserID, PhaseLoading)

	var bookings []*models.Booking
	var err error
	switch actor.Role {
	case models.RoleProvider:
		bookings, err = s.loader.GetProviderBookings(ctx, actor.UserID, status)
	default:
		bookings, err = s.loader.GetCustomerBookings(ctx, actor.UserID, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	view := s.viewLocked(actor.UserID)
	view.UpdatedAt = time.Now()
	if err != nil {
		view.Phase = PhaseError
		view.Err = err.Error()
		s.log.Error().Err(err).Str("user_id", actor.UserID).Msg("booking refresh failed")
		return nil, err
	}

	view.Phase = PhaseReady
	view.Err = ""
	view.Bookings = bookings
	return bookings, nil
}

// Snapshot returns the cached view without touching the loader.
func (s *BookingStore) Snapshot(userID string) ([]*models.Booking, Phase) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view, ok := s.views[userID]
	if !ok {
		return nil, PhaseIdle
	}
	return view.Bookings, view.Phase
}

// ApplyBooking patches the booking into both participants' cached views.
// An existing entry is replaced in place; a new booking is prepended to
// the owner's list.
func (s *BookingStore) ApplyBooking(booking *models.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, userID := range []string{booking.CustomerID, booking.ProviderID} {
		view, ok := s.views[userID]
		if !ok || view.Phase == PhaseIdle {
			continue
		}

		replaced := false
		for i, b := range view.Bookings {
			if b.ID == booking.ID {
				view.Bookings[i] = booking
				replaced = true
				break
			}
		}
		if !replaced {
			view.Bookings = append([]*models.Booking{booking}, view.Bookings...)
		}
		if view.Selected != nil && view.Selected.ID == booking.ID {
			view.Selected = booking
		}
	}
}

// Select remembers the booking the identity is looking at.
func (s *BookingStore) Select(userID string, booking *models.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewLocked(userID).Selected = booking
}

func (s *BookingStore) Selected(userID string) *models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view, ok := s.views[userID]
	if !ok {
		return nil
	}
	return view.Selected
}

// Reset drops one identity's view, typically on sign-out.
func (s *BookingStore) Reset(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.views, userID)
}

// ResetAll drops every cached view.
func (s *BookingStore) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = make(map[string]*View)
}

func (s *BookingStore) setPhase(userID string, phase Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewLocked(userID).Phase = phase
}

func (s *BookingStore) viewLocked(userID string) *View {
	view, ok := s.views[userID]
	if !ok {
		view = &View{Phase: PhaseIdle}
		s.views[userID] = view
	}
	return view
}
