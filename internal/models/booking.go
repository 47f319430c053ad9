package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

// AllStatuses lists every valid booking status.
var AllStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed out of s.
// Cancelling an already-cancelled booking is still accepted (idempotent),
// which CanTransitionTo handles explicitly.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether next is a legal transition from s.
// The forward chain is pending -> confirmed -> in_progress -> completed;
// a confirmed booking may be completed without an explicit start.
// Cancellation is reachable from any non-terminal state and idempotent.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if next == StatusCancelled {
		return s == StatusCancelled || !s.IsTerminal()
	}
	switch s {
	case StatusPending:
		return next == StatusConfirmed
	case StatusConfirmed:
		return next == StatusInProgress || next == StatusCompleted
	case StatusInProgress:
		return next == StatusCompleted
	}
	return false
}

// Booking is one scheduled service engagement between a customer and a provider.
type Booking struct {
	ID          string        `json:"id"`
	CustomerID  string        `json:"customer_id"`
	ProviderID  string        `json:"provider_id"`
	ServiceID   string        `json:"service_id"`
	Status      BookingStatus `json:"status"`
	BookingDate string        `json:"booking_date"` // YYYY-MM-DD
	StartTime   string        `json:"start_time"`   // HH:MM
	EndTime     string        `json:"end_time"`     // HH:MM
	TotalPrice  float64       `json:"total_price"`
	Address     string        `json:"address"`
	Notes       string        `json:"notes,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Joined display fields, populated by the accessor on reads.
	Service  *Service `json:"service,omitempty"`
	Customer *Profile `json:"customer,omitempty"`
	Provider *Profile `json:"provider,omitempty"`
}
