package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingStarted   = "booking_started"
	EventBookingCompleted = "booking_completed"
	EventBookingCancelled = "booking_cancelled"
	EventReviewCreated    = "review_created"
)

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID    string  `json:"booking_id"`
	CustomerID   string  `json:"customer_id"`
	CustomerName string  `json:"customer_name,omitempty"`
	ProviderID   string  `json:"provider_id"`
	ProviderName string  `json:"provider_name,omitempty"`
	ServiceName  string  `json:"service_name,omitempty"`
	Status       string  `json:"status"`
	BookingDate  string  `json:"booking_date"`
	StartTime    string  `json:"start_time"`
	TotalPrice   float64 `json:"total_price"`
	ChangedBy    string  `json:"changed_by,omitempty"`
}

// ReviewEventPayload describes a freshly posted review.
type ReviewEventPayload struct {
	ReviewID   string `json:"review_id"`
	BookingID  string `json:"booking_id"`
	ReviewerID string `json:"reviewer_id"`
	RevieweeID string `json:"reviewee_id"`
	Rating     int    `json:"rating"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}

// StatusEventType maps a booking status onto the event emitted when the
// booking enters it. Empty string means no event.
func StatusEventType(status string) string {
	switch status {
	case "confirmed":
		return EventBookingConfirmed
	case "in_progress":
		return EventBookingStarted
	case "completed":
		return EventBookingCompleted
	case "cancelled":
		return EventBookingCancelled
	}
	return ""
}
