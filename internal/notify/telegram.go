package notify

import (
	"encoding/json"
	"fmt"

	"lawnly/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Sender is the slice of the Telegram API the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier forwards booking and review events to an operations
// chat. Delivery is best effort: a failed send is logged, never
// propagated back to the publisher.
type TelegramNotifier struct {
	sender Sender
	chatID int64
	log    zerolog.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return NewTelegramNotifierWithSender(bot, chatID, logger), nil
}

func NewTelegramNotifierWithSender(sender Sender, chatID int64, logger *zerolog.Logger) *TelegramNotifier {
	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "notify").Logger()
	}
	return &TelegramNotifier{sender: sender, chatID: chatID, log: log}
}

// Subscribe attaches the notifier to every event type it can render.
func (n *TelegramNotifier) Subscribe(bus *events.EventBus) {
	bookingEvents := []string{
		events.EventBookingCreated,
		events.EventBookingConfirmed,
		events.EventBookingStarted,
		events.EventBookingCompleted,
		events.EventBookingCancelled,
	}
	for _, eventType := range bookingEvents {
		bus.Subscribe(eventType, n.handleBookingEvent)
	}
	bus.Subscribe(events.EventReviewCreated, n.handleReviewEvent)
}

func (n *TelegramNotifier) handleBookingEvent(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		n.log.Error().Err(err).Str("event_type", event.Type).Msg("decode booking event")
		return nil
	}
	n.send(formatBookingMessage(event.Type, &payload))
	return nil
}

func (n *TelegramNotifier) handleReviewEvent(event *events.Event) error {
	var payload events.ReviewEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		n.log.Error().Err(err).Str("event_type", event.Type).Msg("decode review event")
		return nil
	}
	n.send(fmt.Sprintf("⭐ New review %d/5 for provider %s (booking %s)",
		payload.Rating, payload.RevieweeID, payload.BookingID))
	return nil
}

func (n *TelegramNotifier) send(text string) {
	if n.sender == nil || text == "" {
		return
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.sender.Send(msg); err != nil {
		n.log.Error().Err(err).Msg("telegram send failed")
	}
}

func formatBookingMessage(eventType string, p *events.BookingEventPayload) string {
	service := p.ServiceName
	if service == "" {
		service = "service"
	}
	when := p.BookingDate
	if p.StartTime != "" {
		when += " " + p.StartTime
	}

	switch eventType {
	case events.EventBookingCreated:
		return fmt.Sprintf("🆕 New booking: %s on %s, $%.2f (booking %s)",
			service, when, p.TotalPrice, p.BookingID)
	case events.EventBookingConfirmed:
		return fmt.Sprintf("✅ Booking %s confirmed for %s", p.BookingID, when)
	case events.EventBookingStarted:
		return fmt.Sprintf("▶️ Booking %s started", p.BookingID)
	case events.EventBookingCompleted:
		return fmt.Sprintf("🏁 Booking %s completed", p.BookingID)
	case events.EventBookingCancelled:
		by := p.ChangedBy
		if by == "" {
			by = "unknown"
		}
		return fmt.Sprintf("❌ Booking %s cancelled by %s", p.BookingID, by)
	}
	return ""
}
