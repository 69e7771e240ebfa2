package events

import (
	"encoding/json"
	"sync"
	"time"

	"cancha/internal/models"
)

const (
	EventBookingCreated       = "booking_created"
	EventBookingRescheduled   = "booking_rescheduled"
	EventBookingStatusChanged = "booking_status_changed"
	EventTariffStatusChanged  = "tariff_status_changed"
	EventPaymentRegistered    = "payment_registered"
	EventBookingDeleted       = "booking_deleted"
)

// BookingEventTypes lists every booking event the service emits.
var BookingEventTypes = []string{
	EventBookingCreated,
	EventBookingRescheduled,
	EventBookingStatusChanged,
	EventTariffStatusChanged,
	EventPaymentRegistered,
	EventBookingDeleted,
}

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID         string `json:"booking_id"`
	SeriesID          string `json:"series_id,omitempty"`
	ClientName        string `json:"client_name"`
	Date              string `json:"date"`
	Hour              string `json:"hour"`
	PlayStatus        string `json:"play_status"`
	TariffStatus      string `json:"tariff_status"`
	PaymentRegistered bool   `json:"payment_registered"`
	PaymentMethod     string `json:"payment_method,omitempty"`
	ChangedBy         string `json:"changed_by,omitempty"`
}

// NewBookingPayload snapshots b for publishing.
func NewBookingPayload(b *models.Booking, changedBy string) BookingEventPayload {
	return BookingEventPayload{
		BookingID:         b.ID,
		SeriesID:          b.SeriesID,
		ClientName:        b.ClientName,
		Date:              b.Date.String(),
		Hour:              b.Hour,
		PlayStatus:        string(b.PlayStatus),
		TariffStatus:      string(b.SpecialTariffStatus),
		PaymentRegistered: b.PaymentRegistered,
		PaymentMethod:     string(b.PaymentMethod),
		ChangedBy:         changedBy,
	}
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
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

// SubscribeAll registers handler for each of the given event types.
func (b *EventBus) SubscribeAll(eventTypes []string, handler EventHandler) {
	for _, t := range eventTypes {
		b.Subscribe(t, handler)
	}
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
