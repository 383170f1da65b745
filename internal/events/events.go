package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/shopspring/decimal"

	"github.com/base-14/examples/go/parking-fees/internal/logging"
	"github.com/base-14/examples/go/parking-fees/internal/parking"
)

const TopicTicketEvents = "parking.ticket_events"

type Header struct {
	ID          string    `json:"id"`
	PublishedAt time.Time `json:"published_at"`
}

func NewHeader() Header {
	return Header{
		ID:          watermill.NewUUID(),
		PublishedAt: time.Now().UTC(),
	}
}

// TicketEvent is the wire form of a lot notification.
type TicketEvent struct {
	Header      Header          `json:"header"`
	Kind        string          `json:"kind"`
	PlateNumber string          `json:"plate_number,omitempty"`
	Fee         decimal.Decimal `json:"fee"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func (e TicketEvent) Type() string {
	return "TicketEvent." + e.Kind
}

// NewPubSub returns the in-process pub/sub used to fan lot events out.
func NewPubSub() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, watermill.NewStdLogger(false, false))
}

func NewTicketEventMessage(e parking.Event, correlationID string) (*message.Message, error) {
	event := TicketEvent{
		Header:      NewHeader(),
		Kind:        string(e.Kind),
		PlateNumber: e.PlateNumber,
		Fee:         e.Fee,
		OccurredAt:  e.At.UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshalling event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	middleware.SetCorrelationID(correlationID, msg)
	msg.Metadata.Set("type", event.Type())

	return msg, nil
}

// Publisher forwards lot notifications to a watermill topic. It satisfies
// parking.Notifier.
type Publisher struct {
	publisher message.Publisher
	topic     string
}

func NewPublisher(publisher message.Publisher) *Publisher {
	return &Publisher{
		publisher: publisher,
		topic:     TopicTicketEvents,
	}
}

func (p *Publisher) Publish(e parking.Event) error {
	msg, err := NewTicketEventMessage(e, watermill.NewUUID())
	if err != nil {
		return err
	}

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publishing %s event: %w", e.Kind, err)
	}
	return nil
}

// Notify publishes e. Publish failures are logged and never reach the lot.
func (p *Publisher) Notify(e parking.Event) {
	if err := p.Publish(e); err != nil {
		logging.Error(context.Background(), "failed to publish ticket event",
			"error", err,
			"event", string(e.Kind),
			"plate_number", e.PlateNumber,
		)
	}
}

// AuditLog consumes ticket events and writes each one to the structured log.
type AuditLog struct {
	messages <-chan *message.Message
	handle   func(TicketEvent)
}

// NewAuditLog subscribes immediately so no event published after it returns
// is missed. handle, when non-nil, is called for every decoded event.
func NewAuditLog(ctx context.Context, subscriber message.Subscriber, handle func(TicketEvent)) (*AuditLog, error) {
	messages, err := subscriber.Subscribe(ctx, TopicTicketEvents)
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", TopicTicketEvents, err)
	}

	return &AuditLog{
		messages: messages,
		handle:   handle,
	}, nil
}

// Run blocks until ctx is cancelled or the subscription closes. Malformed
// payloads are logged and acknowledged so they are not redelivered.
func (a *AuditLog) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-a.messages:
			if !ok {
				return
			}

			var event TicketEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				logging.Warn(ctx, "skipping malformed ticket event",
					"message_uuid", msg.UUID,
					"error", err,
				)
				msg.Ack()
				continue
			}

			logging.Info(ctx, "ticket event",
				"kind", event.Kind,
				"plate_number", event.PlateNumber,
				"fee", event.Fee.String(),
				"correlation_id", middleware.MessageCorrelationID(msg),
			)
			if a.handle != nil {
				a.handle(event)
			}
			msg.Ack()
		}
	}
}
