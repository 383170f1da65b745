package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/base-14/examples/go/parking-fees/internal/parking"
)

func TestNewTicketEventMessage(t *testing.T) {
	at := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	msg, err := NewTicketEventMessage(parking.Event{
		Kind:        parking.EventFeeCharged,
		PlateNumber: "1234",
		Fee:         decimal.RequireFromString("3.6"),
		At:          at,
	}, "corr-1")
	require.NoError(t, err)

	assert.Equal(t, "corr-1", middleware.MessageCorrelationID(msg))
	assert.Equal(t, "TicketEvent.fee_charged", msg.Metadata.Get("type"))

	var event TicketEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &event))
	assert.Equal(t, "fee_charged", event.Kind)
	assert.Equal(t, "1234", event.PlateNumber)
	assert.True(t, decimal.RequireFromString("3.6").Equal(event.Fee))
	assert.True(t, at.Equal(event.OccurredAt))
	assert.NotEmpty(t, event.Header.ID)
}

func TestPublisherDeliversLotEventsToAuditLog(t *testing.T) {
	pubSub := NewPubSub()
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan TicketEvent, 8)
	auditLog, err := NewAuditLog(ctx, pubSub, func(e TicketEvent) { received <- e })
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		auditLog.Run(ctx)
		close(done)
	}()

	lot, err := parking.NewParkingLot(2, parking.WithNotifier(NewPublisher(pubSub)))
	require.NoError(t, err)

	_, err = lot.ParkVehicle(parking.NewCar("1234"), parking.OffPeakPricing{})
	require.NoError(t, err)
	fee, err := lot.ExitVehicle("1234")
	require.NoError(t, err)

	var kinds []string
	for range 3 {
		select {
		case e := <-received:
			kinds = append(kinds, e.Kind)
			if e.Kind == string(parking.EventFeeCharged) {
				assert.True(t, fee.Equal(e.Fee))
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for events, got %v", kinds)
		}
	}
	assert.ElementsMatch(t, []string{"parked", "exited", "fee_charged"}, kinds)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("audit log did not stop after cancel")
	}
}

func TestAuditLogSkipsMalformedPayload(t *testing.T) {
	pubSub := NewPubSub()
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan TicketEvent, 1)
	auditLog, err := NewAuditLog(ctx, pubSub, func(e TicketEvent) { received <- e })
	require.NoError(t, err)
	go auditLog.Run(ctx)

	require.NoError(t, pubSub.Publish(TopicTicketEvents, message.NewMessage("bad", []byte("{not json"))))
	require.NoError(t, NewPublisher(pubSub).Publish(parking.Event{Kind: parking.EventLotFull, At: time.Now()}))

	select {
	case e := <-received:
		assert.Equal(t, "lot_full", e.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("expected the well-formed event after the malformed one")
	}
}
