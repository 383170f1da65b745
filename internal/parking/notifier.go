package parking

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/base-14/examples/go/parking-fees/internal/logging"
)

type EventKind string

const (
	EventParked     EventKind = "parked"
	EventNotFound   EventKind = "not_found"
	EventExited     EventKind = "exited"
	EventFeeCharged EventKind = "fee_charged"
	EventLotFull    EventKind = "lot_full"
)

// Event is a notification emitted by the lot as vehicles come and go.
type Event struct {
	Kind        EventKind
	PlateNumber string
	Fee         decimal.Decimal
	At          time.Time
}

func (e Event) String() string {
	switch e.Kind {
	case EventParked:
		return fmt.Sprintf("Vehicle %s parked.", e.PlateNumber)
	case EventNotFound:
		return "Vehicle not found."
	case EventExited:
		return fmt.Sprintf("Vehicle %s exited.", e.PlateNumber)
	case EventFeeCharged:
		return fmt.Sprintf("Parking Fee: $%s", e.Fee.String())
	case EventLotFull:
		return "Parking lot is full."
	default:
		return string(e.Kind)
	}
}

type Notifier interface {
	Notify(Event)
}

type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

type MultiNotifier []Notifier

func (m MultiNotifier) Notify(e Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(e)
		}
	}
}

// WriterNotifier prints each event as a console line.
type WriterNotifier struct {
	W io.Writer
}

func (n WriterNotifier) Notify(e Event) {
	fmt.Fprintln(n.W, e.String())
}

// LogNotifier records each event as a structured log entry.
type LogNotifier struct{}

func (LogNotifier) Notify(e Event) {
	attrs := []any{
		slog.String("event", string(e.Kind)),
		slog.String("plate_number", e.PlateNumber),
	}
	if e.Kind == EventFeeCharged {
		attrs = append(attrs, slog.String("fee", e.Fee.String()))
	}

	ctx := context.Background()
	switch e.Kind {
	case EventNotFound, EventLotFull:
		logging.Warn(ctx, e.String(), attrs...)
	default:
		logging.Info(ctx, e.String(), attrs...)
	}
}
