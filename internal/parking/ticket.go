package parking

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Clock returns the current time. Lots and tickets read time through it so
// stays can be simulated.
type Clock func() time.Time

// minBilledHours is the shortest stay a ticket charges for.
const minBilledHours = 1

// Ticket binds one vehicle's stay to a pricing strategy. It starts open and
// is closed exactly once on exit.
type Ticket struct {
	id        string
	vehicle   *Vehicle
	strategy  PricingStrategy
	clock     Clock
	entryTime time.Time

	mu       sync.RWMutex
	exitTime time.Time
	closed   bool
}

func NewTicket(vehicle *Vehicle, strategy PricingStrategy, clock Clock) *Ticket {
	if clock == nil {
		clock = time.Now
	}

	return &Ticket{
		id:        uuid.New().String(),
		vehicle:   vehicle,
		strategy:  strategy,
		clock:     clock,
		entryTime: clock(),
	}
}

func (t *Ticket) ID() string                { return t.id }
func (t *Ticket) Vehicle() *Vehicle         { return t.vehicle }
func (t *Ticket) Strategy() PricingStrategy { return t.strategy }
func (t *Ticket) EntryTime() time.Time      { return t.entryTime }

func (t *Ticket) ExitTime() (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.exitTime, t.closed
}

func (t *Ticket) IsClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// Close stamps the exit time. Closing twice is rejected and keeps the
// original exit time.
func (t *Ticket) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("%w: ticket %s is already closed", ErrInvalidState, t.id)
	}

	exit := t.clock()
	if exit.Before(t.entryTime) {
		exit = t.entryTime
	}
	t.exitTime = exit
	t.closed = true
	return nil
}

// Duration returns the billed stay in whole hours, never less than one.
func (t *Ticket) Duration() (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.closed {
		return 0, fmt.Errorf("%w: ticket %s is still open", ErrInvalidState, t.id)
	}

	hours := int(t.exitTime.Sub(t.entryTime) / time.Hour)
	return max(hours, minBilledHours), nil
}

func (t *Ticket) Fee() (decimal.Decimal, error) {
	hours, err := t.Duration()
	if err != nil {
		return decimal.Zero, err
	}
	return t.strategy.CalculateFee(hours, t.vehicle.Rate()), nil
}
