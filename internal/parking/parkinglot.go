package parking

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultCapacity = 300

type Option func(*ParkingLot)

func WithClock(clock Clock) Option {
	return func(pl *ParkingLot) {
		if clock != nil {
			pl.clock = clock
		}
	}
}

func WithNotifier(notifier Notifier) Option {
	return func(pl *ParkingLot) {
		if notifier != nil {
			pl.notifier = notifier
		}
	}
}

// ParkingLot tracks free spaces and the open ticket of every parked vehicle.
// available always equals capacity minus the number of active tickets; mu
// guards both together.
type ParkingLot struct {
	capacity int
	clock    Clock
	notifier Notifier

	mu        sync.Mutex
	available int
	tickets   map[string]*Ticket
}

func NewParkingLot(capacity int, opts ...Option) (*ParkingLot, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	pl := &ParkingLot{
		capacity:  capacity,
		clock:     time.Now,
		notifier:  LogNotifier{},
		available: capacity,
		tickets:   make(map[string]*Ticket, capacity),
	}
	for _, opt := range opts {
		opt(pl)
	}

	return pl, nil
}

func (pl *ParkingLot) Capacity() int {
	return pl.capacity
}

func (pl *ParkingLot) AvailableSpaces() int {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.available
}

// ParkVehicle issues an open ticket for the vehicle. A plate that already
// holds an active ticket is rejected rather than overwritten.
func (pl *ParkingLot) ParkVehicle(vehicle *Vehicle, strategy PricingStrategy) (*Ticket, error) {
	if vehicle == nil {
		return nil, fmt.Errorf("%w: vehicle is required", ErrInvalidVehicle)
	}
	if strategy == nil {
		return nil, fmt.Errorf("%w: strategy is required", ErrInvalidPricing)
	}

	ticket, err := pl.park(vehicle, strategy)
	if err != nil {
		if errors.Is(err, ErrCapacityExceeded) {
			pl.emit(EventLotFull, vehicle.PlateNumber(), decimal.Zero)
		}
		return nil, err
	}

	pl.emit(EventParked, vehicle.PlateNumber(), decimal.Zero)
	return ticket, nil
}

func (pl *ParkingLot) park(vehicle *Vehicle, strategy PricingStrategy) (*Ticket, error) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	if pl.available <= 0 {
		return nil, ErrCapacityExceeded
	}
	if _, ok := pl.tickets[vehicle.PlateNumber()]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyParked, vehicle.PlateNumber())
	}

	ticket := NewTicket(vehicle, strategy, pl.clock)
	pl.tickets[vehicle.PlateNumber()] = ticket
	pl.available--

	return ticket, nil
}

// ExitVehicle closes the plate's ticket, frees its space and returns the fee.
func (pl *ParkingLot) ExitVehicle(plateNumber string) (decimal.Decimal, error) {
	_, fee, err := pl.checkOut(plateNumber)
	return fee, err
}

// checkOut is ExitVehicle that also returns the ticket it closed.
func (pl *ParkingLot) checkOut(plateNumber string) (*Ticket, decimal.Decimal, error) {
	ticket, fee, err := pl.exit(plateNumber)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			pl.emit(EventNotFound, plateNumber, decimal.Zero)
		}
		return nil, decimal.Zero, err
	}

	pl.emit(EventExited, plateNumber, decimal.Zero)
	pl.emit(EventFeeCharged, plateNumber, fee)
	return ticket, fee, nil
}

func (pl *ParkingLot) exit(plateNumber string) (*Ticket, decimal.Decimal, error) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	ticket, ok := pl.tickets[plateNumber]
	if !ok {
		return nil, decimal.Zero, fmt.Errorf("%w: %s", ErrNotFound, plateNumber)
	}

	// A ticket its holder already closed keeps its recorded exit time.
	if err := ticket.Close(); err != nil && !errors.Is(err, ErrInvalidState) {
		return nil, decimal.Zero, err
	}
	fee, err := ticket.Fee()
	if err != nil {
		return nil, decimal.Zero, err
	}

	pl.available++
	delete(pl.tickets, plateNumber)

	return ticket, fee, nil
}

func (pl *ParkingLot) Ticket(plateNumber string) (*Ticket, bool) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	ticket, ok := pl.tickets[plateNumber]
	return ticket, ok
}

// ActiveTickets returns the open tickets ordered by plate number.
func (pl *ParkingLot) ActiveTickets() []*Ticket {
	pl.mu.Lock()
	tickets := make([]*Ticket, 0, len(pl.tickets))
	for _, ticket := range pl.tickets {
		tickets = append(tickets, ticket)
	}
	pl.mu.Unlock()

	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].Vehicle().PlateNumber() < tickets[j].Vehicle().PlateNumber()
	})

	return tickets
}

func (pl *ParkingLot) emit(kind EventKind, plateNumber string, fee decimal.Decimal) {
	pl.notifier.Notify(Event{
		Kind:        kind,
		PlateNumber: plateNumber,
		Fee:         fee,
		At:          pl.clock(),
	})
}
