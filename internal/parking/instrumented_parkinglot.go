package parking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type InstrumentedParkingLot struct {
	*ParkingLot
	telemetry *TelemetryProvider

	// Metrics
	parkingOperations metric.Int64Counter
	exitOperations    metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	totalSpacesGauge  metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
	feesCharged       metric.Float64Counter
	stayHours         metric.Int64Histogram

	// gaugeMu guards this lot's share of the shared occupancy gauge.
	gaugeMu  sync.Mutex
	occupied int64
	retired  bool
}

func NewInstrumentedParkingLot(capacity int, telemetry *TelemetryProvider, opts ...Option) (*InstrumentedParkingLot, error) {
	baseParkingLot, err := NewParkingLot(capacity, opts...)
	if err != nil {
		return nil, err
	}

	meter := telemetry.Meter()

	parkingOperations, err := meter.Int64Counter("parking_operations_total",
		metric.WithDescription("Total number of park attempts"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	exitOperations, err := meter.Int64Counter("exit_operations_total",
		metric.WithDescription("Total number of exit attempts"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("parking_lot_occupancy",
		metric.WithDescription("Current number of occupied parking spaces"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	totalSpacesGauge, err := meter.Int64UpDownCounter("parking_lot_total_spaces",
		metric.WithDescription("Total number of parking spaces"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of parking lot operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	feesCharged, err := meter.Float64Counter("parking_fees_total",
		metric.WithDescription("Sum of fees charged on exit"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	stayHours, err := meter.Int64Histogram("parking_stay_hours",
		metric.WithDescription("Billed hours per closed ticket"),
		metric.WithUnit("h"))
	if err != nil {
		return nil, err
	}

	ipl := &InstrumentedParkingLot{
		ParkingLot:        baseParkingLot,
		telemetry:         telemetry,
		parkingOperations: parkingOperations,
		exitOperations:    exitOperations,
		occupancyGauge:    occupancyGauge,
		totalSpacesGauge:  totalSpacesGauge,
		operationDuration: operationDuration,
		feesCharged:       feesCharged,
		stayHours:         stayHours,
	}

	totalSpacesGauge.Add(context.Background(), int64(capacity))

	return ipl, nil
}

func (ipl *InstrumentedParkingLot) ParkVehicle(ctx context.Context, vehicle *Vehicle, strategy PricingStrategy) (*Ticket, error) {
	attrs := []attribute.KeyValue{}
	if vehicle != nil {
		attrs = append(attrs,
			attribute.String("vehicle.plate_number", vehicle.PlateNumber()),
			attribute.String("vehicle.type", string(vehicle.Type())),
		)
	}
	if strategy != nil {
		attrs = append(attrs, attribute.String("pricing.strategy", strategy.Name()))
	}

	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.park_vehicle", trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()

	span.AddEvent("issuing_ticket")

	ticket, err := ipl.ParkingLot.ParkVehicle(vehicle, strategy)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "park"),
	}
	if vehicle != nil {
		labels = append(labels, attribute.String("vehicle_type", string(vehicle.Type())))
	}
	if strategy != nil {
		labels = append(labels, attribute.String("pricing", strategy.Name()))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", parkStatus(err)))
	} else {
		labels = append(labels, attribute.String("status", "success"))
		span.SetAttributes(attribute.String("ticket.id", ticket.ID()))
		span.AddEvent("ticket_issued", trace.WithAttributes(
			attribute.Int("available_spaces", ipl.AvailableSpaces()),
		))
		ipl.addOccupancy(ctx, 1)
	}

	ipl.parkingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return ticket, err
}

func (ipl *InstrumentedParkingLot) ExitVehicle(ctx context.Context, plateNumber string) (decimal.Decimal, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.exit_vehicle",
		trace.WithAttributes(
			attribute.String("vehicle.plate_number", plateNumber),
		))
	defer span.End()

	start := time.Now()

	span.AddEvent("closing_ticket")

	ticket, fee, err := ipl.ParkingLot.checkOut(plateNumber)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "exit"),
	}

	if ticket != nil {
		labels = append(labels,
			attribute.String("vehicle_type", string(ticket.Vehicle().Type())),
			attribute.String("pricing", ticket.Strategy().Name()),
		)
		span.SetAttributes(
			attribute.String("ticket.id", ticket.ID()),
			attribute.String("vehicle.type", string(ticket.Vehicle().Type())),
			attribute.String("pricing.strategy", ticket.Strategy().Name()),
		)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", exitStatus(err)))
	} else {
		labels = append(labels, attribute.String("status", "success"))
		span.SetAttributes(attribute.String("ticket.fee", fee.String()))
		span.AddEvent("fee_charged")

		ipl.addOccupancy(ctx, -1)
		ipl.feesCharged.Add(ctx, fee.InexactFloat64(), metric.WithAttributes(labels...))
		if hours, herr := ticket.Duration(); herr == nil {
			span.SetAttributes(attribute.Int("ticket.billed_hours", hours))
			ipl.stayHours.Record(ctx, int64(hours), metric.WithAttributes(labels...))
		}
	}

	ipl.exitOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return fee, err
}

func (ipl *InstrumentedParkingLot) Ticket(ctx context.Context, plateNumber string) (*Ticket, bool) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.get_ticket",
		trace.WithAttributes(
			attribute.String("vehicle.plate_number", plateNumber),
		))
	defer span.End()

	start := time.Now()

	ticket, ok := ipl.ParkingLot.Ticket(plateNumber)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "get_ticket"),
	}

	if !ok {
		span.AddEvent("ticket_not_found")
		labels = append(labels, attribute.String("status", "not_found"))
	} else {
		span.AddEvent("ticket_found", trace.WithAttributes(
			attribute.String("ticket.id", ticket.ID()),
		))
		labels = append(labels, attribute.String("status", "found"))
	}

	ipl.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return ticket, ok
}

func (ipl *InstrumentedParkingLot) ActiveTickets(ctx context.Context) []*Ticket {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.active_tickets")
	defer span.End()

	start := time.Now()

	tickets := ipl.ParkingLot.ActiveTickets()

	duration := time.Since(start).Seconds()

	span.SetAttributes(
		attribute.Int("active_tickets_count", len(tickets)),
		attribute.Int("total_capacity", ipl.Capacity()),
	)

	labels := []attribute.KeyValue{
		attribute.String("operation", "active_tickets"),
		attribute.String("status", "success"),
	}

	ipl.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return tickets
}

// Retire withdraws the lot's spaces and open tickets from the shared gauges.
// Call it once the lot has been replaced; later operations on a retired lot
// no longer move the occupancy gauge.
func (ipl *InstrumentedParkingLot) Retire(ctx context.Context) {
	ipl.gaugeMu.Lock()
	defer ipl.gaugeMu.Unlock()

	if ipl.retired {
		return
	}
	ipl.retired = true

	ipl.totalSpacesGauge.Add(ctx, -int64(ipl.Capacity()))
	if ipl.occupied != 0 {
		ipl.occupancyGauge.Add(ctx, -ipl.occupied)
		ipl.occupied = 0
	}
}

func (ipl *InstrumentedParkingLot) addOccupancy(ctx context.Context, delta int64) {
	ipl.gaugeMu.Lock()
	defer ipl.gaugeMu.Unlock()

	if ipl.retired {
		return
	}
	ipl.occupied += delta
	ipl.occupancyGauge.Add(ctx, delta)
}

func parkStatus(err error) string {
	switch {
	case errors.Is(err, ErrCapacityExceeded):
		return "lot_full"
	case errors.Is(err, ErrAlreadyParked):
		return "already_parked"
	default:
		return "failed"
	}
}

func exitStatus(err error) string {
	if errors.Is(err, ErrNotFound) {
		return "not_found"
	}
	return "failed"
}
