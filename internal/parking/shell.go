package parking

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Shell is a line-oriented console for a single lot. Lot notifications are
// written to the same output as command results.
type Shell struct {
	parkingLot *InstrumentedParkingLot
	scanner    *bufio.Scanner
	out        io.Writer
	telemetry  *TelemetryProvider
	lotOpts    []Option
}

// NewShell starts with a lot of the given capacity. Lot events are printed to
// out and, when extra is non-nil, forwarded to extra as well.
func NewShell(telemetry *TelemetryProvider, in io.Reader, out io.Writer, capacity int, extra Notifier, opts ...Option) (*Shell, error) {
	notifier := MultiNotifier{WriterNotifier{W: out}, extra}

	s := &Shell{
		scanner:   bufio.NewScanner(in),
		out:       out,
		telemetry: telemetry,
		lotOpts:   append(append([]Option{}, opts...), WithNotifier(notifier)),
	}

	parkingLot, err := NewInstrumentedParkingLot(capacity, telemetry, s.lotOpts...)
	if err != nil {
		return nil, err
	}
	s.parkingLot = parkingLot

	return s, nil
}

func (s *Shell) ParkingLot() *InstrumentedParkingLot {
	return s.parkingLot
}

func (s *Shell) Run(ctx context.Context) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")

	for ctx.Err() == nil && s.scanner.Scan() {
		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}

		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))

		s.processCommand(cmdCtx, input)
		cmdSpan.End()
	}

	span.AddEvent("shell_ended")
}

func (s *Shell) processCommand(ctx context.Context, input string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	command := parts[0]
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("command.name", command))

	switch command {
	case "create_parking_lot":
		s.handleCreateParkingLot(ctx, parts)
	case "park":
		s.handlePark(ctx, parts)
	case "exit", "leave":
		s.handleExit(ctx, parts)
	case "status":
		s.handleStatus(ctx)
	case "ticket":
		s.handleTicket(ctx, parts)
	default:
		trace.SpanFromContext(ctx).AddEvent("unknown_command")
		fmt.Fprintf(s.out, "Unknown command: %s\n", command)
	}
}

func (s *Shell) handleCreateParkingLot(ctx context.Context, parts []string) {
	ctx, span := s.telemetry.Tracer().Start(ctx, "shell.create_parking_lot")
	defer span.End()

	if len(parts) != 2 {
		span.AddEvent("invalid_arguments")
		fmt.Fprintln(s.out, "Usage: create_parking_lot <capacity>")
		return
	}

	capacity, err := strconv.Atoi(parts[1])
	if err != nil || capacity <= 0 {
		span.RecordError(fmt.Errorf("invalid capacity: %s", parts[1]))
		fmt.Fprintln(s.out, "Invalid capacity")
		return
	}

	span.SetAttributes(attribute.Int("parking_lot.capacity", capacity))

	parkingLot, err := NewInstrumentedParkingLot(capacity, s.telemetry, s.lotOpts...)
	if err != nil {
		span.RecordError(err)
		fmt.Fprintf(s.out, "Error creating parking lot: %s\n", err.Error())
		return
	}

	s.parkingLot.Retire(ctx)
	s.parkingLot = parkingLot
	span.AddEvent("parking_lot_created")
	fmt.Fprintf(s.out, "Created a parking lot with %d spaces\n", capacity)
}

func (s *Shell) handlePark(ctx context.Context, parts []string) {
	ctx, span := s.telemetry.Tracer().Start(ctx, "shell.park_command")
	defer span.End()

	if len(parts) != 4 {
		span.AddEvent("invalid_arguments")
		fmt.Fprintln(s.out, "Usage: park <plate_number> <car|bike|truck> <peak|offpeak|weekend>")
		return
	}

	vehicleType, err := ParseVehicleType(parts[2])
	if err != nil {
		span.RecordError(err)
		fmt.Fprintln(s.out, "Invalid vehicle type")
		return
	}

	strategy, err := ParsePricingStrategy(parts[3])
	if err != nil {
		span.RecordError(err)
		fmt.Fprintln(s.out, "Invalid pricing strategy")
		return
	}

	vehicle, err := NewVehicle(parts[1], vehicleType)
	if err != nil {
		span.RecordError(err)
		fmt.Fprintf(s.out, "Error: %s\n", err.Error())
		return
	}

	// Full-lot and success outcomes are reported by the lot's notifier.
	if _, err := s.parkingLot.ParkVehicle(ctx, vehicle, strategy); err != nil {
		span.AddEvent("parking_failed")
		if !errors.Is(err, ErrCapacityExceeded) {
			fmt.Fprintf(s.out, "Error: %s\n", err.Error())
		}
		return
	}

	span.AddEvent("parking_successful")
}

func (s *Shell) handleExit(ctx context.Context, parts []string) {
	ctx, span := s.telemetry.Tracer().Start(ctx, "shell.exit_command")
	defer span.End()

	if len(parts) != 2 {
		span.AddEvent("invalid_arguments")
		fmt.Fprintln(s.out, "Usage: exit <plate_number>")
		return
	}

	if _, err := s.parkingLot.ExitVehicle(ctx, parts[1]); err != nil {
		span.AddEvent("exit_failed")
		if !errors.Is(err, ErrNotFound) {
			fmt.Fprintf(s.out, "Error: %s\n", err.Error())
		}
		return
	}

	span.AddEvent("exit_successful")
}

func (s *Shell) handleStatus(ctx context.Context) {
	ctx, span := s.telemetry.Tracer().Start(ctx, "shell.status_command")
	defer span.End()

	tickets := s.parkingLot.ActiveTickets(ctx)

	fmt.Fprintf(s.out, "Capacity: %d\tAvailable: %d\n", s.parkingLot.Capacity(), s.parkingLot.AvailableSpaces())
	if len(tickets) == 0 {
		span.AddEvent("parking_lot_empty")
		fmt.Fprintln(s.out, "Parking lot is empty")
		return
	}

	fmt.Fprintln(s.out, "Plate No.\tType\tPricing\tEntry Time")
	for _, t := range tickets {
		fmt.Fprintf(s.out, "%s\t\t%s\t%s\t%s\n",
			t.Vehicle().PlateNumber(),
			t.Vehicle().Type(),
			t.Strategy().Name(),
			t.EntryTime().Format(time.RFC3339),
		)
	}
}

func (s *Shell) handleTicket(ctx context.Context, parts []string) {
	ctx, span := s.telemetry.Tracer().Start(ctx, "shell.ticket_command")
	defer span.End()

	if len(parts) != 2 {
		span.AddEvent("invalid_arguments")
		fmt.Fprintln(s.out, "Usage: ticket <plate_number>")
		return
	}

	ticket, ok := s.parkingLot.Ticket(ctx, parts[1])
	if !ok {
		fmt.Fprintln(s.out, "Not found")
		return
	}

	fmt.Fprintf(s.out, "Ticket %s: %s %s, %s pricing, rate %d, entered %s\n",
		ticket.ID(),
		ticket.Vehicle().Type(),
		ticket.Vehicle().PlateNumber(),
		ticket.Strategy().Name(),
		ticket.Vehicle().Rate(),
		ticket.EntryTime().Format(time.RFC3339),
	)
}
