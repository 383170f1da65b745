package parking

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func runShellWith(t *testing.T, telemetry *TelemetryProvider, capacity int, input string, opts ...Option) (string, *Shell) {
	t.Helper()

	var out bytes.Buffer
	shell, err := NewShell(telemetry, strings.NewReader(input), &out, capacity, nil, opts...)
	if err != nil {
		t.Fatalf("Failed to create shell: %v", err)
	}

	shell.Run(context.Background())
	return out.String(), shell
}

func runShell(t *testing.T, capacity int, input string, opts ...Option) (string, *Shell) {
	t.Helper()
	return runShellWith(t, newTestTelemetry(t).provider, capacity, input, opts...)
}

func outputLines(out string) []string {
	return strings.Split(strings.TrimSpace(out), "\n")
}

func TestShellParkAndExit(t *testing.T) {
	input := strings.Join([]string{
		"park T1 truck peak",
		"exit T1",
	}, "\n")

	out, _ := runShell(t, 2, input, WithClock(newFakeClock().Now))

	expected := "Vehicle T1 parked.\nVehicle T1 exited.\nParking Fee: $15\n"
	if out != expected {
		t.Errorf("Expected output %q, got %q", expected, out)
	}
}

func TestShellReportsFullLotAndUnknownPlate(t *testing.T) {
	input := strings.Join([]string{
		"park A1 car offpeak",
		"park B1 bike offpeak",
		"exit ZZ",
	}, "\n")

	out, shell := runShell(t, 1, input)

	expected := "Vehicle A1 parked.\nParking lot is full.\nVehicle not found.\n"
	if out != expected {
		t.Errorf("Expected output %q, got %q", expected, out)
	}
	if shell.ParkingLot().AvailableSpaces() != 0 {
		t.Errorf("Expected 0 available spaces, got %d", shell.ParkingLot().AvailableSpaces())
	}
}

func TestShellStatusAndTicket(t *testing.T) {
	input := strings.Join([]string{
		"status",
		"park B2 bike weekend",
		"park A1 car peak",
		"status",
		"ticket A1",
		"ticket ZZ",
	}, "\n")

	out, _ := runShell(t, 5, input)
	lines := outputLines(out)

	if len(lines) != 10 {
		t.Fatalf("Expected 10 output lines, got %d: %q", len(lines), lines)
	}
	if lines[0] != "Capacity: 5\tAvailable: 5" {
		t.Errorf("Unexpected status line %q", lines[0])
	}
	if lines[1] != "Parking lot is empty" {
		t.Errorf("Expected empty lot message, got %q", lines[1])
	}
	if lines[4] != "Capacity: 5\tAvailable: 3" {
		t.Errorf("Unexpected status line %q", lines[4])
	}
	if !strings.HasPrefix(lines[6], "A1\t\tcar\tpeak\t") {
		t.Errorf("Expected A1 row first, got %q", lines[6])
	}
	if !strings.HasPrefix(lines[7], "B2\t\tbike\tweekend\t") {
		t.Errorf("Expected B2 row second, got %q", lines[7])
	}
	if !strings.Contains(lines[8], "car A1, peak pricing, rate 7") {
		t.Errorf("Unexpected ticket line %q", lines[8])
	}
	if lines[9] != "Not found" {
		t.Errorf("Expected Not found, got %q", lines[9])
	}
}

func TestShellCreateParkingLotReplacesLot(t *testing.T) {
	telemetry := newTestTelemetry(t)
	input := strings.Join([]string{
		"park A1 car offpeak",
		"create_parking_lot 2",
		"status",
		"create_parking_lot zero",
	}, "\n")

	out, shell := runShellWith(t, telemetry.provider, 10, input)

	for _, want := range []string{
		"Created a parking lot with 2 spaces\n",
		"Capacity: 2\tAvailable: 2\n",
		"Invalid capacity\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got %q", want, out)
		}
	}
	if shell.ParkingLot().Capacity() != 2 {
		t.Errorf("Expected capacity 2, got %d", shell.ParkingLot().Capacity())
	}

	if got := sumInt64(telemetry.metric(t, "parking_lot_total_spaces"), "", ""); got != 2 {
		t.Errorf("Expected total spaces gauge 2 after replacement, got %d", got)
	}
	if got := sumInt64(telemetry.metric(t, "parking_lot_occupancy"), "", ""); got != 0 {
		t.Errorf("Expected occupancy gauge 0 after replacement, got %d", got)
	}
}

func TestShellRejectsBadInput(t *testing.T) {
	input := strings.Join([]string{
		"park A1 car",
		"park A1 boat peak",
		"park A1 car holiday",
		"park A1 car peak",
		"park A1 car peak",
		"exit",
		"fly away",
	}, "\n")

	out, _ := runShell(t, 3, input)
	lines := outputLines(out)

	expected := []string{
		"Usage: park <plate_number> <car|bike|truck> <peak|offpeak|weekend>",
		"Invalid vehicle type",
		"Invalid pricing strategy",
		"Vehicle A1 parked.",
		"Error: vehicle is already parked: A1",
		"Usage: exit <plate_number>",
		"Unknown command: fly",
	}
	if len(lines) != len(expected) {
		t.Fatalf("Expected %d output lines, got %d: %q", len(expected), len(lines), lines)
	}
	for i := range expected {
		if lines[i] != expected[i] {
			t.Errorf("Expected line %d to be %q, got %q", i, expected[i], lines[i])
		}
	}
}
