package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/base-14/examples/go/parking-fees/internal/parking"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Meta    *Meta           `json:"meta"`
}

func newTestServer(t *testing.T, capacity int) *httptest.Server {
	t.Helper()

	telemetry := parking.NewTelemetryProviderWith("parking-fees-test", nil, nil, nil)
	t.Cleanup(func() { _ = telemetry.Shutdown(context.Background()) })

	entry := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	handler, err := NewHandler("parking-fees-test", capacity, telemetry,
		parking.WithClock(func() time.Time { return entry }),
		parking.WithNotifier(parking.NotifierFunc(func(parking.Event) {})),
	)
	require.NoError(t, err)

	ts := httptest.NewServer(NewServer("0", "parking-fees-test", handler).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path string, body any) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func park(t *testing.T, ts *httptest.Server, plate, vehicleType, pricing string) (*http.Response, envelope) {
	t.Helper()
	return do(t, ts, http.MethodPost, "/api/parking-lot/park", ParkVehicleRequest{
		PlateNumber: plate,
		VehicleType: vehicleType,
		Pricing:     pricing,
	})
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, 5)

	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "parking-fees-test", health.Service)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts := newTestServer(t, 5)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/parking-lot/status", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-42")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))

	assert.Equal(t, "req-42", resp.Header.Get("X-Request-ID"))
	require.NotNil(t, env.Meta)
	assert.Equal(t, "req-42", env.Meta.RequestID)
}

func TestParkAndExit(t *testing.T) {
	ts := newTestServer(t, 5)

	resp, env := park(t, ts, "T1", "truck", "peak")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)

	var ticket TicketResponse
	require.NoError(t, json.Unmarshal(env.Data, &ticket))
	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, "T1", ticket.PlateNumber)
	assert.Equal(t, "truck", ticket.VehicleType)
	assert.Equal(t, "peak", ticket.Pricing)
	assert.Equal(t, 10, ticket.Rate)
	assert.Nil(t, ticket.ExitTime)

	resp, env = do(t, ts, http.MethodPost, "/api/parking-lot/exit", ExitVehicleRequest{PlateNumber: "T1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var exit ExitVehicleResponse
	require.NoError(t, json.Unmarshal(env.Data, &exit))
	assert.Equal(t, "T1", exit.PlateNumber)
	assert.Equal(t, "15", exit.Fee.String())
}

func TestWeekendBikeFeeIsExact(t *testing.T) {
	ts := newTestServer(t, 5)

	park(t, ts, "K1", "bike", "weekend")
	_, env := do(t, ts, http.MethodPost, "/api/parking-lot/exit", ExitVehicleRequest{PlateNumber: "K1"})

	var exit ExitVehicleResponse
	require.NoError(t, json.Unmarshal(env.Data, &exit))
	assert.Equal(t, "3.6", exit.Fee.String())
}

func TestParkErrors(t *testing.T) {
	ts := newTestServer(t, 1)

	resp, _ := park(t, ts, "A1", "car", "offpeak")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	tests := []struct {
		name    string
		body    any
		status  int
		message string
	}{
		{"lot full", ParkVehicleRequest{"B1", "bike", "peak"}, http.StatusConflict, "parking lot is full"},
		{"unknown vehicle type", ParkVehicleRequest{"B1", "boat", "peak"}, http.StatusBadRequest, ""},
		{"unknown pricing", ParkVehicleRequest{"B1", "bike", "holiday"}, http.StatusBadRequest, ""},
		{"missing fields", ParkVehicleRequest{PlateNumber: "B1"}, http.StatusBadRequest, ""},
		{"malformed body", "{", http.StatusBadRequest, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := do(t, ts, http.MethodPost, "/api/parking-lot/park", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.False(t, env.Success)
			if tt.message != "" {
				assert.Equal(t, tt.message, env.Error)
			}
		})
	}
}

func TestParkActivePlateConflicts(t *testing.T) {
	ts := newTestServer(t, 5)

	park(t, ts, "A1", "car", "offpeak")
	resp, env := park(t, ts, "A1", "car", "offpeak")

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, env.Error, "already parked")
}

func TestExitUnknownPlate(t *testing.T) {
	ts := newTestServer(t, 5)

	resp, env := do(t, ts, http.MethodPost, "/api/parking-lot/exit", ExitVehicleRequest{PlateNumber: "ZZ"})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, env.Success)
}

func TestStatusAndTicketLookup(t *testing.T) {
	ts := newTestServer(t, 4)

	park(t, ts, "B2", "bike", "weekend")
	park(t, ts, "A1", "car", "peak")

	resp, env := do(t, ts, http.MethodGet, "/api/parking-lot/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status StatusResponse
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, 4, status.Capacity)
	assert.Equal(t, 2, status.Occupied)
	assert.Equal(t, 2, status.Available)
	require.Len(t, status.Tickets, 2)
	assert.Equal(t, "A1", status.Tickets[0].PlateNumber)
	assert.Equal(t, "B2", status.Tickets[1].PlateNumber)

	resp, env = do(t, ts, http.MethodGet, "/api/parking-lot/tickets/B2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ticket TicketResponse
	require.NoError(t, json.Unmarshal(env.Data, &ticket))
	assert.Equal(t, "weekend", ticket.Pricing)
	assert.Equal(t, 3, ticket.Rate)

	resp, _ = do(t, ts, http.MethodGet, "/api/parking-lot/tickets/ZZ", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateParkingLotReplacesLot(t *testing.T) {
	ts := newTestServer(t, 5)
	park(t, ts, "A1", "car", "offpeak")

	resp, _ := do(t, ts, http.MethodPost, "/api/parking-lot", ParkingLotCreateRequest{Capacity: 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, env := do(t, ts, http.MethodGet, "/api/parking-lot/status", nil)
	var status StatusResponse
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, 2, status.Capacity)
	assert.Equal(t, 2, status.Available)
	assert.Empty(t, status.Tickets)

	resp, env = do(t, ts, http.MethodPost, "/api/parking-lot", ParkingLotCreateRequest{Capacity: 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)
}

func TestMetricsExposeLotGauges(t *testing.T) {
	ts := newTestServer(t, 3)
	park(t, ts, "A1", "car", "offpeak")

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "parking_lot_capacity 3")
	assert.Contains(t, string(body), "parking_lot_available_spaces 2")
	assert.Contains(t, string(body), "parking_lot_active_tickets 1")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{parking.ErrCapacityExceeded, http.StatusConflict},
		{parking.ErrAlreadyParked, http.StatusConflict},
		{parking.ErrNotFound, http.StatusNotFound},
		{parking.ErrInvalidVehicle, http.StatusBadRequest},
		{parking.ErrInvalidPricing, http.StatusBadRequest},
		{parking.ErrInvalidCapacity, http.StatusBadRequest},
		{parking.ErrInvalidState, http.StatusUnprocessableEntity},
		{io.EOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, statusFor(tt.err), tt.err.Error())
	}
}
