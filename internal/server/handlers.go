package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/base-14/examples/go/parking-fees/internal/logging"
	"github.com/base-14/examples/go/parking-fees/internal/parking"
)

type Handler struct {
	serviceName string
	telemetry   *parking.TelemetryProvider
	lotOpts     []parking.Option

	mu         sync.RWMutex
	parkingLot *parking.InstrumentedParkingLot
}

// NewHandler serves a lot of the given capacity. opts are applied to that lot
// and to any lot that replaces it through CreateParkingLot.
func NewHandler(serviceName string, capacity int, telemetry *parking.TelemetryProvider, opts ...parking.Option) (*Handler, error) {
	parkingLot, err := parking.NewInstrumentedParkingLot(capacity, telemetry, opts...)
	if err != nil {
		return nil, err
	}

	return &Handler{
		serviceName: serviceName,
		telemetry:   telemetry,
		lotOpts:     opts,
		parkingLot:  parkingLot,
	}, nil
}

func (h *Handler) lot() *parking.InstrumentedParkingLot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.parkingLot
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
		Meta:    extractMeta(r.Context()),
	})
}

func (h *Handler) CreateParkingLot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ParkingLotCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Capacity <= 0 {
		WriteError(ctx, w, http.StatusBadRequest, "Capacity must be greater than 0")
		return
	}

	parkingLot, err := parking.NewInstrumentedParkingLot(req.Capacity, h.telemetry, h.lotOpts...)
	if err != nil {
		logging.Error(ctx, "failed to create parking lot", "error", err)
		WriteError(ctx, w, http.StatusInternalServerError, "Failed to create parking lot")
		return
	}

	h.mu.Lock()
	previous := h.parkingLot
	h.parkingLot = parkingLot
	h.mu.Unlock()

	previous.Retire(ctx)

	logging.Info(ctx, "parking lot replaced", "capacity", req.Capacity)

	WriteSuccess(ctx, w, "Parking lot created successfully", map[string]any{
		"capacity": req.Capacity,
	})
}

func (h *Handler) ParkVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ParkVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.PlateNumber) == "" || req.VehicleType == "" || req.Pricing == "" {
		WriteError(ctx, w, http.StatusBadRequest, "plate_number, vehicle_type and pricing are required")
		return
	}

	vehicleType, err := parking.ParseVehicleType(req.VehicleType)
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	strategy, err := parking.ParsePricingStrategy(req.Pricing)
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	vehicle, err := parking.NewVehicle(req.PlateNumber, vehicleType)
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	ticket, err := h.lot().ParkVehicle(ctx, vehicle, strategy)
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	WriteSuccess(ctx, w, "Vehicle parked successfully", newTicketResponse(ticket))
}

func (h *Handler) ExitVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ExitVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.PlateNumber) == "" {
		WriteError(ctx, w, http.StatusBadRequest, "plate_number is required")
		return
	}

	fee, err := h.lot().ExitVehicle(ctx, req.PlateNumber)
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	WriteSuccess(ctx, w, "Vehicle exited successfully", ExitVehicleResponse{
		PlateNumber: req.PlateNumber,
		Fee:         fee,
	})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parkingLot := h.lot()

	tickets := parkingLot.ActiveTickets(ctx)

	response := StatusResponse{
		Capacity:  parkingLot.Capacity(),
		Available: parkingLot.AvailableSpaces(),
		Occupied:  len(tickets),
		Tickets:   make([]TicketResponse, 0, len(tickets)),
	}
	for _, t := range tickets {
		response.Tickets = append(response.Tickets, newTicketResponse(t))
	}

	WriteSuccess(ctx, w, "Status retrieved successfully", response)
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	plateNumber := chi.URLParam(r, "plate")
	if plateNumber == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Plate number is required")
		return
	}

	ticket, ok := h.lot().Ticket(ctx, plateNumber)
	if !ok {
		WriteError(ctx, w, http.StatusNotFound, "Vehicle not found")
		return
	}

	WriteSuccess(ctx, w, "Ticket found", newTicketResponse(ticket))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, parking.ErrCapacityExceeded), errors.Is(err, parking.ErrAlreadyParked):
		return http.StatusConflict
	case errors.Is(err, parking.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, parking.ErrInvalidVehicle),
		errors.Is(err, parking.ErrInvalidPricing),
		errors.Is(err, parking.ErrInvalidCapacity):
		return http.StatusBadRequest
	case errors.Is(err, parking.ErrInvalidState):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
