package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"

	"github.com/base-14/examples/go/parking-fees/internal/parking"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type ParkingLotCreateRequest struct {
	Capacity int `json:"capacity"`
}

type ParkVehicleRequest struct {
	PlateNumber string `json:"plate_number"`
	VehicleType string `json:"vehicle_type"`
	Pricing     string `json:"pricing"`
}

type ExitVehicleRequest struct {
	PlateNumber string `json:"plate_number"`
}

type ExitVehicleResponse struct {
	PlateNumber string          `json:"plate_number"`
	Fee         decimal.Decimal `json:"fee"`
}

type TicketResponse struct {
	ID          string     `json:"id"`
	PlateNumber string     `json:"plate_number"`
	VehicleType string     `json:"vehicle_type"`
	Pricing     string     `json:"pricing"`
	Rate        int        `json:"rate"`
	EntryTime   time.Time  `json:"entry_time"`
	ExitTime    *time.Time `json:"exit_time,omitempty"`
}

type StatusResponse struct {
	Capacity  int              `json:"capacity"`
	Occupied  int              `json:"occupied"`
	Available int              `json:"available"`
	Tickets   []TicketResponse `json:"tickets"`
}

func newTicketResponse(t *parking.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:          t.ID(),
		PlateNumber: t.Vehicle().PlateNumber(),
		VehicleType: string(t.Vehicle().Type()),
		Pricing:     t.Strategy().Name(),
		Rate:        t.Vehicle().Rate(),
		EntryTime:   t.EntryTime(),
	}
	if exit, ok := t.ExitTime(); ok {
		resp.ExitTime = &exit
	}
	return resp
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
