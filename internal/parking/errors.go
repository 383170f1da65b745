package parking

import "errors"

var (
	ErrCapacityExceeded = errors.New("parking lot is full")
	ErrNotFound         = errors.New("vehicle not found")
	ErrAlreadyParked    = errors.New("vehicle is already parked")
	ErrInvalidState     = errors.New("invalid ticket state")
	ErrInvalidCapacity  = errors.New("capacity must be greater than 0")
	ErrInvalidVehicle   = errors.New("invalid vehicle")
	ErrInvalidPricing   = errors.New("invalid pricing strategy")
)
