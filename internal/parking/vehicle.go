package parking

import (
	"fmt"
	"strings"
)

type VehicleType string

const (
	Car   VehicleType = "car"
	Bike  VehicleType = "bike"
	Truck VehicleType = "truck"
)

// Hourly base rates per vehicle type, in abstract currency units.
const (
	carRate   = 7
	bikeRate  = 3
	truckRate = 10
)

func ParseVehicleType(s string) (VehicleType, error) {
	switch vt := VehicleType(strings.ToLower(strings.TrimSpace(s))); vt {
	case Car, Bike, Truck:
		return vt, nil
	default:
		return "", fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidVehicle, s)
	}
}

// Vehicle is immutable once built; use NewVehicle or the typed constructors.
type Vehicle struct {
	plateNumber string
	vehicleType VehicleType
}

func NewVehicle(plateNumber string, vehicleType VehicleType) (*Vehicle, error) {
	if strings.TrimSpace(plateNumber) == "" {
		return nil, fmt.Errorf("%w: plate number is required", ErrInvalidVehicle)
	}
	if _, err := ParseVehicleType(string(vehicleType)); err != nil {
		return nil, err
	}

	return &Vehicle{
		plateNumber: plateNumber,
		vehicleType: vehicleType,
	}, nil
}

func NewCar(plateNumber string) *Vehicle {
	return &Vehicle{plateNumber: plateNumber, vehicleType: Car}
}

func NewBike(plateNumber string) *Vehicle {
	return &Vehicle{plateNumber: plateNumber, vehicleType: Bike}
}

func NewTruck(plateNumber string) *Vehicle {
	return &Vehicle{plateNumber: plateNumber, vehicleType: Truck}
}

func (v *Vehicle) PlateNumber() string { return v.plateNumber }
func (v *Vehicle) Type() VehicleType   { return v.vehicleType }

// Rate returns the base hourly charge for the vehicle's type, or 0 for a
// zero Vehicle.
func (v *Vehicle) Rate() int {
	switch v.vehicleType {
	case Car:
		return carRate
	case Bike:
		return bikeRate
	case Truck:
		return truckRate
	default:
		return 0
	}
}
