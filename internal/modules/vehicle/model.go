// README: Vehicle owned by a driver; one per driver, plates unique.
package vehicle

import (
	"rides/internal/apperr"
	"rides/internal/types"
)

const DefaultCapacity = 4

var (
	ErrNotFound         = apperr.New(apperr.ErrNotFound, "vehicle not found")
	ErrDriverNotFound   = apperr.New(apperr.ErrNotFound, "driver not found")
	ErrNotDriver        = apperr.New(apperr.ErrValidation, "user is not a driver")
	ErrInvalidCapacity  = apperr.New(apperr.ErrValidation, "capacity must be positive")
	ErrMissingPlate     = apperr.New(apperr.ErrValidation, "license plate is required")
	ErrMissingModel     = apperr.New(apperr.ErrValidation, "model is required")
	ErrPlateTaken       = apperr.New(apperr.ErrConflict, "license plate already registered")
	ErrDriverHasVehicle = apperr.New(apperr.ErrConflict, "driver already has a vehicle")
)

type Vehicle struct {
	ID           types.ID `json:"id"`
	DriverID     types.ID `json:"driver_id"`
	LicensePlate string   `json:"license_plate"`
	Model        string   `json:"model"`
	Capacity     int      `json:"capacity"`
}

// ModelCount is one row of the models summary.
type ModelCount struct {
	Model string `json:"model"`
	Count int    `json:"count"`
}
