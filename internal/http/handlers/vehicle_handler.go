// README: Vehicle CRUD handlers and the models summary.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rides/internal/modules/vehicle"
)

type VehicleHandler struct {
	vehicles VehicleService
}

func NewVehicleHandler(vehicles VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles}
}

type vehicleReq struct {
	DriverID     string `json:"driver_id"`
	LicensePlate string `json:"license_plate"`
	Model        string `json:"model"`
	Capacity     int    `json:"capacity"`
}

func (h *VehicleHandler) Create(c *gin.Context) {
	var req vehicleReq
	if !bindJSON(c, &req) {
		return
	}
	driverID, ok := bodyID(c, "driver_id", req.DriverID)
	if !ok {
		return
	}
	v, err := h.vehicles.Create(c.Request.Context(), vehicle.CreateCommand{
		DriverID:     driverID,
		LicensePlate: req.LicensePlate,
		Model:        req.Model,
		Capacity:     req.Capacity,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, v)
}

func (h *VehicleHandler) List(c *gin.Context) {
	vehicles, err := h.vehicles.List(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(vehicles))
}

func (h *VehicleHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.vehicles.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, v)
}

func (h *VehicleHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req vehicleReq
	if !bindJSON(c, &req) {
		return
	}
	v, err := h.vehicles.Update(c.Request.Context(), vehicle.UpdateCommand{
		ID:           id,
		LicensePlate: req.LicensePlate,
		Model:        req.Model,
		Capacity:     req.Capacity,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, v)
}

func (h *VehicleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.vehicles.Delete(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *VehicleHandler) ModelsSummary(c *gin.Context) {
	summary, err := h.vehicles.ModelsSummary(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(summary))
}
