// FilePath: api/resources/api.resource.devices.go
package resources

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/itsatony/telemhub/internal/errors"
	"github.com/itsatony/telemhub/internal/service"
	nuts "github.com/vaudience/go-nuts"
)

// DeviceHandlers encapsulates the device-related HTTP handlers
type DeviceHandlers struct {
	service *service.TelemetryService
}

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

type readingsQuery struct {
	Granularity string `schema:"granularity"`
}

// @Summary List devices
// @Description List every device that has reported telemetry
// @Tags devices
// @Produce json
// @Success 200 {array} string
// @Router /devices [get]
func (h *DeviceHandlers) ListDevices(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	devices, err := h.service.ListDevices(r.Context())
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to list devices", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, devices)
}

// @Summary Get historical readings
// @Description Get time-bucketed averages for a device at one of the fixed granularities (1d, 1m, 3m, 6m, 1y)
// @Tags devices
// @Produce json
// @Param id path string true "Device ID"
// @Param granularity query string false "Granularity token (default 1d)"
// @Success 200 {array} models.Bucket
// @Failure 400 {object} errors.APIError
// @Router /devices/{id}/readings [get]
func (h *DeviceHandlers) GetHistoricalReadings(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	deviceID := vars["id"]
	requestID := nuts.NID("req", 12)

	var query readingsQuery
	if err := queryDecoder.Decode(&query, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}
	if query.Granularity == "" {
		query.Granularity = "1d"
	}

	buckets, err := h.service.GetHistorical(r.Context(), deviceID, query.Granularity)
	if err != nil {
		if apiErr, ok := err.(*errors.APIError); ok {
			respondWithError(w, apiErr.WithRequestID(requestID))
			return
		}
		respondWithError(w, errors.NewInternalError("failed to get historical readings", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, buckets)
}

// @Summary Get current reading
// @Description Get the most recent reading for a device
// @Tags devices
// @Produce json
// @Param id path string true "Device ID"
// @Success 200 {object} models.Reading
// @Failure 404 {object} errors.APIError
// @Router /devices/{id}/current [get]
func (h *DeviceHandlers) GetCurrentReading(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	deviceID := vars["id"]
	requestID := nuts.NID("req", 12)

	reading, err := h.service.GetCurrent(r.Context(), deviceID)
	if err != nil {
		if errors.IsNotFound(err) {
			respondWithError(w, err.(*errors.APIError).WithRequestID(requestID))
			return
		}
		respondWithError(w, errors.NewInternalError("failed to get current reading", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, reading)
}

// @Summary Get device status
// @Description Get the liveness row for a device
// @Tags devices
// @Produce json
// @Param id path string true "Device ID"
// @Success 200 {object} models.DeviceStatus
// @Failure 404 {object} errors.APIError
// @Router /devices/{id}/status [get]
func (h *DeviceHandlers) GetDeviceStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	deviceID := vars["id"]
	requestID := nuts.NID("req", 12)

	status, err := h.service.GetDeviceStatus(r.Context(), deviceID)
	if err != nil {
		if errors.IsNotFound(err) {
			respondWithError(w, err.(*errors.APIError).WithRequestID(requestID))
			return
		}
		respondWithError(w, errors.NewInternalError("failed to get device status", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}

// @Summary Health check
// @Description Report service health after pinging the store
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *DeviceHandlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Health(r.Context()); err != nil {
		respondWithError(w, errors.NewUnavailableError("store unreachable", err))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"version":   nuts.GetVersion(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
