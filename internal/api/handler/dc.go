package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/transitdeck/transitdeck/internal/api/models"
	"github.com/transitdeck/transitdeck/internal/api/response"
	"github.com/transitdeck/transitdeck/internal/transit/wmata"
)

// DCHandler serves the WMATA-only extension endpoints: Metrobus data, raw
// train positions, and elevator/escalator outages. These operations have no
// MTA counterpart, so they hang off the concrete adapter rather than the
// shared contract.
type DCHandler struct {
	client *wmata.Client
}

// NewDCHandler creates a new DCHandler.
func NewDCHandler(client *wmata.Client) *DCHandler {
	return &DCHandler{client: client}
}

// ElevatorIncidents handles GET /v1/dc/elevator-incidents.
func (h *DCHandler) ElevatorIncidents(w http.ResponseWriter, r *http.Request) {
	incidents, err := h.client.ElevatorIncidents(r.Context())
	if err != nil {
		writeTransitError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, incidents)
}

// TrainPositions handles GET /v1/dc/train-positions.
func (h *DCHandler) TrainPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.client.TrainPositions(r.Context())
	if err != nil {
		writeTransitError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, positions)
}

// BusStopsNear handles GET /v1/dc/bus/stops?lat=...&lon=...&radius=...
func (h *DCHandler) BusStopsNear(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("lon"), 64)
	if latErr != nil || lonErr != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		response.BadRequest(w, r, "invalid coordinates", []models.FieldError{
			{Field: "lat", Message: "must be a number between -90 and 90"},
			{Field: "lon", Message: "must be a number between -180 and 180"},
		})
		return
	}

	radius := 500
	if raw := q.Get("radius"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.BadRequest(w, r, "invalid radius", []models.FieldError{
				{Field: "radius", Message: "must be a positive integer of meters"},
			})
			return
		}
		radius = parsed
	}

	stops, err := h.client.BusStopsNear(r.Context(), lat, lon, radius)
	if err != nil {
		writeTransitError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, stops)
}

// BusPredictions handles GET /v1/dc/bus/stops/{stopId}/predictions.
func (h *DCHandler) BusPredictions(w http.ResponseWriter, r *http.Request) {
	predictions, err := h.client.BusPredictions(r.Context(), chi.URLParam(r, "stopId"))
	if err != nil {
		writeTransitError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, predictions)
}

// BusRoutes handles GET /v1/dc/bus/routes.
func (h *DCHandler) BusRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := h.client.BusRoutes(r.Context())
	if err != nil {
		writeTransitError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, routes)
}

// BusPositions handles GET /v1/dc/bus/routes/{routeId}/positions.
func (h *DCHandler) BusPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.client.BusPositions(r.Context(), chi.URLParam(r, "routeId"))
	if err != nil {
		writeTransitError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, positions)
}
