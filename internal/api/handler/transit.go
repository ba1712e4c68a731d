// Package handler provides HTTP handlers for the TransitDeck API.
package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/transitdeck/transitdeck/internal/api/models"
	"github.com/transitdeck/transitdeck/internal/api/response"
	"github.com/transitdeck/transitdeck/internal/transit"
)

// TransitHandler serves the city-parameterized transit endpoints.
type TransitHandler struct {
	registry *transit.Registry
}

// NewTransitHandler creates a new TransitHandler.
func NewTransitHandler(registry *transit.Registry) *TransitHandler {
	return &TransitHandler{registry: registry}
}

// resolveClient resolves the adapter for the {city} URL parameter. On failure
// it writes the error response and returns false.
func (h *TransitHandler) resolveClient(w http.ResponseWriter, r *http.Request) (transit.Client, bool) {
	city := transit.City(strings.ToLower(chi.URLParam(r, "city")))
	client, err := h.registry.Client(city)
	if err != nil {
		writeTransitError(w, r, err)
		return nil, false
	}
	return client, true
}

// ListCities handles GET /v1/cities - supported transit systems.
func (h *TransitHandler) ListCities(w http.ResponseWriter, r *http.Request) {
	cities := h.registry.Cities()
	out := models.CitiesResponse{Cities: make([]models.CityResponse, 0, len(cities))}
	for _, city := range cities {
		info, ok := transit.Info(city)
		if !ok {
			continue
		}
		out.Cities = append(out.Cities, models.CityResponse{City: city, Info: info})
	}
	response.JSON(w, r, http.StatusOK, out)
}

// ListStations handles GET /v1/{city}/stations.
func (h *TransitHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	client, ok := h.resolveClient(w, r)
	if !ok {
		return
	}

	stations, err := client.Stations(r.Context())
	if err != nil {
		writeTransitError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.StationsResponse{
		City:     client.City(),
		Count:    len(stations),
		Stations: stations,
	})
}

// SearchStations handles GET /v1/{city}/stations/search?q=...
func (h *TransitHandler) SearchStations(w http.ResponseWriter, r *http.Request) {
	client, ok := h.resolveClient(w, r)
	if !ok {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		response.BadRequest(w, r, "missing search query", []models.FieldError{
			{Field: "q", Message: "is required", Code: "REQUIRED"},
		})
		return
	}

	stations, err := client.SearchStations(r.Context(), query)
	if err != nil {
		writeTransitError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.StationsResponse{
		City:     client.City(),
		Count:    len(stations),
		Stations: stations,
	})
}

// StationPredictions handles GET /v1/{city}/stations/{stationId}/predictions.
func (h *TransitHandler) StationPredictions(w http.ResponseWriter, r *http.Request) {
	client, ok := h.resolveClient(w, r)
	if !ok {
		return
	}

	stationID := chi.URLParam(r, "stationId")
	predictions, err := client.StationPredictions(r.Context(), stationID)
	if err != nil {
		writeTransitError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.PredictionsResponse{
		City:        client.City(),
		StationID:   stationID,
		Count:       len(predictions),
		Predictions: predictions,
	})
}

// StationsByLine handles GET /v1/{city}/lines/{lineCode}/stations.
func (h *TransitHandler) StationsByLine(w http.ResponseWriter, r *http.Request) {
	client, ok := h.resolveClient(w, r)
	if !ok {
		return
	}

	stations, err := client.StationsByLine(r.Context(), chi.URLParam(r, "lineCode"))
	if err != nil {
		writeTransitError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.StationsResponse{
		City:     client.City(),
		Count:    len(stations),
		Stations: stations,
	})
}

// Incidents handles GET /v1/{city}/incidents.
func (h *TransitHandler) Incidents(w http.ResponseWriter, r *http.Request) {
	client, ok := h.resolveClient(w, r)
	if !ok {
		return
	}

	incidents, err := client.Incidents(r.Context())
	if err != nil {
		writeTransitError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.IncidentsResponse{
		City:      client.City(),
		Count:     len(incidents),
		Incidents: incidents,
	})
}

// RouteInfo handles GET /v1/{city}/routes/{routeId}.
func (h *TransitHandler) RouteInfo(w http.ResponseWriter, r *http.Request) {
	client, ok := h.resolveClient(w, r)
	if !ok {
		return
	}

	route, err := client.RouteInfo(r.Context(), chi.URLParam(r, "routeId"))
	if err != nil {
		writeTransitError(w, r, err)
		return
	}
	if route == nil {
		response.NotFound(w, r, "route not found")
		return
	}

	response.JSON(w, r, http.StatusOK, route)
}
