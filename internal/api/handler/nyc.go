package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/transitdeck/transitdeck/internal/api/models"
	"github.com/transitdeck/transitdeck/internal/api/response"
	"github.com/transitdeck/transitdeck/internal/transit"
	"github.com/transitdeck/transitdeck/internal/transit/mta"
)

// NYCHandler serves the MTA-only extension endpoints.
type NYCHandler struct {
	client *mta.Client
}

// NewNYCHandler creates a new NYCHandler.
func NewNYCHandler(client *mta.Client) *NYCHandler {
	return &NYCHandler{client: client}
}

// StationTransfers handles GET /v1/nyc/stations/{stationId}/transfers.
// Transfer edges come from the static GTFS dataset, so unknown stations
// simply have no edges.
func (h *NYCHandler) StationTransfers(w http.ResponseWriter, r *http.Request) {
	stationID := chi.URLParam(r, "stationId")
	transfers := h.client.StationTransfers(stationID)
	if transfers == nil {
		transfers = []transit.StationTransfer{}
	}

	response.JSON(w, r, http.StatusOK, models.TransfersResponse{
		City:      transit.CityNYC,
		StationID: stationID,
		Transfers: transfers,
	})
}
