package models

import "github.com/transitdeck/transitdeck/internal/transit"

// CityResponse describes one supported transit system.
type CityResponse struct {
	City transit.City     `json:"city"`
	Info transit.CityInfo `json:"info"`
}

// CitiesResponse lists the supported transit systems.
type CitiesResponse struct {
	Cities []CityResponse `json:"cities"`
}

// StationsResponse wraps a station list with its city and count.
type StationsResponse struct {
	City     transit.City      `json:"city"`
	Count    int               `json:"count"`
	Stations []transit.Station `json:"stations"`
}

// PredictionsResponse wraps real-time predictions for one station.
type PredictionsResponse struct {
	City        transit.City                `json:"city"`
	StationID   string                      `json:"stationId"`
	Count       int                         `json:"count"`
	Predictions []transit.TransitPrediction `json:"predictions"`
}

// IncidentsResponse wraps current service incidents for a city.
type IncidentsResponse struct {
	City      transit.City              `json:"city"`
	Count     int                       `json:"count"`
	Incidents []transit.TransitIncident `json:"incidents"`
}

// TransfersResponse wraps the transfer edges out of one station.
type TransfersResponse struct {
	City      transit.City              `json:"city"`
	StationID string                    `json:"stationId"`
	Transfers []transit.StationTransfer `json:"transfers"`
}
