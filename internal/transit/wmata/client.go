// Package wmata implements the DC Metro provider against the WMATA REST API.
package wmata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/transitdeck/transitdeck/internal/provider/resilience"
	"github.com/transitdeck/transitdeck/internal/transit"
	"github.com/transitdeck/transitdeck/internal/transit/cache"
)

const (
	// ProviderName identifies this transit provider.
	ProviderName = "wmata"

	// DefaultBaseURL is the WMATA API base URL.
	DefaultBaseURL = "https://api.wmata.com"
)

// ClientConfig holds configuration for the WMATA client.
type ClientConfig struct {
	// APIKey is the WMATA API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to the WMATA API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Registry receives per-request health outcomes (optional).
	Registry *resilience.Registry

	// Now overrides the clock, for tests (default: time.Now).
	Now func() time.Time

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a WMATA API client serving the DC Metro. It implements the
// shared provider contract plus WMATA-only extensions (bus network, train
// positions, elevator outages).
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	registry   *resilience.Registry
	now        func() time.Time
	logger     zerolog.Logger

	stations       *cache.Cache[[]transit.Station]
	predictions    *cache.Cache[[]transit.TransitPrediction]
	incidents      *cache.Cache[[]transit.TransitIncident]
	elevators      *cache.Cache[[]ElevatorIncident]
	trainPositions *cache.Cache[[]TrainPosition]
	busStops       *cache.Cache[[]BusStop]
	busPredictions *cache.Cache[[]BusPrediction]
	busRoutes      *cache.Cache[[]BusRoute]
	busPositions   *cache.Cache[[]BusPosition]
}

// New creates a WMATA client. A missing API key fails here, at construction,
// so misconfiguration never shows up as a downstream fetch error.
func New(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("WMATA_API_KEY: %w", transit.ErrMissingCredential)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Registry = cfg.Registry
		httpClient = resilience.NewClient(clientCfg)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	cacheCfg := cache.Config{Now: now, Logger: cfg.Logger}

	return &Client{
		apiKey:         cfg.APIKey,
		baseURL:        baseURL,
		httpClient:     httpClient,
		registry:       cfg.Registry,
		now:            now,
		logger:         cfg.Logger,
		stations:       cache.New[[]transit.Station](cacheCfg),
		predictions:    cache.New[[]transit.TransitPrediction](cacheCfg),
		incidents:      cache.New[[]transit.TransitIncident](cacheCfg),
		elevators:      cache.New[[]ElevatorIncident](cacheCfg),
		trainPositions: cache.New[[]TrainPosition](cacheCfg),
		busStops:       cache.New[[]BusStop](cacheCfg),
		busPredictions: cache.New[[]BusPrediction](cacheCfg),
		busRoutes:      cache.New[[]BusRoute](cacheCfg),
		busPositions:   cache.New[[]BusPosition](cacheCfg),
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// City returns the city this client serves.
func (c *Client) City() transit.City {
	return transit.CityDC
}

// Stations returns the full DC Metro station list.
func (c *Client) Stations(ctx context.Context) ([]transit.Station, error) {
	return c.stations.Fetch(ctx, "stations", cache.TTLStations, func(ctx context.Context) ([]transit.Station, error) {
		var resp stationsResponse
		if err := c.getJSON(ctx, "/Rail.svc/json/jStations", nil, &resp); err != nil {
			return nil, err
		}

		stations := make([]transit.Station, 0, len(resp.Stations))
		for i := range resp.Stations {
			stations = append(stations, toStation(&resp.Stations[i]))
		}
		return stations, nil
	})
}

// StationPredictions returns real-time rail predictions for a station code.
// An unknown station yields an empty list, not an error.
func (c *Client) StationPredictions(ctx context.Context, stationID string) ([]transit.TransitPrediction, error) {
	key := "predictions:" + stationID
	return c.predictions.Fetch(ctx, key, cache.TTLPredictions, func(ctx context.Context) ([]transit.TransitPrediction, error) {
		var resp predictionsResponse
		path := "/StationPrediction.svc/json/GetPrediction/" + url.PathEscape(stationID)
		if err := c.getJSON(ctx, path, nil, &resp); err != nil {
			return nil, err
		}

		now := c.now()
		predictions := make([]transit.TransitPrediction, 0, len(resp.Trains))
		for i := range resp.Trains {
			// Placeholder rows with no countdown carry no signal.
			if strings.TrimSpace(resp.Trains[i].Min) == "" {
				continue
			}
			predictions = append(predictions, toPrediction(&resp.Trains[i], now))
		}
		transit.SortPredictions(predictions)
		return predictions, nil
	})
}

// Incidents returns current rail incidents.
func (c *Client) Incidents(ctx context.Context) ([]transit.TransitIncident, error) {
	return c.incidents.Fetch(ctx, "incidents", cache.TTLIncidents, func(ctx context.Context) ([]transit.TransitIncident, error) {
		var resp incidentsResponse
		if err := c.getJSON(ctx, "/Incidents.svc/json/Incidents", nil, &resp); err != nil {
			return nil, err
		}

		incidents := make([]transit.TransitIncident, 0, len(resp.Incidents))
		for i := range resp.Incidents {
			incidents = append(incidents, toIncident(&resp.Incidents[i]))
		}
		return incidents, nil
	})
}

// SearchStations matches by case-insensitive name substring or exact code.
// WMATA has no server-side search; this filters the cached station list.
func (c *Client) SearchStations(ctx context.Context, query string) ([]transit.Station, error) {
	stations, err := c.Stations(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	matches := make([]transit.Station, 0)
	for _, s := range stations {
		if strings.EqualFold(s.ID, query) || strings.Contains(strings.ToLower(s.Name), q) {
			matches = append(matches, s)
		}
	}
	return matches, nil
}

// StationsByLine returns stations served by a line code ("RD", "bl", ...).
func (c *Client) StationsByLine(ctx context.Context, lineCode string) ([]transit.Station, error) {
	stations, err := c.Stations(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]transit.Station, 0)
	for _, s := range stations {
		if s.HasLine(lineCode) {
			matches = append(matches, s)
		}
	}
	return matches, nil
}

// RouteInfo is not modeled for WMATA: its "routes" are the line colors
// already present as station line tags. Always absent.
func (c *Client) RouteInfo(_ context.Context, _ string) (*transit.TransitRoute, error) {
	return nil, nil
}

// ElevatorIncidents returns elevator and escalator outages. WMATA extension.
func (c *Client) ElevatorIncidents(ctx context.Context) ([]ElevatorIncident, error) {
	return c.elevators.Fetch(ctx, "elevator-incidents", cache.TTLIncidents, func(ctx context.Context) ([]ElevatorIncident, error) {
		var resp elevatorIncidentsResponse
		if err := c.getJSON(ctx, "/Incidents.svc/json/ElevatorIncidents", nil, &resp); err != nil {
			return nil, err
		}
		return resp.ElevatorIncidents, nil
	})
}

// TrainPositions returns live railcar locations. WMATA extension.
func (c *Client) TrainPositions(ctx context.Context) ([]TrainPosition, error) {
	return c.trainPositions.Fetch(ctx, "train-positions", cache.TTLPositions, func(ctx context.Context) ([]TrainPosition, error) {
		var resp trainPositionsResponse
		query := url.Values{"contentType": {"json"}}
		if err := c.getJSON(ctx, "/TrainPositions/TrainPositions", query, &resp); err != nil {
			return nil, err
		}
		return resp.TrainPositions, nil
	})
}

// BusStopsNear returns bus stops within radiusMeters of a coordinate.
// WMATA extension.
func (c *Client) BusStopsNear(ctx context.Context, lat, lon float64, radiusMeters int) ([]BusStop, error) {
	query := url.Values{
		"Lat":    {fmt.Sprintf("%.6f", lat)},
		"Lon":    {fmt.Sprintf("%.6f", lon)},
		"Radius": {fmt.Sprintf("%d", radiusMeters)},
	}
	key := "bus-stops:" + query.Encode()
	return c.busStops.Fetch(ctx, key, cache.TTLBusStops, func(ctx context.Context) ([]BusStop, error) {
		var resp busStopsResponse
		if err := c.getJSON(ctx, "/Bus.svc/json/jStops", query, &resp); err != nil {
			return nil, err
		}
		return resp.Stops, nil
	})
}

// BusPredictions returns next-bus arrivals at a stop. WMATA extension.
func (c *Client) BusPredictions(ctx context.Context, stopID string) ([]BusPrediction, error) {
	key := "bus-predictions:" + stopID
	return c.busPredictions.Fetch(ctx, key, cache.TTLPredictions, func(ctx context.Context) ([]BusPrediction, error) {
		var resp busPredictionsResponse
		query := url.Values{"StopID": {stopID}}
		if err := c.getJSON(ctx, "/NextBusService.svc/json/jPredictions", query, &resp); err != nil {
			return nil, err
		}
		return resp.Predictions, nil
	})
}

// BusRoutes returns the bus route list. WMATA extension.
func (c *Client) BusRoutes(ctx context.Context) ([]BusRoute, error) {
	return c.busRoutes.Fetch(ctx, "bus-routes", cache.TTLRoutes, func(ctx context.Context) ([]BusRoute, error) {
		var resp busRoutesResponse
		if err := c.getJSON(ctx, "/Bus.svc/json/jRoutes", nil, &resp); err != nil {
			return nil, err
		}
		return resp.Routes, nil
	})
}

// BusPositions returns live bus locations for a route. WMATA extension.
func (c *Client) BusPositions(ctx context.Context, routeID string) ([]BusPosition, error) {
	key := "bus-positions:" + routeID
	return c.busPositions.Fetch(ctx, key, cache.TTLPositions, func(ctx context.Context) ([]BusPosition, error) {
		var resp busPositionsResponse
		query := url.Values{"RouteID": {routeID}}
		if err := c.getJSON(ctx, "/Bus.svc/json/jBusPositions", query, &resp); err != nil {
			return nil, err
		}
		return resp.BusPositions, nil
	})
}

// getJSON fetches a WMATA endpoint and decodes its JSON envelope. All
// failures come back as the normalized provider error.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	header := http.Header{}
	header.Set("api_key", c.apiKey)
	header.Set("Accept", "application/json")

	body, status, err := c.httpClient.GetBody(ctx, u, header)
	if err != nil {
		c.recordFailure(err)
		return transit.UpstreamError(transit.CityDC, 0, "fetching "+path, err)
	}
	if status != http.StatusOK {
		err := fmt.Errorf("unexpected status code: %d", status)
		c.recordFailure(err)
		return transit.UpstreamError(transit.CityDC, status, "fetching "+path, err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		c.recordFailure(err)
		return transit.UpstreamError(transit.CityDC, status, "decoding "+path, err)
	}

	c.recordSuccess()
	return nil
}

func (c *Client) recordSuccess() {
	if c.registry != nil {
		c.registry.RecordSuccess(ProviderName)
	}
}

func (c *Client) recordFailure(err error) {
	if c.registry != nil {
		c.registry.RecordFailure(ProviderName, err)
	}
	c.logger.Error().Err(err).Str("provider", ProviderName).Msg("upstream request failed")
}
