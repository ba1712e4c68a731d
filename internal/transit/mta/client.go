// Package mta implements the NYC Subway provider against the MTA's
// GTFS-realtime feeds. Static station, route, and transfer data comes from
// the offline-built reference dataset; only predictions and alerts touch the
// network.
package mta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	gtfsrt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/proto"

	"github.com/transitdeck/transitdeck/internal/gtfs"
	"github.com/transitdeck/transitdeck/internal/provider/resilience"
	"github.com/transitdeck/transitdeck/internal/transit"
	"github.com/transitdeck/transitdeck/internal/transit/cache"
)

// ProviderName identifies this transit provider.
const ProviderName = "mta"

// DefaultFeedTimeout bounds each individual feed fetch so one hung upstream
// cannot stall a whole prediction request.
const DefaultFeedTimeout = 10 * time.Second

// ClientConfig holds configuration for the MTA client.
type ClientConfig struct {
	// Dataset is the reference station/route data (required).
	Dataset *gtfs.Dataset

	// FeedURLs overrides the realtime feed endpoints (optional, for tests).
	FeedURLs map[string]string

	// AlertsURL overrides the alerts feed endpoint (optional).
	AlertsURL string

	// FeedTimeout bounds each per-feed fetch (default: DefaultFeedTimeout).
	FeedTimeout time.Duration

	// HTTPClient, when set, is used for every upstream call instead of the
	// per-feed resilient clients (optional, for tests).
	HTTPClient *resilience.Client

	// Registry receives per-feed health outcomes (optional).
	Registry *resilience.Registry

	// Now overrides the clock, for tests (default: time.Now).
	Now func() time.Time

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is the NYC Subway provider. It implements the shared contract plus
// the StationTransfers extension.
type Client struct {
	stations     []transit.Station
	stationIndex map[string]*transit.Station
	stationNames map[string]string
	routes       map[string]transit.TransitRoute

	feedURLs    map[string]string
	feedClients map[string]*resilience.Client
	feedTimeout time.Duration

	alertsURL    string
	alertsClient *resilience.Client

	feedCache   *cache.Cache[*gtfsrt.FeedMessage]
	alertsCache *cache.Cache[[]transit.TransitIncident]

	registry *resilience.Registry
	now      func() time.Time
	logger   zerolog.Logger
}

// New creates an MTA client around a loaded reference dataset. The public
// feeds need no credential.
func New(cfg ClientConfig) (*Client, error) {
	if cfg.Dataset == nil || len(cfg.Dataset.Stations) == 0 {
		return nil, fmt.Errorf("mta: reference dataset is required")
	}

	feedURLs := cfg.FeedURLs
	if feedURLs == nil {
		feedURLs = DefaultFeedURLs()
	}

	alertsURL := cfg.AlertsURL
	if alertsURL == "" {
		alertsURL = DefaultAlertsURL
	}

	feedTimeout := cfg.FeedTimeout
	if feedTimeout == 0 {
		feedTimeout = DefaultFeedTimeout
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	feedClients := make(map[string]*resilience.Client, len(feedURLs))
	alertsClient := cfg.HTTPClient
	for name := range feedURLs {
		if cfg.HTTPClient != nil {
			feedClients[name] = cfg.HTTPClient
			continue
		}
		clientCfg := resilience.DefaultClientConfig("mta-feed-" + name)
		clientCfg.Registry = cfg.Registry
		feedClients[name] = resilience.NewClient(clientCfg)
	}
	if alertsClient == nil {
		clientCfg := resilience.DefaultClientConfig("mta-alerts")
		clientCfg.Registry = cfg.Registry
		alertsClient = resilience.NewClient(clientCfg)
	}

	c := &Client{
		stations:     cfg.Dataset.Stations,
		stationIndex: make(map[string]*transit.Station, len(cfg.Dataset.Stations)),
		stationNames: make(map[string]string),
		routes:       make(map[string]transit.TransitRoute, len(cfg.Dataset.Routes)),
		feedURLs:     feedURLs,
		feedClients:  feedClients,
		feedTimeout:  feedTimeout,
		alertsURL:    alertsURL,
		alertsClient: alertsClient,
		feedCache:    cache.New[*gtfsrt.FeedMessage](cache.Config{Now: now, Logger: cfg.Logger}),
		alertsCache:  cache.New[[]transit.TransitIncident](cache.Config{Now: now, Logger: cfg.Logger}),
		registry:     cfg.Registry,
		now:          now,
		logger:       cfg.Logger,
	}

	for i := range c.stations {
		station := &c.stations[i]
		c.stationIndex[station.ID] = station
		c.stationNames[station.ID] = station.Name
		// Realtime stop ids reference child platforms; resolve those to the
		// parent's name too.
		for _, platform := range station.ChildPlatforms {
			c.stationNames[platform] = station.Name
		}
	}
	for _, route := range cfg.Dataset.Routes {
		c.routes[strings.ToUpper(route.RouteID)] = route
	}

	return c, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// City returns the city this client serves.
func (c *Client) City() transit.City {
	return transit.CityNYC
}

// Stations returns the full station list. Served from the loaded dataset,
// no network call.
func (c *Client) Stations(_ context.Context) ([]transit.Station, error) {
	return c.stations, nil
}

// StationPredictions fans out to the realtime feeds covering the station's
// lines and merges their trip updates. A failing feed reduces coverage but
// never fails the request; only the surviving feeds' predictions are
// returned, sorted by urgency.
func (c *Client) StationPredictions(ctx context.Context, stationID string) ([]transit.TransitPrediction, error) {
	station, ok := c.stationIndex[stationID]
	if !ok {
		return []transit.TransitPrediction{}, nil
	}

	feeds := feedsForLines(station.Lines, c.feedURLs)

	var (
		mu          sync.Mutex
		predictions []transit.TransitPrediction
		wg          sync.WaitGroup
	)

	for _, name := range feeds {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()

			feedCtx, cancel := context.WithTimeout(ctx, c.feedTimeout)
			defer cancel()

			feed, err := c.fetchFeed(feedCtx, name)
			if err != nil {
				c.logger.Warn().Err(err).
					Str("feed", name).
					Str("station_id", stationID).
					Msg("skipping failed realtime feed")
				return
			}

			found := c.scanFeed(feed, stationID)
			if len(found) == 0 {
				return
			}
			mu.Lock()
			predictions = append(predictions, found...)
			mu.Unlock()
		}(name)
	}
	wg.Wait()

	if predictions == nil {
		predictions = []transit.TransitPrediction{}
	}
	transit.SortPredictions(predictions)
	return predictions, nil
}

// scanFeed collects predictions for one station from a decoded feed.
func (c *Client) scanFeed(feed *gtfsrt.FeedMessage, stationID string) []transit.TransitPrediction {
	now := c.now()
	var found []transit.TransitPrediction

	for _, entity := range feed.GetEntity() {
		tripUpdate := entity.GetTripUpdate()
		if tripUpdate == nil {
			continue
		}
		line := tripUpdate.GetTrip().GetRouteId()
		stopTimeUpdates := tripUpdate.GetStopTimeUpdate()

		for _, stu := range stopTimeUpdates {
			stopID := stu.GetStopId()
			baseID, direction := parseStopID(stopID)
			if baseID != stationID && stopID != stationID {
				continue
			}

			arrivalUnix := stu.GetArrival().GetTime()
			if arrivalUnix == 0 {
				continue
			}
			arrival := time.Unix(arrivalUnix, 0)

			minutes := int(arrival.Sub(now) / time.Minute)
			countdown := transit.MinutesAway(minutes)
			if minutes <= 0 {
				countdown = transit.Arriving()
			}

			found = append(found, transit.TransitPrediction{
				City:        transit.CityNYC,
				Line:        line,
				Destination: c.tripDestination(stopTimeUpdates, stopID),
				ArrivalTime: arrival.UTC().Format(time.RFC3339),
				MinutesAway: countdown,
				Direction:   direction,
			})
		}
	}
	return found
}

// tripDestination names where a trip is headed: the resolved name of its
// final stop, falling back to the raw stop id.
func (c *Client) tripDestination(stopTimeUpdates []*gtfsrt.TripUpdate_StopTimeUpdate, fallback string) string {
	if len(stopTimeUpdates) == 0 {
		return fallback
	}
	lastStop := stopTimeUpdates[len(stopTimeUpdates)-1].GetStopId()
	if lastStop == "" {
		return fallback
	}
	if name, ok := c.stationNames[lastStop]; ok {
		return name
	}
	base, _ := parseStopID(lastStop)
	if name, ok := c.stationNames[base]; ok {
		return name
	}
	return lastStop
}

// fetchFeed returns the decoded message for one feed, refreshing through the
// cache at the feed's republish cadence.
func (c *Client) fetchFeed(ctx context.Context, name string) (*gtfsrt.FeedMessage, error) {
	return c.feedCache.Fetch(ctx, "feed:"+name, cache.TTLFeeds, func(ctx context.Context) (*gtfsrt.FeedMessage, error) {
		url := c.feedURLs[name]
		body, status, err := c.feedClients[name].GetBody(ctx, url, nil)
		if err != nil {
			c.recordFailure("mta-feed-"+name, err)
			return nil, transit.UpstreamError(transit.CityNYC, 0, "fetching feed "+name, err)
		}
		if status != http.StatusOK {
			err := fmt.Errorf("unexpected status code: %d", status)
			c.recordFailure("mta-feed-"+name, err)
			return nil, transit.UpstreamError(transit.CityNYC, status, "fetching feed "+name, err)
		}

		var feed gtfsrt.FeedMessage
		if err := proto.Unmarshal(body, &feed); err != nil {
			c.recordFailure("mta-feed-"+name, err)
			return nil, transit.UpstreamError(transit.CityNYC, status, "decoding feed "+name, err)
		}

		c.recordSuccess("mta-feed-" + name)
		return &feed, nil
	})
}

// Incidents returns current service alerts from the JSON alerts feed. A
// feed failure yields an empty list, not an error: alerts are advisory and
// must never break a request.
func (c *Client) Incidents(ctx context.Context) ([]transit.TransitIncident, error) {
	incidents, err := c.alertsCache.Fetch(ctx, "alerts", cache.TTLIncidents, func(ctx context.Context) ([]transit.TransitIncident, error) {
		body, status, err := c.alertsClient.GetBody(ctx, c.alertsURL, nil)
		if err != nil {
			c.recordFailure("mta-alerts", err)
			return nil, transit.UpstreamError(transit.CityNYC, 0, "fetching alerts", err)
		}
		if status != http.StatusOK {
			err := fmt.Errorf("unexpected status code: %d", status)
			c.recordFailure("mta-alerts", err)
			return nil, transit.UpstreamError(transit.CityNYC, status, "fetching alerts", err)
		}

		var resp alertsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			c.recordFailure("mta-alerts", err)
			return nil, transit.UpstreamError(transit.CityNYC, status, "decoding alerts", err)
		}

		now := c.now()
		incidents := make([]transit.TransitIncident, 0, len(resp.Entity))
		for i := range resp.Entity {
			if resp.Entity[i].Alert == nil {
				continue
			}
			incidents = append(incidents, toIncident(&resp.Entity[i], now))
		}
		c.recordSuccess("mta-alerts")
		return incidents, nil
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("alerts feed unavailable, returning no incidents")
		return []transit.TransitIncident{}, nil
	}
	return incidents, nil
}

// SearchStations matches by case-insensitive name substring or exact id.
// Common long-form street words in the query are rewritten to the MTA short
// forms before matching.
func (c *Client) SearchStations(_ context.Context, query string) ([]transit.Station, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))
	rewritten := rewriteQuery(query)

	matches := make([]transit.Station, 0)
	for _, s := range c.stations {
		name := strings.ToLower(s.Name)
		if strings.Contains(name, normalized) ||
			strings.Contains(name, rewritten) ||
			strings.EqualFold(s.ID, normalized) {
			matches = append(matches, s)
		}
	}
	return matches, nil
}

// StationsByLine returns stations served by a route id ("1", "A", ...).
func (c *Client) StationsByLine(_ context.Context, lineCode string) ([]transit.Station, error) {
	matches := make([]transit.Station, 0)
	for _, s := range c.stations {
		if s.HasLine(lineCode) {
			matches = append(matches, s)
		}
	}
	return matches, nil
}

// RouteInfo returns static route details from the dataset, nil when the
// route is not modeled.
func (c *Client) RouteInfo(_ context.Context, routeID string) (*transit.TransitRoute, error) {
	route, ok := c.routes[strings.ToUpper(routeID)]
	if !ok {
		return nil, nil
	}
	return &route, nil
}

// StationTransfers returns the outgoing transfer edges for a station. MTA
// extension; the shared contract does not model transfers as an operation.
func (c *Client) StationTransfers(stationID string) []transit.StationTransfer {
	station, ok := c.stationIndex[stationID]
	if !ok {
		return []transit.StationTransfer{}
	}
	return station.Transfers
}

func (c *Client) recordSuccess(name string) {
	if c.registry != nil {
		c.registry.RecordSuccess(name)
	}
}

func (c *Client) recordFailure(name string, err error) {
	if c.registry != nil {
		c.registry.RecordFailure(name, err)
	}
	c.logger.Error().Err(err).Str("provider", name).Msg("upstream request failed")
}
