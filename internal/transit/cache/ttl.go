package cache

import "time"

// Freshness windows per data class. Static reference data tolerates long
// windows; realtime feeds and vehicle positions do not.
const (
	TTLStations    = time.Hour
	TTLRoutes      = time.Hour
	TTLBusStops    = 30 * time.Minute
	TTLIncidents   = 5 * time.Minute
	TTLPredictions = 30 * time.Second
	TTLFeeds       = 30 * time.Second
	TTLPositions   = 10 * time.Second
)
