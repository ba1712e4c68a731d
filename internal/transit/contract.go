package transit

import "context"

// Client is the capability contract every provider adapter implements.
// Semantics are uniform regardless of upstream quirks:
//
//   - "no data" conditions (unknown station, no predictions, no incidents)
//     yield empty collections, never errors;
//   - operations a provider cannot support return absent/empty rather than
//     failing (RouteInfo returns nil for providers that do not model routes);
//   - upstream failures surface as *Error, never raw transport errors.
//
// Provider-specific extension operations live on the concrete adapter types,
// never on this interface, so callers must consciously opt in.
type Client interface {
	// City returns the transit system this client serves.
	City() City

	// Stations returns the full station list for the city, lines resolved.
	Stations(ctx context.Context) ([]Station, error)

	// StationPredictions returns real-time predictions for a station,
	// sorted by ascending arrival urgency with sentinels first.
	StationPredictions(ctx context.Context, stationID string) ([]TransitPrediction, error)

	// Incidents returns current service incidents and alerts.
	Incidents(ctx context.Context) ([]TransitIncident, error)

	// SearchStations matches stations by case-insensitive name substring or
	// exact id. Adapters may apply domain-specific fuzzy normalization.
	SearchStations(ctx context.Context, query string) ([]Station, error)

	// StationsByLine returns stations served by the given line code,
	// matched case-insensitively.
	StationsByLine(ctx context.Context, lineCode string) ([]Station, error)

	// RouteInfo returns static route details, or nil when the provider does
	// not model the route (not an error).
	RouteInfo(ctx context.Context, routeID string) (*TransitRoute, error)
}
