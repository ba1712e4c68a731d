// Package transit defines the normalized data model and the capability
// contract shared by every transit provider adapter.
package transit

import (
	"sort"
	"strings"
)

// City identifies a supported transit system.
type City string

const (
	// CityDC is the Washington DC Metro (WMATA).
	CityDC City = "dc"

	// CityNYC is the New York City Subway (MTA).
	CityNYC City = "nyc"
)

// Direction is the travel direction of a train, when known.
type Direction string

const (
	DirectionNorth   Direction = "NORTH"
	DirectionSouth   Direction = "SOUTH"
	DirectionUnknown Direction = ""
)

// TransferType categorizes a transfer edge.
type TransferType string

const (
	// TransferPlatform is a same-complex platform switch.
	TransferPlatform TransferType = "platform"

	// TransferNearby is an out-of-system walk to a nearby station.
	TransferNearby TransferType = "nearby"
)

// Address is a station street address. All fields are optional.
type Address struct {
	Street string `json:"street,omitempty"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	Zip    string `json:"zip,omitempty"`
}

// StationTransfer is a directed edge from one parent station to another,
// weighted by walk time in seconds.
type StationTransfer struct {
	ToStationID   string       `json:"toStationId"`
	ToStationName string       `json:"toStationName"`
	TransferTime  int          `json:"transferTime"`
	TransferType  TransferType `json:"transferType"`
}

// Station is the normalized station representation across all transit systems.
// Stations are immutable value objects: adapters build them once at fetch or
// load time and never mutate them afterwards.
type Station struct {
	// ID is the provider-native station code (e.g. "A01" for DC, "127" for NYC).
	ID string `json:"id"`

	// Name is the rider-facing station name.
	Name string `json:"name"`

	// City identifies the transit system.
	City City `json:"city"`

	// Latitude and Longitude are WGS84 degrees.
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Lines are the line codes serving this station, rendered sorted.
	// A station with no known lines is never published.
	Lines []string `json:"lines"`

	// Address is the street address, when the provider models one.
	Address *Address `json:"address,omitempty"`

	// ParentStation is the id of the logical station this platform belongs
	// to, for directional platform variants.
	ParentStation string `json:"parentStation,omitempty"`

	// ChildPlatforms are the direction-specific platform ids grouped under
	// this logical station.
	ChildPlatforms []string `json:"childPlatforms,omitempty"`

	// Transfers are outgoing transfer edges, sorted by ascending walk time.
	Transfers []StationTransfer `json:"transfers,omitempty"`
}

// HasLine reports whether the station is served by the given line code.
// Matching is case-insensitive.
func (s *Station) HasLine(lineCode string) bool {
	for _, l := range s.Lines {
		if strings.EqualFold(l, lineCode) {
			return true
		}
	}
	return false
}

// TransitPrediction is a normalized real-time arrival prediction. Predictions
// are ephemeral: they are produced fresh per request, subject only to the
// short-lived feed cache.
type TransitPrediction struct {
	City City `json:"city"`

	// Line is the line code (e.g. "RD", "1", "A").
	Line string `json:"line"`

	// Destination is the destination name, falling back to the raw stop or
	// track id when the provider cannot resolve one.
	Destination string `json:"destination"`

	// DestinationCode is the destination station code, when available.
	DestinationCode string `json:"destinationCode,omitempty"`

	// ArrivalTime is the absolute arrival timestamp in ISO-8601, or the
	// upstream sentinel for imminent arrivals.
	ArrivalTime string `json:"arrivalTime"`

	// MinutesAway is the countdown until arrival.
	MinutesAway Minutes `json:"minutesAway"`

	// Cars is the train length, when the provider reports one.
	Cars string `json:"cars,omitempty"`

	// Track is platform/track information, when available.
	Track string `json:"track,omitempty"`

	// Direction is the travel direction, when it can be determined.
	Direction Direction `json:"direction,omitempty"`
}

// SortPredictions orders predictions by ascending arrival urgency: imminent
// ("ARR"/"BRD") entries first, then numeric countdowns ascending. Equal
// countdowns sort by line then destination so concurrent feed merges produce
// a stable order.
func SortPredictions(predictions []TransitPrediction) {
	sort.SliceStable(predictions, func(i, j int) bool {
		a, b := predictions[i], predictions[j]
		if a.MinutesAway.Less(b.MinutesAway) {
			return true
		}
		if b.MinutesAway.Less(a.MinutesAway) {
			return false
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Destination < b.Destination
	})
}

// TransitIncident is a normalized service incident or alert. Ephemeral.
type TransitIncident struct {
	City City `json:"city"`

	// IncidentID is the provider's unique identifier for this incident.
	IncidentID string `json:"incidentId"`

	// Description is the human-readable incident text.
	Description string `json:"description"`

	// LinesAffected is the de-duplicated set of affected line codes.
	LinesAffected []string `json:"linesAffected"`

	// Severity is the provider's severity label (e.g. "Major", "Delays").
	Severity string `json:"severity"`

	// IncidentType is the provider's incident/alert type label.
	IncidentType string `json:"incidentType"`

	// Timestamp is when the incident was last updated, ISO-8601.
	Timestamp string `json:"timestamp"`

	// PassengerDelay is the expected delay in minutes, when reported.
	PassengerDelay float64 `json:"passengerDelay,omitempty"`

	// StartLocation and EndLocation bound the affected segment, when known.
	StartLocation string `json:"startLocation,omitempty"`
	EndLocation   string `json:"endLocation,omitempty"`
}

// TransitRoute is static route reference data. Loaded once; immutable.
type TransitRoute struct {
	// RouteID is the provider-native route id.
	RouteID string `json:"routeId"`

	// ShortName is the rider-facing label, e.g. a line letter.
	ShortName string `json:"shortName"`

	// LongName is the full route name.
	LongName string `json:"longName"`

	// Description is the free-text service pattern description.
	Description string `json:"description"`

	City City `json:"city"`
}

// DedupLines returns the unique line codes from the input, preserving first
// occurrence order.
func DedupLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
