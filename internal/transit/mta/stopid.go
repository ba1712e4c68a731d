package mta

import (
	"strings"

	"github.com/transitdeck/transitdeck/internal/transit"
)

// parseStopID splits a realtime stop id into the base station id and the
// travel direction implied by its trailing marker ("127N" is the northbound
// platform of station 127). No marker means the direction is undetermined.
func parseStopID(stopID string) (string, transit.Direction) {
	switch {
	case strings.HasSuffix(stopID, "N"):
		return strings.TrimSuffix(stopID, "N"), transit.DirectionNorth
	case strings.HasSuffix(stopID, "S"):
		return strings.TrimSuffix(stopID, "S"), transit.DirectionSouth
	default:
		return stopID, transit.DirectionUnknown
	}
}
