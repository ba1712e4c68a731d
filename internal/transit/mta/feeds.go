package mta

import "sort"

// Feed names. Each realtime feed covers a disjoint subset of subway lines
// and is published independently, so each gets its own client and breaker.
const (
	FeedMain = "main" // numbered lines and the 42 St shuttle
	FeedACE  = "ace"
	FeedBDFM = "bdfm"
	FeedG    = "g"
	FeedJZ   = "jz"
	FeedNQRW = "nqrw"
	FeedL    = "l"
	FeedSI   = "si"
)

const feedBaseURL = "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs"

// DefaultAlertsURL is the JSON service-alerts feed. One fetch covers the
// whole system, unlike the per-line binary feeds.
const DefaultAlertsURL = "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/camsys%2Fsubway-alerts.json"

// DefaultFeedURLs maps feed name to its public endpoint.
func DefaultFeedURLs() map[string]string {
	return map[string]string{
		FeedMain: feedBaseURL,
		FeedACE:  feedBaseURL + "-ace",
		FeedBDFM: feedBaseURL + "-bdfm",
		FeedG:    feedBaseURL + "-g",
		FeedJZ:   feedBaseURL + "-jz",
		FeedNQRW: feedBaseURL + "-nqrw",
		FeedL:    feedBaseURL + "-l",
		FeedSI:   feedBaseURL + "-si",
	}
}

// lineToFeed maps a route id to the feed that carries its trip updates.
var lineToFeed = map[string]string{
	"1": FeedMain, "2": FeedMain, "3": FeedMain,
	"4": FeedMain, "5": FeedMain, "6": FeedMain, "7": FeedMain,
	"GS": FeedMain, "S": FeedMain, "FS": FeedMain, "H": FeedMain,
	"A": FeedACE, "C": FeedACE, "E": FeedACE,
	"B": FeedBDFM, "D": FeedBDFM, "F": FeedBDFM, "M": FeedBDFM,
	"G": FeedG,
	"J": FeedJZ, "Z": FeedJZ,
	"N": FeedNQRW, "Q": FeedNQRW, "R": FeedNQRW, "W": FeedNQRW,
	"L":  FeedL,
	"SI": FeedSI, "SIR": FeedSI,
}

// feedsForLines returns the feed names covering the given lines, sorted for
// stable fan-out order. A line with no known feed mapping contributes no
// feed: one bad mapping must not turn into a fetch of every feed.
func feedsForLines(lines []string, all map[string]string) []string {
	selected := make(map[string]struct{})
	for _, line := range lines {
		feed, ok := lineToFeed[line]
		if !ok {
			continue
		}
		selected[feed] = struct{}{}
	}

	names := make([]string, 0, len(selected))
	for name := range selected {
		if _, ok := all[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
