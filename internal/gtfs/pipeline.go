package gtfs

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/transitdeck/transitdeck/internal/transit"
)

// Pipeline builds the reference dataset from parsed schedule tables. The
// transform is deterministic: re-running it against unchanged input
// reproduces station, line, and transfer ordering byte for byte, so every
// collection is explicitly sorted before emission.
type Pipeline struct {
	city   transit.City
	logger zerolog.Logger
}

// NewPipeline creates a pipeline tagging its output with the given city.
func NewPipeline(city transit.City, logger zerolog.Logger) *Pipeline {
	return &Pipeline{city: city, logger: logger}
}

// Build runs the full transform over the tables.
func (p *Pipeline) Build(tables *Tables) *Dataset {
	// Name lookup spans ALL stops, child platforms included, so transfer
	// endpoints referencing a platform id still resolve to a name.
	stopNames := make(map[string]string, len(tables.Stops))
	parentOf := make(map[string]string, len(tables.Stops))
	parents := make(map[string]Stop)
	for _, stop := range tables.Stops {
		stopNames[stop.ID] = stop.Name
		if stop.ParentStation != "" {
			parentOf[stop.ID] = stop.ParentStation
		}
		if stop.IsParentStation() {
			parents[stop.ID] = stop
		}
	}

	tripRoute := make(map[string]string, len(tables.Trips))
	for _, trip := range tables.Trips {
		tripRoute[trip.ID] = trip.RouteID
	}

	routeShortName := make(map[string]string, len(tables.Routes))
	for _, route := range tables.Routes {
		routeShortName[route.ID] = route.ShortName
	}

	// Accumulate parent station → lines from actual service. A parent that
	// never appears in stop_times has no resolvable lines and is dropped.
	stationLines := make(map[string]map[string]struct{})
	for _, st := range tables.StopTimes {
		parent := resolveParent(st.StopID, parentOf)
		routeID, ok := tripRoute[st.TripID]
		if !ok {
			continue
		}
		line := routeShortName[routeID]
		if line == "" {
			continue
		}
		set, ok := stationLines[parent]
		if !ok {
			set = make(map[string]struct{})
			stationLines[parent] = set
		}
		set[line] = struct{}{}
	}

	childPlatforms := make(map[string][]string)
	for _, stop := range tables.Stops {
		if stop.ParentStation != "" {
			childPlatforms[stop.ParentStation] = append(childPlatforms[stop.ParentStation], stop.ID)
		}
	}
	for _, platforms := range childPlatforms {
		sort.Strings(platforms)
	}

	transfers := p.buildTransfers(tables.Transfers, parentOf, stopNames)

	stations := make([]transit.Station, 0, len(parents))
	for id, stop := range parents {
		lines := stationLines[id]
		if len(lines) == 0 {
			continue
		}
		sorted := make([]string, 0, len(lines))
		for line := range lines {
			sorted = append(sorted, line)
		}
		sort.Strings(sorted)

		stations = append(stations, transit.Station{
			ID:             id,
			Name:           stop.Name,
			City:           p.city,
			Latitude:       stop.Lat,
			Longitude:      stop.Lon,
			Lines:          sorted,
			ChildPlatforms: childPlatforms[id],
			Transfers:      transfers[id],
		})
	}
	sort.Slice(stations, func(i, j int) bool { return stations[i].ID < stations[j].ID })

	routes := make([]transit.TransitRoute, 0, len(tables.Routes))
	for _, route := range tables.Routes {
		routes = append(routes, transit.TransitRoute{
			RouteID:     route.ID,
			ShortName:   route.ShortName,
			LongName:    route.LongName,
			Description: route.Description,
			City:        p.city,
		})
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].RouteID < routes[j].RouteID })

	p.logger.Info().
		Int("stations", len(stations)).
		Int("routes", len(routes)).
		Int("raw_stops", len(tables.Stops)).
		Int("raw_transfers", len(tables.Transfers)).
		Msg("built reference dataset")

	return &Dataset{
		City:     p.city,
		Stations: stations,
		Routes:   routes,
	}
}

// buildTransfers turns the raw transfers table into a parent station →
// outgoing edges map. Same-parent entries are directional-platform artifacts
// and are dropped; every surviving one-way edge gets a synthesized reverse
// unless the raw table authored one explicitly.
func (p *Pipeline) buildTransfers(raw []Transfer, parentOf map[string]string, stopNames map[string]string) map[string][]transit.StationTransfer {
	// Raw pair index, keyed by the stop ids as authored, for the
	// explicit-reverse check.
	rawPairs := make(map[[2]string]struct{}, len(raw))
	for _, t := range raw {
		rawPairs[[2]string{t.FromStopID, t.ToStopID}] = struct{}{}
	}

	type edge struct {
		from, to string
		seconds  int
	}
	var edges []edge
	for _, t := range raw {
		fromParent := resolveParent(t.FromStopID, parentOf)
		toParent := resolveParent(t.ToStopID, parentOf)
		if fromParent == toParent {
			// Same complex: a zero-time entry is a platform relationship
			// already captured by child grouping, and a timed one still
			// names no second station to walk to.
			continue
		}
		edges = append(edges, edge{from: fromParent, to: toParent, seconds: t.MinTransferTime})
		if _, ok := rawPairs[[2]string{t.ToStopID, t.FromStopID}]; !ok {
			edges = append(edges, edge{from: toParent, to: fromParent, seconds: t.MinTransferTime})
		}
	}

	out := make(map[string][]transit.StationTransfer)
	for _, e := range edges {
		out[e.from] = append(out[e.from], transit.StationTransfer{
			ToStationID:   e.to,
			ToStationName: stopNames[e.to],
			TransferTime:  e.seconds,
			TransferType:  transit.TransferNearby,
		})
	}

	// Shortest walk first; ties break on destination id for determinism.
	for _, list := range out {
		sort.Slice(list, func(i, j int) bool {
			if list[i].TransferTime != list[j].TransferTime {
				return list[i].TransferTime < list[j].TransferTime
			}
			return list[i].ToStationID < list[j].ToStationID
		})
	}
	return out
}

// resolveParent maps a stop id to its parent station id, or to itself when
// the stop declares no parent.
func resolveParent(stopID string, parentOf map[string]string) string {
	if parent, ok := parentOf[stopID]; ok {
		return parent
	}
	return stopID
}
