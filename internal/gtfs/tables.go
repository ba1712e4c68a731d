// Package gtfs transforms static GTFS schedule tables into the station,
// route, and transfer reference dataset served by the realtime adapter.
// The transform runs offline (cmd/gtfsbuild); the serving path only loads
// its output.
package gtfs

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Stop is one row of stops.txt.
type Stop struct {
	ID            string
	Name          string
	Lat           float64
	Lon           float64
	LocationType  int
	ParentStation string
}

// IsParentStation reports whether the stop is a logical station grouping
// directional platforms (GTFS location_type 1).
func (s Stop) IsParentStation() bool {
	return s.LocationType == 1
}

// Route is one row of routes.txt. Names and description are kept verbatim.
type Route struct {
	ID          string
	ShortName   string
	LongName    string
	Description string
}

// Trip is one row of trips.txt, reduced to the trip→route relation.
type Trip struct {
	ID      string
	RouteID string
}

// StopTime is one row of stop_times.txt, reduced to the (trip, stop) pair.
type StopTime struct {
	TripID string
	StopID string
}

// Transfer is one row of transfers.txt.
type Transfer struct {
	FromStopID      string
	ToStopID        string
	MinTransferTime int
}

// Tables holds the parsed static schedule tables.
type Tables struct {
	Stops     []Stop
	Routes    []Route
	Trips     []Trip
	StopTimes []StopTime
	Transfers []Transfer
}

// ReadTables parses the five schedule tables from a directory of GTFS text
// files. transfers.txt is optional; the other four are required.
func ReadTables(dir string) (*Tables, error) {
	t := &Tables{}

	if err := readTable(filepath.Join(dir, "stops.txt"), t.consumeStops); err != nil {
		return nil, err
	}
	if err := readTable(filepath.Join(dir, "routes.txt"), t.consumeRoutes); err != nil {
		return nil, err
	}
	if err := readTable(filepath.Join(dir, "trips.txt"), t.consumeTrips); err != nil {
		return nil, err
	}
	if err := readTable(filepath.Join(dir, "stop_times.txt"), t.consumeStopTimes); err != nil {
		return nil, err
	}
	if err := readTable(filepath.Join(dir, "transfers.txt"), t.consumeTransfers); err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, err
	}
	return t, nil
}

func readTable(path string, consume func(head []string, rows [][]string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := consumeCSV(f, consume); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

func consumeCSV(r io.Reader, consume func(head []string, rows [][]string) error) error {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	rec, err := csvr.ReadAll()
	if err != nil {
		return err
	}
	if len(rec) == 0 {
		return nil
	}
	return consume(rec[0], rec[1:])
}

// columnIndex resolves a header column, case-insensitively. -1 when absent.
func columnIndex(head []string, col string) int {
	for i, h := range head {
		if strings.EqualFold(strings.TrimSpace(h), col) {
			return i
		}
	}
	return -1
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *Tables) consumeStops(head []string, rows [][]string) error {
	sID := columnIndex(head, "stop_id")
	sName := columnIndex(head, "stop_name")
	sLat := columnIndex(head, "stop_lat")
	sLon := columnIndex(head, "stop_lon")
	sType := columnIndex(head, "location_type")
	sParent := columnIndex(head, "parent_station")
	if sID < 0 || sName < 0 {
		return fmt.Errorf("missing stop_id or stop_name column")
	}
	for _, row := range rows {
		id := field(row, sID)
		if id == "" {
			continue
		}
		lat, _ := strconv.ParseFloat(field(row, sLat), 64)
		lon, _ := strconv.ParseFloat(field(row, sLon), 64)
		locType := 0
		if raw := field(row, sType); raw != "" {
			locType, _ = strconv.Atoi(raw)
		}
		t.Stops = append(t.Stops, Stop{
			ID:            id,
			Name:          field(row, sName),
			Lat:           lat,
			Lon:           lon,
			LocationType:  locType,
			ParentStation: field(row, sParent),
		})
	}
	return nil
}

func (t *Tables) consumeRoutes(head []string, rows [][]string) error {
	rID := columnIndex(head, "route_id")
	rShort := columnIndex(head, "route_short_name")
	rLong := columnIndex(head, "route_long_name")
	rDesc := columnIndex(head, "route_desc")
	if rID < 0 {
		return fmt.Errorf("missing route_id column")
	}
	for _, row := range rows {
		id := field(row, rID)
		if id == "" {
			continue
		}
		t.Routes = append(t.Routes, Route{
			ID:          id,
			ShortName:   field(row, rShort),
			LongName:    field(row, rLong),
			Description: field(row, rDesc),
		})
	}
	return nil
}

func (t *Tables) consumeTrips(head []string, rows [][]string) error {
	rID := columnIndex(head, "route_id")
	tID := columnIndex(head, "trip_id")
	if rID < 0 || tID < 0 {
		return fmt.Errorf("missing route_id or trip_id column")
	}
	for _, row := range rows {
		id := field(row, tID)
		if id == "" {
			continue
		}
		t.Trips = append(t.Trips, Trip{ID: id, RouteID: field(row, rID)})
	}
	return nil
}

func (t *Tables) consumeStopTimes(head []string, rows [][]string) error {
	tID := columnIndex(head, "trip_id")
	sID := columnIndex(head, "stop_id")
	if tID < 0 || sID < 0 {
		return fmt.Errorf("missing trip_id or stop_id column")
	}
	for _, row := range rows {
		trip := field(row, tID)
		stop := field(row, sID)
		if trip == "" || stop == "" {
			continue
		}
		t.StopTimes = append(t.StopTimes, StopTime{TripID: trip, StopID: stop})
	}
	return nil
}

func (t *Tables) consumeTransfers(head []string, rows [][]string) error {
	from := columnIndex(head, "from_stop_id")
	to := columnIndex(head, "to_stop_id")
	minTime := columnIndex(head, "min_transfer_time")
	if from < 0 || to < 0 {
		return fmt.Errorf("missing from_stop_id or to_stop_id column")
	}
	for _, row := range rows {
		fromStop := field(row, from)
		toStop := field(row, to)
		if fromStop == "" || toStop == "" {
			continue
		}
		seconds := 0
		if raw := field(row, minTime); raw != "" {
			seconds, _ = strconv.Atoi(raw)
		}
		t.Transfers = append(t.Transfers, Transfer{
			FromStopID:      fromStop,
			ToStopID:        toStop,
			MinTransferTime: seconds,
		})
	}
	return nil
}
