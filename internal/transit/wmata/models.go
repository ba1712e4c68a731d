package wmata

import (
	"strings"
	"time"

	"github.com/transitdeck/transitdeck/internal/transit"
)

// WMATA API response structures. Field names follow the upstream JSON
// envelopes verbatim.

type stationsResponse struct {
	Stations []wmataStation `json:"Stations"`
}

type wmataStation struct {
	Code             string        `json:"Code"`
	Name             string        `json:"Name"`
	StationTogether1 string        `json:"StationTogether1"`
	StationTogether2 string        `json:"StationTogether2"`
	LineCode1        string        `json:"LineCode1"`
	LineCode2        string        `json:"LineCode2"`
	LineCode3        string        `json:"LineCode3"`
	LineCode4        string        `json:"LineCode4"`
	Lat              float64       `json:"Lat"`
	Lon              float64       `json:"Lon"`
	Address          *wmataAddress `json:"Address"`
}

type wmataAddress struct {
	Street string `json:"Street"`
	City   string `json:"City"`
	State  string `json:"State"`
	Zip    string `json:"Zip"`
}

type predictionsResponse struct {
	Trains []wmataTrain `json:"Trains"`
}

type wmataTrain struct {
	Car             string `json:"Car"`
	Destination     string `json:"Destination"`
	DestinationCode string `json:"DestinationCode"`
	DestinationName string `json:"DestinationName"`
	Group           string `json:"Group"`
	Line            string `json:"Line"`
	LocationCode    string `json:"LocationCode"`
	LocationName    string `json:"LocationName"`
	Min             string `json:"Min"`
}

type incidentsResponse struct {
	Incidents []wmataIncident `json:"Incidents"`
}

type wmataIncident struct {
	IncidentID            string  `json:"IncidentID"`
	Description           string  `json:"Description"`
	StartLocationFullName string  `json:"StartLocationFullName"`
	EndLocationFullName   string  `json:"EndLocationFullName"`
	PassengerDelay        float64 `json:"PassengerDelay"`
	DelaySeverity         string  `json:"DelaySeverity"`
	IncidentType          string  `json:"IncidentType"`
	LinesAffected         string  `json:"LinesAffected"`
	DateUpdated           string  `json:"DateUpdated"`
}

type elevatorIncidentsResponse struct {
	ElevatorIncidents []ElevatorIncident `json:"ElevatorIncidents"`
}

// ElevatorIncident is a WMATA elevator or escalator outage. Exposed as a
// provider extension, not through the shared contract.
type ElevatorIncident struct {
	UnitName         string `json:"UnitName"`
	UnitType         string `json:"UnitType"`
	StationCode      string `json:"StationCode"`
	StationName      string `json:"StationName"`
	LocationDesc     string `json:"LocationDescription"`
	SymptomDesc      string `json:"SymptomDescription"`
	DateOutOfService string `json:"DateOutOfServ"`
	EstimatedReturn  string `json:"EstimatedReturnToService"`
}

type trainPositionsResponse struct {
	TrainPositions []TrainPosition `json:"TrainPositions"`
}

// TrainPosition is a live railcar location. Provider extension.
type TrainPosition struct {
	TrainID           string `json:"TrainId"`
	CarCount          int    `json:"CarCount"`
	DirectionNum      int    `json:"DirectionNum"`
	CircuitID         int    `json:"CircuitId"`
	LineCode          string `json:"LineCode"`
	DestinationCode   string `json:"DestinationStationCode"`
	SecondsAtLocation int    `json:"SecondsAtLocation"`
	ServiceType       string `json:"ServiceType"`
}

type busStopsResponse struct {
	Stops []BusStop `json:"Stops"`
}

// BusStop is a WMATA bus stop near a coordinate. Provider extension.
type BusStop struct {
	StopID string   `json:"StopID"`
	Name   string   `json:"Name"`
	Lat    float64  `json:"Lat"`
	Lon    float64  `json:"Lon"`
	Routes []string `json:"Routes"`
}

type busPredictionsResponse struct {
	StopName    string          `json:"StopName"`
	Predictions []BusPrediction `json:"Predictions"`
}

// BusPrediction is a next-bus arrival at a stop. Provider extension.
type BusPrediction struct {
	RouteID       string `json:"RouteID"`
	DirectionText string `json:"DirectionText"`
	Minutes       int    `json:"Minutes"`
	VehicleID     string `json:"VehicleID"`
	TripID        string `json:"TripID"`
}

type busRoutesResponse struct {
	Routes []BusRoute `json:"Routes"`
}

// BusRoute is a WMATA bus route. Provider extension.
type BusRoute struct {
	RouteID         string `json:"RouteID"`
	Name            string `json:"Name"`
	LineDescription string `json:"LineDescription"`
}

type busPositionsResponse struct {
	BusPositions []BusPosition `json:"BusPositions"`
}

// BusPosition is a live bus location. Provider extension.
type BusPosition struct {
	VehicleID     string  `json:"VehicleID"`
	RouteID       string  `json:"RouteID"`
	DirectionText string  `json:"DirectionText"`
	Lat           float64 `json:"Lat"`
	Lon           float64 `json:"Lon"`
	Deviation     float64 `json:"Deviation"`
	TripID        string  `json:"TripID"`
	DateTime      string  `json:"DateTime"`
}

// toStation converts a WMATA station record to the normalized model. Line
// codes come from four optional slot fields, filtered to non-empty.
func toStation(s *wmataStation) transit.Station {
	lines := transit.DedupLines([]string{s.LineCode1, s.LineCode2, s.LineCode3, s.LineCode4})

	station := transit.Station{
		ID:        s.Code,
		Name:      s.Name,
		City:      transit.CityDC,
		Latitude:  s.Lat,
		Longitude: s.Lon,
		Lines:     lines,
	}
	if s.Address != nil {
		station.Address = &transit.Address{
			Street: s.Address.Street,
			City:   s.Address.City,
			State:  s.Address.State,
			Zip:    s.Address.Zip,
		}
	}
	return station
}

// toPrediction converts a WMATA train record. The Min field passes through
// "ARR"/"BRD" sentinels unchanged; numeric values get an absolute arrival
// timestamp computed from now.
func toPrediction(t *wmataTrain, now time.Time) transit.TransitPrediction {
	minutes := transit.ParseMinutes(t.Min)

	arrival := t.Min
	if !minutes.Imminent() {
		arrival = now.Add(time.Duration(minutes.Value()) * time.Minute).Format(time.RFC3339)
	}

	destination := t.DestinationName
	if destination == "" {
		destination = t.Destination
	}

	return transit.TransitPrediction{
		City:            transit.CityDC,
		Line:            t.Line,
		Destination:     destination,
		DestinationCode: t.DestinationCode,
		ArrivalTime:     arrival,
		MinutesAway:     minutes,
		Cars:            t.Car,
		Track:           t.Group,
	}
}

// toIncident converts a WMATA incident record. LinesAffected arrives as a
// delimited string ("RD; GR;") and is split into a de-duplicated set.
func toIncident(i *wmataIncident) transit.TransitIncident {
	return transit.TransitIncident{
		City:           transit.CityDC,
		IncidentID:     i.IncidentID,
		Description:    i.Description,
		LinesAffected:  splitLines(i.LinesAffected),
		Severity:       i.DelaySeverity,
		IncidentType:   i.IncidentType,
		Timestamp:      i.DateUpdated,
		PassengerDelay: i.PassengerDelay,
		StartLocation:  i.StartLocationFullName,
		EndLocation:    i.EndLocationFullName,
	}
}

// splitLines parses the upstream semicolon-delimited line list.
func splitLines(raw string) []string {
	parts := strings.Split(raw, ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return transit.DedupLines(parts)
}
