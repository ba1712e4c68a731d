package wmata_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitdeck/transitdeck/internal/provider/resilience"
	"github.com/transitdeck/transitdeck/internal/transit"
	"github.com/transitdeck/transitdeck/internal/transit/wmata"
)

const testAPIKey = "test-key"

// fakeWMATA serves canned WMATA envelopes and counts upstream hits per path.
type fakeWMATA struct {
	server *httptest.Server
	hits   map[string]*atomic.Int32
}

func newFakeWMATA(t *testing.T) *fakeWMATA {
	t.Helper()
	f := &fakeWMATA{hits: map[string]*atomic.Int32{}}
	for _, path := range []string{
		"/Rail.svc/json/jStations",
		"/StationPrediction.svc/json/GetPrediction/A01",
		"/Incidents.svc/json/Incidents",
		"/TrainPositions/TrainPositions",
		"/NextBusService.svc/json/jPredictions",
	} {
		f.hits[path] = &atomic.Int32{}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api_key") != testAPIKey {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if counter, ok := f.hits[r.URL.Path]; ok {
			counter.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/Rail.svc/json/jStations":
			_, _ = w.Write([]byte(`{"Stations":[
				{"Code":"A01","Name":"Metro Center","LineCode1":"RD","LineCode2":"","LineCode3":null,"LineCode4":null,
				 "Lat":38.898303,"Lon":-77.028099,
				 "Address":{"Street":"607 13th St. NW","City":"Washington","State":"DC","Zip":"20005"}},
				{"Code":"C01","Name":"Metro Center","LineCode1":"BL","LineCode2":"OR","LineCode3":"SV","LineCode4":null,
				 "Lat":38.898303,"Lon":-77.028099},
				{"Code":"B03","Name":"Union Station","LineCode1":"RD",
				 "Lat":38.897723,"Lon":-77.006745}
			]}`))
		case "/StationPrediction.svc/json/GetPrediction/A01":
			_, _ = w.Write([]byte(`{"Trains":[
				{"Car":"8","Destination":"Shady Gr","DestinationCode":"A15","DestinationName":"Shady Grove","Group":"2","Line":"RD","Min":"5"},
				{"Car":"6","Destination":"Glenmont","DestinationCode":"B11","DestinationName":"Glenmont","Group":"1","Line":"RD","Min":"ARR"},
				{"Car":"8","Destination":"Glenmont","DestinationCode":"B11","DestinationName":"Glenmont","Group":"1","Line":"RD","Min":"2"},
				{"Car":"-","Destination":"No Psngr","DestinationCode":"","DestinationName":"","Group":"1","Line":"","Min":""}
			]}`))
		case "/Incidents.svc/json/Incidents":
			_, _ = w.Write([]byte(`{"Incidents":[
				{"IncidentID":"B7E9","Description":"Red Line: single tracking between Rockville and Shady Grove.",
				 "StartLocationFullName":"Rockville","EndLocationFullName":"Shady Grove",
				 "PassengerDelay":10,"DelaySeverity":"Moderate","IncidentType":"Delay",
				 "LinesAffected":"RD; RD;","DateUpdated":"2025-05-01T08:15:00"}
			]}`))
		case "/TrainPositions/TrainPositions":
			_, _ = w.Write([]byte(`{"TrainPositions":[
				{"TrainId":"101","CarCount":8,"DirectionNum":1,"CircuitId":2603,"LineCode":"RD","DestinationStationCode":"B11","SecondsAtLocation":15,"ServiceType":"Normal"}
			]}`))
		case "/NextBusService.svc/json/jPredictions":
			_, _ = w.Write([]byte(`{"StopName":"I-495 Park and Ride","Predictions":[
				{"RouteID":"B30","DirectionText":"North to BWI Airport","Minutes":8,"VehicleID":"6217","TripID":"6794838"}
			]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeWMATA) count(path string) int32 {
	return f.hits[path].Load()
}

func newTestClient(t *testing.T, baseURL string) *wmata.Client {
	t.Helper()
	client, err := wmata.New(wmata.ClientConfig{
		APIKey:     testAPIKey,
		BaseURL:    baseURL,
		HTTPClient: newTestHTTPClient("wmata-test"),
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)
	return client
}

// newTestHTTPClient builds a resilient client that fails fast so error-path
// tests do not sit in backoff loops.
func newTestHTTPClient(name string) *resilience.Client {
	cbConfig := resilience.DefaultCircuitBreakerConfig(name)
	cbConfig.ReadyToTrip = func(counts gobreaker.Counts) bool { return false }
	return resilience.NewClient(resilience.ClientConfig{
		Name:            name,
		Timeout:         2 * time.Second,
		MaxRetries:      1,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		CircuitBreaker:  &cbConfig,
	})
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := wmata.New(wmata.ClientConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, transit.ErrMissingCredential)
	assert.Contains(t, err.Error(), "WMATA_API_KEY")
}

func TestClient_Stations(t *testing.T) {
	fake := newFakeWMATA(t)
	client := newTestClient(t, fake.server.URL)

	stations, err := client.Stations(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 3)

	a01 := stations[0]
	assert.Equal(t, "A01", a01.ID)
	assert.Equal(t, "Metro Center", a01.Name)
	assert.Equal(t, transit.CityDC, a01.City)
	assert.Equal(t, []string{"RD"}, a01.Lines, "empty line slots are filtered")
	require.NotNil(t, a01.Address)
	assert.Equal(t, "607 13th St. NW", a01.Address.Street)

	assert.Equal(t, []string{"BL", "OR", "SV"}, stations[1].Lines)
	assert.Nil(t, stations[1].Address)
}

func TestClient_StationsCached(t *testing.T) {
	fake := newFakeWMATA(t)
	client := newTestClient(t, fake.server.URL)

	first, err := client.Stations(context.Background())
	require.NoError(t, err)
	second, err := client.Stations(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), fake.count("/Rail.svc/json/jStations"))
}

func TestClient_StationPredictions(t *testing.T) {
	fake := newFakeWMATA(t)
	client := newTestClient(t, fake.server.URL)

	predictions, err := client.StationPredictions(context.Background(), "A01")
	require.NoError(t, err)
	require.Len(t, predictions, 3, "blank-countdown placeholder rows are dropped")

	// Sentinel first, then numeric ascending.
	assert.True(t, predictions[0].MinutesAway.Imminent())
	assert.Equal(t, "ARR", predictions[0].ArrivalTime)
	assert.Equal(t, 2, predictions[1].MinutesAway.Value())
	assert.Equal(t, 5, predictions[2].MinutesAway.Value())

	assert.Equal(t, "Glenmont", predictions[0].Destination)
	assert.Equal(t, "B11", predictions[0].DestinationCode)
	assert.Equal(t, "6", predictions[0].Cars)
	assert.Equal(t, "1", predictions[0].Track)
	assert.NotEmpty(t, predictions[2].ArrivalTime)
}

func TestClient_Incidents(t *testing.T) {
	fake := newFakeWMATA(t)
	client := newTestClient(t, fake.server.URL)

	incidents, err := client.Incidents(context.Background())
	require.NoError(t, err)
	require.Len(t, incidents, 1)

	inc := incidents[0]
	assert.Equal(t, "B7E9", inc.IncidentID)
	assert.Equal(t, []string{"RD"}, inc.LinesAffected, "delimited line list is de-duplicated")
	assert.Equal(t, "Moderate", inc.Severity)
	assert.Equal(t, "Delay", inc.IncidentType)
	assert.Equal(t, float64(10), inc.PassengerDelay)
	assert.Equal(t, "Rockville", inc.StartLocation)
}

func TestClient_SearchStations(t *testing.T) {
	fake := newFakeWMATA(t)
	client := newTestClient(t, fake.server.URL)

	byName, err := client.SearchStations(context.Background(), "metro cen")
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	byID, err := client.SearchStations(context.Background(), "B03")
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "Union Station", byID[0].Name)

	none, err := client.SearchStations(context.Background(), "narnia")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestClient_StationsByLine_CaseInsensitive(t *testing.T) {
	fake := newFakeWMATA(t)
	client := newTestClient(t, fake.server.URL)

	upper, err := client.StationsByLine(context.Background(), "RD")
	require.NoError(t, err)
	lower, err := client.StationsByLine(context.Background(), "rd")
	require.NoError(t, err)

	assert.Equal(t, upper, lower)
	assert.Len(t, upper, 2)
}

func TestClient_RouteInfoAbsent(t *testing.T) {
	fake := newFakeWMATA(t)
	client := newTestClient(t, fake.server.URL)

	route, err := client.RouteInfo(context.Background(), "RD")
	require.NoError(t, err)
	assert.Nil(t, route)
}

func TestClient_TrainPositions(t *testing.T) {
	fake := newFakeWMATA(t)
	client := newTestClient(t, fake.server.URL)

	positions, err := client.TrainPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "101", positions[0].TrainID)
	assert.Equal(t, "RD", positions[0].LineCode)
	assert.Equal(t, 8, positions[0].CarCount)
}

func TestClient_BusPredictions(t *testing.T) {
	fake := newFakeWMATA(t)
	client := newTestClient(t, fake.server.URL)

	predictions, err := client.BusPredictions(context.Background(), "1001195")
	require.NoError(t, err)
	require.Len(t, predictions, 1)
	assert.Equal(t, "B30", predictions[0].RouteID)
	assert.Equal(t, 8, predictions[0].Minutes)
}

func TestClient_UpstreamFailureWrapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Stations(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, transit.ErrUpstreamUnavailable)

	var provErr *transit.Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, transit.CityDC, provErr.City)
	assert.Equal(t, http.StatusServiceUnavailable, provErr.StatusCode)
}

func TestClient_BadCredentialWrapped(t *testing.T) {
	fake := newFakeWMATA(t)

	client, err := wmata.New(wmata.ClientConfig{
		APIKey:     "wrong-key",
		BaseURL:    fake.server.URL,
		HTTPClient: newTestHTTPClient("wmata-badkey"),
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)

	_, err = client.Stations(context.Background())
	require.Error(t, err)

	var provErr *transit.Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, http.StatusForbidden, provErr.StatusCode)
}
