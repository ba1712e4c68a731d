package transit

import (
	"fmt"
	"sort"
)

// CityInfo describes a supported transit system.
type CityInfo struct {
	// Name is the full system name.
	Name string `json:"name"`

	// ShortName is the colloquial name.
	ShortName string `json:"shortName"`

	// System is the operating authority.
	System string `json:"system"`

	// RequiresAPIKey reports whether the provider needs a credential.
	RequiresAPIKey bool `json:"requiresApiKey"`
}

// cityInfo is the closed set of supported systems.
var cityInfo = map[City]CityInfo{
	CityDC: {
		Name:           "Washington DC Metro",
		ShortName:      "DC Metro",
		System:         "WMATA",
		RequiresAPIKey: true,
	},
	CityNYC: {
		Name:           "New York City Subway",
		ShortName:      "NYC Subway",
		System:         "MTA",
		RequiresAPIKey: false,
	},
}

// Info returns metadata for a supported city.
func Info(city City) (CityInfo, bool) {
	info, ok := cityInfo[city]
	return info, ok
}

// IsSupported reports whether the city code is in the closed supported set.
func IsSupported(city City) bool {
	_, ok := cityInfo[city]
	return ok
}

// SupportedCities returns the supported city codes in stable order.
func SupportedCities() []City {
	cities := make([]City, 0, len(cityInfo))
	for c := range cityInfo {
		cities = append(cities, c)
	}
	sort.Slice(cities, func(i, j int) bool { return cities[i] < cities[j] })
	return cities
}

// Registry resolves a city code to its adapter instance. It is a plain lookup
// table: adapters are constructed once at startup (with their credentials
// validated then) and registered here.
type Registry struct {
	clients map[City]Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[City]Client)}
}

// Register adds an adapter for its city. Registering a city outside the
// supported set is a programming error.
func (r *Registry) Register(client Client) error {
	city := client.City()
	if !IsSupported(city) {
		return fmt.Errorf("register %q: %w", city, ErrUnsupportedCity)
	}
	r.clients[city] = client
	return nil
}

// Client resolves the adapter for a city. An unrecognized or unregistered
// city is a resolution-time error; no network activity has happened yet.
func (r *Registry) Client(city City) (Client, error) {
	client, ok := r.clients[city]
	if !ok {
		return nil, fmt.Errorf("resolve %q: %w", city, ErrUnsupportedCity)
	}
	return client, nil
}

// Cities returns the registered city codes in stable order.
func (r *Registry) Cities() []City {
	cities := make([]City, 0, len(r.clients))
	for c := range r.clients {
		cities = append(cities, c)
	}
	sort.Slice(cities, func(i, j int) bool { return cities[i] < cities[j] })
	return cities
}
