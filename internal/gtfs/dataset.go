package gtfs

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/transitdeck/transitdeck/internal/transit"
)

// Dataset is the persisted pipeline output: the complete station and route
// reference data for one city. It is loaded wholesale at adapter
// construction; there is no partial or incremental load.
type Dataset struct {
	City     transit.City           `json:"city"`
	Stations []transit.Station      `json:"stations"`
	Routes   []transit.TransitRoute `json:"routes"`
}

// WriteFile writes the dataset as indented JSON. Output is deterministic
// because every collection was sorted during Build.
func (d *Dataset) WriteFile(path string) error {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	b = append(b, '\n')
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}

// LoadDataset reads a dataset artifact produced by WriteFile.
func LoadDataset(path string) (*Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var d Dataset
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	return &d, nil
}
