// Package main builds the NYC Subway reference dataset from a static GTFS
// feed directory. The API server loads the resulting JSON at startup instead
// of parsing the raw feed on every boot.
package main

import (
	"flag"

	"github.com/transitdeck/transitdeck/internal/gtfs"
	"github.com/transitdeck/transitdeck/internal/logger"
	"github.com/transitdeck/transitdeck/internal/transit"
)

func main() {
	var (
		input  = flag.String("input", "gtfs", "directory containing the extracted GTFS feed")
		output = flag.String("output", "data/nyc-subway.json", "path for the generated dataset")
		city   = flag.String("city", string(transit.CityNYC), "city code to stamp on the dataset")
		level  = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	log := logger.New(logger.Config{
		Level:   *level,
		Service: "transitdeck-gtfsbuild",
	})

	tables, err := gtfs.ReadTables(*input)
	if err != nil {
		log.Fatal().Err(err).Str("input", *input).Msg("failed to read GTFS tables")
	}

	log.Info().
		Int("stops", len(tables.Stops)).
		Int("routes", len(tables.Routes)).
		Int("trips", len(tables.Trips)).
		Int("stop_times", len(tables.StopTimes)).
		Int("transfers", len(tables.Transfers)).
		Msg("GTFS tables loaded")

	dataset := gtfs.NewPipeline(transit.City(*city), log).Build(tables)

	if err := dataset.WriteFile(*output); err != nil {
		log.Fatal().Err(err).Str("output", *output).Msg("failed to write dataset")
	}

	log.Info().
		Str("output", *output).
		Int("stations", len(dataset.Stations)).
		Int("routes", len(dataset.Routes)).
		Msg("dataset written")
}
