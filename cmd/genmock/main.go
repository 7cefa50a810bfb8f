// Command genmock writes synthetic INMET and INPE raw files, plus the daily
// observations they aggregate to as JSON lines for the Kafka source topic.
// The output exercises the batch stages and the streaming service without
// downloads from the government portals.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -data-dir data \
//	  -year 2023 \
//	  -observations-out data/mock/daily_observations.jsonl
package main

import (
	"flag"
	"fmt"
	"log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dataDir := flag.String("data-dir", "data", "root directory; files go under raw_data/")
	year := flag.Int("year", 2023, "calendar year to generate")
	days := flag.Int("days", 120, "days to generate from 1 June")
	seed := flag.Uint64("seed", 42, "random seed")
	obsOut := flag.String("observations-out", "", "optional JSON lines output of daily observations")
	flag.Parse()

	if *days <= 0 || *days > 366 {
		flag.Usage()
		return fmt.Errorf("-days must be between 1 and 366")
	}

	g := newGenerator(*year, *days, *seed)
	sum, err := g.writeAll(*dataDir, *obsOut)
	if err != nil {
		return err
	}
	log.Printf("stations: %d files, hotspots: %d files (%d detections), observations: %d",
		sum.stationFiles, sum.hotspotFiles, sum.detections, sum.observations)
	return nil
}
