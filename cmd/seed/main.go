package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"studyspots/internal/apiclient"
	"studyspots/internal/model"
	"studyspots/internal/seed"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "API base URL")
	locPath := flag.String("locations", "", "locations file (.json or .xlsx)")
	revPath := flag.String("reviews", "", "reviews file (.json, keyed by location name)")
	flag.Parse()

	if *locPath == "" && *revPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	var locs []model.Location
	if *locPath != "" {
		var err error
		locs, err = readLocations(*locPath)
		if err != nil {
			log.Fatal(err)
		}
	}

	var reviews []model.Review
	if *revPath != "" {
		f, err := os.Open(*revPath)
		if err != nil {
			log.Fatal(err)
		}
		reviews, err = seed.ParseReviewsJSON(f)
		f.Close()
		if err != nil {
			log.Fatal(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := seed.Run(ctx, apiclient.New(*server), locs, reviews)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("seeded %d locations (%d failed), %d reviews", res.Locations, res.Failed, res.Reviews)
}

func readLocations(path string) ([]model.Location, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return seed.ParseLocationsXLSX(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return seed.ParseLocationsJSON(f)
}
