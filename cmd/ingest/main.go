package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samirrijal/aqtracker/internal/adapters/overpass"
	"github.com/samirrijal/aqtracker/internal/adapters/postgres"
	"github.com/samirrijal/aqtracker/internal/core/domain"
	"github.com/samirrijal/aqtracker/internal/pkg/config"
)

// ---------------------------------------------------------------------------
// Manifest types
// ---------------------------------------------------------------------------

// Manifest lists remote scenes for one collection and band.
type Manifest struct {
	Collection string        `json:"collection"`
	Band       string        `json:"band"`
	Scenes     []SceneSource `json:"scenes"`
}

type SceneSource struct {
	Acquired string `json:"acquired"` // YYYY-MM-DD
	URL      string `json:"url"`
}

const usage = `usage:
  ingest scenes   -collection C -band B -acquired YYYY-MM-DD file.tif...
  ingest manifest manifest.json
  ingest boundary [-attribute country_na] [-value Jordan]`

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	cfg, err := config.Load("aqtracker-ingest")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	args := os.Args[2:]
	switch os.Args[1] {
	case "scenes":
		err = runScenes(ctx, db, args)
	case "manifest":
		err = runManifest(ctx, db, args)
	case "boundary":
		err = runBoundary(ctx, db, cfg, args)
	default:
		log.Fatalf("unknown command: %s\n%s", os.Args[1], usage)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

// ---------------------------------------------------------------------------
// Local scene files
// ---------------------------------------------------------------------------

func runScenes(ctx context.Context, db *postgres.DB, args []string) error {
	fs := flag.NewFlagSet("scenes", flag.ExitOnError)
	collection := fs.String("collection", "", "image collection, e.g. COPERNICUS/S5P/OFFL/L3_NO2")
	band := fs.String("band", "", "band name, e.g. NO2_column_number_density")
	acquired := fs.String("acquired", "", "acquisition date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *collection == "" || *band == "" || fs.NArg() == 0 {
		return fmt.Errorf("collection, band and at least one file are required")
	}
	at, err := time.Parse(time.DateOnly, *acquired)
	if err != nil {
		return fmt.Errorf("acquired: %w", err)
	}

	log.Printf("AQ Scene Ingest: %d files into %s/%s", fs.NArg(), *collection, *band)

	repo := postgres.NewSceneRepo(db)
	var wg sync.WaitGroup
	var failed atomic.Int32
	sem := make(chan struct{}, 4) // max 4 concurrent inserts

	for _, path := range fs.Args() {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			data, err := os.ReadFile(path)
			if err != nil {
				failed.Add(1)
				log.Printf("ERROR [%s]: %v", path, err)
				return
			}
			scene := &domain.Scene{
				Collection: *collection,
				Band:       *band,
				AcquiredAt: at,
				Source:     filepath.Base(path),
				GeoTIFF:    data,
			}
			if err := repo.Insert(ctx, scene); err != nil {
				failed.Add(1)
				log.Printf("ERROR [%s]: %v", path, err)
				return
			}
			log.Printf("[%s] scene_id=%s (%d bytes)", scene.Source, scene.ID, len(data))
		}(path)
	}

	wg.Wait()
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d files failed", n, fs.NArg())
	}
	log.Println("ingestion complete")
	return reportWindows(ctx, repo, *collection, *band, []time.Time{at})
}

// ---------------------------------------------------------------------------
// Remote scenes from a manifest
// ---------------------------------------------------------------------------

func runManifest(ctx context.Context, db *postgres.DB, args []string) error {
	manifestPath := "manifest.json"
	if len(args) > 0 {
		manifestPath = args[0]
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}

	log.Printf("AQ Scene Ingest: %d scenes of %s/%s from %s",
		len(manifest.Scenes), manifest.Collection, manifest.Band, manifestPath)

	repo := postgres.NewSceneRepo(db)
	client := &http.Client{Timeout: 120 * time.Second}

	var wg sync.WaitGroup
	var failed atomic.Int32
	sem := make(chan struct{}, 4) // max 4 concurrent downloads

	for _, src := range manifest.Scenes {
		wg.Add(1)
		go func(src SceneSource) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ingestRemoteScene(ctx, repo, client, manifest, src); err != nil {
				failed.Add(1)
				log.Printf("ERROR [%s]: %v", src.Acquired, err)
			}
		}(src)
	}

	wg.Wait()
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d scenes failed", n, len(manifest.Scenes))
	}
	log.Println("ingestion complete")

	var dates []time.Time
	for _, src := range manifest.Scenes {
		if at, err := time.Parse(time.DateOnly, src.Acquired); err == nil {
			dates = append(dates, at)
		}
	}
	return reportWindows(ctx, repo, manifest.Collection, manifest.Band, dates)
}

func ingestRemoteScene(ctx context.Context, repo *postgres.SceneRepo, client *http.Client, m Manifest, src SceneSource) error {
	at, err := time.Parse(time.DateOnly, src.Acquired)
	if err != nil {
		return fmt.Errorf("acquired: %w", err)
	}

	log.Printf("[%s] downloading %s", src.Acquired, src.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d for %s", resp.StatusCode, src.URL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	scene := &domain.Scene{
		Collection: m.Collection,
		Band:       m.Band,
		AcquiredAt: at,
		Source:     src.URL,
		GeoTIFF:    body,
	}
	if err := repo.Insert(ctx, scene); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	log.Printf("[%s] scene_id=%s (%d bytes)", src.Acquired, scene.ID, len(body))
	return nil
}

// ---------------------------------------------------------------------------
// Window summary
// ---------------------------------------------------------------------------

// sceneCounter is the part of the scene repository the summary needs.
type sceneCounter interface {
	CountByCollection(ctx context.Context, collection, band string, window domain.TimeWindow) (int, error)
}

// touchedWindows returns the distinct monthly windows the dates fall in,
// oldest first.
func touchedWindows(dates []time.Time) []domain.TimeWindow {
	seen := make(map[time.Time]bool)
	var windows []domain.TimeWindow
	for _, d := range dates {
		w, err := domain.NewTimeWindow(d.Year(), int(d.Month()))
		if err != nil || seen[w.Start] {
			continue
		}
		seen[w.Start] = true
		windows = append(windows, w)
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].Start.Before(windows[j].Start) })
	return windows
}

// reportWindows logs how many scenes each touched month now holds.
func reportWindows(ctx context.Context, repo sceneCounter, collection, band string, dates []time.Time) error {
	for _, w := range touchedWindows(dates) {
		n, err := repo.CountByCollection(ctx, collection, band, w)
		if err != nil {
			return fmt.Errorf("count %s: %w", w, err)
		}
		log.Printf("%s %s/%s: %d scenes", w, collection, band, n)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Region boundary
// ---------------------------------------------------------------------------

func runBoundary(ctx context.Context, db *postgres.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("boundary", flag.ExitOnError)
	attribute := fs.String("attribute", cfg.Region.Attribute, "boundary attribute")
	value := fs.String("value", cfg.Region.Value, "attribute value")
	if err := fs.Parse(args); err != nil {
		return err
	}
	filter := domain.BoundaryFilter{Attribute: *attribute, Value: *value}

	log.Printf("fetching %s = %s from %s", filter.Attribute, filter.Value, cfg.Region.OverpassEndpoint)

	source := overpass.NewBoundarySource(cfg.Region.OverpassEndpoint, cfg.Region.OverpassTimeout)
	region, err := source.Boundary(ctx, filter)
	if err != nil {
		return err
	}

	if err := postgres.NewBoundaryRepo(db).Upsert(ctx, filter, region); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	log.Printf("stored %q: %d polygons, %d vertices", region.Name, len(region.Polygons), region.Vertices())
	return nil
}
