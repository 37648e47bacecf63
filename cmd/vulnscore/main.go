// Command vulnscore scores the asset dataset for one scenario and writes the result as CSV.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mr1hm/climate-vuln/internal/config"
	"github.com/mr1hm/climate-vuln/internal/export"
	"github.com/mr1hm/climate-vuln/internal/loader"
	"github.com/mr1hm/climate-vuln/internal/logging"
	"github.com/mr1hm/climate-vuln/internal/models"
	"github.com/mr1hm/climate-vuln/internal/repository"
	"github.com/mr1hm/climate-vuln/internal/scoring"
	"github.com/mr1hm/climate-vuln/internal/vulnerability"
)

type options struct {
	dataDir   string
	assets    string
	hazards   string
	weights   string
	scenario  string
	assetType string
	minVuln   float64
	hazardSet string
	source    string
	out       string
	logLevel  string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("vulnscore", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.dataDir, "data-dir", "./data", "directory holding the input CSV files")
	fs.StringVar(&o.assets, "assets", "assets.csv", "asset file, relative to -data-dir unless absolute")
	fs.StringVar(&o.hazards, "hazards", "hazards.csv", "hazard file, relative to -data-dir unless absolute")
	fs.StringVar(&o.weights, "weights", "", "optional YAML weights file")
	fs.StringVar(&o.scenario, "scenario", "2020", "climate scenario label")
	fs.StringVar(&o.assetType, "type", "all", "asset type filter: all, transformer, substation or building")
	fs.Float64Var(&o.minVuln, "min-vuln", 0, "minimum vulnerability score (0-100)")
	fs.StringVar(&o.hazardSet, "hazard-set", "heat_index,flood_risk,heavy_rain", "comma-separated hazards for the multi-hazard index")
	fs.StringVar(&o.source, "source", "table", "column set and order: table or map")
	fs.StringVar(&o.out, "out", "", "output file (default stdout)")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	if o.minVuln < 0 || o.minVuln > 100 {
		return o, fmt.Errorf("-min-vuln must be between 0 and 100, got %v", o.minVuln)
	}
	if o.source != "table" && o.source != "map" {
		return o, fmt.Errorf("-source must be table or map, got %q", o.source)
	}
	return o, nil
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func run(ctx context.Context, o options, stdout io.Writer) error {
	filter := repository.Filter{}
	if t := strings.TrimSpace(o.assetType); t != "" && !strings.EqualFold(t, "all") {
		at, ok := models.ParseAssetType(t)
		if !ok {
			return fmt.Errorf("invalid -type %q", t)
		}
		filter.Type = &at
	}
	if o.minVuln > 0 {
		v := o.minVuln
		filter.MinScore = &v
	}

	assets, err := loader.LoadAssets(resolve(o.dataDir, o.assets))
	if err != nil {
		return err
	}
	hazards, err := loader.LoadHazards(resolve(o.dataDir, o.hazards))
	switch {
	case errors.Is(err, loader.ErrHazardFileNotFound):
		slog.Warn("hazard file missing, using medium exposure", "path", resolve(o.dataDir, o.hazards))
		hazards = models.HazardTable{}
	case err != nil:
		return err
	}
	weights, err := config.LoadWeights(o.weights)
	if err != nil {
		return err
	}

	db, err := repository.NewSQLiteDB(":memory:")
	if err != nil {
		return err
	}
	defer db.Close()

	cfg := &config.Config{
		Worker:    config.WorkerConfig{Count: 1},
		Scenarios: config.ScenarioConfig{Default: o.scenario},
	}
	mgr := scoring.NewManager(cfg, scoring.Dataset{
		Assets:  assets,
		Hazards: hazards,
		Weights: weights,
	}, db, nil, nil)

	key, err := mgr.Ensure(ctx, o.scenario)
	if err != nil {
		return err
	}

	cols := export.TableColumns
	filter.Scenario = key
	filter.Order = repository.OrderByScoreDesc
	if o.source == "map" {
		cols = export.MapColumns
		filter.Order = repository.OrderByLoad
	}

	rows, err := db.ListScored(ctx, filter)
	if err != nil {
		return err
	}
	for i := range rows {
		rows[i].Scenario = o.scenario
	}
	vulnerability.ApplyMultiHazard(rows, vulnerability.ParseHazards(o.hazardSet))

	w := stdout
	if o.out != "" {
		f, err := os.Create(o.out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := export.WriteCSV(w, cols, rows); err != nil {
		return err
	}

	slog.Info("export written", "scenario", o.scenario, "rows", len(rows), "source", o.source)
	return nil
}

func main() {
	o, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logging.New(os.Stderr, o.logLevel, "text"))

	if err := run(context.Background(), o, os.Stdout); err != nil {
		logging.Fatalf("vulnscore: %v", err)
	}
}
