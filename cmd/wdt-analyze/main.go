// Command wdt-analyze parses world-definition and terrain containers,
// prints per-file summaries, and reports unique-ID usage across maps.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/akspa0/go-wdt/wdt"
)

func main() {
	var (
		configPath       = pflag.String("config", "", "YAML config file")
		format           = pflag.String("format", "", "force a format: alpha or retail (default: detect)")
		listfile         = pflag.String("listfile", "", "asset listfile for reference validation (plain or .gz)")
		workers          = pflag.Int("workers", 0, "parse concurrency (default: CPU count)")
		gapThreshold     = pflag.Int64("gap-threshold", 0, "largest ID gap kept inside one cluster")
		clusterThreshold = pflag.Int("cluster-threshold", 0, "smallest ID run reported as a cluster")
		verbose          = pflag.BoolP("verbose", "v", false, "log per-file detail")
	)
	pflag.Parse()

	paths := pflag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: wdt-analyze [flags] <file.wdt|file.adt>...")
		pflag.PrintDefaults()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := &wdt.Config{
		Format:           *format,
		Listfile:         *listfile,
		Workers:          *workers,
		GapThreshold:     *gapThreshold,
		ClusterThreshold: *clusterThreshold,
	}
	if *configPath != "" {
		fileCfg, err := wdt.LoadConfig(*configPath)
		if err != nil {
			log.Error("config", "err", err)
			os.Exit(1)
		}
		// Flags override the file.
		mergeConfig(cfg, fileCfg)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}
	variant, _ := cfg.Variant()

	var corpus *wdt.Corpus
	if cfg.Listfile != "" {
		c, err := wdt.LoadListfile(cfg.Listfile)
		if err != nil {
			log.Error("listfile", "err", err)
			os.Exit(1)
		}
		corpus = c
		log.Info("listfile loaded", "paths", c.Len())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report := wdt.RunBatch(ctx, paths, wdt.BatchOptions{
		Format:  variant,
		Corpus:  corpus,
		Workers: cfg.Workers,
		Logger:  log,
	})
	printFileSummaries(report)

	agg := wdt.Aggregate(report.Containers(), cfg.AggregateConfig())
	printAggregation(agg)

	if report.Failed > 0 {
		os.Exit(1)
	}
}

// mergeConfig fills zero-valued fields of dst from src, so command-line
// flags keep precedence over the config file.
func mergeConfig(dst, src *wdt.Config) {
	if dst.Format == "" {
		dst.Format = src.Format
	}
	if dst.Listfile == "" {
		dst.Listfile = src.Listfile
	}
	if dst.Workers == 0 {
		dst.Workers = src.Workers
	}
	if dst.GapThreshold == 0 {
		dst.GapThreshold = src.GapThreshold
	}
	if dst.ClusterThreshold == 0 {
		dst.ClusterThreshold = src.ClusterThreshold
	}
}

func printFileSummaries(report *wdt.BatchReport) {
	for _, res := range report.Results {
		if res.Err != nil {
			fmt.Printf("%s: FAILED: %v\n", res.Path, res.Err)
			continue
		}
		pc := res.Container
		fmt.Printf("%s: %s, %d chunks, %d doodads, %d objects, %d tiles",
			res.Path, pc.File.Variant, len(pc.File.Chunks),
			len(pc.Doodads), len(pc.Objects), len(pc.Tiles))
		if pc.TileMap != nil {
			fmt.Printf(", %d/4096 tiles present", pc.TileMap.Count())
		}
		fmt.Println()
		wdt.SortWarnings(pc.Warnings)
		for _, w := range pc.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
	}
	fmt.Printf("\n%d parsed (%d with warnings), %d failed\n\n",
		report.Parsed, report.Warned, report.Failed)
}

func printAggregation(agg *wdt.AggregationReport) {
	fmt.Println("=== Unique ID usage ===")
	for _, m := range agg.PerMap {
		fmt.Printf("%s: %d IDs in [%d, %d]\n", m.Map, m.Count, m.MinID, m.MaxID)
	}
	fmt.Printf("highest ID anywhere: %d\n", agg.MaxID)

	if len(agg.Collisions) > 0 {
		fmt.Printf("\n%d IDs used in more than one map:\n", len(agg.Collisions))
		for _, c := range agg.Collisions {
			fmt.Printf("  %d: %v\n", c.ID, c.Maps)
			for _, r := range c.Refs {
				fmt.Printf("    file %d (%s): %s\n", r.FileID, r.Map, r.Kind)
			}
		}
	}
	if len(agg.Clusters) > 0 {
		fmt.Printf("\n%d ID clusters:\n", len(agg.Clusters))
		for _, c := range agg.Clusters {
			fmt.Printf("  [%d, %d] x%d (density %.1f%%) in %v\n",
				c.MinID, c.MaxID, c.Count, c.Density, c.Maps)
		}
	}
}
