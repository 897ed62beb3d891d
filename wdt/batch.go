package wdt

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"
)

// BatchOptions configures a multi-file run.
type BatchOptions struct {
	// Format bypasses per-file detection when set.
	Format FormatVariant

	// Corpus validates asset references when non-nil.
	Corpus *Corpus

	// Workers bounds parse concurrency; <= 0 selects runtime.NumCPU().
	Workers int

	// Logger receives per-file progress; nil selects slog.Default().
	Logger *slog.Logger
}

// BatchResult is the outcome for one input file. Exactly one of
// Container and Err is set.
type BatchResult struct {
	Path      string
	Container *ParsedContainer
	Err       error
}

// BatchReport summarizes a run. Results are ordered by input position
// regardless of completion order.
type BatchReport struct {
	Results []BatchResult
	Parsed  int // files parsed, including those with warnings
	Warned  int // parsed files that recorded at least one warning
	Failed  int // files that could not be parsed at all
}

// Containers returns the successfully parsed containers, preserving
// input order, ready to hand to Aggregate.
func (r *BatchReport) Containers() []*ParsedContainer {
	out := make([]*ParsedContainer, 0, r.Parsed)
	for _, res := range r.Results {
		if res.Container != nil {
			out = append(out, res.Container)
		}
	}
	return out
}

// tileSuffix matches the "_xx_yy" tile-coordinate suffix of per-tile
// terrain filenames.
var tileSuffix = regexp.MustCompile(`_\d+_\d+$`)

// MapNameFromPath derives the logical map name from a container path:
// the base name without extension, with any tile-coordinate suffix
// removed so a map's tiles aggregate under one name.
func MapNameFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return tileSuffix.ReplaceAllString(base, "")
}

// RunBatch parses every path with a bounded worker pool. A file that
// fails to read or parse is reported in its result and never affects the
// other files. The context cancels scheduling of not-yet-started files;
// in-flight parses run to completion.
func RunBatch(ctx context.Context, paths []string, opts BatchOptions) *BatchReport {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	report := &BatchReport{Results: make([]BatchResult, len(paths))}
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				report.Results[i] = parseFile(paths[i], i, opts, log)
			}
		}()
	}

feed:
	for i := range paths {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < len(paths); j++ {
				report.Results[j] = BatchResult{Path: paths[j], Err: ctx.Err()}
			}
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	for _, res := range report.Results {
		switch {
		case res.Container != nil:
			report.Parsed++
			if len(res.Container.Warnings) > 0 {
				report.Warned++
			}
		case res.Err != nil:
			report.Failed++
		}
	}
	return report
}

func parseFile(path string, fileID int, opts BatchOptions, log *slog.Logger) BatchResult {
	buf, err := os.ReadFile(path)
	if err != nil {
		log.Error("read failed", "path", path, "err", err)
		return BatchResult{Path: path, Err: fmt.Errorf("reading %s: %w", path, err)}
	}

	pc, err := Parse(buf, Options{
		Format: opts.Format,
		Corpus: opts.Corpus,
		Name:   MapNameFromPath(path),
		FileID: fileID,
	})
	if err != nil {
		log.Error("parse failed", "path", path, "err", err)
		return BatchResult{Path: path, Err: fmt.Errorf("parsing %s: %w", path, err)}
	}

	log.Info("parsed",
		"path", path,
		"variant", pc.File.Variant,
		"chunks", len(pc.File.Chunks),
		"doodads", len(pc.Doodads),
		"objects", len(pc.Objects),
		"tiles", len(pc.Tiles),
		"warnings", len(pc.Warnings))
	for _, w := range pc.Warnings {
		log.Warn("anomaly", "path", path, "detail", w.String())
	}
	return BatchResult{Path: path, Container: pc}
}

// SortWarnings orders a warning list by offset then message, giving
// batch logs a stable shape.
func SortWarnings(ws []Warning) {
	sort.Slice(ws, func(i, j int) bool {
		if ws[i].Offset != ws[j].Offset {
			return ws[i].Offset < ws[j].Offset
		}
		return ws[i].Message < ws[j].Message
	})
}
