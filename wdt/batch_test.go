package wdt

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFixture(t *testing.T, dir, name string, buf []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("writing fixture %s: %v", name, err)
	}
	return path
}

func TestMapNameFromPath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"maps/Azeroth/Azeroth_30_48.adt", "Azeroth"},
		{"Azeroth.wdt", "Azeroth"},
		{"dir/Kalimdor_0_0.adt", "Kalimdor"},
		{"plain", "plain"},
	}
	for _, c := range cases {
		if got := MapNameFromPath(c.in); got != c.want {
			t.Errorf("MapNameFromPath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeFixture(t, dir, "Good_0_0.adt", retailWorldObjects())
	empty := writeFixture(t, dir, "Empty_0_0.adt", nil)
	missing := filepath.Join(dir, "does-not-exist.adt")

	report := RunBatch(context.Background(), []string{good, empty, missing}, BatchOptions{
		Workers: 2,
		Logger:  quietLogger(),
	})

	if report.Parsed != 1 || report.Failed != 2 {
		t.Fatalf("parsed = %d, failed = %d, want 1 and 2", report.Parsed, report.Failed)
	}
	if report.Results[0].Container == nil || report.Results[0].Path != good {
		t.Errorf("result 0 = %+v", report.Results[0])
	}
	if report.Results[1].Err == nil || report.Results[2].Err == nil {
		t.Errorf("bad inputs did not fail: %+v, %+v", report.Results[1], report.Results[2])
	}

	containers := report.Containers()
	if len(containers) != 1 || containers[0].Name != "Good" {
		t.Fatalf("containers = %+v", containers)
	}
}

func TestRunBatchOrdering(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"A_0_0.adt", "B_0_0.adt", "C_0_0.adt", "D_0_0.adt"} {
		paths = append(paths, writeFixture(t, dir, name, retailWorldObjects()))
	}

	report := RunBatch(context.Background(), paths, BatchOptions{
		Workers: 4,
		Logger:  quietLogger(),
	})
	if report.Parsed != 4 {
		t.Fatalf("parsed = %d, want 4", report.Parsed)
	}
	for i, res := range report.Results {
		if res.Path != paths[i] {
			t.Errorf("result %d path = %s, want %s", i, res.Path, paths[i])
		}
	}
}

func TestRunBatchCancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "A_0_0.adt", retailWorldObjects())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := RunBatch(ctx, []string{path, path, path}, BatchOptions{
		Workers: 1,
		Logger:  quietLogger(),
	})
	// Scheduling races the cancellation, so some files may still parse;
	// every input must end up with a result either way.
	if report.Parsed+report.Failed != 3 {
		t.Fatalf("every input needs a result: %+v", report)
	}
	for i, res := range report.Results {
		if res.Container == nil && res.Err == nil {
			t.Errorf("result %d has neither container nor error", i)
		}
	}
}
