package wdt

import (
	"math"
	"testing"
)

func containerWithIDs(name string, ids ...int64) *ParsedContainer {
	pc := &ParsedContainer{Name: name, UniqueIDs: make(map[int64]struct{})}
	for _, id := range ids {
		pc.UniqueIDs[id] = struct{}{}
	}
	return pc
}

func TestAggregateClusters(t *testing.T) {
	report := Aggregate([]*ParsedContainer{
		containerWithIDs("Azeroth", 100, 105, 110, 5000),
	}, AggregateConfig{GapThreshold: 10, ClusterThreshold: 3})

	if len(report.Clusters) != 1 {
		t.Fatalf("clusters = %d, want 1", len(report.Clusters))
	}
	c := report.Clusters[0]
	if c.MinID != 100 || c.MaxID != 110 || c.Count != 3 {
		t.Errorf("cluster = %+v, want [100, 110] x3", c)
	}
	if len(c.Maps) != 1 || c.Maps[0] != "Azeroth" {
		t.Errorf("cluster maps = %v, want [Azeroth]", c.Maps)
	}
	if want := 3.0 / 11.0 * 100; math.Abs(c.Density-want) > 1e-9 {
		t.Errorf("density = %v, want about %v", c.Density, want)
	}
	if report.MaxID != 5000 {
		t.Errorf("max ID = %d, want 5000", report.MaxID)
	}
}

func TestAggregateClustersCrossMap(t *testing.T) {
	// A run is found over every ID in the batch: an allocation burst
	// split across two maps is still one cluster, neither half of which
	// would qualify alone.
	report := Aggregate([]*ParsedContainer{
		containerWithIDs("MapA", 100, 101, 102),
		containerWithIDs("MapB", 103, 104, 105),
	}, AggregateConfig{GapThreshold: 10, ClusterThreshold: 5})

	if len(report.Clusters) != 1 {
		t.Fatalf("clusters = %+v, want one spanning both maps", report.Clusters)
	}
	c := report.Clusters[0]
	if c.MinID != 100 || c.MaxID != 105 || c.Count != 6 {
		t.Errorf("cluster = %+v, want [100, 105] x6", c)
	}
	if len(c.Maps) != 2 || c.Maps[0] != "MapA" || c.Maps[1] != "MapB" {
		t.Errorf("cluster maps = %v, want [MapA MapB]", c.Maps)
	}
}

func TestAggregateCollisions(t *testing.T) {
	report := Aggregate([]*ParsedContainer{
		containerWithIDs("Foo", 42, 50),
		containerWithIDs("Bar", 42, 60),
	}, AggregateConfig{})

	if len(report.Collisions) != 1 {
		t.Fatalf("collisions = %+v, want one", report.Collisions)
	}
	col := report.Collisions[0]
	if col.ID != 42 {
		t.Errorf("collision ID = %d, want 42", col.ID)
	}
	if len(col.Maps) != 2 || col.Maps[0] != "Bar" || col.Maps[1] != "Foo" {
		t.Errorf("collision maps = %v, want sorted [Bar Foo]", col.Maps)
	}
}

func TestAggregateCollisionAttribution(t *testing.T) {
	doodad := func(id int64) PlacementRecord { return PlacementRecord{UniqueID: id} }
	a := &ParsedContainer{
		Name: "Foo", FileID: 1,
		UniqueIDs: map[int64]struct{}{42: {}},
		Doodads:   []PlacementRecord{doodad(42)},
	}
	b := &ParsedContainer{
		Name: "Bar", FileID: 2,
		UniqueIDs: map[int64]struct{}{42: {}},
		Objects:   []ObjectPlacement{{PlacementRecord: doodad(42)}},
	}

	report := Aggregate([]*ParsedContainer{a, b}, AggregateConfig{})
	if len(report.Collisions) != 1 {
		t.Fatalf("collisions = %+v, want one", report.Collisions)
	}
	refs := report.Collisions[0].Refs
	if len(refs) != 2 {
		t.Fatalf("refs = %+v, want two", refs)
	}
	if refs[0] != (UniqueIDRef{FileID: 1, Map: "Foo", Kind: KindModel}) {
		t.Errorf("ref 0 = %+v", refs[0])
	}
	if refs[1] != (UniqueIDRef{FileID: 2, Map: "Bar", Kind: KindWorldObject}) {
		t.Errorf("ref 1 = %+v", refs[1])
	}
}

func TestAggregateMergesTilesByMapName(t *testing.T) {
	// Two containers with the same name are one map: a shared ID is not
	// a collision, and their IDs cluster together.
	report := Aggregate([]*ParsedContainer{
		containerWithIDs("Kalimdor", 10, 12),
		containerWithIDs("Kalimdor", 12, 14),
	}, AggregateConfig{})

	if len(report.Collisions) != 0 {
		t.Errorf("collisions = %+v, want none", report.Collisions)
	}
	if len(report.Clusters) != 1 || report.Clusters[0].Count != 3 {
		t.Fatalf("clusters = %+v, want one of 3", report.Clusters)
	}
	if len(report.PerMap) != 1 || report.PerMap[0].Count != 3 {
		t.Errorf("per-map = %+v", report.PerMap)
	}
}

func TestAggregateDeterministic(t *testing.T) {
	in := []*ParsedContainer{
		containerWithIDs("B", 1, 2, 3, 90),
		containerWithIDs("A", 2, 50, 51, 52),
	}
	a := Aggregate(in, AggregateConfig{})
	b := Aggregate(in, AggregateConfig{})

	if len(a.Clusters) != 2 || len(b.Clusters) != 2 {
		t.Fatalf("clusters = %+v / %+v, want the 1..3 and 50..52 runs", a.Clusters, b.Clusters)
	}
	for i := range a.Clusters {
		ca, cb := a.Clusters[i], b.Clusters[i]
		if ca.MinID != cb.MinID || ca.MaxID != cb.MaxID || ca.Count != cb.Count {
			t.Errorf("cluster %d differs: %+v vs %+v", i, ca, cb)
		}
	}
	// Maps report in sorted order.
	if a.PerMap[0].Map != "A" || a.PerMap[1].Map != "B" {
		t.Errorf("per-map order = %v, %v", a.PerMap[0].Map, a.PerMap[1].Map)
	}
	// The shared ID 2 keeps both map attributions on the first run.
	first := a.Clusters[0]
	if first.MinID != 1 || first.MaxID != 3 || len(first.Maps) != 2 {
		t.Errorf("first cluster = %+v, want [1, 3] across A and B", first)
	}
}

func TestAggregateDefaults(t *testing.T) {
	cfg := AggregateConfig{}.withDefaults()
	if cfg.GapThreshold != DefaultGapThreshold || cfg.ClusterThreshold != DefaultClusterThreshold {
		t.Errorf("defaults = %+v", cfg)
	}
	// A pair separated by more than the default gap never clusters.
	report := Aggregate([]*ParsedContainer{
		containerWithIDs("M", 1, 2, 3, 100, 101, 120),
	}, AggregateConfig{})
	if len(report.Clusters) != 1 {
		t.Fatalf("clusters = %+v", report.Clusters)
	}
	if report.Clusters[0].MaxID != 3 {
		t.Errorf("cluster = %+v, want the 1..3 run only", report.Clusters[0])
	}
}
