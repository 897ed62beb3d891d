package wdt

import "sort"

// Aggregation defaults. A gap of up to 10 between consecutive IDs keeps
// them in the same run, and a run needs at least 3 members to count as a
// cluster; both match the ID allocation patterns the world editors
// produce.
const (
	DefaultGapThreshold     = 10
	DefaultClusterThreshold = 3
)

// AggregateConfig tunes cluster detection. Zero values select the
// defaults.
type AggregateConfig struct {
	// GapThreshold is the largest difference between consecutive sorted
	// IDs that still extends the current run.
	GapThreshold int64

	// ClusterThreshold is the minimum run length reported as a cluster.
	ClusterThreshold int
}

func (c AggregateConfig) withDefaults() AggregateConfig {
	if c.GapThreshold <= 0 {
		c.GapThreshold = DefaultGapThreshold
	}
	if c.ClusterThreshold <= 0 {
		c.ClusterThreshold = DefaultClusterThreshold
	}
	return c
}

// UniqueIDRef attributes one occurrence of a placement unique ID to the
// container and placement kind it came from.
type UniqueIDRef struct {
	FileID int
	Map    string
	Kind   AssetKind
}

// Collision is one placement unique ID that appears in more than one map.
type Collision struct {
	ID   int64
	Maps []string      // sorted map names the ID appears in
	Refs []UniqueIDRef // placement-level attribution, ordered by file then map
}

// Cluster is a dense run of unique IDs, evidence of a contiguous editing
// session. Runs are found over the whole batch: an allocation burst that
// crosses a map boundary is still one cluster, attributed to every map it
// touches.
type Cluster struct {
	Maps    []string // sorted map names contributing IDs to the run
	MinID   int64
	MaxID   int64
	Count   int
	Density float64 // percentage: Count / (MaxID - MinID + 1) * 100
}

// MapIDSummary is the per-map ID usage summary.
type MapIDSummary struct {
	Map   string
	Count int
	MinID int64
	MaxID int64
}

// AggregationReport is the result of analyzing unique-ID usage across a
// set of parsed containers.
type AggregationReport struct {
	Collisions []Collision
	Clusters   []Cluster
	PerMap     []MapIDSummary
	MaxID      int64 // highest ID across all maps; the floor for new allocations
}

// Aggregate reduces parsed containers into a cross-map unique-ID report.
// Containers sharing a Name are treated as one map, which is how a map's
// terrain tiles are fed in as separate files. The reduction is pure:
// inputs are not modified and the ordering of results is deterministic.
func Aggregate(containers []*ParsedContainer, cfg AggregateConfig) *AggregationReport {
	cfg = cfg.withDefaults()

	byMap := make(map[string]map[int64]struct{})
	refsByID := make(map[int64][]UniqueIDRef)
	for _, pc := range containers {
		ids := byMap[pc.Name]
		if ids == nil {
			ids = make(map[int64]struct{})
			byMap[pc.Name] = ids
		}
		for id := range pc.UniqueIDs {
			ids[id] = struct{}{}
		}
		for _, d := range pc.Doodads {
			if d.UniqueID > 0 {
				refsByID[d.UniqueID] = append(refsByID[d.UniqueID],
					UniqueIDRef{FileID: pc.FileID, Map: pc.Name, Kind: KindModel})
			}
		}
		for _, o := range pc.Objects {
			if o.UniqueID > 0 {
				refsByID[o.UniqueID] = append(refsByID[o.UniqueID],
					UniqueIDRef{FileID: pc.FileID, Map: pc.Name, Kind: KindWorldObject})
			}
		}
	}

	mapNames := make([]string, 0, len(byMap))
	for name := range byMap {
		mapNames = append(mapNames, name)
	}
	sort.Strings(mapNames)

	report := &AggregationReport{}
	seenIn := make(map[int64][]string)
	all := make(map[int64]struct{})

	for _, name := range mapNames {
		ids := sortedIDs(byMap[name])
		if len(ids) == 0 {
			continue
		}
		for _, id := range ids {
			seenIn[id] = append(seenIn[id], name)
			all[id] = struct{}{}
		}
		report.PerMap = append(report.PerMap, MapIDSummary{
			Map:   name,
			Count: len(ids),
			MinID: ids[0],
			MaxID: ids[len(ids)-1],
		})
		if top := ids[len(ids)-1]; top > report.MaxID {
			report.MaxID = top
		}
	}

	report.Clusters = clusterRuns(sortedIDs(all), seenIn, cfg)

	collisionIDs := make([]int64, 0)
	for id, maps := range seenIn {
		if len(maps) > 1 {
			collisionIDs = append(collisionIDs, id)
		}
	}
	sort.Slice(collisionIDs, func(i, j int) bool { return collisionIDs[i] < collisionIDs[j] })
	for _, id := range collisionIDs {
		refs := refsByID[id]
		sort.Slice(refs, func(i, j int) bool {
			if refs[i].FileID != refs[j].FileID {
				return refs[i].FileID < refs[j].FileID
			}
			if refs[i].Map != refs[j].Map {
				return refs[i].Map < refs[j].Map
			}
			return refs[i].Kind < refs[j].Kind
		})
		report.Collisions = append(report.Collisions, Collision{
			ID:   id,
			Maps: seenIn[id],
			Refs: refs,
		})
	}

	return report
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// clusterRuns splits the batch-wide sorted ID list into runs where
// consecutive IDs differ by at most the gap threshold, keeping runs that
// meet the size threshold and attributing each to the maps its members
// came from.
func clusterRuns(ids []int64, seenIn map[int64][]string, cfg AggregateConfig) []Cluster {
	var out []Cluster
	start := 0
	flush := func(end int) {
		n := end - start
		if n < cfg.ClusterThreshold {
			return
		}
		lo, hi := ids[start], ids[end-1]
		names := make(map[string]struct{})
		for _, id := range ids[start:end] {
			for _, m := range seenIn[id] {
				names[m] = struct{}{}
			}
		}
		maps := make([]string, 0, len(names))
		for m := range names {
			maps = append(maps, m)
		}
		sort.Strings(maps)
		out = append(out, Cluster{
			Maps:    maps,
			MinID:   lo,
			MaxID:   hi,
			Count:   n,
			Density: float64(n) / float64(hi-lo+1) * 100,
		})
	}
	for i := 1; i < len(ids); i++ {
		if ids[i]-ids[i-1] > cfg.GapThreshold {
			flush(i)
			start = i
		}
	}
	if len(ids) > 0 {
		flush(len(ids))
	}
	return out
}
