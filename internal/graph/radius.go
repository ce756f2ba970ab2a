package graph

import "sort"

// FindInRange walks the graph breadth-first from start and returns every sector within
// maxRange hops whose auxiliary record satisfies match, tagged with its hop distance.
// Sectors without a record are skipped. Results are ordered by distance, then sector id.
//
// Unlike FindRoute this keys visits on the sector alone: only hop distance matters here,
// so any gate pair into a sector is as good as another.
//
// Panics with *MalformedGraphError if a visited sector is unknown to the view.
func FindInRange[T any](view View, start SectorID, maxRange int, lookup Lookup[T], match Predicate[T]) []SearchResult {
	result := []SearchResult{}
	if maxRange < 0 {
		return result
	}

	visited := map[SectorID]bool{start: true}
	layer := []SectorID{start}
	for depth := 0; depth <= maxRange && len(layer) > 0; depth++ {
		var next []SectorID
		for _, sector := range layer {
			edges := mustEdges(view, sector)

			if record, ok := lookup(sector); ok && match(record) {
				result = append(result, SearchResult{Distance: depth, Sector: sector})
			}

			if depth == maxRange {
				continue
			}
			for _, e := range edges {
				if !visited[e.To] {
					visited[e.To] = true
					next = append(next, e.To)
				}
			}
		}
		layer = next
	}

	SortResults(result)
	return result
}

// SortResults orders results by distance, then sector id.
func SortResults(results []SearchResult) {
	sort.Slice(results, func(i, j int) bool { return results[i].Less(results[j]) })
}

// SectorsWithinRange returns every sector reachable from start within maxRange hops,
// mapped to its hop distance.
func SectorsWithinRange(view View, start SectorID, maxRange int) map[SectorID]int {
	every := func(SectorID) (struct{}, bool) { return struct{}{}, true }
	always := func(struct{}) bool { return true }

	out := make(map[SectorID]int)
	for _, r := range FindInRange[struct{}](view, start, maxRange, every, always) {
		out[r.Sector] = r.Distance
	}
	return out
}
