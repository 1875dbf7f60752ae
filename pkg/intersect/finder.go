package intersect

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/akervik/fissure/pkg/geometry"
	"github.com/akervik/fissure/pkg/network"
)

// Finder computes all pairwise intersections in a network. The pair
// scan is embarrassingly parallel; Workers controls the number of
// goroutines (0 means GOMAXPROCS). Results are merged and sorted by
// polygon-id pair, so parallel runs are reproducible.
type Finder struct {
	Tol     geometry.Tolerance
	Workers int
}

// polyEntry adapts a polygon to the r-tree's Spatial interface. The
// stored rect is the polygon's bounding box expanded by tolerance.
type polyEntry struct {
	poly *geometry.Polygon
	rect rtreego.Rect
}

func (e *polyEntry) Bounds() rtreego.Rect {
	return e.rect
}

func newPolyEntry(p *geometry.Polygon, tol geometry.Tolerance) (*polyEntry, error) {
	min, max := p.BoundingBox()
	t := float64(tol)
	origin := rtreego.Point{min.X - t, min.Y - t, min.Z - t}
	lengths := []float64{
		max.X - min.X + 2*t,
		max.Y - min.Y + 2*t,
		max.Z - min.Z + 2*t,
	}
	rect, err := rtreego.NewRect(origin, lengths)
	if err != nil {
		return nil, fmt.Errorf("intersect: bounds of polygon %d: %w", p.ID, err)
	}
	return &polyEntry{poly: p, rect: rect}, nil
}

// FindAll returns the complete, deduplicated intersection set of the
// network, sorted by (A, B). The broad phase walks an r-tree of
// tolerance-expanded bounding boxes; only overlapping pairs reach the
// narrow phase.
func (f *Finder) FindAll(ctx context.Context, net *network.Network) ([]Intersection, error) {
	tol := f.Tol.Or(net.Tol)
	polys := net.Polygons()
	if len(polys) < 2 {
		return nil, nil
	}

	entries := make([]*polyEntry, len(polys))
	tree := rtreego.NewTree(3, 2, 16)
	for i, p := range polys {
		e, err := newPolyEntry(p, tol)
		if err != nil {
			return nil, err
		}
		entries[i] = e
		tree.Insert(e)
	}

	// Broad phase: candidate pairs with overlapping bounds. The
	// id ordering keeps each unordered pair exactly once.
	var pairs [][2]*geometry.Polygon
	for _, e := range entries {
		for _, hit := range tree.SearchIntersect(e.rect) {
			other := hit.(*polyEntry).poly
			if other.ID > e.poly.ID {
				pairs = append(pairs, [2]*geometry.Polygon{e.poly, other})
			}
		}
	}

	workers := f.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(pairs) {
		workers = len(pairs)
	}
	if workers < 1 {
		workers = 1
	}

	// Narrow phase across workers; polygon data is read-only here.
	tasks := make(chan [2]*geometry.Polygon)
	found := make([][]Intersection, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for pair := range tasks {
				if x, ok := intersectPair(pair[0], pair[1], tol); ok {
					found[w] = append(found[w], x)
				}
			}
		}(w)
	}

	var ctxErr error
dispatch:
	for _, pair := range pairs {
		if ctxErr = ctx.Err(); ctxErr != nil {
			break dispatch
		}
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break dispatch
		case tasks <- pair:
		}
	}
	close(tasks)
	wg.Wait()
	if ctxErr != nil {
		return nil, ctxErr
	}

	// Deterministic merge: dedup on the canonical pair key, then
	// sort by pair ids.
	seen := make(map[pairKey]bool)
	var out []Intersection
	for _, chunk := range found {
		for _, x := range chunk {
			key := makePairKey(x.A, x.B)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, x)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out, nil
}
