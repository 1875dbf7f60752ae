package grid

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Edge connects a grid to one of dimension exactly one lower. It keeps
// bidirectional index maps between faces of the higher grid and cells
// of the lower grid.
type Edge struct {
	UID    uuid.UUID
	Higher *Grid
	Lower  *Grid

	// FaceCells maps a face index of Higher to the lower cell it
	// geometrically coincides with. CellFaces is the inverse; each
	// lower cell normally has two matching higher faces (one per
	// side) in a conforming mesh, or one on the domain boundary.
	FaceCells map[int]int
	CellFaces map[int][]int
}

// Bucket is the mixed-dimensional grid: all grids ordered by
// decreasing dimension, the edges between grids of adjacent
// dimension, and the shared data table.
type Bucket struct {
	grids []*Grid
	edges []*Edge

	Data *Table

	// MatchingValidated records whether cross-dimensional face/cell
	// matching was checked during assembly.
	MatchingValidated bool
}

func NewBucket(schema *Schema) *Bucket {
	return &Bucket{Data: NewTable(schema)}
}

// AddGrid inserts a grid, keeping the decreasing-dimension order.
func (b *Bucket) AddGrid(g *Grid) {
	b.grids = append(b.grids, g)
	sort.SliceStable(b.grids, func(i, j int) bool {
		if b.grids[i].Dim != b.grids[j].Dim {
			return b.grids[i].Dim > b.grids[j].Dim
		}
		return b.grids[i].Tag < b.grids[j].Tag
	})
}

// AddEdge inserts an edge; the grids must differ by one dimension.
func (b *Bucket) AddEdge(e *Edge) error {
	if e.Higher.Dim != e.Lower.Dim+1 {
		return fmt.Errorf("edge dims %d/%d are not adjacent", e.Higher.Dim, e.Lower.Dim)
	}
	if e.UID == uuid.Nil {
		e.UID = uuid.New()
	}
	b.edges = append(b.edges, e)
	return nil
}

func (b *Bucket) NumGrids() int { return len(b.grids) }
func (b *Bucket) NumEdges() int { return len(b.edges) }

// Grids returns all grids in decreasing-dimension order.
func (b *Bucket) Grids() []*Grid { return b.grids }

// GridsOfDim returns the grids of one dimension.
func (b *Bucket) GridsOfDim(dim int) []*Grid {
	var out []*Grid
	for _, g := range b.grids {
		if g.Dim == dim {
			out = append(out, g)
		}
	}
	return out
}

// MaxDim returns the highest grid dimension present, or -1 when empty.
func (b *Bucket) MaxDim() int {
	if len(b.grids) == 0 {
		return -1
	}
	return b.grids[0].Dim
}

// EachGrid calls fn for every grid, highest dimension first, stopping
// on the first error.
func (b *Bucket) EachGrid(fn func(*Grid, *Table) error) error {
	for _, g := range b.grids {
		if err := fn(g, b.Data); err != nil {
			return err
		}
	}
	return nil
}

// EachEdge calls fn for every edge, stopping on the first error.
func (b *Bucket) EachEdge(fn func(*Edge, *Table) error) error {
	for _, e := range b.edges {
		if err := fn(e, b.Data); err != nil {
			return err
		}
	}
	return nil
}

// EdgesOf returns the edges touching a grid.
func (b *Bucket) EdgesOf(g *Grid) []*Edge {
	var out []*Edge
	for _, e := range b.edges {
		if e.Higher == g || e.Lower == g {
			out = append(out, e)
		}
	}
	return out
}

// Neighbors returns the grids directly connected to g, higher and
// lower.
func (b *Bucket) Neighbors(g *Grid) []*Grid {
	var out []*Grid
	for _, e := range b.edges {
		switch g {
		case e.Higher:
			out = append(out, e.Lower)
		case e.Lower:
			out = append(out, e.Higher)
		}
	}
	return out
}
