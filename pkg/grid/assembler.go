package grid

import (
	"fmt"
	"math"
	"sort"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/akervik/fissure/pkg/geometry"
	"github.com/akervik/fissure/pkg/mesher"
)

// ConnectivityError reports a lower-dimensional grid that an adjacent
// higher-dimensional grid should conform to but does not.
type ConnectivityError struct {
	Higher mesher.Tag
	Lower  mesher.Tag
	Dim    int // dimension of the lower grid
	Cell   int // unmatched lower cell
}

func (e ConnectivityError) Error() string {
	return fmt.Sprintf("grid tag %d (dim %d) cell %d has no matching face in grid tag %d",
		e.Lower, e.Dim, e.Cell, e.Higher)
}

// AssemblyError aggregates the connectivity failures of one assembly.
type AssemblyError struct {
	Errs []error
}

func (e *AssemblyError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("assembly: %s", strings.Join(msgs, "; "))
}

func (e *AssemblyError) Unwrap() []error { return e.Errs }

// Assembler turns mesher output into a bucket: sub-grids sharing a tag
// are merged into one grid per entity, and grids of adjacent dimension
// are connected by matching faces to cells geometrically.
type Assembler struct {
	Tol    geometry.Tolerance
	Schema *Schema

	// SkipMatchCheck disables the conformity validation between
	// dimensions. Edges are still built from whatever matches are
	// found, but unmatched cells are not an error and the bucket is
	// marked as not validated. Off by default.
	SkipMatchCheck bool
}

// Assemble builds the bucket for one mesher run.
func (a *Assembler) Assemble(d *mesher.Description, out *mesher.Output) (*Bucket, error) {
	tol := a.Tol.Or(geometry.DefaultTolerance)
	b := NewBucket(a.Schema)

	for _, g := range mergeByTag(out.Grids, tol) {
		b.AddGrid(g)
	}

	byTag := make(map[mesher.Tag]*Grid, b.NumGrids())
	for _, g := range b.Grids() {
		byTag[g.Tag] = g
	}

	var errs []error
	for _, pair := range expectedPairs(d) {
		hi, ok := byTag[pair.higher]
		if !ok {
			continue // entity not meshed (e.g. no matrix in a DFN run)
		}
		lo, ok := byTag[pair.lower]
		if !ok {
			continue
		}
		e := &Edge{Higher: hi, Lower: lo, FaceCells: make(map[int]int), CellFaces: make(map[int][]int)}
		matchFaces(hi, lo, tol, e)
		if !a.SkipMatchCheck {
			for ci := range lo.Cells {
				if len(e.CellFaces[ci]) == 0 {
					errs = append(errs, ConnectivityError{
						Higher: hi.Tag, Lower: lo.Tag, Dim: lo.Dim, Cell: ci,
					})
				}
			}
		}
		if len(e.FaceCells) > 0 {
			if err := b.AddEdge(e); err != nil {
				errs = append(errs, err)
			}
		}
	}

	b.MatchingValidated = !a.SkipMatchCheck && len(errs) == 0
	if len(errs) > 0 {
		return b, &AssemblyError{Errs: errs}
	}
	return b, nil
}

// tagPair is an expected (higher dim, lower dim) adjacency.
type tagPair struct {
	higher, lower mesher.Tag
}

// expectedPairs derives the adjacencies the description implies:
// fracture surfaces border the matrix, intersection lines border their
// surfaces, and crossing points border their lines.
func expectedPairs(d *mesher.Description) []tagPair {
	var pairs []tagPair
	seen := make(map[tagPair]bool)
	add := func(hi, lo mesher.Tag) {
		p := tagPair{hi, lo}
		if hi == mesher.TagNone || lo == mesher.TagNone || seen[p] {
			return
		}
		seen[p] = true
		pairs = append(pairs, p)
	}
	if d.Dim == 3 {
		for _, s := range d.Surfaces {
			add(mesher.TagMatrix, s.Tag)
		}
	}
	for _, ln := range d.Lines {
		if !ln.Grid {
			continue
		}
		for _, s := range ln.Surfaces {
			add(s, ln.Tag)
		}
	}
	for _, pt := range d.Points {
		for _, l := range pt.Lines {
			add(l, pt.Tag)
		}
	}
	return pairs
}

// mergeByTag fuses sub-grids carrying the same tag into one grid with
// a shared node pool, in ascending tag order.
func mergeByTag(subs []mesher.SubGrid, tol geometry.Tolerance) []*Grid {
	groups := make(map[mesher.Tag][]mesher.SubGrid)
	var tags []mesher.Tag
	for _, sg := range subs {
		if _, ok := groups[sg.Tag]; !ok {
			tags = append(tags, sg.Tag)
		}
		groups[sg.Tag] = append(groups[sg.Tag], sg)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	grids := make([]*Grid, 0, len(tags))
	for _, tag := range tags {
		group := groups[tag]
		var nodes []v3.Vec
		var cells [][]int
		lookup := newNodeLookup(tol)
		for _, sg := range group {
			remap := make([]int, len(sg.Nodes))
			for i, v := range sg.Nodes {
				id, ok := lookup.find(nodes, v)
				if !ok {
					id = len(nodes)
					nodes = append(nodes, v)
					lookup.insert(v, id)
				}
				remap[i] = id
			}
			for _, cell := range sg.Cells {
				mapped := make([]int, len(cell))
				for i, n := range cell {
					mapped[i] = remap[n]
				}
				cells = append(cells, mapped)
			}
		}
		grids = append(grids, New(group[0].Dim, tag, nodes, cells))
	}
	return grids
}

// nodeLookup is a coarse spatial hash over node coordinates; cell size
// is chosen so tolerance-close points land in the same or a
// neighboring bin.
type nodeLookup struct {
	tol  float64
	step float64
	bins map[[3]int][]int
}

func newNodeLookup(tol geometry.Tolerance) *nodeLookup {
	t := float64(tol)
	return &nodeLookup{tol: t, step: 4 * t, bins: make(map[[3]int][]int)}
}

func (l *nodeLookup) key(v v3.Vec) [3]int {
	return [3]int{
		int(math.Floor(v.X / l.step)),
		int(math.Floor(v.Y / l.step)),
		int(math.Floor(v.Z / l.step)),
	}
}

func (l *nodeLookup) insert(v v3.Vec, id int) {
	k := l.key(v)
	l.bins[k] = append(l.bins[k], id)
}

func (l *nodeLookup) find(nodes []v3.Vec, v v3.Vec) (int, bool) {
	base := l.key(v)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				k := [3]int{base[0] + dx, base[1] + dy, base[2] + dz}
				for _, id := range l.bins[k] {
					if nodes[id].Sub(v).Length() <= l.tol {
						return id, true
					}
				}
			}
		}
	}
	return 0, false
}

// matchFaces pairs faces of the higher grid with cells of the lower
// grid whose node sets coincide within tolerance.
func matchFaces(hi, lo *Grid, tol geometry.Tolerance, e *Edge) {
	t := float64(tol)
	type faceRef struct {
		idx    int
		center v3.Vec
	}
	// bucket higher faces by node count; a face can only match a cell
	// with the same number of nodes
	byCount := make(map[int][]faceRef)
	for fi, face := range hi.Faces {
		byCount[len(face)] = append(byCount[len(face)], faceRef{fi, hi.FaceCenter(fi)})
	}
	for ci, cell := range lo.Cells {
		center := lo.CellCenter(ci)
		for _, fr := range byCount[len(cell)] {
			if fr.center.Sub(center).Length() > t {
				continue
			}
			if !nodeSetsCoincide(hi, hi.Faces[fr.idx], lo, cell, t) {
				continue
			}
			e.FaceCells[fr.idx] = ci
			e.CellFaces[ci] = append(e.CellFaces[ci], fr.idx)
		}
	}
}

// nodeSetsCoincide reports whether every node of the face has a
// matching node of the cell within tol. The sets have equal size and
// at most four nodes, so the greedy pairing is exact.
func nodeSetsCoincide(hi *Grid, face []int, lo *Grid, cell []int, tol float64) bool {
	used := make([]bool, len(cell))
	for _, fn := range face {
		p := hi.Nodes[fn]
		found := false
		for i, cn := range cell {
			if used[i] {
				continue
			}
			if lo.Nodes[cn].Sub(p).Length() <= tol {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
