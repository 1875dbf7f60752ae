package mesher

import (
	"fmt"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/akervik/fissure/pkg/geometry"
	"github.com/akervik/fissure/pkg/intersect"
	"github.com/akervik/fissure/pkg/network"
	"github.com/akervik/fissure/pkg/split"
)

// Build assembles the mesher input from a split network: deduplicated
// node pool, surface loops with shared-edge annotations, 1d
// intersection chains subdivided at crossing points, and 0d crossing
// points. The network must already be split; Build does not check
// for remaining interior intersections.
func Build(net *network.Network, xs []intersect.Intersection, res *split.Result, params Params) (*Description, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	d := &Description{
		Dim:    net.Dim(),
		Domain: net.Domain,
		Tol:    net.Tol,
		Params: params,
	}
	pool := &nodePool{tol: net.Tol}

	nextTag := tagFirst
	surfTags := make(map[geometry.PolygonID]Tag)
	surfaceTag := func(parent geometry.PolygonID) Tag {
		if t, ok := surfTags[parent]; ok {
			return t
		}
		t := nextTag
		nextTag++
		surfTags[parent] = t
		return t
	}

	// Surfaces: every 2d polygon of the (split) network. In planar
	// mode the domain rectangle is the matrix itself; in 3d the box
	// faces constrain the volume but get no grid.
	surfByEntity := make(map[geometry.PolygonID][]int)
	var matrixSurfs []int
	for _, p := range net.Polygons() {
		if p.Dim() != 2 {
			continue
		}
		s := Surface{Entity: p.Parent, Boundary: p.Boundary}
		s.Loop = make([]int, len(p.Vertices))
		for i, v := range p.Vertices {
			s.Loop[i] = pool.add(v)
		}
		switch {
		case p.Boundary && d.Dim == 2:
			s.Tag = TagMatrix
			s.Matrix = true
		case p.Boundary:
			s.Tag = TagNone
		default:
			s.Tag = surfaceTag(p.Parent)
		}
		for _, pt := range res.Embedded[p.ID] {
			s.Embedded = append(s.Embedded, pool.add(pt))
		}
		idx := len(d.Surfaces)
		surfByEntity[p.Parent] = append(surfByEntity[p.Parent], idx)
		if s.Matrix {
			matrixSurfs = append(matrixSurfs, idx)
		}
		d.Surfaces = append(d.Surfaces, s)
	}

	// 1d entities.
	if d.Dim == 3 {
		for _, x := range xs {
			if x.Kind != intersect.KindSegment {
				continue
			}
			aBound := parentBoundary(net, x.A)
			bBound := parentBoundary(net, x.B)
			if aBound && bBound {
				continue // box edges, nothing to constrain
			}
			ln := Line{Nodes: chainNodes(pool, x.P0, x.P1, res.CrossPoints, net.Tol)}
			if aBound || bBound {
				// Fracture trace on a boundary face: a meshing
				// constraint, not a grid entity. The boundary face is
				// never subdivided, so the trace must be embedded in
				// its surface for the face mesh to conform.
				ln.Tag = TagNone
				frac, face := x.A, x.B
				if aBound {
					frac, face = x.B, x.A
				}
				ln.Surfaces = []Tag{surfaceTag(frac)}
				ln.Embed = append(ln.Embed, surfByEntity[face]...)
			} else {
				ln.Tag = nextTag
				nextTag++
				ln.Grid = true
				ln.Surfaces = []Tag{surfaceTag(x.A), surfaceTag(x.B)}
			}
			d.Lines = append(d.Lines, ln)
		}
	} else {
		// Planar mode: each original fracture segment is a 1d grid
		// entity, its chain subdivided at crossing points.
		groups := make(map[geometry.PolygonID][]*geometry.Polygon)
		var order []geometry.PolygonID
		for _, p := range net.Polygons() {
			if p.Dim() != 1 {
				continue
			}
			if _, ok := groups[p.Parent]; !ok {
				order = append(order, p.Parent)
			}
			groups[p.Parent] = append(groups[p.Parent], p)
		}
		sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
		for _, parent := range order {
			chain, err := chainSegments(pool, groups[parent], net.Tol)
			if err != nil {
				return nil, fmt.Errorf("mesher: fracture %d: %w", parent, err)
			}
			ln := Line{Tag: nextTag, Nodes: chain, Surfaces: []Tag{TagMatrix}, Grid: true}
			ln.Embed = append(ln.Embed, matrixSurfs...)
			nextTag++
			d.Lines = append(d.Lines, ln)
		}
	}

	// 0d entities: crossing points shared by at least two 1d grids.
	for _, cp := range res.CrossPoints {
		nid := pool.add(cp)
		var lines []Tag
		for _, ln := range d.Lines {
			if !ln.Grid {
				continue
			}
			for _, n := range ln.Nodes {
				if n == nid {
					lines = append(lines, ln.Tag)
					break
				}
			}
		}
		if len(lines) >= 2 {
			d.Points = append(d.Points, Point{Tag: nextTag, Node: nid, Lines: lines})
			nextTag++
		}
	}

	d.Nodes = pool.nodes
	return d, nil
}

// nodePool deduplicates vertices within tolerance.
type nodePool struct {
	tol   geometry.Tolerance
	nodes []v3.Vec
}

func (np *nodePool) add(v v3.Vec) int {
	for i, have := range np.nodes {
		if np.tol.Eq(have, v) {
			return i
		}
	}
	np.nodes = append(np.nodes, v)
	return len(np.nodes) - 1
}

// parentBoundary reports whether the pre-split polygon id refers to a
// boundary polygon (checked through its surviving children).
func parentBoundary(net *network.Network, id geometry.PolygonID) bool {
	for _, p := range net.Polygons() {
		if p.Parent == id {
			return p.Boundary
		}
	}
	return true
}

// chainNodes builds the ordered node chain of a segment, subdivided
// at the crossing points lying on it.
func chainNodes(pool *nodePool, p0, p1 v3.Vec, crossPts []v3.Vec, tol geometry.Tolerance) []int {
	d := p1.Sub(p0)
	length := d.Length()
	dir := d.DivScalar(length)

	type cut struct {
		pt v3.Vec
		t  float64
	}
	cuts := []cut{{p0, 0}, {p1, length}}
	for _, cp := range crossPts {
		t := cp.Sub(p0).Dot(dir)
		if t <= float64(tol) || t >= length-float64(tol) {
			continue
		}
		if cp.Sub(p0.Add(dir.MulScalar(t))).Length() > float64(tol) {
			continue // not on this segment
		}
		cuts = append(cuts, cut{cp, t})
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i].t < cuts[j].t })

	chain := make([]int, 0, len(cuts))
	for _, c := range cuts {
		nid := pool.add(c.pt)
		if len(chain) > 0 && chain[len(chain)-1] == nid {
			continue
		}
		chain = append(chain, nid)
	}
	return chain
}

// chainSegments orders the collinear child segments of one fracture
// into a single node chain.
func chainSegments(pool *nodePool, segs []*geometry.Polygon, tol geometry.Tolerance) ([]int, error) {
	if len(segs) == 0 {
		return nil, fmt.Errorf("no segments")
	}
	a := segs[0].Vertices[0]
	dir := segs[0].Vertices[1].Sub(a)
	dir = dir.DivScalar(dir.Length())

	type cut struct {
		pt v3.Vec
		t  float64
	}
	var cuts []cut
	for _, s := range segs {
		for _, v := range s.Vertices {
			cuts = append(cuts, cut{v, v.Sub(a).Dot(dir)})
		}
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i].t < cuts[j].t })

	var chain []int
	for _, c := range cuts {
		nid := pool.add(c.pt)
		if len(chain) > 0 && chain[len(chain)-1] == nid {
			continue
		}
		chain = append(chain, nid)
	}
	if len(chain) < 2 {
		return nil, fmt.Errorf("degenerate segment chain")
	}
	return chain, nil
}
