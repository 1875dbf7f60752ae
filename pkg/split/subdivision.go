package split

import (
	"math"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/akervik/fissure/pkg/geometry"
)

// splitPolygon builds the constrained planar subdivision of one
// polygon: boundary edges plus constraint segments form a planar
// graph, and its interior faces become the child polygons. Returns
// the children, the constraint-constraint crossing points, and the
// isolated interior point constraints.
func splitPolygon(p *geometry.Polygon, cons []constraint, tol geometry.Tolerance) ([]*geometry.Polygon, []v3.Vec, []v3.Vec, error) {
	f := p.Frame()
	loop := p.Loop2D(f)
	if geometry.SignedArea2D(loop) < 0 {
		rev := make([]geometry.Vec2, len(loop))
		for i, q := range loop {
			rev[len(loop)-1-i] = q
		}
		loop = rev
	}

	ar := newArrangement(tol)
	boundaryIDs := make([]int, len(loop))
	for i, q := range loop {
		boundaryIDs[i] = ar.addNode(q)
	}
	for i := range boundaryIDs {
		ar.addSegment(boundaryIDs[i], boundaryIDs[(i+1)%len(boundaryIDs)], srcBoundary)
	}

	for ci, c := range cons {
		a := ar.addNode(f.To2D(c.p0))
		if c.point {
			ar.pointNodes = append(ar.pointNodes, a)
			continue
		}
		b := ar.addNode(f.To2D(c.p1))
		if a == b {
			ar.pointNodes = append(ar.pointNodes, a)
			continue
		}
		ar.addSegment(a, b, ci)
	}

	faces, crossNodes, embeddedNodes, err := ar.build(p.ID, cons, boundaryIDs)
	if err != nil {
		return nil, nil, nil, err
	}

	children := make([]*geometry.Polygon, 0, len(faces))
	var childArea float64
	for _, face := range faces {
		verts := make([]v3.Vec, len(face))
		for i, nid := range face {
			verts[i] = f.To3D(ar.nodes[nid])
		}
		child := &geometry.Polygon{
			ID:       geometry.NoParent,
			Parent:   p.Parent,
			Vertices: verts,
		}
		childArea += child.Area()
		children = append(children, child)
	}

	// The children must tile the parent exactly.
	area := p.Area()
	if math.Abs(childArea-area) > float64(tol)*math.Max(perimeter(loop), 1) {
		return nil, nil, nil, &SplitError{
			Polygon: p.ID,
			Reason:  "children do not cover the parent area; subdivision did not close",
		}
	}

	cross := make([]v3.Vec, 0, len(crossNodes))
	for _, nid := range crossNodes {
		cross = append(cross, f.To3D(ar.nodes[nid]))
	}
	embedded := make([]v3.Vec, 0, len(embeddedNodes))
	for _, nid := range embeddedNodes {
		embedded = append(embedded, f.To3D(ar.nodes[nid]))
	}
	return children, cross, embedded, nil
}

const srcBoundary = -1

// arrangement is the 2d constrained planar subdivision under
// construction: snapped nodes, input segments, and point constraints.
type arrangement struct {
	tol        float64
	nodes      []geometry.Vec2
	segs       []arrSeg
	pointNodes []int
}

type arrSeg struct {
	a, b int
	src  int // srcBoundary or constraint index
	cuts []int
}

func newArrangement(tol geometry.Tolerance) *arrangement {
	return &arrangement{tol: float64(tol)}
}

// addNode snaps to an existing node within tol or appends a new one.
// Snapping here is what keeps near-coincident constraint endpoints
// from spawning sliver edges.
func (ar *arrangement) addNode(q geometry.Vec2) int {
	for i, have := range ar.nodes {
		if have.Dist(q) <= ar.tol {
			return i
		}
	}
	ar.nodes = append(ar.nodes, q)
	return len(ar.nodes) - 1
}

func (ar *arrangement) addSegment(a, b, src int) {
	if a == b {
		return
	}
	ar.segs = append(ar.segs, arrSeg{a: a, b: b, src: src})
}

// edgeKey identifies an undirected edge.
type edgeKey struct{ lo, hi int }

func makeEdgeKey(a, b int) edgeKey {
	if a < b {
		return edgeKey{a, b}
	}
	return edgeKey{b, a}
}

// build computes all segment crossings, subdivides segments, walks
// the faces, and validates closure. Returns the face node loops (CCW,
// interior), constraint-crossing nodes, and isolated point nodes.
func (ar *arrangement) build(pid geometry.PolygonID, cons []constraint, boundaryIDs []int) (faces [][]int, crossNodes, embedded []int, err error) {
	// Pairwise crossings between input segments cut both segments.
	for i := 0; i < len(ar.segs); i++ {
		for j := i + 1; j < len(ar.segs); j++ {
			ar.crossCut(i, j)
		}
	}
	// Point constraints lying on a segment cut it there.
	for _, nid := range ar.pointNodes {
		q := ar.nodes[nid]
		for i := range ar.segs {
			s := &ar.segs[i]
			if geometry.OnSegment(q, ar.nodes[s.a], ar.nodes[s.b], geometry.Tolerance(ar.tol)) {
				s.cuts = append(s.cuts, nid)
			}
		}
	}

	// Emit subsegments between consecutive cuts; merge duplicates.
	edges := make(map[edgeKey]map[int]bool) // key -> set of srcs
	for _, s := range ar.segs {
		for _, e := range ar.subsegments(s) {
			key := makeEdgeKey(e[0], e[1])
			if edges[key] == nil {
				edges[key] = make(map[int]bool)
			}
			edges[key][s.src] = true
		}
	}

	// Adjacency with angularly sorted neighbors.
	adj := make(map[int][]int)
	for key := range edges {
		adj[key.lo] = append(adj[key.lo], key.hi)
		adj[key.hi] = append(adj[key.hi], key.lo)
	}
	for nid, nbrs := range adj {
		origin := ar.nodes[nid]
		sort.Slice(nbrs, func(i, j int) bool {
			a := ar.nodes[nbrs[i]].Sub(origin)
			b := ar.nodes[nbrs[j]].Sub(origin)
			return math.Atan2(a.Y, a.X) < math.Atan2(b.Y, b.X)
		})
	}

	// A degree-1 node is a constraint dangling inside the polygon:
	// the subdivision cannot close around it.
	for nid, nbrs := range adj {
		if len(nbrs) == 1 {
			bad := ar.incidentConstraint(edges, nid, cons)
			return nil, nil, nil, &SplitError{
				Polygon:    pid,
				Constraint: bad,
				Reason:     "constraint terminates inside the polygon",
			}
		}
	}

	faces, err = walkFaces(ar.nodes, adj, geometry.Tolerance(ar.tol), pid)
	if err != nil {
		return nil, nil, nil, err
	}

	crossNodes = ar.findCrossNodes(edges, boundaryIDs)
	embedded = ar.isolatedPoints(adj)
	return faces, crossNodes, embedded, nil
}

// crossCut intersects segments i and j and records cut nodes on both.
func (ar *arrangement) crossCut(i, j int) {
	si, sj := &ar.segs[i], &ar.segs[j]
	kind, q0, q1 := geometry.SegmentIntersection(
		ar.nodes[si.a], ar.nodes[si.b],
		ar.nodes[sj.a], ar.nodes[sj.b],
		geometry.Tolerance(ar.tol))
	switch kind {
	case geometry.SegPoint:
		nid := ar.addNode(q0)
		si.cuts = append(si.cuts, nid)
		sj.cuts = append(sj.cuts, nid)
	case geometry.SegOverlap:
		n0 := ar.addNode(q0)
		n1 := ar.addNode(q1)
		si.cuts = append(si.cuts, n0, n1)
		sj.cuts = append(sj.cuts, n0, n1)
	}
}

// subsegments orders a segment's cut nodes along it and returns the
// consecutive node pairs.
func (ar *arrangement) subsegments(s arrSeg) [][2]int {
	a := ar.nodes[s.a]
	d := ar.nodes[s.b].Sub(a)
	length := d.Length()
	dir := d.MulScalar(1 / length)

	type cut struct {
		node int
		t    float64
	}
	cuts := []cut{{s.a, 0}, {s.b, length}}
	for _, nid := range s.cuts {
		t := ar.nodes[nid].Sub(a).Dot(dir)
		cuts = append(cuts, cut{nid, t})
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i].t < cuts[j].t })

	var out [][2]int
	prev := -1
	for _, c := range cuts {
		if c.t < -ar.tol || c.t > length+ar.tol {
			continue // snapped off the segment
		}
		if prev >= 0 && c.node != prev {
			out = append(out, [2]int{prev, c.node})
		}
		if prev < 0 || c.node != prev {
			prev = c.node
		}
	}
	return out
}

// incidentConstraint recovers the constraint whose edge touches node
// nid, for error reporting.
func (ar *arrangement) incidentConstraint(edges map[edgeKey]map[int]bool, nid int, cons []constraint) [2]v3.Vec {
	for key, srcs := range edges {
		if key.lo != nid && key.hi != nid {
			continue
		}
		for src := range srcs {
			if src >= 0 && src < len(cons) {
				return [2]v3.Vec{cons[src].p0, cons[src].p1}
			}
		}
	}
	return [2]v3.Vec{}
}

// findCrossNodes returns nodes where two or more distinct constraints
// meet away from the original polygon corners. These are the 0d
// entities of the final bucket.
func (ar *arrangement) findCrossNodes(edges map[edgeKey]map[int]bool, boundaryIDs []int) []int {
	corner := make(map[int]bool, len(boundaryIDs))
	for _, id := range boundaryIDs {
		corner[id] = true
	}
	srcsAt := make(map[int]map[int]bool)
	for key, srcs := range edges {
		for src := range srcs {
			if src == srcBoundary {
				continue
			}
			for _, nid := range []int{key.lo, key.hi} {
				if srcsAt[nid] == nil {
					srcsAt[nid] = make(map[int]bool)
				}
				srcsAt[nid][src] = true
			}
		}
	}
	var out []int
	for nid, srcs := range srcsAt {
		if len(srcs) >= 2 && !corner[nid] {
			out = append(out, nid)
		}
	}
	sort.Ints(out)
	return out
}

// isolatedPoints returns point-constraint nodes that ended up with no
// incident edge; they are embedded in some child's interior.
func (ar *arrangement) isolatedPoints(adj map[int][]int) []int {
	var out []int
	seen := make(map[int]bool)
	for _, nid := range ar.pointNodes {
		if seen[nid] {
			continue
		}
		seen[nid] = true
		if len(adj[nid]) == 0 {
			out = append(out, nid)
		}
	}
	sort.Ints(out)
	return out
}

// walkFaces extracts the interior faces of the planar graph. For the
// directed edge u->v the successor is v->w, where w precedes u in the
// counterclockwise neighbor order around v; interior faces then come
// out counterclockwise and the single outer face clockwise.
func walkFaces(nodes []geometry.Vec2, adj map[int][]int, tol geometry.Tolerance, pid geometry.PolygonID) ([][]int, error) {
	type dirEdge struct{ from, to int }
	visited := make(map[dirEdge]bool)
	limit := 0
	for _, nbrs := range adj {
		limit += len(nbrs)
	}

	// Deterministic iteration order over directed edges.
	starts := make([]dirEdge, 0, limit)
	nodeIDs := make([]int, 0, len(adj))
	for nid := range adj {
		nodeIDs = append(nodeIDs, nid)
	}
	sort.Ints(nodeIDs)
	for _, nid := range nodeIDs {
		for _, nbr := range adj[nid] {
			starts = append(starts, dirEdge{nid, nbr})
		}
	}

	next := func(e dirEdge) dirEdge {
		nbrs := adj[e.to]
		idx := -1
		for i, nbr := range nbrs {
			if nbr == e.from {
				idx = i
				break
			}
		}
		w := nbrs[(idx-1+len(nbrs))%len(nbrs)]
		return dirEdge{e.to, w}
	}

	var faces [][]int
	for _, start := range starts {
		if visited[start] {
			continue
		}
		var face []int
		e := start
		for steps := 0; ; steps++ {
			if steps > limit {
				return nil, &SplitError{Polygon: pid, Reason: "face walk did not close"}
			}
			visited[e] = true
			face = append(face, e.from)
			e = next(e)
			if e == start {
				break
			}
		}

		pts := make([]geometry.Vec2, len(face))
		for i, nid := range face {
			pts[i] = nodes[nid]
		}
		area := geometry.SignedArea2D(pts)
		if area <= float64(tol)*math.Max(perimeter(pts), 1) {
			continue // outer face or a degenerate sliver
		}
		faces = append(faces, face)
	}
	return faces, nil
}

func perimeter(pts []geometry.Vec2) float64 {
	var sum float64
	for i, p := range pts {
		sum += p.Dist(pts[(i+1)%len(pts)])
	}
	return sum
}
