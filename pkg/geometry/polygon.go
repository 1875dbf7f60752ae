package geometry

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// PolygonID identifies a polygon within a fracture network. Children
// produced by splitting get fresh IDs but keep the parent's ID in
// Parent for provenance and tag lookups.
type PolygonID int

// NoParent marks a polygon that was not produced by splitting.
const NoParent PolygonID = -1

// Polygon is a simple planar polygon embedded in 3d.
// A two-vertex polygon is the degenerate "segment fracture" used by
// planar (2d-domain) networks; it has Dim() == 1.
//
// The vertex list is treated as immutable once intersections have
// been computed; the splitter never edits a polygon, it replaces it
// with children.
type Polygon struct {
	ID       PolygonID
	Parent   PolygonID
	Vertices []v3.Vec
	Boundary bool // domain-boundary face, not a user fracture

	plane *Plane // lazily derived, nil until first use
}

// NewPolygon builds a polygon from an ordered vertex loop, merging
// consecutive vertices closer than tol. It fails on degenerate input:
// fewer than 3 distinct vertices (unless exactly 2, the segment
// case), non-planar loops, or self-intersecting boundaries.
func NewPolygon(verts []v3.Vec, tol Tolerance) (*Polygon, error) {
	tol = tol.Or(DefaultTolerance)
	distinct := dedupeLoop(verts, tol)

	switch {
	case len(distinct) < 2:
		return nil, &GeometryError{Reason: "fewer than 2 distinct vertices after snapping"}
	case len(distinct) == 2:
		return &Polygon{ID: NoParent, Parent: NoParent, Vertices: distinct}, nil
	}

	p := &Polygon{ID: NoParent, Parent: NoParent, Vertices: distinct}
	pl, err := NewPlane(distinct)
	if err != nil {
		return nil, err
	}
	for _, v := range distinct {
		if !tol.Zero(pl.SignedDistance(v)) {
			return nil, &GeometryError{Reason: "vertices are not coplanar"}
		}
	}
	if !simpleLoop(distinct, pl, tol) {
		return nil, &GeometryError{Reason: "polygon boundary is self-intersecting"}
	}
	if tol.Zero(p.Area()) {
		return nil, &GeometryError{Reason: "polygon has zero area"}
	}
	p.plane = &pl
	return p, nil
}

// NewSegment builds a 1d "segment fracture" for planar networks.
func NewSegment(a, b v3.Vec, tol Tolerance) (*Polygon, error) {
	tol = tol.Or(DefaultTolerance)
	if tol.Eq(a, b) {
		return nil, &GeometryError{Reason: "segment endpoints coincide"}
	}
	return &Polygon{ID: NoParent, Parent: NoParent, Vertices: []v3.Vec{a, b}}, nil
}

// Dim is the intrinsic dimension: 2 for a polygon, 1 for a segment.
func (p *Polygon) Dim() int {
	if len(p.Vertices) == 2 {
		return 1
	}
	return 2
}

// Plane returns the polygon's supporting plane, deriving it on first
// use. Calling Plane on a segment polygon panics.
func (p *Polygon) Plane() Plane {
	if p.plane == nil {
		pl, err := NewPlane(p.Vertices)
		if err != nil {
			panic("geometry: plane of degenerate polygon: " + err.Error())
		}
		p.plane = &pl
	}
	return *p.plane
}

// Normal returns the unit normal of the supporting plane.
func (p *Polygon) Normal() v3.Vec {
	return p.Plane().Normal
}

// Frame returns an in-plane frame anchored at the first vertex.
func (p *Polygon) Frame() Frame {
	return NewFrame(p.Plane(), p.Vertices[0])
}

// Area returns the polygon's area (the length, for a segment).
func (p *Polygon) Area() float64 {
	if p.Dim() == 1 {
		return p.Vertices[1].Sub(p.Vertices[0]).Length()
	}
	var sum v3.Vec
	o := p.Vertices[0]
	for i := 1; i < len(p.Vertices)-1; i++ {
		sum = sum.Add(p.Vertices[i].Sub(o).Cross(p.Vertices[i+1].Sub(o)))
	}
	return sum.Length() / 2
}

// Centroid returns the arithmetic mean of the vertices. For convex
// polygons this lies in the interior.
func (p *Polygon) Centroid() v3.Vec {
	var c v3.Vec
	for _, v := range p.Vertices {
		c = c.Add(v)
	}
	return c.DivScalar(float64(len(p.Vertices)))
}

// BoundingBox returns the axis-aligned min and max corners.
func (p *Polygon) BoundingBox() (min, max v3.Vec) {
	min = p.Vertices[0]
	max = p.Vertices[0]
	for _, v := range p.Vertices[1:] {
		min = min.Min(v)
		max = max.Max(v)
	}
	return min, max
}

// Contains reports whether a point lies on the polygon (in its plane
// and inside or on its boundary) within tol.
func (p *Polygon) Contains(pt v3.Vec, tol Tolerance) bool {
	tol = tol.Or(DefaultTolerance)
	if p.Dim() == 1 {
		a, b := p.Vertices[0], p.Vertices[1]
		d := b.Sub(a)
		l := d.Length()
		t := pt.Sub(a).Dot(d) / (l * l)
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		return pt.Sub(a.Add(d.MulScalar(t))).Length() <= float64(tol)
	}
	pl := p.Plane()
	if !tol.Zero(pl.SignedDistance(pt)) {
		return false
	}
	f := p.Frame()
	loop := make([]Vec2, len(p.Vertices))
	for i, v := range p.Vertices {
		loop[i] = f.To2D(v)
	}
	return PointInLoop2D(f.To2D(pt), loop, tol)
}

// Loop2D projects the vertex loop into the given frame.
func (p *Polygon) Loop2D(f Frame) []Vec2 {
	loop := make([]Vec2, len(p.Vertices))
	for i, v := range p.Vertices {
		loop[i] = f.To2D(v)
	}
	return loop
}

// SnapToVertices returns the polygon vertex within tol of pt, if any.
// Snapping computed intersection points to existing vertices prevents
// the micro-edges that otherwise appear downstream.
func (p *Polygon) SnapToVertices(pt v3.Vec, tol Tolerance) (v3.Vec, bool) {
	for _, v := range p.Vertices {
		if tol.Eq(pt, v) {
			return v, true
		}
	}
	return pt, false
}

// dedupeLoop drops consecutive duplicates (within tol), including a
// duplicated closing vertex.
func dedupeLoop(verts []v3.Vec, tol Tolerance) []v3.Vec {
	out := make([]v3.Vec, 0, len(verts))
	for _, v := range verts {
		if len(out) > 0 && tol.Eq(out[len(out)-1], v) {
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && tol.Eq(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

// simpleLoop checks that no two non-adjacent boundary edges intersect.
func simpleLoop(verts []v3.Vec, pl Plane, tol Tolerance) bool {
	f := NewFrame(pl, verts[0])
	n := len(verts)
	loop := make([]Vec2, n)
	for i, v := range verts {
		loop[i] = f.To2D(v)
	}
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // closing edge is adjacent to edge 0
			}
			kind, _, _ := SegmentIntersection(loop[i], loop[(i+1)%n], loop[j], loop[(j+1)%n], tol)
			if kind != SegNone {
				return false
			}
		}
	}
	return true
}
