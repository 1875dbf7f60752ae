package network

import (
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/akervik/fissure/pkg/geometry"
)

// ImposeExternalBoundary truncates fractures that protrude outside
// the box and injects the box's faces as boundary polygons. Polygons
// falling entirely outside are removed; their IDs are returned so the
// caller can report them. Call at most once, before intersection
// finding.
func (n *Network) ImposeExternalBoundary(box Box) ([]geometry.PolygonID, error) {
	var dropped []geometry.PolygonID

	kept := n.polys[:0]
	for _, p := range n.polys {
		clipped, ok := clipToBox(p, box, n.Tol)
		if !ok {
			dropped = append(dropped, p.ID)
			continue
		}
		kept = append(kept, clipped)
	}
	n.polys = kept

	for _, loop := range box.FaceLoops() {
		face, err := geometry.NewPolygon(loop, n.Tol)
		if err != nil {
			return dropped, err
		}
		face.Boundary = true
		n.Add(face)
	}
	n.Domain = &box
	return dropped, nil
}

// clipToBox clips a polygon (or segment) against the box half-spaces.
// ok is false when nothing meaningful remains inside.
func clipToBox(p *geometry.Polygon, box Box, tol geometry.Tolerance) (*geometry.Polygon, bool) {
	if p.Dim() == 1 {
		return clipSegment(p, box, tol)
	}

	loop := p.Vertices
	for _, hs := range box.halfSpaces() {
		loop = clipLoop(loop, hs, tol)
		if len(loop) < 3 {
			return nil, false
		}
	}
	out, err := geometry.NewPolygon(loop, tol)
	if err != nil {
		return nil, false
	}
	out.ID = p.ID
	out.Parent = p.Parent
	out.Boundary = p.Boundary
	return out, true
}

// clipLoop is one Sutherland-Hodgman pass against a half-space.
func clipLoop(loop []v3.Vec, hs halfSpace, tol geometry.Tolerance) []v3.Vec {
	dist := func(v v3.Vec) float64 { return hs.normal.Dot(v) - hs.offset }

	var out []v3.Vec
	for i, a := range loop {
		b := loop[(i+1)%len(loop)]
		da, db := dist(a), dist(b)
		aIn := da >= -float64(tol)
		bIn := db >= -float64(tol)

		if aIn {
			out = append(out, a)
		}
		if aIn != bIn {
			t := da / (da - db)
			out = append(out, a.Add(b.Sub(a).MulScalar(t)))
		}
	}
	return out
}

// clipSegment clips a 1d segment fracture to the box.
func clipSegment(p *geometry.Polygon, box Box, tol geometry.Tolerance) (*geometry.Polygon, bool) {
	a, b := p.Vertices[0], p.Vertices[1]
	t0, t1 := 0.0, 1.0
	d := b.Sub(a)

	for _, hs := range box.halfSpaces() {
		da := hs.normal.Dot(a) - hs.offset
		slope := hs.normal.Dot(d)
		if tol.Zero(slope) {
			if da < -float64(tol) {
				return nil, false // parallel and outside
			}
			continue
		}
		t := -da / slope
		if slope > 0 {
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t1 {
				t1 = t
			}
		}
	}
	if t1 <= t0 {
		return nil, false
	}
	na := a.Add(d.MulScalar(t0))
	nb := a.Add(d.MulScalar(t1))
	if tol.Eq(na, nb) {
		return nil, false
	}
	out, err := geometry.NewSegment(na, nb, tol)
	if err != nil {
		return nil, false
	}
	out.ID = p.ID
	out.Parent = p.Parent
	out.Boundary = p.Boundary
	return out, true
}
