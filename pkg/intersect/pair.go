package intersect

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/akervik/fissure/pkg/geometry"
)

// intersectPair runs the narrow phase for one unordered pair. ok is
// false when the pair does not intersect.
func intersectPair(p, q *geometry.Polygon, tol geometry.Tolerance) (Intersection, bool) {
	switch {
	case p.Dim() == 1 && q.Dim() == 1:
		return segmentSegment(p, q, tol)
	case p.Dim() == 2 && q.Dim() == 1:
		return polygonSegment(p, q, tol)
	case p.Dim() == 1 && q.Dim() == 2:
		return polygonSegment(q, p, tol)
	default:
		return polygonPolygon(p, q, tol)
	}
}

// ---------------------------------------------------------------------------
// polygon vs polygon
// ---------------------------------------------------------------------------

func polygonPolygon(p, q *geometry.Polygon, tol geometry.Tolerance) (Intersection, bool) {
	pp, qp := p.Plane(), q.Plane()

	// Classify q's vertices against p's plane. All strictly on one
	// side means no intersection; all on-plane means coplanar.
	above, below, on := sideCounts(q.Vertices, pp, tol)
	if on == len(q.Vertices) {
		return coplanarPair(p, q, tol)
	}
	if above == len(q.Vertices) || below == len(q.Vertices) {
		return Intersection{}, false
	}

	// Symmetric rejection against q's plane.
	pAbove, pBelow, pOn := sideCounts(p.Vertices, qp, tol)
	if pOn == 0 && (pAbove == 0 || pBelow == 0) {
		return Intersection{}, false
	}

	origin, dir, ok := pp.IntersectionLine(qp, tol)
	if !ok {
		// Parallel but not coplanar.
		return Intersection{}, false
	}

	spanP, okP := planeSpan(p, qp, origin, dir, tol)
	spanQ, okQ := planeSpan(q, pp, origin, dir, tol)
	if !okP || !okQ {
		return Intersection{}, false
	}

	lo := math.Max(spanP[0], spanQ[0])
	hi := math.Min(spanP[1], spanQ[1])
	if hi < lo-float64(tol) {
		return Intersection{}, false
	}

	// Near-tangential crossings collapse to a point so no degenerate
	// child polygons appear downstream.
	if hi-lo <= float64(tol) {
		pt := snapPoint(origin.Add(dir.MulScalar((lo+hi)/2)), p, q, tol)
		return canonical(p.ID, q.ID, KindPoint, pt, pt), true
	}
	p0 := snapPoint(origin.Add(dir.MulScalar(lo)), p, q, tol)
	p1 := snapPoint(origin.Add(dir.MulScalar(hi)), p, q, tol)
	if tol.Eq(p0, p1) {
		return canonical(p.ID, q.ID, KindPoint, p0, p0), true
	}
	return canonical(p.ID, q.ID, KindSegment, p0, p1), true
}

// sideCounts tallies vertex classifications against a plane.
func sideCounts(verts []v3.Vec, pl geometry.Plane, tol geometry.Tolerance) (above, below, on int) {
	for _, v := range verts {
		switch pl.Classify(v, tol) {
		case geometry.SideAbove:
			above++
		case geometry.SideBelow:
			below++
		default:
			on++
		}
	}
	return above, below, on
}

// planeSpan returns the parameter interval [lo, hi] along the line
// (origin, dir) where poly's boundary crosses the plane pl. ok is
// false when the boundary never reaches the plane.
func planeSpan(poly *geometry.Polygon, pl geometry.Plane, origin, dir v3.Vec, tol geometry.Tolerance) ([2]float64, bool) {
	lo := math.Inf(1)
	hi := math.Inf(-1)
	add := func(pt v3.Vec) {
		t := pt.Sub(origin).Dot(dir)
		lo = math.Min(lo, t)
		hi = math.Max(hi, t)
	}

	n := len(poly.Vertices)
	for i := 0; i < n; i++ {
		a := poly.Vertices[i]
		b := poly.Vertices[(i+1)%n]
		sa := pl.Classify(a, tol)
		sb := pl.Classify(b, tol)

		if sa == geometry.SideOn {
			add(a)
		}
		if sa != geometry.SideOn && sb != geometry.SideOn && sa != sb {
			da := pl.SignedDistance(a)
			db := pl.SignedDistance(b)
			t := da / (da - db)
			add(a.Add(b.Sub(a).MulScalar(t)))
		}
	}
	if math.IsInf(lo, 1) {
		return [2]float64{}, false
	}
	return [2]float64{lo, hi}, true
}

// snapPoint snaps a computed point to a nearby existing vertex of
// either polygon, preventing micro-edges downstream.
func snapPoint(pt v3.Vec, p, q *geometry.Polygon, tol geometry.Tolerance) v3.Vec {
	if s, ok := p.SnapToVertices(pt, tol); ok {
		return s
	}
	if s, ok := q.SnapToVertices(pt, tol); ok {
		return s
	}
	return pt
}

// ---------------------------------------------------------------------------
// coplanar polygons
// ---------------------------------------------------------------------------

// coplanarPair handles two polygons lying in the same plane. Shared
// edges and corner touches are legitimate intersections; an area
// overlap has no supported subdivision and is flagged for the caller.
func coplanarPair(p, q *geometry.Polygon, tol geometry.Tolerance) (Intersection, bool) {
	f := p.Frame()
	pLoop := ccwLoop(p.Loop2D(f))
	qLoop := ccwLoop(q.Loop2D(f))

	clipped := clipConvex(qLoop, pLoop, tol)
	if len(clipped) == 0 {
		return Intersection{}, false
	}

	// Scale the area threshold by the overlap's extent so that long
	// thin edge overlaps classify as segments, not areas.
	ext0, ext1 := farthestPair(clipped)
	diam := ext0.Dist(ext1)
	if math.Abs(geometry.SignedArea2D(clipped)) > float64(tol)*math.Max(diam, 1) {
		return canonical(p.ID, q.ID, KindCoplanarOverlap, f.To3D(ext0), f.To3D(ext1)), true
	}
	if diam <= float64(tol) {
		pt := snapPoint(f.To3D(ext0), p, q, tol)
		return canonical(p.ID, q.ID, KindPoint, pt, pt), true
	}
	p0 := snapPoint(f.To3D(ext0), p, q, tol)
	p1 := snapPoint(f.To3D(ext1), p, q, tol)
	return canonical(p.ID, q.ID, KindSegment, p0, p1), true
}

// ccwLoop returns the loop in counterclockwise order.
func ccwLoop(loop []geometry.Vec2) []geometry.Vec2 {
	if geometry.SignedArea2D(loop) >= 0 {
		return loop
	}
	out := make([]geometry.Vec2, len(loop))
	for i, p := range loop {
		out[len(loop)-1-i] = p
	}
	return out
}

// clipConvex clips subject against a convex CCW clip loop
// (Sutherland-Hodgman), keeping points within tol of each edge.
func clipConvex(subject, clip []geometry.Vec2, tol geometry.Tolerance) []geometry.Vec2 {
	out := subject
	n := len(clip)
	for i := 0; i < n && len(out) > 0; i++ {
		a := clip[i]
		b := clip[(i+1)%n]
		edge := b.Sub(a)
		dist := func(p geometry.Vec2) float64 { return edge.Cross(p.Sub(a)) / edge.Length() }

		in := out
		out = nil
		for j, s := range in {
			e := in[(j+1)%len(in)]
			ds, de := dist(s), dist(e)
			sIn := ds >= -float64(tol)
			eIn := de >= -float64(tol)
			if sIn {
				out = append(out, s)
			}
			if sIn != eIn {
				t := ds / (ds - de)
				out = append(out, s.Add(e.Sub(s).MulScalar(t)))
			}
		}
	}
	return out
}

// farthestPair returns the two most distant points of a small set.
func farthestPair(pts []geometry.Vec2) (geometry.Vec2, geometry.Vec2) {
	a, b := pts[0], pts[0]
	best := -1.0
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			if d := pts[i].Dist(pts[j]); d > best {
				best = d
				a, b = pts[i], pts[j]
			}
		}
	}
	return a, b
}

// ---------------------------------------------------------------------------
// polygon vs segment, segment vs segment
// ---------------------------------------------------------------------------

// polygonSegment intersects a polygon with a 1d segment fracture.
func polygonSegment(p, seg *geometry.Polygon, tol geometry.Tolerance) (Intersection, bool) {
	pl := p.Plane()
	a, b := seg.Vertices[0], seg.Vertices[1]
	sa := pl.Classify(a, tol)
	sb := pl.Classify(b, tol)

	if sa == geometry.SideOn && sb == geometry.SideOn {
		// In-plane segment: clip to the polygon's extent.
		f := p.Frame()
		loop := ccwLoop(p.Loop2D(f))
		q0, q1, kind := clipSegmentToLoop(f.To2D(a), f.To2D(b), loop, tol)
		switch kind {
		case geometry.SegOverlap:
			r0 := snapPoint(f.To3D(q0), p, seg, tol)
			r1 := snapPoint(f.To3D(q1), p, seg, tol)
			return canonical(p.ID, seg.ID, KindSegment, r0, r1), true
		case geometry.SegPoint:
			pt := snapPoint(f.To3D(q0), p, seg, tol)
			return canonical(p.ID, seg.ID, KindPoint, pt, pt), true
		default:
			return Intersection{}, false
		}
	}

	if sa == sb {
		return Intersection{}, false // both strictly one side
	}

	// Single crossing through the plane.
	var pt v3.Vec
	switch {
	case sa == geometry.SideOn:
		pt = a
	case sb == geometry.SideOn:
		pt = b
	default:
		da := pl.SignedDistance(a)
		db := pl.SignedDistance(b)
		pt = a.Add(b.Sub(a).MulScalar(da / (da - db)))
	}
	if !p.Contains(pt, tol) {
		return Intersection{}, false
	}
	pt = snapPoint(pt, p, seg, tol)
	return canonical(p.ID, seg.ID, KindPoint, pt, pt), true
}

// clipSegmentToLoop clips a 2d segment against a convex CCW loop.
func clipSegmentToLoop(a, b geometry.Vec2, loop []geometry.Vec2, tol geometry.Tolerance) (geometry.Vec2, geometry.Vec2, geometry.SegKind) {
	t0, t1 := 0.0, 1.0
	d := b.Sub(a)

	for i, c0 := range loop {
		c1 := loop[(i+1)%len(loop)]
		edge := c1.Sub(c0)
		el := edge.Length()
		if el == 0 {
			continue
		}
		da := edge.Cross(a.Sub(c0)) / el
		slope := edge.Cross(d) / el
		if math.Abs(slope) <= float64(tol) {
			if da < -float64(tol) {
				return geometry.Vec2{}, geometry.Vec2{}, geometry.SegNone
			}
			continue
		}
		t := -da / slope
		if slope > 0 {
			t0 = math.Max(t0, t)
		} else {
			t1 = math.Min(t1, t)
		}
	}
	if t1 < t0 {
		return geometry.Vec2{}, geometry.Vec2{}, geometry.SegNone
	}
	q0 := a.Add(d.MulScalar(t0))
	q1 := a.Add(d.MulScalar(t1))
	if q0.Dist(q1) <= float64(tol) {
		return q0, q0, geometry.SegPoint
	}
	return q0, q1, geometry.SegOverlap
}

// segmentSegment intersects two 1d segment fractures in 3d.
func segmentSegment(p, q *geometry.Polygon, tol geometry.Tolerance) (Intersection, bool) {
	a1, b1 := p.Vertices[0], p.Vertices[1]
	a2, b2 := q.Vertices[0], q.Vertices[1]
	d1 := b1.Sub(a1)
	d2 := b2.Sub(a2)
	r := a2.Sub(a1)
	cross := d1.Cross(d2)
	cl := cross.Length()

	if tol.Zero(cl / (d1.Length() * d2.Length())) {
		// Parallel. Collinear segments may share a sub-segment.
		if d1.Cross(r).Length()/d1.Length() > float64(tol) {
			return Intersection{}, false
		}
		dir := d1.DivScalar(d1.Length())
		t0 := r.Dot(dir)
		t1 := b2.Sub(a1).Dot(dir)
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		lo := math.Max(0, t0)
		hi := math.Min(d1.Length(), t1)
		if hi < lo-float64(tol) {
			return Intersection{}, false
		}
		if hi-lo <= float64(tol) {
			pt := a1.Add(dir.MulScalar((lo + hi) / 2))
			return canonical(p.ID, q.ID, KindPoint, pt, pt), true
		}
		return canonical(p.ID, q.ID, KindSegment,
			a1.Add(dir.MulScalar(lo)), a1.Add(dir.MulScalar(hi))), true
	}

	// Skew or crossing lines: closest points on each.
	cl2 := cross.Dot(cross)
	t1p := r.Cross(d2).Dot(cross) / cl2
	t2p := r.Cross(d1).Dot(cross) / cl2
	slack1 := float64(tol) / d1.Length()
	slack2 := float64(tol) / d2.Length()
	if t1p < -slack1 || t1p > 1+slack1 || t2p < -slack2 || t2p > 1+slack2 {
		return Intersection{}, false
	}
	c1 := a1.Add(d1.MulScalar(t1p))
	c2 := a2.Add(d2.MulScalar(t2p))
	if !tol.Eq(c1, c2) {
		return Intersection{}, false
	}
	pt := snapPoint(c1.Add(c2.Sub(c1).MulScalar(0.5)), p, q, tol)
	return canonical(p.ID, q.ID, KindPoint, pt, pt), true
}
