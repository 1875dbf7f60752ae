package geometry

import "math"

// Vec2 is a point in an in-plane Frame.
type Vec2 struct {
	X, Y float64
}

func (a Vec2) Add(b Vec2) Vec2          { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2          { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) MulScalar(k float64) Vec2 { return Vec2{a.X * k, a.Y * k} }
func (a Vec2) Dot(b Vec2) float64       { return a.X*b.X + a.Y*b.Y }
func (a Vec2) Cross(b Vec2) float64     { return a.X*b.Y - a.Y*b.X }
func (a Vec2) Length() float64          { return math.Hypot(a.X, a.Y) }

// Dist returns the distance between two points.
func (a Vec2) Dist(b Vec2) float64 { return a.Sub(b).Length() }

// SegKind describes the outcome of a segment-segment intersection.
type SegKind int

const (
	SegNone    SegKind = iota
	SegPoint           // a single crossing or touching point
	SegOverlap         // collinear segments sharing a sub-segment
)

// DistToSegment returns the distance from p to segment [a, b] and the
// clamped parameter of the closest point along the segment.
func DistToSegment(p, a, b Vec2) (dist, t float64) {
	d := b.Sub(a)
	l2 := d.Dot(d)
	if l2 == 0 {
		return p.Dist(a), 0
	}
	t = p.Sub(a).Dot(d) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Dist(a.Add(d.MulScalar(t))), t
}

// OnSegment reports whether p lies on segment [a, b] within tol.
func OnSegment(p, a, b Vec2, tol Tolerance) bool {
	dist, _ := DistToSegment(p, a, b)
	return dist <= float64(tol)
}

// SegmentIntersection intersects segments [a0,a1] and [b0,b1] within
// tolerance. For SegPoint the point is p0; for SegOverlap the shared
// sub-segment is [p0, p1]. Endpoint touches within tol count as
// intersections, so downstream snapping sees them.
func SegmentIntersection(a0, a1, b0, b1 Vec2, tol Tolerance) (SegKind, Vec2, Vec2) {
	da := a1.Sub(a0)
	db := b1.Sub(b0)
	denom := da.Cross(db)

	// Scale-aware test for parallel segments.
	scale := math.Max(da.Length(), db.Length())
	if math.Abs(denom) <= float64(tol)*scale {
		return collinearOverlap(a0, a1, b0, b1, tol)
	}

	d := b0.Sub(a0)
	t := d.Cross(db) / denom
	s := d.Cross(da) / denom

	// Allow slack at the parameter ends proportional to tolerance.
	slackA := 0.0
	if la := da.Length(); la > 0 {
		slackA = float64(tol) / la
	}
	slackB := 0.0
	if lb := db.Length(); lb > 0 {
		slackB = float64(tol) / lb
	}
	if t < -slackA || t > 1+slackA || s < -slackB || s > 1+slackB {
		return SegNone, Vec2{}, Vec2{}
	}
	p := a0.Add(da.MulScalar(clamp01(t)))
	return SegPoint, p, Vec2{}
}

// collinearOverlap handles the parallel branch: either the segments
// are collinear and may share a sub-segment, or they miss entirely.
func collinearOverlap(a0, a1, b0, b1 Vec2, tol Tolerance) (SegKind, Vec2, Vec2) {
	da := a1.Sub(a0)
	la := da.Length()
	if la == 0 {
		// Degenerate a: point-vs-segment.
		if OnSegment(a0, b0, b1, tol) {
			return SegPoint, a0, Vec2{}
		}
		return SegNone, Vec2{}, Vec2{}
	}
	dir := da.MulScalar(1 / la)

	// b must lie on a's supporting line.
	if d0, _ := DistToSegment(b0, a0, a1); d0 > float64(tol) {
		if !OnSegment(a0, b0, b1, tol) && !OnSegment(a1, b0, b1, tol) {
			return SegNone, Vec2{}, Vec2{}
		}
	}
	off0 := math.Abs(b0.Sub(a0).Cross(dir))
	off1 := math.Abs(b1.Sub(a0).Cross(dir))
	if off0 > float64(tol) || off1 > float64(tol) {
		return SegNone, Vec2{}, Vec2{}
	}

	// Project to a's axis and overlap the parameter intervals.
	t0 := b0.Sub(a0).Dot(dir)
	t1 := b1.Sub(a0).Dot(dir)
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	lo := math.Max(0, t0)
	hi := math.Min(la, t1)
	if hi < lo-float64(tol) {
		return SegNone, Vec2{}, Vec2{}
	}
	if hi-lo <= float64(tol) {
		mid := (lo + hi) / 2
		return SegPoint, a0.Add(dir.MulScalar(mid)), Vec2{}
	}
	return SegOverlap, a0.Add(dir.MulScalar(lo)), a0.Add(dir.MulScalar(hi))
}

// SignedArea2D returns the signed area of a 2d loop, positive for
// counterclockwise orientation.
func SignedArea2D(pts []Vec2) float64 {
	var sum float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += p.Cross(q)
	}
	return sum / 2
}

// PointInLoop2D reports whether p is inside (or on the boundary of,
// within tol) a simple 2d loop, by crossing count.
func PointInLoop2D(p Vec2, loop []Vec2, tol Tolerance) bool {
	for i, a := range loop {
		b := loop[(i+1)%len(loop)]
		if OnSegment(p, a, b, tol) {
			return true
		}
	}
	inside := false
	for i, a := range loop {
		b := loop[(i+1)%len(loop)]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
			if x > p.X {
				inside = !inside
			}
		}
	}
	return inside
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
