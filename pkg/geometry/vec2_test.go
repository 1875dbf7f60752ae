package geometry

import (
	"math"
	"testing"
)

func TestSegmentIntersectionCrossing(t *testing.T) {
	kind, p, _ := SegmentIntersection(
		Vec2{0, 0}, Vec2{2, 2},
		Vec2{0, 2}, Vec2{2, 0},
		DefaultTolerance,
	)
	if kind != SegPoint {
		t.Fatalf("kind = %v, want SegPoint", kind)
	}
	if math.Abs(p.X-1) > 1e-12 || math.Abs(p.Y-1) > 1e-12 {
		t.Errorf("crossing point = %v, want (1,1)", p)
	}
}

func TestSegmentIntersectionDisjoint(t *testing.T) {
	kind, _, _ := SegmentIntersection(
		Vec2{0, 0}, Vec2{1, 0},
		Vec2{0, 1}, Vec2{1, 1},
		DefaultTolerance,
	)
	if kind != SegNone {
		t.Errorf("parallel disjoint segments: kind = %v, want SegNone", kind)
	}

	// Lines cross, but outside both parameter ranges.
	kind, _, _ = SegmentIntersection(
		Vec2{0, 0}, Vec2{1, 0},
		Vec2{2, -1}, Vec2{2, 1},
		DefaultTolerance,
	)
	if kind != SegNone {
		t.Errorf("segments crossing off-range: kind = %v, want SegNone", kind)
	}
}

func TestSegmentIntersectionEndpointTouch(t *testing.T) {
	kind, p, _ := SegmentIntersection(
		Vec2{0, 0}, Vec2{1, 0},
		Vec2{1, 0}, Vec2{1, 1},
		DefaultTolerance,
	)
	if kind != SegPoint {
		t.Fatalf("touching endpoints: kind = %v, want SegPoint", kind)
	}
	if p.Dist(Vec2{1, 0}) > 1e-9 {
		t.Errorf("touch point = %v, want (1,0)", p)
	}
}

func TestSegmentIntersectionCollinearOverlap(t *testing.T) {
	kind, p0, p1 := SegmentIntersection(
		Vec2{0, 0}, Vec2{3, 0},
		Vec2{1, 0}, Vec2{5, 0},
		DefaultTolerance,
	)
	if kind != SegOverlap {
		t.Fatalf("kind = %v, want SegOverlap", kind)
	}
	lo, hi := p0, p1
	if lo.X > hi.X {
		lo, hi = hi, lo
	}
	if lo.Dist(Vec2{1, 0}) > 1e-9 || hi.Dist(Vec2{3, 0}) > 1e-9 {
		t.Errorf("overlap = [%v, %v], want [(1,0), (3,0)]", lo, hi)
	}
}

func TestSegmentIntersectionCollinearPointTouch(t *testing.T) {
	// Collinear, sharing exactly one endpoint.
	kind, p, _ := SegmentIntersection(
		Vec2{0, 0}, Vec2{1, 0},
		Vec2{1, 0}, Vec2{2, 0},
		DefaultTolerance,
	)
	if kind != SegPoint {
		t.Fatalf("collinear endpoint touch: kind = %v, want SegPoint", kind)
	}
	if p.Dist(Vec2{1, 0}) > 1e-9 {
		t.Errorf("touch point = %v, want (1,0)", p)
	}
}

func TestDistToSegment(t *testing.T) {
	dist, param := DistToSegment(Vec2{1, 1}, Vec2{0, 0}, Vec2{2, 0})
	if math.Abs(dist-1) > 1e-12 {
		t.Errorf("dist = %f, want 1", dist)
	}
	if math.Abs(param-0.5) > 1e-12 {
		t.Errorf("param = %f, want 0.5", param)
	}

	// Beyond the end: distance to the endpoint, param clamped.
	dist, param = DistToSegment(Vec2{3, 0}, Vec2{0, 0}, Vec2{2, 0})
	if math.Abs(dist-1) > 1e-12 || param != 1 {
		t.Errorf("beyond end: dist = %f param = %f, want 1, 1", dist, param)
	}
}

func TestSignedArea2D(t *testing.T) {
	ccw := []Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	if a := SignedArea2D(ccw); math.Abs(a-1) > 1e-12 {
		t.Errorf("ccw unit square area = %f, want 1", a)
	}
	cw := []Vec2{{0, 0}, {0, 1}, {1, 1}, {1, 0}}
	if a := SignedArea2D(cw); math.Abs(a+1) > 1e-12 {
		t.Errorf("cw unit square area = %f, want -1", a)
	}
}

func TestPointInLoop2D(t *testing.T) {
	loop := []Vec2{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	cases := []struct {
		p    Vec2
		want bool
	}{
		{Vec2{1, 1}, true},
		{Vec2{0, 0}, true}, // corner
		{Vec2{1, 0}, true}, // edge
		{Vec2{3, 1}, false},
		{Vec2{-0.1, 1}, false},
	}
	for _, c := range cases {
		if got := PointInLoop2D(c.p, loop, DefaultTolerance); got != c.want {
			t.Errorf("PointInLoop2D(%v) = %v, want %v", c.p, got, c.want)
		}
	}
}
