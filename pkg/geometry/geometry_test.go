package geometry

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlaneAxisAligned(t *testing.T) {
	// Unit square in the xy plane, CCW seen from +z.
	pl, err := NewPlane([]v3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 1, Y: 1, Z: 0},
		{X: 0, Y: 1, Z: 0},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0, pl.Normal.X, 1e-12)
	assert.InDelta(t, 0, pl.Normal.Y, 1e-12)
	assert.InDelta(t, 1, math.Abs(pl.Normal.Z), 1e-12)
	assert.InDelta(t, 0, pl.Offset*pl.Normal.Z, 1e-12)
}

func TestNewPlaneTilted(t *testing.T) {
	// Triangle on the plane x + y + z = 1.
	pl, err := NewPlane([]v3.Vec{
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1},
	})
	require.NoError(t, err)
	want := 1 / math.Sqrt(3)
	assert.InDelta(t, want, math.Abs(pl.Normal.X), 1e-12)
	assert.InDelta(t, want, math.Abs(pl.Normal.Y), 1e-12)
	assert.InDelta(t, want, math.Abs(pl.Normal.Z), 1e-12)
	// All three points are on the plane.
	for _, p := range []v3.Vec{{X: 1}, {Y: 1}, {Z: 1}} {
		assert.InDelta(t, 0, pl.SignedDistance(p), 1e-12)
	}
}

func TestNewPlaneDegenerate(t *testing.T) {
	_, err := NewPlane([]v3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 2, Y: 0, Z: 0},
	})
	if err == nil {
		t.Fatal("collinear points should not define a plane")
	}
}

func TestPlaneClassify(t *testing.T) {
	pl, err := NewPlane([]v3.Vec{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0},
	})
	require.NoError(t, err)

	above := v3.Vec{X: 0.5, Y: 0.5, Z: 1}
	below := v3.Vec{X: 0.5, Y: 0.5, Z: -1}
	on := v3.Vec{X: 0.5, Y: 0.5, Z: 1e-10}

	sAbove := pl.Classify(above, DefaultTolerance)
	sBelow := pl.Classify(below, DefaultTolerance)
	if sAbove == sBelow {
		t.Errorf("points on opposite sides classified equally: %v", sAbove)
	}
	if got := pl.Classify(on, DefaultTolerance); got != SideOn {
		t.Errorf("near-plane point = %v, want SideOn", got)
	}
}

func TestPlaneProject(t *testing.T) {
	pl, err := NewPlane([]v3.Vec{
		{X: 0, Y: 0, Z: 2}, {X: 1, Y: 0, Z: 2}, {X: 0, Y: 1, Z: 2},
	})
	require.NoError(t, err)
	p := pl.Project(v3.Vec{X: 0.3, Y: 0.4, Z: 7})
	assert.InDelta(t, 0.3, p.X, 1e-12)
	assert.InDelta(t, 0.4, p.Y, 1e-12)
	assert.InDelta(t, 2, p.Z, 1e-12)
}

func TestPlaneIntersectionLine(t *testing.T) {
	xy, err := NewPlane([]v3.Vec{{}, {X: 1}, {Y: 1}})
	require.NoError(t, err)
	xz, err := NewPlane([]v3.Vec{{}, {X: 1}, {Z: 1}})
	require.NoError(t, err)

	point, dir, ok := xy.IntersectionLine(xz, DefaultTolerance)
	require.True(t, ok)
	// The line is the x axis.
	assert.InDelta(t, 1, math.Abs(dir.X), 1e-12)
	assert.InDelta(t, 0, dir.Y, 1e-12)
	assert.InDelta(t, 0, dir.Z, 1e-12)
	assert.InDelta(t, 0, point.Y, 1e-12)
	assert.InDelta(t, 0, point.Z, 1e-12)

	_, _, ok = xy.IntersectionLine(xy, DefaultTolerance)
	if ok {
		t.Error("parallel planes should not intersect in a line")
	}
}

func TestFrameRoundTrip(t *testing.T) {
	pl, err := NewPlane([]v3.Vec{
		{X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1},
	})
	require.NoError(t, err)
	f := NewFrame(pl, v3.Vec{X: 1, Y: 0, Z: 0})

	pts := []v3.Vec{
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 0.2, Y: 0.3, Z: 0.5},
	}
	for _, p := range pts {
		back := f.To3D(f.To2D(p))
		assert.InDelta(t, p.X, back.X, 1e-12)
		assert.InDelta(t, p.Y, back.Y, 1e-12)
		assert.InDelta(t, p.Z, back.Z, 1e-12)
	}
	// Frame axes are orthonormal.
	assert.InDelta(t, 1, f.U.Length(), 1e-12)
	assert.InDelta(t, 1, f.V.Length(), 1e-12)
	assert.InDelta(t, 0, f.U.Dot(f.V), 1e-12)
}

func TestNewPolygonValidation(t *testing.T) {
	square := []v3.Vec{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	}
	p, err := NewPolygon(square, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Dim())
	assert.InDelta(t, 1, p.Area(), 1e-12)

	// Duplicated closing vertex is merged away.
	closed := append(append([]v3.Vec{}, square...), square[0])
	p, err = NewPolygon(closed, 0)
	require.NoError(t, err)
	assert.Len(t, p.Vertices, 4)

	// Non-planar loop.
	warped := []v3.Vec{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 0},
	}
	if _, err := NewPolygon(warped, 0); err == nil {
		t.Error("non-planar loop should fail")
	}

	// Non-convex but simple loops are legitimate fractures.
	dart := []v3.Vec{
		{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 1, Y: 0.2}, {X: 2, Y: 2},
	}
	p, err = NewPolygon(dart, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1, p.Area(), 1e-12)

	// Self-intersecting loop: edges 0 and 2 cross at (0.8,0.8).
	bowtie := []v3.Vec{
		{X: 0, Y: 0}, {X: 3, Y: 3}, {X: 4, Y: 0}, {X: 0, Y: 1},
	}
	if _, err := NewPolygon(bowtie, 0); err == nil {
		t.Error("self-intersecting loop should fail")
	}

	// Two distinct vertices give a segment.
	seg, err := NewPolygon([]v3.Vec{{X: 0}, {X: 3}}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, seg.Dim())
	assert.InDelta(t, 3, seg.Area(), 1e-12)
}

func TestPolygonContains(t *testing.T) {
	p, err := NewPolygon([]v3.Vec{
		{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2},
	}, 0)
	require.NoError(t, err)

	cases := []struct {
		pt   v3.Vec
		want bool
	}{
		{v3.Vec{X: 1, Y: 1}, true},
		{v3.Vec{X: 0, Y: 0}, true},        // corner
		{v3.Vec{X: 1, Y: 0}, true},        // edge
		{v3.Vec{X: 3, Y: 1}, false},       // outside in plane
		{v3.Vec{X: 1, Y: 1, Z: 1}, false}, // off plane
	}
	for _, c := range cases {
		if got := p.Contains(c.pt, 0); got != c.want {
			t.Errorf("Contains(%v) = %v, want %v", c.pt, got, c.want)
		}
	}
}

func TestSegmentContains(t *testing.T) {
	s, err := NewSegment(v3.Vec{X: 0}, v3.Vec{X: 2}, 0)
	require.NoError(t, err)
	if !s.Contains(v3.Vec{X: 1}, 0) {
		t.Error("midpoint should be on the segment")
	}
	if s.Contains(v3.Vec{X: 3}, 0) {
		t.Error("point beyond the endpoint should not be on the segment")
	}
	if s.Contains(v3.Vec{X: 1, Y: 0.5}, 0) {
		t.Error("offset point should not be on the segment")
	}
}

func TestSnapToVertices(t *testing.T) {
	p, err := NewPolygon([]v3.Vec{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	}, 0)
	require.NoError(t, err)

	near := v3.Vec{X: 1 + 1e-10, Y: 1e-10}
	got, snapped := p.SnapToVertices(near, DefaultTolerance)
	if !snapped {
		t.Fatal("point within tolerance of a vertex should snap")
	}
	assert.Equal(t, v3.Vec{X: 1, Y: 0}, got)

	mid := v3.Vec{X: 0.5, Y: 0}
	if _, snapped := p.SnapToVertices(mid, DefaultTolerance); snapped {
		t.Error("edge midpoint should not snap to a vertex")
	}
}

func TestNewEllipse(t *testing.T) {
	center := v3.Vec{X: 1, Y: 2, Z: 3}
	p, err := NewEllipse(center, v3.Vec{X: 2}, v3.Vec{Y: 1}, 16, 0)
	require.NoError(t, err)
	assert.Len(t, p.Vertices, 16)

	// Inscribed polygon, so the area is below pi*a*b but close for 16
	// vertices.
	exact := math.Pi * 2 * 1
	assert.Less(t, p.Area(), exact)
	assert.Greater(t, p.Area(), 0.95*exact)

	// Every vertex satisfies the ellipse equation in the local frame.
	for _, v := range p.Vertices {
		d := v.Sub(center)
		r := (d.X/2)*(d.X/2) + d.Y*d.Y
		assert.InDelta(t, 1, r, 1e-12)
		assert.InDelta(t, 0, d.Z, 1e-12)
	}

	// Non-orthogonal axes fail.
	if _, err := NewEllipse(center, v3.Vec{X: 2}, v3.Vec{X: 1, Y: 1}, 16, 0); err == nil {
		t.Error("non-orthogonal axes should fail")
	}
}

func TestToleranceOr(t *testing.T) {
	var zero Tolerance
	if zero.Or(DefaultTolerance) != DefaultTolerance {
		t.Error("zero tolerance should fall back to the default")
	}
	if Tolerance(1e-6).Or(DefaultTolerance) != 1e-6 {
		t.Error("explicit tolerance should be kept")
	}
}
