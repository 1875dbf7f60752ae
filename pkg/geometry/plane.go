package geometry

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Side classifies a point against a plane within tolerance.
type Side int

const (
	SideOn    Side = iota // |signed distance| ≤ tol
	SideAbove             // signed distance > tol
	SideBelow             // signed distance < -tol
)

func (s Side) String() string {
	switch s {
	case SideOn:
		return "on"
	case SideAbove:
		return "above"
	case SideBelow:
		return "below"
	default:
		return "unknown"
	}
}

// Plane is the set of points x with Normal·x = Offset. Normal is unit
// length.
type Plane struct {
	Normal v3.Vec
	Offset float64
}

// NewPlane fits a plane through a point loop using Newell's method,
// which stays stable when three consecutive vertices are nearly
// collinear. At least three points are required.
func NewPlane(pts []v3.Vec) (Plane, error) {
	if len(pts) < 3 {
		return Plane{}, &GeometryError{Reason: "plane requires at least 3 points"}
	}
	var n v3.Vec
	var centroid v3.Vec
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		n.X += (p.Y - q.Y) * (p.Z + q.Z)
		n.Y += (p.Z - q.Z) * (p.X + q.X)
		n.Z += (p.X - q.X) * (p.Y + q.Y)
		centroid = centroid.Add(p)
	}
	length := n.Length()
	if length == 0 {
		return Plane{}, &GeometryError{Reason: "points are collinear, no unique plane"}
	}
	n = n.DivScalar(length)
	centroid = centroid.DivScalar(float64(len(pts)))
	return Plane{Normal: n, Offset: n.Dot(centroid)}, nil
}

// SignedDistance returns the distance from p to the plane, positive
// on the side the normal points into.
func (pl Plane) SignedDistance(p v3.Vec) float64 {
	return pl.Normal.Dot(p) - pl.Offset
}

// Classify places p on, above, or below the plane.
func (pl Plane) Classify(p v3.Vec, tol Tolerance) Side {
	d := pl.SignedDistance(p)
	switch {
	case tol.Zero(d):
		return SideOn
	case d > 0:
		return SideAbove
	default:
		return SideBelow
	}
}

// Project returns the closest point to p on the plane.
func (pl Plane) Project(p v3.Vec) v3.Vec {
	return p.Sub(pl.Normal.MulScalar(pl.SignedDistance(p)))
}

// Parallel reports whether two planes have parallel normals.
func (pl Plane) Parallel(other Plane, tol Tolerance) bool {
	return tol.Zero(pl.Normal.Cross(other.Normal).Length())
}

// IntersectionLine returns a point on, and the direction of, the line
// where two non-parallel planes meet. ok is false for parallel planes.
func (pl Plane) IntersectionLine(other Plane, tol Tolerance) (point, dir v3.Vec, ok bool) {
	dir = pl.Normal.Cross(other.Normal)
	length := dir.Length()
	if tol.Zero(length) {
		return v3.Vec{}, v3.Vec{}, false
	}
	dir = dir.DivScalar(length)
	// Solve for the point on the line closest to the origin:
	// x = (d1 (n2 × dir) + d2 (dir × n1)) / (n1 · (n2 × dir))
	denom := pl.Normal.Dot(other.Normal.Cross(dir))
	if denom == 0 {
		return v3.Vec{}, v3.Vec{}, false
	}
	point = other.Normal.Cross(dir).MulScalar(pl.Offset).
		Add(dir.Cross(pl.Normal).MulScalar(other.Offset)).
		DivScalar(denom)
	return point, dir, true
}

// Frame is an orthonormal in-plane coordinate system used to do 2d
// geometry inside a 3d plane.
type Frame struct {
	Origin v3.Vec
	U, V   v3.Vec
	plane  Plane
}

// NewFrame builds an in-plane frame for a plane, anchored at origin.
func NewFrame(pl Plane, origin v3.Vec) Frame {
	// Pick the world axis least aligned with the normal as seed.
	axis := v3.Vec{X: 1}
	abs := v3.Vec{
		X: math.Abs(pl.Normal.X),
		Y: math.Abs(pl.Normal.Y),
		Z: math.Abs(pl.Normal.Z),
	}
	if abs.Y <= abs.X && abs.Y <= abs.Z {
		axis = v3.Vec{Y: 1}
	} else if abs.Z <= abs.X && abs.Z <= abs.Y {
		axis = v3.Vec{Z: 1}
	}
	u := pl.Normal.Cross(axis).Normalize()
	v := pl.Normal.Cross(u)
	return Frame{Origin: pl.Project(origin), U: u, V: v, plane: pl}
}

// To2D projects a 3d point into frame coordinates. The out-of-plane
// component is discarded.
func (f Frame) To2D(p v3.Vec) Vec2 {
	d := p.Sub(f.Origin)
	return Vec2{X: d.Dot(f.U), Y: d.Dot(f.V)}
}

// To3D lifts frame coordinates back into 3d space.
func (f Frame) To3D(q Vec2) v3.Vec {
	return f.Origin.Add(f.U.MulScalar(q.X)).Add(f.V.MulScalar(q.Y))
}
