package geometry

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// NewEllipse approximates an elliptic fracture by an inscribed n-gon.
// major and minor are the semi-axis vectors from the center; they
// must be non-zero and orthogonal within tol. n must be at least 3.
func NewEllipse(center, major, minor v3.Vec, n int, tol Tolerance) (*Polygon, error) {
	tol = tol.Or(DefaultTolerance)
	if n < 3 {
		return nil, &GeometryError{Reason: "ellipse discretization needs at least 3 points"}
	}
	if tol.Zero(major.Length()) || tol.Zero(minor.Length()) {
		return nil, &GeometryError{Reason: "ellipse axis has zero length"}
	}
	cosAngle := major.Dot(minor) / (major.Length() * minor.Length())
	if !tol.Zero(cosAngle) {
		return nil, &GeometryError{Reason: "ellipse axes are not orthogonal"}
	}

	verts := make([]v3.Vec, n)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		verts[i] = center.
			Add(major.MulScalar(math.Cos(theta))).
			Add(minor.MulScalar(math.Sin(theta)))
	}
	return NewPolygon(verts, tol)
}
