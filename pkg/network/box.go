package network

import (
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/akervik/fissure/pkg/geometry"
)

// Box is the axis-aligned bounding-box domain. A box with coincident
// Z bounds is a planar (2d) domain.
type Box struct {
	Min, Max v3.Vec
}

// Planar reports whether the box is a flat rectangle (2d domain).
func (b Box) Planar() bool {
	return b.Min.Z == b.Max.Z
}

// Contains reports whether p lies inside the box, expanded by tol.
func (b Box) Contains(p v3.Vec, tol geometry.Tolerance) bool {
	t := float64(tol)
	return p.X >= b.Min.X-t && p.X <= b.Max.X+t &&
		p.Y >= b.Min.Y-t && p.Y <= b.Max.Y+t &&
		p.Z >= b.Min.Z-t && p.Z <= b.Max.Z+t
}

// halfSpace is one clipping plane of the box, normal pointing inward.
type halfSpace struct {
	normal v3.Vec
	offset float64 // inside iff normal·x >= offset
}

// halfSpaces returns the box's clipping planes: 6 for a volume box,
// 4 for a planar box.
func (b Box) halfSpaces() []halfSpace {
	hs := []halfSpace{
		{v3.Vec{X: 1}, b.Min.X},
		{v3.Vec{X: -1}, -b.Max.X},
		{v3.Vec{Y: 1}, b.Min.Y},
		{v3.Vec{Y: -1}, -b.Max.Y},
	}
	if !b.Planar() {
		hs = append(hs,
			halfSpace{v3.Vec{Z: 1}, b.Min.Z},
			halfSpace{v3.Vec{Z: -1}, -b.Max.Z},
		)
	}
	return hs
}

// FaceLoops returns the boundary polygons of the box: the 6 faces of
// a volume box, or the single rectangle of a planar box.
func (b Box) FaceLoops() [][]v3.Vec {
	lo, hi := b.Min, b.Max
	if b.Planar() {
		z := lo.Z
		return [][]v3.Vec{{
			{X: lo.X, Y: lo.Y, Z: z},
			{X: hi.X, Y: lo.Y, Z: z},
			{X: hi.X, Y: hi.Y, Z: z},
			{X: lo.X, Y: hi.Y, Z: z},
		}}
	}
	c := func(x, y, z float64) v3.Vec { return v3.Vec{X: x, Y: y, Z: z} }
	return [][]v3.Vec{
		{c(lo.X, lo.Y, lo.Z), c(hi.X, lo.Y, lo.Z), c(hi.X, hi.Y, lo.Z), c(lo.X, hi.Y, lo.Z)}, // bottom
		{c(lo.X, lo.Y, hi.Z), c(hi.X, lo.Y, hi.Z), c(hi.X, hi.Y, hi.Z), c(lo.X, hi.Y, hi.Z)}, // top
		{c(lo.X, lo.Y, lo.Z), c(hi.X, lo.Y, lo.Z), c(hi.X, lo.Y, hi.Z), c(lo.X, lo.Y, hi.Z)}, // front
		{c(lo.X, hi.Y, lo.Z), c(hi.X, hi.Y, lo.Z), c(hi.X, hi.Y, hi.Z), c(lo.X, hi.Y, hi.Z)}, // back
		{c(lo.X, lo.Y, lo.Z), c(lo.X, hi.Y, lo.Z), c(lo.X, hi.Y, hi.Z), c(lo.X, lo.Y, hi.Z)}, // left
		{c(hi.X, lo.Y, lo.Z), c(hi.X, hi.Y, lo.Z), c(hi.X, hi.Y, hi.Z), c(hi.X, lo.Y, hi.Z)}, // right
	}
}
