// Package intersect computes the complete, deduplicated set of
// pairwise intersections in a fracture network: segments, points, and
// flagged coplanar overlaps. All predicates honor the network
// tolerance; tie-breaks are deterministic so that tolerance never
// leaves a configuration ambiguous.
package intersect

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/akervik/fissure/pkg/geometry"
)

// Kind is the geometric type of a pairwise intersection.
type Kind int

const (
	KindPoint           Kind = iota // single shared point
	KindSegment                     // shared line segment
	KindCoplanarOverlap             // coplanar polygons overlapping in area (unsupported)
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindSegment:
		return "segment"
	case KindCoplanarOverlap:
		return "coplanar-overlap"
	default:
		return "unknown"
	}
}

// Intersection is the shared geometry between an unordered pair of
// polygons. Pairs are stored canonically with A < B, so (A,B) and
// (B,A) are the same record. For KindPoint only P0 is meaningful.
type Intersection struct {
	A, B   geometry.PolygonID
	Kind   Kind
	P0, P1 v3.Vec
}

func (x Intersection) String() string {
	return fmt.Sprintf("intersection(%d,%d,%s)", x.A, x.B, x.Kind)
}

// Involves reports whether the intersection touches polygon id.
func (x Intersection) Involves(id geometry.PolygonID) bool {
	return x.A == id || x.B == id
}

// Other returns the partner of id in the pair.
func (x Intersection) Other(id geometry.PolygonID) geometry.PolygonID {
	if x.A == id {
		return x.B
	}
	return x.A
}

// pairKey canonicalizes an unordered polygon pair so that (A,B) and
// (B,A) deduplicate to one record.
type pairKey struct {
	lo, hi geometry.PolygonID
}

func makePairKey(a, b geometry.PolygonID) pairKey {
	if a < b {
		return pairKey{lo: a, hi: b}
	}
	return pairKey{lo: b, hi: a}
}

// canonical orders the pair and returns the finished record.
func canonical(a, b geometry.PolygonID, kind Kind, p0, p1 v3.Vec) Intersection {
	if a > b {
		a, b = b, a
	}
	return Intersection{A: a, B: b, Kind: kind, P0: p0, P1: p1}
}
