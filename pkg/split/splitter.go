// Package split re-partitions intersecting fracture polygons into
// mutually non-intersecting children that share exact boundary edges
// along the computed intersection curves. Each polygon is split
// independently: its constraints are gathered into a constrained
// planar subdivision in the polygon's own plane, and the faces of
// that subdivision become the children.
package split

import (
	"fmt"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/akervik/fissure/pkg/geometry"
	"github.com/akervik/fissure/pkg/intersect"
	"github.com/akervik/fissure/pkg/network"
)

// SplitError reports a constrained subdivision that could not be
// closed, typically a constraint segment terminating strictly inside
// the polygon after tolerance compounding. Meshing invalid geometry
// is worse than failing, so this aborts the affected polygon.
type SplitError struct {
	Polygon    geometry.PolygonID
	Constraint [2]v3.Vec
	Reason     string
}

func (e *SplitError) Error() string {
	return fmt.Sprintf("split: polygon %d: %s (constraint %v -> %v)",
		e.Polygon, e.Reason, e.Constraint[0], e.Constraint[1])
}

// Result carries the split byproducts needed to build the meshing
// description: constraint-constraint crossing points (candidate 0d
// entities) and isolated point constraints embedded in a polygon's
// interior (mesh points, not subdivision vertices).
type Result struct {
	CrossPoints []v3.Vec
	Embedded    map[geometry.PolygonID][]v3.Vec
}

// Splitter splits every polygon of a network in place.
type Splitter struct {
	Tol geometry.Tolerance
}

// SplitAll replaces each intersected polygon of the network with its
// children. Failures are collected per polygon so the caller gets
// batch diagnostics; polygons that fail are left unsplit.
func (s *Splitter) SplitAll(net *network.Network, xs []intersect.Intersection) (*Result, []error) {
	tol := s.Tol.Or(net.Tol)
	res := &Result{Embedded: make(map[geometry.PolygonID][]v3.Vec)}
	var errs []error

	// A coplanar area overlap has no supported subdivision; report it
	// once per pair, not once per polygon.
	for _, x := range xs {
		if x.Kind == intersect.KindCoplanarOverlap {
			errs = append(errs, &geometry.GeometryError{
				Polygon: x.A,
				Reason:  fmt.Sprintf("coplanar area overlap with polygon %d is unsupported", x.B),
			})
		}
	}

	// Constraints are gathered against the pre-split snapshot.
	snapshot := make([]*geometry.Polygon, len(net.Polygons()))
	copy(snapshot, net.Polygons())

	for _, p := range snapshot {
		if p.Boundary {
			// Domain boundary polygons are never subdivided: fracture
			// traces on them become embedded meshing constraints, so
			// a trace terminating in a face interior is legitimate
			// there.
			continue
		}
		var cons []constraint
		for _, x := range xs {
			if !x.Involves(p.ID) {
				continue
			}
			switch x.Kind {
			case intersect.KindSegment:
				cons = append(cons, constraint{p0: x.P0, p1: x.P1})
			case intersect.KindPoint:
				cons = append(cons, constraint{p0: x.P0, p1: x.P0, point: true})
			}
		}
		if len(cons) == 0 {
			continue
		}

		var children []*geometry.Polygon
		var crossPts, embedded []v3.Vec
		var err error
		if p.Dim() == 1 {
			children, crossPts, err = splitSegment(p, cons, tol)
		} else {
			children, crossPts, embedded, err = splitPolygon(p, cons, tol)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		res.CrossPoints = mergePoints(res.CrossPoints, crossPts, tol)
		if len(children) == 1 && children[0] == p {
			// Nothing changed geometrically; keep the polygon.
			if len(embedded) > 0 {
				res.Embedded[p.ID] = embedded
			}
			continue
		}
		if err := net.Replace(p.ID, children); err != nil {
			errs = append(errs, err)
			continue
		}
		if len(embedded) > 0 {
			for _, c := range children {
				if pts := filterContained(c, embedded, tol); len(pts) > 0 {
					res.Embedded[c.ID] = pts
				}
			}
		}
	}
	return res, errs
}

// constraint is one intersection curve restricted to a polygon.
type constraint struct {
	p0, p1 v3.Vec
	point  bool
}

// splitSegment subdivides a 1d segment fracture at its point
// constraints. Interior cut points are candidate 0d entities.
func splitSegment(p *geometry.Polygon, cons []constraint, tol geometry.Tolerance) ([]*geometry.Polygon, []v3.Vec, error) {
	a, b := p.Vertices[0], p.Vertices[1]
	d := b.Sub(a)
	length := d.Length()
	dir := d.DivScalar(length)

	params := []float64{0, length}
	for _, c := range cons {
		for _, pt := range constraintPoints(c) {
			t := pt.Sub(a).Dot(dir)
			if t > float64(tol) && t < length-float64(tol) {
				params = append(params, t)
			}
		}
	}
	params = dedupSorted(params, float64(tol))
	if len(params) == 2 {
		return []*geometry.Polygon{p}, nil, nil
	}

	var children []*geometry.Polygon
	var cross []v3.Vec
	for i := 0; i+1 < len(params); i++ {
		c0 := a.Add(dir.MulScalar(params[i]))
		c1 := a.Add(dir.MulScalar(params[i+1]))
		children = append(children, &geometry.Polygon{
			ID: geometry.NoParent, Parent: p.Parent,
			Vertices: []v3.Vec{c0, c1},
		})
		if i > 0 {
			cross = append(cross, c0)
		}
	}
	return children, cross, nil
}

func constraintPoints(c constraint) []v3.Vec {
	if c.point {
		return []v3.Vec{c.p0}
	}
	return []v3.Vec{c.p0, c.p1}
}

// mergePoints appends pts to dst, skipping points already present
// within tol.
func mergePoints(dst, pts []v3.Vec, tol geometry.Tolerance) []v3.Vec {
	for _, pt := range pts {
		dup := false
		for _, have := range dst {
			if tol.Eq(pt, have) {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, pt)
		}
	}
	return dst
}

// filterContained keeps the embedded points lying on child c.
func filterContained(c *geometry.Polygon, pts []v3.Vec, tol geometry.Tolerance) []v3.Vec {
	var out []v3.Vec
	for _, pt := range pts {
		if c.Contains(pt, tol) {
			out = append(out, pt)
		}
	}
	return out
}

func dedupSorted(params []float64, tol float64) []float64 {
	sort.Float64s(params)
	out := params[:0]
	for _, t := range params {
		if len(out) > 0 && t-out[len(out)-1] <= tol {
			continue
		}
		out = append(out, t)
	}
	return out
}
