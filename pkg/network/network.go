// Package network owns the fracture network: the ordered set of
// fracture polygons, the optional bounding-box domain, and the shared
// tolerance. The network is built once, mutated in place by boundary
// imposition and splitting, and then consumed by meshing.
package network

import (
	"fmt"

	"github.com/akervik/fissure/pkg/geometry"
)

// Network is the full collection of fracture polygons plus the
// domain-boundary polygons injected by ImposeExternalBoundary.
type Network struct {
	Tol    geometry.Tolerance
	Domain *Box

	polys  []*geometry.Polygon
	nextID geometry.PolygonID
}

// New creates an empty network with the given tolerance (or the
// default if tol is zero).
func New(tol geometry.Tolerance) *Network {
	return &Network{Tol: tol.Or(geometry.DefaultTolerance)}
}

// Add admits a polygon into the network, assigning its ID. The
// polygon must already have passed geometry.NewPolygon validation.
func (n *Network) Add(p *geometry.Polygon) geometry.PolygonID {
	p.ID = n.nextID
	if p.Parent == geometry.NoParent {
		p.Parent = p.ID
	}
	n.nextID++
	n.polys = append(n.polys, p)
	return p.ID
}

// Polygons returns the polygons in insertion order. The slice is the
// network's own; callers must not reorder it.
func (n *Network) Polygons() []*geometry.Polygon {
	return n.polys
}

// Get returns the polygon with the given ID, or nil.
func (n *Network) Get(id geometry.PolygonID) *geometry.Polygon {
	for _, p := range n.polys {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Replace removes the polygon with the given ID and appends children
// in its place, assigning fresh IDs and inheriting the removed
// polygon's provenance root.
func (n *Network) Replace(id geometry.PolygonID, children []*geometry.Polygon) error {
	old := n.Get(id)
	if old == nil {
		return fmt.Errorf("network: replace: no polygon %d", id)
	}
	kept := n.polys[:0]
	for _, p := range n.polys {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	n.polys = kept
	for _, c := range children {
		c.Parent = old.Parent
		c.Boundary = old.Boundary
		c.ID = n.nextID
		n.nextID++
		n.polys = append(n.polys, c)
	}
	return nil
}

// Dim is the ambient dimension of the network: 2 for a planar domain
// of segment fractures, 3 otherwise.
func (n *Network) Dim() int {
	if n.Domain != nil && n.Domain.Planar() {
		return 2
	}
	for _, p := range n.polys {
		if p.Dim() == 2 && !p.Boundary {
			return 3
		}
	}
	if len(n.polys) > 0 {
		return 2
	}
	return 3
}
