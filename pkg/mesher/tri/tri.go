// Package tri is an in-process mesher backend built on the Seidel
// triangulation in github.com/osuushi/triangulate. It discretizes 2d
// surfaces into triangles using only their boundary vertices, 1d
// chains into line cells, and 0d points directly. It produces no 3d
// matrix grid, and it does not honor embedded constraints (Line.Embed,
// Surface.Embedded): surfaces conform to each other only along shared
// boundary loop edges. Fracture networks whose intersection curves
// became shared edges during splitting mesh conformingly; entities
// embedded in a surface interior (fracture segments in the planar
// matrix) do not, and such runs need the assembler's match check
// disabled. Mesh-size hints are ignored since no interior points are
// inserted.
package tri

import (
	"context"
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/osuushi/triangulate"

	"github.com/akervik/fissure/pkg/geometry"
	"github.com/akervik/fissure/pkg/mesher"
)

// Compile-time interface check.
var _ mesher.Mesher = (*Mesher)(nil)

// Mesher is the in-process triangulating backend.
type Mesher struct{}

// New returns a new in-process mesher.
func New() *Mesher {
	return &Mesher{}
}

// Mesh discretizes every tagged entity of the description.
func (m *Mesher) Mesh(ctx context.Context, d *mesher.Description) (*mesher.Output, error) {
	out := &mesher.Output{}

	for _, s := range d.Surfaces {
		if s.Tag == mesher.TagNone {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sub, err := meshSurface(d, s)
		if err != nil {
			return nil, &mesher.RunError{Backend: "tri", Err: err}
		}
		out.Grids = append(out.Grids, sub)
	}

	for _, ln := range d.Lines {
		if !ln.Grid {
			continue
		}
		out.Grids = append(out.Grids, meshLine(d, ln))
	}

	for _, pt := range d.Points {
		out.Grids = append(out.Grids, mesher.SubGrid{
			Dim:   0,
			Tag:   pt.Tag,
			Nodes: []v3.Vec{d.Nodes[pt.Node]},
			Cells: [][]int{{0}},
		})
	}
	return out, nil
}

// meshSurface triangulates one surface loop in its own plane frame.
// Seidel triangulation introduces no new vertices, so triangles along
// shared loop edges conform exactly across neighboring surfaces.
func meshSurface(d *mesher.Description, s mesher.Surface) (mesher.SubGrid, error) {
	verts := make([]v3.Vec, len(s.Loop))
	for i, nid := range s.Loop {
		verts[i] = d.Nodes[nid]
	}

	pl, err := geometry.NewPlane(verts)
	if err != nil {
		return mesher.SubGrid{}, fmt.Errorf("surface tag %d: %w", s.Tag, err)
	}
	f := geometry.NewFrame(pl, verts[0])

	loop2 := make([]geometry.Vec2, len(verts))
	for i, v := range verts {
		loop2[i] = f.To2D(v)
	}
	// Triangulate requires counterclockwise solids.
	if geometry.SignedArea2D(loop2) < 0 {
		rev2 := make([]geometry.Vec2, len(loop2))
		revV := make([]v3.Vec, len(verts))
		for i := range loop2 {
			rev2[len(loop2)-1-i] = loop2[i]
			revV[len(verts)-1-i] = verts[i]
		}
		loop2, verts = rev2, revV
	}

	pts := make([]*triangulate.Point, len(loop2))
	index := make(map[*triangulate.Point]int, len(loop2))
	for i, q := range loop2 {
		pts[i] = &triangulate.Point{X: q.X, Y: q.Y}
		index[pts[i]] = i
	}

	tris, err := triangulate.Triangulate(pts)
	if err != nil {
		return mesher.SubGrid{}, fmt.Errorf("surface tag %d: %w", s.Tag, err)
	}

	cells := make([][]int, 0, len(tris))
	for _, t := range tris {
		ia, okA := index[t.A]
		ib, okB := index[t.B]
		ic, okC := index[t.C]
		if !okA || !okB || !okC {
			return mesher.SubGrid{}, fmt.Errorf("surface tag %d: triangulation emitted unknown vertex", s.Tag)
		}
		cells = append(cells, []int{ia, ib, ic})
	}
	return mesher.SubGrid{Dim: 2, Tag: s.Tag, Nodes: verts, Cells: cells}, nil
}

// meshLine turns a node chain into 1d line cells.
func meshLine(d *mesher.Description, ln mesher.Line) mesher.SubGrid {
	nodes := make([]v3.Vec, len(ln.Nodes))
	for i, nid := range ln.Nodes {
		nodes[i] = d.Nodes[nid]
	}
	cells := make([][]int, 0, len(ln.Nodes)-1)
	for i := 0; i+1 < len(ln.Nodes); i++ {
		cells = append(cells, []int{i, i + 1})
	}
	return mesher.SubGrid{Dim: 1, Tag: ln.Tag, Nodes: nodes, Cells: cells}
}
