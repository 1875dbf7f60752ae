// Package mesher defines the boundary to the external mesh
// generator: the non-intersecting geometry description handed over,
// the per-entity discretization handed back, and the Mesher interface
// implemented by backends (gmsh subprocess, in-process tri). The
// interface mirrors the rest of the pipeline's rule that heavyweight
// machinery stays behind a small swappable contract.
package mesher

import (
	"context"
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/akervik/fissure/pkg/geometry"
	"github.com/akervik/fissure/pkg/network"
)

// Tag identifies one final grid entity of the description. Entities
// that share a Tag are merged into a single grid by the assembler.
type Tag int

const (
	// TagNone marks geometry that constrains the mesh but produces
	// no grid of its own (domain boundary faces, auxiliary lines).
	TagNone Tag = 0
	// TagMatrix is the highest-dimensional grid: the 3d volume, or
	// the 2d domain in planar mode.
	TagMatrix Tag = 1
	// tagFirst is the first tag handed to fracture entities.
	tagFirst Tag = 2
)

// Params are the mesh-size hints forwarded to the mesher.
type Params struct {
	MeshSize      float64 // target size near fractures and constraints
	MeshSizeMin   float64 // minimum admissible size elsewhere
	MeshSizeBound float64 // optional target at the domain boundary (2d)
}

// Validate checks the hints for consistency.
func (p Params) Validate() error {
	if p.MeshSize <= 0 {
		return fmt.Errorf("mesher: MeshSize must be positive, got %g", p.MeshSize)
	}
	if p.MeshSizeMin <= 0 || p.MeshSizeMin > p.MeshSize {
		return fmt.Errorf("mesher: MeshSizeMin must be in (0, MeshSize], got %g", p.MeshSizeMin)
	}
	if p.MeshSizeBound < 0 {
		return fmt.Errorf("mesher: MeshSizeBound must be non-negative, got %g", p.MeshSizeBound)
	}
	return nil
}

// Surface is one non-intersecting polygon loop. Surfaces of the same
// fracture share a Tag and merge into one 2d grid.
type Surface struct {
	Tag      Tag
	Entity   geometry.PolygonID // provenance: the original fracture
	Loop     []int              // node indices, ordered
	Boundary bool
	Matrix   bool  // planar mode: part of the 2d matrix
	Embedded []int // interior mesh points (point intersections)
}

// Line is a 1d entity: a fracture-fracture intersection curve (3d) or
// a fracture segment (planar mode). Aux lines (Grid false) constrain
// the surface mesh without producing a 1d grid.
type Line struct {
	Tag      Tag
	Nodes    []int // ordered chain, subdivided at crossing points
	Surfaces []Tag // the 2d grids this line borders
	Grid     bool

	// Embed lists indices into Description.Surfaces whose interior
	// this line lies in. The chain is not part of those surfaces'
	// boundary loops, so the mesher must be told to conform to it
	// explicitly (fracture segments in the planar matrix, fracture
	// traces on 3d boundary faces).
	Embed []int
}

// Point is a 0d entity where 1d lines cross.
type Point struct {
	Tag   Tag
	Node  int
	Lines []Tag // the 1d grids meeting here
}

// Description is the validated, non-intersecting geometry handed to a
// mesher, with shared-edge annotations at intersection curves.
type Description struct {
	Dim      int // ambient dimension: 2 or 3
	Nodes    []v3.Vec
	Surfaces []Surface
	Lines    []Line
	Points   []Point
	Domain   *network.Box
	Tol      geometry.Tolerance
	Params   Params
}

// SubGrid is one per-entity discretization produced by a mesher.
// Cells index into Nodes; cell arity is fixed by Dim (1 node for 0d,
// 2 for lines, 3 for triangles, 4 for tetrahedra).
type SubGrid struct {
	Dim   int
	Tag   Tag
	Nodes []v3.Vec
	Cells [][]int
}

// Output is the full mesher result, to be reassembled into a bucket.
type Output struct {
	Grids []SubGrid
}

// Mesher turns a geometry description into a discretization. The
// context bounds the (potentially long-running) generation; backends
// must honor cancellation.
type Mesher interface {
	Mesh(ctx context.Context, d *Description) (*Output, error)
}

// RunError reports an abnormally terminated or unusable mesher run,
// with the mesher's own diagnostics attached. A RunError is always
// fatal to the whole pipeline: there is no partial mesh to recover.
type RunError struct {
	Backend string
	Output  string // mesher stderr/diagnostics
	Err     error
}

func (e *RunError) Error() string {
	msg := fmt.Sprintf("mesher %s failed: %v", e.Backend, e.Err)
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

func (e *RunError) Unwrap() error {
	return e.Err
}
