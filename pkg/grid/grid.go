// Package grid holds the mixed-dimensional result of meshing: per
// dimension grids with cell/face/node topology, the bucket graph
// connecting grids of adjacent dimension, and the assembler that
// builds the bucket from mesher output.
package grid

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/uuid"

	"github.com/akervik/fissure/pkg/mesher"
)

// Grid is one connected discretized entity: the matrix, one fracture
// surface, one intersection line, or one intersection point. Faces
// and cell-face incidence are derived from the cell connectivity.
type Grid struct {
	UID uuid.UUID
	Dim int
	Tag mesher.Tag

	Nodes     []v3.Vec
	Cells     [][]int // cell -> node indices
	Faces     [][]int // face -> node indices
	CellFaces [][]int // cell -> face indices
}

// New builds a grid and derives its face topology: endpoints of line
// cells, edges of triangles, triangle faces of tetrahedra.
func New(dim int, tag mesher.Tag, nodes []v3.Vec, cells [][]int) *Grid {
	g := &Grid{UID: uuid.New(), Dim: dim, Tag: tag, Nodes: nodes, Cells: cells}
	g.buildFaces()
	return g
}

func (g *Grid) NumNodes() int { return len(g.Nodes) }
func (g *Grid) NumCells() int { return len(g.Cells) }
func (g *Grid) NumFaces() int { return len(g.Faces) }

// buildFaces extracts the unique (dim-1)-faces of all cells.
func (g *Grid) buildFaces() {
	if g.Dim == 0 {
		return
	}
	index := make(map[faceKey]int)
	g.CellFaces = make([][]int, len(g.Cells))
	for ci, cell := range g.Cells {
		for _, face := range cellFaceNodes(g.Dim, cell) {
			key := makeFaceKey(face)
			fi, ok := index[key]
			if !ok {
				fi = len(g.Faces)
				g.Faces = append(g.Faces, face)
				index[key] = fi
			}
			g.CellFaces[ci] = append(g.CellFaces[ci], fi)
		}
	}
}

// cellFaceNodes lists the face node sets of one cell.
func cellFaceNodes(dim int, cell []int) [][]int {
	switch dim {
	case 1:
		return [][]int{{cell[0]}, {cell[1]}}
	case 2:
		n := len(cell)
		faces := make([][]int, 0, n)
		for i := 0; i < n; i++ {
			faces = append(faces, []int{cell[i], cell[(i+1)%n]})
		}
		return faces
	case 3:
		// Tetrahedron: the four triangles.
		a, b, c, d := cell[0], cell[1], cell[2], cell[3]
		return [][]int{{a, b, c}, {a, b, d}, {a, c, d}, {b, c, d}}
	default:
		return nil
	}
}

// faceKey is the sorted node set of a face, usable as a map key.
type faceKey [3]int

func makeFaceKey(face []int) faceKey {
	var k faceKey
	k[0], k[1], k[2] = -1, -1, -1
	for i, n := range face {
		k[i] = n
	}
	// insertion sort over at most 3 entries
	for i := 1; i < 3; i++ {
		for j := i; j > 0 && k[j] < k[j-1]; j-- {
			k[j], k[j-1] = k[j-1], k[j]
		}
	}
	return k
}

// CellCenter returns the arithmetic mean of a cell's nodes.
func (g *Grid) CellCenter(ci int) v3.Vec {
	return g.center(g.Cells[ci])
}

// FaceCenter returns the arithmetic mean of a face's nodes.
func (g *Grid) FaceCenter(fi int) v3.Vec {
	return g.center(g.Faces[fi])
}

func (g *Grid) center(nodes []int) v3.Vec {
	var c v3.Vec
	for _, n := range nodes {
		c = c.Add(g.Nodes[n])
	}
	return c.DivScalar(float64(len(nodes)))
}

// CellMeasure returns the cell's volume, area, or length depending on
// the grid dimension; 0d cells measure 1 by convention.
func (g *Grid) CellMeasure(ci int) float64 {
	cell := g.Cells[ci]
	switch g.Dim {
	case 0:
		return 1
	case 1:
		return g.Nodes[cell[1]].Sub(g.Nodes[cell[0]]).Length()
	case 2:
		var sum v3.Vec
		o := g.Nodes[cell[0]]
		for i := 1; i+1 < len(cell); i++ {
			sum = sum.Add(g.Nodes[cell[i]].Sub(o).Cross(g.Nodes[cell[i+1]].Sub(o)))
		}
		return sum.Length() / 2
	case 3:
		a := g.Nodes[cell[1]].Sub(g.Nodes[cell[0]])
		b := g.Nodes[cell[2]].Sub(g.Nodes[cell[0]])
		c := g.Nodes[cell[3]].Sub(g.Nodes[cell[0]])
		return math.Abs(a.Cross(b).Dot(c)) / 6
	default:
		return 0
	}
}

// TotalMeasure sums the cell measures.
func (g *Grid) TotalMeasure() float64 {
	var sum float64
	for ci := range g.Cells {
		sum += g.CellMeasure(ci)
	}
	return sum
}
