package gmsh

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/akervik/fissure/pkg/mesher"
)

// element type codes of msh format 2.2.
const (
	elemLine     = 1
	elemTriangle = 2
	elemTet      = 4
	elemPoint    = 15
)

func elemDim(typ int) (dim, nodes int, ok bool) {
	switch typ {
	case elemPoint:
		return 0, 1, true
	case elemLine:
		return 1, 2, true
	case elemTriangle:
		return 2, 3, true
	case elemTet:
		return 3, 4, true
	default:
		return 0, 0, false
	}
}

// parseMsh reads a gmsh .msh (format 2.2) stream and groups elements
// by their physical tag into per-entity sub-grids. Elements without a
// physical tag (auxiliary geometry) are dropped.
func parseMsh(r io.Reader) (*mesher.Output, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)

	coords := make(map[int]v3.Vec)
	type group struct {
		dim   int
		cells [][]int // global node ids
	}
	groups := make(map[mesher.Tag]*group)
	var order []mesher.Tag

	for sc.Scan() {
		switch strings.TrimSpace(sc.Text()) {
		case "$Nodes":
			if err := parseNodes(sc, coords); err != nil {
				return nil, err
			}
		case "$Elements":
			if err := parseElements(sc, func(tag mesher.Tag, dim int, nodes []int) {
				g, ok := groups[tag]
				if !ok {
					g = &group{dim: dim}
					groups[tag] = g
					order = append(order, tag)
				}
				g.cells = append(g.cells, nodes)
			}); err != nil {
				return nil, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(coords) == 0 {
		return nil, fmt.Errorf("msh: no nodes found")
	}

	// Renumber each group's nodes locally.
	out := &mesher.Output{}
	for _, tag := range order {
		g := groups[tag]
		local := make(map[int]int)
		sub := mesher.SubGrid{Dim: g.dim, Tag: tag}
		for _, cell := range g.cells {
			lc := make([]int, len(cell))
			for i, gid := range cell {
				li, ok := local[gid]
				if !ok {
					coord, have := coords[gid]
					if !have {
						return nil, fmt.Errorf("msh: element references unknown node %d", gid)
					}
					li = len(sub.Nodes)
					local[gid] = li
					sub.Nodes = append(sub.Nodes, coord)
				}
				lc[i] = li
			}
			sub.Cells = append(sub.Cells, lc)
		}
		out.Grids = append(out.Grids, sub)
	}
	return out, nil
}

func parseNodes(sc *bufio.Scanner, coords map[int]v3.Vec) error {
	if !sc.Scan() {
		return fmt.Errorf("msh: truncated $Nodes section")
	}
	count, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil {
		return fmt.Errorf("msh: bad node count: %w", err)
	}
	for i := 0; i < count; i++ {
		if !sc.Scan() {
			return fmt.Errorf("msh: truncated $Nodes section")
		}
		fields := strings.Fields(sc.Text())
		if len(fields) != 4 {
			return fmt.Errorf("msh: bad node line %q", sc.Text())
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("msh: bad node id: %w", err)
		}
		var xyz [3]float64
		for j := 0; j < 3; j++ {
			xyz[j], err = strconv.ParseFloat(fields[j+1], 64)
			if err != nil {
				return fmt.Errorf("msh: bad node coordinate: %w", err)
			}
		}
		coords[id] = v3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}
	}
	return nil
}

func parseElements(sc *bufio.Scanner, emit func(tag mesher.Tag, dim int, nodes []int)) error {
	if !sc.Scan() {
		return fmt.Errorf("msh: truncated $Elements section")
	}
	count, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil {
		return fmt.Errorf("msh: bad element count: %w", err)
	}
	for i := 0; i < count; i++ {
		if !sc.Scan() {
			return fmt.Errorf("msh: truncated $Elements section")
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			return fmt.Errorf("msh: bad element line %q", sc.Text())
		}
		typ, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("msh: bad element type: %w", err)
		}
		nTags, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("msh: bad element tag count: %w", err)
		}
		dim, nNodes, ok := elemDim(typ)
		if !ok {
			continue // unsupported element shapes are ignored
		}
		if len(fields) < 3+nTags+nNodes {
			return fmt.Errorf("msh: short element line %q", sc.Text())
		}
		if nTags < 1 {
			continue // no physical group
		}
		phys, err := strconv.Atoi(fields[3])
		if err != nil {
			return fmt.Errorf("msh: bad physical tag: %w", err)
		}
		if phys == int(mesher.TagNone) {
			continue
		}
		nodes := make([]int, nNodes)
		for j := 0; j < nNodes; j++ {
			nodes[j], err = strconv.Atoi(fields[3+nTags+j])
			if err != nil {
				return fmt.Errorf("msh: bad element node: %w", err)
			}
		}
		emit(mesher.Tag(phys), dim, nodes)
	}
	return nil
}
