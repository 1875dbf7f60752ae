package gmsh

import (
	"fmt"
	"io"
	"sort"

	"github.com/akervik/fissure/pkg/mesher"
)

// writeGeo emits the description as a gmsh .geo script. Entity tags
// become numeric physical group ids, so the parser can map elements
// back without name lookups.
func writeGeo(w io.Writer, d *mesher.Description) error {
	if len(d.Surfaces) == 0 {
		return fmt.Errorf("geo: description has no surfaces")
	}

	p := d.Params
	fmt.Fprintf(w, "// fissure fracture network\n")
	fmt.Fprintf(w, "Mesh.CharacteristicLengthMin = %g;\n", p.MeshSizeMin)
	fmt.Fprintf(w, "Mesh.CharacteristicLengthMax = %g;\n", p.MeshSize)

	// Nodes on fracture entities get the constraint mesh size; pure
	// boundary nodes may get the coarser boundary size.
	fracNode := make(map[int]bool)
	for _, s := range d.Surfaces {
		if s.Boundary && d.Dim == 3 {
			continue
		}
		for _, n := range s.Loop {
			fracNode[n] = true
		}
	}
	for _, ln := range d.Lines {
		for _, n := range ln.Nodes {
			fracNode[n] = true
		}
	}
	for _, pt := range d.Points {
		fracNode[pt.Node] = true
	}

	boundLc := p.MeshSizeBound
	if boundLc <= 0 {
		boundLc = p.MeshSize
	}
	for i, v := range d.Nodes {
		lc := boundLc
		if fracNode[i] {
			lc = p.MeshSize
		}
		fmt.Fprintf(w, "Point(%d) = {%.17g, %.17g, %.17g, %g};\n", i+1, v.X, v.Y, v.Z, lc)
	}

	// Shared undirected line registry: surfaces meeting along an
	// intersection curve reference the same Line entities, which is
	// what makes the mesh conform across them.
	lines := make(map[[2]int]int)
	nextLine := 1
	lineID := func(a, b int) (id int, reversed bool) {
		key := [2]int{a, b}
		rev := false
		if a > b {
			key = [2]int{b, a}
			rev = true
		}
		id, ok := lines[key]
		if !ok {
			id = nextLine
			nextLine++
			lines[key] = id
			fmt.Fprintf(w, "Line(%d) = {%d, %d};\n", id, key[0]+1, key[1]+1)
		}
		return id, rev
	}

	surfIDs := make([]int, len(d.Surfaces))
	loopLines := make([]map[int]bool, len(d.Surfaces))
	for si, s := range d.Surfaces {
		ids := make([]string, len(s.Loop))
		loopLines[si] = make(map[int]bool, len(s.Loop))
		for i := range s.Loop {
			a := s.Loop[i]
			b := s.Loop[(i+1)%len(s.Loop)]
			id, rev := lineID(a, b)
			loopLines[si][id] = true
			if rev {
				ids[i] = fmt.Sprintf("-%d", id)
			} else {
				ids[i] = fmt.Sprintf("%d", id)
			}
		}
		sid := si + 1
		surfIDs[si] = sid
		fmt.Fprintf(w, "Line Loop(%d) = {%s};\n", sid, join(ids))
		fmt.Fprintf(w, "Plane Surface(%d) = {%d};\n", sid, sid)
	}

	// Register the 1d chains so physical lines can reference them.
	lineChains := make([][]int, len(d.Lines))
	for li, ln := range d.Lines {
		for i := 0; i+1 < len(ln.Nodes); i++ {
			id, _ := lineID(ln.Nodes[i], ln.Nodes[i+1])
			lineChains[li] = append(lineChains[li], id)
		}
	}

	// Chains lying in a surface's interior are embedded so the
	// surface mesh conforms to them; chains already on the surface's
	// boundary loop must not be.
	for li, ln := range d.Lines {
		for _, si := range ln.Embed {
			var ids []string
			for _, id := range lineChains[li] {
				if !loopLines[si][id] {
					ids = append(ids, fmt.Sprintf("%d", id))
				}
			}
			if len(ids) > 0 {
				fmt.Fprintf(w, "Line{%s} In Surface{%d};\n", join(ids), surfIDs[si])
			}
		}
	}

	if d.Dim == 3 {
		var shell []string
		var embedded []string
		for si, s := range d.Surfaces {
			if s.Boundary {
				shell = append(shell, fmt.Sprintf("%d", surfIDs[si]))
			} else {
				embedded = append(embedded, fmt.Sprintf("%d", surfIDs[si]))
			}
		}
		if len(shell) > 0 {
			fmt.Fprintf(w, "Surface Loop(1) = {%s};\n", join(shell))
			fmt.Fprintf(w, "Volume(1) = {1};\n")
			if len(embedded) > 0 {
				fmt.Fprintf(w, "Surface{%s} In Volume{1};\n", join(embedded))
			}
			fmt.Fprintf(w, "Physical Volume(%d) = {1};\n", mesher.TagMatrix)
		}
	}

	for si, s := range d.Surfaces {
		for _, n := range s.Embedded {
			fmt.Fprintf(w, "Point{%d} In Surface{%d};\n", n+1, surfIDs[si])
		}
	}

	// Physical groups carry the entity tags into the .msh output.
	surfsByTag := make(map[mesher.Tag][]string)
	for si, s := range d.Surfaces {
		if s.Tag == mesher.TagNone {
			continue
		}
		surfsByTag[s.Tag] = append(surfsByTag[s.Tag], fmt.Sprintf("%d", surfIDs[si]))
	}
	tags := make([]int, 0, len(surfsByTag))
	for t := range surfsByTag {
		tags = append(tags, int(t))
	}
	sort.Ints(tags)
	for _, t := range tags {
		fmt.Fprintf(w, "Physical Surface(%d) = {%s};\n", t, join(surfsByTag[mesher.Tag(t)]))
	}

	for li, ln := range d.Lines {
		if !ln.Grid {
			continue
		}
		ids := make([]string, len(lineChains[li]))
		for i, id := range lineChains[li] {
			ids[i] = fmt.Sprintf("%d", id)
		}
		fmt.Fprintf(w, "Physical Line(%d) = {%s};\n", ln.Tag, join(ids))
	}
	for _, pt := range d.Points {
		fmt.Fprintf(w, "Physical Point(%d) = {%d};\n", pt.Tag, pt.Node+1)
	}
	return nil
}

func join(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
