package mesher

import (
	"context"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/akervik/fissure/pkg/geometry"
	"github.com/akervik/fissure/pkg/intersect"
	"github.com/akervik/fissure/pkg/network"
	"github.com/akervik/fissure/pkg/split"
)

var testParams = Params{MeshSize: 0.5, MeshSizeMin: 0.1, MeshSizeBound: 1}

func mustPolygon(t *testing.T, verts ...v3.Vec) *geometry.Polygon {
	t.Helper()
	p, err := geometry.NewPolygon(verts, 0)
	if err != nil {
		t.Fatalf("polygon: %v", err)
	}
	return p
}

func describe(t *testing.T, net *network.Network) *Description {
	t.Helper()
	f := intersect.Finder{}
	xs, err := f.FindAll(context.Background(), net)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	s := split.Splitter{}
	res, errs := s.SplitAll(net, xs)
	if len(errs) != 0 {
		t.Fatalf("split errors: %v", errs)
	}
	d, err := Build(net, xs, res, testParams)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return d
}

func TestBuildPlanarTwoSegments(t *testing.T) {
	net := network.New(geometry.DefaultTolerance)
	s1, _ := geometry.NewSegment(v3.Vec{X: 0, Y: 0}, v3.Vec{X: 0, Y: 2}, 0)
	s2, _ := geometry.NewSegment(v3.Vec{X: 1, Y: 0}, v3.Vec{X: 1, Y: 1}, 0)
	net.Add(s1)
	net.Add(s2)
	if _, err := net.ImposeExternalBoundary(network.Box{
		Min: v3.Vec{X: -2, Y: -2}, Max: v3.Vec{X: 3, Y: 3},
	}); err != nil {
		t.Fatalf("ImposeExternalBoundary: %v", err)
	}

	d := describe(t, net)
	if d.Dim != 2 {
		t.Fatalf("dim = %d, want 2", d.Dim)
	}
	if len(d.Surfaces) != 1 {
		t.Fatalf("surfaces = %d, want 1 (the matrix rectangle)", len(d.Surfaces))
	}
	m := d.Surfaces[0]
	if m.Tag != TagMatrix || !m.Matrix || !m.Boundary {
		t.Errorf("matrix surface tagged %d matrix=%v boundary=%v", m.Tag, m.Matrix, m.Boundary)
	}

	if len(d.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(d.Lines))
	}
	seenTags := map[Tag]bool{}
	for i, ln := range d.Lines {
		if !ln.Grid {
			t.Errorf("line %d: not a grid entity", i)
		}
		if ln.Tag == TagNone || ln.Tag == TagMatrix || seenTags[ln.Tag] {
			t.Errorf("line %d: bad tag %d", i, ln.Tag)
		}
		seenTags[ln.Tag] = true
		if len(ln.Surfaces) != 1 || ln.Surfaces[0] != TagMatrix {
			t.Errorf("line %d: surfaces = %v, want [TagMatrix]", i, ln.Surfaces)
		}
		if len(ln.Embed) != 1 || ln.Embed[0] != 0 {
			t.Errorf("line %d: embed = %v, want [0]", i, ln.Embed)
		}
		if len(ln.Nodes) != 2 {
			t.Errorf("line %d: %d chain nodes, want 2", i, len(ln.Nodes))
		}
	}

	// The segments do not cross, so no 0d entities.
	if len(d.Points) != 0 {
		t.Errorf("points = %d, want 0", len(d.Points))
	}
}

func TestBuildCrossingFractures3d(t *testing.T) {
	net := network.New(geometry.DefaultTolerance)
	net.Add(mustPolygon(t,
		v3.Vec{X: -1, Y: -1}, v3.Vec{X: 1, Y: -1},
		v3.Vec{X: 1, Y: 1}, v3.Vec{X: -1, Y: 1}))
	net.Add(mustPolygon(t,
		v3.Vec{X: -1, Y: 0, Z: -1}, v3.Vec{X: 1, Y: 0, Z: -1},
		v3.Vec{X: 1, Y: 0, Z: 1}, v3.Vec{X: -1, Y: 0, Z: 1}))

	d := describe(t, net)
	if d.Dim != 3 {
		t.Fatalf("dim = %d, want 3", d.Dim)
	}

	// Two fractures, each split in two, sharing a fracture tag per
	// parent.
	if len(d.Surfaces) != 4 {
		t.Fatalf("surfaces = %d, want 4", len(d.Surfaces))
	}
	byTag := map[Tag]int{}
	for _, s := range d.Surfaces {
		if s.Boundary {
			t.Error("no boundary surfaces expected without a domain")
		}
		byTag[s.Tag]++
	}
	if len(byTag) != 2 {
		t.Fatalf("distinct surface tags = %d, want 2", len(byTag))
	}
	for tag, cnt := range byTag {
		if cnt != 2 {
			t.Errorf("tag %d: %d surfaces, want 2", tag, cnt)
		}
	}

	// One shared intersection line, referencing both fracture tags.
	if len(d.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(d.Lines))
	}
	ln := d.Lines[0]
	if !ln.Grid {
		t.Error("intersection line should be a grid entity")
	}
	if len(ln.Surfaces) != 2 {
		t.Errorf("line borders %d surfaces, want 2", len(ln.Surfaces))
	}
	if len(ln.Embed) != 0 {
		t.Errorf("split intersection chain should not be embedded, got %v", ln.Embed)
	}
	if len(ln.Nodes) != 2 {
		t.Errorf("chain nodes = %d, want 2", len(ln.Nodes))
	}
	n0 := d.Nodes[ln.Nodes[0]]
	n1 := d.Nodes[ln.Nodes[1]]
	lo, hi := n0, n1
	if lo.X > hi.X {
		lo, hi = hi, lo
	}
	if lo.Sub(v3.Vec{X: -1}).Length() > 1e-9 || hi.Sub(v3.Vec{X: 1}).Length() > 1e-9 {
		t.Errorf("chain = [%v, %v], want [(-1,0,0), (1,0,0)]", lo, hi)
	}
}

func TestBuildBoundaryTraceEmbedded(t *testing.T) {
	net := network.New(geometry.DefaultTolerance)
	// Fracture crossing the whole unit box; after clipping its edges
	// lie on four of the box faces.
	net.Add(mustPolygon(t,
		v3.Vec{X: -0.5, Y: 0.5, Z: -0.5}, v3.Vec{X: 1.5, Y: 0.5, Z: -0.5},
		v3.Vec{X: 1.5, Y: 0.5, Z: 1.5}, v3.Vec{X: -0.5, Y: 0.5, Z: 1.5}))
	if _, err := net.ImposeExternalBoundary(network.Box{
		Max: v3.Vec{X: 1, Y: 1, Z: 1},
	}); err != nil {
		t.Fatalf("ImposeExternalBoundary: %v", err)
	}

	d := describe(t, net)
	if d.Dim != 3 {
		t.Fatalf("dim = %d, want 3", d.Dim)
	}

	var boundary, fracture int
	for _, s := range d.Surfaces {
		if s.Boundary {
			boundary++
			if s.Tag != TagNone {
				t.Errorf("3d boundary face tagged %d, want TagNone", s.Tag)
			}
		} else {
			fracture++
		}
	}
	if boundary != 6 || fracture != 1 {
		t.Fatalf("surfaces: %d boundary, %d fracture; want 6 and 1", boundary, fracture)
	}

	// Four traces, one per touched face, all auxiliary and embedded
	// in exactly that face's surface.
	if len(d.Lines) != 4 {
		t.Fatalf("lines = %d, want 4", len(d.Lines))
	}
	for i, ln := range d.Lines {
		if ln.Grid || ln.Tag != TagNone {
			t.Errorf("line %d: boundary trace should be auxiliary", i)
		}
		if len(ln.Embed) != 1 {
			t.Errorf("line %d: embed = %v, want one boundary surface", i, ln.Embed)
			continue
		}
		if !d.Surfaces[ln.Embed[0]].Boundary {
			t.Errorf("line %d: embedded in a non-boundary surface", i)
		}
	}
	if len(d.Points) != 0 {
		t.Errorf("points = %d, want 0", len(d.Points))
	}
}
