package tri

import (
	"context"
	"fmt"
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/akervik/fissure/pkg/geometry"
	"github.com/akervik/fissure/pkg/intersect"
	"github.com/akervik/fissure/pkg/mesher"
	"github.com/akervik/fissure/pkg/network"
	"github.com/akervik/fissure/pkg/split"
)

func describe(t *testing.T, net *network.Network) *mesher.Description {
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
	d, err := mesher.Build(net, xs, res, mesher.Params{MeshSize: 0.5, MeshSizeMin: 0.1})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return d
}

func crossingNetwork(t *testing.T) *network.Network {
	t.Helper()
	net := network.New(geometry.DefaultTolerance)
	base, err := geometry.NewPolygon([]v3.Vec{
		{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1},
	}, 0)
	if err != nil {
		t.Fatal(err)
	}
	vert, err := geometry.NewPolygon([]v3.Vec{
		{X: -1, Y: 0, Z: -1}, {X: 1, Y: 0, Z: -1}, {X: 1, Y: 0, Z: 1}, {X: -1, Y: 0, Z: 1},
	}, 0)
	if err != nil {
		t.Fatal(err)
	}
	net.Add(base)
	net.Add(vert)
	return net
}

func TestMeshCrossingFractures(t *testing.T) {
	d := describe(t, crossingNetwork(t))
	out, err := New().Mesh(context.Background(), d)
	if err != nil {
		t.Fatalf("Mesh: %v", err)
	}

	var surf2d, line1d int
	areaByTag := map[mesher.Tag]float64{}
	for _, sg := range out.Grids {
		switch sg.Dim {
		case 2:
			surf2d++
			for _, cell := range sg.Cells {
				if len(cell) != 3 {
					t.Fatalf("2d cell arity = %d, want 3", len(cell))
				}
				a := sg.Nodes[cell[1]].Sub(sg.Nodes[cell[0]])
				b := sg.Nodes[cell[2]].Sub(sg.Nodes[cell[0]])
				areaByTag[sg.Tag] += a.Cross(b).Length() / 2
			}
		case 1:
			line1d++
			if len(sg.Cells) != 1 {
				t.Errorf("line sub-grid: %d cells, want 1", len(sg.Cells))
			}
		default:
			t.Errorf("unexpected sub-grid dim %d", sg.Dim)
		}
	}
	// Two fractures split in two each, plus the intersection line.
	if surf2d != 4 || line1d != 1 {
		t.Fatalf("sub-grids: %d surfaces, %d lines; want 4 and 1", surf2d, line1d)
	}
	// Triangulation preserves each fracture's area.
	for tag, area := range areaByTag {
		if math.Abs(area-2) > 1e-9 {
			t.Errorf("tag %d: triangulated area = %f, want 2", tag, area)
		}
	}
}

func TestMeshSharedChainConforms(t *testing.T) {
	// The two halves of one fracture meet along the intersection
	// chain; with no interior points inserted, the triangle edges on
	// the chain must appear in both halves.
	d := describe(t, crossingNetwork(t))
	out, err := New().Mesh(context.Background(), d)
	if err != nil {
		t.Fatalf("Mesh: %v", err)
	}

	// Collect undirected edges on y=0, z=0 per sub-grid tag.
	type edge [2]string
	key := func(v v3.Vec) string {
		return fmt.Sprintf("%.9f,%.9f,%.9f", v.X, v.Y, v.Z)
	}
	onChain := func(v v3.Vec) bool {
		return math.Abs(v.Y) < 1e-9 && math.Abs(v.Z) < 1e-9
	}
	chainEdges := map[mesher.Tag]map[edge]int{}
	for _, sg := range out.Grids {
		if sg.Dim != 2 {
			continue
		}
		for _, cell := range sg.Cells {
			for i := range cell {
				a := sg.Nodes[cell[i]]
				b := sg.Nodes[cell[(i+1)%len(cell)]]
				if !onChain(a) || !onChain(b) {
					continue
				}
				ka, kb := key(a), key(b)
				if kb < ka {
					ka, kb = kb, ka
				}
				if chainEdges[sg.Tag] == nil {
					chainEdges[sg.Tag] = map[edge]int{}
				}
				chainEdges[sg.Tag][edge{ka, kb}]++
			}
		}
	}
	for tag, edges := range chainEdges {
		for e, n := range edges {
			if n != 2 {
				t.Errorf("tag %d: chain edge %v appears %d times, want 2 (one per side)", tag, e, n)
			}
		}
	}
}

func TestMeshCanceledContext(t *testing.T) {
	d := describe(t, crossingNetwork(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Mesh(ctx, d); err == nil {
		t.Error("canceled context should abort meshing")
	}
}
