package fissure

import (
	"context"
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/akervik/fissure/pkg/config"
	"github.com/akervik/fissure/pkg/geometry"
	"github.com/akervik/fissure/pkg/network"
)

// TestE2ECrossingFractures exercises the full path: network → intersect
// → split → mesh → bucket, through the App entry point with the
// in-process backend.
func TestE2ECrossingFractures(t *testing.T) {
	cfg := config.Default()
	cfg.Run.Backend = "tri"
	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}

	tol := cfg.Tol()
	net := network.New(tol)
	for _, verts := range [][]v3.Vec{
		{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}},
		{{X: -1, Z: -1}, {X: 1, Z: -1}, {X: 1, Z: 1}, {X: -1, Z: 1}},
	} {
		p, err := geometry.NewPolygon(verts, tol)
		if err != nil {
			t.Fatal(err)
		}
		net.Add(p)
	}

	result, err := app.Mesh(context.Background(), net)
	if err != nil {
		t.Fatalf("Mesh: %v", err)
	}
	if len(result.Failures) > 0 {
		t.Fatalf("unexpected failures: %v", result.Failures)
	}
	if !result.Validated {
		t.Error("conforming run should be validated")
	}

	// Two fracture surfaces and their intersection line.
	if len(result.Grids) != 3 {
		t.Fatalf("grids = %d, want 3", len(result.Grids))
	}
	dims := map[int]int{}
	for _, g := range result.Grids {
		dims[g.Dim]++
		if g.Nodes == 0 || g.Cells == 0 {
			t.Errorf("grid tag %d: empty (%d nodes, %d cells)", g.Tag, g.Nodes, g.Cells)
		}
	}
	if dims[2] != 2 || dims[1] != 1 {
		t.Errorf("grid dims = %v, want two 2d and one 1d", dims)
	}
	if len(result.Edges) != 2 {
		t.Errorf("edges = %d, want 2", len(result.Edges))
	}
	for _, e := range result.Edges {
		if e.Matches == 0 {
			t.Errorf("edge %d→%d: no face matches", e.HigherTag, e.LowerTag)
		}
	}
	if result.Bucket == nil {
		t.Fatal("result carries no bucket")
	}
}

func TestE2EPlanarNetwork(t *testing.T) {
	cfg := config.Default()
	cfg.Run.Backend = "tri"
	// The in-process backend cannot embed fracture lines in the matrix
	// triangulation.
	cfg.Run.SkipMatchCheck = true
	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}

	tol := cfg.Tol()
	net := network.New(tol)
	s, err := geometry.NewSegment(v3.Vec{X: 0, Y: 0}, v3.Vec{X: 0, Y: 2}, tol)
	if err != nil {
		t.Fatal(err)
	}
	net.Add(s)
	if _, err := net.ImposeExternalBoundary(network.Box{
		Min: v3.Vec{X: -2, Y: -2}, Max: v3.Vec{X: 3, Y: 3},
	}); err != nil {
		t.Fatal(err)
	}

	result, err := app.Mesh(context.Background(), net)
	if err != nil {
		t.Fatalf("Mesh: %v", err)
	}
	if result.Validated {
		t.Error("run with matching disabled must not report validated")
	}
	if len(result.Grids) != 2 {
		t.Fatalf("grids = %d, want matrix + fracture", len(result.Grids))
	}
	if result.Grids[0].Dim != 2 || math.Abs(result.Grids[0].Measure-25) > 1e-9 {
		t.Errorf("matrix grid = %+v, want dim 2 area 25", result.Grids[0])
	}
	if result.Grids[1].Dim != 1 || math.Abs(result.Grids[1].Measure-2) > 1e-9 {
		t.Errorf("fracture grid = %+v, want dim 1 length 2", result.Grids[1])
	}
}

func TestMeshReportsSplitFailures(t *testing.T) {
	cfg := config.Default()
	cfg.Run.Backend = "tri"
	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}

	// Coplanar overlapping squares: the run aborts before meshing and
	// the per-pair diagnostic surfaces in Failures.
	tol := cfg.Tol()
	net := network.New(tol)
	for _, verts := range [][]v3.Vec{
		{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}},
		{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}},
	} {
		p, err := geometry.NewPolygon(verts, tol)
		if err != nil {
			t.Fatal(err)
		}
		net.Add(p)
	}

	result, err := app.Mesh(context.Background(), net)
	if err == nil {
		t.Fatal("overlapping fractures should fail the run")
	}
	if len(result.Failures) != 1 {
		t.Errorf("failures = %v, want one entry for the pair", result.Failures)
	}
	if result.Bucket != nil {
		t.Error("aborted run should carry no bucket")
	}
}

func TestNewAppRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Run.Backend = "tetgen"
	if _, err := NewApp(cfg); err == nil {
		t.Error("unknown backend should be rejected")
	}
}
