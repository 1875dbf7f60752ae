// Package fissure meshes networks of intersecting fractures into
// mixed-dimensional grids: a matrix grid plus lower-dimensional grids
// for fracture surfaces, intersection lines, and crossing points,
// connected by face-to-cell mappings.
package fissure

import (
	"context"
	"errors"

	"github.com/akervik/fissure/pkg/config"
	"github.com/akervik/fissure/pkg/grid"
	"github.com/akervik/fissure/pkg/mesher"
	"github.com/akervik/fissure/pkg/mesher/gmsh"
	"github.com/akervik/fissure/pkg/mesher/tri"
	"github.com/akervik/fissure/pkg/network"
	"github.com/akervik/fissure/pkg/pipeline"
)

// App ties configuration, backend selection, and the meshing pipeline
// together behind one entry point.
type App struct {
	cfg    *config.Config
	mesher mesher.Mesher
}

// GridData is a JSON-serializable summary of one grid in the result.
type GridData struct {
	Dim     int     `json:"dim"`
	Tag     int     `json:"tag"`
	Nodes   int     `json:"nodes"`
	Cells   int     `json:"cells"`
	Measure float64 `json:"measure"`
}

// EdgeData is a JSON-serializable summary of one cross-dimensional
// connection.
type EdgeData struct {
	HigherTag int `json:"higherTag"`
	LowerTag  int `json:"lowerTag"`
	Matches   int `json:"matches"`
}

// Result is the full outcome of one meshing run. Failures lists the
// per-fracture problems of a run that aborted before meshing; Bucket is
// nil in that case.
type Result struct {
	Grids     []GridData `json:"grids"`
	Edges     []EdgeData `json:"edges"`
	Validated bool       `json:"validated"`
	Failures  []string   `json:"failures"`

	Bucket *grid.Bucket `json:"-"`
}

// NewApp builds an App from a configuration; nil means defaults. The
// configured backend decides the mesher: "gmsh" runs the external
// binary, "tri" triangulates in process.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg}
	switch cfg.Run.Backend {
	case "tri":
		a.mesher = tri.New()
	default:
		m := gmsh.New()
		m.Path = cfg.Run.GmshPath
		a.mesher = m
	}
	return a, nil
}

// Mesh runs the full pipeline on a network and summarizes the bucket.
// Geometry and split failures abort the run; they are returned and also
// unpacked into Result.Failures for reporting.
func (a *App) Mesh(ctx context.Context, net *network.Network) (Result, error) {
	result := Result{
		Grids:    []GridData{},
		Edges:    []EdgeData{},
		Failures: []string{},
	}

	bucket, err := pipeline.Run(ctx, net, a.mesher, a.cfg.Params(), pipeline.Options{
		Tol:            a.cfg.Tol(),
		Workers:        a.cfg.Run.Workers,
		SkipMatchCheck: a.cfg.Run.SkipMatchCheck,
		Verbose:        a.cfg.Run.Verbose,
	})
	if err != nil {
		var runErrs *pipeline.RunErrors
		if !errors.As(err, &runErrs) {
			return result, err
		}
		// Split failures abort before meshing; there is no bucket to
		// summarize, but the per-fracture diagnostics are still useful.
		for _, e := range runErrs.Errs {
			result.Failures = append(result.Failures, e.Error())
		}
		return result, err
	}

	result.Bucket = bucket
	result.Validated = bucket.MatchingValidated
	for _, g := range bucket.Grids() {
		result.Grids = append(result.Grids, GridData{
			Dim:     g.Dim,
			Tag:     int(g.Tag),
			Nodes:   g.NumNodes(),
			Cells:   g.NumCells(),
			Measure: g.TotalMeasure(),
		})
	}
	if err := bucket.EachEdge(func(e *grid.Edge, _ *grid.Table) error {
		result.Edges = append(result.Edges, EdgeData{
			HigherTag: int(e.Higher.Tag),
			LowerTag:  int(e.Lower.Tag),
			Matches:   len(e.FaceCells),
		})
		return nil
	}); err != nil {
		return result, err
	}
	return result, nil
}
