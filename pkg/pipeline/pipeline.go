// Package pipeline drives the full fracture-meshing run: intersection
// search, network splitting, mesh generation, and assembly of the
// mixed-dimensional grid bucket.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/akervik/fissure/pkg/geometry"
	"github.com/akervik/fissure/pkg/grid"
	"github.com/akervik/fissure/pkg/intersect"
	"github.com/akervik/fissure/pkg/mesher"
	"github.com/akervik/fissure/pkg/network"
	"github.com/akervik/fissure/pkg/split"
)

// Options control a pipeline run. The zero value is usable: default
// tolerance, serial intersection search, full conformity validation.
type Options struct {
	Tol     geometry.Tolerance
	Workers int

	// SkipMatchCheck passes through to the assembler; the resulting
	// bucket reports MatchingValidated=false.
	SkipMatchCheck bool

	// Schema declares the data fields of the bucket. Nil gives an
	// empty schema.
	Schema *grid.Schema

	// Verbose enables progress logging of the run stages.
	Verbose bool
}

// RunErrors collects the geometry and split failures of one run. The
// split stage visits every polygon before the run aborts, so one bad
// fracture does not hide failures in the rest.
type RunErrors struct {
	Errs []error
}

func (e *RunErrors) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d failure(s): %s", len(e.Errs), strings.Join(msgs, "; "))
}

func (e *RunErrors) Unwrap() []error { return e.Errs }

// Run executes the pipeline on a network. Geometry and split failures
// are batched into RunErrors and abort the run before meshing; a mesher
// failure is reported on its own.
func Run(ctx context.Context, net *network.Network, m mesher.Mesher, params mesher.Params, opts Options) (*grid.Bucket, error) {
	tol := opts.Tol.Or(net.Tol)
	logf := func(format string, args ...any) {
		if opts.Verbose {
			log.Printf("pipeline: "+format, args...)
		}
	}

	logf("intersecting %d polygons", len(net.Polygons()))
	finder := intersect.Finder{Tol: tol, Workers: opts.Workers}
	xs, err := finder.FindAll(ctx, net)
	if err != nil {
		return nil, fmt.Errorf("intersect: %w", err)
	}
	logf("found %d intersections", len(xs))

	splitter := split.Splitter{Tol: tol}
	res, splitErrs := splitter.SplitAll(net, xs)
	if len(splitErrs) > 0 {
		// The mesher contract requires a conforming, non-intersecting
		// network; a partially split one is not meshable.
		return nil, &RunErrors{Errs: splitErrs}
	}
	logf("split into %d polygons, %d crossing points", len(net.Polygons()), len(res.CrossPoints))

	desc, err := mesher.Build(net, xs, res, params)
	if err != nil {
		return nil, fmt.Errorf("describe: %w", err)
	}

	logf("meshing %dd description, %d nodes", desc.Dim, len(desc.Nodes))
	out, err := m.Mesh(ctx, desc)
	if err != nil {
		// External mesher failures carry their output for diagnosis;
		// they are never downgraded to a batch entry.
		var runErr *mesher.RunError
		if errors.As(err, &runErr) {
			return nil, runErr
		}
		return nil, fmt.Errorf("mesh: %w", err)
	}

	asm := grid.Assembler{Tol: tol, Schema: opts.Schema, SkipMatchCheck: opts.SkipMatchCheck}
	bucket, err := asm.Assemble(desc, out)
	if err != nil {
		return bucket, err
	}
	logf("assembled %d grids, %d edges", bucket.NumGrids(), bucket.NumEdges())

	return bucket, nil
}
