// Package gmsh drives the external gmsh binary as a mesher backend.
// The description is written as a .geo file with physical groups
// matching the entity tags, gmsh runs as a context-bounded
// subprocess, and the resulting .msh (format 2.2) is parsed back into
// per-entity sub-grids. Any abnormal exit surfaces as a RunError with
// gmsh's own diagnostics attached.
package gmsh

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/akervik/fissure/pkg/mesher"
)

// Compile-time interface check.
var _ mesher.Mesher = (*Mesher)(nil)

// Mesher invokes the gmsh binary.
type Mesher struct {
	// Path of the gmsh executable; "gmsh" on PATH when empty.
	Path string
	// Dir for the .geo/.msh exchange files; a fresh temp directory
	// when empty.
	Dir string
	// KeepFiles leaves the exchange files behind for debugging.
	KeepFiles bool
}

// New returns a backend using the gmsh binary on PATH.
func New() *Mesher {
	return &Mesher{}
}

// Mesh writes the geometry, runs gmsh, and parses the result.
func (m *Mesher) Mesh(ctx context.Context, d *mesher.Description) (*mesher.Output, error) {
	dir := m.Dir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "fissure-gmsh-")
		if err != nil {
			return nil, &mesher.RunError{Backend: "gmsh", Err: err}
		}
		if !m.KeepFiles {
			defer os.RemoveAll(tmp)
		}
		dir = tmp
	}

	geoPath := filepath.Join(dir, "network.geo")
	mshPath := filepath.Join(dir, "network.msh")

	var geo bytes.Buffer
	if err := writeGeo(&geo, d); err != nil {
		return nil, &mesher.RunError{Backend: "gmsh", Err: err}
	}
	if err := os.WriteFile(geoPath, geo.Bytes(), 0o644); err != nil {
		return nil, &mesher.RunError{Backend: "gmsh", Err: err}
	}

	bin := m.Path
	if bin == "" {
		bin = "gmsh"
	}
	args := []string{fmt.Sprintf("-%d", d.Dim), "-format", "msh2", geoPath, "-o", mshPath}
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr, stdout bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, &mesher.RunError{
			Backend: "gmsh",
			Output:  stdout.String() + stderr.String(),
			Err:     err,
		}
	}

	raw, err := os.ReadFile(mshPath)
	if err != nil {
		return nil, &mesher.RunError{Backend: "gmsh", Output: stderr.String(), Err: err}
	}
	out, err := parseMsh(bytes.NewReader(raw))
	if err != nil {
		return nil, &mesher.RunError{Backend: "gmsh", Output: stderr.String(), Err: err}
	}
	return out, nil
}
