// Package config reads pipeline configuration from gcfg (INI style)
// files: run settings, global mesh sizes, and per-fracture overrides.
package config

import (
	"fmt"
	"io"

	"gopkg.in/gcfg.v1"

	"github.com/akervik/fissure/pkg/geometry"
	"github.com/akervik/fissure/pkg/mesher"
)

const ExampleFile = `[Run]
# Geometric tolerance for intersection and snapping.
Tolerance = 1e-8

# Worker goroutines for the intersection search. 0 means serial.
Workers = 0

# Meshing backend: "gmsh" (external) or "tri" (in-process).
Backend = gmsh

# Path to the gmsh executable when Backend = gmsh.
# GmshPath = /usr/bin/gmsh

# Skip the cross-dimensional conformity validation after assembly.
# SkipMatchCheck = false

# Verbose = false

[Mesh]
# Target element size on fracture surfaces.
Size = 0.5

# Lower bound on element size near intersections.
SizeMin = 0.1

# Element size away from fractures (domain boundary).
SizeBound = 1.0

# Per-fracture mesh size override. The name matches the fracture name
# passed to ParamsFor.
[Fracture "f1"]
Size = 0.25`

type RunConfig struct {
	Tolerance      float64
	Workers        int
	Backend        string
	GmshPath       string
	SkipMatchCheck bool
	Verbose        bool
}

func (c *RunConfig) ValidTolerance() bool {
	return c.Tolerance > 0
}
func (c *RunConfig) ValidWorkers() bool {
	return c.Workers >= 0
}
func (c *RunConfig) ValidBackend() bool {
	return c.Backend == "gmsh" || c.Backend == "tri"
}

type MeshConfig struct {
	Size      float64
	SizeMin   float64
	SizeBound float64
}

func (c *MeshConfig) ValidSize() bool {
	return c.Size > 0
}
func (c *MeshConfig) ValidSizeMin() bool {
	return c.SizeMin > 0 && c.SizeMin <= c.Size
}
func (c *MeshConfig) ValidSizeBound() bool {
	return c.SizeBound >= c.Size
}

// FractureConfig overrides mesh sizes for one named fracture. Zero
// fields fall back to the global [Mesh] section.
type FractureConfig struct {
	Size    float64
	SizeMin float64
}

type Config struct {
	Run      RunConfig
	Mesh     MeshConfig
	Fracture map[string]*FractureConfig
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			Tolerance: float64(geometry.DefaultTolerance),
			Backend:   "gmsh",
		},
		Mesh: MeshConfig{Size: 0.5, SizeMin: 0.1, SizeBound: 1.0},
	}
}

// ReadFile parses and validates a config file, starting from the
// defaults.
func ReadFile(path string) (*Config, error) {
	c := Default()
	if err := gcfg.ReadFileInto(c, path); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Read parses and validates config text from a reader.
func Read(r io.Reader) (*Config, error) {
	c := Default()
	if err := gcfg.ReadInto(c, r); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch {
	case !c.Run.ValidTolerance():
		return fmt.Errorf("config: Run.Tolerance must be positive")
	case !c.Run.ValidWorkers():
		return fmt.Errorf("config: Run.Workers must be non-negative")
	case !c.Run.ValidBackend():
		return fmt.Errorf("config: Run.Backend must be gmsh or tri, got %q", c.Run.Backend)
	case !c.Mesh.ValidSize():
		return fmt.Errorf("config: Mesh.Size must be positive")
	case !c.Mesh.ValidSizeMin():
		return fmt.Errorf("config: Mesh.SizeMin must be in (0, Size]")
	case !c.Mesh.ValidSizeBound():
		return fmt.Errorf("config: Mesh.SizeBound must be >= Size")
	}
	for name, f := range c.Fracture {
		if f.Size < 0 || f.SizeMin < 0 {
			return fmt.Errorf("config: Fracture %q: sizes must be non-negative", name)
		}
	}
	return nil
}

// Tol returns the run tolerance.
func (c *Config) Tol() geometry.Tolerance {
	return geometry.Tolerance(c.Run.Tolerance)
}

// Params returns the global mesh parameters.
func (c *Config) Params() mesher.Params {
	return mesher.Params{
		MeshSize:      c.Mesh.Size,
		MeshSizeMin:   c.Mesh.SizeMin,
		MeshSizeBound: c.Mesh.SizeBound,
	}
}

// ParamsFor returns the mesh parameters for a named fracture, with
// its overrides applied on top of the global section.
func (c *Config) ParamsFor(name string) mesher.Params {
	p := c.Params()
	f, ok := c.Fracture[name]
	if !ok {
		return p
	}
	if f.Size > 0 {
		p.MeshSize = f.Size
	}
	if f.SizeMin > 0 {
		p.MeshSizeMin = f.SizeMin
	}
	return p
}
