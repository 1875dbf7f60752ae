// Package geometry defines the primitive types for fracture meshing:
// the shared tolerance, planes and in-plane frames, and the simple
// planar polygon that represents a fracture. All approximate-equality
// decisions in the pipeline go through the single Tolerance value
// defined here.
package geometry
