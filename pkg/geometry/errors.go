package geometry

import "fmt"

// GeometryError reports degenerate or contradictory geometric input:
// zero-area polygons, loops with too few distinct vertices after
// snapping, or coplanar overlaps with no supported subdivision.
type GeometryError struct {
	Polygon PolygonID // NoParent when no polygon is involved
	Reason  string
}

func (e *GeometryError) Error() string {
	if e.Polygon >= 0 {
		return fmt.Sprintf("geometry: polygon %d: %s", e.Polygon, e.Reason)
	}
	return "geometry: " + e.Reason
}
