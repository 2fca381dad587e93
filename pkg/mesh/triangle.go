package mesh

import (
	"fmt"

	"github.com/Faultbox/occlubake/pkg/math"
)

// Triangle is a world-space view of one triangle of a Mesh. It owns nothing.
type Triangle struct {
	Index   int       // global triangle index
	Indices [3]uint32 // vertex indices
	V0      math.Vec3
	V1      math.Vec3
	V2      math.Vec3
}

// Centroid returns the mean of the three corners.
func (t Triangle) Centroid() math.Vec3 {
	return math.Centroid(t.V0, t.V1, t.V2)
}

// Normal returns the unit normal (v1-v0) x (v2-v0).
func (t Triangle) Normal() math.Vec3 {
	return t.V1.Sub(t.V0).Cross(t.V2.Sub(t.V0)).Normalize()
}

// Corners returns V0, V1, V2 in order.
func (t Triangle) Corners() [3]math.Vec3 {
	return [3]math.Vec3{t.V0, t.V1, t.V2}
}

// TriangleAt builds the world-space view of triangle g from a flat index
// stream (see Mesh.FlatIndices).
func TriangleAt(g int, flat []uint32, vertices []math.Vec3, world math.Mat4) Triangle {
	b := g * 3
	idx := [3]uint32{flat[b], flat[b+1], flat[b+2]}
	return Triangle{
		Index:   g,
		Indices: idx,
		V0:      world.TransformPoint(vertices[idx[0]]),
		V1:      world.TransformPoint(vertices[idx[1]]),
		V2:      world.TransformPoint(vertices[idx[2]]),
	}
}

// Triangle returns the world-space view of global triangle g.
func (m *Mesh) Triangle(g int, world math.Mat4) (Triangle, error) {
	if g < 0 {
		return Triangle{}, fmt.Errorf("triangle %d: negative index", g)
	}
	base := g
	for _, s := range m.SubMeshes {
		n := s.TriangleCount()
		if base < n {
			return TriangleAt(base, s.Indices, m.Vertices, world).withIndex(g), nil
		}
		base -= n
	}
	return Triangle{}, fmt.Errorf("triangle %d: out of range (%d triangles)", g, m.TriangleCount())
}

// WorldTriangles returns every triangle in global order.
func (m *Mesh) WorldTriangles(world math.Mat4) []Triangle {
	flat := m.FlatIndices()
	tris := make([]Triangle, len(flat)/3)
	for g := range tris {
		tris[g] = TriangleAt(g, flat, m.Vertices, world)
	}
	return tris
}

func (t Triangle) withIndex(g int) Triangle {
	t.Index = g
	return t
}
