package mesh

import "github.com/Faultbox/occlubake/pkg/math"

// NewBox returns a closed box with 8 shared vertices and 12 outward-facing
// triangles in one submesh. Faces are emitted as -Z, +Z, -X, +X, -Y, +Y,
// two triangles each.
func NewBox(name string, lo, hi math.Vec3) *Mesh {
	m := &Mesh{
		Name: name,
		Vertices: []math.Vec3{
			{X: lo.X, Y: lo.Y, Z: lo.Z},
			{X: hi.X, Y: lo.Y, Z: lo.Z},
			{X: hi.X, Y: hi.Y, Z: lo.Z},
			{X: lo.X, Y: hi.Y, Z: lo.Z},
			{X: lo.X, Y: lo.Y, Z: hi.Z},
			{X: hi.X, Y: lo.Y, Z: hi.Z},
			{X: hi.X, Y: hi.Y, Z: hi.Z},
			{X: lo.X, Y: hi.Y, Z: hi.Z},
		},
		SubMeshes: []SubMesh{{
			Name: name,
			Indices: []uint32{
				0, 2, 1, 0, 3, 2, // -Z
				4, 5, 6, 4, 6, 7, // +Z
				0, 4, 7, 0, 7, 3, // -X
				1, 2, 6, 1, 6, 5, // +X
				0, 1, 5, 0, 5, 4, // -Y
				3, 7, 6, 3, 6, 2, // +Y
			},
		}},
	}
	m.RecalculateBounds()
	return m
}

// NewGrid returns a square grid of cells x cells quads in the XY plane at
// z=0, spanning [-size/2, size/2], facing +Z. Vertices are shared between
// neighbouring quads.
func NewGrid(name string, size float32, cells int) *Mesh {
	if cells < 1 {
		cells = 1
	}
	row := cells + 1
	step := size / float32(cells)
	half := size / 2

	m := &Mesh{Name: name}
	m.Vertices = make([]math.Vec3, 0, row*row)
	m.UV = make([]math.Vec2, 0, row*row)
	for y := 0; y < row; y++ {
		for x := 0; x < row; x++ {
			m.Vertices = append(m.Vertices, math.Vec3{X: -half + float32(x)*step, Y: -half + float32(y)*step})
			m.UV = append(m.UV, math.Vec2{X: float32(x) / float32(cells), Y: float32(y) / float32(cells)})
		}
	}

	indices := make([]uint32, 0, cells*cells*6)
	for y := 0; y < cells; y++ {
		for x := 0; x < cells; x++ {
			a := uint32(y*row + x)
			b := a + 1
			c := a + uint32(row)
			d := c + 1
			indices = append(indices, a, b, d, a, d, c)
		}
	}
	m.SubMeshes = []SubMesh{{Name: name, Indices: indices}}
	m.RecalculateBounds()
	return m
}
