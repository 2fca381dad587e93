// Package mesh holds the triangle mesh model shared by the loaders, the
// visibility kernel and the writers.
package mesh

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Faultbox/occlubake/pkg/math"
)

// Mesh validation errors.
var (
	ErrIndexCount      = errors.New("index count is not a multiple of 3")
	ErrIndexOutOfRange = errors.New("triangle index out of vertex range")
	ErrChannelLength   = errors.New("attribute channel length does not match vertex count")
)

// IndexFormat is the storage width chosen for index buffers.
type IndexFormat uint8

const (
	IndexFormat16 IndexFormat = 16
	IndexFormat32 IndexFormat = 32
)

// BoneWeight binds a vertex to up to four bones.
type BoneWeight struct {
	Bones   [4]int32
	Weights [4]float32
}

// SubMesh is a named partition of the triangle list, usually one material slot.
type SubMesh struct {
	Name    string
	Indices []uint32 // 3 per triangle, offsets into Mesh.Vertices
}

// TriangleCount returns the number of triangles in the submesh.
func (s SubMesh) TriangleCount() int {
	return len(s.Indices) / 3
}

// Mesh is an indexed triangle mesh with parallel per-vertex channels.
// Channels are either empty or exactly as long as Vertices. BindPoses are
// per bone, not per vertex.
type Mesh struct {
	Name string

	Vertices    []math.Vec3
	UV          []math.Vec2
	Normals     []math.Vec3
	Tangents    []math.Vec4
	BoneWeights []BoneWeight
	BindPoses   []math.Mat4

	SubMeshes []SubMesh

	Bounds      Bounds
	IndexFormat IndexFormat
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// TriangleCount returns the number of triangles across all submeshes.
func (m *Mesh) TriangleCount() int {
	n := 0
	for _, s := range m.SubMeshes {
		n += s.TriangleCount()
	}
	return n
}

// Validate checks index and channel invariants.
func (m *Mesh) Validate() error {
	n := len(m.Vertices)
	channels := []struct {
		name string
		size int
	}{
		{"uv", len(m.UV)},
		{"normals", len(m.Normals)},
		{"tangents", len(m.Tangents)},
		{"bone weights", len(m.BoneWeights)},
	}
	for _, c := range channels {
		if c.size != 0 && c.size != n {
			return fmt.Errorf("%w: %s has %d entries, mesh has %d vertices", ErrChannelLength, c.name, c.size, n)
		}
	}

	for si, s := range m.SubMeshes {
		if len(s.Indices)%3 != 0 {
			return fmt.Errorf("%w: submesh %d has %d indices", ErrIndexCount, si, len(s.Indices))
		}
		for i, idx := range s.Indices {
			if int(idx) >= n {
				return fmt.Errorf("%w: submesh %d index %d = %d, vertex count %d", ErrIndexOutOfRange, si, i, idx, n)
			}
		}
	}
	return nil
}

// FlatIndices returns all submesh index streams concatenated in submesh
// order, so triangle g occupies [3g, 3g+3).
func (m *Mesh) FlatIndices() []uint32 {
	flat := make([]uint32, 0, m.TriangleCount()*3)
	for _, s := range m.SubMeshes {
		flat = append(flat, s.Indices...)
	}
	return flat
}

// RecalculateBounds recomputes Bounds from the vertex buffer.
func (m *Mesh) RecalculateBounds() {
	m.Bounds = BoundsOf(m.Vertices)
}

// Optimize compacts the index storage and picks the narrowest index format
// that can address every vertex. Triangle membership and vertex numbering
// are unchanged.
func (m *Mesh) Optimize() {
	for i := range m.SubMeshes {
		m.SubMeshes[i].Indices = slices.Clip(slices.Clone(m.SubMeshes[i].Indices))
	}
	if len(m.Vertices) <= 1<<16 {
		m.IndexFormat = IndexFormat16
	} else {
		m.IndexFormat = IndexFormat32
	}
}

// CloneVertexData returns a mesh sharing nothing with m that has the same
// vertices and channels and one empty submesh per source submesh.
func (m *Mesh) CloneVertexData() *Mesh {
	out := &Mesh{
		Name:        m.Name,
		Vertices:    slices.Clone(m.Vertices),
		UV:          slices.Clone(m.UV),
		Normals:     slices.Clone(m.Normals),
		Tangents:    slices.Clone(m.Tangents),
		BoneWeights: slices.Clone(m.BoneWeights),
		BindPoses:   slices.Clone(m.BindPoses),
		SubMeshes:   make([]SubMesh, len(m.SubMeshes)),
		IndexFormat: m.IndexFormat,
	}
	for i, s := range m.SubMeshes {
		out.SubMeshes[i].Name = s.Name
	}
	return out
}
