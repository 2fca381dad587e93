package cull

import (
	"errors"

	"github.com/Faultbox/occlubake/pkg/mesh"
)

// ErrEmptyKeptSet is returned by Rebuild when there is nothing to keep.
var ErrEmptyKeptSet = errors.New("kept triangle set is empty")

// Rebuild returns a new mesh with the vertex buffer and every attribute
// channel of src copied unchanged and each submesh filtered down to the
// triangles in kept. Vertices are never removed or renumbered, so vertices
// no longer referenced stay in the output. Submesh count and triangle order
// within each submesh are preserved.
func Rebuild(src *mesh.Mesh, kept Set) (*mesh.Mesh, error) {
	if kept.Len() == 0 {
		return nil, ErrEmptyKeptSet
	}

	out := src.CloneVertexData()
	g := 0
	for si, sub := range src.SubMeshes {
		indices := make([]uint32, 0, len(sub.Indices))
		for k := 0; k+2 < len(sub.Indices); k += 3 {
			if kept.Has(g) {
				indices = append(indices, sub.Indices[k], sub.Indices[k+1], sub.Indices[k+2])
			}
			g++
		}
		out.SubMeshes[si].Indices = indices
	}

	out.RecalculateBounds()
	out.Optimize()
	return out, nil
}
