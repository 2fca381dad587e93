package cull

import "github.com/Faultbox/occlubake/pkg/mesh"

// Adjacency maps a vertex index to the global indices of the triangles that
// use it.
type Adjacency map[uint32][]int

// BuildAdjacency indexes every triangle of a flat index stream by vertex.
func BuildAdjacency(flat []uint32) Adjacency {
	adj := make(Adjacency)
	for g := 0; g*3+2 < len(flat); g++ {
		b := g * 3
		adj[flat[b]] = append(adj[flat[b]], g)
		adj[flat[b+1]] = append(adj[flat[b+1]], g)
		adj[flat[b+2]] = append(adj[flat[b+2]], g)
	}
	return adj
}

// Dilate grows kept by exactly one ring: every triangle sharing a vertex
// with a triangle of kept is added. Only the original members are expanded,
// so triangles two rings away are never added by one call. Indices in kept
// that are outside the mesh are carried over but not expanded.
func Dilate(m *mesh.Mesh, kept Set) Set {
	flat := m.FlatIndices()
	adj := BuildAdjacency(flat)

	dilated := kept.Clone()
	for g := range kept {
		b := g * 3
		if g < 0 || b+2 >= len(flat) {
			continue
		}
		for _, v := range flat[b : b+3] {
			for _, t := range adj[v] {
				dilated.Add(t)
			}
		}
	}
	return dilated
}
