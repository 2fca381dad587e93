package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Faultbox/occlubake/pkg/math"
	"github.com/Faultbox/occlubake/pkg/mesh"
)

// createTestMesh builds a box with every optional channel populated.
func createTestMesh() *mesh.Mesh {
	m := mesh.NewBox("crate", math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1})
	n := len(m.Vertices)
	m.UV = make([]math.Vec2, n)
	m.Normals = make([]math.Vec3, n)
	m.Tangents = make([]math.Vec4, n)
	m.BoneWeights = make([]mesh.BoneWeight, n)
	for i := 0; i < n; i++ {
		m.UV[i] = math.Vec2{X: float32(i) / 8, Y: 1 - float32(i)/8}
		m.Normals[i] = m.Vertices[i].Normalize()
		m.Tangents[i] = math.Vec4{X: 1, W: -1}
		m.BoneWeights[i] = mesh.BoneWeight{Bones: [4]int32{int32(i % 2), 0, 0, 0}, Weights: [4]float32{1, 0, 0, 0}}
	}
	m.BindPoses = []math.Mat4{math.Identity(), math.Translate(0, 2, 0)}
	m.SubMeshes = append(m.SubMeshes, mesh.SubMesh{Name: "empty"})
	m.Optimize()
	return m
}

func encode(t *testing.T, m *mesh.Mesh) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteMesh(&buf, m); err != nil {
		t.Fatalf("WriteMesh failed: %v", err)
	}
	return buf.Bytes()
}

func TestWriteMesh_RoundTrip(t *testing.T) {
	src := createTestMesh()
	got, err := ParseMesh(encode(t, src))
	if err != nil {
		t.Fatalf("ParseMesh failed: %v", err)
	}

	if got.Name != "crate" {
		t.Errorf("expected name 'crate', got %q", got.Name)
	}
	if got.VertexCount() != 8 {
		t.Fatalf("expected 8 vertices, got %d", got.VertexCount())
	}
	for i := range src.Vertices {
		if got.Vertices[i] != src.Vertices[i] {
			t.Errorf("vertex %d: expected %v, got %v", i, src.Vertices[i], got.Vertices[i])
		}
		if got.UV[i] != src.UV[i] {
			t.Errorf("uv %d: expected %v, got %v", i, src.UV[i], got.UV[i])
		}
		if got.Tangents[i] != src.Tangents[i] {
			t.Errorf("tangent %d: expected %v, got %v", i, src.Tangents[i], got.Tangents[i])
		}
		if got.BoneWeights[i] != src.BoneWeights[i] {
			t.Errorf("bone weight %d: expected %v, got %v", i, src.BoneWeights[i], got.BoneWeights[i])
		}
	}
	if len(got.BindPoses) != 2 || got.BindPoses[1] != src.BindPoses[1] {
		t.Errorf("bind poses not preserved: %v", got.BindPoses)
	}
	if got.IndexFormat != mesh.IndexFormat16 {
		t.Errorf("expected 16-bit indices, got %d", got.IndexFormat)
	}
	if got.Bounds != src.Bounds {
		t.Errorf("expected bounds %v, got %v", src.Bounds, got.Bounds)
	}
	if len(got.SubMeshes) != 2 {
		t.Fatalf("expected 2 submeshes, got %d", len(got.SubMeshes))
	}
	if got.SubMeshes[1].Name != "empty" || len(got.SubMeshes[1].Indices) != 0 {
		t.Errorf("empty submesh not preserved: %+v", got.SubMeshes[1])
	}
	for i, idx := range src.SubMeshes[0].Indices {
		if got.SubMeshes[0].Indices[i] != idx {
			t.Errorf("index %d: expected %d, got %d", i, idx, got.SubMeshes[0].Indices[i])
		}
	}
}

func TestWriteMesh_OptionalChannelsOmitted(t *testing.T) {
	src := mesh.NewBox("bare", math.Vec3{}, math.Vec3{X: 1, Y: 1, Z: 1})
	got, err := ParseMesh(encode(t, src))
	if err != nil {
		t.Fatalf("ParseMesh failed: %v", err)
	}
	if got.UV != nil || got.Normals != nil || got.Tangents != nil || got.BoneWeights != nil {
		t.Error("expected absent channels to stay nil")
	}
	if got.TriangleCount() != 12 {
		t.Errorf("expected 12 triangles, got %d", got.TriangleCount())
	}
}

func TestWriteMesh_WideIndicesStay32Bit(t *testing.T) {
	src := &mesh.Mesh{
		Name:        "wide",
		Vertices:    make([]math.Vec3, 70000),
		SubMeshes:   []mesh.SubMesh{{Indices: []uint32{0, 1, 69999}}},
		IndexFormat: mesh.IndexFormat16,
	}
	got, err := ParseMesh(encode(t, src))
	if err != nil {
		t.Fatalf("ParseMesh failed: %v", err)
	}
	if got.IndexFormat != mesh.IndexFormat32 {
		t.Errorf("expected 32-bit indices, got %d", got.IndexFormat)
	}
	if got.SubMeshes[0].Indices[2] != 69999 {
		t.Errorf("expected index 69999, got %d", got.SubMeshes[0].Indices[2])
	}
}

func TestParseMesh_InvalidMagic(t *testing.T) {
	data := []byte("XXXX\x01\x00")
	_, err := ParseMesh(data)
	if !errors.Is(err, ErrInvalidMeshMagic) {
		t.Errorf("expected ErrInvalidMeshMagic, got %v", err)
	}
}

func TestParseMesh_UnsupportedVersion(t *testing.T) {
	data := []byte("OMSH\x02\x00")
	_, err := ParseMesh(data)
	if !errors.Is(err, ErrUnsupportedMeshVersion) {
		t.Errorf("expected ErrUnsupportedMeshVersion, got %v", err)
	}
}

func TestParseMesh_Truncated(t *testing.T) {
	full := encode(t, createTestMesh())

	tests := []struct {
		name string
		size int
	}{
		{"empty", 0},
		{"magic only", 4},
		{"header cut", 12},
		{"vertices cut", 60},
		{"indices cut", len(full) - 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMesh(full[:tt.size])
			if !errors.Is(err, ErrTruncatedMeshData) {
				t.Errorf("expected ErrTruncatedMeshData, got %v", err)
			}
		})
	}
}

func TestParseMesh_HugeCountRejected(t *testing.T) {
	buf := new(bytes.Buffer)
	buf.WriteString("OMSH")
	buf.WriteByte(1)
	buf.WriteByte(0)
	binary.Write(buf, binary.LittleEndian, uint16(0))          // name
	binary.Write(buf, binary.LittleEndian, uint32(0xFFFFFFFF)) // vertex count
	buf.Write(make([]byte, 34))

	_, err := ParseMesh(buf.Bytes())
	if !errors.Is(err, ErrTruncatedMeshData) {
		t.Errorf("expected ErrTruncatedMeshData, got %v", err)
	}
}

func TestMeshVersion_String(t *testing.T) {
	v := MeshVersion{Major: 1, Minor: 0}
	if v.String() != "1.0" {
		t.Errorf("expected '1.0', got %q", v.String())
	}
}

func TestParseMeshFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crate.omsh")
	if err := WriteMeshFile(path, createTestMesh()); err != nil {
		t.Fatalf("WriteMeshFile failed: %v", err)
	}
	m, err := ParseMeshFile(path)
	if err != nil {
		t.Fatalf("ParseMeshFile failed: %v", err)
	}
	if m.TriangleCount() != 12 {
		t.Errorf("expected 12 triangles, got %d", m.TriangleCount())
	}

	if _, err := ParseMeshFile(filepath.Join(t.TempDir(), "missing.omsh")); err == nil {
		t.Error("expected error for missing file")
	}
}
