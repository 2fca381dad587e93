package formats

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Faultbox/occlubake/pkg/math"
	"github.com/Faultbox/occlubake/pkg/mesh"
)

const quadOBJ = `# unit quad
o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
g front
f 1 2 3 4
`

func TestReadOBJ_FanTriangulation(t *testing.T) {
	m, err := ReadOBJ(strings.NewReader(quadOBJ), "quad")
	if err != nil {
		t.Fatalf("ReadOBJ failed: %v", err)
	}
	if m.VertexCount() != 4 {
		t.Errorf("expected 4 vertices, got %d", m.VertexCount())
	}
	if len(m.SubMeshes) != 1 {
		t.Fatalf("expected 1 submesh, got %d", len(m.SubMeshes))
	}
	if m.SubMeshes[0].Name != "front" {
		t.Errorf("expected submesh 'front', got %q", m.SubMeshes[0].Name)
	}
	want := []uint32{0, 1, 2, 0, 2, 3}
	for i, idx := range want {
		if m.SubMeshes[0].Indices[i] != idx {
			t.Errorf("index %d: expected %d, got %d", i, idx, m.SubMeshes[0].Indices[i])
		}
	}
	if m.Bounds.Max != (math.Vec3{X: 1, Y: 1, Z: 0}) {
		t.Errorf("unexpected bounds max %v", m.Bounds.Max)
	}
}

func TestReadOBJ_NegativeIndices(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\n"
	m, err := ReadOBJ(strings.NewReader(src), "tri")
	if err != nil {
		t.Fatalf("ReadOBJ failed: %v", err)
	}
	if m.TriangleCount() != 1 {
		t.Fatalf("expected 1 triangle, got %d", m.TriangleCount())
	}
	if got := m.SubMeshes[0].Indices; got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Errorf("unexpected indices %v", got)
	}
}

func TestReadOBJ_MultipleGroups(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
usemtl wood
f 1 2 3
usemtl stone
f 2 4 3
f 1 2 4
`
	m, err := ReadOBJ(strings.NewReader(src), "two")
	if err != nil {
		t.Fatalf("ReadOBJ failed: %v", err)
	}
	if len(m.SubMeshes) != 2 {
		t.Fatalf("expected 2 submeshes, got %d", len(m.SubMeshes))
	}
	if m.SubMeshes[0].TriangleCount() != 1 || m.SubMeshes[1].TriangleCount() != 2 {
		t.Errorf("unexpected triangle split %d/%d", m.SubMeshes[0].TriangleCount(), m.SubMeshes[1].TriangleCount())
	}
	if m.SubMeshes[1].Name != "stone" {
		t.Errorf("expected 'stone', got %q", m.SubMeshes[1].Name)
	}
}

func TestReadOBJ_SplitsCornersWithDistinctAttributes(t *testing.T) {
	// Vertex 1 is used with two different UVs, so it must be split.
	src := `v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
vt 0.5 0.5
f 1/1 2/2 3/3
f 1/4 3/3 2/2
`
	m, err := ReadOBJ(strings.NewReader(src), "split")
	if err != nil {
		t.Fatalf("ReadOBJ failed: %v", err)
	}
	if m.VertexCount() != 4 {
		t.Errorf("expected 4 vertices after split, got %d", m.VertexCount())
	}
	if len(m.UV) != m.VertexCount() {
		t.Errorf("uv channel length %d does not match %d vertices", len(m.UV), m.VertexCount())
	}
	if err := m.Validate(); err != nil {
		t.Errorf("mesh failed validation: %v", err)
	}
}

func TestReadOBJ_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"short vertex", "v 1 2\n"},
		{"bad float", "v 1 x 2\n"},
		{"short face", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
		{"index zero", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n"},
		{"index out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n"},
		{"missing position", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf /1 2 3\n"},
		{"too many slashes", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/1/1/1 2 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadOBJ(strings.NewReader(tt.src), "bad")
			if !errors.Is(err, ErrInvalidOBJ) {
				t.Errorf("expected ErrInvalidOBJ, got %v", err)
			}
		})
	}
}

func TestWriteOBJ_RoundTrip(t *testing.T) {
	src := mesh.NewBox("crate box", math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1})
	src.Normals = make([]math.Vec3, len(src.Vertices))
	for i, v := range src.Vertices {
		src.Normals[i] = v.Normalize()
	}

	var buf bytes.Buffer
	if err := WriteOBJ(&buf, src); err != nil {
		t.Fatalf("WriteOBJ failed: %v", err)
	}
	if !strings.Contains(buf.String(), "g crate_box\n") {
		t.Errorf("expected sanitized group name in output:\n%s", buf.String())
	}

	got, err := ReadOBJ(&buf, "crate")
	if err != nil {
		t.Fatalf("ReadOBJ failed: %v", err)
	}
	if got.VertexCount() != 8 {
		t.Errorf("expected vertex order to be kept (8 vertices), got %d", got.VertexCount())
	}
	if len(got.Normals) != 8 {
		t.Errorf("expected 8 normals, got %d", len(got.Normals))
	}
	for i, idx := range src.SubMeshes[0].Indices {
		if got.SubMeshes[0].Indices[i] != idx {
			t.Fatalf("index %d: expected %d, got %d", i, idx, got.SubMeshes[0].Indices[i])
		}
	}
}

func TestWritePointsOBJ(t *testing.T) {
	var buf bytes.Buffer
	points := []math.Vec3{{X: 1, Y: 2, Z: 3}, {X: -0.5}}
	if err := WritePointsOBJ(&buf, points); err != nil {
		t.Fatalf("WritePointsOBJ failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"v 1 2 3\n", "v -0.5 0 0\n", "p 1 2\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}
