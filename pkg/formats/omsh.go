package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/occlubake/pkg/math"
	"github.com/Faultbox/occlubake/pkg/mesh"
)

// OMSH format errors.
var (
	ErrInvalidMeshMagic       = errors.New("invalid mesh magic: expected 'OMSH'")
	ErrUnsupportedMeshVersion = errors.New("unsupported mesh version")
	ErrTruncatedMeshData      = errors.New("truncated mesh data")
)

const omshMagic = "OMSH"

// Current OMSH version written by WriteMesh.
const (
	omshMajor = 1
	omshMinor = 0
)

// Channel presence flags.
const (
	channelUV uint8 = 1 << iota
	channelNormals
	channelTangents
	channelBoneWeights
)

// MeshVersion represents the OMSH file version.
type MeshVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v MeshVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// header is the fixed-size part following magic and version.
type header struct {
	VertexCount   uint32
	Channels      uint8
	IndexFormat   uint8
	BindPoseCount uint32
	SubMeshCount  uint32
	BoundsMin     math.Vec3
	BoundsMax     math.Vec3
}

// ParseMesh parses OMSH data from a byte slice.
func ParseMesh(data []byte) (*mesh.Mesh, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedMeshData
	}
	if string(data[0:4]) != omshMagic {
		return nil, ErrInvalidMeshMagic
	}

	version := MeshVersion{Major: data[4], Minor: data[5]}
	if version.Major != omshMajor {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMeshVersion, version)
	}

	r := bytes.NewReader(data[6:])

	name, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading name", ErrTruncatedMeshData)
	}

	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedMeshData)
	}

	// Reject counts the remaining bytes cannot possibly hold before allocating.
	if int64(h.VertexCount)*12 > int64(r.Len()) {
		return nil, fmt.Errorf("%w: %d vertices declared, %d bytes left", ErrTruncatedMeshData, h.VertexCount, r.Len())
	}

	m := &mesh.Mesh{
		Name:        name,
		Bounds:      mesh.Bounds{Min: h.BoundsMin, Max: h.BoundsMax},
		IndexFormat: mesh.IndexFormat(h.IndexFormat),
	}
	n := int(h.VertexCount)

	m.Vertices = make([]math.Vec3, n)
	if err := binary.Read(r, binary.LittleEndian, m.Vertices); err != nil {
		return nil, fmt.Errorf("%w: reading vertices", ErrTruncatedMeshData)
	}
	if h.Channels&channelUV != 0 {
		m.UV = make([]math.Vec2, n)
		if err := binary.Read(r, binary.LittleEndian, m.UV); err != nil {
			return nil, fmt.Errorf("%w: reading uv", ErrTruncatedMeshData)
		}
	}
	if h.Channels&channelNormals != 0 {
		m.Normals = make([]math.Vec3, n)
		if err := binary.Read(r, binary.LittleEndian, m.Normals); err != nil {
			return nil, fmt.Errorf("%w: reading normals", ErrTruncatedMeshData)
		}
	}
	if h.Channels&channelTangents != 0 {
		m.Tangents = make([]math.Vec4, n)
		if err := binary.Read(r, binary.LittleEndian, m.Tangents); err != nil {
			return nil, fmt.Errorf("%w: reading tangents", ErrTruncatedMeshData)
		}
	}
	if h.Channels&channelBoneWeights != 0 {
		m.BoneWeights = make([]mesh.BoneWeight, n)
		if err := binary.Read(r, binary.LittleEndian, m.BoneWeights); err != nil {
			return nil, fmt.Errorf("%w: reading bone weights", ErrTruncatedMeshData)
		}
	}

	if int64(h.BindPoseCount)*64 > int64(r.Len()) {
		return nil, fmt.Errorf("%w: %d bind poses declared", ErrTruncatedMeshData, h.BindPoseCount)
	}
	if h.BindPoseCount > 0 {
		m.BindPoses = make([]math.Mat4, h.BindPoseCount)
		if err := binary.Read(r, binary.LittleEndian, m.BindPoses); err != nil {
			return nil, fmt.Errorf("%w: reading bind poses", ErrTruncatedMeshData)
		}
	}

	m.SubMeshes = make([]mesh.SubMesh, 0, min(int(h.SubMeshCount), r.Len()))
	for i := uint32(0); i < h.SubMeshCount; i++ {
		sub, err := readSubMesh(r, m.IndexFormat)
		if err != nil {
			return nil, fmt.Errorf("parsing submesh %d: %w", i, err)
		}
		m.SubMeshes = append(m.SubMeshes, sub)
	}

	return m, nil
}

func readSubMesh(r *bytes.Reader, format mesh.IndexFormat) (mesh.SubMesh, error) {
	name, err := readString(r)
	if err != nil {
		return mesh.SubMesh{}, fmt.Errorf("%w: reading submesh name", ErrTruncatedMeshData)
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return mesh.SubMesh{}, fmt.Errorf("%w: reading index count", ErrTruncatedMeshData)
	}

	width := int64(4)
	if format == mesh.IndexFormat16 {
		width = 2
	}
	if int64(count)*width > int64(r.Len()) {
		return mesh.SubMesh{}, fmt.Errorf("%w: %d indices declared", ErrTruncatedMeshData, count)
	}

	indices := make([]uint32, count)
	if format == mesh.IndexFormat16 {
		narrow := make([]uint16, count)
		if err := binary.Read(r, binary.LittleEndian, narrow); err != nil {
			return mesh.SubMesh{}, fmt.Errorf("%w: reading indices", ErrTruncatedMeshData)
		}
		for i, v := range narrow {
			indices[i] = uint32(v)
		}
	} else if err := binary.Read(r, binary.LittleEndian, indices); err != nil {
		return mesh.SubMesh{}, fmt.Errorf("%w: reading indices", ErrTruncatedMeshData)
	}
	return mesh.SubMesh{Name: name, Indices: indices}, nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// ParseMeshFile parses an OMSH file from disk.
func ParseMeshFile(path string) (*mesh.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mesh file: %w", err)
	}
	return ParseMesh(data)
}

// WriteMesh encodes m as OMSH. 16-bit indices are used only when every
// index fits.
func WriteMesh(w io.Writer, m *mesh.Mesh) error {
	bw := bufio.NewWriter(w)

	format := mesh.IndexFormat32
	if m.IndexFormat == mesh.IndexFormat16 && fitsUint16(m) {
		format = mesh.IndexFormat16
	}

	var channels uint8
	if len(m.UV) > 0 {
		channels |= channelUV
	}
	if len(m.Normals) > 0 {
		channels |= channelNormals
	}
	if len(m.Tangents) > 0 {
		channels |= channelTangents
	}
	if len(m.BoneWeights) > 0 {
		channels |= channelBoneWeights
	}

	bw.WriteString(omshMagic)
	bw.WriteByte(omshMajor)
	bw.WriteByte(omshMinor)
	if err := writeString(bw, m.Name); err != nil {
		return err
	}

	h := header{
		VertexCount:   uint32(len(m.Vertices)),
		Channels:      channels,
		IndexFormat:   uint8(format),
		BindPoseCount: uint32(len(m.BindPoses)),
		SubMeshCount:  uint32(len(m.SubMeshes)),
		BoundsMin:     m.Bounds.Min,
		BoundsMax:     m.Bounds.Max,
	}
	blocks := []any{&h, m.Vertices}
	if channels&channelUV != 0 {
		blocks = append(blocks, m.UV)
	}
	if channels&channelNormals != 0 {
		blocks = append(blocks, m.Normals)
	}
	if channels&channelTangents != 0 {
		blocks = append(blocks, m.Tangents)
	}
	if channels&channelBoneWeights != 0 {
		blocks = append(blocks, m.BoneWeights)
	}
	if len(m.BindPoses) > 0 {
		blocks = append(blocks, m.BindPoses)
	}
	for _, b := range blocks {
		if err := binary.Write(bw, binary.LittleEndian, b); err != nil {
			return fmt.Errorf("writing mesh %q: %w", m.Name, err)
		}
	}

	for i, sub := range m.SubMeshes {
		if err := writeString(bw, sub.Name); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(sub.Indices))); err != nil {
			return err
		}
		var err error
		if format == mesh.IndexFormat16 {
			narrow := make([]uint16, len(sub.Indices))
			for k, v := range sub.Indices {
				narrow[k] = uint16(v)
			}
			err = binary.Write(bw, binary.LittleEndian, narrow)
		} else {
			err = binary.Write(bw, binary.LittleEndian, sub.Indices)
		}
		if err != nil {
			return fmt.Errorf("writing submesh %d: %w", i, err)
		}
	}

	return bw.Flush()
}

func writeString(w io.Writer, s string) error {
	if len(s) > 0xFFFF {
		return fmt.Errorf("name too long: %d bytes", len(s))
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func fitsUint16(m *mesh.Mesh) bool {
	for _, sub := range m.SubMeshes {
		for _, v := range sub.Indices {
			if v > 0xFFFF {
				return false
			}
		}
	}
	return true
}
