package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/occlubake/pkg/encoding"
	"github.com/Faultbox/occlubake/pkg/math"
	"github.com/Faultbox/occlubake/pkg/mesh"
)

// ErrInvalidOBJ is returned for malformed Wavefront OBJ input.
var ErrInvalidOBJ = errors.New("invalid OBJ data")

// objCorner is one "v/vt/vn" reference with resolved zero-based indices.
// Missing components are -1.
type objCorner struct {
	v, vt, vn int
}

type objGroup struct {
	name    string
	corners []objCorner
}

// ReadOBJ parses a Wavefront OBJ stream. Polygons are fan triangulated.
// Each "g", "o" or "usemtl" statement starts a new submesh.
func ReadOBJ(r io.Reader, name string) (*mesh.Mesh, error) {
	var (
		positions []math.Vec3
		uvs       []math.Vec2
		normals   []math.Vec3
		groups    []*objGroup
		current   *objGroup
	)

	startGroup := func(n string) {
		// An empty group is renamed rather than kept.
		if current != nil && len(current.corners) == 0 {
			current.name = n
			return
		}
		current = &objGroup{name: n}
		groups = append(groups, current)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		fields := strings.Fields(text)
		switch fields[0] {
		case "v":
			p, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, line, err)
			}
			positions = append(positions, math.Vec3{X: p[0], Y: p[1], Z: p[2]})
		case "vt":
			p, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, line, err)
			}
			uvs = append(uvs, math.Vec2{X: p[0], Y: p[1]})
		case "vn":
			p, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, line, err)
			}
			normals = append(normals, math.Vec3{X: p[0], Y: p[1], Z: p[2]})
		case "g", "o", "usemtl":
			n := ""
			if len(fields) > 1 {
				n = strings.Join(fields[1:], " ")
			}
			startGroup(n)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: face needs at least 3 corners", ErrInvalidOBJ, line)
			}
			poly := make([]objCorner, 0, len(fields)-1)
			for _, f := range fields[1:] {
				c, err := parseCorner(f, len(positions), len(uvs), len(normals))
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, line, err)
				}
				poly = append(poly, c)
			}
			if current == nil {
				startGroup("")
			}
			for k := 1; k+1 < len(poly); k++ {
				current.corners = append(current.corners, poly[0], poly[k], poly[k+1])
			}
		default:
			// mtllib, s, l and friends carry nothing the mesh model stores.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	m := &mesh.Mesh{Name: name, IndexFormat: mesh.IndexFormat32}
	if identityCorners(groups, len(uvs), len(normals)) {
		buildDirect(m, groups, positions, uvs, normals)
	} else {
		buildDeduped(m, groups, positions, uvs, normals)
	}
	m.RecalculateBounds()
	m.Optimize()
	return m, nil
}

// identityCorners reports whether every corner references the same index
// in each channel it carries, so the position order can be used as is.
func identityCorners(groups []*objGroup, nuv, nn int) bool {
	for _, g := range groups {
		for _, c := range g.corners {
			if nuv > 0 && c.vt != c.v {
				return false
			}
			if nn > 0 && c.vn != c.v {
				return false
			}
		}
	}
	return true
}

func buildDirect(m *mesh.Mesh, groups []*objGroup, positions []math.Vec3, uvs []math.Vec2, normals []math.Vec3) {
	m.Vertices = positions
	if len(uvs) == len(positions) {
		m.UV = uvs
	}
	if len(normals) == len(positions) {
		m.Normals = normals
	}
	for _, g := range groups {
		sub := mesh.SubMesh{Name: g.name, Indices: make([]uint32, len(g.corners))}
		for i, c := range g.corners {
			sub.Indices[i] = uint32(c.v)
		}
		m.SubMeshes = append(m.SubMeshes, sub)
	}
}

func buildDeduped(m *mesh.Mesh, groups []*objGroup, positions []math.Vec3, uvs []math.Vec2, normals []math.Vec3) {
	withUV := len(uvs) > 0
	withNormals := len(normals) > 0
	seen := make(map[objCorner]uint32)
	for _, g := range groups {
		sub := mesh.SubMesh{Name: g.name, Indices: make([]uint32, len(g.corners))}
		for i, c := range g.corners {
			idx, ok := seen[c]
			if !ok {
				idx = uint32(len(m.Vertices))
				seen[c] = idx
				m.Vertices = append(m.Vertices, positions[c.v])
				if withUV {
					var uv math.Vec2
					if c.vt >= 0 {
						uv = uvs[c.vt]
					}
					m.UV = append(m.UV, uv)
				}
				if withNormals {
					var n math.Vec3
					if c.vn >= 0 {
						n = normals[c.vn]
					}
					m.Normals = append(m.Normals, n)
				}
			}
			sub.Indices[i] = idx
		}
		m.SubMeshes = append(m.SubMeshes, sub)
	}
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

func parseCorner(s string, nv, nvt, nvn int) (objCorner, error) {
	c := objCorner{v: -1, vt: -1, vn: -1}
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return c, fmt.Errorf("bad face corner %q", s)
	}
	targets := []*int{&c.v, &c.vt, &c.vn}
	limits := []int{nv, nvt, nvn}
	for i, p := range parts {
		if p == "" {
			if i == 0 {
				return c, fmt.Errorf("face corner %q has no position", s)
			}
			continue
		}
		idx, err := resolveIndex(p, limits[i])
		if err != nil {
			return c, fmt.Errorf("face corner %q: %v", s, err)
		}
		*targets[i] = idx
	}
	return c, nil
}

// resolveIndex turns a one-based or negative relative OBJ index into a
// zero-based index bounded by count.
func resolveIndex(s string, count int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case n > 0:
		n--
	case n < 0:
		n += count
	default:
		return 0, errors.New("index 0 is not valid")
	}
	if n < 0 || n >= count {
		return 0, fmt.Errorf("index %s out of range (%d defined)", s, count)
	}
	return n, nil
}

// ReadOBJFile reads an OBJ file from disk. The mesh is named after the file.
func ReadOBJFile(path string) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening OBJ file: %w", err)
	}
	defer f.Close()
	return ReadOBJ(f, meshName(path))
}

// WriteOBJ writes m as Wavefront OBJ text, one group per submesh.
// Tangents, bone weights and bind poses have no OBJ representation and are
// dropped.
func WriteOBJ(w io.Writer, m *mesh.Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s\n", m.Name)
	fmt.Fprintf(bw, "o %s\n", encoding.Token(m.Name, "mesh"))
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %s %s %s\n", ftoa(v.X), ftoa(v.Y), ftoa(v.Z))
	}
	hasUV := len(m.UV) == len(m.Vertices) && len(m.UV) > 0
	hasNormals := len(m.Normals) == len(m.Vertices) && len(m.Normals) > 0
	if hasUV {
		for _, uv := range m.UV {
			fmt.Fprintf(bw, "vt %s %s\n", ftoa(uv.X), ftoa(uv.Y))
		}
	}
	if hasNormals {
		for _, n := range m.Normals {
			fmt.Fprintf(bw, "vn %s %s %s\n", ftoa(n.X), ftoa(n.Y), ftoa(n.Z))
		}
	}

	for i, sub := range m.SubMeshes {
		group := sub.Name
		if group == "" {
			group = fmt.Sprintf("submesh_%d", i)
		}
		fmt.Fprintf(bw, "g %s\n", encoding.Token(group, "mesh"))
		for k := 0; k+2 < len(sub.Indices); k += 3 {
			bw.WriteString("f")
			for _, idx := range sub.Indices[k : k+3] {
				n := idx + 1
				switch {
				case hasUV && hasNormals:
					fmt.Fprintf(bw, " %d/%d/%d", n, n, n)
				case hasUV:
					fmt.Fprintf(bw, " %d/%d", n, n)
				case hasNormals:
					fmt.Fprintf(bw, " %d//%d", n, n)
				default:
					fmt.Fprintf(bw, " %d", n)
				}
			}
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// WritePointsOBJ writes a vertex-only OBJ point cloud.
func WritePointsOBJ(w io.Writer, points []math.Vec3) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("# visibility sample points\n")
	for _, p := range points {
		fmt.Fprintf(bw, "v %s %s %s\n", ftoa(p.X), ftoa(p.Y), ftoa(p.Z))
	}
	if len(points) > 0 {
		bw.WriteString("p")
		for i := range points {
			fmt.Fprintf(bw, " %d", i+1)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func ftoa(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}
