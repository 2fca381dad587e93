// Package scene loads bake scenes from YAML and wires them to the occlusion
// world and the mesh store.
package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/occlubake/internal/assets"
	"github.com/Faultbox/occlubake/internal/bake"
	"github.com/Faultbox/occlubake/internal/cull"
	"github.com/Faultbox/occlubake/internal/logger"
	"github.com/Faultbox/occlubake/internal/occlusion"
	"github.com/Faultbox/occlubake/pkg/math"
	"github.com/Faultbox/occlubake/pkg/mesh"
)

// Scene file errors.
var (
	ErrDuplicateName = errors.New("duplicate name")
	ErrNoShape       = errors.New("occluder needs a mesh or a box")
)

// File is the YAML layout of a scene.
type File struct {
	Observers []ObserverDef `yaml:"observers"`
	Targets   []TargetDef   `yaml:"targets"`
	Occluders []OccluderDef `yaml:"occluders"`
}

// ObserverDef places one observer.
type ObserverDef struct {
	Name     string     `yaml:"name"`
	Position [3]float32 `yaml:"position"`
}

// Placement is an object-to-world transform. Rotation is Euler degrees.
type Placement struct {
	Position [3]float32  `yaml:"position"`
	Rotation [3]float32  `yaml:"rotation"`
	Scale    *[3]float32 `yaml:"scale"` // nil = 1,1,1
}

// TargetDef is a mesh to reduce.
type TargetDef struct {
	Name      string `yaml:"name"`
	Mesh      string `yaml:"mesh"`
	Collider  *bool  `yaml:"collider"` // nil = true
	Placement `yaml:",inline"`
}

// BoxDef is an axis-aligned box in object space.
type BoxDef struct {
	Min [3]float32 `yaml:"min"`
	Max [3]float32 `yaml:"max"`
}

// OccluderDef is static collision geometry that is never reduced.
type OccluderDef struct {
	Name      string  `yaml:"name"`
	Mesh      string  `yaml:"mesh"`
	Box       *BoxDef `yaml:"box"`
	Trigger   bool    `yaml:"trigger"`
	Placement `yaml:",inline"`
}

// Matrix returns the object-to-world transform.
func (p Placement) Matrix() math.Mat4 {
	scale := math.Vec3{X: 1, Y: 1, Z: 1}
	if p.Scale != nil {
		scale = vec3(*p.Scale)
	}
	return math.TRS(vec3(p.Position), math.QuatFromEuler(vec3(p.Rotation)), scale)
}

// Scene is a loaded scene ready to bake.
type Scene struct {
	Path      string
	Observers []cull.Observer
	Targets   []*Target
	World     *occlusion.World
}

// Load parses the scene file at path and loads every mesh it names.
// Relative mesh paths resolve against the scene file's directory.
func Load(path string) (*Scene, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing scene %s: %w", path, err)
	}

	manager := assets.NewManager()
	defer manager.Close()
	if err := manager.AddRoot(filepath.Dir(path)); err != nil {
		return nil, err
	}

	s, err := Build(&file, manager)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	s.Path = path
	return s, nil
}

// MeshLoader resolves a mesh reference from a scene file.
type MeshLoader interface {
	Load(path string) (*mesh.Mesh, error)
}

// Build assembles a scene from its parsed file. Target colliders are
// registered in the world alongside the occluders.
func Build(file *File, loader MeshLoader) (*Scene, error) {
	s := &Scene{World: occlusion.NewWorld()}
	names := make(map[string]bool)
	claim := func(kind, name string) error {
		key := kind + ":" + name
		if names[key] {
			return fmt.Errorf("%w: %s %q", ErrDuplicateName, kind, name)
		}
		names[key] = true
		return nil
	}

	for i, def := range file.Observers {
		name := def.Name
		if name == "" {
			name = fmt.Sprintf("observer %d", i)
		}
		if err := claim("observer", name); err != nil {
			return nil, err
		}
		s.Observers = append(s.Observers, cull.Observer{Name: name, Position: vec3(def.Position)})
	}

	for i, def := range file.Occluders {
		name := def.Name
		if name == "" {
			name = fmt.Sprintf("occluder %d", i)
		}
		if err := claim("occluder", name); err != nil {
			return nil, err
		}

		var m *mesh.Mesh
		switch {
		case def.Mesh != "":
			loaded, err := loader.Load(def.Mesh)
			if err != nil {
				return nil, fmt.Errorf("occluder %q: %w", name, err)
			}
			m = loaded
		case def.Box != nil:
			m = mesh.NewBox(name, vec3(def.Box.Min), vec3(def.Box.Max))
		default:
			return nil, fmt.Errorf("%w: %q", ErrNoShape, name)
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("occluder %q: %w", name, err)
		}

		err := s.World.SetCollider(occlusion.Collider{
			ID:        "occluder:" + name,
			Triangles: occlusion.TransformTriangles(m.Vertices, m.FlatIndices(), def.Matrix()),
			Trigger:   def.Trigger,
		})
		if err != nil {
			return nil, fmt.Errorf("occluder %q: %w", name, err)
		}
	}

	for i, def := range file.Targets {
		name := def.Name
		if name == "" {
			name = fmt.Sprintf("target %d", i)
		}
		if err := claim("target", name); err != nil {
			return nil, err
		}

		var m *mesh.Mesh
		if def.Mesh != "" {
			loaded, err := loader.Load(def.Mesh)
			if err != nil {
				return nil, fmt.Errorf("target %q: %w", name, err)
			}
			m = loaded
		}
		collider := def.Collider == nil || *def.Collider
		t, err := NewTarget(name, m, def.Matrix(), s.World, collider)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", name, err)
		}
		s.Targets = append(s.Targets, t)
	}

	logger.Info("scene loaded",
		zap.Int("observers", len(s.Observers)),
		zap.Int("targets", len(s.Targets)),
		zap.Int("occluders", len(file.Occluders)),
		zap.Int("world_triangles", s.World.Size()))
	return s, nil
}

// BakeTargets returns the targets as bake.Target values.
func (s *Scene) BakeTargets() []bake.Target {
	out := make([]bake.Target, len(s.Targets))
	for i, t := range s.Targets {
		out[i] = t
	}
	return out
}

func vec3(a [3]float32) math.Vec3 {
	return math.Vec3{X: a[0], Y: a[1], Z: a[2]}
}
