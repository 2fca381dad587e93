package scene

import (
	"go.uber.org/zap"

	"github.com/Faultbox/occlubake/internal/logger"
	"github.com/Faultbox/occlubake/internal/occlusion"
	"github.com/Faultbox/occlubake/pkg/math"
	"github.com/Faultbox/occlubake/pkg/mesh"
)

// Target is a scene object whose render mesh doubles as its collider.
type Target struct {
	name      string
	mesh      *mesh.Mesh
	transform math.Mat4
	world     *occlusion.World
	collider  bool
}

// NewTarget creates a target placed by transform. When collider is set the
// mesh is registered in world under the target's name.
func NewTarget(name string, m *mesh.Mesh, transform math.Mat4, world *occlusion.World, collider bool) (*Target, error) {
	t := &Target{name: name, mesh: m, transform: transform, world: world}
	if collider {
		if err := t.attachCollider(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Target) Name() string         { return t.name }
func (t *Target) Mesh() *mesh.Mesh     { return t.mesh }
func (t *Target) Transform() math.Mat4 { return t.transform }

// HasCollider reports whether the target's collider is in the world.
func (t *Target) HasCollider() bool {
	return t.collider && t.world.HasCollider(t.colliderID())
}

// SetMesh swaps the render mesh and, if the target has a collider, the
// collision triangles with it.
func (t *Target) SetMesh(m *mesh.Mesh) error {
	if t.collider {
		if err := t.world.SetCollider(t.colliderFor(m)); err != nil {
			return err
		}
	}
	t.mesh = m
	return nil
}

func (t *Target) attachCollider() error {
	if t.mesh == nil {
		return nil
	}
	// Broken index data is reported by the bake run, not here.
	if err := t.mesh.Validate(); err != nil {
		logger.Warn("target mesh is invalid, no collider attached",
			zap.String("target", t.name), zap.Error(err))
		return nil
	}
	if err := t.world.SetCollider(t.colliderFor(t.mesh)); err != nil {
		return err
	}
	t.collider = true
	return nil
}

func (t *Target) colliderID() string {
	return "target:" + t.name
}

func (t *Target) colliderFor(m *mesh.Mesh) occlusion.Collider {
	return occlusion.Collider{
		ID:        t.colliderID(),
		Triangles: occlusion.TransformTriangles(m.Vertices, m.FlatIndices(), t.transform),
	}
}
