// Package bake runs the visibility reduction over a batch of targets and
// hands each reduced mesh to a store.
package bake

import (
	"errors"

	"github.com/Faultbox/occlubake/pkg/math"
	"github.com/Faultbox/occlubake/pkg/mesh"
)

// Run preconditions. A run failing one of these is rejected before any
// target is touched.
var (
	ErrNoObservers      = errors.New("no observers")
	ErrNoTargets        = errors.New("no targets")
	ErrNoOutputLocation = errors.New("no output location")
)

// Per-target outcomes that skip or leave a target unchanged.
var (
	ErrMissingGeometry = errors.New("target has no render mesh")
	ErrMissingCollider = errors.New("target has no collider")
	ErrEmptyResult     = errors.New("no triangle is visible")
)

// Target is a mesh instance placed in the scene.
type Target interface {
	Name() string
	Mesh() *mesh.Mesh
	Transform() math.Mat4
	HasCollider() bool
	// SetMesh replaces both the render and the collision geometry.
	SetMesh(m *mesh.Mesh) error
}

// Store persists reduced meshes under a run-scoped location.
type Store interface {
	// Prepare resolves and creates the output location.
	Prepare() (string, error)
	// Save stores m under a unique name derived from name and returns a
	// reference to it.
	Save(name string, m *mesh.Mesh) (string, error)
}

// Progress observes the pass over one target.
type Progress interface {
	Begin(target string, total int)
	Update(target string, current, total int)
	End(target string)
}
