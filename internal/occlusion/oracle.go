// Package occlusion answers segment visibility queries against solid scene
// geometry.
package occlusion

import (
	"errors"

	"github.com/Faultbox/occlubake/pkg/math"
)

// ErrNonFiniteSegment is returned for queries with NaN or infinite endpoints.
var ErrNonFiniteSegment = errors.New("segment endpoint is not finite")

// Oracle reports whether the straight segment between two world-space points
// is blocked by a solid (non-trigger) collider. Implementations must be safe
// for concurrent use.
type Oracle interface {
	Obstructed(from, to math.Vec3) (bool, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(from, to math.Vec3) (bool, error)

// Obstructed calls f(from, to).
func (f OracleFunc) Obstructed(from, to math.Vec3) (bool, error) {
	return f(from, to)
}

// Open is an Oracle with no occluders.
var Open Oracle = OracleFunc(func(from, to math.Vec3) (bool, error) {
	return false, nil
})
