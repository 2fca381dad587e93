package occlusion

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dhconnelly/rtreego"
	"go.uber.org/zap"

	"github.com/Faultbox/occlubake/internal/logger"
	"github.com/Faultbox/occlubake/pkg/math"
)

// R-tree branching factors.
const (
	minChildren = 25
	maxChildren = 50
)

// boxPadding keeps degenerate (axis-aligned, flat) boxes non-empty.
const boxPadding = 1e-4

// Collider is a named triangle soup in world space.
type Collider struct {
	ID        string
	Triangles [][3]math.Vec3
	Trigger   bool // trigger-only colliders never obstruct
}

type entry struct {
	collider string
	tri      [3]math.Vec3
	trigger  bool
	rect     rtreego.Rect
}

func (e *entry) Bounds() rtreego.Rect {
	return e.rect
}

// World is an Oracle over a set of colliders indexed per triangle in an
// R-tree. Queries may run concurrently; SetCollider and RemoveCollider take
// an exclusive lock.
type World struct {
	mu        sync.RWMutex
	tree      *rtreego.Rtree
	colliders map[string][]*entry

	queries atomic.Int64
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{
		tree:      rtreego.NewTree(3, minChildren, maxChildren),
		colliders: make(map[string][]*entry),
	}
}

// SetCollider adds c, replacing any collider with the same ID.
func (w *World) SetCollider(c Collider) error {
	entries := make([]*entry, 0, len(c.Triangles))
	for i, tri := range c.Triangles {
		lo := tri[0].Min(tri[1]).Min(tri[2])
		hi := tri[0].Max(tri[1]).Max(tri[2])
		rect, err := paddedRect(lo, hi)
		if err != nil {
			return fmt.Errorf("collider %q triangle %d: %w", c.ID, i, err)
		}
		entries = append(entries, &entry{collider: c.ID, tri: tri, trigger: c.Trigger, rect: rect})
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.removeLocked(c.ID)
	for _, e := range entries {
		w.tree.Insert(e)
	}
	w.colliders[c.ID] = entries

	logger.Debug("collider set",
		zap.String("collider", c.ID),
		zap.Int("triangles", len(entries)),
		zap.Bool("trigger", c.Trigger))
	return nil
}

// RemoveCollider drops a collider. It reports whether the ID was present.
func (w *World) RemoveCollider(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.removeLocked(id)
}

func (w *World) removeLocked(id string) bool {
	entries, ok := w.colliders[id]
	if !ok {
		return false
	}
	for _, e := range entries {
		w.tree.Delete(e)
	}
	delete(w.colliders, id)
	return true
}

// HasCollider reports whether a collider with the given ID is present.
func (w *World) HasCollider(id string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.colliders[id]
	return ok
}

// Size returns the number of indexed triangles.
func (w *World) Size() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tree.Size()
}

// Queries returns the number of Obstructed calls served so far.
func (w *World) Queries() int64 {
	return w.queries.Load()
}

// Obstructed reports whether any solid triangle touches the segment.
func (w *World) Obstructed(from, to math.Vec3) (bool, error) {
	seg := Segment{From: from, To: to}
	if !seg.Finite() {
		return false, fmt.Errorf("%w: %v -> %v", ErrNonFiniteSegment, from, to)
	}
	w.queries.Add(1)

	lo, hi := seg.Box()
	rect, err := paddedRect(lo, hi)
	if err != nil {
		return false, err
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, s := range w.tree.SearchIntersect(rect) {
		e := s.(*entry)
		if e.trigger {
			continue
		}
		if seg.IntersectTriangle(e.tri[0], e.tri[1], e.tri[2]) {
			return true, nil
		}
	}
	return false, nil
}

func paddedRect(lo, hi math.Vec3) (rtreego.Rect, error) {
	p := rtreego.Point{
		float64(lo.X) - boxPadding,
		float64(lo.Y) - boxPadding,
		float64(lo.Z) - boxPadding,
	}
	lengths := []float64{
		float64(hi.X-lo.X) + 2*boxPadding,
		float64(hi.Y-lo.Y) + 2*boxPadding,
		float64(hi.Z-lo.Z) + 2*boxPadding,
	}
	return rtreego.NewRect(p, lengths)
}

// TransformTriangles returns the world-space triangles of the given local
// positions and flat index stream.
func TransformTriangles(vertices []math.Vec3, flat []uint32, world math.Mat4) [][3]math.Vec3 {
	tris := make([][3]math.Vec3, 0, len(flat)/3)
	for i := 0; i+2 < len(flat); i += 3 {
		tris = append(tris, [3]math.Vec3{
			world.TransformPoint(vertices[flat[i]]),
			world.TransformPoint(vertices[flat[i+1]]),
			world.TransformPoint(vertices[flat[i+2]]),
		})
	}
	return tris
}
