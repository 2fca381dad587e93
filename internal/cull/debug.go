package cull

import (
	"sync"

	"github.com/Faultbox/occlubake/pkg/math"
)

// DefaultDebugCapacity is the number of visible samples kept for inspection.
const DefaultDebugCapacity = 2000

// PointSink receives sample points that were found visible. It has no
// influence on classification.
type PointSink interface {
	Record(p math.Vec3)
}

// DebugPoints is a bounded PointSink. Once full it drops further points;
// nothing is evicted. Safe for concurrent use.
type DebugPoints struct {
	mu       sync.Mutex
	points   []math.Vec3
	capacity int
}

// NewDebugPoints creates a sink holding at most capacity points.
func NewDebugPoints(capacity int) *DebugPoints {
	if capacity < 0 {
		capacity = 0
	}
	return &DebugPoints{capacity: capacity}
}

// Record stores p unless the sink is full.
func (d *DebugPoints) Record(p math.Vec3) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.points) < d.capacity {
		d.points = append(d.points, p)
	}
}

// Points returns a copy of the recorded points in arrival order.
func (d *DebugPoints) Points() []math.Vec3 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]math.Vec3(nil), d.points...)
}

// Len returns the number of recorded points.
func (d *DebugPoints) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.points)
}

// Reset clears the recorded points.
func (d *DebugPoints) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.points = d.points[:0]
}
