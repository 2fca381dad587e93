package occlusion

import (
	"errors"
	gomath "math"
	"sync"
	"testing"

	"github.com/Faultbox/occlubake/pkg/math"
)

// wall returns two triangles covering the square [-s, s]^2 in the plane z.
func wall(z, s float32) [][3]math.Vec3 {
	a := math.Vec3{X: -s, Y: -s, Z: z}
	b := math.Vec3{X: s, Y: -s, Z: z}
	c := math.Vec3{X: s, Y: s, Z: z}
	d := math.Vec3{X: -s, Y: s, Z: z}
	return [][3]math.Vec3{{a, b, c}, {a, c, d}}
}

func TestSegmentIntersectTriangle(t *testing.T) {
	a := math.Vec3{X: -1, Y: -1}
	b := math.Vec3{X: 1, Y: -1}
	c := math.Vec3{X: 0, Y: 1}

	tests := []struct {
		name string
		seg  Segment
		want bool
	}{
		{"through front", Segment{math.Vec3{Z: 1}, math.Vec3{Z: -1}}, true},
		{"through back", Segment{math.Vec3{Z: -1}, math.Vec3{Z: 1}}, true},
		{"stops short", Segment{math.Vec3{Z: 2}, math.Vec3{Z: 0.5}}, false},
		{"starts past", Segment{math.Vec3{Z: -0.5}, math.Vec3{Z: -2}}, false},
		{"misses to the side", Segment{math.Vec3{X: 3, Z: 1}, math.Vec3{X: 3, Z: -1}}, false},
		{"parallel in plane offset", Segment{math.Vec3{X: -5, Y: 0, Z: 0.1}, math.Vec3{X: 5, Y: 0, Z: 0.1}}, false},
		{"ends on surface", Segment{math.Vec3{Z: 1}, math.Vec3{}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.seg.IntersectTriangle(a, b, c); got != tt.want {
				t.Errorf("IntersectTriangle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWorldObstructed(t *testing.T) {
	w := NewWorld()
	if err := w.SetCollider(Collider{ID: "wall", Triangles: wall(0, 1)}); err != nil {
		t.Fatalf("SetCollider: %v", err)
	}
	if w.Size() != 2 {
		t.Fatalf("expected 2 indexed triangles, got %d", w.Size())
	}

	tests := []struct {
		name     string
		from, to math.Vec3
		want     bool
	}{
		{"crosses wall", math.Vec3{Z: 5}, math.Vec3{Z: -5}, true},
		{"in front of wall", math.Vec3{Z: 5}, math.Vec3{Z: 1}, false},
		{"around wall", math.Vec3{X: 3, Z: 5}, math.Vec3{X: 3, Z: -5}, false},
		{"oblique cross", math.Vec3{X: -0.5, Y: 0.5, Z: 2}, math.Vec3{X: 0.5, Y: -0.5, Z: -2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := w.Obstructed(tt.from, tt.to)
			if err != nil {
				t.Fatalf("Obstructed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Obstructed(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
	if w.Queries() != int64(len(tests)) {
		t.Errorf("expected %d queries, got %d", len(tests), w.Queries())
	}
}

func TestWorldIgnoresTriggers(t *testing.T) {
	w := NewWorld()
	if err := w.SetCollider(Collider{ID: "volume", Triangles: wall(0, 1), Trigger: true}); err != nil {
		t.Fatalf("SetCollider: %v", err)
	}
	got, err := w.Obstructed(math.Vec3{Z: 5}, math.Vec3{Z: -5})
	if err != nil {
		t.Fatalf("Obstructed: %v", err)
	}
	if got {
		t.Error("trigger collider should not obstruct")
	}
}

func TestWorldReplaceAndRemove(t *testing.T) {
	w := NewWorld()
	if err := w.SetCollider(Collider{ID: "wall", Triangles: wall(0, 1)}); err != nil {
		t.Fatalf("SetCollider: %v", err)
	}
	// Replace with a wall that is far off to the side.
	moved := wall(0, 1)
	for i := range moved {
		for j := range moved[i] {
			moved[i][j].X += 10
		}
	}
	if err := w.SetCollider(Collider{ID: "wall", Triangles: moved}); err != nil {
		t.Fatalf("SetCollider: %v", err)
	}
	if w.Size() != 2 {
		t.Errorf("replacement should not duplicate entries, size %d", w.Size())
	}
	if hit, _ := w.Obstructed(math.Vec3{Z: 5}, math.Vec3{Z: -5}); hit {
		t.Error("old collider geometry still obstructs after replace")
	}
	if hit, _ := w.Obstructed(math.Vec3{X: 10, Z: 5}, math.Vec3{X: 10, Z: -5}); !hit {
		t.Error("new collider geometry should obstruct")
	}

	if !w.RemoveCollider("wall") {
		t.Error("RemoveCollider should report the collider existed")
	}
	if w.RemoveCollider("wall") {
		t.Error("second RemoveCollider should report false")
	}
	if w.HasCollider("wall") || w.Size() != 0 {
		t.Errorf("world should be empty, size %d", w.Size())
	}
}

func TestWorldNonFinite(t *testing.T) {
	w := NewWorld()
	nan := float32(gomath.NaN())
	_, err := w.Obstructed(math.Vec3{X: nan}, math.Vec3{})
	if !errors.Is(err, ErrNonFiniteSegment) {
		t.Errorf("expected ErrNonFiniteSegment, got %v", err)
	}
}

func TestWorldConcurrentQueries(t *testing.T) {
	w := NewWorld()
	if err := w.SetCollider(Collider{ID: "wall", Triangles: wall(0, 1)}); err != nil {
		t.Fatalf("SetCollider: %v", err)
	}
	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				hit, err := w.Obstructed(math.Vec3{Z: 5}, math.Vec3{Z: -5})
				if err != nil || !hit {
					errs <- "concurrent query gave wrong answer"
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestTransformTriangles(t *testing.T) {
	verts := []math.Vec3{{}, {X: 1}, {Y: 1}}
	tris := TransformTriangles(verts, []uint32{0, 1, 2}, math.Translate(0, 0, 3))
	if len(tris) != 1 {
		t.Fatalf("expected 1 triangle, got %d", len(tris))
	}
	if tris[0][1] != (math.Vec3{X: 1, Z: 3}) {
		t.Errorf("unexpected transformed vertex %v", tris[0][1])
	}
}
