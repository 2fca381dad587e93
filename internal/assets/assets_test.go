package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/occlubake/pkg/formats"
	"github.com/Faultbox/occlubake/pkg/math"
	"github.com/Faultbox/occlubake/pkg/mesh"
)

func writeBox(t *testing.T, path string, size float32) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	box := mesh.NewBox("box", math.Vec3{}, math.Vec3{X: size, Y: size, Z: size})
	if err := formats.SaveMesh(path, box); err != nil {
		t.Fatalf("SaveMesh failed: %v", err)
	}
}

func TestManager_RootPriority(t *testing.T) {
	low := t.TempDir()
	high := t.TempDir()
	writeBox(t, filepath.Join(low, "props", "box.omsh"), 1)
	writeBox(t, filepath.Join(high, "props", "box.omsh"), 2)
	writeBox(t, filepath.Join(low, "only_low.obj"), 3)

	m := NewManager()
	defer m.Close()
	if err := m.AddRoot(low); err != nil {
		t.Fatalf("AddRoot failed: %v", err)
	}
	if err := m.AddRoot(high); err != nil {
		t.Fatalf("AddRoot failed: %v", err)
	}

	box, err := m.Load(filepath.Join("props", "box.omsh"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if box.Bounds.Max.X != 2 {
		t.Errorf("expected the later root to win, got bounds %v", box.Bounds)
	}

	fallback, err := m.Load("only_low.obj")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if fallback.Bounds.Max.X != 3 {
		t.Errorf("expected fallback to the first root, got bounds %v", fallback.Bounds)
	}
}

func TestManager_Caches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "box.omsh")
	writeBox(t, path, 1)

	m := NewManager()
	first, err := m.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	second, err := m.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if first != second {
		t.Error("expected the cached mesh to be returned")
	}
	hits, misses := m.cache.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d/%d", hits, misses)
	}
}

func TestManager_Errors(t *testing.T) {
	m := NewManager()
	if _, err := m.Load("missing.omsh"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := m.AddRoot(file); err == nil {
		t.Error("expected error adding a file as root")
	}
	if err := m.AddRoot(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error adding a missing root")
	}
}

func TestCache_Clear(t *testing.T) {
	c := NewCache()
	c.Set("a", &mesh.Mesh{Name: "a"})
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected cached entry")
	}
	c.Clear()
	if _, ok := c.Get("a"); ok {
		t.Error("expected cache to be empty after Clear")
	}
	if hits, misses := c.Stats(); hits != 0 || misses != 1 {
		t.Errorf("expected stats reset then 1 miss, got %d/%d", hits, misses)
	}
}
