package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
	if !m.IsIdentity() {
		t.Error("IsIdentity should be true for Identity()")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())
	if result != m {
		t.Errorf("M * I should equal M, got %v", result)
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30)
	got := m.TransformPoint(Vec3{1, 2, 3})
	want := Vec3{11, 22, 33}
	if got != want {
		t.Errorf("TransformPoint: got %v, want %v", got, want)
	}
}

func TestTransformDirectionIgnoresTranslation(t *testing.T) {
	m := Translate(10, 20, 30).Mul(Scale(2, 2, 2))
	got := m.TransformDirection(Vec3{1, 0, 0})
	if got != (Vec3{2, 0, 0}) {
		t.Errorf("TransformDirection: got %v, want (2, 0, 0)", got)
	}
}

func TestTRS(t *testing.T) {
	m := TRS(Vec3{5, 0, 0}, QuatFromAxisAngle(Vec3{Y: 1}, float32(math.Pi/2)), Vec3{2, 2, 2})
	// Scale (1,0,0) to (2,0,0), rotate 90deg around Y to (0,0,-2), translate.
	got := m.TransformPoint(Vec3{1, 0, 0})
	want := Vec3{5, 0, -2}
	if got.Distance(want) > 1e-5 {
		t.Errorf("TRS point: got %v, want %v", got, want)
	}
}
