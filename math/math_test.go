package math

import (
	"math"
	"testing"
)

func TestVec3Operations(t *testing.T) {
	v1 := NewVec3(1, 2, 3)
	v2 := NewVec3(4, 5, 6)

	result := v1.Add(v2)
	expected := NewVec3(5, 7, 9)
	if result != expected {
		t.Errorf("Add: expected %v, got %v", expected, result)
	}

	result = v2.Sub(v1)
	expected = NewVec3(3, 3, 3)
	if result != expected {
		t.Errorf("Sub: expected %v, got %v", expected, result)
	}

	result = v1.Mul(2)
	expected = NewVec3(2, 4, 6)
	if result != expected {
		t.Errorf("Mul: expected %v, got %v", expected, result)
	}

	dot := v1.Dot(v2)
	if dot != 32 {
		t.Errorf("Dot: expected 32, got %v", dot)
	}

	// Right x Up = Front in a right-handed system
	cross := Vec3Right.Cross(Vec3Up)
	if cross != Vec3Front {
		t.Errorf("Cross: expected %v, got %v", Vec3Front, cross)
	}

	if got := v1.Min(NewVec3(0, 5, 3)); got != NewVec3(0, 2, 3) {
		t.Errorf("Min: got %v", got)
	}
	if got := v1.Max(NewVec3(0, 5, 3)); got != NewVec3(1, 5, 3) {
		t.Errorf("Max: got %v", got)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := NewVec3(3, 0, 0)
	normalized := v.Normalize()
	expected := NewVec3(1, 0, 0)

	if normalized != expected {
		t.Errorf("Normalize: expected %v, got %v", expected, normalized)
	}
	if math.Abs(float64(normalized.Length()-1)) > 0.0001 {
		t.Errorf("Normalize: expected length 1, got %v", normalized.Length())
	}
	if zero := Vec3Zero.Normalize(); zero != Vec3Zero {
		t.Errorf("Normalize: zero vector should stay zero, got %v", zero)
	}
}

func TestMat4Identity(t *testing.T) {
	m := Mat4Identity()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			expected := float32(0)
			if i == j {
				expected = 1
			}
			if m[i][j] != expected {
				t.Errorf("Identity: expected [%d][%d] = %v, got %v", i, j, expected, m[i][j])
			}
		}
	}
}

func TestMat4Translation(t *testing.T) {
	translation := NewVec3(1, 2, 3)
	m := Mat4Translation(translation)

	if m[3][0] != 1 || m[3][1] != 2 || m[3][2] != 3 {
		t.Errorf("Translation: expected (1,2,3), got (%v,%v,%v)", m[3][0], m[3][1], m[3][2])
	}
	if got := m.MulVec3(Vec3Zero); got != translation {
		t.Errorf("Translation: expected %v, got %v", translation, got)
	}
	if got := m.MulDir(Vec3Up); got != Vec3Up {
		t.Errorf("MulDir: translation must not move directions, got %v", got)
	}
	if got := m.Translation(); got != translation {
		t.Errorf("Translation(): expected %v, got %v", translation, got)
	}
}

func TestMat4EulerMatchesXYZOrder(t *testing.T) {
	tolerance := float32(1e-5)

	// A plane facing +Z tipped by -90 degrees about X faces +Y.
	n := Mat4Euler(NewVec3(-math.Pi/2, 0, 0)).MulDir(Vec3Front)
	if !n.ApproxEqual(Vec3Up, tolerance) {
		t.Errorf("Euler X: expected %v, got %v", Vec3Up, n)
	}

	// Quarter turn about Y sends +X to -Z.
	x := Mat4Euler(NewVec3(0, math.Pi/2, 0)).MulDir(Vec3Right)
	if !x.ApproxEqual(Vec3Back, tolerance) {
		t.Errorf("Euler Y: expected %v, got %v", Vec3Back, x)
	}

	// Z applies before Y: +X -> +Y (Z turn) -> +Y (Y turn leaves it).
	v := Mat4Euler(NewVec3(0, math.Pi/2, math.Pi/2)).MulDir(Vec3Right)
	if !v.ApproxEqual(Vec3Up, tolerance) {
		t.Errorf("Euler order: expected %v, got %v", Vec3Up, v)
	}
}

func TestMat4SRT(t *testing.T) {
	m := Mat4SRT(NewVec3(2, 2, 2), Vec3Zero, NewVec3(1, 0, 0))
	got := m.MulVec3(NewVec3(1, 0, 0))
	if !got.ApproxEqual(NewVec3(3, 0, 0), 1e-6) {
		t.Errorf("SRT: scale must apply before translation, got %v", got)
	}
}

func TestMat4Perspective(t *testing.T) {
	m := Mat4Perspective(float32(math.Pi/4), 16.0/9.0, 0.1, 100)
	if m[0][0] == 0 || m[1][1] == 0 {
		t.Error("Perspective: expected non-zero X and Y scale")
	}
	if m[2][3] != -1 {
		t.Errorf("Perspective: expected w = -z, got m[2][3] = %v", m[2][3])
	}
}

func TestMat4LookAt(t *testing.T) {
	eye := NewVec3(0, 0, 5)
	m := Mat4LookAt(eye, Vec3Zero, Vec3Up)

	result := m.MulVec3(eye)
	if !result.ApproxEqual(Vec3Zero, 0.001) {
		t.Errorf("LookAt: expected eye to transform to origin, got %v", result)
	}

	// The target sits straight ahead, down -Z in view space.
	ahead := m.MulVec3(Vec3Zero)
	if !ahead.ApproxEqual(NewVec3(0, 0, -5), 0.001) {
		t.Errorf("LookAt: expected target at (0,0,-5), got %v", ahead)
	}
}

func BenchmarkVec3Add(b *testing.B) {
	v1 := NewVec3(1, 2, 3)
	v2 := NewVec3(4, 5, 6)
	for i := 0; i < b.N; i++ {
		_ = v1.Add(v2)
	}
}

func BenchmarkMat4Mul(b *testing.B) {
	m1 := Mat4Euler(NewVec3(0.1, 0.2, 0.3))
	m2 := Mat4Translation(NewVec3(1, 2, 3))
	for i := 0; i < b.N; i++ {
		_ = m1.Mul(m2)
	}
}
