package math

import "testing"

const testEpsilon = 1e-5

func TestMat4MulIdentity(t *testing.T) {
	a := NewMat4Translation(NewVec3(3, -2, 1)).Mul(NewMat4Scale(NewVec3(2, 4, 1)))
	if got := a.Mul(NewMat4Identity()); got != a {
		t.Fatalf("a×I = %v, want %v", got, a)
	}
	if got := NewMat4Identity().Mul(a); got != a {
		t.Fatalf("I×a = %v, want %v", got, a)
	}
}

func TestMat4MulOrder(t *testing.T) {
	// Translate after scaling: the point (1,1) scales to (2,4) then moves by (10,20).
	m := NewMat4Translation(NewVec3(10, 20, 0)).Mul(NewMat4Scale(NewVec3(2, 4, 1)))
	p := NewVec3(1, 1, 0).Transform(m)
	if p.X != 12 || p.Y != 24 {
		t.Fatalf("transformed point = (%v, %v), want (12, 24)", p.X, p.Y)
	}
}

func TestMat4Inverse(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
	}{
		{"identity", NewMat4Identity()},
		{"translation", NewMat4Translation(NewVec3(5, -7, 2))},
		{"scale", NewMat4Scale(NewVec3(2, 0.5, 4))},
		{"rotation", NewMat4EulerZ(DegToRad(30))},
		{"ortho", NewMat4Ortho2D(0, 0, 640, 480)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, ok := tt.m.Inverse()
			if !ok {
				t.Fatal("expected invertible matrix")
			}
			if got := tt.m.Mul(inv); !got.Compare(NewMat4Identity(), testEpsilon) {
				t.Fatalf("m×inv = %v, want identity", got)
			}
		})
	}
}

func TestMat4InverseSingular(t *testing.T) {
	if _, ok := NewMat4Scale(NewVec3(0, 1, 1)).Inverse(); ok {
		t.Fatal("expected singular matrix to report !ok")
	}
}

func TestMat4Det(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		want float32
	}{
		{"identity", NewMat4Identity(), 1},
		{"scale", NewMat4Scale(NewVec3(2, 0.5, 4)), 4},
		{"flat z", NewMat4Scale(NewVec3(2, 2, 0)), 0},
		{"translation", NewMat4Translation(NewVec3(5, -7, 2)), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Det(); got-tt.want > testEpsilon || tt.want-got > testEpsilon {
				t.Fatalf("det = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMat4Ortho2D(t *testing.T) {
	proj := NewMat4Ortho2D(0, 0, 800, 600)
	tests := []struct {
		in   Vec3
		want Vec3
	}{
		{NewVec3(0, 0, 0), NewVec3(-1, -1, -1)},
		{NewVec3(800, 600, 0), NewVec3(1, 1, -1)},
		{NewVec3(400, 300, 0), NewVec3(0, 0, -1)},
	}
	for _, tt := range tests {
		got := tt.in.Transform(proj)
		if !(Vec2{got.X, got.Y}).Compare(Vec2{tt.want.X, tt.want.Y}, testEpsilon) {
			t.Errorf("ortho(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMat4Transposed(t *testing.T) {
	m := NewMat4Translation(NewVec3(1, 2, 3))
	tr := NewMat4Transposed(m)
	if tr.Data[3] != 1 || tr.Data[7] != 2 || tr.Data[11] != 3 {
		t.Fatalf("unexpected transpose %v", tr.Data)
	}
	if NewMat4Transposed(tr) != m {
		t.Fatal("double transpose should be the original")
	}
}
