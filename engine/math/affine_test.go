package math

import "testing"

func TestAffine2RoundTripMat4(t *testing.T) {
	a := NewAffine2TrnRotScl(10, 20, 45, 2, 3)
	if got := NewAffine2FromMat4(a.ToMat4()); got != a {
		t.Fatalf("round trip = %+v, want %+v", got, a)
	}
}

func TestAffine2Mul(t *testing.T) {
	tr := NewAffine2Translation(5, 6)
	sc := NewAffine2TrnRotScl(0, 0, 0, 2, 2)
	x, y := tr.Mul(sc).Apply(1, 1)
	if x != 7 || y != 8 {
		t.Fatalf("translate×scale applied to (1,1) = (%v,%v), want (7,8)", x, y)
	}
	x, y = sc.Mul(tr).Apply(1, 1)
	if x != 12 || y != 14 {
		t.Fatalf("scale×translate applied to (1,1) = (%v,%v), want (12,14)", x, y)
	}
}

func TestAffine2Inverse(t *testing.T) {
	tests := []struct {
		name string
		a    Affine2
	}{
		{"identity", NewAffine2Identity()},
		{"translation", NewAffine2Translation(-4, 9)},
		{"rotate-scale", NewAffine2TrnRotScl(3, 4, 30, 2, 0.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, ok := tt.a.Inverse()
			if !ok {
				t.Fatal("expected invertible transform")
			}
			x, y := tt.a.Mul(inv).Apply(7, -3)
			if !(Vec2{x, y}).Compare(Vec2{7, -3}, 1e-4) {
				t.Fatalf("a×inv applied = (%v,%v), want (7,-3)", x, y)
			}
		})
	}
}

func TestAffine2InverseSingular(t *testing.T) {
	a := Affine2{M00: 1, M01: 2, M10: 2, M11: 4}
	if a.Det() != 0 {
		t.Fatalf("det = %v, want 0", a.Det())
	}
	if _, ok := a.Inverse(); ok {
		t.Fatal("expected singular transform to report !ok")
	}
}

func TestAffine2Predicates(t *testing.T) {
	if !NewAffine2Identity().IsIdentity() {
		t.Error("identity not reported as identity")
	}
	if NewAffine2Translation(1, 0).IsIdentity() {
		t.Error("translation reported as identity")
	}
	if !NewAffine2Translation(1, 2).IsTranslation() {
		t.Error("translation not reported as translation")
	}
	if NewAffine2TrnRotScl(0, 0, 90, 1, 1).IsTranslation() {
		t.Error("rotation reported as translation")
	}
}
