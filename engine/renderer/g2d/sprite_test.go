package g2d

import (
	"testing"

	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/renderer/recorder"
)

func TestSpriteVertices(t *testing.T) {
	tex := &metadata.Texture{Width: 64, Height: 64}
	region := NewTextureRegionPixels(tex, 0, 32, 32, 16)
	s := NewSprite(region)

	if s.Width() != 32 || s.Height() != 16 || s.OriginX() != 16 || s.OriginY() != 8 {
		t.Fatalf("size %vx%v origin (%v,%v)", s.Width(), s.Height(), s.OriginX(), s.OriginY())
	}
	s.SetPosition(10, 20)
	v := s.Vertices()
	if v[X1] != 10 || v[Y1] != 20 || v[X3] != 42 || v[Y3] != 36 {
		t.Fatalf("corners (%v,%v) (%v,%v)", v[X1], v[Y1], v[X3], v[Y3])
	}
	if v[U1] != region.U || v[V1] != region.V2 || v[U3] != region.U2 || v[V3] != region.V {
		t.Fatalf("uvs do not follow the region")
	}

	s.Translate(5, 0)
	if got := s.Vertices()[X1]; got != 15 {
		t.Fatalf("x after Translate = %v, want 15", got)
	}
	s.SetColor(math.NewColor(0, 1, 0, 1))
	if got := s.Vertices()[C2]; got != math.NewColor(0, 1, 0, 1).ToFloatBits() {
		t.Fatalf("colour not repacked: %v", got)
	}
}

func TestSpriteBoundingRectangle(t *testing.T) {
	tex := &metadata.Texture{Width: 64, Height: 64}
	s := NewSprite(NewTextureRegionPixels(tex, 0, 0, 20, 10))
	s.SetCenter(0, 0)
	s.SetRotation(90)

	bounds := s.BoundingRectangle()
	if !near(bounds.Min.X, -5) || !near(bounds.Max.X, 5) || !near(bounds.Min.Y, -10) || !near(bounds.Max.Y, 10) {
		t.Fatalf("bounds = %+v, want (-5,-10)..(5,10)", bounds)
	}
}

func TestSpriteFlipAndRegion(t *testing.T) {
	tex := &metadata.Texture{Width: 64, Height: 64}
	region := NewTextureRegionPixels(tex, 0, 0, 32, 32)
	s := NewSprite(region)
	s.Flip(true, false)
	v := s.Vertices()
	if v[U1] != region.U2 || v[U3] != region.U {
		t.Fatalf("flip not applied: u1=%v u3=%v", v[U1], v[U3])
	}
	if region.IsFlipX() {
		t.Fatal("flipping the sprite changed the source region")
	}

	other := NewTextureRegionPixels(tex, 32, 32, 32, 32)
	s.SetRegion(other)
	if got := s.Vertices()[U1]; got != other.U {
		t.Fatalf("u1 = %v after SetRegion, want %v", got, other.U)
	}
}

func TestSpriteDraw(t *testing.T) {
	backend := recorder.New()
	b, err := NewSpriteBatch(&SpriteBatchConfig{Size: 4}, backend)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Dispose()
	tex := newTexture(t, backend, "a", 16, 16)
	s := NewSprite(NewTextureRegion(tex))
	s.SetColor(math.NewColor(1, 1, 1, 0.5))

	if err := b.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := s.Draw(b); err != nil {
		t.Fatal(err)
	}
	if err := s.DrawAlpha(b, 0); err != nil {
		t.Fatal(err)
	}
	if b.Pending() != 2*QuadSize {
		t.Fatalf("pending %d floats, want %d", b.Pending(), 2*QuadSize)
	}
	if s.Color().A != math.NewColor(1, 1, 1, 0.5).A {
		t.Fatal("DrawAlpha did not restore the colour")
	}
	if err := b.End(); err != nil {
		t.Fatal(err)
	}
	vertices := backend.Filter(recorder.OpMeshSetVertices)[0].Vertices
	if got := math.ColorFromFloatBits(vertices[QuadSize+C1]).A; got != 0 {
		t.Fatalf("alpha-modulated draw alpha = %v, want 0", got)
	}
}

func TestAtlasOffset(t *testing.T) {
	tex := &metadata.Texture{Width: 64, Height: 64}
	s := NewSprite(NewTextureRegionPixels(tex, 0, 0, 10, 10))
	a := AtlasOffset{OffsetX: 2, OffsetY: 3, PackedWidth: 10, PackedHeight: 10, OriginalWidth: 16, OriginalHeight: 16}

	a.SetBounds(s, 0, 0, 32, 32)
	if s.X() != 4 || s.Y() != 6 || s.Width() != 20 || s.Height() != 20 {
		t.Fatalf("trimmed bounds (%v,%v) %vx%v, want (4,6) 20x20", s.X(), s.Y(), s.Width(), s.Height())
	}
	if a.X(s) != 0 || a.Y(s) != 0 || a.Width(s) != 32 || a.Height(s) != 32 {
		t.Fatalf("untrimmed bounds (%v,%v) %vx%v, want (0,0) 32x32", a.X(s), a.Y(s), a.Width(s), a.Height(s))
	}

	a.SetPosition(s, 10, 10)
	if s.X() != 14 || s.Y() != 16 {
		t.Fatalf("position (%v,%v), want (14,16)", s.X(), s.Y())
	}
	a.SetOrigin(s, 16, 16)
	if s.OriginX() != 12 || s.OriginY() != 10 {
		t.Fatalf("origin (%v,%v), want (12,10)", s.OriginX(), s.OriginY())
	}
	a.SetSize(s, 16, 16)
	if s.Width() != 10 || s.Height() != 10 || a.X(s) != 10 {
		t.Fatalf("after SetSize: %vx%v at untrimmed x %v", s.Width(), s.Height(), a.X(s))
	}
}
