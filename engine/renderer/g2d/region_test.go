package g2d

import (
	"testing"

	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

func TestTextureRegionPixels(t *testing.T) {
	tex := &metadata.Texture{Width: 64, Height: 64}
	tests := []struct {
		name          string
		region        *TextureRegion
		u, v, u2, v2  float32
		width, height int
	}{
		{"whole texture", NewTextureRegion(tex), 0, 0, 1, 1, 64, 64},
		{"sub rectangle", NewTextureRegionPixels(tex, 16, 32, 16, 16), 0.25, 0.5, 0.5, 0.75, 16, 16},
		{"negative width flips", NewTextureRegionPixels(tex, 32, 0, -16, 16), 0.5, 0, 0.25, 0.25, 16, 16},
		{"single texel is nudged inwards", NewTextureRegionPixels(&metadata.Texture{Width: 4, Height: 4}, 1, 1, 1, 1),
			0.3125, 0.3125, 0.4375, 0.4375, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.region
			if r.U != tt.u || r.V != tt.v || r.U2 != tt.u2 || r.V2 != tt.v2 {
				t.Errorf("uv = (%v,%v,%v,%v), want (%v,%v,%v,%v)", r.U, r.V, r.U2, r.V2, tt.u, tt.v, tt.u2, tt.v2)
			}
			if r.RegionWidth != tt.width || r.RegionHeight != tt.height {
				t.Errorf("size = %dx%d, want %dx%d", r.RegionWidth, r.RegionHeight, tt.width, tt.height)
			}
		})
	}
}

func TestTextureRegionFrom(t *testing.T) {
	tex := &metadata.Texture{Width: 64, Height: 64}
	parent := NewTextureRegionPixels(tex, 16, 16, 32, 32)
	child := NewTextureRegionFrom(parent, 8, 4, 8, 8)
	if child.RegionX() != 24 || child.RegionY() != 20 {
		t.Fatalf("child at (%d,%d), want (24,20)", child.RegionX(), child.RegionY())
	}
	if child.Texture != tex {
		t.Fatal("child lost the parent's texture")
	}
}

func TestTextureRegionFlip(t *testing.T) {
	tex := &metadata.Texture{Width: 64, Height: 64}
	r := NewTextureRegionPixels(tex, 0, 0, 32, 16)

	r.Flip(true, false)
	if !r.IsFlipX() || r.IsFlipY() {
		t.Fatalf("flipX=%t flipY=%t after Flip(true,false)", r.IsFlipX(), r.IsFlipY())
	}
	if r.U != 0.5 || r.U2 != 0 {
		t.Fatalf("u=%v u2=%v, want swapped", r.U, r.U2)
	}
	r.Flip(true, true)
	if r.IsFlipX() || !r.IsFlipY() {
		t.Fatalf("flipX=%t flipY=%t after second flip", r.IsFlipX(), r.IsFlipY())
	}
	if r.RegionWidth != 32 || r.RegionHeight != 16 {
		t.Fatalf("flip changed the size to %dx%d", r.RegionWidth, r.RegionHeight)
	}
}

func TestTextureRegionResize(t *testing.T) {
	tex := &metadata.Texture{Width: 64, Height: 64}
	r := NewTextureRegionPixels(tex, 16, 16, 16, 16)
	r.SetRegionWidth(32)
	r.SetRegionHeight(8)
	if r.RegionX() != 16 || r.RegionY() != 16 {
		t.Fatalf("top-left moved to (%d,%d)", r.RegionX(), r.RegionY())
	}
	if r.RegionWidth != 32 || r.RegionHeight != 8 {
		t.Fatalf("size = %dx%d, want 32x8", r.RegionWidth, r.RegionHeight)
	}

	r.SetRegionX(0)
	if r.RegionX() != 0 || r.RegionWidth != 48 {
		t.Fatalf("after SetRegionX(0): x=%d width=%d, want 0 and 48", r.RegionX(), r.RegionWidth)
	}
}

func TestTextureRegionScroll(t *testing.T) {
	tex := &metadata.Texture{Width: 64, Height: 64}
	r := NewTextureRegionPixels(tex, 0, 0, 32, 32)
	r.Scroll(0.75, 0)
	if r.U != 0.75 || r.U2 != 1.25 {
		t.Fatalf("u=%v u2=%v, want 0.75 and 1.25", r.U, r.U2)
	}
	r.Scroll(0.5, 0.5)
	if r.U != 0.25 || r.U2 != 0.75 {
		t.Fatalf("u=%v u2=%v after wrapping, want 0.25 and 0.75", r.U, r.U2)
	}
	if r.V != 0.5 || r.V2 != 1 {
		t.Fatalf("v=%v v2=%v, want 0.5 and 1", r.V, r.V2)
	}
}

func TestTextureRegionSplit(t *testing.T) {
	tex := &metadata.Texture{Width: 64, Height: 32}
	tests := []struct {
		name                  string
		tileWidth, tileHeight int
		rows, cols            int
	}{
		{"exact", 16, 16, 2, 4},
		{"partial tiles dropped", 20, 20, 1, 3},
		{"larger than texture", 128, 16, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiles := SplitTexture(tex, tt.tileWidth, tt.tileHeight)
			if len(tiles) != tt.rows {
				t.Fatalf("rows = %d, want %d", len(tiles), tt.rows)
			}
			for _, row := range tiles {
				if len(row) != tt.cols {
					t.Fatalf("cols = %d, want %d", len(row), tt.cols)
				}
			}
		})
	}

	tiles := SplitTexture(tex, 16, 16)
	tile := tiles[1][2]
	if tile.RegionX() != 32 || tile.RegionY() != 16 {
		t.Fatalf("tile[1][2] at (%d,%d), want (32,16)", tile.RegionX(), tile.RegionY())
	}
	if SplitTexture(tex, 0, 16) != nil {
		t.Fatal("zero tile width should yield no tiles")
	}
}

func TestPolygonRegionTextureCoords(t *testing.T) {
	tex := &metadata.Texture{Width: 64, Height: 64}
	region := NewTextureRegionPixels(tex, 0, 0, 32, 32)
	poly := NewPolygonRegion(region, []float32{0, 0, 32, 0, 32, 32, 0, 32}, FanTriangles(4))

	want := []float32{0, 0.5, 0.5, 0.5, 0.5, 0, 0, 0}
	if !equalFloats(poly.TextureCoords, want) {
		t.Fatalf("texture coords = %v, want %v", poly.TextureCoords, want)
	}
}

func TestFanTriangles(t *testing.T) {
	tests := []struct {
		vertices int
		want     []uint16
	}{
		{2, nil},
		{3, []uint16{0, 1, 2}},
		{5, []uint16{0, 1, 2, 0, 2, 3, 0, 3, 4}},
	}
	for _, tt := range tests {
		got := FanTriangles(tt.vertices)
		if len(got) != len(tt.want) {
			t.Fatalf("FanTriangles(%d) = %v, want %v", tt.vertices, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("FanTriangles(%d) = %v, want %v", tt.vertices, got, tt.want)
			}
		}
	}
}
