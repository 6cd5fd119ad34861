package g2d

import (
	gomath "math"

	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// TextureRegion is a rectangular area of a texture in normalized
// coordinates. A flipped region has U2 < U or V2 < V. V grows downwards
// from the top row of the texture.
type TextureRegion struct {
	Texture *metadata.Texture

	U, V, U2, V2 float32

	RegionWidth  int
	RegionHeight int
}

// NewTextureRegion covers the whole texture.
func NewTextureRegion(texture *metadata.Texture) *TextureRegion {
	r := &TextureRegion{Texture: texture}
	r.SetRegionPixels(0, 0, int(texture.Width), int(texture.Height))
	return r
}

// NewTextureRegionPixels covers width x height texels starting at (x, y).
// Negative sizes produce a flipped region.
func NewTextureRegionPixels(texture *metadata.Texture, x, y, width, height int) *TextureRegion {
	r := &TextureRegion{Texture: texture}
	r.SetRegionPixels(x, y, width, height)
	return r
}

func NewTextureRegionUV(texture *metadata.Texture, u, v, u2, v2 float32) *TextureRegion {
	r := &TextureRegion{Texture: texture}
	r.SetRegionUV(u, v, u2, v2)
	return r
}

// NewTextureRegionFrom creates a region relative to another region's
// top-left corner.
func NewTextureRegionFrom(region *TextureRegion, x, y, width, height int) *TextureRegion {
	return NewTextureRegionPixels(region.Texture, region.RegionX()+x, region.RegionY()+y, width, height)
}

func (r *TextureRegion) SetRegionPixels(x, y, width, height int) {
	invTexWidth := 1 / float32(r.Texture.Width)
	invTexHeight := 1 / float32(r.Texture.Height)
	r.SetRegionUV(float32(x)*invTexWidth, float32(y)*invTexHeight, float32(x+width)*invTexWidth, float32(y+height)*invTexHeight)
	r.RegionWidth = abs(width)
	r.RegionHeight = abs(height)
}

// SetRegionUV sets the normalized bounds and recomputes the pixel size.
// A region of exactly one texel is pulled a quarter texel inwards so
// that stretched draws sample its centre.
func (r *TextureRegion) SetRegionUV(u, v, u2, v2 float32) {
	texWidth := float32(r.Texture.Width)
	texHeight := float32(r.Texture.Height)
	r.RegionWidth = math.Round(math.Abs(u2-u) * texWidth)
	r.RegionHeight = math.Round(math.Abs(v2-v) * texHeight)

	if r.RegionWidth == 1 && r.RegionHeight == 1 {
		adjustX := 0.25 / texWidth
		u += adjustX
		u2 -= adjustX
		adjustY := 0.25 / texHeight
		v += adjustY
		v2 -= adjustY
	}

	r.U = u
	r.V = v
	r.U2 = u2
	r.V2 = v2
}

// SetRegion copies another region.
func (r *TextureRegion) SetRegion(other *TextureRegion) {
	r.Texture = other.Texture
	r.SetRegionUV(other.U, other.V, other.U2, other.V2)
}

func (r *TextureRegion) SetU(u float32) {
	r.U = u
	r.RegionWidth = math.Round(math.Abs(r.U2-u) * float32(r.Texture.Width))
}

func (r *TextureRegion) SetV(v float32) {
	r.V = v
	r.RegionHeight = math.Round(math.Abs(r.V2-v) * float32(r.Texture.Height))
}

func (r *TextureRegion) SetU2(u2 float32) {
	r.U2 = u2
	r.RegionWidth = math.Round(math.Abs(u2-r.U) * float32(r.Texture.Width))
}

func (r *TextureRegion) SetV2(v2 float32) {
	r.V2 = v2
	r.RegionHeight = math.Round(math.Abs(v2-r.V) * float32(r.Texture.Height))
}

func (r *TextureRegion) RegionX() int {
	return math.Round(r.U * float32(r.Texture.Width))
}

func (r *TextureRegion) RegionY() int {
	return math.Round(r.V * float32(r.Texture.Height))
}

func (r *TextureRegion) SetRegionX(x int) {
	r.SetU(float32(x) / float32(r.Texture.Width))
}

func (r *TextureRegion) SetRegionY(y int) {
	r.SetV(float32(y) / float32(r.Texture.Height))
}

// SetRegionWidth keeps the left edge (the right one when flipped).
func (r *TextureRegion) SetRegionWidth(width int) {
	if r.IsFlipX() {
		r.SetU(r.U2 + float32(width)/float32(r.Texture.Width))
	} else {
		r.SetU2(r.U + float32(width)/float32(r.Texture.Width))
	}
}

// SetRegionHeight keeps the top edge (the bottom one when flipped).
func (r *TextureRegion) SetRegionHeight(height int) {
	if r.IsFlipY() {
		r.SetV(r.V2 + float32(height)/float32(r.Texture.Height))
	} else {
		r.SetV2(r.V + float32(height)/float32(r.Texture.Height))
	}
}

func (r *TextureRegion) IsFlipX() bool {
	return r.U > r.U2
}

func (r *TextureRegion) IsFlipY() bool {
	return r.V > r.V2
}

// Flip toggles the requested axes.
func (r *TextureRegion) Flip(x, y bool) {
	if x {
		r.U, r.U2 = r.U2, r.U
	}
	if y {
		r.V, r.V2 = r.V2, r.V
	}
}

// Scroll offsets the texture coordinates, wrapping at 1. Useful with a
// repeating texture.
func (r *TextureRegion) Scroll(xAmount, yAmount float32) {
	if xAmount != 0 {
		width := (r.U2 - r.U) * float32(r.Texture.Width)
		r.U = float32(gomath.Mod(float64(r.U+xAmount), 1))
		r.U2 = r.U + width/float32(r.Texture.Width)
	}
	if yAmount != 0 {
		height := (r.V2 - r.V) * float32(r.Texture.Height)
		r.V = float32(gomath.Mod(float64(r.V+yAmount), 1))
		r.V2 = r.V + height/float32(r.Texture.Height)
	}
}

// Split cuts the region into tiles of the given size, row by row from
// the top-left. Partial tiles at the right and bottom edges are dropped.
func (r *TextureRegion) Split(tileWidth, tileHeight int) [][]*TextureRegion {
	if tileWidth <= 0 || tileHeight <= 0 {
		return nil
	}
	x := r.RegionX()
	y := r.RegionY()
	rows := r.RegionHeight / tileHeight
	cols := r.RegionWidth / tileWidth

	startX := x
	tiles := make([][]*TextureRegion, rows)
	for row := 0; row < rows; row++ {
		tiles[row] = make([]*TextureRegion, cols)
		x = startX
		for col := 0; col < cols; col++ {
			tiles[row][col] = NewTextureRegionPixels(r.Texture, x, y, tileWidth, tileHeight)
			x += tileWidth
		}
		y += tileHeight
	}
	return tiles
}

// SplitTexture splits a whole texture into tiles.
func SplitTexture(texture *metadata.Texture, tileWidth, tileHeight int) [][]*TextureRegion {
	return NewTextureRegion(texture).Split(tileWidth, tileHeight)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
