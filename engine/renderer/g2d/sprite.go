package g2d

import (
	"github.com/spaghettifunk/anima/engine/math"
)

// Sprite is a region with a position, size, origin, scale, rotation and
// colour. Its packed vertices are cached and rebuilt only after a change.
type Sprite struct {
	Region TextureRegion

	x, y             float32
	width, height    float32
	originX, originY float32
	scaleX, scaleY   float32
	rotation         float32
	color            math.Color
	packedColor      float32

	vertices [QuadSize]float32
	dirty    bool
}

// NewSprite sizes the sprite to the region with the origin at its centre.
func NewSprite(region *TextureRegion) *Sprite {
	s := &Sprite{
		Region:      *region,
		scaleX:      1,
		scaleY:      1,
		color:       math.ColorWhite,
		packedColor: math.WhiteFloatBits,
		dirty:       true,
	}
	s.SetSize(float32(abs(region.RegionWidth)), float32(abs(region.RegionHeight)))
	s.SetOriginCenter()
	return s
}

func (s *Sprite) SetBounds(x, y, width, height float32) {
	s.x, s.y = x, y
	s.width, s.height = width, height
	s.dirty = true
}

func (s *Sprite) SetPosition(x, y float32) {
	s.x, s.y = x, y
	s.dirty = true
}

// SetCenter positions the sprite so that its centre lies at (x, y).
func (s *Sprite) SetCenter(x, y float32) {
	s.SetPosition(x-s.width/2, y-s.height/2)
}

func (s *Sprite) Translate(dx, dy float32) {
	s.SetPosition(s.x+dx, s.y+dy)
}

func (s *Sprite) SetSize(width, height float32) {
	s.width, s.height = width, height
	s.dirty = true
}

func (s *Sprite) SetOrigin(originX, originY float32) {
	s.originX, s.originY = originX, originY
	s.dirty = true
}

func (s *Sprite) SetOriginCenter() {
	s.SetOrigin(s.width/2, s.height/2)
}

// SetRotation sets the counter-clockwise rotation in degrees.
func (s *Sprite) SetRotation(degrees float32) {
	s.rotation = degrees
	s.dirty = true
}

func (s *Sprite) Rotate(degrees float32) {
	if degrees == 0 {
		return
	}
	s.SetRotation(s.rotation + degrees)
}

func (s *Sprite) SetScale(scaleX, scaleY float32) {
	s.scaleX, s.scaleY = scaleX, scaleY
	s.dirty = true
}

func (s *Sprite) SetColor(c math.Color) {
	s.color = c
	s.packedColor = c.ToFloatBits()
	s.dirty = true
}

func (s *Sprite) SetPackedColor(packed float32) {
	s.packedColor = packed
	s.color = math.ColorFromFloatBits(packed)
	s.dirty = true
}

// SetRegion swaps the displayed region without changing the geometry.
func (s *Sprite) SetRegion(region *TextureRegion) {
	s.Region = *region
	s.dirty = true
}

// Flip mirrors the texture coordinates.
func (s *Sprite) Flip(x, y bool) {
	s.Region.Flip(x, y)
	s.dirty = true
}

func (s *Sprite) X() float32 {
	return s.x
}

func (s *Sprite) Y() float32 {
	return s.y
}

func (s *Sprite) Width() float32 {
	return s.width
}

func (s *Sprite) Height() float32 {
	return s.height
}

func (s *Sprite) OriginX() float32 {
	return s.originX
}

func (s *Sprite) OriginY() float32 {
	return s.originY
}

func (s *Sprite) Rotation() float32 {
	return s.rotation
}

func (s *Sprite) ScaleX() float32 {
	return s.scaleX
}

func (s *Sprite) ScaleY() float32 {
	return s.scaleY
}

func (s *Sprite) Color() math.Color {
	return s.color
}

func (s *Sprite) PackedColor() float32 {
	return s.packedColor
}

// Quad returns the placement used to build the vertices.
func (s *Sprite) Quad() Quad {
	return Quad{
		X:        s.x,
		Y:        s.y,
		OriginX:  s.originX,
		OriginY:  s.originY,
		Width:    s.width,
		Height:   s.height,
		ScaleX:   s.scaleX,
		ScaleY:   s.scaleY,
		Rotation: s.rotation,
	}
}

// Vertices returns the packed quad, rebuilding it if the sprite changed.
// The slice is owned by the sprite.
func (s *Sprite) Vertices() []float32 {
	if s.dirty {
		PackQuad(s.vertices[:], s.Quad(), s.packedColor, s.Region.U, s.Region.V2, s.Region.U2, s.Region.V)
		s.dirty = false
	}
	return s.vertices[:]
}

// BoundingRectangle returns the axis-aligned bounds of the transformed quad.
func (s *Sprite) BoundingRectangle() math.Extents2D {
	v := s.Vertices()
	minX, minY := v[X1], v[Y1]
	maxX, maxY := v[X1], v[Y1]
	for i := VertexSize; i < QuadSize; i += VertexSize {
		minX = min(minX, v[i])
		maxX = max(maxX, v[i])
		minY = min(minY, v[i+1])
		maxY = max(maxY, v[i+1])
	}
	return math.Extents2D{Min: math.NewVec2(minX, minY), Max: math.NewVec2(maxX, maxY)}
}

// Draw submits the sprite to batch.
func (s *Sprite) Draw(batch Batch) error {
	return batch.DrawVertices(s.Region.Texture, s.Vertices(), 0, QuadSize)
}

// DrawAlpha draws with the colour's alpha scaled by alphaModulation.
func (s *Sprite) DrawAlpha(batch Batch, alphaModulation float32) error {
	previous := s.color
	c := previous
	c.A *= alphaModulation
	s.SetColor(c)
	err := s.Draw(batch)
	s.SetColor(previous)
	return err
}

// AtlasOffset records how a region was trimmed when packed into an
// atlas: the offset of the packed pixels inside the original image and
// both sizes. Positioning and sizing go through the original image.
type AtlasOffset struct {
	OffsetX, OffsetY              float32
	PackedWidth, PackedHeight     float32
	OriginalWidth, OriginalHeight float32
}

// SetBounds places sprite as if the untrimmed image covered the given
// rectangle.
func (a AtlasOffset) SetBounds(sprite *Sprite, x, y, width, height float32) {
	widthRatio := width / a.OriginalWidth
	heightRatio := height / a.OriginalHeight
	sprite.SetBounds(x+a.OffsetX*widthRatio, y+a.OffsetY*heightRatio,
		a.PackedWidth*widthRatio, a.PackedHeight*heightRatio)
}

// SetPosition places the untrimmed image's bottom-left corner at (x, y).
func (a AtlasOffset) SetPosition(sprite *Sprite, x, y float32) {
	sprite.SetPosition(x+a.OffsetX*a.scaleX(sprite), y+a.OffsetY*a.scaleY(sprite))
}

// SetSize resizes sprite so that the untrimmed image has the given size.
func (a AtlasOffset) SetSize(sprite *Sprite, width, height float32) {
	a.SetBounds(sprite, a.X(sprite), a.Y(sprite), width, height)
}

// SetOrigin sets an origin relative to the untrimmed image.
func (a AtlasOffset) SetOrigin(sprite *Sprite, originX, originY float32) {
	sprite.SetOrigin(originX-a.OffsetX*a.scaleX(sprite), originY-a.OffsetY*a.scaleY(sprite))
}

// X returns the untrimmed image's left edge.
func (a AtlasOffset) X(sprite *Sprite) float32 {
	return sprite.X() - a.OffsetX*a.scaleX(sprite)
}

// Y returns the untrimmed image's bottom edge.
func (a AtlasOffset) Y(sprite *Sprite) float32 {
	return sprite.Y() - a.OffsetY*a.scaleY(sprite)
}

func (a AtlasOffset) Width(sprite *Sprite) float32 {
	return sprite.Width() / a.PackedWidth * a.OriginalWidth
}

func (a AtlasOffset) Height(sprite *Sprite) float32 {
	return sprite.Height() / a.PackedHeight * a.OriginalHeight
}

func (a AtlasOffset) scaleX(sprite *Sprite) float32 {
	return sprite.Width() / a.PackedWidth
}

func (a AtlasOffset) scaleY(sprite *Sprite) float32 {
	return sprite.Height() / a.PackedHeight
}
