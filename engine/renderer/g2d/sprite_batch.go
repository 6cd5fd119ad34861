package g2d

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

const (
	// MaxSpriteBatchSize keeps every quad vertex addressable by a 16-bit index.
	MaxSpriteBatchSize = 8191
	DefaultBatchSize   = 1000
)

type SpriteBatchConfig struct {
	// Size is the number of sprites buffered before a flush. Zero selects DefaultBatchSize.
	Size int
	// Viewport size used for the initial pixel-perfect projection.
	ViewportWidth  float32
	ViewportHeight float32
	// Shader replaces the built-in shader. The caller keeps ownership.
	Shader *metadata.Shader
}

// SpriteBatch draws quads in batches of up to Size sprites per draw call.
type SpriteBatch struct {
	session

	vertices []float32
	idx      int
	// Largest number of sprites submitted by a single flush.
	MaxSpritesInBatch int
}

var _ Batch = (*SpriteBatch)(nil)

func NewSpriteBatch(config *SpriteBatchConfig, backend renderer.RendererBackend) (*SpriteBatch, error) {
	size := config.Size
	if size == 0 {
		size = DefaultBatchSize
	}
	if size < 0 || size > MaxSpriteBatchSize {
		return nil, fmt.Errorf("sprite batch: can't have more than %d sprites per batch, got %d: %w", MaxSpriteBatchSize, size, core.ErrCapacity)
	}

	s, err := newSession("sprite batch", backend, config.Shader, config.ViewportWidth, config.ViewportHeight)
	if err != nil {
		return nil, err
	}
	b := &SpriteBatch{
		session:  s,
		vertices: make([]float32, size*QuadSize),
	}
	b.session.flush = b.Flush

	b.mesh, err = newSpriteMesh(backend, size*4, size*QuadIndices, false)
	if err != nil {
		b.dispose()
		return nil, fmt.Errorf("sprite batch: %w", err)
	}
	indices := make([]uint16, size*QuadIndices)
	quadIndices(indices)
	if err := backend.MeshSetIndices(b.mesh, indices); err != nil {
		b.dispose()
		return nil, fmt.Errorf("sprite batch: %w", err)
	}
	core.LogDebug("sprite batch created: %d sprites, custom shader %t", size, config.Shader != nil)
	return b, nil
}

// Begin sets up the backend for drawing: disables depth writes, binds
// the shader and uploads the combined matrix.
func (b *SpriteBatch) Begin() error {
	return b.begin()
}

// End flushes pending sprites and restores backend state.
func (b *SpriteBatch) End() error {
	return b.end()
}

// Flush submits the buffered sprites as one draw call. It is a no-op
// when nothing is buffered.
func (b *SpriteBatch) Flush() error {
	if b.idx == 0 {
		return nil
	}
	b.RenderCalls++
	b.TotalRenderCalls++
	spritesInBatch := b.idx / QuadSize
	if spritesInBatch > b.MaxSpritesInBatch {
		b.MaxSpritesInBatch = spritesInBatch
	}
	count := spritesInBatch * QuadIndices
	pending := b.vertices[:b.idx]
	b.idx = 0

	if err := b.backend.MeshSetVertices(b.mesh, pending); err != nil {
		return fmt.Errorf("sprite batch: %w", err)
	}
	return b.submit(count)
}

// Pending returns the number of buffered floats.
func (b *SpriteBatch) Pending() int {
	return b.idx
}

// reserve returns room for one quad, flushing on a texture switch or a
// full buffer.
func (b *SpriteBatch) reserve(texture *metadata.Texture) ([]float32, error) {
	switched, err := b.checkDraw(texture)
	if err != nil {
		return nil, err
	}
	if !switched && b.idx == len(b.vertices) {
		if err := b.Flush(); err != nil {
			return nil, err
		}
	}
	dst := b.vertices[b.idx : b.idx+QuadSize]
	b.idx += QuadSize
	return dst, nil
}

func (b *SpriteBatch) Draw(texture *metadata.Texture, x, y, width, height float32) error {
	dst, err := b.reserve(texture)
	if err != nil {
		return err
	}
	PackRect(dst, x, y, width, height, b.colorPacked, 0, 1, 1, 0)
	return nil
}

func (b *SpriteBatch) DrawUV(texture *metadata.Texture, x, y, width, height, u, v, u2, v2 float32) error {
	dst, err := b.reserve(texture)
	if err != nil {
		return err
	}
	PackRect(dst, x, y, width, height, b.colorPacked, u, v, u2, v2)
	return nil
}

func (b *SpriteBatch) DrawQuad(texture *metadata.Texture, q Quad, src SourceRect) error {
	dst, err := b.reserve(texture)
	if err != nil {
		return err
	}
	u, v, u2, v2 := src.UV(texture)
	PackQuad(dst, q, b.colorPacked, u, v, u2, v2)
	return nil
}

func (b *SpriteBatch) DrawRegion(region *TextureRegion, x, y, width, height float32) error {
	dst, err := b.reserve(region.Texture)
	if err != nil {
		return err
	}
	PackRect(dst, x, y, width, height, b.colorPacked, region.U, region.V2, region.U2, region.V)
	return nil
}

func (b *SpriteBatch) DrawRegionQuad(region *TextureRegion, q Quad) error {
	dst, err := b.reserve(region.Texture)
	if err != nil {
		return err
	}
	PackQuad(dst, q, b.colorPacked, region.U, region.V2, region.U2, region.V)
	return nil
}

func (b *SpriteBatch) DrawRegionRotated90(region *TextureRegion, q Quad, clockwise bool) error {
	dst, err := b.reserve(region.Texture)
	if err != nil {
		return err
	}
	PackRotated90(dst, q, b.colorPacked, region, clockwise)
	return nil
}

func (b *SpriteBatch) DrawRegionAffine(region *TextureRegion, width, height float32, transform math.Affine2) error {
	dst, err := b.reserve(region.Texture)
	if err != nil {
		return err
	}
	PackAffine(dst, width, height, transform, b.colorPacked, region.U, region.V2, region.U2, region.V)
	return nil
}

// DrawVertices copies pre-packed quads. A run longer than the free
// space is split across as many flushes as needed.
func (b *SpriteBatch) DrawVertices(texture *metadata.Texture, vertices []float32, offset, count int) error {
	if err := checkRange("sprite batch", len(vertices), offset, count, QuadSize); err != nil {
		return err
	}
	switched, err := b.checkDraw(texture)
	if err != nil {
		return err
	}

	verticesLength := len(b.vertices)
	remainingVertices := verticesLength
	if !switched {
		remainingVertices -= b.idx
		if remainingVertices == 0 {
			if err := b.Flush(); err != nil {
				return err
			}
			remainingVertices = verticesLength
		}
	}
	copyCount := min(remainingVertices, count)

	copy(b.vertices[b.idx:], vertices[offset:offset+copyCount])
	b.idx += copyCount
	count -= copyCount
	for count > 0 {
		offset += copyCount
		if err := b.Flush(); err != nil {
			return err
		}
		copyCount = min(verticesLength, count)
		copy(b.vertices, vertices[offset:offset+copyCount])
		b.idx += copyCount
		count -= copyCount
	}
	return nil
}

// Dispose releases the mesh and the built-in shader.
func (b *SpriteBatch) Dispose() {
	b.dispose()
}
