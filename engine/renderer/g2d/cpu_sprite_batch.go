package g2d

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// cpuScratchQuads bounds the chunk size used to adjust bulk vertex runs.
const cpuScratchQuads = 32

// CpuSpriteBatch is a SpriteBatch that keeps batching across transform
// changes. While geometry is pending, a new transform is not uploaded;
// instead every later vertex is moved on the CPU by
// adjust = inverse(real) × virtual, so that real × adjust equals the
// requested transform. FlushAndSyncTransformMatrix makes the requested
// transform real.
type CpuSpriteBatch struct {
	batch *SpriteBatch

	virtualMatrix          math.Mat4
	adjustAffine           math.Affine2
	adjustNeeded           bool
	haveIdentityRealMatrix bool

	quad [QuadSize]float32
	bulk [cpuScratchQuads * QuadSize]float32
}

var _ Batch = (*CpuSpriteBatch)(nil)

func NewCpuSpriteBatch(config *SpriteBatchConfig, backend renderer.RendererBackend) (*CpuSpriteBatch, error) {
	b, err := NewSpriteBatch(config, backend)
	if err != nil {
		return nil, err
	}
	b.name = "cpu sprite batch"
	return &CpuSpriteBatch{
		batch:                  b,
		virtualMatrix:          math.NewMat4Identity(),
		adjustAffine:           math.NewAffine2Identity(),
		haveIdentityRealMatrix: true,
	}, nil
}

// Batch exposes the wrapped SpriteBatch for its statistics.
func (c *CpuSpriteBatch) Batch() *SpriteBatch {
	return c.batch
}

// FlushAndSyncTransformMatrix flushes pending geometry and uploads the
// requested transform. A singular requested transform is rejected with
// core.ErrSingularMatrix and the adjustment is kept.
func (c *CpuSpriteBatch) FlushAndSyncTransformMatrix() error {
	if err := c.batch.Flush(); err != nil {
		return err
	}
	if !c.adjustNeeded {
		return nil
	}
	identity := isAffineIdentity(c.virtualMatrix)
	if !identity && math.NewAffine2FromMat4(c.virtualMatrix).Det() == 0 {
		return fmt.Errorf("cpu sprite batch: transform matrix can't be synced: %w", core.ErrSingularMatrix)
	}
	c.haveIdentityRealMatrix = identity
	c.adjustNeeded = false
	return c.batch.SetTransformMatrix(c.virtualMatrix)
}

// IsAdjusting reports whether draws are currently moved on the CPU.
func (c *CpuSpriteBatch) IsAdjusting() bool {
	return c.adjustNeeded
}

// TransformMatrix returns the transform requested last.
func (c *CpuSpriteBatch) TransformMatrix() math.Mat4 {
	if c.adjustNeeded {
		return c.virtualMatrix
	}
	return c.batch.TransformMatrix()
}

// RealTransformMatrix returns the transform uploaded to the shader.
func (c *CpuSpriteBatch) RealTransformMatrix() math.Mat4 {
	return c.batch.TransformMatrix()
}

// SetTransformMatrix records the transform. With nothing pending it is
// uploaded right away; otherwise later draws are adjusted on the CPU.
func (c *CpuSpriteBatch) SetTransformMatrix(transform math.Mat4) error {
	realMatrix := c.batch.TransformMatrix()
	if affineEqual(realMatrix, transform) {
		c.adjustNeeded = false
		return nil
	}
	if !c.batch.IsDrawing() || c.batch.Pending() == 0 {
		c.adjustNeeded = false
		c.haveIdentityRealMatrix = isAffineIdentity(transform)
		return c.batch.SetTransformMatrix(transform)
	}

	c.virtualMatrix = transform
	if c.haveIdentityRealMatrix {
		c.adjustAffine = math.NewAffine2FromMat4(transform)
		c.adjustNeeded = true
		return nil
	}
	inv, ok := math.NewAffine2FromMat4(realMatrix).Inverse()
	if !ok {
		core.LogWarn("cpu sprite batch: current transform is singular, flushing instead of adjusting")
		c.adjustNeeded = false
		c.haveIdentityRealMatrix = isAffineIdentity(transform)
		return c.batch.SetTransformMatrix(transform)
	}
	c.adjustAffine = inv.Mul(math.NewAffine2FromMat4(transform))
	c.adjustNeeded = true
	return nil
}

func (c *CpuSpriteBatch) Begin() error {
	return c.batch.Begin()
}

// End syncs the transform and ends the wrapped batch. The batch is left
// idle even when the sync fails.
func (c *CpuSpriteBatch) End() error {
	syncErr := c.FlushAndSyncTransformMatrix()
	if syncErr != nil {
		c.adjustNeeded = false
	}
	return errors.Join(syncErr, c.batch.End())
}

func (c *CpuSpriteBatch) Flush() error {
	return c.batch.Flush()
}

func (c *CpuSpriteBatch) IsDrawing() bool {
	return c.batch.IsDrawing()
}

func (c *CpuSpriteBatch) SetColor(color math.Color) {
	c.batch.SetColor(color)
}

func (c *CpuSpriteBatch) SetPackedColor(packed float32) {
	c.batch.SetPackedColor(packed)
}

func (c *CpuSpriteBatch) Color() math.Color {
	return c.batch.Color()
}

func (c *CpuSpriteBatch) PackedColor() float32 {
	return c.batch.PackedColor()
}

func (c *CpuSpriteBatch) DisableBlending() error {
	if err := c.FlushAndSyncTransformMatrix(); err != nil {
		return err
	}
	return c.batch.DisableBlending()
}

func (c *CpuSpriteBatch) EnableBlending() error {
	if err := c.FlushAndSyncTransformMatrix(); err != nil {
		return err
	}
	return c.batch.EnableBlending()
}

func (c *CpuSpriteBatch) SetBlendFunction(src, dst metadata.BlendFactor) error {
	if err := c.FlushAndSyncTransformMatrix(); err != nil {
		return err
	}
	return c.batch.SetBlendFunction(src, dst)
}

func (c *CpuSpriteBatch) SetBlendFunctionSeparate(state metadata.BlendState) error {
	if err := c.FlushAndSyncTransformMatrix(); err != nil {
		return err
	}
	return c.batch.SetBlendFunctionSeparate(state)
}

func (c *CpuSpriteBatch) BlendFunction() metadata.BlendState {
	return c.batch.BlendFunction()
}

func (c *CpuSpriteBatch) IsBlendingEnabled() bool {
	return c.batch.IsBlendingEnabled()
}

func (c *CpuSpriteBatch) ProjectionMatrix() math.Mat4 {
	return c.batch.ProjectionMatrix()
}

func (c *CpuSpriteBatch) SetProjectionMatrix(projection math.Mat4) error {
	if err := c.FlushAndSyncTransformMatrix(); err != nil {
		return err
	}
	return c.batch.SetProjectionMatrix(projection)
}

func (c *CpuSpriteBatch) SetShader(shader *metadata.Shader) error {
	if err := c.FlushAndSyncTransformMatrix(); err != nil {
		return err
	}
	return c.batch.SetShader(shader)
}

func (c *CpuSpriteBatch) Shader() *metadata.Shader {
	return c.batch.Shader()
}

// emit packs one quad either straight into the batch or, while a
// transform adjustment is active, into scratch space that is adjusted
// and then copied.
func (c *CpuSpriteBatch) emit(texture *metadata.Texture, pack func(dst []float32)) error {
	if texture == nil {
		_, err := c.batch.checkDraw(nil)
		return err
	}
	if !c.adjustNeeded {
		dst, err := c.batch.reserve(texture)
		if err != nil {
			return err
		}
		pack(dst)
		return nil
	}
	pack(c.quad[:])
	transformPositions(c.quad[:], c.adjustAffine)
	return c.batch.DrawVertices(texture, c.quad[:], 0, QuadSize)
}

func (c *CpuSpriteBatch) Draw(texture *metadata.Texture, x, y, width, height float32) error {
	color := c.batch.colorPacked
	return c.emit(texture, func(dst []float32) {
		PackRect(dst, x, y, width, height, color, 0, 1, 1, 0)
	})
}

func (c *CpuSpriteBatch) DrawUV(texture *metadata.Texture, x, y, width, height, u, v, u2, v2 float32) error {
	color := c.batch.colorPacked
	return c.emit(texture, func(dst []float32) {
		PackRect(dst, x, y, width, height, color, u, v, u2, v2)
	})
}

func (c *CpuSpriteBatch) DrawQuad(texture *metadata.Texture, q Quad, src SourceRect) error {
	if texture == nil {
		return c.emit(nil, nil)
	}
	color := c.batch.colorPacked
	u, v, u2, v2 := src.UV(texture)
	return c.emit(texture, func(dst []float32) {
		PackQuad(dst, q, color, u, v, u2, v2)
	})
}

func (c *CpuSpriteBatch) DrawRegion(region *TextureRegion, x, y, width, height float32) error {
	color := c.batch.colorPacked
	return c.emit(region.Texture, func(dst []float32) {
		PackRect(dst, x, y, width, height, color, region.U, region.V2, region.U2, region.V)
	})
}

func (c *CpuSpriteBatch) DrawRegionQuad(region *TextureRegion, q Quad) error {
	color := c.batch.colorPacked
	return c.emit(region.Texture, func(dst []float32) {
		PackQuad(dst, q, color, region.U, region.V2, region.U2, region.V)
	})
}

func (c *CpuSpriteBatch) DrawRegionRotated90(region *TextureRegion, q Quad, clockwise bool) error {
	color := c.batch.colorPacked
	return c.emit(region.Texture, func(dst []float32) {
		PackRotated90(dst, q, color, region, clockwise)
	})
}

func (c *CpuSpriteBatch) DrawRegionAffine(region *TextureRegion, width, height float32, transform math.Affine2) error {
	color := c.batch.colorPacked
	return c.emit(region.Texture, func(dst []float32) {
		PackAffine(dst, width, height, transform, color, region.U, region.V2, region.U2, region.V)
	})
}

// DrawVertices copies pre-packed quads, adjusting them in bounded chunks
// when a transform adjustment is active.
func (c *CpuSpriteBatch) DrawVertices(texture *metadata.Texture, vertices []float32, offset, count int) error {
	if !c.adjustNeeded {
		return c.batch.DrawVertices(texture, vertices, offset, count)
	}
	if err := checkRange("cpu sprite batch", len(vertices), offset, count, QuadSize); err != nil {
		return err
	}
	for count > 0 {
		chunk := min(count, len(c.bulk))
		copy(c.bulk[:], vertices[offset:offset+chunk])
		transformPositions(c.bulk[:chunk], c.adjustAffine)
		if err := c.batch.DrawVertices(texture, c.bulk[:chunk], 0, chunk); err != nil {
			return err
		}
		offset += chunk
		count -= chunk
	}
	return nil
}

func (c *CpuSpriteBatch) Dispose() {
	c.batch.Dispose()
}

// affineEqual compares the components a 2D transform uses.
func affineEqual(a, b math.Mat4) bool {
	return a.Data[math.M00] == b.Data[math.M00] &&
		a.Data[math.M10] == b.Data[math.M10] &&
		a.Data[math.M01] == b.Data[math.M01] &&
		a.Data[math.M11] == b.Data[math.M11] &&
		a.Data[math.M03] == b.Data[math.M03] &&
		a.Data[math.M13] == b.Data[math.M13]
}

func isAffineIdentity(m math.Mat4) bool {
	return m.Data[math.M00] == 1 &&
		m.Data[math.M10] == 0 &&
		m.Data[math.M01] == 0 &&
		m.Data[math.M11] == 1 &&
		m.Data[math.M03] == 0 &&
		m.Data[math.M13] == 0
}
