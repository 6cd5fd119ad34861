package g2d

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// Batch collects textured geometry between Begin and End and submits it
// to the backend in as few draw calls as possible. Geometry is flushed
// when the texture changes, when the buffer is full, and before any
// state change that would affect already buffered geometry.
type Batch interface {
	Begin() error
	End() error
	Flush() error
	IsDrawing() bool

	SetColor(c math.Color)
	SetPackedColor(packed float32)
	Color() math.Color
	PackedColor() float32

	// Draw places the whole texture at (x, y) with the given size.
	Draw(texture *metadata.Texture, x, y, width, height float32) error
	// DrawUV places a texture area given in normalized coordinates.
	DrawUV(texture *metadata.Texture, x, y, width, height, u, v, u2, v2 float32) error
	// DrawQuad places a pixel area of the texture with full transform.
	DrawQuad(texture *metadata.Texture, q Quad, src SourceRect) error
	// DrawVertices copies count pre-packed floats starting at offset.
	DrawVertices(texture *metadata.Texture, vertices []float32, offset, count int) error
	DrawRegion(region *TextureRegion, x, y, width, height float32) error
	DrawRegionQuad(region *TextureRegion, q Quad) error
	// DrawRegionRotated90 draws a region stored rotated by 90 degrees.
	DrawRegionRotated90(region *TextureRegion, q Quad, clockwise bool) error
	DrawRegionAffine(region *TextureRegion, width, height float32, transform math.Affine2) error

	DisableBlending() error
	EnableBlending() error
	SetBlendFunction(src, dst metadata.BlendFactor) error
	SetBlendFunctionSeparate(state metadata.BlendState) error
	BlendFunction() metadata.BlendState
	IsBlendingEnabled() bool

	ProjectionMatrix() math.Mat4
	TransformMatrix() math.Mat4
	SetProjectionMatrix(projection math.Mat4) error
	SetTransformMatrix(transform math.Mat4) error

	// SetShader replaces the shader; nil restores the default one.
	SetShader(shader *metadata.Shader) error
	Shader() *metadata.Shader

	Dispose()
}

// session is the begin/end state shared by the drawing batches.
type session struct {
	name    string
	backend renderer.RendererBackend
	mesh    *metadata.Mesh
	flush   func() error

	drawing     bool
	lastTexture *metadata.Texture

	projectionMatrix math.Mat4
	transformMatrix  math.Mat4
	combinedMatrix   math.Mat4

	blendingDisabled bool
	blend            metadata.BlendState

	shader       *metadata.Shader
	ownsShader   bool
	customShader *metadata.Shader

	color       math.Color
	colorPacked float32

	// Number of draw calls since the last Begin.
	RenderCalls int
	// Number of draw calls since the batch was created.
	TotalRenderCalls int
}

func newSession(name string, backend renderer.RendererBackend, shader *metadata.Shader, viewportWidth, viewportHeight float32) (session, error) {
	s := session{
		name:             name,
		backend:          backend,
		projectionMatrix: math.NewMat4Ortho2D(0, 0, viewportWidth, viewportHeight),
		transformMatrix:  math.NewMat4Identity(),
		blend:            metadata.DefaultBlendState,
		color:            math.ColorWhite,
		colorPacked:      math.WhiteFloatBits,
		shader:           shader,
	}
	if shader == nil {
		cfg := DefaultShaderConfig()
		s.shader = metadata.NewShader(cfg)
		if err := backend.ShaderCreate(s.shader, cfg); err != nil {
			return s, fmt.Errorf("%s: creating default shader: %w", name, err)
		}
		s.ownsShader = true
	}
	return s, nil
}

func (s *session) IsDrawing() bool {
	return s.drawing
}

func (s *session) SetColor(c math.Color) {
	s.color = c
	s.colorPacked = c.ToFloatBits()
}

func (s *session) SetPackedColor(packed float32) {
	s.colorPacked = packed
	s.color = math.ColorFromFloatBits(packed)
}

func (s *session) Color() math.Color {
	return s.color
}

func (s *session) PackedColor() float32 {
	return s.colorPacked
}

func (s *session) DisableBlending() error {
	if s.blendingDisabled {
		return nil
	}
	if err := s.flush(); err != nil {
		return err
	}
	s.blendingDisabled = true
	return nil
}

func (s *session) EnableBlending() error {
	if !s.blendingDisabled {
		return nil
	}
	if err := s.flush(); err != nil {
		return err
	}
	s.blendingDisabled = false
	return nil
}

func (s *session) SetBlendFunction(src, dst metadata.BlendFactor) error {
	return s.SetBlendFunctionSeparate(metadata.BlendState{SrcColor: src, DstColor: dst, SrcAlpha: src, DstAlpha: dst})
}

func (s *session) SetBlendFunctionSeparate(state metadata.BlendState) error {
	if s.blend == state {
		return nil
	}
	if err := s.flush(); err != nil {
		return err
	}
	s.blend = state
	return nil
}

func (s *session) BlendFunction() metadata.BlendState {
	return s.blend
}

func (s *session) IsBlendingEnabled() bool {
	return !s.blendingDisabled
}

func (s *session) ProjectionMatrix() math.Mat4 {
	return s.projectionMatrix
}

func (s *session) TransformMatrix() math.Mat4 {
	return s.transformMatrix
}

func (s *session) SetProjectionMatrix(projection math.Mat4) error {
	if s.drawing {
		if err := s.flush(); err != nil {
			return err
		}
	}
	s.projectionMatrix = projection
	if s.drawing {
		return s.setupMatrices()
	}
	return nil
}

func (s *session) SetTransformMatrix(transform math.Mat4) error {
	if s.drawing {
		if err := s.flush(); err != nil {
			return err
		}
	}
	s.transformMatrix = transform
	if s.drawing {
		return s.setupMatrices()
	}
	return nil
}

func (s *session) SetShader(shader *metadata.Shader) error {
	if shader == s.customShader {
		return nil
	}
	if s.drawing {
		if err := s.flush(); err != nil {
			return err
		}
	}
	s.customShader = shader
	if s.drawing {
		if err := s.backend.ShaderUse(s.activeShader()); err != nil {
			return fmt.Errorf("%s: binding shader: %w", s.name, err)
		}
		return s.setupMatrices()
	}
	return nil
}

func (s *session) Shader() *metadata.Shader {
	return s.activeShader()
}

func (s *session) activeShader() *metadata.Shader {
	if s.customShader != nil {
		return s.customShader
	}
	return s.shader
}

func (s *session) begin() error {
	if s.drawing {
		return fmt.Errorf("%s: End must be called before Begin: %w", s.name, core.ErrInvalidState)
	}
	s.RenderCalls = 0
	s.backend.SetDepthMask(false)
	if err := s.backend.ShaderUse(s.activeShader()); err != nil {
		return fmt.Errorf("%s: binding shader: %w", s.name, err)
	}
	if err := s.setupMatrices(); err != nil {
		return err
	}
	s.drawing = true
	return nil
}

func (s *session) end() error {
	if !s.drawing {
		return fmt.Errorf("%s: Begin must be called before End: %w", s.name, core.ErrInvalidState)
	}
	flushErr := s.flush()
	s.lastTexture = nil
	s.drawing = false

	s.backend.SetDepthMask(true)
	if s.IsBlendingEnabled() {
		s.backend.SetBlendingEnabled(false)
	}
	return errors.Join(flushErr, s.backend.ShaderEnd(s.activeShader()))
}

func (s *session) setupMatrices() error {
	s.combinedMatrix = s.projectionMatrix.Mul(s.transformMatrix)
	shader := s.activeShader()
	if err := s.backend.SetUniformMatrix(shader, UniformProjTrans, s.combinedMatrix); err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	if err := s.backend.SetUniformInt(shader, UniformTexture, 0); err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	return nil
}

// checkDraw validates a draw request and flushes on a texture switch.
// It reports whether the texture changed.
func (s *session) checkDraw(texture *metadata.Texture) (bool, error) {
	if !s.drawing {
		return false, fmt.Errorf("%s: Begin must be called before drawing: %w", s.name, core.ErrInvalidState)
	}
	if texture == nil {
		return false, fmt.Errorf("%s: %w", s.name, core.ErrNilTexture)
	}
	if texture == s.lastTexture {
		return false, nil
	}
	if err := s.flush(); err != nil {
		return false, err
	}
	s.lastTexture = texture
	return true, nil
}

// submit binds the texture, applies blending and renders count indices.
func (s *session) submit(count int) error {
	if err := s.backend.TextureBind(s.lastTexture, 0); err != nil {
		return fmt.Errorf("%s: binding texture %q: %w", s.name, s.lastTexture.Name, err)
	}
	if s.blendingDisabled {
		s.backend.SetBlendingEnabled(false)
	} else {
		s.backend.SetBlendingEnabled(true)
		s.backend.SetBlendFuncSeparate(s.blend)
	}
	if err := s.backend.MeshRender(s.mesh, s.activeShader(), metadata.PrimitiveTriangles, 0, count); err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	return nil
}

func (s *session) dispose() {
	if s.mesh != nil {
		s.backend.MeshDestroy(s.mesh)
		s.mesh = nil
	}
	if s.ownsShader && s.shader != nil {
		s.backend.ShaderDestroy(s.shader)
		s.shader = nil
	}
}

func checkRange(name string, length, offset, count, unit int) error {
	if offset < 0 || count < 0 || offset+count > length {
		return fmt.Errorf("%s: range [%d, %d) outside %d floats: %w", name, offset, offset+count, length, core.ErrInvalidArgument)
	}
	if count%unit != 0 {
		return fmt.Errorf("%s: %d floats is not a whole number of %d-float units: %w", name, count, unit, core.ErrInvalidArgument)
	}
	return nil
}

func newSpriteMesh(backend renderer.RendererBackend, maxVertices, maxIndices int, static bool) (*metadata.Mesh, error) {
	mesh := &metadata.Mesh{
		Attributes:  SpriteAttributes,
		MaxVertices: maxVertices,
		MaxIndices:  maxIndices,
		Static:      static,
	}
	if err := backend.MeshCreate(mesh); err != nil {
		return nil, err
	}
	return mesh, nil
}
