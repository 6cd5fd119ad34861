package recorder

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

type meshData struct {
	vertices []float32
	indices  []uint16
}

// Backend is a headless renderer backend. It keeps the state a GPU
// driver would (bound texture, active shader, mesh contents, blend and
// depth state) and records every call for inspection.
type Backend struct {
	appName string
	width   uint32
	height  uint32

	nextID   uint32
	commands []Command
	meshes   map[uint32]*meshData
	textures map[uint32]*metadata.Texture
	shaders  map[uint32]*metadata.Shader

	boundTextures map[uint32]*metadata.Texture
	activeShader  *metadata.Shader
	blending      bool
	blend         metadata.BlendState
	depthMask     bool

	inFrame     bool
	frameNumber uint64
	current     FrameStats
	lastFrame   FrameStats

	failures map[Op]error
}

func New() *Backend {
	return &Backend{
		meshes:        make(map[uint32]*meshData),
		textures:      make(map[uint32]*metadata.Texture),
		shaders:       make(map[uint32]*metadata.Shader),
		boundTextures: make(map[uint32]*metadata.Texture),
		failures:      make(map[Op]error),
		depthMask:     true,
		blend:         metadata.DefaultBlendState,
	}
}

func (b *Backend) Initialize(appName string, appWidth, appHeight uint32) error {
	b.appName = appName
	b.width = appWidth
	b.height = appHeight
	core.LogInfo("headless renderer initialized for %s (%dx%d)", appName, appWidth, appHeight)
	return nil
}

func (b *Backend) Shutdown() error {
	for id, t := range b.textures {
		t.InternalData = nil
		delete(b.textures, id)
	}
	for id := range b.meshes {
		delete(b.meshes, id)
	}
	for id, s := range b.shaders {
		s.State = metadata.SHADER_STATE_DESTROYED
		delete(b.shaders, id)
	}
	core.LogInfo("headless renderer shut down after %d frames", b.frameNumber)
	return nil
}

func (b *Backend) Resized(width, height uint32) error {
	b.width = width
	b.height = height
	b.record(Command{Op: OpResized, Offset: int(width), Count: int(height)})
	return nil
}

func (b *Backend) BeginFrame(deltaTime float64) error {
	if err := b.fail(OpBeginFrame); err != nil {
		return err
	}
	if b.inFrame {
		return fmt.Errorf("begin frame %d: frame already in progress: %w", b.frameNumber, core.ErrInvalidState)
	}
	b.inFrame = true
	b.current = FrameStats{FrameNumber: b.frameNumber}
	b.record(Command{Op: OpBeginFrame})
	return nil
}

func (b *Backend) EndFrame(deltaTime float64) error {
	if err := b.fail(OpEndFrame); err != nil {
		return err
	}
	if !b.inFrame {
		return fmt.Errorf("end frame %d: no frame in progress: %w", b.frameNumber, core.ErrInvalidState)
	}
	b.record(Command{Op: OpEndFrame})
	b.inFrame = false
	b.lastFrame = b.current
	core.LogDebug("frame %d: %d draw calls, %d indices, %d texture binds",
		b.current.FrameNumber, b.current.DrawCalls, b.current.Indices, b.current.TextureBinds)
	b.frameNumber++
	return nil
}

func (b *Backend) TextureCreate(pixels []uint8, texture *metadata.Texture) error {
	if err := b.fail(OpTextureCreate); err != nil {
		return err
	}
	if texture == nil {
		return core.ErrNilTexture
	}
	expected := int(texture.Width) * int(texture.Height) * int(texture.ChannelCount)
	if pixels != nil && len(pixels) != expected {
		return fmt.Errorf("texture %q: got %d bytes of pixel data, want %d", texture.Name, len(pixels), expected)
	}
	b.nextID++
	texture.InternalData = b.nextID
	b.textures[b.nextID] = texture
	b.record(Command{Op: OpTextureCreate, Texture: texture})
	return nil
}

func (b *Backend) TextureDestroy(texture *metadata.Texture) {
	if texture == nil {
		return
	}
	if id, ok := texture.InternalData.(uint32); ok {
		delete(b.textures, id)
	}
	for unit, t := range b.boundTextures {
		if t == texture {
			delete(b.boundTextures, unit)
		}
	}
	texture.InternalData = nil
	b.record(Command{Op: OpTextureDestroy, Texture: texture})
}

func (b *Backend) TextureBind(texture *metadata.Texture, unit uint32) error {
	if err := b.fail(OpTextureBind); err != nil {
		return err
	}
	if texture == nil {
		return core.ErrNilTexture
	}
	b.boundTextures[unit] = texture
	b.current.TextureBinds++
	b.record(Command{Op: OpTextureBind, Texture: texture, Int: int32(unit)})
	return nil
}

func (b *Backend) ShaderCreate(shader *metadata.Shader, config *metadata.ShaderConfig) error {
	if err := b.fail(OpShaderCreate); err != nil {
		return err
	}
	if config.VertexSource == "" || config.FragmentSource == "" {
		return fmt.Errorf("shader %q: missing vertex or fragment source", config.Name)
	}
	b.nextID++
	shader.ID = b.nextID
	shader.State = metadata.SHADER_STATE_INITIALIZED
	b.shaders[shader.ID] = shader
	b.record(Command{Op: OpShaderCreate, Shader: shader, Name: config.Name})
	return nil
}

func (b *Backend) ShaderDestroy(shader *metadata.Shader) {
	if shader == nil {
		return
	}
	delete(b.shaders, shader.ID)
	shader.State = metadata.SHADER_STATE_DESTROYED
	if b.activeShader == shader {
		b.activeShader = nil
	}
	b.record(Command{Op: OpShaderDestroy, Shader: shader})
}

func (b *Backend) ShaderUse(shader *metadata.Shader) error {
	if err := b.fail(OpShaderUse); err != nil {
		return err
	}
	if shader == nil || shader.State != metadata.SHADER_STATE_INITIALIZED {
		return fmt.Errorf("use of a shader that was not created: %w", core.ErrInvalidState)
	}
	b.activeShader = shader
	b.record(Command{Op: OpShaderUse, Shader: shader})
	return nil
}

func (b *Backend) ShaderEnd(shader *metadata.Shader) error {
	if b.activeShader != shader {
		return fmt.Errorf("end of shader %q which is not in use: %w", shader.Name, core.ErrInvalidState)
	}
	b.activeShader = nil
	b.record(Command{Op: OpShaderEnd, Shader: shader})
	return nil
}

func (b *Backend) SetUniformMatrix(shader *metadata.Shader, name string, value math.Mat4) error {
	if err := b.checkUniform(shader, name, metadata.SHADER_UNIFORM_TYPE_MATRIX_4); err != nil {
		return err
	}
	b.record(Command{Op: OpUniformMatrix, Shader: shader, Name: name, Matrix: value})
	return nil
}

func (b *Backend) SetUniformInt(shader *metadata.Shader, name string, value int32) error {
	if err := b.checkUniform(shader, name, metadata.SHADER_UNIFORM_TYPE_INT32, metadata.SHADER_UNIFORM_TYPE_SAMPLER); err != nil {
		return err
	}
	b.record(Command{Op: OpUniformInt, Shader: shader, Name: name, Int: value})
	return nil
}

func (b *Backend) checkUniform(shader *metadata.Shader, name string, types ...metadata.ShaderUniformType) error {
	if b.activeShader != shader {
		return fmt.Errorf("uniform %q set on a shader that is not in use: %w", name, core.ErrInvalidState)
	}
	t, ok := shader.UniformLookup[name]
	if !ok {
		return fmt.Errorf("shader %q has no uniform %q", shader.Name, name)
	}
	for _, want := range types {
		if t == want {
			return nil
		}
	}
	return fmt.Errorf("shader %q uniform %q has a different type", shader.Name, name)
}

func (b *Backend) MeshCreate(mesh *metadata.Mesh) error {
	if err := b.fail(OpMeshCreate); err != nil {
		return err
	}
	b.nextID++
	mesh.ID = b.nextID
	b.meshes[mesh.ID] = &meshData{}
	b.record(Command{Op: OpMeshCreate, Mesh: mesh, Count: mesh.MaxVertices, Offset: mesh.MaxIndices})
	return nil
}

func (b *Backend) MeshDestroy(mesh *metadata.Mesh) {
	if mesh == nil {
		return
	}
	delete(b.meshes, mesh.ID)
	b.record(Command{Op: OpMeshDestroy, Mesh: mesh})
}

func (b *Backend) MeshSetVertices(mesh *metadata.Mesh, vertices []float32) error {
	if err := b.fail(OpMeshSetVertices); err != nil {
		return err
	}
	md, err := b.mesh(mesh)
	if err != nil {
		return err
	}
	if vs := mesh.VertexSize(); vs > 0 && len(vertices) > mesh.MaxVertices*vs {
		return fmt.Errorf("mesh %d: %d floats exceed %d vertices: %w", mesh.ID, len(vertices), mesh.MaxVertices, core.ErrCapacity)
	}
	md.vertices = append(md.vertices[:0], vertices...)
	b.current.Uploads++
	b.record(Command{Op: OpMeshSetVertices, Mesh: mesh, Count: len(vertices), Vertices: append([]float32(nil), vertices...)})
	return nil
}

func (b *Backend) MeshSetIndices(mesh *metadata.Mesh, indices []uint16) error {
	if err := b.fail(OpMeshSetIndices); err != nil {
		return err
	}
	md, err := b.mesh(mesh)
	if err != nil {
		return err
	}
	if len(indices) > mesh.MaxIndices {
		return fmt.Errorf("mesh %d: %d indices exceed %d: %w", mesh.ID, len(indices), mesh.MaxIndices, core.ErrCapacity)
	}
	md.indices = append(md.indices[:0], indices...)
	b.record(Command{Op: OpMeshSetIndices, Mesh: mesh, Count: len(indices), Indices: append([]uint16(nil), indices...)})
	return nil
}

func (b *Backend) MeshRender(mesh *metadata.Mesh, shader *metadata.Shader, primitive metadata.PrimitiveType, offset, count int) error {
	if err := b.fail(OpMeshRender); err != nil {
		return err
	}
	md, err := b.mesh(mesh)
	if err != nil {
		return err
	}
	if shader == nil || b.activeShader != shader {
		return fmt.Errorf("mesh %d rendered without its shader in use: %w", mesh.ID, core.ErrInvalidState)
	}
	if b.boundTextures[0] == nil {
		return fmt.Errorf("mesh %d rendered with no texture bound: %w", mesh.ID, core.ErrNilTexture)
	}
	if offset < 0 || count < 0 || offset+count > len(md.indices) {
		return fmt.Errorf("mesh %d: render range [%d, %d) outside %d indices: %w", mesh.ID, offset, offset+count, len(md.indices), core.ErrCapacity)
	}
	if primitive == metadata.PrimitiveTriangles && count%3 != 0 {
		return fmt.Errorf("mesh %d: %d indices is not a whole number of triangles", mesh.ID, count)
	}
	vs := mesh.VertexSize()
	for _, idx := range md.indices[offset : offset+count] {
		if vs > 0 && (int(idx)+1)*vs > len(md.vertices) {
			return fmt.Errorf("mesh %d: index %d references a vertex that was not uploaded", mesh.ID, idx)
		}
	}
	b.current.DrawCalls++
	b.current.Indices += count
	b.record(Command{
		Op:        OpMeshRender,
		Mesh:      mesh,
		Shader:    shader,
		Texture:   b.boundTextures[0],
		Primitive: primitive,
		Offset:    offset,
		Count:     count,
	})
	return nil
}

func (b *Backend) SetBlendingEnabled(enabled bool) {
	b.blending = enabled
	b.record(Command{Op: OpBlendingEnabled, Enabled: enabled})
}

func (b *Backend) SetBlendFuncSeparate(state metadata.BlendState) {
	b.blend = state
	b.record(Command{Op: OpBlendFunc, Blend: state})
}

func (b *Backend) SetDepthMask(enabled bool) {
	b.depthMask = enabled
	b.record(Command{Op: OpDepthMask, Enabled: enabled})
}

func (b *Backend) mesh(mesh *metadata.Mesh) (*meshData, error) {
	if mesh == nil {
		return nil, fmt.Errorf("nil mesh: %w", core.ErrInvalidState)
	}
	md, ok := b.meshes[mesh.ID]
	if !ok {
		return nil, fmt.Errorf("mesh %d was not created: %w", mesh.ID, core.ErrInvalidState)
	}
	return md, nil
}

func (b *Backend) record(c Command) {
	b.commands = append(b.commands, c)
}

func (b *Backend) fail(op Op) error {
	if err, ok := b.failures[op]; ok {
		delete(b.failures, op)
		return err
	}
	return nil
}
