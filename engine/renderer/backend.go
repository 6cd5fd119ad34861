package renderer

import (
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// RendererBackend is the GPU sink. Batches call it with exact offsets and
// counts; it owns every driver resource referenced by InternalData.
type RendererBackend interface {
	Initialize(appName string, appWidth, appHeight uint32) error
	Shutdown() error
	Resized(width, height uint32) error
	BeginFrame(deltaTime float64) error
	EndFrame(deltaTime float64) error

	TextureCreate(pixels []uint8, texture *metadata.Texture) error
	TextureDestroy(texture *metadata.Texture)
	TextureBind(texture *metadata.Texture, unit uint32) error

	ShaderCreate(shader *metadata.Shader, config *metadata.ShaderConfig) error
	ShaderDestroy(shader *metadata.Shader)
	ShaderUse(shader *metadata.Shader) error
	ShaderEnd(shader *metadata.Shader) error
	SetUniformMatrix(shader *metadata.Shader, name string, value math.Mat4) error
	SetUniformInt(shader *metadata.Shader, name string, value int32) error

	MeshCreate(mesh *metadata.Mesh) error
	MeshDestroy(mesh *metadata.Mesh)
	// MeshSetVertices replaces the mesh vertex data with the given floats.
	MeshSetVertices(mesh *metadata.Mesh, vertices []float32) error
	// MeshSetIndices replaces the mesh index data.
	MeshSetIndices(mesh *metadata.Mesh, indices []uint16) error
	// MeshRender draws count indices starting at offset using shader.
	MeshRender(mesh *metadata.Mesh, shader *metadata.Shader, primitive metadata.PrimitiveType, offset, count int) error

	SetBlendingEnabled(enabled bool)
	SetBlendFuncSeparate(state metadata.BlendState)
	SetDepthMask(enabled bool)
}
