package recorder

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// Op identifies a recorded backend call.
type Op int

const (
	OpBeginFrame Op = iota
	OpEndFrame
	OpResized
	OpTextureCreate
	OpTextureDestroy
	OpTextureBind
	OpShaderCreate
	OpShaderDestroy
	OpShaderUse
	OpShaderEnd
	OpUniformMatrix
	OpUniformInt
	OpMeshCreate
	OpMeshDestroy
	OpMeshSetVertices
	OpMeshSetIndices
	OpMeshRender
	OpBlendingEnabled
	OpBlendFunc
	OpDepthMask
)

var opNames = [...]string{
	OpBeginFrame:      "begin_frame",
	OpEndFrame:        "end_frame",
	OpResized:         "resized",
	OpTextureCreate:   "texture_create",
	OpTextureDestroy:  "texture_destroy",
	OpTextureBind:     "texture_bind",
	OpShaderCreate:    "shader_create",
	OpShaderDestroy:   "shader_destroy",
	OpShaderUse:       "shader_use",
	OpShaderEnd:       "shader_end",
	OpUniformMatrix:   "uniform_matrix",
	OpUniformInt:      "uniform_int",
	OpMeshCreate:      "mesh_create",
	OpMeshDestroy:     "mesh_destroy",
	OpMeshSetVertices: "mesh_set_vertices",
	OpMeshSetIndices:  "mesh_set_indices",
	OpMeshRender:      "mesh_render",
	OpBlendingEnabled: "blending_enabled",
	OpBlendFunc:       "blend_func",
	OpDepthMask:       "depth_mask",
}

func (o Op) String() string {
	if o >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Command is one recorded backend call. Only the fields relevant to Op
// are set; slices are copies taken at call time.
type Command struct {
	Op        Op
	Texture   *metadata.Texture
	Shader    *metadata.Shader
	Mesh      *metadata.Mesh
	Name      string
	Matrix    math.Mat4
	Int       int32
	Primitive metadata.PrimitiveType
	Offset    int
	Count     int
	Vertices  []float32
	Indices   []uint16
	Blend     metadata.BlendState
	Enabled   bool
}

// FrameStats summarizes the commands issued between BeginFrame and EndFrame.
type FrameStats struct {
	FrameNumber  uint64
	DrawCalls    int
	Indices      int
	TextureBinds int
	Uploads      int
}
