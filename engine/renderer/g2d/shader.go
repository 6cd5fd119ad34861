package g2d

import "github.com/spaghettifunk/anima/engine/renderer/metadata"

// Uniform names set by the batches.
const (
	UniformProjTrans            = "u_projTrans"
	UniformTexture              = "u_texture"
	UniformProjectionViewMatrix = "u_projectionViewMatrix"
	UniformProjection           = "u_proj"
	UniformTransform            = "u_trans"
)

// Attribute names of the sprite vertex layout.
const (
	AttributePosition = "a_position"
	AttributeColor    = "a_color"
	AttributeTexCoord = "a_texCoord0"
)

// SpriteAttributes is the 5-float vertex layout shared by every batch.
var SpriteAttributes = []metadata.ShaderAttribute{
	{Name: AttributePosition, Type: metadata.SHADER_ATTRIB_TYPE_FLOAT32_2},
	{Name: AttributeColor, Type: metadata.SHADER_ATTRIB_TYPE_PACKED_COLOR},
	{Name: AttributeTexCoord, Type: metadata.SHADER_ATTRIB_TYPE_FLOAT32_2},
}

const spriteVertexShader = `attribute vec4 a_position;
attribute vec4 a_color;
attribute vec2 a_texCoord0;
uniform mat4 u_projTrans;
varying vec4 v_color;
varying vec2 v_texCoords;

void main() {
	v_color = a_color;
	v_color.a = v_color.a * (255.0/254.0);
	v_texCoords = a_texCoord0;
	gl_Position = u_projTrans * a_position;
}
`

const spriteFragmentShader = `#ifdef GL_ES
#define LOWP lowp
precision mediump float;
#else
#define LOWP
#endif
varying LOWP vec4 v_color;
varying vec2 v_texCoords;
uniform sampler2D u_texture;

void main() {
	gl_FragColor = v_color * texture2D(u_texture, v_texCoords);
}
`

const cacheVertexShader = `attribute vec4 a_position;
attribute vec4 a_color;
attribute vec2 a_texCoord0;
uniform mat4 u_projectionViewMatrix;
varying vec4 v_color;
varying vec2 v_texCoords;

void main() {
	v_color = a_color;
	v_color.a = v_color.a * (255.0/254.0);
	v_texCoords = a_texCoord0;
	gl_Position = u_projectionViewMatrix * a_position;
}
`

const cacheFragmentShader = `#ifdef GL_ES
precision mediump float;
#endif
varying vec4 v_color;
varying vec2 v_texCoords;
uniform sampler2D u_texture;

void main() {
	gl_FragColor = v_color * texture2D(u_texture, v_texCoords);
}
`

// DefaultShaderConfig is the shader used by SpriteBatch, CpuSpriteBatch
// and PolygonSpriteBatch when none is supplied. The alpha channel is
// rescaled by 255/254 to undo the packed colour's dropped bit.
func DefaultShaderConfig() *metadata.ShaderConfig {
	return &metadata.ShaderConfig{
		Name:           "Shader.Builtin.Sprite",
		VertexSource:   spriteVertexShader,
		FragmentSource: spriteFragmentShader,
		Attributes:     SpriteAttributes,
		Uniforms: []metadata.ShaderUniformConfig{
			{Name: UniformProjTrans, Type: metadata.SHADER_UNIFORM_TYPE_MATRIX_4},
			{Name: UniformTexture, Type: metadata.SHADER_UNIFORM_TYPE_SAMPLER},
		},
	}
}

// CacheShaderConfig is the default SpriteCache shader.
func CacheShaderConfig() *metadata.ShaderConfig {
	return &metadata.ShaderConfig{
		Name:           "Shader.Builtin.SpriteCache",
		VertexSource:   cacheVertexShader,
		FragmentSource: cacheFragmentShader,
		Attributes:     SpriteAttributes,
		Uniforms: []metadata.ShaderUniformConfig{
			{Name: UniformProjectionViewMatrix, Type: metadata.SHADER_UNIFORM_TYPE_MATRIX_4},
			{Name: UniformTexture, Type: metadata.SHADER_UNIFORM_TYPE_SAMPLER},
		},
	}
}
