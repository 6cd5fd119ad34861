package metadata

/**
 * @brief Represents the current state of a given shader.
 */
type ShaderState int

const (
	/** @brief The shader has not yet gone through the creation process, and is unusable.*/
	SHADER_STATE_NOT_CREATED ShaderState = iota
	/** @brief The shader is created and ready for use.*/
	SHADER_STATE_INITIALIZED
	/** @brief The shader has been destroyed. */
	SHADER_STATE_DESTROYED
)

/** @brief Available attribute types. */
type ShaderAttributeType uint

const (
	SHADER_ATTRIB_TYPE_FLOAT32 ShaderAttributeType = iota
	SHADER_ATTRIB_TYPE_FLOAT32_2
	SHADER_ATTRIB_TYPE_FLOAT32_3
	SHADER_ATTRIB_TYPE_FLOAT32_4
	/** @brief Four normalized unsigned bytes packed into one float slot. */
	SHADER_ATTRIB_TYPE_PACKED_COLOR
)

/** @brief Size in floats occupied by the attribute inside a vertex. */
func (t ShaderAttributeType) Floats() int {
	switch t {
	case SHADER_ATTRIB_TYPE_FLOAT32_2:
		return 2
	case SHADER_ATTRIB_TYPE_FLOAT32_3:
		return 3
	case SHADER_ATTRIB_TYPE_FLOAT32_4:
		return 4
	default:
		return 1
	}
}

/** @brief Available uniform types. */
type ShaderUniformType uint

const (
	SHADER_UNIFORM_TYPE_INT32 ShaderUniformType = iota
	SHADER_UNIFORM_TYPE_MATRIX_4
	SHADER_UNIFORM_TYPE_SAMPLER
)

/**
 * @brief Represents a single shader vertex attribute.
 */
type ShaderAttribute struct {
	/** @brief The attribute Name as referenced by the shader source. */
	Name string
	Type ShaderAttributeType
}

type ShaderUniformConfig struct {
	Name string
	Type ShaderUniformType
}

/**
 * @brief Configuration for a shader. The backend compiles the sources;
 * batches only reference uniforms by name.
 */
type ShaderConfig struct {
	Name           string
	VertexSource   string
	FragmentSource string
	Attributes     []ShaderAttribute
	Uniforms       []ShaderUniformConfig
}

/**
 * @brief Represents a shader on the frontend.
 */
type Shader struct {
	/** @brief The shader identifier */
	ID   uint32
	Name string
	/** @brief A table of uniform types by name. */
	UniformLookup map[string]ShaderUniformType
	/** @brief An array of Attributes. */
	Attributes []ShaderAttribute
	/** @brief The internal State of the shader. */
	State ShaderState
	/** @brief An opaque pointer to hold renderer API specific data. */
	InternalData interface{}
}

/**
 * @brief Builds an uncreated shader from its configuration.
 */
func NewShader(config *ShaderConfig) *Shader {
	s := &Shader{
		Name:          config.Name,
		UniformLookup: make(map[string]ShaderUniformType, len(config.Uniforms)),
		Attributes:    append([]ShaderAttribute(nil), config.Attributes...),
	}
	for _, u := range config.Uniforms {
		s.UniformLookup[u.Name] = u.Type
	}
	return s
}

/** @brief Reports whether the shader declares the named uniform. */
func (s *Shader) HasUniform(name string) bool {
	_, ok := s.UniformLookup[name]
	return ok
}
