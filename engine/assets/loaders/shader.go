package loaders

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

type shaderAttributeFile struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

type shaderUniformFile struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// shaderFile is the on-disk .shadercfg layout. Stage sources are resolved
// relative to the .shadercfg file.
type shaderFile struct {
	Name       string                `toml:"name"`
	Vertex     string                `toml:"vertex"`
	Fragment   string                `toml:"fragment"`
	Attributes []shaderAttributeFile `toml:"attributes"`
	Uniforms   []shaderUniformFile   `toml:"uniforms"`
}

// ShaderLoader produces a *metadata.ShaderConfig ready for ShaderCreate.
type ShaderLoader struct{}

func (sl *ShaderLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file shaderFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse shader config '%s': %w", path, err)
	}
	if file.Vertex == "" || file.Fragment == "" {
		return nil, fmt.Errorf("shader config '%s' must name a vertex and a fragment source", path)
	}

	dir := filepath.Dir(path)
	vertex, err := os.ReadFile(filepath.Join(dir, file.Vertex))
	if err != nil {
		return nil, fmt.Errorf("shader config '%s': %w", path, err)
	}
	fragment, err := os.ReadFile(filepath.Join(dir, file.Fragment))
	if err != nil {
		return nil, fmt.Errorf("shader config '%s': %w", path, err)
	}

	config := &metadata.ShaderConfig{
		Name:           file.Name,
		VertexSource:   string(vertex),
		FragmentSource: string(fragment),
	}
	if config.Name == "" {
		config.Name = filepath.Base(path)
	}

	for _, a := range file.Attributes {
		t, err := parseAttributeType(a.Type)
		if err != nil {
			return nil, fmt.Errorf("shader config '%s': attribute '%s': %w", path, a.Name, err)
		}
		config.Attributes = append(config.Attributes, metadata.ShaderAttribute{Name: a.Name, Type: t})
	}
	for _, u := range file.Uniforms {
		t, err := parseUniformType(u.Type)
		if err != nil {
			return nil, fmt.Errorf("shader config '%s': uniform '%s': %w", path, u.Name, err)
		}
		config.Uniforms = append(config.Uniforms, metadata.ShaderUniformConfig{Name: u.Name, Type: t})
	}

	return &metadata.Resource{
		Name:     config.Name,
		FullPath: path,
		Type:     metadata.ResourceTypeShader,
		Data:     config,
	}, nil
}

func (sl *ShaderLoader) Unload(resource *metadata.Resource) error {
	if resource == nil {
		return fmt.Errorf("shader loader: nil resource")
	}
	resource.Data = nil
	return nil
}

func parseAttributeType(s string) (metadata.ShaderAttributeType, error) {
	switch s {
	case "float":
		return metadata.SHADER_ATTRIB_TYPE_FLOAT32, nil
	case "vec2":
		return metadata.SHADER_ATTRIB_TYPE_FLOAT32_2, nil
	case "vec3":
		return metadata.SHADER_ATTRIB_TYPE_FLOAT32_3, nil
	case "vec4":
		return metadata.SHADER_ATTRIB_TYPE_FLOAT32_4, nil
	case "color":
		return metadata.SHADER_ATTRIB_TYPE_PACKED_COLOR, nil
	}
	return 0, fmt.Errorf("unknown attribute type '%s'", s)
}

func parseUniformType(s string) (metadata.ShaderUniformType, error) {
	switch s {
	case "int":
		return metadata.SHADER_UNIFORM_TYPE_INT32, nil
	case "mat4":
		return metadata.SHADER_UNIFORM_TYPE_MATRIX_4, nil
	case "sampler", "sampler2D":
		return metadata.SHADER_UNIFORM_TYPE_SAMPLER, nil
	}
	return 0, fmt.Errorf("unknown uniform type '%s'", s)
}
