package systems

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/anima/engine/assets"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/g2d"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

var ErrShaderNotFound = errors.New("shader not found")

/** @brief Configuration for the shader system. */
type ShaderSystemConfig struct {
	/** @brief The maximum number of shaders held in the system. */
	MaxShaderCount uint16
}

/**
 * @brief Creates custom batch shaders from configs or .shadercfg assets.
 * Every shader must consume the sprite vertex layout.
 */
type ShaderSystem struct {
	// This system's configuration.
	Config *ShaderSystemConfig
	// A lookup table for shader name->shader
	Lookup map[string]*metadata.Shader
	// sub systems
	backend      renderer.RendererBackend
	assetManager *assets.AssetManager
}

func NewShaderSystem(config *ShaderSystemConfig, backend renderer.RendererBackend, am *assets.AssetManager) (*ShaderSystem, error) {
	// Verify configuration.
	if config.MaxShaderCount == 0 {
		err := fmt.Errorf("NewShaderSystem - config.MaxShaderCount must be greater than 0")
		core.LogError(err.Error())
		return nil, err
	}
	return &ShaderSystem{
		Config:       config,
		Lookup:       make(map[string]*metadata.Shader),
		backend:      backend,
		assetManager: am,
	}, nil
}

/**
 * @brief Creates a new shader with the given config. Missing attributes
 * default to the sprite layout.
 */
func (shaderSystem *ShaderSystem) CreateShader(config *metadata.ShaderConfig) (*metadata.Shader, error) {
	if _, exists := shaderSystem.Lookup[config.Name]; exists {
		return nil, fmt.Errorf("shader '%s' already exists: %w", config.Name, core.ErrInvalidArgument)
	}
	if len(shaderSystem.Lookup) >= int(shaderSystem.Config.MaxShaderCount) {
		return nil, fmt.Errorf("shader '%s': %w", config.Name, core.ErrCapacity)
	}
	if len(config.Attributes) == 0 {
		config.Attributes = g2d.SpriteAttributes
	} else if err := checkSpriteAttributes(config.Attributes); err != nil {
		return nil, fmt.Errorf("shader '%s': %w", config.Name, err)
	}

	shader := metadata.NewShader(config)
	if err := shaderSystem.backend.ShaderCreate(shader, config); err != nil {
		core.LogError("Error creating shader '%s': %s", config.Name, err)
		return nil, err
	}
	shaderSystem.Lookup[config.Name] = shader
	core.LogDebug("shader '%s' created with %d uniforms", config.Name, len(config.Uniforms))
	return shader, nil
}

// Load creates a shader from a .shadercfg asset, or returns the existing one.
func (shaderSystem *ShaderSystem) Load(resourceName string) (*metadata.Shader, error) {
	if shaderSystem.assetManager == nil {
		return nil, fmt.Errorf("shader '%s': no asset manager configured: %w", resourceName, ErrShaderNotFound)
	}
	res, err := shaderSystem.assetManager.LoadAsset(resourceName, metadata.ResourceTypeShader, nil)
	if err != nil {
		return nil, err
	}
	defer shaderSystem.assetManager.UnloadAsset(res)

	config := res.Data.(*metadata.ShaderConfig)
	if s, ok := shaderSystem.Lookup[config.Name]; ok {
		return s, nil
	}
	return shaderSystem.CreateShader(config)
}

func (shaderSystem *ShaderSystem) GetShader(shaderName string) (*metadata.Shader, error) {
	s, ok := shaderSystem.Lookup[shaderName]
	if !ok {
		return nil, fmt.Errorf("'%s': %w", shaderName, ErrShaderNotFound)
	}
	return s, nil
}

// Destroy releases the backend shader. Batches using it must have switched
// to another shader first.
func (shaderSystem *ShaderSystem) Destroy(shaderName string) error {
	s, ok := shaderSystem.Lookup[shaderName]
	if !ok {
		return fmt.Errorf("'%s': %w", shaderName, ErrShaderNotFound)
	}
	shaderSystem.backend.ShaderDestroy(s)
	delete(shaderSystem.Lookup, shaderName)
	return nil
}

/**
 * @brief Shuts down the shader system, destroying any shaders still in existence.
 */
func (shaderSystem *ShaderSystem) Shutdown() error {
	for name, s := range shaderSystem.Lookup {
		shaderSystem.backend.ShaderDestroy(s)
		delete(shaderSystem.Lookup, name)
	}
	return nil
}

func checkSpriteAttributes(attributes []metadata.ShaderAttribute) error {
	if len(attributes) != len(g2d.SpriteAttributes) {
		return fmt.Errorf("expected %d vertex attributes, got %d: %w", len(g2d.SpriteAttributes), len(attributes), core.ErrInvalidArgument)
	}
	for i, a := range attributes {
		want := g2d.SpriteAttributes[i]
		if a.Name != want.Name || a.Type != want.Type {
			return fmt.Errorf("attribute %d is '%s', expected '%s': %w", i, a.Name, want.Name, core.ErrInvalidArgument)
		}
	}
	return nil
}
