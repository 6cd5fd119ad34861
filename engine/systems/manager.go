package systems

import (
	"errors"

	"github.com/spaghettifunk/anima/engine/assets"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

type SystemManagerConfig struct {
	Renderer RendererSystemConfig
	Jobs     JobSystemConfig
	Textures TextureSystemConfig
	Shaders  ShaderSystemConfig
	Fonts    metadata.FontSystemConfig
	// AssetRoot is the directory indexed by the asset manager. Empty
	// disables file loading and the font system.
	AssetRoot   string
	WatchAssets bool
}

// SystemManager creates the engine systems in dependency order and shuts
// them down in reverse.
type SystemManager struct {
	Bus      *core.EventBus
	Assets   *assets.AssetManager
	Jobs     *JobSystem
	Renderer *RendererSystem
	Textures *TextureSystem
	Shaders  *ShaderSystem
	Fonts    *FontSystem
	Baker    *CacheBaker
}

// NewSystemManager builds every system. backend may be nil to let the
// renderer create one from config.Renderer.Type.
func NewSystemManager(config *SystemManagerConfig, bus *core.EventBus, backend renderer.RendererBackend) (*SystemManager, error) {
	if bus == nil {
		bus = core.NewEventBus()
	}
	sm := &SystemManager{Bus: bus}

	var err error
	if config.AssetRoot != "" {
		if sm.Assets, err = assets.NewAssetManager(config.AssetRoot, bus); err != nil {
			return nil, err
		}
		if err := sm.Assets.Initialize(config.WatchAssets); err != nil {
			return nil, sm.fail(err)
		}
	}

	if sm.Jobs, err = NewJobSystem(&config.Jobs); err != nil {
		return nil, sm.fail(err)
	}

	if sm.Renderer, err = NewRendererSystem(&config.Renderer, backend); err != nil {
		return nil, sm.fail(err)
	}
	if err := sm.Renderer.Initialize(); err != nil {
		return nil, sm.fail(err)
	}

	if sm.Textures, err = NewTextureSystem(&config.Textures, sm.Renderer.Backend(), sm.Assets, sm.Jobs, bus); err != nil {
		return nil, sm.fail(err)
	}

	if config.Shaders.MaxShaderCount == 0 {
		config.Shaders.MaxShaderCount = 64
	}
	if sm.Shaders, err = NewShaderSystem(&config.Shaders, sm.Renderer.Backend(), sm.Assets); err != nil {
		return nil, sm.fail(err)
	}

	if sm.Assets != nil && config.Fonts.MaxBitmapFontCount > 0 {
		if sm.Fonts, err = NewFontSystem(&config.Fonts, sm.Textures, sm.Assets); err != nil {
			return nil, sm.fail(err)
		}
		if err := sm.Fonts.Initialize(); err != nil {
			return nil, sm.fail(err)
		}
	}

	if sm.Baker, err = NewCacheBaker(sm.Renderer.Cache, sm.Jobs); err != nil {
		return nil, sm.fail(err)
	}

	return sm, nil
}

func (sm *SystemManager) fail(err error) error {
	return errors.Join(err, sm.Shutdown())
}

// Update runs finished job callbacks and pending texture reloads.
func (sm *SystemManager) Update(deltaTime float64) {
	sm.Jobs.Update()
	sm.Textures.Update()
}

func (sm *SystemManager) Shutdown() error {
	var errs []error
	// jobs first so no callback touches a system being torn down
	if sm.Jobs != nil {
		errs = append(errs, sm.Jobs.Shutdown())
		sm.Jobs = nil
	}
	if sm.Assets != nil {
		errs = append(errs, sm.Assets.Shutdown())
		sm.Assets = nil
	}
	if sm.Fonts != nil {
		errs = append(errs, sm.Fonts.Shutdown())
		sm.Fonts = nil
	}
	if sm.Shaders != nil {
		errs = append(errs, sm.Shaders.Shutdown())
		sm.Shaders = nil
	}
	if sm.Textures != nil {
		errs = append(errs, sm.Textures.Shutdown())
		sm.Textures = nil
	}
	if sm.Renderer != nil {
		errs = append(errs, sm.Renderer.Shutdown())
		sm.Renderer = nil
	}
	sm.Baker = nil
	return errors.Join(errs...)
}
