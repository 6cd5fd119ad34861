package engine

import (
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/systems"
)

// Game is implemented by applications driven by the Engine. The engine
// fills in SystemManager, Bus and Input before calling FnInitialize.
type Game struct {
	ApplicationConfig *ApplicationConfig
	SystemManager     *systems.SystemManager
	Bus               *core.EventBus
	Input             *core.InputState
	State             interface{}

	FnInitialize Initialize
	FnUpdate     Update
	FnRender     Render
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error

// Render draws one frame. It runs between the backend's BeginFrame and
// EndFrame and must leave every batch it began ended.
type Render func(r *systems.RendererSystem, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
