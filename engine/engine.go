package engine

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	isRunning     atomic.Bool
	isSuspended   bool
	platform      Platform
	backend       renderer.RendererBackend
	bus           *core.EventBus
	input         *core.InputState
	systemManager *systems.SystemManager
	width         uint32
	height        uint32
	clock         *core.Clock
	lastTime      float64
}

// New prepares an engine for g. backend may be nil to create the one named
// by the configuration.
func New(g *Game, p Platform, backend renderer.RendererBackend) (*Engine, error) {
	if g == nil || g.FnInitialize == nil || g.FnUpdate == nil || g.FnRender == nil {
		return nil, fmt.Errorf("game must provide initialize, update and render functions: %w", core.ErrInvalidArgument)
	}
	if p == nil {
		p = &HeadlessPlatform{}
	}
	if g.ApplicationConfig == nil {
		g.ApplicationConfig = DefaultApplicationConfig()
	}
	if err := g.ApplicationConfig.Validate(); err != nil {
		return nil, err
	}

	bus := core.NewEventBus()
	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		platform:     p,
		backend:      backend,
		bus:          bus,
		input:        core.NewInputState(bus),
		clock:        core.NewClock(),
		width:        g.ApplicationConfig.Window.Width,
		height:       g.ApplicationConfig.Window.Height,
	}, nil
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine initialized twice: %w", core.ErrInvalidState)
	}
	e.currentStage = EngineStageInitializing
	config := e.gameInstance.ApplicationConfig
	core.SetLogLevel(config.LogLevelValue())
	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	// register some events
	e.bus.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.bus.Register(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	e.bus.Register(core.EVENT_CODE_RESIZED, e, e.onResized)

	if err := e.platform.Startup(config.Window.Title, config.Window.X, config.Window.Y,
		config.Window.Width, config.Window.Height, e.bus, e.input); err != nil {
		return err
	}

	smConfig, err := config.SystemManagerConfig()
	if err != nil {
		return err
	}
	if fs, ok := e.platform.(FramebufferSizer); ok {
		if w, h := fs.FramebufferSize(); w > 0 && h > 0 {
			e.width, e.height = w, h
			smConfig.Renderer.Width, smConfig.Renderer.Height = w, h
		}
	}
	sm, err := systems.NewSystemManager(smConfig, e.bus, e.backend)
	if err != nil {
		return err
	}
	e.systemManager = sm

	e.gameInstance.SystemManager = sm
	e.gameInstance.Bus = e.bus
	e.gameInstance.Input = e.input
	if err := e.gameInstance.FnInitialize(); err != nil {
		return err
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// Run loops until the platform closes or an APPLICATION_QUIT event fires.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine must be initialized before Run: %w", core.ErrInvalidState)
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	targetFrameSeconds := 1.0 / float64(e.gameInstance.ApplicationConfig.TargetFPS)

	for e.isRunning.Load() {
		if !e.platform.PumpMessages() {
			e.isRunning.Store(false)
			break
		}
		if e.isSuspended {
			continue
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStart := time.Now()

		if err := e.frame(delta); err != nil {
			core.LogError("frame failed, shutting down: %s", err)
			e.isRunning.Store(false)
			return err
		}

		// Figure out how long the frame took and, if below
		frameElapsed := time.Since(frameStart).Seconds()
		core.MetricsUpdate(frameElapsed, e.systemManager.Renderer.LastFrameRenderCalls)
		if remaining := targetFrameSeconds - frameElapsed; remaining > 0 && e.gameInstance.ApplicationConfig.LimitFrames {
			// If there is time left, give it back to the OS.
			time.Sleep(time.Duration(remaining * float64(time.Second)))
		}

		// NOTE: Input update/state copying should always be handled
		// after any input should be recorded; I.E. before this line.
		// As a safety, input is the last thing to be updated before
		// this frame ends.
		e.input.Update(delta)

		e.lastTime = currentTime
	}
	return nil
}

func (e *Engine) frame(delta float64) error {
	e.systemManager.Update(delta)
	if err := e.gameInstance.FnUpdate(delta); err != nil {
		return fmt.Errorf("game update: %w", err)
	}
	_, err := e.systemManager.Renderer.DrawFrame(delta, func(r *systems.RendererSystem) error {
		return e.gameInstance.FnRender(r, delta)
	})
	if err != nil {
		return fmt.Errorf("game render: %w", err)
	}
	return nil
}

// Stop asks the loop to exit after the current frame. Safe from any goroutine.
func (e *Engine) Stop() {
	e.bus.Fire(core.EVENT_CODE_APPLICATION_QUIT, e, nil)
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	e.isRunning.Store(false)

	var errs []error
	if e.gameInstance.FnShutdown != nil && e.systemManager != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	if e.systemManager != nil {
		errs = append(errs, e.systemManager.Shutdown())
		e.systemManager = nil
	}
	errs = append(errs, e.platform.Shutdown(), e.bus.Shutdown())
	e.currentStage = EngineStageUninitialized
	return errors.Join(errs...)
}

// GetFramebufferSize returns the width and height (in this order)
// of the application Framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) IsSuspended() bool {
	return e.isSuspended
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) onEvent(ctx core.EventContext, listener interface{}) bool {
	if ctx.Code == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning.Store(false)
		return true
	}
	return false
}

func (e *Engine) onKey(ctx core.EventContext, listener interface{}) bool {
	ke, ok := ctx.Data.(core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", ctx.Code)
		return false
	}
	if ke.Key == core.KEY_ESCAPE {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		e.bus.Fire(core.EVENT_CODE_APPLICATION_QUIT, e, nil)
		// Block anything else from processing this.
		return true
	}
	return false
}

// Runs on whichever goroutine fired the event; platforms fire it from the
// main loop's PumpMessages.
func (e *Engine) onResized(ctx core.EventContext, listener interface{}) bool {
	re, ok := ctx.Data.(core.ResizeEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", ctx.Code)
		return false
	}
	if re.Width == e.width && re.Height == e.height {
		return false
	}
	e.width = re.Width
	e.height = re.Height
	core.LogDebug("Window resize: %d, %d", re.Width, re.Height)

	// Handle minimization
	if re.Width == 0 || re.Height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(re.Width, re.Height); err != nil {
			core.LogError("game resize: %s", err)
		}
	}
	if e.systemManager != nil {
		e.systemManager.Renderer.OnResize(re.Width, re.Height)
	}
	return false
}
