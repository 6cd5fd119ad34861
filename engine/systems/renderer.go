package systems

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/g2d"
)

// Number of frames to wait after the last resize before the backend is updated.
const DefaultResizeSettleFrames = 30

type RendererSystemConfig struct {
	AppName string
	Width   uint32
	Height  uint32
	Type    renderer.RendererType

	// Sprites per SpriteBatch and CpuSpriteBatch flush.
	BatchSize           int
	PolygonMaxVertices  int
	PolygonMaxTriangles int
	// Sprites held by the SpriteCache.
	CacheSize int
	// Frames to wait after a resize. Zero selects DefaultResizeSettleFrames.
	ResizeSettleFrames uint8
}

/**
 * @brief Owns the backend and the shared 2D batches. Every batch gets a
 * pixel projection matching the framebuffer, updated after resizes.
 */
type RendererSystem struct {
	config  *RendererSystemConfig
	backend renderer.RendererBackend

	SpriteBatch  *g2d.SpriteBatch
	PolygonBatch *g2d.PolygonSpriteBatch
	CpuBatch     *g2d.CpuSpriteBatch
	Cache        *g2d.SpriteCache

	// The current window framebuffer width.
	FramebufferWidth uint32
	// The current window framebuffer height.
	FramebufferHeight uint32
	// Indicates if the window is currently being resized.
	Resizing bool
	// The current number of frames since the last resize operation.
	// Only set if Resizing = true. Otherwise 0.
	FramesSinceResize uint8

	FrameNumber uint64
	// Draw calls issued by the last completed frame.
	LastFrameRenderCalls int
	frameStartCalls      int
}

// NewRendererSystem creates the backend for config.Type unless one is given.
func NewRendererSystem(config *RendererSystemConfig, backend renderer.RendererBackend) (*RendererSystem, error) {
	if config.Width == 0 || config.Height == 0 {
		return nil, fmt.Errorf("renderer system: window size %dx%d: %w", config.Width, config.Height, core.ErrInvalidArgument)
	}
	if backend == nil {
		b, err := renderer.NewBackend(config.Type)
		if err != nil {
			return nil, err
		}
		backend = b
	}
	if config.ResizeSettleFrames == 0 {
		config.ResizeSettleFrames = DefaultResizeSettleFrames
	}
	return &RendererSystem{
		config:            config,
		backend:           backend,
		FramebufferWidth:  config.Width,
		FramebufferHeight: config.Height,
	}, nil
}

func (r *RendererSystem) Initialize() error {
	if err := r.backend.Initialize(r.config.AppName, r.FramebufferWidth, r.FramebufferHeight); err != nil {
		return fmt.Errorf("renderer backend failed to initialize: %w", err)
	}

	w, h := float32(r.FramebufferWidth), float32(r.FramebufferHeight)
	var err error
	r.SpriteBatch, err = g2d.NewSpriteBatch(&g2d.SpriteBatchConfig{
		Size:           r.config.BatchSize,
		ViewportWidth:  w,
		ViewportHeight: h,
	}, r.backend)
	if err != nil {
		return err
	}
	r.PolygonBatch, err = g2d.NewPolygonSpriteBatch(&g2d.PolygonSpriteBatchConfig{
		MaxVertices:    r.config.PolygonMaxVertices,
		MaxTriangles:   r.config.PolygonMaxTriangles,
		ViewportWidth:  w,
		ViewportHeight: h,
	}, r.backend)
	if err != nil {
		return err
	}
	r.CpuBatch, err = g2d.NewCpuSpriteBatch(&g2d.SpriteBatchConfig{
		Size:           r.config.BatchSize,
		ViewportWidth:  w,
		ViewportHeight: h,
	}, r.backend)
	if err != nil {
		return err
	}
	r.Cache, err = g2d.NewSpriteCache(&g2d.SpriteCacheConfig{
		Size:           r.config.CacheSize,
		ViewportWidth:  w,
		ViewportHeight: h,
	}, r.backend)
	if err != nil {
		return err
	}

	core.LogInfo("Renderer initialized (%s, %dx%d).", r.config.Type, r.FramebufferWidth, r.FramebufferHeight)
	return nil
}

// Backend exposes the backend for systems that create GPU resources.
func (r *RendererSystem) Backend() renderer.RendererBackend {
	return r.backend
}

func (r *RendererSystem) Shutdown() error {
	if r.Cache != nil {
		r.Cache.Dispose()
	}
	if r.CpuBatch != nil {
		r.CpuBatch.Dispose()
	}
	if r.PolygonBatch != nil {
		r.PolygonBatch.Dispose()
	}
	if r.SpriteBatch != nil {
		r.SpriteBatch.Dispose()
	}
	return r.backend.Shutdown()
}

// OnResize records the new size. The backend and projections are updated
// once the size has been stable for ResizeSettleFrames frames.
func (r *RendererSystem) OnResize(width, height uint32) {
	// Flag as resizing and store the change, but wait to regenerate.
	r.Resizing = true
	r.FramebufferWidth = width
	r.FramebufferHeight = height
	// Also reset the frame count since the last resize operation.
	r.FramesSinceResize = 0
}

// Projection is the pixel projection for the current framebuffer.
func (r *RendererSystem) Projection() math.Mat4 {
	return math.NewMat4Ortho2D(0, 0, float32(r.FramebufferWidth), float32(r.FramebufferHeight))
}

func (r *RendererSystem) applyResize() error {
	if err := r.backend.Resized(r.FramebufferWidth, r.FramebufferHeight); err != nil {
		return err
	}
	projection := r.Projection()
	return errors.Join(
		r.SpriteBatch.SetProjectionMatrix(projection),
		r.PolygonBatch.SetProjectionMatrix(projection),
		r.CpuBatch.SetProjectionMatrix(projection),
		r.Cache.SetProjectionMatrix(projection),
	)
}

func (r *RendererSystem) totalRenderCalls() int {
	return r.SpriteBatch.TotalRenderCalls +
		r.PolygonBatch.TotalRenderCalls +
		r.CpuBatch.Batch().TotalRenderCalls +
		r.Cache.TotalRenderCalls
}

// DrawFrame runs one frame: it applies a settled resize, brackets render
// with BeginFrame and EndFrame and records the frame's draw calls. It
// reports false when the frame was skipped while a resize settles.
func (r *RendererSystem) DrawFrame(deltaTime float64, render func(r *RendererSystem) error) (bool, error) {
	// Make sure the window is not currently being resized by waiting a designated
	// number of frames after the last resize operation before performing the backend updates.
	if r.Resizing {
		r.FramesSinceResize++
		if r.FramesSinceResize < r.config.ResizeSettleFrames {
			return false, nil
		}
		if err := r.applyResize(); err != nil {
			return false, fmt.Errorf("renderer resize: %w", err)
		}
		r.FramesSinceResize = 0
		r.Resizing = false
		core.LogDebug("renderer resized to %dx%d", r.FramebufferWidth, r.FramebufferHeight)
	}

	if err := r.backend.BeginFrame(deltaTime); err != nil {
		return false, fmt.Errorf("renderer begin frame: %w", err)
	}
	r.frameStartCalls = r.totalRenderCalls()

	renderErr := render(r)

	if err := r.backend.EndFrame(deltaTime); err != nil {
		return false, errors.Join(renderErr, fmt.Errorf("renderer end frame: %w", err))
	}
	r.LastFrameRenderCalls = r.totalRenderCalls() - r.frameStartCalls
	r.FrameNumber++
	return true, renderErr
}
