package systems

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/renderer/recorder"
)

func newTestRenderer(t *testing.T, backend *recorder.Backend, settle uint8) *RendererSystem {
	t.Helper()
	r, err := NewRendererSystem(&RendererSystemConfig{
		AppName:            "test",
		Width:              320,
		Height:             240,
		BatchSize:          8,
		CacheSize:          8,
		ResizeSettleFrames: settle,
	}, backend)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Initialize(); err != nil {
		t.Fatal(err)
	}
	return r
}

func newBackendTexture(t *testing.T, backend *recorder.Backend, name string) *metadata.Texture {
	t.Helper()
	tex := &metadata.Texture{Name: name, Width: 8, Height: 8, ChannelCount: 4}
	if err := backend.TextureCreate(nil, tex); err != nil {
		t.Fatal(err)
	}
	return tex
}

func TestRendererSystemDrawFrame(t *testing.T) {
	backend := recorder.New()
	r := newTestRenderer(t, backend, 0)
	a := newBackendTexture(t, backend, "a")
	b := newBackendTexture(t, backend, "b")

	if err := r.Cache.BeginCache(); err != nil {
		t.Fatal(err)
	}
	if err := r.Cache.Add(a, 0, 0, 8, 8); err != nil {
		t.Fatal(err)
	}
	id, err := r.Cache.EndCache()
	if err != nil {
		t.Fatal(err)
	}

	drawn, err := r.DrawFrame(0.016, func(r *RendererSystem) error {
		if err := r.SpriteBatch.Begin(); err != nil {
			return err
		}
		if err := r.SpriteBatch.Draw(a, 0, 0, 8, 8); err != nil {
			return err
		}
		if err := r.SpriteBatch.Draw(b, 8, 0, 8, 8); err != nil {
			return err
		}
		if err := r.SpriteBatch.End(); err != nil {
			return err
		}
		if err := r.Cache.Begin(); err != nil {
			return err
		}
		if err := r.Cache.Draw(id); err != nil {
			return err
		}
		return r.Cache.End()
	})
	if err != nil || !drawn {
		t.Fatalf("DrawFrame() = %t, %v", drawn, err)
	}
	if r.LastFrameRenderCalls != 3 {
		t.Errorf("LastFrameRenderCalls = %d, want 3", r.LastFrameRenderCalls)
	}
	if r.FrameNumber != 1 || backend.LastFrame().DrawCalls != 3 {
		t.Errorf("frame %d recorded %d draw calls", r.FrameNumber, backend.LastFrame().DrawCalls)
	}

	// an empty frame resets the per-frame count
	if _, err := r.DrawFrame(0.016, func(*RendererSystem) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if r.LastFrameRenderCalls != 0 {
		t.Errorf("LastFrameRenderCalls = %d after an empty frame", r.LastFrameRenderCalls)
	}

	if err := r.Shutdown(); err != nil {
		t.Fatal(err)
	}
}

func TestRendererSystemDrawFrameErrors(t *testing.T) {
	backend := recorder.New()
	r := newTestRenderer(t, backend, 0)

	renderErr := errors.New("render failed")
	drawn, err := r.DrawFrame(0, func(*RendererSystem) error { return renderErr })
	if !drawn || !errors.Is(err, renderErr) {
		t.Fatalf("DrawFrame() = %t, %v", drawn, err)
	}
	if countOps(backend, recorder.OpEndFrame) != 1 {
		t.Errorf("frame must be closed when render fails")
	}

	backend.FailNext(recorder.OpBeginFrame, core.ErrUnknown)
	called := false
	drawn, err = r.DrawFrame(0, func(*RendererSystem) error { called = true; return nil })
	if drawn || called || !errors.Is(err, core.ErrUnknown) {
		t.Fatalf("DrawFrame() = %t, %v, render called %t", drawn, err, called)
	}
}

func TestRendererSystemResizeSettles(t *testing.T) {
	backend := recorder.New()
	r := newTestRenderer(t, backend, 3)
	noop := func(*RendererSystem) error { return nil }

	r.OnResize(800, 600)
	for frame := 1; frame <= 2; frame++ {
		drawn, err := r.DrawFrame(0, noop)
		if err != nil || drawn {
			t.Fatalf("frame %d: DrawFrame() = %t, %v while resizing", frame, drawn, err)
		}
	}
	if countOps(backend, recorder.OpResized) != 0 {
		t.Fatalf("backend resized before the size settled")
	}

	// a second resize restarts the wait
	r.OnResize(1024, 768)
	for frame := 1; frame <= 2; frame++ {
		if drawn, _ := r.DrawFrame(0, noop); drawn {
			t.Fatalf("frame %d drawn during the second resize", frame)
		}
	}
	drawn, err := r.DrawFrame(0, noop)
	if err != nil || !drawn {
		t.Fatalf("DrawFrame() = %t, %v after settling", drawn, err)
	}
	if r.Resizing || r.FramesSinceResize != 0 {
		t.Errorf("resize state not cleared")
	}

	resized := backend.Filter(recorder.OpResized)
	if len(resized) != 1 || resized[0].Offset != 1024 || resized[0].Count != 768 {
		t.Fatalf("unexpected resize commands %+v", resized)
	}
	want := math.NewMat4Ortho2D(0, 0, 1024, 768)
	if r.Projection() != want {
		t.Errorf("Projection() = %v", r.Projection())
	}
	if r.SpriteBatch.ProjectionMatrix() != want || r.PolygonBatch.ProjectionMatrix() != want ||
		r.CpuBatch.ProjectionMatrix() != want || r.Cache.ProjectionMatrix() != want {
		t.Errorf("batch projections not updated after resize")
	}
}

func TestRendererSystemConfig(t *testing.T) {
	if _, err := NewRendererSystem(&RendererSystemConfig{Width: 0, Height: 10}, recorder.New()); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("zero width: got %v", err)
	}
	config := &RendererSystemConfig{Width: 10, Height: 10}
	r, err := NewRendererSystem(config, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Backend().(*recorder.Backend); !ok {
		t.Errorf("headless type must create a recorder backend, got %T", r.Backend())
	}
	if config.ResizeSettleFrames != DefaultResizeSettleFrames {
		t.Errorf("ResizeSettleFrames default = %d", config.ResizeSettleFrames)
	}
}
