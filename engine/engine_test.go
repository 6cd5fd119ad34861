package engine

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/renderer/recorder"
	"github.com/spaghettifunk/anima/engine/systems"
)

type testGame struct {
	*Game
	texture *metadata.Texture
	updates int
	renders int
	resizes [][2]uint32
	failAt  int
}

func newTestGame() *testGame {
	tg := &testGame{Game: &Game{ApplicationConfig: DefaultApplicationConfig()}}
	tg.ApplicationConfig.Window.Width = 320
	tg.ApplicationConfig.Window.Height = 240
	tg.FnInitialize = func() error {
		t, err := tg.SystemManager.Textures.CreateFromPixels("white", 1, 1, []uint8{255, 255, 255, 255}, false)
		tg.texture = t
		return err
	}
	tg.FnUpdate = func(deltaTime float64) error {
		tg.updates++
		if tg.failAt > 0 && tg.updates == tg.failAt {
			return errors.New("update failed")
		}
		return nil
	}
	tg.FnRender = func(r *systems.RendererSystem, deltaTime float64) error {
		tg.renders++
		if err := r.SpriteBatch.Begin(); err != nil {
			return err
		}
		if err := r.SpriteBatch.Draw(tg.texture, 0, 0, 16, 16); err != nil {
			return err
		}
		return r.SpriteBatch.End()
	}
	tg.FnOnResize = func(width, height uint32) error {
		tg.resizes = append(tg.resizes, [2]uint32{width, height})
		return nil
	}
	return tg
}

func startEngine(t *testing.T, tg *testGame, p *HeadlessPlatform) (*Engine, *recorder.Backend) {
	t.Helper()
	backend := recorder.New()
	e, err := New(tg.Game, p, backend)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Initialize(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := e.Shutdown(); err != nil {
			t.Error(err)
		}
	})
	return e, backend
}

func TestEngineRunsFrames(t *testing.T) {
	tg := newTestGame()
	e, backend := startEngine(t, tg, &HeadlessPlatform{MaxFrames: 3})

	if len(tg.resizes) != 1 || tg.resizes[0] != [2]uint32{320, 240} {
		t.Fatalf("initial resize not reported: %v", tg.resizes)
	}
	if err := e.Run(); err != nil {
		t.Fatal(err)
	}
	if tg.updates != 3 || tg.renders != 3 {
		t.Fatalf("updates=%d renders=%d, want 3 each", tg.updates, tg.renders)
	}
	if countFrames(backend) != 3 {
		t.Fatalf("backend saw %d frames", countFrames(backend))
	}
	m := core.MetricsSnapshot()
	if m.RenderCalls != 1 || m.TotalRenderCalls != 3 || m.Frames == 0 {
		t.Errorf("unexpected metrics %+v", m)
	}
	if n := tg.SystemManager.Renderer.FrameNumber; n != 3 {
		t.Errorf("renderer frame number = %d", n)
	}
}

func TestEngineEscapeQuits(t *testing.T) {
	tg := newTestGame()
	p := &HeadlessPlatform{
		MaxFrames: 10,
		OnFrame: func(frame int, bus *core.EventBus, input *core.InputState) {
			if frame == 1 {
				input.ProcessKey(core.KEY_ESCAPE, true)
			}
		},
	}
	e, _ := startEngine(t, tg, p)
	if err := e.Run(); err != nil {
		t.Fatal(err)
	}
	// the frame that received the key still completes
	if tg.updates != 2 {
		t.Fatalf("updates = %d, want 2", tg.updates)
	}
}

func TestEngineResizeAndSuspend(t *testing.T) {
	tg := newTestGame()
	p := &HeadlessPlatform{
		MaxFrames: 4,
		OnFrame: func(frame int, bus *core.EventBus, input *core.InputState) {
			switch frame {
			case 0:
				bus.Fire(core.EVENT_CODE_RESIZED, nil, core.ResizeEvent{})
			case 2:
				bus.Fire(core.EVENT_CODE_RESIZED, nil, core.ResizeEvent{Width: 640, Height: 480})
			}
		},
	}
	e, _ := startEngine(t, tg, p)
	if err := e.Run(); err != nil {
		t.Fatal(err)
	}
	if tg.updates != 2 {
		t.Fatalf("updates = %d, want 2 (frames 0 and 1 suspended)", tg.updates)
	}
	if last := tg.resizes[len(tg.resizes)-1]; last != [2]uint32{640, 480} {
		t.Fatalf("game resize = %v", last)
	}
	if w, h := e.GetFramebufferSize(); w != 640 || h != 480 {
		t.Fatalf("framebuffer size = %dx%d", w, h)
	}
	if !tg.SystemManager.Renderer.Resizing {
		t.Errorf("renderer should wait for the size to settle")
	}
	if e.IsSuspended() {
		t.Errorf("engine still suspended")
	}
}

func TestEngineUpdateErrorStops(t *testing.T) {
	tg := newTestGame()
	tg.failAt = 2
	e, _ := startEngine(t, tg, &HeadlessPlatform{MaxFrames: 10})
	if err := e.Run(); err == nil {
		t.Fatal("expected the update error")
	}
	if tg.updates != 2 || tg.renders != 1 {
		t.Fatalf("updates=%d renders=%d", tg.updates, tg.renders)
	}
}

func TestEngineStates(t *testing.T) {
	if _, err := New(&Game{}, nil, nil); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("incomplete game: got %v", err)
	}

	tg := newTestGame()
	tg.ApplicationConfig.Batch.Size = 0
	if _, err := New(tg.Game, nil, recorder.New()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("invalid config: got %v", err)
	}

	tg = newTestGame()
	e, err := New(tg.Game, nil, recorder.New())
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Run(); !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("Run before Initialize: got %v", err)
	}
	if err := e.Initialize(); err != nil {
		t.Fatal(err)
	}
	if err := e.Initialize(); !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("double Initialize: got %v", err)
	}
	if err := e.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if e.Stage() != EngineStageUninitialized {
		t.Errorf("stage after shutdown = %d", e.Stage())
	}
}

func countFrames(b *recorder.Backend) int {
	return len(b.Filter(recorder.OpEndFrame))
}
