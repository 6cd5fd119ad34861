package engine

import "github.com/spaghettifunk/anima/engine/core"

// Platform owns the window and turns OS input into bus events and input
// state updates.
type Platform interface {
	Startup(title string, x, y int, width, height uint32, bus *core.EventBus, input *core.InputState) error
	// PumpMessages processes pending OS events. It returns false once the
	// window has been asked to close.
	PumpMessages() bool
	Shutdown() error
}

// FramebufferSizer is implemented by platforms whose drawable size can
// differ from the requested window size.
type FramebufferSizer interface {
	FramebufferSize() (uint32, uint32)
}

// HeadlessPlatform runs without a window. OnFrame, when set, is called from
// PumpMessages with the frame number so callers can inject input and resize
// events; MaxFrames > 0 closes the platform after that many frames.
type HeadlessPlatform struct {
	MaxFrames int
	OnFrame   func(frame int, bus *core.EventBus, input *core.InputState)

	bus    *core.EventBus
	input  *core.InputState
	frames int
}

func (p *HeadlessPlatform) Startup(title string, x, y int, width, height uint32, bus *core.EventBus, input *core.InputState) error {
	p.bus = bus
	p.input = input
	p.frames = 0
	core.LogInfo("headless platform started for '%s' (%dx%d)", title, width, height)
	return nil
}

func (p *HeadlessPlatform) PumpMessages() bool {
	if p.MaxFrames > 0 && p.frames >= p.MaxFrames {
		return false
	}
	if p.OnFrame != nil {
		p.OnFrame(p.frames, p.bus, p.input)
	}
	p.frames++
	return true
}

// Frames is the number of PumpMessages calls that returned true.
func (p *HeadlessPlatform) Frames() int {
	return p.frames
}

func (p *HeadlessPlatform) Shutdown() error {
	return nil
}
