package renderer

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/recorder"
)

type RendererType uint8

const (
	// Headless records every command in memory. Used by tests and by
	// the testbed when no GPU driver is wired in.
	Headless RendererType = iota
)

func (t RendererType) String() string {
	switch t {
	case Headless:
		return "headless"
	}
	return fmt.Sprintf("RendererType(%d)", uint8(t))
}

// ParseRendererType maps a configuration value to a RendererType.
func ParseRendererType(s string) (RendererType, error) {
	switch strings.ToLower(s) {
	case "", "headless", "recorder":
		return Headless, nil
	}
	return 0, fmt.Errorf("unknown renderer type %q", s)
}

// NewBackend constructs the backend for the requested type.
func NewBackend(t RendererType) (RendererBackend, error) {
	switch t {
	case Headless:
		core.LogDebug("creating headless renderer backend")
		return recorder.New(), nil
	}
	return nil, fmt.Errorf("renderer type %s: %w", t, core.ErrUnknown)
}
