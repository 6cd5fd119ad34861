package core

import "sync"

// Key code definitions
type KeyCode uint16

const (
	KEY_BACKSPACE KeyCode = 0x08
	KEY_TAB       KeyCode = 0x09
	KEY_ENTER     KeyCode = 0x0D
	KEY_ESCAPE    KeyCode = 0x1B
	KEY_SPACE     KeyCode = 0x20
	KEY_LEFT      KeyCode = 0x25
	KEY_UP        KeyCode = 0x26
	KEY_RIGHT     KeyCode = 0x27
	KEY_DOWN      KeyCode = 0x28
	KEY_A         KeyCode = 0x41
	KEY_C         KeyCode = 0x43
	KEY_D         KeyCode = 0x44
	KEY_E         KeyCode = 0x45
	KEY_P         KeyCode = 0x50
	KEY_Q         KeyCode = 0x51
	KEY_R         KeyCode = 0x52
	KEY_S         KeyCode = 0x53
	KEY_W         KeyCode = 0x57
	KEY_F1        KeyCode = 0x70

	KEYS_MAX_KEYS KeyCode = 0xFF
)

// Keyboard state structure
type KeyboardState struct {
	Keys [KEYS_MAX_KEYS + 1]bool
}

/**
 * @brief Holds the current and previous keyboard state. Key transitions are
 * published on the event bus.
 */
type InputState struct {
	mu       sync.RWMutex
	bus      *EventBus
	current  KeyboardState
	previous KeyboardState
}

func NewInputState(bus *EventBus) *InputState {
	LogInfo("Input subsystem initialized.")
	return &InputState{bus: bus}
}

// Update copies the current state into the previous one. Called once per frame.
func (is *InputState) Update(deltaTime float64) {
	is.mu.Lock()
	is.previous = is.current
	is.mu.Unlock()
}

func (is *InputState) IsKeyDown(key KeyCode) bool {
	is.mu.RLock()
	defer is.mu.RUnlock()
	return is.current.Keys[key&KEYS_MAX_KEYS]
}

func (is *InputState) IsKeyUp(key KeyCode) bool {
	return !is.IsKeyDown(key)
}

func (is *InputState) WasKeyDown(key KeyCode) bool {
	is.mu.RLock()
	defer is.mu.RUnlock()
	return is.previous.Keys[key&KEYS_MAX_KEYS]
}

func (is *InputState) WasKeyUp(key KeyCode) bool {
	return !is.WasKeyDown(key)
}

// KeyPressedThisFrame is true on the frame a key went down.
func (is *InputState) KeyPressedThisFrame(key KeyCode) bool {
	return is.IsKeyDown(key) && is.WasKeyUp(key)
}

func (is *InputState) ProcessKey(key KeyCode, pressed bool) {
	key &= KEYS_MAX_KEYS

	is.mu.Lock()
	// Only handle this if the state actually changed.
	if is.current.Keys[key] == pressed {
		is.mu.Unlock()
		return
	}
	is.current.Keys[key] = pressed
	is.mu.Unlock()

	if is.bus == nil {
		return
	}
	code := EVENT_CODE_KEY_RELEASED
	if pressed {
		code = EVENT_CODE_KEY_PRESSED
	}
	is.bus.Fire(code, is, KeyEvent{Key: key})
}
