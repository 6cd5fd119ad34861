package core

import (
	"sync"
)

// System internal event codes. Application should use codes beyond 255.
type EventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01
	// Data: KeyEvent.
	EVENT_CODE_KEY_PRESSED EventCode = 0x02
	// Data: KeyEvent.
	EVENT_CODE_KEY_RELEASED EventCode = 0x03
	// Data: ResizeEvent.
	EVENT_CODE_RESIZED EventCode = 0x08
	// Data: the reloaded resource name (string).
	EVENT_CODE_ASSET_RELOADED EventCode = 0x10

	MAX_EVENT_CODE EventCode = 0xFF
)

type KeyEvent struct {
	Key KeyCode
}

type ResizeEvent struct {
	Width  uint32
	Height uint32
}

type EventContext struct {
	Code   EventCode
	Sender interface{}
	Data   interface{}
}

// Should return true if handled.
type FnOnEvent func(ctx EventContext, listener interface{}) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

/**
 * @brief Routes fired events to registered listeners in registration order.
 * Safe for concurrent use; callbacks run on the firing goroutine.
 */
type EventBus struct {
	mu         sync.RWMutex
	registered map[EventCode][]*registeredEvent
}

func NewEventBus() *EventBus {
	return &EventBus{
		registered: make(map[EventCode][]*registeredEvent),
	}
}

/**
 * Register to listen for when events are sent with the provided code. A listener
 * may only be registered once per code.
 * @returns true if the event is successfully registered; otherwise false.
 */
func (eb *EventBus) Register(code EventCode, listener interface{}, onEvent FnOnEvent) bool {
	if onEvent == nil {
		return false
	}
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for _, e := range eb.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event code %d", code)
			return false
		}
	}
	eb.registered[code] = append(eb.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

/**
 * Unregister a listener for the given code.
 * @returns true if a registration was removed.
 */
func (eb *EventBus) Unregister(code EventCode, listener interface{}) bool {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	events := eb.registered[code]
	for i, e := range events {
		if e.listener == listener {
			eb.registered[code] = append(events[:i:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 * @returns true if handled, otherwise false.
 */
func (eb *EventBus) Fire(code EventCode, sender interface{}, data interface{}) bool {
	eb.mu.RLock()
	events := eb.registered[code]
	eb.mu.RUnlock()

	ctx := EventContext{Code: code, Sender: sender, Data: data}
	for _, e := range events {
		if e.callback(ctx, e.listener) {
			return true
		}
	}
	return false
}

func (eb *EventBus) Shutdown() error {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.registered = make(map[EventCode][]*registeredEvent)
	return nil
}
