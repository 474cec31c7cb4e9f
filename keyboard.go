package vip8

import "sync"

// KeyboardState holds one pressed flag per key 0x0-0xF
type KeyboardState [16]bool

// GetPressed returns the lowest pressed key
func (s KeyboardState) GetPressed() (byte, bool) {
	for k, pressed := range s {
		if pressed {
			return byte(k), true
		}
	}

	return 0, false
}

type Keyboard interface {
	// Boot initializes the component
	Boot() error
	// IsPressed reports whether key k is held down
	IsPressed(k byte) bool
	// GetPressed returns the lowest key currently held down
	GetPressed() (byte, bool)
}

// InMemoryKeyboard is a keypad fed by an input collaborator.
// It is safe to press and release keys from another goroutine.
type InMemoryKeyboard struct {
	mu    sync.RWMutex
	state KeyboardState
}

func NewInMemoryKeyboard() *InMemoryKeyboard {
	return &InMemoryKeyboard{}
}

// Boot implements Keyboard.
func (kb *InMemoryKeyboard) Boot() error {
	return nil
}

// IsPressed implements Keyboard.
func (kb *InMemoryKeyboard) IsPressed(k byte) bool {
	if k > 15 {
		return false
	}

	kb.mu.RLock()
	defer kb.mu.RUnlock()

	return kb.state[k]
}

// GetPressed implements Keyboard.
func (kb *InMemoryKeyboard) GetPressed() (byte, bool) {
	return kb.Get().GetPressed()
}

// Get returns a copy of the keypad state
func (kb *InMemoryKeyboard) Get() KeyboardState {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	return kb.state
}

// Set replaces the whole keypad state
func (kb *InMemoryKeyboard) Set(state KeyboardState) {
	kb.mu.Lock()
	kb.state = state
	kb.mu.Unlock()
}

func (kb *InMemoryKeyboard) Press(k byte) {
	kb.setKey(k, true)
}

func (kb *InMemoryKeyboard) Release(k byte) {
	kb.setKey(k, false)
}

func (kb *InMemoryKeyboard) setKey(k byte, pressed bool) {
	if k > 15 {
		return
	}

	kb.mu.Lock()
	kb.state[k] = pressed
	kb.mu.Unlock()
}
