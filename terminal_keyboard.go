package vip8

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
	"unicode"

	"github.com/pkg/term"
)

// DefaultKeyHold is how long a terminal key stays pressed after its byte arrives.
// Terminals only report presses, never releases.
const DefaultKeyHold = time.Second / 5

const (
	ctrlC = 0x03
)

// TerminalKeyboard reads the keypad from a terminal in raw mode
type TerminalKeyboard struct {
	Path   string
	Hold   time.Duration
	Layout KeyboardLayout
	// OnInterrupt runs when Ctrl-C or Esc is read
	OnInterrupt func()

	input  io.Reader
	tty    *term.Term
	lookup map[rune]byte
	now    func() time.Time

	mu          sync.Mutex
	lastPressed [16]time.Time
	booted      bool
}

// NewTerminalKeyboard reads from the controlling terminal
func NewTerminalKeyboard() *TerminalKeyboard {
	return &TerminalKeyboard{
		Path:   "/dev/tty",
		Hold:   DefaultKeyHold,
		Layout: DefaultKeyboardLayout,
		now:    time.Now,
	}
}

// NewTerminalKeyboardWithInput reads key bytes from input instead of a terminal
func NewTerminalKeyboardWithInput(input io.Reader) *TerminalKeyboard {
	kb := NewTerminalKeyboard()
	kb.input = input

	return kb
}

// Boot implements Keyboard.
// It puts the terminal in raw mode and starts reading keys in the background.
func (kb *TerminalKeyboard) Boot() error {
	if kb.booted {
		return nil
	}

	kb.lookup = LookupMap(kb.Layout)

	if kb.input == nil {
		tty, err := term.Open(kb.Path, term.RawMode)
		if err != nil {
			return fmt.Errorf("opening terminal %s: %w", kb.Path, err)
		}
		kb.tty = tty
		kb.input = tty
	}

	kb.booted = true
	go kb.readLoop()

	return nil
}

// Close restores the terminal
func (kb *TerminalKeyboard) Close() error {
	if kb.tty == nil {
		return nil
	}

	err := kb.tty.Restore()
	return errors.Join(err, kb.tty.Close())
}

func (kb *TerminalKeyboard) readLoop() {
	buf := make([]byte, 16)
	for {
		n, err := kb.input.Read(buf)
		for _, b := range buf[:n] {
			kb.handleByte(b)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Error("reading terminal keyboard", slog.Any("error", err))
			}
			return
		}
	}
}

func (kb *TerminalKeyboard) handleByte(b byte) {
	if b == ctrlC || b == ESC {
		if kb.OnInterrupt != nil {
			kb.OnInterrupt()
		}
		return
	}

	k, ok := kb.lookup[unicode.ToLower(rune(b))]
	if !ok {
		return
	}

	kb.mu.Lock()
	kb.lastPressed[k] = kb.now()
	kb.mu.Unlock()
}

// IsPressed implements Keyboard.
func (kb *TerminalKeyboard) IsPressed(k byte) bool {
	if k > 15 {
		return false
	}

	kb.mu.Lock()
	defer kb.mu.Unlock()

	return kb.isHeld(k)
}

// GetPressed implements Keyboard.
func (kb *TerminalKeyboard) GetPressed() (byte, bool) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	for k := byte(0); k < 16; k++ {
		if kb.isHeld(k) {
			return k, true
		}
	}

	return 0, false
}

func (kb *TerminalKeyboard) isHeld(k byte) bool {
	last := kb.lastPressed[k]
	return !last.IsZero() && kb.now().Sub(last) < kb.Hold
}
