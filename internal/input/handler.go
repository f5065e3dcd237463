// Package input tracks which controls are held, fed by remote clients.
package input

import (
	"errors"
	"fmt"
	"sync"

	"sidescroller/internal/game"
)

// Control names understood by the player.
const (
	KeyLeft  = "ArrowLeft"
	KeyRight = "ArrowRight"
	KeyUp    = "ArrowUp"
	KeyDown  = "ArrowDown"
	KeyRoll  = "Enter"
)

var allowed = map[string]bool{
	KeyLeft:  true,
	KeyRight: true,
	KeyUp:    true,
	KeyDown:  true,
	KeyRoll:  true,
}

// ErrUnknownKey is returned for controls the game does not use.
var ErrUnknownKey = errors.New("unknown key")

// KeyMessage is what clients send when a control changes.
type KeyMessage struct {
	Key     string `json:"key"`
	Pressed bool   `json:"pressed"`
}

// Handler is a concurrency-safe set of held keys. Writers are network
// goroutines; the frame loop reads through Keys.
type Handler struct {
	mu   sync.RWMutex
	keys map[string]bool
}

// NewHandler creates a handler with nothing held.
func NewHandler() *Handler {
	return &Handler{keys: make(map[string]bool, len(allowed))}
}

// Apply records a key change.
func (h *Handler) Apply(msg KeyMessage) error {
	if !allowed[msg.Key] {
		return fmt.Errorf("%w: %q", ErrUnknownKey, msg.Key)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if msg.Pressed {
		h.keys[msg.Key] = true
	} else {
		delete(h.keys, msg.Key)
	}
	return nil
}

// Press marks key as held.
func (h *Handler) Press(key string) error { return h.Apply(KeyMessage{Key: key, Pressed: true}) }

// Release marks key as released.
func (h *Handler) Release(key string) error { return h.Apply(KeyMessage{Key: key}) }

// Reset releases every key, e.g. when a client disconnects.
func (h *Handler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.keys)
}

// Keys returns a copy of the held keys.
func (h *Handler) Keys() game.InputState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(game.InputState, len(h.keys))
	for k := range h.keys {
		out[k] = true
	}
	return out
}
