package engine

import "sync"

// HighScore tracks the best score reached by any session in this process.
// It is shared between engines, so updates are serialised.
type HighScore struct {
	mu    sync.Mutex
	value int
}

// NewHighScore creates a tracker starting at zero
func NewHighScore() *HighScore {
	return &HighScore{}
}

// Get returns the current high score
func (h *HighScore) Get() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value
}

// Offer raises the high score to score if it is higher and reports whether
// the value changed.
func (h *HighScore) Offer(score int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if score > h.value {
		h.value = score
		return true
	}
	return false
}

// Reset sets the high score back to zero
func (h *HighScore) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.value = 0
}
