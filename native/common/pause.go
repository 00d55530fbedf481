package common

import "sync"

// Switchboard is a concrete PauseView whose switches can be toggled at
// runtime by an operator.
type Switchboard struct {
	mu     sync.RWMutex
	paused map[string]bool
}

func NewSwitchboard() *Switchboard {
	return &Switchboard{paused: make(map[string]bool)}
}

// SetPaused flips the switch for one module.
func (s *Switchboard) SetPaused(module string, paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused[module] = paused
}

// IsPaused implements PauseView.
func (s *Switchboard) IsPaused(module string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused[module]
}
