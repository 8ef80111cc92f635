package service

import (
	"sync"

	"payment-webhook-gateway/internal/core/domain"
	"payment-webhook-gateway/internal/core/ports"
)

// HookRegistry maps notification categories to the hook run after a
// notification of that category has been applied.
type HookRegistry struct {
	mu    sync.RWMutex
	hooks map[domain.EventCategory]ports.TransactionHook
}

func NewHookRegistry() *HookRegistry {
	return &HookRegistry{hooks: make(map[domain.EventCategory]ports.TransactionHook)}
}

// Register installs h for category, replacing any earlier hook.
func (r *HookRegistry) Register(category domain.EventCategory, h ports.TransactionHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[category] = h
}

// Lookup returns the hook for category, if any.
func (r *HookRegistry) Lookup(category domain.EventCategory) (ports.TransactionHook, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hooks[category]
	return h, ok
}
