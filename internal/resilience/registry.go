package resilience

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Tier classifies how aggressively a service's breaker trips and recovers.
type Tier string

const (
	// TierCritical services fail fast and probe again quickly.
	TierCritical Tier = "critical"
	// TierBestEffort services tolerate more failures before opening.
	TierBestEffort Tier = "best_effort"
)

// DefaultSettings returns the breaker settings for a criticality tier.
func DefaultSettings(tier Tier) Settings {
	switch tier {
	case TierCritical:
		return Settings{FailureThreshold: 3, RecoveryTimeout: 10 * time.Second, SuccessThreshold: 1}
	default:
		return Settings{FailureThreshold: 5, RecoveryTimeout: 30 * time.Second, SuccessThreshold: 2}
	}
}

// Registry holds one breaker per external service name. It is process-wide
// shared state: construct it once at startup and pass it explicitly.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	fallback Settings
}

// NewRegistry creates an empty registry. Services not registered up front are
// created on first use with best-effort defaults.
func NewRegistry() *Registry {
	return &Registry{
		breakers: make(map[string]*Breaker),
		fallback: DefaultSettings(TierBestEffort),
	}
}

// Register creates (or replaces) the breaker for a service.
func (r *Registry) Register(service string, settings Settings) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := NewBreaker(service, settings)
	r.breakers[service] = b
	return b
}

// Get returns the breaker for a service, creating one with fallback settings
// if the service was never registered.
func (r *Registry) Get(service string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[service]
	r.mu.RUnlock()
	if ok {
		return b
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[service]; ok {
		return b
	}
	b = NewBreaker(service, r.fallback)
	r.breakers[service] = b
	return b
}

// Statuses returns a snapshot of every breaker, sorted by service name.
func (r *Registry) Statuses() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Status, 0, len(r.breakers))
	for _, b := range r.breakers {
		out = append(out, b.Status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Service < out[j].Service })
	return out
}

// Reset forces the named breaker back to CLOSED. Operator override only;
// breakers otherwise recover solely through their own state machine.
func (r *Registry) Reset(service string) error {
	r.mu.RLock()
	b, ok := r.breakers[service]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown service %q", service)
	}
	b.reset()
	return nil
}
