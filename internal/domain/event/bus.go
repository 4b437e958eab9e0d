package event

import (
	"log/slog"
	"sync"
)

// DefaultHistoryLimit bounds the in-memory event history kept by the bus.
const DefaultHistoryLimit = 1024

// Handler consumes a published envelope.
type Handler func(Envelope)

// Sink forwards events to the wider ecosystem (event streaming, websocket
// fan-out). Sink failures are logged and never abort delivery.
type Sink interface {
	Publish(Envelope) error
}

type registration struct {
	name    string
	handler Handler
}

// Bus is an in-process publish/subscribe dispatcher. Delivery is synchronous
// and in publish order; a panicking handler does not stop delivery to the
// remaining handlers or to the sink.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]registration
	history  []Envelope
	limit    int
	sink     Sink
	logger   *slog.Logger
}

// NewBus creates a bus with the default history limit.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		handlers: make(map[Kind][]registration),
		limit:    DefaultHistoryLimit,
		logger:   logger,
	}
}

// WithSink attaches the ecosystem sink. Returns the bus for chaining.
func (b *Bus) WithSink(s Sink) *Bus {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sink = s
	return b
}

// WithHistoryLimit overrides the history bound. A limit <= 0 keeps history
// unbounded.
func (b *Bus) WithHistoryLimit(n int) *Bus {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.limit = n
	return b
}

// Subscribe registers a named handler for a kind. Re-subscribing the same
// name replaces the previous handler, so registration is idempotent.
func (b *Bus) Subscribe(kind Kind, name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	regs := b.handlers[kind]
	for i, reg := range regs {
		if reg.name == name {
			regs[i].handler = h
			return
		}
	}
	b.handlers[kind] = append(regs, registration{name: name, handler: h})
}

// Unsubscribe removes a named handler. Unknown names are ignored.
func (b *Bus) Unsubscribe(kind Kind, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	regs := b.handlers[kind]
	for i, reg := range regs {
		if reg.name == name {
			b.handlers[kind] = append(regs[:i], regs[i+1:]...)
			return
		}
	}
}

// Publish delivers the envelope to every handler registered for its kind,
// records it in the history, then forwards it to the sink.
func (b *Bus) Publish(env Envelope) {
	b.mu.Lock()
	regs := make([]registration, len(b.handlers[env.Kind]))
	copy(regs, b.handlers[env.Kind])
	b.history = append(b.history, env)
	if b.limit > 0 && len(b.history) > b.limit {
		b.history = b.history[len(b.history)-b.limit:]
	}
	sink := b.sink
	b.mu.Unlock()

	for _, reg := range regs {
		b.deliver(reg, env)
	}
	if sink != nil {
		if err := sink.Publish(env); err != nil {
			b.logger.Warn("event sink publish failed",
				"event_type", env.Kind, "event_id", env.ID, "error", err)
		}
	}
}

// PublishAll publishes a drained batch in order.
func (b *Bus) PublishAll(envs []Envelope) {
	for _, env := range envs {
		b.Publish(env)
	}
}

func (b *Bus) deliver(reg registration, env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"handler", reg.name, "event_type", env.Kind, "panic", r)
		}
	}()
	reg.handler(env)
}

// History returns a copy of the retained events in publish order. It exists
// for inspection and tests; it is not a durability guarantee.
func (b *Bus) History() []Envelope {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Envelope, len(b.history))
	copy(out, b.history)
	return out
}
