package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CallError wraps a collaborator failure with the service, operation, and
// elapsed time of the attempt.
type CallError struct {
	Service   string
	Operation string
	Elapsed   time.Duration
	Err       error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s.%s failed after %s: %v", e.Service, e.Operation, e.Elapsed, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Invoker is the sole path through which the orchestration engine reaches
// external collaborators: every call is routed through the service's breaker
// and its outcome is fed back in.
type Invoker struct {
	registry *Registry
	logger   *slog.Logger
}

// NewInvoker wraps a registry.
func NewInvoker(registry *Registry, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{registry: registry, logger: logger}
}

// Call invokes fn under the breaker for service. When the breaker is open and
// not eligible for a half-open probe, it fails fast with ErrCircuitOpen and
// fn is never called. Otherwise the outcome is recorded on the breaker and
// failures come back wrapped in a CallError.
func (inv *Invoker) Call(ctx context.Context, service, operation string, fn func(context.Context) error) error {
	breaker := inv.registry.Get(service)
	if err := breaker.Allow(); err != nil {
		inv.logger.Warn("call rejected by circuit breaker",
			"service", service, "operation", operation)
		return &CallError{Service: service, Operation: operation, Err: err}
	}

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if err != nil {
		breaker.RecordFailure()
		inv.logger.Warn("collaborator call failed",
			"service", service, "operation", operation, "elapsed", elapsed, "error", err)
		return &CallError{Service: service, Operation: operation, Elapsed: elapsed, Err: err}
	}
	breaker.RecordSuccess()
	inv.logger.Debug("collaborator call succeeded",
		"service", service, "operation", operation, "elapsed", elapsed)
	return nil
}
