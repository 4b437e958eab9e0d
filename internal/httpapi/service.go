// Package httpapi exposes the orchestration engine over HTTP.
package httpapi

import (
	"log/slog"

	"github.com/praxisworks/simforge/internal/engine"
	"github.com/praxisworks/simforge/internal/resilience"
)

// Service holds the handler dependencies.
type Service struct {
	engine   *engine.Engine
	registry *resilience.Registry
	logger   *slog.Logger
}

// NewService wires a service.
func NewService(eng *engine.Engine, registry *resilience.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{engine: eng, registry: registry, logger: logger}
}
