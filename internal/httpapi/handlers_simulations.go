package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/praxisworks/simforge/internal/domain"
	"github.com/praxisworks/simforge/internal/engine"
)

type createSimulationResponse struct {
	SimulationID string `json:"simulation_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrSimulationNotFound),
		errors.Is(err, engine.ErrAggregateNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrExecutionInProgress):
		return http.StatusConflict
	case domain.IsRuleError(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Service) handleCreateSimulation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req engine.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id, err := s.engine.CreateProjectSimulation(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, createSimulationResponse{SimulationID: id.String()})
}

// handleSimulation routes /api/simulations/{id}[/execute|/cancel].
func (s *Service) handleSimulation(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/simulations/"), "/")
	parts := strings.SplitN(rest, "/", 2)
	if parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id := domain.SimulationID(parts[0])
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		info, err := s.engine.GetSimulationStatus(r.Context(), id)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, info)

	case action == "execute" && r.Method == http.MethodPost:
		report, err := s.engine.ExecuteSimulation(r.Context(), id)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, report)

	case action == "cancel" && r.Method == http.MethodPost:
		if err := s.engine.CancelSimulation(r.Context(), id); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Service) handleBreakerStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.registry.Statuses())
}

// handleBreakerReset serves POST /api/breakers/{service}/reset.
func (s *Service) handleBreakerReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/breakers/"), "/")
	service, ok := strings.CutSuffix(rest, "/reset")
	if !ok || service == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err := s.registry.Reset(service); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	s.logger.Info("breaker reset", "service", service)
	w.WriteHeader(http.StatusNoContent)
}
