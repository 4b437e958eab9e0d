// Package simulation holds the Simulation aggregate: the run record that
// drives a project through its phases and collects the final result.
package simulation

import (
	"time"

	"github.com/praxisworks/simforge/internal/domain"
	"github.com/praxisworks/simforge/internal/domain/event"
)

// Status is the simulation lifecycle state.
type Status string

const (
	StatusCreated   Status = "created"
	StatusStarting  Status = "starting"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Configuration selects which sub-behaviors a simulation run exercises.
type Configuration struct {
	EnableDocumentGeneration bool          `json:"enable_document_generation"`
	EnableWorkflowExecution  bool          `json:"enable_workflow_execution"`
	EnableTeamDynamics       bool          `json:"enable_team_dynamics"`
	RealisticDelays          bool          `json:"realistic_delays"`
	MaxExecutionTime         time.Duration `json:"max_execution_time"`
}

// DefaultConfiguration enables everything with a 30 minute soft deadline.
func DefaultConfiguration() Configuration {
	return Configuration{
		EnableDocumentGeneration: true,
		EnableWorkflowExecution:  true,
		EnableTeamDynamics:       true,
		MaxExecutionTime:         30 * time.Minute,
	}
}

// Progress tracks how far a run has advanced.
type Progress struct {
	PhasesTotal        int        `json:"phases_total"`
	PhasesCompleted    int        `json:"phases_completed"`
	CurrentPhase       string     `json:"current_phase,omitempty"`
	DocumentsGenerated int        `json:"documents_generated"`
	WorkflowsExecuted  int        `json:"workflows_executed"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

// Metrics is the aggregate measurement snapshot of a finished run.
type Metrics struct {
	DocumentsCreated  int           `json:"documents_created"`
	WorkflowsExecuted int           `json:"workflows_executed"`
	ErrorCount        int           `json:"error_count"`
	ExecutionTime     time.Duration `json:"execution_time"`
	SuccessRate       float64       `json:"success_rate"`
}

// Result is created once when a run reaches a terminal state and is
// append-only after that.
type Result struct {
	Success           bool          `json:"success"`
	ExecutionTime     time.Duration `json:"execution_time"`
	Metrics           Metrics       `json:"metrics"`
	DocumentsCreated  []string      `json:"documents_created,omitempty"`
	WorkflowsExecuted []string      `json:"workflows_executed,omitempty"`
	Errors            []string      `json:"errors,omitempty"`
	Warnings          []string      `json:"warnings,omitempty"`
	Insights          []string      `json:"insights,omitempty"`
}

// Simulation is an aggregate root. It references its project by id only; the
// project, timeline, and team are looked up through repositories.
type Simulation struct {
	ID                  domain.SimulationID `json:"id"`
	ProjectID           domain.ProjectID    `json:"project_id"`
	Config              Configuration       `json:"config"`
	Status              Status              `json:"status"`
	Progress            Progress            `json:"progress"`
	Result              *Result             `json:"result,omitempty"`
	FailureReason       string              `json:"failure_reason,omitempty"`
	EstimatedCompletion *time.Time          `json:"estimated_completion,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`

	event.Recorder `json:"-"`
}

// New builds a simulation in CREATED state.
func New(projectID domain.ProjectID, cfg Configuration, phasesTotal int) *Simulation {
	if cfg.MaxExecutionTime <= 0 {
		cfg.MaxExecutionTime = DefaultConfiguration().MaxExecutionTime
	}
	now := time.Now().UTC()
	return &Simulation{
		ID:        domain.NewSimulationID(),
		ProjectID: projectID,
		Config:    cfg,
		Status:    StatusCreated,
		Progress:  Progress{PhasesTotal: phasesTotal},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsTerminal reports whether the simulation reached COMPLETED, FAILED, or
// CANCELLED. Terminal simulations accept no further mutation.
func (s *Simulation) IsTerminal() bool {
	switch s.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsCompleted reports whether the run has ended, successfully or not.
func (s *Simulation) IsCompleted() bool { return s.IsTerminal() }

// Start moves CREATED -> STARTING -> RUNNING, recording the start time and
// the estimated completion (start + max execution time), and emits
// SimulationStarted.
func (s *Simulation) Start() error {
	if s.Status != StatusCreated {
		return domain.Rulef("cannot start simulation from state %s", s.Status)
	}
	now := time.Now().UTC()
	eta := now.Add(s.Config.MaxExecutionTime)
	s.Status = StatusStarting
	s.Progress.StartedAt = &now
	s.EstimatedCompletion = &eta
	s.touch(now)
	s.Status = StatusRunning
	s.Record(s.ID.String(), event.SimulationStarted{
		SimulationID: s.ID.String(),
		ProjectID:    s.ProjectID.String(),
		StartedAt:    now,
	})
	return nil
}

// Pause moves RUNNING -> PAUSED. A no-op from any other state.
func (s *Simulation) Pause() {
	if s.Status != StatusRunning {
		return
	}
	s.Status = StatusPaused
	s.touch(time.Now().UTC())
	s.Record(s.ID.String(), event.SimulationPaused{SimulationID: s.ID.String()})
}

// Resume moves PAUSED -> RUNNING. A no-op from any other state.
func (s *Simulation) Resume() {
	if s.Status != StatusPaused {
		return
	}
	s.Status = StatusRunning
	s.touch(time.Now().UTC())
	s.Record(s.ID.String(), event.SimulationResumed{SimulationID: s.ID.String()})
}

// Complete moves RUNNING -> COMPLETED (or FAILED when success is false),
// installing the result.
func (s *Simulation) Complete(result Result) error {
	if s.Status != StatusRunning {
		return domain.Rulef("cannot complete simulation from state %s", s.Status)
	}
	s.Result = &result
	if result.Success {
		s.Status = StatusCompleted
	} else {
		s.Status = StatusFailed
		if len(result.Errors) > 0 {
			s.FailureReason = result.Errors[0]
		}
	}
	s.touch(time.Now().UTC())
	s.Record(s.ID.String(), event.SimulationCompleted{
		SimulationID: s.ID.String(),
		Success:      result.Success,
		Execution:    result.ExecutionTime,
	})
	return nil
}

// Fail moves any non-terminal state to FAILED. Failing an already-terminal
// simulation is rejected: terminal states are immutable.
func (s *Simulation) Fail(reason string) error {
	if s.IsTerminal() {
		return domain.Rulef("cannot fail simulation in terminal state %s", s.Status)
	}
	s.Status = StatusFailed
	s.FailureReason = reason
	if s.Result == nil {
		s.Result = &Result{Success: false, Errors: []string{reason}}
	}
	s.touch(time.Now().UTC())
	s.Record(s.ID.String(), event.SimulationFailed{
		SimulationID: s.ID.String(),
		Reason:       reason,
	})
	return nil
}

// Cancel moves any non-terminal state to CANCELLED.
func (s *Simulation) Cancel() error {
	if s.IsTerminal() {
		return domain.Rulef("cannot cancel simulation in terminal state %s", s.Status)
	}
	s.Status = StatusCancelled
	s.touch(time.Now().UTC())
	s.Record(s.ID.String(), event.SimulationCancelled{SimulationID: s.ID.String()})
	return nil
}

// UpdateProgress records phase progress. completed=false marks the phase as
// current; completed=true bumps the completed counter.
func (s *Simulation) UpdateProgress(phase string, completed bool) error {
	if s.IsTerminal() {
		return domain.Rulef("cannot update progress of terminal simulation")
	}
	now := time.Now().UTC()
	if completed {
		s.Progress.PhasesCompleted++
		s.Progress.CurrentPhase = ""
	} else {
		s.Progress.CurrentPhase = phase
	}
	s.Progress.UpdatedAt = &now
	s.touch(now)
	return nil
}

// RecordDocumentGeneration counts a generated document and emits
// DocumentGenerated.
func (s *Simulation) RecordDocumentGeneration(phase, title, docType string) error {
	if s.IsTerminal() {
		return domain.Rulef("cannot record document on terminal simulation")
	}
	s.Progress.DocumentsGenerated++
	s.touch(time.Now().UTC())
	s.Record(s.ID.String(), event.DocumentGenerated{
		SimulationID: s.ID.String(),
		Phase:        phase,
		Title:        title,
		DocType:      docType,
	})
	return nil
}

// RecordWorkflowExecution counts an executed workflow and emits
// WorkflowExecuted.
func (s *Simulation) RecordWorkflowExecution(workflow string, success bool, execution time.Duration) error {
	if s.IsTerminal() {
		return domain.Rulef("cannot record workflow on terminal simulation")
	}
	s.Progress.WorkflowsExecuted++
	s.touch(time.Now().UTC())
	s.Record(s.ID.String(), event.WorkflowExecuted{
		SimulationID: s.ID.String(),
		Workflow:     workflow,
		Success:      success,
		Execution:    execution,
	})
	return nil
}

// IsWithinTimeLimit reports whether the soft deadline has not yet passed.
// Always true before Start.
func (s *Simulation) IsWithinTimeLimit(now time.Time) bool {
	if s.Progress.StartedAt == nil {
		return true
	}
	return now.Sub(*s.Progress.StartedAt) < s.Config.MaxExecutionTime
}

func (s *Simulation) touch(now time.Time) { s.UpdatedAt = now }
