// Package engine drives simulations: it builds the four aggregates from a
// creation request, then executes phases in dependency order, calling the
// ecosystem collaborators through the resilience layer and folding partial
// failures into the run result.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/praxisworks/simforge/internal/domain"
	"github.com/praxisworks/simforge/internal/domain/event"
	"github.com/praxisworks/simforge/internal/domain/project"
	"github.com/praxisworks/simforge/internal/domain/simulation"
	"github.com/praxisworks/simforge/internal/domain/team"
	"github.com/praxisworks/simforge/internal/domain/timeline"
	"github.com/praxisworks/simforge/internal/ecosystem"
	"github.com/praxisworks/simforge/internal/resilience"
	"github.com/praxisworks/simforge/internal/storage"
)

var (
	// ErrInvalidConfiguration reports a bad simulation-creation request.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrSimulationNotFound reports an unknown simulation id.
	ErrSimulationNotFound = errors.New("simulation not found")
	// ErrAggregateNotFound reports a missing project, timeline, or team.
	ErrAggregateNotFound = errors.New("aggregate not found")
	// ErrExecutionInProgress reports a concurrent execute call for the same
	// simulation id.
	ErrExecutionInProgress = errors.New("simulation execution already in progress")

	errTimedOut  = errors.New("execution time limit exceeded")
	errCancelled = errors.New("simulation cancelled")
)

// MemberSpec describes one requested team member.
type MemberSpec struct {
	Name      string              `json:"name"`
	Role      string              `json:"role"`
	Email     string              `json:"email,omitempty"`
	Expertise team.ExpertiseLevel `json:"expertise,omitempty"`
}

// CreateRequest is the input to CreateProjectSimulation.
type CreateRequest struct {
	ProjectName   string                   `json:"project_name"`
	Description   string                   `json:"description,omitempty"`
	ProjectType   project.Type             `json:"project_type"`
	Complexity    project.Complexity       `json:"complexity,omitempty"`
	TeamSize      int                      `json:"team_size"`
	DurationWeeks int                      `json:"duration_weeks,omitempty"`
	Phases        []PhaseSpec              `json:"phases,omitempty"`
	Members       []MemberSpec             `json:"members,omitempty"`
	Simulation    simulation.Configuration `json:"simulation"`
}

// Report is what ExecuteSimulation returns: the collected artifacts, partial
// failures, and final metrics of one run.
type Report struct {
	SimulationID domain.SimulationID        `json:"simulation_id"`
	Success      bool                       `json:"success"`
	Documents    []ecosystem.Document       `json:"documents,omitempty"`
	Workflows    []ecosystem.WorkflowResult `json:"workflows,omitempty"`
	Errors       []string                   `json:"errors,omitempty"`
	Warnings     []string                   `json:"warnings,omitempty"`
	Metrics      simulation.Metrics         `json:"metrics"`
}

// StatusInfo is the caller-facing view of a simulation.
type StatusInfo struct {
	SimulationID domain.SimulationID `json:"simulation_id"`
	Status       simulation.Status   `json:"status"`
	Progress     simulation.Progress `json:"progress"`
	Result       *simulation.Result  `json:"result,omitempty"`
}

// Engine is the simulation orchestration service. Construct it once and pass
// it explicitly; it holds no global state.
type Engine struct {
	repos     storage.Repositories
	docs      ecosystem.DocumentGenerator
	workflows ecosystem.WorkflowExecutor
	invoker   *resilience.Invoker
	bus       *event.Bus
	logger    *slog.Logger

	mu      sync.Mutex
	running map[domain.SimulationID]struct{}
}

// New wires an engine from its collaborators.
func New(repos storage.Repositories, docs ecosystem.DocumentGenerator, workflows ecosystem.WorkflowExecutor, invoker *resilience.Invoker, bus *event.Bus, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		repos:     repos,
		docs:      docs,
		workflows: workflows,
		invoker:   invoker,
		bus:       bus,
		logger:    logger,
		running:   make(map[domain.SimulationID]struct{}),
	}
}

// CreateProjectSimulation builds and persists the project, timeline, team,
// and simulation aggregates for a request, returning the new simulation id.
// Default phase templates apply when the request names no phases.
func (e *Engine) CreateProjectSimulation(ctx context.Context, req CreateRequest) (domain.SimulationID, error) {
	if req.ProjectName == "" {
		return "", fmt.Errorf("%w: project name is required", ErrInvalidConfiguration)
	}
	if !project.KnownType(req.ProjectType) {
		return "", fmt.Errorf("%w: unknown project type %q", ErrInvalidConfiguration, req.ProjectType)
	}
	if req.TeamSize < 1 {
		return "", fmt.Errorf("%w: team size must be at least 1", ErrInvalidConfiguration)
	}
	if len(req.Members) > req.TeamSize {
		return "", fmt.Errorf("%w: %d members exceed declared team size %d",
			ErrInvalidConfiguration, len(req.Members), req.TeamSize)
	}
	if req.Complexity == "" {
		req.Complexity = project.ComplexityMedium
	}

	phases := req.Phases
	if len(phases) == 0 {
		phases = defaultPhases(string(req.ProjectType))
	}
	duration := req.DurationWeeks
	if duration == 0 {
		for _, ph := range phases {
			duration += ph.DurationWeeks
		}
	}

	projPhases := make([]project.Phase, len(phases))
	tlPhases := make([]timeline.Phase, len(phases))
	due := time.Now().UTC()
	for i, ph := range phases {
		projPhases[i] = project.Phase{
			Name:          ph.Name,
			DurationWeeks: ph.DurationWeeks,
			DependsOn:     ph.DependsOn,
			Deliverables:  ph.Deliverables,
		}
		due = due.Add(time.Duration(ph.DurationWeeks) * 7 * 24 * time.Hour)
		tlPhases[i] = timeline.Phase{
			Name:         ph.Name,
			PlannedWeeks: ph.DurationWeeks,
			DependsOn:    ph.DependsOn,
			Milestones: []timeline.Milestone{
				{Name: ph.Name + " complete", DueDate: due},
			},
		}
	}

	proj, err := project.New(req.ProjectName, req.Description, req.ProjectType, req.Complexity,
		req.TeamSize, req.TeamSize, duration, projPhases)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	tl := timeline.New(proj.ID, tlPhases)
	tm, err := team.New(proj.ID, req.TeamSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	for _, ms := range req.Members {
		member := team.Member{Name: ms.Name, Role: ms.Role, Email: ms.Email, Expertise: ms.Expertise}
		if member.Expertise == "" {
			member.Expertise = team.ExpertiseMid
		}
		if err := tm.AddMember(member); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
		added := tm.Members[len(tm.Members)-1]
		if err := proj.AddTeamMember(project.MemberRef{ID: added.ID, Name: added.Name, Role: added.Role}); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
	}

	sim := simulation.New(proj.ID, req.Simulation, len(phases))

	if err := e.repos.Projects.Save(ctx, proj); err != nil {
		return "", fmt.Errorf("save project: %w", err)
	}
	if err := e.repos.Timelines.Save(ctx, tl); err != nil {
		return "", fmt.Errorf("save timeline: %w", err)
	}
	if err := e.repos.Teams.Save(ctx, tm); err != nil {
		return "", fmt.Errorf("save team: %w", err)
	}
	if err := e.repos.Simulations.Save(ctx, sim); err != nil {
		return "", fmt.Errorf("save simulation: %w", err)
	}

	e.publishDrained(proj, tl, tm, sim)
	e.logger.Info("simulation created",
		"simulation_id", sim.ID, "project_id", proj.ID, "phases", len(phases))
	return sim.ID, nil
}

// ExecuteSimulation runs a simulation to a terminal state and returns its
// report. Collaborator failures are recorded in the report and never abort
// the phase loop; only missing aggregates and illegal transitions surface as
// errors. The final simulation state is persisted even when the phase loop
// fails.
func (e *Engine) ExecuteSimulation(ctx context.Context, id domain.SimulationID) (*Report, error) {
	if !e.acquire(id) {
		return nil, fmt.Errorf("%w: %s", ErrExecutionInProgress, id)
	}
	defer e.release(id)

	sim, err := e.repos.Simulations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSimulationNotFound, id)
		}
		return nil, fmt.Errorf("load simulation: %w", err)
	}
	proj, err := e.repos.Projects.FindByID(ctx, sim.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: project %s", ErrAggregateNotFound, sim.ProjectID)
	}
	tl, err := e.repos.Timelines.FindByProjectID(ctx, sim.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: timeline for project %s", ErrAggregateNotFound, sim.ProjectID)
	}
	tm, err := e.repos.Teams.FindByProjectID(ctx, sim.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: team for project %s", ErrAggregateNotFound, sim.ProjectID)
	}

	if err := sim.Start(); err != nil {
		return nil, err
	}
	e.publishDrained(sim)
	if err := e.repos.Simulations.Save(ctx, sim); err != nil {
		return nil, fmt.Errorf("save simulation: %w", err)
	}

	report := &Report{SimulationID: id}
	start := time.Now()
	discard := false
	defer func() {
		if discard {
			return
		}
		if err := e.repos.Simulations.Save(ctx, sim); err != nil {
			e.logger.Error("final simulation save failed", "simulation_id", id, "error", err)
		}
		e.persistAggregates(ctx, proj, tl, tm)
	}()

	runErr := e.runPhases(ctx, sim, proj, tl, tm, report)
	execTime := time.Since(start)
	report.Metrics = computeMetrics(report, execTime)

	switch {
	case errors.Is(runErr, errCancelled):
		// Results of a cancelled run are discarded; the aggregate was
		// already transitioned by CancelSimulation.
		report.Success = false
		report.Warnings = append(report.Warnings, "simulation cancelled during execution")
		discard = true
		return report, nil

	case errors.Is(runErr, errTimedOut):
		report.Errors = append(report.Errors, errTimedOut.Error())
		report.Metrics = computeMetrics(report, execTime)
		report.Success = false
		if err := sim.Complete(e.buildResult(report, execTime, tm, false)); err != nil {
			e.logger.Warn("finalize after timeout failed", "simulation_id", id, "error", err)
		}

	case runErr != nil:
		// Unexpected engine error: fail the simulation and return a failed
		// report rather than re-raising.
		report.Errors = append(report.Errors, runErr.Error())
		report.Metrics = computeMetrics(report, execTime)
		report.Success = false
		if err := sim.Fail(runErr.Error()); err != nil {
			e.logger.Warn("fail transition rejected", "simulation_id", id, "error", err)
		}

	default:
		// Partial success counts as success: only a run that produced
		// nothing while accumulating errors is a total failure.
		success := len(report.Errors) == 0 ||
			len(report.Documents) > 0 || len(report.Workflows) > 0
		report.Success = success
		if err := sim.Complete(e.buildResult(report, execTime, tm, success)); err != nil {
			return nil, err
		}
	}

	e.publishDrained(sim)
	e.logger.Info("simulation finished",
		"simulation_id", id, "status", sim.Status,
		"documents", len(report.Documents), "workflows", len(report.Workflows),
		"errors", len(report.Errors), "elapsed", execTime)
	return report, nil
}

// CancelSimulation moves a simulation to CANCELLED. A running execution
// notices between phases and stops launching new ones.
func (e *Engine) CancelSimulation(ctx context.Context, id domain.SimulationID) error {
	sim, err := e.repos.Simulations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrSimulationNotFound, id)
		}
		return fmt.Errorf("load simulation: %w", err)
	}
	if err := sim.Cancel(); err != nil {
		return err
	}
	if err := e.repos.Simulations.Save(ctx, sim); err != nil {
		return fmt.Errorf("save simulation: %w", err)
	}
	e.publishDrained(sim)
	return nil
}

// GetSimulationStatus returns the current status, progress, and result of a
// simulation.
func (e *Engine) GetSimulationStatus(ctx context.Context, id domain.SimulationID) (StatusInfo, error) {
	sim, err := e.repos.Simulations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return StatusInfo{}, fmt.Errorf("%w: %s", ErrSimulationNotFound, id)
		}
		return StatusInfo{}, fmt.Errorf("load simulation: %w", err)
	}
	return StatusInfo{
		SimulationID: sim.ID,
		Status:       sim.Status,
		Progress:     sim.Progress,
		Result:       sim.Result,
	}, nil
}

func (e *Engine) acquire(id domain.SimulationID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.running[id]; busy {
		return false
	}
	e.running[id] = struct{}{}
	return true
}

func (e *Engine) release(id domain.SimulationID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.running, id)
}

// runPhases executes timeline phases in dependency order until all complete,
// the deadline passes, or the simulation is cancelled.
func (e *Engine) runPhases(ctx context.Context, sim *simulation.Simulation, proj *project.Project, tl *timeline.Timeline, tm *team.Team, report *Report) error {
	for {
		if e.isCancelled(ctx, sim.ID) {
			return errCancelled
		}
		if ctx.Err() != nil {
			return errCancelled
		}
		if !sim.IsWithinTimeLimit(time.Now().UTC()) {
			return errTimedOut
		}
		ready := tl.ReadyPhases()
		if len(ready) == 0 {
			if tl.AllCompleted() {
				return nil
			}
			return fmt.Errorf("timeline stalled: no runnable phase and %d incomplete", len(tl.Phases))
		}
		if err := e.runPhase(ctx, sim, proj, tl, tm, ready[0], report); err != nil {
			return err
		}
	}
}

// runPhase executes one phase: the document-generation and workflow calls
// are independent and fan out concurrently; their failures are folded into
// the report without aborting the phase.
func (e *Engine) runPhase(ctx context.Context, sim *simulation.Simulation, proj *project.Project, tl *timeline.Timeline, tm *team.Team, name string, report *Report) error {
	if err := sim.UpdateProgress(name, false); err != nil {
		return err
	}
	if err := tl.StartPhase(name); err != nil {
		return err
	}
	if err := proj.StartPhase(name); err != nil {
		return err
	}
	e.publishDrained(sim, tl, proj)
	e.logger.Info("phase started", "simulation_id", sim.ID, "phase", name)

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		docs      []ecosystem.Document
		workflows []ecosystem.WorkflowResult
		failures  []string
	)
	cfg := sim.Config
	priorDocs := report.Documents

	if cfg.EnableDocumentGeneration {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var generated []ecosystem.Document
			err := e.invoker.Call(ctx, ecosystem.ServiceDocumentGenerator, "generate_phase_documents",
				func(ctx context.Context) error {
					var genErr error
					generated, genErr = e.docs.GeneratePhaseDocuments(ctx, proj, name)
					return genErr
				})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, fmt.Sprintf("phase %s: %v", name, err))
				return
			}
			docs = generated
		}()
	}
	if cfg.EnableWorkflowExecution {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var res ecosystem.WorkflowResult
			err := e.invoker.Call(ctx, ecosystem.ServiceDocumentAnalyzer, "execute_document_analysis_workflow",
				func(ctx context.Context) error {
					var wfErr error
					res, wfErr = e.workflows.ExecuteDocumentAnalysis(ctx, priorDocs)
					return wfErr
				})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, fmt.Sprintf("phase %s: %v", name, err))
				return
			}
			workflows = append(workflows, res)
		}()
		if cfg.EnableTeamDynamics {
			wg.Add(1)
			go func() {
				defer wg.Done()
				var res ecosystem.WorkflowResult
				err := e.invoker.Call(ctx, ecosystem.ServiceTeamAnalyzer, "execute_team_dynamics_workflow",
					func(ctx context.Context) error {
						var wfErr error
						res, wfErr = e.workflows.ExecuteTeamDynamics(ctx, tm)
						return wfErr
					})
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failures = append(failures, fmt.Sprintf("phase %s: %v", name, err))
					return
				}
				workflows = append(workflows, res)
			}()
		}
	}
	wg.Wait()

	// A cancellation can land while the collaborator calls are in flight.
	// Re-check the persisted status before applying results: the
	// phase-boundary save below must never overwrite CANCELLED with the
	// engine's stale RUNNING copy.
	if e.isCancelled(ctx, sim.ID) {
		return errCancelled
	}

	// Apply collected outcomes to the aggregates on the phase boundary so
	// nothing mutates them concurrently.
	for _, d := range docs {
		report.Documents = append(report.Documents, d)
		if err := sim.RecordDocumentGeneration(name, d.Title, d.Type); err != nil {
			return err
		}
	}
	for _, w := range workflows {
		report.Workflows = append(report.Workflows, w)
		if err := sim.RecordWorkflowExecution(w.Workflow, w.Success, w.ExecutionTime); err != nil {
			return err
		}
	}
	report.Errors = append(report.Errors, failures...)

	ph := tl.PhaseByName(name)
	actualWeeks := float64(ph.PlannedWeeks)
	if err := tl.CompletePhase(name, actualWeeks); err != nil {
		return err
	}
	if err := tl.AchieveMilestone(name, name+" complete"); err != nil {
		e.logger.Warn("milestone not achieved", "phase", name, "error", err)
	}
	if err := proj.CompletePhase(name); err != nil {
		return err
	}
	if err := sim.UpdateProgress(name, true); err != nil {
		return err
	}
	e.publishDrained(sim, tl, proj, tm)
	e.persistAggregates(ctx, proj, tl, tm)
	if err := e.repos.Simulations.Save(ctx, sim); err != nil {
		return fmt.Errorf("save simulation: %w", err)
	}
	e.logger.Info("phase completed",
		"simulation_id", sim.ID, "phase", name,
		"documents", len(docs), "workflows", len(workflows), "failures", len(failures))
	return nil
}

// isCancelled reloads the persisted status so cancellations from other
// callers are noticed between phases.
func (e *Engine) isCancelled(ctx context.Context, id domain.SimulationID) bool {
	latest, err := e.repos.Simulations.FindByID(ctx, id)
	return err == nil && latest.Status == simulation.StatusCancelled
}

func (e *Engine) buildResult(report *Report, execTime time.Duration, tm *team.Team, success bool) simulation.Result {
	titles := make([]string, 0, len(report.Documents))
	for _, d := range report.Documents {
		titles = append(titles, d.Title)
	}
	names := make([]string, 0, len(report.Workflows))
	for _, w := range report.Workflows {
		names = append(names, w.Workflow)
	}
	var insights []string
	if morale := tm.AverageMorale(); morale > 0 && morale < 50 {
		insights = append(insights, fmt.Sprintf("team morale low at %.0f; schedule risk elevated", morale))
	}
	if len(report.Errors) > 0 && len(report.Documents) > 0 {
		insights = append(insights, "run degraded by collaborator failures; see errors")
	}
	return simulation.Result{
		Success:           success,
		ExecutionTime:     execTime,
		Metrics:           report.Metrics,
		DocumentsCreated:  titles,
		WorkflowsExecuted: names,
		Errors:            report.Errors,
		Warnings:          report.Warnings,
		Insights:          insights,
	}
}

func computeMetrics(report *Report, execTime time.Duration) simulation.Metrics {
	attempts := len(report.Documents) + len(report.Workflows) + len(report.Errors)
	rate := 1.0
	if attempts > 0 {
		rate = 1.0 - float64(len(report.Errors))/float64(attempts)
		if rate < 0 {
			rate = 0
		}
	}
	return simulation.Metrics{
		DocumentsCreated:  len(report.Documents),
		WorkflowsExecuted: len(report.Workflows),
		ErrorCount:        len(report.Errors),
		ExecutionTime:     execTime,
		SuccessRate:       rate,
	}
}

type drainer interface {
	Drain() []event.Envelope
}

func (e *Engine) publishDrained(aggregates ...drainer) {
	if e.bus == nil {
		return
	}
	for _, agg := range aggregates {
		e.bus.PublishAll(agg.Drain())
	}
}

func (e *Engine) persistAggregates(ctx context.Context, proj *project.Project, tl *timeline.Timeline, tm *team.Team) {
	if err := e.repos.Projects.Save(ctx, proj); err != nil {
		e.logger.Error("project save failed", "project_id", proj.ID, "error", err)
	}
	if err := e.repos.Timelines.Save(ctx, tl); err != nil {
		e.logger.Error("timeline save failed", "timeline_id", tl.ID, "error", err)
	}
	if err := e.repos.Teams.Save(ctx, tm); err != nil {
		e.logger.Error("team save failed", "team_id", tm.ID, "error", err)
	}
}
