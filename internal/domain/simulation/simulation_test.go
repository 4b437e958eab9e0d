package simulation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/praxisworks/simforge/internal/domain"
	"github.com/praxisworks/simforge/internal/domain/event"
	"github.com/praxisworks/simforge/internal/domain/simulation"
)

func newSim() *simulation.Simulation {
	return simulation.New(domain.NewProjectID(), simulation.DefaultConfiguration(), 3)
}

func TestStartTransitionsToRunning(t *testing.T) {
	sim := newSim()
	require.NoError(t, sim.Start())
	require.Equal(t, simulation.StatusRunning, sim.Status)
	require.NotNil(t, sim.Progress.StartedAt)
	require.NotNil(t, sim.EstimatedCompletion)
	require.Equal(t,
		sim.Progress.StartedAt.Add(sim.Config.MaxExecutionTime),
		*sim.EstimatedCompletion)

	events := sim.Drain()
	require.Len(t, events, 1)
	require.Equal(t, event.KindSimulationStarted, events[0].Kind)
}

func TestStartRejectedWhenNotCreated(t *testing.T) {
	sim := newSim()
	require.NoError(t, sim.Start())
	err := sim.Start()
	require.True(t, domain.IsRuleError(err))
}

func TestPauseResumeNoOpsOutsideRunning(t *testing.T) {
	sim := newSim()
	sim.Pause() // not running: no-op
	require.Equal(t, simulation.StatusCreated, sim.Status)

	require.NoError(t, sim.Start())
	sim.Pause()
	require.Equal(t, simulation.StatusPaused, sim.Status)
	sim.Pause() // already paused: no-op
	require.Equal(t, simulation.StatusPaused, sim.Status)
	sim.Resume()
	require.Equal(t, simulation.StatusRunning, sim.Status)
	sim.Resume() // already running: no-op
	require.Equal(t, simulation.StatusRunning, sim.Status)
}

func TestCompleteOnlyFromRunning(t *testing.T) {
	sim := newSim()
	err := sim.Complete(simulation.Result{Success: true})
	require.True(t, domain.IsRuleError(err))

	require.NoError(t, sim.Start())
	require.NoError(t, sim.Complete(simulation.Result{Success: true}))
	require.Equal(t, simulation.StatusCompleted, sim.Status)
	require.True(t, sim.IsCompleted())
}

func TestCompleteWithFailureResultEndsFailed(t *testing.T) {
	sim := newSim()
	require.NoError(t, sim.Start())
	require.NoError(t, sim.Complete(simulation.Result{Success: false, Errors: []string{"timeout"}}))
	require.Equal(t, simulation.StatusFailed, sim.Status)
	require.Equal(t, "timeout", sim.FailureReason)
}

func TestFailRejectedOnTerminal(t *testing.T) {
	sim := newSim()
	require.NoError(t, sim.Start())
	require.NoError(t, sim.Complete(simulation.Result{Success: true}))

	err := sim.Fail("late failure")
	require.True(t, domain.IsRuleError(err), "terminal simulations are immutable")
	require.Equal(t, simulation.StatusCompleted, sim.Status)
}

func TestFailFromAnyNonTerminalState(t *testing.T) {
	created := newSim()
	require.NoError(t, created.Fail("early"))
	require.Equal(t, simulation.StatusFailed, created.Status)
	require.NotNil(t, created.Result)
	require.False(t, created.Result.Success)

	paused := newSim()
	require.NoError(t, paused.Start())
	paused.Pause()
	require.NoError(t, paused.Fail("mid-run"))
	require.Equal(t, "mid-run", paused.FailureReason)
}

func TestCancelFromNonTerminalOnly(t *testing.T) {
	sim := newSim()
	require.NoError(t, sim.Cancel())
	require.Equal(t, simulation.StatusCancelled, sim.Status)

	err := sim.Cancel()
	require.True(t, domain.IsRuleError(err))
}

func TestTerminalBlocksProgressMutation(t *testing.T) {
	sim := newSim()
	require.NoError(t, sim.Start())
	require.NoError(t, sim.UpdateProgress("design", false))
	require.Equal(t, "design", sim.Progress.CurrentPhase)
	require.NoError(t, sim.RecordDocumentGeneration("design", "PRD", "prd"))
	require.NoError(t, sim.RecordWorkflowExecution("analysis", true, time.Second))
	require.Equal(t, 1, sim.Progress.DocumentsGenerated)
	require.Equal(t, 1, sim.Progress.WorkflowsExecuted)

	require.NoError(t, sim.Complete(simulation.Result{Success: true}))
	require.Error(t, sim.UpdateProgress("design", true))
	require.Error(t, sim.RecordDocumentGeneration("design", "x", "y"))
	require.Error(t, sim.RecordWorkflowExecution("x", true, 0))
	require.Equal(t, 1, sim.Progress.DocumentsGenerated)
}

func TestIsWithinTimeLimit(t *testing.T) {
	cfg := simulation.DefaultConfiguration()
	cfg.MaxExecutionTime = time.Minute
	sim := simulation.New(domain.NewProjectID(), cfg, 1)

	require.True(t, sim.IsWithinTimeLimit(time.Now()), "unstarted runs have no deadline")
	require.NoError(t, sim.Start())
	require.True(t, sim.IsWithinTimeLimit(sim.Progress.StartedAt.Add(30*time.Second)))
	require.False(t, sim.IsWithinTimeLimit(sim.Progress.StartedAt.Add(2*time.Minute)))
}
