package timeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/praxisworks/simforge/internal/domain"
	"github.com/praxisworks/simforge/internal/domain/event"
	"github.com/praxisworks/simforge/internal/domain/timeline"
)

func newTimeline() *timeline.Timeline {
	due := time.Now().Add(14 * 24 * time.Hour)
	return timeline.New(domain.NewProjectID(), []timeline.Phase{
		{Name: "design", PlannedWeeks: 2, Milestones: []timeline.Milestone{
			{Name: "spec approved", DueDate: due},
		}},
		{Name: "build", PlannedWeeks: 4, DependsOn: []string{"design"}, Milestones: []timeline.Milestone{
			{Name: "feature complete", DueDate: due, DependsOn: []string{"spec approved"}},
		}},
		{Name: "ship", PlannedWeeks: 1, DependsOn: []string{"build"}},
	})
}

func TestStartPhaseRequiresCompletedDependencies(t *testing.T) {
	tl := newTimeline()

	err := tl.StartPhase("build")
	require.True(t, domain.IsRuleError(err))
	require.Equal(t, timeline.PhasePending, tl.PhaseByName("build").Status)

	require.NoError(t, tl.StartPhase("design"))

	// In-progress is not completed: the gate still holds.
	err = tl.StartPhase("build")
	require.True(t, domain.IsRuleError(err))

	require.NoError(t, tl.CompletePhase("design", 2))
	require.NoError(t, tl.StartPhase("build"))
}

func TestReadyPhasesFollowsDependencyOrder(t *testing.T) {
	tl := newTimeline()
	require.Equal(t, []string{"design"}, tl.ReadyPhases())

	require.NoError(t, tl.StartPhase("design"))
	require.Empty(t, tl.ReadyPhases())

	require.NoError(t, tl.CompletePhase("design", 2))
	require.Equal(t, []string{"build"}, tl.ReadyPhases())
}

func TestCompletePhaseEmitsDelayWhenOverPlan(t *testing.T) {
	tl := newTimeline()
	require.NoError(t, tl.StartPhase("design"))
	tl.Drain()

	require.NoError(t, tl.CompletePhase("design", 3.5))
	events := tl.Drain()
	require.Len(t, events, 2)
	require.Equal(t, event.KindPhaseCompleted, events[0].Kind)
	require.Equal(t, event.KindPhaseDelayed, events[1].Kind)
}

func TestMilestoneDependencyGate(t *testing.T) {
	tl := newTimeline()

	err := tl.AchieveMilestone("build", "feature complete")
	require.True(t, domain.IsRuleError(err), "dependency milestone not yet achieved")

	require.NoError(t, tl.AchieveMilestone("design", "spec approved"))
	require.NoError(t, tl.AchieveMilestone("build", "feature complete"))

	err = tl.AchieveMilestone("design", "spec approved")
	require.True(t, domain.IsRuleError(err), "already achieved")
}

func TestOverallProgressIsDurationWeighted(t *testing.T) {
	tl := newTimeline()
	require.NoError(t, tl.StartPhase("design"))
	require.NoError(t, tl.CompletePhase("design", 2))

	// design: 2 weeks at 100%, build 4 weeks at 0, ship 1 week at 0.
	require.InDelta(t, 100.0*2/7, tl.OverallProgress(), 0.01)

	require.NoError(t, tl.StartPhase("build"))
	require.NoError(t, tl.UpdatePhaseProgress("build", 50))
	require.InDelta(t, (100.0*2+50*4)/7, tl.OverallProgress(), 0.01)
}

func TestProgressClamped(t *testing.T) {
	tl := newTimeline()
	require.NoError(t, tl.StartPhase("design"))
	require.NoError(t, tl.UpdatePhaseProgress("design", 150))
	require.Equal(t, 100.0, tl.PhaseByName("design").Progress)
}

func TestBlockersEscalateRisk(t *testing.T) {
	tl := newTimeline()
	require.NoError(t, tl.AddBlocker("build", "waiting on vendor"))
	require.Equal(t, timeline.RiskMedium, tl.PhaseByName("build").Risk)
	require.NoError(t, tl.AddBlocker("build", "credentials expired"))
	require.Equal(t, timeline.RiskHigh, tl.PhaseByName("build").Risk)

	require.NoError(t, tl.ResolveBlocker("build", "waiting on vendor"))
	require.Len(t, tl.PhaseByName("build").Blockers, 1)

	err := tl.ResolveBlocker("build", "nonexistent")
	require.True(t, domain.IsRuleError(err))
}

func TestAllCompleted(t *testing.T) {
	tl := newTimeline()
	require.False(t, tl.AllCompleted())
	for _, name := range []string{"design", "build", "ship"} {
		require.NoError(t, tl.StartPhase(name))
		require.NoError(t, tl.CompletePhase(name, 1))
	}
	require.True(t, tl.AllCompleted())
}
