package team_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/praxisworks/simforge/internal/domain"
	"github.com/praxisworks/simforge/internal/domain/event"
	"github.com/praxisworks/simforge/internal/domain/team"
)

func newTeam(t *testing.T, maxSize int) *team.Team {
	t.Helper()
	tm, err := team.New(domain.NewProjectID(), maxSize)
	require.NoError(t, err)
	return tm
}

func TestAddMemberBeyondMaxSizeFails(t *testing.T) {
	tm := newTeam(t, 2)
	for i := 0; i < 2; i++ {
		require.NoError(t, tm.AddMember(team.Member{
			Name:  fmt.Sprintf("dev-%d", i),
			Email: fmt.Sprintf("dev%d@example.com", i),
			Role:  "engineer",
		}))
	}

	err := tm.AddMember(team.Member{Name: "late", Email: "late@example.com"})
	require.True(t, domain.IsRuleError(err))
	require.Equal(t, 2, tm.Size(), "roster unchanged on failed add")
}

func TestAddMemberDuplicateIDAndEmail(t *testing.T) {
	tm := newTeam(t, 5)
	require.NoError(t, tm.AddMember(team.Member{ID: "m1", Name: "Ada", Email: "ada@example.com"}))

	err := tm.AddMember(team.Member{ID: "m1", Name: "Other", Email: "other@example.com"})
	require.True(t, domain.IsRuleError(err))

	err = tm.AddMember(team.Member{Name: "Clone", Email: "ada@example.com"})
	require.True(t, domain.IsRuleError(err))
	require.Equal(t, 1, tm.Size())
}

func TestMoraleClampedAndEventEmitted(t *testing.T) {
	tm := newTeam(t, 3)
	require.NoError(t, tm.AddMember(team.Member{ID: "m1", Name: "Ada", Email: "ada@example.com"}))
	tm.Drain()

	require.NoError(t, tm.UpdateMemberMorale("m1", 130))
	require.Equal(t, 100.0, tm.Members[0].Morale)
	require.NoError(t, tm.UpdateMemberMorale("m1", -20))
	require.Equal(t, 0.0, tm.Members[0].Morale)

	events := tm.Drain()
	require.Len(t, events, 2)
	require.Equal(t, event.KindMoraleChanged, events[0].Kind)
}

func TestBurnoutRiskClamped(t *testing.T) {
	tm := newTeam(t, 3)
	require.NoError(t, tm.AddMember(team.Member{ID: "m1", Name: "Ada"}))
	require.NoError(t, tm.AdjustBurnoutRisk("m1", 150))
	require.Equal(t, 100.0, tm.Members[0].BurnoutRisk)
	require.NoError(t, tm.AdjustBurnoutRisk("m1", -500))
	require.Equal(t, 0.0, tm.Members[0].BurnoutRisk)
}

func TestDynamicsClamped(t *testing.T) {
	tm := newTeam(t, 3)
	tm.UpdateDynamics(team.Dynamics{Communication: 120, Collaboration: -5, ConflictResolution: 50, Trust: 99})
	require.Equal(t, 100.0, tm.Dynamics.Communication)
	require.Equal(t, 0.0, tm.Dynamics.Collaboration)
	require.Equal(t, 50.0, tm.Dynamics.ConflictResolution)
}

func TestAverageMorale(t *testing.T) {
	tm := newTeam(t, 3)
	require.Equal(t, 0.0, tm.AverageMorale())
	require.NoError(t, tm.AddMember(team.Member{ID: "a", Name: "A", Morale: 60}))
	require.NoError(t, tm.AddMember(team.Member{ID: "b", Name: "B", Morale: 80}))
	require.Equal(t, 70.0, tm.AverageMorale())
}

func TestRemoveMember(t *testing.T) {
	tm := newTeam(t, 3)
	require.NoError(t, tm.AddMember(team.Member{ID: "m1", Name: "Ada"}))
	require.NoError(t, tm.RemoveMember("m1"))
	require.Zero(t, tm.Size())

	err := tm.RemoveMember("m1")
	require.True(t, domain.IsRuleError(err))
}
