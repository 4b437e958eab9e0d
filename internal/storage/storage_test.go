package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/praxisworks/simforge/internal/domain"
	"github.com/praxisworks/simforge/internal/domain/project"
	"github.com/praxisworks/simforge/internal/domain/simulation"
	"github.com/praxisworks/simforge/internal/domain/team"
	"github.com/praxisworks/simforge/internal/storage"
)

func seedProject(t *testing.T) *project.Project {
	t.Helper()
	p, err := project.New("storefront", "", project.TypeWebApplication,
		project.ComplexityMedium, 3, 3, 4, []project.Phase{
			{Name: "requirements", DurationWeeks: 2},
			{Name: "development", DurationWeeks: 2, DependsOn: []string{"requirements"}},
		})
	require.NoError(t, err)
	p.Drain()
	return p
}

func TestSaveCopiesTheAggregate(t *testing.T) {
	repos := storage.NewInMemory().Repositories()
	ctx := context.Background()
	p := seedProject(t)
	require.NoError(t, repos.Projects.Save(ctx, p))

	// Mutating the caller's copy after Save must not touch the stored one.
	require.NoError(t, p.StartPhase("requirements"))

	loaded, err := repos.Projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, project.StatusCreated, loaded.Status)
	require.Equal(t, project.PhasePending, loaded.Phases[0].Status)
}

func TestFindReturnsIndependentCopies(t *testing.T) {
	repos := storage.NewInMemory().Repositories()
	ctx := context.Background()

	sim := simulation.New(domain.NewProjectID(), simulation.DefaultConfiguration(), 2)
	require.NoError(t, repos.Simulations.Save(ctx, sim))

	first, err := repos.Simulations.FindByID(ctx, sim.ID)
	require.NoError(t, err)
	second, err := repos.Simulations.FindByID(ctx, sim.ID)
	require.NoError(t, err)
	require.NotSame(t, first, second)

	// Transitioning one loaded copy must not leak into the store.
	require.NoError(t, first.Start())
	reloaded, err := repos.Simulations.FindByID(ctx, sim.ID)
	require.NoError(t, err)
	require.Equal(t, simulation.StatusCreated, reloaded.Status)
}

func TestFindByProjectIDCopies(t *testing.T) {
	repos := storage.NewInMemory().Repositories()
	ctx := context.Background()
	projectID := domain.NewProjectID()

	tm, err := team.New(projectID, 3)
	require.NoError(t, err)
	require.NoError(t, tm.AddMember(team.Member{ID: "m1", Name: "Ada", Email: "ada@example.com"}))
	require.NoError(t, repos.Teams.Save(ctx, tm))

	loaded, err := repos.Teams.FindByProjectID(ctx, projectID)
	require.NoError(t, err)
	require.NoError(t, loaded.UpdateMemberMorale("m1", 10))

	reloaded, err := repos.Teams.FindByProjectID(ctx, projectID)
	require.NoError(t, err)
	require.Equal(t, 75.0, reloaded.Members[0].Morale)
}

func TestSimulationsByProjectAreCopies(t *testing.T) {
	repos := storage.NewInMemory().Repositories()
	ctx := context.Background()
	projectID := domain.NewProjectID()

	require.NoError(t, repos.Simulations.Save(ctx,
		simulation.New(projectID, simulation.DefaultConfiguration(), 1)))
	require.NoError(t, repos.Simulations.Save(ctx,
		simulation.New(projectID, simulation.DefaultConfiguration(), 1)))

	sims, err := repos.Simulations.FindByProjectID(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, sims, 2)
	require.NoError(t, sims[0].Cancel())

	sims, err = repos.Simulations.FindByProjectID(ctx, projectID)
	require.NoError(t, err)
	for _, s := range sims {
		require.Equal(t, simulation.StatusCreated, s.Status)
	}
}

func TestNotFoundAndDelete(t *testing.T) {
	repos := storage.NewInMemory().Repositories()
	ctx := context.Background()

	_, err := repos.Projects.FindByID(ctx, domain.NewProjectID())
	require.ErrorIs(t, err, storage.ErrNotFound)

	p := seedProject(t)
	require.NoError(t, repos.Projects.Save(ctx, p))
	deleted, err := repos.Projects.Delete(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, deleted)
	deleted, err = repos.Projects.Delete(ctx, p.ID)
	require.NoError(t, err)
	require.False(t, deleted)
}
