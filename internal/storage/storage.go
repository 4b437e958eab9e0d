// Package storage defines the repository contracts the orchestration engine
// persists aggregates through, plus an in-memory implementation used by tests
// and as the default when no database is configured.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/praxisworks/simforge/internal/domain"
	"github.com/praxisworks/simforge/internal/domain/project"
	"github.com/praxisworks/simforge/internal/domain/simulation"
	"github.com/praxisworks/simforge/internal/domain/team"
	"github.com/praxisworks/simforge/internal/domain/timeline"
)

// ErrNotFound is returned when an aggregate does not exist.
var ErrNotFound = errors.New("not found")

// ProjectRepository persists project aggregates.
type ProjectRepository interface {
	Save(ctx context.Context, p *project.Project) error
	FindByID(ctx context.Context, id domain.ProjectID) (*project.Project, error)
	Delete(ctx context.Context, id domain.ProjectID) (bool, error)
}

// TimelineRepository persists timeline aggregates.
type TimelineRepository interface {
	Save(ctx context.Context, t *timeline.Timeline) error
	FindByID(ctx context.Context, id domain.TimelineID) (*timeline.Timeline, error)
	FindByProjectID(ctx context.Context, projectID domain.ProjectID) (*timeline.Timeline, error)
	Delete(ctx context.Context, id domain.TimelineID) (bool, error)
}

// TeamRepository persists team aggregates.
type TeamRepository interface {
	Save(ctx context.Context, t *team.Team) error
	FindByID(ctx context.Context, id domain.TeamID) (*team.Team, error)
	FindByProjectID(ctx context.Context, projectID domain.ProjectID) (*team.Team, error)
	Delete(ctx context.Context, id domain.TeamID) (bool, error)
}

// SimulationRepository persists simulation aggregates.
type SimulationRepository interface {
	Save(ctx context.Context, s *simulation.Simulation) error
	FindByID(ctx context.Context, id domain.SimulationID) (*simulation.Simulation, error)
	FindByProjectID(ctx context.Context, projectID domain.ProjectID) ([]*simulation.Simulation, error)
	Delete(ctx context.Context, id domain.SimulationID) (bool, error)
}

// Repositories bundles one repository per aggregate type.
type Repositories struct {
	Projects    ProjectRepository
	Timelines   TimelineRepository
	Teams       TeamRepository
	Simulations SimulationRepository
}

// clone deep-copies an aggregate through its JSON form. The in-memory
// repositories copy on both save and load so callers never share a pointer
// with the store, matching the sqlite implementation's semantics.
func clone[T any](src *T) (*T, error) {
	data, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	return out, nil
}

// InMemory is a map-backed implementation of all four repositories.
type InMemory struct {
	mu          sync.RWMutex
	projects    map[domain.ProjectID]*project.Project
	timelines   map[domain.TimelineID]*timeline.Timeline
	teams       map[domain.TeamID]*team.Team
	simulations map[domain.SimulationID]*simulation.Simulation
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		projects:    make(map[domain.ProjectID]*project.Project),
		timelines:   make(map[domain.TimelineID]*timeline.Timeline),
		teams:       make(map[domain.TeamID]*team.Team),
		simulations: make(map[domain.SimulationID]*simulation.Simulation),
	}
}

// Repositories returns the store wired as the four repository interfaces.
func (m *InMemory) Repositories() Repositories {
	return Repositories{
		Projects:    (*inMemoryProjects)(m),
		Timelines:   (*inMemoryTimelines)(m),
		Teams:       (*inMemoryTeams)(m),
		Simulations: (*inMemorySimulations)(m),
	}
}

type inMemoryProjects InMemory

func (m *inMemoryProjects) Save(_ context.Context, p *project.Project) error {
	cp, err := clone(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = cp
	return nil
}

func (m *inMemoryProjects) FindByID(_ context.Context, id domain.ProjectID) (*project.Project, error) {
	m.mu.RLock()
	p, ok := m.projects[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return clone(p)
}

func (m *inMemoryProjects) Delete(_ context.Context, id domain.ProjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return false, nil
	}
	delete(m.projects, id)
	return true, nil
}

type inMemoryTimelines InMemory

func (m *inMemoryTimelines) Save(_ context.Context, t *timeline.Timeline) error {
	cp, err := clone(t)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timelines[t.ID] = cp
	return nil
}

func (m *inMemoryTimelines) FindByID(_ context.Context, id domain.TimelineID) (*timeline.Timeline, error) {
	m.mu.RLock()
	t, ok := m.timelines[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return clone(t)
}

func (m *inMemoryTimelines) FindByProjectID(_ context.Context, projectID domain.ProjectID) (*timeline.Timeline, error) {
	m.mu.RLock()
	var found *timeline.Timeline
	for _, t := range m.timelines {
		if t.ProjectID == projectID {
			found = t
			break
		}
	}
	m.mu.RUnlock()
	if found == nil {
		return nil, ErrNotFound
	}
	return clone(found)
}

func (m *inMemoryTimelines) Delete(_ context.Context, id domain.TimelineID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.timelines[id]; !ok {
		return false, nil
	}
	delete(m.timelines, id)
	return true, nil
}

type inMemoryTeams InMemory

func (m *inMemoryTeams) Save(_ context.Context, t *team.Team) error {
	cp, err := clone(t)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams[t.ID] = cp
	return nil
}

func (m *inMemoryTeams) FindByID(_ context.Context, id domain.TeamID) (*team.Team, error) {
	m.mu.RLock()
	t, ok := m.teams[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return clone(t)
}

func (m *inMemoryTeams) FindByProjectID(_ context.Context, projectID domain.ProjectID) (*team.Team, error) {
	m.mu.RLock()
	var found *team.Team
	for _, t := range m.teams {
		if t.ProjectID == projectID {
			found = t
			break
		}
	}
	m.mu.RUnlock()
	if found == nil {
		return nil, ErrNotFound
	}
	return clone(found)
}

func (m *inMemoryTeams) Delete(_ context.Context, id domain.TeamID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.teams[id]; !ok {
		return false, nil
	}
	delete(m.teams, id)
	return true, nil
}

type inMemorySimulations InMemory

func (m *inMemorySimulations) Save(_ context.Context, s *simulation.Simulation) error {
	cp, err := clone(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.simulations[s.ID] = cp
	return nil
}

func (m *inMemorySimulations) FindByID(_ context.Context, id domain.SimulationID) (*simulation.Simulation, error) {
	m.mu.RLock()
	s, ok := m.simulations[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s)
}

func (m *inMemorySimulations) FindByProjectID(_ context.Context, projectID domain.ProjectID) ([]*simulation.Simulation, error) {
	m.mu.RLock()
	var matched []*simulation.Simulation
	for _, s := range m.simulations {
		if s.ProjectID == projectID {
			matched = append(matched, s)
		}
	}
	m.mu.RUnlock()
	out := make([]*simulation.Simulation, 0, len(matched))
	for _, s := range matched {
		cp, err := clone(s)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

func (m *inMemorySimulations) Delete(_ context.Context, id domain.SimulationID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.simulations[id]; !ok {
		return false, nil
	}
	delete(m.simulations, id)
	return true, nil
}
