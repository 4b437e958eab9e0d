// Package project holds the Project aggregate: a software project with an
// ordered, dependency-gated phase plan and a bounded member roster.
package project

import (
	"strings"
	"time"

	"github.com/praxisworks/simforge/internal/domain"
	"github.com/praxisworks/simforge/internal/domain/event"
)

// Type classifies the kind of software project being simulated.
type Type string

const (
	TypeWebApplication Type = "web_application"
	TypeAPIService     Type = "api_service"
	TypeMobileApp      Type = "mobile_app"
	TypeDataPipeline   Type = "data_pipeline"
	TypeMLSystem       Type = "ml_system"
)

// KnownType reports whether t is a recognized project type.
func KnownType(t Type) bool {
	switch t {
	case TypeWebApplication, TypeAPIService, TypeMobileApp, TypeDataPipeline, TypeMLSystem:
		return true
	}
	return false
}

// Complexity grades a project's difficulty.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Status is the project lifecycle state.
type Status string

const (
	StatusCreated    Status = "created"
	StatusPlanning   Status = "planning"
	StatusInProgress Status = "in_progress"
	StatusPaused     Status = "paused"
	StatusOnHold     Status = "on_hold"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// PhaseStatus is the state of a single phase.
type PhaseStatus string

const (
	PhasePending    PhaseStatus = "pending"
	PhaseInProgress PhaseStatus = "in_progress"
	PhaseCompleted  PhaseStatus = "completed"
)

// Phase is a named, ordered, dependency-gated unit of project work.
type Phase struct {
	Name          string      `json:"name"`
	DurationWeeks int         `json:"duration_weeks"`
	DependsOn     []string    `json:"depends_on,omitempty"`
	Deliverables  []string    `json:"deliverables,omitempty"`
	Status        PhaseStatus `json:"status"`
	StartedAt     *time.Time  `json:"started_at,omitempty"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
}

// MemberRef is the project-side view of a team member.
type MemberRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Project is an aggregate root. State changes go through the transition
// methods, which validate pre-conditions and buffer domain events.
type Project struct {
	ID            domain.ProjectID `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description,omitempty"`
	Type          Type             `json:"type"`
	Complexity    Complexity       `json:"complexity"`
	TeamSize      int              `json:"team_size"`
	MaxTeamSize   int              `json:"max_team_size"`
	DurationWeeks int              `json:"duration_weeks"`
	Status        Status           `json:"status"`
	Phases        []Phase          `json:"phases"`
	Members       []MemberRef      `json:"members,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`

	event.Recorder `json:"-"`
}

// New validates the inputs and builds a project in CREATED state, emitting
// ProjectCreated.
func New(name, description string, ptype Type, complexity Complexity, teamSize, maxTeamSize, durationWeeks int, phases []Phase) (*Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.Rulef("project name is required")
	}
	if !KnownType(ptype) {
		return nil, domain.Rulef("unknown project type %q", ptype)
	}
	if maxTeamSize < 1 {
		maxTeamSize = teamSize
	}
	if teamSize < 1 || teamSize > maxTeamSize {
		return nil, domain.Rulef("team size %d outside allowed range 1..%d", teamSize, maxTeamSize)
	}
	now := time.Now().UTC()
	for i := range phases {
		phases[i].Status = PhasePending
	}
	p := &Project{
		ID:            domain.NewProjectID(),
		Name:          name,
		Description:   description,
		Type:          ptype,
		Complexity:    complexity,
		TeamSize:      teamSize,
		MaxTeamSize:   maxTeamSize,
		DurationWeeks: durationWeeks,
		Status:        StatusCreated,
		Phases:        phases,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	p.Record(p.ID.String(), event.ProjectCreated{
		ProjectID:  p.ID.String(),
		Name:       name,
		Type:       string(ptype),
		Complexity: string(complexity),
	})
	return p, nil
}

var transitions = map[Status][]Status{
	StatusCreated:    {StatusPlanning, StatusInProgress, StatusCancelled},
	StatusPlanning:   {StatusInProgress, StatusOnHold, StatusCancelled},
	StatusInProgress: {StatusPaused, StatusOnHold, StatusCompleted, StatusCancelled},
	StatusPaused:     {StatusInProgress, StatusCancelled},
	StatusOnHold:     {StatusInProgress, StatusCancelled},
}

// ChangeStatus moves the project through its lifecycle. Projects are never
// hard-deleted, only transitioned.
func (p *Project) ChangeStatus(to Status) error {
	for _, allowed := range transitions[p.Status] {
		if allowed == to {
			from := p.Status
			p.Status = to
			p.UpdatedAt = time.Now().UTC()
			p.Record(p.ID.String(), event.ProjectStatusChanged{
				ProjectID: p.ID.String(),
				From:      string(from),
				To:        string(to),
			})
			return nil
		}
	}
	return domain.Rulef("cannot change project status from %s to %s", p.Status, to)
}

// PhaseByName returns a pointer into the phase list, or nil.
func (p *Project) PhaseByName(name string) *Phase {
	for i := range p.Phases {
		if p.Phases[i].Name == name {
			return &p.Phases[i]
		}
	}
	return nil
}

// StartPhase begins a phase once every dependency phase has completed. The
// first phase start also moves the project into IN_PROGRESS.
func (p *Project) StartPhase(name string) error {
	ph := p.PhaseByName(name)
	if ph == nil {
		return domain.Rulef("unknown phase %q", name)
	}
	if ph.Status != PhasePending {
		return domain.Rulef("phase %q is %s, not pending", name, ph.Status)
	}
	for _, dep := range ph.DependsOn {
		depPh := p.PhaseByName(dep)
		if depPh == nil || depPh.Status != PhaseCompleted {
			return domain.Rulef("phase %q dependency %q not completed", name, dep)
		}
	}
	now := time.Now().UTC()
	ph.Status = PhaseInProgress
	ph.StartedAt = &now
	p.UpdatedAt = now
	if p.Status == StatusCreated || p.Status == StatusPlanning {
		p.Status = StatusInProgress
	}
	p.Record(p.ID.String(), event.PhaseStarted{AggregateID: p.ID.String(), Phase: name})
	return nil
}

// CompletePhase marks an in-progress phase as completed.
func (p *Project) CompletePhase(name string) error {
	ph := p.PhaseByName(name)
	if ph == nil {
		return domain.Rulef("unknown phase %q", name)
	}
	if ph.Status != PhaseInProgress {
		return domain.Rulef("phase %q is %s, not in progress", name, ph.Status)
	}
	now := time.Now().UTC()
	ph.Status = PhaseCompleted
	ph.CompletedAt = &now
	p.UpdatedAt = now
	actual := 0.0
	if ph.StartedAt != nil {
		actual = now.Sub(*ph.StartedAt).Hours() / (24 * 7)
	}
	p.Record(p.ID.String(), event.PhaseCompleted{
		AggregateID: p.ID.String(),
		Phase:       name,
		ActualWeeks: actual,
	})
	return nil
}

// AddTeamMember records a member on the project roster. Mirrors the team
// aggregate's size cap so the project's own invariant holds independently.
func (p *Project) AddTeamMember(m MemberRef) error {
	if len(p.Members) >= p.MaxTeamSize {
		return domain.Rulef("project team already at max size %d", p.MaxTeamSize)
	}
	for _, existing := range p.Members {
		if existing.ID == m.ID {
			return domain.Rulef("member %q already on project", m.ID)
		}
	}
	p.Members = append(p.Members, m)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// CompletedPhases returns the names of all completed phases.
func (p *Project) CompletedPhases() []string {
	var out []string
	for _, ph := range p.Phases {
		if ph.Status == PhaseCompleted {
			out = append(out, ph.Name)
		}
	}
	return out
}

// IsTerminal reports whether the project lifecycle has ended.
func (p *Project) IsTerminal() bool {
	return p.Status == StatusCompleted || p.Status == StatusCancelled
}
