// Package timeline holds the Timeline aggregate: the schedule view of a
// project, with dependency-gated phases, milestones, risk, and blockers.
package timeline

import (
	"time"

	"github.com/praxisworks/simforge/internal/domain"
	"github.com/praxisworks/simforge/internal/domain/event"
)

// PhaseStatus is the state of a timeline phase.
type PhaseStatus string

const (
	PhasePending    PhaseStatus = "pending"
	PhaseInProgress PhaseStatus = "in_progress"
	PhaseCompleted  PhaseStatus = "completed"
)

// RiskLevel grades the delivery risk of a phase.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Milestone is a dated checkpoint inside a phase. It cannot be achieved
// until every dependency milestone has been achieved.
type Milestone struct {
	Name       string     `json:"name"`
	DueDate    time.Time  `json:"due_date"`
	AchievedAt *time.Time `json:"achieved_at,omitempty"`
	DependsOn  []string   `json:"depends_on,omitempty"`
}

// Achieved reports whether the milestone has been reached.
func (m *Milestone) Achieved() bool { return m.AchievedAt != nil }

// Phase tracks planned versus actual delivery of one unit of work.
type Phase struct {
	Name         string      `json:"name"`
	PlannedWeeks int         `json:"planned_weeks"`
	ActualWeeks  float64     `json:"actual_weeks"`
	Progress     float64     `json:"progress"` // 0..100
	Status       PhaseStatus `json:"status"`
	DependsOn    []string    `json:"depends_on,omitempty"`
	Milestones   []Milestone `json:"milestones,omitempty"`
	Risk         RiskLevel   `json:"risk"`
	Blockers     []string    `json:"blockers,omitempty"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
}

// Timeline is an aggregate root owned 1:1 by a project. The project is held
// by id, not by reference; lookups go through the repository.
type Timeline struct {
	ID        domain.TimelineID `json:"id"`
	ProjectID domain.ProjectID  `json:"project_id"`
	Phases    []Phase           `json:"phases"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`

	event.Recorder `json:"-"`
}

// New builds a timeline for a project. Phases start pending with low risk.
func New(projectID domain.ProjectID, phases []Phase) *Timeline {
	now := time.Now().UTC()
	for i := range phases {
		phases[i].Status = PhasePending
		if phases[i].Risk == "" {
			phases[i].Risk = RiskLow
		}
	}
	return &Timeline{
		ID:        domain.NewTimelineID(),
		ProjectID: projectID,
		Phases:    phases,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// PhaseByName returns a pointer into the phase list, or nil.
func (t *Timeline) PhaseByName(name string) *Phase {
	for i := range t.Phases {
		if t.Phases[i].Name == name {
			return &t.Phases[i]
		}
	}
	return nil
}

func (t *Timeline) dependenciesMet(ph *Phase) bool {
	for _, dep := range ph.DependsOn {
		depPh := t.PhaseByName(dep)
		if depPh == nil || depPh.Status != PhaseCompleted {
			return false
		}
	}
	return true
}

// StartPhase begins a phase. It fails while any named dependency is not yet
// completed.
func (t *Timeline) StartPhase(name string) error {
	ph := t.PhaseByName(name)
	if ph == nil {
		return domain.Rulef("unknown timeline phase %q", name)
	}
	if ph.Status != PhasePending {
		return domain.Rulef("timeline phase %q is %s, not pending", name, ph.Status)
	}
	if !t.dependenciesMet(ph) {
		return domain.Rulef("timeline phase %q has unmet dependencies", name)
	}
	now := time.Now().UTC()
	ph.Status = PhaseInProgress
	ph.StartedAt = &now
	t.UpdatedAt = now
	t.Record(t.ID.String(), event.PhaseStarted{AggregateID: t.ID.String(), Phase: name})
	return nil
}

// UpdatePhaseProgress sets a phase's progress percentage, clamped to 0..100.
func (t *Timeline) UpdatePhaseProgress(name string, progress float64) error {
	ph := t.PhaseByName(name)
	if ph == nil {
		return domain.Rulef("unknown timeline phase %q", name)
	}
	if ph.Status != PhaseInProgress {
		return domain.Rulef("timeline phase %q is %s, not in progress", name, ph.Status)
	}
	ph.Progress = min(100, max(0, progress))
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// CompletePhase finishes a phase with its actual duration, emitting
// PhaseDelayed as well when the actual duration exceeded the plan.
func (t *Timeline) CompletePhase(name string, actualWeeks float64) error {
	ph := t.PhaseByName(name)
	if ph == nil {
		return domain.Rulef("unknown timeline phase %q", name)
	}
	if ph.Status != PhaseInProgress {
		return domain.Rulef("timeline phase %q is %s, not in progress", name, ph.Status)
	}
	now := time.Now().UTC()
	ph.Status = PhaseCompleted
	ph.Progress = 100
	ph.ActualWeeks = actualWeeks
	ph.CompletedAt = &now
	t.UpdatedAt = now
	t.Record(t.ID.String(), event.PhaseCompleted{
		AggregateID: t.ID.String(),
		Phase:       name,
		ActualWeeks: actualWeeks,
	})
	if actualWeeks > float64(ph.PlannedWeeks) {
		t.Record(t.ID.String(), event.PhaseDelayed{
			AggregateID:  t.ID.String(),
			Phase:        name,
			PlannedWeeks: ph.PlannedWeeks,
			ActualWeeks:  actualWeeks,
		})
	}
	return nil
}

// AchieveMilestone marks a milestone achieved once all of its dependency
// milestones (searched across the whole timeline) are achieved.
func (t *Timeline) AchieveMilestone(phaseName, milestoneName string) error {
	ph := t.PhaseByName(phaseName)
	if ph == nil {
		return domain.Rulef("unknown timeline phase %q", phaseName)
	}
	var ms *Milestone
	for i := range ph.Milestones {
		if ph.Milestones[i].Name == milestoneName {
			ms = &ph.Milestones[i]
			break
		}
	}
	if ms == nil {
		return domain.Rulef("unknown milestone %q in phase %q", milestoneName, phaseName)
	}
	if ms.Achieved() {
		return domain.Rulef("milestone %q already achieved", milestoneName)
	}
	for _, dep := range ms.DependsOn {
		if !t.milestoneAchieved(dep) {
			return domain.Rulef("milestone %q dependency %q not achieved", milestoneName, dep)
		}
	}
	now := time.Now().UTC()
	ms.AchievedAt = &now
	t.UpdatedAt = now
	t.Record(t.ID.String(), event.MilestoneAchieved{
		TimelineID: t.ID.String(),
		Phase:      phaseName,
		Milestone:  milestoneName,
	})
	return nil
}

func (t *Timeline) milestoneAchieved(name string) bool {
	for i := range t.Phases {
		for j := range t.Phases[i].Milestones {
			if t.Phases[i].Milestones[j].Name == name {
				return t.Phases[i].Milestones[j].Achieved()
			}
		}
	}
	return false
}

// AddBlocker records a blocker on a phase and raises its risk one notch.
func (t *Timeline) AddBlocker(phaseName, blocker string) error {
	ph := t.PhaseByName(phaseName)
	if ph == nil {
		return domain.Rulef("unknown timeline phase %q", phaseName)
	}
	ph.Blockers = append(ph.Blockers, blocker)
	switch ph.Risk {
	case RiskLow:
		ph.Risk = RiskMedium
	case RiskMedium:
		ph.Risk = RiskHigh
	case RiskHigh:
		ph.Risk = RiskCritical
	}
	t.UpdatedAt = time.Now().UTC()
	t.Record(t.ID.String(), event.BlockerRaised{
		TimelineID: t.ID.String(),
		Phase:      phaseName,
		Blocker:    blocker,
	})
	return nil
}

// ResolveBlocker removes the first matching blocker from a phase.
func (t *Timeline) ResolveBlocker(phaseName, blocker string) error {
	ph := t.PhaseByName(phaseName)
	if ph == nil {
		return domain.Rulef("unknown timeline phase %q", phaseName)
	}
	for i, b := range ph.Blockers {
		if b == blocker {
			ph.Blockers = append(ph.Blockers[:i], ph.Blockers[i+1:]...)
			t.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return domain.Rulef("blocker %q not found on phase %q", blocker, phaseName)
}

// OverallProgress is the duration-weighted average of phase progress, 0..100.
func (t *Timeline) OverallProgress() float64 {
	var totalWeeks, weighted float64
	for _, ph := range t.Phases {
		w := float64(ph.PlannedWeeks)
		if w <= 0 {
			w = 1
		}
		totalWeeks += w
		weighted += w * ph.Progress
	}
	if totalWeeks == 0 {
		return 0
	}
	return weighted / totalWeeks
}

// ReadyPhases returns pending phases whose dependencies are all completed,
// in plan order. The engine uses this to drive dependency-ordered execution.
func (t *Timeline) ReadyPhases() []string {
	var out []string
	for i := range t.Phases {
		ph := &t.Phases[i]
		if ph.Status == PhasePending && t.dependenciesMet(ph) {
			out = append(out, ph.Name)
		}
	}
	return out
}

// AllCompleted reports whether every phase has completed.
func (t *Timeline) AllCompleted() bool {
	for _, ph := range t.Phases {
		if ph.Status != PhaseCompleted {
			return false
		}
	}
	return true
}
