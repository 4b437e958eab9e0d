// Package team holds the Team aggregate: a bounded member roster with
// per-member morale/burnout tracking and whole-team dynamics scores.
package team

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/praxisworks/simforge/internal/domain"
	"github.com/praxisworks/simforge/internal/domain/event"
)

// ExpertiseLevel grades a member's seniority.
type ExpertiseLevel string

const (
	ExpertiseJunior ExpertiseLevel = "junior"
	ExpertiseMid    ExpertiseLevel = "mid"
	ExpertiseSenior ExpertiseLevel = "senior"
	ExpertiseLead   ExpertiseLevel = "lead"
)

// Member is a team member entity. Morale and burnout risk are clamped to
// [0,100] on every update.
type Member struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Role               string         `json:"role"`
	Email              string         `json:"email"`
	Expertise          ExpertiseLevel `json:"expertise"`
	CommunicationStyle string         `json:"communication_style,omitempty"`
	WorkStyle          string         `json:"work_style,omitempty"`
	Morale             float64        `json:"morale"`
	BurnoutRisk        float64        `json:"burnout_risk"`
	Productivity       float64        `json:"productivity_multiplier"`
}

// Dynamics scores the team as a whole. All scores are 0..100.
type Dynamics struct {
	Communication      float64 `json:"communication"`
	Collaboration      float64 `json:"collaboration"`
	ConflictResolution float64 `json:"conflict_resolution"`
	Trust              float64 `json:"trust"`
}

// Team is an aggregate root owned 1:1 by a project.
type Team struct {
	ID        domain.TeamID    `json:"id"`
	ProjectID domain.ProjectID `json:"project_id"`
	MaxSize   int              `json:"max_size"`
	Members   []Member         `json:"members"`
	Dynamics  Dynamics         `json:"dynamics"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	event.Recorder `json:"-"`
}

// New builds an empty team with neutral dynamics.
func New(projectID domain.ProjectID, maxSize int) (*Team, error) {
	if maxSize < 1 {
		return nil, domain.Rulef("team max size must be at least 1, got %d", maxSize)
	}
	now := time.Now().UTC()
	return &Team{
		ID:        domain.NewTeamID(),
		ProjectID: projectID,
		MaxSize:   maxSize,
		Dynamics:  Dynamics{Communication: 70, Collaboration: 70, ConflictResolution: 70, Trust: 70},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func clamp(v float64) float64 { return min(100, max(0, v)) }

// AddMember appends a member. It fails past MaxSize or on a duplicate id or
// email, leaving the roster unchanged.
func (t *Team) AddMember(m Member) error {
	if len(t.Members) >= t.MaxSize {
		return domain.Rulef("team already at max size %d", t.MaxSize)
	}
	if strings.TrimSpace(m.Name) == "" {
		return domain.Rulef("member name is required")
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	for _, existing := range t.Members {
		if existing.ID == m.ID {
			return domain.Rulef("member id %q already on team", m.ID)
		}
		if m.Email != "" && existing.Email == m.Email {
			return domain.Rulef("member email %q already on team", m.Email)
		}
	}
	if m.Morale == 0 {
		m.Morale = 75
	}
	if m.Productivity == 0 {
		m.Productivity = 1.0
	}
	m.Morale = clamp(m.Morale)
	m.BurnoutRisk = clamp(m.BurnoutRisk)
	t.Members = append(t.Members, m)
	t.UpdatedAt = time.Now().UTC()
	t.Record(t.ID.String(), event.TeamMemberAdded{
		TeamID:   t.ID.String(),
		MemberID: m.ID,
		Role:     m.Role,
	})
	return nil
}

// RemoveMember drops a member from the roster.
func (t *Team) RemoveMember(memberID string) error {
	for i, m := range t.Members {
		if m.ID == memberID {
			t.Members = append(t.Members[:i], t.Members[i+1:]...)
			t.UpdatedAt = time.Now().UTC()
			t.Record(t.ID.String(), event.TeamMemberRemoved{
				TeamID:   t.ID.String(),
				MemberID: memberID,
			})
			return nil
		}
	}
	return domain.Rulef("member %q not on team", memberID)
}

func (t *Team) memberByID(id string) *Member {
	for i := range t.Members {
		if t.Members[i].ID == id {
			return &t.Members[i]
		}
	}
	return nil
}

// UpdateMemberMorale sets a member's morale, clamped to [0,100].
func (t *Team) UpdateMemberMorale(memberID string, morale float64) error {
	m := t.memberByID(memberID)
	if m == nil {
		return domain.Rulef("member %q not on team", memberID)
	}
	m.Morale = clamp(morale)
	t.UpdatedAt = time.Now().UTC()
	t.Record(t.ID.String(), event.MoraleChanged{
		TeamID:   t.ID.String(),
		MemberID: memberID,
		Morale:   m.Morale,
	})
	return nil
}

// AdjustBurnoutRisk shifts a member's burnout risk by delta, clamped.
func (t *Team) AdjustBurnoutRisk(memberID string, delta float64) error {
	m := t.memberByID(memberID)
	if m == nil {
		return domain.Rulef("member %q not on team", memberID)
	}
	m.BurnoutRisk = clamp(m.BurnoutRisk + delta)
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateDynamics replaces the team dynamics scores, each clamped to [0,100].
func (t *Team) UpdateDynamics(d Dynamics) {
	t.Dynamics = Dynamics{
		Communication:      clamp(d.Communication),
		Collaboration:      clamp(d.Collaboration),
		ConflictResolution: clamp(d.ConflictResolution),
		Trust:              clamp(d.Trust),
	}
	t.UpdatedAt = time.Now().UTC()
}

// AverageMorale returns the mean morale across members, or 0 for an empty
// roster.
func (t *Team) AverageMorale() float64 {
	if len(t.Members) == 0 {
		return 0
	}
	var sum float64
	for _, m := range t.Members {
		sum += m.Morale
	}
	return sum / float64(len(t.Members))
}

// Size returns the current roster size.
func (t *Team) Size() int { return len(t.Members) }
