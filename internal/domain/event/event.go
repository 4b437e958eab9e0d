// Package event defines the domain events emitted by aggregate transitions
// and the in-process bus that delivers them.
//
// The payload set is a closed union: every variant implements Payload and is
// known at compile time, so consumers dispatch with a type switch instead of
// a string-keyed registry.
package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind tags an event variant.
type Kind string

const (
	KindProjectCreated       Kind = "project.created"
	KindProjectStatusChanged Kind = "project.status_changed"
	KindPhaseStarted         Kind = "phase.started"
	KindPhaseCompleted       Kind = "phase.completed"
	KindPhaseDelayed         Kind = "phase.delayed"
	KindMilestoneAchieved    Kind = "milestone.achieved"
	KindBlockerRaised        Kind = "blocker.raised"
	KindTeamMemberAdded      Kind = "team.member_added"
	KindTeamMemberRemoved    Kind = "team.member_removed"
	KindMoraleChanged        Kind = "team.morale_changed"
	KindSimulationStarted    Kind = "simulation.started"
	KindSimulationPaused     Kind = "simulation.paused"
	KindSimulationResumed    Kind = "simulation.resumed"
	KindSimulationCompleted  Kind = "simulation.completed"
	KindSimulationFailed     Kind = "simulation.failed"
	KindSimulationCancelled  Kind = "simulation.cancelled"
	KindDocumentGenerated    Kind = "document.generated"
	KindWorkflowExecuted     Kind = "workflow.executed"
)

// Payload is the closed union of event payloads. Only types in this package
// implement it.
type Payload interface {
	Kind() Kind
	isPayload()
}

// Envelope wraps a payload with the metadata common to every domain event.
// Envelopes are immutable once created.
type Envelope struct {
	ID          string
	Kind        Kind
	Version     int
	OccurredAt  time.Time
	AggregateID string
	Payload     Payload
}

// New stamps a payload into an envelope.
func New(aggregateID string, p Payload) Envelope {
	return Envelope{
		ID:          uuid.NewString(),
		Kind:        p.Kind(),
		Version:     1,
		OccurredAt:  time.Now().UTC(),
		AggregateID: aggregateID,
		Payload:     p,
	}
}

// MarshalJSON renders the envelope in the wire shape consumed by the event
// sink and the websocket gateway.
func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EventID     string    `json:"event_id"`
		EventType   Kind      `json:"event_type"`
		Version     int       `json:"version"`
		OccurredAt  time.Time `json:"occurred_at"`
		AggregateID string    `json:"aggregate_id"`
		Payload     Payload   `json:"payload"`
	}{e.ID, e.Kind, e.Version, e.OccurredAt, e.AggregateID, e.Payload})
}

// ProjectCreated is emitted when a project aggregate is built.
type ProjectCreated struct {
	ProjectID  string `json:"project_id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Complexity string `json:"complexity"`
}

// ProjectStatusChanged is emitted on project lifecycle transitions.
type ProjectStatusChanged struct {
	ProjectID string `json:"project_id"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// PhaseStarted is emitted when a project or timeline phase begins.
type PhaseStarted struct {
	AggregateID string `json:"aggregate_id"`
	Phase       string `json:"phase"`
}

// PhaseCompleted is emitted when a phase finishes.
type PhaseCompleted struct {
	AggregateID string  `json:"aggregate_id"`
	Phase       string  `json:"phase"`
	ActualWeeks float64 `json:"actual_weeks"`
}

// PhaseDelayed is emitted when a phase completes over its planned duration.
type PhaseDelayed struct {
	AggregateID  string  `json:"aggregate_id"`
	Phase        string  `json:"phase"`
	PlannedWeeks int     `json:"planned_weeks"`
	ActualWeeks  float64 `json:"actual_weeks"`
}

// MilestoneAchieved is emitted when a timeline milestone is achieved.
type MilestoneAchieved struct {
	TimelineID string `json:"timeline_id"`
	Phase      string `json:"phase"`
	Milestone  string `json:"milestone"`
}

// BlockerRaised is emitted when a blocker is added to a timeline phase.
type BlockerRaised struct {
	TimelineID string `json:"timeline_id"`
	Phase      string `json:"phase"`
	Blocker    string `json:"blocker"`
}

// TeamMemberAdded is emitted when a member joins a team.
type TeamMemberAdded struct {
	TeamID   string `json:"team_id"`
	MemberID string `json:"member_id"`
	Role     string `json:"role"`
}

// TeamMemberRemoved is emitted when a member leaves a team.
type TeamMemberRemoved struct {
	TeamID   string `json:"team_id"`
	MemberID string `json:"member_id"`
}

// MoraleChanged is emitted when a member's morale is updated.
type MoraleChanged struct {
	TeamID   string  `json:"team_id"`
	MemberID string  `json:"member_id"`
	Morale   float64 `json:"morale"`
}

// SimulationStarted is emitted on CREATED -> STARTING -> RUNNING.
type SimulationStarted struct {
	SimulationID string    `json:"simulation_id"`
	ProjectID    string    `json:"project_id"`
	StartedAt    time.Time `json:"started_at"`
}

// SimulationPaused is emitted on RUNNING -> PAUSED.
type SimulationPaused struct {
	SimulationID string `json:"simulation_id"`
}

// SimulationResumed is emitted on PAUSED -> RUNNING.
type SimulationResumed struct {
	SimulationID string `json:"simulation_id"`
}

// SimulationCompleted is emitted when a simulation reaches COMPLETED.
type SimulationCompleted struct {
	SimulationID string        `json:"simulation_id"`
	Success      bool          `json:"success"`
	Execution    time.Duration `json:"execution_time"`
}

// SimulationFailed is emitted when a simulation reaches FAILED.
type SimulationFailed struct {
	SimulationID string `json:"simulation_id"`
	Reason       string `json:"reason"`
}

// SimulationCancelled is emitted when a simulation is cancelled.
type SimulationCancelled struct {
	SimulationID string `json:"simulation_id"`
}

// DocumentGenerated is emitted when a phase document is recorded.
type DocumentGenerated struct {
	SimulationID string `json:"simulation_id"`
	Phase        string `json:"phase"`
	Title        string `json:"title"`
	DocType      string `json:"doc_type"`
}

// WorkflowExecuted is emitted when a workflow run is recorded.
type WorkflowExecuted struct {
	SimulationID string        `json:"simulation_id"`
	Workflow     string        `json:"workflow"`
	Success      bool          `json:"success"`
	Execution    time.Duration `json:"execution_time"`
}

func (ProjectCreated) Kind() Kind       { return KindProjectCreated }
func (ProjectStatusChanged) Kind() Kind { return KindProjectStatusChanged }
func (PhaseStarted) Kind() Kind         { return KindPhaseStarted }
func (PhaseCompleted) Kind() Kind       { return KindPhaseCompleted }
func (PhaseDelayed) Kind() Kind         { return KindPhaseDelayed }
func (MilestoneAchieved) Kind() Kind    { return KindMilestoneAchieved }
func (BlockerRaised) Kind() Kind        { return KindBlockerRaised }
func (TeamMemberAdded) Kind() Kind      { return KindTeamMemberAdded }
func (TeamMemberRemoved) Kind() Kind    { return KindTeamMemberRemoved }
func (MoraleChanged) Kind() Kind        { return KindMoraleChanged }
func (SimulationStarted) Kind() Kind    { return KindSimulationStarted }
func (SimulationPaused) Kind() Kind     { return KindSimulationPaused }
func (SimulationResumed) Kind() Kind    { return KindSimulationResumed }
func (SimulationCompleted) Kind() Kind  { return KindSimulationCompleted }
func (SimulationFailed) Kind() Kind     { return KindSimulationFailed }
func (SimulationCancelled) Kind() Kind  { return KindSimulationCancelled }
func (DocumentGenerated) Kind() Kind    { return KindDocumentGenerated }
func (WorkflowExecuted) Kind() Kind     { return KindWorkflowExecuted }

func (ProjectCreated) isPayload()       {}
func (ProjectStatusChanged) isPayload() {}
func (PhaseStarted) isPayload()         {}
func (PhaseCompleted) isPayload()       {}
func (PhaseDelayed) isPayload()         {}
func (MilestoneAchieved) isPayload()    {}
func (BlockerRaised) isPayload()        {}
func (TeamMemberAdded) isPayload()      {}
func (TeamMemberRemoved) isPayload()    {}
func (MoraleChanged) isPayload()        {}
func (SimulationStarted) isPayload()    {}
func (SimulationPaused) isPayload()     {}
func (SimulationResumed) isPayload()    {}
func (SimulationCompleted) isPayload()  {}
func (SimulationFailed) isPayload()     {}
func (SimulationCancelled) isPayload()  {}
func (DocumentGenerated) isPayload()    {}
func (WorkflowExecuted) isPayload()     {}

// Recorder is the pending-event buffer embedded in every aggregate. The
// orchestration layer drains it after each transition and hands the batch to
// the bus; aggregates never publish directly.
type Recorder struct {
	pending []Envelope
}

// Record stamps and buffers a payload.
func (r *Recorder) Record(aggregateID string, p Payload) {
	r.pending = append(r.pending, New(aggregateID, p))
}

// Drain returns the buffered events and clears the buffer.
func (r *Recorder) Drain() []Envelope {
	out := r.pending
	r.pending = nil
	return out
}

// Pending returns the number of buffered events.
func (r *Recorder) Pending() int { return len(r.pending) }
