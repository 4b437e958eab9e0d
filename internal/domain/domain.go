// Package domain holds the identifier types and error kinds shared by the
// four aggregates (project, timeline, team, simulation).
package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ProjectID identifies a project aggregate.
type ProjectID string

// TimelineID identifies a timeline aggregate.
type TimelineID string

// TeamID identifies a team aggregate.
type TeamID string

// SimulationID identifies a simulation aggregate.
type SimulationID string

func NewProjectID() ProjectID       { return ProjectID(uuid.NewString()) }
func NewTimelineID() TimelineID     { return TimelineID(uuid.NewString()) }
func NewTeamID() TeamID             { return TeamID(uuid.NewString()) }
func NewSimulationID() SimulationID { return SimulationID(uuid.NewString()) }

func (id ProjectID) String() string    { return string(id) }
func (id TimelineID) String() string   { return string(id) }
func (id TeamID) String() string       { return string(id) }
func (id SimulationID) String() string { return string(id) }

// RuleError reports a violated aggregate invariant. Transition methods return
// it when a pre-condition does not hold; the aggregate is left unchanged.
type RuleError struct {
	msg string
}

// Rulef builds a RuleError from a format string.
func Rulef(format string, args ...any) *RuleError {
	return &RuleError{msg: fmt.Sprintf(format, args...)}
}

func (e *RuleError) Error() string { return e.msg }

// IsRuleError reports whether err is (or wraps) a domain rule violation.
func IsRuleError(err error) bool {
	var re *RuleError
	return errors.As(err, &re)
}
