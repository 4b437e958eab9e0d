package ecosystem

import (
	"context"
	"time"

	"github.com/praxisworks/simforge/internal/domain/project"
	"github.com/praxisworks/simforge/internal/domain/team"
)

// Document is a deliverable produced by a document-generation collaborator.
type Document struct {
	Type         string            `json:"type"`
	Title        string            `json:"title"`
	Content      string            `json:"content"`
	WordCount    int               `json:"word_count"`
	QualityScore float64           `json:"quality_score"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// WorkflowResult is the outcome of one workflow-execution collaborator run.
type WorkflowResult struct {
	Workflow      string         `json:"workflow"`
	Success       bool           `json:"success"`
	ExecutionTime time.Duration  `json:"execution_time"`
	Output        map[string]any `json:"output,omitempty"`
}

// DocumentGenerator produces the documents for one project phase.
type DocumentGenerator interface {
	GeneratePhaseDocuments(ctx context.Context, proj *project.Project, phaseName string) ([]Document, error)
}

// WorkflowExecutor runs analysis workflows over generated artifacts.
type WorkflowExecutor interface {
	ExecuteDocumentAnalysis(ctx context.Context, docs []Document) (WorkflowResult, error)
	ExecuteTeamDynamics(ctx context.Context, t *team.Team) (WorkflowResult, error)
}
