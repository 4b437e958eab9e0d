package ecosystem

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/praxisworks/simforge/internal/domain/project"
	"github.com/praxisworks/simforge/internal/domain/team"
)

// LocalDocumentGenerator produces deterministic synthetic documents without
// calling a real ecosystem service. It is the default generator for the
// server process and a convenient stand-in for tests.
type LocalDocumentGenerator struct{}

func (LocalDocumentGenerator) GeneratePhaseDocuments(_ context.Context, proj *project.Project, phaseName string) ([]Document, error) {
	ph := proj.PhaseByName(phaseName)
	if ph == nil {
		return nil, fmt.Errorf("project %s has no phase %q", proj.ID, phaseName)
	}
	deliverables := ph.Deliverables
	if len(deliverables) == 0 {
		deliverables = []string{"summary"}
	}
	docs := make([]Document, 0, len(deliverables))
	for _, d := range deliverables {
		content := fmt.Sprintf("%s for %s phase %s of project %s",
			strings.ReplaceAll(d, "_", " "), proj.Type, phaseName, proj.Name)
		docs = append(docs, Document{
			Type:         d,
			Title:        fmt.Sprintf("%s: %s", proj.Name, d),
			Content:      content,
			WordCount:    180 + int(stableHash(proj.Name+phaseName+d)%620),
			QualityScore: 0.7 + float64(stableHash(d+phaseName)%30)/100,
			Metadata:     map[string]string{"phase": phaseName, "project_type": string(proj.Type)},
		})
	}
	return docs, nil
}

// LocalWorkflowExecutor runs synthetic analysis workflows.
type LocalWorkflowExecutor struct{}

func (LocalWorkflowExecutor) ExecuteDocumentAnalysis(_ context.Context, docs []Document) (WorkflowResult, error) {
	var words int
	for _, d := range docs {
		words += d.WordCount
	}
	return WorkflowResult{
		Workflow:      "document_analysis",
		Success:       true,
		ExecutionTime: time.Duration(50+len(docs)*10) * time.Millisecond,
		Output:        map[string]any{"documents_analyzed": len(docs), "total_words": words},
	}, nil
}

func (LocalWorkflowExecutor) ExecuteTeamDynamics(_ context.Context, t *team.Team) (WorkflowResult, error) {
	return WorkflowResult{
		Workflow:      "team_dynamics",
		Success:       true,
		ExecutionTime: time.Duration(40+t.Size()*5) * time.Millisecond,
		Output: map[string]any{
			"members":        t.Size(),
			"average_morale": t.AverageMorale(),
			"trust":          t.Dynamics.Trust,
		},
	}, nil
}

func stableHash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
