package engine

// PhaseSpec describes one phase of a simulation creation request.
type PhaseSpec struct {
	Name          string   `json:"name"`
	DurationWeeks int      `json:"duration_weeks"`
	DependsOn     []string `json:"depends_on,omitempty"`
	Deliverables  []string `json:"deliverables,omitempty"`
}

// defaultPhases returns the phase template for a project type, used when the
// creation request supplies no phases of its own.
func defaultPhases(ptype string) []PhaseSpec {
	switch ptype {
	case "web_application":
		return []PhaseSpec{
			{Name: "requirements", DurationWeeks: 2, Deliverables: []string{"prd", "user_stories"}},
			{Name: "development", DurationWeeks: 6, DependsOn: []string{"requirements"}, Deliverables: []string{"frontend", "backend"}},
			{Name: "release", DurationWeeks: 2, DependsOn: []string{"development"}, Deliverables: []string{"deployment", "runbook"}},
		}
	case "api_service":
		return []PhaseSpec{
			{Name: "design", DurationWeeks: 2, Deliverables: []string{"api_spec"}},
			{Name: "implementation", DurationWeeks: 5, DependsOn: []string{"design"}, Deliverables: []string{"service", "tests"}},
			{Name: "hardening", DurationWeeks: 2, DependsOn: []string{"implementation"}, Deliverables: []string{"load_tests", "docs"}},
			{Name: "rollout", DurationWeeks: 1, DependsOn: []string{"hardening"}, Deliverables: []string{"deployment"}},
		}
	case "mobile_app":
		return []PhaseSpec{
			{Name: "discovery", DurationWeeks: 2, Deliverables: []string{"wireframes"}},
			{Name: "development", DurationWeeks: 8, DependsOn: []string{"discovery"}, Deliverables: []string{"app_build"}},
			{Name: "store_release", DurationWeeks: 2, DependsOn: []string{"development"}, Deliverables: []string{"store_listing"}},
		}
	case "data_pipeline":
		return []PhaseSpec{
			{Name: "modeling", DurationWeeks: 3, Deliverables: []string{"schema", "data_contracts"}},
			{Name: "ingestion", DurationWeeks: 4, DependsOn: []string{"modeling"}, Deliverables: []string{"connectors"}},
			{Name: "validation", DurationWeeks: 2, DependsOn: []string{"ingestion"}, Deliverables: []string{"quality_report"}},
		}
	case "ml_system":
		return []PhaseSpec{
			{Name: "exploration", DurationWeeks: 3, Deliverables: []string{"notebooks", "baseline"}},
			{Name: "training", DurationWeeks: 5, DependsOn: []string{"exploration"}, Deliverables: []string{"model"}},
			{Name: "evaluation", DurationWeeks: 2, DependsOn: []string{"training"}, Deliverables: []string{"eval_report"}},
			{Name: "serving", DurationWeeks: 2, DependsOn: []string{"evaluation"}, Deliverables: []string{"inference_service"}},
		}
	default:
		return nil
	}
}
