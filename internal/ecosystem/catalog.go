// Package ecosystem declares the external collaborator services the
// simulation core calls out to, and the contracts it consumes them through.
// The HTTP clients behind these contracts live outside the core.
package ecosystem

import "github.com/praxisworks/simforge/internal/resilience"

// Known ecosystem service names. Each gets its own circuit breaker.
const (
	ServiceDocumentStore     = "document-store"
	ServiceDataGenerator     = "data-generator"
	ServiceOrchestrator      = "orchestrator"
	ServiceDocumentGenerator = "document-generator"
	ServiceRequirementsGen   = "requirements-generator"
	ServiceDesignGen         = "design-generator"
	ServiceCodeAnalyzer      = "code-analyzer"
	ServiceQualityAnalyzer   = "quality-analyzer"
	ServiceDocumentAnalyzer  = "document-analyzer"
	ServiceTeamAnalyzer      = "team-analyzer"
	ServiceRiskAssessor      = "risk-assessor"
	ServiceTimelineOptimizer = "timeline-optimizer"
	ServiceWorkflowEngine    = "workflow-engine"
	ServiceLLMGateway        = "llm-gateway"
	ServiceNotificationHub   = "notification-hub"
	ServiceMetricsCollector  = "metrics-collector"
	ServiceInsightMiner      = "insight-miner"
	ServiceReportBuilder     = "report-builder"
	ServiceKnowledgeBase     = "knowledge-base"
	ServiceSearchIndexer     = "search-indexer"
	ServiceArtifactRegistry  = "artifact-registry"
	ServiceScheduler         = "scheduler"
)

// Service pairs a collaborator name with its criticality tier.
type Service struct {
	Name string
	Tier resilience.Tier
}

// Catalog lists every known collaborator. The document store, data generator,
// and orchestrator are on the critical tier: their breakers trip and probe
// faster than the best-effort services.
func Catalog() []Service {
	return []Service{
		{ServiceDocumentStore, resilience.TierCritical},
		{ServiceDataGenerator, resilience.TierCritical},
		{ServiceOrchestrator, resilience.TierCritical},
		{ServiceDocumentGenerator, resilience.TierBestEffort},
		{ServiceRequirementsGen, resilience.TierBestEffort},
		{ServiceDesignGen, resilience.TierBestEffort},
		{ServiceCodeAnalyzer, resilience.TierBestEffort},
		{ServiceQualityAnalyzer, resilience.TierBestEffort},
		{ServiceDocumentAnalyzer, resilience.TierBestEffort},
		{ServiceTeamAnalyzer, resilience.TierBestEffort},
		{ServiceRiskAssessor, resilience.TierBestEffort},
		{ServiceTimelineOptimizer, resilience.TierBestEffort},
		{ServiceWorkflowEngine, resilience.TierBestEffort},
		{ServiceLLMGateway, resilience.TierBestEffort},
		{ServiceNotificationHub, resilience.TierBestEffort},
		{ServiceMetricsCollector, resilience.TierBestEffort},
		{ServiceInsightMiner, resilience.TierBestEffort},
		{ServiceReportBuilder, resilience.TierBestEffort},
		{ServiceKnowledgeBase, resilience.TierBestEffort},
		{ServiceSearchIndexer, resilience.TierBestEffort},
		{ServiceArtifactRegistry, resilience.TierBestEffort},
		{ServiceScheduler, resilience.TierBestEffort},
	}
}

// RegisterAll installs a breaker for every cataloged service using the given
// per-tier settings.
func RegisterAll(registry *resilience.Registry, byTier map[resilience.Tier]resilience.Settings) {
	for _, svc := range Catalog() {
		settings, ok := byTier[svc.Tier]
		if !ok {
			settings = resilience.DefaultSettings(svc.Tier)
		}
		registry.Register(svc.Name, settings)
	}
}
