package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sitepulse-ai/sitepulse-engine/pkg/analytics"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/apperrors"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/llm"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/prompts"
)

// AnalyticsAgent answers GA4 reporting questions: it resolves fields against
// the property catalog, orchestrates report fetches, and summarizes the
// result with the LLM.
type AnalyticsAgent struct {
	newClient analytics.ClientFactory
	llm       llm.LLMClient
	resolver  *FieldResolver
	logger    *zap.Logger
}

// NewAnalyticsAgent creates an analytics agent. The client factory is invoked
// per request so credentials and the field catalog are always fresh.
func NewAnalyticsAgent(factory analytics.ClientFactory, llmClient llm.LLMClient, logger *zap.Logger) *AnalyticsAgent {
	return &AnalyticsAgent{
		newClient: factory,
		llm:       llmClient,
		resolver:  NewFieldResolver(llmClient, logger),
		logger:    logger.Named("analytics"),
	}
}

// HandleQuery answers a GA4 question, returning the full payload with the
// query echoed back. Collaborator failures come back as structured error
// payloads, not errors.
func (a *AnalyticsAgent) HandleQuery(ctx context.Context, query, propertyID string) map[string]any {
	return a.handle(ctx, query, propertyID, false)
}

// StructuredQuery answers a GA4 question, returning only the report and
// summary for embedding in a combined response.
func (a *AnalyticsAgent) StructuredQuery(ctx context.Context, query, propertyID string) map[string]any {
	return a.handle(ctx, query, propertyID, true)
}

func (a *AnalyticsAgent) handle(ctx context.Context, query, propertyID string, structured bool) map[string]any {
	client, err := a.newClient(ctx)
	if err != nil {
		a.logger.Warn("GA4 client construction failed", zap.Error(err))
		return map[string]any{
			"query":   query,
			"error":   "Failed to load GA4 credentials",
			"details": err.Error(),
			"next_steps": []string{
				"Ensure the credentials file exists and is a valid service account key file.",
			},
		}
	}

	catalog, err := client.GetMetadata(ctx, propertyID)
	if err != nil {
		return a.metadataErrorPayload(query, propertyID, err)
	}

	plan, err := a.resolver.Resolve(ctx, query, catalog)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNoValidMetrics):
			return map[string]any{
				"query": query,
				"error": "Unable to select any valid GA4 metrics for this property",
			}
		case errors.Is(err, apperrors.ErrNoValidDimensions):
			return map[string]any{
				"query": query,
				"error": "Unable to select any valid GA4 dimensions for this property",
			}
		}
		return map[string]any{"query": query, "error": err.Error()}
	}

	orchestrator := NewReportOrchestrator(client, a.logger)
	envelope, err := orchestrator.Run(ctx, propertyID, query, plan, catalog)
	if err != nil {
		a.logger.Warn("GA4 report fetch failed",
			zap.String("property_id", propertyID),
			zap.Error(err))
		return map[string]any{
			"query":   query,
			"error":   "GA4 query failed",
			"details": err.Error(),
		}
	}

	summary := a.summarize(ctx, query, propertyID, plan, envelope)

	if structured {
		return map[string]any{"report": envelope.Payload(), "summary": summary}
	}
	return map[string]any{"query": query, "report": envelope.Payload(), "summary": summary}
}

func (a *AnalyticsAgent) metadataErrorPayload(query, propertyID string, err error) map[string]any {
	a.logger.Warn("GA4 metadata fetch failed",
		zap.String("property_id", propertyID),
		zap.Error(err))

	if errors.Is(err, apperrors.ErrPermissionDenied) {
		return map[string]any{
			"query":      query,
			"error":      "Permission denied for GA4 property",
			"propertyId": propertyID,
			"details":    err.Error(),
			"next_steps": []string{
				"Verify the propertyId is correct (numeric ID, not 'UA-' or 'G-' prefixed).",
				"Grant the service account Viewer access in GA4 Admin > Property Access Management.",
			},
		}
	}

	return map[string]any{
		"query":      query,
		"error":      "Failed to fetch GA4 metadata",
		"propertyId": propertyID,
		"details":    err.Error(),
	}
}

func (a *AnalyticsAgent) summarize(ctx context.Context, query, propertyID string, plan *QueryPlan, envelope *ReportEnvelope) string {
	var prompt string
	if envelope.Comparison != nil {
		prompt = prompts.BuildComparisonSummaryPrompt(query, propertyID,
			envelope.Comparison.Current, envelope.Comparison.Previous)
	} else {
		prompt = prompts.BuildReportSummaryPrompt(query, propertyID,
			envelope.Single, plan.Filters)
	}
	return llm.SafeAsk(ctx, a.llm, prompt)
}
