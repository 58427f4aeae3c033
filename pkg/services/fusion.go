package services

import (
	"context"

	"github.com/sitepulse-ai/sitepulse-engine/pkg/llm"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/prompts"
)

// Fuse combines the structured analytics and SEO results into one summary.
// With the LLM disabled it returns a deterministic fused payload carrying
// both results verbatim; otherwise it returns the LLM's short fused summary.
func Fuse(ctx context.Context, llmClient llm.LLMClient, query string, analyticsResult, seoResult map[string]any) any {
	if !llmClient.Enabled() {
		return map[string]any{
			"summary": "LLM unavailable; returning a deterministic fusion.",
			"highlights": map[string]any{
				"ga4": analyticsResult,
				"seo": seoResult,
			},
			"recommendations": []string{
				"Set LLM_API_KEY and LLM_BASE_URL to enable LLM-based fusion summaries.",
			},
		}
	}

	return llm.SafeAsk(ctx, llmClient, prompts.BuildFusionPrompt(query, analyticsResult, seoResult))
}
