// Package prompts builds the natural-language-generation prompts sent to the
// LLM collaborator. All data serialization happens here so the agents only
// deal with structured results.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sitepulse-ai/sitepulse-engine/pkg/analytics"
)

// maxRowPreview bounds how many report rows are inlined into a summary prompt.
const maxRowPreview = 20

// BuildFieldSelectionPrompt asks the LLM to map a question to catalog fields.
// The response must be strict JSON: {"metrics": [...], "dimensions": [...]}.
func BuildFieldSelectionPrompt(query string, allowedMetrics, allowedDimensions []string) string {
	var b strings.Builder

	b.WriteString("You map natural-language questions to analytics reporting fields.\n\n")
	b.WriteString("Return STRICT JSON ONLY with keys: metrics, dimensions.\n")
	b.WriteString("- metrics: 1-3 strings from allowed list\n")
	b.WriteString("- dimensions: 0-2 strings from allowed list (use [] if none)\n\n")
	b.WriteString(fmt.Sprintf("Allowed metrics: %s\n", compactJSON(allowedMetrics)))
	b.WriteString(fmt.Sprintf("Allowed dimensions: %s\n\n", compactJSON(allowedDimensions)))
	b.WriteString(fmt.Sprintf("User question: %s", query))

	return b.String()
}

// BuildReportSummaryPrompt asks for a concise answer over a single report.
func BuildReportSummaryPrompt(query, propertyID string, result *analytics.ReportResult, filters []analytics.DimensionFilter) string {
	rows := result.Rows
	if len(rows) > maxRowPreview {
		rows = rows[:maxRowPreview]
	}

	var b strings.Builder

	b.WriteString("You are a careful analytics analyst. Only use the provided rows.\n")
	b.WriteString("If rows are empty, say so and suggest how to broaden the query.\n\n")
	b.WriteString(fmt.Sprintf("User query: %s\n", query))
	b.WriteString(fmt.Sprintf("Property ID: %s\n", propertyID))
	b.WriteString(fmt.Sprintf("Dimensions: %s\n", compactJSON(result.DimensionHeaders)))
	b.WriteString(fmt.Sprintf("Metrics: %s\n", compactJSON(result.MetricHeaders)))
	b.WriteString(fmt.Sprintf("Filters applied: %s\n", compactJSON(filters)))
	b.WriteString(fmt.Sprintf("Rows (up to %d): %s\n", maxRowPreview, compactJSON(rows)))
	b.WriteString(fmt.Sprintf("Notes: %s\n\n", compactJSON(result.Notes)))
	b.WriteString("Write a concise answer with:\n")
	b.WriteString("- direct answer\n")
	b.WriteString("- 2-4 bullet highlights\n")
	b.WriteString("- if empty: what was attempted (date range) and next steps")

	return b.String()
}

// BuildComparisonSummaryPrompt asks for a period-over-period comparison.
func BuildComparisonSummaryPrompt(query, propertyID string, current, previous *analytics.ReportResult) string {
	var b strings.Builder

	b.WriteString("You are a careful analytics analyst. Only use the provided rows.\n\n")
	b.WriteString(fmt.Sprintf("User query: %s\n", query))
	b.WriteString(fmt.Sprintf("Property ID: %s\n\n", propertyID))
	b.WriteString(fmt.Sprintf("CURRENT period report: %s\n", compactJSON(current)))
	b.WriteString(fmt.Sprintf("PREVIOUS period report: %s\n\n", compactJSON(previous)))
	b.WriteString("Tasks:\n")
	b.WriteString("- If asked for average daily page views: compute average per day for current and previous periods.\n")
	b.WriteString("- Compare and state direction (increasing/decreasing) and approximate percent change.\n")
	b.WriteString("- If data is empty, say so and suggest next steps.\n\n")
	b.WriteString("Return a concise answer.")

	return b.String()
}

// BuildSEOColumnSummaryPrompt asks for a free-form SEO issue summary when no
// deterministic crawl handler matched the query.
func BuildSEOColumnSummaryPrompt(columns []string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Given the following SEO crawl columns: %s,\n", compactJSON(columns)))
	b.WriteString("summarize major SEO issues and priorities.\n\n")
	b.WriteString("If a column named __sheet exists, it indicates which sheet tab each row came from.")

	return b.String()
}

// BuildFusionPrompt asks for a fused summary over analytics and SEO results.
func BuildFusionPrompt(query string, analyticsResult, seoResult any) string {
	var b strings.Builder

	b.WriteString("You are a concise analytics+SEO assistant.\n")
	b.WriteString(fmt.Sprintf("User query: %s\n\n", query))
	b.WriteString(fmt.Sprintf("Analytics result (structured): %s\n", compactJSON(analyticsResult)))
	b.WriteString(fmt.Sprintf("SEO result (structured): %s\n\n", compactJSON(seoResult)))
	b.WriteString("Produce a short fused JSON summary (top-level keys: summary, highlights, recommendations).")

	return b.String()
}

// compactJSON renders v as single-line JSON, falling back to fmt on error.
func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
