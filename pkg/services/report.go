package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sitepulse-ai/sitepulse-engine/pkg/analytics"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/apperrors"
)

// dateRule maps query keywords to a relative date range. First match wins.
type dateRule struct {
	keywords []string
	start    string
	end      string
}

var dateRules = []dateRule{
	{keywords: []string{"today"}, start: "today", end: "today"},
	{keywords: []string{"yesterday"}, start: "yesterday", end: "yesterday"},
	{keywords: []string{"7 days", "last week"}, start: "7daysAgo", end: "today"},
	{keywords: []string{"14 days", "two weeks"}, start: "14daysAgo", end: "today"},
	{keywords: []string{"30 days", "last month"}, start: "30daysAgo", end: "today"},
	{keywords: []string{"90 days", "last 3 months"}, start: "90daysAgo", end: "today"},
}

var comparisonKeywords = []string{"compare", "previous", "vs", "versus", "period over period"}

// fallbackRanges is the cascade tried when the coerced range returns no rows.
var fallbackRanges = [][2]string{
	{"28daysAgo", "today"},
	{"90daysAgo", "today"},
}

// CoerceDateRange maps query text to a (start, end) relative date range,
// defaulting to the last 14 days.
func CoerceDateRange(query string) (start, end string) {
	ql := strings.ToLower(query)
	for _, rule := range dateRules {
		if containsAny(ql, rule.keywords) {
			return rule.start, rule.end
		}
	}
	return "14daysAgo", "today"
}

// WantsComparison reports whether the query asks for a period-over-period
// comparison.
func WantsComparison(query string) bool {
	return containsAny(strings.ToLower(query), comparisonKeywords)
}

// ComparisonResult pairs the current and previous period reports.
type ComparisonResult struct {
	Current  *analytics.ReportResult `json:"current"`
	Previous *analytics.ReportResult `json:"previous"`
}

// ReportEnvelope holds either a single report or a comparison pair.
type ReportEnvelope struct {
	Single     *analytics.ReportResult
	Comparison *ComparisonResult
}

// Payload returns the JSON-facing report value.
func (e *ReportEnvelope) Payload() any {
	if e.Comparison != nil {
		return e.Comparison
	}
	return e.Single
}

// ReportOrchestrator executes one or more report fetches for a query plan
// and selects the result to return: a comparison pair, or a single report
// found via the date-range fallback cascade.
type ReportOrchestrator struct {
	client analytics.DataClient
	logger *zap.Logger
}

// NewReportOrchestrator creates an orchestrator over the given data client.
func NewReportOrchestrator(client analytics.DataClient, logger *zap.Logger) *ReportOrchestrator {
	return &ReportOrchestrator{client: client, logger: logger.Named("report")}
}

// Run executes the plan. Sequential fetches only; each fetch revalidates
// fields against the catalog. Returns apperrors.ErrReportFetch (wrapping the
// last fetch error) when no result could be obtained.
func (o *ReportOrchestrator) Run(ctx context.Context, propertyID, query string, plan *QueryPlan, catalog *analytics.FieldCatalog) (*ReportEnvelope, error) {
	base := analytics.ReportRequest{
		Metrics:    plan.Selection.Metrics,
		Dimensions: plan.Selection.Dimensions,
		Limit:      plan.Limit,
		Filters:    plan.Filters,
		Catalog:    catalog,
	}
	if plan.TopQuery {
		base.OrderByMetric = plan.OrderByMetric
	}

	run := func(start, end string) (*analytics.ReportResult, error) {
		req := base
		req.StartDate = start
		req.EndDate = end
		return o.client.RunReport(ctx, propertyID, req)
	}

	start, end := CoerceDateRange(query)

	if WantsComparison(query) {
		return o.runComparison(ctx, query, start, end, run)
	}

	return o.runCascade(start, end, run)
}

// runComparison fetches the current and previous periods. The previous
// period is fixed at 60..31 days ago; the current period is the last 30 days
// when the query mentions "30", else the coerced range. Partial failure
// aborts the comparison entirely.
func (o *ReportOrchestrator) runComparison(ctx context.Context, query, start, end string, run func(string, string) (*analytics.ReportResult, error)) (*ReportEnvelope, error) {
	curStart, curEnd := start, end
	if strings.Contains(strings.ToLower(query), "30") {
		curStart, curEnd = "30daysAgo", "today"
	}

	current, err := run(curStart, curEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrReportFetch, err)
	}

	previous, err := run("60daysAgo", "31daysAgo")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrReportFetch, err)
	}

	return &ReportEnvelope{Comparison: &ComparisonResult{Current: current, Previous: previous}}, nil
}

// runCascade tries the coerced range first, then progressively wider
// fallback ranges, stopping at the first non-empty result. A failed attempt
// records the error but does not abort the cascade; the last successful
// result is kept even if empty.
func (o *ReportOrchestrator) runCascade(start, end string, run func(string, string) (*analytics.ReportResult, error)) (*ReportEnvelope, error) {
	ranges := append([][2]string{{start, end}}, fallbackRanges...)

	var lastResult *analytics.ReportResult
	var lastErr error

	for _, r := range ranges {
		result, err := run(r[0], r[1])
		if err != nil {
			lastErr = err
			o.logger.Debug("report attempt failed",
				zap.String("start", r[0]),
				zap.String("end", r[1]),
				zap.Error(err))
			continue
		}

		lastResult = result
		if len(result.Rows) > 0 {
			break
		}
	}

	if lastResult == nil {
		if lastErr == nil {
			lastErr = fmt.Errorf("unknown error")
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrReportFetch, lastErr)
	}

	return &ReportEnvelope{Single: lastResult}, nil
}
