package services

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sitepulse-ai/sitepulse-engine/pkg/analytics"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/apperrors"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/llm"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/prompts"
)

// FieldSelection is the resolved (metrics, dimensions) pair. Both lists are
// ordered, deduplicated (first occurrence wins), and subsets of the catalog.
type FieldSelection struct {
	Metrics    []string
	Dimensions []string
}

// QueryPlan is the full resolver output: field selection plus the report
// shaping derived from the query text.
type QueryPlan struct {
	Selection FieldSelection
	Filters   []analytics.DimensionFilter
	// Limit is the row cap: top-N for ranking queries, defaultReportLimit
	// otherwise.
	Limit int64
	// OrderByMetric orders descending by the first selected metric for
	// ranking queries; empty means no ordering.
	OrderByMetric string
	TopQuery      bool
}

const (
	defaultReportLimit = 10000
	defaultTopN        = 10
	maxTopN            = 100
)

// fieldRule maps query keywords to a field API name. Any keyword matching
// triggers the field unless one of the guard phrases is present.
type fieldRule struct {
	keywords []string
	unless   []string
	field    string
}

var metricRules = []fieldRule{
	{keywords: []string{"active users", "active user"}, field: "activeUsers"},
	{keywords: []string{"new users"}, field: "newUsers"},
	{keywords: []string{"users"}, unless: []string{"new users", "active users"}, field: "totalUsers"},
	{keywords: []string{"sessions"}, field: "sessions"},
	{keywords: []string{"engaged", "engagement"}, field: "engagedSessions"},
	{keywords: []string{"avg session", "average session", "session duration"}, field: "averageSessionDuration"},
	// "views" alone matches too; broad on purpose to catch "most viewed".
	{keywords: []string{"pageview", "page view", "pageviews", "page views", "views"}, field: "screenPageViews"},
}

var dimensionRules = []fieldRule{
	{keywords: []string{"daily", "by day", "day-wise", "per day", "trend"}, field: "date"},
	{keywords: []string{"page", "pages", "path", "landing"}, field: "pagePath"},
	{keywords: []string{"title"}, field: "pageTitle"},
	{keywords: []string{"country"}, field: "country"},
	{keywords: []string{"city"}, field: "city"},
	{keywords: []string{"device", "mobile", "desktop", "tablet"}, field: "deviceCategory"},
	{keywords: []string{"source"}, field: "source"},
	{keywords: []string{"medium"}, field: "medium"},
	{keywords: []string{"channel", "channel group"}, field: "channelGroup"},
}

var (
	pathPattern = regexp.MustCompile(`\B(/[^\s,?.]+)`)
	topNPattern = regexp.MustCompile(`\btop\s+(\d+)\b`)

	rankingKeywords = []string{"top ", "highest", "most ", "best "}
	rankedEntities  = []string{
		"page", "pages", "country", "countries", "city", "cities",
		"source", "medium", "channel", "device", "user", "users",
	}
)

// FieldResolver turns query text plus the property's field catalog into a
// validated QueryPlan. Resolution never fails on the LLM path; it degrades to
// a best-effort selection and only errors when the catalog intersection
// leaves an axis empty.
type FieldResolver struct {
	llm    llm.LLMClient
	logger *zap.Logger
}

// NewFieldResolver creates a resolver using the given LLM for the fallback
// field-selection pass.
func NewFieldResolver(llmClient llm.LLMClient, logger *zap.Logger) *FieldResolver {
	return &FieldResolver{llm: llmClient, logger: logger.Named("fields")}
}

// Resolve resolves metrics and dimensions for the query: heuristics first,
// LLM when heuristics found no metric, catalog fallback last, then catalog
// intersection. Returns apperrors.ErrNoValidMetrics / ErrNoValidDimensions
// when an axis empties out.
func (r *FieldResolver) Resolve(ctx context.Context, query string, catalog *analytics.FieldCatalog) (*QueryPlan, error) {
	ql := strings.ToLower(query)

	allowedMetrics := sortedCopy(catalog.Metrics)
	allowedDimensions := sortedCopy(catalog.Dimensions)

	metrics, dimensions := heuristicFields(ql)

	if len(metrics) == 0 {
		lm, ld := r.llmPickFields(ctx, query, allowedMetrics, allowedDimensions)
		if len(lm) > 0 {
			metrics = lm
		}
		if len(ld) > 0 {
			dimensions = ld
		}
	}

	if len(metrics) == 0 && len(allowedMetrics) > 0 {
		metrics = allowedMetrics[:1]
	}
	if len(dimensions) == 0 {
		switch {
		case catalog.HasDimension("date"):
			dimensions = []string{"date"}
		case len(allowedDimensions) > 0:
			dimensions = allowedDimensions[:1]
		}
	}

	// Intersect with the catalog to drop hallucinated or stale names.
	metrics = filterFields(metrics, catalog.HasMetric)
	dimensions = filterFields(dimensions, catalog.HasDimension)

	if len(metrics) == 0 {
		return nil, apperrors.ErrNoValidMetrics
	}
	if len(dimensions) == 0 {
		return nil, apperrors.ErrNoValidDimensions
	}

	plan := &QueryPlan{
		Selection: FieldSelection{Metrics: metrics, Dimensions: dimensions},
		Limit:     defaultReportLimit,
	}

	// Page-scoped questions add a CONTAINS filter and force-include the
	// page-path dimension.
	if field, value, ok := extractPageHint(query); ok && catalog.HasDimension(field) {
		plan.Filters = append(plan.Filters, analytics.DimensionFilter{
			Field: field,
			Match: analytics.MatchContains,
			Value: value,
		})
		if !containsString(plan.Selection.Dimensions, field) {
			plan.Selection.Dimensions = append(plan.Selection.Dimensions, field)
		}
	}

	if isTopQuery(ql) {
		plan.TopQuery = true
		plan.Limit = parseTopN(ql)
		plan.OrderByMetric = metrics[0]
	}

	r.logger.Debug("resolved query plan",
		zap.Strings("metrics", plan.Selection.Metrics),
		zap.Strings("dimensions", plan.Selection.Dimensions),
		zap.Int64("limit", plan.Limit),
		zap.Bool("top_query", plan.TopQuery))

	return plan, nil
}

// heuristicFields scans the lower-cased query against the rule tables.
// Matches accumulate in rule order; duplicates keep the first occurrence.
func heuristicFields(ql string) (metrics, dimensions []string) {
	for _, rule := range metricRules {
		if containsAny(ql, rule.keywords) && !containsAny(ql, rule.unless) {
			metrics = appendUnique(metrics, rule.field)
		}
	}
	for _, rule := range dimensionRules {
		if containsAny(ql, rule.keywords) && !containsAny(ql, rule.unless) {
			dimensions = appendUnique(dimensions, rule.field)
		}
	}
	return metrics, dimensions
}

// llmFieldPick is the strict JSON shape requested from the LLM.
type llmFieldPick struct {
	Metrics    []string `json:"metrics"`
	Dimensions []string `json:"dimensions"`
}

// llmPickFields asks the LLM to choose fields from the allowed lists. Any
// failure (transport, disabled client, malformed JSON) degrades silently to
// empty lists.
func (r *FieldResolver) llmPickFields(ctx context.Context, query string, allowedMetrics, allowedDimensions []string) ([]string, []string) {
	prompt := prompts.BuildFieldSelectionPrompt(query, allowedMetrics, allowedDimensions)

	raw, err := r.llm.Ask(ctx, prompt)
	if err != nil {
		r.logger.Debug("llm field selection unavailable", zap.Error(err))
		return nil, nil
	}

	pick, err := llm.ParseJSONResponse[llmFieldPick](raw)
	if err != nil {
		r.logger.Debug("llm field selection returned malformed JSON", zap.Error(err))
		return nil, nil
	}

	return pick.Metrics, pick.Dimensions
}

// extractPageHint finds a page-path filter hint: an explicit /path token in
// the original query, or a common english page reference.
func extractPageHint(query string) (field, value string, ok bool) {
	if m := pathPattern.FindStringSubmatch(query); m != nil {
		return "pagePath", m[1], true
	}

	ql := strings.ToLower(query)
	if strings.Contains(ql, "homepage") || strings.Contains(ql, "home page") || strings.Contains(ql, "home") {
		return "pagePath", "/", true
	}
	if strings.Contains(ql, "pricing") {
		return "pagePath", "/pricing", true
	}

	return "", "", false
}

// isTopQuery reports whether the query asks for a ranking: it needs both a
// ranking keyword and a reference to a rankable entity category.
func isTopQuery(ql string) bool {
	return containsAny(ql, rankingKeywords) && containsAny(ql, rankedEntities)
}

// parseTopN extracts N from "top N", clamped to [1, maxTopN], defaulting to
// defaultTopN when no number follows "top".
func parseTopN(ql string) int64 {
	m := topNPattern.FindStringSubmatch(ql)
	if m == nil {
		return defaultTopN
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return defaultTopN
	}
	if n < 1 {
		return 1
	}
	if n > maxTopN {
		return maxTopN
	}
	return int64(n)
}

func sortedCopy(list []string) []string {
	out := make([]string, len(list))
	copy(out, list)
	sort.Strings(out)
	return out
}

func appendUnique(list []string, v string) []string {
	if containsString(list, v) {
		return list
	}
	return append(list, v)
}

func filterFields(fields []string, keep func(string) bool) []string {
	var out []string
	for _, f := range fields {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
