package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sitepulse-ai/sitepulse-engine/pkg/apperrors"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/jsonutil"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/llm"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/prompts"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/sheets"
)

// longTitleThreshold is the character count above which a page title is
// reported as too long.
const longTitleThreshold = 60

// sheetTagColumn tags each row with its source tab in multi-tab mode.
const sheetTagColumn = "__sheet"

// SEOAgentOptions configures dataset handling for the SEO agent.
type SEOAgentOptions struct {
	// UseAllTabs reads and concatenates every worksheet, tagging rows with
	// their source tab.
	UseAllTabs bool
	// MaxRows bounds slimmed result sets. Defaults to DefaultSlimLimit.
	MaxRows int
}

// SEOAgent answers crawl-dataset questions: deterministic detectors for
// common audits (non-HTTPS URLs, long titles, indexability), with an LLM
// column summary as the fallback.
type SEOAgent struct {
	newSource sheets.SourceFactory
	llm       llm.LLMClient
	opts      SEOAgentOptions
	logger    *zap.Logger
}

// NewSEOAgent creates an SEO agent. The source factory is invoked per
// request so sheet data is always fresh.
func NewSEOAgent(factory sheets.SourceFactory, llmClient llm.LLMClient, opts SEOAgentOptions, logger *zap.Logger) *SEOAgent {
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultSlimLimit
	}
	return &SEOAgent{
		newSource: factory,
		llm:       llmClient,
		opts:      opts,
		logger:    logger.Named("seo"),
	}
}

// HandleQuery answers a crawl-dataset question, returning a JSON-safe
// payload. Collaborator failures come back as structured error payloads, not
// errors.
func (a *SEOAgent) HandleQuery(ctx context.Context, query string) map[string]any {
	table, errPayload := a.loadTable(ctx, query)
	if errPayload != nil {
		return errPayload
	}

	q := strings.ToLower(query)
	results := make(map[string]any)

	wantsHTTPS := strings.Contains(q, "https") && table.HasColumn("Address")
	wantsTitle := strings.Contains(q, "title") && table.HasColumn("Title 1")
	wantsIntersection := wantsHTTPS && wantsTitle &&
		(strings.Contains(q, "and") || strings.Contains(q, "&"))

	if wantsIntersection {
		matched := filterRows(table.Rows, func(rec sheets.Record) bool {
			return isNonHTTPS(rec) && hasLongTitle(rec)
		})
		results["non_https_and_long_title"] = SlimRecords(table.Columns, matched, a.opts.MaxRows, DedupeColumn)
		results["total_count"] = len(matched)
	} else {
		if wantsHTTPS {
			matched := filterRows(table.Rows, isNonHTTPS)
			results["non_https_urls"] = SlimRecords(table.Columns, matched, a.opts.MaxRows, DedupeColumn)
			results["non_https_count"] = len(matched)
		}
		if wantsTitle {
			matched := filterRows(table.Rows, hasLongTitle)
			results["long_title_tags"] = SlimRecords(table.Columns, matched, a.opts.MaxRows, DedupeColumn)
			results["long_title_count"] = len(matched)
		}
	}

	if strings.Contains(q, "indexable") && table.HasColumn("Indexability") {
		results["indexability_summary"] = groupCount(table.Rows, "Indexability")
	}

	if len(results) == 0 {
		summary := llm.SafeAsk(ctx, a.llm, prompts.BuildSEOColumnSummaryPrompt(table.Columns))
		return map[string]any{"summary": summary}
	}

	payload := map[string]any{"query": query, "results": results}
	jsonutil.Sanitize(payload)
	return payload
}

// loadTable reads the configured dataset, returning either the table or a
// structured error payload.
func (a *SEOAgent) loadTable(ctx context.Context, query string) (*sheets.Table, map[string]any) {
	source, err := a.newSource(ctx)
	if err != nil {
		return nil, a.sheetErrorPayload(query, err)
	}

	if a.opts.UseAllTabs {
		tabs, err := source.OpenAllSheets(ctx)
		if err != nil {
			return nil, a.sheetErrorPayload(query, err)
		}
		if len(tabs) == 0 {
			a.logger.Warn("SEO sheet has no tabs", zap.Error(apperrors.ErrNoReadableTabs))
			return nil, map[string]any{
				"query": query,
				"error": "No readable worksheets found in SEO sheet",
			}
		}

		merged := mergeTables(tabs)
		if len(merged.Rows) == 0 {
			a.logger.Warn("SEO sheet has no data", zap.Error(apperrors.ErrAllTabsEmpty))
			return nil, map[string]any{
				"query": query,
				"error": "All worksheets are empty",
			}
		}
		return merged, nil
	}

	table, err := source.OpenSheet(ctx)
	if err != nil {
		return nil, a.sheetErrorPayload(query, err)
	}
	return table, nil
}

func (a *SEOAgent) sheetErrorPayload(query string, err error) map[string]any {
	a.logger.Warn("SEO sheet read failed", zap.Error(err))

	if errors.Is(err, apperrors.ErrPermissionDenied) {
		return map[string]any{
			"query": query,
			"error": "Permission denied reading the SEO sheet",
			"next_steps": []string{
				"Share the sheet with the service account email from the credentials file (Viewer is enough).",
				"Or set SEO_SHEET_URL to a sheet the service account can access.",
			},
		}
	}

	return map[string]any{
		"query":   query,
		"error":   "Failed to read the SEO sheet",
		"details": err.Error(),
	}
}

// mergeTables concatenates non-empty tabs into one table, tagging each row
// with its source tab. Tabs are visited in sorted title order so output is
// deterministic.
func mergeTables(tabs map[string]*sheets.Table) *sheets.Table {
	titles := make([]string, 0, len(tabs))
	for title := range tabs {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	merged := &sheets.Table{}
	for _, title := range titles {
		tab := tabs[title]
		if tab == nil || len(tab.Rows) == 0 {
			continue
		}

		for _, col := range tab.Columns {
			if !merged.HasColumn(col) {
				merged.Columns = append(merged.Columns, col)
			}
		}

		for _, rec := range tab.Rows {
			tagged := make(sheets.Record, len(rec)+1)
			for k, v := range rec {
				tagged[k] = v
			}
			tagged[sheetTagColumn] = title
			merged.Rows = append(merged.Rows, tagged)
		}
	}

	if len(merged.Rows) > 0 && !merged.HasColumn(sheetTagColumn) {
		merged.Columns = append(merged.Columns, sheetTagColumn)
	}

	return merged
}

func filterRows(rows []sheets.Record, keep func(sheets.Record) bool) []sheets.Record {
	var out []sheets.Record
	for _, rec := range rows {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// isNonHTTPS reports rows whose Address does not start with https://.
// Missing addresses count as non-HTTPS.
func isNonHTTPS(rec sheets.Record) bool {
	return !strings.HasPrefix(cellString(rec["Address"]), "https://")
}

func hasLongTitle(rec sheets.Record) bool {
	return utf8.RuneCountInString(cellString(rec["Title 1"])) > longTitleThreshold
}

// groupCount counts rows per distinct value of the given column.
func groupCount(rows []sheets.Record, column string) map[string]int {
	counts := make(map[string]int)
	for _, rec := range rows {
		counts[cellString(rec[column])]++
	}
	return counts
}

func cellString(val any) string {
	if val == nil {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return fmt.Sprint(val)
}
