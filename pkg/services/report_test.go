package services

import (
	"context"
	"errors"
	"testing"

	"github.com/sitepulse-ai/sitepulse-engine/pkg/analytics"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/apperrors"
)

func TestCoerceDateRange(t *testing.T) {
	tests := []struct {
		query     string
		wantStart string
		wantEnd   string
	}{
		{query: "sessions today", wantStart: "today", wantEnd: "today"},
		{query: "what happened yesterday", wantStart: "yesterday", wantEnd: "yesterday"},
		{query: "pageviews for the last 7 days", wantStart: "7daysAgo", wantEnd: "today"},
		{query: "traffic last week", wantStart: "7daysAgo", wantEnd: "today"},
		{query: "users in the past 14 days", wantStart: "14daysAgo", wantEnd: "today"},
		{query: "sessions over two weeks", wantStart: "14daysAgo", wantEnd: "today"},
		{query: "last month overview", wantStart: "30daysAgo", wantEnd: "today"},
		{query: "trend over 90 days", wantStart: "90daysAgo", wantEnd: "today"},
		{query: "how are sessions", wantStart: "14daysAgo", wantEnd: "today"},
	}

	for _, tt := range tests {
		start, end := CoerceDateRange(tt.query)
		if start != tt.wantStart || end != tt.wantEnd {
			t.Errorf("CoerceDateRange(%q) = (%s, %s), want (%s, %s)",
				tt.query, start, end, tt.wantStart, tt.wantEnd)
		}
	}
}

func TestWantsComparison(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{query: "compare users this month vs last month", want: true},
		{query: "sessions versus previous period", want: true},
		{query: "period over period engagement", want: true},
		{query: "show pageviews by day", want: false},
	}

	for _, tt := range tests {
		if got := WantsComparison(tt.query); got != tt.want {
			t.Errorf("WantsComparison(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func basicPlan() *QueryPlan {
	return &QueryPlan{
		Selection: FieldSelection{Metrics: []string{"sessions"}, Dimensions: []string{"date"}},
		Limit:     defaultReportLimit,
	}
}

func TestRun_ComparisonFetchesBothPeriods(t *testing.T) {
	client := &mockDataClient{}
	o := NewReportOrchestrator(client, testLogger())

	envelope, err := o.Run(context.Background(), "123", "compare sessions over the last 30 days vs previous", basicPlan(), testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if envelope.Comparison == nil {
		t.Fatal("expected a comparison envelope")
	}
	if len(client.ReportCalls) != 2 {
		t.Fatalf("expected 2 fetches, got %d", len(client.ReportCalls))
	}

	cur, prev := client.ReportCalls[0], client.ReportCalls[1]
	if cur.StartDate != "30daysAgo" || cur.EndDate != "today" {
		t.Errorf("unexpected current range: %s..%s", cur.StartDate, cur.EndDate)
	}
	if prev.StartDate != "60daysAgo" || prev.EndDate != "31daysAgo" {
		t.Errorf("unexpected previous range: %s..%s", prev.StartDate, prev.EndDate)
	}
}

func TestRun_ComparisonKeepsCoercedRangeWithoutThirty(t *testing.T) {
	client := &mockDataClient{}
	o := NewReportOrchestrator(client, testLogger())

	_, err := o.Run(context.Background(), "123", "compare sessions for the last 7 days", basicPlan(), testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.ReportCalls[0].StartDate != "7daysAgo" {
		t.Errorf("expected coerced current range, got %s", client.ReportCalls[0].StartDate)
	}
}

func TestRun_ComparisonPartialFailureAborts(t *testing.T) {
	calls := 0
	client := &mockDataClient{
		RunReportFunc: func(ctx context.Context, propertyID string, req analytics.ReportRequest) (*analytics.ReportResult, error) {
			calls++
			if calls == 2 {
				return nil, errors.New("quota exceeded")
			}
			return &analytics.ReportResult{Rows: []map[string]string{{"sessions": "1"}}}, nil
		},
	}
	o := NewReportOrchestrator(client, testLogger())

	_, err := o.Run(context.Background(), "123", "compare sessions vs previous period", basicPlan(), testCatalog())
	if !errors.Is(err, apperrors.ErrReportFetch) {
		t.Errorf("expected ErrReportFetch on partial failure, got %v", err)
	}
}

func TestRun_CascadeStopsAtFirstNonEmpty(t *testing.T) {
	calls := 0
	client := &mockDataClient{
		RunReportFunc: func(ctx context.Context, propertyID string, req analytics.ReportRequest) (*analytics.ReportResult, error) {
			calls++
			if calls == 1 {
				return &analytics.ReportResult{}, nil
			}
			return &analytics.ReportResult{Rows: []map[string]string{{"sessions": "9"}}}, nil
		},
	}
	o := NewReportOrchestrator(client, testLogger())

	envelope, err := o.Run(context.Background(), "123", "sessions for the last 7 days", basicPlan(), testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected cascade to stop after the second range, got %d calls", calls)
	}
	if len(envelope.Single.Rows) != 1 {
		t.Errorf("expected the non-empty result, got %v", envelope.Single)
	}
}

func TestRun_CascadeKeepsLastEmptyResult(t *testing.T) {
	client := &mockDataClient{
		RunReportFunc: func(ctx context.Context, propertyID string, req analytics.ReportRequest) (*analytics.ReportResult, error) {
			return &analytics.ReportResult{Notes: map[string]any{"emptyResult": true}}, nil
		},
	}
	o := NewReportOrchestrator(client, testLogger())

	envelope, err := o.Run(context.Background(), "123", "sessions today", basicPlan(), testCatalog())
	if err != nil {
		t.Fatalf("an empty report is still a result: %v", err)
	}
	if len(client.ReportCalls) != 3 {
		t.Errorf("expected all 3 cascade ranges tried, got %d", len(client.ReportCalls))
	}
	if envelope.Single == nil || len(envelope.Single.Rows) != 0 {
		t.Errorf("expected the last empty result, got %v", envelope.Single)
	}
}

func TestRun_CascadeErrorsDoNotAbort(t *testing.T) {
	calls := 0
	client := &mockDataClient{
		RunReportFunc: func(ctx context.Context, propertyID string, req analytics.ReportRequest) (*analytics.ReportResult, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("backend unavailable")
			}
			return &analytics.ReportResult{Rows: []map[string]string{{"sessions": "5"}}}, nil
		},
	}
	o := NewReportOrchestrator(client, testLogger())

	envelope, err := o.Run(context.Background(), "123", "sessions today", basicPlan(), testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if envelope.Single == nil || len(envelope.Single.Rows) != 1 {
		t.Errorf("expected recovery on the widest range, got %v", envelope.Single)
	}
}

func TestRun_CascadeAllFailuresReturnsError(t *testing.T) {
	client := &mockDataClient{
		RunReportFunc: func(ctx context.Context, propertyID string, req analytics.ReportRequest) (*analytics.ReportResult, error) {
			return nil, errors.New("backend unavailable")
		},
	}
	o := NewReportOrchestrator(client, testLogger())

	_, err := o.Run(context.Background(), "123", "sessions today", basicPlan(), testCatalog())
	if !errors.Is(err, apperrors.ErrReportFetch) {
		t.Errorf("expected ErrReportFetch, got %v", err)
	}
}

func TestRun_TopQuerySetsOrdering(t *testing.T) {
	client := &mockDataClient{}
	o := NewReportOrchestrator(client, testLogger())

	plan := &QueryPlan{
		Selection:     FieldSelection{Metrics: []string{"screenPageViews"}, Dimensions: []string{"pagePath"}},
		Limit:         3,
		OrderByMetric: "screenPageViews",
		TopQuery:      true,
	}

	if _, err := o.Run(context.Background(), "123", "top 3 pages by views today", plan, testCatalog()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := client.ReportCalls[0]
	if req.OrderByMetric != "screenPageViews" {
		t.Errorf("expected ordering metric, got %q", req.OrderByMetric)
	}
	if req.Limit != 3 {
		t.Errorf("expected top-N limit, got %d", req.Limit)
	}
}

func TestRun_NonTopQueryHasNoOrdering(t *testing.T) {
	client := &mockDataClient{}
	o := NewReportOrchestrator(client, testLogger())

	if _, err := o.Run(context.Background(), "123", "sessions today", basicPlan(), testCatalog()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.ReportCalls[0].OrderByMetric != "" {
		t.Errorf("expected no ordering, got %q", client.ReportCalls[0].OrderByMetric)
	}
}
