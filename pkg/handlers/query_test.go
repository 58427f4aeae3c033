package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sitepulse-ai/sitepulse-engine/pkg/analytics"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/llm"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/services"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/sheets"
)

type stubDataClient struct{}

func (stubDataClient) GetMetadata(ctx context.Context, propertyID string) (*analytics.FieldCatalog, error) {
	return &analytics.FieldCatalog{
		Metrics:    []string{"screenPageViews", "sessions", "totalUsers"},
		Dimensions: []string{"date", "pagePath"},
	}, nil
}

func (stubDataClient) RunReport(ctx context.Context, propertyID string, req analytics.ReportRequest) (*analytics.ReportResult, error) {
	return &analytics.ReportResult{
		DimensionHeaders: req.Dimensions,
		MetricHeaders:    req.Metrics,
		Rows:             []map[string]string{{"date": "20260801", "sessions": "42"}},
	}, nil
}

type stubSource struct{}

func (stubSource) OpenSheet(ctx context.Context) (*sheets.Table, error) {
	return &sheets.Table{
		Columns: []string{"Address", "Title 1"},
		Rows: []sheets.Record{
			{"Address": "http://example.com/", "Title 1": "Home"},
		},
	}, nil
}

func (stubSource) OpenAllSheets(ctx context.Context) (map[string]*sheets.Table, error) {
	t, _ := stubSource{}.OpenSheet(ctx)
	return map[string]*sheets.Table{"Internal": t}, nil
}

func newTestQueryHandler(t *testing.T, mock *llm.MockLLMClient) *QueryHandler {
	t.Helper()
	logger := zap.NewNop()

	analyticsAgent := services.NewAnalyticsAgent(
		func(ctx context.Context) (analytics.DataClient, error) { return stubDataClient{}, nil },
		mock, logger)
	seoAgent := services.NewSEOAgent(
		func(ctx context.Context) (sheets.Source, error) { return stubSource{}, nil },
		mock, services.SEOAgentOptions{}, logger)

	return NewQueryHandler(analyticsAgent, seoAgent, mock, logger)
}

func postQuery(t *testing.T, h *QueryHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.Query(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestQuery_MethodNotAllowed(t *testing.T) {
	h := newTestQueryHandler(t, llm.NewMockLLMClient())

	req := httptest.NewRequest(http.MethodGet, "/query", nil)
	rec := httptest.NewRecorder()
	h.Query(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestQuery_InvalidJSON(t *testing.T) {
	h := newTestQueryHandler(t, llm.NewMockLLMClient())
	rec := postQuery(t, h, "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery_EmptyQuery(t *testing.T) {
	h := newTestQueryHandler(t, llm.NewMockLLMClient())
	rec := postQuery(t, h, `{"query": "   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery_AnalyticsRequiresPropertyID(t *testing.T) {
	h := newTestQueryHandler(t, llm.NewMockLLMClient())
	rec := postQuery(t, h, `{"query": "show pageviews by day for last 7 days"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "propertyId required for GA4 queries", payload["message"])
}

func TestQuery_AnalyticsRoute(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.AskFunc = func(ctx context.Context, prompt string) (string, error) {
		return "Traffic looks healthy.", nil
	}
	h := newTestQueryHandler(t, mock)

	rec := postQuery(t, h, `{"propertyId": "123456", "query": "show pageviews by day for last 7 days"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "show pageviews by day for last 7 days", payload["query"])
	assert.Equal(t, "Traffic looks healthy.", payload["summary"])
	assert.NotNil(t, payload["report"])
}

func TestQuery_SEORoute(t *testing.T) {
	h := newTestQueryHandler(t, llm.NewMockLLMClient())

	rec := postQuery(t, h, `{"query": "which urls are not https"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	results, ok := payload["results"].(map[string]any)
	require.True(t, ok, "expected SEO results, got %v", payload)
	assert.Equal(t, float64(1), results["non_https_count"])
}

func TestQuery_MultiRoute(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.AskFunc = func(ctx context.Context, prompt string) (string, error) {
		return "fused answer", nil
	}
	h := newTestQueryHandler(t, mock)

	rec := postQuery(t, h, `{"propertyId": "123456", "query": "top pages and their corresponding title tags"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.NotNil(t, payload["ga4"])
	assert.NotNil(t, payload["seo"])
	assert.NotNil(t, payload["fusion"])

	ga, ok := payload["ga4"].(map[string]any)
	require.True(t, ok)
	_, hasEcho := ga["query"]
	assert.False(t, hasEcho, "structured GA4 payload should not echo the query")
}

func TestQuery_UnknownIntentFallsBack(t *testing.T) {
	h := newTestQueryHandler(t, llm.NewMockLLMClient())

	t.Run("with property id goes to analytics", func(t *testing.T) {
		rec := postQuery(t, h, `{"propertyId": "123456", "query": "hello there"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		payload := decodeBody(t, rec)
		assert.NotNil(t, payload["report"])
	})

	t.Run("without property id goes to seo", func(t *testing.T) {
		rec := postQuery(t, h, `{"query": "hello there"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		payload := decodeBody(t, rec)
		_, hasReport := payload["report"]
		assert.False(t, hasReport)
	})
}
