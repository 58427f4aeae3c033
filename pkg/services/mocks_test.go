package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/sitepulse-ai/sitepulse-engine/pkg/analytics"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/sheets"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// mockDataClient is a configurable analytics.DataClient for agent tests.
type mockDataClient struct {
	GetMetadataFunc func(ctx context.Context, propertyID string) (*analytics.FieldCatalog, error)
	RunReportFunc   func(ctx context.Context, propertyID string, req analytics.ReportRequest) (*analytics.ReportResult, error)

	// ReportCalls records every RunReport request for verification.
	ReportCalls []analytics.ReportRequest
}

func (m *mockDataClient) GetMetadata(ctx context.Context, propertyID string) (*analytics.FieldCatalog, error) {
	if m.GetMetadataFunc != nil {
		return m.GetMetadataFunc(ctx, propertyID)
	}
	return testCatalog(), nil
}

func (m *mockDataClient) RunReport(ctx context.Context, propertyID string, req analytics.ReportRequest) (*analytics.ReportResult, error) {
	m.ReportCalls = append(m.ReportCalls, req)
	if m.RunReportFunc != nil {
		return m.RunReportFunc(ctx, propertyID, req)
	}
	return &analytics.ReportResult{
		DimensionHeaders: req.Dimensions,
		MetricHeaders:    req.Metrics,
		Rows:             []map[string]string{{"date": "20260801", "sessions": "42"}},
	}, nil
}

func testCatalog() *analytics.FieldCatalog {
	return &analytics.FieldCatalog{
		Metrics: []string{
			"activeUsers", "averageSessionDuration", "engagedSessions",
			"newUsers", "screenPageViews", "sessions", "totalUsers",
		},
		Dimensions: []string{
			"channelGroup", "city", "country", "date", "deviceCategory",
			"medium", "pagePath", "pageTitle", "source",
		},
	}
}

// mockSource is a configurable sheets.Source for SEO agent tests.
type mockSource struct {
	Table *sheets.Table
	Tabs  map[string]*sheets.Table
	Err   error
}

func (m *mockSource) OpenSheet(ctx context.Context) (*sheets.Table, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Table, nil
}

func (m *mockSource) OpenAllSheets(ctx context.Context) (map[string]*sheets.Table, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Tabs, nil
}

func sourceFactory(src sheets.Source, err error) sheets.SourceFactory {
	return func(ctx context.Context) (sheets.Source, error) {
		if err != nil {
			return nil, err
		}
		return src, nil
	}
}

func clientFactory(client analytics.DataClient, err error) analytics.ClientFactory {
	return func(ctx context.Context) (analytics.DataClient, error) {
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

func crawlTable() *sheets.Table {
	return &sheets.Table{
		Columns: []string{"Address", "Title 1", "Indexability", "Status Code"},
		Rows: []sheets.Record{
			{"Address": "http://example.com/", "Title 1": "Home", "Indexability": "Indexable", "Status Code": 200.0},
			{"Address": "https://example.com/about", "Title 1": "About us at Example, the very best example company on the internet today", "Indexability": "Indexable", "Status Code": 200.0},
			{"Address": "https://example.com/contact", "Title 1": "Contact", "Indexability": "Non-Indexable", "Status Code": 301.0},
		},
	}
}
