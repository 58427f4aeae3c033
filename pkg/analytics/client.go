package analytics

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/sitepulse-ai/sitepulse-engine/pkg/apperrors"
)

// Client implements DataClient against the GA4 Data API v1beta.
type Client struct {
	svc    *analyticsdata.Service
	logger *zap.Logger
}

// NewClient constructs a GA4 Data API client from a service account key file.
func NewClient(ctx context.Context, credentialsPath string, logger *zap.Logger) (*Client, error) {
	svc, err := analyticsdata.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(analyticsdata.AnalyticsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrCredentials, err)
	}

	return &Client{svc: svc, logger: logger.Named("ga4")}, nil
}

// GetMetadata fetches the metric and dimension catalog for a property.
func (c *Client) GetMetadata(ctx context.Context, propertyID string) (*FieldCatalog, error) {
	name := fmt.Sprintf("properties/%s/metadata", propertyID)

	md, err := c.svc.Properties.GetMetadata(name).Context(ctx).Do()
	if err != nil {
		if IsPermissionDenied(err) {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMetadataFetch, err)
	}

	catalog := &FieldCatalog{}
	for _, m := range md.Metrics {
		catalog.Metrics = append(catalog.Metrics, m.ApiName)
	}
	for _, d := range md.Dimensions {
		catalog.Dimensions = append(catalog.Dimensions, d.ApiName)
	}

	c.logger.Debug("fetched property metadata",
		zap.String("property_id", propertyID),
		zap.Int("metrics", len(catalog.Metrics)),
		zap.Int("dimensions", len(catalog.Dimensions)))

	return catalog, nil
}

// RunReport executes one report fetch. When the request carries a catalog the
// fields are revalidated here, removals recorded in the result notes, and the
// call fails if either axis empties out.
func (c *Client) RunReport(ctx context.Context, propertyID string, req ReportRequest) (*ReportResult, error) {
	metrics := req.Metrics
	dimensions := req.Dimensions
	notes := make(map[string]any)

	if req.Catalog != nil {
		var vnotes map[string]any
		metrics, dimensions, vnotes = ValidateFields(metrics, dimensions, req.Catalog)
		for k, v := range vnotes {
			notes[k] = v
		}
	}

	if len(metrics) == 0 {
		return nil, apperrors.ErrNoValidMetrics
	}
	if len(dimensions) == 0 {
		return nil, apperrors.ErrNoValidDimensions
	}

	apiReq := &analyticsdata.RunReportRequest{
		DateRanges: []*analyticsdata.DateRange{
			{StartDate: req.StartDate, EndDate: req.EndDate},
		},
		Limit:           req.Limit,
		DimensionFilter: buildDimensionFilter(req.Filters),
	}
	for _, d := range dimensions {
		apiReq.Dimensions = append(apiReq.Dimensions, &analyticsdata.Dimension{Name: d})
	}
	for _, m := range metrics {
		apiReq.Metrics = append(apiReq.Metrics, &analyticsdata.Metric{Name: m})
	}

	if req.OrderByMetric != "" {
		if contains(metrics, req.OrderByMetric) {
			apiReq.OrderBys = []*analyticsdata.OrderBy{
				{
					Metric: &analyticsdata.MetricOrderBy{MetricName: req.OrderByMetric},
					Desc:   true,
				},
			}
		} else {
			ignored, _ := notes["orderByIgnored"].([]string)
			notes["orderByIgnored"] = append(ignored, req.OrderByMetric)
		}
	}

	resp, err := c.svc.Properties.RunReport("properties/"+propertyID, apiReq).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf(
			"run report failed for property %s (metrics=%v, dimensions=%v, dateRange=(%s,%s), filters=%v): %w",
			propertyID, metrics, dimensions, req.StartDate, req.EndDate, req.Filters, err)
	}

	result := &ReportResult{
		DimensionHeaders: dimensions,
		MetricHeaders:    metrics,
		Rows:             make([]map[string]string, 0, len(resp.Rows)),
	}

	for _, row := range resp.Rows {
		rowMap := make(map[string]string, len(dimensions)+len(metrics))
		for i, d := range dimensions {
			if i < len(row.DimensionValues) {
				rowMap[d] = row.DimensionValues[i].Value
			}
		}
		for j, m := range metrics {
			if j < len(row.MetricValues) {
				rowMap[m] = row.MetricValues[j].Value
			}
		}
		result.Rows = append(result.Rows, rowMap)
	}

	if len(result.Rows) == 0 {
		notes["emptyResult"] = true
	}
	for k, v := range notes {
		result.AddNote(k, v)
	}

	return result, nil
}

// buildDimensionFilter converts filters into a GA4 FilterExpression.
// Multiple filters are AND-ed; a single filter is passed through directly.
func buildDimensionFilter(filters []DimensionFilter) *analyticsdata.FilterExpression {
	var exprs []*analyticsdata.FilterExpression
	for _, f := range filters {
		if f.Field == "" || f.Value == "" {
			continue
		}

		matchType := "EXACT"
		if f.Match == MatchContains {
			matchType = "CONTAINS"
		}

		exprs = append(exprs, &analyticsdata.FilterExpression{
			Filter: &analyticsdata.Filter{
				FieldName: f.Field,
				StringFilter: &analyticsdata.StringFilter{
					MatchType:     matchType,
					Value:         f.Value,
					CaseSensitive: false,
				},
			},
		})
	}

	if len(exprs) == 0 {
		return nil
	}
	if len(exprs) == 1 {
		return exprs[0]
	}
	return &analyticsdata.FilterExpression{
		AndGroup: &analyticsdata.FilterExpressionList{Expressions: exprs},
	}
}

// IsPermissionDenied reports whether err is a 403-class API error.
func IsPermissionDenied(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 403
	}
	return errors.Is(err, apperrors.ErrPermissionDenied)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Ensure Client implements DataClient at compile time.
var _ DataClient = (*Client)(nil)
