// Package analytics provides the GA4 Data API reporting collaborator:
// field catalog metadata, report execution, and per-call field validation.
package analytics

import "context"

// FieldCatalog lists the metric and dimension API names available for a
// property. Fetched once per request and immutable within it.
type FieldCatalog struct {
	Metrics    []string
	Dimensions []string
}

// HasMetric reports whether the catalog contains the given metric.
func (c *FieldCatalog) HasMetric(name string) bool {
	for _, m := range c.Metrics {
		if m == name {
			return true
		}
	}
	return false
}

// HasDimension reports whether the catalog contains the given dimension.
func (c *FieldCatalog) HasDimension(name string) bool {
	for _, d := range c.Dimensions {
		if d == name {
			return true
		}
	}
	return false
}

// MatchType is the string match operator for a dimension filter.
type MatchType string

const (
	MatchExact    MatchType = "EXACT"
	MatchContains MatchType = "CONTAINS"
)

// DimensionFilter filters report rows on a dimension value. Multiple filters
// are AND-ed together.
type DimensionFilter struct {
	Field string    `json:"field"`
	Match MatchType `json:"op"`
	Value string    `json:"value"`
}

// ReportRequest describes one report fetch.
type ReportRequest struct {
	Metrics    []string
	Dimensions []string
	StartDate  string // GA4 relative dates: "today", "7daysAgo", ...
	EndDate    string
	Limit      int64
	// OrderByMetric orders rows descending by the named metric when set.
	OrderByMetric string
	Filters       []DimensionFilter
	// Catalog, when set, causes the client to revalidate fields against it
	// inside the fetch call, recording removals in the result notes.
	Catalog *FieldCatalog
}

// ReportResult is the flattened report: header lists plus ordered row maps
// from field name to string value. Notes carry validation and emptiness
// annotations (invalidMetrics, invalidDimensions, orderByIgnored, emptyResult).
type ReportResult struct {
	DimensionHeaders []string            `json:"dimensionHeaders"`
	MetricHeaders    []string            `json:"metricHeaders"`
	Rows             []map[string]string `json:"rows"`
	Notes            map[string]any      `json:"notes,omitempty"`
}

// AddNote records a note, allocating the map on first use.
func (r *ReportResult) AddNote(key string, value any) {
	if r.Notes == nil {
		r.Notes = make(map[string]any)
	}
	r.Notes[key] = value
}

// DataClient is the reporting collaborator contract.
type DataClient interface {
	// GetMetadata fetches the field catalog for a property.
	GetMetadata(ctx context.Context, propertyID string) (*FieldCatalog, error)

	// RunReport executes one report fetch.
	RunReport(ctx context.Context, propertyID string, req ReportRequest) (*ReportResult, error)
}

// ClientFactory constructs a DataClient. Credentials are loaded per request,
// so construction failure maps to a credential error at the point of use.
type ClientFactory func(ctx context.Context) (DataClient, error)
