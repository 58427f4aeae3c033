package apperrors

import "errors"

var (
	ErrPropertyRequired  = errors.New("propertyId required for GA4 queries")
	ErrCredentials       = errors.New("failed to load analytics credentials")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrMetadataFetch     = errors.New("failed to fetch property metadata")
	ErrNoValidMetrics    = errors.New("no valid metrics selected")
	ErrNoValidDimensions = errors.New("no valid dimensions selected")
	ErrReportFetch       = errors.New("report fetch failed")
	ErrSheetRead         = errors.New("failed to read SEO sheet")
	ErrNoReadableTabs    = errors.New("no readable worksheets found")
	ErrAllTabsEmpty      = errors.New("all worksheets are empty")
)
