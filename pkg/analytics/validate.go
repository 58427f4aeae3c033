package analytics

// ValidateFields intersects requested metrics and dimensions with the
// catalog, preserving request order. Removed names are reported in notes
// under invalidMetrics / invalidDimensions.
func ValidateFields(metrics, dimensions []string, catalog *FieldCatalog) (validMetrics, validDimensions []string, notes map[string]any) {
	notes = make(map[string]any)

	var invalidMetrics []string
	for _, m := range metrics {
		if catalog.HasMetric(m) {
			validMetrics = append(validMetrics, m)
		} else {
			invalidMetrics = append(invalidMetrics, m)
		}
	}

	var invalidDimensions []string
	for _, d := range dimensions {
		if catalog.HasDimension(d) {
			validDimensions = append(validDimensions, d)
		} else {
			invalidDimensions = append(invalidDimensions, d)
		}
	}

	if len(invalidMetrics) > 0 {
		notes["invalidMetrics"] = invalidMetrics
	}
	if len(invalidDimensions) > 0 {
		notes["invalidDimensions"] = invalidDimensions
	}

	return validMetrics, validDimensions, notes
}
