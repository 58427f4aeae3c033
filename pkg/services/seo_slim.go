package services

import (
	"math"

	"github.com/sitepulse-ai/sitepulse-engine/pkg/sheets"
)

// DefaultSlimLimit bounds how many slimmed records a response carries.
const DefaultSlimLimit = 20

// DedupeColumn is the default dedupe key for crawl records.
const DedupeColumn = "Address"

// priorityColumns is the allow-list kept in slimmed crawl records, in
// projection order.
var priorityColumns = []string{
	"Address", "Title 1", "Title 1 Length", "Meta Description 1",
	"Status Code", "Status", "Indexability", "Crawl Depth",
	"Word Count", "H1-1", "Inlinks", "Outlinks", "__sheet",
}

// fallbackFieldCount is how many non-null fields are kept when a record has
// no priority columns at all.
const fallbackFieldCount = 5

// SlimRecords post-processes crawl rows into a bounded, deduplicated,
// null-stripped projection. Records are visited in input order; the first
// occurrence of each dedupe-key value wins; dedupe skips do not count toward
// the limit. A record left empty by the allow-list projection falls back to
// its first fallbackFieldCount non-null fields (in column order).
func SlimRecords(columns []string, rows []sheets.Record, limit int, dedupeKey string) []sheets.Record {
	if limit <= 0 {
		limit = DefaultSlimLimit
	}
	if dedupeKey == "" {
		dedupeKey = DedupeColumn
	}

	seen := make(map[string]bool)
	slim := make([]sheets.Record, 0, limit)

	for _, rec := range rows {
		if key := stringValue(rec[dedupeKey]); key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}

		filtered := make(sheets.Record)
		for _, col := range priorityColumns {
			if val, ok := rec[col]; ok && !isNullish(val) {
				filtered[col] = val
			}
		}

		if len(filtered) == 0 {
			for _, col := range columns {
				if len(filtered) >= fallbackFieldCount {
					break
				}
				if val, ok := rec[col]; ok && val != nil && val != "" {
					filtered[col] = val
				}
			}
		}

		if len(filtered) > 0 {
			slim = append(slim, filtered)
		}
		if len(slim) >= limit {
			break
		}
	}

	return slim
}

// isNullish reports values stripped from slimmed records: nil, empty string,
// the literal string "null", and NaN/Infinity numbers.
func isNullish(val any) bool {
	switch v := val.(type) {
	case nil:
		return true
	case string:
		return v == "" || v == "null"
	case float64:
		return math.IsNaN(v) || math.IsInf(v, 0)
	case float32:
		f := float64(v)
		return math.IsNaN(f) || math.IsInf(f, 0)
	}
	return false
}

func stringValue(val any) string {
	s, _ := val.(string)
	return s
}
