// Package sheets provides the spreadsheet collaborator for the SEO crawl
// dataset: Google Sheets by URL, or a local Screaming Frog XLSX export.
package sheets

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Record is one tabular row keyed by column name. Values are strings or
// numbers depending on the backing source.
type Record = map[string]any

// Table is an ordered tabular result: column order is preserved from the
// sheet header so downstream projections stay deterministic.
type Table struct {
	Columns []string
	Rows    []Record
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Source is the spreadsheet collaborator contract.
type Source interface {
	// OpenSheet reads a single worksheet, selected by configured title, then
	// gid, then falling back to the first worksheet.
	OpenSheet(ctx context.Context) (*Table, error)

	// OpenAllSheets reads every worksheet, keyed by tab title. Tabs that
	// cannot be read are skipped.
	OpenAllSheets(ctx context.Context) (map[string]*Table, error)
}

// SourceFactory constructs a Source. Called per request so credentials and
// sheet data are always loaded fresh.
type SourceFactory func(ctx context.Context) (Source, error)

// Options selects the sheet and worksheet to read.
type Options struct {
	// Location is a Google Sheets URL or a local .xlsx path.
	Location        string
	GID             string
	WorksheetTitle  string
	CredentialsPath string
}

// NewSource picks the implementation from the location: local .xlsx exports
// are read directly, anything else is treated as a Google Sheets URL.
func NewSource(ctx context.Context, opts Options, logger *zap.Logger) (Source, error) {
	if strings.HasSuffix(strings.ToLower(opts.Location), ".xlsx") {
		return NewXLSXSource(opts, logger), nil
	}
	return NewGoogleSheetSource(ctx, opts, logger)
}

// tableFromRows converts a header row plus data rows into a Table. Columns
// with empty header cells are dropped; short rows are padded by omission.
func tableFromRows(header []string, rows [][]any) *Table {
	table := &Table{}
	for _, h := range header {
		if strings.TrimSpace(h) != "" {
			table.Columns = append(table.Columns, h)
		}
	}

	for _, row := range rows {
		rec := make(Record, len(table.Columns))
		col := 0
		for i, h := range header {
			if strings.TrimSpace(h) == "" {
				continue
			}
			if i < len(row) {
				rec[table.Columns[col]] = row[i]
			}
			col++
		}
		table.Rows = append(table.Rows, rec)
	}

	return table
}
