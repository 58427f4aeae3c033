package sheets

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sitepulse-ai/sitepulse-engine/pkg/apperrors"
)

// XLSXSource reads a local crawl export (e.g. a Screaming Frog .xlsx file).
// Worksheet selection mirrors the Google Sheets source: title, then gid
// interpreted as a sheet index, then the first sheet.
type XLSXSource struct {
	path   string
	gid    string
	title  string
	logger *zap.Logger
}

// NewXLSXSource constructs a local XLSX source.
func NewXLSXSource(opts Options, logger *zap.Logger) *XLSXSource {
	return &XLSXSource{
		path:   opts.Location,
		gid:    opts.GID,
		title:  opts.WorksheetTitle,
		logger: logger.Named("xlsx"),
	}
}

// OpenSheet reads a single worksheet from the file.
func (s *XLSXSource) OpenSheet(ctx context.Context) (*Table, error) {
	f, err := xlsx.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", apperrors.ErrSheetRead, s.path, err)
	}
	if len(f.Sheets) == 0 {
		return nil, apperrors.ErrNoReadableTabs
	}

	return sheetToTable(s.pickSheet(f)), nil
}

// OpenAllSheets reads every worksheet in the file, keyed by sheet name.
func (s *XLSXSource) OpenAllSheets(ctx context.Context) (map[string]*Table, error) {
	f, err := xlsx.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", apperrors.ErrSheetRead, s.path, err)
	}

	out := make(map[string]*Table, len(f.Sheets))
	for _, sheet := range f.Sheets {
		out[sheet.Name] = sheetToTable(sheet)
	}
	return out, nil
}

func (s *XLSXSource) pickSheet(f *xlsx.File) *xlsx.Sheet {
	if s.title != "" {
		if sheet, ok := f.Sheet[s.title]; ok {
			return sheet
		}
	}
	if idx, err := strconv.Atoi(s.gid); err == nil && idx >= 0 && idx < len(f.Sheets) {
		return f.Sheets[idx]
	}
	return f.Sheets[0]
}

func sheetToTable(sheet *xlsx.Sheet) *Table {
	if len(sheet.Rows) == 0 {
		return &Table{}
	}

	header := make([]string, len(sheet.Rows[0].Cells))
	for i, cell := range sheet.Rows[0].Cells {
		header[i] = cell.String()
	}

	rows := make([][]any, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		cells := make([]any, len(row.Cells))
		for j, cell := range row.Cells {
			if f, err := cell.Float(); err == nil && cell.Type() == xlsx.CellTypeNumeric {
				cells[j] = f
			} else {
				cells[j] = cell.String()
			}
		}
		rows = append(rows, cells)
	}

	return tableFromRows(header, rows)
}

// Ensure XLSXSource implements Source at compile time.
var _ Source = (*XLSXSource)(nil)
