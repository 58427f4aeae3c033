package sheets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/sitepulse-ai/sitepulse-engine/pkg/apperrors"
)

// spreadsheetIDPattern extracts the spreadsheet ID from a docs.google.com URL.
var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// GoogleSheetSource reads worksheets through the Sheets API using a service
// account with read-only scope.
type GoogleSheetSource struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	gid           string
	title         string
	logger        *zap.Logger
}

// NewGoogleSheetSource constructs a Sheets API source for the given URL.
func NewGoogleSheetSource(ctx context.Context, opts Options, logger *zap.Logger) (*GoogleSheetSource, error) {
	id, err := SpreadsheetIDFromURL(opts.Location)
	if err != nil {
		return nil, err
	}

	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(opts.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrCredentials, err)
	}

	return &GoogleSheetSource{
		svc:           svc,
		spreadsheetID: id,
		gid:           opts.GID,
		title:         opts.WorksheetTitle,
		logger:        logger.Named("sheets"),
	}, nil
}

// SpreadsheetIDFromURL extracts the spreadsheet ID from a sheet URL.
func SpreadsheetIDFromURL(url string) (string, error) {
	m := spreadsheetIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", fmt.Errorf("not a Google Sheets URL: %q", url)
	}
	return m[1], nil
}

// OpenSheet reads one worksheet: preferred title first, then gid, then the
// first worksheet in the spreadsheet.
func (s *GoogleSheetSource) OpenSheet(ctx context.Context) (*Table, error) {
	meta, err := s.spreadsheet(ctx)
	if err != nil {
		return nil, err
	}
	if len(meta.Sheets) == 0 {
		return nil, apperrors.ErrNoReadableTabs
	}

	target := s.pickWorksheet(meta)
	return s.readWorksheet(ctx, target)
}

// OpenAllSheets reads every worksheet, skipping tabs that fail to read.
func (s *GoogleSheetSource) OpenAllSheets(ctx context.Context) (map[string]*Table, error) {
	meta, err := s.spreadsheet(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*Table)
	for _, ws := range meta.Sheets {
		title := ws.Properties.Title
		table, err := s.readWorksheet(ctx, title)
		if err != nil {
			s.logger.Warn("skipping unreadable worksheet",
				zap.String("worksheet", title),
				zap.Error(err))
			continue
		}
		out[title] = table
	}

	return out, nil
}

func (s *GoogleSheetSource) spreadsheet(ctx context.Context) (*sheetsapi.Spreadsheet, error) {
	meta, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		if isPermissionDenied(err) {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSheetRead, err)
	}
	return meta, nil
}

// pickWorksheet resolves the worksheet title to read: configured title if it
// exists, else configured gid if it matches, else the first worksheet.
func (s *GoogleSheetSource) pickWorksheet(meta *sheetsapi.Spreadsheet) string {
	if s.title != "" {
		for _, ws := range meta.Sheets {
			if ws.Properties.Title == s.title {
				return s.title
			}
		}
	}

	if gid, err := strconv.ParseInt(s.gid, 10, 64); err == nil {
		for _, ws := range meta.Sheets {
			if ws.Properties.SheetId == gid {
				return ws.Properties.Title
			}
		}
	}

	return meta.Sheets[0].Properties.Title
}

func (s *GoogleSheetSource) readWorksheet(ctx context.Context, title string) (*Table, error) {
	vr, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, fmt.Sprintf("'%s'", title)).Context(ctx).Do()
	if err != nil {
		if isPermissionDenied(err) {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("%w: worksheet %q: %v", apperrors.ErrSheetRead, title, err)
	}

	if len(vr.Values) == 0 {
		return &Table{}, nil
	}

	header := make([]string, len(vr.Values[0]))
	for i, cell := range vr.Values[0] {
		header[i] = fmt.Sprint(cell)
	}

	return tableFromRows(header, vr.Values[1:]), nil
}

func isPermissionDenied(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 403
	}
	return false
}

// Ensure GoogleSheetSource implements Source at compile time.
var _ Source = (*GoogleSheetSource)(nil)
