package provider

import (
	"context"
	"fmt"
	"strings"

	"draft_worker/core/port/out"
	"draft_worker/pkg/resilience"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsAdapter implements out.Spreadsheet for one tab of a Google spreadsheet.
type SheetsAdapter struct {
	svc           *sheets.Service
	spreadsheetID string
	tab           string
	cb            *resilience.Breaker
}

var _ out.Spreadsheet = (*SheetsAdapter)(nil)

// NewSheetsAdapter creates a Sheets adapter for tab of spreadsheetID.
func NewSheetsAdapter(ctx context.Context, ts oauth2.TokenSource, spreadsheetID, tab string, opts ...option.ClientOption) (*SheetsAdapter, error) {
	svc, err := sheets.NewService(ctx, ClientOptions(ts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsAdapter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		tab:           tab,
		cb:            resilience.NewBreaker("sheets-api"),
	}, nil
}

// HeaderRow returns the trimmed cells of the first row.
func (a *SheetsAdapter) HeaderRow(ctx context.Context) ([]string, error) {
	var vr *sheets.ValueRange
	err := a.cb.Execute("GetHeaders", func() error {
		var apiErr error
		vr, apiErr = a.svc.Spreadsheets.Values.Get(a.spreadsheetID, a.rangeOf("1:1")).Context(ctx).Do()
		return apiErr
	})
	if err != nil {
		return nil, wrapError("sheets", err, "failed to read header row")
	}
	if len(vr.Values) == 0 {
		return nil, nil
	}
	headers := make([]string, len(vr.Values[0]))
	for i, v := range vr.Values[0] {
		headers[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return headers, nil
}

// WriteHeaders writes headers into row 1 starting at the zero-based column.
func (a *SheetsAdapter) WriteHeaders(ctx context.Context, column int, headers []string) error {
	if len(headers) == 0 {
		return nil
	}
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	target := a.rangeOf(fmt.Sprintf("%s1", ColumnLetter(column)))
	err := a.cb.Execute("WriteHeaders", func() error {
		_, apiErr := a.svc.Spreadsheets.Values.Update(a.spreadsheetID, target, &sheets.ValueRange{
			Values: [][]any{row},
		}).ValueInputOption("RAW").Context(ctx).Do()
		return apiErr
	})
	return wrapError("sheets", err, "failed to write headers")
}

// AppendRow appends row below the last non-empty row. Formulas are evaluated.
func (a *SheetsAdapter) AppendRow(ctx context.Context, row []any) error {
	err := a.cb.Execute("AppendRow", func() error {
		_, apiErr := a.svc.Spreadsheets.Values.Append(a.spreadsheetID, a.rangeOf("A1"), &sheets.ValueRange{
			Values: [][]any{row},
		}).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		return apiErr
	})
	return wrapError("sheets", err, "failed to append row")
}

func (a *SheetsAdapter) rangeOf(cells string) string {
	return QuoteTab(a.tab) + "!" + cells
}

// QuoteTab renders a tab name for A1 notation.
func QuoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// ColumnLetter converts a zero-based column index to its A1 letters (0 → A, 26 → AA).
func ColumnLetter(column int) string {
	var letters []byte
	for n := column + 1; n > 0; n = (n - 1) / 26 {
		letters = append([]byte{byte('A' + (n-1)%26)}, letters...)
	}
	return string(letters)
}
