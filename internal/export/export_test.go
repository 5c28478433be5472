package export

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/mtlprog/truegold/internal/domain"
	"github.com/mtlprog/truegold/internal/fx"
	"github.com/mtlprog/truegold/internal/pricing"
)

func sampleBoard() pricing.Board {
	return pricing.Board{
		Currency:    domain.THB,
		Unit:        domain.Gram,
		RateSource:  fx.SourceCache,
		GeneratedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Rows: []pricing.BoardRow{
			{Kind: domain.GoldSpot, Title: "Gold Spot", Currency: domain.THB, PerGram: 2700.126, PerUnit: 2700.126, Source: domain.SourceLive, Available: true},
			{Kind: domain.SilverSpot, Title: "Silver Spot", Currency: domain.THB, PerGram: 33.754, PerUnit: 33.754, Source: domain.SourceFallback, Available: true},
			{Kind: domain.PalladiumSpot, Title: "Palladium Spot", Currency: domain.THB, Error: "upstream down"},
		},
	}
}

func TestBuildBoardRows(t *testing.T) {
	rows := buildBoardRows(sampleBoard())

	require.Len(t, rows, 6)
	assert.Equal(t, boardHeader, rows[0])
	assert.Equal(t, []any{"gold-spot", "Gold Spot", "THB", 2700.13, 2700.13, "live", true, ""}, rows[1])
	assert.Equal(t, "fallback", rows[2][5])

	// Unavailable prices render as empty cells.
	assert.Nil(t, rows[3][3])
	assert.Nil(t, rows[3][4])
	assert.Equal(t, "upstream down", rows[3][7])

	assert.Empty(t, rows[4])
	assert.Equal(t, []any{"Generated", "2026-03-01T09:30:00Z", "Unit", "gram", "Rates", "cache"}, rows[5])
}

func TestBuildBoardRowsNotice(t *testing.T) {
	board := sampleBoard()
	board.Notice = "Offline"

	rows := buildBoardRows(board)
	assert.Equal(t, []any{"Notice", "Offline"}, rows[len(rows)-1])
}

func TestBuildHistoryRows(t *testing.T) {
	header, data := buildHistoryRows(sampleBoard())

	require.Len(t, header, 3+len(domain.MetalKinds))
	require.Len(t, data, len(header))
	assert.Equal(t, []any{"Date", "Currency", "Unit", "Gold Spot", "Silver Spot", "Platinum Spot", "Palladium Spot", "Thai Gold 96.5%"}, header)

	assert.Equal(t, "01.03.2026 09:30", data[0])
	assert.Equal(t, "THB", data[1])
	assert.Equal(t, "gram", data[2])
	assert.Equal(t, 2700.13, data[3])
	assert.Equal(t, 33.75, data[4])
	assert.Nil(t, data[5], "platinum missing from board")
	assert.Nil(t, data[6], "palladium errored")
	assert.Nil(t, data[7])
}

func TestBuildWorkbook(t *testing.T) {
	f, err := BuildWorkbook(sampleBoard())
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{boardSheet, historySheet}, f.GetSheetList())

	raw := excelize.Options{RawCellValue: true}
	v, err := f.GetCellValue(boardSheet, "A2", raw)
	require.NoError(t, err)
	assert.Equal(t, "gold-spot", v)

	v, err = f.GetCellValue(boardSheet, "D2", raw)
	require.NoError(t, err)
	assert.Equal(t, "2700.13", v)

	v, err = f.GetCellValue(historySheet, "D1", raw)
	require.NoError(t, err)
	assert.Equal(t, "Gold Spot", v)
}

func TestXLSXWriterExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "board.xlsx")
	w := NewXLSXWriter(path)

	require.NoError(t, w.Export(context.Background(), sampleBoard()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(boardSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 4)
	assert.Equal(t, "Silver Spot", rows[2][1])
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, sampleBoard()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(boardSheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "Palladium Spot", v)
}

func TestNewXLSXWriterPanicsOnEmptyPath(t *testing.T) {
	assert.Panics(t, func() { NewXLSXWriter("") })
}

type sheetsCall struct {
	method string
	path   string
	body   string
}

// fakeSheets records every Sheets API call and answers with an empty spreadsheet.
func fakeSheets(t *testing.T) (*SheetsWriter, func() []sheetsCall) {
	t.Helper()

	var (
		mu    sync.Mutex
		calls []sheetsCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, sheetsCall{method: r.Method, path: r.URL.Path, body: string(body)})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/spreadsheets/sheet-id") {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"spreadsheetId": "sheet-id",
				"sheets":        []any{},
			})
			return
		}
		if strings.HasSuffix(r.URL.Path, ":batchUpdate") && strings.Contains(string(body), "addSheet") {
			_, _ = w.Write([]byte(`{"replies":[{"addSheet":{"properties":{"sheetId":7}}}]}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	return &SheetsWriter{spreadsheetID: "sheet-id", svc: svc}, func() []sheetsCall {
		mu.Lock()
		defer mu.Unlock()
		return append([]sheetsCall(nil), calls...)
	}
}

func TestSheetsWriterExport(t *testing.T) {
	w, calls := fakeSheets(t)

	require.NoError(t, w.Export(context.Background(), sampleBoard()))

	got := calls()
	var (
		addedSheets int
		formatted   int
		cleared     bool
		wroteBoard  bool
		wroteHeader bool
		appended    bool
	)
	for _, c := range got {
		switch {
		case strings.HasSuffix(c.path, ":batchUpdate") && strings.Contains(c.body, "addSheet"):
			addedSheets++
		case strings.HasSuffix(c.path, ":batchUpdate") && strings.Contains(c.body, "repeatCell"):
			formatted++
		case strings.HasSuffix(c.path, ":clear"):
			cleared = strings.Contains(c.path, boardSheet)
		case strings.HasSuffix(c.path, "values:batchUpdate"):
			wroteBoard = strings.Contains(c.body, "gold-spot")
		case c.method == http.MethodPut:
			wroteHeader = strings.Contains(c.body, "Thai Gold 96.5%")
		case strings.HasSuffix(c.path, ":append"):
			appended = strings.Contains(c.body, "01.03.2026 09:30")
		}
	}

	assert.Equal(t, 2, addedSheets, "BOARD and HISTORY created")
	assert.Equal(t, 2, formatted, "header row styled on each new sheet")
	assert.True(t, cleared, "BOARD cleared")
	assert.True(t, wroteBoard, "BOARD written")
	assert.True(t, wroteHeader, "HISTORY header written to empty sheet")
	assert.True(t, appended, "HISTORY row appended")
}
