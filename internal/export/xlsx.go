package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/truegold/internal/pricing"
)

// XLSXWriter saves each market board as a workbook on disk.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates a writer targeting path. Parent directories are created on export.
func NewXLSXWriter(path string) *XLSXWriter {
	if path == "" {
		panic("export: xlsx path must not be empty")
	}
	return &XLSXWriter{path: path}
}

// Export renders the board and replaces the workbook at the configured path.
func (w *XLSXWriter) Export(_ context.Context, board pricing.Board) error {
	f, err := BuildWorkbook(board)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("XLSXWriter: closing workbook", "error", err)
		}
	}()

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", w.path, err)
	}
	slog.Info("XLSXWriter: board exported", "path", w.path, "rows", len(board.Rows))
	return nil
}

// WriteWorkbook streams the board workbook to out.
func WriteWorkbook(out io.Writer, board pricing.Board) error {
	f, err := BuildWorkbook(board)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// BuildWorkbook lays out a BOARD sheet and a single-row HISTORY sheet. The caller closes the file.
func BuildWorkbook(board pricing.Board) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", boardSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}
	if err := writeRows(f, boardSheet, buildBoardRows(board)); err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(historySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("creating %s sheet: %w", historySheet, err)
	}
	header, dataRow := buildHistoryRows(board)
	if err := writeRows(f, historySheet, [][]any{header, dataRow}); err != nil {
		f.Close()
		return nil, err
	}

	if err := formatBoard(f, len(board.Rows)); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("addressing %s row %d: %w", sheet, i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// formatBoard bolds the header row and applies #,##0.00 to the price columns.
func formatBoard(f *excelize.File, dataRows int) error {
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	if err := f.SetCellStyle(boardSheet, "A1", "H1", header); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	if err := f.SetColWidth(boardSheet, "B", "B", 20); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	if dataRows == 0 {
		return nil
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("creating price style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(5, dataRows+1)
	if err != nil {
		return fmt.Errorf("addressing price range: %w", err)
	}
	if err := f.SetCellStyle(boardSheet, "D2", last, money); err != nil {
		return fmt.Errorf("styling prices: %w", err)
	}
	return nil
}
