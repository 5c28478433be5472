package export

import (
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/truegold/internal/domain"
	"github.com/mtlprog/truegold/internal/pricing"
)

const (
	boardSheet   = "BOARD"
	historySheet = "HISTORY"
)

var boardHeader = []any{"Kind", "Title", "Currency", "Per Gram", "Per Unit", "Source", "Available", "Error"}

// buildBoardRows builds the BOARD sheet data.
// Columns: Kind | Title | Currency | Per Gram | Per Unit | Source | Available | Error
// A trailing block records when the board was built and which rate table it used.
func buildBoardRows(board pricing.Board) [][]any {
	data := make([][]any, 0, len(board.Rows)+4)
	data = append(data, boardHeader)

	for _, row := range board.Rows {
		data = append(data, []any{
			string(row.Kind),
			row.Title,
			string(row.Currency),
			priceCell(row.PerGram, row.Available),
			priceCell(row.PerUnit, row.Available),
			string(row.Source),
			row.Available,
			row.Error,
		})
	}

	data = append(data,
		[]any{},
		[]any{"Generated", board.GeneratedAt.UTC().Format(time.RFC3339), "Unit", board.Unit.Name, "Rates", string(board.RateSource)},
	)
	if board.Notice != "" {
		data = append(data, []any{"Notice", board.Notice})
	}
	return data
}

// buildHistoryRows builds the HISTORY header row and one data row for the current board.
// Columns: Date | Currency | Unit | one per-unit price column per metal kind
func buildHistoryRows(board pricing.Board) (header, dataRow []any) {
	header = make([]any, 0, 3+len(domain.MetalKinds))
	header = append(header, "Date", "Currency", "Unit")
	for _, k := range domain.MetalKinds {
		header = append(header, k.DisplayName())
	}

	byKind := lo.KeyBy(board.Rows, func(r pricing.BoardRow) domain.MetalKind { return r.Kind })

	dataRow = make([]any, 0, len(header))
	dataRow = append(dataRow, board.GeneratedAt.UTC().Format("02.01.2006 15:04"), string(board.Currency), board.Unit.Name)
	for _, k := range domain.MetalKinds {
		row, ok := byKind[k]
		if !ok {
			dataRow = append(dataRow, nil)
			continue
		}
		dataRow = append(dataRow, priceCell(row.PerUnit, row.Available))
	}
	return header, dataRow
}

// priceCell renders an unavailable price as an empty cell rather than a misleading zero.
func priceCell(v float64, available bool) any {
	if !available {
		return nil
	}
	return domain.RoundMoney(v)
}
