// Package export turns normalized addresses into the table and spreadsheet
// forms offered to users.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Sternrassler/wms-enderecos/pkg/address"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet of the export.
const SheetName = "Enderecos_WMS"

// ContentType is the MIME type of xlsx payloads.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// FileName derives the download name from the first 8 characters of the unit id.
func FileName(unitID string) string {
	unitID = strings.TrimSpace(unitID)
	if utf8.RuneCountInString(unitID) > 8 {
		unitID = string([]rune(unitID)[:8])
	}
	return fmt.Sprintf("enderecos_wms_%s.xlsx", unitID)
}

// Cell renders a value for text tables. nil renders as an empty string.
func Cell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		// JSON numbers: avoid exponent notation for integral ids
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprint(val)
	default:
		return fmt.Sprint(val)
	}
}

// maxExactNumber bounds integers written as numeric cells. Spreadsheet
// numbers keep 15 significant digits; longer ids are written as text.
const maxExactNumber = 1e15

// sheetValue converts decoded JSON numbers into numeric cells when the
// spreadsheet can hold them exactly and into their literal text otherwise.
func sheetValue(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		if i > -maxExactNumber && i < maxExactNumber {
			return i
		}
		return n.String()
	}
	if f, err := n.Float64(); err == nil && strconv.FormatFloat(f, 'g', -1, 64) == n.String() {
		return f
	}
	return n.String()
}

// Rows renders addresses as string rows in address.Columns order.
func Rows(addrs []address.Address) [][]string {
	rows := make([][]string, 0, len(addrs))
	for _, a := range addrs {
		values := a.Row()
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = Cell(v)
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteXLSX writes addresses as a single-sheet workbook with a header row.
func WriteXLSX(w io.Writer, addrs []address.Address) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(address.Columns))
	for i, c := range address.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, a := range addrs {
		for col, v := range a.Row() {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(SheetName, cell, sheetValue(v)); err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
