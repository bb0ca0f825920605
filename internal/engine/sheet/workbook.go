// Package sheet reads and writes the xlsx workbooks dishtap works with.
package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rendis/dishtap/internal/model"
)

const defaultSheet = "Sheet1"

// columnWidths are fixed per output column, A through N.
var columnWidths = []float64{25, 10, 25, 10, 10, 20, 18, 20, 60, 20, 30, 15, 20, 15}

// Workbook is an output file under construction. It must be closed on every
// path; Save is only meaningful once at least one sheet was written.
type Workbook struct {
	file   *excelize.File
	path   string
	names  map[string]bool // lowercased sheet names in use
	sheets []string
	header int // bold style id
	closed bool
}

// Create starts a new workbook that Save will write to path.
func Create(path string) (*Workbook, error) {
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}
	return &Workbook{
		file:   f,
		path:   path,
		names:  make(map[string]bool),
		header: header,
	}, nil
}

func (w *Workbook) Path() string {
	return w.path
}

// SheetCount is the number of query sheets written so far.
func (w *Workbook) SheetCount() int {
	return len(w.sheets)
}

// Sheets lists the written sheet names in order.
func (w *Workbook) Sheets() []string {
	return append([]string(nil), w.sheets...)
}

// WriteSheet adds one sheet named after query, with a header row and one row
// per dish. It returns the sheet name actually used.
func (w *Workbook) WriteSheet(query string, dishes []model.Dish) (string, error) {
	name := w.uniqueName(SafeSheetName(query))

	if len(w.sheets) == 0 && strings.EqualFold(name, defaultSheet) {
		name = defaultSheet // reuse the blank default sheet
	} else {
		idx, err := w.file.NewSheet(name)
		if err != nil {
			return "", fmt.Errorf("creating sheet %q: %w", name, err)
		}
		if len(w.sheets) == 0 {
			w.file.SetActiveSheet(idx)
			if err := w.file.DeleteSheet(defaultSheet); err != nil {
				return "", fmt.Errorf("removing default sheet: %w", err)
			}
		}
	}

	header := make([]any, len(model.SheetColumns))
	for i, c := range model.SheetColumns {
		header[i] = c
	}
	if err := w.file.SetSheetRow(name, "A1", &header); err != nil {
		return "", fmt.Errorf("writing header: %w", err)
	}
	if err := w.file.SetRowStyle(name, 1, 1, w.header); err != nil {
		return "", fmt.Errorf("styling header: %w", err)
	}

	for i, d := range dishes {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		row := d.Row()
		if err := w.file.SetSheetRow(name, cell, &row); err != nil {
			return "", fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return "", err
		}
		if err := w.file.SetColWidth(name, col, col, width); err != nil {
			return "", fmt.Errorf("setting width of %s: %w", col, err)
		}
	}

	w.names[strings.ToLower(name)] = true
	w.sheets = append(w.sheets, name)
	return name, nil
}

// Save writes the workbook to its path.
func (w *Workbook) Save() error {
	if len(w.sheets) == 0 {
		return fmt.Errorf("workbook has no sheets")
	}
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving %s: %w", w.path, err)
	}
	return nil
}

// Close releases the workbook. It is safe to call more than once.
func (w *Workbook) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// uniqueName appends " (n)" when a truncated name collides with an earlier
// sheet, staying within the length limit. Excel compares names
// case-insensitively.
func (w *Workbook) uniqueName(name string) string {
	if !w.names[strings.ToLower(name)] {
		return name
	}
	for n := 2; ; n++ {
		suffix := " (" + strconv.Itoa(n) + ")"
		base := []rune(name)
		if keep := model.MaxSheetName - len([]rune(suffix)); len(base) > keep {
			base = base[:keep]
		}
		candidate := string(base) + suffix
		if !w.names[strings.ToLower(candidate)] {
			return candidate
		}
	}
}

var sheetNameReplacer = strings.NewReplacer(
	":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

// SafeSheetName truncates query to 31 characters and replaces characters
// xlsx forbids in sheet names.
func SafeSheetName(query string) string {
	name := sheetNameReplacer.Replace(query)
	name = model.SheetName(name)
	name = strings.Trim(name, "'")
	if strings.TrimSpace(name) == "" {
		return "Sheet"
	}
	return name
}
