package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rendis/dishtap/internal/model"
)

// CSVColumns extends the sheet header with the query and source location,
// which only exist outside the workbook.
var CSVColumns = append(append([]string(nil), model.SheetColumns...), "Query", "Source Lat", "Source Lng")

// WriteCSV writes dishes as CSV with a CSVColumns header.
func WriteCSV(w io.Writer, dishes []model.Dish) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVColumns); err != nil {
		return err
	}
	record := make([]string, len(CSVColumns))
	for _, d := range dishes {
		for i, v := range d.Row() {
			record[i] = formatCell(v)
		}
		n := len(model.SheetColumns)
		record[n] = d.Query
		record[n+1] = d.Source.Lat
		record[n+2] = d.Source.Lng
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile creates path and writes dishes to it.
func WriteCSVFile(path string, dishes []model.Dish) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteCSV(f, dishes)
}

func formatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
