package sheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rendis/dishtap/internal/model"
)

// ReadQueries returns the first column of the first sheet (or CSV file).
// There is no header row; blank cells are dropped.
func ReadQueries(path string) ([]string, error) {
	rows, err := readTable(path)
	if err != nil {
		return nil, err
	}
	var queries []string
	for _, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		queries = append(queries, row[0])
	}
	return queries, nil
}

// ReadLocations reads a table whose header row names a Latitude and a
// Longitude column. Header matching is case-insensitive and also accepts
// lat/lng/lon. Rows missing either value are skipped.
func ReadLocations(path string) ([]model.Location, error) {
	rows, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty location table", path)
	}

	latCol, lngCol := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "latitude", "lat":
			if latCol < 0 {
				latCol = i
			}
		case "longitude", "lng", "lon", "long":
			if lngCol < 0 {
				lngCol = i
			}
		}
	}
	if latCol < 0 || lngCol < 0 {
		return nil, fmt.Errorf("%s: header must contain Latitude and Longitude columns", path)
	}

	var locs []model.Location
	for _, row := range rows[1:] {
		lat, lng := cell(row, latCol), cell(row, lngCol)
		if lat == "" || lng == "" {
			continue
		}
		locs = append(locs, model.Location{Lat: lat, Lng: lng})
	}
	return locs, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func readTable(path string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r := csv.NewReader(f)
		r.FieldsPerRecord = -1
		rows, err := r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return rows, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, fmt.Errorf("%s: no sheets found", path)
	}
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading rows of %s: %w", path, err)
	}
	return rows, nil
}

// SheetData is one query sheet loaded back from an output workbook.
type SheetData struct {
	Name   string
	Dishes []model.Dish
}

// ReadWorkbook loads every sheet of an output workbook. Columns are matched
// by header text, so sheets with extra or reordered columns still load.
func ReadWorkbook(path string) ([]SheetData, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var out []SheetData
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", name, err)
		}
		out = append(out, SheetData{Name: name, Dishes: parseDishRows(name, rows)})
	}
	return out, nil
}

func parseDishRows(query string, rows [][]string) []model.Dish {
	if len(rows) < 2 {
		return nil
	}
	idx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		idx[strings.TrimSpace(h)] = i
	}
	get := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok {
			return ""
		}
		return cell(row, i)
	}

	dishes := make([]model.Dish, 0, len(rows)-1)
	for _, row := range rows[1:] {
		total, _ := strconv.Atoi(get(row, "Total Ratings"))
		price, _ := strconv.ParseFloat(get(row, "Price (₹)"), 64)
		dishes = append(dishes, model.Dish{
			DishName:          get(row, "Dish Name"),
			Rating:            get(row, "Rating"),
			RestaurantName:    get(row, "Restaurant Name"),
			TotalRatings:      total,
			Price:             price,
			Locality:          get(row, "Locality"),
			Category:          get(row, "Category"),
			CostForTwoMessage: get(row, "costForTwoMessage"),
			Description:       get(row, "Description"),
			AreaName:          get(row, "Area Name"),
			Cuisine:           get(row, "Cuisine"),
			DiscountHeader:    get(row, "Discount"),
			DiscountSubHeader: get(row, "Discount Details"),
			DiscountTag:       get(row, "Discount Type"),
			Query:             query,
		})
	}
	return dishes
}
