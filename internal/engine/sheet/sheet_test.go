package sheet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rendis/dishtap/internal/model"
)

func sampleDishes() []model.Dish {
	return []model.Dish{
		{DishName: "Chicken Momos", Rating: "4.3", RestaurantName: "Momo King", TotalRatings: 1300, Price: 149, Cuisine: "Tibetan, Chinese"},
		{DishName: "Veg Momos", Rating: model.NotAvailable, RestaurantName: "Wow! Momo", TotalRatings: 0, Price: 99.5},
	}
}

func TestWorkbook_WriteAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	wb, err := Create(path)
	require.NoError(t, err)
	defer wb.Close()

	name, err := wb.WriteSheet("Chicken Momos", sampleDishes())
	require.NoError(t, err)
	assert.Equal(t, "Chicken Momos", name)
	require.NoError(t, wb.Save())

	sheets, err := ReadWorkbook(path)
	require.NoError(t, err)
	require.Len(t, sheets, 1, "default Sheet1 must be gone")
	assert.Equal(t, "Chicken Momos", sheets[0].Name)
	require.Len(t, sheets[0].Dishes, 2)

	got := sheets[0].Dishes[0]
	assert.Equal(t, "Chicken Momos", got.DishName)
	assert.Equal(t, "Momo King", got.RestaurantName)
	assert.Equal(t, 1300, got.TotalRatings)
	assert.Equal(t, 149.0, got.Price)
	assert.Equal(t, "Tibetan, Chinese", got.Cuisine)
	assert.Equal(t, 99.5, sheets[0].Dishes[1].Price)
}

func TestWorkbook_HeaderAndWidths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	wb, err := Create(path)
	require.NoError(t, err)
	_, err = wb.WriteSheet("Veg Burger", sampleDishes())
	require.NoError(t, err)
	require.NoError(t, wb.Save())
	require.NoError(t, wb.Close())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Veg Burger")
	require.NoError(t, err)
	assert.Equal(t, model.SheetColumns, rows[0])

	w, err := f.GetColWidth("Veg Burger", "I")
	require.NoError(t, err)
	assert.Equal(t, 60.0, w)
}

func TestWorkbook_SheetNames(t *testing.T) {
	wb, err := Create(filepath.Join(t.TempDir(), "out.xlsx"))
	require.NoError(t, err)
	defer wb.Close()

	long := "All Time Favorite Aloo Tikki Burger"
	first, err := wb.WriteSheet(long, sampleDishes())
	require.NoError(t, err)
	assert.Equal(t, long[:31], first)

	second, err := wb.WriteSheet(long+" Deluxe", sampleDishes())
	require.NoError(t, err)
	assert.Equal(t, "All Time Favorite Aloo Tikk (2)", second)
	assert.LessOrEqual(t, len([]rune(second)), model.MaxSheetName)

	third, err := wb.WriteSheet("Corn/Cheese [Momos]?", sampleDishes())
	require.NoError(t, err)
	assert.Equal(t, "Corn_Cheese _Momos__", third)

	assert.Equal(t, 3, wb.SheetCount())
	assert.Equal(t, []string{first, second, third}, wb.Sheets())
}

func TestWorkbook_SaveWithoutSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	wb, err := Create(path)
	require.NoError(t, err)
	defer wb.Close()

	assert.Error(t, wb.Save())
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSafeSheetName(t *testing.T) {
	assert.Equal(t, "Chicken Momos", SafeSheetName("Chicken Momos"))
	assert.Equal(t, "Sheet", SafeSheetName("''"))
	assert.Equal(t, 31, len([]rune(SafeSheetName(strings.Repeat("ñ", 40)))))
}

func writeXLSX(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	path := filepath.Join(t.TempDir(), "input.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadQueries(t *testing.T) {
	t.Run("xlsx", func(t *testing.T) {
		path := writeXLSX(t, [][]any{{"Chicken Momos"}, {""}, {"French Fries"}})
		got, err := ReadQueries(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"Chicken Momos", "French Fries"}, got)
	})

	t.Run("csv", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "queries.csv")
		require.NoError(t, os.WriteFile(path, []byte("Veg Burger\n\nPaneer Momos,ignored\n"), 0644))
		got, err := ReadQueries(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"Veg Burger", "Paneer Momos"}, got)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadQueries(filepath.Join(t.TempDir(), "nope.xlsx"))
		assert.Error(t, err)
	})
}

func TestReadLocations(t *testing.T) {
	t.Run("xlsx with header", func(t *testing.T) {
		path := writeXLSX(t, [][]any{
			{"Name", "Latitude", "Longitude"},
			{"KPHB", 17.4948, 78.3996},
			{"Blank", "", 78.1},
			{"Ameerpet", "17.4375", "78.4482"},
		})
		got, err := ReadLocations(path)
		require.NoError(t, err)
		assert.Equal(t, []model.Location{
			{Lat: "17.4948", Lng: "78.3996"},
			{Lat: "17.4375", Lng: "78.4482"},
		}, got)
	})

	t.Run("csv short headers", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "locs.csv")
		require.NoError(t, os.WriteFile(path, []byte("lat,lng\n12.97,77.59\n"), 0644))
		got, err := ReadLocations(path)
		require.NoError(t, err)
		assert.Equal(t, []model.Location{{Lat: "12.97", Lng: "77.59"}}, got)
	})

	t.Run("missing columns", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.csv")
		require.NoError(t, os.WriteFile(path, []byte("x,y\n1,2\n"), 0644))
		_, err := ReadLocations(path)
		assert.Error(t, err)
	})
}
