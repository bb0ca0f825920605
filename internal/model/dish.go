package model

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// NotAvailable is written in place of any text field the API omitted.
const NotAvailable = "N/A"

// MaxSheetName is the xlsx limit on sheet name length.
const MaxSheetName = 31

// Location is one search origin, kept as the raw strings from the input table.
type Location struct {
	Lat string `json:"lat"`
	Lng string `json:"lng"`
}

// Point returns the location as an orb.Point ([lng, lat]).
// ok is false when either coordinate is not a number.
func (l Location) Point() (orb.Point, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(l.Lat), 64)
	if err != nil {
		return orb.Point{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(l.Lng), 64)
	if err != nil {
		return orb.Point{}, false
	}
	return orb.Point{lng, lat}, true
}

func (l Location) String() string {
	return strings.TrimSpace(l.Lat) + "," + strings.TrimSpace(l.Lng)
}

// RawDish is a dish card projected out of one search response, before
// normalization. Numeric fields keep whatever JSON type the API sent.
type RawDish struct {
	DishName          string
	Rating            string
	RestaurantName    string
	TotalRatings      any
	Price             any
	Locality          string
	Category          string
	CostForTwoMessage string
	Description       string
	AreaName          string
	Cuisines          []string
	DiscountHeader    string
	DiscountSubHeader string
	DiscountTag       string
}

// Dish is one output row.
type Dish struct {
	DishName          string   `json:"dish_name"`
	Rating            string   `json:"rating"`
	RestaurantName    string   `json:"restaurant_name"`
	TotalRatings      int      `json:"total_ratings"`
	Price             float64  `json:"price"`
	Locality          string   `json:"locality"`
	Category          string   `json:"category"`
	CostForTwoMessage string   `json:"cost_for_two_message"`
	Description       string   `json:"description"`
	AreaName          string   `json:"area_name"`
	Cuisine           string   `json:"cuisine"`
	DiscountHeader    string   `json:"discount"`
	DiscountSubHeader string   `json:"discount_details"`
	DiscountTag       string   `json:"discount_type"`
	Query             string   `json:"query"`
	Source            Location `json:"source"`
}

// DishKey identifies a dish for deduplication. Matching is exact.
type DishKey struct {
	DishName       string
	RestaurantName string
}

func (d Dish) Key() DishKey {
	return DishKey{DishName: d.DishName, RestaurantName: d.RestaurantName}
}

// RatingValue parses the display rating, returning 0 for "N/A" and friends.
func (d Dish) RatingValue() float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(d.Rating), 64)
	if err != nil {
		return 0
	}
	return f
}

// SheetColumns is the header row of every query sheet, in column order.
var SheetColumns = []string{
	"Dish Name",
	"Rating",
	"Restaurant Name",
	"Total Ratings",
	"Price (₹)",
	"Locality",
	"Category",
	"costForTwoMessage",
	"Description",
	"Area Name",
	"Cuisine",
	"Discount",
	"Discount Details",
	"Discount Type",
}

// Row returns the sheet cells for d, in SheetColumns order.
func (d Dish) Row() []any {
	return []any{
		d.DishName,
		d.Rating,
		d.RestaurantName,
		d.TotalRatings,
		d.Price,
		d.Locality,
		d.Category,
		d.CostForTwoMessage,
		d.Description,
		d.AreaName,
		d.Cuisine,
		d.DiscountHeader,
		d.DiscountSubHeader,
		d.DiscountTag,
	}
}

// SheetName truncates a query to the xlsx sheet name limit.
func SheetName(query string) string {
	r := []rune(query)
	if len(r) > MaxSheetName {
		r = r[:MaxSheetName]
	}
	return string(r)
}

// ScanParams holds all configuration for a scraping session.
type ScanParams struct {
	Queries     []string
	Locations   []Location
	OutputPath  string // .xlsx
	DBPath      string
	Concurrency int     // parallel fetches per query (1 = sequential)
	RPS         float64 // request pacing, 0 = unlimited
	Debug       bool    // dump raw responses
	DebugDir    string
}
