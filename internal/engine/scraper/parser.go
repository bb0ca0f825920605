package scraper

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rendis/dishtap/internal/model"
)

type infoSource int

const (
	dishInfo infoSource = iota
	restaurantInfo
)

// fieldSpec maps one RawDish field to a key path inside the dish or
// restaurant info object and the value to use when the path is absent.
type fieldSpec struct {
	Column  string
	From    infoSource
	Path    []string
	Default any
	set     func(d *model.RawDish, v any)
}

var dishFields = []fieldSpec{
	{"Dish Name", dishInfo, []string{"name"}, model.NotAvailable,
		func(d *model.RawDish, v any) { d.DishName = asString(v) }},
	{"Rating", dishInfo, []string{"ratings", "aggregatedRating", "rating"}, model.NotAvailable,
		func(d *model.RawDish, v any) { d.Rating = asString(v) }},
	{"Restaurant Name", restaurantInfo, []string{"name"}, model.NotAvailable,
		func(d *model.RawDish, v any) { d.RestaurantName = asString(v) }},
	{"Total Ratings", restaurantInfo, []string{"totalRatingsString"}, "0",
		func(d *model.RawDish, v any) { d.TotalRatings = v }},
	{"Price", dishInfo, []string{"price"}, float64(0),
		func(d *model.RawDish, v any) { d.Price = v }},
	{"Locality", restaurantInfo, []string{"locality"}, model.NotAvailable,
		func(d *model.RawDish, v any) { d.Locality = asString(v) }},
	{"Category", dishInfo, []string{"category"}, model.NotAvailable,
		func(d *model.RawDish, v any) { d.Category = asString(v) }},
	{"costForTwoMessage", restaurantInfo, []string{"costForTwoMessage"}, model.NotAvailable,
		func(d *model.RawDish, v any) { d.CostForTwoMessage = asString(v) }},
	{"Description", dishInfo, []string{"description"}, model.NotAvailable,
		func(d *model.RawDish, v any) { d.Description = asString(v) }},
	{"Area Name", restaurantInfo, []string{"areaName"}, model.NotAvailable,
		func(d *model.RawDish, v any) { d.AreaName = asString(v) }},
	{"Cuisine", restaurantInfo, []string{"cuisines"}, []any{},
		func(d *model.RawDish, v any) { d.Cuisines = asStrings(v) }},
	{"Discount", restaurantInfo, []string{"aggregatedDiscountInfoV3", "header"}, model.NotAvailable,
		func(d *model.RawDish, v any) { d.DiscountHeader = asString(v) }},
	{"Discount Details", restaurantInfo, []string{"aggregatedDiscountInfoV3", "subHeader"}, model.NotAvailable,
		func(d *model.RawDish, v any) { d.DiscountSubHeader = asString(v) }},
	{"Discount Type", restaurantInfo, []string{"aggregatedDiscountInfoV3", "discountTag"}, model.NotAvailable,
		func(d *model.RawDish, v any) { d.DiscountTag = asString(v) }},
}

// ParseSearchResponse decodes a search body and extracts its dish cards.
// Only invalid JSON is an error; an unexpected shape yields no dishes.
func ParseSearchResponse(body []byte) ([]model.RawDish, error) {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	return ExtractDishes(root), nil
}

// ExtractDishes walks data.cards[] to the first card holding a groupedCard,
// then cardGroupMap.DISH.cards[], projecting each dish card. Missing keys at
// any depth give an empty result.
func ExtractDishes(root any) []model.RawDish {
	cards := safeSlice(safeGet(root, "data", "cards"))

	var dishCards []any
	for _, c := range cards {
		m, ok := c.(map[string]any)
		if !ok {
			continue
		}
		grouped, ok := m["groupedCard"]
		if !ok {
			continue
		}
		dishCards = safeSlice(safeGet(grouped, "cardGroupMap", "DISH", "cards"))
		break
	}

	var dishes []model.RawDish
	for _, dc := range dishCards {
		info := safeMap(safeGet(dc, "card", "card", "info"))
		if len(info) == 0 {
			continue
		}
		restaurant := safeMap(safeGet(dc, "card", "card", "restaurant", "info"))
		dishes = append(dishes, project(info, restaurant))
	}
	return dishes
}

func project(info, restaurant map[string]any) model.RawDish {
	var d model.RawDish
	for _, f := range dishFields {
		src := info
		if f.From == restaurantInfo {
			src = restaurant
		}
		v, ok := lookup(src, f.Path)
		if !ok {
			v = f.Default
		}
		f.set(&d, v)
	}
	return d
}

// lookup follows path through nested objects. A key that is present with a
// null value counts as present.
func lookup(m map[string]any, path []string) (any, bool) {
	var cur any = m
	for _, k := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// safeGet navigates nested objects by key without panicking.
func safeGet(data any, path ...string) any {
	current := data
	for _, k := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = obj[k]
	}
	return current
}

func safeSlice(data any) []any {
	s, _ := data.([]any)
	return s
}

func safeMap(data any) map[string]any {
	m, _ := data.(map[string]any)
	return m
}

// asString renders a JSON scalar as text. Null becomes "N/A".
func asString(data any) string {
	switch v := data.(type) {
	case nil:
		return model.NotAvailable
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprint(data)
}

func asStrings(data any) []string {
	items := safeSlice(data)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
