// Package normalize turns projected dish cards into output rows.
package normalize

import (
	"encoding/json"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/rendis/dishtap/internal/model"
)

var (
	thousandsRe = regexp.MustCompile(`(?i)^([\d.]+)K`)
	millionsRe  = regexp.MustCompile(`(?i)^([\d.]+)M`)
)

// ParseRatingCount converts the API's rating-count shorthand into an integer.
// "1.3K+" -> 1300, "10K+" -> 10000, "2.5M" -> 2500000, "123" -> 123.
// Anything unparseable, and any non-string input, yields 0.
func ParseRatingCount(v any) int {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "+"))

	if m := thousandsRe.FindStringSubmatch(s); m != nil {
		return scaled(m[1], 1_000)
	}
	if m := millionsRe.FindStringSubmatch(s); m != nil {
		return scaled(m[1], 1_000_000)
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// scaled multiplies a decimal string by factor and truncates, using exact
// rational arithmetic so "2.3K" is 2300 rather than 2299.
func scaled(num string, factor int64) int {
	r, ok := new(big.Rat).SetString(num)
	if !ok {
		return 0
	}
	r.Mul(r, new(big.Rat).SetInt64(factor))
	q := new(big.Int).Quo(r.Num(), r.Denom())
	if !q.IsInt64() {
		return 0
	}
	return int(q.Int64())
}

// PriceFromMinor converts a price in hundredths of the currency unit
// (paise) into a decimal price. Non-numeric input yields 0.
func PriceFromMinor(v any) float64 {
	switch p := v.(type) {
	case float64:
		return p / 100
	case int:
		return float64(p) / 100
	case int64:
		return float64(p) / 100
	case json.Number:
		f, err := p.Float64()
		if err != nil {
			return 0
		}
		return f / 100
	}
	return 0
}

// SanitizeText removes C0 and C1 control characters (U+0000-U+001F,
// U+007F-U+009F), which xlsx text cells cannot hold.
func SanitizeText(s string) string {
	if strings.IndexFunc(s, isControl) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if isControl(r) {
			return -1
		}
		return r
	}, s)
}

func isControl(r rune) bool {
	return r <= 0x1F || (r >= 0x7F && r <= 0x9F)
}

// Dish builds the output row for raw, cleaning every text cell.
func Dish(raw model.RawDish, query string, source model.Location) model.Dish {
	return model.Dish{
		DishName:          SanitizeText(raw.DishName),
		Rating:            SanitizeText(raw.Rating),
		RestaurantName:    SanitizeText(raw.RestaurantName),
		TotalRatings:      ParseRatingCount(raw.TotalRatings),
		Price:             PriceFromMinor(raw.Price),
		Locality:          SanitizeText(raw.Locality),
		Category:          SanitizeText(raw.Category),
		CostForTwoMessage: SanitizeText(raw.CostForTwoMessage),
		Description:       SanitizeText(raw.Description),
		AreaName:          SanitizeText(raw.AreaName),
		Cuisine:           SanitizeText(strings.Join(raw.Cuisines, ", ")),
		DiscountHeader:    SanitizeText(raw.DiscountHeader),
		DiscountSubHeader: SanitizeText(raw.DiscountSubHeader),
		DiscountTag:       SanitizeText(raw.DiscountTag),
		Query:             query,
		Source:            source,
	}
}

// Dishes normalizes a batch.
func Dishes(raws []model.RawDish, query string, source model.Location) []model.Dish {
	if len(raws) == 0 {
		return nil
	}
	out := make([]model.Dish, 0, len(raws))
	for _, r := range raws {
		out = append(out, Dish(r, query, source))
	}
	return out
}
