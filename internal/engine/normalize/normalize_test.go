package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rendis/dishtap/internal/model"
)

func TestParseRatingCount(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"decimal thousands with plus", "1.3K+", 1300},
		{"thousands with plus", "10K+", 10000},
		{"millions", "2.5M", 2500000},
		{"plain integer", "123", 123},
		{"empty", "", 0},
		{"sentinel", "N/A", 0},
		{"non-string", 42, 0},
		{"nil", nil, 0},
		{"lowercase suffix", "1.3k+", 1300},
		{"surrounding spaces", " 20+ ", 20},
		{"no float drift", "2.3K", 2300},
		{"malformed number", "1.2.3K", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRatingCount(tt.in))
		})
	}
}

func TestPriceFromMinor(t *testing.T) {
	assert.Equal(t, 349.0, PriceFromMinor(float64(34900)))
	assert.Equal(t, 349.0, PriceFromMinor(34900))
	assert.Equal(t, 12.5, PriceFromMinor(json.Number("1250")))
	assert.Equal(t, 0.0, PriceFromMinor("34900"))
	assert.Equal(t, 0.0, PriceFromMinor(nil))
}

func TestSanitizeText(t *testing.T) {
	t.Run("removes control characters", func(t *testing.T) {
		assert.Equal(t, "Chicken Momos", SanitizeText("Chicken\x00 Momos\x1f"))
		assert.Equal(t, "ab", SanitizeText("a\u0085b"))
		assert.Equal(t, "ab", SanitizeText("a\x7fb"))
	})

	t.Run("leaves clean text alone", func(t *testing.T) {
		s := "Paneer Tikka Momos – ₹249"
		assert.Equal(t, s, SanitizeText(s))
	})

	t.Run("idempotent", func(t *testing.T) {
		s := "tab\there\nnewline\x00nul"
		once := SanitizeText(s)
		assert.Equal(t, once, SanitizeText(once))
		assert.Equal(t, "tabherenewlinenul", once)
	})
}

func TestDish(t *testing.T) {
	raw := model.RawDish{
		DishName:          "Chicken\x00 Momos",
		Rating:            "4.3",
		RestaurantName:    "Momo King",
		TotalRatings:      "1.3K+",
		Price:             float64(14900),
		Locality:          "Kukatpally",
		Category:          "Momos",
		CostForTwoMessage: "₹300 for two",
		Description:       "Steamed\r\n",
		AreaName:          "KPHB",
		Cuisines:          []string{"Tibetan", "Chinese"},
		DiscountHeader:    "50% OFF",
		DiscountSubHeader: "UPTO ₹100",
		DiscountTag:       model.NotAvailable,
	}
	loc := model.Location{Lat: "17.49", Lng: "78.39"}

	d := Dish(raw, "Chicken Momos", loc)

	assert.Equal(t, "Chicken Momos", d.DishName)
	assert.Equal(t, 1300, d.TotalRatings)
	assert.Equal(t, 149.0, d.Price)
	assert.Equal(t, "Steamed", d.Description)
	assert.Equal(t, "Tibetan, Chinese", d.Cuisine)
	assert.Equal(t, model.NotAvailable, d.DiscountTag)
	assert.Equal(t, "Chicken Momos", d.Query)
	assert.Equal(t, loc, d.Source)
}

func TestDishes_Empty(t *testing.T) {
	assert.Nil(t, Dishes(nil, "q", model.Location{}))
}
