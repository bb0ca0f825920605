package scraper

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeDish is one dish card for building search response fixtures.
type fakeDish struct {
	Name       string
	Restaurant string
	Price      any
	Rating     string
	Total      string
}

func dishCard(d fakeDish) map[string]any {
	info := map[string]any{
		"name":        d.Name,
		"category":    "Momos",
		"description": "Steamed\tdumplings",
		"ratings": map[string]any{
			"aggregatedRating": map[string]any{"rating": d.Rating},
		},
	}
	if d.Price != nil {
		info["price"] = d.Price
	}
	return map[string]any{
		"card": map[string]any{
			"card": map[string]any{
				"info": info,
				"restaurant": map[string]any{
					"info": map[string]any{
						"name":               d.Restaurant,
						"totalRatingsString": d.Total,
						"locality":           "KPHB Colony",
						"areaName":           "Kukatpally",
						"costForTwoMessage":  "₹300 for two",
						"cuisines":           []any{"Tibetan", "Chinese"},
						"aggregatedDiscountInfoV3": map[string]any{
							"header":      "50% OFF",
							"subHeader":   "UPTO ₹100",
							"discountTag": "FLAT DEAL",
						},
					},
				},
			},
		},
	}
}

// searchBody wraps dish cards in the data.cards[].groupedCard envelope,
// preceded by an unrelated card the way real responses are.
func searchBody(t *testing.T, dishes ...fakeDish) []byte {
	t.Helper()
	cards := make([]any, 0, len(dishes))
	for _, d := range dishes {
		cards = append(cards, dishCard(d))
	}
	root := map[string]any{
		"statusCode": 0,
		"data": map[string]any{
			"cards": []any{
				map[string]any{"card": map[string]any{"card": map[string]any{"title": "Search"}}},
				map[string]any{
					"groupedCard": map[string]any{
						"cardGroupMap": map[string]any{
							"DISH": map[string]any{"cards": cards},
						},
					},
				},
			},
		},
	}
	b, err := json.Marshal(root)
	require.NoError(t, err)
	return b
}
