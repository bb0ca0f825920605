package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/dishtap/internal/model"
)

func fixture() []model.Dish {
	return []model.Dish{
		{DishName: "Chicken Momos", RestaurantName: "Momo King", Rating: "4.3", Price: 149, Cuisine: "Tibetan, Chinese", Locality: "KPHB", DiscountHeader: "50% OFF"},
		{DishName: "Fried Momos", RestaurantName: "Momo King", Rating: "4.5", Price: 169, Cuisine: "Tibetan, Chinese", Locality: "KPHB", DiscountHeader: model.NotAvailable},
		{DishName: "Tandoori Momos", RestaurantName: "Wow! Momo", Rating: "3.9", Price: 199, Cuisine: "Fast Food", Locality: "Ameerpet", DiscountHeader: "50% OFF"},
		{DishName: "Veg Momos", RestaurantName: "Street Stall", Rating: model.NotAvailable, Price: 0, Cuisine: "Fast Food", Locality: "Ameerpet"},
		{DishName: "Cheese Momos", RestaurantName: "Wow! Momo", Rating: "4.3", Price: 229, Cuisine: "Fast Food", Locality: ""},
	}
}

func names(ds []model.Dish) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.DishName
	}
	return out
}

func TestTopAndLowestRated(t *testing.T) {
	assert.Equal(t, []string{"Fried Momos", "Chicken Momos", "Cheese Momos"}, names(TopRated(fixture(), 3)))
	assert.Equal(t, []string{"Tandoori Momos", "Chicken Momos"}, names(LowestRated(fixture(), 2)))
	assert.Len(t, TopRated(fixture(), 0), 4, "unrated dish is excluded")
}

func TestValueCounts(t *testing.T) {
	assert.Equal(t, []Count{{"Fast Food", 3}, {"Tibetan, Chinese", 2}}, ValueCounts(fixture(), Cuisines))
	assert.Equal(t, []Count{{"Momo King", 2}, {"Wow! Momo", 2}, {"Street Stall", 1}}, ValueCounts(fixture(), Restaurants))
	assert.Equal(t, []Count{{"50% OFF", 2}}, ValueCounts(fixture(), Discounts))
	assert.Empty(t, ValueCounts(nil, Cuisines))
}

func TestPriceHistogram(t *testing.T) {
	buckets := PriceHistogram(fixture(), 4)
	require.Len(t, buckets, 4)
	assert.Equal(t, 149.0, buckets[0].Lo)
	assert.Equal(t, 229.0, buckets[3].Hi)

	total := 0
	for _, b := range buckets {
		total += b.N
	}
	assert.Equal(t, 4, total, "unpriced dish is ignored")
	assert.Equal(t, []int{1, 1, 1, 1}, []int{buckets[0].N, buckets[1].N, buckets[2].N, buckets[3].N})

	single := PriceHistogram([]model.Dish{{Price: 99}, {Price: 99}}, 5)
	assert.Equal(t, []Bucket{{Lo: 99, Hi: 99, N: 2}}, single)
	assert.Nil(t, PriceHistogram(nil, 5))
}

func TestPricesBy(t *testing.T) {
	stats := PricesBy(fixture(), Localities)
	require.Len(t, stats, 3)

	assert.Equal(t, "Ameerpet", stats[0].Group)
	assert.Equal(t, 1, stats[0].N)

	assert.Equal(t, "KPHB", stats[1].Group)
	assert.Equal(t, 159.0, stats[1].Mean)
	assert.Equal(t, 159.0, stats[1].Median)
	assert.Equal(t, 20.0, stats[1].Margin())

	assert.Equal(t, model.NotAvailable, stats[2].Group)
}

func TestPriceRatingCorrelation(t *testing.T) {
	r, ok := PriceRatingCorrelation([]model.Dish{
		{Rating: "3.0", Price: 100},
		{Rating: "4.0", Price: 200},
		{Rating: "5.0", Price: 300},
	})
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-9)

	_, ok = PriceRatingCorrelation([]model.Dish{{Rating: "4.0", Price: 100}})
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	s := Summarize(fixture())
	assert.Equal(t, 5, s.Dishes)
	assert.Equal(t, 3, s.Restaurants)
	assert.Equal(t, 4, s.Rated)
	assert.InDelta(t, 4.25, s.AvgRating, 1e-9)
	assert.InDelta(t, 186.5, s.AvgPrice, 1e-9)
}
