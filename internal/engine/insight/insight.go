// Package insight computes the summaries shown on the dashboard for one
// query sheet.
package insight

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rendis/dishtap/internal/model"
)

// Count is one bar of a value-count chart.
type Count struct {
	Label string
	N     int
}

// Bucket is one histogram bin, [Lo, Hi) except the last which includes Hi.
type Bucket struct {
	Lo, Hi float64
	N      int
}

// PriceStat summarizes prices within one group.
type PriceStat struct {
	Group  string
	N      int
	Mean   float64
	Min    float64
	Median float64
	Max    float64
}

// Margin is the spread between the cheapest and dearest dish in the group.
func (s PriceStat) Margin() float64 { return s.Max - s.Min }

func rating(d model.Dish) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(d.Rating), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// TopRated returns up to n rated dishes, highest rating first. Unrated
// dishes are left out; ties keep sheet order.
func TopRated(dishes []model.Dish, n int) []model.Dish {
	return byRating(dishes, n, func(a, b float64) bool { return a > b })
}

// LowestRated is TopRated in reverse.
func LowestRated(dishes []model.Dish, n int) []model.Dish {
	return byRating(dishes, n, func(a, b float64) bool { return a < b })
}

func byRating(dishes []model.Dish, n int, less func(a, b float64) bool) []model.Dish {
	type rated struct {
		d model.Dish
		r float64
	}
	var rs []rated
	for _, d := range dishes {
		if r, ok := rating(d); ok {
			rs = append(rs, rated{d, r})
		}
	}
	sort.SliceStable(rs, func(i, j int) bool { return less(rs[i].r, rs[j].r) })
	if n > 0 && len(rs) > n {
		rs = rs[:n]
	}
	out := make([]model.Dish, len(rs))
	for i, r := range rs {
		out[i] = r.d
	}
	return out
}

// ValueCounts counts dishes per key, most frequent first, then by label.
// Empty and "N/A" keys are skipped.
func ValueCounts(dishes []model.Dish, key func(model.Dish) string) []Count {
	counts := make(map[string]int)
	for _, d := range dishes {
		k := strings.TrimSpace(key(d))
		if k == "" || k == model.NotAvailable {
			continue
		}
		counts[k]++
	}
	out := make([]Count, 0, len(counts))
	for k, n := range counts {
		out = append(out, Count{Label: k, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func Cuisines(d model.Dish) string { return d.Cuisine }
func Restaurants(d model.Dish) string { return d.RestaurantName }
func Discounts(d model.Dish) string { return d.DiscountHeader }
func Localities(d model.Dish) string { return d.Locality }

// PriceHistogram splits the price range into bins equal-width buckets.
// Dishes without a price (0) are ignored.
func PriceHistogram(dishes []model.Dish, bins int) []Bucket {
	var prices []float64
	for _, d := range dishes {
		if d.Price > 0 {
			prices = append(prices, d.Price)
		}
	}
	if len(prices) == 0 || bins <= 0 {
		return nil
	}

	lo, hi := prices[0], prices[0]
	for _, p := range prices {
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	if lo == hi {
		return []Bucket{{Lo: lo, Hi: hi, N: len(prices)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]Bucket, bins)
	for i := range out {
		out[i].Lo = lo + float64(i)*width
		out[i].Hi = lo + float64(i+1)*width
	}
	out[bins-1].Hi = hi
	for _, p := range prices {
		i := int((p - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].N++
	}
	return out
}

// PricesBy groups priced dishes by key and summarizes each group, sorted by
// group name.
func PricesBy(dishes []model.Dish, key func(model.Dish) string) []PriceStat {
	groups := make(map[string][]float64)
	for _, d := range dishes {
		if d.Price <= 0 {
			continue
		}
		k := strings.TrimSpace(key(d))
		if k == "" {
			k = model.NotAvailable
		}
		groups[k] = append(groups[k], d.Price)
	}

	out := make([]PriceStat, 0, len(groups))
	for g, ps := range groups {
		sort.Float64s(ps)
		sum := 0.0
		for _, p := range ps {
			sum += p
		}
		out = append(out, PriceStat{
			Group:  g,
			N:      len(ps),
			Mean:   sum / float64(len(ps)),
			Min:    ps[0],
			Median: median(ps),
			Max:    ps[len(ps)-1],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// PriceRatingCorrelation is Pearson's r over dishes that have both a price
// and a rating. ok is false with fewer than two such dishes or no variance.
func PriceRatingCorrelation(dishes []model.Dish) (r float64, ok bool) {
	var xs, ys []float64
	for _, d := range dishes {
		rt, rated := rating(d)
		if !rated || d.Price <= 0 {
			continue
		}
		xs = append(xs, d.Price)
		ys = append(ys, rt)
	}
	n := float64(len(xs))
	if n < 2 {
		return 0, false
	}

	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= n
	my /= n

	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	return sxy / math.Sqrt(sxx*syy), true
}

// Summary is the headline row of the dashboard.
type Summary struct {
	Dishes      int
	Restaurants int
	Rated       int
	AvgRating   float64
	AvgPrice    float64
}

func Summarize(dishes []model.Dish) Summary {
	s := Summary{Dishes: len(dishes)}
	restaurants := make(map[string]bool)
	var ratingSum, priceSum float64
	priced := 0
	for _, d := range dishes {
		restaurants[d.RestaurantName] = true
		if r, ok := rating(d); ok {
			s.Rated++
			ratingSum += r
		}
		if d.Price > 0 {
			priced++
			priceSum += d.Price
		}
	}
	s.Restaurants = len(restaurants)
	if s.Rated > 0 {
		s.AvgRating = ratingSum / float64(s.Rated)
	}
	if priced > 0 {
		s.AvgPrice = priceSum / float64(priced)
	}
	return s
}
