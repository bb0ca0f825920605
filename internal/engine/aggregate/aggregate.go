// Package aggregate merges per-location dish batches for one query.
package aggregate

import "github.com/rendis/dishtap/internal/model"

// Accumulator collects batches in visit order and drops any dish whose
// (dish name, restaurant name) pair was already seen. The copy from the
// earliest batch is the one kept.
type Accumulator struct {
	seen   map[model.DishKey]struct{}
	dishes []model.Dish
	added  int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{seen: make(map[model.DishKey]struct{})}
}

// Add appends batch and returns how many of its dishes were new.
func (a *Accumulator) Add(batch []model.Dish) int {
	kept := 0
	for _, d := range batch {
		a.added++
		k := d.Key()
		if _, dup := a.seen[k]; dup {
			continue
		}
		a.seen[k] = struct{}{}
		a.dishes = append(a.dishes, d)
		kept++
	}
	return kept
}

// Dishes returns the merged rows in first-seen order.
func (a *Accumulator) Dishes() []model.Dish {
	return a.dishes
}

// Len is the number of unique dishes.
func (a *Accumulator) Len() int {
	return len(a.dishes)
}

// Duplicates is the number of dishes dropped so far.
func (a *Accumulator) Duplicates() int {
	return a.added - len(a.dishes)
}

// Merge concatenates batches in order and deduplicates, keeping the first
// occurrence. An empty input gives an empty (nil) result.
func Merge(batches [][]model.Dish) []model.Dish {
	acc := NewAccumulator()
	for _, b := range batches {
		acc.Add(b)
	}
	return acc.Dishes()
}

// Batch is a location's dishes tagged with the position the location had in
// the visit order. Fetches may finish in any order; MergeOrdered restores it.
type Batch struct {
	Visit  int
	Dishes []model.Dish
}

// MergeOrdered sorts tagged batches by visit index before merging, so
// parallel fetches keep the sequential tie-break.
func MergeOrdered(batches []Batch) []model.Dish {
	ordered := make([][]model.Dish, 0, len(batches))
	slots := make(map[int][]model.Dish, len(batches))
	maxVisit := -1
	for _, b := range batches {
		slots[b.Visit] = append(slots[b.Visit], b.Dishes...)
		if b.Visit > maxVisit {
			maxVisit = b.Visit
		}
	}
	for i := 0; i <= maxVisit; i++ {
		if d, ok := slots[i]; ok {
			ordered = append(ordered, d)
		}
	}
	return Merge(ordered)
}
