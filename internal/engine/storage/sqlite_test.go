package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/dishtap/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "dishtap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func momos() []model.Dish {
	src := model.Location{Lat: "17.4948", Lng: "78.3996"}
	return []model.Dish{
		{DishName: "Chicken Momos", RestaurantName: "Momo King", Rating: "4.3", TotalRatings: 1300, Price: 149, Cuisine: "Tibetan", Query: "Chicken Momos", Source: src},
		{DishName: "Chicken Momos", RestaurantName: "Wow! Momo", Rating: "N/A", TotalRatings: 0, Price: 179.5, Query: "Chicken Momos", Source: src},
	}
}

func TestStore_RunLifecycle(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LatestRun()
	assert.ErrorIs(t, err, ErrNoRuns)

	id, err := s.StartRun("out.xlsx", 2, 3)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, s.FinishRun(id, 1, 2, 0))

	run, err := s.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, "out.xlsx", run.OutputPath)
	assert.Equal(t, 2, run.Queries)
	assert.Equal(t, 3, run.Locations)
	assert.Equal(t, 1, run.SheetsWritten)
	assert.Equal(t, 2, run.DishesKept)
	require.NotNil(t, run.FinishedAt)

	assert.Error(t, s.FinishRun("missing", 0, 0, 0))
}

func TestStore_InsertAndLoad(t *testing.T) {
	s := newTestStore(t)
	id, err := s.StartRun("out.xlsx", 1, 1)
	require.NoError(t, err)

	n, err := s.InsertBatch(id, momos())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.InsertBatch(id, momos())
	require.NoError(t, err)
	assert.Equal(t, 0, n, "same run and key is ignored")

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	dishes, err := s.LoadDishes("")
	require.NoError(t, err)
	require.Len(t, dishes, 2)
	assert.Equal(t, momos(), dishes)
}

func TestStore_LoadDishesPerRun(t *testing.T) {
	s := newTestStore(t)
	first, err := s.StartRun("a.xlsx", 1, 1)
	require.NoError(t, err)
	_, err = s.InsertBatch(first, momos())
	require.NoError(t, err)

	second, err := s.StartRun("b.xlsx", 1, 1)
	require.NoError(t, err)
	_, err = s.InsertBatch(second, momos()[:1])
	require.NoError(t, err)

	dishes, err := s.LoadDishes(first)
	require.NoError(t, err)
	assert.Len(t, dishes, 2)

	dishes, err = s.LoadDishes(second)
	require.NoError(t, err)
	assert.Len(t, dishes, 1)

	runs, err := s.Runs()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestStore_UnknownRunRejected(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertBatch("no-such-run", momos())
	assert.Error(t, err)
}
