package scraper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rendis/dishtap/internal/engine/metrics"
	"github.com/rendis/dishtap/internal/model"
)

type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string][]byte // keyed by "query|lat,lng"
	errs      map[string]error
	calls     []string
}

func (f *fakeFetcher) Search(ctx context.Context, loc model.Location, query string) ([]byte, error) {
	key := query + "|" + loc.String()
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if body, ok := f.responses[key]; ok {
		return body, nil
	}
	return []byte(`{"data":{"cards":[]}}`), nil
}

type writtenSheet struct {
	query  string
	dishes []model.Dish
}

type fakeWriter struct {
	sheets []writtenSheet
	err    error
}

func (w *fakeWriter) WriteSheet(query string, dishes []model.Dish) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	w.sheets = append(w.sheets, writtenSheet{query: query, dishes: dishes})
	return model.SheetName(query), nil
}

type fakeStore struct {
	runID string
	rows  int
}

func (s *fakeStore) InsertBatch(runID string, dishes []model.Dish) (int, error) {
	s.runID = runID
	s.rows += len(dishes)
	return len(dishes), nil
}

var (
	locA = model.Location{Lat: "17.4948", Lng: "78.3996"}
	locB = model.Location{Lat: "17.4375", Lng: "78.4482"}
	locC = model.Location{Lat: "17.4000", Lng: "78.5000"}
)

func momosFetcher(t *testing.T) *fakeFetcher {
	return &fakeFetcher{
		responses: map[string][]byte{
			"Chicken Momos|" + locA.String(): searchBody(t,
				fakeDish{Name: "Chicken Momos", Restaurant: "Momo King", Price: 14900, Rating: "4.3", Total: "1.3K+"},
				fakeDish{Name: "Chicken Momos", Restaurant: "Wow! Momo", Price: 17900, Rating: "4.0", Total: "10K+"},
			),
			"Chicken Momos|" + locB.String(): searchBody(t,
				fakeDish{Name: "Chicken Momos", Restaurant: "Momo King", Price: 15900, Rating: "4.3", Total: "1.3K+"},
				fakeDish{Name: "Fried Chicken Momos", Restaurant: "Momo King", Price: 16900, Rating: "4.3", Total: "1.3K+"},
			),
		},
	}
}

func TestRun_MergesLocationsFirstWins(t *testing.T) {
	fetcher := momosFetcher(t)
	writer := &fakeWriter{}
	store := &fakeStore{}
	rec := metrics.NewRecorder()

	params := model.ScanParams{
		Queries:   []string{"Chicken Momos"},
		Locations: []model.Location{locA, locB},
	}
	var results []QueryResult
	stats, err := Run(context.Background(), params, fetcher, writer, zaptest.NewLogger(t), &RunOptions{
		RunID:          "run-1",
		Store:          store,
		Metrics:        rec,
		SuppressStderr: true,
		OnQuery:        func(r QueryResult) { results = append(results, r) },
	})
	require.NoError(t, err)

	require.Len(t, writer.sheets, 1)
	sheet := writer.sheets[0]
	assert.Equal(t, "Chicken Momos", sheet.query)
	require.Len(t, sheet.dishes, 3)

	assert.Equal(t, "Momo King", sheet.dishes[0].RestaurantName)
	assert.Equal(t, 149.0, sheet.dishes[0].Price, "first location's row wins")
	assert.Equal(t, locA, sheet.dishes[0].Source)
	assert.Equal(t, 1300, sheet.dishes[0].TotalRatings)
	assert.Equal(t, "Steameddumplings", sheet.dishes[0].Description, "control characters are stripped")
	assert.Equal(t, "Tibetan, Chinese", sheet.dishes[0].Cuisine)
	assert.Equal(t, "Wow! Momo", sheet.dishes[1].RestaurantName)
	assert.Equal(t, 10000, sheet.dishes[1].TotalRatings)
	assert.Equal(t, "Fried Chicken Momos", sheet.dishes[2].DishName)
	assert.Equal(t, locB, sheet.dishes[2].Source)

	assert.EqualValues(t, 4, stats.DishesFound.Load())
	assert.EqualValues(t, 3, stats.DishesKept.Load())
	assert.EqualValues(t, 1, stats.Duplicates.Load())
	assert.EqualValues(t, 1, stats.SheetsWritten.Load())
	assert.EqualValues(t, 2, stats.PairsDone.Load())
	assert.EqualValues(t, 0, stats.Errors.Load())

	assert.Equal(t, "run-1", store.runID)
	assert.Equal(t, 3, store.rows)
	assert.Equal(t, []QueryResult{{Query: "Chicken Momos", Sheet: "Chicken Momos", Dishes: 3}}, results)
}

func TestRun_FailedLocationContinues(t *testing.T) {
	fetcher := momosFetcher(t)
	fetcher.errs = map[string]error{
		"Chicken Momos|" + locA.String(): &StatusError{StatusCode: 404},
		"Chicken Momos|" + locC.String(): errors.New("connection reset"),
	}
	writer := &fakeWriter{}

	params := model.ScanParams{
		Queries:   []string{"Chicken Momos"},
		Locations: []model.Location{locA, locC, locB},
	}
	stats, err := Run(context.Background(), params, fetcher, writer, zaptest.NewLogger(t), &RunOptions{SuppressStderr: true})
	require.NoError(t, err)

	require.Len(t, writer.sheets, 1)
	dishes := writer.sheets[0].dishes
	require.Len(t, dishes, 2)
	assert.Equal(t, 159.0, dishes[0].Price, "only the surviving location contributes")
	assert.EqualValues(t, 2, stats.Errors.Load())
	assert.EqualValues(t, 3, stats.PairsDone.Load())
}

func TestRun_MalformedResponseContinues(t *testing.T) {
	fetcher := momosFetcher(t)
	fetcher.responses["Chicken Momos|"+locA.String()] = []byte(`<html>blocked</html>`)
	writer := &fakeWriter{}

	params := model.ScanParams{
		Queries:   []string{"Chicken Momos"},
		Locations: []model.Location{locA, locB},
	}
	stats, err := Run(context.Background(), params, fetcher, writer, zaptest.NewLogger(t), &RunOptions{SuppressStderr: true})
	require.NoError(t, err)
	require.Len(t, writer.sheets, 1)
	assert.Len(t, writer.sheets[0].dishes, 2)
	assert.EqualValues(t, 1, stats.Errors.Load())
}

func TestRun_EmptyQuerySkipsSheet(t *testing.T) {
	fetcher := momosFetcher(t)
	writer := &fakeWriter{}

	params := model.ScanParams{
		Queries:   []string{"Nothing Here", "Chicken Momos"},
		Locations: []model.Location{locA},
	}
	stats, err := Run(context.Background(), params, fetcher, writer, nil, &RunOptions{SuppressStderr: true})
	require.NoError(t, err)

	require.Len(t, writer.sheets, 1)
	assert.Equal(t, "Chicken Momos", writer.sheets[0].query)
	assert.EqualValues(t, 1, stats.EmptyQueries.Load())
	assert.EqualValues(t, 2, stats.QueriesDone.Load())
}

func TestRun_WriterErrorIsFatal(t *testing.T) {
	writer := &fakeWriter{err: errors.New("disk full")}
	params := model.ScanParams{
		Queries:   []string{"Chicken Momos", "Veg Momos"},
		Locations: []model.Location{locA},
	}
	_, err := Run(context.Background(), params, momosFetcher(t), writer, nil, &RunOptions{SuppressStderr: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRun_ParallelKeepsVisitOrder(t *testing.T) {
	fetcher := momosFetcher(t)
	writer := &fakeWriter{}

	params := model.ScanParams{
		Queries:     []string{"Chicken Momos"},
		Locations:   []model.Location{locA, locB, locC},
		Concurrency: 3,
	}
	stats, err := Run(context.Background(), params, fetcher, writer, zaptest.NewLogger(t), &RunOptions{SuppressStderr: true})
	require.NoError(t, err)

	require.Len(t, writer.sheets, 1)
	dishes := writer.sheets[0].dishes
	require.Len(t, dishes, 3)
	assert.Equal(t, 149.0, dishes[0].Price)
	assert.Equal(t, "Wow! Momo", dishes[1].RestaurantName)
	assert.Equal(t, "Fried Chicken Momos", dishes[2].DishName)
	assert.EqualValues(t, 1, stats.Duplicates.Load())
	assert.Len(t, fetcher.calls, 3)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	writer := &fakeWriter{}

	params := model.ScanParams{Queries: []string{"Chicken Momos"}, Locations: []model.Location{locA}}
	_, err := Run(ctx, params, momosFetcher(t), writer, nil, &RunOptions{SuppressStderr: true})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, writer.sheets)
}

func TestRun_DebugDump(t *testing.T) {
	dir := t.TempDir()
	params := model.ScanParams{
		Queries:   []string{"Chicken Momos"},
		Locations: []model.Location{locA},
		Debug:     true,
		DebugDir:  dir,
	}
	_, err := Run(context.Background(), params, momosFetcher(t), &fakeWriter{}, nil, &RunOptions{SuppressStderr: true})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "debug_q0_loc0.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "groupedCard")
}
