package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rendis/dishtap/internal/engine/sheet"
	"github.com/rendis/dishtap/internal/engine/storage"
	"github.com/rendis/dishtap/internal/model"
)

const momosBody = `{"data":{"cards":[{"groupedCard":{"cardGroupMap":{"DISH":{"cards":[
 {"card":{"card":{"info":{"name":"Chicken Momos","price":14900,"ratings":{"aggregatedRating":{"rating":"4.3"}}},
  "restaurant":{"info":{"name":"Momo King","totalRatingsString":"1.3K+","cuisines":["Tibetan"]}}}}},
 {"card":{"card":{"info":{"name":"Veg Momos","price":9900},
  "restaurant":{"info":{"name":"Momo King","totalRatingsString":"1.3K+"}}}}}
]}}}}]}}`

type stubFetcher map[string]string // query -> body

func (f stubFetcher) Search(ctx context.Context, loc model.Location, query string) ([]byte, error) {
	if body, ok := f[query]; ok {
		return []byte(body), nil
	}
	return []byte(`{"data":{"cards":[]}}`), nil
}

type stubUploader struct {
	paths []string
	err   error
}

func (u *stubUploader) Name() string { return "stub" }

func (u *stubUploader) Upload(ctx context.Context, path string) (string, error) {
	u.paths = append(u.paths, path)
	return "remote-1", u.err
}

var fixedNow = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }

func request(dir string) Request {
	return Request{
		Queries:     []string{"Chicken Momos", "Unicorn Steak"},
		Locations:   []model.Location{{Lat: "17.4948", Lng: "78.3996"}},
		OutputDir:   dir,
		MetricsFile: filepath.Join(dir, "dishtap.prom"),
	}
}

func TestNewPaths(t *testing.T) {
	p := NewPaths("out", "", fixedNow())
	assert.Equal(t, filepath.Join("out", "SwiggyData-2024-03-09_14-05-07.xlsx"), p.Workbook)
	assert.Equal(t, filepath.Join("out", "SwiggyData-2024-03-09_14-05-07.db"), p.DB)
	assert.Equal(t, filepath.Join("out", "SwiggyData-2024-03-09_14-05-07.log"), p.Log)
}

func TestRun_SavesAndUploads(t *testing.T) {
	dir := t.TempDir()
	up := &stubUploader{}
	var seen Paths

	res, err := Run(context.Background(), request(dir), Deps{
		Fetcher:  stubFetcher{"Chicken Momos": momosBody},
		Uploader: up,
		Logger:   zaptest.NewLogger(t),
		Now:      fixedNow,
	}, Options{SuppressStderr: true, OnPaths: func(p Paths) { seen = p }})
	require.NoError(t, err)

	assert.Equal(t, res.Paths, seen)
	assert.True(t, res.Saved)
	assert.Equal(t, []string{"Chicken Momos"}, res.Sheets)
	assert.Equal(t, "remote-1", res.UploadID)
	assert.Equal(t, []string{res.Paths.Workbook}, up.paths)
	assert.EqualValues(t, 1, res.Stats.EmptyQueries.Load())

	sheets, err := sheet.ReadWorkbook(res.Paths.Workbook)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	require.Len(t, sheets[0].Dishes, 2)
	assert.Equal(t, 1300, sheets[0].Dishes[0].TotalRatings)
	assert.Equal(t, 149.0, sheets[0].Dishes[0].Price)

	store, err := storage.NewStore(res.Paths.DB)
	require.NoError(t, err)
	defer store.Close()
	run, err := store.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, res.RunID, run.ID)
	assert.Equal(t, 1, run.SheetsWritten)
	assert.Equal(t, 2, run.DishesKept)

	prom, err := os.ReadFile(filepath.Join(dir, "dishtap.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "dishtap_sheets_written_total 1")
}

func TestRun_NoDataSkipsSaveAndUpload(t *testing.T) {
	dir := t.TempDir()
	up := &stubUploader{}

	res, err := Run(context.Background(), request(dir), Deps{
		Fetcher:  stubFetcher{},
		Uploader: up,
		Logger:   zaptest.NewLogger(t),
		Now:      fixedNow,
	}, Options{SuppressStderr: true})
	require.NoError(t, err)

	assert.False(t, res.Saved)
	assert.Empty(t, up.paths)
	_, statErr := os.Stat(res.Paths.Workbook)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_UploadFailure(t *testing.T) {
	up := &stubUploader{err: errors.New("quota exceeded")}
	res, err := Run(context.Background(), request(t.TempDir()), Deps{
		Fetcher:  stubFetcher{"Chicken Momos": momosBody},
		Uploader: up,
		Logger:   zaptest.NewLogger(t),
		Now:      fixedNow,
	}, Options{SuppressStderr: true})
	assert.ErrorContains(t, err, "quota exceeded")
	require.NotNil(t, res)
	assert.True(t, res.Saved, "workbook is kept locally")
}

func TestRun_CanceledSkipsUpload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	up := &stubUploader{}

	_, err := Run(ctx, request(t.TempDir()), Deps{
		Fetcher:  stubFetcher{"Chicken Momos": momosBody},
		Uploader: up,
		Logger:   zaptest.NewLogger(t),
		Now:      fixedNow,
	}, Options{SuppressStderr: true})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, up.paths)
}

func TestRun_Validation(t *testing.T) {
	_, err := Run(context.Background(), Request{Locations: []model.Location{{Lat: "1", Lng: "1"}}}, Deps{}, Options{})
	assert.ErrorContains(t, err, "no queries")

	_, err = Run(context.Background(), Request{Queries: []string{"q"}}, Deps{}, Options{})
	assert.ErrorContains(t, err, "no locations")
}

func TestRun_WritesLogFile(t *testing.T) {
	dir := t.TempDir()
	res, err := Run(context.Background(), request(dir), Deps{
		Fetcher: stubFetcher{"Chicken Momos": momosBody},
		Now:     fixedNow,
	}, Options{SuppressStderr: true})
	require.NoError(t, err)

	data, err := os.ReadFile(res.Paths.Log)
	require.NoError(t, err)
	assert.Contains(t, string(data), "session start")
	assert.Contains(t, string(data), "workbook saved")
}
