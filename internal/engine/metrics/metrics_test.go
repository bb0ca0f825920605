package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counts(t *testing.T) {
	r := NewRecorder()
	r.Fetch(200)
	r.Fetch(200)
	r.Fetch(404)
	r.Found(5)
	r.Duplicates(2)
	r.SheetWritten(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.fetches.WithLabelValues("200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetches.WithLabelValues("404")))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.dishes.WithLabelValues("found")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.dishes.WithLabelValues("duplicate")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.dishes.WithLabelValues("kept")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sheets))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Fetch(500)
		r.Found(1)
		r.Duplicates(1)
		r.SheetWritten(1)
		r.Finish(time.Now())
		assert.NoError(t, r.WriteFile("ignored.prom"))
	})
}

func TestRecorder_WriteFile(t *testing.T) {
	r := NewRecorder()
	r.Fetch(200)
	r.Finish(time.Now().Add(-time.Second))

	path := filepath.Join(t.TempDir(), "dishtap.prom")
	require.NoError(t, r.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `dishtap_fetches_total{status="200"} 1`)
	assert.Contains(t, string(data), "dishtap_last_run_duration_seconds")
}
