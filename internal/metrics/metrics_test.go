package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MeKo-Tech/lexocr/internal/cascade"
	"github.com/MeKo-Tech/lexocr/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAttempt_Labels(t *testing.T) {
	r := New(5)

	r.ObserveAttempt(cascade.Attempt{Phase: cascade.Unenhanced, Threshold: 180, ValidWords: 2, Duration: 10 * time.Millisecond})
	r.ObserveAttempt(cascade.Attempt{Phase: cascade.Unenhanced, Threshold: 150, Err: errors.New("engine")})
	r.ObserveAttempt(cascade.Attempt{Phase: cascade.Enhanced, Threshold: 180, ValidWords: 7})

	assert.InDelta(t, 1, testutil.ToFloat64(r.attemptsTotal.WithLabelValues("unenhanced", "180", ResultRejected)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.attemptsTotal.WithLabelValues("unenhanced", "150", ResultError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.attemptsTotal.WithLabelValues("enhanced", "180", ResultAccepted)), 0)
	assert.Equal(t, 3, testutil.CollectAndCount(r.attemptsTotal))
	assert.Equal(t, 2, testutil.CollectAndCount(r.recognizeDuration))
}

func TestObserveAttempt_ValidWordsSkipsErrors(t *testing.T) {
	r := New(5)
	r.ObserveAttempt(cascade.Attempt{Threshold: 180, Err: errors.New("engine")})
	r.ObserveAttempt(cascade.Attempt{Threshold: 150, ValidWords: 3})

	expected := `
# HELP lexocr_valid_words Valid words per recognition attempt
# TYPE lexocr_valid_words histogram
lexocr_valid_words_bucket{le="0"} 0
lexocr_valid_words_bucket{le="1"} 0
lexocr_valid_words_bucket{le="2"} 0
lexocr_valid_words_bucket{le="4"} 1
lexocr_valid_words_bucket{le="5"} 1
lexocr_valid_words_bucket{le="10"} 1
lexocr_valid_words_bucket{le="25"} 1
lexocr_valid_words_bucket{le="50"} 1
lexocr_valid_words_bucket{le="100"} 1
lexocr_valid_words_bucket{le="250"} 1
lexocr_valid_words_bucket{le="500"} 1
lexocr_valid_words_bucket{le="1000"} 1
lexocr_valid_words_bucket{le="+Inf"} 1
lexocr_valid_words_sum 3
lexocr_valid_words_count 1
`
	require.NoError(t, testutil.CollectAndCompare(r.validWords, strings.NewReader(expected)))
}

func TestValidWordBuckets(t *testing.T) {
	assert.Equal(t, []float64{0, 1, 2, 4, 5, 10, 25, 50, 100, 250, 500, 1000}, validWordBuckets(5))
	assert.Equal(t, []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}, validWordBuckets(6))
	assert.Equal(t, []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}, validWordBuckets(1))
	assert.Equal(t, []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 4999}, validWordBuckets(5000))
}

func TestObserveOutcomeAndSinkErrors(t *testing.T) {
	r := New(5)
	r.ObserveOutcome(pipeline.PageOutcome{Status: pipeline.StatusAccepted})
	r.ObserveOutcome(pipeline.PageOutcome{Status: pipeline.StatusAccepted})
	r.ObserveOutcome(pipeline.PageOutcome{Status: pipeline.StatusRenderFailure})
	r.ObserveSinkError(pipeline.PageOutcome{}, errors.New("disk full"))

	assert.InDelta(t, 2, testutil.ToFloat64(r.pageOutcomesTotal.WithLabelValues("accepted")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.pageOutcomesTotal.WithLabelValues("render_failure")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.sinkErrorsTotal), 0)
}

func TestWriteTextfile(t *testing.T) {
	r := New(5)
	r.ObserveOutcome(pipeline.PageOutcome{Status: pipeline.StatusExhausted})

	path := filepath.Join(t.TempDir(), "textfile", "lexocr.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `lexocr_page_outcomes_total{status="exhausted"} 1`)
	assert.Contains(t, string(data), "lexocr_sink_errors_total 0")
}

func TestRegistryIsPrivate(t *testing.T) {
	a, b := New(5), New(5)
	a.ObserveSinkError(pipeline.PageOutcome{}, errors.New("x"))
	assert.InDelta(t, 0, testutil.ToFloat64(b.sinkErrorsTotal), 0)
	assert.NotSame(t, a.Registry(), b.Registry())
}
