package cascade

import (
	"context"
	"errors"
	"image"
	"strings"
	"sync"
	"testing"

	"github.com/MeKo-Tech/lexocr/internal/imgproc"
	"github.com/MeKo-Tech/lexocr/internal/layout"
	"github.com/MeKo-Tech/lexocr/internal/lexicon"
	"github.com/MeKo-Tech/lexocr/internal/recognizer"
	"github.com/MeKo-Tech/lexocr/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	garbage = "xq zzv 'qpl"
	good    = "the quick brown fox jumps over the lazy dog"
)

func testDict() lexicon.Dictionary {
	return lexicon.NewWordSet(testutil.CommonWords...)
}

func testPage() image.Image {
	return testutil.CreateTestImageWithText("the quick brown fox", 200, 80)
}

func newOrchestrator(t *testing.T, opts ...Option) *Orchestrator {
	t.Helper()
	o, err := New(DefaultConfig(), testDict(), opts...)
	require.NoError(t, err)
	return o
}

func TestRun_ShortCircuitsAtThirdThreshold(t *testing.T) {
	rec := testutil.NewScriptedRecognizer(
		testutil.Response{Text: garbage},
		testutil.Response{Text: "the quick fox"},
		testutil.Response{Text: good},
	)
	res := newOrchestrator(t).Run(context.Background(), rec, testPage(), 0.5)

	a, ok := res.Accepted()
	require.True(t, ok)
	assert.Equal(t, 3, rec.CallCount())
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, Unenhanced, a.Phase)
	assert.Equal(t, uint8(128), a.Threshold)
	assert.False(t, a.Enhanced())
	assert.Equal(t, good, a.Text)
	assert.Equal(t, 9, a.ValidWords)
	assert.Equal(t, good, res.Text())
}

func TestRun_ExhaustionCallsRecognizerTwicePerThreshold(t *testing.T) {
	rec := testutil.NewScriptedRecognizer(testutil.Response{Text: garbage})
	res := newOrchestrator(t).Run(context.Background(), rec, testPage(), 0.5)

	_, ok := res.Accepted()
	assert.False(t, ok)
	assert.Equal(t, 2*len(imgproc.DefaultLadder), rec.CallCount())
	assert.Equal(t, 2*len(imgproc.DefaultLadder), res.Attempts)
	assert.False(t, res.EngineFault())
	assert.Equal(t, SentinelInsufficient, res.Text())
}

func TestRun_AcceptsInEnhancedPhase(t *testing.T) {
	responses := make([]testutil.Response, 0, 7)
	for range imgproc.DefaultLadder {
		responses = append(responses, testutil.Response{Text: "the fox"})
	}
	responses = append(responses, testutil.Response{Text: garbage}, testutil.Response{Text: good})

	rec := testutil.NewScriptedRecognizer(responses...)
	res := newOrchestrator(t).Run(context.Background(), rec, testPage(), 0.5)

	a, ok := res.Accepted()
	require.True(t, ok)
	assert.Equal(t, Enhanced, a.Phase)
	assert.True(t, a.Enhanced())
	assert.Equal(t, uint8(150), a.Threshold)
	assert.Equal(t, 7, rec.CallCount())
}

func TestRun_FirstAcceptableAttemptWins(t *testing.T) {
	rec := testutil.NewScriptedRecognizer(
		testutil.Response{Text: "the quick brown fox jumps"},
		testutil.Response{Text: good},
	)
	res := newOrchestrator(t).Run(context.Background(), rec, testPage(), 0.5)

	a, ok := res.Accepted()
	require.True(t, ok)
	assert.Equal(t, uint8(180), a.Threshold)
	assert.Equal(t, 5, a.ValidWords)
	assert.Equal(t, 1, rec.CallCount())
}

func TestRun_DigitsCountAsValid(t *testing.T) {
	rec := testutil.NewScriptedRecognizer(testutil.Response{Text: "1 2 3 4 5"})
	res := newOrchestrator(t).Run(context.Background(), rec, testPage(), 0.5)

	a, ok := res.Accepted()
	require.True(t, ok)
	assert.Equal(t, "1 2 3 4 5", a.Text)
}

func TestRun_AllEngineErrorsIsEngineFault(t *testing.T) {
	engineErr := recognizer.EngineError("text", errors.New("crash"))
	rec := testutil.NewScriptedRecognizer(testutil.Response{Err: engineErr})
	res := newOrchestrator(t).Run(context.Background(), rec, testPage(), 0.5)

	require.True(t, res.EngineFault())
	ex, ok := res.State.(Exhausted)
	require.True(t, ok)
	require.ErrorIs(t, ex.Err, recognizer.ErrEngine)
	assert.Equal(t, 2*len(imgproc.DefaultLadder), rec.CallCount())
	assert.Equal(t, SentinelEngineFailure, res.Text())
}

func TestRun_MixedErrorsIsQualityExhaustion(t *testing.T) {
	rec := testutil.NewScriptedRecognizer(
		testutil.Response{Err: errors.New("transient")},
		testutil.Response{Text: garbage},
	)
	res := newOrchestrator(t).Run(context.Background(), rec, testPage(), 0.5)

	assert.False(t, res.EngineFault())
	assert.Equal(t, SentinelInsufficient, res.Text())
}

func TestRun_ErrorThenSuccessContinues(t *testing.T) {
	rec := testutil.NewScriptedRecognizer(
		testutil.Response{Err: errors.New("transient")},
		testutil.Response{Text: good},
	)
	res := newOrchestrator(t).Run(context.Background(), rec, testPage(), 0.5)

	a, ok := res.Accepted()
	require.True(t, ok)
	assert.Equal(t, uint8(150), a.Threshold)
}

func TestRun_ModeFollowsColumnRatio(t *testing.T) {
	tests := []struct {
		ratio float64
		want  layout.SegmentationMode
	}{
		{0, layout.AutoWithOrientationDetection},
		{0.8, layout.AutoWithOrientationDetection},
		{0.95, layout.SingleBlock},
	}
	for _, tt := range tests {
		rec := testutil.NewScriptedRecognizer(testutil.Response{Text: garbage})
		res := newOrchestrator(t).Run(context.Background(), rec, testPage(), tt.ratio)

		assert.Equal(t, tt.want, res.Mode)
		for _, c := range rec.Calls() {
			assert.Equal(t, tt.want, c.Mode, "ratio %v", tt.ratio)
		}
	}
}

func TestRun_BinarizedImagesKeepPageSize(t *testing.T) {
	rec := testutil.NewScriptedRecognizer(testutil.Response{Text: garbage})
	page := testPage()
	newOrchestrator(t).Run(context.Background(), rec, page, 0)

	for _, c := range rec.Calls() {
		assert.Equal(t, page.Bounds().Size(), c.Bounds.Size())
	}
}

func TestRun_ObserverSeesCanonicalOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []Attempt
	obs := ObserverFunc(func(a Attempt) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, a)
	})

	rec := testutil.NewScriptedRecognizer(testutil.Response{Text: garbage})
	newOrchestrator(t, WithObserver(obs)).Run(context.Background(), rec, testPage(), 0.5)

	require.Len(t, seen, 10)
	for i, a := range seen {
		wantPhase := Unenhanced
		if i >= len(imgproc.DefaultLadder) {
			wantPhase = Enhanced
		}
		assert.Equal(t, wantPhase, a.Phase, "attempt %d", i)
		assert.Equal(t, imgproc.DefaultLadder[i%len(imgproc.DefaultLadder)], a.Threshold, "attempt %d", i)
		assert.Equal(t, garbage, a.Raw)
	}
}

func TestRun_NilImage(t *testing.T) {
	rec := testutil.NewScriptedRecognizer(testutil.Response{Text: good})
	res := newOrchestrator(t).Run(context.Background(), rec, nil, 0.5)

	assert.True(t, res.EngineFault())
	assert.Zero(t, rec.CallCount())
	assert.Equal(t, SentinelEngineFailure, res.Text())
}

type ctxRecognizer struct{ errs []error }

func (c *ctxRecognizer) Recognize(ctx context.Context, _ image.Image, _ layout.SegmentationMode) (string, error) {
	c.errs = append(c.errs, ctx.Err())
	return good, nil
}

func (c *ctxRecognizer) Close() error { return nil }

func TestRun_StartedPageIgnoresCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &ctxRecognizer{}
	res := newOrchestrator(t).Run(ctx, rec, testPage(), 0.5)

	_, ok := res.Accepted()
	assert.True(t, ok)
	require.Len(t, rec.errs, 1)
	assert.NoError(t, rec.errs[0])
}

func TestRun_CustomLadderAndBar(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ladder = imgproc.Ladder{90, 60}
	cfg.MinValidWords = 2
	o, err := New(cfg, testDict())
	require.NoError(t, err)

	rec := testutil.NewScriptedRecognizer(testutil.Response{Text: "fox"}, testutil.Response{Text: "lazy dog"})
	res := o.Run(context.Background(), rec, testPage(), 0.5)

	a, ok := res.Accepted()
	require.True(t, ok)
	assert.Equal(t, uint8(60), a.Threshold)
	assert.Equal(t, "lazy dog", strings.TrimSpace(res.Text()))
}

func TestNew_Validation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ladder = nil
	_, err := New(cfg, testDict())
	require.Error(t, err)

	cfg = DefaultConfig()
	cfg.MinValidWords = 0
	_, err = New(cfg, testDict())
	require.Error(t, err)

	cfg = DefaultConfig()
	cfg.Enhancer.Sigma = 0
	_, err = New(cfg, testDict())
	require.Error(t, err)

	_, err = New(DefaultConfig(), nil)
	require.Error(t, err)
}

func TestDefaultConfigDoesNotAliasLadder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ladder[0] = 1
	assert.Equal(t, uint8(180), imgproc.DefaultLadder[0])
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "unenhanced", Unenhanced.String())
	assert.Equal(t, "enhanced", Enhanced.String())
	assert.Equal(t, "phase(7)", Phase(7).String())
}
