package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"testing"

	"github.com/MeKo-Tech/lexocr/internal/cascade"
	"github.com/MeKo-Tech/lexocr/internal/document"
	"github.com/MeKo-Tech/lexocr/internal/layout"
	"github.com/MeKo-Tech/lexocr/internal/lexicon"
	"github.com/MeKo-Tech/lexocr/internal/testutil"
	"github.com/stretchr/testify/require"
)

const baseWidth = 100

// fakeSource serves blank pages whose image width encodes the page index.
type fakeSource struct {
	n      int
	fail   map[int]error
	onPage func(i int)
}

func (s *fakeSource) Len() int { return s.n }

func (s *fakeSource) Page(_ context.Context, i int) (document.Page, error) {
	if s.onPage != nil {
		s.onPage(i)
	}
	p := document.Page{Index: i, Number: i + 1, Width: 612}
	if err := s.fail[i]; err != nil {
		return p, fmt.Errorf("%w: %w", document.ErrRender, err)
	}
	p.Image = image.NewGray(image.Rect(0, 0, baseWidth+i, 20))
	return p, nil
}

// pageOf recovers the page index from an image produced by fakeSource.
func pageOf(img image.Image) int {
	return img.Bounds().Dx() - baseWidth
}

// pageText is an acceptable recognition result unique to page i.
func pageText(i int) string {
	return fmt.Sprintf("page %d the quick brown fox", i)
}

func acceptingScript(_ int, img image.Image, _ layout.SegmentationMode) (string, error) {
	return pageText(pageOf(img)), nil
}

// memorySink records outcomes in arrival order.
type memorySink struct {
	mu       sync.Mutex
	outcomes []PageOutcome
	failOn   map[int]bool
}

func (m *memorySink) WritePage(o PageOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn[o.Index] {
		return errors.New("disk full")
	}
	m.outcomes = append(m.outcomes, o)
	return nil
}

func (m *memorySink) indexes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return indexes(m.outcomes)
}

type countingObserver struct {
	mu         sync.Mutex
	outcomes   int
	sinkErrors int
}

func (c *countingObserver) ObserveOutcome(PageOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes++
}

func (c *countingObserver) ObserveSinkError(PageOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinkErrors++
}

func newTestOrchestrator(t *testing.T) *cascade.Orchestrator {
	t.Helper()
	o, err := cascade.New(cascade.DefaultConfig(), lexicon.NewWordSet(testutil.CommonWords...))
	require.NoError(t, err)
	return o
}

func newTestPipeline(t *testing.T, factory *testutil.RecognizerFactory, cfg Config) *Pipeline {
	t.Helper()
	p, err := New(newTestOrchestrator(t), factory.Factory(), cfg)
	require.NoError(t, err)
	return p
}
