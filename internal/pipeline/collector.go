package pipeline

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrDuplicatePage is returned when an index is reported twice.
	ErrDuplicatePage = errors.New("duplicate page outcome")
	// ErrPageOutOfRange is returned for an index outside [0, total).
	ErrPageOutOfRange = errors.New("page index out of range")
)

// Collector reassembles page outcomes that arrive in any order and releases
// them in ascending index order without gaps.
type Collector struct {
	total    int
	next     int
	pending  map[int]PageOutcome
	released []PageOutcome
}

// NewCollector creates a collector for total pages.
func NewCollector(total int) *Collector {
	return &Collector{
		total:   total,
		pending: make(map[int]PageOutcome),
	}
}

// Add records an outcome and returns the outcomes that became releasable,
// in ascending order. The slice is empty when o leaves a gap.
func (c *Collector) Add(o PageOutcome) ([]PageOutcome, error) {
	if o.Index < 0 || o.Index >= c.total {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrPageOutOfRange, o.Index, c.total)
	}
	if _, ok := c.pending[o.Index]; ok || o.Index < c.next {
		return nil, fmt.Errorf("%w: %d", ErrDuplicatePage, o.Index)
	}
	c.pending[o.Index] = o

	start := len(c.released)
	for {
		ready, ok := c.pending[c.next]
		if !ok {
			break
		}
		delete(c.pending, c.next)
		c.released = append(c.released, ready)
		c.next++
	}
	return c.released[start:len(c.released):len(c.released)], nil
}

// Drain releases every pending outcome in ascending order, skipping gaps.
// It is used when a run stops early.
func (c *Collector) Drain() []PageOutcome {
	indexes := make([]int, 0, len(c.pending))
	for i := range c.pending {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	start := len(c.released)
	for _, i := range indexes {
		c.released = append(c.released, c.pending[i])
		delete(c.pending, i)
	}
	if len(indexes) > 0 {
		c.next = indexes[len(indexes)-1] + 1
	}
	return c.released[start:len(c.released):len(c.released)]
}

// Outcomes returns every released outcome in release order.
func (c *Collector) Outcomes() []PageOutcome {
	return append([]PageOutcome(nil), c.released...)
}

// Complete reports whether every page in [0, total) has been released.
func (c *Collector) Complete() bool {
	return len(c.pending) == 0 && c.next == c.total && len(c.released) == c.total
}

// Missing returns the indexes that have not been reported.
func (c *Collector) Missing() []int {
	seen := make(map[int]bool, len(c.released)+len(c.pending))
	for _, o := range c.released {
		seen[o.Index] = true
	}
	for i := range c.pending {
		seen[i] = true
	}
	var missing []int
	for i := range c.total {
		if !seen[i] {
			missing = append(missing, i)
		}
	}
	return missing
}
