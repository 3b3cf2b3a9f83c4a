package monitoring

import (
	"sync"

	"github.com/sarchlab/edac/fault"
)

// Recent is a fault.Sink that keeps the latest reports in memory.
type Recent struct {
	sync.Mutex
	capacity int
	reports  []*fault.Report
	total    uint64
}

// NewRecent creates a buffer of the given number of reports.
func NewRecent(capacity int) *Recent {
	return &Recent{capacity: max(capacity, 1)}
}

// Report keeps r and drops the oldest report once the buffer is full.
func (b *Recent) Report(r *fault.Report) {
	b.Lock()
	defer b.Unlock()

	b.total++
	b.reports = append(b.reports, r)

	if len(b.reports) > b.capacity {
		b.reports = b.reports[len(b.reports)-b.capacity:]
	}
}

// List returns up to limit reports, newest first. A non-positive limit
// returns all of them.
func (b *Recent) List(limit int) []*fault.Report {
	b.Lock()
	defer b.Unlock()

	n := len(b.reports)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]*fault.Report, 0, n)
	for i := len(b.reports) - 1; len(out) < n; i-- {
		out = append(out, b.reports[i])
	}

	return out
}

// Total returns how many reports were ever received.
func (b *Recent) Total() uint64 {
	b.Lock()
	defer b.Unlock()

	return b.total
}
