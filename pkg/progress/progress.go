// Package progress provides the capability-based observer the download
// engine reports counts through: a thread-safe found/downloaded/bytes
// counter, with a no-op default so an observer is always optional.
package progress

import "sync/atomic"

// Sink is the capability the engine reports progress through.
//
// IncrementFound is called only by the Lister (single writer; no
// synchronization is required on that call path beyond visibility).
// IncrementDownloaded is called concurrently by every Fetcher worker and
// must be safe for concurrent use.
type Sink interface {
	IncrementFound()
	IncrementDownloaded(bytesWritten int64)
}

// Snapshot is a coherent, point-in-time view of a Counters sink.
type Snapshot struct {
	Found      int64
	Downloaded int64
	Bytes      int64
}

// Counters is the default Sink implementation: atomic counters following
// the same single-writer/multi-writer split as the teacher's crawler
// stats (pkg/crawler.Crawler's atomic.Int64 fields).
type Counters struct {
	found      atomic.Int64
	downloaded atomic.Int64
	bytes      atomic.Int64
}

var _ Sink = (*Counters)(nil)

// NewCounters returns a zeroed Counters sink.
func NewCounters() *Counters {
	return &Counters{}
}

// IncrementFound increments the found counter by one.
func (c *Counters) IncrementFound() {
	c.found.Add(1)
}

// IncrementDownloaded increments the downloaded counter by one and the
// bytes counter by bytesWritten.
func (c *Counters) IncrementDownloaded(bytesWritten int64) {
	c.downloaded.Add(1)
	c.bytes.Add(bytesWritten)
}

// Snapshot returns an internally consistent view. Because found only
// increases and is read after downloaded/bytes in this implementation,
// downloaded <= found always holds even under concurrent increments —
// reading found second could observe a larger value than the moment
// downloaded was read, never a smaller one.
func (c *Counters) Snapshot() Snapshot {
	downloaded := c.downloaded.Load()
	bytes := c.bytes.Load()
	found := c.found.Load()
	return Snapshot{Found: found, Downloaded: downloaded, Bytes: bytes}
}

// noop is the null Sink: safe to use when no observer is configured.
type noop struct{}

func (noop) IncrementFound()                 {}
func (noop) IncrementDownloaded(bytes int64) {}

// NoOp returns a Sink that discards all progress reports.
func NoOp() Sink { return noop{} }
