package cssmatch

import "sync/atomic"

// IterationCounter accumulates statistics of many matches.  It's safe
// to share a single counter among matchers running in different
// goroutines.
type IterationCounter struct {
	iterations atomic.Int64
	matches    atomic.Int64
	limited    atomic.Int64
}

func (c *IterationCounter) record(r *MatchResult) {
	c.iterations.Add(int64(r.Iterations))
	c.matches.Add(1)
	if r.Reason == ReasonIterationLimit {
		c.limited.Add(1)
	}
}

// Iterations is the sum of the steps taken by all matches
func (c *IterationCounter) Iterations() int64 { return c.iterations.Load() }

// Matches is how many times the matcher ran
func (c *IterationCounter) Matches() int64 { return c.matches.Load() }

// Limited is how many matches gave up because of the iteration limit
func (c *IterationCounter) Limited() int64 { return c.limited.Load() }

// Reset zeroes all the counters
func (c *IterationCounter) Reset() {
	c.iterations.Store(0)
	c.matches.Store(0)
	c.limited.Store(0)
}
