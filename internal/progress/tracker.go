// Package progress accumulates evaluation progress parsed from a log.
package progress

import (
	"math"
	"sync"
)

// Kind selects how a Match is applied to the tracker.
type Kind int

const (
	// KindExamples adds to the evaluated example count.
	KindExamples Kind = iota
	// KindTokens adds to the generated token count.
	KindTokens
	// KindTask replaces the current task label.
	KindTask
)

func (k Kind) String() string {
	switch k {
	case KindExamples:
		return "examples"
	case KindTokens:
		return "tokens"
	case KindTask:
		return "task"
	default:
		return "unknown"
	}
}

// Match is one recognized field from a log line. Count is used by the
// accumulating kinds, Label by KindTask.
type Match struct {
	Kind  Kind
	Count int64
	Label string
}

// Snapshot is a consistent copy of the tracker state.
type Snapshot struct {
	ExamplesEvaluated int64  `json:"examples_evaluated"`
	TokensGenerated   int64  `json:"tokens_generated"`
	CurrentTask       string `json:"current_task"`
}

// Tracker owns the cumulative counters. All access goes through mu.
type Tracker struct {
	mu    sync.Mutex
	state Snapshot
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordMatch applies m. Negative counts are ignored so the counters never
// decrease; sums saturate at math.MaxInt64.
func (t *Tracker) RecordMatch(m Match) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch m.Kind {
	case KindExamples:
		t.state.ExamplesEvaluated = addCount(t.state.ExamplesEvaluated, m.Count)
	case KindTokens:
		t.state.TokensGenerated = addCount(t.state.TokensGenerated, m.Count)
	case KindTask:
		t.state.CurrentTask = m.Label
	}
}

func addCount(total, n int64) int64 {
	switch {
	case n <= 0:
		return total
	case n > math.MaxInt64-total:
		return math.MaxInt64
	default:
		return total + n
	}
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
