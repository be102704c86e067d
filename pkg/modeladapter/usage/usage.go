// Package usage records provider-reported token counts.
package usage

import (
	"fmt"
	"sync"
)

// TokenCount holds the prompt and completion token counts of one call.
type TokenCount struct {
	InputTokens  int
	OutputTokens int
}

// Total returns input plus output tokens.
func (tc TokenCount) Total() int {
	return tc.InputTokens + tc.OutputTokens
}

// Plus returns the element-wise sum of tc and other.
func (tc TokenCount) Plus(other TokenCount) TokenCount {
	return TokenCount{
		InputTokens:  tc.InputTokens + other.InputTokens,
		OutputTokens: tc.OutputTokens + other.OutputTokens,
	}
}

func (tc TokenCount) String() string {
	return fmt.Sprintf("in=%d out=%d", tc.InputTokens, tc.OutputTokens)
}

// Tracker accumulates token counts across calls. It is safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	last  TokenCount
	total TokenCount
	calls int
}

// Add records one call.
func (t *Tracker) Add(tc TokenCount) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = tc
	t.total = t.total.Plus(tc)
	t.calls++
}

// Last returns the most recent entry, or false if nothing was recorded.
func (t *Tracker) Last() (TokenCount, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.last, t.calls > 0
}

// Total returns the sum of all recorded entries.
func (t *Tracker) Total() TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.total
}

// Count returns the number of recorded calls.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.calls
}
