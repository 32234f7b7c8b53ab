package pipeline

import "sync"

// DefaultFailureWindow is the sliding-window size of the fix-phase circuit
// breaker.
const DefaultFailureWindow = 5

// breaker halts the fix phase when every attempt in a sliding window of
// recent outcomes failed. A single success anywhere in the window resets
// the streak.
type breaker struct {
	mu      sync.Mutex
	size    int
	window  []bool
	tripped bool
}

func newBreaker(size int) *breaker {
	if size <= 0 {
		size = DefaultFailureWindow
	}
	return &breaker{size: size}
}

// record adds one attempt outcome and reports whether the breaker is now
// tripped. Once tripped it stays tripped for the rest of the run.
func (b *breaker) record(success bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.window = append(b.window, success)
	if len(b.window) > b.size {
		b.window = b.window[len(b.window)-b.size:]
	}
	if len(b.window) == b.size {
		allFailed := true
		for _, ok := range b.window {
			if ok {
				allFailed = false
				break
			}
		}
		if allFailed {
			b.tripped = true
		}
	}
	return b.tripped
}

// isTripped reports the breaker state without recording.
func (b *breaker) isTripped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tripped
}
