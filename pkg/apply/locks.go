package apply

import (
	"path/filepath"
	"sync"
)

// pathLocks serializes mutations per target file. Parallel fix workers may
// touch different files at once, but edits to one file must not interleave:
// line-based edits from one fix invalidate the line numbers of the next.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for the normalized path and returns its release
// function.
func (p *pathLocks) acquire(path string) func() {
	key := normalizePath(path)

	p.mu.Lock()
	lock, ok := p.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[key] = lock
	}
	p.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func normalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
