package crawler

import (
	"sync"
	"sync/atomic"
)

// VisitedSet records the paths claimed during one crawl.
// It is safe for concurrent use.
type VisitedSet struct {
	paths sync.Map
	size  atomic.Int64
}

// Claim atomically inserts path and reports whether the caller inserted it.
// Exactly one of any number of concurrent callers wins for a given path.
func (v *VisitedSet) Claim(path string) bool {
	if _, loaded := v.paths.LoadOrStore(path, struct{}{}); loaded {
		return false
	}
	v.size.Add(1)
	return true
}

// Contains reports whether path has been claimed.
func (v *VisitedSet) Contains(path string) bool {
	_, ok := v.paths.Load(path)
	return ok
}

// Len returns the number of claimed paths.
func (v *VisitedSet) Len() int {
	return int(v.size.Load())
}
