package crawler

import "sync/atomic"

// Token is the cancellation flag shared by every task of a crawl run.
// It starts active and can only be cleared.
type Token struct {
	active atomic.Bool
}

// NewToken returns an active token.
func NewToken() *Token {
	t := &Token{}
	t.active.Store(true)
	return t
}

// Active reports whether the run may continue.
func (t *Token) Active() bool {
	return t.active.Load()
}

// Stop clears the token. It reports whether this call cleared it.
func (t *Token) Stop() bool {
	return t.active.CompareAndSwap(true, false)
}
