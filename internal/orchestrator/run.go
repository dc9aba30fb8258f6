package orchestrator

import (
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/sitesearch/internal/crawler"
)

// Run is the handle of one full crawl run.
type Run struct {
	// ID identifies the run in logs.
	ID uuid.UUID

	// StartedAt is the time Start accepted the run.
	StartedAt time.Time

	token *crawler.Token
	done  chan struct{}
	err   error
}

func newRun() *Run {
	return &Run{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		token:     crawler.NewToken(),
		done:      make(chan struct{}),
	}
}

// Done returns a channel that is closed when the run has finished and the
// orchestrator is idle again.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run has finished. It returns the first storage or
// indexing failure of the run; stopped sites are not an error.
func (r *Run) Wait() error {
	<-r.done
	return r.err
}

// Stopped reports whether the run's token has been cleared.
func (r *Run) Stopped() bool {
	return !r.token.Active()
}
