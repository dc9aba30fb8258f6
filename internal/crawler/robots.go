package crawler

import (
	"context"
	"net/http"
	"time"

	"github.com/temoto/robotstxt"
)

// robotsTimeout bounds the robots.txt request.
const robotsTimeout = 10 * time.Second

// robotsPolicy answers whether a path may be fetched. A nil policy allows everything.
type robotsPolicy struct {
	group *robotstxt.Group
}

func (p *robotsPolicy) allowed(path string) bool {
	if p == nil || p.group == nil {
		return true
	}
	return p.group.Test(path)
}

// loadRobots fetches siteURL/robots.txt. A missing, unreachable or
// unparsable file yields a nil policy.
func (f *Fetcher) loadRobots(ctx context.Context, siteURL string) *robotsPolicy {
	ctx, cancel := context.WithTimeout(ctx, robotsTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, siteURL+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return &robotsPolicy{group: robots.FindGroup(f.userAgent)}
}
