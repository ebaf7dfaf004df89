// Package linkcheck verifies that the links in a post body resolve. The
// check runs on demand only; rendering never depends on the network.
package linkcheck

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/inkpress/inkpress/internal/post"
	"github.com/inkpress/inkpress/pkg/metrics"
)

// Result states.
const (
	ResultOK      = "ok"
	ResultBroken  = "broken"
	ResultSkipped = "skipped"
)

// Result is the outcome for a single link.
type Result struct {
	URL    string `json:"url"`
	Image  bool   `json:"image,omitempty"`
	Result string `json:"result"`
	Status int    `json:"status,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Checker issues the HTTP probes.
type Checker struct {
	client  *http.Client
	timeout time.Duration
}

// NewChecker builds a checker with a per-request timeout. A nil client uses
// a default one.
func NewChecker(client *http.Client, perRequestTimeout time.Duration) *Checker {
	if client == nil {
		client = &http.Client{}
	}
	if perRequestTimeout <= 0 {
		perRequestTimeout = 5 * time.Second
	}
	return &Checker{client: client, timeout: perRequestTimeout}
}

// CheckBody extracts every link and image destination from the markdown body
// and probes the absolute http(s) ones. Relative paths and fragments are
// reported as skipped: they cannot be verified without the deployed site.
func (c *Checker) CheckBody(ctx context.Context, body string) []Result {
	links := post.Links(body)
	out := make([]Result, 0, len(links))
	for _, l := range links {
		out = append(out, c.checkOne(ctx, l))
		if ctx.Err() != nil {
			break
		}
	}
	return out
}

func (c *Checker) checkOne(ctx context.Context, l post.Link) Result {
	r := Result{URL: l.Destination, Image: l.Image}
	if !strings.HasPrefix(l.Destination, "http://") && !strings.HasPrefix(l.Destination, "https://") {
		r.Result = ResultSkipped
		r.Detail = "not an absolute http(s) URL"
		metrics.LinkChecks.WithLabelValues(ResultSkipped).Inc()
		return r
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, l.Destination, nil)
	if err != nil {
		r.Result = ResultBroken
		r.Detail = err.Error()
		metrics.LinkChecks.WithLabelValues(ResultBroken).Inc()
		return r
	}
	resp, err := c.client.Do(req)
	if err != nil {
		r.Result = ResultBroken
		r.Detail = err.Error()
		metrics.LinkChecks.WithLabelValues(ResultBroken).Inc()
		return r
	}
	defer resp.Body.Close()

	r.Status = resp.StatusCode
	if resp.StatusCode >= 400 {
		r.Result = ResultBroken
		metrics.LinkChecks.WithLabelValues(ResultBroken).Inc()
	} else {
		r.Result = ResultOK
		metrics.LinkChecks.WithLabelValues(ResultOK).Inc()
	}
	return r
}

// Broken filters results down to the broken ones.
func Broken(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Result == ResultBroken {
			out = append(out, r)
		}
	}
	return out
}
