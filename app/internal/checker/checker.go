package checker

import (
	"context"
	"errors"
	"net/http"
	"time"

	"statuswatch/app/internal/models"

	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 10 * time.Second

const userAgent = "statuswatch/1.0"

// Outcome is the raw transport result of one probe
type Outcome struct {
	Code int
	MS   *int
	Err  error
}

// Timeout reports whether the probe was cut off by its deadline
func (o Outcome) Timeout() bool {
	return errors.Is(o.Err, context.DeadlineExceeded)
}

// Classify maps a transport outcome to a status:
// 200-399 is up, 503 is maintenance, everything else (including errors and
// timeouts) is down.
func Classify(o Outcome) models.Status {
	if o.Err != nil {
		return models.StatusDown
	}
	if o.Code >= 200 && o.Code < 400 {
		return models.StatusUp
	}
	if o.Code == http.StatusServiceUnavailable {
		return models.StatusMaintenance
	}
	return models.StatusDown
}

// HTTPCheck issues a HEAD request (following redirects) and reports the
// final status code. Only the headers are fetched.
func HTTPCheck(ctx context.Context, client *http.Client, url string, timeout time.Duration) Outcome {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if client == nil {
		client = http.DefaultClient
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return Outcome{Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	t0 := time.Now()
	resp, err := client.Do(req)
	d := int(time.Since(t0).Milliseconds())
	if err != nil {
		return Outcome{MS: &d, Err: err}
	}
	_ = resp.Body.Close()
	return Outcome{Code: resp.StatusCode, MS: &d}
}

// Result is the classified probe of one site
type Result struct {
	Site   string
	URL    string
	Status models.Status
	Outcome
}

// Options controls a probing round
type Options struct {
	Timeout     time.Duration // per probe
	Budget      time.Duration // whole round, independent of site count
	Concurrency int
	Client      *http.Client
}

// ProbeAll checks every site in parallel. It never fails: a probe that errors
// or runs past the round budget is classified down.
func ProbeAll(ctx context.Context, sites []models.SiteConfig, opts Options) map[string]Result {
	if opts.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Budget)
		defer cancel()
	}

	results := make([]Result, len(sites))
	var g errgroup.Group
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for i, site := range sites {
		i, site := i, site
		g.Go(func() error {
			out := HTTPCheck(ctx, opts.Client, site.URL, opts.Timeout)
			results[i] = Result{Site: site.Name, URL: site.URL, Status: Classify(out), Outcome: out}
			return nil
		})
	}
	_ = g.Wait()

	byName := make(map[string]Result, len(results))
	for _, r := range results {
		byName[r.Site] = r
	}
	return byName
}

// FindSite finds a site in the slice by its name
func FindSite(sites []models.SiteConfig, name string) *models.SiteConfig {
	for i := range sites {
		if sites[i].Name == name {
			return &sites[i]
		}
	}
	return nil
}
