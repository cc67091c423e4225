package funcs

import (
	"context"
	"fmt"
	"regexp"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/macrostorm/internal/expand"
	"github.com/dshills/macrostorm/internal/host"
	"github.com/dshills/macrostorm/internal/logging"
)

var getURLPattern = regexp.MustCompile(`@getUrl\((.*?)\)`)

// GetURL expands @getUrl(url) to the body fetched from url. A failed fetch
// is rendered inline and does not abort the expansion.
type GetURL struct {
	fetcher host.Fetcher
	limit   int
	logger  *logging.Logger
	futures map[string]*host.Future
}

// NewGetURL creates a GetURL that fetches through env.Fetcher.
func NewGetURL(env Env) *GetURL {
	return &GetURL{
		fetcher: env.Fetcher,
		limit:   env.fetchLimit(),
		logger:  env.logger().WithComponent("getUrl"),
		futures: make(map[string]*host.Future),
	}
}

// Name implements expand.Function.
func (f *GetURL) Name() string { return "getUrl" }

// Pattern implements expand.Function.
func (f *GetURL) Pattern() *regexp.Regexp { return getURLPattern }

// Prepare implements expand.Preparer. It starts one fetch per distinct URL
// in the pass, at most limit at a time.
func (f *GetURL) Prepare(ctx context.Context, matches []expand.Match) {
	if f.fetcher == nil {
		return
	}
	type job struct {
		url     string
		resolve func(string, error)
	}
	var jobs []job
	for _, m := range matches {
		url := m.Group(1)
		if _, ok := f.futures[url]; ok {
			continue
		}
		fut, resolve := host.Pending()
		f.futures[url] = fut
		jobs = append(jobs, job{url: url, resolve: resolve})
	}
	if len(jobs) == 0 {
		return
	}
	f.logger.Debug("prefetching %d urls", len(jobs))

	go func() {
		var g errgroup.Group
		g.SetLimit(f.limit)
		for _, j := range jobs {
			j := j
			g.Go(func() error {
				j.resolve(f.fetcher.Get(ctx, j.url))
				return nil
			})
		}
		_ = g.Wait()
	}()
}

// Evaluate implements expand.Function.
func (f *GetURL) Evaluate(ctx context.Context, m expand.Match) (string, error) {
	if f.fetcher == nil {
		return "", host.ErrNoFetcher
	}
	url := m.Group(1)
	fut, ok := f.futures[url]
	if !ok {
		fut = host.Go(ctx, f.fetcher, url)
		f.futures[url] = fut
	}
	body, err := fut.Wait(ctx)
	if err != nil {
		f.logger.WithField("url", url).Warn("fetch failed: %v", err)
		return fmt.Sprintf("[ERROR: Unable to retrieve %s: %s]", url, err), nil
	}
	return body, nil
}
