package host

import (
	"context"
	"sync"
)

// Future is the deferred result of a fetch.
type Future struct {
	done chan struct{}
	once sync.Once
	body string
	err  error
}

// Pending returns an unresolved Future and the function that resolves it.
// Only the first call to resolve has an effect.
func Pending() (*Future, func(body string, err error)) {
	fut := &Future{done: make(chan struct{})}
	return fut, fut.resolve
}

// Go starts fetching url on a new goroutine and returns its Future.
// Cancelling ctx cancels the fetch; the Future then completes with the
// fetcher's error.
func Go(ctx context.Context, f Fetcher, url string) *Future {
	fut, resolve := Pending()
	go func() {
		if f == nil {
			resolve("", ErrNoFetcher)
			return
		}
		resolve(f.Get(ctx, url))
	}()
	return fut
}

// Resolved returns a Future that has already completed.
func Resolved(body string, err error) *Future {
	fut, resolve := Pending()
	resolve(body, err)
	return fut
}

func (f *Future) resolve(body string, err error) {
	f.once.Do(func() {
		f.body, f.err = body, err
		close(f.done)
	})
}

// Done is closed when the fetch completes.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the fetch completes or ctx is done.
func (f *Future) Wait(ctx context.Context) (string, error) {
	select {
	case <-f.done:
		return f.body, f.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
