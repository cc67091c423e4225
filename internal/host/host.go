// Package host defines the capabilities macro functions consume from the
// editing surface and the network, and ships adapters implementing them.
//
// The engine never talks to an editor directly. A function that needs the
// current selection takes a Selector; one that needs the buffer takes a
// BufferReader; @getUrl takes a Fetcher. Each is small enough to fake in a test.
package host

import "context"

// Selector reads the current selection of the host editor.
type Selector interface {
	// CurrentSelection returns the selected text, or "" when nothing is selected.
	CurrentSelection() (string, error)

	// HasSelection reports whether the selection has any extent.
	// It distinguishes "nothing selected" from "selected text is empty".
	HasSelection() (bool, error)
}

// BufferReader reads the full text of the host buffer.
type BufferReader interface {
	CurrentBufferText() (string, error)
}

// Editor is the combined editor capability.
type Editor interface {
	Selector
	BufferReader
}

// Fetcher performs a blocking HTTP GET and returns the response body.
type Fetcher interface {
	Get(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a function into a Fetcher.
type FetcherFunc func(ctx context.Context, url string) (string, error)

// Get calls f(ctx, url).
func (f FetcherFunc) Get(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}
