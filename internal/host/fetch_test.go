package host

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPFetcher_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "tester" {
			t.Errorf("User-Agent = %q, want %q", ua, "tester")
		}
		fmt.Fprintf(w, "expr=%s", r.URL.Query().Get("expr"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(WithUserAgent("tester"))
	body, err := f.Get(context.Background(), srv.URL+"/?expr=1%2B2")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if body != "expr=1+2" {
		t.Errorf("Get() = %q, want %q", body, "expr=1+2")
	}
}

func TestHTTPFetcher_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher().Get(context.Background(), srv.URL)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Get() error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", statusErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("Error() = %q, want status in message", err.Error())
	}
}

func TestHTTPFetcher_MaxBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 64))
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(WithMaxBytes(16)).Get(context.Background(), srv.URL)
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Errorf("Get() error = %v, want ErrResponseTooLarge", err)
	}
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewHTTPFetcher(WithTimeout(50 * time.Millisecond)).Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("Get() error = nil, want timeout")
	}
}

func TestHTTPFetcher_BadURL(t *testing.T) {
	if _, err := NewHTTPFetcher().Get(context.Background(), "://bad"); err == nil {
		t.Error("Get(bad url) error = nil")
	}
}

func TestFuture(t *testing.T) {
	var calls atomic.Int32
	f := FetcherFunc(func(ctx context.Context, url string) (string, error) {
		calls.Add(1)
		return "body:" + url, nil
	})

	fut := Go(context.Background(), f, "u")
	body, err := fut.Wait(context.Background())
	if err != nil || body != "body:u" {
		t.Errorf("Wait() = %q, %v", body, err)
	}
	select {
	case <-fut.Done():
	default:
		t.Error("Done() not closed after Wait returned")
	}
	if calls.Load() != 1 {
		t.Errorf("fetch calls = %d, want 1", calls.Load())
	}
}

func TestFuture_NilFetcher(t *testing.T) {
	_, err := Go(context.Background(), nil, "u").Wait(context.Background())
	if !errors.Is(err, ErrNoFetcher) {
		t.Errorf("Wait() error = %v, want ErrNoFetcher", err)
	}
}

func TestFuture_WaitCancelled(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	f := FetcherFunc(func(ctx context.Context, url string) (string, error) {
		<-block
		return "", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Go(context.Background(), f, "u").Wait(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestResolved(t *testing.T) {
	boom := errors.New("boom")
	_, err := Resolved("", boom).Wait(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("Resolved().Wait() error = %v", err)
	}
}
