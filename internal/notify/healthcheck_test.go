package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestPingerEndpoints(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
	}))
	defer srv.Close()

	p := New(srv.URL + "/ping/abc/")
	ctx := context.Background()
	p.Start(ctx)
	p.Success(ctx)
	p.Fail(ctx)

	mu.Lock()
	defer mu.Unlock()
	want := []string{"/ping/abc/start", "/ping/abc", "/ping/abc/fail"}
	if len(paths) != len(want) {
		t.Fatalf("expected %d pings, got %v", len(want), paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("ping %d: expected %s, got %s", i, want[i], paths[i])
		}
	}
}

func TestPingerDisabled(t *testing.T) {
	// Empty URL yields a nil Pinger whose methods are safe no-ops.
	p := New("  ")
	if p != nil {
		t.Fatal("expected nil pinger for empty URL")
	}
	ctx := context.Background()
	p.Start(ctx)
	p.Success(ctx)
	p.Fail(ctx)
}

func TestPingerServerErrorDoesNotPanic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := New(srv.URL)
	p.Success(context.Background())

	// Unreachable endpoint: still just a logged warning.
	p = New("http://127.0.0.1:1")
	p.Fail(context.Background())
}
