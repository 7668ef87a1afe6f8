package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"petflip/internal/client/hypixel"
)

func pageBody(page, totalPages int, auctions string) string {
	return fmt.Sprintf(`{"page": %d, "totalPages": %d, "auctions": [%s]}`, page, totalPages, auctions)
}

func newFetcher(srv *httptest.Server) *AuctionFetcher {
	return &AuctionFetcher{
		Client:       hypixel.NewClient(srv.Client(), srv.URL),
		Logger:       zap.NewNop(),
		BatchSize:    4,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	}
}

func TestFetchAllAbortsOnSchemaFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success": true}`)
	}))
	defer srv.Close()

	_, _, err := newFetcher(srv).FetchAll(context.Background())
	if !errors.Is(err, ErrSnapshotSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestFetchAllToleratesFailedPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "":
			fmt.Fprint(w, pageBody(0, 3, `{"uuid": "p0", "item_name": "x", "tier": "RARE", "starting_bid": 1, "bin": true}`))
		case "1":
			fmt.Fprint(w, pageBody(1, 3, `{"uuid": "p1", "item_name": "x", "tier": "RARE", "starting_bid": 2, "bin": true}`))
		default:
			http.Error(w, "upstream exploded", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	auctions, stats, err := newFetcher(srv).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("expected partial failure to be tolerated, got %v", err)
	}
	if stats.Pages != 3 || stats.FailedPages != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(auctions) != 2 {
		t.Fatalf("expected auctions from surviving pages, got %d", len(auctions))
	}
}

func TestFetchAllRetriesTransientFailure(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "" {
			fmt.Fprint(w, pageBody(0, 2, ""))
			return
		}
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n == 1 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, pageBody(1, 2, `{"uuid": "p1", "item_name": "x", "tier": "RARE", "starting_bid": 2, "bin": true}`))
	}))
	defer srv.Close()

	auctions, stats, err := newFetcher(srv).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if stats.FailedPages != 0 {
		t.Fatalf("expected retry to recover the page, stats: %+v", stats)
	}
	if len(auctions) != 1 {
		t.Fatalf("expected 1 auction after retry, got %d", len(auctions))
	}
}

func TestFetchAllEmptySnapshotPageIsSchemaFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "" {
			fmt.Fprint(w, pageBody(0, 2, ""))
			return
		}
		// Later page missing the auctions array: dropped, not fatal.
		fmt.Fprint(w, `{"page": 1, "totalPages": 2}`)
	}))
	defer srv.Close()

	_, stats, err := newFetcher(srv).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if stats.FailedPages != 1 {
		t.Fatalf("expected malformed later page to count as failed, stats: %+v", stats)
	}
}
