package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"petflip/internal/client/hypixel"
)

// ErrSnapshotSchema reports a snapshot whose top-level shape is unusable.
// The whole fetch cycle aborts on it; stored prices stay untouched.
var ErrSnapshotSchema = errors.New("auction snapshot missing totalPages or auctions")

// AuctionFetcher pulls the full paginated auction snapshot. Page 0 is the
// probe carrying totalPages; the remaining pages are fetched concurrently
// under a shared rate limiter. A page that keeps failing after retries is
// dropped with a warning, it never fails the cycle.
type AuctionFetcher struct {
	Client       *hypixel.Client
	Logger       *zap.Logger
	Limiter      *rate.Limiter
	BatchSize    int
	MaxRetries   int
	RetryBackoff time.Duration
}

type FetchStats struct {
	Pages       int `json:"pages"`
	FailedPages int `json:"failed_pages"`
	Auctions    int `json:"auctions"`
}

func (f *AuctionFetcher) FetchAll(ctx context.Context) ([]hypixel.Auction, FetchStats, error) {
	probe, err := f.getPage(ctx, 0)
	if err != nil {
		return nil, FetchStats{}, fmt.Errorf("fetch probe page: %w", err)
	}
	if probe.TotalPages == nil || probe.Auctions == nil {
		return nil, FetchStats{}, ErrSnapshotSchema
	}
	totalPages := *probe.TotalPages

	all := make([]hypixel.Auction, 0, len(*probe.Auctions)*totalPages)
	all = append(all, *probe.Auctions...)

	var mu sync.Mutex
	var failed int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.batchSize())
	for page := 1; page < totalPages; page++ {
		page := page
		g.Go(func() error {
			res, err := f.getPage(gctx, page)
			if err == nil && res.Auctions == nil {
				err = fmt.Errorf("page %d: %w", page, ErrSnapshotSchema)
			}
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				f.Logger.Warn("auction page dropped",
					zap.Int("page", page),
					zap.Error(err))
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			all = append(all, *res.Auctions...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, FetchStats{}, err
	}

	stats := FetchStats{
		Pages:       totalPages,
		FailedPages: failed,
		Auctions:    len(all),
	}
	return all, stats, nil
}

func (f *AuctionFetcher) getPage(ctx context.Context, page int) (*hypixel.AuctionsPage, error) {
	attempts := f.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.RetryBackoff):
			}
		}
		if f.Limiter != nil {
			if err := f.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		res, err := f.Client.GetPage(ctx, page)
		if err == nil {
			return res, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (f *AuctionFetcher) batchSize() int {
	if f.BatchSize < 1 {
		return 20
	}
	return f.BatchSize
}
