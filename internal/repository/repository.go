package repository

import (
	"context"
	"time"

	"petflip/internal/catalog"
	"petflip/internal/models"
)

// PriceStats is the per-item aggregate used by analysis: the most recent
// observed price plus rolling 1-day and 7-day averages. Averages are nil
// when no observation falls inside the window.
type PriceStats struct {
	Key         catalog.ItemKey
	LatestPrice int64
	LatestUUID  string
	LatestAt    time.Time
	DayAverage  *float64
	WeekAverage *float64
}

// PriceRepository persists observed auction prices and refresh bookkeeping.
type PriceRepository interface {
	// RecordPrices appends a batch of observations. Samples in one batch
	// share an ObservedAt timestamp set by the caller.
	RecordPrices(ctx context.Context, samples []models.PetPrice) error

	// LatestPrice returns the most recent observation for the item, or
	// nil when the item has never been observed.
	LatestPrice(ctx context.Context, key catalog.ItemKey) (*models.PetPrice, error)

	// WindowAverage returns the average price over observations at or
	// after since, or nil when the window is empty.
	WindowAverage(ctx context.Context, key catalog.ItemKey, since time.Time) (*float64, error)

	// BulkStats returns stats for every item with at least one
	// observation, keyed by item. now anchors the averaging windows.
	BulkStats(ctx context.Context, now time.Time) (map[catalog.ItemKey]PriceStats, error)

	// SearchStats is BulkStats restricted to pets whose name contains
	// term, case-insensitively.
	SearchStats(ctx context.Context, term string, now time.Time) (map[catalog.ItemKey]PriceStats, error)

	// ResetPrices drops all observations. Refresh state is kept.
	ResetPrices(ctx context.Context) error

	GetRefreshState(ctx context.Context, scope string) (*models.RefreshState, error)
	SaveRefreshState(ctx context.Context, state *models.RefreshState) error
}
