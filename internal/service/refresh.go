package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"petflip/internal/catalog"
	"petflip/internal/models"
	"petflip/internal/repository"
)

const refreshScope = "auctions"

// RefreshService owns the write path: fetch the snapshot, select one sample
// per tracked key, append the batch under a shared timestamp, and keep the
// refresh status record current. Overlapping invocations are not guarded;
// the schedule interval is far longer than a cycle and the manual trigger
// is an operator action.
type RefreshService struct {
	Fetcher *AuctionFetcher
	Store   repository.PriceRepository
	Catalog *catalog.Catalog
	Logger  *zap.Logger
	Now     func() time.Time
}

type RefreshResult struct {
	Pages       int       `json:"pages"`
	FailedPages int       `json:"failed_pages"`
	Auctions    int       `json:"auctions"`
	Selected    int       `json:"selected"`
	ObservedAt  time.Time `json:"observed_at"`
}

func (s *RefreshService) Refresh(ctx context.Context) (RefreshResult, error) {
	started := s.nowUTC()

	auctions, stats, err := s.Fetcher.FetchAll(ctx)
	if err != nil {
		s.recordFailure(ctx, started, err)
		return RefreshResult{}, err
	}

	samples := SelectBest(s.Catalog, auctions, started)
	if err := s.Store.RecordPrices(ctx, samples); err != nil {
		s.recordFailure(ctx, started, err)
		return RefreshResult{}, err
	}

	result := RefreshResult{
		Pages:       stats.Pages,
		FailedPages: stats.FailedPages,
		Auctions:    stats.Auctions,
		Selected:    len(samples),
		ObservedAt:  started,
	}
	s.recordSuccess(ctx, started, result)

	s.Logger.Info("auction refresh complete",
		zap.Int("pages", result.Pages),
		zap.Int("failed_pages", result.FailedPages),
		zap.Int("auctions", result.Auctions),
		zap.Int("selected", result.Selected),
		zap.Duration("took", s.nowUTC().Sub(started)))
	return result, nil
}

// LastUpdate returns the status record of the most recent refresh, or nil
// when no refresh has ever run.
func (s *RefreshService) LastUpdate(ctx context.Context) (*models.RefreshState, error) {
	return s.Store.GetRefreshState(ctx, refreshScope)
}

func (s *RefreshService) recordSuccess(ctx context.Context, at time.Time, result RefreshResult) {
	state := s.loadState(ctx)
	state.LastAttemptAt = &at
	state.LastSuccessAt = &at
	state.LastError = nil
	if raw, err := json.Marshal(result); err == nil {
		state.StatsJSON = datatypes.JSON(raw)
	}
	if err := s.Store.SaveRefreshState(ctx, state); err != nil {
		s.Logger.Warn("save refresh state", zap.Error(err))
	}
}

func (s *RefreshService) recordFailure(ctx context.Context, at time.Time, cause error) {
	s.Logger.Error("auction refresh failed", zap.Error(cause))
	state := s.loadState(ctx)
	state.LastAttemptAt = &at
	msg := cause.Error()
	state.LastError = &msg
	if err := s.Store.SaveRefreshState(ctx, state); err != nil {
		s.Logger.Warn("save refresh state", zap.Error(err))
	}
}

func (s *RefreshService) loadState(ctx context.Context) *models.RefreshState {
	state, err := s.Store.GetRefreshState(ctx, refreshScope)
	if err != nil {
		s.Logger.Warn("load refresh state", zap.Error(err))
	}
	if state == nil {
		state = &models.RefreshState{Scope: refreshScope}
	}
	return state
}

func (s *RefreshService) nowUTC() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
