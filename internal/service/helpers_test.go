package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"petflip/internal/catalog"
	"petflip/internal/models"
	"petflip/internal/repository"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	dir := t.TempDir()

	petList := filepath.Join(dir, "petlist.json")
	petListJSON := `[
		{"Mining": ["Rock", "Scatha"]},
		{"Combat": ["Golden Dragon", "Tiger"]},
		{"Enchanting": ["Guardian"]}
	]`
	if err := os.WriteFile(petList, []byte(petListJSON), 0o644); err != nil {
		t.Fatalf("write pet list: %v", err)
	}

	progression := filepath.Join(dir, "golden_dragon.json")
	progressionJSON := `{"levels": [
		{"level": 102, "totalXP": 25353230},
		{"level": 150, "totalXP": 90000000},
		{"level": 200, "totalXP": 209127730}
	]}`
	if err := os.WriteFile(progression, []byte(progressionJSON), 0o644); err != nil {
		t.Fatalf("write progression: %v", err)
	}

	cat, err := catalog.Load(petList, progression)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

// stubStore is an in-memory PriceRepository for exercising the read and
// write paths without a database.
type stubStore struct {
	stats     map[catalog.ItemKey]repository.PriceStats
	recorded  [][]models.PetPrice
	recordErr error
	state     *models.RefreshState
}

func (s *stubStore) RecordPrices(_ context.Context, samples []models.PetPrice) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	s.recorded = append(s.recorded, samples)
	return nil
}

func (s *stubStore) LatestPrice(context.Context, catalog.ItemKey) (*models.PetPrice, error) {
	return nil, nil
}

func (s *stubStore) WindowAverage(context.Context, catalog.ItemKey, time.Time) (*float64, error) {
	return nil, nil
}

func (s *stubStore) BulkStats(context.Context, time.Time) (map[catalog.ItemKey]repository.PriceStats, error) {
	return s.stats, nil
}

func (s *stubStore) SearchStats(_ context.Context, term string, _ time.Time) (map[catalog.ItemKey]repository.PriceStats, error) {
	term = strings.ToLower(term)
	out := make(map[catalog.ItemKey]repository.PriceStats)
	for key, stat := range s.stats {
		if strings.Contains(strings.ToLower(key.Pet), term) {
			out[key] = stat
		}
	}
	return out, nil
}

func (s *stubStore) ResetPrices(context.Context) error {
	s.stats = make(map[catalog.ItemKey]repository.PriceStats)
	return nil
}

func (s *stubStore) GetRefreshState(context.Context, string) (*models.RefreshState, error) {
	return s.state, nil
}

func (s *stubStore) SaveRefreshState(_ context.Context, state *models.RefreshState) error {
	s.state = state
	return nil
}
