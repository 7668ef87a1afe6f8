package service

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"petflip/internal/catalog"
	"petflip/internal/repository"
)

func freshStats(now time.Time, pet string, tier catalog.Tier, low, high int64) map[catalog.ItemKey]repository.PriceStats {
	stats := make(map[catalog.ItemKey]repository.PriceStats)
	lowKey := catalog.ItemKey{Pet: pet, Tier: tier, Bracket: catalog.BracketLow}
	highKey := catalog.ItemKey{Pet: pet, Tier: tier, Bracket: catalog.BracketHigh}
	stats[lowKey] = repository.PriceStats{Key: lowKey, LatestPrice: low, LatestUUID: pet + "-low", LatestAt: now}
	stats[highKey] = repository.PriceStats{Key: highKey, LatestPrice: high, LatestUUID: pet + "-high", LatestAt: now}
	return stats
}

func testAnalyzer(t *testing.T, store *stubStore, now time.Time) *Analyzer {
	t.Helper()
	return &Analyzer{
		Store:       store,
		Catalog:     testCatalog(t),
		Logger:      zap.NewNop(),
		StaleMaxAge: 5 * time.Minute,
		Now:         func() time.Time { return now },
	}
}

func TestAHTaxBoundaries(t *testing.T) {
	cases := []struct {
		price float64
		want  float64
	}{
		{9_999_999, 99_999.99},
		{10_000_000, 200_000},
		{99_999_999, 1_999_999.98},
		{100_000_000, 2_500_000},
	}
	for _, tc := range cases {
		got := ahTax(tc.price)
		if math.Abs(got-tc.want) > 1e-6 {
			t.Fatalf("ahTax(%v) = %v, want %v", tc.price, got, tc.want)
		}
	}
}

func TestProfitPerXPZeroGuard(t *testing.T) {
	if got := profitPerXP(1000, 0); got != 0 {
		t.Fatalf("expected 0 for zero xp requirement, got %v", got)
	}
}

func TestAnalyzeRockEndToEnd(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &stubStore{stats: freshStats(now, "Rock", catalog.TierRare, 1000, 5000)}
	a := testAnalyzer(t, store, now)

	results, err := a.Analyze(context.Background(), "Mining")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	r := results[0]
	if r.Pet != "Rock" || r.Tier != catalog.TierRare || r.Skill != "Mining" {
		t.Fatalf("unexpected identity: %+v", r)
	}
	if r.GrossProfit != 4000 {
		t.Fatalf("gross profit = %d, want 4000", r.GrossProfit)
	}
	// ah tax 1% of the 5000 sale, claim tax 1% of the 4000 spread.
	if r.NetProfit != 3910 {
		t.Fatalf("net profit = %d, want 3910", r.NetProfit)
	}
	if r.ProfitPerXP != 0 {
		t.Fatalf("profit per xp = %v, want 0.00", r.ProfitPerXP)
	}
	if r.ProfitPerXPNote != "" {
		t.Fatalf("unexpected normalization note %q for matching skill", r.ProfitPerXPNote)
	}
	if r.LowUUID != "Rock-low" || r.HighUUID != "Rock-high" {
		t.Fatalf("unexpected uuids: %s, %s", r.LowUUID, r.HighUUID)
	}
}

func TestAnalyzeMajorNormalizationIsQuarter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &stubStore{stats: freshStats(now, "Tiger", catalog.TierLegendary, 1_000_000, 200_000_000)}

	a := testAnalyzer(t, store, now)
	own, err := a.Analyze(context.Background(), "Combat")
	if err != nil {
		t.Fatalf("analyze own skill: %v", err)
	}
	off, err := a.Analyze(context.Background(), "Mining")
	if err != nil {
		t.Fatalf("analyze off skill: %v", err)
	}
	if len(own) != 1 || len(off) != 1 {
		t.Fatalf("expected 1 result each, got %d and %d", len(own), len(off))
	}

	if own[0].ProfitPerXP == 0 {
		t.Fatalf("test fixture produced zero profit per xp")
	}
	if off[0].ProfitPerXP != own[0].ProfitPerXP/4 {
		t.Fatalf("off-category ppx = %v, want exactly %v", off[0].ProfitPerXP, own[0].ProfitPerXP/4)
	}
	if off[0].ProfitPerXPNote == "" {
		t.Fatalf("expected normalization note on off-category result")
	}
	// Only profit_per_xp is scaled.
	if off[0].NetProfit != own[0].NetProfit || off[0].GrossProfit != own[0].GrossProfit {
		t.Fatalf("profit values must not be normalized: %+v vs %+v", off[0], own[0])
	}
}

func TestAnalyzeMinorNormalizationIsTwelfth(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &stubStore{stats: freshStats(now, "Guardian", catalog.TierLegendary, 500_000, 90_000_000)}

	a := testAnalyzer(t, store, now)
	own, err := a.Analyze(context.Background(), "Enchanting")
	if err != nil {
		t.Fatalf("analyze own skill: %v", err)
	}
	off, err := a.Analyze(context.Background(), "Alchemy")
	if err != nil {
		t.Fatalf("analyze off skill: %v", err)
	}
	if off[0].ProfitPerXP != own[0].ProfitPerXP/12 {
		t.Fatalf("off-category ppx = %v, want exactly %v", off[0].ProfitPerXP, own[0].ProfitPerXP/12)
	}
}

func TestAnalyzeStalenessFallsBackToDayAverage(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stale := now.Add(-time.Hour)
	avg := 2000.0

	lowKey := catalog.ItemKey{Pet: "Rock", Tier: catalog.TierRare, Bracket: catalog.BracketLow}
	highKey := catalog.ItemKey{Pet: "Rock", Tier: catalog.TierRare, Bracket: catalog.BracketHigh}
	stats := map[catalog.ItemKey]repository.PriceStats{
		lowKey:  {Key: lowKey, LatestPrice: 999, LatestUUID: "old-low", LatestAt: stale, DayAverage: &avg},
		highKey: {Key: highKey, LatestPrice: 5000, LatestUUID: "fresh-high", LatestAt: now},
	}

	a := testAnalyzer(t, &stubStore{stats: stats}, now)
	results, err := a.Analyze(context.Background(), "Mining")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].LowPrice != avg {
		t.Fatalf("low price = %v, want day average %v", results[0].LowPrice, avg)
	}
}

func TestAnalyzeSkipsUnresolvedBracket(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stale := now.Add(-time.Hour)

	lowKey := catalog.ItemKey{Pet: "Rock", Tier: catalog.TierRare, Bracket: catalog.BracketLow}
	highKey := catalog.ItemKey{Pet: "Rock", Tier: catalog.TierRare, Bracket: catalog.BracketHigh}
	stats := map[catalog.ItemKey]repository.PriceStats{
		// Stale with no fallback average: unresolvable.
		lowKey:  {Key: lowKey, LatestPrice: 1000, LatestUUID: "old-low", LatestAt: stale},
		highKey: {Key: highKey, LatestPrice: 5000, LatestUUID: "fresh-high", LatestAt: now},
	}

	a := testAnalyzer(t, &stubStore{stats: stats}, now)
	results, err := a.Analyze(context.Background(), "Mining")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected unresolved pair to be skipped, got %d results", len(results))
	}
}

func TestSearchMatchesFilteredAnalyze(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stats := freshStats(now, "Rock", catalog.TierRare, 1000, 5000)
	for k, v := range freshStats(now, "Scatha", catalog.TierLegendary, 200_000_000, 300_000_000) {
		stats[k] = v
	}

	a := testAnalyzer(t, &stubStore{stats: stats}, now)
	searched, err := a.Search(context.Background(), "sca", "Mining")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	full, err := a.Analyze(context.Background(), "Mining")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var filtered []AnalysisResult
	for _, r := range full {
		if r.Pet == "Scatha" {
			filtered = append(filtered, r)
		}
	}

	if !reflect.DeepEqual(searched, filtered) {
		t.Fatalf("search results diverge from filtered analyze:\n%+v\nvs\n%+v", searched, filtered)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stats := freshStats(now, "Rock", catalog.TierRare, 1000, 5000)
	for k, v := range freshStats(now, "Tiger", catalog.TierEpic, 100_000, 2_000_000) {
		stats[k] = v
	}

	a := testAnalyzer(t, &stubStore{stats: stats}, now)
	first, err := a.Analyze(context.Background(), "Mining")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	second, err := a.Analyze(context.Background(), "Mining")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("analyze is not deterministic")
	}
}

func TestAnalyzeSortsByProfitPerXPDescending(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stats := freshStats(now, "Rock", catalog.TierRare, 1000, 5000)
	for k, v := range freshStats(now, "Scatha", catalog.TierLegendary, 1_000_000, 300_000_000) {
		stats[k] = v
	}

	a := testAnalyzer(t, &stubStore{stats: stats}, now)
	results, err := a.Analyze(context.Background(), "Mining")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Pet != "Scatha" {
		t.Fatalf("expected highest profit-per-xp first, got %s", results[0].Pet)
	}
	if results[0].ProfitPerXP < results[1].ProfitPerXP {
		t.Fatalf("results not sorted descending: %v < %v", results[0].ProfitPerXP, results[1].ProfitPerXP)
	}
}
