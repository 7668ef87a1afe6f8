package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"petflip/internal/catalog"
	"petflip/internal/repository"
)

var majorSkills = map[string]bool{
	"Mining":   true,
	"Fishing":  true,
	"Combat":   true,
	"Farming":  true,
	"Foraging": true,
}

var minorSkills = map[string]bool{
	"Enchanting": true,
	"Alchemy":    true,
}

// AnalysisResult is one row of the profitability ranking. Derived on every
// call, never persisted.
type AnalysisResult struct {
	Pet             string       `json:"name"`
	Tier            catalog.Tier `json:"tier"`
	NetProfit       int64        `json:"profit"`
	GrossProfit     int64        `json:"profit_without_tax"`
	ProfitPerXP     float64      `json:"profit_per_xp"`
	ProfitPerXPNote string       `json:"profit_per_xp_note,omitempty"`
	LowPrice        float64      `json:"low_price"`
	HighPrice       float64      `json:"high_price"`
	LowUUID         string       `json:"low_uuid"`
	HighUUID        string       `json:"high_uuid"`
	Skill           string       `json:"skill"`
	LowDayAvg       *float64     `json:"low_day_avg"`
	LowWeekAvg      *float64     `json:"low_week_avg"`
	HighDayAvg      *float64     `json:"high_day_avg"`
	HighWeekAvg     *float64     `json:"high_week_avg"`
}

// Analyzer ranks tracked pets by flip profitability: buy the low bracket,
// level the pet, sell the high bracket. Prices come from the sample store;
// a bracket resolves to the latest sample while it is fresh, then to the
// 1-day average, and the pair is skipped when either side stays unresolved.
type Analyzer struct {
	Store       repository.PriceRepository
	Catalog     *catalog.Catalog
	Logger      *zap.Logger
	StaleMaxAge time.Duration
	Now         func() time.Time
}

func (a *Analyzer) Analyze(ctx context.Context, skill string) ([]AnalysisResult, error) {
	return a.run(ctx, skill, "")
}

// Search restricts the tracked universe to pets whose name contains term
// before ranking. The numbers are identical to running Analyze and
// filtering the output.
func (a *Analyzer) Search(ctx context.Context, term, skill string) ([]AnalysisResult, error) {
	return a.run(ctx, skill, strings.ToLower(strings.TrimSpace(term)))
}

func (a *Analyzer) run(ctx context.Context, skill, term string) ([]AnalysisResult, error) {
	now := a.nowUTC()

	var (
		stats map[catalog.ItemKey]repository.PriceStats
		err   error
	)
	if term == "" {
		stats, err = a.Store.BulkStats(ctx, now)
	} else {
		stats, err = a.Store.SearchStats(ctx, term, now)
	}
	if err != nil {
		return nil, fmt.Errorf("load price stats: %w", err)
	}

	results := make([]AnalysisResult, 0)
	for _, key := range a.Catalog.Keys() {
		if key.Bracket != catalog.BracketLow {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(key.Pet), term) {
			continue
		}
		highKey := catalog.ItemKey{Pet: key.Pet, Tier: key.Tier, Bracket: catalog.BracketHigh}
		lowStat, lowFound := stats[key]
		highStat, highFound := stats[highKey]

		lowPrice, lowUUID, ok := a.resolvePrice(lowStat, lowFound, now)
		if !ok {
			continue
		}
		highPrice, highUUID, ok := a.resolvePrice(highStat, highFound, now)
		if !ok {
			continue
		}

		petSkill, known := a.Catalog.SkillOf(key.Pet)
		if !known {
			continue
		}

		gross := highPrice - lowPrice
		tax := ahTax(highPrice)
		claim := gross * 0.01
		net := gross - tax - claim

		ppx := profitPerXP(net, a.Catalog.XPRequired(key.Pet, key.Tier))
		note := ""
		switch {
		case majorSkills[skill] && petSkill != skill:
			ppx /= 4
			note = fmt.Sprintf("divided by 4: not a %s pet", skill)
		case minorSkills[skill] && petSkill != skill:
			ppx /= 12
			note = fmt.Sprintf("divided by 12: not a %s pet", skill)
		}

		results = append(results, AnalysisResult{
			Pet:             key.Pet,
			Tier:            key.Tier,
			NetProfit:       int64(net),
			GrossProfit:     int64(gross),
			ProfitPerXP:     ppx,
			ProfitPerXPNote: note,
			LowPrice:        lowPrice,
			HighPrice:       highPrice,
			LowUUID:         lowUUID,
			HighUUID:        highUUID,
			Skill:           petSkill,
			LowDayAvg:       lowStat.DayAverage,
			LowWeekAvg:      lowStat.WeekAverage,
			HighDayAvg:      highStat.DayAverage,
			HighWeekAvg:     highStat.WeekAverage,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].ProfitPerXP > results[j].ProfitPerXP
	})
	return results, nil
}

// resolvePrice picks the price for one bracket: the latest sample while
// within the staleness window, otherwise the 1-day average.
func (a *Analyzer) resolvePrice(stat repository.PriceStats, found bool, now time.Time) (float64, string, bool) {
	if !found {
		return 0, "", false
	}
	if now.Sub(stat.LatestAt) <= a.StaleMaxAge {
		return float64(stat.LatestPrice), stat.LatestUUID, true
	}
	if stat.DayAverage != nil {
		return *stat.DayAverage, stat.LatestUUID, true
	}
	return 0, "", false
}

// ahTax is the auction-house sell fee on the high-bracket listing price:
// 1% below 10m coins, 2% below 100m, 2.5% above.
func ahTax(price float64) float64 {
	switch {
	case price < 10_000_000:
		return price * 0.01
	case price < 100_000_000:
		return price * 0.02
	default:
		return price * 0.025
	}
}

// profitPerXP rounds to two decimals before any off-category scaling, and
// emits 0 rather than dividing by a zero XP requirement.
func profitPerXP(net float64, xpRequired int64) float64 {
	if xpRequired == 0 {
		return 0
	}
	v, _ := decimal.NewFromFloat(net).
		Div(decimal.NewFromInt(xpRequired)).
		Round(2).
		Float64()
	return v
}

func (a *Analyzer) nowUTC() time.Time {
	if a.Now != nil {
		return a.Now().UTC()
	}
	return time.Now().UTC()
}
