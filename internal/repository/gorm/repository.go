package gormrepository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"petflip/internal/catalog"
	"petflip/internal/models"
	"petflip/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ repository.PriceRepository = (*Store)(nil)

func (s *Store) RecordPrices(ctx context.Context, samples []models.PetPrice) error {
	if len(samples) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(samples, 200).Error
}

func (s *Store) LatestPrice(ctx context.Context, key catalog.ItemKey) (*models.PetPrice, error) {
	var row models.PetPrice
	err := s.db.WithContext(ctx).
		Where("pet_name = ? AND tier = ? AND bracket = ?", key.Pet, string(key.Tier), string(key.Bracket)).
		Order("observed_at DESC, id DESC").
		First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Store) WindowAverage(ctx context.Context, key catalog.ItemKey, since time.Time) (*float64, error) {
	var avg *float64
	err := s.db.WithContext(ctx).
		Model(&models.PetPrice{}).
		Select("AVG(price)").
		Where("pet_name = ? AND tier = ? AND bracket = ? AND observed_at >= ?",
			key.Pet, string(key.Tier), string(key.Bracket), since).
		Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	return avg, nil
}

type statsRow struct {
	PetName     string
	Tier        string
	Bracket     string
	LatestPrice int64
	LatestUUID  string `gorm:"column:latest_uuid"`
	LatestAt    time.Time
	DayAvg      *float64
	WeekAvg     *float64
}

const statsQuery = `
WITH latest AS (
	SELECT pet_name, tier, bracket, price, auction_uuid, observed_at,
	       ROW_NUMBER() OVER (
	           PARTITION BY pet_name, tier, bracket
	           ORDER BY observed_at DESC, id DESC
	       ) AS rn
	FROM pet_prices
)
SELECT l.pet_name AS pet_name,
       l.tier AS tier,
       l.bracket AS bracket,
       l.price AS latest_price,
       l.auction_uuid AS latest_uuid,
       l.observed_at AS latest_at,
       AVG(CASE WHEN p.observed_at >= ? THEN p.price END) AS day_avg,
       AVG(CASE WHEN p.observed_at >= ? THEN p.price END) AS week_avg
FROM latest l
JOIN pet_prices p
  ON p.pet_name = l.pet_name AND p.tier = l.tier AND p.bracket = l.bracket
WHERE l.rn = 1%s
GROUP BY l.pet_name, l.tier, l.bracket`

func (s *Store) BulkStats(ctx context.Context, now time.Time) (map[catalog.ItemKey]repository.PriceStats, error) {
	return s.stats(ctx, now, "")
}

func (s *Store) SearchStats(ctx context.Context, term string, now time.Time) (map[catalog.ItemKey]repository.PriceStats, error) {
	return s.stats(ctx, now, term)
}

func (s *Store) stats(ctx context.Context, now time.Time, term string) (map[catalog.ItemKey]repository.PriceStats, error) {
	dayCutoff := now.Add(-24 * time.Hour)
	weekCutoff := now.Add(-7 * 24 * time.Hour)

	query := statsQuery
	args := []interface{}{dayCutoff, weekCutoff}
	if term != "" {
		query = strings.Replace(query, "%s", " AND LOWER(l.pet_name) LIKE ?", 1)
		args = append(args, "%"+strings.ToLower(term)+"%")
	} else {
		query = strings.Replace(query, "%s", "", 1)
	}

	var rows []statsRow
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[catalog.ItemKey]repository.PriceStats, len(rows))
	for _, r := range rows {
		key := catalog.ItemKey{
			Pet:     r.PetName,
			Tier:    catalog.Tier(r.Tier),
			Bracket: catalog.Bracket(r.Bracket),
		}
		out[key] = repository.PriceStats{
			Key:         key,
			LatestPrice: r.LatestPrice,
			LatestUUID:  r.LatestUUID,
			LatestAt:    r.LatestAt,
			DayAverage:  r.DayAvg,
			WeekAverage: r.WeekAvg,
		}
	}
	return out, nil
}

func (s *Store) ResetPrices(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.PetPrice{}).Error
}

func (s *Store) GetRefreshState(ctx context.Context, scope string) (*models.RefreshState, error) {
	var row models.RefreshState
	err := s.db.WithContext(ctx).Where("scope = ?", scope).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Store) SaveRefreshState(ctx context.Context, state *models.RefreshState) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}},
		UpdateAll: true,
	}).Create(state).Error
}
