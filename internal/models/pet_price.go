package models

import "time"

// PetPrice is one append-only price observation for a tracked
// (pet, tier, bracket) series. Rows are never updated; the only delete path
// is the explicit series reset.
type PetPrice struct {
	ID          uint      `gorm:"primaryKey"`
	PetName     string    `gorm:"type:text;not null;index:idx_pet_prices,priority:1"`
	Tier        string    `gorm:"type:text;not null;index:idx_pet_prices,priority:2"`
	Bracket     string    `gorm:"type:text;not null;index:idx_pet_prices,priority:3"`
	Price       int64     `gorm:"not null"`
	AuctionUUID string    `gorm:"type:text"`
	ObservedAt  time.Time `gorm:"not null;index:idx_pet_prices,priority:4"`
}

func (PetPrice) TableName() string {
	return "pet_prices"
}
