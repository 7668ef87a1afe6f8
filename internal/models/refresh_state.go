package models

import (
	"time"

	"gorm.io/datatypes"
)

// RefreshState is the status record for the periodic refresh path. One row
// per scope; the auction refresh uses a single well-known scope.
type RefreshState struct {
	Scope         string         `gorm:"primaryKey;type:text" json:"scope"`
	LastSuccessAt *time.Time     `gorm:"type:datetime" json:"last_success_at"`
	LastAttemptAt *time.Time     `gorm:"type:datetime" json:"last_attempt_at"`
	LastError     *string        `gorm:"type:text" json:"last_error"`
	StatsJSON     datatypes.JSON `gorm:"type:text" json:"stats"`
}

func (RefreshState) TableName() string {
	return "refresh_state"
}
