package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// AlertType classifies a derived stock or expiry condition.
type AlertType string

const (
	AlertTypeLowStock      AlertType = "LOW_STOCK"
	AlertTypeCriticalStock AlertType = "CRITICAL_STOCK"
	AlertTypeExpiry7Days   AlertType = "EXPIRY_7_DAYS"
	AlertTypeExpiry3Days   AlertType = "EXPIRY_3_DAYS"
	AlertTypeExpired       AlertType = "EXPIRED"
)

// Alert is an operator-facing notification derived from product state.
// At most one unread alert exists per (product, type) pair.
type Alert struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	ProductID string       `json:"product_id" gorm:"type:text;not null;index:idx_alerts_product_type,priority:1"`
	Type      AlertType    `json:"type" gorm:"type:text;not null;index:idx_alerts_product_type,priority:2"`
	Message   string       `json:"message" gorm:"type:text;not null"`
	Read      bool         `json:"read" gorm:"column:is_read;not null;default:false"`
	Timestamp int64        `json:"timestamp" gorm:"not null"`
}

func (Alert) TableName() string { return "alerts" }

// Repository is the alert sink. AddIfNotExists is the only write path for
// new alerts so deduplication stays in one place.
type Repository interface {
	// AddIfNotExists inserts the alert unless an unread alert for the same
	// (product, type) pair already exists. Returns the stored alert ID, or
	// 0 when the insert was suppressed as a duplicate.
	AddIfNotExists(ctx context.Context, db *gorm.DB, alert *Alert) (snowflake.ID, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Alert, error)
	Find(ctx context.Context, db *gorm.DB, unreadOnly bool, afterID snowflake.ID, limit int) ([]Alert, error)
	MarkRead(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}

var ErrNotFound = errors.New("alert_not_found")
