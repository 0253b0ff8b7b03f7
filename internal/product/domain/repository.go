package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the local store: durable keyed storage of product records
// with a secondary unique lookup by remote identifier.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, product *Product) error
	FindByLocalID(ctx context.Context, db *gorm.DB, localID snowflake.ID) (*Product, error)
	FindByRemoteID(ctx context.Context, db *gorm.DB, remoteID string) (*Product, error)
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	Delete(ctx context.Context, db *gorm.DB, localID snowflake.ID) error
	FindAll(ctx context.Context, db *gorm.DB) ([]Product, error)
	FindActive(ctx context.Context, db *gorm.DB) ([]Product, error)
	FindBySyncStates(ctx context.Context, db *gorm.DB, limit int, states ...SyncState) ([]Product, error)
	SetSyncInfo(ctx context.Context, db *gorm.DB, localID snowflake.ID, remoteID string, state SyncState) error
}
