package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/openretail/stocksync/internal/alert/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) AddIfNotExists(ctx context.Context, conn *gorm.DB, alert *domain.Alert) (snowflake.ID, error) {
	var stored snowflake.ID

	err := conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Raw(
			`SELECT COUNT(1) FROM alerts WHERE product_id = ? AND type = ? AND is_read = ?`,
			alert.ProductID,
			alert.Type,
			false,
		).Scan(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		err = tx.Exec(
			`INSERT INTO alerts (id, product_id, type, message, is_read, timestamp)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			alert.ID,
			alert.ProductID,
			alert.Type,
			alert.Message,
			alert.Read,
			alert.Timestamp,
		).Error
		if err != nil {
			return err
		}
		stored = alert.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return stored, nil
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Alert, error) {
	var a domain.Alert
	err := conn.WithContext(ctx).Raw(
		`SELECT id, product_id, type, message, is_read, timestamp FROM alerts WHERE id = ?`,
		id,
	).Scan(&a).Error
	if err != nil {
		return nil, err
	}
	if a.ID == 0 {
		return nil, nil
	}
	return &a, nil
}

func (r *repo) Find(ctx context.Context, conn *gorm.DB, unreadOnly bool, afterID snowflake.ID, limit int) ([]domain.Alert, error) {
	stmt := conn.WithContext(ctx).Model(&domain.Alert{})
	if unreadOnly {
		stmt = stmt.Where("is_read = ?", false)
	}
	if afterID != 0 {
		stmt = stmt.Where("id > ?", afterID)
	}
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}

	var items []domain.Alert
	if err := stmt.Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) MarkRead(ctx context.Context, conn *gorm.DB, id snowflake.ID) error {
	result := conn.WithContext(ctx).Exec(
		`UPDATE alerts SET is_read = ? WHERE id = ?`,
		true,
		id,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
