package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/openretail/stocksync/internal/product/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const productColumns = `local_id, remote_id, name, category_id, category_name, description,
	cost_price, selling_price, quantity, reorder_level, critical_level, ceiling_level,
	unit, barcode, supplier, date_added, added_by, active, expiry_date, product_type,
	image_path, image_url, last_updated, sync_state`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (`+productColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.LocalID,
		product.RemoteID,
		product.Name,
		product.CategoryID,
		product.CategoryName,
		product.Description,
		product.CostPrice,
		product.SellingPrice,
		product.Quantity,
		product.ReorderLevel,
		product.CriticalLevel,
		product.CeilingLevel,
		product.Unit,
		product.Barcode,
		product.Supplier,
		product.DateAdded,
		product.AddedBy,
		product.Active,
		product.ExpiryDate,
		product.ProductType,
		product.ImagePath,
		product.ImageURL,
		product.LastUpdated,
		product.SyncState,
	).Error
}

func (r *repo) FindByLocalID(ctx context.Context, db *gorm.DB, localID snowflake.ID) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT `+productColumns+` FROM products WHERE local_id = ?`,
		localID,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.LocalID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindByRemoteID(ctx context.Context, db *gorm.DB, remoteID string) (*domain.Product, error) {
	if remoteID == "" {
		return nil, nil
	}
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT `+productColumns+` FROM products WHERE remote_id = ?`,
		remoteID,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.LocalID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	if product == nil {
		return gorm.ErrInvalidData
	}
	result := db.WithContext(ctx).Exec(
		`UPDATE products
		 SET remote_id = ?, name = ?, category_id = ?, category_name = ?, description = ?,
		     cost_price = ?, selling_price = ?, quantity = ?, reorder_level = ?,
		     critical_level = ?, ceiling_level = ?, unit = ?, barcode = ?, supplier = ?,
		     date_added = ?, added_by = ?, active = ?, expiry_date = ?, product_type = ?,
		     image_path = ?, image_url = ?, last_updated = ?, sync_state = ?
		 WHERE local_id = ?`,
		product.RemoteID,
		product.Name,
		product.CategoryID,
		product.CategoryName,
		product.Description,
		product.CostPrice,
		product.SellingPrice,
		product.Quantity,
		product.ReorderLevel,
		product.CriticalLevel,
		product.CeilingLevel,
		product.Unit,
		product.Barcode,
		product.Supplier,
		product.DateAdded,
		product.AddedBy,
		product.Active,
		product.ExpiryDate,
		product.ProductType,
		product.ImagePath,
		product.ImageURL,
		product.LastUpdated,
		product.SyncState,
		product.LocalID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, localID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM products WHERE local_id = ?`,
		localID,
	).Error
}

func (r *repo) FindAll(ctx context.Context, db *gorm.DB) ([]domain.Product, error) {
	var items []domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT ` + productColumns + ` FROM products ORDER BY local_id ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindActive(ctx context.Context, db *gorm.DB) ([]domain.Product, error) {
	var items []domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT `+productColumns+` FROM products
		 WHERE active = ? AND sync_state <> ?
		 ORDER BY last_updated DESC`,
		true,
		domain.SyncStateDeletePending,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindBySyncStates(ctx context.Context, db *gorm.DB, limit int, states ...domain.SyncState) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sync_state IN ? ORDER BY last_updated ASC`
	args := []interface{}{states}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var items []domain.Product
	err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) SetSyncInfo(ctx context.Context, db *gorm.DB, localID snowflake.ID, remoteID string, state domain.SyncState) error {
	var remote *string
	if remoteID != "" {
		remote = &remoteID
	}
	result := db.WithContext(ctx).Exec(
		`UPDATE products SET remote_id = ?, sync_state = ? WHERE local_id = ?`,
		remote,
		state,
		localID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
