package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Service is the public product surface. Local mutations always succeed
// optimistically; reconciliation failures are visible only through each
// record's sync state.
type Service interface {
	Add(ctx context.Context, req AddRequest) (snowflake.ID, error)
	Update(ctx context.Context, req UpdateRequest) error
	Delete(ctx context.Context, remoteID string) error
	UpdateQuantity(ctx context.Context, remoteID string, newQuantity int) error
	UpsertFromRemote(ctx context.Context, incoming Product) error
	RunExpirySweep(ctx context.Context) error
	RetrySync(ctx context.Context, localID snowflake.ID) error

	Get(ctx context.Context, remoteID string) (*Product, error)
	GetByLocalID(ctx context.Context, localID snowflake.ID) (*Product, error)
	List(ctx context.Context, req ListRequest) ([]Product, error)
}

type AddRequest struct {
	Name          string  `json:"name"`
	CategoryID    string  `json:"category_id"`
	CategoryName  string  `json:"category_name"`
	Description   string  `json:"description"`
	CostPrice     float64 `json:"cost_price"`
	SellingPrice  float64 `json:"selling_price"`
	Quantity      int     `json:"quantity"`
	ReorderLevel  int     `json:"reorder_level"`
	CriticalLevel int     `json:"critical_level"`
	CeilingLevel  int     `json:"ceiling_level"`
	Unit          string  `json:"unit"`
	Barcode       string  `json:"barcode"`
	Supplier      string  `json:"supplier"`
	AddedBy       string  `json:"added_by"`
	ExpiryDate    int64   `json:"expiry_date"`
	ProductType   string  `json:"product_type"`
	ImagePath     string  `json:"image_path"`
}

type UpdateRequest struct {
	RemoteID      string  `json:"remote_id"`
	Name          string  `json:"name"`
	CategoryID    string  `json:"category_id"`
	CategoryName  string  `json:"category_name"`
	Description   string  `json:"description"`
	CostPrice     float64 `json:"cost_price"`
	SellingPrice  float64 `json:"selling_price"`
	Quantity      int     `json:"quantity"`
	ReorderLevel  int     `json:"reorder_level"`
	CriticalLevel int     `json:"critical_level"`
	CeilingLevel  int     `json:"ceiling_level"`
	Unit          string  `json:"unit"`
	ImagePath     string  `json:"image_path"`
}

type ListRequest struct {
	Category   string
	ActiveOnly bool
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not_found")
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNegativeQty  = errors.New("negative_quantity")
)
