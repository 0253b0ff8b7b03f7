package domain

import (
	"context"
	"errors"

	productdomain "github.com/openretail/stocksync/internal/product/domain"
)

// Document is one product record in the remote collection's wire form.
// Pointer fields distinguish absent values so the documented defaults can
// be applied on decode: absent string -> "", absent number -> 0, absent
// isActive -> true.
type Document struct {
	ID            string   `json:"id,omitempty"`
	Name          *string  `json:"productName,omitempty"`
	CategoryID    *string  `json:"categoryId,omitempty"`
	CategoryName  *string  `json:"categoryName,omitempty"`
	Description   *string  `json:"description,omitempty"`
	CostPrice     *float64 `json:"costPrice,omitempty"`
	SellingPrice  *float64 `json:"sellingPrice,omitempty"`
	Quantity      *int     `json:"quantity,omitempty"`
	ReorderLevel  *int     `json:"reorderLevel,omitempty"`
	CriticalLevel *int     `json:"criticalLevel,omitempty"`
	CeilingLevel  *int     `json:"ceilingLevel,omitempty"`
	Unit          *string  `json:"unit,omitempty"`
	Barcode       *string  `json:"barcode,omitempty"`
	Supplier      *string  `json:"supplier,omitempty"`
	DateAdded     *int64   `json:"dateAdded,omitempty"`
	AddedBy       *string  `json:"addedBy,omitempty"`
	Active        *bool    `json:"isActive,omitempty"`
	ExpiryDate    *int64   `json:"expiryDate,omitempty"`
	ProductType   *string  `json:"productType,omitempty"`
	ImageURL      *string  `json:"imageUrl,omitempty"`
}

// Store is the remote authoritative product collection.
type Store interface {
	// FetchAll returns the full remote collection.
	FetchAll(ctx context.Context) ([]Document, error)
	// Upsert creates or replaces a document. When doc.ID is empty the
	// remote store assigns an identifier and returns it.
	Upsert(ctx context.Context, doc Document) (string, error)
	// Delete removes a document by remote identifier.
	Delete(ctx context.Context, id string) error
}

var ErrUnavailable = errors.New("remote_unavailable")

// ToProduct maps a remote document to the local record shape, applying the
// absent-field defaults. The local image path is never set from remote.
func (d Document) ToProduct() productdomain.Product {
	return productdomain.Product{
		RemoteID:      strPtrOrNil(d.ID),
		Name:          strOr(d.Name, ""),
		CategoryID:    strOr(d.CategoryID, ""),
		CategoryName:  strOr(d.CategoryName, ""),
		Description:   strOr(d.Description, ""),
		CostPrice:     floatOr(d.CostPrice, 0),
		SellingPrice:  floatOr(d.SellingPrice, 0),
		Quantity:      intOr(d.Quantity, 0),
		ReorderLevel:  intOr(d.ReorderLevel, 0),
		CriticalLevel: intOr(d.CriticalLevel, 0),
		CeilingLevel:  intOr(d.CeilingLevel, 0),
		Unit:          strOr(d.Unit, ""),
		Barcode:       strOr(d.Barcode, ""),
		Supplier:      strOr(d.Supplier, ""),
		DateAdded:     int64Or(d.DateAdded, 0),
		AddedBy:       strOr(d.AddedBy, ""),
		Active:        boolOr(d.Active, true),
		ExpiryDate:    int64Or(d.ExpiryDate, 0),
		ProductType:   strOr(d.ProductType, ""),
		ImageURL:      strOr(d.ImageURL, ""),
		ImagePath:     "",
	}
}

// FromProduct maps a local record to its remote wire form for push.
func FromProduct(p productdomain.Product) Document {
	return Document{
		ID:            p.RemoteIDValue(),
		Name:          ptr(p.Name),
		CategoryID:    ptr(p.CategoryID),
		CategoryName:  ptr(p.CategoryName),
		Description:   ptr(p.Description),
		CostPrice:     ptr(p.CostPrice),
		SellingPrice:  ptr(p.SellingPrice),
		Quantity:      ptr(p.Quantity),
		ReorderLevel:  ptr(p.ReorderLevel),
		CriticalLevel: ptr(p.CriticalLevel),
		CeilingLevel:  ptr(p.CeilingLevel),
		Unit:          ptr(p.Unit),
		Barcode:       ptr(p.Barcode),
		Supplier:      ptr(p.Supplier),
		DateAdded:     ptr(p.DateAdded),
		AddedBy:       ptr(p.AddedBy),
		Active:        ptr(p.Active),
		ExpiryDate:    ptr(p.ExpiryDate),
		ProductType:   ptr(p.ProductType),
		ImageURL:      ptr(p.ImageURL),
	}
}

func ptr[T any](v T) *T { return &v }

func strPtrOrNil(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func strOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func int64Or(v *int64, def int64) int64 {
	if v == nil {
		return def
	}
	return *v
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
