package domain

import (
	"github.com/bwmarrin/snowflake"
)

// SyncState tracks a record's reconciliation status against the remote store.
type SyncState string

const (
	// SyncStatePending marks a local change awaiting push.
	SyncStatePending SyncState = "PENDING"
	// SyncStateDeletePending marks a local delete awaiting remote confirmation.
	SyncStateDeletePending SyncState = "DELETE_PENDING"
	// SyncStateSynced marks a record that matches the remote store.
	SyncStateSynced SyncState = "SYNCED"
	// SyncStateError marks a record whose last push attempt failed.
	SyncStateError SyncState = "ERROR"
)

// Product is the locally persisted inventory record. LocalID is stable for
// the record's local lifetime; RemoteID is assigned by the remote store on
// first push and never changes afterwards.
type Product struct {
	LocalID       snowflake.ID `json:"local_id" gorm:"column:local_id;primaryKey"`
	RemoteID      *string      `json:"remote_id,omitempty" gorm:"column:remote_id;type:text;uniqueIndex"`
	Name          string       `json:"name" gorm:"type:text;not null"`
	CategoryID    string       `json:"category_id" gorm:"type:text"`
	CategoryName  string       `json:"category_name" gorm:"type:text"`
	Description   string       `json:"description" gorm:"type:text"`
	CostPrice     float64      `json:"cost_price"`
	SellingPrice  float64      `json:"selling_price"`
	Quantity      int          `json:"quantity" gorm:"not null;default:0"`
	ReorderLevel  int          `json:"reorder_level"`
	CriticalLevel int          `json:"critical_level"`
	CeilingLevel  int          `json:"ceiling_level"`
	Unit          string       `json:"unit" gorm:"type:text"`
	Barcode       string       `json:"barcode" gorm:"type:text"`
	Supplier      string       `json:"supplier" gorm:"type:text"`
	DateAdded     int64        `json:"date_added"`
	AddedBy       string       `json:"added_by" gorm:"type:text"`
	Active        bool         `json:"active" gorm:"not null;default:true"`
	ExpiryDate    int64        `json:"expiry_date"`
	ProductType   string       `json:"product_type" gorm:"type:text"`
	ImagePath     string       `json:"image_path,omitempty" gorm:"type:text"`
	ImageURL      string       `json:"image_url,omitempty" gorm:"type:text"`
	LastUpdated   int64        `json:"last_updated" gorm:"index"`
	SyncState     SyncState    `json:"sync_state" gorm:"type:text;not null;index"`
}

func (Product) TableName() string { return "products" }

// HasRemoteID reports whether the record has been assigned a remote identifier.
func (p *Product) HasRemoteID() bool {
	return p.RemoteID != nil && *p.RemoteID != ""
}

// RemoteIDValue returns the remote identifier or "".
func (p *Product) RemoteIDValue() string {
	if p.RemoteID == nil {
		return ""
	}
	return *p.RemoteID
}

// SetImagePath makes the local image reference authoritative.
func (p *Product) SetImagePath(path string) {
	p.ImagePath = path
	p.ImageURL = ""
}

// SetImageURL makes the remote image reference authoritative.
func (p *Product) SetImageURL(url string) {
	p.ImageURL = url
	p.ImagePath = ""
}
