package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	alertengine "github.com/openretail/stocksync/internal/alert/engine"
	"github.com/openretail/stocksync/internal/authz"
	"github.com/openretail/stocksync/internal/clock"
	"github.com/openretail/stocksync/internal/product/domain"
	"github.com/openretail/stocksync/internal/product/liveview"
	"github.com/openretail/stocksync/internal/syncer"
	"github.com/openretail/stocksync/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Authz   authz.Service
	Alerts  *alertengine.Engine
	Hub     *liveview.Hub
	Trigger *syncer.Trigger
}

type serviceImpl struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	authz   authz.Service
	alerts  *alertengine.Engine
	hub     *liveview.Hub
	trigger *syncer.Trigger
}

func New(p Params) domain.Service {
	return &serviceImpl{
		db:      p.DB,
		log:     p.Log.Named("product.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		authz:   p.Authz,
		alerts:  p.Alerts,
		hub:     p.Hub,
		trigger: p.Trigger,
	}
}

// Add writes the product locally with a fresh local identifier and queues it
// for push. The write never waits on the remote store.
func (s *serviceImpl) Add(ctx context.Context, req domain.AddRequest) (snowflake.ID, error) {
	if err := s.authorize(ctx, authz.ActionProductCreate); err != nil {
		return 0, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return 0, domain.ErrInvalidName
	}

	now := s.clock.Now().UnixMilli()
	product := &domain.Product{
		LocalID:       s.genID.Generate(),
		Name:          req.Name,
		CategoryID:    req.CategoryID,
		CategoryName:  req.CategoryName,
		Description:   req.Description,
		CostPrice:     req.CostPrice,
		SellingPrice:  req.SellingPrice,
		Quantity:      req.Quantity,
		ReorderLevel:  req.ReorderLevel,
		CriticalLevel: req.CriticalLevel,
		CeilingLevel:  req.CeilingLevel,
		Unit:          req.Unit,
		Barcode:       req.Barcode,
		Supplier:      req.Supplier,
		DateAdded:     now,
		AddedBy:       req.AddedBy,
		Active:        true,
		ExpiryDate:    req.ExpiryDate,
		ProductType:   req.ProductType,
		LastUpdated:   now,
		SyncState:     domain.SyncStatePending,
	}
	if req.ImagePath != "" {
		product.SetImagePath(req.ImagePath)
	}

	if err := s.repo.Insert(ctx, s.db, product); err != nil {
		return 0, err
	}

	s.hub.Publish(liveview.Change{Type: liveview.ChangeCreated, Product: *product})
	s.evaluateExpiry(ctx, product)
	s.trigger.Request()

	s.log.Info("product added",
		zap.Int64("local_id", product.LocalID.Int64()),
		zap.String("name", product.Name),
	)
	return product.LocalID, nil
}

func (s *serviceImpl) Update(ctx context.Context, req domain.UpdateRequest) error {
	if err := s.authorize(ctx, authz.ActionProductUpdate); err != nil {
		return err
	}
	if strings.TrimSpace(req.Name) == "" {
		return domain.ErrInvalidName
	}

	product, err := s.resolve(ctx, req.RemoteID)
	if errors.Is(err, domain.ErrNotFound) {
		return s.insertFromUpdate(ctx, req)
	}
	if err != nil {
		return err
	}

	oldQuantity := product.Quantity
	product.Name = req.Name
	product.CategoryID = req.CategoryID
	product.CategoryName = req.CategoryName
	product.Description = req.Description
	product.CostPrice = req.CostPrice
	product.SellingPrice = req.SellingPrice
	product.Quantity = req.Quantity
	product.ReorderLevel = req.ReorderLevel
	product.CriticalLevel = req.CriticalLevel
	product.CeilingLevel = req.CeilingLevel
	product.Unit = req.Unit
	if req.ImagePath != "" {
		product.SetImagePath(req.ImagePath)
	}
	product.LastUpdated = s.clock.Now().UnixMilli()
	product.SyncState = domain.SyncStatePending

	if err := s.repo.Update(ctx, s.db, product); err != nil {
		return err
	}

	s.hub.Publish(liveview.Change{Type: liveview.ChangeUpdated, Product: *product})
	s.evaluateAlerts(ctx, product, oldQuantity, product.Quantity)
	s.trigger.Request()
	return nil
}

// insertFromUpdate handles an update addressing a record this store has never
// seen, usually one created on another device. The row is inserted PENDING so
// the next push reconciles it.
func (s *serviceImpl) insertFromUpdate(ctx context.Context, req domain.UpdateRequest) error {
	now := s.clock.Now().UnixMilli()
	product := &domain.Product{
		LocalID:       s.genID.Generate(),
		Name:          req.Name,
		CategoryID:    req.CategoryID,
		CategoryName:  req.CategoryName,
		Description:   req.Description,
		CostPrice:     req.CostPrice,
		SellingPrice:  req.SellingPrice,
		Quantity:      req.Quantity,
		ReorderLevel:  req.ReorderLevel,
		CriticalLevel: req.CriticalLevel,
		CeilingLevel:  req.CeilingLevel,
		Unit:          req.Unit,
		DateAdded:     now,
		Active:        true,
		LastUpdated:   now,
		SyncState:     domain.SyncStatePending,
	}
	if _, parseErr := snowflake.ParseString(req.RemoteID); parseErr != nil {
		product.RemoteID = &req.RemoteID
	}
	if req.ImagePath != "" {
		product.SetImagePath(req.ImagePath)
	}

	if err := s.repo.Insert(ctx, s.db, product); err != nil {
		return err
	}

	s.hub.Publish(liveview.Change{Type: liveview.ChangeCreated, Product: *product})
	s.evaluateExpiry(ctx, product)
	s.trigger.Request()
	return nil
}

// Delete marks a pushed record for remote deletion; it stays locally visible
// to the sync machinery until the remote delete is confirmed. A record that
// never reached the remote store is removed outright.
func (s *serviceImpl) Delete(ctx context.Context, remoteID string) error {
	if err := s.authorize(ctx, authz.ActionProductDelete); err != nil {
		return err
	}

	product, err := s.resolve(ctx, remoteID)
	if err != nil {
		return err
	}

	if product.HasRemoteID() {
		product.SyncState = domain.SyncStateDeletePending
		product.LastUpdated = s.clock.Now().UnixMilli()
		if err := s.repo.Update(ctx, s.db, product); err != nil {
			return err
		}
	} else {
		if err := s.repo.Delete(ctx, s.db, product.LocalID); err != nil {
			return err
		}
	}

	s.hub.Publish(liveview.Change{Type: liveview.ChangeDeleted, Product: *product})
	s.trigger.Request()

	s.log.Info("product deleted",
		zap.Int64("local_id", product.LocalID.Int64()),
		zap.Bool("remote_pending", product.HasRemoteID()),
	)
	return nil
}

// UpdateQuantity needs no authorization; stock counts move during normal
// sales flow and only require the record to exist locally.
func (s *serviceImpl) UpdateQuantity(ctx context.Context, remoteID string, newQuantity int) error {
	if newQuantity < 0 {
		return domain.ErrNegativeQty
	}

	product, err := s.resolve(ctx, remoteID)
	if err != nil {
		return err
	}

	oldQuantity := product.Quantity
	product.Quantity = newQuantity
	product.LastUpdated = s.clock.Now().UnixMilli()
	product.SyncState = domain.SyncStatePending

	if err := s.repo.Update(ctx, s.db, product); err != nil {
		return err
	}

	s.hub.Publish(liveview.Change{Type: liveview.ChangeUpdated, Product: *product})
	s.evaluateAlerts(ctx, product, oldQuantity, newQuantity)
	s.trigger.Request()
	return nil
}

// UpsertFromRemote applies one pulled remote document to the local store.
// The remote copy wins unconditionally and the record lands SYNCED, so a
// local edit raced by a pull is overwritten. The local image path is kept;
// the remote image URL replaces the stored one only when non-empty. Only the
// expiry check runs here: a pull pass re-applies unchanged documents, and
// re-running the quantity evaluation each pass would re-notify the critical
// stock listeners for products that never moved.
func (s *serviceImpl) UpsertFromRemote(ctx context.Context, incoming domain.Product) error {
	if !incoming.HasRemoteID() {
		return domain.ErrInvalidID
	}

	existing, err := s.repo.FindByRemoteID(ctx, s.db, incoming.RemoteIDValue())
	if err != nil {
		return err
	}

	if existing == nil {
		incoming.LocalID = s.genID.Generate()
		incoming.LastUpdated = s.clock.Now().UnixMilli()
		incoming.SyncState = domain.SyncStateSynced
		incoming.ImagePath = ""
		if err := s.repo.Insert(ctx, s.db, &incoming); err != nil {
			// A concurrent pass applied the same document first; its copy
			// is the same remote truth.
			if db.IsDuplicateKeyErr(err) {
				return nil
			}
			return err
		}
		s.hub.Publish(liveview.Change{Type: liveview.ChangeCreated, Product: incoming})
		s.evaluateExpiry(ctx, &incoming)
		return nil
	}

	remoteImageURL := incoming.ImageURL

	incoming.LocalID = existing.LocalID
	incoming.ImagePath = existing.ImagePath
	incoming.ImageURL = existing.ImageURL
	if remoteImageURL != "" {
		incoming.ImageURL = remoteImageURL
	}
	incoming.LastUpdated = s.clock.Now().UnixMilli()
	incoming.SyncState = domain.SyncStateSynced

	if err := s.repo.Update(ctx, s.db, &incoming); err != nil {
		return err
	}
	s.hub.Publish(liveview.Change{Type: liveview.ChangeUpdated, Product: incoming})
	s.evaluateExpiry(ctx, &incoming)
	return nil
}

// RunExpirySweep re-derives expiry alerts for every active product.
func (s *serviceImpl) RunExpirySweep(ctx context.Context) error {
	products, err := s.repo.FindActive(ctx, s.db)
	if err != nil {
		return err
	}
	for i := range products {
		if err := s.alerts.EvaluateExpiry(ctx, &products[i]); err != nil {
			s.log.Warn("expiry evaluation failed",
				zap.Int64("local_id", products[i].LocalID.Int64()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// RetrySync requeues a failed record for the next push cycle.
func (s *serviceImpl) RetrySync(ctx context.Context, localID snowflake.ID) error {
	product, err := s.repo.FindByLocalID(ctx, s.db, localID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}

	// A failed delete stays a delete; only the push eligibility resets.
	// The sync state is the only field that changes.
	if product.SyncState != domain.SyncStateDeletePending {
		if err := s.repo.SetSyncInfo(ctx, s.db, localID, product.RemoteIDValue(), domain.SyncStatePending); err != nil {
			return err
		}
	}
	s.trigger.Request()
	return nil
}

func (s *serviceImpl) Get(ctx context.Context, remoteID string) (*domain.Product, error) {
	return s.resolve(ctx, remoteID)
}

func (s *serviceImpl) GetByLocalID(ctx context.Context, localID snowflake.ID) (*domain.Product, error) {
	product, err := s.repo.FindByLocalID(ctx, s.db, localID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

func (s *serviceImpl) List(ctx context.Context, req domain.ListRequest) ([]domain.Product, error) {
	var (
		products []domain.Product
		err      error
	)
	if req.ActiveOnly {
		products, err = s.repo.FindActive(ctx, s.db)
	} else {
		products, err = s.repo.FindAll(ctx, s.db)
	}
	if err != nil {
		return nil, err
	}

	if req.Category == "" {
		return products, nil
	}
	filtered := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.CategoryID == req.Category || p.CategoryName == req.Category {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// resolve looks a product up by remote identifier, falling back to the local
// identifier for records that were never pushed.
func (s *serviceImpl) resolve(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, domain.ErrInvalidID
	}

	product, err := s.repo.FindByRemoteID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if product != nil {
		return product, nil
	}

	localID, parseErr := snowflake.ParseString(id)
	if parseErr == nil {
		product, err = s.repo.FindByLocalID(ctx, s.db, localID)
		if err != nil {
			return nil, err
		}
		if product != nil {
			return product, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *serviceImpl) authorize(ctx context.Context, action string) error {
	if err := s.authz.Authorize(ctx, authz.ObjectProduct, action); err != nil {
		return domain.ErrUnauthorized
	}
	return nil
}

// evaluateAlerts runs the quantity transition rules plus the expiry check.
// Only quantity-bearing updates use it; add and upsert paths run
// evaluateExpiry alone.
func (s *serviceImpl) evaluateAlerts(ctx context.Context, product *domain.Product, oldQuantity, newQuantity int) {
	if err := s.alerts.EvaluateQuantityChange(ctx, product, oldQuantity, newQuantity); err != nil {
		s.log.Warn("stock alert evaluation failed",
			zap.Int64("local_id", product.LocalID.Int64()),
			zap.Error(err),
		)
	}
	s.evaluateExpiry(ctx, product)
}

func (s *serviceImpl) evaluateExpiry(ctx context.Context, product *domain.Product) {
	if err := s.alerts.EvaluateExpiry(ctx, product); err != nil {
		s.log.Warn("expiry alert evaluation failed",
			zap.Int64("local_id", product.LocalID.Int64()),
			zap.Error(err),
		)
	}
}
