package syncer

import (
	"context"
	"errors"

	obsmetrics "github.com/openretail/stocksync/internal/observability/metrics"
	productdomain "github.com/openretail/stocksync/internal/product/domain"
	remotedomain "github.com/openretail/stocksync/internal/remote/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PusherParams struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Repo   productdomain.Repository
	Store  remotedomain.Store
	Config Config `optional:"true"`
}

// Pusher drains locally dirty records to the remote store. A failed push
// marks the record ERROR and moves on; DELETE_PENDING records stay put on
// failure so the next cycle retries the remote delete.
type Pusher struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  productdomain.Repository
	store remotedomain.Store
	cfg   Config
}

func NewPusher(p PusherParams) *Pusher {
	return &Pusher{
		db:    p.DB,
		log:   p.Log.Named("syncer.pusher"),
		repo:  p.Repo,
		store: p.Store,
		cfg:   p.Config.withDefaults(),
	}
}

// PushPending pushes the oldest dirty records, at most PushBatchSize per
// call; records left behind go out on the next cycle. Per-record failures
// are recorded on the row and joined into the returned error.
func (p *Pusher) PushPending(ctx context.Context) error {
	products, err := p.repo.FindBySyncStates(ctx, p.db,
		p.cfg.PushBatchSize,
		productdomain.SyncStatePending,
		productdomain.SyncStateDeletePending,
	)
	if err != nil {
		return err
	}
	obsmetrics.Sync().SetPendingRecords(len(products))

	var pushErr error
	for i := range products {
		if ctx.Err() != nil {
			return errors.Join(pushErr, ctx.Err())
		}
		product := &products[i]
		switch product.SyncState {
		case productdomain.SyncStateDeletePending:
			pushErr = errors.Join(pushErr, p.pushDelete(ctx, product))
		default:
			pushErr = errors.Join(pushErr, p.pushUpsert(ctx, product))
		}
	}
	return pushErr
}

func (p *Pusher) pushUpsert(ctx context.Context, product *productdomain.Product) error {
	remoteID, err := p.store.Upsert(ctx, remotedomain.FromProduct(*product))
	if err != nil {
		obsmetrics.Sync().IncPushOutcome(obsmetrics.SyncPushOutcomeError)
		p.log.Warn("push failed",
			zap.Int64("local_id", product.LocalID.Int64()),
			zap.Error(err),
		)
		if stateErr := p.repo.SetSyncInfo(ctx, p.db, product.LocalID, product.RemoteIDValue(), productdomain.SyncStateError); stateErr != nil {
			return errors.Join(err, stateErr)
		}
		return err
	}

	obsmetrics.Sync().IncPushOutcome(obsmetrics.SyncPushOutcomeSynced)
	return p.repo.SetSyncInfo(ctx, p.db, product.LocalID, remoteID, productdomain.SyncStateSynced)
}

func (p *Pusher) pushDelete(ctx context.Context, product *productdomain.Product) error {
	if !product.HasRemoteID() {
		// Never left the device; nothing remote to delete.
		obsmetrics.Sync().IncPushOutcome(obsmetrics.SyncPushOutcomePurged)
		return p.repo.Delete(ctx, p.db, product.LocalID)
	}

	if err := p.store.Delete(ctx, product.RemoteIDValue()); err != nil {
		obsmetrics.Sync().IncPushOutcome(obsmetrics.SyncPushOutcomeError)
		p.log.Warn("remote delete failed",
			zap.Int64("local_id", product.LocalID.Int64()),
			zap.String("remote_id", product.RemoteIDValue()),
			zap.Error(err),
		)
		return err
	}

	obsmetrics.Sync().IncPushOutcome(obsmetrics.SyncPushOutcomePurged)
	return p.repo.Delete(ctx, p.db, product.LocalID)
}
