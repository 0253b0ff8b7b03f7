package syncer

import (
	"context"
	"sync"

	obsmetrics "github.com/openretail/stocksync/internal/observability/metrics"
	productdomain "github.com/openretail/stocksync/internal/product/domain"
	remotedomain "github.com/openretail/stocksync/internal/remote/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ReconcilerParams struct {
	fx.In

	Log        *zap.Logger
	Store      remotedomain.Store
	ProductSvc productdomain.Service
	Pusher     *Pusher
}

// Reconciler runs one full reconciliation pass: push local changes out,
// then pull the remote collection in. The remote copy wins on pull.
type Reconciler struct {
	log        *zap.Logger
	store      remotedomain.Store
	productSvc productdomain.Service
	pusher     *Pusher

	mu         sync.Mutex
	onFinished []func()
}

func NewReconciler(p ReconcilerParams) *Reconciler {
	return &Reconciler{
		log:        p.Log.Named("syncer.reconciler"),
		store:      p.Store,
		productSvc: p.ProductSvc,
		pusher:     p.Pusher,
	}
}

// RegisterOnFinished adds a callback run after every reconciliation pass,
// successful or not.
func (r *Reconciler) RegisterOnFinished(fn func()) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFinished = append(r.onFinished, fn)
}

// SyncAll performs push then pull. A remote fetch failure aborts only the
// pull phase: the local store keeps serving whatever it has.
func (r *Reconciler) SyncAll(ctx context.Context) error {
	defer r.notifyFinished()

	pushErr := r.pusher.PushPending(ctx)
	if pushErr != nil {
		obsmetrics.Sync().IncCycleError("push")
		r.log.Warn("push phase finished with errors", zap.Error(pushErr))
	}

	documents, err := r.store.FetchAll(ctx)
	if err != nil {
		obsmetrics.Sync().IncPullFailure()
		obsmetrics.Sync().IncCycleError("pull")
		r.log.Warn("remote fetch failed, keeping local data", zap.Error(err))
		return pushErr
	}

	applied := 0
	for _, doc := range documents {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if doc.ID == "" {
			continue
		}
		if err := r.productSvc.UpsertFromRemote(ctx, doc.ToProduct()); err != nil {
			obsmetrics.Sync().IncCycleError("apply")
			r.log.Warn("applying remote document failed",
				zap.String("remote_id", doc.ID),
				zap.Error(err),
			)
			continue
		}
		applied++
	}
	obsmetrics.Sync().AddPullDocuments(applied)

	r.log.Info("reconciliation pass complete",
		zap.Int("documents_applied", applied),
		zap.Int("documents_fetched", len(documents)),
	)
	return pushErr
}

func (r *Reconciler) notifyFinished() {
	r.mu.Lock()
	callbacks := make([]func(), len(r.onFinished))
	copy(callbacks, r.onFinished)
	r.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}
