package syncer

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	productdomain "github.com/openretail/stocksync/internal/product/domain"
	productrepo "github.com/openretail/stocksync/internal/product/repository"
	remotedomain "github.com/openretail/stocksync/internal/remote/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// recordingService captures UpsertFromRemote calls; the rest of the product
// surface is unused by the reconciler.
type recordingService struct {
	productdomain.Service

	applied []productdomain.Product
	err     error
}

func (r *recordingService) UpsertFromRemote(ctx context.Context, incoming productdomain.Product) error {
	if r.err != nil {
		return r.err
	}
	r.applied = append(r.applied, incoming)
	return nil
}

func newReconciler(t *testing.T, db *gorm.DB, store remotedomain.Store, svc productdomain.Service) *Reconciler {
	t.Helper()
	return NewReconciler(ReconcilerParams{
		Log:        zap.NewNop(),
		Store:      store,
		ProductSvc: svc,
		Pusher:     newPusher(db, productrepo.Provide(), store),
	})
}

func doc(id, name string) remotedomain.Document {
	return remotedomain.Document{ID: id, Name: &name}
}

func TestSyncAll_AppliesFetchedDocuments(t *testing.T) {
	db := newSyncDB(t)
	store := &fakeStore{docs: []remotedomain.Document{
		doc("rem-1", "Amoxicillin"),
		doc("", "orphan without id"),
		doc("rem-2", "Ibuprofen"),
	}}
	svc := &recordingService{}

	require.NoError(t, newReconciler(t, db, store, svc).SyncAll(context.Background()))

	require.Len(t, svc.applied, 2)
	assert.Equal(t, "rem-1", svc.applied[0].RemoteIDValue())
	assert.Equal(t, "rem-2", svc.applied[1].RemoteIDValue())
}

func TestSyncAll_FetchFailureKeepsLocalData(t *testing.T) {
	db := newSyncDB(t)
	store := &fakeStore{fetchErr: remotedomain.ErrUnavailable}
	svc := &recordingService{}

	err := newReconciler(t, db, store, svc).SyncAll(context.Background())

	// The pull phase is skipped silently; only push errors surface.
	assert.NoError(t, err)
	assert.Empty(t, svc.applied)
}

func TestSyncAll_PushErrorsSurfaceAfterPull(t *testing.T) {
	db := newSyncDB(t)
	repo := productrepo.Provide()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	store := &fakeStore{upsertErr: remotedomain.ErrUnavailable, docs: []remotedomain.Document{doc("rem-1", "Amoxicillin")}}
	seedProduct(t, db, repo, node, "", productdomain.SyncStatePending)
	svc := &recordingService{}

	err = newReconciler(t, db, store, svc).SyncAll(context.Background())

	assert.ErrorIs(t, err, remotedomain.ErrUnavailable)
	// The pull still ran despite the push failure.
	assert.Len(t, svc.applied, 1)
}

func TestSyncAll_ApplyFailureDoesNotStopThePass(t *testing.T) {
	db := newSyncDB(t)
	store := &fakeStore{docs: []remotedomain.Document{
		doc("rem-1", "Amoxicillin"),
		doc("rem-2", "Ibuprofen"),
	}}
	svc := &recordingService{err: productdomain.ErrInvalidID}

	assert.NoError(t, newReconciler(t, db, store, svc).SyncAll(context.Background()))
	assert.Empty(t, svc.applied)
}

func TestSyncAll_OnFinishedRunsOnEveryPass(t *testing.T) {
	db := newSyncDB(t)
	store := &fakeStore{}
	svc := &recordingService{}
	r := newReconciler(t, db, store, svc)

	finished := 0
	r.RegisterOnFinished(func() { finished++ })

	require.NoError(t, r.SyncAll(context.Background()))
	store.fetchErr = remotedomain.ErrUnavailable
	assert.NoError(t, r.SyncAll(context.Background()))

	assert.Equal(t, 2, finished)
}
