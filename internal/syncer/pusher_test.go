package syncer

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	productdomain "github.com/openretail/stocksync/internal/product/domain"
	productrepo "github.com/openretail/stocksync/internal/product/repository"
	remotedomain "github.com/openretail/stocksync/internal/remote/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeStore is an in-memory remote store recording every call.
type fakeStore struct {
	mu      sync.Mutex
	docs    []remotedomain.Document
	upserts []remotedomain.Document
	deletes []string
	fetches int
	nextID  int

	fetchErr  error
	upsertErr error
	deleteErr error
}

func (f *fakeStore) FetchAll(ctx context.Context) ([]remotedomain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]remotedomain.Document(nil), f.docs...), nil
}

func (f *fakeStore) Upsert(ctx context.Context, doc remotedomain.Document) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return "", f.upsertErr
	}
	f.upserts = append(f.upserts, doc)
	if doc.ID != "" {
		return doc.ID, nil
	}
	f.nextID++
	return fmt.Sprintf("rem-%d", f.nextID), nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes = append(f.deletes, id)
	return nil
}

func (f *fakeStore) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func newSyncDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&productdomain.Product{}))
	return conn
}

func seedProduct(t *testing.T, db *gorm.DB, repo productdomain.Repository, node *snowflake.Node, remoteID string, state productdomain.SyncState) snowflake.ID {
	t.Helper()
	product := &productdomain.Product{
		LocalID:   node.Generate(),
		Name:      "Amoxicillin",
		Quantity:  10,
		Active:    true,
		SyncState: state,
	}
	if remoteID != "" {
		product.RemoteID = &remoteID
	}
	require.NoError(t, repo.Insert(context.Background(), db, product))
	return product.LocalID
}

func newPusher(db *gorm.DB, repo productdomain.Repository, store remotedomain.Store) *Pusher {
	return NewPusher(PusherParams{
		DB:    db,
		Log:   zap.NewNop(),
		Repo:  repo,
		Store: store,
	})
}

func TestPushPending_AssignsRemoteIDAndMarksSynced(t *testing.T) {
	db := newSyncDB(t)
	repo := productrepo.Provide()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	store := &fakeStore{}
	localID := seedProduct(t, db, repo, node, "", productdomain.SyncStatePending)

	require.NoError(t, newPusher(db, repo, store).PushPending(context.Background()))

	stored, err := repo.FindByLocalID(context.Background(), db, localID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, productdomain.SyncStateSynced, stored.SyncState)
	assert.Equal(t, "rem-1", stored.RemoteIDValue())
	require.Len(t, store.upserts, 1)
	assert.Empty(t, store.upserts[0].ID)
}

func TestPushPending_FailureMarksError(t *testing.T) {
	db := newSyncDB(t)
	repo := productrepo.Provide()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	store := &fakeStore{upsertErr: remotedomain.ErrUnavailable}
	localID := seedProduct(t, db, repo, node, "", productdomain.SyncStatePending)

	err = newPusher(db, repo, store).PushPending(context.Background())
	assert.ErrorIs(t, err, remotedomain.ErrUnavailable)

	stored, err := repo.FindByLocalID(context.Background(), db, localID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, productdomain.SyncStateError, stored.SyncState)
}

func TestPushPending_DeletePendingPurgesAfterRemoteDelete(t *testing.T) {
	db := newSyncDB(t)
	repo := productrepo.Provide()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	store := &fakeStore{}
	localID := seedProduct(t, db, repo, node, "rem-7", productdomain.SyncStateDeletePending)

	require.NoError(t, newPusher(db, repo, store).PushPending(context.Background()))

	stored, err := repo.FindByLocalID(context.Background(), db, localID)
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.Equal(t, []string{"rem-7"}, store.deletes)
}

func TestPushPending_DeletePendingStaysOnRemoteFailure(t *testing.T) {
	db := newSyncDB(t)
	repo := productrepo.Provide()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	store := &fakeStore{deleteErr: remotedomain.ErrUnavailable}
	localID := seedProduct(t, db, repo, node, "rem-7", productdomain.SyncStateDeletePending)

	err = newPusher(db, repo, store).PushPending(context.Background())
	assert.ErrorIs(t, err, remotedomain.ErrUnavailable)

	stored, err := repo.FindByLocalID(context.Background(), db, localID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, productdomain.SyncStateDeletePending, stored.SyncState)
}

func TestPushPending_NeverPushedDeleteSkipsRemote(t *testing.T) {
	db := newSyncDB(t)
	repo := productrepo.Provide()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	store := &fakeStore{deleteErr: remotedomain.ErrUnavailable}
	localID := seedProduct(t, db, repo, node, "", productdomain.SyncStateDeletePending)

	require.NoError(t, newPusher(db, repo, store).PushPending(context.Background()))

	stored, err := repo.FindByLocalID(context.Background(), db, localID)
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.Empty(t, store.deletes)
}

func TestPushPending_HonorsBatchSize(t *testing.T) {
	db := newSyncDB(t)
	repo := productrepo.Provide()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	store := &fakeStore{}
	for i := 0; i < 3; i++ {
		seedProduct(t, db, repo, node, "", productdomain.SyncStatePending)
	}
	pusher := NewPusher(PusherParams{
		DB:     db,
		Log:    zap.NewNop(),
		Repo:   repo,
		Store:  store,
		Config: Config{PushBatchSize: 2},
	})

	require.NoError(t, pusher.PushPending(context.Background()))

	// The overflow record waits for the next cycle.
	assert.Len(t, store.upserts, 2)
	left, err := repo.FindBySyncStates(context.Background(), db, 0, productdomain.SyncStatePending)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}
