package engine

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	alertdomain "github.com/openretail/stocksync/internal/alert/domain"
	alertrepo "github.com/openretail/stocksync/internal/alert/repository"
	"github.com/openretail/stocksync/internal/clock"
	productdomain "github.com/openretail/stocksync/internal/product/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dayMs = int64(24 * 60 * 60 * 1000)

type recordingListener struct {
	products []productdomain.Product
}

func (l *recordingListener) OnProductCritical(p productdomain.Product) {
	l.products = append(l.products, p)
}

func newTestEngine(t *testing.T, fake *clock.FakeClock) (*Engine, *gorm.DB) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&alertdomain.Alert{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	eng := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  alertrepo.Provide(),
	})
	return eng, conn
}

func remoteProduct(remoteID string, critical, reorder int) *productdomain.Product {
	p := &productdomain.Product{
		LocalID:       snowflake.ID(1),
		Name:          "Paracetamol 500mg",
		CriticalLevel: critical,
		ReorderLevel:  reorder,
	}
	if remoteID != "" {
		p.RemoteID = &remoteID
	}
	return p
}

func TestExpiryAlertType(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fake := clock.NewFakeClock(now)
	eng, _ := newTestEngine(t, fake)
	nowMs := now.UnixMilli()

	cases := []struct {
		name     string
		expiry   int64
		want     alertdomain.AlertType
		wantSome bool
	}{
		{"untracked", 0, "", false},
		{"already expired", nowMs - 1, alertdomain.AlertTypeExpired, true},
		{"expires this instant", nowMs, alertdomain.AlertTypeExpired, true},
		{"under a day away", nowMs + dayMs - 1, alertdomain.AlertTypeExpiry3Days, true},
		{"three days away", nowMs + 3*dayMs, alertdomain.AlertTypeExpiry3Days, true},
		{"just past three days", nowMs + 3*dayMs + 1, alertdomain.AlertTypeExpiry3Days, true},
		{"four days away", nowMs + 4*dayMs, alertdomain.AlertTypeExpiry7Days, true},
		{"seven days away", nowMs + 7*dayMs, alertdomain.AlertTypeExpiry7Days, true},
		{"eight days away", nowMs + 8*dayMs, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := eng.ExpiryAlertType(tc.expiry)
			assert.Equal(t, tc.wantSome, ok)
			if tc.wantSome {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestEvaluateQuantityChange_CriticalNotifiesListeners(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	eng, conn := newTestEngine(t, fake)

	listener := &recordingListener{}
	eng.RegisterCriticalStockListener(listener)

	product := remoteProduct("prod-1", 5, 10)
	require.NoError(t, eng.EvaluateQuantityChange(context.Background(), product, 6, 5))

	require.Len(t, listener.products, 1)
	assert.Equal(t, "Paracetamol 500mg", listener.products[0].Name)

	alerts, err := alertrepo.Provide().Find(context.Background(), conn, true, 0, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, alertdomain.AlertTypeCriticalStock, alerts[0].Type)
	assert.Equal(t, "prod-1", alerts[0].ProductID)
}

func TestEvaluateQuantityChange_LowOnly(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	eng, conn := newTestEngine(t, fake)

	product := remoteProduct("prod-2", 5, 10)
	require.NoError(t, eng.EvaluateQuantityChange(context.Background(), product, 11, 10))

	alerts, err := alertrepo.Provide().Find(context.Background(), conn, true, 0, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, alertdomain.AlertTypeLowStock, alerts[0].Type)
}

func TestEvaluateQuantityChange_CriticalWinsOverLow(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	eng, conn := newTestEngine(t, fake)

	// Quantity 5 is under both thresholds; only the critical alert fires.
	product := remoteProduct("prod-3", 5, 10)
	require.NoError(t, eng.EvaluateQuantityChange(context.Background(), product, 12, 5))

	alerts, err := alertrepo.Provide().Find(context.Background(), conn, true, 0, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, alertdomain.AlertTypeCriticalStock, alerts[0].Type)
}

func TestEvaluateQuantityChange_RecoveryClearsDismissal(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	eng, conn := newTestEngine(t, fake)

	product := remoteProduct("prod-4", 5, 10)
	eng.Dismiss("prod-4")
	require.True(t, eng.IsDismissed("prod-4"))

	require.NoError(t, eng.EvaluateQuantityChange(context.Background(), product, 5, 6))
	assert.False(t, eng.IsDismissed("prod-4"))

	// Quantity 6 is low (reorder 10) but not critical.
	alerts, err := alertrepo.Provide().Find(context.Background(), conn, true, 0, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, alertdomain.AlertTypeLowStock, alerts[0].Type)
}

func TestEvaluateQuantityChange_ZeroThresholdsNeverAlert(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	eng, conn := newTestEngine(t, fake)

	product := remoteProduct("prod-5", 0, 0)
	require.NoError(t, eng.EvaluateQuantityChange(context.Background(), product, 1, 0))

	alerts, err := alertrepo.Provide().Find(context.Background(), conn, false, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestEvaluateQuantityChange_UnsyncedProductsAlertIndependently(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	eng, conn := newTestEngine(t, fake)

	first := &productdomain.Product{LocalID: snowflake.ID(101), Name: "Amoxicillin", CriticalLevel: 5}
	second := &productdomain.Product{LocalID: snowflake.ID(102), Name: "Ibuprofen", CriticalLevel: 5}

	require.NoError(t, eng.EvaluateQuantityChange(context.Background(), first, 6, 4))
	require.NoError(t, eng.EvaluateQuantityChange(context.Background(), second, 6, 4))

	alerts, err := alertrepo.Provide().Find(context.Background(), conn, true, 0, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, snowflake.ID(101).String(), alerts[0].ProductID)
	assert.Equal(t, snowflake.ID(102).String(), alerts[1].ProductID)
}

func TestEvaluateQuantityChange_RecoveryClearsLocalKeyDismissal(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	eng, _ := newTestEngine(t, fake)

	product := &productdomain.Product{LocalID: snowflake.ID(103), Name: "Ibuprofen", CriticalLevel: 5}
	eng.Dismiss(snowflake.ID(103).String())
	require.True(t, eng.IsDismissed(snowflake.ID(103).String()))

	require.NoError(t, eng.EvaluateQuantityChange(context.Background(), product, 5, 6))
	assert.False(t, eng.IsDismissed(snowflake.ID(103).String()))
}

func TestEvaluateQuantityChange_DuplicateSuppressed(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	eng, conn := newTestEngine(t, fake)

	product := remoteProduct("prod-6", 5, 10)
	require.NoError(t, eng.EvaluateQuantityChange(context.Background(), product, 6, 4))
	require.NoError(t, eng.EvaluateQuantityChange(context.Background(), product, 4, 3))

	alerts, err := alertrepo.Provide().Find(context.Background(), conn, true, 0, 10)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

func TestEvaluateExpiry_MilderAlertNotUpgraded(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	fake := clock.NewFakeClock(now)
	eng, conn := newTestEngine(t, fake)

	product := remoteProduct("prod-7", 0, 0)
	product.ExpiryDate = now.UnixMilli() + 5*dayMs

	require.NoError(t, eng.EvaluateExpiry(context.Background(), product))

	// Five days later the tier is EXPIRED. The unread EXPIRY_7_DAYS alert
	// stays as it is; a separate alert of the new tier is recorded.
	fake.Advance(5 * 24 * time.Hour)
	require.NoError(t, eng.EvaluateExpiry(context.Background(), product))

	alerts, err := alertrepo.Provide().Find(context.Background(), conn, true, 0, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, alertdomain.AlertTypeExpiry7Days, alerts[0].Type)
	assert.Equal(t, alertdomain.AlertTypeExpired, alerts[1].Type)
}

func TestUnregisterCriticalStockListener(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	eng, _ := newTestEngine(t, fake)

	listener := &recordingListener{}
	eng.RegisterCriticalStockListener(listener)
	eng.UnregisterCriticalStockListener(listener)

	product := remoteProduct("prod-8", 5, 10)
	require.NoError(t, eng.EvaluateQuantityChange(context.Background(), product, 6, 5))
	assert.Empty(t, listener.products)
}
