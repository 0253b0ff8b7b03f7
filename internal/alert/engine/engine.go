package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
	alertdomain "github.com/openretail/stocksync/internal/alert/domain"
	"github.com/openretail/stocksync/internal/clock"
	"github.com/openretail/stocksync/internal/config"
	productdomain "github.com/openretail/stocksync/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dayMillis = 24 * 60 * 60 * 1000

// CriticalStockListener receives synchronous in-process notification when a
// product crosses into critical stock.
type CriticalStockListener interface {
	OnProductCritical(product productdomain.Product)
}

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Repo   alertdomain.Repository
	Tuning *config.AlertingConfigHolder
}

// Engine derives stock and expiry alerts from product mutations and
// suppresses duplicates per (product, type).
type Engine struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	repo   alertdomain.Repository
	tuning *config.AlertingConfigHolder

	mu        sync.RWMutex
	listeners []CriticalStockListener

	dismissMu sync.Mutex
	dismissed map[string]struct{}
}

func New(p Params) *Engine {
	return &Engine{
		db:        p.DB,
		log:       p.Log.Named("alert.engine"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		tuning:    p.Tuning,
		dismissed: make(map[string]struct{}),
	}
}

// RegisterCriticalStockListener adds l unless already registered.
func (e *Engine) RegisterCriticalStockListener(l CriticalStockListener) {
	if l == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, existing := range e.listeners {
		if existing == l {
			return
		}
	}
	e.listeners = append(e.listeners, l)
}

func (e *Engine) UnregisterCriticalStockListener(l CriticalStockListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, existing := range e.listeners {
		if existing == l {
			e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
			return
		}
	}
}

func (e *Engine) notifyCriticalStockListeners(product productdomain.Product) {
	e.mu.RLock()
	listeners := append([]CriticalStockListener(nil), e.listeners...)
	e.mu.RUnlock()
	for _, l := range listeners {
		l.OnProductCritical(product)
	}
}

// Dismiss suppresses further critical-stock dialogs for the product until
// it recovers above its critical level.
func (e *Engine) Dismiss(productID string) {
	if productID == "" {
		return
	}
	e.dismissMu.Lock()
	defer e.dismissMu.Unlock()
	e.dismissed[productID] = struct{}{}
}

func (e *Engine) IsDismissed(productID string) bool {
	e.dismissMu.Lock()
	defer e.dismissMu.Unlock()
	_, ok := e.dismissed[productID]
	return ok
}

func (e *Engine) ClearForProduct(productID string) {
	if productID == "" {
		return
	}
	e.dismissMu.Lock()
	defer e.dismissMu.Unlock()
	delete(e.dismissed, productID)
}

func (e *Engine) ResetAll() {
	e.dismissMu.Lock()
	defer e.dismissMu.Unlock()
	e.dismissed = make(map[string]struct{})
}

// EvaluateQuantityChange applies the stock threshold rules for a quantity
// transition. Critical takes precedence over low; a recovery above the
// critical level clears the dismissal suppression for the product.
func (e *Engine) EvaluateQuantityChange(ctx context.Context, product *productdomain.Product, oldQuantity, newQuantity int) error {
	wasCritical := product.CriticalLevel > 0 && oldQuantity <= product.CriticalLevel
	isNowCritical := product.CriticalLevel > 0 && newQuantity <= product.CriticalLevel
	isNowLowOnly := !isNowCritical && product.ReorderLevel > 0 && newQuantity <= product.ReorderLevel
	recoveredFromCritical := wasCritical && newQuantity > product.CriticalLevel

	if recoveredFromCritical {
		e.ClearForProduct(alertKey(product))
	}

	switch {
	case isNowCritical:
		if err := e.addAlert(ctx, product, alertdomain.AlertTypeCriticalStock,
			fmt.Sprintf("Critical stock for %s (Qty: %d)", product.Name, newQuantity)); err != nil {
			return err
		}
		e.notifyCriticalStockListeners(*product)
	case isNowLowOnly:
		if err := e.addAlert(ctx, product, alertdomain.AlertTypeLowStock,
			fmt.Sprintf("Low stock for %s (Qty: %d)", product.Name, newQuantity)); err != nil {
			return err
		}
	}
	return nil
}

// EvaluateExpiry derives the expiry alert tier for the product, if any.
// An already-present alert of a milder tier is not upgraded.
func (e *Engine) EvaluateExpiry(ctx context.Context, product *productdomain.Product) error {
	alertType, ok := e.ExpiryAlertType(product.ExpiryDate)
	if !ok {
		return nil
	}

	var message string
	switch alertType {
	case alertdomain.AlertTypeExpired:
		message = fmt.Sprintf("%s has expired", product.Name)
	case alertdomain.AlertTypeExpiry3Days:
		message = fmt.Sprintf("%s expires within 3 days", product.Name)
	default:
		message = fmt.Sprintf("%s expires within 7 days", product.Name)
	}
	return e.addAlert(ctx, product, alertType, message)
}

// ExpiryAlertType maps an expiry timestamp to an alert tier relative to the
// engine clock. expiryDate <= 0 means no expiry is tracked.
func (e *Engine) ExpiryAlertType(expiryDate int64) (alertdomain.AlertType, bool) {
	if expiryDate <= 0 {
		return "", false
	}

	tuning := config.DefaultAlertingConfig()
	if e.tuning != nil {
		tuning = e.tuning.Get()
	}

	diff := expiryDate - e.clock.Now().UnixMilli()
	if diff <= 0 {
		return alertdomain.AlertTypeExpired, true
	}
	days := diff / dayMillis
	if days <= int64(tuning.ExpiryCriticalDays) {
		return alertdomain.AlertTypeExpiry3Days, true
	}
	if days <= int64(tuning.ExpiryWarnDays) {
		return alertdomain.AlertTypeExpiry7Days, true
	}
	return "", false
}

// alertKey identifies the product for alert dedup and dismissal tracking.
// A record that never reached the remote store has no remote identifier, so
// it is keyed by its local one; alerts for distinct unsynced products must
// not collapse onto a shared empty key.
func alertKey(product *productdomain.Product) string {
	if product.HasRemoteID() {
		return product.RemoteIDValue()
	}
	return product.LocalID.String()
}

func (e *Engine) addAlert(ctx context.Context, product *productdomain.Product, alertType alertdomain.AlertType, message string) error {
	alert := &alertdomain.Alert{
		ID:        e.genID.Generate(),
		ProductID: alertKey(product),
		Type:      alertType,
		Message:   message,
		Read:      false,
		Timestamp: e.clock.Now().UnixMilli(),
	}
	storedID, err := e.repo.AddIfNotExists(ctx, e.db, alert)
	if err != nil {
		return err
	}
	if storedID != 0 {
		e.log.Info("alert created",
			zap.String("product_id", alert.ProductID),
			zap.String("type", string(alertType)),
		)
	}
	return nil
}
