package migration

import (
	alertdomain "github.com/openretail/stocksync/internal/alert/domain"
	productdomain "github.com/openretail/stocksync/internal/product/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// This migration package makes the service usable out of the box: the local
// store schema is created automatically on startup for every supported
// database engine.
var Module = fx.Module("migrations",
	fx.Invoke(Run),
)

func Run(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&productdomain.Product{},
		&alertdomain.Alert{},
	)
}
