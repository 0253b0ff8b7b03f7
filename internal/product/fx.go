package product

import (
	"context"

	"github.com/openretail/stocksync/internal/product/domain"
	"github.com/openretail/stocksync/internal/product/liveview"
	"github.com/openretail/stocksync/internal/product/repository"
	"github.com/openretail/stocksync/internal/product/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("product",
	fx.Provide(repository.Provide),
	fx.Provide(liveview.NewHub),
	fx.Provide(service.New),
	fx.Invoke(runStartupExpirySweep),
)

// runStartupExpirySweep re-derives expiry alerts once on boot so products
// that crossed a threshold while the service was down are not missed.
func runStartupExpirySweep(lc fx.Lifecycle, svc domain.Service, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := svc.RunExpirySweep(ctx); err != nil {
				log.Warn("startup expiry sweep failed", zap.Error(err))
			}
			return nil
		},
	})
}
