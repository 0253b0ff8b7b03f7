package alert

import (
	"github.com/openretail/stocksync/internal/alert/engine"
	"github.com/openretail/stocksync/internal/alert/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("alert",
	fx.Provide(repository.Provide),
	fx.Provide(engine.New),
)
