package syncer

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("syncer",
	fx.Provide(ProvideConfig),
	fx.Provide(NewTrigger),
	fx.Provide(NewPusher),
	fx.Provide(NewReconciler),
	fx.Provide(New),
	fx.Invoke(Run),
)

func Run(lc fx.Lifecycle, sched *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go sched.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
