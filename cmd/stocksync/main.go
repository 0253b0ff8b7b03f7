package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/openretail/stocksync/internal/clock"
	"github.com/openretail/stocksync/internal/config"
	"github.com/openretail/stocksync/internal/migration"
	"github.com/openretail/stocksync/internal/server"
	"github.com/openretail/stocksync/pkg/db"
	"github.com/openretail/stocksync/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		config.AlertingModule,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Domain modules (authz, product, alert, remote, syncer)
		server.Module,
		migration.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
