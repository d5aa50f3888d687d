package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/invobase/invobase/internal/clock"
	"github.com/invobase/invobase/internal/config"
	"github.com/invobase/invobase/internal/logger"
	"github.com/invobase/invobase/internal/migration"
	"github.com/invobase/invobase/internal/scheduler"
	"github.com/invobase/invobase/internal/server"
	"github.com/invobase/invobase/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		migration.Module,
		server.Module,
		scheduler.Module,
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
