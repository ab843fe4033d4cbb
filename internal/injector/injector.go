//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/drivesim/internal/app"
	"github.com/zeusync/drivesim/internal/config"
	"github.com/zeusync/drivesim/internal/core/observability/log"
)

var appSet = wire.NewSet(
	app.ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	app.ProvideRegistry,
	app.ProvideTrack,
	app.ProvideBus,
	app.ProvideStepper,
	app.ProvideKeys,
	app.ProvideServer,
	app.ProvidePolicy,
	app.ProvideStorage,
	app.New,
)

func InitializeApp(cfg *config.Config) (*app.App, error) {
	wire.Build(appSet)
	return nil, nil
}
