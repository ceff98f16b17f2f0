//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/config"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/engine"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/server"
)

func InitializeEngine(cfg config.Config) (*engine.Engine, error) {
	wire.Build(ProviderSet)
	return nil, nil
}

func InitializeConsole(cfg config.Config, e *engine.Engine) *server.Server {
	wire.Build(ConsoleSet)
	return nil
}
