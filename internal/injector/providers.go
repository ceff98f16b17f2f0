package injector

import (
	"github.com/google/wire"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/config"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/observability/log"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/engine"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/server"
)

var ProviderSet = wire.NewSet(ProvideLogger, engine.New)

var ConsoleSet = wire.NewSet(ProvideEngineLogger, ProvideConsole)

// ProvideLogger builds the process logger from the log section.
func ProvideLogger(cfg config.Config) log.Log {
	return log.New(cfg.LogLevel(), cfg.Log.Encoding)
}

// ProvideEngineLogger shares the engine's logger with services built after it.
func ProvideEngineLogger(e *engine.Engine) log.Log {
	return e.Logger()
}

// ProvideConsole builds the console server for e. It does not start it.
func ProvideConsole(cfg config.Config, e *engine.Engine, logger log.Log) *server.Server {
	sc := server.DefaultConfig()
	sc.ListenAddr = cfg.Console.Addr
	return server.NewServer(e, logger, sc)
}
