package cli

import (
	"log/slog"

	"github.com/dshills/redmark/internal/client"
	"github.com/dshills/redmark/internal/config"
	"github.com/dshills/redmark/internal/coordinator"
	"github.com/dshills/redmark/internal/enginehost"
	"github.com/dshills/redmark/internal/runtime"
)

// newClient assembles the in-process request stack: a runtime with the
// engine host and coordinator factories registered, fronted by a client
// carrying the configured timeouts.
func newClient(cfg config.Config) *client.Client {
	log := slog.Default()
	rt := runtime.New(runtime.WithLogger(log.With("component", "runtime")))
	rt.SetWorkerFactory(enginehost.Factory(
		enginehost.WithLogger(log.With("component", "enginehost")),
	))
	rt.SetCoordinatorFactory(coordinator.Factory(
		coordinator.WithLogger(log.With("component", "coordinator")),
	))
	return client.New(rt,
		client.WithCallTimeout(cfg.CallTimeout),
		client.WithEnsureTimeout(cfg.EnsureTimeout),
	)
}
