// Package bootstrap opens the store backend selected by STORE_BACKEND and
// the change notifier that goes with it. It is shared by every command.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"donortrack/internal/adapter/dynamo"
	"donortrack/internal/adapter/memstore"
	"donortrack/internal/adapter/repo"
	"donortrack/internal/domain"
	"donortrack/internal/infra"
	"donortrack/internal/live"
)

// Backend is an opened store together with its notification path.
type Backend struct {
	Name     string
	Store    domain.Store
	Hub      *live.Hub
	Notifier live.Notifier

	cfg    *infra.Config
	logger zerolog.Logger
	close  []func()
}

// Open connects the configured backend. On postgres every write is
// announced with pg_notify so that all API instances see it; the other
// backends notify the in-process hub only.
func Open(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (*Backend, error) {
	b := &Backend{Name: cfg.StoreBackend, Hub: live.NewHub(), cfg: cfg, logger: logger}
	switch cfg.StoreBackend {
	case infra.BackendPostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b.close = append(b.close, pool.Close)
		runner := infra.NewSQLRunner(pool, logger)
		b.Store = repo.NewStore(runner)
		b.Notifier = &live.PGNotifier{SQL: runner, Channel: cfg.NotifyChannel}
	case infra.BackendDynamoDB:
		client, err := infra.NewDynamoClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b.Store = dynamo.NewStore(client, dynamo.TablesWithPrefix(cfg.DynamoDBPrefix))
		b.Notifier = b.Hub
		logger.Warn().Msg("dynamodb backend: live updates reach this instance only")
	case infra.BackendMemory:
		b.Store = memstore.New()
		b.Notifier = b.Hub
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	return b, nil
}

// Listen feeds the hub from postgres notifications until ctx is done. It is
// a no-op for backends that notify the hub directly.
func (b *Backend) Listen(ctx context.Context) error {
	if b.Name != infra.BackendPostgres {
		return nil
	}
	bridge, err := live.ListenPostgres(b.cfg.DatabaseURL, b.cfg.NotifyChannel, b.Hub, b.logger)
	if err != nil {
		return err
	}
	go bridge.Run(ctx)
	return nil
}

// Close releases connections in reverse order of opening.
func (b *Backend) Close() {
	for i := len(b.close) - 1; i >= 0; i-- {
		b.close[i]()
	}
}
