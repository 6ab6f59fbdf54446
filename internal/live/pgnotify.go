package live

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"donortrack/internal/infra"
	"donortrack/internal/sqlinline"
)

// PGNotifier publishes changes with pg_notify so every API instance
// listening on the channel hears them.
type PGNotifier struct {
	SQL     infra.SQLExecutor
	Channel string
}

// Notify sends the change payload on the configured channel.
func (n *PGNotifier) Notify(ctx context.Context, c Change) error {
	if _, err := n.SQL.Exec(ctx, sqlinline.QNotifyChange, n.Channel, c.Payload()); err != nil {
		return fmt.Errorf("notify %s: %w", c.Payload(), err)
	}
	return nil
}

var _ Notifier = (*PGNotifier)(nil)

// notificationSource is the part of *pq.Listener the bridge reads from.
type notificationSource interface {
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// Bridge forwards LISTEN notifications into a hub.
type Bridge struct {
	hub          *Hub
	source       notificationSource
	logger       zerolog.Logger
	pingInterval time.Duration
}

// ListenPostgres opens a pq.Listener on channel and returns a bridge that
// feeds hub once Run is called.
func ListenPostgres(databaseURL, channel string, hub *Hub, logger zerolog.Logger) (*Bridge, error) {
	listener := pq.NewListener(databaseURL, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn().Err(err).Int("event", int(ev)).Msg("live listener event")
		}
	})
	if err := listener.Listen(channel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}
	return newBridge(hub, listener, logger), nil
}

func newBridge(hub *Hub, source notificationSource, logger zerolog.Logger) *Bridge {
	return &Bridge{hub: hub, source: source, logger: logger, pingInterval: 90 * time.Second}
}

// Run forwards notifications until ctx is done, then closes the listener.
func (b *Bridge) Run(ctx context.Context) {
	defer b.source.Close()
	ticker := time.NewTicker(b.pingInterval)
	defer ticker.Stop()

	notifications := b.source.NotificationChannel()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notifications:
			if !ok {
				return
			}
			if n == nil {
				// reconnected; anything sent meanwhile is lost
				b.hub.PublishAll()
				continue
			}
			c, err := ParseChange(n.Extra)
			if err != nil {
				b.logger.Warn().Err(err).Msg("live listener payload")
				continue
			}
			b.hub.Publish(c)
		case <-ticker.C:
			if err := b.source.Ping(); err != nil {
				b.logger.Warn().Err(err).Msg("live listener ping")
			}
		}
	}
}
