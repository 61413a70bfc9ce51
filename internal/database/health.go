package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Pinger reports whether a backing service answers within the context deadline.
type Pinger func(ctx context.Context) error

var errNotConnected = errors.New("not connected")

// PingPostgres checks the pool behind db with a round trip to the server.
func PingPostgres(db *gorm.DB) Pinger {
	return func(ctx context.Context) error {
		if db == nil {
			return errNotConnected
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// PingRedis issues PING against the statistics cache.
func PingRedis(client *redis.Client) Pinger {
	return func(ctx context.Context) error {
		if client == nil {
			return errNotConnected
		}
		return client.Ping(ctx).Err()
	}
}

// PingNATS flushes the connection, which waits for the server's PONG.
func PingNATS(conn *nats.Conn) Pinger {
	return func(ctx context.Context) error {
		if conn == nil {
			return errNotConnected
		}
		if status := conn.Status(); status != nats.CONNECTED {
			return fmt.Errorf("nats connection %s", status)
		}
		return conn.FlushWithContext(ctx)
	}
}
