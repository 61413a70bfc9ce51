package database

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConnectRedisPingsServer(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client, err := ConnectRedis(context.Background(), "redis://"+mini.Addr())
	require.NoError(t, err)
	defer client.Close()
}

func TestConnectRedisRejectsEmptyURL(t *testing.T) {
	_, err := ConnectRedis(context.Background(), "")
	require.Error(t, err)
}

func TestConnectPostgresRejectsEmptyDSN(t *testing.T) {
	_, err := ConnectPostgres("")
	require.Error(t, err)
}

func TestConnectNATSRejectsEmptyURL(t *testing.T) {
	_, err := ConnectNATS("", "test")
	require.Error(t, err)
}

func TestPingersReportReachability(t *testing.T) {
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, PingPostgres(db)(ctx))

	mini, err := miniredis.Run()
	require.NoError(t, err)
	client, err := ConnectRedis(ctx, "redis://"+mini.Addr())
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, PingRedis(client)(ctx))

	mini.Close()
	require.Error(t, PingRedis(client)(ctx))
}

func TestPingersRejectMissingConnections(t *testing.T) {
	ctx := context.Background()
	require.ErrorIs(t, PingPostgres(nil)(ctx), errNotConnected)
	require.ErrorIs(t, PingRedis(nil)(ctx), errNotConnected)
	require.ErrorIs(t, PingNATS(nil)(ctx), errNotConnected)
}
