package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestFromViperAppliesDefaults(t *testing.T) {
	v := viper.New()
	v.Set("jwt.secret", "secret")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	require.Equal(t, "Skillopus API", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, "*", cfg.AllowOrigins)
	require.True(t, cfg.IsDevelopment())
	require.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	require.Equal(t, 30*time.Second, cfg.StatsCacheTTL)
	require.Equal(t, 10, cfg.AuthRateLimit)
	require.Equal(t, "skillopus-courses", cfg.CloudinaryUploadFolder)
	require.False(t, cfg.UploadsEnabled())
}

func TestFromViperRequiresJWTSecret(t *testing.T) {
	_, err := fromViper(viper.New())
	require.Error(t, err)
}

func TestFromViperRejectsMalformedDurations(t *testing.T) {
	v := viper.New()
	v.Set("jwt.secret", "secret")
	v.Set("stats.cache_ttl", "soon")

	_, err := fromViper(v)
	require.ErrorContains(t, err, "stats cache ttl")
}

func TestHTTPAddressKeepsColonPrefix(t *testing.T) {
	cfg := Config{AppPort: ":9000"}
	require.Equal(t, ":9000", cfg.HTTPAddress())
}
