package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load([]string{"--token-secret", "s"})
	require.NoError(t, err)
	require.Equal(t, ":8080", c.Addr)
	require.Equal(t, CodeStoreRedis, c.CodeStore)
	require.Equal(t, 10*time.Minute, c.CodeTTL)
	require.Equal(t, zapcore.InfoLevel, c.LogLevel)
	require.True(t, c.Metrics)
	require.False(t, c.TLS())
	require.Equal(t, 5, c.LoginMaxFails)
	require.Equal(t, 5*time.Second, c.ShutdownTimeout)
}

func TestLoad_EnvOverridesDefault_FlagOverridesEnv(t *testing.T) {
	t.Setenv("GOPHAUTH_TOKEN_SECRET", "from-env")
	t.Setenv("GOPHAUTH_CODE_STORE", "memory")
	t.Setenv("GOPHAUTH_ADDR", ":9000")

	c, err := Load([]string{"--addr", ":9100"})
	require.NoError(t, err)
	require.Equal(t, "from-env", c.TokenSecret)
	require.Equal(t, CodeStoreMemory, c.CodeStore)
	require.Equal(t, ":9100", c.Addr)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gophauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
token-secret: from-file
log-level: debug
code-ttl: 2m
redis-db: 3
`), 0o600))

	c, err := Load([]string{"--config", path})
	require.NoError(t, err)
	require.Equal(t, "from-file", c.TokenSecret)
	require.Equal(t, zapcore.DebugLevel, c.LogLevel)
	require.Equal(t, 2*time.Minute, c.CodeTTL)
	require.Equal(t, 3, c.RedisDB)

	_, err = Load([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][]string{
		"no secret":     {},
		"bad store":     {"--token-secret", "s", "--code-store", "etcd"},
		"bad level":     {"--token-secret", "s", "--log-level", "loud"},
		"half tls":      {"--token-secret", "s", "--tls-cert", "c.pem"},
		"zero ttl":      {"--token-secret", "s", "--code-ttl", "0s"},
		"unknown flag":  {"--nope"},
		"negative fail": {"--token-secret", "s", "--login-max-fails", "-1"},
	}
	for name, args := range cases {
		_, err := Load(args)
		require.Error(t, err, name)
	}
}
