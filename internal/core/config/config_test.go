package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	p := writeConfig(t, `
jwt:
  secret: s3cret
db:
  driver: postgres
  dsn: "host=db"
kafka:
  brokers: ["k1:9092", "k2:9092"]
`)
	c := Load(p)

	require.Equal(t, "s3cret", c.JWT.Secret)
	require.Equal(t, "postgres", c.DB.Driver)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	require.Equal(t, 8080, c.App.HTTP.Port)
	require.Equal(t, 10, c.Limits.BorrowPerHour)
	require.Equal(t, 3, c.Lending.RetryAttempts)
	require.Equal(t, 15*60.0, c.JWT.AccessTTL().Seconds())
	require.False(t, c.Tracing.Enabled)
	require.Equal(t, "localhost:4318", c.Tracing.Endpoint)
	require.Equal(t, 1.0, c.Tracing.SampleRatio)
}

func TestLoad_EnvOverlay(t *testing.T) {
	p := writeConfig(t, "jwt:\n  secret: from-file\n")
	t.Setenv("APP_JWT_SECRET", "from-env")
	t.Setenv("APP_DB_DRIVER", "mysql")

	c := Load(p)
	require.Equal(t, "from-env", c.JWT.Secret)
	require.Equal(t, "mysql", c.DB.Driver)
}
