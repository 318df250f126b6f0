package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/sports-bet-ledger/internal/shared/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "ledger-service")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, config.StorePostgres, cfg.StoreDriver)
	assert.Equal(t, "ledger_events", cfg.TopicLedgerEvents)
	assert.Equal(t, "rollup_ops", cfg.TopicRollupOps)
	assert.Equal(t, "rollup-worker", cfg.RollupDelegate)
	assert.Equal(t, 5*time.Minute, cfg.OddsTTL)
	assert.Equal(t, "8090", cfg.HTTPPort)
	assert.Equal(t, "9090", cfg.MetricsPort)
}

func TestLoad_ServicePorts(t *testing.T) {
	cases := map[string][2]string{
		"ledger-events":         {"8091", "9091"},
		"rollup-worker":         {"", "9092"},
		"odds-processor-worker": {"", "9097"},
		"api-gateway":           {"8000", "9093"},
		"":                      {"8080", "9095"},
	}
	for svc, ports := range cases {
		t.Run(svc, func(t *testing.T) {
			t.Setenv("SERVICE_NAME", svc)
			cfg, err := config.Load()
			require.NoError(t, err)
			assert.Equal(t, ports[0], cfg.HTTPPort)
			assert.Equal(t, ports[1], cfg.MetricsPort)
		})
	}
}

func TestLoad_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
STORE_DRIVER: sqlite
SQLITE_PATH: /tmp/ledger.db
ODDS_TTL_SECONDS: 30
API_RATE_LIMIT: 2.5
ROLLUP_DELEGATE: from-file
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	// env real vence o arquivo
	t.Setenv("ROLLUP_DELEGATE", "from-env")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.StoreSQLite, cfg.StoreDriver)
	assert.Equal(t, "/tmp/ledger.db", cfg.SQLitePath)
	assert.Equal(t, 30*time.Second, cfg.OddsTTL)
	assert.InDelta(t, 2.5, cfg.APIRateLimit, 1e-9)
	assert.Equal(t, "from-env", cfg.RollupDelegate)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "mongo")
		_, err := config.Load()
		assert.ErrorContains(t, err, "STORE_DRIVER")
	})
	t.Run("bad number", func(t *testing.T) {
		t.Setenv("ODDS_TTL_SECONDS", "soon")
		_, err := config.Load()
		assert.ErrorContains(t, err, "ODDS_TTL_SECONDS")
	})
	t.Run("missing overlay", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := config.Load()
		assert.Error(t, err)
	})
}
