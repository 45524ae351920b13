package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskboard/backend/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	tests := map[string]struct {
		content string
		env     map[string]string
		expErr  bool
		check   func(t *testing.T, cfg *config.Config)
	}{
		"A minimal file should be completed with defaults": {
			content: "database:\n  driver: sqlite\n",
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
				assert.Equal(t, "data/taskboard.db", cfg.Database.DSN())
				assert.Equal(t, "board:", cfg.Redis.ChannelPrefix)
				assert.Equal(t, "@every 10m", cfg.Audit.Schedule)
				assert.True(t, cfg.Features.EnableLocks)
			},
		},

		"Postgres settings should build a DSN": {
			content: `
database:
  driver: postgres
  host: db
  port: 5433
  user: board
  password: secret
  name: taskboard
`,
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "host=db port=5433 user=board password=secret dbname=taskboard sslmode=disable", cfg.Database.DSN())
			},
		},

		"Environment should override file values": {
			content: "server:\n  port: 9000\n",
			env:     map[string]string{"TASKBOARD_SERVER_PORT": "9100", "TASKBOARD_AUDIT_REPAIR": "true"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 9100, cfg.Server.Port)
				assert.True(t, cfg.Audit.Repair)
			},
		},

		"An unknown database driver should fail": {
			content: "database:\n  driver: mysql\n",
			expErr:  true,
		},

		"An out of range port should fail": {
			content: "server:\n  port: 70000\n",
			expErr:  true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range test.env {
				t.Setenv(k, v)
			}

			cfg, err := config.Load(writeConfig(t, test.content))
			if test.expErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			test.check(t, cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
