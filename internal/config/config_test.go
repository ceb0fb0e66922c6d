package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"APP_PORT", "STORAGE_DRIVER", "MONGODB_URI", "MONGODB_DB_NAME",
	"LEDGER_HISTORY_LIMIT", "LEDGER_SERIES_DAYS", "LEDGER_TIMEZONE", "TIMEZONE",
	"REPORT_ENABLED", "REPORT_CRON_SCHEDULE",
	"GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID", "GOOGLE_SHEET_REPORT_RANGE",
	"EXPO_PUSH_URL", "EXPO_ACCESS_TOKEN", "PUSH_DISABLED",
	"WHATSAPP_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "META_VERIFY_TOKEN", "WHATSAPP_BASE_URL", "WHATSAPP_API_VERSION",
}

// clearEnv blanks every key Load reads; t.Setenv restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedKeys {
		t.Setenv(key, "")
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StorageMongoDB, cfg.Storage.Driver)
	assert.Equal(t, "feedledger", cfg.MongoDB.DBName)
	assert.Equal(t, 30, cfg.Ledger.HistoryLimit)
	assert.Equal(t, 30, cfg.Ledger.SeriesDays)
	assert.Equal(t, "Africa/Conakry", cfg.Ledger.Timezone)
	assert.Equal(t, "0 20 * * *", cfg.Reporting.CronSchedule)
	assert.True(t, cfg.Reporting.Enabled)

	assert.False(t, cfg.Sheets.Enabled())
	assert.False(t, cfg.WhatsApp.Enabled())
	assert.True(t, cfg.Push.Enabled())
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even when empty.
	for _, key := range []string{"STORAGE_DRIVER", "LEDGER_HISTORY_LIMIT", "WHATSAPP_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "META_VERIFY_TOKEN"} {
		require.NoError(t, os.Unsetenv(key))
	}

	path := filepath.Join(t.TempDir(), ".env")
	content := "STORAGE_DRIVER=memory\nLEDGER_HISTORY_LIMIT=12\nWHATSAPP_TOKEN=tok\nWHATSAPP_PHONE_NUMBER_ID=123\nMETA_VERIFY_TOKEN=verify\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, 12, cfg.Ledger.HistoryLimit)
	assert.True(t, cfg.WhatsApp.Enabled())
	assert.Equal(t, "verify", cfg.WhatsApp.VerifyToken)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown storage driver", map[string]string{"STORAGE_DRIVER": "sqlite"}},
		{"non numeric history limit", map[string]string{"LEDGER_HISTORY_LIMIT": "many"}},
		{"zero series days", map[string]string{"LEDGER_SERIES_DAYS": "0"}},
		{"bad timezone", map[string]string{"LEDGER_TIMEZONE": "Mars/Olympus"}},
		{"bad boolean", map[string]string{"REPORT_ENABLED": "sometimes"}},
		{"whatsapp without verify token", map[string]string{"WHATSAPP_TOKEN": "tok", "WHATSAPP_PHONE_NUMBER_ID": "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(missingEnvFile(t))
			assert.Error(t, err)
		})
	}
}

func TestValidateNil(t *testing.T) {
	var cfg *Config
	assert.Error(t, cfg.Validate())
}
