package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("TEAHOUSE_ADMIN_TOKEN", "token")
	t.Setenv("PORT", "")

	cfg, err := loadConfig([]string{})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, DriverFile, cfg.Store.Driver)
	assert.Equal(t, "data", cfg.Store.Dir)
	assert.Equal(t, "gbp", cfg.Stripe.Currency)
	assert.True(t, cfg.Stripe.VerifyPayments, "orders require a succeeded payment unless disabled")
	assert.Equal(t, "teahouse.orders", cfg.Kafka.Topic)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
}

func TestLoadConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("TEAHOUSE_ADMIN_TOKEN", "token")
	t.Setenv("TEAHOUSE_STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/teahouse")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_1")
	t.Setenv("PORT", "9000")

	cfg, err := loadConfig([]string{})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
	assert.Equal(t, "postgres://localhost/teahouse", cfg.Store.DatabaseURL)
	assert.Equal(t, "sk_test_1", cfg.Stripe.SecretKey)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing admin token",
			cfg:     Config{Store: StoreConfig{Driver: DriverFile}},
			wantErr: "admin token is required",
		},
		{
			name:    "postgres without url",
			cfg:     Config{AdminToken: "t", Store: StoreConfig{Driver: DriverPostgres}},
			wantErr: "database URL is required",
		},
		{
			name:    "redis without url",
			cfg:     Config{AdminToken: "t", Store: StoreConfig{Driver: DriverRedis}},
			wantErr: "redis URL is required",
		},
		{
			name:    "unknown driver",
			cfg:     Config{AdminToken: "t", Store: StoreConfig{Driver: "mongo"}},
			wantErr: `unknown store driver "mongo"`,
		},
		{
			name: "memory",
			cfg:  Config{AdminToken: "t", Store: StoreConfig{Driver: DriverMemory}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
