package app

import (
	"flag"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTestConfig(t *testing.T, args ...string) Config {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg, displayVersion, err := parseConfig(fs, args)
	require.NoError(t, err)
	require.False(t, displayVersion)

	return cfg
}

func TestParseConfigDefaults(t *testing.T) {
	cfg := parseTestConfig(t)

	assert.Equal(t, 10*time.Minute, cfg.Booking.HoldTTL)
	assert.Equal(t, 8, cfg.Booking.MaxSeats)
	assert.Equal(t, "booking-events", cfg.Redis.EventChannel)
	assert.Equal(t, "booking.events", cfg.AMQP.Exchange)
}

func TestParseConfigReadsEnvironment(t *testing.T) {
	t.Setenv("HOLD_TTL", "5m")
	t.Setenv("MAX_SEATS", "4")

	cfg := parseTestConfig(t, "-max-seats", "6")

	assert.Equal(t, 5*time.Minute, cfg.Booking.HoldTTL)
	assert.Equal(t, 6, cfg.Booking.MaxSeats, "flags win over the environment")
}

func TestParseConfigVersionFlag(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)

	_, displayVersion, err := parseConfig(fs, []string{"-version"})

	require.NoError(t, err)
	assert.True(t, displayVersion)
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		cfg := parseTestConfig(t)
		cfg.DB.DSN = "postgres://localhost/seats"
		cfg.Redis.URL = "localhost:6379"
		cfg.Auth.JWTSecret = "secret"
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "defaults with connections are valid", modify: func(*Config) {}},
		{
			name:    "hold ttl below two minutes",
			modify:  func(c *Config) { c.Booking.HoldTTL = time.Minute },
			wantErr: "hold-ttl must be between 2m0s and 30m0s",
		},
		{
			name:    "hold ttl above thirty minutes",
			modify:  func(c *Config) { c.Booking.HoldTTL = time.Hour },
			wantErr: "hold-ttl must be between 2m0s and 30m0s",
		},
		{
			name:    "too many seats",
			modify:  func(c *Config) { c.Booking.MaxSeats = 21 },
			wantErr: "max-seats must be between 1 and 20",
		},
		{
			name:    "cache ttl too long",
			modify:  func(c *Config) { c.Booking.CacheTTL = 10 * time.Second },
			wantErr: "availability-cache-ttl must be shorter than 10s",
		},
		{
			name:    "missing jwt secret",
			modify:  func(c *Config) { c.Auth.JWTSecret = "" },
			wantErr: "jwt-secret is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
