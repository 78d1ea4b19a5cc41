package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mess.db", cfg.DatabasePath)
	assert.Equal(t, "clientDate", cfg.ClientDateCookie)
	assert.Equal(t, "always", cfg.BillingDrinkRule)
	assert.True(t, cfg.EnableMetrics)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("BILLING_DRINK_RULE", "unmarked")
	t.Setenv("ADMIN_DISCORD_IDS", "111,222")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "unmarked", cfg.BillingDrinkRule)
	assert.True(t, cfg.IsAdminDiscordID("222"))
	assert.False(t, cfg.IsAdminDiscordID("333"))

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestValidate(t *testing.T) {
	cfg := &Config{Timezone: "Mars/Olympus", BillingDrinkRule: "always"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Timezone: "UTC", BillingDrinkRule: "sometimes"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Timezone: "", BillingDrinkRule: "always"}
	assert.NoError(t, cfg.Validate())
}
