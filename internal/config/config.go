package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                          string   `mapstructure:"PORT"`
	DatabasePath                  string   `mapstructure:"DATABASE_PATH"`
	DiscordClientID               string   `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret           string   `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL            string   `mapstructure:"DISCORD_REDIRECT_URL"`
	DiscordBotToken               string   `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string   `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
	AdminDiscordIDs               []string `mapstructure:"ADMIN_DISCORD_IDS"`
	JWTSecret                     string   `mapstructure:"JWT_SECRET"`
	Timezone                      string   `mapstructure:"TIMEZONE"`
	ClientDateCookie              string   `mapstructure:"CLIENT_DATE_COOKIE"`
	BillingDrinkRule              string   `mapstructure:"BILLING_DRINK_RULE"`
	EnableMetrics                 bool     `mapstructure:"ENABLE_METRICS"`
	LogLevel                      string   `mapstructure:"LOG_LEVEL"`
}

func LoadConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Unable to load config, %v", err)
	}
	return cfg
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_PATH", "mess.db")
	v.SetDefault("DISCORD_REDIRECT_URL", "http://127.0.0.1:8080/auth/discord/callback")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("CLIENT_DATE_COOKIE", "clientDate")
	v.SetDefault("BILLING_DRINK_RULE", "always")
	v.SetDefault("ENABLE_METRICS", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ADMIN_DISCORD_IDS", []string{})

	for _, key := range []string{
		"DISCORD_CLIENT_ID",
		"DISCORD_CLIENT_SECRET",
		"DISCORD_BOT_TOKEN",
		"DISCORD_NOTIFICATIONS_CHANNEL_ID",
		"JWT_SECRET",
	} {
		_ = v.BindEnv(key)
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	// Env lists arrive as a single comma separated string.
	if len(cfg.AdminDiscordIDs) == 1 && strings.Contains(cfg.AdminDiscordIDs[0], ",") {
		cfg.AdminDiscordIDs = strings.Split(cfg.AdminDiscordIDs[0], ",")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	switch c.BillingDrinkRule {
	case "always", "unmarked":
	default:
		return fmt.Errorf("invalid BILLING_DRINK_RULE %q: want always or unmarked", c.BillingDrinkRule)
	}
	return nil
}

// Location is the zone the server's "today" is computed in.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// IsAdminDiscordID reports whether id is listed in ADMIN_DISCORD_IDS.
func (c *Config) IsAdminDiscordID(id string) bool {
	for _, admin := range c.AdminDiscordIDs {
		if strings.TrimSpace(admin) == id {
			return true
		}
	}
	return false
}
