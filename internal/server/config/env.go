package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment variable names recognized by the server. A .env file in the
// working directory is loaded first (local development); real environment
// variables win over it.
var envKeys = []string{
	"PLANHUB_HTTP_ADDR",
	"PLANHUB_DATABASE_DSN",
	"PLANHUB_SECRET_KEY",
	"PLANHUB_ACCESS_TOKEN_TTL",
	"PLANHUB_REFRESH_TOKEN_TTL",
	"PLANHUB_LOCK_MAX_ATTEMPTS",
	"PLANHUB_LOCK_DURATION",
	"PLANHUB_S3_ROOT_USER",
	"PLANHUB_S3_ROOT_PASSWORD",
	"PLANHUB_S3_BUCKET",
	"PLANHUB_S3_REGION",
	"PLANHUB_S3_BASE_ENDPOINT",
	"PLANHUB_AMQP_URL",
	"PLANHUB_SMTP_ADDR",
	"PLANHUB_SMTP_FROM",
	"PLANHUB_PUBLIC_BASE_URL",
}

// parseEnv overlays Config fields from the environment via viper. Only
// variables that are actually set override earlier sources.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	setString := func(key string, dst *string) {
		if v.IsSet(key) && v.GetString(key) != "" {
			*dst = v.GetString(key)
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v.IsSet(key) && v.GetString(key) != "" {
			if d, err := time.ParseDuration(v.GetString(key)); err == nil {
				*dst = d
			}
		}
	}

	setString("PLANHUB_HTTP_ADDR", &config.EndpointAddrHTTP)
	setString("PLANHUB_DATABASE_DSN", &config.DatabaseDSN)
	setString("PLANHUB_SECRET_KEY", &config.SecretKey)
	setDuration("PLANHUB_ACCESS_TOKEN_TTL", &config.AccessTokenValidityDuration)
	setDuration("PLANHUB_REFRESH_TOKEN_TTL", &config.RefreshTokenValidityDuration)
	if v.IsSet("PLANHUB_LOCK_MAX_ATTEMPTS") && v.GetInt("PLANHUB_LOCK_MAX_ATTEMPTS") > 0 {
		config.LockMaxAttempts = v.GetInt("PLANHUB_LOCK_MAX_ATTEMPTS")
	}
	setDuration("PLANHUB_LOCK_DURATION", &config.LockDuration)
	setString("PLANHUB_S3_ROOT_USER", &config.S3RootUser)
	setString("PLANHUB_S3_ROOT_PASSWORD", &config.S3RootPassword)
	setString("PLANHUB_S3_BUCKET", &config.S3Bucket)
	setString("PLANHUB_S3_REGION", &config.S3Region)
	setString("PLANHUB_S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	setString("PLANHUB_AMQP_URL", &config.AMQPURL)
	setString("PLANHUB_SMTP_ADDR", &config.SMTPAddr)
	setString("PLANHUB_SMTP_FROM", &config.SMTPFrom)
	setString("PLANHUB_PUBLIC_BASE_URL", &config.PublicBaseURL)
}
