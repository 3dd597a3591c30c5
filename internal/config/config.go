package config

import (
	"fmt"
	"os"
)

// ChannelPolicy selects which out-of-band channels an OTP challenge
// attempts. School-level setting, read once per challenge.
type ChannelPolicy string

const (
	ChannelSMS   ChannelPolicy = "sms"
	ChannelEmail ChannelPolicy = "email"
	ChannelBoth  ChannelPolicy = "both"
)

// Config holds the application configuration
type Config struct {
	DatabaseURL string
	Port        string

	RedisAddr     string
	RedisPassword string

	OTPSalt     string
	OTPChannels ChannelPolicy

	SMSCountryCode string

	ProviderBaseURL   string
	ProviderJWTSecret string

	DispatcherBaseURL string
	DispatcherAPIKey  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:           "8080",
		RedisAddr:      "localhost:6379",
		OTPChannels:    ChannelBoth,
		SMSCountryCode: "254",
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	cfg.DatabaseURL = databaseURL

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.RedisAddr = addr
	}
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	otpSalt := os.Getenv("OTP_SALT")
	if otpSalt == "" {
		return nil, fmt.Errorf("OTP_SALT environment variable is required")
	}
	cfg.OTPSalt = otpSalt

	if channels := os.Getenv("OTP_CHANNELS"); channels != "" {
		policy := ChannelPolicy(channels)
		switch policy {
		case ChannelSMS, ChannelEmail, ChannelBoth:
			cfg.OTPChannels = policy
		default:
			return nil, fmt.Errorf("OTP_CHANNELS must be one of sms, email, both (got %q)", channels)
		}
	}

	if cc := os.Getenv("SMS_COUNTRY_CODE"); cc != "" {
		cfg.SMSCountryCode = cc
	}

	providerURL := os.Getenv("PROVIDER_BASE_URL")
	if providerURL == "" {
		return nil, fmt.Errorf("PROVIDER_BASE_URL environment variable is required")
	}
	cfg.ProviderBaseURL = providerURL

	providerSecret := os.Getenv("PROVIDER_JWT_SECRET")
	if providerSecret == "" {
		return nil, fmt.Errorf("PROVIDER_JWT_SECRET environment variable is required")
	}
	cfg.ProviderJWTSecret = providerSecret

	dispatcherURL := os.Getenv("DISPATCHER_BASE_URL")
	if dispatcherURL == "" {
		return nil, fmt.Errorf("DISPATCHER_BASE_URL environment variable is required")
	}
	cfg.DispatcherBaseURL = dispatcherURL
	cfg.DispatcherAPIKey = os.Getenv("DISPATCHER_API_KEY")

	return cfg, nil
}
