package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/odakpay/posbridge/internal/pos"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	LogFormat          string
	LogLevel           string
	RedisURL           string
	CORSAllowedOrigins []string
	RateLimit          string
	IdempotencyTTL     time.Duration
	CallbackReplayTTL  time.Duration

	PosEnv       pos.Environment
	KuveytTurk   BankCredentials
	VakifKatilim BankCredentials
	ParamPos     BankCredentials
}

// BankCredentials carries the merchant credentials and optional endpoint
// overrides for a single bank integration.
type BankCredentials struct {
	MerchantID string
	CustomerID string
	Username   string
	Password   string
	ClientCode string
	GUID       string
	Endpoints  map[string]string
	Timeout    time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	posEnv := pos.Environment(strings.ToLower(valueOrDefault(k.String("POS_ENV"), string(pos.EnvTest))))

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		LogFormat:          valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:           valueOrDefault(k.String("LOG_LEVEL"), "info"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		RateLimit:          valueOrDefault(k.String("RATE_LIMIT"), "60-M"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		CallbackReplayTTL:  parseDuration(k.String("CALLBACK_REPLAY_TTL"), "30m"),
		PosEnv:             posEnv,
		KuveytTurk: BankCredentials{
			MerchantID: k.String("KUVEYTTURK_MERCHANT_ID"),
			CustomerID: k.String("KUVEYTTURK_CUSTOMER_ID"),
			Username:   k.String("KUVEYTTURK_USERNAME"),
			Password:   k.String("KUVEYTTURK_PASSWORD"),
			Endpoints:  endpointOverrides(k, "KUVEYTTURK", "register", "paygate", "ui", "soap"),
			Timeout:    parseDuration(k.String("KUVEYTTURK_TIMEOUT"), "40s"),
		},
		VakifKatilim: BankCredentials{
			MerchantID: k.String("VAKIFKATILIM_MERCHANT_ID"),
			CustomerID: k.String("VAKIFKATILIM_CUSTOMER_ID"),
			Username:   k.String("VAKIFKATILIM_USERNAME"),
			Password:   k.String("VAKIFKATILIM_PASSWORD"),
			Endpoints:  endpointOverrides(k, "VAKIFKATILIM", "paygate"),
			Timeout:    parseDuration(k.String("VAKIFKATILIM_TIMEOUT"), "40s"),
		},
		ParamPos: BankCredentials{
			ClientCode: k.String("PARAMPOS_CLIENT_CODE"),
			GUID:       k.String("PARAMPOS_GUID"),
			Username:   k.String("PARAMPOS_USERNAME"),
			Password:   k.String("PARAMPOS_PASSWORD"),
			Endpoints:  endpointOverrides(k, "PARAMPOS", "service"),
			Timeout:    parseDuration(k.String("PARAMPOS_TIMEOUT"), "20s"),
		},
	}

	if !cfg.PosEnv.Valid() {
		return nil, fmt.Errorf("POS_ENV must be %q or %q", pos.EnvTest, pos.EnvProd)
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}

// BankConfig converts the credentials for the given bank into the gateway
// config shape. The second return reports whether the bank is configured.
func (c *Config) BankConfig(bank pos.Bank) (pos.Config, bool) {
	var creds BankCredentials
	switch bank {
	case pos.BankKuveytTurk:
		creds = c.KuveytTurk
	case pos.BankVakifKatilim:
		creds = c.VakifKatilim
	case pos.BankParamPos:
		creds = c.ParamPos
	default:
		return pos.Config{}, false
	}
	cfg := pos.Config{
		MerchantID: creds.MerchantID,
		CustomerID: creds.CustomerID,
		Username:   creds.Username,
		Password:   creds.Password,
		ClientCode: creds.ClientCode,
		GUID:       creds.GUID,
		Endpoints:  creds.Endpoints,
		Timeout:    creds.Timeout,
	}
	return cfg, creds.configured()
}

// ConfiguredBanks lists the banks with usable credentials.
func (c *Config) ConfiguredBanks() []pos.Bank {
	banks := make([]pos.Bank, 0, 3)
	for _, bank := range []pos.Bank{pos.BankKuveytTurk, pos.BankVakifKatilim, pos.BankParamPos} {
		if _, ok := c.BankConfig(bank); ok {
			banks = append(banks, bank)
		}
	}
	return banks
}

func (b BankCredentials) configured() bool {
	if b.ClientCode != "" {
		return b.GUID != "" && b.Username != "" && b.Password != ""
	}
	return b.MerchantID != "" && b.Username != "" && b.Password != ""
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func endpointOverrides(k *koanf.Koanf, prefix string, keys ...string) map[string]string {
	out := map[string]string{}
	for _, key := range keys {
		envKey := prefix + "_" + strings.ToUpper(key) + "_URL"
		if v := strings.TrimSpace(k.String(envKey)); v != "" {
			out[key] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
