package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	Auth       AuthConfig
	CallSource CallSourceConfig
	Sync       SyncConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is kept explicit for managed-Postgres posture.
	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

// CallSourceConfig carries the client-credentials set for the upstream
// telephony/CRM platform. Tokens are short-lived; the client refreshes them.
type CallSourceConfig struct {
	BaseURL      string
	AuthURL      string
	ClientID     string
	ClientSecret string
	TenantID     string
	AppKey       string
}

// SyncConfig tunes the sync pipeline and its trigger surface.
type SyncConfig struct {
	// CronSecret authenticates scheduled invocations (bearer token).
	CronSecret string

	// DefaultLookbackDays is the lookback when a trigger supplies no days.
	DefaultLookbackDays int
	// MaxLookbackDays caps a single invocation's window.
	MaxLookbackDays int

	// PageSize is the upstream page size per fetch.
	PageSize int
	// MaxPages bounds pagination per window; hitting it is logged, not fatal.
	MaxPages int
	// MaxRecords is the safety ceiling on fetched records per window.
	MaxRecords int
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Optional; default applied in Validate().
	c.Auth.AccessTokenTTL = optDuration("JWT_ACCESS_TTL")

	c.CallSource.BaseURL = strings.TrimSpace(os.Getenv("CALLSOURCE_BASE_URL"))
	c.CallSource.AuthURL = strings.TrimSpace(os.Getenv("CALLSOURCE_AUTH_URL"))
	c.CallSource.ClientID = strings.TrimSpace(os.Getenv("CALLSOURCE_CLIENT_ID"))
	c.CallSource.ClientSecret = os.Getenv("CALLSOURCE_CLIENT_SECRET")
	c.CallSource.TenantID = strings.TrimSpace(os.Getenv("CALLSOURCE_TENANT_ID"))
	c.CallSource.AppKey = os.Getenv("CALLSOURCE_APP_KEY")

	c.Sync.CronSecret = os.Getenv("CRON_SECRET")
	c.Sync.DefaultLookbackDays = optInt("SYNC_DEFAULT_LOOKBACK_DAYS")
	c.Sync.MaxLookbackDays = optInt("SYNC_MAX_LOOKBACK_DAYS")
	c.Sync.PageSize = optInt("SYNC_PAGE_SIZE")
	c.Sync.MaxPages = optInt("SYNC_MAX_PAGES")
	c.Sync.MaxRecords = optInt("SYNC_MAX_RECORDS")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		// Short-lived access tokens.
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}

	// Missing upstream credentials are a configuration error: fatal for the
	// whole invocation, no partial work attempted.
	if c.CallSource.ClientID == "" {
		errs = append(errs, errors.New("CALLSOURCE_CLIENT_ID is required"))
	}
	if c.CallSource.ClientSecret == "" {
		errs = append(errs, errors.New("CALLSOURCE_CLIENT_SECRET is required"))
	}
	if c.CallSource.TenantID == "" {
		errs = append(errs, errors.New("CALLSOURCE_TENANT_ID is required"))
	}
	if c.CallSource.AppKey == "" {
		errs = append(errs, errors.New("CALLSOURCE_APP_KEY is required"))
	}
	if c.CallSource.BaseURL == "" {
		c.CallSource.BaseURL = "https://api.servicetitan.io"
	}
	if c.CallSource.AuthURL == "" {
		c.CallSource.AuthURL = "https://auth.servicetitan.io/connect/token"
	}

	if c.Sync.CronSecret == "" {
		errs = append(errs, errors.New("CRON_SECRET is required"))
	}
	if c.Sync.DefaultLookbackDays <= 0 {
		c.Sync.DefaultLookbackDays = 7
	}
	if c.Sync.MaxLookbackDays <= 0 {
		c.Sync.MaxLookbackDays = 90
	}
	if c.Sync.DefaultLookbackDays > c.Sync.MaxLookbackDays {
		errs = append(errs, fmt.Errorf("SYNC_DEFAULT_LOOKBACK_DAYS (%d) must not exceed SYNC_MAX_LOOKBACK_DAYS (%d)",
			c.Sync.DefaultLookbackDays, c.Sync.MaxLookbackDays))
	}
	if c.Sync.PageSize <= 0 {
		c.Sync.PageSize = 100
	}
	if c.Sync.MaxPages <= 0 {
		c.Sync.MaxPages = 50
	}
	if c.Sync.MaxRecords <= 0 {
		c.Sync.MaxRecords = 5000
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

// optInt returns 0 for unset or invalid values; defaults are applied in Validate().
func optInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func optDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
