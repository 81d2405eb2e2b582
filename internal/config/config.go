package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration required by the API process and the operator CLI.
// Values come from env; a local .env file is loaded first when present.
// No business logic should depend on raw environment variables.
type Config struct {
	App   AppConfig
	DB    DBConfig
	Redis RedisConfig
	Auth  AuthConfig
}

type AppConfig struct {
	Env  string
	Port int

	// BaseURL is the externally reachable origin used to build impersonation redemption links.
	BaseURL string

	MigrateOnStart bool
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string

	// SessionTTL is the sliding session lifetime.
	SessionTTL time.Duration
	// SessionRefreshAfter is how old a session token must be before it is re-issued.
	SessionRefreshAfter time.Duration
	// ImpersonationTTL is the fixed lifetime of an impersonation grant and its cookie.
	ImpersonationTTL time.Duration

	CookieSecure bool

	LoginRateLimit  int
	LoginRateWindow time.Duration
}

func Load() (Config, error) {
	// Local convenience only; real deployments set env directly.
	_ = godotenv.Load()

	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.BaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("APP_BASE_URL")), "/")
	c.App.MigrateOnStart = optionalBool("MIGRATE_ON_START", false)

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

	c.Auth.Secret = os.Getenv("AUTH_SECRET")
	c.Auth.Issuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.Audience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Duration env vars are optional; defaults applied in Validate().
	c.Auth.SessionTTL = mustDuration("SESSION_TTL")
	c.Auth.SessionRefreshAfter = mustDuration("SESSION_REFRESH_AFTER")
	c.Auth.ImpersonationTTL = mustDuration("IMPERSONATION_TTL")
	c.Auth.CookieSecure = optionalBool("COOKIE_SECURE", c.App.Env == "production")
	c.Auth.LoginRateWindow = mustDuration("LOGIN_RATE_WINDOW")
	if v := strings.TrimSpace(os.Getenv("LOGIN_RATE_LIMIT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Errorf("LOGIN_RATE_LIMIT must be an integer, got %q", v))
		}
		c.Auth.LoginRateLimit = n
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required values and fills defaults in place.
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
	if c.App.BaseURL == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("APP_BASE_URL is required in production"))
		} else {
			c.App.BaseURL = fmt.Sprintf("http://localhost:%d", c.App.Port)
		}
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

	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("AUTH_SECRET is required"))
	} else if c.IsProduction() && len(c.Auth.Secret) < 32 {
		errs = append(errs, errors.New("AUTH_SECRET must be at least 32 bytes in production"))
	}
	if c.IsProduction() {
		if c.Auth.Issuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.Audience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}

	if c.Auth.SessionTTL <= 0 {
		c.Auth.SessionTTL = 30 * 24 * time.Hour
	}
	if c.Auth.SessionRefreshAfter <= 0 {
		c.Auth.SessionRefreshAfter = 24 * time.Hour
	}
	if c.Auth.ImpersonationTTL <= 0 {
		c.Auth.ImpersonationTTL = time.Hour
	}
	if c.Auth.SessionRefreshAfter >= c.Auth.SessionTTL {
		errs = append(errs, errors.New("SESSION_REFRESH_AFTER must be less than SESSION_TTL"))
	}
	if c.Auth.ImpersonationTTL > c.Auth.SessionTTL {
		errs = append(errs, errors.New("IMPERSONATION_TTL must not exceed SESSION_TTL"))
	}
	if c.Auth.LoginRateLimit <= 0 {
		c.Auth.LoginRateLimit = 10
	}
	if c.Auth.LoginRateWindow <= 0 {
		c.Auth.LoginRateWindow = 15 * time.Minute
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

// PostgresURL is the URL form required by the migration driver.
func (c Config) PostgresURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     fmt.Sprintf("%s:%d", c.DB.Host, c.DB.Port),
		Path:     "/" + c.DB.Name,
		RawQuery: url.Values{"sslmode": []string{c.DB.SSLMode}}.Encode(),
	}
	return u.String()
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

func mustDuration(key string) time.Duration {
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

func optionalBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
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
