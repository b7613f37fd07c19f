package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env string `mapstructure:"env"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
		// MigrationsPath is a golang-migrate source URL, e.g. file://db/migrations.
		MigrationsPath string `mapstructure:"migrations_path"`
	} `mapstructure:"database"`

	Redis struct {
		// Enabled turns on the profile cache. The redis rate limiter also needs it.
		Enabled  bool   `mapstructure:"enabled"`
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Server struct {
		Port        string        `mapstructure:"port"`
		FrontendURL string        `mapstructure:"frontend_url"`
		LoginPath   string        `mapstructure:"login_path"`
		CORSOrigin  string        `mapstructure:"cors_origin"`
		TrustProxy  bool          `mapstructure:"trust_proxy"`
		ReadTimeout time.Duration `mapstructure:"read_timeout"`
	} `mapstructure:"server"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	JWT struct {
		AccessSecret       string        `mapstructure:"access_secret"`
		RefreshSecret      string        `mapstructure:"refresh_secret"`
		VerificationSecret string        `mapstructure:"verification_secret"`
		AccessTTL          time.Duration `mapstructure:"access_ttl"`
		RefreshTTL         time.Duration `mapstructure:"refresh_ttl"`
		VerificationTTL    time.Duration `mapstructure:"verification_ttl"`
	} `mapstructure:"jwt"`

	OTP struct {
		MaxAttempts int           `mapstructure:"max_attempts"`
		Window      time.Duration `mapstructure:"window"`
		CodeTTL     time.Duration `mapstructure:"code_ttl"`
	} `mapstructure:"otp"`

	RateLimit struct {
		// Backend is either "memory" or "redis".
		Backend string        `mapstructure:"backend"`
		Limit   int           `mapstructure:"limit"`
		Window  time.Duration `mapstructure:"window"`
	} `mapstructure:"rate_limit"`

	Security struct {
		CSRFEnabled    bool          `mapstructure:"csrf_enabled"`
		ReaperInterval time.Duration `mapstructure:"reaper_interval"`
		DeletionGrace  time.Duration `mapstructure:"deletion_grace"`
	} `mapstructure:"security"`

	Mail struct {
		Enabled              bool          `mapstructure:"enabled"`
		Endpoint             string        `mapstructure:"endpoint"`
		ServiceID            string        `mapstructure:"service_id"`
		PublicKey            string        `mapstructure:"public_key"`
		PrivateKey           string        `mapstructure:"private_key"`
		TemplateVerification string        `mapstructure:"template_verification"`
		TemplateOTP          string        `mapstructure:"template_otp"`
		Timeout              time.Duration `mapstructure:"timeout"`
	} `mapstructure:"mail"`
}

// IsProduction reports whether secure-only cookies and real mail delivery are expected.
func (c Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "pilot"
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.migrations_path", "file://db/migrations")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.frontend_url", "http://localhost:8080")
	v.SetDefault("server.login_path", "/login")
	v.SetDefault("server.cors_origin", "*")
	v.SetDefault("server.read_timeout", 15*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("jwt.access_ttl", 15*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 7*24*time.Hour)
	v.SetDefault("jwt.verification_ttl", time.Hour)

	v.SetDefault("otp.max_attempts", 3)
	v.SetDefault("otp.window", 30*time.Minute)
	v.SetDefault("otp.code_ttl", 10*time.Minute)

	v.SetDefault("rate_limit.backend", "memory")
	v.SetDefault("rate_limit.limit", 100)
	v.SetDefault("rate_limit.window", 15*time.Minute)

	v.SetDefault("security.csrf_enabled", true)
	v.SetDefault("security.reaper_interval", 10*time.Minute)
	v.SetDefault("security.deletion_grace", 30*24*time.Hour)

	v.SetDefault("mail.endpoint", "https://api.emailjs.com/api/v1.0/email/send")
	v.SetDefault("mail.timeout", 10*time.Second)
}

// Load reads config.yml from path, applies defaults and APP_* environment overrides.
// A missing config file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix("app")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" || c.JWT.VerificationSecret == "" {
		errs = append(errs, errors.New("jwt secrets must be configured for access, refresh and verification tokens"))
	}
	if c.OTP.MaxAttempts <= 0 || c.OTP.MaxAttempts > 32767 {
		errs = append(errs, fmt.Errorf("otp.max_attempts must be between 1 and 32767, got %d", c.OTP.MaxAttempts))
	}
	if c.RateLimit.Limit <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.limit must be positive, got %d", c.RateLimit.Limit))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.window must be positive, got %s", c.RateLimit.Window))
	}
	if c.Security.ReaperInterval <= 0 {
		errs = append(errs, fmt.Errorf("security.reaper_interval must be positive, got %s", c.Security.ReaperInterval))
	}
	return errors.Join(errs...)
}

func LoadConfig(path string) {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %s", err)
	}

	AppConfig = cfg
}
