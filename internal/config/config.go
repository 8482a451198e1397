// Package config loads the application configuration from file and
// environment and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Recaptcha RecaptchaConfig `yaml:"recaptcha" mapstructure:"recaptcha"`
	Pipedrive PipedriveConfig `yaml:"pipedrive" mapstructure:"pipedrive"`
	Mail      MailConfig      `yaml:"mail" mapstructure:"mail"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port  int  `yaml:"port" mapstructure:"port"`
	Debug bool `yaml:"debug" mapstructure:"debug"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// RecaptchaConfig holds the reCAPTCHA v3 server secret. An empty
// secret disables remote verification; token-carrying submissions then
// fail the screen.
type RecaptchaConfig struct {
	Secret string `yaml:"secret" mapstructure:"secret"`
}

// PipedriveConfig holds CRM credentials and placement settings. Token
// and Domain empty means the CRM path is disabled and all leads go out
// by email.
type PipedriveConfig struct {
	Token            string `yaml:"token" mapstructure:"token"`
	Domain           string `yaml:"domain" mapstructure:"domain"`
	Pipeline         string `yaml:"pipeline" mapstructure:"pipeline"`
	Stage            string `yaml:"stage" mapstructure:"stage"`
	WeddingDateField string `yaml:"wedding_date_field" mapstructure:"wedding_date_field"`
	ConsentField     string `yaml:"consent_field" mapstructure:"consent_field"`
}

// Configured reports whether the CRM path can be used at all.
func (c PipedriveConfig) Configured() bool {
	return c.Token != "" && c.Domain != ""
}

// MailConfig holds SMTP settings for staff notifications and customer
// confirmations.
type MailConfig struct {
	Host     string   `yaml:"host" mapstructure:"host"`
	Port     int      `yaml:"port" mapstructure:"port"`
	User     string   `yaml:"user" mapstructure:"user"`
	Password string   `yaml:"password" mapstructure:"password"`
	From     string   `yaml:"from" mapstructure:"from"`
	Staff    []string `yaml:"staff" mapstructure:"staff"`
}

// RateLimitConfig holds the per-client submission quotas.
type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute" mapstructure:"per_minute"`
	PerHour   int `yaml:"per_hour" mapstructure:"per_hour"`
	PerDay    int `yaml:"per_day" mapstructure:"per_day"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LANDING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.debug", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("pipedrive.pipeline", "Hochzeitsanzug")
	v.SetDefault("pipedrive.stage", "Neu")
	v.SetDefault("mail.port", 587)
	v.SetDefault("rate_limit.per_minute", 5)
	v.SetDefault("rate_limit.per_hour", 20)
	v.SetDefault("rate_limit.per_day", 50)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks settings the server cannot run without. Missing CRM
// or mail credentials are allowed: those paths degrade at runtime
// instead of blocking startup.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, "server.port must be between 1 and 65535")
	}
	if c.RateLimit.PerMinute <= 0 || c.RateLimit.PerHour <= 0 || c.RateLimit.PerDay <= 0 {
		problems = append(problems, "rate_limit quotas must be > 0")
	}
	if c.Pipedrive.Configured() && c.Pipedrive.Pipeline == "" {
		problems = append(problems, "pipedrive.pipeline is required when the CRM is configured")
	}

	if len(problems) > 0 {
		return eris.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
