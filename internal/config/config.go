package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type RateLimitConfig struct {
	Messages int           `mapstructure:"messages"`
	Interval time.Duration `mapstructure:"interval"`
}

type AuditConfig struct {
	DSN string `mapstructure:"dsn"`
}

type STTConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LLMConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

type Config struct {
	Mode            string          `mapstructure:"mode"`
	Port            int             `mapstructure:"port"`
	LogLevel        string          `mapstructure:"log_level"`
	ReadLimit       int64           `mapstructure:"read_limit"`
	MaxMessageBytes int             `mapstructure:"max_message_bytes"`
	SendBuffer      int             `mapstructure:"send_buffer"`
	PingPeriod      time.Duration   `mapstructure:"ping_period"`
	Secret          string          `mapstructure:"secret"`
	TokenTTL        time.Duration   `mapstructure:"token_ttl"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
	Audit           AuditConfig     `mapstructure:"audit"`
	STT             STTConfig       `mapstructure:"stt"`
	LLM             LLMConfig       `mapstructure:"llm"`
}

var ErrNoSecret = errors.New("config: secret must be set")

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 1<<20)
	v.SetDefault("max_message_bytes", 64<<10)
	v.SetDefault("send_buffer", 32)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "")
	v.SetDefault("token_ttl", "12h")
	v.SetDefault("rate_limit.messages", 50)
	v.SetDefault("rate_limit.interval", "1s")
	v.SetDefault("audit.dsn", "consult.db")
	v.SetDefault("stt.url", "")
	v.SetDefault("stt.timeout", "30s")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_retries", 2)
}

// Load reads file, or config/config.<CONFIG_ENV>.yaml when file is empty.
// CONSULT_* environment variables (a .env file included) override both.
func Load(file string) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Info().Str("module", "config").Msg("loaded .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix("CONSULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		file = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(file)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", file).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", file).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Secret) == "" {
		return ErrNoSecret
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.MaxMessageBytes <= 0 || int64(c.MaxMessageBytes) > c.ReadLimit {
		return fmt.Errorf("config: max_message_bytes must be in (0, read_limit]")
	}
	if c.PingPeriod <= 0 {
		return fmt.Errorf("config: ping_period must be positive")
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("config: send_buffer must be positive")
	}
	if c.RateLimit.Messages <= 0 || c.RateLimit.Interval <= 0 {
		return fmt.Errorf("config: rate_limit needs positive messages and interval")
	}
	return nil
}
