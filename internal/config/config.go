// Package config lê a configuração do contactd: defaults, arquivo YAML
// opcional e variáveis CONTACT_* (ex: CONTACT_THROTTLE_LIMIT -> throttle.limit).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "CONTACT"

type Config struct {
	ListenAddr string `mapstructure:"listen_addr"`
	// KeyHeader identifica o cliente; vazio usa o IP.
	KeyHeader string `mapstructure:"key_header"`
	TrustXFF  bool   `mapstructure:"trust_xff"`

	Throttle     ThrottleConfig     `mapstructure:"throttle"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Transport    TransportConfig    `mapstructure:"transport"`
	RequestLimit RequestLimitConfig `mapstructure:"request_limit"`
	Concurrency  ConcurrencyConfig  `mapstructure:"concurrency"`
	Stats        StatsConfig        `mapstructure:"stats"`
	Registry     RegistryConfig     `mapstructure:"registry"`
	Log          LogConfig          `mapstructure:"log"`
}

type ThrottleConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

type StorageConfig struct {
	Driver string      `mapstructure:"driver"` // memory, file, redis
	File   string      `mapstructure:"file"`
	Redis  RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type TransportConfig struct {
	Driver string        `mapstructure:"driver"` // delay, smtp, webhook
	Delay  time.Duration `mapstructure:"delay"`
	// MaxConcurrent limita envios simultâneos somando todos os clientes (0 desliga).
	MaxConcurrent  int           `mapstructure:"max_concurrent"`
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`
	SMTP           SMTPConfig    `mapstructure:"smtp"`
	Webhook        WebhookConfig `mapstructure:"webhook"`
}

type SMTPConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	UseTLS        bool          `mapstructure:"use_tls"`
	From          string        `mapstructure:"from"`
	To            []string      `mapstructure:"to"`
	SubjectPrefix string        `mapstructure:"subject_prefix"`
	PhoneRegion   string        `mapstructure:"phone_region"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type WebhookConfig struct {
	URL     string            `mapstructure:"url"`
	Timeout time.Duration     `mapstructure:"timeout"`
	Headers map[string]string `mapstructure:"headers"`
}

// RequestLimitConfig: rps/burst valem para leituras; edição do rascunho
// (uma requisição por tecla) e envio têm buckets próprios.
type RequestLimitConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	RPS         float64 `mapstructure:"rps"`
	Burst       int     `mapstructure:"burst"`
	EditRPS     float64 `mapstructure:"edit_rps"`
	EditBurst   int     `mapstructure:"edit_burst"`
	SubmitRPS   float64 `mapstructure:"submit_rps"`
	SubmitBurst int     `mapstructure:"submit_burst"`
	AddHeaders  bool    `mapstructure:"add_headers"`
}

type ConcurrencyConfig struct {
	Max            int           `mapstructure:"max"`
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`
}

type StatsConfig struct {
	// Driver: memory ou redis (usa storage.redis.addr quando redis.addr vazio).
	Driver    string        `mapstructure:"driver"`
	Prefix    string        `mapstructure:"prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
	Bucket    string        `mapstructure:"bucket"`
	TrackKeys bool          `mapstructure:"track_keys"`
}

type RegistryConfig struct {
	IdleTTL      time.Duration `mapstructure:"idle_ttl"`
	CleanupEvery time.Duration `mapstructure:"cleanup_every"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("key_header", "")
	v.SetDefault("trust_xff", false)

	v.SetDefault("throttle.limit", 3)
	v.SetDefault("throttle.window", 30*time.Minute)

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.file", "contact-form.yaml")
	v.SetDefault("storage.redis.addr", "")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.prefix", "contact:kv")
	v.SetDefault("storage.redis.ttl", time.Duration(0))

	v.SetDefault("transport.driver", "delay")
	v.SetDefault("transport.delay", 1500*time.Millisecond)
	v.SetDefault("transport.max_concurrent", 4)
	v.SetDefault("transport.acquire_timeout", 5*time.Second)
	v.SetDefault("transport.smtp.host", "")
	v.SetDefault("transport.smtp.port", 587)
	v.SetDefault("transport.smtp.username", "")
	v.SetDefault("transport.smtp.password", "")
	v.SetDefault("transport.smtp.use_tls", false)
	v.SetDefault("transport.smtp.from", "")
	v.SetDefault("transport.smtp.to", []string{})
	v.SetDefault("transport.smtp.subject_prefix", "Contact")
	v.SetDefault("transport.smtp.phone_region", "US")
	v.SetDefault("transport.smtp.timeout", 15*time.Second)
	v.SetDefault("transport.webhook.url", "")
	v.SetDefault("transport.webhook.timeout", 10*time.Second)

	v.SetDefault("request_limit.enabled", true)
	v.SetDefault("request_limit.rps", 10.0)
	v.SetDefault("request_limit.burst", 20)
	v.SetDefault("request_limit.edit_rps", 20.0)
	v.SetDefault("request_limit.edit_burst", 40)
	v.SetDefault("request_limit.submit_rps", 0.2)
	v.SetDefault("request_limit.submit_burst", 3)
	v.SetDefault("request_limit.add_headers", false)

	v.SetDefault("concurrency.max", 100)
	v.SetDefault("concurrency.acquire_timeout", time.Duration(0))

	v.SetDefault("stats.driver", "memory")
	v.SetDefault("stats.prefix", "contact:stats")
	v.SetDefault("stats.ttl", 24*time.Hour)
	v.SetDefault("stats.bucket", "minute")
	v.SetDefault("stats.track_keys", false)

	v.SetDefault("registry.idle_ttl", 2*time.Hour)
	v.SetDefault("registry.cleanup_every", 10*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)
}

// Load monta a configuração. path vazio dispensa o arquivo.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	// IMPORTANTE: com RPS abaixo de 1 o burst padrão (20) deixa passar uma
	// rajada grande antes de o limite aparecer.
	if !burstIsSet(v) && cfg.RequestLimit.RPS > 0 && cfg.RequestLimit.RPS < 1 {
		cfg.RequestLimit.Burst = 1
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func burstIsSet(v *viper.Viper) bool {
	if v.InConfig("request_limit.burst") {
		return true
	}
	val, ok := os.LookupEnv(EnvPrefix + "_REQUEST_LIMIT_BURST")
	return ok && val != ""
}

// Validate confere combinações inválidas antes de montar as dependências.
func (c Config) Validate() error {
	if c.Throttle.Limit <= 0 {
		return errors.New("throttle.limit must be > 0")
	}
	if c.Throttle.Window <= 0 {
		return errors.New("throttle.window must be > 0")
	}

	switch c.Storage.Driver {
	case "memory":
	case "file":
		if strings.TrimSpace(c.Storage.File) == "" {
			return errors.New("storage.file is required when storage.driver=file")
		}
	case "redis":
		if strings.TrimSpace(c.Storage.Redis.Addr) == "" {
			return errors.New("storage.redis.addr is required when storage.driver=redis")
		}
	default:
		return fmt.Errorf("storage.driver %q: expected memory, file or redis", c.Storage.Driver)
	}

	switch c.Transport.Driver {
	case "delay":
		if c.Transport.Delay < 0 {
			return errors.New("transport.delay must be >= 0")
		}
	case "smtp":
		if strings.TrimSpace(c.Transport.SMTP.Host) == "" {
			return errors.New("transport.smtp.host is required when transport.driver=smtp")
		}
		if strings.TrimSpace(c.Transport.SMTP.From) == "" {
			return errors.New("transport.smtp.from is required when transport.driver=smtp")
		}
		if len(c.Transport.SMTP.To) == 0 {
			return errors.New("transport.smtp.to is required when transport.driver=smtp")
		}
	case "webhook":
		if strings.TrimSpace(c.Transport.Webhook.URL) == "" {
			return errors.New("transport.webhook.url is required when transport.driver=webhook")
		}
	default:
		return fmt.Errorf("transport.driver %q: expected delay, smtp or webhook", c.Transport.Driver)
	}

	if c.Transport.MaxConcurrent < 0 {
		return errors.New("transport.max_concurrent must be >= 0")
	}

	if c.RequestLimit.Enabled {
		if c.RequestLimit.RPS <= 0 {
			return errors.New("request_limit.rps must be > 0")
		}
		if c.RequestLimit.Burst <= 0 {
			return errors.New("request_limit.burst must be > 0")
		}
		if c.RequestLimit.EditRPS <= 0 || c.RequestLimit.EditBurst <= 0 {
			return errors.New("request_limit.edit_rps and request_limit.edit_burst must be > 0")
		}
		if c.RequestLimit.SubmitRPS <= 0 || c.RequestLimit.SubmitBurst <= 0 {
			return errors.New("request_limit.submit_rps and request_limit.submit_burst must be > 0")
		}
	}
	if c.Concurrency.Max < 0 {
		return errors.New("concurrency.max must be >= 0")
	}

	switch c.Stats.Driver {
	case "", "memory":
	case "redis":
		if strings.TrimSpace(c.Storage.Redis.Addr) == "" {
			return errors.New("storage.redis.addr is required when stats.driver=redis")
		}
	default:
		return fmt.Errorf("stats.driver %q: expected memory or redis", c.Stats.Driver)
	}
	return nil
}
