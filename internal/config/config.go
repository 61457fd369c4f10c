package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "CHORES"

// Config holds the settings of both tools.
type Config struct {
	Queue   QueueConfig   `mapstructure:"queue"`
	Price   PriceConfig   `mapstructure:"price"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// QueueConfig configures podqueue.
type QueueConfig struct {
	File           string        `mapstructure:"file"`
	Workers        int           `mapstructure:"workers"`
	ChunkSize      int           `mapstructure:"chunk_size"`
	Timeout        time.Duration `mapstructure:"timeout"` // 0 disables
	UserAgent      string        `mapstructure:"user_agent"`
	AcceptEncoding string        `mapstructure:"accept_encoding"`
}

// PriceConfig configures pricewatch.
type PriceConfig struct {
	StateFile      string        `mapstructure:"state_file"`
	NewBooksFile   string        `mapstructure:"new_books_file"`
	ProductURL     string        `mapstructure:"product_url"` // printf template taking the ASIN
	NotifyURL      string        `mapstructure:"notify_url"`
	UserAgent      string        `mapstructure:"user_agent"`
	AcceptLanguage string        `mapstructure:"accept_language"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// LoggingConfig configures the clog backends.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
	MaxSize int64  `mapstructure:"max_size"`
}

const browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/111.0"

// Default returns the configuration used when no file or env overrides exist.
func Default() *Config {
	return &Config{
		Queue: QueueConfig{
			File:           defaultQueuePath(),
			Workers:        6,
			ChunkSize:      1 << 20,
			UserAgent:      browserUserAgent,
			AcceptEncoding: "gzip, deflate",
		},
		Price: PriceConfig{
			StateFile:      "/srv/exported_books.yaml",
			NewBooksFile:   "/srv/new_books.txt",
			ProductURL:     "https://www.amazon.com/dp/%s/",
			NotifyURL:      "http://ntfy/book",
			UserAgent:      browserUserAgent,
			AcceptLanguage: "en-GB",
			Timeout:        30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			MaxSize: 10 << 20,
		},
	}
}

func defaultQueuePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".newsboat", "queue")
	}
	return filepath.Join(home, ".newsboat", "queue")
}

// Load reads the YAML config at path on top of the defaults. With an empty
// path the usual locations are searched and a missing file is not an error.
// CHORES_* environment variables override both, e.g. CHORES_QUEUE_WORKERS.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("chores")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "chores"))
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "Read config failed")
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "Parse config failed")
	}

	return cfg, nil
}

// bindDefaults registers every key so AutomaticEnv can see env-only values
// during Unmarshal.
func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("queue.file", cfg.Queue.File)
	v.SetDefault("queue.workers", cfg.Queue.Workers)
	v.SetDefault("queue.chunk_size", cfg.Queue.ChunkSize)
	v.SetDefault("queue.timeout", cfg.Queue.Timeout)
	v.SetDefault("queue.user_agent", cfg.Queue.UserAgent)
	v.SetDefault("queue.accept_encoding", cfg.Queue.AcceptEncoding)

	v.SetDefault("price.state_file", cfg.Price.StateFile)
	v.SetDefault("price.new_books_file", cfg.Price.NewBooksFile)
	v.SetDefault("price.product_url", cfg.Price.ProductURL)
	v.SetDefault("price.notify_url", cfg.Price.NotifyURL)
	v.SetDefault("price.user_agent", cfg.Price.UserAgent)
	v.SetDefault("price.accept_language", cfg.Price.AcceptLanguage)
	v.SetDefault("price.timeout", cfg.Price.Timeout)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.max_size", cfg.Logging.MaxSize)
}

// ValidateQueue checks the settings podqueue depends on.
func (c *Config) ValidateQueue() error {
	switch {
	case c.Queue.File == "":
		return errors.New("queue file is not set")
	case c.Queue.Workers < 1:
		return errors.Errorf("invalid worker count %d", c.Queue.Workers)
	case c.Queue.ChunkSize < 1:
		return errors.Errorf("invalid chunk size %d", c.Queue.ChunkSize)
	}
	return nil
}

// ValidatePrice checks the settings pricewatch depends on.
func (c *Config) ValidatePrice() error {
	switch {
	case c.Price.StateFile == "":
		return errors.New("state file is not set")
	case c.Price.NewBooksFile == "":
		return errors.New("new books file is not set")
	case !strings.Contains(c.Price.ProductURL, "%s"):
		return errors.Errorf("product url %q has no %%s placeholder for the ASIN", c.Price.ProductURL)
	case c.Price.NotifyURL == "":
		return errors.New("notify url is not set")
	}
	return nil
}
