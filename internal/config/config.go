package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	DB struct {
		DSN string `yaml:"dsn"`
	} `yaml:"db"`
	Gateway struct {
		BaseURL        string `yaml:"base_url"`
		KeyID          string `yaml:"key_id"`
		KeySecret      string `yaml:"key_secret"`
		Currency       string `yaml:"currency"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"gateway"`
	Shop struct {
		Name        string `yaml:"name"`
		CustomerURL string `yaml:"customer_url"`
	} `yaml:"shop"`
	Worker struct {
		IntervalHours  int  `yaml:"interval_hours"`
		Concurrency    int  `yaml:"concurrency"`
		RecoverOrphans bool `yaml:"recover_orphans"`
		OrphanPageSize int  `yaml:"orphan_page_size"`
	} `yaml:"worker"`
	Mail struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	} `yaml:"mail"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if cfg.Server.Addr == "" {
		return nil, errors.New("server.addr is required")
	}
	if cfg.DB.DSN == "" {
		return nil, errors.New("db.dsn is required")
	}
	if cfg.Gateway.BaseURL == "" || cfg.Gateway.KeyID == "" || cfg.Gateway.KeySecret == "" {
		return nil, errors.New("gateway config is incomplete")
	}
	return &cfg, nil
}

func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSeconds) * time.Second
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Worker.IntervalHours) * time.Hour
}

func applyDefaults(cfg *Config) {
	if cfg.Gateway.Currency == "" {
		cfg.Gateway.Currency = "INR"
	}
	if cfg.Gateway.TimeoutSeconds <= 0 {
		cfg.Gateway.TimeoutSeconds = 10
	}
	if cfg.Worker.IntervalHours <= 0 {
		cfg.Worker.IntervalHours = 2
	}
	if cfg.Worker.Concurrency <= 0 {
		cfg.Worker.Concurrency = 1
	}
	if cfg.Worker.OrphanPageSize <= 0 {
		cfg.Worker.OrphanPageSize = 50
	}
	if cfg.Shop.Name == "" {
		cfg.Shop.Name = "Next Shop"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.DB.DSN = v
	}
	if v := os.Getenv("GATEWAY_BASE_URL"); v != "" {
		cfg.Gateway.BaseURL = v
	}
	if v := os.Getenv("GATEWAY_KEY_ID"); v != "" {
		cfg.Gateway.KeyID = v
	}
	if v := os.Getenv("GATEWAY_KEY_SECRET"); v != "" {
		cfg.Gateway.KeySecret = v
	}
	if v := os.Getenv("GATEWAY_CURRENCY"); v != "" {
		cfg.Gateway.Currency = v
	}
	if v := os.Getenv("GATEWAY_TIMEOUT_SECONDS"); v != "" {
		cfg.Gateway.TimeoutSeconds = atoiOr(cfg.Gateway.TimeoutSeconds, v)
	}
	if v := os.Getenv("SHOP_NAME"); v != "" {
		cfg.Shop.Name = v
	}
	if v := os.Getenv("CUSTOMER_URL"); v != "" {
		cfg.Shop.CustomerURL = v
	}
	if v := os.Getenv("WORKER_INTERVAL_HOURS"); v != "" {
		cfg.Worker.IntervalHours = atoiOr(cfg.Worker.IntervalHours, v)
	}
	if v := os.Getenv("WORKER_CONCURRENCY"); v != "" {
		cfg.Worker.Concurrency = atoiOr(cfg.Worker.Concurrency, v)
	}
	if v := os.Getenv("WORKER_RECOVER_ORPHANS"); v != "" {
		cfg.Worker.RecoverOrphans = v == "true" || v == "1"
	}
	if v := os.Getenv("WORKER_ORPHAN_PAGE_SIZE"); v != "" {
		cfg.Worker.OrphanPageSize = atoiOr(cfg.Worker.OrphanPageSize, v)
	}
	if v := os.Getenv("MAIL_ENABLED"); v != "" {
		cfg.Mail.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("MAIL_HOST"); v != "" {
		cfg.Mail.Host = v
	}
	if v := os.Getenv("MAIL_PORT"); v != "" {
		cfg.Mail.Port = atoiOr(cfg.Mail.Port, v)
	}
	if v := os.Getenv("MAIL_USERNAME"); v != "" {
		cfg.Mail.Username = v
	}
	if v := os.Getenv("MAIL_PASSWORD"); v != "" {
		cfg.Mail.Password = v
	}
	if v := os.Getenv("MAIL_FROM"); v != "" {
		cfg.Mail.From = v
	}
}

func atoiOr(fallback int, v string) int {
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
