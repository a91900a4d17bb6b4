package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Backend struct {
		Type         string        `yaml:"type"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		LogTopic     string   `yaml:"log_topic"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Binance struct {
		BaseURL        string        `yaml:"base_url"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Symbol         string        `yaml:"symbol"`
		Interval       string        `yaml:"interval"`
		KlinesLimit    int           `yaml:"klines_limit"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"binance"`
	Polymarket struct {
		GammaURL    string        `yaml:"gamma_url"`
		ClobURL     string        `yaml:"clob_url"`
		SlugPattern string        `yaml:"slug_pattern"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"polymarket"`
	Model struct {
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
		Retries    int           `yaml:"retries"`
		CacheTTL   time.Duration `yaml:"cache_ttl"`
	} `yaml:"model"`
	Features struct {
		EMAFast    int `yaml:"ema_fast"`
		EMASlow    int `yaml:"ema_slow"`
		RSIPeriod  int `yaml:"rsi_period"`
		MACDFast   int `yaml:"macd_fast"`
		MACDSlow   int `yaml:"macd_slow"`
		MACDSignal int `yaml:"macd_signal"`
		ATRPeriod  int `yaml:"atr_period"`
	} `yaml:"features"`
	Risk struct {
		RiskFraction     float64 `yaml:"risk_fraction"`
		MaxTradeCap      float64 `yaml:"max_trade_cap"`
		EdgeThreshold    float64 `yaml:"edge_threshold"`
		LossStreakLimit  int     `yaml:"loss_streak_limit"`
		DailyDrawdownCap float64 `yaml:"daily_drawdown_cap"`
		InitialBalance   float64 `yaml:"initial_balance"`
	} `yaml:"risk"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("SYMBOL"); v != "" {
		c.Binance.Symbol = v
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("MODEL_SERVICE_URL"); v != "" {
		c.Model.ServiceURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Binance.BaseURL == "" {
		c.Binance.BaseURL = "https://api.binance.com"
	}
	if c.Binance.Symbol == "" {
		c.Binance.Symbol = "BTCUSDT"
	}
	if c.Binance.Interval == "" {
		c.Binance.Interval = "5m"
	}
	if c.Binance.KlinesLimit <= 0 {
		c.Binance.KlinesLimit = 1000
	}
	if c.Polymarket.GammaURL == "" {
		c.Polymarket.GammaURL = "https://gamma-api.polymarket.com"
	}
	if c.Polymarket.ClobURL == "" {
		c.Polymarket.ClobURL = "https://clob.polymarket.com"
	}
	if c.Polymarket.SlugPattern == "" {
		c.Polymarket.SlugPattern = "btc-updown-5m"
	}
	if c.Risk.RiskFraction <= 0 {
		c.Risk.RiskFraction = 0.10
	}
	if c.Risk.MaxTradeCap <= 0 {
		c.Risk.MaxTradeCap = 10.0
	}
	if c.Risk.EdgeThreshold <= 0 {
		c.Risk.EdgeThreshold = 0.06
	}
	if c.Risk.LossStreakLimit <= 0 {
		c.Risk.LossStreakLimit = 2
	}
	if c.Risk.DailyDrawdownCap <= 0 {
		c.Risk.DailyDrawdownCap = 0.10
	}
	if c.Risk.InitialBalance <= 0 {
		c.Risk.InitialBalance = 100.0
	}
	if c.Kafka.LogTopic == "" {
		c.Kafka.LogTopic = "btcedge.logs"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if c.Binance.Symbol == "" {
		return fmt.Errorf("binance.symbol is required")
	}
	return nil
}
