package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
)

// Config ...
type Config struct {
	Telegram struct {
		Token        string `yaml:"token"`
		TargetChatID int64  `yaml:"target_chat_id"`
	} `yaml:"telegram"`
	DB string `yaml:"db_dsn"`

	// Мониторинг чатов: forward-чаты только пересылаем,
	// trade-чаты дополнительно скрейпим и заводим ордер.
	ForwardChatIDs []int64 `yaml:"forward_chat_ids"`
	TradeChatIDs   []int64 `yaml:"trade_chat_ids"`

	DefaultLeverage int  `yaml:"default_leverage"`
	TradingEnabled  bool `yaml:"trading_enabled"`

	// Размер позиции берём из конфига: сигнал его не несёт.
	OrderQuantity    decimal.Decimal `yaml:"-"`
	OrderQuantityRaw string          `yaml:"order_quantity"`

	// Длительности в yaml лежат строками ("30s"), парсим сами.
	ReconcileInterval   time.Duration `yaml:"-"`
	QueryTimeout        time.Duration `yaml:"-"`
	ScrapeTimeout       time.Duration `yaml:"-"`
	DedupWindow         time.Duration `yaml:"-"`
	RetryInitialBackoff time.Duration `yaml:"-"`
	RetryMaxAttempts    int           `yaml:"retry_max_attempts"`

	ReconcileIntervalRaw   string `yaml:"reconcile_interval"`
	QueryTimeoutRaw        string `yaml:"query_timeout"`
	ScrapeTimeoutRaw       string `yaml:"scrape_timeout"`
	DedupWindowRaw         string `yaml:"dedup_window"`
	RetryInitialBackoffRaw string `yaml:"retry_initial_backoff"`

	Exchange struct {
		BaseURL   string `yaml:"base_url"`
		WSURL     string `yaml:"ws_url"`
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
	} `yaml:"exchange"`

	Scraper struct {
		CookiesFile string `yaml:"cookies_file"`
	} `yaml:"scraper"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`
}

func NewConfig() (*Config, error) {
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	config := Config{
		DefaultLeverage:  50,
		RetryMaxAttempts: 3,
		OrderQuantityRaw: "0.01",
	}
	decoder := yaml.NewDecoder(file)
	if err = decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// env поверх файла
	v := viper.New()
	v.SetEnvPrefix("RELAY")
	v.AutomaticEnv()
	if s := v.GetString("TELEGRAM_TOKEN"); s != "" {
		config.Telegram.Token = s
	}
	if id := v.GetInt64("TARGET_CHAT_ID"); id != 0 {
		config.Telegram.TargetChatID = id
	}
	if s := v.GetString("DATABASE_DSN"); s != "" {
		config.DB = s
	}
	if v.IsSet("TRADING_ENABLED") {
		config.TradingEnabled = v.GetBool("TRADING_ENABLED")
	}
	if s := v.GetString("EXCHANGE_API_KEY"); s != "" {
		config.Exchange.APIKey = s
	}
	if s := v.GetString("EXCHANGE_API_SECRET"); s != "" {
		config.Exchange.APISecret = s
	}
	if s := v.GetString("ORDER_QUANTITY"); s != "" {
		config.OrderQuantityRaw = s
	}

	config.OrderQuantity, err = decimal.NewFromString(config.OrderQuantityRaw)
	if err != nil {
		return nil, fmt.Errorf("bad order_quantity %q: %w", config.OrderQuantityRaw, err)
	}

	config.ReconcileInterval = durationOrDefault(config.ReconcileIntervalRaw, 30*time.Second)
	config.QueryTimeout = durationOrDefault(config.QueryTimeoutRaw, 10*time.Second)
	config.ScrapeTimeout = durationOrDefault(config.ScrapeTimeoutRaw, 15*time.Second)
	config.DedupWindow = durationOrDefault(config.DedupWindowRaw, 10*time.Minute)
	config.RetryInitialBackoff = durationOrDefault(config.RetryInitialBackoffRaw, time.Second)

	if err = config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func durationOrDefault(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return def
}

// validate: без обязательных настроек не начинаем роутить сообщения вообще.
func (c *Config) validate() error {
	switch {
	case c.Telegram.Token == "":
		return fmt.Errorf("config: telegram token is required")
	case c.Telegram.TargetChatID == 0:
		return fmt.Errorf("config: target_chat_id is required")
	case c.DB == "":
		return fmt.Errorf("config: db_dsn is required")
	case len(c.ForwardChatIDs) == 0 && len(c.TradeChatIDs) == 0:
		return fmt.Errorf("config: at least one monitored chat is required")
	case c.DefaultLeverage <= 0:
		return fmt.Errorf("config: default_leverage must be positive")
	case c.RetryMaxAttempts <= 0:
		return fmt.Errorf("config: retry_max_attempts must be positive")
	case !c.OrderQuantity.IsPositive():
		return fmt.Errorf("config: order_quantity must be positive")
	}
	return nil
}
