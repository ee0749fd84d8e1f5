// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DefaultWallet is the on-chain account this bot was built to watch.
const DefaultWallet = "0x7c930969fcf3e5a5c78bcf2e1cefda3f53e3c8fd"

type Config struct {
	TelegramToken   string `mapstructure:"telegram_token"`
	GroupChatID     int64  `mapstructure:"group_chat_id"`
	MessageThreadID int64  `mapstructure:"message_thread_id"`

	Wallet      string `mapstructure:"wallet"`
	SubgraphURL string `mapstructure:"subgraph_url"`

	PollIntervalSec int    `mapstructure:"poll_interval_sec"`
	ReportTime      string `mapstructure:"report_time"`
	ReportCheckSec  int    `mapstructure:"report_check_sec"`
	HistoryLimit    int    `mapstructure:"history_limit"`
	SubscribersFile string `mapstructure:"subscribers_file"`
	JournalFile     string `mapstructure:"journal_file"` // empty disables the event journal

	DebugLogging bool   `mapstructure:"debug_logging"`
	LogFile      string `mapstructure:"log_file"`
}

const (
	DefaultPollIntervalSec = 60
	DefaultReportTime      = "09:00"
	DefaultReportCheckSec  = 60
	DefaultHistoryLimit    = 20
	DefaultSubscribersFile = "subscribers.json"
	DefaultLogFile         = "logs/bot.log"
)

// LoadConfig reads the config file, applies OSTIUM_BOT_* environment
// overrides and validates. Missing required settings are fatal: the
// process must stop before any loop starts.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"wallet":            DefaultWallet,
		"poll_interval_sec": DefaultPollIntervalSec,
		"report_time":       DefaultReportTime,
		"report_check_sec":  DefaultReportCheckSec,
		"history_limit":     DefaultHistoryLimit,
		"subscribers_file":  DefaultSubscribersFile,
		"log_file":          DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	loadEnvironmentVariables(v, &cfg)

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.TelegramToken == "" {
		return errors.New("missing telegram_token in configuration")
	}
	// group_chat_id zero runs subscriber-only: the group sink is simply
	// disabled in the delivery layer.
	if cfg.Wallet == "" {
		return errors.New("missing wallet in configuration")
	}
	if !strings.HasPrefix(cfg.Wallet, "0x") {
		return errors.New("wallet must be a 0x-prefixed address")
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.PollIntervalSec <= 0 {
		return errors.New("invalid poll_interval_sec")
	}
	if cfg.ReportCheckSec <= 0 {
		return errors.New("invalid report_check_sec")
	}
	if cfg.HistoryLimit <= 0 {
		return errors.New("invalid history_limit")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) {
	v.AutomaticEnv()
	v.SetEnvPrefix("OSTIUM_BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}
	if chatID := v.GetInt64("GROUP_CHAT_ID"); chatID != 0 {
		cfg.GroupChatID = chatID
	}
	if threadID := v.GetInt64("MESSAGE_THREAD_ID"); threadID != 0 {
		cfg.MessageThreadID = threadID
	}
	if wallet := v.GetString("WALLET"); wallet != "" {
		cfg.Wallet = wallet
	}
}
