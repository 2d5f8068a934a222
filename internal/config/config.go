package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultFileName is looked up in the home directory when no --config is given.
const DefaultFileName = ".shinobi-relay"

type Config struct {
	Shinobi  Shinobi  `mapstructure:"shinobi"`
	Telegram Telegram `mapstructure:"telegram"`
	HTTP     HTTP     `mapstructure:"http"`
	Relay    Relay    `mapstructure:"relay"`
	Log      Log      `mapstructure:"log"`
	OTel     OTel     `mapstructure:"otel"`
}

type Shinobi struct {
	Scheme   string        `mapstructure:"scheme"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Token    string        `mapstructure:"token"`
	GroupKey string        `mapstructure:"group_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// BaseURL returns scheme://host:port without the API key.
func (s Shinobi) BaseURL() string {
	u := url.URL{Scheme: s.Scheme, Host: s.Host + ":" + strconv.Itoa(s.Port)}
	return u.String()
}

type Telegram struct {
	BotKey string `mapstructure:"bot_key"`
	ChatID int64  `mapstructure:"chat_id"`
	// Timeout bounds each getUpdates long poll.
	Timeout time.Duration `mapstructure:"timeout"`
	// SendTimeout bounds each photo or text send, so a stuck upload cannot
	// hold a webhook request for the whole long-poll window.
	SendTimeout time.Duration `mapstructure:"send_timeout"`
	// PollTimeout is the getUpdates long-poll duration in seconds.
	PollTimeout int `mapstructure:"poll_timeout"`
}

type HTTP struct {
	ListenAddr  string `mapstructure:"listen_addr"`
	TriggerPath string `mapstructure:"trigger_path"`
	// RateLimit is the number of trigger requests allowed per minute per
	// client IP. Zero, the default, disables limiting; requests over the
	// limit get 429.
	RateLimit int `mapstructure:"rate_limit"`
}

type Relay struct {
	Concurrency int  `mapstructure:"concurrency"`
	AllowEmpty  bool `mapstructure:"allow_empty"`
	CaptionGaps bool `mapstructure:"caption_gaps"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type OTel struct {
	Endpoint string `mapstructure:"endpoint"`
}

// envBindings maps config keys to the environment variables they are read
// from. The Shinobi and Telegram names predate the config file.
var envBindings = map[string]string{
	"shinobi.scheme":        "SHINOBI_SCHEME",
	"shinobi.host":          "SHINOBI_HOST",
	"shinobi.port":          "SHINOBI_PORT",
	"shinobi.token":         "SHINOBI_TOKEN",
	"shinobi.group_key":     "SHINOBI_GROUP_KEY",
	"shinobi.timeout":       "SHINOBI_TIMEOUT",
	"telegram.bot_key":      "TELEGRAM_BOT_KEY",
	"telegram.chat_id":      "TELEGRAM_CHAT_ID",
	"telegram.timeout":      "TELEGRAM_TIMEOUT",
	"telegram.send_timeout": "TELEGRAM_SEND_TIMEOUT",
	"telegram.poll_timeout": "TELEGRAM_POLL_TIMEOUT",
	"http.listen_addr":      "LISTEN_ADDR",
	"http.trigger_path":     "TRIGGER_PATH",
	"http.rate_limit":       "TRIGGER_RATE_LIMIT",
	"relay.concurrency":     "RELAY_CONCURRENCY",
	"relay.allow_empty":     "RELAY_ALLOW_EMPTY",
	"relay.caption_gaps":    "RELAY_CAPTION_GAPS",
	"log.level":             "LOG_LEVEL",
	"log.format":            "LOG_FORMAT",
	"otel.endpoint":         "OTEL_EXPORTER_OTLP_ENDPOINT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("shinobi.scheme", "http")
	v.SetDefault("shinobi.port", 8080)
	v.SetDefault("shinobi.timeout", 2*time.Second)
	v.SetDefault("telegram.timeout", 90*time.Second)
	v.SetDefault("telegram.send_timeout", 30*time.Second)
	v.SetDefault("telegram.poll_timeout", 60)
	v.SetDefault("http.listen_addr", ":8090")
	v.SetDefault("http.trigger_path", "/trigger")
	v.SetDefault("http.rate_limit", 0)
	v.SetDefault("relay.concurrency", 0)
	v.SetDefault("relay.allow_empty", false)
	v.SetDefault("relay.caption_gaps", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads configuration from, in increasing priority: defaults, the
// config file, a .env file in the working directory, and the environment.
// An empty cfgFile means $HOME/.shinobi-relay.yaml, which may be absent.
// Required values are not checked here; see Validate.
func Load(cfgFile string) (Config, error) {
	// .env never overrides variables that are already set.
	_ = godotenv.Load()

	v, err := newViper(cfgFile)
	if err != nil {
		return Config{}, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.HTTP.TriggerPath = "/" + strings.TrimLeft(cfg.HTTP.TriggerPath, "/")

	return cfg, nil
}

func newViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		return v, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("locate home directory: %w", err)
	}
	v.AddConfigPath(home)
	v.SetConfigType("yaml")
	v.SetConfigName(DefaultFileName)
	return v, nil
}

type requirement struct {
	key string
	ok  bool
}

func checkRequired(reqs []requirement) error {
	var missing []string
	for _, r := range reqs {
		if !r.ok {
			missing = append(missing, fmt.Sprintf("%s (%s)", r.key, envBindings[r.key]))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c Config) shinobiRequirements() []requirement {
	return []requirement{
		{"shinobi.host", c.Shinobi.Host != ""},
		{"shinobi.token", c.Shinobi.Token != ""},
		{"shinobi.group_key", c.Shinobi.GroupKey != ""},
	}
}

// Validate reports every missing required value at once.
func (c Config) Validate() error {
	reqs := append(c.shinobiRequirements(),
		requirement{"telegram.bot_key", c.Telegram.BotKey != ""},
		requirement{"telegram.chat_id", c.Telegram.ChatID != 0},
		requirement{"http.listen_addr", c.HTTP.ListenAddr != ""},
	)
	if err := checkRequired(reqs); err != nil {
		return err
	}

	if err := c.Shinobi.validatePort(); err != nil {
		return err
	}
	if c.Telegram.SendTimeout <= 0 {
		return errors.New("telegram.send_timeout must be positive")
	}
	if c.Telegram.PollTimeout < 0 {
		return errors.New("telegram.poll_timeout must not be negative")
	}
	if c.Telegram.Timeout > 0 && time.Duration(c.Telegram.PollTimeout)*time.Second >= c.Telegram.Timeout {
		return fmt.Errorf("telegram.timeout (%s) must exceed telegram.poll_timeout (%ds)", c.Telegram.Timeout, c.Telegram.PollTimeout)
	}
	return nil
}

// ValidateShinobi checks only what the Shinobi client needs, for commands
// that never talk to Telegram.
func (c Config) ValidateShinobi() error {
	if err := checkRequired(c.shinobiRequirements()); err != nil {
		return err
	}
	return c.Shinobi.validatePort()
}

func (s Shinobi) validatePort() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("shinobi.port %d out of range", s.Port)
	}
	return nil
}

// Save writes the connection settings to cfgFile, or to
// $HOME/.shinobi-relay.yaml when cfgFile is empty.
func Save(cfg Config, cfgFile string) (string, error) {
	path := cfgFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("locate home directory: %w", err)
		}
		path = filepath.Join(home, DefaultFileName+".yaml")
	}

	v := viper.New()
	v.Set("shinobi.scheme", cfg.Shinobi.Scheme)
	v.Set("shinobi.host", cfg.Shinobi.Host)
	v.Set("shinobi.port", cfg.Shinobi.Port)
	v.Set("shinobi.token", cfg.Shinobi.Token)
	v.Set("shinobi.group_key", cfg.Shinobi.GroupKey)
	v.Set("shinobi.timeout", cfg.Shinobi.Timeout.String())
	v.Set("telegram.bot_key", cfg.Telegram.BotKey)
	v.Set("telegram.chat_id", cfg.Telegram.ChatID)
	v.Set("http.listen_addr", cfg.HTTP.ListenAddr)

	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("write config %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return "", fmt.Errorf("restrict config permissions: %w", err)
	}
	return path, nil
}
