package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Harvest HarvestConfig `yaml:"harvest" mapstructure:"harvest"`
	Load    LoadConfig    `yaml:"load" mapstructure:"load"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the Postgres connection. DatabaseURL wins over the
// discrete connection parameters when both are set.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Host        string `yaml:"host" mapstructure:"host"`
	Port        int    `yaml:"port" mapstructure:"port"`
	User        string `yaml:"user" mapstructure:"user"`
	Password    string `yaml:"password" mapstructure:"password"`
	Name        string `yaml:"name" mapstructure:"name"`
	SSLMode     string `yaml:"sslmode" mapstructure:"sslmode"`
}

// HarvestConfig configures the listing harvester.
type HarvestConfig struct {
	URL          string `yaml:"url" mapstructure:"url"`
	Referer      string `yaml:"referer" mapstructure:"referer"`
	UserAgent    string `yaml:"user_agent" mapstructure:"user_agent"`
	PageSize     int    `yaml:"page_size" mapstructure:"page_size"`
	DelayMs      int    `yaml:"delay_ms" mapstructure:"delay_ms"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	DeadlineMins int    `yaml:"deadline_mins" mapstructure:"deadline_mins"`
	MaxAttempts  int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	Output       string `yaml:"output" mapstructure:"output"`
	RegionsFile  string `yaml:"regions_file" mapstructure:"regions_file"`
}

// LoadConfig configures the record set loader.
type LoadConfig struct {
	Input        string `yaml:"input" mapstructure:"input"`
	Mode         string `yaml:"mode" mapstructure:"mode"`
	DeadlineMins int    `yaml:"deadline_mins" mapstructure:"deadline_mins"`
}

// ServerConfig configures the read API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load modes accepted by load.mode.
const (
	LoadModeUpsert  = "upsert"
	LoadModeReplace = "replace"
	LoadModeAppend  = "append"
)

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BLUEHANDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs one so AutomaticEnv can see it on Unmarshal.
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.host", "")
	v.SetDefault("store.port", 5432)
	v.SetDefault("store.user", "")
	v.SetDefault("store.password", "")
	v.SetDefault("store.name", "")
	v.SetDefault("store.sslmode", "disable")
	v.SetDefault("harvest.url", "https://www.hyundai.com/wsvc/kr/front/biz/serviceNetwork.list.do")
	v.SetDefault("harvest.referer", "https://www.hyundai.com/kr/ko/service-membership/service-network/service-reservation-search")
	v.SetDefault("harvest.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("harvest.page_size", 10)
	v.SetDefault("harvest.delay_ms", 200)
	v.SetDefault("harvest.timeout_secs", 30)
	v.SetDefault("harvest.deadline_mins", 0)
	v.SetDefault("harvest.max_attempts", 1)
	v.SetDefault("harvest.output", "bluehands_final_all.csv")
	v.SetDefault("harvest.regions_file", "")
	v.SetDefault("load.input", "")
	v.SetDefault("load.mode", LoadModeUpsert)
	v.SetDefault("load.deadline_mins", 0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

	if cfg.Load.Input == "" {
		cfg.Load.Input = cfg.Harvest.Output
	}

	return &cfg, nil
}

// DSN returns the Postgres connection string. DatabaseURL is returned as-is
// when set; otherwise a URL is assembled from the discrete parameters.
func (s StoreConfig) DSN() string {
	if s.DatabaseURL != "" {
		return s.DatabaseURL
	}
	if s.Host == "" {
		return ""
	}

	host := s.Host
	if s.Port > 0 {
		host = net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   host,
		Path:   "/" + s.Name,
	}
	if s.User != "" {
		if s.Password != "" {
			u.User = url.UserPassword(s.User, s.Password)
		} else {
			u.User = url.User(s.User)
		}
	}
	if s.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{s.SSLMode}}.Encode()
	}
	return u.String()
}

// RequestTimeout returns the per-request timeout.
func (h HarvestConfig) RequestTimeout() time.Duration {
	return time.Duration(h.TimeoutSecs) * time.Second
}

// Delay returns the pause between consecutive listing requests.
func (h HarvestConfig) Delay() time.Duration {
	return time.Duration(h.DelayMs) * time.Millisecond
}

// Deadline returns the overall harvest deadline; zero means none.
func (h HarvestConfig) Deadline() time.Duration {
	return time.Duration(h.DeadlineMins) * time.Minute
}

// Deadline returns the overall load deadline; zero means none.
func (l LoadConfig) Deadline() time.Duration {
	return time.Duration(l.DeadlineMins) * time.Minute
}

// Validate checks the settings a command needs. Mode is one of "harvest",
// "load", "db" or "serve". All problems are reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	needDB := false
	switch mode {
	case "harvest":
		if c.Harvest.URL == "" {
			errs = append(errs, "harvest.url is required")
		}
		if c.Harvest.PageSize <= 0 {
			errs = append(errs, "harvest.page_size must be > 0")
		}
		if c.Harvest.DelayMs < 0 {
			errs = append(errs, "harvest.delay_ms must be >= 0")
		}
		if c.Harvest.MaxAttempts < 1 {
			errs = append(errs, "harvest.max_attempts must be >= 1")
		}
		if c.Harvest.Output == "" {
			errs = append(errs, "harvest.output is required")
		}
	case "load":
		needDB = true
		if c.Load.Input == "" {
			errs = append(errs, "load.input is required")
		}
		switch c.Load.Mode {
		case LoadModeUpsert, LoadModeReplace, LoadModeAppend:
		default:
			errs = append(errs, fmt.Sprintf("load.mode must be one of upsert, replace, append (got %q)", c.Load.Mode))
		}
	case "db":
		needDB = true
	case "serve":
		needDB = true
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if needDB && c.Store.DatabaseURL == "" {
		if c.Store.Host == "" {
			errs = append(errs, "store.database_url or store.host is required")
		}
		if c.Store.User == "" {
			errs = append(errs, "store.user is required")
		}
		if c.Store.Name == "" {
			errs = append(errs, "store.name is required")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
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
