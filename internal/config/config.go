package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Source    SourceConfig    `yaml:"source" mapstructure:"source"`
	Reconcile ReconcileConfig `yaml:"reconcile" mapstructure:"reconcile"`
	Timeline  TimelineConfig  `yaml:"timeline" mapstructure:"timeline"`
	Alerts    AlertsConfig    `yaml:"alerts" mapstructure:"alerts"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SourceFile is one exported operations file and the country it belongs to.
// An empty Country is detected from the file header.
type SourceFile struct {
	Path    string `yaml:"path" mapstructure:"path"`
	Country string `yaml:"country" mapstructure:"country"`
}

// SourceConfig configures where rows come from and how long they are cached.
type SourceConfig struct {
	Files               []SourceFile `yaml:"files" mapstructure:"files"`
	CacheTTLSecs        int          `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
	RefreshIntervalSecs int          `yaml:"refresh_interval_secs" mapstructure:"refresh_interval_secs"`
	Watch               bool         `yaml:"watch" mapstructure:"watch"`
	Delimiter           string       `yaml:"delimiter" mapstructure:"delimiter"`
	RecordMarker        string       `yaml:"record_marker" mapstructure:"record_marker"`
	MinFieldRatio       float64      `yaml:"min_field_ratio" mapstructure:"min_field_ratio"`
}

// CacheTTL is the snapshot lifetime.
func (s SourceConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSecs) * time.Second
}

// RefreshInterval is the background refresh period; zero disables it.
func (s SourceConfig) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshIntervalSecs) * time.Second
}

// ReconcileConfig configures release reconciliation.
type ReconcileConfig struct {
	Tolerance     float64 `yaml:"tolerance" mapstructure:"tolerance"`
	ErrorRatio    float64 `yaml:"error_ratio" mapstructure:"error_ratio"`
	DependencyGap int     `yaml:"dependency_gap" mapstructure:"dependency_gap"`
}

// TimelineConfig configures date synthesis and due-date filling.
type TimelineConfig struct {
	Seed              uint64 `yaml:"seed" mapstructure:"seed"`
	PhasesFile        string `yaml:"phases_file" mapstructure:"phases_file"`
	HolidaysFile      string `yaml:"holidays_file" mapstructure:"holidays_file"`
	ReleaseBufferDays int    `yaml:"release_buffer_days" mapstructure:"release_buffer_days"`
}

// AlertsConfig configures alert windows and webhook delivery.
type AlertsConfig struct {
	WindowDays        int    `yaml:"window_days" mapstructure:"window_days"`
	WebhookURL        string `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs int    `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	PerMinute         int    `yaml:"per_minute" mapstructure:"per_minute"`
	MinSeverity       string `yaml:"min_severity" mapstructure:"min_severity"`
	RetryAttempts     int    `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoffMs    int    `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
}

// ExportConfig configures workbook export.
type ExportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the read-only HTTP server.
type ServerConfig struct {
	Port              int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins    []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RequestsPerSecond float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int      `yaml:"burst" mapstructure:"burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRADEFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.files", []map[string]string{
		{"path": "data/operaciones_co.csv", "country": "CO"},
		{"path": "data/operaciones_mx.csv", "country": "MX"},
	})
	v.SetDefault("source.cache_ttl_secs", 60)
	v.SetDefault("source.refresh_interval_secs", 300)
	v.SetDefault("source.watch", false)
	v.SetDefault("source.delimiter", "")
	v.SetDefault("source.record_marker", `^[A-Z]{2,10}-\d+`)
	v.SetDefault("source.min_field_ratio", 0.6)
	v.SetDefault("reconcile.tolerance", 100)
	v.SetDefault("reconcile.error_ratio", 0.10)
	v.SetDefault("reconcile.dependency_gap", 10)
	v.SetDefault("timeline.seed", 0)
	v.SetDefault("timeline.phases_file", "")
	v.SetDefault("timeline.holidays_file", "")
	v.SetDefault("timeline.release_buffer_days", 15)
	v.SetDefault("alerts.window_days", 7)
	v.SetDefault("alerts.webhook_url", "")
	v.SetDefault("alerts.check_interval_secs", 900)
	v.SetDefault("alerts.per_minute", 30)
	v.SetDefault("alerts.min_severity", "medium")
	v.SetDefault("alerts.retry_attempts", 3)
	v.SetDefault("alerts.retry_backoff_ms", 500)
	v.SetDefault("export.dir", ".")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.requests_per_second", 20)
	v.SetDefault("server.burst", 40)
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

	return &cfg, nil
}

// Validate checks the settings a command needs before it starts. mode is
// "derive" for the one-shot commands and "serve" for the long-running server.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "derive":
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Server.RequestsPerSecond < 0 {
			problems = append(problems, "server.requests_per_second must be >= 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(c.Source.Files) == 0 {
		problems = append(problems, "source.files must list at least one file")
	}
	for i, f := range c.Source.Files {
		if strings.TrimSpace(f.Path) == "" {
			problems = append(problems, fmt.Sprintf("source.files[%d].path is required", i))
		}
	}
	if len([]rune(c.Source.Delimiter)) > 1 {
		problems = append(problems, "source.delimiter must be a single character")
	}
	if c.Source.MinFieldRatio < 0 || c.Source.MinFieldRatio > 1 {
		problems = append(problems, "source.min_field_ratio must be between 0 and 1")
	}
	if c.Reconcile.Tolerance < 0 {
		problems = append(problems, "reconcile.tolerance must be >= 0")
	}
	if c.Reconcile.ErrorRatio < 0 || c.Reconcile.ErrorRatio > 1 {
		problems = append(problems, "reconcile.error_ratio must be between 0 and 1")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
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
