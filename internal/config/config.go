package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig  `yaml:"store" mapstructure:"store"`
	Log         LogConfig    `yaml:"log" mapstructure:"log"`
	Ingest      IngestConfig `yaml:"ingest" mapstructure:"ingest"`
	Verify      VerifyConfig `yaml:"verify" mapstructure:"verify"`
	AliasesFile string       `yaml:"aliases_file" mapstructure:"aliases_file"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite or postgres
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// IngestConfig configures the batch importers.
type IngestConfig struct {
	ChunkSize        int      `yaml:"chunk_size" mapstructure:"chunk_size"`
	Encodings        []string `yaml:"encodings" mapstructure:"encodings"`
	MoviesFile       string   `yaml:"movies_file" mapstructure:"movies_file"`
	BoxOfficeFile    string   `yaml:"boxoffice_file" mapstructure:"boxoffice_file"`
	TrendsFile       string   `yaml:"trends_file" mapstructure:"trends_file"`
	MatchSampleLimit int      `yaml:"match_sample_limit" mapstructure:"match_sample_limit"`
	FallbackDays     int      `yaml:"fallback_days" mapstructure:"fallback_days"`
	FallbackMovies   int      `yaml:"fallback_movies" mapstructure:"fallback_movies"`
}

// VerifyConfig configures the integrity verifier.
type VerifyConfig struct {
	SampleSize    int     `yaml:"sample_size" mapstructure:"sample_size"`
	GoodThreshold float64 `yaml:"good_threshold" mapstructure:"good_threshold"`
	FairThreshold float64 `yaml:"fair_threshold" mapstructure:"fair_threshold"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BOXOFFICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("ingest.chunk_size", 500)
	v.SetDefault("ingest.encodings", []string{"utf-8", "shift_jis", "euc-jp"})
	v.SetDefault("ingest.movies_file", "movie_master.csv")
	v.SetDefault("ingest.boxoffice_file", "box_office.csv")
	v.SetDefault("ingest.trends_file", "sns_trends.csv")
	v.SetDefault("ingest.match_sample_limit", 500)
	v.SetDefault("ingest.fallback_days", 14)
	v.SetDefault("ingest.fallback_movies", 30)
	v.SetDefault("verify.sample_size", 20)
	v.SetDefault("verify.good_threshold", 0.8)
	v.SetDefault("verify.fair_threshold", 0.5)
	v.SetDefault("aliases_file", "")

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

	cfg.applyDeploymentFallbacks()
	return &cfg, nil
}

// applyDeploymentFallbacks honours the plain DATABASE_URL variable hosting
// platforms inject, and switches to postgres when it is the only URL given.
func (c *Config) applyDeploymentFallbacks() {
	if c.Store.DatabaseURL != "" {
		return
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return
	}
	c.Store.DatabaseURL = url
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		c.Store.Driver = "postgres"
	}
}

// Validate checks the values the commands depend on.
func (c *Config) Validate() error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Ingest.ChunkSize <= 0 {
		errs = append(errs, "ingest.chunk_size must be positive")
	}
	if c.Ingest.MatchSampleLimit < 0 {
		errs = append(errs, "ingest.match_sample_limit must not be negative")
	}
	if c.Verify.SampleSize <= 0 {
		errs = append(errs, "verify.sample_size must be positive")
	}
	if c.Verify.FairThreshold > c.Verify.GoodThreshold {
		errs = append(errs, "verify.fair_threshold must not exceed verify.good_threshold")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// SQLitePath returns the database file used by the sqlite driver.
func (c *Config) SQLitePath() string {
	if c.Store.DatabaseURL != "" {
		return strings.TrimPrefix(c.Store.DatabaseURL, "sqlite://")
	}
	return "boxoffice.db"
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
