package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Firecrawl FirecrawlConfig `yaml:"firecrawl" mapstructure:"firecrawl"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Crawl     CrawlConfig     `yaml:"crawl" mapstructure:"crawl"`
	Merge     MergeConfig     `yaml:"merge" mapstructure:"merge"`
	Retention RetentionConfig `yaml:"retention" mapstructure:"retention"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// FirecrawlConfig holds Firecrawl API settings.
type FirecrawlConfig struct {
	Key               string `yaml:"key" mapstructure:"key"`
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	WaitForMillis     int    `yaml:"wait_for_millis" mapstructure:"wait_for_millis"`
	CaptureTimeoutMS  int    `yaml:"capture_timeout_ms" mapstructure:"capture_timeout_ms"`
	ExtractTimeoutMS  int    `yaml:"extract_timeout_ms" mapstructure:"extract_timeout_ms"`
	OnlyMainContent   bool   `yaml:"only_main_content" mapstructure:"only_main_content"`
}

// AnthropicConfig holds Anthropic API settings for page classification.
type AnthropicConfig struct {
	Key             string `yaml:"key" mapstructure:"key"`
	ClassifierModel string `yaml:"classifier_model" mapstructure:"classifier_model"`
	MaxTokens       int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ExtractConfig configures batch extraction behavior.
type ExtractConfig struct {
	DelaySecs   float64 `yaml:"delay_secs" mapstructure:"delay_secs"`
	AliasesPath string  `yaml:"aliases_path" mapstructure:"aliases_path"`
}

// CrawlConfig configures the site crawl phase.
type CrawlConfig struct {
	MaxPages     int      `yaml:"max_pages" mapstructure:"max_pages"`
	MaxDepth     int      `yaml:"max_depth" mapstructure:"max_depth"`
	ExcludePaths []string `yaml:"exclude_paths" mapstructure:"exclude_paths"`
}

// MergeConfig configures content merging ahead of extraction.
type MergeConfig struct {
	TokenBudget  int     `yaml:"token_budget" mapstructure:"token_budget"`
	MaxPages     int     `yaml:"max_pages" mapstructure:"max_pages"`
	MinRelevance float64 `yaml:"min_relevance" mapstructure:"min_relevance"`
}

// RetentionConfig configures stored-crawl lifecycle management.
type RetentionConfig struct {
	MaxVersions    int `yaml:"max_versions" mapstructure:"max_versions"`
	RetainMonths   int `yaml:"retain_months" mapstructure:"retain_months"`
	RecrawlMonths  int `yaml:"recrawl_months" mapstructure:"recrawl_months"`
}

// OutputConfig holds artifact directory paths.
type OutputConfig struct {
	ExtractionDir string `yaml:"extraction_dir" mapstructure:"extraction_dir"`
	CrawlDir      string `yaml:"crawl_dir" mapstructure:"crawl_dir"`
	StorageDir    string `yaml:"storage_dir" mapstructure:"storage_dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks that required settings are present for the given
// run mode ("extract", "crawl", or "report").
func (c *Config) Validate(mode string) error {
	var missing []string

	switch mode {
	case "extract":
		if c.Firecrawl.Key == "" {
			missing = append(missing, "firecrawl.key is required")
		}
	case "crawl":
		if c.Firecrawl.Key == "" {
			missing = append(missing, "firecrawl.key is required")
		}
		if c.Crawl.MaxPages < 1 {
			missing = append(missing, "crawl.max_pages must be > 0")
		}
	case "report":
		// Reads artifacts from disk only.
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Extract.DelaySecs < 0 {
		missing = append(missing, "extract.delay_secs must be >= 0")
	}
	if c.Merge.TokenBudget < 1 {
		missing = append(missing, "merge.token_budget must be > 0")
	}
	if c.Retention.MaxVersions < 1 {
		missing = append(missing, "retention.max_versions must be > 0")
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PETCARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. The secret keys get empty defaults so AutomaticEnv
	// sees them: viper only resolves env vars for keys it knows about.
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("firecrawl.key", "")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("firecrawl.wait_for_millis", 3000)
	v.SetDefault("firecrawl.capture_timeout_ms", 60000)
	v.SetDefault("firecrawl.extract_timeout_ms", 120000)
	v.SetDefault("firecrawl.only_main_content", false)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.classifier_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 256)
	v.SetDefault("extract.delay_secs", 1.0)
	v.SetDefault("extract.aliases_path", "size_aliases.yaml")
	v.SetDefault("crawl.max_pages", 25)
	v.SetDefault("crawl.max_depth", 2)
	v.SetDefault("crawl.exclude_paths", []string{"/blog/*", "/news/*", "/gallery/*"})
	v.SetDefault("merge.token_budget", 100000)
	v.SetDefault("merge.max_pages", 20)
	v.SetDefault("merge.min_relevance", 0.2)
	v.SetDefault("retention.max_versions", 3)
	v.SetDefault("retention.retain_months", 18)
	v.SetDefault("retention.recrawl_months", 6)
	v.SetDefault("output.extraction_dir", "extraction_results")
	v.SetDefault("output.crawl_dir", "crawl_results")
	v.SetDefault("output.storage_dir", "crawl_storage")

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
