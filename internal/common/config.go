package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Worker      WorkerConfig     `toml:"worker"`
	Search      SearchConfig     `toml:"search"`
	Fetch       FetchConfig      `toml:"fetch"`
	Browser     BrowserConfig    `toml:"browser"`
	Claude      ClaudeConfig     `toml:"claude"`
	Sync        SyncConfig       `toml:"sync"`
	Blocklist   BlocklistConfig  `toml:"blocklist"`
	Revalidate  RevalidateConfig `toml:"revalidate"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// WorkerConfig contains the discovery worker loop configuration
type WorkerConfig struct {
	HeartbeatInterval string   `toml:"heartbeat_interval"` // e.g. "10s"
	IdleSleep         string   `toml:"idle_sleep"`         // sleep when no POIs need work, e.g. "30s"
	ExcludedCategory  []string `toml:"excluded_categories"`
	UseVision         bool     `toml:"use_vision"` // screenshot + vision confirmation of events pages
}

// SearchConfig contains web search provider configuration
type SearchConfig struct {
	Endpoint   string `toml:"endpoint"` // DuckDuckGo HTML endpoint
	Region     string `toml:"region"`
	MaxResults int    `toml:"max_results" validate:"min=1,max=20"`
	Timeout    string `toml:"timeout"`
	UserAgent  string `toml:"user_agent"`
}

// FetchConfig contains plain HTTP fetch configuration
type FetchConfig struct {
	Timeout        string  `toml:"timeout"`          // page fetch timeout, e.g. "10s"
	UserAgent      string  `toml:"user_agent"`       // many sites block default Go user agents
	RequestsPerSec float64 `toml:"requests_per_sec"` // per-domain fetch rate
}

// BrowserConfig contains chromedp configuration for rendering and screenshots
type BrowserConfig struct {
	Headless        bool   `toml:"headless"`
	NoSandbox       bool   `toml:"no_sandbox"`
	DisableGPU      bool   `toml:"disable_gpu"`
	NavigateTimeout string `toml:"navigate_timeout"` // e.g. "15s"
	SettleDelay     string `toml:"settle_delay"`     // wait for dynamic content, e.g. "1500ms"
	ViewportWidth   int    `toml:"viewport_width"`
	ViewportHeight  int    `toml:"viewport_height"`
}

// ClaudeConfig contains Anthropic Claude classifier configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	VisionModel string  `toml:"vision_model"` // defaults to Model when empty
	Timeout     string  `toml:"timeout"`      // e.g. "60s"
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

// SyncConfig contains backend venue sync configuration
type SyncConfig struct {
	APIURL   string `toml:"api_url"`
	APIToken string `toml:"api_token"`
	Timeout  string `toml:"timeout"` // e.g. "30s"
}

// BlocklistConfig extends the compiled-in never-official domain set
type BlocklistConfig struct {
	ExtraDomains []string `toml:"extra_domains"`
}

// RevalidateConfig controls the cron-scheduled revalidation sweep over
// already-discovered events URLs
type RevalidateConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // cron format, e.g. "0 3 * * *"
	Limit    int    `toml:"limit"`    // max POIs revalidated per sweep
}

// NewDefaultConfig returns the built-in defaults, overridden by files and env.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{Path: "./data/navigator"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Worker: WorkerConfig{
			HeartbeatInterval: "10s",
			IdleSleep:         "30s",
			ExcludedCategory:  []string{"school"},
			UseVision:         true,
		},
		Search: SearchConfig{
			Endpoint:   "https://html.duckduckgo.com/html/",
			Region:     "us-en",
			MaxResults: 5,
			Timeout:    "15s",
			UserAgent:  defaultUserAgent,
		},
		Fetch: FetchConfig{
			Timeout:        "10s",
			UserAgent:      defaultUserAgent,
			RequestsPerSec: 1.0,
		},
		Browser: BrowserConfig{
			Headless:        true,
			NoSandbox:       true,
			DisableGPU:      true,
			NavigateTimeout: "15s",
			SettleDelay:     "1500ms",
			ViewportWidth:   1280,
			ViewportHeight:  800,
		},
		Claude: ClaudeConfig{
			Model:     "claude-sonnet-4-20250514",
			Timeout:   "60s",
			MaxTokens: 1024,
		},
		Sync: SyncConfig{
			Timeout: "30s",
		},
		Revalidate: RevalidateConfig{
			Enabled:  false,
			Schedule: "0 3 * * *",
			Limit:    50,
		},
	}
}

// defaultUserAgent is a browser-like UA; many sites block obvious bots.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// LoadFromFiles loads configuration from defaults, then each file in order
// (later files override earlier ones), then environment variables.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func applyEnvOverrides(config *Config) {
	if env := os.Getenv("NAVIGATOR_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if badgerPath := os.Getenv("NAVIGATOR_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("NAVIGATOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("NAVIGATOR_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if key := os.Getenv("NAVIGATOR_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if model := os.Getenv("NAVIGATOR_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	if apiURL := os.Getenv("NAVIGATOR_SYNC_API_URL"); apiURL != "" {
		config.Sync.APIURL = apiURL
	}
	if token := os.Getenv("NAVIGATOR_SYNC_API_TOKEN"); token != "" {
		config.Sync.APIToken = token
	}

	if useVision := os.Getenv("NAVIGATOR_USE_VISION"); useVision != "" {
		if v, err := strconv.ParseBool(useVision); err == nil {
			config.Worker.UseVision = v
		}
	}
}
