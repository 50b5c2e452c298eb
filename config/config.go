package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Target    TargetConfig
	Browser   BrowserConfig
	Challenge ChallengeConfig
	Retry     RetryConfig
	Extract   ExtractConfig
	Assets    AssetConfig
	Store     StoreConfig
	Log       LogConfig
}

// TargetConfig identifies the remote listing page.
type TargetConfig struct {
	// URL is the catalog search page to ingest from.
	URL string // default: "https://www.fragrantica.com/search/"

	// NavigationTimeout is the max time for a single page load.
	NavigationTimeout time.Duration // default: 60s

	// ScreenshotPath is where the post-navigation debug screenshot is
	// written. Diagnostic only; nothing reads it back.
	ScreenshotPath string // default: "debug_screenshot.png"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is an optional outbound proxy URL for browser traffic.
	Proxy string
}

// ChallengeConfig tunes interstitial detection and clearing.
type ChallengeConfig struct {
	// Markers is the CSS selector group that identifies a challenge
	// interstitial when present.
	Markers string // default: known challenge marker ids

	// ProbeTimeout bounds the wait while deciding whether an
	// interstitial is present at all.
	ProbeTimeout time.Duration // default: 5s

	// ClearTimeout bounds the wait for a detected interstitial to clear.
	ClearTimeout time.Duration // default: 30s

	// SettleDelay is slept after the interstitial clears, before the
	// page is treated as real content.
	SettleDelay time.Duration // default: 5s
}

// RetryConfig tunes the navigation attempt loop.
type RetryConfig struct {
	// MaxAttempts caps full navigation attempts before giving up.
	MaxAttempts int // default: 3

	// PreNavDelayMin/Max bound the randomized delay slept before each
	// navigation (defeats naive request-timing detection).
	PreNavDelayMin time.Duration // default: 5s
	PreNavDelayMax time.Duration // default: 10s

	// BackoffBase is the base delay between failed attempts. The actual
	// delay doubles per attempt with jitter on top.
	BackoffBase time.Duration // default: 10s

	// CaptchaCooldown is slept when an explicit CAPTCHA marker is seen
	// before the attempt is marked failed.
	CaptchaCooldown time.Duration // default: 120s

	// BlockMarkers are case-insensitive substrings that classify page
	// text as a bot-detection block.
	BlockMarkers []string // default: ["captcha", "robot"]

	// SelectorTimeout bounds each individual card-selector probe.
	SelectorTimeout time.Duration // default: 10s
}

// ExtractConfig controls card extraction from the fetched markup.
type ExtractConfig struct {
	// CardSelectors is the ordered fallback list of selectors for the
	// item-card container. The first one that matches wins.
	CardSelectors []string

	// LinkSelector matches the anchor inside a card that points at a
	// catalog item page.
	LinkSelector string // default: "a[href*='/perfume/']"

	// MaxRecords caps candidates processed per run to bound cost and
	// remote load.
	MaxRecords int // default: 20
}

// AssetConfig controls image downloads.
type AssetConfig struct {
	// Dir is the image output directory. Files are named "{id}.jpg" and
	// existence of the file is the dedup marker.
	Dir string // default: "static/images/fragrances"

	// Timeout bounds a single image download.
	Timeout time.Duration // default: 30s

	// Concurrency bounds parallel downloads.
	Concurrency int // default: 3

	// FetchInterval is the minimum spacing between download requests
	// (rate-limited to avoid hammering the remote host).
	FetchInterval time.Duration // default: 2s

	// Proxy is an optional outbound proxy URL for asset traffic.
	Proxy string
}

// StoreConfig controls the SQLite store.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string // default: "fragrances.db"

	// BatchSize is how many processed records are buffered before a
	// commit is flushed.
	BatchSize int // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Target: TargetConfig{
			URL:               envOr("SHOWDOWN_TARGET_URL", "https://www.fragrantica.com/search/"),
			NavigationTimeout: envDurationOr("SHOWDOWN_NAV_TIMEOUT", 60*time.Second),
			ScreenshotPath:    envOr("SHOWDOWN_SCREENSHOT_PATH", "debug_screenshot.png"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("SHOWDOWN_HEADLESS", true),
			NoSandbox:  envBoolOr("SHOWDOWN_NO_SANDBOX", false),
			BrowserBin: os.Getenv("SHOWDOWN_BROWSER_BIN"),
			Proxy:      os.Getenv("SHOWDOWN_PROXY"),
		},
		Challenge: ChallengeConfig{
			Markers: envOr("SHOWDOWN_CHALLENGE_MARKERS",
				"#challenge-running, #challenge-stage, #cf-please-wait, #cf-challenge-running"),
			ProbeTimeout: envDurationOr("SHOWDOWN_CHALLENGE_PROBE_TIMEOUT", 5*time.Second),
			ClearTimeout: envDurationOr("SHOWDOWN_CHALLENGE_CLEAR_TIMEOUT", 30*time.Second),
			SettleDelay:  envDurationOr("SHOWDOWN_CHALLENGE_SETTLE_DELAY", 5*time.Second),
		},
		Retry: RetryConfig{
			MaxAttempts:     envIntOr("SHOWDOWN_MAX_ATTEMPTS", 3),
			PreNavDelayMin:  envDurationOr("SHOWDOWN_PRENAV_DELAY_MIN", 5*time.Second),
			PreNavDelayMax:  envDurationOr("SHOWDOWN_PRENAV_DELAY_MAX", 10*time.Second),
			BackoffBase:     envDurationOr("SHOWDOWN_BACKOFF_BASE", 10*time.Second),
			CaptchaCooldown: envDurationOr("SHOWDOWN_CAPTCHA_COOLDOWN", 120*time.Second),
			BlockMarkers:    envSliceOr("SHOWDOWN_BLOCK_MARKERS", []string{"captcha", "robot"}),
			SelectorTimeout: envDurationOr("SHOWDOWN_SELECTOR_TIMEOUT", 10*time.Second),
		},
		Extract: ExtractConfig{
			CardSelectors: envSliceOr("SHOWDOWN_CARD_SELECTORS", []string{
				"div.card-product",
				".card-product",
				"div[class*='card']",
				"div[class*='product']",
			}),
			LinkSelector: envOr("SHOWDOWN_LINK_SELECTOR", "a[href*='/perfume/']"),
			MaxRecords:   envIntOr("SHOWDOWN_MAX_RECORDS", 20),
		},
		Assets: AssetConfig{
			Dir:           envOr("SHOWDOWN_IMAGES_DIR", "static/images/fragrances"),
			Timeout:       envDurationOr("SHOWDOWN_ASSET_TIMEOUT", 30*time.Second),
			Concurrency:   envIntOr("SHOWDOWN_ASSET_CONCURRENCY", 3),
			FetchInterval: envDurationOr("SHOWDOWN_ASSET_INTERVAL", 2*time.Second),
			Proxy:         os.Getenv("SHOWDOWN_PROXY"),
		},
		Store: StoreConfig{
			Path:      envOr("SHOWDOWN_DB_PATH", "fragrances.db"),
			BatchSize: envIntOr("SHOWDOWN_BATCH_SIZE", 5),
		},
		Log: LogConfig{
			Level:  envOr("SHOWDOWN_LOG_LEVEL", "info"),
			Format: envOr("SHOWDOWN_LOG_FORMAT", "text"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
