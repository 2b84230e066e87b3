package prospectindata

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds the fixed configuration for a Client. It is read once at
// construction and never mutated afterwards; the client does not consult
// environment variables or any other ambient state.
type Config struct {
	// BaseURL is the upstream API root, e.g. "https://api.example.com/v2".
	BaseURL string

	// Credential is the opaque API key or token sent on every request.
	// Construction fails if it is empty.
	Credential string

	// AuthHeader is the header name carrying the credential. Upstream APIs
	// disagree on this ("apikey", "Authorization", "X-MM-API-KEY"), so it is
	// configuration rather than a fixed protocol detail. Defaults to
	// "Authorization".
	AuthHeader string

	// AuthScheme, when non-empty, is prepended to the credential with a
	// space, e.g. "Token" or "Bearer". Empty sends the bare credential.
	AuthScheme string

	// CacheDir is the root directory for cached responses, created if
	// absent. One JSON file per unique request identity, namespaced per
	// endpoint.
	CacheDir string

	// CacheTTL is the maximum age of a cache entry before it is treated as
	// absent. Zero or negative disables expiry (entries never go stale).
	CacheTTL time.Duration

	// MaxRequests and Window configure the sliding-window rate limiter: at
	// most MaxRequests dispatches per Window across all concurrent callers.
	MaxRequests int
	Window      time.Duration

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// MaxRetries is the number of additional attempts after the first for
	// retryable failures (429 and network-level errors).
	MaxRetries int

	// Backoff parameters for the retry loop. The delay starts at
	// InitialBackoff, is multiplied by BackoffMultiplier per attempt, is
	// capped at MaxBackoff, and gets up to Jitter (fraction, 0..1) of
	// random slack added.
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	Jitter            float64
}

func (cfg *Config) applyDefaults() {
	if cfg.AuthHeader == "" {
		cfg.AuthHeader = "Authorization"
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = ".prospectindata_cache"
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 7 * 24 * time.Hour
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 5
	}
	if cfg.Window == 0 {
		cfg.Window = time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = 10 * time.Second
	}
	if cfg.BackoffMultiplier == 0 {
		cfg.BackoffMultiplier = 2.0
	}
}

// validate reports the first configuration problem found. Called after
// applyDefaults, so only values that must come from the caller are checked.
func (cfg *Config) validate() error {
	if cfg.Credential == "" {
		return errors.New("prospectindata: credential is required")
	}
	if cfg.BaseURL == "" {
		return errors.New("prospectindata: base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return fmt.Errorf("prospectindata: invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if cfg.MaxRequests < 1 {
		return fmt.Errorf("prospectindata: MaxRequests must be positive, got %d", cfg.MaxRequests)
	}
	if cfg.Window <= 0 {
		return fmt.Errorf("prospectindata: Window must be positive, got %v", cfg.Window)
	}
	if cfg.MaxRetries < 0 {
		return fmt.Errorf("prospectindata: MaxRetries must not be negative, got %d", cfg.MaxRetries)
	}
	if cfg.InitialBackoff <= 0 || cfg.MaxBackoff < cfg.InitialBackoff {
		return fmt.Errorf("prospectindata: backoff range %v..%v is invalid", cfg.InitialBackoff, cfg.MaxBackoff)
	}
	if cfg.BackoffMultiplier < 1 {
		return fmt.Errorf("prospectindata: BackoffMultiplier must be >= 1, got %g", cfg.BackoffMultiplier)
	}
	if cfg.Jitter < 0 || cfg.Jitter > 1 {
		return fmt.Errorf("prospectindata: Jitter must be in [0, 1], got %g", cfg.Jitter)
	}
	return nil
}

// authValue renders the header value for the configured credential.
func (cfg *Config) authValue() string {
	if cfg.AuthScheme != "" {
		return cfg.AuthScheme + " " + cfg.Credential
	}
	return cfg.Credential
}
