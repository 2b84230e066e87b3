package prospectindata

import "net/http"

// Option configures ancillary client wiring not covered by Config.
type Option func(*Client)

// WithHTTPClient sets a custom *http.Client. The configured per-request
// timeout is applied to it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the structured logger. The default discards all output.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector, e.g. one built on a
// private registry.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithCache replaces the default on-disk cache. Useful for tests or for
// sharing one cache between clients.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithRateLimiter shares an existing limiter between clients instead of the
// one built from Config.
func WithRateLimiter(limiter *RateLimiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithBackoffStrategy selects the retry delay strategy.
func WithBackoffStrategy(strategy BackoffStrategy) Option {
	return func(c *Client) {
		c.backoff = strategy.calculator()
	}
}

// WithRequestIDGenerator sets the per-call request ID generator used in logs.
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		c.requestID = gen
	}
}
