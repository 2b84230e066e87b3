// Package prospectindata provides a cached, rate-limited JSON API client for
// lead-enrichment pipelines:
//
//   - On-disk JSON response cache keyed by request identity (endpoint +
//     canonicalized parameters), with mtime-based TTL expiry
//   - Sliding-window rate limiting shared across all concurrent callers
//   - Bounded retries with exponential backoff + jitter, honoring Retry-After
//   - Typed error classification (authentication, validation, rate limited,
//     transient) and an explicit absent result for upstream 404s
//   - Prometheus metrics and pluggable structured logging
//
// Design goals:
//   - Safe to re-run: requests matching a fresh cache entry never touch the
//     network, so interrupted batches can be restarted without amplifying
//     upstream load
//   - Explicit configuration: a Config value at construction, never ambient
//     process state; functional options for ancillary wiring
//   - Safe concurrent use of a single *Client instance
//
// Typical usage:
//
//	client, err := prospectindata.New(prospectindata.Config{
//	    BaseURL:     "https://api.example.com/v2",
//	    Credential:  os.Getenv("API_KEY"),
//	    AuthHeader:  "apikey",
//	    CacheDir:    ".cache",
//	    CacheTTL:    7 * 24 * time.Hour,
//	    MaxRequests: 5,
//	    Window:      time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := client.Get(ctx, "/member/collect/12345", nil)
//
// A Result is one of four kinds (object, list, scalar, absent); callers switch
// on Kind instead of sniffing response shapes. Upstream 404 is the absent
// kind, not an error.
package prospectindata
