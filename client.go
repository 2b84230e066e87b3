package prospectindata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NavagantProd/prospectindata/internal/backoff"
)

// maxResponseSize bounds how much of an upstream body is read (and cached).
const maxResponseSize = 10 * 1024 * 1024

// Client is a cached, rate-limited JSON API client. All calls funnel through
// one shared sliding-window rate limiter and one on-disk response cache, so a
// single instance should be shared by every goroutine talking to the same
// upstream. It is safe for concurrent use.
type Client struct {
	cfg        Config
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *RateLimiter
	cache      Cache
	metrics    *MetricsCollector
	logger     Logger
	backoff    *backoff.Calculator
	requestID  func() string
}

// New constructs a Client from cfg, applying defaults for unset fields and
// failing fast on an empty credential or an unusable base URL. The cache
// directory is created if absent.
func New(cfg Config, options ...Option) (*Client, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("prospectindata: invalid base URL %q: %w", cfg.BaseURL, err)
	}

	c := &Client{
		cfg:        cfg,
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     nopLogger{},
		backoff:    ExponentialJitter.calculator(),
		requestID:  uuid.NewString,
	}

	for _, option := range options {
		option(c)
	}

	if c.httpClient.Timeout == 0 {
		c.httpClient.Timeout = cfg.Timeout
	}
	if c.limiter == nil {
		c.limiter = NewRateLimiter(cfg.MaxRequests, cfg.Window)
	}
	if c.cache == nil {
		fc, err := NewFileCache(cfg.CacheDir, cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
		c.cache = fc
	}

	return c, nil
}

// Get performs a GET against endpoint with the given query parameters.
// Identical calls within the cache TTL are served from disk without touching
// the network or the rate limiter.
func (c *Client) Get(ctx context.Context, endpoint string, params map[string]string) (Result, error) {
	return c.do(ctx, http.MethodGet, endpoint, params, nil)
}

// Post performs a POST with a JSON body. Bodies are canonicalized
// (sorted keys) before cache-key derivation, so logically identical requests
// share one cache entry.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (Result, error) {
	return c.do(ctx, http.MethodPost, endpoint, nil, body)
}

// SearchFilter posts a search filter and normalizes the upstream's response
// shapes: a bare list passes through, a {"hits": [...]} wrapper is unwrapped
// to its list. Callers then switch on the Result kind instead of sniffing.
func (c *Client) SearchFilter(ctx context.Context, endpoint string, filter map[string]any) (Result, error) {
	res, err := c.Post(ctx, endpoint, filter)
	if err != nil {
		return res, err
	}
	return normalizeSearch(res), nil
}

// CollectByID fetches a single record by numeric ID, the "collect" half of
// the search-then-collect pattern.
func (c *Client) CollectByID(ctx context.Context, endpoint string, id int64) (Result, error) {
	return c.Get(ctx, fmt.Sprintf("%s/%d", strings.TrimRight(endpoint, "/"), id), nil)
}

func normalizeSearch(res Result) Result {
	obj, ok := res.Object()
	if !ok {
		return res
	}
	hits, ok := obj["hits"]
	if !ok {
		return res
	}
	raw, err := json.Marshal(hits)
	if err != nil {
		return res
	}
	return newResult(raw)
}

// do runs one logical call: cache read, then on a miss the rate-limited,
// retrying network path, then a best-effort cache write.
func (c *Client) do(ctx context.Context, method, endpoint string, params map[string]string, body any) (Result, error) {
	start := time.Now()
	requestID := c.requestID()

	var payload []byte
	if body != nil {
		var err error
		payload, err = canonicalJSON(body)
		if err != nil {
			return Result{}, fmt.Errorf("prospectindata: encode request body: %w", err)
		}
	}
	key := requestKey(method, endpoint, params, payload)

	if c.metrics != nil {
		c.metrics.RecordRequestStart(method, endpoint)
		defer c.metrics.RecordRequestEnd(method, endpoint)
	}

	cached, err := c.cache.Get(endpoint, key)
	if err == nil {
		c.logger.Debug("cache hit", "requestID", requestID, "method", method, "endpoint", endpoint, "key", key)
		if c.metrics != nil {
			c.metrics.RecordCacheHit(method, endpoint)
			c.metrics.RecordRequest(method, endpoint, http.StatusOK, time.Since(start))
		}
		return newResult(cached), nil
	}
	if errors.Is(err, ErrCacheMiss) {
		c.logger.Debug("cache miss", "requestID", requestID, "method", method, "endpoint", endpoint, "key", key)
	} else {
		// Corrupt or unreadable entry: degrade to a fresh fetch, never
		// surface to the caller. A later success overwrites the file.
		c.logger.Warn("cache read failed, fetching fresh", "requestID", requestID, "endpoint", endpoint, "key", key, "error", err.Error())
	}
	if c.metrics != nil {
		c.metrics.RecordCacheMiss(method, endpoint)
	}

	res, raw, err := c.fetch(ctx, method, endpoint, params, payload, requestID, start)
	if err != nil {
		return Result{}, err
	}

	if raw != nil {
		if werr := c.cache.Set(endpoint, key, raw); werr != nil {
			c.logger.Warn("cache write failed", "requestID", requestID, "endpoint", endpoint, "key", key, "error", werr.Error())
		}
	}
	return res, nil
}

// fetch is the network path: a bounded retry loop that re-acquires the rate
// limiter before every attempt. Only 429 and network-level failures retry;
// every other non-2xx status is classified and returned immediately.
func (c *Client) fetch(ctx context.Context, method, endpoint string, params map[string]string, payload []byte, requestID string, start time.Time) (Result, json.RawMessage, error) {
	reqURL := c.buildURL(endpoint, params)

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			c.logger.Info("retry attempt", "requestID", requestID, "attempt", attempt, "maxRetries", c.cfg.MaxRetries, "endpoint", endpoint)
			if c.metrics != nil {
				c.metrics.RecordRetry(method, endpoint, attempt)
			}
		}

		waitStart := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			return Result{}, nil, c.apiError(ErrorTypeTransient, "cancelled while waiting for rate limiter", method, endpoint, 0, nil, attempt+1, requestID, err)
		}
		if c.metrics != nil {
			c.metrics.RecordRateLimiterWait(endpoint, time.Since(waitStart), c.limiter.Active())
		}

		c.logger.Debug("dispatching request", "requestID", requestID, "method", method, "url", reqURL, "attempt", attempt+1)
		resp, err := c.dispatch(ctx, method, reqURL, payload)

		var respBody []byte
		status := 0
		if err == nil {
			status = resp.StatusCode
			respBody, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
			_ = resp.Body.Close()
			if err != nil {
				err = fmt.Errorf("read response body: %w", err)
				status = 0
			}
		}

		if err != nil {
			if ctx.Err() != nil {
				return Result{}, nil, c.apiError(ErrorTypeTransient, "request cancelled", method, endpoint, 0, nil, attempt+1, requestID, ctx.Err())
			}
			if attempt < c.cfg.MaxRetries {
				delay := c.backoffDelay(attempt)
				c.logger.Warn("network error, backing off", "requestID", requestID, "endpoint", endpoint, "backoff", delay, "error", err.Error())
				if serr := sleepCtx(ctx, delay); serr != nil {
					return Result{}, nil, c.apiError(ErrorTypeTransient, "request cancelled during backoff", method, endpoint, 0, nil, attempt+1, requestID, serr)
				}
				continue
			}
			c.logger.Error("network request failed after retries", "requestID", requestID, "endpoint", endpoint, "attempts", attempt+1, "error", err.Error())
			if c.metrics != nil {
				c.metrics.RecordError(ErrorTypeTransient, method, endpoint)
			}
			return Result{}, nil, c.apiError(ErrorTypeTransient, "network request failed", method, endpoint, 0, nil, attempt+1, requestID, err)
		}

		duration := time.Since(start)

		switch {
		case status >= 200 && status < 300:
			if !json.Valid(respBody) {
				c.logger.Error("non-JSON response body", "requestID", requestID, "endpoint", endpoint, "status", status, "body", truncateBody(respBody))
				if c.metrics != nil {
					c.metrics.RecordError(ErrorTypeServer, method, endpoint)
					c.metrics.RecordRequest(method, endpoint, status, duration)
				}
				return Result{}, nil, c.apiError(ErrorTypeServer, "response body is not valid JSON", method, endpoint, status, respBody, attempt+1, requestID, nil)
			}
			c.logger.Debug("request succeeded", "requestID", requestID, "method", method, "endpoint", endpoint, "status", status, "duration", duration)
			if c.metrics != nil {
				c.metrics.RecordRequest(method, endpoint, status, duration)
			}
			return newResult(respBody), respBody, nil

		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			c.logger.Error("authentication failed, check credential", "requestID", requestID, "endpoint", endpoint, "status", status)
			if c.metrics != nil {
				c.metrics.RecordError(ErrorTypeAuthentication, method, endpoint)
				c.metrics.RecordRequest(method, endpoint, status, duration)
			}
			return Result{}, nil, c.apiError(ErrorTypeAuthentication, "authentication failed", method, endpoint, status, respBody, attempt+1, requestID, nil)

		case status == http.StatusNotFound:
			// Not an error: the upstream has no data for this identity.
			// Never retried, never cached.
			c.logger.Debug("no data found", "requestID", requestID, "method", method, "endpoint", endpoint)
			if c.metrics != nil {
				c.metrics.RecordRequest(method, endpoint, status, duration)
			}
			return Absent(), nil, nil

		case status == http.StatusTooManyRequests:
			if attempt < c.cfg.MaxRetries {
				delay := retryAfter(resp.Header)
				if delay == 0 {
					delay = c.backoffDelay(attempt)
				}
				c.logger.Warn("rate limited by upstream", "requestID", requestID, "endpoint", endpoint, "backoff", delay)
				if serr := sleepCtx(ctx, delay); serr != nil {
					return Result{}, nil, c.apiError(ErrorTypeTransient, "request cancelled during backoff", method, endpoint, status, nil, attempt+1, requestID, serr)
				}
				continue
			}
			c.logger.Error("rate limit retries exhausted", "requestID", requestID, "endpoint", endpoint, "attempts", attempt+1)
			if c.metrics != nil {
				c.metrics.RecordError(ErrorTypeRateLimited, method, endpoint)
				c.metrics.RecordRequest(method, endpoint, status, duration)
			}
			return Result{}, nil, c.apiError(ErrorTypeRateLimited, "rate limit retries exhausted", method, endpoint, status, respBody, attempt+1, requestID, nil)

		case status >= 400 && status < 500:
			c.logger.Error("validation error", "requestID", requestID, "endpoint", endpoint, "status", status, "body", truncateBody(respBody))
			if c.metrics != nil {
				c.metrics.RecordError(ErrorTypeValidation, method, endpoint)
				c.metrics.RecordRequest(method, endpoint, status, duration)
			}
			return Result{}, nil, c.apiError(ErrorTypeValidation, "request rejected by upstream", method, endpoint, status, respBody, attempt+1, requestID, nil)

		default:
			c.logger.Error("unexpected status", "requestID", requestID, "endpoint", endpoint, "status", status, "body", truncateBody(respBody))
			if c.metrics != nil {
				c.metrics.RecordError(ErrorTypeServer, method, endpoint)
				c.metrics.RecordRequest(method, endpoint, status, duration)
			}
			return Result{}, nil, c.apiError(ErrorTypeServer, "unexpected upstream status", method, endpoint, status, respBody, attempt+1, requestID, nil)
		}
	}
}

// dispatch builds and executes one HTTP attempt. A fresh request is built per
// attempt so the body reader is never reused.
func (c *Client) dispatch(ctx context.Context, method, reqURL string, payload []byte) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set(c.cfg.AuthHeader, c.cfg.authValue())
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

func (c *Client) buildURL(endpoint string, params map[string]string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(endpoint, "/")
	u.RawQuery = encodeParams(params)
	return u.String()
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	return c.backoff.Calculate(attempt, c.cfg.InitialBackoff, c.cfg.MaxBackoff, c.cfg.BackoffMultiplier, c.cfg.Jitter)
}

func (c *Client) apiError(errorType ErrorType, message, method, endpoint string, status int, body []byte, attempts int, requestID string, cause error) *APIError {
	return &APIError{
		Type:       errorType,
		Message:    message,
		StatusCode: status,
		Method:     method,
		Endpoint:   endpoint,
		Body:       truncateBody(body),
		Attempts:   attempts,
		RequestID:  requestID,
		Cause:      cause,
	}
}

// sleepCtx sleeps cooperatively, returning early if ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
