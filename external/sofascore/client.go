package sofascore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/penalty-tracker/internal/platform/logging"
	"github.com/riskibarqy/penalty-tracker/internal/platform/resilience"
	"github.com/riskibarqy/penalty-tracker/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL        = "https://api.sofascore.com/api/v1"
	defaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	defaultAcceptLanguage = "en-US,en;q=0.9"
	defaultReferer        = "https://www.sofascore.com/"
	defaultTimeout        = 20 * time.Second
	maxResponseBytes      = 8 << 20

	resourceTeamEvents = "team_events"
	resourceIncidents  = "event_incidents"
	resourceOther      = "other"
)

var errSofascoreRequest = crerr.New("sofascore request failed")

// RequestObserver is notified about every HTTP attempt.
type RequestObserver interface {
	ObserveRequest(resource, result string)
	ObserveRetry(resource string)
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	UserAgent      string
	AcceptLanguage string
	Referer        string
	Timeout        time.Duration
	Retry          resilience.RetryConfig
	// Sleeper replaces the backoff wait; tests use it to skip real time.
	Sleeper resilience.Sleeper
	Logger  *logging.Logger
	Metrics RequestObserver
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	userAgent      string
	acceptLanguage string
	referer        string
	retrier        *resilience.Retrier
	logger         *logging.Logger
	metrics        RequestObserver
	now            func() time.Time
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	// A caller-supplied client is used as is.
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopObserver{}
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		userAgent:      firstNonEmpty(cfg.UserAgent, defaultUserAgent),
		acceptLanguage: firstNonEmpty(cfg.AcceptLanguage, defaultAcceptLanguage),
		referer:        firstNonEmpty(cfg.Referer, defaultReferer),
		retrier:        resilience.NewRetrier(cfg.Retry, cfg.Sleeper),
		logger:         logger,
		metrics:        metrics,
		now:            time.Now,
	}
}

// Fetch GETs baseURL+path and returns the body of the first 2xx response
// that parses as JSON. A non-JSON body counts as a failed attempt.
// Once every attempt has failed it returns *usecase.TransportError.
func (c *Client) Fetch(ctx context.Context, path string) ([]byte, error) {
	return c.fetch(ctx, resourceOther, path)
}

func (c *Client) fetch(ctx context.Context, resource, path string) ([]byte, error) {
	fullURL := c.baseURL + path

	var body []byte
	attempts, err := c.retrier.Do(ctx, func(ctx context.Context, _ int) error {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if reqErr == nil && !sonic.Valid(raw) {
			reqErr = crerr.Wrapf(errSofascoreRequest, "invalid json body: %s", abbreviateBody(raw))
		}
		if reqErr != nil {
			c.metrics.ObserveRequest(resource, "error")
			return reqErr
		}
		c.metrics.ObserveRequest(resource, "ok")
		body = raw
		return nil
	}, func(attempt int, wait time.Duration, reqErr error) {
		c.metrics.ObserveRetry(resource)
		c.logger.WarnContext(ctx, "sofascore request failed, retrying",
			"path", path,
			"attempt", attempt+1,
			"max_attempts", c.retrier.MaxAttempts(),
			"backoff", wait.String(),
			"error", reqErr,
		)
	})
	if err == nil {
		return body, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	c.logger.ErrorContext(ctx, "sofascore request exhausted retries", "path", path, "attempts", attempts, "error", err)
	return nil, &usecase.TransportError{Path: path, Attempts: attempts, Err: err}
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, crerr.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", c.acceptLanguage)
	req.Header.Set("Referer", c.referer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, crerr.Wrapf(errSofascoreRequest, "send request: %v", err)
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, crerr.Wrapf(errSofascoreRequest, "read response body: %v", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, crerr.Wrapf(errSofascoreRequest, "provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
	}
	return raw, nil
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func teamEventsPath(teamID int64, page int) string {
	return fmt.Sprintf("/team/%d/events/last/%d", teamID, page)
}

func incidentsPath(eventID int64) string {
	return fmt.Sprintf("/event/%d/incidents", eventID)
}

type noopObserver struct{}

func (noopObserver) ObserveRequest(string, string) {}
func (noopObserver) ObserveRetry(string)           {}
