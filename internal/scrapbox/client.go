package scrapbox

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vburojevic/scrapbox-clip/internal/result"
)

// DefaultBaseURL is the public Scrapbox host.
const DefaultBaseURL = "https://scrapbox.io"

type Client struct {
	BaseURL      string
	HTTP         *http.Client
	UserAgent    string
	RetryCount   int
	RetryBackoff time.Duration
	Logger       zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("scrapbox: baseURL is empty")
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, errors.New("scrapbox: baseURL must start with http:// or https://")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		HTTP:      &http.Client{Timeout: timeout},
		UserAgent: "sbclip/0.1",
		Logger:    zerolog.Nop(),
	}, nil
}

// SetRetry configures retries for idempotent GET requests. The import POST is
// never retried.
func (c *Client) SetRetry(count int, backoff time.Duration) {
	if c == nil {
		return
	}
	if count < 0 {
		count = 0
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	c.RetryCount = count
	c.RetryBackoff = backoff
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, sess *Session) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if ck := sess.cookie(); ck != "" {
		req.Header.Set("Cookie", ck)
	}
	return req, nil
}

// get issues an idempotent GET and classifies the response, retrying network
// failures and 429/5xx answers up to RetryCount times.
func (c *Client) get(ctx context.Context, path string, sess *Session) result.Result[*http.Response] {
	attempts := c.RetryCount + 1
	if attempts < 1 {
		attempts = 1
	}
	backoff := c.RetryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	var last result.Result[*http.Response]
	for i := 0; i < attempts; i++ {
		req, err := c.newRequest(ctx, http.MethodGet, path, nil, sess)
		if err != nil {
			return result.Err[*http.Response](err)
		}
		last = result.AndThen(c.fetch(req), intoResult)
		if result.IsOk(last) || !shouldRetry(result.UnwrapErr(last)) {
			return last
		}
		if i == attempts-1 {
			break
		}
		c.Logger.Debug().Str("path", path).Int("attempt", i+1).Err(result.UnwrapErr(last)).Msg("retrying request")
		select {
		case <-ctx.Done():
			return result.Err[*http.Response](&AbortError{Message: ctx.Err().Error(), Err: ctx.Err()})
		case <-time.After(backoff * time.Duration(1<<i)):
		}
	}
	return last
}

func shouldRetry(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status == http.StatusTooManyRequests || httpErr.Status >= 500
	}
	return false
}
