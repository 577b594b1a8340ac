package scrapbox

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type debugTransport struct {
	base http.RoundTripper
	log  zerolog.Logger
}

func (t *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	ev := t.log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Dur("duration", time.Since(start))
	if err != nil {
		ev.Err(err).Msg("http")
		return nil, err
	}
	ev.Int("status", resp.StatusCode).Msg("http")
	return resp, nil
}

// EnableDebug logs each HTTP exchange at debug level. It never logs headers
// or bodies, so the session cookie and CSRF token stay out of the log.
func (c *Client) EnableDebug(l zerolog.Logger) {
	if c == nil {
		return
	}
	base := c.HTTP.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.HTTP.Transport = &debugTransport{base: base, log: l}
	c.Logger = l
}
