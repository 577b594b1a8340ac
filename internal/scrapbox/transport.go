package scrapbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/vburojevic/scrapbox-clip/internal/result"
)

const maxBodyBytes = 8 << 20

// fetch performs req and turns expected transport failures into typed
// errors. A response with any status is a success here; see intoResult.
func (c *Client) fetch(req *http.Request) result.Result[*http.Response] {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return result.Err[*http.Response](transportError(req, err))
	}
	return result.Ok(resp)
}

func transportError(req *http.Request, err error) error {
	target := req.URL.Redacted()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &AbortError{Message: err.Error(), URL: target, Err: err}
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if uerr.Timeout() {
			return &AbortError{Message: uerr.Err.Error(), URL: target, Err: err}
		}
		return &NetworkError{Message: uerr.Err.Error(), URL: target, Err: err}
	}
	return err
}

// intoResult classifies a response by status. Non-2xx responses are closed
// and become *HTTPError.
func intoResult(resp *http.Response) result.Result[*http.Response] {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return result.Ok(resp)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	httpErr := &HTTPError{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
	}
	var body struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &body) == nil {
		httpErr.Name = body.Name
		httpErr.Message = body.Message
	}
	return result.Err[*http.Response](httpErr)
}

func statusText(resp *http.Response) string {
	// resp.Status is "404 Not Found".
	if _, text, ok := strings.Cut(resp.Status, " "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func decodeJSON[T any](_ context.Context, resp *http.Response) (T, error) {
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&v); err != nil {
		return v, &DecodeError{Err: err}
	}
	return v, nil
}
