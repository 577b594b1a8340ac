package scrapbox

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/vburojevic/scrapbox-clip/internal/result"
)

// GetPage fetches a page record. Titles are sent as-is; escape them with
// page.EscapeTitle first if they came from user input.
func (c *Client) GetPage(ctx context.Context, sess *Session, project, title string) result.Result[PageInfo] {
	path := "/api/pages/" + url.PathEscape(project) + "/" + url.PathEscape(title)
	return result.MapAsync(ctx, c.get(ctx, path, sess), decodeJSON[PageInfo])
}

// PageExists reports whether title has been saved in project. A 404 means no.
func (c *Client) PageExists(ctx context.Context, sess *Session, project, title string) result.Result[bool] {
	r := c.GetPage(ctx, sess, project, title)
	var httpErr *HTTPError
	if errors.As(result.UnwrapErr(r), &httpErr) && httpErr.Status == http.StatusNotFound {
		return result.Ok(false)
	}
	return result.Map(r, func(p PageInfo) bool { return p.Persistent })
}
