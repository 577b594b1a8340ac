package scrapbox

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/vburojevic/scrapbox-clip/internal/result"
)

// NoPagesMessage is returned by ImportPages for an empty import.
const NoPagesMessage = "No pages to import."

// ImportPages creates or overwrites data.Pages in project and returns the
// service's message. An empty page list makes no request.
func (c *Client) ImportPages(ctx context.Context, sess *Session, project string, data ImportData) result.Result[string] {
	if len(data.Pages) == 0 {
		return result.Ok(NoPagesMessage)
	}
	csrf := c.CSRFToken(ctx, sess)
	if result.IsErr(csrf) {
		return result.Err[string](result.UnwrapErr(csrf))
	}

	body, contentType, err := encodeImport(data)
	if err != nil {
		return result.Err[string](err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/page-data/import/"+url.PathEscape(project)+".json", body, sess)
	if err != nil {
		return result.Err[string](err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("X-CSRF-TOKEN", result.UnwrapOk(csrf))

	c.Logger.Debug().Str("project", project).Int("pages", len(data.Pages)).Msg("importing pages")
	res := result.AndThen(c.fetch(req), intoResult)
	return result.MapAsync(ctx, res, func(ctx context.Context, resp *http.Response) (string, error) {
		v, err := decodeJSON[importResponse](ctx, resp)
		return v.Message, err
	})
}

// encodeImport builds the multipart body: an import-file part holding the
// JSON payload and a literal name field.
func encodeImport(data ImportData) (*bytes.Buffer, string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="import-file"; filename="blob"`)
	h.Set("Content-Type", "application/octet-stream")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(payload); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("name", "undefined"); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
