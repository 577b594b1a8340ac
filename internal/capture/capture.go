// Package capture fetches a web page and pulls out what a clip needs: the
// page title and, optionally, an excerpt of the main article to use as the
// selection.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/rs/zerolog"
)

const (
	maxPageBytes        = 10 << 20
	defaultMaxSelection = 600
)

type Fetcher struct {
	HTTP      *http.Client
	UserAgent string
	Logger    zerolog.Logger
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		HTTP:      &http.Client{Timeout: timeout},
		UserAgent: "Mozilla/5.0 (compatible; sbclip/0.1)",
		Logger:    zerolog.Nop(),
	}
}

type Options struct {
	// Article extracts the main content and uses its opening paragraphs as
	// the selection.
	Article bool
	// MaxSelection caps the excerpt length in runes. Zero means the default.
	MaxSelection int
}

type Capture struct {
	Title     string
	URL       string
	Selection string
}

// ParseURL accepts absolute http and https URLs only.
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: missing host", raw)
	}
	return u, nil
}

// Capture downloads rawURL and extracts its title and, with opts.Article, an
// excerpt.
func (f *Fetcher) Capture(ctx context.Context, rawURL string, opts Options) (Capture, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return Capture{}, err
	}
	body, err := f.get(ctx, u.String())
	if err != nil {
		return Capture{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Capture{}, fmt.Errorf("failed to parse HTML: %w", err)
	}
	c := Capture{URL: u.String(), Title: ExtractTitle(doc, u)}

	if opts.Article {
		limit := opts.MaxSelection
		if limit <= 0 {
			limit = defaultMaxSelection
		}
		title, excerpt, err := extractArticle(body, u, limit)
		if err != nil {
			// Pages without a readable article still clip with their title.
			f.Logger.Warn().Err(err).Str("url", c.URL).Msg("article extraction failed")
		} else {
			if title != "" {
				c.Title = title
			}
			c.Selection = excerpt
		}
	}
	f.Logger.Debug().Str("url", c.URL).Str("title", c.Title).Int("selection_len", len(c.Selection)).Msg("page captured")
	return c, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	resp, err := f.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch page, status code: %d", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return b, nil
}

// ExtractTitle prefers <title>, then og:title, then host and path.
func ExtractTitle(doc *goquery.Document, u *url.URL) string {
	if t := normalizeText(doc.Find("head title").First().Text()); t != "" {
		return t
	}
	if t := normalizeText(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if t, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t = normalizeText(t); t != "" {
			return t
		}
	}
	if u == nil {
		return ""
	}
	return strings.TrimRight(u.Host+u.Path, "/")
}

func extractArticle(body []byte, u *url.URL, limit int) (string, string, error) {
	parser := readability.NewParser()
	article, err := parser.Parse(bytes.NewReader(body), u)
	if err != nil {
		return "", "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return "", "", err
	}
	var paragraphs []string
	size := 0
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := normalizeText(s.Text())
		if text == "" {
			return true
		}
		paragraphs = append(paragraphs, text)
		size += len([]rune(text))
		return size < limit
	})
	if len(paragraphs) == 0 {
		return "", "", errors.New("no paragraphs in article")
	}
	return normalizeText(article.Title), truncate(strings.Join(paragraphs, "\n"), limit), nil
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit-1])) + "…"
}
