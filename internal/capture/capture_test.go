package capture

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractTitle(t *testing.T) {
	u, _ := url.Parse("https://example.com/posts/1/")
	tests := []struct {
		name string
		html string
		want string
	}{
		{"title tag", "<html><head><title>  Hello\n  World </title></head></html>", "Hello World"},
		{"og title", `<html><head><meta property="og:title" content="From OG"></head></html>`, "From OG"},
		{"title wins over og", `<html><head><title>T</title><meta property="og:title" content="OG"></head></html>`, "T"},
		{"url fallback", "<html><body><p>no title</p></body></html>", "example.com/posts/1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractTitle(docFrom(t, tc.html), u))
		})
	}
}

func TestParseURL(t *testing.T) {
	_, err := ParseURL("https://example.com/a")
	require.NoError(t, err)

	for _, raw := range []string{"ftp://example.com", "example.com/a", "https://", "::"} {
		_, err := ParseURL(raw)
		assert.Error(t, err, raw)
	}
}

func TestCaptureTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><head><title>Clip me</title></head><body></body></html>"))
	}))
	defer srv.Close()

	c, err := NewFetcher(0).Capture(context.Background(), srv.URL+"/page", Options{})
	require.NoError(t, err)
	assert.Equal(t, "Clip me", c.Title)
	assert.Equal(t, srv.URL+"/page", c.URL)
	assert.Empty(t, c.Selection)
}

func TestCaptureRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewFetcher(0).Capture(context.Background(), srv.URL, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

const articleHTML = `<html><head><title>Long read</title></head><body>
<nav><a href="/">Home</a> <a href="/about">About</a></nav>
<article>
<h1>Long read</h1>
<p>The first paragraph of the article explains what the piece is about and carries enough words to look like real prose to the extractor.</p>
<p>The second paragraph continues the argument with more detail, more words, and a few more sentences so that it scores as content.</p>
<p>The third paragraph wraps things up and gives the reader a conclusion they can take away from the article when they are done.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func TestCaptureArticleExcerpt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	c, err := NewFetcher(0).Capture(context.Background(), srv.URL, Options{Article: true, MaxSelection: 150})
	require.NoError(t, err)
	assert.Equal(t, "Long read", c.Title)
	assert.True(t, strings.HasPrefix(c.Selection, "The first paragraph"), c.Selection)
	assert.LessOrEqual(t, len([]rune(c.Selection)), 150)
	assert.NotContains(t, c.Selection, "Copyright")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
