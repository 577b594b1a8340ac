package saver

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vburojevic/scrapbox-clip/internal/config"
	"github.com/vburojevic/scrapbox-clip/internal/notify"
	"github.com/vburojevic/scrapbox-clip/internal/result"
	"github.com/vburojevic/scrapbox-clip/internal/scrapbox"
)

type staticConfig struct {
	cfg *config.Config
	err error
}

func (s staticConfig) Load() (*config.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	c := *s.cfg
	return &c, nil
}

type fakeAPI struct {
	mu          sync.Mutex
	loginCalls  int
	importCalls int
	imported    []scrapbox.ImportData
	sessions    []*scrapbox.Session

	user      scrapbox.User
	loginErr  error
	importErr error
	// release, when set, blocks ImportPages until closed.
	release chan struct{}
}

func (f *fakeAPI) CheckLogin(_ context.Context, sess *scrapbox.Session) (scrapbox.User, error) {
	f.mu.Lock()
	f.loginCalls++
	f.sessions = append(f.sessions, sess)
	f.mu.Unlock()
	if f.loginErr != nil {
		return scrapbox.User{}, f.loginErr
	}
	return f.user, nil
}

func (f *fakeAPI) ImportPages(_ context.Context, _ *scrapbox.Session, _ string, data scrapbox.ImportData) result.Result[string] {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	f.importCalls++
	f.imported = append(f.imported, data)
	f.mu.Unlock()
	if f.importErr != nil {
		return result.Err[string](f.importErr)
	}
	return result.Ok("Imported pages successfully.")
}

func (f *fakeAPI) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls, f.importCalls
}

type fakeOpener struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (o *fakeOpener) Open(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, url)
	return o.err
}

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) Copy(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

type fakeSettings struct{ shown int }

func (f *fakeSettings) ShowSettings(context.Context) error {
	f.shown++
	return nil
}

type fakeHistory struct {
	mu   sync.Mutex
	recs []Record
	err  error
}

func (h *fakeHistory) Record(_ context.Context, rec Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recs = append(h.recs, rec)
	return h.err
}

type harness struct {
	saver    *Saver
	api      *fakeAPI
	notes    *notify.Recorder
	opener   *fakeOpener
	clip     *fakeClipboard
	settings *fakeSettings
	history  *fakeHistory
	states   []State
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	h := &harness{
		api:      &fakeAPI{user: scrapbox.User{ID: "u1", Name: "alice", CSRFToken: "tok"}},
		notes:    &notify.Recorder{},
		opener:   &fakeOpener{},
		clip:     &fakeClipboard{},
		settings: &fakeSettings{},
		history:  &fakeHistory{},
	}
	h.saver = &Saver{
		Config:    staticConfig{cfg: cfg},
		API:       h.api,
		Notifier:  h.notes,
		Settings:  h.settings,
		Opener:    h.opener,
		Clipboard: h.clip,
		Recorder:  h.history,
		Logger:    zerolog.Nop(),
		BaseURL:   "https://scrapbox.io",
		OnState:   func(s State) { h.states = append(h.states, s) },
		Now:       func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}
	return h
}

func demoConfig(autoOpen bool) *config.Config {
	c := config.DefaultConfig()
	c.Project = "demo"
	c.AutoOpen = &autoOpen
	c.SID = "s3cret"
	return c
}

func messages(r *notify.Recorder) []string {
	var out []string
	for _, n := range r.All() {
		out = append(out, n.Message)
	}
	return out
}

func TestScenarioASavesAndOpensPage(t *testing.T) {
	h := newHarness(t, demoConfig(true))

	out := h.saver.Save(context.Background(), Request{Title: "A/B[test]#1", URL: "https://example.com/a"})
	require.NoError(t, out.Err)
	assert.Equal(t, OutcomeSucceeded, out.Kind)
	assert.True(t, out.OK())

	want := "https://scrapbox.io/demo/A%EF%BC%8FB%EF%BC%BBtest%EF%BC%BD%EF%BC%831"
	assert.Equal(t, want, out.PageURL)
	assert.Equal(t, []string{want}, h.opener.urls)
	assert.Equal(t, []string{"Saving to Scrapbox...", "Saved to demo!"}, messages(h.notes))
	last, _ := h.notes.Last()
	assert.Equal(t, notify.Success, last.Severity)
	assert.Equal(t, 3*time.Second, last.Duration)

	require.Len(t, h.api.imported, 1)
	pages := h.api.imported[0].Pages
	require.Len(t, pages, 1)
	assert.Equal(t, "A／B［test］＃1", pages[0].Title)
	assert.Equal(t, []string{"A／B［test］＃1", "[https://example.com/a A／B［test］＃1]", ""}, pages[0].Lines)

	assert.Equal(t, []State{Idle, Validating, Saving, Succeeded}, h.states)
	require.Len(t, h.history.recs, 1)
	assert.Equal(t, "succeeded", h.history.recs[0].Outcome)
	assert.Equal(t, "https://example.com/a", h.history.recs[0].SourceURL)
}

func TestSaveWithoutAutoOpenShowsLink(t *testing.T) {
	h := newHarness(t, demoConfig(false))

	out := h.saver.Save(context.Background(), Request{Title: "t", URL: "https://example.com", Selection: "x\ny"})
	require.NoError(t, out.Err)
	assert.Empty(t, h.opener.urls)

	last, ok := h.notes.Last()
	require.True(t, ok)
	assert.Equal(t, "Saved to demo! (Click to open)", last.Message)
	assert.Equal(t, "https://scrapbox.io/demo/t", last.LinkURL)
	assert.Equal(t, 8*time.Second, last.Duration)

	lines := h.api.imported[0].Pages[0].Lines
	assert.Equal(t, []string{"t", "[https://example.com t]", "", " > x", " > y", ""}, lines)
}

func TestScenarioBUnconfiguredOpensSettings(t *testing.T) {
	for _, project := range []string{"", config.PlaceholderProject} {
		t.Run("project="+project, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Project = project
			h := newHarness(t, cfg)

			out := h.saver.Save(context.Background(), Request{Title: "t", URL: "https://example.com"})
			assert.Equal(t, ConfigureRequired, out.Kind)
			var verr *ValidationError
			require.ErrorAs(t, out.Err, &verr)
			assert.Equal(t, "scrapbox_project", verr.Field)

			login, imports := h.api.calls()
			assert.Zero(t, login)
			assert.Zero(t, imports)
			assert.Equal(t, 1, h.settings.shown)
			assert.Empty(t, h.notes.All())
			assert.Empty(t, h.history.recs)
			assert.Equal(t, []State{Idle, Validating, Failed}, h.states)
		})
	}
}

func TestScenarioCLoginFailureSkipsImport(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantOpens []string
	}{
		{"guest", scrapbox.ErrNotLoggedIn, []string{"https://scrapbox.io/login"}},
		{"profile unavailable", errors.Join(scrapbox.ErrProfileUnavailable, &scrapbox.NetworkError{Message: "refused"}), nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, demoConfig(true))
			h.api.loginErr = tc.err

			out := h.saver.Save(context.Background(), Request{Title: "t", URL: "https://example.com"})
			assert.Equal(t, AuthFailed, out.Kind)
			assert.ErrorIs(t, out.Err, tc.err)

			_, imports := h.api.calls()
			assert.Zero(t, imports)
			last, _ := h.notes.Last()
			assert.Equal(t, "Please login to Scrapbox first!", last.Message)
			assert.Equal(t, notify.Error, last.Severity)
			assert.Equal(t, 5*time.Second, last.Duration)
			assert.Equal(t, tc.wantOpens, h.opener.urls)
			assert.Equal(t, Failed, h.states[len(h.states)-1])
		})
	}
}

func TestScenarioDServerErrorIsReported(t *testing.T) {
	h := newHarness(t, demoConfig(true))
	h.api.importErr = &scrapbox.HTTPError{Status: 500, StatusText: "Internal Server Error"}

	out := h.saver.Save(context.Background(), Request{Title: "t", URL: "https://example.com"})
	assert.Equal(t, SaveFailed, out.Kind)
	assert.Equal(t, scrapbox.KindServer, out.ErrorKind)

	last, _ := h.notes.Last()
	assert.Equal(t, notify.Error, last.Severity)
	assert.Contains(t, last.Message, "Error: ")
	assert.Contains(t, last.Message, "500")
	assert.Empty(t, h.opener.urls)

	require.Len(t, h.history.recs, 1)
	assert.Equal(t, "save_failed", h.history.recs[0].Outcome)
	assert.Equal(t, "server_error", h.history.recs[0].ErrorKind)
}

func TestImportAuthErrorOpensLogin(t *testing.T) {
	h := newHarness(t, demoConfig(false))
	h.api.importErr = &scrapbox.HTTPError{Status: 403, StatusText: "Forbidden", Name: "NotMemberError"}

	out := h.saver.Save(context.Background(), Request{Title: "t", URL: "https://example.com"})
	assert.Equal(t, SaveFailed, out.Kind)
	assert.Equal(t, scrapbox.KindAuthRequired, out.ErrorKind)
	assert.Equal(t, []string{"https://scrapbox.io/login"}, h.opener.urls)
	last, _ := h.notes.Last()
	assert.Equal(t, "Please login to Scrapbox first!", last.Message)
}

func fallbackConfig(autoOpen bool) *config.Config {
	c := demoConfig(autoOpen)
	c.OnAPIFailure = config.FailureFallbackToURL
	return c
}

func TestFallbackOpensURL(t *testing.T) {
	h := newHarness(t, fallbackConfig(true))
	h.api.importErr = &scrapbox.HTTPError{Status: 502, StatusText: "Bad Gateway"}

	out := h.saver.Save(context.Background(), Request{Title: "t", URL: "https://example.com", Selection: "q"})
	assert.Equal(t, FellBack, out.Kind)
	assert.True(t, out.OK())
	assert.Error(t, out.Err)

	want := "https://scrapbox.io/demo/t?body=%5Bhttps%3A%2F%2Fexample.com%20t%5D%0A%0A%20%3E%20q%0A"
	assert.Equal(t, want, out.PageURL)
	assert.Equal(t, []string{want}, h.opener.urls)
	last, _ := h.notes.Last()
	assert.Equal(t, "Page created in demo", last.Message)
	assert.Equal(t, Succeeded, h.states[len(h.states)-1])
	assert.Equal(t, "fell_back", h.history.recs[0].Outcome)
}

func TestFallbackCopiesURL(t *testing.T) {
	h := newHarness(t, fallbackConfig(false))
	h.api.loginErr = errors.Join(scrapbox.ErrProfileUnavailable, &scrapbox.NetworkError{Message: "down"})

	out := h.saver.Save(context.Background(), Request{Title: "t", URL: "https://example.com"})
	assert.Equal(t, FellBack, out.Kind)
	assert.Equal(t, out.PageURL, h.clip.text)
	assert.Empty(t, h.opener.urls)
	last, _ := h.notes.Last()
	assert.Equal(t, "Scrapbox URL copied to clipboard!", last.Message)
}

func TestFallbackOpensWhenClipboardFails(t *testing.T) {
	h := newHarness(t, fallbackConfig(false))
	h.api.importErr = &scrapbox.NetworkError{Message: "reset"}
	h.clip.err = errors.New("no clipboard")

	out := h.saver.Save(context.Background(), Request{Title: "t", URL: "https://example.com"})
	assert.Equal(t, FellBack, out.Kind)
	assert.Equal(t, []string{out.PageURL}, h.opener.urls)
	last, _ := h.notes.Last()
	assert.Equal(t, "Page created in demo (background)", last.Message)
}

func TestFallbackNeverAppliesToAuthFailures(t *testing.T) {
	h := newHarness(t, fallbackConfig(true))
	h.api.loginErr = scrapbox.ErrNotLoggedIn

	out := h.saver.Save(context.Background(), Request{Title: "t", URL: "https://example.com"})
	assert.Equal(t, AuthFailed, out.Kind)
	assert.Equal(t, []string{"https://scrapbox.io/login"}, h.opener.urls)
}

func TestAbortedSaveNeverFallsBack(t *testing.T) {
	for _, autoOpen := range []bool{true, false} {
		h := newHarness(t, fallbackConfig(autoOpen))
		h.api.importErr = &scrapbox.AbortError{Message: "context canceled", Err: context.Canceled}

		out := h.saver.Save(context.Background(), Request{Title: "t", URL: "https://example.com"})
		assert.Equal(t, SaveFailed, out.Kind)
		assert.Equal(t, scrapbox.KindAborted, out.ErrorKind)
		assert.Empty(t, out.PageURL)
		assert.Empty(t, h.opener.urls)
		assert.Empty(t, h.clip.text)
		last, _ := h.notes.Last()
		assert.True(t, strings.HasPrefix(last.Message, "Error: "), last.Message)
		assert.Equal(t, Failed, h.states[len(h.states)-1])
	}
}

func TestSessionBuiltFromConfig(t *testing.T) {
	h := newHarness(t, demoConfig(true))
	h.saver.Save(context.Background(), Request{Title: "t", URL: "https://example.com"})
	require.Len(t, h.api.sessions, 1)
	assert.Equal(t, "s3cret", h.api.sessions[0].SID)

	sess := scrapbox.NewSession("other", "")
	h.saver.Save(context.Background(), Request{Title: "u", URL: "https://example.com", Session: sess})
	assert.Same(t, sess, h.api.sessions[1])
}

func TestConfigLoadErrorIsReported(t *testing.T) {
	h := newHarness(t, nil)
	h.saver.Config = staticConfig{err: errors.New("bad yaml")}

	out := h.saver.Save(context.Background(), Request{Title: "t", URL: "https://example.com"})
	assert.Equal(t, SaveFailed, out.Kind)
	assert.ErrorContains(t, out.Err, "bad yaml")
	login, _ := h.api.calls()
	assert.Zero(t, login)
}

func TestHistoryFailureDoesNotChangeOutcome(t *testing.T) {
	h := newHarness(t, demoConfig(true))
	h.history.err = errors.New("disk full")

	out := h.saver.Save(context.Background(), Request{Title: "t", URL: "https://example.com"})
	assert.Equal(t, OutcomeSucceeded, out.Kind)
}

func TestConcurrentSavesOfSameContentAreCoalesced(t *testing.T) {
	h := newHarness(t, demoConfig(false))
	h.saver.OnState = nil
	h.api.release = make(chan struct{})

	const n = 5
	var wg sync.WaitGroup
	var started atomic.Int32
	outs := make([]Outcome, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Add(1)
			outs[i] = h.saver.Save(context.Background(), Request{Title: "same", URL: "https://example.com"})
		}(i)
	}
	require.Eventually(t, func() bool {
		login, _ := h.api.calls()
		return started.Load() == n && login == 1
	}, time.Second, time.Millisecond)
	// Give the remaining callers time to join the in-flight run.
	time.Sleep(50 * time.Millisecond)
	close(h.api.release)
	wg.Wait()

	_, imports := h.api.calls()
	assert.Equal(t, 1, imports)
	for _, out := range outs {
		assert.Equal(t, OutcomeSucceeded, out.Kind)
	}
}

func TestConcurrentSavesWithDifferentContentBothImport(t *testing.T) {
	h := newHarness(t, demoConfig(false))
	h.saver.OnState = nil
	h.api.release = make(chan struct{})

	var wg sync.WaitGroup
	outs := make([]Outcome, 2)
	for i, sel := range []string{"first", "second"} {
		wg.Add(1)
		go func(i int, sel string) {
			defer wg.Done()
			outs[i] = h.saver.Save(context.Background(), Request{Title: "same", URL: "https://example.com", Selection: sel})
		}(i, sel)
	}
	require.Eventually(t, func() bool {
		login, _ := h.api.calls()
		return login == 2
	}, time.Second, time.Millisecond)
	close(h.api.release)
	wg.Wait()

	_, imports := h.api.calls()
	require.Equal(t, 2, imports)
	var quoted []string
	for _, data := range h.api.imported {
		require.Len(t, data.Pages, 1)
		quoted = append(quoted, data.Pages[0].Lines[3])
	}
	assert.ElementsMatch(t, []string{" > first", " > second"}, quoted)
	for _, out := range outs {
		assert.Equal(t, OutcomeSucceeded, out.Kind)
	}
}

func TestSameContentWithDifferentSessionsIsNotCoalesced(t *testing.T) {
	h := newHarness(t, demoConfig(false))
	h.saver.OnState = nil
	h.api.release = make(chan struct{})

	var wg sync.WaitGroup
	for _, sid := range []string{"a", "b"} {
		wg.Add(1)
		go func(sid string) {
			defer wg.Done()
			h.saver.Save(context.Background(), Request{Title: "same", URL: "https://example.com", Session: scrapbox.NewSession(sid, "")})
		}(sid)
	}
	require.Eventually(t, func() bool {
		login, _ := h.api.calls()
		return login == 2
	}, time.Second, time.Millisecond)
	close(h.api.release)
	wg.Wait()

	_, imports := h.api.calls()
	assert.Equal(t, 2, imports)
}

func TestDifferentTitlesRunIndependently(t *testing.T) {
	h := newHarness(t, demoConfig(false))
	h.saver.OnState = nil

	var wg sync.WaitGroup
	for _, title := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(title string) {
			defer wg.Done()
			h.saver.Save(context.Background(), Request{Title: title, URL: "https://example.com"})
		}(title)
	}
	wg.Wait()
	_, imports := h.api.calls()
	assert.Equal(t, 3, imports)
}

func TestStatus(t *testing.T) {
	h := newHarness(t, demoConfig(true))
	h.api.user = scrapbox.User{ID: "u1", Name: "alice", DisplayName: "Alice"}

	u, err := h.saver.Status(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Name)
	last, _ := h.notes.Last()
	assert.Equal(t, "Logged in as Alice", last.Message)
	assert.Empty(t, h.opener.urls)

	h.api.loginErr = scrapbox.ErrNotLoggedIn
	_, err = h.saver.Status(context.Background(), nil)
	assert.ErrorIs(t, err, scrapbox.ErrNotLoggedIn)
	last, _ = h.notes.Last()
	assert.Equal(t, "Not logged in to Scrapbox", last.Message)
	assert.Equal(t, []string{"https://scrapbox.io/"}, h.opener.urls)
}
