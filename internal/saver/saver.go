// Package saver runs the save pipeline: check the configuration, verify the
// login, import the page, and tell the user how it went.
package saver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/vburojevic/scrapbox-clip/internal/config"
	"github.com/vburojevic/scrapbox-clip/internal/notify"
	"github.com/vburojevic/scrapbox-clip/internal/page"
	"github.com/vburojevic/scrapbox-clip/internal/result"
	"github.com/vburojevic/scrapbox-clip/internal/scrapbox"
)

// Messages shown to the user.
const (
	msgSaving        = "Saving to Scrapbox..."
	msgLoginFirst    = "Please login to Scrapbox first!"
	msgNotLoggedIn   = "Not logged in to Scrapbox"
	msgURLCopied     = "Scrapbox URL copied to clipboard!"
	savingDuration   = 10 * time.Second
	savedDuration    = 3 * time.Second
	savedLinkTimeout = 8 * time.Second
	loginDuration    = 5 * time.Second
	errorDuration    = 8 * time.Second
)

type ConfigSource interface {
	Load() (*config.Config, error)
}

type API interface {
	CheckLogin(ctx context.Context, sess *scrapbox.Session) (scrapbox.User, error)
	ImportPages(ctx context.Context, sess *scrapbox.Session, project string, data scrapbox.ImportData) result.Result[string]
}

type Notifier interface {
	Notify(n notify.Notification)
}

type SettingsDialog interface {
	ShowSettings(ctx context.Context) error
}

type Opener interface {
	Open(url string) error
}

type Clipboard interface {
	Copy(text string) error
}

// Recorder stores the outcome of finished runs.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// Request is one clip. Session may be nil, in which case a session is built
// from the configured sid.
type Request struct {
	Title     string
	URL       string
	Selection string
	Session   *scrapbox.Session
}

type Saver struct {
	Config    ConfigSource
	API       API
	Notifier  Notifier
	Settings  SettingsDialog
	Opener    Opener
	Clipboard Clipboard
	Recorder  Recorder
	Logger    zerolog.Logger

	// BaseURL overrides the configured service address for page links.
	BaseURL string
	// OnState, when set, is called on every state transition.
	OnState func(State)
	Now     func() time.Time

	group singleflight.Group
}

// Save runs the pipeline once. Concurrent calls that would import the same
// page content into the same project with the same session share a single
// run and its outcome.
func (s *Saver) Save(ctx context.Context, req Request) Outcome {
	s.transition(Idle)
	s.transition(Validating)
	cfg, err := s.Config.Load()
	if err != nil {
		err = fmt.Errorf("load config: %w", err)
		s.notifyError(err)
		s.transition(Failed)
		return Outcome{Kind: SaveFailed, Err: err}
	}
	if !cfg.Configured() {
		verr := &ValidationError{Field: "scrapbox_project", Reason: "project is not configured"}
		s.Logger.Debug().Msg("no project configured, opening settings")
		if s.Settings != nil {
			if err := s.Settings.ShowSettings(ctx); err != nil {
				s.Logger.Warn().Err(err).Msg("settings dialog failed")
			}
		}
		s.transition(Failed)
		return Outcome{Kind: ConfigureRequired, Err: verr}
	}

	draft := page.NewDraft(req.Title, req.URL, req.Selection)
	v, _, shared := s.group.Do(coalesceKey(cfg, req, draft), func() (any, error) {
		return s.save(ctx, cfg, req, draft), nil
	})
	if shared {
		s.Logger.Debug().Str("project", cfg.Project).Str("title", draft.Title()).Msg("save coalesced")
	}
	return v.(Outcome)
}

// coalesceKey identifies a run by everything that reaches the service: the
// project, the session cookie and every page line.
func coalesceKey(cfg *config.Config, req Request, draft page.Draft) string {
	sid := cfg.SID
	if req.Session != nil {
		sid = req.Session.SID
	}
	return strings.Join([]string{cfg.Project, sid, strings.Join(draft.Lines(), "\n")}, "\x00")
}

func (s *Saver) save(ctx context.Context, cfg *config.Config, req Request, draft page.Draft) Outcome {
	s.transition(Saving)
	base := s.baseURL(cfg)
	sess := req.Session
	if sess == nil {
		sess = scrapbox.NewSession(cfg.SID, "")
	}
	out := Outcome{Project: cfg.Project, Title: draft.Title()}
	s.notify(msgSaving, notify.Info, savingDuration, "")

	if _, err := s.API.CheckLogin(ctx, sess); err != nil {
		out.Kind, out.Err = AuthFailed, err
		out = s.fail(cfg, base, draft, out, true)
		s.record(ctx, req, out)
		return out
	}

	data := scrapbox.ImportData{Pages: []scrapbox.ImportPage{{Title: draft.Title(), Lines: draft.Lines()}}}
	res := s.API.ImportPages(ctx, sess, cfg.Project, data)
	if result.IsErr(res) {
		out.Kind, out.Err = SaveFailed, result.UnwrapErr(res)
		out = s.fail(cfg, base, draft, out, false)
		s.record(ctx, req, out)
		return out
	}

	out.Kind = OutcomeSucceeded
	out.Message = result.UnwrapOk(res)
	out.PageURL = page.PageURL(base, cfg.Project, draft.Title())
	s.Logger.Debug().Str("project", cfg.Project).Str("title", draft.Title()).Str("message", out.Message).Msg("page imported")
	if cfg.AutoOpenValue() {
		if err := s.open(out.PageURL); err != nil {
			s.Logger.Warn().Err(err).Str("url", out.PageURL).Msg("failed to open page")
		}
		s.notify("Saved to "+cfg.Project+"!", notify.Success, savedDuration, "")
	} else {
		s.notify("Saved to "+cfg.Project+"! (Click to open)", notify.Success, savedLinkTimeout, out.PageURL)
	}
	s.transition(Succeeded)
	s.record(ctx, req, out)
	return out
}

// fail reports a failed step, or takes the URL fallback when the config asks
// for it and the failure is not about authentication. Any failure of the
// login check is reported as a login problem.
func (s *Saver) fail(cfg *config.Config, base string, draft page.Draft, out Outcome, loginStep bool) Outcome {
	kind := scrapbox.Classify(out.Err)
	out.ErrorKind = kind
	s.Logger.Debug().Err(out.Err).Str("kind", kind.String()).Str("project", cfg.Project).Msg("save failed")

	if kind != scrapbox.KindAuthRequired && kind != scrapbox.KindAborted && cfg.FallbackToURL() {
		return s.fallback(cfg, base, draft, out)
	}
	switch {
	case kind == scrapbox.KindAuthRequired:
		s.notify(msgLoginFirst, notify.Error, loginDuration, "")
		if err := s.open(base + "/login"); err != nil {
			s.Logger.Warn().Err(err).Msg("failed to open login page")
		}
	case loginStep:
		s.notify(msgLoginFirst, notify.Error, loginDuration, "")
	default:
		s.notifyError(out.Err)
	}
	s.transition(Failed)
	return out
}

func (s *Saver) fallback(cfg *config.Config, base string, draft page.Draft, out Outcome) Outcome {
	u := page.FallbackURL(base, cfg.Project, draft)
	s.Logger.Debug().Str("url", u).Msg("falling back to page URL")
	out.PageURL = u

	if cfg.AutoOpenValue() {
		if err := s.open(u); err != nil {
			s.notifyError(err)
			s.transition(Failed)
			return out
		}
		s.notify("Page created in "+cfg.Project, notify.Success, savedDuration, "")
	} else if err := s.copy(u); err == nil {
		s.notify(msgURLCopied, notify.Success, savedDuration, "")
	} else {
		s.Logger.Debug().Err(err).Msg("clipboard unavailable, opening instead")
		if err := s.open(u); err != nil {
			s.notifyError(err)
			s.transition(Failed)
			return out
		}
		s.notify("Page created in "+cfg.Project+" (background)", notify.Success, savedDuration, "")
	}
	out.Kind = FellBack
	s.transition(Succeeded)
	return out
}

// Status checks whether the configured session is logged in and tells the
// user. When it is not, the service's front page is opened.
func (s *Saver) Status(ctx context.Context, sess *scrapbox.Session) (scrapbox.User, error) {
	cfg, err := s.Config.Load()
	if err != nil {
		err = fmt.Errorf("load config: %w", err)
		s.notifyError(err)
		return scrapbox.User{}, err
	}
	if sess == nil {
		sess = scrapbox.NewSession(cfg.SID, "")
	}
	u, err := s.API.CheckLogin(ctx, sess)
	if err != nil {
		s.notify(msgNotLoggedIn, notify.Error, loginDuration, "")
		if oerr := s.open(s.baseURL(cfg) + "/"); oerr != nil {
			s.Logger.Warn().Err(oerr).Msg("failed to open front page")
		}
		return u, err
	}
	s.notify("Logged in as "+u.Label(), notify.Success, savedDuration, "")
	return u, nil
}

func (s *Saver) baseURL(cfg *config.Config) string {
	base := s.BaseURL
	if base == "" {
		base = cfg.BaseURL
	}
	if base == "" {
		base = scrapbox.DefaultBaseURL
	}
	return strings.TrimRight(base, "/")
}

func (s *Saver) record(ctx context.Context, req Request, out Outcome) {
	if s.Recorder == nil {
		return
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	rec := Record{
		Project:   out.Project,
		Title:     out.Title,
		SourceURL: req.URL,
		PageURL:   out.PageURL,
		Outcome:   out.Kind.String(),
		CreatedAt: now().UTC(),
	}
	if out.Err != nil {
		rec.ErrorKind = out.ErrorKind.String()
		rec.Error = out.Err.Error()
	}
	if err := s.Recorder.Record(ctx, rec); err != nil {
		s.Logger.Warn().Err(err).Msg("failed to record history")
	}
}

func (s *Saver) notify(msg string, sev notify.Severity, d time.Duration, link string) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Notify(notify.Notification{Message: msg, Severity: sev, Duration: d, LinkURL: link})
}

func (s *Saver) notifyError(err error) {
	s.notify("Error: "+err.Error(), notify.Error, errorDuration, "")
}

func (s *Saver) open(url string) error {
	if s.Opener == nil {
		return errors.New("no browser opener configured")
	}
	return s.Opener.Open(url)
}

func (s *Saver) copy(text string) error {
	if s.Clipboard == nil {
		return errors.New("no clipboard configured")
	}
	return s.Clipboard.Copy(text)
}

func (s *Saver) transition(st State) {
	if s.OnState != nil {
		s.OnState(st)
	}
}
