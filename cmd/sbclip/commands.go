package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/vburojevic/scrapbox-clip/internal/capture"
	"github.com/vburojevic/scrapbox-clip/internal/config"
	"github.com/vburojevic/scrapbox-clip/internal/history"
	"github.com/vburojevic/scrapbox-clip/internal/output"
	"github.com/vburojevic/scrapbox-clip/internal/page"
	"github.com/vburojevic/scrapbox-clip/internal/prompt"
	"github.com/vburojevic/scrapbox-clip/internal/saver"
	"github.com/vburojevic/scrapbox-clip/internal/scrapbox"
	"github.com/vburojevic/scrapbox-clip/internal/settings"
	"github.com/vburojevic/scrapbox-clip/internal/version"
)

func (e *cliEnv) commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "save",
			Usage:     "save a page (and an optional selection) to the configured project",
			ArgsUsage: "<url>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "title", Usage: "page title (default: fetched from the page)"},
				&cli.StringFlag{Name: "selection", Aliases: []string{"s"}, Usage: "selected text to quote"},
				&cli.BoolFlag{Name: "selection-stdin", Usage: "read the selection from stdin"},
				&cli.BoolFlag{Name: "article", Usage: "quote the opening of the main article when no selection is given"},
				&cli.BoolFlag{Name: "no-fetch", Usage: "never download the page; title defaults to the URL"},
			},
			Action: e.saveAction,
		},
		{
			Name:   "settings",
			Usage:  "set the project and auto-open interactively",
			Action: e.settingsAction,
		},
		{
			Name:   "config",
			Usage:  "inspect or edit the config file",
			Action: missingSubcommand("config", "path|show|get|set"),
			Subcommands: []*cli.Command{
				{Name: "path", Usage: "print the config file path", Action: e.configPathAction},
				{Name: "show", Usage: "print the effective config", Action: e.configShowAction},
				{Name: "get", Usage: "print one value", ArgsUsage: "<key>", Action: e.configGetAction},
				{Name: "set", Usage: "change one value", ArgsUsage: "<key> <value>", Action: e.configSetAction},
			},
		},
		{
			Name:   "auth",
			Usage:  "manage the Scrapbox session",
			Action: missingSubcommand("auth", "login|status|logout"),
			Subcommands: []*cli.Command{
				{
					Name:  "login",
					Usage: "store the connect.sid session cookie after verifying it",
					Flags: []cli.Flag{
						&cli.BoolFlag{Name: "sid-stdin", Usage: "read the cookie from stdin"},
						&cli.BoolFlag{Name: "no-verify", Usage: "save without checking the cookie against the service"},
					},
					Action: e.authLoginAction,
				},
				{Name: "status", Usage: "check whether the session is logged in", Action: e.authStatusAction},
				{Name: "logout", Usage: "forget the session cookie", Action: e.authLogoutAction},
			},
		},
		{
			Name:   "page",
			Usage:  "look up pages",
			Action: missingSubcommand("page", "exists"),
			Subcommands: []*cli.Command{
				{
					Name:      "exists",
					Usage:     "report whether a page with this title exists",
					ArgsUsage: "<title>",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "project", Usage: "project to look in (default: configured project)"},
					},
					Action: e.pageExistsAction,
				},
			},
		},
		{
			Name:  "history",
			Usage: "list recent saves",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "limit", Value: 20, Usage: "max entries (0 = all)"},
				&cli.BoolFlag{Name: "clear", Usage: "delete all entries"},
			},
			Action: e.historyAction,
		},
		{
			Name:  "version",
			Usage: "print the version",
			Action: func(c *cli.Context) error {
				fmt.Fprintln(e.stdout, version.String())
				return nil
			},
		},
	}
}

func missingSubcommand(name, subs string) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() > 0 {
			return usageErrorf("unknown %s command: %s (expected %s)", name, c.Args().First(), subs)
		}
		return usageErrorf("usage: sbclip %s %s", name, subs)
	}
}

// --- save ---
func (e *cliEnv) saveAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return usageErrorf("usage: sbclip save <url> [flags]")
	}
	u, err := capture.ParseURL(c.Args().First())
	if err != nil {
		return &usageError{msg: err.Error()}
	}
	noFetch := c.Bool("no-fetch")
	article := c.Bool("article")
	if noFetch && article {
		return usageErrorf("--article needs the page; drop --no-fetch")
	}

	selection := c.String("selection")
	if c.Bool("selection-stdin") {
		if selection != "" {
			return usageErrorf("--selection and --selection-stdin are mutually exclusive")
		}
		b, err := io.ReadAll(e.stdin)
		if err != nil {
			return err
		}
		selection = string(b)
	}
	selection = strings.TrimSpace(selection)

	cfg, err := e.store.Load()
	if err != nil {
		return err
	}

	// An unconfigured save goes straight to the settings dialog without
	// touching the network.
	title := strings.TrimSpace(c.String("title"))
	wantArticle := article && selection == ""
	if cfg.Configured() && !noFetch && (title == "" || wantArticle) {
		f := capture.NewFetcher(e.opts.Timeout)
		f.Logger = e.log
		got, err := f.Capture(c.Context, u.String(), capture.Options{Article: wantArticle})
		if err != nil {
			e.log.Warn().Err(err).Msg("could not fetch page, using the URL as title")
		} else {
			if title == "" {
				title = got.Title
			}
			if wantArticle {
				selection = got.Selection
			}
		}
	}
	if title == "" {
		title = urlTitle(u)
	}

	client, err := e.client(cfg)
	if err != nil {
		return err
	}
	var rec saver.Recorder
	if cfg.HistoryValue() {
		db, err := history.Open(config.DefaultHistoryPath(e.opts.ConfigPath))
		if err != nil {
			e.log.Warn().Err(err).Msg("history disabled for this run")
		} else {
			defer db.Close()
			rec = db
		}
	}

	d := newDesktop()
	s := &saver.Saver{
		Config:    e.store,
		API:       client,
		Notifier:  e.notifier(),
		Settings:  &settings.Dialog{In: e.stdin, Out: e.stderr, Store: e.store, Interactive: isTTY(e.stdin)},
		Opener:    d,
		Clipboard: d,
		Recorder:  rec,
		Logger:    e.log,
		BaseURL:   e.baseURL(cfg),
	}
	out := s.Save(c.Context, saver.Request{Title: title, URL: u.String(), Selection: selection})
	if err := output.PrintOutcome(e.stdout, e.opts.Format, out); err != nil {
		return err
	}
	if !out.OK() {
		return out.Err
	}
	return nil
}

func urlTitle(u *url.URL) string {
	return strings.TrimRight(u.Host+u.Path, "/")
}

// --- settings ---
func (e *cliEnv) settingsAction(c *cli.Context) error {
	d := &settings.Dialog{In: e.stdin, Out: e.stderr, Store: e.store, Interactive: true}
	return d.ShowSettings(c.Context)
}

// --- config ---
func (e *cliEnv) configPathAction(c *cli.Context) error {
	fmt.Fprintln(e.stdout, e.opts.ConfigPath)
	return nil
}

func (e *cliEnv) configShowAction(c *cli.Context) error {
	cfg, err := e.store.Load()
	if err != nil {
		return err
	}
	return output.PrintConfig(e.stdout, e.opts.Format, cfg)
}

func (e *cliEnv) configGetAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return usageErrorf("usage: sbclip config get <key> (keys: %s)", strings.Join(config.Keys, ", "))
	}
	cfg, err := e.store.Load()
	if err != nil {
		return err
	}
	v, err := cfg.Get(c.Args().First())
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, v)
	return nil
}

func (e *cliEnv) configSetAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return usageErrorf("usage: sbclip config set <key> <value> (keys: %s)", strings.Join(config.Keys, ", "))
	}
	// File values only, so environment overrides are not written back.
	cfg, err := e.store.LoadFile()
	if err != nil {
		return err
	}
	if err := cfg.Set(c.Args().Get(0), c.Args().Get(1)); err != nil {
		return err
	}
	if err := e.store.Save(cfg); err != nil {
		return err
	}
	if !e.opts.Quiet {
		fmt.Fprintf(e.stdout, "Saved %s\n", c.Args().Get(0))
	}
	return nil
}

// --- auth ---
func (e *cliEnv) authLoginAction(c *cli.Context) error {
	var sid string
	if c.Bool("sid-stdin") {
		if isTTY(e.stdin) {
			return usageErrorf("--sid-stdin requires piped input (stdin is a TTY)")
		}
		b, err := io.ReadAll(e.stdin)
		if err != nil {
			return err
		}
		sid = string(b)
	} else {
		if !isTTY(e.stdin) {
			return usageErrorf("missing session cookie; use --sid-stdin or run interactively")
		}
		fmt.Fprintln(e.stderr, "Copy the connect.sid cookie from a logged-in browser session.")
		s, err := prompt.ReadSecret(e.stderr, "connect.sid: ", e.stdin)
		if err != nil {
			return err
		}
		sid = s
	}
	sid = strings.TrimPrefix(strings.TrimSpace(sid), "connect.sid=")
	if sid == "" {
		return usageErrorf("empty session cookie")
	}

	cfg, err := e.store.Load()
	if err != nil {
		return err
	}
	var user scrapbox.User
	if !c.Bool("no-verify") {
		client, err := e.client(cfg)
		if err != nil {
			return err
		}
		user, err = client.CheckLogin(c.Context, scrapbox.NewSession(sid, ""))
		if err != nil {
			return err
		}
	}

	fileCfg, err := e.store.LoadFile()
	if err != nil {
		return err
	}
	fileCfg.SID = sid
	if err := e.store.Save(fileCfg); err != nil {
		return err
	}
	if e.opts.Format != "table" {
		return output.PrintUser(e.stdout, e.opts.Format, user)
	}
	if user.IsMember() {
		fmt.Fprintf(e.stdout, "Logged in as %s\n", user.Label())
	} else {
		fmt.Fprintln(e.stdout, "Session saved (not verified)")
	}
	return nil
}

func (e *cliEnv) authStatusAction(c *cli.Context) error {
	cfg, err := e.store.Load()
	if err != nil {
		return err
	}
	client, err := e.client(cfg)
	if err != nil {
		return err
	}
	s := &saver.Saver{
		Config:   e.store,
		API:      client,
		Notifier: e.notifier(),
		Opener:   newDesktop(),
		Logger:   e.log,
		BaseURL:  e.baseURL(cfg),
	}
	user, err := s.Status(c.Context, nil)
	if err != nil {
		return err
	}
	// Table output is the notification itself.
	if e.opts.Format == "table" {
		return nil
	}
	return output.PrintUser(e.stdout, e.opts.Format, user)
}

func (e *cliEnv) authLogoutAction(c *cli.Context) error {
	cfg, err := e.store.LoadFile()
	if err != nil {
		return err
	}
	cfg.SID = ""
	if err := e.store.Save(cfg); err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, "Logged out")
	return nil
}

// --- page ---
func (e *cliEnv) pageExistsAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return usageErrorf("usage: sbclip page exists <title> [--project name]")
	}
	cfg, err := e.store.Load()
	if err != nil {
		return err
	}
	project := strings.TrimSpace(c.String("project"))
	if project == "" {
		if !cfg.Configured() {
			return &saver.ValidationError{Field: "scrapbox_project", Reason: "project is not configured"}
		}
		project = cfg.Project
	}
	client, err := e.client(cfg)
	if err != nil {
		return err
	}
	title := page.EscapeTitle(c.Args().First())
	exists, err := client.PageExists(c.Context, scrapbox.NewSession(cfg.SID, ""), project, title).Get()
	if err != nil {
		return err
	}
	pageURL := page.PageURL(e.baseURL(cfg), project, title)

	switch e.opts.Format {
	case "json":
		return output.WriteJSON(e.stdout, map[string]any{
			"project": project,
			"title":   title,
			"exists":  exists,
			"url":     pageURL,
		})
	case "plain":
		fmt.Fprintln(e.stdout, exists)
	default:
		if exists {
			fmt.Fprintf(e.stdout, "exists: %s\n", pageURL)
		} else {
			fmt.Fprintf(e.stdout, "not found: %s\n", title)
		}
	}
	return nil
}

// --- history ---
func (e *cliEnv) historyAction(c *cli.Context) error {
	db, err := history.Open(config.DefaultHistoryPath(e.opts.ConfigPath))
	if err != nil {
		return err
	}
	defer db.Close()

	if c.Bool("clear") {
		n, err := db.Clear(c.Context)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Deleted %d entries\n", n)
		return nil
	}
	recs, err := db.List(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	return output.PrintHistory(e.stdout, e.opts.Format, recs)
}
