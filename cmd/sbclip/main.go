package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/vburojevic/scrapbox-clip/internal/browser"
	"github.com/vburojevic/scrapbox-clip/internal/config"
	"github.com/vburojevic/scrapbox-clip/internal/logger"
	"github.com/vburojevic/scrapbox-clip/internal/notify"
	"github.com/vburojevic/scrapbox-clip/internal/saver"
	"github.com/vburojevic/scrapbox-clip/internal/scrapbox"
	"github.com/vburojevic/scrapbox-clip/internal/version"
)

type GlobalOptions struct {
	ConfigPath string
	Format     string
	Quiet      bool
	Debug      bool
	Timeout    time.Duration
	BaseURL    string
	LogLevel   string
}

// desktop is where URLs go: the browser and the clipboard.
type desktop interface {
	saver.Opener
	saver.Clipboard
}

var newDesktop = func() desktop { return browser.System{} }

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(argv []string, stdout, stderr io.Writer) int {
	return runIO(argv, os.Stdin, stdout, stderr)
}

func runIO(argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env := &cliEnv{stdin: stdin, stdout: stdout, stderr: stderr, log: zerolog.Nop()}
	if err := newApp(env).RunContext(ctx, argv); err != nil {
		return printError(stderr, env.opts.Format, err)
	}
	return 0
}

// cliEnv is the state shared by every command of one invocation.
type cliEnv struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	opts   GlobalOptions
	store  *config.Store
	log    zerolog.Logger
}

func newApp(env *cliEnv) *cli.App {
	app := &cli.App{
		Name:            "sbclip",
		Usage:           "clip web pages into a Scrapbox project",
		UsageText:       "sbclip [global flags] <command> [args]",
		Version:         version.String(),
		Writer:          env.stdout,
		ErrWriter:       env.stderr,
		Reader:          env.stdin,
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to config file (default: user config dir)", EnvVars: []string{"SBCLIP_CONFIG"}},
			&cli.StringFlag{Name: "format", Value: "table", Usage: "output format: table, plain, or json"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "less output"},
			&cli.BoolFlag{Name: "debug", Usage: "debug logging, including HTTP requests (never prints secrets)"},
			&cli.DurationFlag{Name: "timeout", Value: 15 * time.Second, Usage: "HTTP timeout"},
			&cli.StringFlag{Name: "base-url", Usage: "Scrapbox base URL (default: from config, then " + scrapbox.DefaultBaseURL + ")"},
			&cli.StringFlag{Name: "log-level", Usage: "log level: debug, info, warn, error (default: from config)"},
		},
		Before: env.setup,
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return usageErrorf("unknown command: %s", c.Args().First())
			}
			_ = cli.ShowAppHelp(c)
			return usageErrorf("missing command")
		},
		Commands:       env.commands(),
		OnUsageError:   onUsageError,
		ExitErrHandler: func(*cli.Context, error) {},
	}
	setUsageErrorHandler(app.Commands)
	return app
}

func onUsageError(_ *cli.Context, err error, _ bool) error {
	return &usageError{msg: err.Error()}
}

func setUsageErrorHandler(cmds []*cli.Command) {
	for _, cmd := range cmds {
		cmd.OnUsageError = onUsageError
		setUsageErrorHandler(cmd.Subcommands)
	}
}

func (e *cliEnv) setup(c *cli.Context) error {
	e.opts = GlobalOptions{
		ConfigPath: c.String("config"),
		Format:     strings.ToLower(strings.TrimSpace(c.String("format"))),
		Quiet:      c.Bool("quiet"),
		Debug:      c.Bool("debug"),
		Timeout:    c.Duration("timeout"),
		BaseURL:    strings.TrimRight(c.String("base-url"), "/"),
		LogLevel:   c.String("log-level"),
	}
	if err := validateFormat(e.opts.Format); err != nil {
		return err
	}
	path, err := resolveConfigPath(e.opts.ConfigPath)
	if err != nil {
		return err
	}
	e.opts.ConfigPath = path
	e.store = config.NewStore(path)

	level := e.opts.LogLevel
	if level == "" {
		if cfg, err := e.store.LoadFile(); err == nil {
			level = cfg.LogLevel
		}
	}
	switch {
	case e.opts.Debug:
		level = "debug"
	case e.opts.Quiet && e.opts.LogLevel == "":
		level = "error"
	}
	e.log = logger.New(level, e.stderr)
	return nil
}

func resolveConfigPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	return config.DefaultConfigPath()
}

func validateFormat(format string) error {
	switch format {
	case "table", "plain", "json":
		return nil
	default:
		return usageErrorf("invalid --format %q (expected table, plain, or json)", format)
	}
}

func (e *cliEnv) baseURL(cfg *config.Config) string {
	switch {
	case e.opts.BaseURL != "":
		return e.opts.BaseURL
	case cfg != nil && cfg.BaseURL != "":
		return strings.TrimRight(cfg.BaseURL, "/")
	default:
		return scrapbox.DefaultBaseURL
	}
}

func (e *cliEnv) client(cfg *config.Config) (*scrapbox.Client, error) {
	client, err := scrapbox.NewClient(e.baseURL(cfg), e.opts.Timeout)
	if err != nil {
		return nil, err
	}
	client.SetRetry(2, 500*time.Millisecond)
	client.Logger = e.log
	if e.opts.Debug {
		client.EnableDebug(e.log)
	}
	return client, nil
}

func (e *cliEnv) notifier() saver.Notifier {
	if e.opts.Quiet {
		return notify.Discard{}
	}
	return &notify.Terminal{W: e.stderr, Color: isTTY(e.stderr)}
}

func isTTY(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
