// Package settings is the interactive settings dialog shown when a save
// needs a project that has not been configured.
package settings

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vburojevic/scrapbox-clip/internal/config"
	"github.com/vburojevic/scrapbox-clip/internal/prompt"
)

// Store is the part of config.Store the dialog needs.
type Store interface {
	LoadFile() (*config.Config, error)
	Save(c *config.Config) error
}

type Dialog struct {
	In    io.Reader
	Out   io.Writer
	Store Store
	// Interactive asks for the values. Otherwise the dialog only explains
	// how to set them.
	Interactive bool
}

// ShowSettings asks for the project and the auto-open flag and saves them.
func (d *Dialog) ShowSettings(ctx context.Context) error {
	if !d.Interactive {
		fmt.Fprintln(d.Out, "Scrapbox project is not configured. Set it with:")
		fmt.Fprintln(d.Out, "  sbclip config set scrapbox_project <name>")
		fmt.Fprintln(d.Out, "  sbclip config set scrapbox_auto_open true|false")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg, err := d.Store.LoadFile()
	if err != nil {
		return err
	}
	in := bufio.NewReader(d.In)
	fmt.Fprintln(d.Out, "Scrapbox Clipper Settings")

	current := cfg.Project
	if current == config.PlaceholderProject {
		current = ""
	}
	label := "Project name"
	if current != "" {
		label += " [" + current + "]"
	}
	project, err := prompt.ReadLine(in, d.Out, label+": ")
	if err != nil {
		return err
	}
	if project == "" {
		project = current
	}
	project = strings.Trim(project, "/ ")
	if project == "" || project == config.PlaceholderProject {
		return errors.New("settings: project name is required")
	}

	autoOpen, err := prompt.Confirm(in, d.Out, "Open the page after saving?", cfg.AutoOpenValue())
	if err != nil {
		return err
	}

	cfg.Project = project
	cfg.AutoOpen = &autoOpen
	if err := d.Store.Save(cfg); err != nil {
		return err
	}
	fmt.Fprintf(d.Out, "Saved. Clips go to %s.\n", project)
	return nil
}
