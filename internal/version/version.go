// Package version reports what build of sbclip is running.
package version

import (
	"runtime/debug"
	"strings"
)

// These can be set via -ldflags at build time. When they are not, String
// falls back to the VCS stamp the Go toolchain embeds.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

func String() string {
	commit, date := Commit, Date
	if commit == "" || date == "" {
		c, d := buildStamp()
		if commit == "" {
			commit = c
		}
		if date == "" {
			date = d
		}
	}
	parts := []string{Version}
	if commit != "" {
		parts = append(parts, "commit="+commit)
	}
	if date != "" {
		parts = append(parts, "date="+date)
	}
	return strings.Join(parts, " ")
}

func buildStamp() (commit, date string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			commit = s.Value
			if len(commit) > 12 {
				commit = commit[:12]
			}
		case "vcs.time":
			date = s.Value
		}
	}
	return commit, date
}
