// Package browser hands URLs to the desktop: the default browser and the
// system clipboard.
package browser

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Open asks the OS to open the given URL with the default handler.
func Open(url string) error {
	if url == "" {
		return errors.New("open: empty url")
	}
	name, args := openCommand(runtime.GOOS, url)
	return exec.Command(name, args...).Start()
}

func openCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		// start requires a window title argument; empty string is fine.
		return "cmd", []string{"/c", "start", "", url}
	default:
		return "xdg-open", []string{url}
	}
}

// Copy puts text on the system clipboard using the first helper found on PATH.
func Copy(text string) error {
	cands := copyCommands(runtime.GOOS)
	for _, c := range cands {
		path, err := exec.LookPath(c[0])
		if err != nil {
			continue
		}
		cmd := exec.Command(path, c[1:]...)
		cmd.Stdin = strings.NewReader(text)
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("copy: %s: %w", c[0], err)
		}
		return nil
	}
	return errors.New("copy: no clipboard helper found")
}

func copyCommands(goos string) [][]string {
	switch goos {
	case "darwin":
		return [][]string{{"pbcopy"}}
	case "windows":
		return [][]string{{"clip"}}
	default:
		return [][]string{
			{"wl-copy"},
			{"xclip", "-selection", "clipboard"},
			{"xsel", "--clipboard", "--input"},
		}
	}
}

// System is the desktop as the save pipeline sees it.
type System struct{}

func (System) Open(url string) error  { return Open(url) }
func (System) Copy(text string) error { return Copy(text) }
