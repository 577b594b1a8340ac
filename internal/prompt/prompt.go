// Package prompt reads answers from the terminal.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReadLine prints prompt and reads one line. Pass the same *bufio.Reader for
// consecutive questions so buffered input is not lost between them.
func ReadLine(r io.Reader, w io.Writer, prompt string) (string, error) {
	if prompt != "" {
		_, _ = fmt.Fprint(w, prompt)
	}
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	line, err := br.ReadString('\n')
	if err != nil {
		// Allow EOF with partial line
		if err == io.EOF {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadSecret reads a secret from the controlling TTY with echo disabled when
// possible. If no TTY is available, it falls back to reading from r (which
// may echo).
func ReadSecret(w io.Writer, prompt string, r io.Reader) (string, error) {
	if prompt != "" {
		_, _ = fmt.Fprint(w, prompt)
	}
	s, err := readSecretFromTTY()
	if err == nil {
		_, _ = fmt.Fprintln(w)
		return strings.TrimSpace(string(s)), nil
	}
	// Fallback to plain read (may echo)
	return ReadLine(r, w, "")
}

// Confirm asks a yes/no question. An empty answer returns def.
func Confirm(r io.Reader, w io.Writer, prompt string, def bool) (bool, error) {
	hint := " [y/N] "
	if def {
		hint = " [Y/n] "
	}
	ans, err := ReadLine(r, w, prompt+hint)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(ans) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, fmt.Errorf("answer y or n, got %q", ans)
	}
}
