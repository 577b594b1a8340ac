//go:build !linux && !darwin

package prompt

import "errors"

func readSecretFromTTY() ([]byte, error) {
	return nil, errors.New("no tty secret reader on this platform; use --sid-stdin")
}
