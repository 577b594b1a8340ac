package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vburojevic/scrapbox-clip/internal/config"
	"github.com/vburojevic/scrapbox-clip/internal/output"
	"github.com/vburojevic/scrapbox-clip/internal/saver"
	"github.com/vburojevic/scrapbox-clip/internal/scrapbox"
)

const (
	ErrCodeUnknown      = "unknown"
	ErrCodeInvalidUsage = "invalid_usage"
	ErrCodeAuth         = "auth_required"
	ErrCodeNetwork      = "network_error"
	ErrCodeTimeout      = "timeout"
	ErrCodeServerError  = "server_error"
	ErrCodeDecode       = "decode_error"
	ErrCodeConfig       = "config_error"
)

// usageError is a mistake on the command line.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func errorCodeForError(err error) string {
	if err == nil {
		return ErrCodeUnknown
	}
	var uerr *usageError
	if errors.As(err, &uerr) {
		return ErrCodeInvalidUsage
	}
	var verr *saver.ValidationError
	if errors.As(err, &verr) || errors.Is(err, config.ErrInvalid) {
		return ErrCodeConfig
	}
	switch scrapbox.Classify(err) {
	case scrapbox.KindAuthRequired:
		return ErrCodeAuth
	case scrapbox.KindNetwork:
		return ErrCodeNetwork
	case scrapbox.KindAborted:
		return ErrCodeTimeout
	case scrapbox.KindServer:
		return ErrCodeServerError
	case scrapbox.KindDecode:
		return ErrCodeDecode
	}
	return ErrCodeUnknown
}

func exitCodeForError(err error) int {
	switch errorCodeForError(err) {
	case ErrCodeInvalidUsage:
		return 2
	case ErrCodeAuth:
		return 10
	case ErrCodeNetwork:
		return 11
	case ErrCodeTimeout:
		return 12
	case ErrCodeServerError:
		return 13
	case ErrCodeConfig:
		return 14
	default:
		return 1
	}
}

func errorHint(code string) string {
	switch code {
	case ErrCodeAuth:
		return "log in at the Scrapbox site, then run: sbclip auth login"
	case ErrCodeConfig:
		return "check the settings with: sbclip config show"
	case ErrCodeTimeout:
		return "the request timed out; retry or raise --timeout"
	default:
		return ""
	}
}

func printError(stderr io.Writer, format string, err error) int {
	if err == nil {
		return 0
	}
	code := errorCodeForError(err)
	if strings.EqualFold(format, "json") {
		_ = output.WriteJSON(stderr, map[string]any{
			"error": map[string]string{"code": code, "message": err.Error()},
		})
		return exitCodeForError(err)
	}
	fmt.Fprintln(stderr, "error:", err)
	if hint := errorHint(code); hint != "" {
		fmt.Fprintln(stderr, "hint:", hint)
	}
	return exitCodeForError(err)
}
