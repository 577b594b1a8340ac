package saver

import (
	"time"

	"github.com/vburojevic/scrapbox-clip/internal/scrapbox"
)

// State is a step of one save run.
type State int

const (
	Idle State = iota
	Validating
	Saving
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Saving:
		return "saving"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

type OutcomeKind int

const (
	OutcomeSucceeded OutcomeKind = iota
	ConfigureRequired
	AuthFailed
	SaveFailed
	FellBack
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSucceeded:
		return "succeeded"
	case ConfigureRequired:
		return "configure_required"
	case AuthFailed:
		return "auth_failed"
	case SaveFailed:
		return "save_failed"
	case FellBack:
		return "fell_back"
	default:
		return "unknown"
	}
}

// Outcome is what a run ended with. Err is set for every kind except
// OutcomeSucceeded. A FellBack outcome keeps the API error that caused it.
type Outcome struct {
	Kind      OutcomeKind
	Project   string
	Title     string
	PageURL   string
	Message   string
	ErrorKind scrapbox.Kind
	Err       error
}

func (o Outcome) OK() bool {
	return o.Kind == OutcomeSucceeded || o.Kind == FellBack
}

// ValidationError means the configuration does not allow a save yet.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// Record is one history entry.
type Record struct {
	ID        string    `json:"id"`
	Project   string    `json:"project"`
	Title     string    `json:"title"`
	SourceURL string    `json:"source_url"`
	PageURL   string    `json:"page_url,omitempty"`
	Outcome   string    `json:"outcome"`
	ErrorKind string    `json:"error_kind,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
