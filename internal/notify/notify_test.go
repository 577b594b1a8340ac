package notify

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalPlain(t *testing.T) {
	var buf bytes.Buffer
	term := &Terminal{W: &buf}

	term.Notify(Notification{Message: "Saving to Scrapbox...", Severity: Info, Duration: 10 * time.Second})
	term.Notify(Notification{Message: "Saved to demo! (Click to open)", Severity: Success, LinkURL: "https://scrapbox.io/demo/x"})
	term.Notify(Notification{Message: "Error: boom", Severity: Error})

	want := "ℹ Saving to Scrapbox...\n" +
		"✔ Saved to demo! (Click to open)\n" +
		"  → https://scrapbox.io/demo/x\n" +
		"✖ Error: boom\n"
	assert.Equal(t, want, buf.String())
}

func TestTerminalColorKeepsMessage(t *testing.T) {
	var buf bytes.Buffer
	term := &Terminal{W: &buf, Color: true}
	term.Notify(Notification{Message: "Please login to Scrapbox first!", Severity: Error})
	assert.Contains(t, buf.String(), "Please login to Scrapbox first!")
}

func TestRecorder(t *testing.T) {
	var r Recorder
	_, ok := r.Last()
	assert.False(t, ok)

	r.Notify(Notification{Message: "a"})
	r.Notify(Notification{Message: "b", Severity: Warning})

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, "b", last.Message)
	assert.Len(t, r.All(), 2)
	assert.Equal(t, "warning", last.Severity.String())
}
