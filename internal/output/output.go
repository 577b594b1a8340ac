package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/vburojevic/scrapbox-clip/internal/config"
	"github.com/vburojevic/scrapbox-clip/internal/saver"
	"github.com/vburojevic/scrapbox-clip/internal/scrapbox"
)

func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func PrintHistory(w io.Writer, format string, recs []saver.Record) error {
	switch {
	case strings.EqualFold(format, "json"):
		if recs == nil {
			recs = []saver.Record{}
		}
		return WriteJSON(w, recs)
	case strings.EqualFold(format, "plain"):
		for _, r := range recs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				r.CreatedAt.UTC().Format(time.RFC3339),
				r.Outcome,
				oneLine(r.Project),
				oneLine(r.Title),
				oneLine(r.PageURL),
			)
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tOUTCOME\tPROJECT\tTITLE\tURL")
	for _, r := range recs {
		url := r.PageURL
		if url == "" {
			url = r.SourceURL
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Outcome,
			truncateOneLine(r.Project, 24),
			truncateOneLine(r.Title, 50),
			truncateOneLine(url, 60),
		)
	}
	return tw.Flush()
}

type userView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	LoggedIn    bool   `json:"loggedIn"`
}

// PrintUser never prints the CSRF token.
func PrintUser(w io.Writer, format string, u scrapbox.User) error {
	v := userView{ID: u.ID, Name: u.Name, DisplayName: u.DisplayName, LoggedIn: u.IsMember()}
	switch {
	case strings.EqualFold(format, "json"):
		return WriteJSON(w, v)
	case strings.EqualFold(format, "plain"):
		fmt.Fprintf(w, "%s\t%s\t%s\n", v.ID, v.Name, oneLine(v.DisplayName))
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDISPLAY NAME")
	fmt.Fprintf(tw, "%s\t%s\t%s\n", v.ID, v.Name, truncateOneLine(v.DisplayName, 60))
	return tw.Flush()
}

// PrintConfig lists every key. The session cookie is shown only as set or
// unset.
func PrintConfig(w io.Writer, format string, c *config.Config) error {
	type kv struct{ key, val string }
	var pairs []kv
	m := make(map[string]string, len(config.Keys))
	for _, k := range config.Keys {
		v, err := c.Get(k)
		if err != nil {
			return err
		}
		if k == "sid" {
			v = redact(v)
		}
		pairs = append(pairs, kv{k, v})
		m[k] = v
	}

	switch {
	case strings.EqualFold(format, "json"):
		return WriteJSON(w, m)
	case strings.EqualFold(format, "plain"):
		for _, p := range pairs {
			fmt.Fprintf(w, "%s=%s\n", p.key, p.val)
		}
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE")
	for _, p := range pairs {
		fmt.Fprintf(tw, "%s\t%s\n", p.key, p.val)
	}
	return tw.Flush()
}

type outcomeView struct {
	Outcome   string `json:"outcome"`
	Project   string `json:"project,omitempty"`
	Title     string `json:"title,omitempty"`
	PageURL   string `json:"page_url,omitempty"`
	Message   string `json:"message,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
}

// PrintOutcome is the machine-readable result of a save. Humans get
// notifications instead, so table output prints only the page URL.
func PrintOutcome(w io.Writer, format string, o saver.Outcome) error {
	v := outcomeView{
		Outcome: o.Kind.String(),
		Project: o.Project,
		Title:   o.Title,
		PageURL: o.PageURL,
		Message: o.Message,
	}
	if o.Err != nil {
		v.ErrorKind = o.ErrorKind.String()
		v.Error = o.Err.Error()
	}
	switch {
	case strings.EqualFold(format, "json"):
		return WriteJSON(w, v)
	case strings.EqualFold(format, "plain"):
		fmt.Fprintf(w, "%s\t%s\n", v.Outcome, v.PageURL)
		return nil
	}
	if v.PageURL != "" {
		fmt.Fprintln(w, v.PageURL)
	}
	return nil
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "(set)"
}

func truncateOneLine(s string, max int) string {
	s = oneLine(s)
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
