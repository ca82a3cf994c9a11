package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"

	"apshelper.com/job-helper/internal/model"
)

const timeLayout = "2006-01-02 15:04"

// emit writes v as indented JSON when --format=json, otherwise calls text.
func emit(w io.Writer, v any, text func(w io.Writer)) error {
	if formatFlag == "json" {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(b))
		return nil
	}
	text(w)
	return nil
}

// renderMarkdown styles AI replies for a terminal; anything else gets the
// raw text so output stays pipeable.
func renderMarkdown(w io.Writer, md string) {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err == nil {
			if out, err := renderer.Render(md); err == nil {
				fmt.Fprint(w, out)
				return
			}
		}
	}
	fmt.Fprintln(w, md)
}

func renderEntries(w io.Writer, entries []model.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries.")
		return
	}
	for i, e := range entries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "[%s] %s\n", e.ID, e.CreatedAt.Local().Format(timeLayout))
		fmt.Fprintln(w, e.Content)
		if len(e.Tags) > 0 {
			fmt.Fprintf(w, "tags: %s\n", strings.Join(e.Tags, ", "))
		}
	}
}

func renderExamples(w io.Writer, examples []model.WorkExample) {
	if len(examples) == 0 {
		fmt.Fprintln(w, "No work examples.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLEVEL\tTITLE\tROLE\tTAGS")
	for _, ex := range examples {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", ex.ID, ex.APSLevel, ex.Title, ex.Role, strings.Join(ex.Tags, ", "))
	}
	tw.Flush()
}

func renderExample(w io.Writer, ex model.WorkExample) {
	fmt.Fprintf(w, "%s (%s)\n", ex.Title, ex.APSLevel)
	if ex.Role != "" {
		fmt.Fprintf(w, "role: %s\n", ex.Role)
	}
	fmt.Fprintln(w, ex.ExampleText)
	for _, l := range []struct {
		label string
		items []string
	}{
		{"capabilities", ex.Capabilities},
		{"behaviours", ex.Behaviours},
		{"tags", ex.Tags},
	} {
		if len(l.items) > 0 {
			fmt.Fprintf(w, "%s: %s\n", l.label, strings.Join(l.items, ", "))
		}
	}
}

func renderList(w io.Writer, title string, items []string) {
	fmt.Fprintf(w, "%s:\n", title)
	if len(items) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, it := range items {
		fmt.Fprintf(w, "  %s\n", it)
	}
}
