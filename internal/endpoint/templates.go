package endpoint

import (
	_ "embed"
	"html/template"
	"strings"
	"time"

	"github.com/macrat/ssdash/internal/view"
	"golang.org/x/text/width"
)

// displayWidth returns the width of s in a monospace terminal.
// East Asian wide and fullwidth characters take two columns.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

// fitWidth pads or truncates s to exactly w columns.
func fitWidth(s string, w int) string {
	if n := displayWidth(s); n <= w {
		return s + strings.Repeat(" ", w-n)
	}

	var sb strings.Builder
	n := 0
	for _, r := range s {
		rw := displayWidth(string(r))
		if n+rw > w-1 {
			break
		}
		sb.WriteRune(r)
		n += rw
	}
	sb.WriteString("…")
	n++

	return sb.String() + strings.Repeat(" ", w-n)
}

const (
	minNameWidth = 4
	maxNameWidth = 32
)

var (
	templateFuncs = map[string]interface{}{
		"pad": fitWidth,
		"name_width": func(rs []view.Record) int {
			w := minNameWidth
			for _, r := range rs {
				if n := displayWidth(r.Name); n > w {
					w = n
				}
			}
			if w > maxNameWidth {
				w = maxNameWidth
			}
			return w
		},
		"time2str": func(t time.Time) string {
			return t.Format(time.RFC3339)
		},
		"status_mark": func(s view.Status) string {
			switch s {
			case view.StatusUp:
				return "✓"
			case view.StatusDegraded:
				return "!"
			case view.StatusDown:
				return "✗"
			default:
				return "-"
			}
		},
		"to_camel": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
	}
)

//go:embed templates/base.html
var baseHTMLTemplateStr string

var baseHTMLTemplate = template.Must(template.New("base.html").Funcs(templateFuncs).Parse(baseHTMLTemplateStr))

func loadHTMLTemplate(s string) *template.Template {
	return template.Must(
		template.Must(baseHTMLTemplate.Clone()).Parse(s),
	)
}
