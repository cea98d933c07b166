// Package pages renders the HTML pages of the phone tool as templ
// components backed by embedded html/template files.
package pages

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/a-h/templ"

	"github.com/wind-7274/seatlease-process/internal/core"
	"github.com/wind-7274/seatlease-process/internal/history"
	"github.com/wind-7274/seatlease-process/internal/sheet"
)

//go:embed templates/*.html
var files embed.FS

var tmpl = template.Must(template.New("pages").ParseFS(files, "templates/*.html"))

// Layout is embedded in every page's data.
type Layout struct {
	Title  string
	Active string
	Error  *core.UserMessage
}

// HomeData drives the split upload form.
type HomeData struct {
	Layout
	Separator   string
	KeepEmpty   bool
	E164        bool
	MaxFileSize string
}

// SplitResultData drives the split results page.
type SplitResultData struct {
	Layout
	Run        *core.SplitRun
	Summary    core.SplitSummary
	Preview    *sheet.Table
	ValidURL   string
	InvalidURL string
	Retention  time.Duration
}

// UnlockData drives the unlock upload form.
type UnlockData struct {
	Layout
	MaxFiles int
}

// UnlockResultData drives the unlock results page.
type UnlockResultData struct {
	Layout
	Run         *core.UnlockRun
	ArchiveURL  string
	ArchiveName string
}

// HistoryData drives the recent runs page.
type HistoryData struct {
	Layout
	Runs []history.Run
}

func Home(d HomeData) templ.Component {
	d.Title, d.Active = "Split numbers", "split"
	return page("home.html", d)
}

func SplitResult(d SplitResultData) templ.Component {
	d.Title, d.Active = "Results", "split"
	if d.Preview == nil {
		d.Preview = &sheet.Table{}
	}
	return page("split_result.html", d)
}

func Unlock(d UnlockData) templ.Component {
	d.Title, d.Active = "Unlock workbooks", "unlock"
	return page("unlock.html", d)
}

func UnlockResult(d UnlockResultData) templ.Component {
	d.Title, d.Active = "Unlock results", "unlock"
	return page("unlock_result.html", d)
}

func History(d HistoryData) templ.Component {
	d.Title, d.Active = "History", "history"
	return page("history.html", d)
}

// Error renders a full error page for msg.
func Error(msg core.UserMessage) templ.Component {
	return page("error.html", Layout{Title: "Error", Error: &msg})
}

func page(name string, data any) templ.Component {
	t := tmpl.Lookup(name)
	if t == nil {
		panic(fmt.Sprintf("pages: template %q not found", name))
	}
	return templ.FromGoHTML(t, data)
}

// ByteSize formats n as a human readable size such as "50 MB".
func ByteSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	v := float64(n) / float64(div)
	suffix := []string{"KB", "MB", "GB", "TB"}[exp]
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d %s", int64(v), suffix)
	}
	return fmt.Sprintf("%.1f %s", v, suffix)
}
