package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"slices"

	"github.com/devaloi/guestbook/internal/domain"
)

//go:embed templates/page.html
var templatesFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templatesFS, "templates/page.html"))

// PageData is the template input.
type PageData struct {
	Loading       bool
	Authenticated bool
	Greeting      string
	UserName      string
	Buttons       []SignInButton
	ListLoading   bool
	ListError     string
	Messages      []domain.Message
	Draft         string
	MinLength     int
	MaxLength     int
	Topic         string
}

// Data snapshots the page for rendering.
func (p *Page) Data() PageData {
	d := PageData{
		Loading:       p.Status() == domain.StatusLoading,
		Authenticated: p.form != nil,
		Greeting:      p.Greeting(),
		Buttons:       p.Buttons(),
		MinLength:     domain.MinMessageLength,
		MaxLength:     domain.MaxMessageLength,
		Topic:         domain.TopicGetAll,
	}
	if p.form != nil {
		d.Draft = p.form.Draft()
		d.UserName = p.session.Session.User.Name
	}
	if l := p.List(); l != nil {
		s := l.State()
		d.ListLoading = s.Loading
		if s.Err != nil {
			d.ListError = s.Err.Error()
		}
		if s.Messages != nil {
			d.Messages = slices.Collect(s.Messages)
		}
	}
	return d
}

// RenderHTML writes the page as an HTML document.
func RenderHTML(w io.Writer, p *Page) error {
	return pageTmpl.Execute(w, p.Data())
}

// RenderText writes the page for a terminal.
func RenderText(w io.Writer, p *Page) error {
	d := p.Data()
	if d.Loading {
		_, err := fmt.Fprintln(w, "Loading...")
		return err
	}

	ew := &errWriter{w: w}
	ew.println("Guestbook")
	ew.println("")
	if d.Authenticated {
		ew.println(d.Greeting)
		ew.println("[Logout]")
		ew.printf("[Your message...] [Submit]\n")
	} else {
		for _, b := range d.Buttons {
			ew.printf("[%s]\n", b.Label)
		}
	}
	ew.println("")
	switch {
	case d.ListLoading:
		ew.println("Fetching messages...")
	case d.ListError != "":
		ew.printf("Could not load messages: %s\n", d.ListError)
	default:
		for _, m := range d.Messages {
			ew.println(m.Message)
			ew.printf("- %s\n", m.Name)
		}
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err == nil {
		_, e.err = fmt.Fprintf(e.w, format, args...)
	}
}

func (e *errWriter) println(s string) {
	if e.err == nil {
		_, e.err = fmt.Fprintln(e.w, s)
	}
}
