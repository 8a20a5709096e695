package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"github.com/devaloi/guestbook/internal/auth"
	"github.com/devaloi/guestbook/internal/client"
	"github.com/devaloi/guestbook/internal/domain"
	"github.com/devaloi/guestbook/internal/guestbook"
	"github.com/devaloi/guestbook/internal/query"
	"github.com/devaloi/guestbook/internal/rpc"
	"github.com/devaloi/guestbook/internal/view"
)

// errSignedOut is returned by commands that need a session.
var errSignedOut = errors.New("not signed in, run `guestbook login` first")

type app struct {
	cfg     config
	out     io.Writer
	http    *http.Client
	session *auth.RemoteSession
	api     *guestbook.API
	utils   *guestbook.Utils
}

func newApp(cfg config, out io.Writer) *app {
	hc := &http.Client{Timeout: 30 * time.Second}
	session := auth.NewRemoteSession(cfg.URL, hc, auth.FileTokenStore(cfg.TokenFile))
	api := guestbook.NewAPI(rpc.NewClient(cfg.URL, hc, session.Token))
	return &app{
		cfg:     cfg,
		out:     out,
		http:    hc,
		session: session,
		api:     api,
		utils:   guestbook.NewUtils(query.NewCache(), api),
	}
}

func (a *app) paint(c color.Color, s string) string {
	if !a.cfg.Colours {
		return s
	}
	return c.Render(s)
}

func (a *app) login(ctx context.Context, provider string) error {
	s, err := a.session.SignIn(ctx, provider)
	if err != nil {
		return fmt.Errorf("sign in with %s: %w", provider, err)
	}
	if s == nil {
		return errSignedOut
	}
	fmt.Fprintln(a.out, a.paint(color.Green, "Hi "+s.User.Name))
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.session.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	s, err := a.session.Session(ctx)
	if err != nil {
		return err
	}
	if s == nil {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	line := "Logged in as " + a.paint(color.Cyan, s.User.Name)
	if secret, err := a.api.GetSecretMessage(ctx); err == nil {
		line += " - " + secret
	}
	fmt.Fprintln(a.out, line)
	return nil
}

func (a *app) list(ctx context.Context) error {
	l := view.NewMessageList(a.utils.GetAll)
	if err := l.Mount(ctx); err != nil {
		return fmt.Errorf("fetch messages: %w", err)
	}

	table := tablewriter.NewWriter(a.out)
	table.SetHeader([]string{"Name", "Message"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for m := range l.All() {
		table.Append([]string{m.Name, m.Message})
	}
	table.Render()
	return nil
}

func (a *app) post(ctx context.Context, text string) error {
	s, err := a.session.Session(ctx)
	if err != nil {
		return err
	}
	form := view.NewForm(s, a.utils.PostMessage)
	if form == nil {
		return errSignedOut
	}
	form.SetDraft(text)
	if err := form.Submit(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.paint(color.Green, "Posted."))
	return nil
}

// page resolves the session and renders the whole page once.
func (a *app) page(ctx context.Context) (*view.Page, error) {
	s, err := a.session.Session(ctx)
	if err != nil {
		return nil, err
	}
	p := view.NewPage(view.SessionOf(s), a.utils)
	// A failed fetch is shown in the list.
	p.List().Mount(ctx)
	return p, nil
}

func (a *app) show(ctx context.Context) error {
	if err := view.RenderText(a.out, view.NewPage(view.SessionLoading(), a.utils)); err != nil {
		return err
	}
	p, err := a.page(ctx)
	if err != nil {
		return err
	}
	return view.RenderText(a.out, p)
}

// watch renders the page, then re-renders whenever the server invalidates
// the message list, until ctx is done.
func (a *app) watch(ctx context.Context) error {
	p, err := a.page(ctx)
	if err != nil {
		return err
	}
	if err := view.RenderText(a.out, p); err != nil {
		return err
	}

	wsURL, err := client.WebSocketURL(a.cfg.URL, domain.TopicGetAll)
	if err != nil {
		return err
	}
	var header http.Header
	if token, _ := a.session.Token(); token != "" {
		header = http.Header{"Authorization": []string{"Bearer " + token}}
	}
	return client.Subscribe(ctx, wsURL, header, func(string) {
		if err := a.utils.GetAll.Invalidate(ctx); err != nil {
			fmt.Fprintln(a.out, a.paint(color.Red, "refresh failed: "+err.Error()))
			return
		}
		fmt.Fprintln(a.out, strings.Repeat("-", 40))
		view.RenderText(a.out, p)
	})
}
