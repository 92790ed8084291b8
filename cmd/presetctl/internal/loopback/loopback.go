// Package loopback receives the OAuth redirect of a command line login on a
// local address.
package loopback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/presetmarket/internal/session"
)

// CallbackPath is the path the backend redirects to after login.
const CallbackPath = "/auth/callback"

// Receiver serves CallbackPath until closed. Only the first redirect is
// processed; later ones are answered without side effects.
type Receiver struct {
	handler *session.RedirectHandler
	ln      net.Listener
	srv     *http.Server
	results chan session.Result
}

// Listen starts serving on addr. The token from the redirect is handed to
// login.
func Listen(addr string, login session.LoginCompleter) (*Receiver, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen for login callback on %s: %w", addr, err)
	}

	r := &Receiver{
		handler: session.NewRedirectHandler(login),
		ln:      ln,
		results: make(chan session.Result, 1),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET(CallbackPath, r.callback)

	r.srv = &http.Server{Handler: e, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := r.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.deliver(session.Result{Outcome: session.OutcomeFailed, Message: "callback server stopped", Err: err})
		}
	}()
	return r, nil
}

// URL is the callback address being served.
func (r *Receiver) URL() string {
	return "http://" + r.ln.Addr().String() + CallbackPath
}

func (r *Receiver) deliver(res session.Result) {
	select {
	case r.results <- res:
	default:
	}
}

func (r *Receiver) callback(c echo.Context) error {
	res := r.handler.Handle(c.Request().Context(), c.QueryParams())
	if res.Outcome == session.OutcomeIgnored {
		return c.HTML(http.StatusConflict, page("This login has already been handled. You can close this window."))
	}
	r.deliver(res)

	switch res.Outcome {
	case session.OutcomeLoggedIn:
		return c.HTML(http.StatusOK, page("You are logged in. You can close this window and return to the terminal."))
	case session.OutcomeFailed:
		return c.HTML(http.StatusOK, page("Login failed: "+res.Message))
	default:
		return c.HTML(http.StatusOK, page("No login information was received."))
	}
}

func page(message string) string {
	return "<!doctype html><html><head><title>presetctl</title></head><body><p>" +
		templ.EscapeString(message) + "</p></body></html>"
}

// Wait blocks until the redirect arrived or ctx is done.
func (r *Receiver) Wait(ctx context.Context) (session.Result, error) {
	select {
	case res := <-r.results:
		return res, nil
	case <-ctx.Done():
		return session.Result{}, ctx.Err()
	}
}

// Close stops the server.
func (r *Receiver) Close(ctx context.Context) error {
	return r.srv.Shutdown(ctx)
}
