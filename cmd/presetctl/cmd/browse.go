package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nfrund/presetmarket/cmd/presetctl/internal/output"
	"github.com/nfrund/presetmarket/internal/catalog"
	"github.com/nfrund/presetmarket/internal/domain"
	"github.com/nfrund/presetmarket/internal/session"
)

const browseHelp = `Commands:
  n, next           next page
  p, prev           previous page
  g N               go to page N
  s TERM            search (empty TERM clears the search)
  o latest|popular|likes
                    change the order
  l ID              like or unlike a preset
  r, refresh        reload the page
  h, help           show this help
  q, quit           leave`

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Page through the catalog interactively",
		Long: `Page through the catalog interactively.

` + browseHelp + `

The session follows logins and logouts made by other presetctl processes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			out := cmd.OutOrStdout()
			a.watchSession(ctx, out)

			b := catalog.NewBrowser(a.client, a.store, a.logger)
			defer b.Close()
			if err := b.Refresh(ctx); err != nil {
				fmt.Fprintln(out, "Error:", describe(err))
			} else {
				printView(out, b.View())
			}
			return browseLoop(ctx, b, cmd.InOrStdin(), out)
		},
	}
}

// watchSession re-restores the session whenever another process changes
// the token file. Only the real filesystem can be watched.
func (a *app) watchSession(ctx context.Context, out io.Writer) {
	if _, ok := a.fs.(*afero.OsFs); !ok {
		return
	}
	if err := a.fs.MkdirAll(filepath.Dir(a.tokens.Path()), 0o700); err != nil {
		a.logger.Debug("Cannot watch token file", "error", err)
		return
	}
	unsubscribe := a.store.Subscribe(func(_ context.Context, ev session.Event) {
		switch ev.Reason {
		case session.ReasonAuthenticated:
			fmt.Fprintf(out, "\n[session] logged in as %s\n", ev.State.Profile.Username)
		case session.ReasonLoggedOut, session.ReasonInvalidated:
			fmt.Fprintln(out, "\n[session] logged out")
		}
	})
	go func() {
		<-ctx.Done()
		unsubscribe()
	}()

	err := a.tokens.Watch(ctx, func() {
		token, err := a.tokens.Load(ctx)
		if err != nil || token == "" {
			if a.store.Token() != "" {
				_ = a.store.Logout(ctx)
			}
			return
		}
		if token != a.store.Token() {
			if err := a.store.Restore(ctx); err != nil {
				a.logger.Warn("Failed to restore session", "error", err)
			}
		}
	})
	if err != nil {
		a.logger.Debug("Cannot watch token file", "error", err)
	}
}

func printView(out io.Writer, v catalog.View) {
	output.Presets(out, v.Items, v.Query, v.Total)
}

// browseLoop reads commands until quit or end of input.
func browseLoop(ctx context.Context, b *catalog.Browser, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		command, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		var err error
		show := true
		switch command {
		case "q", "quit", "exit":
			return nil
		case "h", "help", "?":
			fmt.Fprintln(out, browseHelp)
			continue
		case "n", "next":
			err = b.NextPage(ctx)
		case "p", "prev":
			err = b.PrevPage(ctx)
		case "g", "page":
			n, convErr := strconv.Atoi(arg)
			if convErr != nil {
				fmt.Fprintln(out, "usage: g N")
				continue
			}
			err = b.GoToPage(ctx, n)
		case "s", "search":
			err = b.SetSearch(ctx, arg)
		case "o", "sort":
			err = b.SetSort(ctx, arg)
		case "r", "refresh":
			err = b.Refresh(ctx)
		case "l", "like":
			id, convErr := parseID(arg)
			if convErr != nil {
				fmt.Fprintln(out, "usage: l ID")
				continue
			}
			var res domain.LikeResult
			res, err = b.ToggleLike(ctx, id)
			if err == nil {
				fmt.Fprintf(out, "Preset %d: liked=%t, %d likes\n", id, res.Liked, res.LikeCount)
				show = false
			}
		default:
			fmt.Fprintf(out, "unknown command %q, type h for help\n", command)
			continue
		}

		if err != nil && !errors.Is(err, catalog.ErrSuperseded) {
			fmt.Fprintln(out, "Error:", describe(err))
			continue
		}
		if show {
			printView(out, b.View())
		}
	}
}
