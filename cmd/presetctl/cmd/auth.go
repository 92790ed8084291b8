package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/nfrund/presetmarket/cmd/presetctl/internal/loopback"
	"github.com/nfrund/presetmarket/cmd/presetctl/internal/output"
	"github.com/nfrund/presetmarket/internal/session"
)

// openBrowser is replaced in tests.
var openBrowser = browser.OpenURL

func newLoginCmd(a *app) *cobra.Command {
	var (
		noBrowser bool
		wait      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with GitHub",
		Long: `Log in with GitHub.

The login page opens in your browser. After you approve, the backend
redirects to a short-lived local listener (--callback-addr) which stores the
session token in the token file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			receiver, err := loopback.Listen(a.cfg.CallbackAddr, a.store)
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = receiver.Close(ctx)
			}()

			loginURL := a.store.BeginLogin()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Open this address to log in:\n  %s\n", loginURL)
			if !noBrowser {
				if err := openBrowser(loginURL); err != nil {
					a.logger.Debug("Could not open browser", "error", err)
				}
			}
			fmt.Fprintln(out, "Waiting for the login to complete...")

			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()
			res, err := receiver.Wait(ctx)
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("login timed out after %s", wait)
			}
			if err != nil {
				return err
			}

			switch res.Outcome {
			case session.OutcomeLoggedIn:
				output.Profile(out, a.store.Profile())
				return nil
			case session.OutcomeFailed:
				return fmt.Errorf("login failed: %s", res.Message)
			default:
				return errors.New("login did not complete: no token was received")
			}
		},
	}
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "only print the login address")
	cmd.Flags().DurationVar(&wait, "wait", 5*time.Minute, "how long to wait for the browser")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			output.Profile(cmd.OutOrStdout(), a.store.Profile())
			return nil
		},
	}
}
