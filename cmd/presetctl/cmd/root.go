package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nfrund/presetmarket/internal/backend"
	"github.com/nfrund/presetmarket/internal/config"
	"github.com/nfrund/presetmarket/internal/logging"
	"github.com/nfrund/presetmarket/internal/session"
)

// app is the state shared by all commands of one invocation.
type app struct {
	fs afero.Fs

	backendURL   string
	tokenFile    string
	callbackAddr string
	timeout      time.Duration
	verbose      bool

	cfg    *config.Config
	logger *slog.Logger
	client *backend.Client
	tokens *session.FileStorage
	store  *session.Store
}

// NewRootCmd builds the command tree. fs holds the token file and the
// files read and written by upload and download.
func NewRootCmd(fs afero.Fs) *cobra.Command {
	a := &app{fs: fs}

	root := &cobra.Command{
		Use:   "presetctl",
		Short: "Browse and share layout presets from the terminal",
		Long: `presetctl is a command-line client for the preset marketplace.

It shares its backend with the web frontend: log in once with GitHub and
browse, like, comment on, download and upload presets.

Use "presetctl [command] --help" for more information about a command.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.backendURL, "backend-url", "", "backend API base URL (default $BACKEND_URL or http://localhost:8000/api)")
	pf.StringVar(&a.tokenFile, "token-file", "", "where the session token is kept (default $TOKEN_FILE)")
	pf.StringVar(&a.callbackAddr, "callback-addr", "", "local address for the login callback (default $CALLBACK_ADDR)")
	pf.DurationVar(&a.timeout, "timeout", 0, "backend request timeout (default $REQUEST_TIMEOUT or 15s)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newListCmd(a),
		newBrowseCmd(a),
		newShowCmd(a),
		newLikeCmd(a),
		newCommentCmd(a),
		newDeleteCommentCmd(a),
		newDownloadCmd(a),
		newUploadCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newMineCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration, applies flag overrides and restores the stored
// session. A stored token the backend rejects is dropped silently.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.backendURL != "" {
		cfg.BackendURL = a.backendURL
		cfg.BackendPublicURL = a.backendURL
	}
	if a.tokenFile != "" {
		cfg.TokenFile = a.tokenFile
	}
	if a.callbackAddr != "" {
		cfg.CallbackAddr = a.callbackAddr
	}
	if a.timeout > 0 {
		cfg.RequestTimeout = a.timeout
	}
	a.cfg = cfg

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	a.logger = logging.NewWithWriter(cmd.ErrOrStderr(), "text", level)

	a.client, err = backend.New(cfg.BackendURL,
		backend.WithTimeout(cfg.RequestTimeout),
		backend.WithPublicURL(cfg.BackendPublicURL),
		backend.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}
	a.tokens = session.NewFileStorage(a.fs, cfg.TokenFile)
	a.store = session.NewStore(a.tokens, backend.NewAuthenticator(a.client), a.client.LoginURL(),
		session.WithLogger(a.logger))
	return a.store.Restore(cmd.Context())
}

// requireLogin fails early for commands that need a session.
func (a *app) requireLogin() error {
	if !a.store.IsAuthenticated() {
		return errNotLoggedIn
	}
	return nil
}

// Execute runs presetctl and exits non-zero on failure.
func Execute() {
	root := NewRootCmd(afero.NewOsFs())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(1)
	}
}
