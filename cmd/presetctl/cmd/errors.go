package cmd

import (
	"errors"
	"fmt"

	"github.com/nfrund/presetmarket/internal/backend"
	"github.com/nfrund/presetmarket/internal/domain"
	"github.com/nfrund/presetmarket/internal/upload"
)

var errNotLoggedIn = fmt.Errorf("%w: run \"presetctl login\" first", domain.ErrLoginRequired)

// describe turns a command error into the line printed on stderr.
func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrLoginRequired):
		return "not logged in, run \"presetctl login\" first"
	case backend.IsAuthError(err):
		return "the backend rejected the session, run \"presetctl login\" again"
	case errors.Is(err, domain.ErrNotFound):
		return "preset or comment not found"
	case errors.Is(err, domain.ErrTransport):
		return "the backend is unreachable: " + err.Error()
	case errors.Is(err, domain.ErrNoChanges):
		return "nothing to change, pass --name, --description, --public or --private"
	case errors.Is(err, domain.ErrNotOwner),
		errors.Is(err, domain.ErrEmptyComment),
		errors.Is(err, domain.ErrInvalidSort):
		return err.Error()
	case errors.Is(err, domain.ErrNameRequired),
		errors.Is(err, domain.ErrLayoutRequired),
		errors.Is(err, domain.ErrInvalidPresetFile),
		errors.Is(err, domain.ErrUnparsableFile):
		return upload.Message(err)
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}
