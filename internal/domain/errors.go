package domain

import "errors"

// Sentinel errors for the domain layer. These provide consistent, checkable
// errors for the failure classes the views react to.
var (
	// ErrTransport wraps network failures talking to the backend.
	ErrTransport = errors.New("backend unreachable")
	// ErrUnauthorized is returned when the backend rejects the bearer token.
	ErrUnauthorized = errors.New("not authorized")
	// ErrNotFound is returned when the requested preset or comment does not exist.
	ErrNotFound = errors.New("requested resource not found")
	// ErrValidation is returned when the backend rejects a request body.
	ErrValidation = errors.New("request rejected by backend validation")

	// ErrLoginRequired is returned locally, before any request is made, when an
	// action needs an authenticated session and there is none.
	ErrLoginRequired = errors.New("please log in first")
	// ErrNotOwner is returned when a non-owner tries to change or delete a preset.
	ErrNotOwner = errors.New("only the author can change this preset")
	// ErrNoChanges is returned for a preset update that sets no field.
	ErrNoChanges = errors.New("nothing to change")
	// ErrInvalidSort is returned for a sort key outside latest/popular/likes.
	ErrInvalidSort = errors.New("unknown sort key")
	// ErrEmptyComment is returned for a blank comment.
	ErrEmptyComment = errors.New("comment cannot be empty")

	ErrNameRequired      = errors.New("preset name cannot be empty")
	ErrLayoutRequired    = errors.New("please upload a preset file")
	ErrInvalidPresetFile = errors.New("invalid preset file format: missing layout")
	ErrUnparsableFile    = errors.New("failed to parse file, make sure it is valid JSON")
)
