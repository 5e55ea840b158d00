package backend

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidArguments = errors.New("wrong number of arguments")
	ErrUserResolution   = errors.New("unable to get user info")
	ErrInputOpen        = errors.New("unable to open input")
	ErrInvalidInput     = errors.New("input is not a PDF document")
	ErrOutputOpen       = errors.New("unable to open output")
	ErrWrite            = errors.New("unable to write output")
	ErrPermissions      = errors.New("unable to set output ownership")
)

var errorKinds = []struct {
	marker error
	kind   string
}{
	{ErrInvalidArguments, "invalid-arguments"},
	{ErrUserResolution, "user-resolution"},
	{ErrInputOpen, "input-open"},
	{ErrInvalidInput, "invalid-input"},
	{ErrOutputOpen, "output-open"},
	{ErrWrite, "write"},
	{ErrPermissions, "permissions"},
}

// Wrap tags err with marker and an operation description so callers can
// classify it with errors.Is while keeping the cause in the message.
func Wrap(marker error, operation string, err error) error {
	operation = strings.TrimSpace(operation)
	switch {
	case err != nil && operation != "":
		return fmt.Errorf("%w: %s: %w", marker, operation, err)
	case err != nil:
		return fmt.Errorf("%w: %w", marker, err)
	case operation != "":
		return fmt.Errorf("%w: %s", marker, operation)
	default:
		return marker
	}
}

// Kind returns a stable short name for the taxonomy member err belongs to,
// or "unknown".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, entry := range errorKinds {
		if errors.Is(err, entry.marker) {
			return entry.kind
		}
	}
	return "unknown"
}
