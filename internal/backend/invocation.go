package backend

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode selects what an invocation asks the backend to do.
type Mode int

const (
	// ModeAnnounce lists the device for cupsd's discovery pass.
	ModeAnnounce Mode = iota
	// ModeJob delivers one print job.
	ModeJob
)

// Invocation holds the positional job arguments passed by cupsd.
type Invocation struct {
	JobID int
	User  string
	Title string
	// Copies and Options are passed through untouched.
	Copies  string
	Options string
	// InputPath is empty when the job arrives on stdin.
	InputPath string
}

// ParseArgs interprets the program arguments (without argv[0]).
func ParseArgs(args []string) (Mode, Invocation, error) {
	switch len(args) {
	case 0:
		return ModeAnnounce, Invocation{}, nil
	case 5, 6:
	default:
		return ModeJob, Invocation{}, Wrap(ErrInvalidArguments,
			fmt.Sprintf("got %d, want 0, 5 or 6 (job-id user title copies options [file])", len(args)), nil)
	}

	jobID, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return ModeJob, Invocation{}, Wrap(ErrInvalidArguments, fmt.Sprintf("job id %q is not a number", args[0]), nil)
	}

	inv := Invocation{
		JobID:   jobID,
		User:    args[1],
		Title:   args[2],
		Copies:  args[3],
		Options: args[4],
	}
	if len(args) == 6 {
		inv.InputPath = args[5]
	}
	return ModeJob, inv, nil
}

// FromStdin reports whether the job data is read from standard input.
func (inv Invocation) FromStdin() bool {
	return inv.InputPath == ""
}
