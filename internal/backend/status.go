package backend

// ExitStatus is a CUPS backend exit code.
type ExitStatus int

// Exit codes from <cups/backend.h>. Only OK and FAILED are produced; FAILED
// lets cupsd apply the queue's error policy.
const (
	StatusOK     ExitStatus = 0
	StatusFailed ExitStatus = 1
)

// StatusFor maps the result of Execute onto an exit code.
func StatusFor(err error) ExitStatus {
	if err != nil {
		return StatusFailed
	}
	return StatusOK
}

func (s ExitStatus) String() string {
	switch s {
	case StatusOK:
		return "CUPS_BACKEND_OK"
	case StatusFailed:
		return "CUPS_BACKEND_FAILED"
	default:
		return "CUPS_BACKEND_UNKNOWN"
	}
}
