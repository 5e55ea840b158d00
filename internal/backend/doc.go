// Package backend implements the cups-pdf CUPS backend.
//
// cupsd runs a backend once with no arguments to discover the devices it
// offers, and once per job with the job id, user, title, copies, options and
// an optional input file. Execute dispatches between the two modes: Announce
// prints the device line, Deliver resolves the requesting user, writes the
// job's bytes into that user's Documents folder and hands the file over to
// them.
//
// Every failure is a wrapped sentinel error (see ErrInvalidArguments and
// friends). The command layer maps errors onto CUPS exit codes with
// StatusFor; nothing in this package exits the process.
package backend
