// Package logging assembles structured slog loggers for the cups-pdf backend.
//
// cupsd reads a backend's stderr line by line and interprets the leading
// "ERROR:", "WARNING:", "INFO:" and "DEBUG:" prefixes, so the default handler
// renders each record as one prefixed line. Console and JSON handlers remain
// available for manual runs and for the optional log file, and context
// helpers tag every line with the invocation, job, and user being processed.
package logging
