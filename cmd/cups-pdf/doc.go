// Package main is the cups-pdf backend executable.
//
// cupsd runs it once per discovery pass with no arguments and once per job
// with the positional contract job-id user title copies options [file]. The
// command loads configuration, builds the logger, and hands the arguments to
// internal/backend. Errors surface only as the process exit status plus the
// diagnostic lines already written to stderr.
package main
