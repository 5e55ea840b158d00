// Package journal records backend deliveries in a SQLite database.
//
// Each job-processing invocation appends one row describing what was
// delivered where, or why it failed. The journal is optional and purely
// informational: the backend never lets a journal error change a job's exit
// status. Uses the pure-Go modernc.org/sqlite driver so the backend binary
// stays cgo-free.
package journal
