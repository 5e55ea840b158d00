// Package spoolfile writes delivered print jobs into a user's directory.
//
// Files are streamed from the job input, hashed on the way through, and
// handed to their final owner with fixed permission bits before they become
// visible under the destination name. Atomic mode stages the bytes in a
// hidden temp file beside the destination and renames it into place; in-place
// mode truncates the destination directly and refuses to follow symlinks.
package spoolfile
