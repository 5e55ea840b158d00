package spoolfile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

var (
	// ErrOpen marks failures to create or open the destination.
	ErrOpen = errors.New("open destination")
	// ErrRead marks failures reading the job input.
	ErrRead = errors.New("read input")
	// ErrWrite marks failures writing, syncing, or renaming the destination.
	ErrWrite = errors.New("write destination")
	// ErrPermissions marks failures handing the file to its owner.
	ErrPermissions = errors.New("set ownership")
)

const tempPattern = ".cups-pdf-*.tmp"

// Request describes one delivery.
type Request struct {
	Path   string
	Source io.Reader
	Owner  Owner
	Perm   os.FileMode
	// Atomic stages the bytes in a temp file and renames it over Path.
	Atomic bool
}

// Written summarizes a completed delivery.
type Written struct {
	Path   string
	Bytes  int64
	SHA256 string
}

// Write copies req.Source to req.Path byte for byte. Ownership and mode are
// applied explicitly so the result does not depend on the process umask.
func Write(ctx context.Context, req Request) (Written, error) {
	if req.Source == nil {
		return Written{}, fmt.Errorf("%w: no input", ErrRead)
	}
	if req.Atomic {
		return writeAtomic(ctx, req)
	}
	return writeInPlace(ctx, req)
}

func writeAtomic(ctx context.Context, req Request) (Written, error) {
	dir := filepath.Dir(req.Path)
	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return Written{}, fmt.Errorf("%w: create temp file in %s: %w", ErrOpen, dir, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := applyOwnership(tmp, req); err != nil {
		return Written{}, err
	}
	n, sum, err := copyHashed(ctx, tmp, req.Source)
	if err != nil {
		return Written{}, err
	}
	if err := tmp.Sync(); err != nil {
		return Written{}, fmt.Errorf("%w: sync temp file: %w", ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return Written{}, fmt.Errorf("%w: close temp file: %w", ErrWrite, err)
	}
	if err := os.Rename(tmpName, req.Path); err != nil {
		return Written{}, fmt.Errorf("%w: rename into place: %w", ErrWrite, err)
	}
	committed = true
	return Written{Path: req.Path, Bytes: n, SHA256: sum}, nil
}

func writeInPlace(ctx context.Context, req Request) (Written, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC | unix.O_NOFOLLOW
	out, err := os.OpenFile(req.Path, flags, req.Perm)
	if err != nil {
		return Written{}, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	closed := false
	defer func() {
		if !closed {
			_ = out.Close()
		}
	}()

	n, sum, err := copyHashed(ctx, out, req.Source)
	if err != nil {
		return Written{}, err
	}
	if err := applyOwnership(out, req); err != nil {
		// Never leave a file owned by the scheduler in the user's directory.
		closed = true
		_ = out.Close()
		_ = os.Remove(req.Path)
		return Written{}, err
	}
	if err := out.Sync(); err != nil {
		return Written{}, fmt.Errorf("%w: sync: %w", ErrWrite, err)
	}
	closed = true
	if err := out.Close(); err != nil {
		return Written{}, fmt.Errorf("%w: close: %w", ErrWrite, err)
	}
	return Written{Path: req.Path, Bytes: n, SHA256: sum}, nil
}

func applyOwnership(f *os.File, req Request) error {
	if err := f.Chown(req.Owner.UID, req.Owner.GID); err != nil {
		return fmt.Errorf("%w: chown %d:%d: %w", ErrPermissions, req.Owner.UID, req.Owner.GID, err)
	}
	if err := f.Chmod(req.Perm); err != nil {
		return fmt.Errorf("%w: chmod %o: %w", ErrPermissions, req.Perm, err)
	}
	return nil
}

func copyHashed(ctx context.Context, dst io.Writer, src io.Reader) (int64, string, error) {
	hasher := sha256.New()
	reader := &trackingReader{ctx: ctx, r: src}
	n, err := io.Copy(io.MultiWriter(dst, hasher), reader)
	if err != nil {
		if reader.err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(reader.err, ctxErr) {
				return n, "", fmt.Errorf("%w: %w", ErrRead, ctxErr)
			}
			return n, "", fmt.Errorf("%w: %w", ErrRead, reader.err)
		}
		return n, "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return n, hex.EncodeToString(hasher.Sum(nil)), nil
}

// trackingReader remembers read-side errors so copy failures can be
// attributed to the input or the destination, and stops on cancellation.
type trackingReader struct {
	ctx context.Context
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	if err := t.ctx.Err(); err != nil {
		t.err = err
		return 0, err
	}
	n, err := t.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		t.err = err
	}
	return n, err
}
