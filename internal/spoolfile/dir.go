package spoolfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Owner is the numeric user and group a created path is handed to.
type Owner struct {
	UID int
	GID int
}

// EnsureDir creates base/sub one component at a time, handing every
// directory it creates to owner with perm. Existing components are left
// untouched. It returns the joined directory path even on error so callers
// that tolerate failure can carry on.
func EnsureDir(base, sub string, perm os.FileMode, owner Owner) (string, error) {
	target := filepath.Join(base, sub)
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return target, fmt.Errorf("directory %q escapes %q", sub, base)
	}
	if rel == "." {
		return target, nil
	}

	current := base
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		err := os.Mkdir(current, perm)
		switch {
		case err == nil:
			if err := handOver(current, perm, owner); err != nil {
				return target, err
			}
		case errors.Is(err, fs.ErrExist):
			info, statErr := os.Stat(current)
			if statErr != nil {
				return target, fmt.Errorf("stat %s: %w", current, statErr)
			}
			if !info.IsDir() {
				return target, fmt.Errorf("%s exists and is not a directory", current)
			}
		default:
			return target, fmt.Errorf("create directory %s: %w", current, err)
		}
	}
	return target, nil
}

// handOver sets ownership and mode on a directory this process just created.
// The directory is opened without following symlinks so a swapped-in link
// cannot redirect the chown.
func handOver(dir string, perm os.FileMode, owner Owner) error {
	f, err := os.OpenFile(dir, os.O_RDONLY|unix.O_NOFOLLOW|unix.O_DIRECTORY, 0)
	if err != nil {
		return fmt.Errorf("open created directory %s: %w", dir, err)
	}
	defer f.Close()
	if err := f.Chown(owner.UID, owner.GID); err != nil {
		return fmt.Errorf("chown %s: %w", dir, err)
	}
	if err := f.Chmod(perm); err != nil {
		return fmt.Errorf("chmod %s: %w", dir, err)
	}
	return nil
}
