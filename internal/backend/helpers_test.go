package backend_test

import (
	"context"

	"cupspdf/internal/spoollock"
)

func acquire(dir, dest string) (func(), error) {
	l, err := spoollock.Acquire(context.Background(), dir, dest)
	if err != nil {
		return nil, err
	}
	return func() { _ = l.Release() }, nil
}
