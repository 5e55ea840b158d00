package spoollock_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cupspdf/internal/spoollock"
)

func TestPathForIsStablePerDestination(t *testing.T) {
	dir := "/var/spool/cups-pdf/locks"
	a := spoollock.PathFor(dir, "/home/alice/Documents/Invoice.pdf")
	b := spoollock.PathFor(dir, "/home/alice/Documents/./Invoice.pdf")
	c := spoollock.PathFor(dir, "/home/alice/Documents/Receipt.pdf")
	if a != b {
		t.Fatalf("expected equivalent paths to share a lock: %s vs %s", a, b)
	}
	if a == c {
		t.Fatal("expected distinct destinations to use distinct locks")
	}
	if filepath.Dir(a) != dir {
		t.Fatalf("lock outside lock dir: %s", a)
	}
}

func TestAcquireSerializesSameDestination(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "locks")
	dest := "/home/alice/Documents/Invoice.pdf"

	first, err := spoollock.Acquire(context.Background(), dir, dest)
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if _, err := spoollock.Acquire(ctx, dir, dest); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected second acquire to time out, got %v", err)
	}

	other, err := spoollock.Acquire(context.Background(), dir, "/home/alice/Documents/Other.pdf")
	if err != nil {
		t.Fatalf("expected unrelated destination to lock, got %v", err)
	}
	if err := other.Release(); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}
	again, err := spoollock.Acquire(context.Background(), dir, dest)
	if err != nil {
		t.Fatalf("expected lock after release, got %v", err)
	}
	_ = again.Release()
}

func TestReleaseNil(t *testing.T) {
	var l *spoollock.Lock
	if err := l.Release(); err != nil {
		t.Fatalf("expected nil release to succeed, got %v", err)
	}
}
