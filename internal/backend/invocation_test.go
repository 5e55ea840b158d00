package backend_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cupspdf/internal/backend"
)

func TestParseArgs(t *testing.T) {
	cases := []struct {
		name     string
		args     []string
		wantMode backend.Mode
		want     backend.Invocation
		wantErr  error
	}{
		{name: "announce", args: nil, wantMode: backend.ModeAnnounce},
		{
			name:     "stdin job",
			args:     []string{"42", "alice", "Invoice", "1", ""},
			wantMode: backend.ModeJob,
			want:     backend.Invocation{JobID: 42, User: "alice", Title: "Invoice", Copies: "1"},
		},
		{
			name:     "file job",
			args:     []string{"7", "bob", "Report", "2", "media=A4", "/var/spool/cups/d00007-001"},
			wantMode: backend.ModeJob,
			want: backend.Invocation{JobID: 7, User: "bob", Title: "Report", Copies: "2", Options: "media=A4",
				InputPath: "/var/spool/cups/d00007-001"},
		},
		{name: "one arg", args: []string{"42"}, wantMode: backend.ModeJob, wantErr: backend.ErrInvalidArguments},
		{name: "four args", args: []string{"42", "alice", "t", "1"}, wantMode: backend.ModeJob, wantErr: backend.ErrInvalidArguments},
		{name: "seven args", args: []string{"1", "a", "t", "1", "", "f", "extra"}, wantMode: backend.ModeJob, wantErr: backend.ErrInvalidArguments},
		{name: "non-numeric job", args: []string{"abc", "alice", "t", "1", ""}, wantMode: backend.ModeJob, wantErr: backend.ErrInvalidArguments},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mode, inv, err := backend.ParseArgs(tc.args)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseArgs returned error: %v", err)
			}
			if mode != tc.wantMode {
				t.Fatalf("unexpected mode: %v", mode)
			}
			if diff := cmp.Diff(tc.want, inv); diff != "" {
				t.Fatalf("invocation mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInvocationFromStdin(t *testing.T) {
	if !(backend.Invocation{}).FromStdin() {
		t.Fatal("expected empty input path to mean stdin")
	}
	if (backend.Invocation{InputPath: "/tmp/in.pdf"}).FromStdin() {
		t.Fatal("expected explicit input path to bypass stdin")
	}
}

func TestKindAndStatus(t *testing.T) {
	err := backend.Wrap(backend.ErrUserResolution, "alice", errors.New("boom"))
	if backend.Kind(err) != "user-resolution" {
		t.Fatalf("unexpected kind: %q", backend.Kind(err))
	}
	if err.Error() != "unable to get user info: alice: boom" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if backend.Kind(errors.New("other")) != "unknown" || backend.Kind(nil) != "" {
		t.Fatal("unexpected kind for unclassified errors")
	}
	if backend.StatusFor(nil) != backend.StatusOK || backend.StatusFor(err) != backend.StatusFailed {
		t.Fatal("unexpected status mapping")
	}
	if backend.StatusFailed.String() != "CUPS_BACKEND_FAILED" {
		t.Fatalf("unexpected status name: %s", backend.StatusFailed)
	}
}
