package backend_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"cupspdf/internal/backend"
	"cupspdf/internal/config"
	"cupspdf/internal/identity"
	"cupspdf/internal/journal"
	"cupspdf/internal/logging"
	"cupspdf/internal/testsupport"
)

type harness struct {
	cfg     *config.Config
	user    identity.Identity
	stderr  *bytes.Buffer
	stdout  *bytes.Buffer
	backend *backend.Backend
}

func newHarness(t *testing.T, cfg *config.Config, opts ...backend.Option) *harness {
	t.Helper()
	user := testsupport.NewUser(t, "alice")
	var stderr, stdout bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: logging.FormatCUPS, Writer: &stderr})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	opts = append([]backend.Option{backend.WithEnv(func(string) string { return "" })}, opts...)
	return &harness{
		cfg:     cfg,
		user:    user,
		stderr:  &stderr,
		stdout:  &stdout,
		backend: backend.New(cfg, testsupport.Resolver(user), logger, opts...),
	}
}

func (h *harness) run(args []string, stdin []byte) error {
	return h.backend.Execute(context.Background(), args, bytes.NewReader(stdin), h.stdout)
}

func (h *harness) dest(name string) string {
	return filepath.Join(h.user.Home, "Documents", name)
}

func TestExecuteAnnounce(t *testing.T) {
	h := newHarness(t, testsupport.NewConfig(t))
	if err := h.run(nil, nil); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	want := "file cups-pdf:/ \"Otto's Print to PDF\" \"Otto's Print to PDF\" \"MFG:Otto;CMD:PDF;\"\n"
	if h.stdout.String() != want {
		t.Fatalf("unexpected announcement: %q", h.stdout.String())
	}
	if h.stderr.Len() != 0 {
		t.Fatalf("expected no diagnostics, got %q", h.stderr.String())
	}
	if _, err := os.Stat(filepath.Join(h.user.Home, "Documents")); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("announcement must not touch the filesystem")
	}
}

func TestExecuteDeliversFileArgument(t *testing.T) {
	for _, atomic := range []bool{true, false} {
		t.Run(map[bool]string{true: "atomic", false: "in-place"}[atomic], func(t *testing.T) {
			old := syscall.Umask(0o077)
			t.Cleanup(func() { syscall.Umask(old) })

			h := newHarness(t, testsupport.NewConfig(t, testsupport.WithAtomic(atomic)))
			payload := testsupport.PDFBytes(100_000)
			input := filepath.Join(t.TempDir(), "in.pdf")
			testsupport.WriteFile(t, input, payload)

			if err := h.run([]string{"42", "alice", "Invoice", "1", "", input}, nil); err != nil {
				t.Fatalf("Execute returned error: %v (stderr %q)", err, h.stderr.String())
			}

			got, err := os.ReadFile(h.dest("Invoice.pdf"))
			if err != nil {
				t.Fatalf("read destination: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Fatal("destination content differs from input")
			}
			info, err := os.Stat(h.dest("Invoice.pdf"))
			if err != nil {
				t.Fatalf("stat destination: %v", err)
			}
			if info.Mode().Perm() != 0o644 {
				t.Fatalf("expected mode 0644, got %o", info.Mode().Perm())
			}
			st := info.Sys().(*syscall.Stat_t)
			if int(st.Uid) != h.user.UID || int(st.Gid) != h.user.GID {
				t.Fatalf("unexpected owner %d:%d", st.Uid, st.Gid)
			}
			dirInfo, err := os.Stat(filepath.Dir(h.dest("Invoice.pdf")))
			if err != nil {
				t.Fatalf("stat Documents: %v", err)
			}
			if dirInfo.Mode().Perm() != 0o755 {
				t.Fatalf("expected Documents mode 0755, got %o", dirInfo.Mode().Perm())
			}
			if !strings.Contains(h.stderr.String(), "INFO: job saved") {
				t.Fatalf("expected delivery log line, got %q", h.stderr.String())
			}
		})
	}
}

func TestExecuteReadsStdinWhenNoFileGiven(t *testing.T) {
	h := newHarness(t, testsupport.NewConfig(t))
	payload := testsupport.PDFBytes(2048)

	if err := h.run([]string{"7", "alice", "From stdin", "1", "media=A4"}, payload); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	got, err := os.ReadFile(h.dest("From stdin.pdf"))
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("destination content differs from stdin")
	}
}

func TestExecuteOverwritesOnRepeat(t *testing.T) {
	h := newHarness(t, testsupport.NewConfig(t))
	first := testsupport.PDFBytes(5000)
	second := testsupport.PDFBytes(100)

	for _, payload := range [][]byte{first, second, second} {
		if err := h.run([]string{"1", "alice", "Same", "1", ""}, payload); err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
	}
	got, err := os.ReadFile(h.dest("Same.pdf"))
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if !bytes.Equal(got, second) {
		t.Fatalf("expected last write to win, got %d bytes", len(got))
	}
	entries, err := os.ReadDir(filepath.Dir(h.dest("Same.pdf")))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected a single artifact, found %d entries", len(entries))
	}
}

func TestExecuteWrongArgumentCount(t *testing.T) {
	for _, args := range [][]string{{"1"}, {"1", "alice"}, {"1", "alice", "t", "1"}, {"1", "alice", "t", "1", "", "f", "x"}} {
		h := newHarness(t, testsupport.NewConfig(t))
		err := h.run(args, nil)
		if !errors.Is(err, backend.ErrInvalidArguments) {
			t.Fatalf("%d args: expected ErrInvalidArguments, got %v", len(args), err)
		}
		if backend.StatusFor(err) != backend.StatusFailed {
			t.Fatalf("%d args: expected failed status", len(args))
		}
		if !strings.HasPrefix(h.stderr.String(), "ERROR: wrong number of arguments") {
			t.Fatalf("%d args: unexpected diagnostic %q", len(args), h.stderr.String())
		}
		if strings.Count(h.stderr.String(), "\n") != 1 {
			t.Fatalf("%d args: expected one diagnostic line, got %q", len(args), h.stderr.String())
		}
	}
}

func TestExecuteUnknownUserWritesNothing(t *testing.T) {
	h := newHarness(t, testsupport.NewConfig(t))
	err := h.run([]string{"3", "mallory", "Secret", "1", ""}, testsupport.PDFBytes(64))
	if !errors.Is(err, backend.ErrUserResolution) || !errors.Is(err, identity.ErrUnknownUser) {
		t.Fatalf("expected user resolution error, got %v", err)
	}
	if !strings.HasPrefix(h.stderr.String(), "ERROR: unable to get user info") {
		t.Fatalf("unexpected diagnostic: %q", h.stderr.String())
	}
	if _, statErr := os.Stat(filepath.Join(h.user.Home, "Documents")); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("expected nothing to be created for an unknown user")
	}
}

func TestExecuteMissingInputFile(t *testing.T) {
	h := newHarness(t, testsupport.NewConfig(t))
	err := h.run([]string{"3", "alice", "Gone", "1", "", filepath.Join(t.TempDir(), "missing")}, nil)
	if !errors.Is(err, backend.ErrInputOpen) {
		t.Fatalf("expected ErrInputOpen, got %v", err)
	}
	if _, statErr := os.Stat(h.dest("Gone.pdf")); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("expected no destination for a missing input")
	}
}

func TestExecuteLeavesExistingDirectoryAlone(t *testing.T) {
	h := newHarness(t, testsupport.NewConfig(t))
	docs := filepath.Join(h.user.Home, "Documents")
	if err := os.Mkdir(docs, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := h.run([]string{"5", "alice", "Existing", "1", ""}, testsupport.PDFBytes(10)); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	info, err := os.Stat(docs)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o700 {
		t.Fatalf("existing directory mode changed to %o", info.Mode().Perm())
	}
}

func TestExecuteOutputOpenFailureWhenDirectoryBlocked(t *testing.T) {
	h := newHarness(t, testsupport.NewConfig(t))
	testsupport.WriteFile(t, filepath.Join(h.user.Home, "Documents"), []byte("not a directory"))

	err := h.run([]string{"5", "alice", "Blocked", "1", ""}, testsupport.PDFBytes(10))
	if !errors.Is(err, backend.ErrOutputOpen) {
		t.Fatalf("expected ErrOutputOpen, got %v", err)
	}
	if !strings.Contains(h.stderr.String(), "WARNING: output directory not ensured") {
		t.Fatalf("expected directory warning, got %q", h.stderr.String())
	}
	if !strings.Contains(h.stderr.String(), "ERROR: unable to open output") {
		t.Fatalf("expected output diagnostic, got %q", h.stderr.String())
	}
}

func TestExecuteSanitizesTraversalTitles(t *testing.T) {
	h := newHarness(t, testsupport.NewConfig(t))
	if err := h.run([]string{"9", "alice", "../../escape", "1", ""}, testsupport.PDFBytes(10)); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if _, err := os.Stat(h.dest("_.._escape.pdf")); err != nil {
		t.Fatalf("expected sanitized destination: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(h.user.Home), "escape.pdf")); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("title escaped the Documents directory")
	}
}

func TestExecutePreservePolicyUsesRawTitle(t *testing.T) {
	h := newHarness(t, testsupport.NewConfig(t, testsupport.WithTitlePolicy(config.TitlePolicyPreserve)))
	if err := os.MkdirAll(h.dest("sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := h.run([]string{"9", "alice", "sub/Nested", "1", ""}, testsupport.PDFBytes(10)); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if _, err := os.Stat(h.dest(filepath.Join("sub", "Nested.pdf"))); err != nil {
		t.Fatalf("expected raw title path: %v", err)
	}
}

func TestExecuteInspectModes(t *testing.T) {
	notPDF := []byte("plain text job")

	t.Run("warn", func(t *testing.T) {
		h := newHarness(t, testsupport.NewConfig(t))
		if err := h.run([]string{"1", "alice", "Text", "1", ""}, notPDF); err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		if !strings.Contains(h.stderr.String(), "WARNING: input does not look like a PDF") {
			t.Fatalf("expected warning, got %q", h.stderr.String())
		}
		got, _ := os.ReadFile(h.dest("Text.pdf"))
		if !bytes.Equal(got, notPDF) {
			t.Fatal("expected input to be saved verbatim after sniffing")
		}
	})

	t.Run("reject", func(t *testing.T) {
		h := newHarness(t, testsupport.NewConfig(t, testsupport.WithInspectMode(config.InspectReject)))
		err := h.run([]string{"1", "alice", "Text", "1", ""}, notPDF)
		if !errors.Is(err, backend.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if _, statErr := os.Stat(h.dest("Text.pdf")); !errors.Is(statErr, os.ErrNotExist) {
			t.Fatal("expected rejected input not to be saved")
		}
	})

	t.Run("off", func(t *testing.T) {
		h := newHarness(t, testsupport.NewConfig(t, testsupport.WithInspectMode(config.InspectOff)))
		if err := h.run([]string{"1", "alice", "Text", "1", ""}, notPDF); err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		if strings.Contains(h.stderr.String(), "WARNING") {
			t.Fatalf("expected no warning, got %q", h.stderr.String())
		}
	})
}

func TestExecuteRecordsJournal(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithJournal())
	store := testsupport.MustOpenJournal(t, cfg)
	clock := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	ids := []string{"inv-ok", "inv-bad"}
	h := newHarness(t, cfg,
		backend.WithRecorder(store),
		backend.WithClock(func() time.Time { return clock }),
		backend.WithInvocationIDs(func() string { id := ids[0]; ids = ids[1:]; return id }),
	)

	if err := h.run([]string{"42", "alice", "Invoice", "1", ""}, testsupport.PDFBytes(300)); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if err := h.run([]string{"43", "nobody", "Invoice", "1", ""}, testsupport.PDFBytes(300)); err == nil {
		t.Fatal("expected failure for unknown user")
	}

	entries, err := store.Recent(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected two journal entries, got %d", len(entries))
	}
	failed, delivered := entries[0], entries[1]
	if delivered.InvocationID != "inv-ok" || delivered.Status != journal.StatusDelivered || delivered.Bytes != 300 ||
		delivered.Path != h.dest("Invoice.pdf") || !delivered.LooksPDF || len(delivered.SHA256) != 64 {
		t.Fatalf("unexpected delivered entry: %+v", delivered)
	}
	if !delivered.FinishedAt.Equal(clock) {
		t.Fatalf("unexpected timestamp: %v", delivered.FinishedAt)
	}
	if failed.InvocationID != "inv-bad" || failed.Status != journal.StatusFailed || failed.ErrorKind != "user-resolution" {
		t.Fatalf("unexpected failed entry: %+v", failed)
	}
	if !strings.Contains(h.stderr.String(), "invocation_id=inv-ok") {
		t.Fatalf("expected invocation id in logs, got %q", h.stderr.String())
	}
}

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, journal.Entry) (int64, error) {
	return 0, errors.New("disk full")
}

func TestJournalFailureDoesNotFailJob(t *testing.T) {
	h := newHarness(t, testsupport.NewConfig(t), backend.WithRecorder(failingRecorder{}))
	if err := h.run([]string{"1", "alice", "Doc", "1", ""}, testsupport.PDFBytes(10)); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !strings.Contains(h.stderr.String(), "WARNING: journal write failed") {
		t.Fatalf("expected journal warning, got %q", h.stderr.String())
	}
}

func TestDeliverWithoutLocking(t *testing.T) {
	h := newHarness(t, testsupport.NewConfig(t, testsupport.WithoutLocking()))
	res, err := h.backend.Deliver(context.Background(),
		backend.Invocation{JobID: 1, User: "alice", Title: "Plain"}, bytes.NewReader(testsupport.PDFBytes(10)))
	if err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if res.Path != h.dest("Plain.pdf") || res.Bytes != int64(len(testsupport.PDFBytes(10))) {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.InvocationID == "" {
		t.Fatal("expected an invocation id")
	}
}

func TestDeliverWaitsForLockUntilCanceled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	h := newHarness(t, cfg)
	dest := h.dest("Busy.pdf")

	held, err := acquire(cfg.Lock.Dir, dest)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer held()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = h.backend.Deliver(ctx, backend.Invocation{JobID: 1, User: "alice", Title: "Busy"}, bytes.NewReader(testsupport.PDFBytes(10)))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline while waiting for lock, got %v", err)
	}
	if _, statErr := os.Stat(dest); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("expected no destination while lock held")
	}
}
