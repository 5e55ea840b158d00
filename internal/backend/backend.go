package backend

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"cupspdf/internal/config"
	"cupspdf/internal/identity"
	"cupspdf/internal/journal"
	"cupspdf/internal/logging"
	"cupspdf/internal/spoolfile"
	"cupspdf/internal/spoollock"
)

// Recorder persists delivery outcomes. *journal.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) (int64, error)
}

// Result describes a delivered job.
type Result struct {
	InvocationID string
	Path         string
	Bytes        int64
	SHA256       string
	LooksPDF     bool
	Identity     identity.Identity
}

// Backend delivers print jobs according to a configuration.
type Backend struct {
	cfg      *config.Config
	resolver identity.Resolver
	logger   *slog.Logger
	recorder Recorder
	getenv   func(string) string
	now      func() time.Time
	newID    func() string
}

// Option customizes a Backend.
type Option func(*Backend)

// WithRecorder journals every job-processing attempt.
func WithRecorder(r Recorder) Option {
	return func(b *Backend) { b.recorder = r }
}

// WithEnv overrides environment lookups (CONTENT_TYPE, PRINTER, DEVICE_URI).
func WithEnv(getenv func(string) string) Option {
	return func(b *Backend) { b.getenv = getenv }
}

// WithClock overrides the time source used for journal timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// WithInvocationIDs overrides invocation id generation.
func WithInvocationIDs(newID func() string) Option {
	return func(b *Backend) { b.newID = newID }
}

// New constructs a Backend. A nil logger discards output.
func New(cfg *config.Config, resolver identity.Resolver, logger *slog.Logger, opts ...Option) *Backend {
	if logger == nil {
		logger = logging.NewNop()
	}
	b := &Backend{
		cfg:      cfg,
		resolver: resolver,
		logger:   logger,
		getenv:   os.Getenv,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Execute runs one backend invocation. args excludes the program name. The
// returned error has already been logged.
func (b *Backend) Execute(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	mode, inv, err := ParseArgs(args)
	if err != nil {
		b.logger.Error(err.Error(),
			logging.String(logging.FieldEventType, "invalid_arguments"),
			logging.Int("arg_count", len(args)),
		)
		return err
	}

	if mode == ModeAnnounce {
		if err := Announce(stdout, b.cfg.Device); err != nil {
			b.logger.Warn("device announcement write failed", logging.Error(err))
		}
		return nil
	}

	ctx = logging.WithInvocationID(ctx, b.newID())
	logger := logging.WithContext(ctx, b.logger).With(
		logging.Int(logging.FieldJobID, inv.JobID),
		logging.String(logging.FieldUser, inv.User),
		logging.String(logging.FieldTitle, inv.Title),
	)
	logger.Debug("job received",
		logging.String("content_type", b.getenv("CONTENT_TYPE")),
		logging.String("printer", b.getenv("PRINTER")),
		logging.String("device_uri", b.getenv("DEVICE_URI")),
		logging.Bool("stdin", inv.FromStdin()),
	)

	started := b.now()
	res, err := b.deliver(ctx, logger, inv, stdin)
	b.record(ctx, logger, inv, res, err, started)
	if err != nil {
		logger.Error(err.Error(),
			logging.String(logging.FieldEventType, "job_failed"),
			logging.String("error_kind", Kind(err)),
			logging.String(logging.FieldErrorHint, hintFor(err)),
		)
		return err
	}

	logger.Info("job saved",
		logging.String(logging.FieldEventType, "job_delivered"),
		logging.String(logging.FieldPath, res.Path),
		logging.Int64("bytes", res.Bytes),
		logging.String("sha256", res.SHA256),
	)
	return nil
}

// Deliver processes one job outside of Execute's logging and journaling.
func (b *Backend) Deliver(ctx context.Context, inv Invocation, stdin io.Reader) (Result, error) {
	if _, ok := logging.InvocationIDFromContext(ctx); !ok {
		ctx = logging.WithInvocationID(ctx, b.newID())
	}
	return b.deliver(ctx, logging.WithContext(ctx, b.logger), inv, stdin)
}

func (b *Backend) deliver(ctx context.Context, logger *slog.Logger, inv Invocation, stdin io.Reader) (Result, error) {
	res := Result{}
	res.InvocationID, _ = logging.InvocationIDFromContext(ctx)

	id, err := b.resolver.Lookup(ctx, inv.User)
	if err != nil {
		return res, Wrap(ErrUserResolution, inv.User, err)
	}
	res.Identity = id
	owner := spoolfile.Owner{UID: id.UID, GID: id.GID}
	out := b.cfg.Output

	dir, err := spoolfile.EnsureDir(id.Home, out.Subdir, out.DirPerm(), owner)
	if err != nil {
		// Best effort: an unusable directory surfaces as an output error below.
		logger.Warn("output directory not ensured",
			logging.String(logging.FieldEventType, "output_dir_failed"),
			logging.String(logging.FieldPath, dir),
			logging.Error(err),
		)
	}
	dest := dir + string(filepath.Separator) + FileName(inv.Title, out)
	res.Path = dest

	input, closeInput, err := openInput(inv, stdin)
	if err != nil {
		return res, err
	}
	defer closeInput()

	reader := bufio.NewReader(input)
	if b.cfg.Inspect.Mode != config.InspectOff {
		res.LooksPDF = looksLikePDF(reader)
		if !res.LooksPDF {
			if b.cfg.Inspect.Mode == config.InspectReject {
				return res, Wrap(ErrInvalidInput, "missing %PDF- header", nil)
			}
			logger.Warn("input does not look like a PDF; saving anyway",
				logging.String(logging.FieldEventType, "input_not_pdf"),
			)
		}
	}

	release, err := b.lock(ctx, logger, dest)
	if err != nil {
		return res, err
	}
	defer release()

	written, err := spoolfile.Write(ctx, spoolfile.Request{
		Path:   dest,
		Source: reader,
		Owner:  owner,
		Perm:   out.FilePerm(),
		Atomic: out.Atomic,
	})
	if err != nil {
		return res, classifyWriteError(dest, err)
	}
	res.Bytes = written.Bytes
	res.SHA256 = written.SHA256
	return res, nil
}

func openInput(inv Invocation, stdin io.Reader) (io.Reader, func(), error) {
	if inv.FromStdin() {
		if stdin == nil {
			return nil, nil, Wrap(ErrInputOpen, "standard input unavailable", nil)
		}
		return stdin, func() {}, nil
	}
	f, err := os.Open(inv.InputPath)
	if err != nil {
		return nil, nil, Wrap(ErrInputOpen, inv.InputPath, err)
	}
	return f, func() { _ = f.Close() }, nil
}

// lock serializes deliveries to dest when locking is enabled. Lock problems
// other than cancellation degrade to an unlocked delivery.
func (b *Backend) lock(ctx context.Context, logger *slog.Logger, dest string) (func(), error) {
	if !b.cfg.LockingEnabled() {
		return func() {}, nil
	}
	held, err := spoollock.Acquire(ctx, b.cfg.Lock.Dir, dest)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, Wrap(ErrWrite, "interrupted waiting for destination lock", ctxErr)
		}
		logger.Warn("destination lock unavailable; delivering unlocked",
			logging.String(logging.FieldEventType, "lock_failed"),
			logging.Error(err),
		)
		return func() {}, nil
	}
	return func() {
		if err := held.Release(); err != nil {
			logger.Warn("destination lock release failed", logging.String(logging.FieldPath, held.Path()), logging.Error(err))
		}
	}, nil
}

func classifyWriteError(dest string, err error) error {
	switch {
	case errors.Is(err, spoolfile.ErrOpen):
		return Wrap(ErrOutputOpen, dest, err)
	case errors.Is(err, spoolfile.ErrPermissions):
		return Wrap(ErrPermissions, dest, err)
	default:
		return Wrap(ErrWrite, dest, err)
	}
}

func (b *Backend) record(ctx context.Context, logger *slog.Logger, inv Invocation, res Result, deliverErr error, started time.Time) {
	if b.recorder == nil {
		return
	}
	entry := journal.Entry{
		InvocationID: res.InvocationID,
		JobID:        inv.JobID,
		User:         inv.User,
		Title:        inv.Title,
		Path:         res.Path,
		Bytes:        res.Bytes,
		SHA256:       res.SHA256,
		LooksPDF:     res.LooksPDF,
		Status:       journal.StatusDelivered,
		StartedAt:    started,
		FinishedAt:   b.now(),
	}
	if deliverErr != nil {
		entry.Status = journal.StatusFailed
		entry.ErrorKind = Kind(deliverErr)
		entry.ErrorMessage = deliverErr.Error()
	}
	// Record even when the job was canceled; the journal write is short.
	if _, err := b.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		logger.Warn("journal write failed", logging.String(logging.FieldEventType, "journal_failed"), logging.Error(err))
	}
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, ErrUserResolution):
		return "check that the job's user exists in the system user database"
	case errors.Is(err, ErrInputOpen):
		return "check that cupsd passed a readable spool file"
	case errors.Is(err, ErrInvalidInput):
		return "set inspect.mode to warn or fix the queue's filter chain to produce PDF"
	case errors.Is(err, ErrOutputOpen):
		return "check that the destination directory exists and is not a symlink"
	case errors.Is(err, ErrPermissions):
		return "install the backend with mode 0700 so cupsd runs it as root"
	case errors.Is(err, context.Canceled):
		return "job was canceled by the scheduler"
	default:
		return "check free space and permissions on the destination filesystem"
	}
}
