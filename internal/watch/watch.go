// Package watch re-prepares a job whenever its description file changes.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/msageha/abiprep/internal/lock"
	"github.com/msageha/abiprep/internal/model"
	"github.com/msageha/abiprep/internal/plan"
)

type Preparer interface {
	Prepare(ctx context.Context, req plan.PrepareRequest) (*plan.PrepareResult, error)
}

type Options struct {
	JobPath    string
	SandboxDir string
	Debounce   time.Duration
	Load       func(path string) (*model.Job, error)
	Preparer   Preparer
	Logger     *zap.Logger
	// OnPrepare, when set, is called after every preparation attempt.
	OnPrepare func(res *plan.PrepareResult, err error)
}

type Watcher struct {
	jobPath  string
	sandbox  string
	debounce time.Duration
	load     func(path string) (*model.Job, error)
	preparer Preparer
	logger   *zap.Logger
	onResult func(res *plan.PrepareResult, err error)
}

func New(opts Options) (*Watcher, error) {
	if opts.JobPath == "" {
		return nil, fmt.Errorf("watch: job path is required")
	}
	if opts.SandboxDir == "" {
		return nil, fmt.Errorf("watch: sandbox directory is required")
	}
	if opts.Load == nil || opts.Preparer == nil {
		return nil, fmt.Errorf("watch: Load and Preparer are required")
	}
	jobPath, err := filepath.Abs(opts.JobPath)
	if err != nil {
		return nil, fmt.Errorf("resolve job path: %w", err)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = model.DefaultDebounceMs * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	onResult := opts.OnPrepare
	if onResult == nil {
		onResult = func(*plan.PrepareResult, error) {}
	}
	return &Watcher{
		jobPath:  jobPath,
		sandbox:  opts.SandboxDir,
		debounce: debounce,
		load:     opts.Load,
		preparer: opts.Preparer,
		logger:   logger.With(zap.String("job_file", jobPath)),
		onResult: onResult,
	}, nil
}

// Run prepares the job once, then again after each burst of writes to the
// job file, until ctx is done. It holds the sandbox file lock throughout.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.sandbox, 0755); err != nil {
		return fmt.Errorf("create sandbox: %w", err)
	}
	fl := lock.ForSandbox(w.sandbox)
	if err := fl.TryLock(); err != nil {
		return err
	}
	defer fl.Unlock()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	// Editors often replace the file, so watch its directory.
	if err := fw.Add(filepath.Dir(w.jobPath)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.jobPath), err)
	}

	w.prepare(ctx)

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped")
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.jobPath {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.logger.Debug("fsnotify event", zap.String("op", event.Op.String()))
				fire = time.After(w.debounce)
			}
		case <-fire:
			fire = nil
			w.prepare(ctx)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("fsnotify error", zap.Error(err))
		}
	}
}

func (w *Watcher) prepare(ctx context.Context) {
	job, err := w.load(w.jobPath)
	if err != nil {
		w.logger.Warn("load job failed", zap.Error(err))
		w.onResult(nil, err)
		return
	}
	res, err := w.preparer.Prepare(ctx, plan.PrepareRequest{Job: job, SandboxDir: w.sandbox})
	if err != nil {
		w.logger.Warn("prepare failed", zap.Error(err))
	}
	w.onResult(res, err)
}
