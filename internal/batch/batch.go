// Package batch prepares many job files concurrently, each into its own
// sandbox directory under a common output directory.
package batch

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/msageha/abiprep/internal/model"
	"github.com/msageha/abiprep/internal/plan"
)

// Preparer is satisfied by *plan.Preparer.
type Preparer interface {
	Prepare(ctx context.Context, req plan.PrepareRequest) (*plan.PrepareResult, error)
}

type LoadFunc func(path string) (*model.Job, error)

type Options struct {
	OutDir      string
	Concurrency int
	Load        LoadFunc
	Logger      *zap.Logger
}

// Result is the outcome for one job file. Err is set when loading or
// preparing failed; the other jobs of the batch are unaffected.
type Result struct {
	Source     string
	JobName    string
	SandboxDir string
	PlanID     string
	Err        error
}

// Run loads every path, then prepares the jobs with at most
// opts.Concurrency in flight. Results are returned in input order. The
// returned error is non-nil only when ctx ended before all jobs were
// scheduled; unscheduled jobs carry ctx.Err() in their result.
func Run(ctx context.Context, p Preparer, paths []string, opts Options) ([]Result, error) {
	if opts.Load == nil {
		return nil, fmt.Errorf("batch: Load is required")
	}
	if opts.OutDir == "" {
		return nil, fmt.Errorf("batch: output directory is required")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = model.DefaultBatchConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([]Result, len(paths))
	jobs := make([]*model.Job, len(paths))
	owner := make(map[string]string)
	for i, path := range paths {
		results[i].Source = path
		job, err := opts.Load(path)
		if err != nil {
			results[i].Err = err
			continue
		}
		name, err := sandboxName(job)
		if err != nil {
			results[i].Err = err
			continue
		}
		if prev, dup := owner[name]; dup {
			results[i].Err = fmt.Errorf("job name %q already used by %s", name, prev)
			continue
		}
		owner[name] = path
		jobs[i] = job
		results[i].JobName = name
		results[i].SandboxDir = filepath.Join(opts.OutDir, name)
	}

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)

	var scheduleErr error
	for i := range paths {
		i := i
		if jobs[i] == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			scheduleErr = err
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			res, err := p.Prepare(ctx, plan.PrepareRequest{Job: jobs[i], SandboxDir: results[i].SandboxDir})
			if err != nil {
				results[i].Err = err
				logger.Warn("job failed", zap.String("source", results[i].Source), zap.Error(err))
				return nil
			}
			results[i].PlanID = res.PlanID
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("batch finished", zap.Int("jobs", len(paths)), zap.Int("failed", Failed(results)))
	return results, scheduleErr
}

// sandboxName is the job name, or a fresh job ID for unnamed jobs.
func sandboxName(job *model.Job) (string, error) {
	if job.Name != "" {
		if !model.ValidJobName(job.Name) {
			return "", fmt.Errorf("%q is not a valid job name", job.Name)
		}
		return job.Name, nil
	}
	id, err := model.GenerateID(model.IDTypeJob)
	if err != nil {
		return "", fmt.Errorf("generate job id: %w", err)
	}
	return id, nil
}

// Failed counts results with an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
