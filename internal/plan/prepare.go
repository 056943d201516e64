package plan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/msageha/abiprep/internal/compose"
	"github.com/msageha/abiprep/internal/lock"
	"github.com/msageha/abiprep/internal/model"
	"github.com/msageha/abiprep/internal/structure"
	yamlutil "github.com/msageha/abiprep/internal/yaml"
)

// ManifestFilename is the plan manifest written next to the input file.
const ManifestFilename = "calcinfo.yaml"

// Manifest is the on-disk form of a prepared job.
type Manifest struct {
	yamlutil.SchemaHeader `yaml:",inline"`
	PlanID                string              `yaml:"plan_id"`
	JobName               string              `yaml:"job_name,omitempty"`
	CreatedAt             string              `yaml:"created_at"`
	Plan                  model.ExecutionPlan `yaml:"plan"`
	Outputs               []model.OutputSpec  `yaml:"outputs"`
	Extras                map[string]string   `yaml:"extras,omitempty"`
	ExitCodes             []model.ExitCode    `yaml:"exit_codes"`
}

type PrepareRequest struct {
	Job        *model.Job
	SandboxDir string
}

type PrepareResult struct {
	PlanID       string
	InputPath    string
	ManifestPath string
	Lines        []string
	Plan         model.ExecutionPlan
}

// Preparer validates jobs, writes their input file and plan manifest into a
// sandbox directory. It is safe for concurrent use; calls targeting the same
// sandbox are serialized.
type Preparer struct {
	options  model.ExecutionOptions
	composer *compose.Composer
	builder  *Builder
	locks    *lock.SandboxLocks
	logger   *zap.Logger
	now      func() time.Time
}

type PreparerOption func(*Preparer)

func WithLogger(l *zap.Logger) PreparerOption {
	return func(p *Preparer) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithComposer(c *compose.Composer) PreparerOption {
	return func(p *Preparer) {
		if c != nil {
			p.composer = c
		}
	}
}

func NewPreparer(cfg model.Config, opts ...PreparerOption) *Preparer {
	conv := cfg.ConventionsValue()
	p := &Preparer{
		options:  cfg.EffectiveOptions(),
		composer: compose.New(structure.Converter{}),
		builder:  NewBuilder(conv),
		locks:    lock.NewSandboxLocks(),
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Prepare runs validate, compose, write input, build plan and write manifest
// for one job. Nothing is written when validation or composition fails.
func (p *Preparer) Prepare(ctx context.Context, req PrepareRequest) (*PrepareResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Job == nil {
		return nil, fmt.Errorf("job is required")
	}
	if req.SandboxDir == "" {
		return nil, fmt.Errorf("sandbox directory is required")
	}
	job := req.Job
	log := p.logger.With(zap.String("job", job.Name), zap.String("sandbox", req.SandboxDir))

	opts := p.options.Merge(job.Options)
	if verrs := ValidateJob(job, opts); verrs != nil {
		log.Debug("job rejected", zap.Int("errors", len(verrs.Errors)))
		return nil, verrs
	}

	kinds := job.PseudoKinds()
	params := withPseudoParams(job.Parameters, p.builder.conv, job.Pseudos, kinds)
	lines, err := p.composer.Compose(params, job.Structure)
	if err != nil {
		return nil, fmt.Errorf("compose input: %w", err)
	}

	planID, err := model.GenerateID(model.IDTypePlan)
	if err != nil {
		return nil, fmt.Errorf("generate plan id: %w", err)
	}

	execPlan := p.builder.Build(opts, job.Code, job.Restart)
	execPlan.LocalCopyList = append(execPlan.LocalCopyList, p.builder.PseudoCopies(job.Pseudos, kinds)...)

	unlock := p.locks.Lock(req.SandboxDir)
	defer unlock()

	if err := os.MkdirAll(req.SandboxDir, 0755); err != nil {
		return nil, fmt.Errorf("create sandbox: %w", err)
	}

	inputPath := filepath.Join(req.SandboxDir, opts.InputFilename)
	if err := yamlutil.WriteFileAtomic(inputPath, []byte(compose.Render(lines))); err != nil {
		return nil, fmt.Errorf("write input file: %w", err)
	}

	manifest := Manifest{
		SchemaHeader: yamlutil.NewSchemaHeader(yamlutil.FileTypeExecutionPlan),
		PlanID:       planID,
		JobName:      job.Name,
		CreatedAt:    p.now().UTC().Format(time.RFC3339),
		Plan:         execPlan,
		Outputs:      model.DeclaredOutputs(),
		Extras:       job.Extras,
		ExitCodes:    model.ExitCodes(),
	}
	manifestPath := filepath.Join(req.SandboxDir, ManifestFilename)
	if err := yamlutil.AtomicWrite(manifestPath, manifest); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	log.Info("job prepared",
		zap.String("plan_id", planID),
		zap.Int("lines", len(lines)),
		zap.Bool("restart", job.Restart != nil),
		zap.Int("pseudos", len(kinds)),
	)

	return &PrepareResult{
		PlanID:       planID,
		InputPath:    inputPath,
		ManifestPath: manifestPath,
		Lines:        lines,
		Plan:         execPlan,
	}, nil
}

// withPseudoParams points the executable at the staged pseudopotentials
// unless the user already set pp_dirpath or pseudos.
func withPseudoParams(params *model.ParameterSet, conv model.Conventions, pseudos map[string]string, kinds []string) *model.ParameterSet {
	if len(kinds) == 0 {
		return params
	}
	out := params.Clone()
	if !out.Has("pp_dirpath") {
		out.Set("pp_dirpath", strings.TrimSuffix(conv.PseudoFolder(), "/"))
	}
	if !out.Has("pseudos") {
		names := make([]string, 0, len(kinds))
		for _, k := range kinds {
			names = append(names, pseudoFilename(k, pseudos[k]))
		}
		out.Set("pseudos", strings.Join(names, ", "))
	}
	return out
}

// ReadManifest loads a manifest written by Prepare.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if err := yamlutil.ValidateSchemaHeaderFromBytes(data, yamlutil.FileTypeExecutionPlan); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yamlv3.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if idType, err := model.ParseIDType(m.PlanID); err != nil || idType != model.IDTypePlan {
		return nil, fmt.Errorf("manifest %s: invalid plan_id %q", path, m.PlanID)
	}
	return &m, nil
}
