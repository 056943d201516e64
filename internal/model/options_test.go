package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConventions(t *testing.T) {
	c := DefaultConventions()
	assert.Equal(t, "aiida.in", c.InputFilename())
	assert.Equal(t, "aiida.out", c.OutputFilename())
	assert.Equal(t, "aiidao_GSR.nc", c.GSRFilename())
	assert.Equal(t, "aiidao_HIST.nc", c.HistFilename())
	assert.Equal(t, "parent_calc/", c.ParentFolder())
	assert.Equal(t, []string{"aiida.out", "aiidao_GSR.nc", "aiidao_HIST.nc"}, c.RetrieveList())
}

func TestNewConventions_NormalizesFolder(t *testing.T) {
	c := NewConventions("si", "parent")
	assert.Equal(t, "si.in", c.InputFilename())
	assert.Equal(t, "sio_GSR.nc", c.GSRFilename())
	assert.Equal(t, "parent/", c.ParentFolder())
}

func TestDefaultExecutionOptions(t *testing.T) {
	o := DefaultExecutionOptions(DefaultConventions())
	assert.Equal(t, "aiida.in", o.InputFilename)
	assert.Equal(t, "aiida.out", o.OutputFilename)
	assert.Equal(t, "aiidao_GSR.nc", o.OutputGSR)
	assert.Equal(t, "aiidao_HIST.nc", o.OutputHist)
	assert.True(t, o.WithMPI())
	assert.Equal(t, Resources{NumMachines: 1, NumMPIProcsPerMachine: 1}, o.Resources)
	assert.Equal(t, "abinit", o.ParserName)
}

func TestExecutionOptions_Merge(t *testing.T) {
	base := DefaultExecutionOptions(DefaultConventions())
	noMPI := false
	merged := base.Merge(ExecutionOptions{
		OutputFilename: "run.out",
		UseMPI:         &noMPI,
		Resources:      Resources{NumMPIProcsPerMachine: 4},
	})

	assert.Equal(t, "aiida.in", merged.InputFilename)
	assert.Equal(t, "run.out", merged.OutputFilename)
	assert.False(t, merged.WithMPI())
	assert.Equal(t, 1, merged.Resources.NumMachines)
	assert.Equal(t, 4, merged.Resources.NumMPIProcsPerMachine)

	noMPI = true
	assert.False(t, merged.WithMPI(), "merge must copy the MPI flag")
	assert.True(t, base.WithMPI(), "merge must not touch the receiver")
}

func TestConfigMarshalUnmarshal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Conventions.Prefix = "si"
	cfg.Batch.Concurrency = 8

	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	var got Config
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, cfg.Conventions, got.Conventions)
	assert.Equal(t, 8, got.Batch.Concurrency)
	assert.Equal(t, "si.in", got.ConventionsValue().InputFilename())
	assert.True(t, got.EffectiveOptions().WithMPI())
}

func TestConfig_WithDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte("options:\n  use_mpi: false\n"), &cfg))
	cfg = cfg.WithDefaults()

	assert.Equal(t, DefaultBatchConcurrency, cfg.Batch.Concurrency)
	assert.Equal(t, DefaultDebounceMs, cfg.Watcher.DebounceMs)
	assert.Equal(t, "info", cfg.Logging.Level)

	opts := cfg.EffectiveOptions()
	assert.False(t, opts.WithMPI())
	assert.Equal(t, "aiida.in", opts.InputFilename)
}

func TestStructure_Validate(t *testing.T) {
	s := Structure{
		Cell: [][]float64{{0, 2.7, 2.7}, {2.7, 0, 2.7}, {2.7, 2.7, 0}},
		Sites: []Site{
			{Kind: "Si", Position: []float64{0, 0, 0}},
			{Kind: "Si", Position: []float64{1.35, 1.35, 1.35}},
		},
	}
	require.NoError(t, s.Validate())
	assert.Equal(t, []string{"Si"}, s.Kinds())

	bad := s
	bad.Cell = bad.Cell[:2]
	assert.Error(t, bad.Validate())

	mixed := s
	mixed.Sites = append([]Site{}, s.Sites...)
	mixed.Sites[1] = Site{Kind: "Si", Symbol: "Ge", Position: []float64{0, 0, 0}}
	assert.Error(t, mixed.Validate())
}
