package model

import (
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultPrefix       = "aiida"
	DefaultParentFolder = "parent_calc/"
	DefaultPseudoFolder = "./pseudo/"
	DefaultParserName   = "abinit"
)

// Conventions holds the executable's file naming conventions. It is a value
// type with no setters; build it once and pass it along.
type Conventions struct {
	prefix       string
	parentFolder string
}

func DefaultConventions() Conventions {
	return NewConventions(DefaultPrefix, DefaultParentFolder)
}

// NewConventions falls back to the defaults for empty arguments.
func NewConventions(prefix, parentFolder string) Conventions {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if parentFolder == "" {
		parentFolder = DefaultParentFolder
	}
	if !strings.HasSuffix(parentFolder, "/") {
		parentFolder += "/"
	}
	return Conventions{prefix: prefix, parentFolder: parentFolder}
}

func (c Conventions) Prefix() string         { return c.prefix }
func (c Conventions) InputFilename() string  { return c.prefix + ".in" }
func (c Conventions) OutputFilename() string { return c.prefix + ".out" }
func (c Conventions) GSRFilename() string    { return c.prefix + "o_GSR.nc" }
func (c Conventions) HistFilename() string   { return c.prefix + "o_HIST.nc" }
func (c Conventions) ParentFolder() string   { return c.parentFolder }
func (c Conventions) PseudoFolder() string   { return DefaultPseudoFolder }

// RetrieveList is the fixed set of files fetched back after execution.
func (c Conventions) RetrieveList() []string {
	return []string{c.OutputFilename(), c.GSRFilename(), c.HistFilename()}
}

type Resources struct {
	NumMachines           int `yaml:"num_machines"`
	NumMPIProcsPerMachine int `yaml:"num_mpiprocs_per_machine"`
}

type ExecutionOptions struct {
	InputFilename       string    `yaml:"input_filename,omitempty"`
	OutputFilename      string    `yaml:"output_filename,omitempty"`
	OutputGSR           string    `yaml:"output_gsr,omitempty"`
	OutputHist          string    `yaml:"output_hist,omitempty"`
	UseMPI              *bool     `yaml:"use_mpi,omitempty"`
	Resources           Resources `yaml:"resources,omitempty"`
	ParserName          string    `yaml:"parser_name,omitempty"`
	MaxWallclockSeconds int       `yaml:"max_wallclock_seconds,omitempty"`
}

func DefaultExecutionOptions(c Conventions) ExecutionOptions {
	useMPI := true
	return ExecutionOptions{
		InputFilename:  c.InputFilename(),
		OutputFilename: c.OutputFilename(),
		OutputGSR:      c.GSRFilename(),
		OutputHist:     c.HistFilename(),
		UseMPI:         &useMPI,
		Resources: Resources{
			NumMachines:           1,
			NumMPIProcsPerMachine: 1,
		},
		ParserName: DefaultParserName,
	}
}

// Merge returns o with every non-zero field of over applied on top.
func (o ExecutionOptions) Merge(over ExecutionOptions) ExecutionOptions {
	if over.InputFilename != "" {
		o.InputFilename = over.InputFilename
	}
	if over.OutputFilename != "" {
		o.OutputFilename = over.OutputFilename
	}
	if over.OutputGSR != "" {
		o.OutputGSR = over.OutputGSR
	}
	if over.OutputHist != "" {
		o.OutputHist = over.OutputHist
	}
	if over.UseMPI != nil {
		v := *over.UseMPI
		o.UseMPI = &v
	}
	if over.Resources.NumMachines != 0 {
		o.Resources.NumMachines = over.Resources.NumMachines
	}
	if over.Resources.NumMPIProcsPerMachine != 0 {
		o.Resources.NumMPIProcsPerMachine = over.Resources.NumMPIProcsPerMachine
	}
	if over.ParserName != "" {
		o.ParserName = over.ParserName
	}
	if over.MaxWallclockSeconds != 0 {
		o.MaxWallclockSeconds = over.MaxWallclockSeconds
	}
	return o
}

// WithMPI reports the MPI flag; unset means true.
func (o ExecutionOptions) WithMPI() bool {
	return o.UseMPI == nil || *o.UseMPI
}

// CodeReference identifies the installed executable and the host it runs on.
type CodeReference struct {
	UUID uuid.UUID
	Host string
}

// RestartReference points at the remote working directory of a finished job.
type RestartReference struct {
	Host       string `yaml:"host"`
	RemotePath string `yaml:"remote_path"`
}
