package model

// RemoteEntry exposes a remote directory of a previous job under Alias inside
// the new job's working directory.
type RemoteEntry struct {
	HostID     string `yaml:"host_id"`
	RemotePath string `yaml:"remote_path"`
	Alias      string `yaml:"alias"`
}

// LocalCopyEntry copies a local file into the job's working directory.
type LocalCopyEntry struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

type CodeInfo struct {
	CodeUUID      string   `yaml:"code_uuid"`
	CmdlineParams []string `yaml:"cmdline_params"`
	StdinName     string   `yaml:"stdin_name"`
	StdoutName    string   `yaml:"stdout_name"`
	WithMPI       bool     `yaml:"withmpi"`
}

// ExecutionPlan is everything the orchestrator needs to dispatch one run.
type ExecutionPlan struct {
	StagedFiles         []string         `yaml:"staged_files"`
	Codes               []CodeInfo       `yaml:"codes_info"`
	StdinName           string           `yaml:"stdin_name"`
	StdoutName          string           `yaml:"stdout_name"`
	RetrieveList        []string         `yaml:"retrieve_list"`
	LocalCopyList       []LocalCopyEntry `yaml:"local_copy_list"`
	RemoteSymlinkList   []RemoteEntry    `yaml:"remote_symlink_list"`
	RemoteCopyList      []RemoteEntry    `yaml:"remote_copy_list"`
	Resources           Resources        `yaml:"resources"`
	ParserName          string           `yaml:"parser_name"`
	MaxWallclockSeconds int              `yaml:"max_wallclock_seconds,omitempty"`
}

// OutputSpec declares one output node produced by the result parser.
type OutputSpec struct {
	Name     string `yaml:"name"`
	Required bool   `yaml:"required"`
	Help     string `yaml:"help"`
}

var declaredOutputs = []OutputSpec{
	{Name: "output_parameters", Required: true, Help: "The result of the Abinit calculation."},
	{Name: "output_structure", Required: false, Help: "Optional relaxed crystal structure."},
	{Name: "output_trajectory", Required: false, Help: "Optional trajectory of the ionic relaxation."},
}

// DeclaredOutputs returns the outputs the parser is expected to attach.
func DeclaredOutputs() []OutputSpec {
	out := make([]OutputSpec, len(declaredOutputs))
	copy(out, declaredOutputs)
	return out
}
