package plan

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/msageha/abiprep/internal/model"
)

var pseudoExtensions = map[string]bool{
	".psp8": true,
	".xml":  true,
}

// ValidateJob checks the preconditions of a job against the effective
// options. It returns nil when the job can be prepared.
func ValidateJob(job *model.Job, opts model.ExecutionOptions) *ValidationErrors {
	errs := &ValidationErrors{}

	if job.Name != "" && !model.ValidJobName(job.Name) {
		errs.Add("name", fmt.Sprintf("%q is not a valid job name", job.Name))
	}
	if job.Code.Host == "" {
		errs.Add("code.host", "is required")
	}
	if job.Parameters == nil {
		errs.Add("parameters", "is required")
	}

	validateOptions(opts, errs)

	if job.Structure != nil {
		if err := job.Structure.Validate(); err != nil {
			errs.Add("structure", err.Error())
		}
	}

	if r := job.Restart; r != nil {
		if r.Host == "" {
			errs.Add("restart.host", "is required")
		}
		if r.RemotePath == "" {
			errs.Add("restart.remote_path", "is required")
		}
	}

	validatePseudos(job, errs)
	validateExtras(job.Extras, errs)

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateOptions(opts model.ExecutionOptions, errs *ValidationErrors) {
	files := map[string]string{
		"options.input_filename":  opts.InputFilename,
		"options.output_filename": opts.OutputFilename,
		"options.output_gsr":      opts.OutputGSR,
		"options.output_hist":     opts.OutputHist,
	}
	fields := make([]string, 0, len(files))
	for f := range files {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		name := files[f]
		switch {
		case name == "":
			errs.Add(f, "is required")
		case strings.ContainsAny(name, `/\`) || name == "." || name == "..":
			errs.Add(f, fmt.Sprintf("%q must be a plain file name", name))
		}
	}
	if opts.InputFilename != "" && opts.InputFilename == opts.OutputFilename {
		errs.Add("options.output_filename", "must differ from input_filename")
	}
	if opts.Resources.NumMachines < 1 {
		errs.Add("options.resources.num_machines", "must be >= 1")
	}
	if opts.Resources.NumMPIProcsPerMachine < 1 {
		errs.Add("options.resources.num_mpiprocs_per_machine", "must be >= 1")
	}
	if opts.MaxWallclockSeconds < 0 {
		errs.Add("options.max_wallclock_seconds", "must be >= 0")
	}
}

func validatePseudos(job *model.Job, errs *ValidationErrors) {
	kinds := make([]string, 0, len(job.Pseudos))
	for k := range job.Pseudos {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		path := job.Pseudos[kind]
		field := "pseudos." + kind
		if path == "" {
			errs.Add(field, "path is required")
			continue
		}
		if !pseudoExtensions[strings.ToLower(filepath.Ext(path))] {
			errs.Add(field, fmt.Sprintf("%q is not a Psp8 (.psp8) or JTH-XML (.xml) pseudopotential", path))
		}
	}

	if job.Structure == nil {
		return
	}
	// A user-supplied pseudos variable means the files are managed outside
	// the sandbox.
	structKinds := job.Structure.Kinds()
	if !job.Parameters.Has("pseudos") {
		for _, kind := range structKinds {
			if _, ok := job.Pseudos[kind]; !ok {
				errs.Add("pseudos", fmt.Sprintf("no pseudo available for element %s", kind))
			}
		}
	}
	inStructure := make(map[string]bool, len(structKinds))
	for _, k := range structKinds {
		inStructure[k] = true
	}
	for _, kind := range kinds {
		if !inStructure[kind] {
			errs.Add("pseudos."+kind, fmt.Sprintf("kind %s is not in the structure", kind))
		}
	}
}

func validateExtras(extras map[string]string, errs *ValidationErrors) {
	names := make([]string, 0, len(extras))
	for n := range extras {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if extras[n] == "" {
			errs.Add("extras."+n, "filename is required")
		}
	}
}
