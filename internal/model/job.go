package model

import "sort"

// Job is one calculation to prepare.
type Job struct {
	Name       string
	Code       CodeReference
	Parameters *ParameterSet
	Structure  *Structure
	Options    ExecutionOptions  // overrides on top of the configured options
	Restart    *RestartReference // at most one parent calculation
	Pseudos    map[string]string // kind name -> local pseudopotential file
	Extras     map[string]string // extra named artifacts, name -> filename
}

// PseudoKinds returns the kinds with a pseudopotential, in structure order
// when a structure is present and sorted otherwise.
func (j *Job) PseudoKinds() []string {
	if len(j.Pseudos) == 0 {
		return nil
	}
	var kinds []string
	seen := make(map[string]bool)
	if j.Structure != nil {
		for _, k := range j.Structure.Kinds() {
			if _, ok := j.Pseudos[k]; ok {
				kinds = append(kinds, k)
				seen[k] = true
			}
		}
	}
	var rest []string
	for k := range j.Pseudos {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(kinds, rest...)
}
