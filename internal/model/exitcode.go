package model

import (
	"errors"
	"fmt"
	"sort"
)

// ExitStatus is the numeric exit status of a finished calculation. The set of
// valid values is closed; see ExitCodes.
type ExitStatus int

const (
	ExitMissingOutputFiles         ExitStatus = 100
	ExitNoRetrievedFolder          ExitStatus = 200
	ExitOutputMissing              ExitStatus = 210
	ExitOutputRead                 ExitStatus = 301
	ExitOutputParse                ExitStatus = 302
	ExitOutputIncomplete           ExitStatus = 303
	ExitOutputContainsAbort        ExitStatus = 304
	ExitStructureParse             ExitStatus = 312
	ExitUnexpectedParserException  ExitStatus = 350
	ExitOutOfWalltime              ExitStatus = 400
	ExitIonicConvergenceNotReached ExitStatus = 500
)

// Band groups exit codes by how the orchestrator should react.
type Band string

const (
	BandMissingArtifacts Band = "missing_artifacts"
	BandUnreadableOutput Band = "unreadable_output"
	BandRecoverable      Band = "recoverable"
)

var ErrUnknownExitCode = errors.New("unknown exit code")

// ExitCode is one entry of the exit-code table.
type ExitCode struct {
	Status  ExitStatus `yaml:"status" json:"status"`
	Name    string     `yaml:"name" json:"name"`
	Message string     `yaml:"message" json:"message"`
	Band    Band       `yaml:"band" json:"band"`
}

// Retryable reports whether the produced output can seed a restart.
func (e ExitCode) Retryable() bool {
	return e.Band == BandRecoverable
}

func (e ExitCode) String() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Name, e.Message)
}

var exitTable = map[ExitStatus]ExitCode{
	ExitMissingOutputFiles: {
		Name: "ERROR_MISSING_OUTPUT_FILES", Band: BandMissingArtifacts,
		Message: "Calculation did not produce all expected output files.",
	},
	ExitNoRetrievedFolder: {
		Name: "ERROR_NO_RETRIEVED_FOLDER", Band: BandMissingArtifacts,
		Message: "The retrieved folder data node could not be accessed.",
	},
	ExitOutputMissing: {
		Name: "ERROR_OUTPUT_MISSING", Band: BandMissingArtifacts,
		Message: "The retrieved folder did not contain the required output file.",
	},
	ExitOutputRead: {
		Name: "ERROR_OUTPUT_READ", Band: BandUnreadableOutput,
		Message: "The output file could not be read.",
	},
	ExitOutputParse: {
		Name: "ERROR_OUTPUT_PARSE", Band: BandUnreadableOutput,
		Message: "The output file could not be parsed.",
	},
	ExitOutputIncomplete: {
		Name: "ERROR_OUTPUT_INCOMPLETE", Band: BandUnreadableOutput,
		Message: "The output file was incomplete.",
	},
	ExitOutputContainsAbort: {
		Name: "ERROR_OUTPUT_CONTAINS_ABORT", Band: BandUnreadableOutput,
		Message: `The output file contains the word "ABORT".`,
	},
	ExitStructureParse: {
		Name: "ERROR_STRUCTURE_PARSE", Band: BandUnreadableOutput,
		Message: "The output structure could not be parsed.",
	},
	ExitUnexpectedParserException: {
		Name: "ERROR_UNEXPECTED_PARSER_EXCEPTION", Band: BandUnreadableOutput,
		Message: "The parser raised an unexpected exception.",
	},
	ExitOutOfWalltime: {
		Name: "ERROR_OUT_OF_WALLTIME", Band: BandRecoverable,
		Message: "The calculation stopped prematurely because it ran out of walltime.",
	},
	ExitIonicConvergenceNotReached: {
		Name: "ERROR_IONIC_CONVERGENCE_NOT_REACHED", Band: BandRecoverable,
		Message: "The ionic minimization cycle did not converge for the given thresholds.",
	},
}

var exitByName = func() map[string]ExitStatus {
	m := make(map[string]ExitStatus, len(exitTable))
	for status, ec := range exitTable {
		if _, dup := m[ec.Name]; dup {
			panic("duplicate exit code name " + ec.Name)
		}
		m[ec.Name] = status
	}
	return m
}()

func (s ExitStatus) Valid() bool {
	_, ok := exitTable[s]
	return ok
}

// Code returns the table entry for s. The second result is false for
// statuses outside the table.
func (s ExitStatus) Code() (ExitCode, bool) {
	ec, ok := exitTable[s]
	if !ok {
		return ExitCode{}, false
	}
	ec.Status = s
	return ec, true
}

func (s ExitStatus) String() string {
	if ec, ok := s.Code(); ok {
		return ec.Name
	}
	return fmt.Sprintf("ExitStatus(%d)", int(s))
}

func LookupExitCode(status int) (ExitCode, error) {
	ec, ok := ExitStatus(status).Code()
	if !ok {
		return ExitCode{}, fmt.Errorf("%w: %d", ErrUnknownExitCode, status)
	}
	return ec, nil
}

func LookupExitCodeName(name string) (ExitCode, error) {
	status, ok := exitByName[name]
	if !ok {
		return ExitCode{}, fmt.Errorf("%w: %q", ErrUnknownExitCode, name)
	}
	ec, _ := status.Code()
	return ec, nil
}

// ExitCodes returns the full table ordered by status.
func ExitCodes() []ExitCode {
	out := make([]ExitCode, 0, len(exitTable))
	for status := range exitTable {
		ec, _ := status.Code()
		out = append(out, ec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out
}
