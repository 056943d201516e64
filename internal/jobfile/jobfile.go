// Package jobfile loads job descriptions from YAML or HCL files.
package jobfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/msageha/abiprep/internal/model"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// FormatOf picks the decoder from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("unsupported job file %s (want .yaml, .yml or .hcl)", path)
	}
}

// Load reads a job file. "-" reads YAML from stdin. Relative pseudopotential
// paths are resolved against the file's directory, and a job without a name
// takes the file's base name when that is a valid job name.
func Load(path string) (*model.Job, error) {
	if path == "-" || path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read job from stdin: %w", err)
		}
		return Decode(data, "<stdin>", FormatYAML)
	}

	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}
	job, err := Decode(data, path, format)
	if err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(path)
	for kind, p := range job.Pseudos {
		if p != "" && !filepath.IsAbs(p) {
			job.Pseudos[kind] = filepath.Join(baseDir, p)
		}
	}
	if job.Name == "" {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if model.ValidJobName(name) {
			job.Name = name
		}
	}
	return job, nil
}

// Decode parses data in the given format. filename is only used in errors.
func Decode(data []byte, filename string, format Format) (*model.Job, error) {
	switch format {
	case FormatYAML:
		return decodeYAML(data, filename)
	case FormatHCL:
		return decodeHCL(data, filename)
	default:
		return nil, fmt.Errorf("unknown job file format %q", format)
	}
}

func codeReference(rawUUID, host string) (model.CodeReference, error) {
	if rawUUID == "" {
		return model.CodeReference{}, fmt.Errorf("code.uuid is required")
	}
	id, err := uuid.Parse(rawUUID)
	if err != nil {
		return model.CodeReference{}, fmt.Errorf("code.uuid: %w", err)
	}
	return model.CodeReference{UUID: id, Host: host}, nil
}
