package jobfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/msageha/abiprep/internal/model"
)

type yamlJob struct {
	Name string `yaml:"name"`
	Code struct {
		UUID string `yaml:"uuid"`
		Host string `yaml:"host"`
	} `yaml:"code"`
	Parameters *model.ParameterSet     `yaml:"parameters"`
	Structure  *model.Structure        `yaml:"structure"`
	Options    model.ExecutionOptions  `yaml:"options"`
	Restart    *model.RestartReference `yaml:"restart"`
	Pseudos    map[string]string       `yaml:"pseudos"`
	Extras     map[string]string       `yaml:"extras"`
}

func decodeYAML(data []byte, filename string) (*model.Job, error) {
	dec := yamlv3.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var raw yamlJob
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse job YAML %s: empty document", filename)
		}
		return nil, fmt.Errorf("parse job YAML %s: %w", filename, err)
	}

	code, err := codeReference(raw.Code.UUID, raw.Code.Host)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", filename, err)
	}
	return &model.Job{
		Name:       raw.Name,
		Code:       code,
		Parameters: raw.Parameters,
		Structure:  raw.Structure,
		Options:    raw.Options,
		Restart:    raw.Restart,
		Pseudos:    raw.Pseudos,
		Extras:     raw.Extras,
	}, nil
}
