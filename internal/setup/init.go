// Package setup initializes an abiprep project and loads its configuration.
package setup

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/msageha/abiprep/internal/model"
	atomicyaml "github.com/msageha/abiprep/internal/yaml"
	"github.com/msageha/abiprep/templates"
)

const (
	ProjectDir     = ".abiprep"
	ConfigFilename = "config.yaml"
	jobsDir        = "jobs"
)

// Run creates <projectDir>/.abiprep/config.yaml and an example job under
// <projectDir>/jobs. It refuses to touch an existing .abiprep directory.
func Run(projectDir string) error {
	absDir, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("resolve project dir: %w", err)
	}

	base := filepath.Join(absDir, ProjectDir)
	if _, err := os.Stat(base); err == nil {
		return fmt.Errorf("%s already exists", base)
	}

	for _, d := range []string{base, filepath.Join(absDir, jobsDir)} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", d, err)
		}
	}

	cfgData, err := fs.ReadFile(templates.FS, ConfigFilename)
	if err != nil {
		return fmt.Errorf("read config template: %w", err)
	}
	if _, err := parseConfig(cfgData); err != nil {
		return fmt.Errorf("config template: %w", err)
	}
	if err := atomicyaml.AtomicWriteRaw(filepath.Join(base, ConfigFilename), cfgData); err != nil {
		return fmt.Errorf("write config.yaml: %w", err)
	}

	example := filepath.Join(absDir, jobsDir, "example.yaml")
	if _, err := os.Stat(example); err == nil {
		return nil
	}
	jobData, err := fs.ReadFile(templates.FS, "job.yaml")
	if err != nil {
		return fmt.Errorf("read job template: %w", err)
	}
	if err := atomicyaml.WriteFileAtomic(example, jobData); err != nil {
		return fmt.Errorf("write example job: %w", err)
	}
	return nil
}

// FindProjectDir walks up from start looking for a .abiprep directory and
// returns "" when there is none.
func FindProjectDir(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ProjectDir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadConfig reads a config file. Missing fields keep their defaults.
func LoadConfig(path string) (model.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Config{}, fmt.Errorf("read config.yaml: %w", err)
	}
	cfg, err := parseConfig(data)
	if err != nil {
		return model.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ResolveConfig loads path when given, else the config of the enclosing
// project, else the built-in defaults.
func ResolveConfig(path string) (model.Config, error) {
	if path != "" {
		return LoadConfig(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return model.DefaultConfig(), nil
	}
	if dir := FindProjectDir(wd); dir != "" {
		return LoadConfig(filepath.Join(dir, ConfigFilename))
	}
	return model.DefaultConfig(), nil
}

func parseConfig(data []byte) (model.Config, error) {
	dec := yamlv3.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg model.Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return model.Config{}, err
	}
	return cfg.WithDefaults(), nil
}
