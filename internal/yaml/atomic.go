// Package yaml provides atomic file writes and the schema header shared by
// the YAML documents abiprep emits.
package yaml

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	yamlv3 "gopkg.in/yaml.v3"
)

// AtomicWrite marshals data to YAML and replaces path atomically, keeping
// the previous content in path+".bak".
func AtomicWrite(path string, data any) error {
	content, err := yamlv3.Marshal(data)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	return AtomicWriteRaw(path, content)
}

// AtomicWriteRaw is AtomicWrite for pre-encoded YAML. The content is
// re-read and validated before the rename.
func AtomicWriteRaw(path string, content []byte) error {
	return writeAtomic(path, content, true)
}

// WriteFileAtomic replaces path with content without YAML validation or
// backup. Used for the generated input file.
func WriteFileAtomic(path string, content []byte) error {
	return writeAtomic(path, content, false)
}

func writeAtomic(path string, content []byte, yamlDoc bool) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".abiprep-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if yamlDoc {
		written, err := os.ReadFile(tmpName)
		if err != nil {
			return fmt.Errorf("read temp file for validation: %w", err)
		}
		if err := validateYAML(written); err != nil {
			return fmt.Errorf("yaml validation failed: %w", err)
		}

		if _, err := os.Stat(path); err == nil {
			if err := copyFile(path, path+".bak"); err != nil {
				return fmt.Errorf("create backup: %w", err)
			}
		}
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

func validateYAML(content []byte) error {
	var v any
	return yamlv3.Unmarshal(content, &v)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
