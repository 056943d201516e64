// Package compose turns a parameter set and an optional crystal structure into
// the lines of the executable's input file.
package compose

import (
	"fmt"
	"strings"

	"github.com/msageha/abiprep/internal/abivars"
	"github.com/msageha/abiprep/internal/model"
)

// StructureConverter turns a structure into input variables.
type StructureConverter interface {
	Convert(s *model.Structure) (*model.ParameterSet, error)
}

// ConverterFunc adapts a function to StructureConverter.
type ConverterFunc func(s *model.Structure) (*model.ParameterSet, error)

func (f ConverterFunc) Convert(s *model.Structure) (*model.ParameterSet, error) {
	return f(s)
}

// FormatFunc renders one variable, newline included.
type FormatFunc func(key string, value any) (string, error)

// Composer is stateless and safe for concurrent use.
type Composer struct {
	converter StructureConverter
	format    FormatFunc
}

func New(converter StructureConverter) *Composer {
	return &Composer{converter: converter, format: abivars.FormatLine}
}

// WithFormatter returns a copy of c that renders values with f.
func (c *Composer) WithFormatter(f FormatFunc) *Composer {
	cp := *c
	cp.format = f
	return &cp
}

// Merge returns a copy of params updated with the variables derived from
// structure. Structure-derived values replace user values of the same name.
func (c *Composer) Merge(params *model.ParameterSet, structure *model.Structure) (*model.ParameterSet, error) {
	merged := params.Clone()
	if structure == nil {
		return merged, nil
	}
	if c.converter == nil {
		return nil, fmt.Errorf("structure given but no structure converter configured")
	}
	derived, err := c.converter.Convert(structure)
	if err != nil {
		return nil, fmt.Errorf("convert structure: %w", err)
	}
	merged.Update(derived)
	return merged, nil
}

// Compose returns the input file lines in merge order, each ending in "\n".
func (c *Composer) Compose(params *model.ParameterSet, structure *model.Structure) ([]string, error) {
	merged, err := c.Merge(params, structure)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, merged.Len())
	err = merged.Each(func(key string, value any) error {
		line, err := c.format(key, value)
		if err != nil {
			return err
		}
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// Render joins composed lines into the file content.
func Render(lines []string) string {
	return strings.Join(lines, "")
}
