package model

import "fmt"

// Structure describes a periodic crystal structure. Cell rows are the lattice
// vectors and site positions are cartesian, both in angstrom.
type Structure struct {
	Cell  [][]float64 `yaml:"cell"`
	Sites []Site      `yaml:"sites"`
}

type Site struct {
	Kind     string    `yaml:"kind"`
	Symbol   string    `yaml:"symbol,omitempty"` // element symbol; defaults to Kind
	Position []float64 `yaml:"position"`
}

// Element returns the chemical symbol of the site.
func (s Site) Element() string {
	if s.Symbol != "" {
		return s.Symbol
	}
	return s.Kind
}

// Kinds returns the distinct kind names in order of first appearance.
func (s *Structure) Kinds() []string {
	seen := make(map[string]bool)
	var kinds []string
	for _, site := range s.Sites {
		if !seen[site.Kind] {
			seen[site.Kind] = true
			kinds = append(kinds, site.Kind)
		}
	}
	return kinds
}

func (s *Structure) Validate() error {
	if len(s.Cell) != 3 {
		return fmt.Errorf("cell must have 3 lattice vectors, got %d", len(s.Cell))
	}
	for i, row := range s.Cell {
		if len(row) != 3 {
			return fmt.Errorf("cell[%d] must have 3 components, got %d", i, len(row))
		}
	}
	if len(s.Sites) == 0 {
		return fmt.Errorf("structure has no sites")
	}
	kindElement := make(map[string]string)
	for i, site := range s.Sites {
		if site.Kind == "" {
			return fmt.Errorf("sites[%d]: kind is required", i)
		}
		if len(site.Position) != 3 {
			return fmt.Errorf("sites[%d]: position must have 3 components, got %d", i, len(site.Position))
		}
		if prev, ok := kindElement[site.Kind]; ok && prev != site.Element() {
			return fmt.Errorf("sites[%d]: kind %q maps to both %s and %s", i, site.Kind, prev, site.Element())
		}
		kindElement[site.Kind] = site.Element()
	}
	return nil
}
