// Package structure converts a crystal structure into Abinit geometry
// variables (acell, rprim, ntypat, znucl, natom, typat, xred).
package structure

import (
	"fmt"
	"math"

	"github.com/msageha/abiprep/internal/model"
)

// BohrAngstrom is one bohr in angstrom.
const BohrAngstrom = 0.529177208590000

// Converter is the default structure converter. The zero value is ready to use.
type Converter struct{}

// Convert returns the geometry variables for s. Lattice vectors are written
// to rprim in bohr with acell set to unity; positions are reduced.
func (Converter) Convert(s *model.Structure) (*model.ParameterSet, error) {
	if s == nil {
		return nil, fmt.Errorf("nil structure")
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid structure: %w", err)
	}

	var cell [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			cell[i][j] = s.Cell[i][j]
		}
	}
	inv, err := invert(cell)
	if err != nil {
		return nil, err
	}

	kinds := s.Kinds()
	kindIndex := make(map[string]int, len(kinds))
	znucl := make([]any, 0, len(kinds))
	for i, kind := range kinds {
		kindIndex[kind] = i + 1
	}
	for _, kind := range kinds {
		var symbol string
		for _, site := range s.Sites {
			if site.Kind == kind {
				symbol = site.Element()
				break
			}
		}
		z, ok := AtomicNumber(symbol)
		if !ok {
			return nil, fmt.Errorf("kind %q: unknown element symbol %q", kind, symbol)
		}
		znucl = append(znucl, z)
	}

	rprim := make([]any, 3)
	for i := 0; i < 3; i++ {
		rprim[i] = []any{
			round(cell[i][0] / BohrAngstrom),
			round(cell[i][1] / BohrAngstrom),
			round(cell[i][2] / BohrAngstrom),
		}
	}

	typat := make([]any, len(s.Sites))
	xred := make([]any, len(s.Sites))
	for i, site := range s.Sites {
		typat[i] = kindIndex[site.Kind]
		var frac [3]float64
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				frac[j] += site.Position[k] * inv[k][j]
			}
		}
		xred[i] = []any{round(frac[0]), round(frac[1]), round(frac[2])}
	}

	params := model.NewParameterSet()
	params.Set("acell", []any{1.0, 1.0, 1.0})
	params.Set("rprim", rprim)
	params.Set("ntypat", len(kinds))
	params.Set("znucl", znucl)
	params.Set("natom", len(s.Sites))
	params.Set("typat", typat)
	params.Set("xred", xred)
	return params, nil
}

func invert(m [3][3]float64) ([3][3]float64, error) {
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	if math.Abs(det) < 1e-12 {
		return [3][3]float64{}, fmt.Errorf("singular cell (volume %g)", det)
	}
	var inv [3][3]float64
	inv[0][0] = (m[1][1]*m[2][2] - m[1][2]*m[2][1]) / det
	inv[0][1] = (m[0][2]*m[2][1] - m[0][1]*m[2][2]) / det
	inv[0][2] = (m[0][1]*m[1][2] - m[0][2]*m[1][1]) / det
	inv[1][0] = (m[1][2]*m[2][0] - m[1][0]*m[2][2]) / det
	inv[1][1] = (m[0][0]*m[2][2] - m[0][2]*m[2][0]) / det
	inv[1][2] = (m[0][2]*m[1][0] - m[0][0]*m[1][2]) / det
	inv[2][0] = (m[1][0]*m[2][1] - m[1][1]*m[2][0]) / det
	inv[2][1] = (m[0][1]*m[2][0] - m[0][0]*m[2][1]) / det
	inv[2][2] = (m[0][0]*m[1][1] - m[0][1]*m[1][0]) / det
	return inv, nil
}

// round trims floating noise to 10 decimals.
func round(f float64) float64 {
	r := math.Round(f*1e10) / 1e10
	if r == 0 {
		return 0
	}
	return r
}
