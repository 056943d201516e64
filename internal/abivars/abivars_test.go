package abivars

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/abiprep/internal/model"
)

func TestFormatLine(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		want  string
	}{
		{"int", "ecut", 10, "ecut 10\n"},
		{"int64", "nstep", int64(50), "nstep 50\n"},
		{"float keeps point", "ecut", 8.0, "ecut 8.0\n"},
		{"small float", "toldfe", 1.0e-6, "toldfe 1e-06\n"},
		{"string", "pp_dirpath", "$ABI_PSPDIR", "pp_dirpath \"$ABI_PSPDIR\"\n"},
		{"quoted string", "pp_dirpath", `"$ABI_PSPDIR"`, "pp_dirpath \"$ABI_PSPDIR\"\n"},
		{"spaced string", "pseudos", "Si.psp8, O.psp8", "pseudos \"Si.psp8, O.psp8\"\n"},
		{"one element list", "znucl", []any{14}, "znucl 1*14\n"},
		{"int list", "ngkpt", []int{2, 2, 2}, "ngkpt 2 2 2\n"},
		{"any list", "acell", []any{1.0, 1.0, 1.0}, "acell 1.0 1.0 1.0\n"},
		{
			"matrix",
			"rprim",
			[][]float64{{0, 0.5, 0.5}, {0.5, 0, 0.5}, {0.5, 0.5, 0}},
			"rprim 0.0 0.5 0.5\n      0.5 0.0 0.5\n      0.5 0.5 0.0\n",
		},
		{
			"any matrix",
			"shiftk",
			[]any{[]any{0.5, 0.5, 0.5}, []any{0, 0, 0.5}},
			"shiftk 0.5 0.5 0.5\n       0 0 0.5\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatLine(tt.key, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatLine_Unsupported(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"nil", "x", nil},
		{"bool", "x", true},
		{"map", "x", map[string]int{"a": 1}},
		{"struct", "x", struct{}{}},
		{"empty list", "x", []int{}},
		{"three levels", "x", [][][]int{{{1}}}},
		{"mixed rows", "x", []any{[]any{1}, 2}},
		{"nan", "x", math.NaN()},
		{"newline string", "x", "a\nb"},
		{"embedded quote", "x", `a"b`},
		{"lone quote", "x", `"`},
		{"bad key", "two words", 1},
		{"empty key", "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FormatLine(tt.key, tt.value)
			require.Error(t, err)
			var uerr *UnsupportedValueError
			assert.True(t, errors.As(err, &uerr))
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	params, err := model.ParametersOf(
		"ecut", 10,
		"nstep", 50,
		"toldfe", 1.0e-6,
		"diemac", 12.0,
		"ngkpt", []any{2, 2, 2},
		"pp_dirpath", "$ABI_PSPDIR",
		"pseudos", "Si O",
		"title", "12",
		"tag", "#tag",
		"comment", "!note",
		"empty", "",
		"znucl", []any{14},
		"species", []any{"Si", "O"},
		"rprim", []any{[]any{0.0, 0.5, 0.5}, []any{0.5, 0.0, 0.5}, []any{0.5, 0.5, 0.0}},
		"occopt", -3,
	)
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, params.Each(func(k string, v any) error {
		line, err := FormatLine(k, v)
		sb.WriteString(line)
		return err
	}))

	back, err := ParseString(sb.String())
	require.NoError(t, err)
	assert.Equal(t, params.Keys(), back.Keys())
	for _, k := range params.Keys() {
		want, _ := params.Get(k)
		got, _ := back.Get(k)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", k, diff)
		}
	}
}

func TestParse_Features(t *testing.T) {
	input := `# silicon
acell 3*10.26   ! bohr
xred
      0.0 0.0 0.0
      0.25 0.25 0.25
toldfe 1.0d-6
pseudos "Si a.psp8"
`
	params, err := ParseString(input)
	require.NoError(t, err)
	assert.Equal(t, []string{"acell", "xred", "toldfe", "pseudos"}, params.Keys())

	acell, _ := params.Get("acell")
	assert.Equal(t, []any{10.26, 10.26, 10.26}, acell)

	xred, _ := params.Get("xred")
	assert.Equal(t, []any{[]any{0.0, 0.0, 0.0}, []any{0.25, 0.25, 0.25}}, xred)

	toldfe, _ := params.Get("toldfe")
	assert.Equal(t, 1.0e-6, toldfe)

	pseudos, _ := params.Get("pseudos")
	assert.Equal(t, "Si a.psp8", pseudos)
}

func TestParse_RepeatFormKeepsList(t *testing.T) {
	params, err := ParseString("znucl 1*14\nntypat 1\n")
	require.NoError(t, err)

	znucl, _ := params.Get("znucl")
	assert.Equal(t, []any{14}, znucl)
	ntypat, _ := params.Get("ntypat")
	assert.Equal(t, 1, ntypat)
}

// The input format has no row markers: a one-row matrix reads back flat and
// an already quoted string loses its quotes.
func TestParse_ShapeLimits(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  any
	}{
		{"one row matrix", []any{[]any{1, 2, 3}}, []any{1, 2, 3}},
		{"one by one matrix", []any{[]any{5}}, 5},
		{"quoted string", `"x"`, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := FormatLine("v", tt.value)
			require.NoError(t, err)
			params, err := ParseString(line)
			require.NoError(t, err)
			got, _ := params.Get("v")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := ParseString("   1 2 3\n")
	assert.ErrorContains(t, err, "continuation")

	_, err = ParseString("ecut 1\necut 2\n")
	assert.ErrorContains(t, err, "duplicate")

	_, err = ParseString("pseudos \"open\n")
	assert.ErrorContains(t, err, "quote")

	_, err = ParseString("acell 0*1.0\n")
	assert.ErrorContains(t, err, "repeat")
}
