package jobfile

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/msageha/abiprep/internal/model"
)

type hclJob struct {
	Name       string            `hcl:"name,optional"`
	Code       *hclCode          `hcl:"code,block"`
	Parameters *hclParameters    `hcl:"parameters,block"`
	Structure  *hclStructure     `hcl:"structure,block"`
	Options    *hclOptions       `hcl:"options,block"`
	Restart    *hclRestart       `hcl:"restart,block"`
	Pseudos    map[string]string `hcl:"pseudos,optional"`
	Extras     map[string]string `hcl:"extras,optional"`
}

type hclCode struct {
	UUID string `hcl:"uuid"`
	Host string `hcl:"host"`
}

// hclParameters keeps the raw body; attribute order is recovered from
// source positions.
type hclParameters struct {
	Body hcl.Body `hcl:",remain"`
}

type hclStructure struct {
	Cell  [][]float64 `hcl:"cell"`
	Sites []hclSite   `hcl:"site,block"`
}

type hclSite struct {
	Kind     string    `hcl:"kind"`
	Symbol   string    `hcl:"symbol,optional"`
	Position []float64 `hcl:"position"`
}

type hclOptions struct {
	InputFilename       string        `hcl:"input_filename,optional"`
	OutputFilename      string        `hcl:"output_filename,optional"`
	OutputGSR           string        `hcl:"output_gsr,optional"`
	OutputHist          string        `hcl:"output_hist,optional"`
	UseMPI              *bool         `hcl:"use_mpi,optional"`
	ParserName          string        `hcl:"parser_name,optional"`
	MaxWallclockSeconds int           `hcl:"max_wallclock_seconds,optional"`
	Resources           *hclResources `hcl:"resources,block"`
}

type hclResources struct {
	NumMachines           int `hcl:"num_machines,optional"`
	NumMPIProcsPerMachine int `hcl:"num_mpiprocs_per_machine,optional"`
}

type hclRestart struct {
	Host       string `hcl:"host"`
	RemotePath string `hcl:"remote_path"`
}

func decodeHCL(data []byte, filename string) (*model.Job, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var raw hclJob
	diags = gohcl.DecodeBody(file.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	if raw.Code == nil {
		return nil, fmt.Errorf("job %s: code block is required", filename)
	}
	code, err := codeReference(raw.Code.UUID, raw.Code.Host)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", filename, err)
	}

	job := &model.Job{
		Name:    raw.Name,
		Code:    code,
		Pseudos: raw.Pseudos,
		Extras:  raw.Extras,
	}
	if raw.Parameters != nil {
		params, err := decodeParameters(raw.Parameters.Body)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", filename, err)
		}
		job.Parameters = params
	}
	if s := raw.Structure; s != nil {
		job.Structure = &model.Structure{Cell: s.Cell}
		for _, site := range s.Sites {
			job.Structure.Sites = append(job.Structure.Sites, model.Site{
				Kind:     site.Kind,
				Symbol:   site.Symbol,
				Position: site.Position,
			})
		}
	}
	if o := raw.Options; o != nil {
		job.Options = model.ExecutionOptions{
			InputFilename:       o.InputFilename,
			OutputFilename:      o.OutputFilename,
			OutputGSR:           o.OutputGSR,
			OutputHist:          o.OutputHist,
			UseMPI:              o.UseMPI,
			ParserName:          o.ParserName,
			MaxWallclockSeconds: o.MaxWallclockSeconds,
		}
		if o.Resources != nil {
			job.Options.Resources = model.Resources{
				NumMachines:           o.Resources.NumMachines,
				NumMPIProcsPerMachine: o.Resources.NumMPIProcsPerMachine,
			}
		}
	}
	if r := raw.Restart; r != nil {
		job.Restart = &model.RestartReference{Host: r.Host, RemotePath: r.RemotePath}
	}
	return job, nil
}

func decodeParameters(body hcl.Body) (*model.ParameterSet, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("parameters: %w", diags)
	}

	ordered := make([]*hcl.Attribute, 0, len(attrs))
	for _, a := range attrs {
		ordered = append(ordered, a)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Range.Start.Byte < ordered[j].Range.Start.Byte
	})

	params := model.NewParameterSet()
	for _, a := range ordered {
		val, diags := a.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parameter %q: %w", a.Name, diags)
		}
		v, err := ctyToGo(val)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", a.Name, err)
		}
		params.Set(a.Name, v)
	}
	return params, nil
}

// ctyToGo converts a cty.Value to plain Go values. Whole numbers that fit in
// an int become int, other numbers float64.
func ctyToGo(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	if ty.IsPrimitiveType() {
		switch ty {
		case cty.String:
			return val.AsString(), nil
		case cty.Number:
			return number(val.AsBigFloat()), nil
		case cty.Bool:
			return val.True(), nil
		default:
			return nil, fmt.Errorf("unsupported primitive type: %s", ty.FriendlyName())
		}
	}
	if ty.IsObjectType() || ty.IsMapType() {
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			gv, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = gv
		}
		return out, nil
	}
	if ty.IsTupleType() || ty.IsListType() || ty.IsSetType() {
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			gv, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported cty.Type for conversion: %s", ty.FriendlyName())
}

func number(bf *big.Float) any {
	if bf.IsInt() {
		if i, acc := bf.Int64(); acc == big.Exact {
			return int(i)
		}
	}
	f, _ := bf.Float64()
	return f
}
