// Package plan builds execution plans and prepares job sandboxes: composed
// input file, plan manifest and restart continuity instructions.
package plan

import (
	"path/filepath"
	"strings"

	"github.com/msageha/abiprep/internal/model"
)

// Builder computes execution plans. It holds no mutable state.
type Builder struct {
	conv model.Conventions
}

func NewBuilder(conv model.Conventions) *Builder {
	return &Builder{conv: conv}
}

// Build returns the plan for one run of code with opts.
//
// The executable gets the input file as its only argument; stdin is bound to
// the same file but is not read. The retrieval list always holds the default
// output, GSR and HIST names, even when opts renames them. A restart from
// the same host becomes a symlink, from any other host a remote copy.
func (b *Builder) Build(opts model.ExecutionOptions, code model.CodeReference, restart *model.RestartReference) model.ExecutionPlan {
	p := model.ExecutionPlan{
		StagedFiles: []string{opts.InputFilename},
		Codes: []model.CodeInfo{{
			CodeUUID:      code.UUID.String(),
			CmdlineParams: []string{opts.InputFilename},
			StdinName:     opts.InputFilename,
			StdoutName:    opts.OutputFilename,
			WithMPI:       opts.WithMPI(),
		}},
		StdinName:           opts.InputFilename,
		StdoutName:          opts.OutputFilename,
		RetrieveList:        b.conv.RetrieveList(),
		LocalCopyList:       []model.LocalCopyEntry{},
		RemoteSymlinkList:   []model.RemoteEntry{},
		RemoteCopyList:      []model.RemoteEntry{},
		Resources:           opts.Resources,
		ParserName:          opts.ParserName,
		MaxWallclockSeconds: opts.MaxWallclockSeconds,
	}

	if restart != nil {
		entry := model.RemoteEntry{
			HostID:     restart.Host,
			RemotePath: restart.RemotePath,
			Alias:      b.conv.ParentFolder(),
		}
		if restart.Host == code.Host {
			p.RemoteSymlinkList = append(p.RemoteSymlinkList, entry)
		} else {
			p.RemoteCopyList = append(p.RemoteCopyList, entry)
		}
	}
	return p
}

// PseudoCopies returns the local copy entries staging each pseudopotential
// as "<pseudo folder><kind><ext>", in the order of kinds.
func (b *Builder) PseudoCopies(pseudos map[string]string, kinds []string) []model.LocalCopyEntry {
	out := make([]model.LocalCopyEntry, 0, len(kinds))
	for _, kind := range kinds {
		src := pseudos[kind]
		out = append(out, model.LocalCopyEntry{
			Source: src,
			Target: b.conv.PseudoFolder() + pseudoFilename(kind, src),
		})
	}
	return out
}

func pseudoFilename(kind, src string) string {
	return kind + strings.ToLower(filepath.Ext(src))
}
