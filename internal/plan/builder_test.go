package plan

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/abiprep/internal/model"
)

var codeUUID = uuid.MustParse("6f1d2c1e-8a4b-4f57-9f1e-3d0c5b2a7e10")

func TestBuild_NoRestart(t *testing.T) {
	b := NewBuilder(model.DefaultConventions())
	code := model.CodeReference{UUID: codeUUID, Host: "cluster"}

	got := b.Build(defaultOptions(), code, nil)

	want := model.ExecutionPlan{
		StagedFiles: []string{"aiida.in"},
		Codes: []model.CodeInfo{{
			CodeUUID:      codeUUID.String(),
			CmdlineParams: []string{"aiida.in"},
			StdinName:     "aiida.in",
			StdoutName:    "aiida.out",
			WithMPI:       true,
		}},
		StdinName:         "aiida.in",
		StdoutName:        "aiida.out",
		RetrieveList:      []string{"aiida.out", "aiidao_GSR.nc", "aiidao_HIST.nc"},
		LocalCopyList:     []model.LocalCopyEntry{},
		RemoteSymlinkList: []model.RemoteEntry{},
		RemoteCopyList:    []model.RemoteEntry{},
		Resources:         model.Resources{NumMachines: 1, NumMPIProcsPerMachine: 1},
		ParserName:        "abinit",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_RestartSameHostSymlinks(t *testing.T) {
	b := NewBuilder(model.DefaultConventions())
	code := model.CodeReference{UUID: codeUUID, Host: "cluster"}
	restart := &model.RestartReference{Host: "cluster", RemotePath: "/scratch/prev"}

	got := b.Build(defaultOptions(), code, restart)

	require.Len(t, got.RemoteSymlinkList, 1)
	assert.Empty(t, got.RemoteCopyList)
	assert.Equal(t, model.RemoteEntry{HostID: "cluster", RemotePath: "/scratch/prev", Alias: "parent_calc/"}, got.RemoteSymlinkList[0])
}

func TestBuild_RestartOtherHostCopies(t *testing.T) {
	b := NewBuilder(model.DefaultConventions())
	code := model.CodeReference{UUID: codeUUID, Host: "cluster"}
	restart := &model.RestartReference{Host: "archive", RemotePath: "/data/prev"}

	got := b.Build(defaultOptions(), code, restart)

	assert.Empty(t, got.RemoteSymlinkList)
	require.Len(t, got.RemoteCopyList, 1)
	assert.Equal(t, model.RemoteEntry{HostID: "archive", RemotePath: "/data/prev", Alias: "parent_calc/"}, got.RemoteCopyList[0])
}

func TestBuild_OverriddenNames(t *testing.T) {
	b := NewBuilder(model.DefaultConventions())
	useMPI := false
	opts := defaultOptions().Merge(model.ExecutionOptions{
		InputFilename:  "run.abi",
		OutputFilename: "run.abo",
		OutputGSR:      "run_GSR.nc",
		UseMPI:         &useMPI,
	})

	got := b.Build(opts, model.CodeReference{UUID: codeUUID, Host: "cluster"}, nil)

	assert.Equal(t, []string{"run.abi"}, got.StagedFiles)
	assert.Equal(t, []string{"run.abi"}, got.Codes[0].CmdlineParams)
	assert.Equal(t, "run.abi", got.Codes[0].StdinName)
	assert.Equal(t, "run.abo", got.Codes[0].StdoutName)
	assert.False(t, got.Codes[0].WithMPI)
	// retrieval names do not follow the overrides
	assert.Equal(t, []string{"aiida.out", "aiidao_GSR.nc", "aiidao_HIST.nc"}, got.RetrieveList)
}

func TestBuild_CustomConventions(t *testing.T) {
	conv := model.NewConventions("si", "prev")
	b := NewBuilder(conv)
	opts := model.DefaultExecutionOptions(conv)
	code := model.CodeReference{UUID: codeUUID, Host: "cluster"}

	got := b.Build(opts, code, &model.RestartReference{Host: "cluster", RemotePath: "/p"})

	assert.Equal(t, []string{"si.out", "sio_GSR.nc", "sio_HIST.nc"}, got.RetrieveList)
	assert.Equal(t, "prev/", got.RemoteSymlinkList[0].Alias)
}

func TestBuild_RetrieveListNotShared(t *testing.T) {
	b := NewBuilder(model.DefaultConventions())
	code := model.CodeReference{UUID: codeUUID, Host: "cluster"}

	first := b.Build(defaultOptions(), code, nil)
	first.RetrieveList[0] = "mutated"
	second := b.Build(defaultOptions(), code, nil)

	assert.Equal(t, "aiida.out", second.RetrieveList[0])
}

func TestPseudoCopies(t *testing.T) {
	b := NewBuilder(model.DefaultConventions())
	pseudos := map[string]string{
		"Ga": "/pp/Ga-sp.PSP8",
		"As": "/pp/JTH/As.xml",
	}

	got := b.PseudoCopies(pseudos, []string{"Ga", "As"})

	want := []model.LocalCopyEntry{
		{Source: "/pp/Ga-sp.PSP8", Target: "./pseudo/Ga.psp8"},
		{Source: "/pp/JTH/As.xml", Target: "./pseudo/As.xml"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PseudoCopies() mismatch (-want +got):\n%s", diff)
	}
}
