package shell_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tea/internal/adapters/shell"
	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/ports"
	"go.trai.ch/tea/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func TestRunner_MultiLineOutput(t *testing.T) {
	var _ ports.CommandRunner = (*shell.Runner)(nil)

	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	gomock.InOrder(
		mockLogger.EXPECT().Info("line1"),
		mockLogger.EXPECT().Info("line2"),
	)

	runner := shell.NewRunner(mockLogger)
	err := runner.Run(t.Context(), t.TempDir(), []string{"sh", "-c", "echo line1; echo line2"}, domain.Env{})
	require.NoError(t, err)
}

func TestRunner_FragmentedOutput(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Info("part1part2").Times(1)
	mockLogger.EXPECT().Info("tail").Times(1)

	runner := shell.NewRunner(mockLogger)
	err := runner.Run(t.Context(), t.TempDir(), []string{"sh", "-c", "printf part1; sleep 0.1; echo part2; printf tail"}, domain.Env{})
	require.NoError(t, err)
}

func TestRunner_StderrIsWarning(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn("Already up to date.").Times(1)

	runner := shell.NewRunner(mockLogger)
	err := runner.Run(t.Context(), t.TempDir(), []string{"sh", "-c", "echo 'Already up to date.' >&2"}, domain.Env{})
	require.NoError(t, err)
}

func TestRunner_Environment(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)

	t.Setenv("TEA_TEST_PATHS", "/inherited")
	bin := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bin, "hello-tea"), []byte("#!/bin/sh\necho hello from tea\n"), domain.ExecPerm))

	var env domain.Env
	env.Add("TEA_TEST_PATHS", "/a", "/b")
	env.Add("PATH", bin)

	mockLogger.EXPECT().Info("/a:/b:/inherited").Times(1)
	mockLogger.EXPECT().Info("hello from tea").Times(1)

	runner := shell.NewRunner(mockLogger)
	require.NoError(t, runner.Run(t.Context(), t.TempDir(), []string{"sh", "-c", "echo $TEA_TEST_PATHS"}, env))
	require.NoError(t, runner.Run(t.Context(), t.TempDir(), []string{"hello-tea"}, env))
}

func TestRunner_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	runner := shell.NewRunner(nil).WithStdio(nil, &out, &out)
	require.NoError(t, runner.Run(t.Context(), dir, []string{"pwd"}, domain.Env{}))

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRunner_Failure(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)

	runner := shell.NewRunner(mockLogger)
	err := runner.Run(t.Context(), t.TempDir(), []string{"sh", "-c", "exit 42"}, domain.Env{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command failed")

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok)
	assert.Equal(t, 42, zErr.Metadata()["exit_code"])
}

func TestRunner_InvalidCommand(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)

	runner := shell.NewRunner(mockLogger)
	err := runner.Run(t.Context(), t.TempDir(), []string{"nonexistent-command-xyz123"}, domain.Env{})
	assert.Error(t, err)

	assert.Error(t, runner.Run(t.Context(), t.TempDir(), nil, domain.Env{}))
}

func TestRunner_Vertex(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Info("synced").Times(1)

	var vout, verr bytes.Buffer
	vertex := mocks.NewMockVertex(ctrl)
	vertex.EXPECT().Stdout().Return(&vout)
	vertex.EXPECT().Stderr().Return(&verr)

	ctx := ports.ContextWithVertex(t.Context(), vertex)
	runner := shell.NewRunner(mockLogger)
	require.NoError(t, runner.Run(ctx, t.TempDir(), []string{"sh", "-c", "echo synced"}, domain.Env{}))

	assert.Equal(t, "synced\n", vout.String())
}
