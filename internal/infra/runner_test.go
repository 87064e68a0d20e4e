package infra

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msaeedsaeedi/commander/internal/domain"
)

type fakeLauncher struct {
	stdout, stderr string
	exitCode       int
	err            error
	chunks         []Chunk

	bufferedCommand string
	program         string
	args            []string
	opts            LaunchOptions
}

func (f *fakeLauncher) RunBuffered(_ context.Context, command string, opts LaunchOptions) (string, string, int, error) {
	f.bufferedCommand = command
	f.opts = opts
	return f.stdout, f.stderr, f.exitCode, f.err
}

func (f *fakeLauncher) RunStreamed(_ context.Context, program string, args []string, opts LaunchOptions, onChunk func(Chunk)) (int, error) {
	f.program = program
	f.args = args
	f.opts = opts
	for _, c := range f.chunks {
		onChunk(c)
	}
	return f.exitCode, f.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestCommandRunner_Buffered(t *testing.T) {
	launcher := &fakeLauncher{stdout: "hello\n", stderr: "warn\n"}
	runner := NewCommandRunner(launcher, quietLogger())

	var observed bytes.Buffer
	res, err := runner.Run(context.Background(), domain.ExecutionRequest{
		Command:    "echo hello",
		Mode:       domain.ModeExec,
		HideWindow: true,
	}, &observed, nil)

	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionResult{Stdout: "hello\n", Stderr: "warn\n", Command: "echo hello"}, res)
	assert.Equal(t, "echo hello", launcher.bufferedCommand)
	assert.True(t, launcher.opts.HideWindow)
	assert.Same(t, &observed, launcher.opts.Stdout)
}

func TestCommandRunner_BufferedNonZeroExit(t *testing.T) {
	launcher := &fakeLauncher{stdout: "partial", stderr: "bad thing\n", exitCode: 2}
	runner := NewCommandRunner(launcher, quietLogger())

	res, err := runner.Run(context.Background(), domain.ExecutionRequest{Command: "false", Mode: domain.ModeExec}, nil, nil)

	require.Error(t, err)
	assert.Equal(t, domain.ExecutionResult{}, res)
	assert.Equal(t, "Command failed: false\nbad thing\n", err.Error())

	var failure *domain.ExecutionFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, domain.NonZeroExit, failure.Kind)
	assert.Equal(t, 2, failure.ExitCode)
}

func TestCommandRunner_BufferedLaunchError(t *testing.T) {
	launcher := &fakeLauncher{exitCode: -1, err: errors.New("fork/exec /bin/sh: no such file or directory")}
	runner := NewCommandRunner(launcher, quietLogger())

	_, err := runner.Run(context.Background(), domain.ExecutionRequest{Command: "ls", Mode: domain.ModeExec}, nil, nil)

	var failure *domain.ExecutionFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, domain.LaunchFailure, failure.Kind)
	assert.Equal(t, "fork/exec /bin/sh: no such file or directory", err.Error())
}

func TestCommandRunner_Streamed(t *testing.T) {
	launcher := &fakeLauncher{chunks: []Chunk{
		{Stream: Stdout, Data: []byte("one ")},
		{Stream: Stderr, Data: []byte("oops")},
		{Stream: Stdout, Data: []byte("two")},
	}}
	runner := NewCommandRunner(launcher, quietLogger())

	res, err := runner.Run(context.Background(), domain.ExecutionRequest{
		Command: "printf one two",
		Mode:    domain.ModeSpawn,
		Split:   domain.SplitLiteral,
	}, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, "printf", launcher.program)
	assert.Equal(t, []string{"one", "two"}, launcher.args)
	assert.Equal(t, "one two", res.Stdout)
	assert.Equal(t, "oops", res.Stderr)
	assert.Equal(t, "printf one two", res.Command)
}

func TestCommandRunner_StreamedNonZeroExit(t *testing.T) {
	launcher := &fakeLauncher{exitCode: 7, chunks: []Chunk{{Stream: Stdout, Data: []byte("ignored")}}}
	runner := NewCommandRunner(launcher, quietLogger())

	res, err := runner.Run(context.Background(), domain.ExecutionRequest{Command: "tool --x", Mode: domain.ModeSpawn}, nil, nil)

	require.Error(t, err)
	assert.Equal(t, "Command exited with code 7", err.Error())
	assert.Empty(t, res.Stdout)
}

func TestCommandRunner_StreamedSplitModes(t *testing.T) {
	launcher := &fakeLauncher{}
	runner := NewCommandRunner(launcher, quietLogger())

	_, err := runner.Run(context.Background(), domain.ExecutionRequest{
		Command: `grep "two words" file.txt`,
		Mode:    domain.ModeSpawn,
		Split:   domain.SplitShell,
	}, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, "grep", launcher.program)
	assert.Equal(t, []string{"two words", "file.txt"}, launcher.args)
}

func TestCommandRunner_StreamedStreamFailure(t *testing.T) {
	launcher := &fakeLauncher{exitCode: -1, err: domain.NewStreamFailure(io.ErrUnexpectedEOF)}
	runner := NewCommandRunner(launcher, quietLogger())

	_, err := runner.Run(context.Background(), domain.ExecutionRequest{Command: "cat", Mode: domain.ModeSpawn}, nil, nil)

	var failure *domain.ExecutionFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, domain.StreamFailure, failure.Kind)
}

func TestCommandRunner_RejectsBadRequests(t *testing.T) {
	launcher := &fakeLauncher{}
	runner := NewCommandRunner(launcher, quietLogger())

	tests := []domain.ExecutionRequest{
		{Command: "", Mode: domain.ModeExec},
		{Command: "  ", Mode: domain.ModeSpawn},
		{Command: "ls", Mode: "fork"},
		{Command: " ls", Mode: domain.ModeSpawn, Split: domain.SplitLiteral},
	}
	for _, req := range tests {
		_, err := runner.Run(context.Background(), req, nil, nil)
		var failure *domain.ExecutionFailure
		require.True(t, errors.As(err, &failure), "request %+v", req)
		assert.Equal(t, domain.LaunchFailure, failure.Kind)
	}
	assert.Empty(t, launcher.bufferedCommand)
	assert.Empty(t, launcher.program)
}

func TestCommandRunner_StreamedSignalKeepsName(t *testing.T) {
	launcher := &fakeLauncher{exitCode: -1, err: domain.NewSignalFailure("terminated")}
	runner := NewCommandRunner(launcher, quietLogger())

	_, err := runner.Run(context.Background(), domain.ExecutionRequest{Command: "sleep 60", Mode: domain.ModeSpawn}, nil, nil)

	var failure *domain.ExecutionFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "Command exited with code -1", err.Error())
	assert.Equal(t, "terminated", failure.Signal)
}
