package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/msaeedsaeedi/commander/internal/domain"
)

// CommandRunner executes one ExecutionRequest per call and aggregates its
// output. Every error it returns is a *domain.ExecutionFailure.
type CommandRunner struct {
	launcher  Launcher
	validator *domain.ConfigValidator
	log       logrus.FieldLogger
}

func NewCommandRunner(launcher Launcher, log logrus.FieldLogger) *CommandRunner {
	if launcher == nil {
		launcher = NewOSLauncher()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CommandRunner{
		launcher:  launcher,
		validator: domain.NewConfigValidator(),
		log:       log,
	}
}

// Run launches the command and blocks until it exits. stdoutWriter and
// stderrWriter, when set, see output as it is produced.
func (r *CommandRunner) Run(ctx context.Context, req domain.ExecutionRequest, stdoutWriter, stderrWriter io.Writer) (domain.ExecutionResult, error) {
	if err := r.validator.ValidateRequest(req); err != nil {
		return domain.ExecutionResult{}, domain.NewLaunchFailure(err)
	}

	opts := LaunchOptions{
		HideWindow: req.HideWindow,
		Stdout:     stdoutWriter,
		Stderr:     stderrWriter,
	}
	log := r.log.WithFields(logrus.Fields{"mode": req.Mode, "command": req.Command})

	var (
		result domain.ExecutionResult
		err    error
	)
	if req.Mode == domain.ModeSpawn {
		result, err = r.runStreamed(ctx, req, opts)
	} else {
		result, err = r.runBuffered(ctx, req, opts)
	}

	if err != nil {
		var failure *domain.ExecutionFailure
		if !errors.As(err, &failure) {
			failure = domain.NewLaunchFailure(err)
		}
		fields := logrus.Fields{"kind": failure.Kind, "exit_code": failure.ExitCode}
		if failure.Signal != "" {
			fields["signal"] = failure.Signal
		}
		log.WithFields(fields).Debug("command failed")
		return domain.ExecutionResult{}, failure
	}

	log.Debug("command succeeded")
	return result, nil
}

func (r *CommandRunner) runBuffered(ctx context.Context, req domain.ExecutionRequest, opts LaunchOptions) (domain.ExecutionResult, error) {
	stdout, stderr, code, err := r.launcher.RunBuffered(ctx, req.Command, opts)
	if err != nil {
		return domain.ExecutionResult{}, domain.NewLaunchFailure(err)
	}
	if code != 0 {
		return domain.ExecutionResult{}, &domain.ExecutionFailure{
			Kind:     domain.NonZeroExit,
			Message:  fmt.Sprintf("Command failed: %s\n%s", req.Command, stderr),
			ExitCode: code,
		}
	}
	return domain.ExecutionResult{Stdout: stdout, Stderr: stderr, Command: req.Command}, nil
}

func (r *CommandRunner) runStreamed(ctx context.Context, req domain.ExecutionRequest, opts LaunchOptions) (domain.ExecutionResult, error) {
	program, args, err := SplitCommand(req.Command, req.Split)
	if err != nil {
		return domain.ExecutionResult{}, domain.NewLaunchFailure(err)
	}

	var (
		mu             sync.Mutex
		stdout, stderr bytes.Buffer
	)
	onChunk := func(c Chunk) {
		mu.Lock()
		defer mu.Unlock()
		if c.Stream == Stderr {
			stderr.Write(c.Data)
		} else {
			stdout.Write(c.Data)
		}
	}

	code, err := r.launcher.RunStreamed(ctx, program, args, opts, onChunk)
	if err != nil {
		return domain.ExecutionResult{}, err
	}
	if code != 0 {
		return domain.ExecutionResult{}, domain.NewExitFailure(code)
	}

	mu.Lock()
	defer mu.Unlock()
	return domain.ExecutionResult{Stdout: stdout.String(), Stderr: stderr.String(), Command: req.Command}, nil
}
