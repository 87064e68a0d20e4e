package app

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/msaeedsaeedi/commander/internal/domain"
)

type ResultHandler interface {
	OnStart(exec domain.Execution)
	OnComplete(exec domain.Execution, outcome domain.Outcome)
	OnFinish(err error)
	GetOutputWriters() (stdout, stderr io.Writer)
}

// Runner is the command-running capability the executor drives.
type Runner interface {
	Run(ctx context.Context, req domain.ExecutionRequest, stdout, stderr io.Writer) (domain.ExecutionResult, error)
}

type Executor interface {
	Execute(ctx context.Context, cfg *domain.NodeConfig, items []domain.Item, handler ResultHandler) ([]domain.Record, error)
}

// SequentialExecutor applies the run policy over the input items. It never
// has more than one command in flight.
type SequentialExecutor struct {
	runner Runner
	log    logrus.FieldLogger
}

func NewSequentialExecutor(runner Runner, log logrus.FieldLogger) *SequentialExecutor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SequentialExecutor{
		runner: runner,
		log:    log,
	}
}

func (e *SequentialExecutor) Execute(ctx context.Context, cfg *domain.NodeConfig, items []domain.Item, handler ResultHandler) ([]domain.Record, error) {
	source := NewItemCommandSource(cfg.Command, items)

	var (
		records []domain.Record
		err     error
	)
	if cfg.RunOnce {
		records, err = e.runOnce(ctx, cfg, source, len(items), handler)
	} else {
		records, err = e.runPerItem(ctx, cfg, source, len(items), handler)
	}

	handler.OnFinish(err)
	return records, err
}

func (e *SequentialExecutor) runOnce(ctx context.Context, cfg *domain.NodeConfig, source CommandSource, n int, handler ResultHandler) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	command, resolveErr := source.Command(0)
	exec := domain.Execution{ID: 1, Items: indices, Command: command}
	handler.OnStart(exec)

	result, elapsed, runErr := e.launch(ctx, cfg, command, resolveErr, handler)
	outcome := domain.Outcome{Err: runErr, ExitCode: exitCode(runErr), Duration: elapsed}
	log := e.log.WithField("items", n)

	if runErr == nil {
		outcome.Records = make([]domain.Record, 0, n)
		for i := 0; i < n; i++ {
			r := result
			outcome.Records = append(outcome.Records, domain.Record{Result: &r, PairedItem: domain.PairedItem{Item: i}})
		}
		handler.OnComplete(exec, outcome)
		log.Info("command completed")
		return outcome.Records, nil
	}

	if cfg.ContinueOnFail && !isCancelled(ctx, runErr) {
		outcome.Records = make([]domain.Record, 0, n)
		for i := 0; i < n; i++ {
			outcome.Records = append(outcome.Records, domain.Record{Error: runErr.Error(), PairedItem: domain.PairedItem{Item: i}})
		}
		handler.OnComplete(exec, outcome)
		log.WithError(runErr).Warn("command failed, continuing")
		return outcome.Records, nil
	}

	handler.OnComplete(exec, outcome)
	if isCancelled(ctx, runErr) {
		return nil, ctx.Err()
	}
	log.WithError(runErr).Error("command failed, aborting")
	return nil, domain.NewOperationError(cfg.Name, 0, runErr)
}

func (e *SequentialExecutor) runPerItem(ctx context.Context, cfg *domain.NodeConfig, source CommandSource, n int, handler ResultHandler) ([]domain.Record, error) {
	records := make([]domain.Record, 0, n)

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return records, ctx.Err()
		default:
		}

		command, resolveErr := source.Command(i)
		exec := domain.Execution{ID: i + 1, Items: []int{i}, Command: command}
		handler.OnStart(exec)

		result, elapsed, runErr := e.launch(ctx, cfg, command, resolveErr, handler)
		outcome := domain.Outcome{Err: runErr, ExitCode: exitCode(runErr), Duration: elapsed}
		log := e.log.WithField("item", i)

		if runErr == nil {
			r := result
			outcome.Records = []domain.Record{{Result: &r, PairedItem: domain.PairedItem{Item: i}}}
			records = append(records, outcome.Records...)
			handler.OnComplete(exec, outcome)
			log.Debug("item completed")
			continue
		}

		if cfg.ContinueOnFail && !isCancelled(ctx, runErr) {
			outcome.Records = []domain.Record{{Error: runErr.Error(), PairedItem: domain.PairedItem{Item: i}}}
			records = append(records, outcome.Records...)
			handler.OnComplete(exec, outcome)
			log.WithError(runErr).Warn("item failed, continuing")
			continue
		}

		handler.OnComplete(exec, outcome)
		if isCancelled(ctx, runErr) {
			return records, ctx.Err()
		}
		log.WithError(runErr).Error("item failed, aborting")
		return records, domain.NewOperationError(cfg.Name, i, runErr)
	}

	return records, nil
}

// launch runs one command. resolveErr is a failure to determine the command
// for the item and is reported like any other launch failure.
func (e *SequentialExecutor) launch(ctx context.Context, cfg *domain.NodeConfig, command string, resolveErr error, handler ResultHandler) (domain.ExecutionResult, time.Duration, error) {
	if resolveErr != nil {
		return domain.ExecutionResult{}, 0, domain.NewLaunchFailure(resolveErr)
	}

	req := domain.ExecutionRequest{
		Command:    command,
		Mode:       cfg.ExecMode,
		HideWindow: cfg.HideWindow,
		Split:      cfg.Split,
	}

	stdoutWriter, stderrWriter := handler.GetOutputWriters()
	started := time.Now()
	result, err := e.runner.Run(ctx, req, stdoutWriter, stderrWriter)
	return result, time.Since(started), err
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var failure *domain.ExecutionFailure
	if errors.As(err, &failure) {
		return failure.ExitCode
	}
	return -1
}

func isCancelled(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil
}

func NewExecutor(runner Runner, log logrus.FieldLogger) Executor {
	return NewSequentialExecutor(runner, log)
}
