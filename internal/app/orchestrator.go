package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/msaeedsaeedi/commander/internal/domain"
	"github.com/msaeedsaeedi/commander/internal/infra"
	"github.com/msaeedsaeedi/commander/internal/ui"
)

type Orchestrator struct {
	validator *domain.ConfigValidator
	runner    Runner
	log       logrus.FieldLogger
	out       io.Writer
}

func NewOrchestrator(log logrus.FieldLogger) *Orchestrator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Orchestrator{
		validator: domain.NewConfigValidator(),
		runner:    infra.NewCommandRunner(infra.NewOSLauncher(), log),
		log:       log,
		out:       os.Stdout,
	}
}

// WithRunner swaps the command runner, mainly for tests.
func (o *Orchestrator) WithRunner(r Runner) *Orchestrator {
	o.runner = r
	return o
}

// WithOutput redirects the json and raw handlers.
func (o *Orchestrator) WithOutput(w io.Writer) *Orchestrator {
	o.out = w
	return o
}

func (o *Orchestrator) Execute(ctx context.Context, cfg *domain.NodeConfig, items []domain.Item) ([]domain.Record, error) {
	if err := o.validator.Validate(cfg); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	log := o.log.WithFields(logrus.Fields{
		"run_id":   runID,
		"node":     cfg.Name,
		"run_once": cfg.RunOnce,
		"mode":     cfg.ExecMode,
	})
	log.Debugf("executing node over %d item(s)", len(items))

	executor := NewExecutor(o.runner, log)
	handler := o.getFormatter(cfg, items)

	if cfg.Format == domain.FormatTUI {
		tuiHandler, ok := handler.(*ui.TUIFormatter)
		if !ok {
			return nil, fmt.Errorf("tui formatter not available")
		}
		return o.executeTUI(ctx, executor, cfg, items, tuiHandler)
	}

	return executor.Execute(ctx, cfg, items, handler)
}

func (o *Orchestrator) executeTUI(ctx context.Context, executor Executor, cfg *domain.NodeConfig, items []domain.Item, tui *ui.TUIFormatter) ([]domain.Record, error) {
	ctxRun, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctxRun)

	// The TUI exiting (quit key) cancels the running command.
	g.Go(func() error {
		defer cancel()
		return tui.Run(gctx)
	})

	if err := tui.WaitReady(gctx); err != nil {
		return nil, err
	}

	var (
		records []domain.Record
		execErr error
	)
	g.Go(func() error {
		records, execErr = executor.Execute(gctx, cfg, items, tui)
		return nil
	})

	if err := g.Wait(); err != nil {
		return records, err
	}
	return records, execErr
}

func (o *Orchestrator) getFormatter(cfg *domain.NodeConfig, items []domain.Item) ResultHandler {
	switch cfg.Format {
	case domain.FormatRaw:
		return ui.NewRawFormatter(o.out)
	case domain.FormatJSON:
		return ui.NewJSONFormatter(o.out)
	case domain.FormatTUI:
		return ui.NewTUIFormatter(cfg, len(items))
	default:
		return ui.NewJSONFormatter(o.out)
	}
}
