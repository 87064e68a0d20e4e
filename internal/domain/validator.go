package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrEmptyCommand = errors.New("command cannot be empty")

type ConfigValidator struct{}

func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

func (v *ConfigValidator) Validate(cfg *NodeConfig) error {
	switch cfg.ExecMode {
	case ModeExec, ModeSpawn:
	default:
		return fmt.Errorf("unknown exec mode %q (want exec or spawn)", cfg.ExecMode)
	}

	switch cfg.Split {
	case SplitLiteral, SplitShell:
	default:
		return fmt.Errorf("unknown split mode %q (want literal or shell)", cfg.Split)
	}

	switch cfg.Format {
	case FormatJSON, FormatRaw, FormatTUI:
	default:
		return fmt.Errorf("unknown output format %q", cfg.Format)
	}

	if strings.TrimSpace(cfg.Command) == "" {
		return ErrEmptyCommand
	}

	return nil
}

func (v *ConfigValidator) ValidateRequest(req ExecutionRequest) error {
	if strings.TrimSpace(req.Command) == "" {
		return ErrEmptyCommand
	}
	if req.Mode != ModeExec && req.Mode != ModeSpawn {
		return fmt.Errorf("unknown exec mode %q", req.Mode)
	}
	return nil
}
