package domain

import "time"

type ExecMode string
type SplitMode string
type OutputFormat string

const (
	// ModeExec runs the command through the host shell and buffers output.
	ModeExec ExecMode = "exec"
	// ModeSpawn launches the program directly and accumulates streamed chunks.
	ModeSpawn ExecMode = "spawn"
)

const (
	SplitLiteral SplitMode = "literal"
	SplitShell   SplitMode = "shell"
)

const (
	FormatTUI  OutputFormat = "tui"
	FormatJSON OutputFormat = "json"
	FormatRaw  OutputFormat = "raw"
)

const (
	DefaultNodeName = "Execute Commander"
	DefaultExecMode = ModeExec
	DefaultSplit    = SplitLiteral
)

// Item is one opaque input item handed over by the workflow engine.
type Item map[string]any

// ExecutionRequest describes a single command launch.
type ExecutionRequest struct {
	Command    string
	Mode       ExecMode
	HideWindow bool
	Split      SplitMode
}

// ExecutionResult is the aggregated output of a successful launch.
type ExecutionResult struct {
	Stdout  string `json:"stdout"`
	Stderr  string `json:"stderr"`
	Command string `json:"command"`
}

type RunPolicy struct {
	RunOnce        bool
	ContinueOnFail bool
}

// NodeConfig holds the node parameters as configured in the workflow.
type NodeConfig struct {
	Name           string
	RunOnce        bool
	HideWindow     bool
	ExecMode       ExecMode
	Command        string
	ContinueOnFail bool
	Split          SplitMode
	Format         OutputFormat
}

func (c *NodeConfig) Policy() RunPolicy {
	return RunPolicy{RunOnce: c.RunOnce, ContinueOnFail: c.ContinueOnFail}
}

type PairedItem struct {
	Item int `json:"item"`
}

// Record is one output entry, paired with the input item it came from.
// Exactly one of Result and Error is set.
type Record struct {
	Result     *ExecutionResult
	Error      string
	PairedItem PairedItem
}

func (r Record) Failed() bool {
	return r.Result == nil
}

// JSON returns the payload the workflow engine sees for this record.
func (r Record) JSON() any {
	if r.Result != nil {
		return r.Result
	}
	return map[string]string{"error": r.Error}
}

// Execution is one launch of the command: a single one covering every item
// in run-once mode, or one per item otherwise.
type Execution struct {
	ID      int
	Items   []int
	Command string
}

// Outcome is what one Execution produced. Err is the failure, if any, even
// when it was recovered into error records.
type Outcome struct {
	Records  []Record
	Err      error
	ExitCode int
	Duration time.Duration
}

func (o Outcome) Success() bool {
	return o.Err == nil
}
