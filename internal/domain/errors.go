package domain

import "fmt"

type FailureKind int

const (
	LaunchFailure FailureKind = iota
	NonZeroExit
	StreamFailure
)

func (k FailureKind) String() string {
	switch k {
	case LaunchFailure:
		return "launch"
	case NonZeroExit:
		return "exit"
	case StreamFailure:
		return "stream"
	default:
		return "unknown"
	}
}

// ExecutionFailure is the only error returned by a command run. Error()
// is exactly Message; Kind and ExitCode are informational.
type ExecutionFailure struct {
	Kind     FailureKind
	Message  string
	ExitCode int
	// Signal names the signal that killed the process, when one did.
	Signal string
	Err    error
}

func (f *ExecutionFailure) Error() string {
	return f.Message
}

func (f *ExecutionFailure) Unwrap() error {
	return f.Err
}

func NewLaunchFailure(err error) *ExecutionFailure {
	return &ExecutionFailure{Kind: LaunchFailure, Message: err.Error(), ExitCode: -1, Err: err}
}

func NewStreamFailure(err error) *ExecutionFailure {
	return &ExecutionFailure{Kind: StreamFailure, Message: err.Error(), ExitCode: -1, Err: err}
}

// NewExitFailure reports a streamed process that exited with a non-zero code.
func NewExitFailure(code int) *ExecutionFailure {
	return &ExecutionFailure{
		Kind:     NonZeroExit,
		Message:  fmt.Sprintf("Command exited with code %d", code),
		ExitCode: code,
	}
}

// NewSignalFailure reports a streamed process killed by a signal. It has no
// exit code, so the message carries -1.
func NewSignalFailure(signal string) *ExecutionFailure {
	return &ExecutionFailure{
		Kind:     NonZeroExit,
		Message:  "Command exited with code -1",
		ExitCode: -1,
		Signal:   signal,
	}
}

// OperationErrorPrefix labels every failure escalated to the workflow engine.
const OperationErrorPrefix = "Command execution failed: "

// OperationError aborts the whole batch when continue-on-failure is off.
type OperationError struct {
	Node      string
	ItemIndex int
	Cause     error
}

func (e *OperationError) Error() string {
	return OperationErrorPrefix + e.Cause.Error()
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

func NewOperationError(node string, itemIndex int, cause error) *OperationError {
	return &OperationError{Node: node, ItemIndex: itemIndex, Cause: cause}
}
