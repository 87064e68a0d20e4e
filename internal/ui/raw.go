package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/msaeedsaeedi/commander/internal/domain"
)

// RawFormatter passes child output straight through to the terminal and
// reports status lines on a separate writer.
type RawFormatter struct {
	status io.Writer
}

func NewRawFormatter(status io.Writer) *RawFormatter {
	if status == nil || status == os.Stdout {
		status = os.Stderr
	}
	return &RawFormatter{status: status}
}

func (f *RawFormatter) GetOutputWriters() (stdout, stderr io.Writer) {
	return os.Stdout, os.Stderr
}

func (f *RawFormatter) OnStart(exec domain.Execution) {
	fmt.Fprintf(f.status, "[ Run %d: %s ]\n", exec.ID, describeItems(exec.Items))
}

func (f *RawFormatter) OnComplete(exec domain.Execution, outcome domain.Outcome) {
	fmt.Fprintf(f.status, "[ Run %d completed in %v", exec.ID, outcome.Duration)

	if !outcome.Success() {
		fmt.Fprintf(f.status, " - FAILED: exit code %d, error: %v", outcome.ExitCode, outcome.Err)
		if len(outcome.Records) > 0 {
			fmt.Fprintf(f.status, " (recorded for %d item(s))", len(outcome.Records))
		}
	} else {
		fmt.Fprintf(f.status, " - SUCCESS")
	}
	fmt.Fprintln(f.status, " ]")
}

func (f *RawFormatter) OnFinish(err error) {
	if err != nil {
		fmt.Fprintf(f.status, "[ Aborted: %v ]\n", err)
	}
}

func describeItems(items []int) string {
	switch len(items) {
	case 0:
		return "no items"
	case 1:
		return fmt.Sprintf("item %d", items[0])
	default:
		return fmt.Sprintf("items %d-%d", items[0], items[len(items)-1])
	}
}
