package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/msaeedsaeedi/commander/internal/domain"
)

// RecordJSON is the wire shape of one output item as the workflow engine
// consumes it.
type RecordJSON struct {
	JSON       any               `json:"json"`
	PairedItem domain.PairedItem `json:"pairedItem"`
}

type JSONFormatter struct {
	out     io.Writer
	records []domain.Record
	mu      sync.Mutex
}

func NewJSONFormatter(out io.Writer) *JSONFormatter {
	if out == nil {
		out = os.Stdout
	}
	return &JSONFormatter{
		out:     out,
		records: make([]domain.Record, 0),
	}
}

func (f *JSONFormatter) GetOutputWriters() (stdout, stderr io.Writer) {
	return nil, nil
}

func (f *JSONFormatter) OnStart(exec domain.Execution) {
	// JSON formatter doesn't output progress
}

func (f *JSONFormatter) OnComplete(exec domain.Execution, outcome domain.Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, outcome.Records...)
}

// OnFinish writes the collected records. An aborted batch emits nothing;
// the error is reported by the caller instead.
func (f *JSONFormatter) OnFinish(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		return
	}

	if err := EncodeRecords(f.out, f.records); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON output: %v\n", err)
	}
}

func EncodeRecords(w io.Writer, records []domain.Record) error {
	out := make([]RecordJSON, 0, len(records))
	for _, r := range records {
		out = append(out, RecordJSON{JSON: r.JSON(), PairedItem: r.PairedItem})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
