package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msaeedsaeedi/commander/internal/domain"
)

func TestEncodeRecords(t *testing.T) {
	var buf bytes.Buffer
	result := &domain.ExecutionResult{Stdout: "x\n", Stderr: "", Command: "echo x"}
	err := EncodeRecords(&buf, []domain.Record{
		{Result: result, PairedItem: domain.PairedItem{Item: 0}},
		{Error: "Command exited with code 1", PairedItem: domain.PairedItem{Item: 1}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"json": {"stdout": "x\n", "stderr": "", "command": "echo x"}, "pairedItem": {"item": 0}},
		{"json": {"error": "Command exited with code 1"}, "pairedItem": {"item": 1}}
	]`, buf.String())
}

func TestEncodeRecords_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeRecords(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(&buf)
	exec := domain.Execution{ID: 1, Items: []int{0}}
	f.OnStart(exec)
	f.OnComplete(exec, domain.Outcome{Records: []domain.Record{{Error: "boom"}}})

	f.OnFinish(errors.New("aborted"))
	assert.Empty(t, buf.String())

	f.OnFinish(nil)
	assert.JSONEq(t, `[{"json": {"error": "boom"}, "pairedItem": {"item": 0}}]`, buf.String())
}

func TestRawFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewRawFormatter(&buf)
	exec := domain.Execution{ID: 2, Items: []int{1}}

	f.OnStart(exec)
	f.OnComplete(exec, domain.Outcome{
		Err:      domain.NewExitFailure(3),
		ExitCode: 3,
		Records:  []domain.Record{{Error: "Command exited with code 3"}},
	})
	f.OnFinish(errors.New("Command execution failed: x"))

	out := buf.String()
	assert.Contains(t, out, "[ Run 2: item 1 ]")
	assert.Contains(t, out, "FAILED: exit code 3")
	assert.Contains(t, out, "(recorded for 1 item(s))")
	assert.Contains(t, out, "[ Aborted: Command execution failed: x ]")
}

func TestDescribeItems(t *testing.T) {
	assert.Equal(t, "no items", describeItems(nil))
	assert.Equal(t, "item 4", describeItems([]int{4}))
	assert.Equal(t, "items 0-2", describeItems([]int{0, 1, 2}))
}

func TestModel_RunOnceLayout(t *testing.T) {
	cfg := &domain.NodeConfig{RunOnce: true, Command: "echo hi"}
	m := NewModel(cfg, 3)

	require.Len(t, m.executions, 1)
	assert.Equal(t, []int{0, 1, 2}, m.executions[0].items)
	assert.Equal(t, "echo hi", m.executions[0].command)
}

func TestModel_Lifecycle(t *testing.T) {
	cfg := &domain.NodeConfig{RunOnce: false}
	m := NewModel(cfg, 3)
	require.Len(t, m.executions, 3)

	first := domain.Execution{ID: 1, Items: []int{0}, Command: "echo a"}
	second := domain.Execution{ID: 2, Items: []int{1}, Command: "echo b"}

	m.Update(startMsg{exec: first})
	assert.Equal(t, statusRunning, m.executions[0].status)
	assert.Equal(t, "echo a", m.executions[0].command)

	m.Update(streamMsg{text: "line one\nline two\n", execID: 1})
	assert.Len(t, m.logs[1], 2)

	m.Update(completeMsg{exec: first, outcome: domain.Outcome{Duration: time.Second}})
	assert.Equal(t, statusSuccess, m.executions[0].status)

	m.Update(startMsg{exec: second})
	m.Update(completeMsg{exec: second, outcome: domain.Outcome{
		Err:      domain.NewExitFailure(1),
		ExitCode: 1,
		Records:  []domain.Record{{Error: "Command exited with code 1"}},
	}})
	assert.Equal(t, statusRecovered, m.executions[1].status)
	assert.Equal(t, 1, m.executions[1].exitCode)

	m.Update(finishMsg{err: errors.New("stop")})
	assert.True(t, m.finished)
	assert.Equal(t, statusSkipped, m.executions[2].status)
	assert.Equal(t, 2, m.completed)
}

func TestModel_FailedAndView(t *testing.T) {
	cfg := &domain.NodeConfig{RunOnce: false}
	m := NewModel(cfg, 2)
	assert.Equal(t, "Initializing...", m.View())

	exec := domain.Execution{ID: 1, Items: []int{0}, Command: "false"}
	m.Update(startMsg{exec: exec})
	m.Update(completeMsg{exec: exec, outcome: domain.Outcome{Err: domain.NewExitFailure(1), ExitCode: 1}})
	assert.Equal(t, statusFailed, m.executions[0].status)

	m.Update(finishMsg{err: errors.New("Command execution failed: Command exited with code 1\nstderr details")})
	m.Update(tea.WindowSizeMsg{Width: 200, Height: 40})

	view := m.View()
	assert.Contains(t, view, "Aborted: Command execution failed: Command exited with code 1")
	assert.NotContains(t, view, "stderr details")
}

func TestModel_Navigation(t *testing.T) {
	m := NewModel(&domain.NodeConfig{RunOnce: false}, 3)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Equal(t, 2, m.selected)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	assert.Equal(t, 1, m.selected)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.NotNil(t, cmd)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "a", firstLine("a\nb"))
	assert.Equal(t, "abc", firstLine("abc"))
}
