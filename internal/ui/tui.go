package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msaeedsaeedi/commander/internal/domain"
)

var (
	colorActiveBlue = lipgloss.Color("39")
	colorDimGray    = lipgloss.Color("240")
	colorGreen      = lipgloss.Color("42")
	colorRed        = lipgloss.Color("196")
	colorOrange     = lipgloss.Color("208")
	colorYellow     = lipgloss.Color("220")
	colorWhite      = lipgloss.Color("255")
	colorLightGray  = lipgloss.Color("250")

	styleBoldWhite = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	styleDim       = lipgloss.NewStyle().Foreground(colorDimGray)
	styleActive    = lipgloss.NewStyle().Foreground(colorActiveBlue).Bold(true)
	styleSuccess   = lipgloss.NewStyle().Foreground(colorGreen)
	styleFailure   = lipgloss.NewStyle().Foreground(colorRed)
	styleRecovered = lipgloss.NewStyle().Foreground(colorOrange)
	stylePending   = lipgloss.NewStyle().Foreground(colorDimGray)
	styleRunning   = lipgloss.NewStyle().Foreground(colorYellow)

	styleHelpKey  = lipgloss.NewStyle().Foreground(colorLightGray)
	styleHelpText = lipgloss.NewStyle().Foreground(colorDimGray)

	styleSidebar = lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
	styleMain    = lipgloss.NewStyle().PaddingLeft(4)
	styleFooter  = lipgloss.NewStyle().PaddingTop(1).PaddingLeft(1).PaddingBottom(1)
	styleScreen  = lipgloss.NewStyle().Margin(1, 2)
)

const (
	statusPending   = "pending"
	statusRunning   = "running"
	statusSuccess   = "success"
	statusRecovered = "recovered"
	statusFailed    = "failed"
	statusSkipped   = "skipped"
)

type TUIFormatter struct {
	model   *Model
	program *tea.Program
	execID  int64
	ready   chan struct{}
	once    sync.Once
}

type startMsg struct{ exec domain.Execution }
type completeMsg struct {
	exec    domain.Execution
	outcome domain.Outcome
}
type finishMsg struct{ err error }
type tickMsg time.Time

type streamMsg struct {
	text   string
	isErr  bool
	execID int
}

type tuiWriter struct {
	isErr     bool
	formatter *TUIFormatter
	execID    int
}

type executionState struct {
	id         int
	items      []int
	command    string
	status     string
	exitCode   int
	errMsg     string
	duration   time.Duration
	startedAt  time.Time
	finishedAt time.Time
}

type logLine struct {
	timestamp time.Time
	text      string
	isErr     bool
}

type Model struct {
	cfg                 *domain.NodeConfig
	completed           int
	finished            bool
	abortErr            error
	width               int
	height              int
	executions          []executionState
	selected            int
	logs                map[int][]logLine
	maxLinesPerExec     int
	scrollOffset        int
	sidebarScrollOffset int
	autoScroll          bool
	lastTickTime        time.Time
	spinner             spinner.Model
	mu                  sync.Mutex
}

// NewModel lays out one row per execution: a single row covering all
// items in run-once mode, one row per item otherwise.
func NewModel(cfg *domain.NodeConfig, itemCount int) *Model {
	var executions []executionState
	if cfg.RunOnce {
		items := make([]int, itemCount)
		for i := range items {
			items[i] = i
		}
		executions = []executionState{{id: 1, items: items, command: cfg.Command, status: statusPending}}
	} else {
		executions = make([]executionState, itemCount)
		for i := 0; i < itemCount; i++ {
			executions[i] = executionState{id: i + 1, items: []int{i}, status: statusPending}
		}
	}

	return &Model{
		cfg:             cfg,
		logs:            make(map[int][]logLine),
		maxLinesPerExec: 10000,
		executions:      executions,
		autoScroll:      true,
		spinner:         spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styleRunning)),
	}
}

func NewTUIFormatter(cfg *domain.NodeConfig, itemCount int) *TUIFormatter {
	return &TUIFormatter{model: NewModel(cfg, itemCount), ready: make(chan struct{})}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.spinner.Tick)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case startMsg:
		m.mu.Lock()
		if e := m.find(msg.exec.ID); e != nil {
			e.status = statusRunning
			e.command = msg.exec.Command
			e.startedAt = time.Now()
		}
		m.mu.Unlock()

	case completeMsg:
		m.mu.Lock()
		m.completed++
		if e := m.find(msg.exec.ID); e != nil {
			switch {
			case msg.outcome.Success():
				e.status = statusSuccess
			case len(msg.outcome.Records) > 0:
				e.status = statusRecovered
			default:
				e.status = statusFailed
			}
			if msg.outcome.Err != nil {
				e.errMsg = msg.outcome.Err.Error()
			}
			e.exitCode = msg.outcome.ExitCode
			e.duration = msg.outcome.Duration
			e.finishedAt = time.Now()
		}
		m.mu.Unlock()

	case finishMsg:
		m.mu.Lock()
		m.finished = true
		m.abortErr = msg.err
		for i := range m.executions {
			if m.executions[i].status == statusPending {
				m.executions[i].status = statusSkipped
			}
		}
		m.mu.Unlock()
		return m, nil

	case streamMsg:
		m.appendLog(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		m.mu.Lock()
		m.lastTickTime = time.Time(msg)
		active := !m.finished
		m.mu.Unlock()

		if active {
			return m, tick()
		}
		return m, nil

	case tea.KeyMsg:
		m.handleKey(msg.String())
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.mu.Lock()
		m.width = msg.Width
		m.height = msg.Height
		m.mu.Unlock()
	}

	return m, nil
}

func (m *Model) handleKey(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch key {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
			m.autoScroll = true
			if m.selected < m.sidebarScrollOffset {
				m.sidebarScrollOffset = m.selected
			}
		}
	case "down", "j":
		if m.selected < len(m.executions)-1 {
			m.selected++
			m.autoScroll = true
		}
	case "home":
		m.scrollOffset = 0
		m.autoScroll = false
	case "end":
		m.autoScroll = true
	case "pgup":
		m.scrollOffset = max(0, m.scrollOffset-10)
		m.autoScroll = false
	case "pgdown":
		m.scrollOffset += 10
		m.autoScroll = false
	}
}

func (m *Model) find(id int) *executionState {
	for i := range m.executions {
		if m.executions[i].id == id {
			return &m.executions[i]
		}
	}
	return nil
}

func (m *Model) View() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.width == 0 {
		return "Initializing..."
	}

	availWidth := max(20, m.width-4)
	availHeight := max(10, m.height-2)
	sidebarW := max(30, availWidth/4)
	mainW := availWidth - sidebarW - 1
	footerHeight := 3
	contentH := max(10, availHeight-footerHeight)

	sidebar := m.renderSidebar(sidebarW, contentH)
	mainPanel := m.renderMainPanel(mainW, contentH)
	footer := m.renderFooter(availWidth)

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, mainPanel)
	screen := lipgloss.JoinVertical(lipgloss.Left, body, footer)

	return styleScreen.Render(screen)
}

func (m *Model) renderSidebar(width, height int) string {
	var sb strings.Builder

	title := "ITEMS"
	if m.cfg.RunOnce {
		title = "EXECUTION"
	}
	sb.WriteString(styleBoldWhite.Render(title))
	sb.WriteString("\n\n")

	visibleLines := height - 4
	if m.selected >= m.sidebarScrollOffset+visibleLines {
		m.sidebarScrollOffset = m.selected - visibleLines + 1
	}

	startIdx := m.sidebarScrollOffset
	endIdx := min(len(m.executions), startIdx+visibleLines)

	if startIdx > 0 {
		sb.WriteString(styleDim.Render("  ▲ more above"))
		sb.WriteString("\n")
	}

	for i := startIdx; i < endIdx; i++ {
		sb.WriteString(m.renderExecutionLine(i))
		sb.WriteString("\n")
	}

	if endIdx < len(m.executions) {
		sb.WriteString(styleDim.Render("  ▼ more below"))
	}

	return styleSidebar.Width(width).MaxWidth(width).Height(height).Render(sb.String())
}

func (m *Model) renderExecutionLine(index int) string {
	e := m.executions[index]
	icon, code, rowStyle := m.statusDisplay(e)

	label := fmt.Sprintf("Item #%03d", e.items[0])
	if m.cfg.RunOnce {
		label = fmt.Sprintf("%d item(s)", len(e.items))
	}
	rowLeft := fmt.Sprintf("%-10s %s %-3s", label, icon, code)

	timeStr := ""
	if !e.startedAt.IsZero() {
		timeStr = e.startedAt.Format("15:04:05")
	}

	prefix := "  "
	if index == m.selected {
		prefix = "┃ "
		rowStyle = styleActive
	}
	if timeStr != "" {
		return rowStyle.Render(fmt.Sprintf("%s%-18s %s", prefix, rowLeft, timeStr))
	}
	return rowStyle.Render(prefix + rowLeft)
}

func (m *Model) statusDisplay(e executionState) (icon, code string, style lipgloss.Style) {
	switch e.status {
	case statusSuccess:
		return "✓", "0", styleSuccess
	case statusRecovered:
		return "!", fmt.Sprintf("%d", e.exitCode), styleRecovered
	case statusFailed:
		return "✗", fmt.Sprintf("%d", e.exitCode), styleFailure
	case statusRunning:
		return m.spinner.View(), "", styleRunning
	case statusSkipped:
		return "·", "", stylePending
	default:
		return "-", "", stylePending
	}
}

func (m *Model) renderMainPanel(width, height int) string {
	var main strings.Builder

	if m.selected >= len(m.executions) {
		return styleMain.Width(width).Render("")
	}

	e := m.executions[m.selected]

	main.WriteString(styleBoldWhite.Render(fmt.Sprintf("EXECUTION DETAILS: #%03d", e.id)))
	main.WriteString("\n\n")

	m.renderCommandSection(&main, e)
	m.renderStatusSection(&main, e)
	m.renderDurationSection(&main, e)
	m.renderLogsSection(&main, e, height)

	return styleMain.Width(width).Height(height).Render(main.String())
}

func (m *Model) renderCommandSection(w *strings.Builder, e executionState) {
	w.WriteString(styleBoldWhite.Render("Command"))
	command := e.command
	if command == "" {
		command = styleDim.Render("(resolved when the item runs)")
	}
	fmt.Fprintf(w, "\n  > %s\n", command)
	fmt.Fprintf(w, "  %s\n\n", styleDim.Render(fmt.Sprintf("mode %s, %d item(s)", m.cfg.ExecMode, len(e.items))))
}

func (m *Model) renderStatusSection(w *strings.Builder, e executionState) {
	w.WriteString(styleBoldWhite.Render("Status") + "\n")

	var statText string
	switch e.status {
	case statusSuccess:
		statText = styleSuccess.Render("Success (Exit Code: 0)")
	case statusRecovered:
		statText = styleRecovered.Render("Failed, recorded as error: " + firstLine(e.errMsg))
	case statusFailed:
		statText = styleFailure.Render("Failed: " + firstLine(e.errMsg))
	case statusRunning:
		statText = styleRunning.Render("Running...")
	case statusSkipped:
		statText = stylePending.Render("Not run (batch aborted)")
	default:
		statText = "Pending"
	}

	w.WriteString("  " + statText + "\n\n")
}

func (m *Model) renderDurationSection(w *strings.Builder, e executionState) {
	dur := time.Duration(0)

	if e.duration != 0 {
		dur = e.duration
	} else if e.status == statusRunning {
		if !m.lastTickTime.IsZero() {
			dur = m.lastTickTime.Sub(e.startedAt)
		} else {
			dur = time.Since(e.startedAt)
		}
	}

	w.WriteString(styleBoldWhite.Render("Duration") + "\n")
	if dur > 0 {
		w.WriteString(fmt.Sprintf("  %s\n\n", dur.Round(time.Millisecond)))
	} else {
		w.WriteString("  -\n\n")
	}
}

func (m *Model) renderLogsSection(w *strings.Builder, e executionState, contentHeight int) {
	w.WriteString(styleBoldWhite.Render("OUTPUT"))
	w.WriteString("\n")

	entries := m.logs[e.id]
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, entry.text)
	}

	logAreaHeight := max(5, contentHeight-16)
	total := len(lines)

	if m.autoScroll && total > logAreaHeight {
		m.scrollOffset = total - logAreaHeight
	}

	start := max(0, min(m.scrollOffset, total-logAreaHeight))
	end := min(total, start+logAreaHeight)

	rendered := 0
	for i := start; i < end; i++ {
		w.WriteString(lines[i] + "\n")
		rendered++
	}
	for rendered < logAreaHeight {
		w.WriteString("\n")
		rendered++
	}

	if end < total {
		w.WriteString(styleDim.Render("... (scroll down for more) ..."))
	} else {
		w.WriteString(" ")
	}
}

func (m *Model) renderFooter(width int) string {
	progressStr := fmt.Sprintf("%d/%d", m.completed, len(m.executions))
	stateStr := "Active"
	switch {
	case m.abortErr != nil:
		stateStr = styleFailure.Render("Aborted: " + firstLine(m.abortErr.Error()))
	case m.finished:
		stateStr = "Complete"
	}
	leftSection := styleHelpText.Render(progressStr+" ") + stateStr

	helpItems := []string{
		styleHelpKey.Render("↑/k") + styleHelpText.Render(" navigate"),
		styleHelpKey.Render("pgup/pgdn") + styleHelpText.Render(" scroll"),
		styleHelpKey.Render("q") + styleHelpText.Render(" quit"),
	}
	rightSection := strings.Join(helpItems, "   ")

	spacerWidth := max(2, width-lipgloss.Width(leftSection)-lipgloss.Width(rightSection)-4)

	return styleFooter.Width(width).Render(leftSection + strings.Repeat(" ", spacerWidth) + rightSection)
}

func (m *Model) appendLog(msg streamMsg) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lines := strings.Split(strings.TrimRight(msg.text, "\n"), "\n")
	timestamp := time.Now()

	for _, line := range lines {
		if line == "" {
			continue
		}

		ts := styleDim.Render("[" + timestamp.Format("15:04:05") + "] ")
		styled := styleDim.Render(line)
		if msg.isErr {
			styled = styleFailure.Render(line)
		}

		m.logs[msg.execID] = append(m.logs[msg.execID], logLine{
			timestamp: timestamp,
			text:      ts + styled,
			isErr:     msg.isErr,
		})

		if len(m.logs[msg.execID]) > m.maxLinesPerExec {
			m.logs[msg.execID] = m.logs[msg.execID][len(m.logs[msg.execID])-m.maxLinesPerExec:]
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func (f *TUIFormatter) Run(ctx context.Context) error {
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if ctx != nil {
		opts = append(opts, tea.WithContext(ctx))
	}

	f.program = tea.NewProgram(f.model, opts...)
	f.once.Do(func() { close(f.ready) })

	_, err := f.program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func (f *TUIFormatter) WaitReady(ctx context.Context) error {
	select {
	case <-f.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *TUIFormatter) send(msg tea.Msg) {
	if f.program != nil {
		f.program.Send(msg)
	}
}

func (f *TUIFormatter) OnStart(exec domain.Execution) {
	atomic.StoreInt64(&f.execID, int64(exec.ID))
	f.send(startMsg{exec: exec})
}

func (f *TUIFormatter) OnComplete(exec domain.Execution, outcome domain.Outcome) {
	f.send(completeMsg{exec: exec, outcome: outcome})
}

func (f *TUIFormatter) OnFinish(err error) {
	f.send(finishMsg{err: err})
}

func (f *TUIFormatter) GetOutputWriters() (stdout, stderr io.Writer) {
	id := int(atomic.LoadInt64(&f.execID))
	return &tuiWriter{isErr: false, formatter: f, execID: id},
		&tuiWriter{isErr: true, formatter: f, execID: id}
}

func (w *tuiWriter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		w.formatter.send(streamMsg{text: string(p), isErr: w.isErr, execID: w.execID})
	}
	return len(p), nil
}
