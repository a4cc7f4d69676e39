package tui

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/BinToss/DeadLock/internal/acl"
	"github.com/BinToss/DeadLock/internal/errors"
	"github.com/BinToss/DeadLock/internal/locker"
	"github.com/BinToss/DeadLock/internal/logging"
	"github.com/BinToss/DeadLock/internal/output"
	"github.com/BinToss/DeadLock/pkg/model"
)

var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

var (
	accent  = lipgloss.Color("57")
	muted   = lipgloss.Color("240")
	bright  = lipgloss.Color("229")
	danger  = lipgloss.Color("160")
	success = lipgloss.Color("35")
)

// refreshInterval is how often idle paths are rescanned when not paused.
const refreshInterval = 5 * time.Second

type tickMsg time.Time

type scanDoneMsg struct {
	path   string
	result model.Result
	err    error
}

type modelState int

const (
	statePaths modelState = iota
	stateLockers
)

// entry is one watched path and what its last scan found.
type entry struct {
	wp     *model.WatchedPath
	result *model.Result
	err    error
	scan   *locker.Scan

	// shownRev is the revision of wp the table rows were last built from.
	shownRev uint64
}

type tuiModel struct {
	ctx      context.Context
	resolver *locker.Resolver
	logger   *logging.Logger

	state      modelState
	entries    []*entry
	table      table.Model
	spinner    spinner.Model
	pathInput  textinput.Model
	adding     bool
	selected   string
	paused     bool
	confirmDel string
	sortColumn int
	sortAsc    bool
	message    string
	msgTime    time.Time
	width      int
	height     int

	// rowPaths holds the unsanitized path behind each row of the paths view.
	rowPaths []string
}

func newModel(ctx context.Context, resolver *locker.Resolver, logger *logging.Logger) tuiModel {
	ti := textinput.New()
	ti.Placeholder = "Path to watch..."
	ti.CharLimit = 4096
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accent)

	if logger == nil {
		logger = logging.NopLogger()
	}
	m := tuiModel{
		ctx:       ctx,
		resolver:  resolver,
		logger:    logger.WithComponent("tui"),
		state:     statePaths,
		spinner:   sp,
		pathInput: ti,
		sortAsc:   true,
		height:    30,
	}
	m.initTable()
	return m
}

func (m *tuiModel) initTable() {
	var columns []table.Column
	switch m.state {
	case statePaths:
		columns = []table.Column{
			{Title: "Status", Width: 10},
			{Title: "Lockers", Width: 8},
			{Title: "Ownership", Width: 10},
			{Title: "Type", Width: 5},
			{Title: "Path", Width: 70},
		}
	case stateLockers:
		columns = []table.Column{
			{Title: "PID", Width: 8},
			{Title: "Process", Width: 20},
			{Title: "User", Width: 14},
			{Title: "Executable", Width: 40},
			{Title: "Locked Path", Width: 50},
		}
	}

	if m.sortColumn < len(columns) {
		indicator := " ↑"
		if !m.sortAsc {
			indicator = " ↓"
		}
		columns[m.sortColumn].Title += indicator
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.height-12, 5)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(muted).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(bright).
		Background(accent).
		Bold(true)
	t.SetStyles(s)

	m.table = t
	m.updateRows()
}

func (m tuiModel) Init() tea.Cmd {
	cmds := []tea.Cmd{tick(), m.spinner.Tick}
	for _, e := range m.entries {
		cmds = append(cmds, m.startScan(e))
	}
	return tea.Batch(cmds...)
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// addPath registers path and returns the command that scans it.
func (m *tuiModel) addPath(path string) tea.Cmd {
	wp, err := model.NewWatchedPath(path)
	if err != nil {
		m.flash(err.Error())
		return nil
	}
	if m.find(wp.Path()) != nil {
		m.flash("Already watching " + wp.Path())
		return nil
	}
	e := &entry{wp: wp}
	m.entries = append(m.entries, e)
	m.updateRows()
	return m.startScan(e)
}

// startScan runs the ownership check and lock scan for e off the UI
// goroutine. A path that is still being scanned is left alone.
func (m *tuiModel) startScan(e *entry) tea.Cmd {
	if e.scan != nil {
		return nil
	}
	scan := m.resolver.Start(m.ctx, e.wp)
	e.scan = scan
	wp, logger := e.wp, m.logger
	return func() tea.Msg {
		// account lookups for the access list can block on a domain controller
		acl.Check(wp, logger)
		res, err := scan.Wait()
		return scanDoneMsg{path: wp.Path(), result: res, err: err}
	}
}

func (m *tuiModel) rescanAll() tea.Cmd {
	var cmds []tea.Cmd
	for _, e := range m.entries {
		if cmd := m.startScan(e); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

func (m *tuiModel) find(path string) *entry {
	for _, e := range m.entries {
		if e.wp.Path() == path {
			return e
		}
	}
	return nil
}

func (m *tuiModel) remove(path string) {
	for i, e := range m.entries {
		if e.wp.Path() != path {
			continue
		}
		if e.scan != nil {
			e.scan.Cancel()
		}
		m.entries = append(m.entries[:i], m.entries[i+1:]...)
		break
	}
	if m.selected == path {
		m.selected = ""
		m.state = statePaths
		m.initTable()
	}
	m.updateRows()
}

// selectedPath is the path under the cursor in the paths view, or the path
// whose lockers are shown.
func (m *tuiModel) selectedPath() string {
	if m.state == stateLockers {
		return m.selected
	}
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rowPaths) {
		return ""
	}
	return m.rowPaths[i]
}

func (m *tuiModel) flash(msg string) {
	m.message = msg
	m.msgTime = time.Now()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.confirmDel != "" {
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "y", "Y":
				m.remove(m.confirmDel)
				m.confirmDel = ""
			case "n", "N", "esc":
				m.confirmDel = ""
			}
			return m, nil
		}
	}

	if m.adding {
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "enter":
				m.adding = false
				m.pathInput.Blur()
				path := strings.TrimSpace(m.pathInput.Value())
				m.pathInput.SetValue("")
				if path == "" {
					return m, nil
				}
				return m, m.addPath(path)
			case "esc":
				m.adding = false
				m.pathInput.Blur()
				m.pathInput.SetValue("")
				return m, nil
			}
		}
		m.pathInput, cmd = m.pathInput.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			for _, e := range m.entries {
				if e.scan != nil {
					e.scan.Cancel()
				}
			}
			return m, tea.Quit
		case "1", "esc":
			if m.state != statePaths {
				m.state = statePaths
				m.sortColumn = 0
				m.initTable()
			}
			return m, nil
		case "2", "enter":
			if path := m.selectedPath(); path != "" {
				m.selected = path
				m.state = stateLockers
				m.sortColumn = 0
				m.initTable()
			}
			return m, nil
		case "a":
			m.adding = true
			m.pathInput.Focus()
			return m, textinput.Blink
		case "r":
			if e := m.find(m.selectedPath()); e != nil {
				if e.scan != nil {
					m.flash("Scan already in progress")
					return m, nil
				}
				return m, m.startScan(e)
			}
			return m, nil
		case "R":
			return m, m.rescanAll()
		case "c":
			if e := m.find(m.selectedPath()); e != nil && e.scan != nil {
				e.scan.Cancel()
				m.flash("Cancelling scan of " + e.wp.Path())
			}
			return m, nil
		case "d":
			if path := m.selectedPath(); path != "" {
				m.confirmDel = path
			}
			return m, nil
		case "p":
			m.paused = !m.paused
			return m, nil
		case "s":
			m.sortColumn = (m.sortColumn + 1) % len(m.table.Columns())
			m.sortAsc = true
			m.initTable()
			return m, nil
		case "o":
			m.sortAsc = !m.sortAsc
			m.initTable()
			return m, nil
		case "S":
			m.saveSnapshot()
			return m, nil
		}
	case tickMsg:
		if m.paused {
			return m, tick()
		}
		return m, tea.Batch(tick(), m.rescanAll())
	case scanDoneMsg:
		if e := m.find(msg.path); e != nil {
			e.scan = nil
			e.err = msg.err
			if msg.err == nil {
				res := msg.result
				e.result = &res
			}
			switch {
			case errors.IsUserFacing(msg.err):
				m.flash(msg.path + ": " + msg.err.Error())
			case msg.err != nil:
				m.logger.Debug("scan failed", "path", msg.path, "error", msg.err)
			}
		}
		m.updateRows()
		return m, nil
	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		if m.rowsStale() {
			m.updateRows()
		}
		return m, cmd
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(m.height-12, 5))
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// rowsStale reports whether the table no longer matches the watched paths:
// a scan is running (its spinner animates) or a path changed since the rows
// were built.
func (m tuiModel) rowsStale() bool {
	for _, e := range m.entries {
		if e.scan != nil || e.wp.Revision() != e.shownRev {
			return true
		}
	}
	return false
}

func (m *tuiModel) updateRows() {
	for _, e := range m.entries {
		e.shownRev = e.wp.Revision()
	}

	type item struct {
		row  table.Row
		path string
	}
	var items []item
	numeric := map[int]bool{}

	switch m.state {
	case statePaths:
		numeric[1] = true
		for _, e := range m.entries {
			status := e.wp.Status().String()
			switch {
			case e.scan != nil:
				status = m.spinner.View() + " scan"
			case e.err != nil:
				status = "Error"
			}
			lockers := "-"
			if e.result != nil {
				lockers = strconv.Itoa(len(e.result.Lockers))
			}
			kind := "file"
			if e.wp.IsDir() {
				kind = "dir"
			}
			items = append(items, item{path: e.wp.Path(), row: table.Row{
				status,
				lockers,
				e.wp.Ownership().String(),
				kind,
				output.SanitizeTerminal(e.wp.Path()),
			}})
		}
	case stateLockers:
		numeric[0] = true
		if e := m.find(m.selected); e != nil && e.result != nil {
			for _, l := range e.result.Lockers {
				items = append(items, item{path: l.LockedPath, row: table.Row{
					strconv.Itoa(l.PID),
					output.SanitizeTerminal(l.ExecutableName),
					output.SanitizeTerminal(l.User),
					output.SanitizeTerminal(l.ExecutablePath),
					output.SanitizeTerminal(l.LockedPath),
				}})
			}
		}
	}

	if len(items) > 0 && m.sortColumn < len(m.table.Columns()) {
		sort.SliceStable(items, func(i, j int) bool {
			valI := items[i].row[m.sortColumn]
			valJ := items[j].row[m.sortColumn]

			if numeric[m.sortColumn] {
				numI, _ := strconv.Atoi(valI)
				numJ, _ := strconv.Atoi(valJ)
				if m.sortAsc {
					return numI < numJ
				}
				return numI > numJ
			}

			if m.sortAsc {
				return valI < valJ
			}
			return valI > valJ
		})
	}

	rows := make([]table.Row, len(items))
	m.rowPaths = make([]string, len(items))
	for i, it := range items {
		rows[i] = it.row
		m.rowPaths[i] = it.path
	}
	m.table.SetRows(rows)
}

func (m *tuiModel) saveSnapshot() {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("deadlock_snapshot_%s.md", timestamp)

	var content strings.Builder
	content.WriteString("# deadlock Snapshot - " + time.Now().Format(time.RFC1123) + "\n\n")

	for _, e := range m.entries {
		content.WriteString("## " + e.wp.Path() + "\n\n")
		if e.result == nil {
			content.WriteString("Not scanned yet.\n\n")
			continue
		}
		content.WriteString(fmt.Sprintf("Status: %s, Ownership: %s, %d files scanned\n\n", e.result.Status, e.wp.Ownership(), e.result.FilesScanned))
		if len(e.result.Lockers) == 0 {
			continue
		}
		content.WriteString("| PID | Process | User | Executable | Locked Path |\n")
		content.WriteString("| --- | --- | --- | --- | --- |\n")
		for _, l := range e.result.Lockers {
			content.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n", l.PID, l.ExecutableName, l.User, l.ExecutablePath, l.LockedPath))
		}
		content.WriteString("\n")
	}

	if err := os.WriteFile(filename, []byte(content.String()), 0644); err != nil {
		m.flash("Error saving snapshot: " + err.Error())
	} else {
		m.flash("Snapshot saved to " + filename)
	}
}

func (m tuiModel) scanning() int {
	n := 0
	for _, e := range m.entries {
		if e.scan != nil {
			n++
		}
	}
	return n
}

func (m tuiModel) View() string {
	var b strings.Builder

	title := "deadlock Interactive Mode"
	if m.paused {
		title += " (PAUSED)"
	}
	b.WriteString(lipgloss.NewStyle().Foreground(accent).Bold(true).Render(title))
	if n := m.scanning(); n > 0 {
		b.WriteString(" " + m.spinner.View() + lipgloss.NewStyle().Foreground(muted).Render(fmt.Sprintf(" scanning %d", n)))
	}
	b.WriteString("\n\n")

	tabs := []string{"[1] Paths", "[2] Lockers"}
	for i, t := range tabs {
		style := lipgloss.NewStyle().Padding(0, 1)
		if int(m.state) == i {
			style = style.Foreground(bright).Background(accent).Bold(true)
		} else {
			style = style.Foreground(muted)
		}
		b.WriteString(style.Render(t))
		b.WriteString(" ")
	}
	if m.sortColumn < len(m.table.Columns()) {
		colName := m.table.Columns()[m.sortColumn].Title
		b.WriteString(lipgloss.NewStyle().Foreground(muted).Render(fmt.Sprintf("  Sort: [s] %s", colName)))
	}
	b.WriteString("\n\n")

	switch {
	case m.adding:
		b.WriteString(lipgloss.NewStyle().Foreground(accent).Render(" + ") + m.pathInput.View() + "\n")
	case m.state == stateLockers:
		header := output.SanitizeTerminal(m.selected)
		if e := m.find(m.selected); e != nil && e.result != nil {
			color := success
			if e.result.Status == model.StatusLocked {
				color = danger
			}
			header = lipgloss.NewStyle().Foreground(color).Render(e.result.Status.String()) + " " + header
		}
		b.WriteString(" " + header + "\n")
	default:
		b.WriteString("\n")
	}

	b.WriteString(baseStyle.Render(m.table.View()) + "\n")

	if m.message != "" && time.Since(m.msgTime) < 3*time.Second {
		b.WriteString("\n" + lipgloss.NewStyle().
			Foreground(bright).
			Background(accent).
			Padding(0, 1).
			Render(" "+m.message+" ") + "\n")
	}

	if m.confirmDel != "" {
		prompt := fmt.Sprintf(" Stop watching %s? [y/n] ", output.SanitizeTerminal(m.confirmDel))
		b.WriteString("\n" + lipgloss.NewStyle().
			Foreground(bright).
			Background(danger).
			Bold(true).
			Padding(0, 1).
			Render(prompt) + "\n")
	}

	helpStyle := lipgloss.NewStyle().Foreground(muted)
	help := "\n  q: quit • a: add • r: rescan • R: rescan all • c: cancel • d: delete • enter: lockers • s: sort • o: order • S: snapshot • p: pause"
	if m.state == stateLockers {
		help += " • esc: back"
	}
	b.WriteString(helpStyle.Render(help) + "\n")

	return b.String()
}

// Run starts the interactive UI with paths already watched.
func Run(ctx context.Context, resolver *locker.Resolver, logger *logging.Logger, paths []string) error {
	m := newModel(ctx, resolver, logger)
	for _, p := range paths {
		wp, err := model.NewWatchedPath(p)
		if err != nil {
			return err
		}
		if m.find(wp.Path()) == nil {
			m.entries = append(m.entries, &entry{wp: wp})
		}
	}
	m.updateRows()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
