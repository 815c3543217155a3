package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"todotui/app"
	"todotui/model"
	"todotui/store"
)

type uiMode int

const (
	modeNormal uiMode = iota
	modeInsert
	modeRetag
	modeJump
	modePriority
)

const contextPanelWidth = 14

// RecordAppendedMsg is sent by the pipe ingestion callback so the view
// can follow the newest record.
type RecordAppendedMsg struct{}

type Model struct {
	svc  *app.Service
	path string

	ctxCursor  int
	cursor     int // view-relative selection
	scroll     int
	autoScroll bool

	mode     uiMode
	input    textinput.Model
	showHelp bool

	status    string
	statusErr bool

	width  int
	height int
}

func NewModel(svc *app.Service, path string) *Model {
	ti := textinput.New()
	ti.CharLimit = model.MaxLineLen
	ti.Prompt = ""

	status := "Ready"
	if svc.Streaming() {
		status = "Streaming from pipe"
	}

	return &Model{
		svc:        svc,
		path:       path,
		autoScroll: true,
		input:      ti,
		status:     status,
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case RecordAppendedMsg:
		m.followNewest()
	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		switch m.mode {
		case modeInsert, modeRetag, modeJump:
			return m, m.updateInputMode(msg)
		case modePriority:
			m.updatePriorityMode(msg)
		default:
			if quit := m.updateNormalMode(msg); quit {
				return m, tea.Quit
			}
		}
	}
	m.ensureSelection()
	return m, nil
}

func (m *Model) updateNormalMode(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "ctrl+c", "q":
		return true
	case "j", "down":
		count := m.svc.CountVisible(m.currentContext())
		if m.cursor+1 < count {
			m.cursor++
		}
		// Hitting bottom in streaming mode re-engages the follow.
		if m.svc.Streaming() && !m.autoScroll && m.cursor+1 >= count {
			m.autoScroll = true
		}
	case "k", "up":
		m.autoScroll = false
		if m.cursor > 0 {
			m.cursor--
		}
	case "h", "left":
		m.cycleContext(-1)
	case "l", "right":
		m.cycleContext(1)
	case " ":
		m.toggleSelected()
	case "s":
		m.mode = modePriority
		m.setStatus("Set priority (a-z, space clears, esc cancels)", false)
	case "p":
		m.svc.SortByPriority(m.currentContext(), false)
		m.resetView("Sorted by priority")
	case "P":
		m.svc.SortByPriority(m.currentContext(), true)
		m.resetView("Sorted by priority (descending)")
	case "d":
		m.svc.SortByDate(m.currentContext(), false)
		m.resetView("Sorted by date")
	case "D":
		m.svc.SortByDate(m.currentContext(), true)
		m.resetView("Sorted by date (descending)")
	case "g":
		m.svc.GroupByCompletion(m.currentContext())
		m.resetView("Grouped by completion")
	case "G":
		m.reload()
	case "n":
		m.startInsert()
	case "t":
		m.startPrompt(modeRetag, "Change context to @")
	case "@":
		m.startPrompt(modeJump, "Jump to context @")
	case "A":
		m.archiveCompleted()
	case "f":
		m.autoScroll = !m.autoScroll
		if m.autoScroll {
			m.setStatus("Auto-scroll: on", false)
		} else {
			m.setStatus("Auto-scroll: off", false)
		}
	case "?":
		m.showHelp = true
	}
	return false
}

func (m *Model) updateInputMode(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.mode = modeNormal
		m.input.Blur()
		m.setStatus("Cancelled", false)
		return nil
	case "enter":
		m.applyInput()
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) updatePriorityMode(msg tea.KeyMsg) {
	m.mode = modeNormal
	switch msg.String() {
	case "esc", "ctrl+c":
		m.setStatus("Cancelled", false)
		return
	case " ", "backspace":
		if err := m.svc.SetPriority(m.currentContext(), m.cursor, ""); err != nil {
			m.reportMutation(err)
			return
		}
		m.setStatus("Priority cleared", false)
		return
	}

	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		m.setStatus("Cancelled", false)
		return
	}
	letter := strings.ToUpper(string(msg.Runes))
	err := m.svc.SetPriority(m.currentContext(), m.cursor, letter)
	if err != nil {
		m.reportMutation(err)
		return
	}
	m.setStatus("Priority set to "+letter, false)
}

func (m *Model) applyInput() {
	text := strings.TrimSpace(m.input.Value())
	mode := m.mode
	m.mode = modeNormal
	m.input.Blur()

	switch mode {
	case modeInsert:
		if text == "" {
			m.setStatus("Cancelled", false)
			return
		}
		before := m.svc.CountVisible(m.currentContext())
		if err := m.svc.InsertNew(m.currentContext(), m.cursor, text); err != nil {
			m.reportMutation(err)
			return
		}
		if before > 0 && m.svc.CountVisible(m.currentContext()) > before {
			m.cursor++
		}
		m.setStatus("Added", false)
	case modeRetag:
		if text == "" {
			m.setStatus("Cancelled", false)
			return
		}
		if err := m.svc.SetContext(m.currentContext(), m.cursor, text); err != nil {
			m.reportMutation(err)
			return
		}
		m.setStatus("Context changed to @"+text, false)
	case modeJump:
		if text == "" {
			m.setStatus("Cancelled", false)
			return
		}
		m.svc.RegisterContext(text)
		for i, c := range m.svc.Contexts() {
			if c == text {
				m.ctxCursor = i
				break
			}
		}
		m.cursor = 0
		m.scroll = 0
		m.setStatus("Context @"+text, false)
	}
}

func (m *Model) toggleSelected() {
	if m.svc.CountVisible(m.currentContext()) == 0 {
		m.setStatus("Nothing selected", false)
		return
	}
	if err := m.svc.ToggleCompletion(m.currentContext(), m.cursor); err != nil {
		m.reportMutation(err)
		return
	}
	m.setStatus("Toggled", false)
}

func (m *Model) startInsert() {
	if m.svc.Streaming() {
		m.setStatus("Adding is not available while streaming", true)
		return
	}
	m.startPrompt(modeInsert, "New todo: ")
}

func (m *Model) startPrompt(mode uiMode, prompt string) {
	if mode == modeRetag && m.svc.CountVisible(m.currentContext()) == 0 {
		m.setStatus("Nothing selected", false)
		return
	}
	m.mode = mode
	m.input.Prompt = prompt
	m.input.SetValue("")
	m.input.Focus()
}

func (m *Model) reload() {
	if err := m.svc.Load(); err != nil {
		if errors.Is(err, app.ErrStreamingMode) {
			m.setStatus("Reload is not available while streaming", true)
			return
		}
		m.setStatus("Reload failed: "+err.Error(), true)
		return
	}
	m.resetView("Reloaded from file")
}

func (m *Model) archiveCompleted() {
	count, err := m.svc.ArchiveCompleted(store.ArchivePath(m.path))
	if err != nil {
		m.setStatus("Archive failed: "+err.Error(), true)
		return
	}
	if count == 0 {
		m.setStatus("No completed todos to archive", false)
		return
	}
	m.resetView(fmt.Sprintf("Archived %d completed todos", count))
}

func (m *Model) reportMutation(err error) {
	switch {
	case errors.Is(err, app.ErrCompletedPriority):
		m.setStatus("Cannot set priority on completed item", true)
	case errors.Is(err, app.ErrStreamingMode):
		m.setStatus("Not available while streaming", true)
	default:
		m.setStatus("Error: "+err.Error(), true)
	}
}

func (m *Model) cycleContext(delta int) {
	contexts := m.svc.Contexts()
	if len(contexts) == 0 {
		return
	}
	m.ctxCursor = (m.ctxCursor + delta + len(contexts)) % len(contexts)
	m.cursor = 0
	m.scroll = 0
}

func (m *Model) resetView(status string) {
	m.cursor = 0
	m.scroll = 0
	m.setStatus(status, false)
}

func (m *Model) followNewest() {
	if !m.autoScroll {
		return
	}
	count := m.svc.CountVisible(m.currentContext())
	if count > 0 {
		m.cursor = count - 1
	}
}

func (m *Model) currentContext() string {
	contexts := m.svc.Contexts()
	if len(contexts) == 0 {
		return model.ContextAll
	}
	if m.ctxCursor < 0 || m.ctxCursor >= len(contexts) {
		m.ctxCursor = 0
	}
	return contexts[m.ctxCursor]
}

func (m *Model) ensureSelection() {
	count := m.svc.CountVisible(m.currentContext())
	if count == 0 {
		m.cursor = 0
		m.scroll = 0
		return
	}
	m.cursor = clamp(m.cursor, 0, count-1)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	header := m.renderHeader()
	body := m.renderBody()
	footer := m.renderFooter()

	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) renderHeader() string {
	ctx := m.currentContext()
	ctxStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	if ctx == model.ContextAll {
		ctxStyle = ctxStyle.Foreground(lipgloss.Color("13"))
	}

	summary := fmt.Sprintf("%d todos", m.svc.CountVisible(ctx))
	if m.svc.Streaming() {
		summary += " • streaming"
		if m.autoScroll {
			summary += " • following"
		}
	}

	line := ctxStyle.Render("@"+ctx) +
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("  "+summary)
	rule := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).
		Render(strings.Repeat("─", max(m.width, 1)))
	return line + "\n" + rule
}

func (m *Model) renderBody() string {
	bodyH := m.height - 4
	if bodyH < 3 {
		bodyH = 3
	}

	if m.showHelp {
		return lipgloss.Place(m.width, bodyH, lipgloss.Center, lipgloss.Center, m.renderHelpOverlay())
	}

	panel := m.renderContextPanel(bodyH)
	table := m.renderRecordTable(m.width-contextPanelWidth-1, bodyH)
	divider := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).
		Render(strings.TrimRight(strings.Repeat("│\n", bodyH), "\n"))
	return lipgloss.JoinHorizontal(lipgloss.Top, panel, divider, table)
}

func (m *Model) renderContextPanel(height int) string {
	contexts := m.svc.Contexts()
	lines := make([]string, 0, len(contexts))
	for i, c := range contexts {
		if i >= height {
			break
		}
		label := truncate(c, contextPanelWidth-2)
		if i == m.ctxCursor {
			label = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")).Render(label)
		}
		lines = append(lines, " "+label)
	}
	return lipgloss.NewStyle().Width(contextPanelWidth).Height(height).
		Render(strings.Join(lines, "\n"))
}

func (m *Model) renderRecordTable(width, height int) string {
	ctx := m.currentContext()
	records := m.svc.Visible(ctx)
	if len(records) == 0 {
		empty := "No todos here. Press 'n' to add one."
		if m.svc.Streaming() {
			empty = "Waiting for the pipe..."
		}
		return lipgloss.NewStyle().Width(width).Height(height).
			Foreground(lipgloss.Color("244")).Render(" " + empty)
	}

	// Keep the selection inside the scroll window.
	if m.cursor < m.scroll {
		m.scroll = m.cursor
	} else if m.cursor >= m.scroll+height {
		m.scroll = m.cursor - height + 1
	}

	showContextCol := ctx == model.ContextAll
	lines := make([]string, 0, height)
	for i := m.scroll; i < len(records) && len(lines) < height; i++ {
		lines = append(lines, m.renderRow(records[i], i == m.cursor, showContextCol, width))
	}
	return lipgloss.NewStyle().Width(width).Height(height).
		Render(strings.Join(lines, "\n"))
}

func (m *Model) renderRow(r model.Record, selected, showContextCol bool, width int) string {
	dateStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	if r.Completed {
		dateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Faint(true)
		textStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true)
	}
	if selected {
		dateStyle = dateStyle.Bold(true)
		textStyle = textStyle.Bold(true).Foreground(lipgloss.Color("229"))
	}

	cursor := "  "
	if selected {
		cursor = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Render("▸ ")
	}

	pri := "    "
	if r.Priority != "" {
		pri = lipgloss.NewStyle().Bold(true).Foreground(priorityColor(r.Priority)).
			Render(fmt.Sprintf("(%s) ", r.Priority))
	}

	ctxCol := ""
	used := 2 + 11 + 4
	if showContextCol {
		at := lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Faint(true).Render("@")
		labelColor := lipgloss.Color("14")
		if r.Context == model.ContextAll {
			labelColor = lipgloss.Color("13")
		}
		label := lipgloss.NewStyle().Foreground(labelColor).
			Render(fmt.Sprintf("%-8s", truncate(r.Context, 8)))
		ctxCol = at + label + " "
		used += 10
	}

	text := truncate(r.Text, max(width-used, 0))
	return cursor + dateStyle.Render(fmt.Sprintf("%-10s ", r.Date)) + pri + ctxCol + textStyle.Render(text)
}

func (m *Model) renderFooter() string {
	if m.mode == modeInsert || m.mode == modeRetag || m.mode == modeJump {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Width(m.width).
			Render(m.input.View())
	}

	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	if m.statusErr {
		statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	}
	left := statusStyle.Render(m.status)
	right := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("? help • q quit")

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}
	return left + strings.Repeat(" ", padding) + right
}

func (m *Model) renderHelpOverlay() string {
	title := lipgloss.NewStyle().Bold(true).Render("Keys")
	section := lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Bold(true)
	line := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	rows := []string{
		title,
		"",
		section.Render("Navigate"),
		line.Render("  j/k move • h/l switch context • @ jump to context"),
		"",
		section.Render("Edit"),
		line.Render("  space toggle completed • s priority • t re-context"),
		line.Render("  n new todo • A archive completed"),
		"",
		section.Render("Arrange"),
		line.Render("  p/P sort by priority • d/D sort by date • g group"),
		line.Render("  G reload from file • f auto-scroll"),
		"",
		line.Render("  press any key to close"),
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("244")).
		Padding(1, 2).
		Render(strings.Join(rows, "\n"))
}

func priorityColor(priority string) lipgloss.Color {
	switch priority {
	case "A":
		return lipgloss.Color("9")
	case "B":
		return lipgloss.Color("11")
	case "C":
		return lipgloss.Color("10")
	case "D":
		return lipgloss.Color("14")
	case "E":
		return lipgloss.Color("12")
	case "F":
		return lipgloss.Color("13")
	default:
		return lipgloss.Color("245")
	}
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
