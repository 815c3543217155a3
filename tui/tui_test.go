package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"todotui/app"
)

func newTestModel(t *testing.T, lines ...string) *Model {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todo.txt")
	content := ""
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write todo file failed: %v", err)
	}
	svc := app.NewService(path, false, nil)
	if err := svc.Load(); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	m := NewModel(svc, path)
	m.width = 100
	m.height = 30
	return m
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestCursorStaysInsideView(t *testing.T) {
	m := newTestModel(t,
		"2025-01-01 @home a",
		"2025-01-02 @home b",
	)

	m.Update(keyMsg("k"))
	if m.cursor != 0 {
		t.Fatalf("expected cursor pinned at top, got %d", m.cursor)
	}
	m.Update(keyMsg("j"))
	m.Update(keyMsg("j"))
	m.Update(keyMsg("j"))
	if m.cursor != 1 {
		t.Fatalf("expected cursor pinned at bottom, got %d", m.cursor)
	}
}

func TestContextCycleWraps(t *testing.T) {
	m := newTestModel(t,
		"2025-01-01 @home a",
		"2025-01-02 @work b",
	)

	if got := m.currentContext(); got != "all" {
		t.Fatalf("expected initial context all, got %q", got)
	}
	m.Update(keyMsg("l"))
	if got := m.currentContext(); got != "home" {
		t.Fatalf("expected home after one step, got %q", got)
	}
	m.Update(keyMsg("h"))
	m.Update(keyMsg("h"))
	if got := m.currentContext(); got != "work" {
		t.Fatalf("expected wrap-around to work, got %q", got)
	}
}

func TestPriorityPromptRejectsCompletedItem(t *testing.T) {
	m := newTestModel(t, "x 2025-05-01 2025-01-01 @home done item")

	m.Update(keyMsg("s"))
	if m.mode != modePriority {
		t.Fatalf("expected priority mode, got %d", m.mode)
	}
	m.Update(keyMsg("a"))
	if m.mode != modeNormal {
		t.Fatalf("expected return to normal mode, got %d", m.mode)
	}
	if !m.statusErr || !strings.Contains(m.status, "completed") {
		t.Fatalf("expected completed-item rejection status, got %q", m.status)
	}
	if got := m.svc.Records()[0].Priority; got != "" {
		t.Fatalf("expected record unchanged, got priority %q", got)
	}
}

func TestInsertPromptAddsAfterSelection(t *testing.T) {
	m := newTestModel(t,
		"2025-01-01 @home a",
		"2025-01-02 @home b",
	)

	m.Update(keyMsg("n"))
	if m.mode != modeInsert {
		t.Fatalf("expected insert mode, got %d", m.mode)
	}
	for _, r := range "new thing" {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m.Update(keyMsg("enter"))

	records := m.svc.Records()
	if len(records) != 3 || records[1].Text != "new thing" {
		t.Fatalf("expected new record after selection, got %+v", records)
	}
	if m.cursor != 1 {
		t.Fatalf("expected cursor to follow the new record, got %d", m.cursor)
	}
}

func TestJumpPromptRegistersUnknownContext(t *testing.T) {
	m := newTestModel(t, "2025-01-01 @home a")

	m.Update(keyMsg("@"))
	for _, r := range "errands" {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m.Update(keyMsg("enter"))

	if got := m.currentContext(); got != "errands" {
		t.Fatalf("expected jump to errands, got %q", got)
	}
	if m.svc.CountVisible("errands") != 0 {
		t.Fatalf("expected empty errands view")
	}
}

func TestRecordAppendedFollowsNewestUnlessScrolledAway(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.pipe")
	svc := app.NewService(path, true, nil)
	m := NewModel(svc, path)
	m.width = 100
	m.height = 30

	svc.AppendStreamLine("first")
	m.Update(RecordAppendedMsg{})
	svc.AppendStreamLine("second")
	m.Update(RecordAppendedMsg{})
	if m.cursor != 1 {
		t.Fatalf("expected follow to newest record, got cursor %d", m.cursor)
	}

	m.Update(keyMsg("k"))
	if m.autoScroll {
		t.Fatalf("expected manual scroll to disable follow")
	}
	svc.AppendStreamLine("third")
	m.Update(RecordAppendedMsg{})
	if m.cursor != 0 {
		t.Fatalf("expected cursor to stay put while not following, got %d", m.cursor)
	}

	m.Update(keyMsg("j"))
	m.Update(keyMsg("j"))
	if !m.autoScroll {
		t.Fatalf("expected follow re-enabled at bottom while streaming")
	}
}

func TestViewRendersRecordsAndContexts(t *testing.T) {
	m := newTestModel(t,
		"(A) 2025-01-01 @home buy milk",
		"2025-01-02 @work file report",
	)

	out := m.View()
	for _, want := range []string{"buy milk", "file report", "home", "work", "(A)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected view to contain %q\n%s", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 4, "hel…"},
		{"hello", 1, "…"},
		{"hello", 0, ""},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.width); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
}
