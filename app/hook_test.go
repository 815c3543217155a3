package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func waitForFile(t *testing.T, path string) string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil && len(data) > 0 {
			return string(data)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("hook output never appeared at %s", path)
	return ""
}

func writeHookScript(t *testing.T, dir, outPath string) string {
	t.Helper()
	script := filepath.Join(dir, "hook.sh")
	content := "#!/bin/sh\nprintf '%s' \"$1\" > " + outPath + "\n"
	if err := os.WriteFile(script, []byte(content), 0o755); err != nil {
		t.Fatalf("write hook script failed: %v", err)
	}
	return script
}

func TestNotifierPassesSingleEventArgument(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	n := NewNotifier(writeHookScript(t, dir, out))

	n.Notify(EventCompleted, "buy milk pri:A")

	if got := waitForFile(t, out); got != "Completed: buy milk pri:A" {
		t.Fatalf("unexpected hook argument: %q", got)
	}
}

func TestNotifierSkipsEmptyTextAndScript(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	n := NewNotifier(writeHookScript(t, dir, out))

	n.Notify(EventAdded, "")
	NewNotifier("").Notify(EventAdded, "something")
	var nilNotifier *Notifier
	nilNotifier.Notify(EventAdded, "something")

	time.Sleep(50 * time.Millisecond)
	if _, err := os.Stat(out); err == nil {
		t.Fatalf("expected no hook invocation")
	}
}

func TestNotifierInvocationFailureIsSilent(t *testing.T) {
	n := NewNotifier(filepath.Join(t.TempDir(), "does-not-exist"))
	// Must not panic or surface anything.
	n.Notify(EventUncompleted, "text")
	time.Sleep(20 * time.Millisecond)
}

func TestToggleEmitsCompletionEvents(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	script := writeHookScript(t, dir, out)

	path := filepath.Join(dir, "todo.txt")
	if err := os.WriteFile(path, []byte("(A) 2025-01-01 @home buy milk\n"), 0o644); err != nil {
		t.Fatalf("write todo file failed: %v", err)
	}
	svc := NewService(path, false, NewNotifier(script))
	svc.now = func() time.Time { return testNow }
	if err := svc.Load(); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if err := svc.ToggleCompletion("home", 0); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if got := waitForFile(t, out); !strings.HasPrefix(got, "Completed: ") {
		t.Fatalf("expected Completed event, got %q", got)
	}

	if err := os.Remove(out); err != nil {
		t.Fatalf("reset hook output failed: %v", err)
	}
	if err := svc.ToggleCompletion("home", 0); err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if got := waitForFile(t, out); got != "Uncompleted: buy milk" {
		t.Fatalf("expected Uncompleted event with restored text, got %q", got)
	}
}
