package main

import (
	"bytes"
	"testing"
)

func TestRootCmdRequiresSourceArgument(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(nil)

	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error without a source path")
	}
}

func TestRootCmdRejectsMissingSource(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"/nonexistent/todo.txt"})

	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for unopenable source")
	}
}

func TestRootCmdHasExecFlag(t *testing.T) {
	cmd := newRootCmd()
	if cmd.Flags().Lookup("exec") == nil {
		t.Fatalf("expected --exec flag")
	}
}
