package main

import (
	"context"
	"strings"
	"testing"
)

func TestRunDispatch(t *testing.T) {
	if err := run(context.Background(), nil); err == nil || !strings.Contains(err.Error(), "usage:") {
		t.Fatalf("missing command: %v", err)
	}
	if err := run(context.Background(), []string{"bogus"}); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("unknown command: %v", err)
	}
}

func TestInitCommand(t *testing.T) {
	if err := run(context.Background(), []string{"init", "-store", "memory"}); err != nil {
		t.Fatalf("init: %v", err)
	}
}

func TestRunCommandCompletesSmallSearch(t *testing.T) {
	args := []string{
		"run",
		"-base", "cli",
		"-seed", "11",
		"-max-runs", "1",
		"-pop", "8",
		"-gens", "1",
		"-tournament", "3",
		"-width", "5",
		"-height", "5",
		"-mines", "2",
		"-trials", "2",
		"-checkpoint-dir", t.TempDir(),
	}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("run command: %v", err)
	}
}

func TestHistoryCommandRequiresRunID(t *testing.T) {
	err := run(context.Background(), []string{"history", "-store", "memory"})
	if err == nil || !strings.Contains(err.Error(), "run-id") {
		t.Fatalf("history without run id: %v", err)
	}
}

func TestRunsCommandRejectsBadLimit(t *testing.T) {
	err := run(context.Background(), []string{"runs", "-limit", "0"})
	if err == nil || !strings.Contains(err.Error(), "limit") {
		t.Fatalf("runs with bad limit: %v", err)
	}
}
