package loop

import (
	"strings"
	"testing"
)

func TestPlan_StartsAllPending(t *testing.T) {
	p := NewPlan([]string{"gather", "compare", "summarize"})
	if len(p.Tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(p.Tasks))
	}
	for i, task := range p.Tasks {
		if task.Status != TaskPending {
			t.Errorf("task %d status = %v", i, task.Status)
		}
	}
	if p.AllTerminal() {
		t.Error("fresh plan must not be terminal")
	}
}

func TestPlan_SetStatusBounds(t *testing.T) {
	p := NewPlan([]string{"only task"})
	if err := p.SetStatus(0, TaskCompleted); err == nil {
		t.Error("index 0 must be rejected, indexes are 1-based")
	}
	if err := p.SetStatus(2, TaskCompleted); err == nil {
		t.Error("out-of-range index must be rejected")
	}
	if err := p.SetStatus(1, TaskCompleted); err != nil {
		t.Errorf("valid update rejected: %v", err)
	}
}

func TestPlan_TerminalMixesCompletedAndFailed(t *testing.T) {
	p := NewPlan([]string{"a", "b"})
	p.SetStatus(1, TaskCompleted)
	if p.AllTerminal() {
		t.Error("one pending task left, not terminal")
	}
	p.SetStatus(2, TaskFailed)
	if !p.AllTerminal() {
		t.Error("completed+failed is terminal")
	}
}

func TestPlan_StringRendersOneBasedIndexes(t *testing.T) {
	p := NewPlan([]string{"first", "second"})
	p.SetStatus(2, TaskInProgress)
	s := p.String()
	if !strings.Contains(s, "1. [pending] first") {
		t.Errorf("render = %q", s)
	}
	if !strings.Contains(s, "2. [in_progress] second") {
		t.Errorf("render = %q", s)
	}
}
