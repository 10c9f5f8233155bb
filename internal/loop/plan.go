package loop

import (
	"fmt"
	"strings"
)

// TaskStatus tracks a plan task through its lifecycle.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Task is one step of a supervisor plan.
type Task struct {
	Description string
	Status      TaskStatus
}

// Plan is the ordered task list for one query. It is owned exclusively by
// the supervisor role — workers never see or mutate it — and is discarded
// when the loop finishes.
type Plan struct {
	Tasks []Task
}

// NewPlan creates a plan with all tasks pending.
func NewPlan(descriptions []string) *Plan {
	tasks := make([]Task, len(descriptions))
	for i, d := range descriptions {
		tasks[i] = Task{Description: d, Status: TaskPending}
	}
	return &Plan{Tasks: tasks}
}

// SetStatus updates one task. Indexes are 1-based, matching how the plan is
// rendered to the model.
func (p *Plan) SetStatus(index int, status TaskStatus) error {
	if index < 1 || index > len(p.Tasks) {
		return fmt.Errorf("task index %d out of range 1..%d", index, len(p.Tasks))
	}
	p.Tasks[index-1].Status = status
	return nil
}

// FailRemaining marks every non-terminal task failed and reports how many it
// touched. Used when the model insists on answering with work still open, so
// the plan ends terminal and the shortfall stays visible.
func (p *Plan) FailRemaining() int {
	n := 0
	for i, t := range p.Tasks {
		if t.Status != TaskCompleted && t.Status != TaskFailed {
			p.Tasks[i].Status = TaskFailed
			n++
		}
	}
	return n
}

// AllTerminal reports whether every task reached completed or failed.
// Synthesis must not begin before this holds.
func (p *Plan) AllTerminal() bool {
	for _, t := range p.Tasks {
		if t.Status != TaskCompleted && t.Status != TaskFailed {
			return false
		}
	}
	return true
}

// String renders the plan for the model.
func (p *Plan) String() string {
	var sb strings.Builder
	for i, t := range p.Tasks {
		sb.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, t.Status, t.Description))
	}
	return sb.String()
}
