package a2a

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

/*
Task is the server-tracked unit of agent work.  ID and ContextID are
assigned once and never change; History is append-only through the task
manager.
*/
type Task struct {
	Kind      string         `json:"kind"`
	ID        string         `json:"id"`
	ContextID string         `json:"contextId"`
	Status    TaskStatus     `json:"status"`
	History   []Message      `json:"history,omitempty"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

/*
NewTask creates a fresh submitted task.  Empty ids are generated as
UUID v4 strings.
*/
func NewTask(id string, contextID string) *Task {
	if id == "" {
		id = uuid.NewString()
	}

	if contextID == "" {
		contextID = uuid.NewString()
	}

	return &Task{
		Kind:      KindTask,
		ID:        id,
		ContextID: contextID,
		Status:    NewTaskStatus(TaskStateSubmitted),
	}
}

// EventKind implements the Event interface.
func (task *Task) EventKind() string { return KindTask }

/*
ToStatus replaces the task status with the given state and message,
stamping the current time.
*/
func (task *Task) ToStatus(state TaskState, message *Message) {
	now := time.Now().UTC()
	task.Status.State = state
	task.Status.Timestamp = &now
	task.Status.Message = message
}

func (task *Task) LastMessage() *Message {
	if len(task.History) == 0 {
		return nil
	}

	return &task.History[len(task.History)-1]
}

func (task *Task) AddArtifact(artifact Artifact) {
	task.Artifacts = append(task.Artifacts, artifact)
}

/*
FindArtifact returns the index of the artifact with the given id, or -1.
*/
func (task *Task) FindArtifact(artifactID string) int {
	for i, artifact := range task.Artifacts {
		if artifact.ArtifactID == artifactID {
			return i
		}
	}

	return -1
}

/*
Clone returns a deep-enough copy of the task for handing out to callers:
the slices are copied so truncation and appends on the copy do not alias
the original.
*/
func (task *Task) Clone() *Task {
	clone := *task
	clone.History = append([]Message(nil), task.History...)
	clone.Artifacts = append([]Artifact(nil), task.Artifacts...)

	if task.Metadata != nil {
		clone.Metadata = make(map[string]any, len(task.Metadata))
		for k, v := range task.Metadata {
			clone.Metadata[k] = v
		}
	}

	return &clone
}

/*
TruncateHistory returns a copy of the task whose history holds only the
historyLength most recent messages.  A historyLength <= 0 disables
truncation.
*/
func (task *Task) TruncateHistory(historyLength int) *Task {
	clone := task.Clone()

	if historyLength <= 0 || historyLength >= len(clone.History) {
		return clone
	}

	clone.History = clone.History[len(clone.History)-historyLength:]
	return clone
}

func (task *Task) String() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("212")).
		Bold(true)

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	sectionStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		Bold(true)

	indent := "   "
	bullet := "│ "

	sb.WriteString(headerStyle.Render("Task Details") + "\n")
	sb.WriteString(bullet + labelStyle.Render("ID: ") + valueStyle.Render(task.ID) + "\n")
	sb.WriteString(bullet + labelStyle.Render("Context ID: ") + valueStyle.Render(task.ContextID) + "\n")

	sb.WriteString("\n" + sectionStyle.Render("Status") + "\n")
	sb.WriteString(bullet + labelStyle.Render("State: ") + valueStyle.Render(string(task.Status.State)) + "\n")

	if task.Status.Message != nil {
		sb.WriteString(bullet + labelStyle.Render("Message: ") + valueStyle.Render(task.Status.Message.TextContent("")) + "\n")
	}

	if task.Status.Timestamp != nil {
		sb.WriteString(bullet + labelStyle.Render("Timestamp: ") + valueStyle.Render(task.Status.Timestamp.Format(time.RFC3339)) + "\n")
	}

	if len(task.History) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("History") + "\n")
		for i, message := range task.History {
			sb.WriteString(bullet + labelStyle.Render(fmt.Sprintf("Message %d", i+1)) + "\n")
			sb.WriteString(bullet + indent + labelStyle.Render("Role: ") + valueStyle.Render(message.Role) + "\n")
			for _, part := range message.Parts {
				sb.WriteString(bullet + indent + labelStyle.Render("Content: ") + valueStyle.Render(part.Text) + "\n")
			}
		}
	}

	if len(task.Artifacts) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("Artifacts") + "\n")
		for i, artifact := range task.Artifacts {
			sb.WriteString(bullet + labelStyle.Render(fmt.Sprintf("Artifact %d", i+1)) + "\n")
			if artifact.Name != nil {
				sb.WriteString(bullet + indent + labelStyle.Render("Name: ") + valueStyle.Render(*artifact.Name) + "\n")
			}
			for j, part := range artifact.Parts {
				sb.WriteString(bullet + indent + labelStyle.Render(fmt.Sprintf("Part %d: ", j+1)) + valueStyle.Render(part.Text) + "\n")
			}
		}
	}

	if len(task.Metadata) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("Metadata") + "\n")
		keys := make([]string, 0, len(task.Metadata))
		for k := range task.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(bullet + labelStyle.Render(k+": ") + valueStyle.Render(fmt.Sprintf("%v", task.Metadata[k])) + "\n")
		}
	}

	return sb.String()
}
