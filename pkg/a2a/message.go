package a2a

import (
	"strings"

	"github.com/google/uuid"
)

// Message roles per the A2A protocol.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

/*
Message represents all non-artifact communication between client & agent.
A Message appearing at the top level of an event stream is a terminal
event: the agent answered without creating or mutating a task.
*/
type Message struct {
	Kind      string         `json:"kind"`
	MessageID string         `json:"messageId"`
	Role      string         `json:"role"` // "user" or "agent"
	Parts     []Part         `json:"parts"`
	TaskID    string         `json:"taskId,omitempty"`
	ContextID string         `json:"contextId,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewMessage(role string, parts ...Part) *Message {
	return &Message{
		Kind:      KindMessage,
		MessageID: uuid.NewString(),
		Role:      role,
		Parts:     parts,
	}
}

func NewTextMessage(role string, text string) *Message {
	return NewMessage(role, NewTextPart(text))
}

func NewFileMessage(role string, file *FilePart) *Message {
	return NewMessage(role, Part{Kind: PartKindFile, File: file})
}

func NewDataMessage(role string, data map[string]any) *Message {
	return NewMessage(role, NewDataPart(data))
}

/*
TextContent concatenates the text of every text part, joined by delimiter.
Parts of other kinds are skipped.  An empty delimiter defaults to newline.
*/
func (msg *Message) TextContent(delimiter string) string {
	if delimiter == "" {
		delimiter = "\n"
	}

	var texts []string

	for _, part := range msg.Parts {
		if part.Kind == PartKindText {
			texts = append(texts, part.Text)
		}
	}

	return strings.Join(texts, delimiter)
}

func (msg *Message) String() string {
	return msg.TextContent("")
}

// EventKind implements the Event interface.
func (msg *Message) EventKind() string { return KindMessage }
