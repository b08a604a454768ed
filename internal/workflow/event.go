package workflow

import "github.com/crmline/intakebot/internal/domain"

// EventKind discriminates inbound events handed to the engine.
type EventKind int

const (
	// EventChoice is a button press carrying its callback payload.
	EventChoice EventKind = iota
	// EventText is free-text input.
	EventText
	// EventFile is a file already persisted to storage.
	EventFile
	// EventRestart cancels the conversation from any step.
	EventRestart
)

// Event is one inbound interaction from the transport layer.
type Event struct {
	Kind EventKind
	// Data is the callback payload for EventChoice.
	Data string
	// Text is the message body for EventText.
	Text string
	// File references the stored file for EventFile.
	File *domain.SessionAttachment
}

// ChoiceEvent builds a button-press event.
func ChoiceEvent(data string) Event { return Event{Kind: EventChoice, Data: data} }

// TextEvent builds a free-text event.
func TextEvent(text string) Event { return Event{Kind: EventText, Text: text} }

// FileEvent builds a file-upload event for an already stored file.
func FileEvent(att domain.SessionAttachment) Event { return Event{Kind: EventFile, File: &att} }

// RestartEvent builds a cancel/restart event.
func RestartEvent() Event { return Event{Kind: EventRestart} }
