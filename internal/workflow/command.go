package workflow

import "github.com/crmline/intakebot/internal/domain"

// CommandKind discriminates what the transport layer should deliver next.
type CommandKind int

const (
	// CmdPrompt renders text, optionally with inline choices.
	CmdPrompt CommandKind = iota
	// CmdRequestFile renders a prompt expecting documents.
	CmdRequestFile
	// CmdSubmitted confirms a committed intake.
	CmdSubmitted
	// CmdMenu returns the conversation to the start menu.
	CmdMenu
)

// Menu callback payloads rendered at StepMenu.
const (
	DataStartIntake  = "intake_start"
	DataListStatuses = "intake_status"
	DataManage       = "manage_menu"
)

// Choice is one inline button: a label and the callback payload it sends back.
type Choice struct {
	Label string
	Data  string
}

// Command is the declarative instruction the engine returns; the transport
// layer is responsible for delivering it.
type Command struct {
	Kind    CommandKind
	Text    string
	Choices []Choice
	// Record is set for CmdSubmitted.
	Record *domain.IntakeRecord
}

func prompt(text string, choices ...Choice) Command {
	return Command{Kind: CmdPrompt, Text: text, Choices: choices}
}
