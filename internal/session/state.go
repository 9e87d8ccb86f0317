package session

import "strings"

// State is a Conversation Loop state.
type State int

const (
	AwaitingQuestion State = iota
	Classifying
	Dispatching
	PresentingResult
	AwaitingFollowUp
	Exited
)

func (s State) String() string {
	switch s {
	case AwaitingQuestion:
		return "awaiting_question"
	case Classifying:
		return "classifying"
	case Dispatching:
		return "dispatching"
	case PresentingResult:
		return "presenting_result"
	case AwaitingFollowUp:
		return "awaiting_follow_up"
	case Exited:
		return "exited"
	default:
		return "unknown"
	}
}

// command is what a line typed at the question prompt means.
type command int

const (
	cmdQuestion command = iota
	cmdEmpty
	cmdExit
	cmdMenu
)

// parseCommand interprets a trimmed line read at the question prompt.
func parseCommand(input string) command {
	switch strings.ToLower(input) {
	case "":
		return cmdEmpty
	case "exit", "5":
		return cmdExit
	case "menu":
		return cmdMenu
	default:
		return cmdQuestion
	}
}

// FollowUpChoice is the student's answer at the follow-up prompt.
type FollowUpChoice int

const (
	ChoiceInvalid FollowUpChoice = iota
	ChoiceFollowUp
	ChoiceNewQuestion
	ChoiceExit
)

// ParseFollowUpChoice interprets a line read at the follow-up prompt.
func ParseFollowUpChoice(input string) FollowUpChoice {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1":
		return ChoiceFollowUp
	case "2":
		return ChoiceNewQuestion
	case "3", "exit":
		return ChoiceExit
	default:
		return ChoiceInvalid
	}
}
