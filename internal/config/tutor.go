package config

import "fmt"

// Unknown-category policies.
const (
	UnknownPolicyNotice = "notice" // print a notice and keep the session
	UnknownPolicyFail   = "fail"   // end the session with an error
)

// TutorConfig configures the conversation loop.
type TutorConfig struct {
	// HistoryTurns is how many recent turns are rendered as context.
	HistoryTurns int `yaml:"history_turns"`

	// IncludeHistoryInClassification passes rendered history to the
	// classifier as well as the specialist.
	IncludeHistoryInClassification bool `yaml:"include_history_in_classification"`

	// ClearHistoryOnNewQuestion empties memory when the student picks
	// "new question" at the follow-up prompt.
	ClearHistoryOnNewQuestion bool `yaml:"clear_history_on_new_question"`

	UnknownPolicy string `yaml:"unknown_policy"`

	// PromptsPath overrides the embedded specialist prompts.
	PromptsPath string `yaml:"prompts_path"`
}

// Validate checks the tutor settings.
func (t TutorConfig) Validate() error {
	if t.HistoryTurns < 0 {
		return fmt.Errorf("tutor.history_turns must be >= 0, got %d", t.HistoryTurns)
	}
	switch t.UnknownPolicy {
	case UnknownPolicyNotice, UnknownPolicyFail:
	default:
		return fmt.Errorf("invalid tutor.unknown_policy: %q (valid: %s, %s)", t.UnknownPolicy, UnknownPolicyNotice, UnknownPolicyFail)
	}
	return nil
}

// FailOnUnknown reports whether an Unknown classification ends the session.
func (t TutorConfig) FailOnUnknown() bool {
	return t.UnknownPolicy == UnknownPolicyFail
}
