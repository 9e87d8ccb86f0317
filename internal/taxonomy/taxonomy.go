// Package taxonomy defines the closed set of question categories and the
// Specialist table that maps each category to its prompt template.
//
// The table is data, not code: adding a category means adding an entry to
// prompts.yaml (or an override file), never a new code path in the router.
package taxonomy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is the fixed label identifying which specialist answers a question.
type Category string

const (
	DefinitionBased    Category = "Definition-Based"
	ConceptExplanation Category = "Concept-Explanation"
	ProblemSolving     Category = "Problem-Solving"
	Comparison         Category = "Comparison"
	ProcessGuide       Category = "Process-Guide"
	DoubtClearing      Category = "Doubt-Clearing"
	PythonCode         Category = "Python-Code"
	PythonDebug        Category = "Python-Debug"

	// Unknown is produced for any classifier output outside the closed set.
	Unknown Category = "Unknown"
)

// Placeholder tokens recognized in prompt templates.
const (
	QuestionPlaceholder = "{question}"
	HistoryPlaceholder  = "{history}"
	LabelsPlaceholder   = "{labels}"
)

var closedSet = []Category{
	DefinitionBased,
	ConceptExplanation,
	ProblemSolving,
	Comparison,
	ProcessGuide,
	DoubtClearing,
	PythonCode,
	PythonDebug,
}

// ErrUnhandledCategory is returned when a category has no Specialist.
var ErrUnhandledCategory = errors.New("unhandled category")

// Labels returns the closed label set in canonical order.
func Labels() []Category {
	return slices.Clone(closedSet)
}

// Parse matches label exactly (case-sensitive) against the closed set.
// Callers trim whitespace first. Anything else is Unknown.
func Parse(label string) Category {
	for _, c := range closedSet {
		if string(c) == label {
			return c
		}
	}
	return Unknown
}

// IsKnown reports whether c is a member of the closed set.
func (c Category) IsKnown() bool {
	return slices.Contains(closedSet, c)
}

func (c Category) String() string {
	return string(c)
}

// Specialist is the responder configuration for one Category.
type Specialist struct {
	Category       Category `yaml:"category" json:"category"`
	Role           string   `yaml:"role" json:"role"`
	Template       string   `yaml:"template" json:"template"`
	ExpectedOutput string   `yaml:"expected_output" json:"expected_output"`
}

// Unhandled is the sentinel descriptor returned for categories without a
// Specialist. Its Template is empty so it can never be dispatched.
var Unhandled = Specialist{Category: Unknown}

// IsUnhandled reports whether s is the sentinel descriptor.
func (s Specialist) IsUnhandled() bool {
	return s.Category == Unknown || s.Template == ""
}

// ClassifierPrompt holds the role and template used by the classifier stage.
type ClassifierPrompt struct {
	Role     string `yaml:"role"`
	Template string `yaml:"template"`
}

type document struct {
	Classifier  ClassifierPrompt `yaml:"classifier"`
	Specialists []Specialist     `yaml:"specialists"`
}

//go:embed prompts.yaml
var defaultPrompts []byte

// Taxonomy is the read-only Category -> Specialist table built at startup.
type Taxonomy struct {
	classifier  ClassifierPrompt
	specialists map[Category]Specialist
}

// Default builds the taxonomy from the embedded prompts.
func Default() (*Taxonomy, error) {
	return parseDocument(defaultPrompts, "embedded prompts")
}

// LoadFile builds the taxonomy from a YAML file shaped like prompts.yaml.
// An empty classifier section falls back to the embedded classifier prompt.
func LoadFile(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts: %w", err)
	}
	return parseDocument(data, path)
}

func parseDocument(data []byte, source string) (*Taxonomy, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	if doc.Classifier.Template == "" {
		var embedded document
		if err := yaml.Unmarshal(defaultPrompts, &embedded); err != nil {
			return nil, fmt.Errorf("failed to parse embedded prompts: %w", err)
		}
		doc.Classifier = embedded.Classifier
	}
	return New(doc.Classifier, doc.Specialists)
}

// New builds a taxonomy and validates it. Categories without an entry are
// allowed; Lookup reports them as unhandled.
func New(classifier ClassifierPrompt, specialists []Specialist) (*Taxonomy, error) {
	t := &Taxonomy{
		classifier:  classifier,
		specialists: make(map[Category]Specialist, len(specialists)),
	}
	for _, s := range specialists {
		s.Category = Category(strings.TrimSpace(string(s.Category)))
		if _, dup := t.specialists[s.Category]; dup {
			return nil, fmt.Errorf("duplicate specialist for category %q", s.Category)
		}
		t.specialists[s.Category] = s
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks that every entry names a closed-set category, that every
// template carries the {question} placeholder, and that the classifier
// template lists the labels.
func (t *Taxonomy) Validate() error {
	for _, placeholder := range []string{QuestionPlaceholder, LabelsPlaceholder} {
		if !strings.Contains(t.classifier.Template, placeholder) {
			return fmt.Errorf("classifier template missing %s placeholder", placeholder)
		}
	}
	for c, s := range t.specialists {
		if !c.IsKnown() {
			return fmt.Errorf("specialist category %q is not a known label", c)
		}
		if !strings.Contains(s.Template, QuestionPlaceholder) {
			return fmt.Errorf("specialist %s: template missing %s placeholder", c, QuestionPlaceholder)
		}
	}
	return nil
}

// Lookup returns the Specialist for c, or Unhandled and false.
func (t *Taxonomy) Lookup(c Category) (Specialist, bool) {
	s, ok := t.specialists[c]
	if !ok {
		return Unhandled, false
	}
	return s, true
}

// Classifier returns the classifier prompt.
func (t *Taxonomy) Classifier() ClassifierPrompt {
	return t.classifier
}

// Specialists returns the configured specialists in canonical label order.
func (t *Taxonomy) Specialists() []Specialist {
	out := make([]Specialist, 0, len(t.specialists))
	for _, c := range closedSet {
		if s, ok := t.specialists[c]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Missing lists closed-set categories that have no Specialist.
func (t *Taxonomy) Missing() []Category {
	var missing []Category
	for _, c := range closedSet {
		if _, ok := t.specialists[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}
