package perception

import (
	"context"
	"strings"

	"pathtutor/internal/logging"
	"pathtutor/internal/taxonomy"
	"pathtutor/internal/usage"
)

// Classification is the outcome of one classifier call.
type Classification struct {
	Category taxonomy.Category
	Label    string // trimmed provider output, kept for the "not handled" notice
}

// Classifier turns a raw question into exactly one category label.
type Classifier struct {
	client LLMClient
	prompt taxonomy.ClassifierPrompt
}

// NewClassifier creates a classifier using the taxonomy's classifier prompt.
func NewClassifier(client LLMClient, tax *taxonomy.Taxonomy) *Classifier {
	return &Classifier{client: client, prompt: tax.Classifier()}
}

// BuildPrompt renders the classification prompt. The closed label set is
// listed one per line; history is included only when non-empty.
func (c *Classifier) BuildPrompt(question, history string) string {
	labels := make([]string, 0, len(taxonomy.Labels()))
	for _, l := range taxonomy.Labels() {
		labels = append(labels, "- "+string(l))
	}

	historyBlock := ""
	if history != "" {
		historyBlock = "Conversation so far:\n" + history + "\n"
	}

	return strings.NewReplacer(
		taxonomy.LabelsPlaceholder, strings.Join(labels, "\n"),
		taxonomy.HistoryPlaceholder, historyBlock,
		taxonomy.QuestionPlaceholder, question,
	).Replace(c.prompt.Template)
}

// Classify returns the category for question. Output outside the closed
// set yields taxonomy.Unknown with a nil error; provider failures are
// returned as *ProviderError.
func (c *Classifier) Classify(ctx context.Context, question, history string) (taxonomy.Category, error) {
	res, err := c.ClassifyLabel(ctx, question, history)
	return res.Category, err
}

// ClassifyLabel is Classify but also returns the raw label.
func (c *Classifier) ClassifyLabel(ctx context.Context, question, history string) (Classification, error) {
	sessionID, _, _ := usage.TurnFromContext(ctx)
	ctx = usage.WithTurn(ctx, sessionID, "", usage.OperationClassify)

	timer := logging.StartTimer(logging.CategoryPerception, "classify")
	raw, err := c.client.CompleteWithSystem(ctx, c.prompt.Role, c.BuildPrompt(question, history))
	timer.Stop()
	if err != nil {
		logging.Get(logging.CategoryPerception).Warn("Classification failed: %v", err)
		return Classification{Category: taxonomy.Unknown}, wrapProviderError(providerOf(c.client), err)
	}

	label := strings.TrimSpace(raw)
	category := taxonomy.Parse(label)
	if category == taxonomy.Unknown {
		logging.Perception("Unrecognized label %q, treating as Unknown", label)
	} else {
		logging.PerceptionDebug("Classified question (%d chars) as %s", len(question), category)
	}
	return Classification{Category: category, Label: label}, nil
}
