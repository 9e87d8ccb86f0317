// Package router dispatches a classified question to its category's
// specialist. One code path serves every category; the taxonomy table
// decides the prompt.
package router

import (
	"context"
	"strings"

	"pathtutor/internal/logging"
	"pathtutor/internal/perception"
	"pathtutor/internal/taxonomy"
	"pathtutor/internal/usage"
)

// DetailUnhandled is the DispatchResult detail for categories without a
// specialist.
const DetailUnhandled = "unhandled category"

// DispatchResult is the outcome of one dispatch. It is never persisted.
type DispatchResult struct {
	Category taxonomy.Category
	Output   string
	Success  bool
	Detail   string // failure description, empty on success
	Err      error  // underlying failure, nil on success
}

// Router is the specialist dispatcher.
type Router struct {
	client   perception.LLMClient
	taxonomy *taxonomy.Taxonomy
}

// New creates a router over the given taxonomy.
func New(client perception.LLMClient, tax *taxonomy.Taxonomy) *Router {
	return &Router{client: client, taxonomy: tax}
}

// Render substitutes {question} and, only when the template contains it,
// {history}. Substitution is a single literal pass: text inserted for one
// placeholder is never rescanned for the other.
func Render(template, question, history string) string {
	pairs := []string{taxonomy.QuestionPlaceholder, question}
	if strings.Contains(template, taxonomy.HistoryPlaceholder) {
		pairs = append(pairs, taxonomy.HistoryPlaceholder, historyBlock(history))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// SpecialistPrompt renders the specialist's template and appends its
// expected output, when set, as the answer contract.
func SpecialistPrompt(s taxonomy.Specialist, question, history string) string {
	prompt := Render(s.Template, question, history)
	expected := strings.TrimSpace(s.ExpectedOutput)
	if expected == "" {
		return prompt
	}
	return strings.TrimRight(prompt, "\n") + "\n\nExpected output: " + expected
}

func historyBlock(history string) string {
	if history == "" {
		return ""
	}
	return "Previous conversation:\n" + history + "\n"
}

// Dispatch sends question to the specialist for category. It never returns
// an error: failures are reported in the result so the caller's session
// survives. The provider is called at most once.
func (r *Router) Dispatch(ctx context.Context, category taxonomy.Category, question, history string) DispatchResult {
	specialist, ok := r.taxonomy.Lookup(category)
	if !ok || specialist.IsUnhandled() {
		logging.RoutingWarn("No specialist for category %q", category)
		return DispatchResult{
			Category: category,
			Detail:   DetailUnhandled,
			Err:      taxonomy.ErrUnhandledCategory,
		}
	}

	sessionID, _, _ := usage.TurnFromContext(ctx)
	ctx = usage.WithTurn(ctx, sessionID, string(category), usage.OperationDispatch)

	prompt := SpecialistPrompt(specialist, question, history)
	logging.RoutingDebug("Dispatching to %s: prompt_len=%d history_len=%d", category, len(prompt), len(history))

	timer := logging.StartTimer(logging.CategoryRouting, "dispatch "+string(category))
	output, err := r.client.CompleteWithSystem(ctx, specialist.Role, prompt)
	timer.Stop()
	if err != nil {
		logging.RoutingWarn("Dispatch to %s failed: %v", category, err)
		return DispatchResult{
			Category: category,
			Detail:   err.Error(),
			Err:      err,
		}
	}

	logging.Routing("Dispatch to %s succeeded (%d chars)", category, len(output))
	return DispatchResult{
		Category: category,
		Output:   output,
		Success:  true,
	}
}
