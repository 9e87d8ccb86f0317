package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathtutor/internal/perception"
	"pathtutor/internal/taxonomy"
)

// echoClient is a deterministic provider: the output is derived only from
// the prompts it receives.
type echoClient struct {
	calls []struct{ system, user string }
	err   error
}

func (e *echoClient) Complete(ctx context.Context, prompt string) (string, error) {
	return e.CompleteWithSystem(ctx, "", prompt)
}

func (e *echoClient) CompleteWithSystem(_ context.Context, system, user string) (string, error) {
	e.calls = append(e.calls, struct{ system, user string }{system, user})
	if e.err != nil {
		return "", e.err
	}
	return "answer to: " + user, nil
}

func defaultTaxonomy(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()
	tax, err := taxonomy.Default()
	require.NoError(t, err)
	return tax
}

func TestDispatch_DefinitionBasedScenario(t *testing.T) {
	tax := defaultTaxonomy(t)
	client := &echoClient{}
	r := New(client, tax)

	res := r.Dispatch(context.Background(), taxonomy.DefinitionBased, "What is a variable?", "")

	require.True(t, res.Success)
	assert.Equal(t, taxonomy.DefinitionBased, res.Category)
	assert.Empty(t, res.Detail)
	assert.NoError(t, res.Err)

	require.Len(t, client.calls, 1)
	spec, _ := tax.Lookup(taxonomy.DefinitionBased)
	assert.Equal(t, spec.Role, client.calls[0].system)
	assert.Equal(t, SpecialistPrompt(spec, "What is a variable?", ""), client.calls[0].user)
	require.NotEmpty(t, spec.ExpectedOutput)
	assert.True(t, strings.HasSuffix(client.calls[0].user, "\n\nExpected output: "+strings.TrimSpace(spec.ExpectedOutput)))
	assert.Contains(t, client.calls[0].user, "Question: What is a variable?")
	assert.NotContains(t, client.calls[0].user, taxonomy.QuestionPlaceholder)
	assert.Equal(t, "answer to: "+client.calls[0].user, res.Output)
}

func TestDispatch_UnhandledCategories(t *testing.T) {
	partial, err := taxonomy.New(taxonomy.ClassifierPrompt{Template: "{labels}\n{question}"}, []taxonomy.Specialist{
		{Category: taxonomy.Comparison, Template: "{question}"},
	})
	require.NoError(t, err)

	for _, c := range []taxonomy.Category{taxonomy.Unknown, "Made-Up", taxonomy.PythonCode} {
		t.Run(string(c), func(t *testing.T) {
			client := &echoClient{}
			res := New(client, partial).Dispatch(context.Background(), c, "q", "")

			assert.False(t, res.Success)
			assert.Equal(t, DetailUnhandled, res.Detail)
			assert.ErrorIs(t, res.Err, taxonomy.ErrUnhandledCategory)
			assert.Empty(t, client.calls, "provider must not be called")
		})
	}
}

func TestDispatch_ProviderFailure(t *testing.T) {
	boom := &perception.ProviderError{Provider: "groq", Message: "service unavailable", StatusCode: 503}
	client := &echoClient{err: boom}

	res := New(client, defaultTaxonomy(t)).Dispatch(context.Background(), taxonomy.PythonDebug, "q", "")

	assert.False(t, res.Success)
	assert.Empty(t, res.Output)
	assert.Contains(t, res.Detail, "service unavailable")
	assert.True(t, errors.Is(res.Err, boom))
	assert.Len(t, client.calls, 1, "exactly one call, no retry")
}

func TestDispatch_Idempotent(t *testing.T) {
	client := &echoClient{}
	r := New(client, defaultTaxonomy(t))

	first := r.Dispatch(context.Background(), taxonomy.Comparison, "list vs tuple", "Q: a\nA: b")
	second := r.Dispatch(context.Background(), taxonomy.Comparison, "list vs tuple", "Q: a\nA: b")

	assert.Equal(t, first, second)
	assert.Len(t, client.calls, 2)
}

func TestDispatch_HistoryReachesTemplate(t *testing.T) {
	client := &echoClient{}
	New(client, defaultTaxonomy(t)).Dispatch(context.Background(), taxonomy.DoubtClearing, "still confused", "Q: what is a loop\nA: repetition")

	assert.Contains(t, client.calls[0].user, "Previous conversation:\nQ: what is a loop\nA: repetition")
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		question string
		history  string
		want     string
	}{
		{
			name:     "question only",
			template: "Q: {question}",
			question: "What is a variable?",
			want:     "Q: What is a variable?",
		},
		{
			name:     "history ignored when template lacks placeholder",
			template: "Q: {question}",
			question: "x",
			history:  "Q: old\nA: older",
			want:     "Q: x",
		},
		{
			name:     "history substituted when present",
			template: "{history}Q: {question}",
			question: "x",
			history:  "Q: old\nA: older",
			want:     "Previous conversation:\nQ: old\nA: older\nQ: x",
		},
		{
			name:     "empty history leaves no dangling token",
			template: "{history}Q: {question}",
			question: "x",
			want:     "Q: x",
		},
		{
			name:     "question text containing a placeholder is not rescanned",
			template: "{history}Q: {question}",
			question: "what does {history} mean?",
			history:  "H",
			want:     "Previous conversation:\nH\nQ: what does {history} mean?",
		},
		{
			name:     "history text containing question token is inert",
			template: "{history}Q: {question}",
			question: "x",
			history:  "{question}",
			want:     "Previous conversation:\n{question}\nQ: x",
		},
		{
			name:     "near-miss tokens untouched",
			template: "{ question } {Question} {question}",
			question: "q",
			want:     "{ question } {Question} q",
		},
		{
			name:     "repeated placeholder",
			template: "{question} / {question}",
			question: "q",
			want:     "q / q",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.template, tt.question, tt.history)
			assert.Equal(t, tt.want, got)
			if !strings.Contains(tt.template, taxonomy.HistoryPlaceholder) {
				assert.NotContains(t, got, "Previous conversation")
			}
		})
	}
}

func TestSpecialistPrompt(t *testing.T) {
	s := taxonomy.Specialist{
		Category:       taxonomy.PythonCode,
		Template:       "{history}Write code for: {question}\n",
		ExpectedOutput: "  A single code block.\n",
	}
	assert.Equal(t, "Write code for: sort a list\n\nExpected output: A single code block.",
		SpecialistPrompt(s, "sort a list", ""))

	s.ExpectedOutput = ""
	assert.Equal(t, "Write code for: sort a list\n", SpecialistPrompt(s, "sort a list", ""))
}
