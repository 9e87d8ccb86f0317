package taxonomy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ExactMatch(t *testing.T) {
	for _, c := range Labels() {
		assert.Equal(t, c, Parse(string(c)))
	}
}

func TestParse_NonMembersAreUnknown(t *testing.T) {
	tests := []string{
		"",
		"definition-based",
		"DEFINITION-BASED",
		" Definition-Based",
		"Definition Based",
		"Unrelated-Label",
		"Unknown",
		"Python-Code.",
	}
	for _, label := range tests {
		t.Run(label, func(t *testing.T) {
			assert.Equal(t, Unknown, Parse(label))
		})
	}
}

func TestLabels_CanonicalOrder(t *testing.T) {
	want := []Category{
		"Definition-Based", "Concept-Explanation", "Problem-Solving", "Comparison",
		"Process-Guide", "Doubt-Clearing", "Python-Code", "Python-Debug",
	}
	if diff := cmp.Diff(want, Labels()); diff != "" {
		t.Errorf("Labels() mismatch (-want +got):\n%s", diff)
	}

	// Callers cannot mutate the closed set.
	labels := Labels()
	labels[0] = "Tampered"
	assert.Equal(t, DefinitionBased, Labels()[0])
}

func TestDefault_CoversClosedSet(t *testing.T) {
	tax, err := Default()
	require.NoError(t, err)

	assert.Empty(t, tax.Missing())
	assert.Len(t, tax.Specialists(), len(Labels()))
	for _, c := range Labels() {
		s, ok := tax.Lookup(c)
		require.True(t, ok, "missing specialist for %s", c)
		assert.Equal(t, c, s.Category)
		assert.Contains(t, s.Template, QuestionPlaceholder)
		assert.NotEmpty(t, s.Role)
	}
	assert.Contains(t, tax.Classifier().Template, LabelsPlaceholder)
}

func TestLookup_UnknownReturnsSentinel(t *testing.T) {
	tax, err := Default()
	require.NoError(t, err)

	s, ok := tax.Lookup(Unknown)
	assert.False(t, ok)
	assert.True(t, s.IsUnhandled())
	assert.Equal(t, Unhandled, s)

	s, ok = tax.Lookup("Made-Up")
	assert.False(t, ok)
	assert.True(t, s.IsUnhandled())
}

func TestNew_PartialTableReportsGaps(t *testing.T) {
	tax, err := New(ClassifierPrompt{Template: "{labels}\nQ: {question}"}, []Specialist{
		{Category: Comparison, Role: "r", Template: "compare {question}"},
	})
	require.NoError(t, err)

	_, ok := tax.Lookup(Comparison)
	assert.True(t, ok)
	_, ok = tax.Lookup(PythonDebug)
	assert.False(t, ok)
	assert.Len(t, tax.Missing(), len(Labels())-1)
}

func TestNew_Rejects(t *testing.T) {
	classifier := ClassifierPrompt{Template: "{labels}\n{question}"}

	tests := []struct {
		name        string
		classifier  ClassifierPrompt
		specialists []Specialist
		wantErr     string
	}{
		{
			name:        "template without question placeholder",
			classifier:  classifier,
			specialists: []Specialist{{Category: Comparison, Template: "compare things"}},
			wantErr:     "missing {question}",
		},
		{
			name:        "category outside closed set",
			classifier:  classifier,
			specialists: []Specialist{{Category: "Poetry", Template: "{question}"}},
			wantErr:     "not a known label",
		},
		{
			name:       "duplicate category",
			classifier: classifier,
			specialists: []Specialist{
				{Category: Comparison, Template: "{question}"},
				{Category: Comparison, Template: "again {question}"},
			},
			wantErr: "duplicate",
		},
		{
			name:       "classifier without question placeholder",
			classifier: ClassifierPrompt{Template: "classify into {labels}"},
			wantErr:    "classifier template missing {question}",
		},
		{
			name:       "classifier without labels placeholder",
			classifier: ClassifierPrompt{Template: "classify: {question}"},
			wantErr:    "classifier template missing {labels}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.classifier, tt.specialists)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile_OverridesAndFallsBackToEmbeddedClassifier(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.yaml")
	content := strings.Join([]string{
		"specialists:",
		"  - category: Python-Code",
		"    role: terse coder",
		"    template: \"code: {question}\"",
		"    expected_output: code only",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	tax, err := LoadFile(path)
	require.NoError(t, err)

	s, ok := tax.Lookup(PythonCode)
	require.True(t, ok)
	assert.Equal(t, "code: {question}", s.Template)
	assert.Equal(t, "terse coder", s.Role)

	def, err := Default()
	require.NoError(t, err)
	assert.Equal(t, def.Classifier(), tax.Classifier())
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("specialists: [unterminated"), 0644))
	_, err = LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoadFile_RejectsClassifierWithoutLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	content := strings.Join([]string{
		"classifier:",
		"  role: classifier",
		"  template: \"Which category? {question}\"",
		"specialists:",
		"  - category: Comparison",
		"    template: \"compare {question}\"",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), LabelsPlaceholder)
}
