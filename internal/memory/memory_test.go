package memory

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathtutor/internal/taxonomy"
)

func fill(t *testing.T, m *ConversationMemory, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		_, err := m.Append(taxonomy.DefinitionBased, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
		require.NoError(t, err)
	}
}

func TestRender_ReturnsMinOfNAndK(t *testing.T) {
	for n := 0; n <= 5; n++ {
		for k := 0; k <= 4; k++ {
			m := New()
			fill(t, m, n)

			lines := slices.Collect(m.Lines(k))
			assert.Len(t, lines, min(n, k), "n=%d k=%d", n, k)

			if n > 0 && k > 0 {
				// Oldest of the retained window first.
				first := n - min(n, k) + 1
				assert.Equal(t, fmt.Sprintf("Q: q%d\nA: a%d", first, first), lines[0])
			}
		}
	}
}

func TestRender_Format(t *testing.T) {
	m := New()
	fill(t, m, 2)

	assert.Equal(t, "Q: q1\nA: a1\nQ: q2\nA: a2", m.Render(DefaultTurns))
}

func TestRender_EmptyCases(t *testing.T) {
	m := New()
	assert.Equal(t, "", m.Render(DefaultTurns))

	fill(t, m, 2)
	assert.Equal(t, "", m.Render(0))
	assert.Equal(t, "", m.Render(-1))

	m.Clear()
	assert.Equal(t, "", m.Render(DefaultTurns))
	assert.Equal(t, 0, m.Len())
}

func TestRender_FourthAppendDropsOldest(t *testing.T) {
	m := New()
	fill(t, m, 4)

	want := []string{
		"Q: q2\nA: a2",
		"Q: q3\nA: a3",
		"Q: q4\nA: a4",
	}
	if diff := cmp.Diff(want, slices.Collect(m.Lines(3))); diff != "" {
		t.Errorf("Lines(3) mismatch (-want +got):\n%s", diff)
	}
	// The full log is retained.
	assert.Equal(t, 4, m.Len())
}

func TestLines_Restartable(t *testing.T) {
	m := New()
	fill(t, m, 3)

	seq := m.Lines(2)
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)

	// Early break stops iteration.
	count := 0
	for range seq {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestAppend_RejectsUnknownCategory(t *testing.T) {
	m := New()
	_, err := m.Append(taxonomy.Unknown, "q", "a")
	require.ErrorIs(t, err, ErrInvalidCategory)

	_, err = m.Append("Poetry", "q", "a")
	require.ErrorIs(t, err, ErrInvalidCategory)
	assert.Equal(t, 0, m.Len())
}

func TestAppend_AssignsOrdinalsAndTimestamps(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := New()
	m.now = func() time.Time { return fixed }

	t1, err := m.Append(taxonomy.Comparison, "q1", "a1")
	require.NoError(t, err)
	m.Clear()
	t2, err := m.Append(taxonomy.PythonCode, "q2", "a2")
	require.NoError(t, err)

	assert.Equal(t, 1, t1.Ordinal)
	assert.Equal(t, 2, t2.Ordinal)
	assert.Equal(t, fixed, t2.At)
}

func TestTurns_ReturnsCopy(t *testing.T) {
	m := New()
	fill(t, m, 1)

	turns := m.Turns()
	turns[0].Answer = "mutated"
	assert.Equal(t, "a1", m.Turns()[0].Answer)
}
