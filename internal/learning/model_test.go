package learning

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)

func TestSentences(t *testing.T) {
	got := Sentences("Hello, is this Acme? This is Ava with Mobile Solutions. I'll be brief. We cut costs by 3.5 percent")
	assert.Equal(t, []string{"Hello, is this Acme?", "This is Ava with Mobile Solutions.", "We cut costs by 3.5 percent"}, got)
	assert.Empty(t, Sentences("   "))
}

func TestPatternKey(t *testing.T) {
	assert.Equal(t, "that's great we help", PatternKey("  That's GREAT -- we help!! "))
	assert.Equal(t, PatternKey("What day works?"), PatternKey("what  day works"))
	assert.LessOrEqual(t, len(PatternKey(strings.Repeat("abc ", 100))), maxKeyLength)
}

func TestKeywordClassifier(t *testing.T) {
	tests := []struct {
		sentence string
		want     string
	}{
		{"I understand your concern about the cost.", CategoryObjectionHandling},
		{"Totally understand, there's no pressure at all.", CategoryObjectionHandling},
		{"I understand your company provides roofing services in Denver.", ""},
		{"I'd love to set up a quick call with one of our specialists.", CategoryClosingTechniques},
		{"And roughly how many employees do you have working in the field?", CategoryQualificationQuestions},
		{"Our app will reduce paperwork for your crews.", CategoryValuePropositions},
		{"This is Ava with Mobile Solutions.", ""},
	}
	sentences := make([]string, len(tests))
	for i, tt := range tests {
		sentences[i] = tt.sentence
	}
	labels, err := KeywordClassifier{}.Classify(context.Background(), sentences)
	require.NoError(t, err)
	for i, tt := range tests {
		assert.Equal(t, tt.want, labels[i], tt.sentence)
	}
}

func TestMemoryStoreUpsert(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	later := fixedTime.Add(time.Hour)
	require.NoError(t, s.UpsertPattern(ctx, "Roofing", CategoryValuePropositions, "a", "A", fixedTime))
	require.NoError(t, s.UpsertPattern(ctx, "Roofing", CategoryValuePropositions, "b", "B", fixedTime))
	require.NoError(t, s.UpsertPattern(ctx, "Roofing", CategoryValuePropositions, "b", "B!", later))

	list, err := s.ListPatterns(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "B!", list[0].Value)
	assert.Equal(t, 2, list[0].SuccessCount)
	assert.Equal(t, later, list[0].LastUsed)
	assert.Equal(t, fixedTime, list[0].CreatedAt)
}
