package content

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSummary(t *testing.T) {
	long := strings.Repeat("a", 300)
	tests := []struct {
		name    string
		content string
		maxLen  int
		want    string
	}{
		{name: "empty", content: "", maxLen: 500, want: ""},
		{name: "short sentences dropped", content: "Hi. Yes! Ok? This one is long enough.", maxLen: 500, want: "This one is long enough"},
		{
			name:    "first five",
			content: "Sentence number one. Sentence number two. Sentence number three. Sentence number four. Sentence number five. Sentence number six.",
			maxLen:  500,
			want:    "Sentence number one. Sentence number two. Sentence number three. Sentence number four. Sentence number five",
		},
		{name: "truncated", content: long + ". " + long + ".", maxLen: 500, want: (long + ". " + long)[:500] + "..."},
		{name: "terminator runs", content: "What is going on?!... Nothing much here!!", maxLen: 500, want: "What is going on. Nothing much here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateSummary(tt.content, tt.maxLen))
		})
	}
}

func TestExtractKeyConcepts(t *testing.T) {
	content := "Intro without colon\n" +
		"Algorithm: a finite sequence of steps\n" +
		strings.Repeat("x", 50) + ": too long to be a concept\n" +
		"  Big O :  asymptotic upper bound: worst case  \n"

	got := ExtractKeyConcepts(content)
	assert.Equal(t, []KeyConcept{
		{Concept: "Algorithm", Definition: "a finite sequence of steps"},
		{Concept: "Big O", Definition: "asymptotic upper bound: worst case"},
	}, got)

	var many strings.Builder
	for i := 0; i < 15; i++ {
		many.WriteString("term: definition\n")
	}
	assert.Len(t, ExtractKeyConcepts(many.String()), maxKeyConcepts)
	assert.Empty(t, ExtractKeyConcepts("no concepts at all"))
}

func TestGenerateELI5(t *testing.T) {
	assert.Equal(t, "Imagine this: Graphs are made of nodes and edges", GenerateELI5("Short. Graphs are made of nodes and edges. More text."))
	assert.Equal(t, eli5Fallback, GenerateELI5("Tiny. Bits."))
	assert.Equal(t, eli5Fallback, GenerateELI5(""))
}

func TestGenerateQuizQuestions(t *testing.T) {
	s := []string{
		"Stacks are last in first out structures",
		"Queues are first in first out structures",
		"Heaps keep the smallest element at the root",
	}
	content := strings.Join(s, ". ") + ". Too short here."

	got := GenerateQuizQuestions(content)
	require.Len(t, got, 3)
	assert.Equal(t, QuizQuestion{
		Question:      "Which of the following best describes Stacks are last in first...?",
		CorrectAnswer: s[0],
		Option1:       s[0],
		Option2:       s[1],
		Option3:       s[2],
		Option4:       s[0],
	}, got[0])
	assert.Equal(t, s[0], got[1].Option3) // wraps around
	assert.Equal(t, "Which of the following best describes Heaps keep the smallest element...?", got[2].Question)

	var many []string
	for i := 0; i < 8; i++ {
		many = append(many, "This sentence is comfortably long enough")
	}
	assert.Len(t, GenerateQuizQuestions(strings.Join(many, ". ")), maxQuizQuestions)
	assert.Empty(t, GenerateQuizQuestions("Nothing long."))
}

func TestGenerateStudyMilestones(t *testing.T) {
	long := strings.Repeat("b", 120)
	content := "First paragraph.\n\n\n\n" + long + "\n\nThird\n\nFourth\n\nFifth\n\nSixth\n\nSeventh"

	got := GenerateStudyMilestones(content)
	require.Len(t, got, maxMilestones)
	assert.Equal(t, Milestone{Title: "Milestone 1", Description: "First paragraph.", Order: 1, XPReward: 10}, got[0])
	assert.Equal(t, Milestone{Title: "Milestone 2", Description: long[:100] + "...", Order: 2, XPReward: 20}, got[1])
	assert.Equal(t, "Fifth", got[4].Description)
	assert.Equal(t, 50, got[4].XPReward)

	assert.Empty(t, GenerateStudyMilestones(""))
	assert.Len(t, GenerateStudyMilestones("one single cleaned paragraph"), 1)
}

func TestExtractBookmarkedInsights(t *testing.T) {
	content := "This is an important point to remember. Key idea. " +
		"Nothing special in this sentence at all. Essential: recursion needs a base case! " +
		"It is CRUCIAL to test your code"

	got := ExtractBookmarkedInsights(content)
	assert.Equal(t, []Insight{
		{Content: "This is an important point to remember", ImportanceLevel: 5},
		{Content: "Essential: recursion needs a base case", ImportanceLevel: 5},
		{Content: "It is CRUCIAL to test your code", ImportanceLevel: 5},
	}, got)
}

func TestEstimateStudyDuration(t *testing.T) {
	assert.Equal(t, 5, EstimateStudyDuration(""))
	assert.Equal(t, 5, EstimateStudyDuration(strings.Repeat("word ", 1199)))
	assert.Equal(t, 6, EstimateStudyDuration(strings.Repeat("word ", 1200)))
	assert.Equal(t, 10, EstimateStudyDuration(strings.Repeat("word ", 2050)))
}

type stubEnhancer struct {
	summary, eli5 string
	err           error
}

func (e stubEnhancer) Summarize(context.Context, string) (string, error)     { return e.summary, e.err }
func (e stubEnhancer) ExplainSimply(context.Context, string) (string, error) { return e.eli5, e.err }

type nopLogger struct{ warnings int }

func (l *nopLogger) Debug(string, ...interface{}) {}
func (l *nopLogger) Info(string, ...interface{})  {}
func (l *nopLogger) Warn(string, ...interface{})  { l.warnings++ }
func (l *nopLogger) Error(string, ...interface{}) {}
func (l *nopLogger) Fatal(string, ...interface{}) {}

func TestProcessor_Process(t *testing.T) {
	content := "Binary search halves the search space every step. It is important to keep the input sorted."
	ctx := context.Background()

	t.Run("heuristics only", func(t *testing.T) {
		got := NewProcessor(nil, &nopLogger{}).Process(ctx, content, "Binary Search")
		assert.Equal(t, "Binary Search", got.Title)
		assert.Equal(t, "Binary search halves the search space every step. It is important to keep the input sorted", got.Summary)
		assert.Equal(t, "Imagine this: Binary search halves the search space every step", got.ELI5)
		assert.Len(t, got.QuizQuestions, 2)
		assert.Len(t, got.Milestones, 1)
		assert.Len(t, got.Insights, 1)
		assert.Equal(t, 5, got.EstimatedDuration)
	})

	t.Run("enhanced", func(t *testing.T) {
		got := NewProcessor(stubEnhancer{summary: "LLM summary", eli5: "LLM eli5"}, &nopLogger{}).Process(ctx, content, "t")
		assert.Equal(t, "LLM summary", got.Summary)
		assert.Equal(t, "LLM eli5", got.ELI5)
	})

	t.Run("enhancer failure keeps heuristics", func(t *testing.T) {
		logger := &nopLogger{}
		got := NewProcessor(stubEnhancer{err: errors.New("boom")}, logger).Process(ctx, content, "t")
		assert.Equal(t, "Imagine this: Binary search halves the search space every step", got.ELI5)
		assert.Equal(t, 2, logger.warnings)
	})
}
