package content

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/trezcool/examprep/core"
)

const (
	summaryMaxLen         = 500
	summarySentences      = 5
	summaryMinSentenceLen = 10

	maxKeyConcepts    = 10
	maxConceptLen     = 50
	maxQuizQuestions  = 5
	quizMinSentLen    = 20
	quizQuestionWords = 5

	maxMilestones        = 5
	milestoneDescMaxLen  = 100
	milestoneXPPerStep   = 10
	maxInsights          = 5
	insightMinLen        = 20
	insightImportance    = 5
	wordsPerMinute       = 200
	minStudyDurationMins = 5

	eli5Fallback = "Sorry, couldn't generate a simple explanation."
)

var (
	sentenceSep     = regexp.MustCompile(`[.!?]+`)
	insightKeywords = []string{"important", "key", "essential", "crucial"}
)

type (
	KeyConcept struct {
		Concept    string `json:"concept"`
		Definition string `json:"definition"`
	}

	QuizQuestion struct {
		Question      string `json:"question"`
		CorrectAnswer string `json:"correct_answer"`
		Option1       string `json:"option1"`
		Option2       string `json:"option2"`
		Option3       string `json:"option3"`
		Option4       string `json:"option4"`
	}

	Milestone struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Order       int    `json:"order"`
		XPReward    int    `json:"xp_reward"`
	}

	Insight struct {
		Content         string `json:"content"`
		ImportanceLevel int    `json:"importance_level"`
	}

	// Processed holds everything derived from a piece of study text.
	Processed struct {
		Title             string
		Summary           string
		ELI5              string
		KeyConcepts       []KeyConcept
		QuizQuestions     []QuizQuestion
		Milestones        []Milestone
		Insights          []Insight
		EstimatedDuration int // minutes
	}

	// Enhancer rewrites the summary and the simple explanation with a language model.
	Enhancer interface {
		Summarize(ctx context.Context, content string) (string, error)
		ExplainSimply(ctx context.Context, content string) (string, error)
	}

	Processor struct {
		enhancer Enhancer
		logger   core.Logger
	}
)

// NewProcessor returns a Processor. enhancer may be nil.
func NewProcessor(enhancer Enhancer, logger core.Logger) *Processor {
	return &Processor{enhancer: enhancer, logger: logger}
}

// Process runs every heuristic on content. When an Enhancer is set its summary and explanation win,
// unless it fails, in which case the heuristic ones are kept.
func (p *Processor) Process(ctx context.Context, content, title string) Processed {
	res := Processed{
		Title:             title,
		Summary:           GenerateSummary(content, summaryMaxLen),
		ELI5:              GenerateELI5(content),
		KeyConcepts:       ExtractKeyConcepts(content),
		QuizQuestions:     GenerateQuizQuestions(content),
		Milestones:        GenerateStudyMilestones(content),
		Insights:          ExtractBookmarkedInsights(content),
		EstimatedDuration: EstimateStudyDuration(content),
	}
	if p.enhancer == nil || strings.TrimSpace(content) == "" {
		return res
	}

	if summary, err := p.enhancer.Summarize(ctx, content); err != nil {
		p.logger.Warn(fmt.Sprintf("enhancing summary: %v", err), err)
	} else if summary != "" {
		res.Summary = summary
	}
	if eli5, err := p.enhancer.ExplainSimply(ctx, content); err != nil {
		p.logger.Warn(fmt.Sprintf("enhancing explanation: %v", err), err)
	} else if eli5 != "" {
		res.ELI5 = eli5
	}
	return res
}

// splitSentences splits s on runs of sentence terminators and trims every part.
func splitSentences(s string) []string {
	parts := sentenceSep.Split(s, -1)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// sentencesLongerThan returns the sentences of s with more than n characters.
func sentencesLongerThan(s string, n int) []string {
	var res []string
	for _, sent := range splitSentences(s) {
		if utf8.RuneCountInString(sent) > n {
			res = append(res, sent)
		}
	}
	return res
}

func GenerateSummary(content string, maxLen int) string {
	sentences := sentencesLongerThan(content, summaryMinSentenceLen)
	if len(sentences) > summarySentences {
		sentences = sentences[:summarySentences]
	}
	summary := strings.Join(sentences, ". ")
	if utf8.RuneCountInString(summary) > maxLen {
		return core.Truncate(summary, maxLen) + "..."
	}
	return summary
}

// ExtractKeyConcepts reads `concept: definition` lines.
func ExtractKeyConcepts(content string) []KeyConcept {
	var concepts []KeyConcept
	for _, line := range strings.Split(content, "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		concept := strings.TrimSpace(parts[0])
		if utf8.RuneCountInString(concept) >= maxConceptLen {
			continue
		}
		concepts = append(concepts, KeyConcept{Concept: concept, Definition: strings.TrimSpace(parts[1])})
		if len(concepts) == maxKeyConcepts {
			break
		}
	}
	return concepts
}

func GenerateELI5(content string) string {
	if sentences := sentencesLongerThan(content, summaryMinSentenceLen); len(sentences) > 0 {
		return "Imagine this: " + sentences[0]
	}
	return eli5Fallback
}

// GenerateQuizQuestions builds multiple choice questions whose distractors are the following sentences.
func GenerateQuizQuestions(content string) []QuizQuestion {
	sentences := sentencesLongerThan(content, quizMinSentLen)
	n := len(sentences)

	var questions []QuizQuestion
	for i := 0; i < n && i < maxQuizQuestions; i++ {
		sent := sentences[i]
		words := strings.Fields(sent)
		if len(words) > quizQuestionWords {
			words = words[:quizQuestionWords]
		}
		questions = append(questions, QuizQuestion{
			Question:      fmt.Sprintf("Which of the following best describes %s...?", strings.Join(words, " ")),
			CorrectAnswer: sent,
			Option1:       sent,
			Option2:       sentences[(i+1)%n],
			Option3:       sentences[(i+2)%n],
			Option4:       sentences[(i+3)%n],
		})
	}
	return questions
}

// GenerateStudyMilestones makes one milestone per paragraph. Later milestones are worth more XP.
func GenerateStudyMilestones(content string) []Milestone {
	var milestones []Milestone
	for _, para := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}
		order := len(milestones) + 1
		desc := para
		if utf8.RuneCountInString(para) > milestoneDescMaxLen {
			desc = core.Truncate(para, milestoneDescMaxLen) + "..."
		}
		milestones = append(milestones, Milestone{
			Title:       fmt.Sprintf("Milestone %d", order),
			Description: desc,
			Order:       order,
			XPReward:    milestoneXPPerStep * order,
		})
		if len(milestones) == maxMilestones {
			break
		}
	}
	return milestones
}

func ExtractBookmarkedInsights(content string) []Insight {
	var insights []Insight
	for _, sent := range splitSentences(content) {
		if utf8.RuneCountInString(sent) <= insightMinLen || !containsAny(strings.ToLower(sent), insightKeywords) {
			continue
		}
		insights = append(insights, Insight{Content: sent, ImportanceLevel: insightImportance})
		if len(insights) == maxInsights {
			break
		}
	}
	return insights
}

// EstimateStudyDuration assumes a reading speed of 200 words per minute, with a 5 minutes floor.
func EstimateStudyDuration(content string) int {
	if mins := len(strings.Fields(content)) / wordsPerMinute; mins > minStudyDurationMins {
		return mins
	}
	return minStudyDurationMins
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
