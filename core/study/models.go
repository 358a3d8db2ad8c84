package study

import (
	"strings"
	"time"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/content"
)

const (
	maxTitleLen   = 200
	untitledTitle = "Untitled"
)

type (
	ScrapedContent struct {
		ID         string             `json:"id"`
		URL        string             `json:"url"`
		Title      string             `json:"title"`
		RawContent string             `json:"raw_content"`
		SourceType content.SourceType `json:"source_type"`
		ScrapedAt  time.Time          `json:"scraped_at"` // UTC
	}

	Material struct {
		ID               string    `json:"id"`
		ScrapedContentID string    `json:"scraped_content_id"`
		Title            string    `json:"title"`
		Summary          string    `json:"summary"`
		ELI5Explanation  string    `json:"eli5_explanation"`
		StudyDuration    int       `json:"study_duration"` // minutes
		CreatedBy        string    `json:"created_by"`
		CreatedAt        time.Time `json:"created_at"` // UTC
		UpdatedAt        time.Time `json:"updated_at"` // UTC

		// children; only loaded by Service.Get
		KeyConcepts []KeyConcept        `json:"key_concepts,omitempty"`
		Milestones  []Milestone         `json:"milestones,omitempty"`
		Insights    []Insight           `json:"insights,omitempty"`
		Questions   []GeneratedQuestion `json:"questions,omitempty"`
	}

	KeyConcept struct {
		ID              string `json:"id"`
		StudyMaterialID string `json:"study_material_id"`
		Concept         string `json:"concept"`
		Definition      string `json:"definition"`
	}

	Milestone struct {
		ID              string `json:"id"`
		StudyMaterialID string `json:"study_material_id"`
		Title           string `json:"title"`
		Description     string `json:"description"`
		Order           int    `json:"order"`
		XPReward        int    `json:"xp_reward"`
	}

	Insight struct {
		ID              string    `json:"id"`
		StudyMaterialID string    `json:"study_material_id"`
		Content         string    `json:"content"`
		ImportanceLevel int       `json:"importance_level"` // 1 - 5
		CreatedAt       time.Time `json:"created_at"`       // UTC
	}

	GeneratedQuestion struct {
		ID              string `json:"id"`
		StudyMaterialID string `json:"study_material_id"`
		Question        string `json:"question"`
		CorrectAnswer   string `json:"correct_answer"`
		Option1         string `json:"option1"`
		Option2         string `json:"option2"`
		Option3         string `json:"option3"`
		Option4         string `json:"option4"`
	}
)

// URLSubmission is the JSON body of a study material creation from a webpage.
type URLSubmission struct {
	URL string `json:"url" form:"url" validate:"required,url,max=2048"`
}

func (s *URLSubmission) Clean() {
	s.URL = core.CleanString(s.URL)
}

type QueryFilter struct {
	Search    string `query:"search"`
	CreatedBy string `query:"created_by"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.CreatedBy = core.CleanString(qf.CreatedBy)
}

func cleanTitle(title string) string {
	title = core.Truncate(core.CleanString(strings.ToValidUTF8(title, "")), maxTitleLen)
	if title == "" {
		return untitledTitle
	}
	return title
}

// newMaterial builds the material graph out of processed content. IDs are set by the repository.
func newMaterial(p content.Processed, createdBy string, now time.Time) Material {
	m := Material{
		Title:           cleanTitle(p.Title),
		Summary:         p.Summary,
		ELI5Explanation: p.ELI5,
		StudyDuration:   p.EstimatedDuration,
		CreatedBy:       createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, c := range p.KeyConcepts {
		m.KeyConcepts = append(m.KeyConcepts, KeyConcept{
			Concept:    core.Truncate(c.Concept, maxTitleLen),
			Definition: c.Definition,
		})
	}
	for i, ms := range p.Milestones {
		m.Milestones = append(m.Milestones, Milestone{
			Title:       ms.Title,
			Description: ms.Description,
			Order:       i + 1,
			XPReward:    ms.XPReward,
		})
	}
	for _, in := range p.Insights {
		m.Insights = append(m.Insights, Insight{Content: in.Content, ImportanceLevel: in.ImportanceLevel, CreatedAt: now})
	}
	for _, q := range p.QuizQuestions {
		m.Questions = append(m.Questions, GeneratedQuestion{
			Question:      q.Question,
			CorrectAnswer: q.CorrectAnswer,
			Option1:       q.Option1,
			Option2:       q.Option2,
			Option3:       q.Option3,
			Option4:       q.Option4,
		})
	}
	return m
}
