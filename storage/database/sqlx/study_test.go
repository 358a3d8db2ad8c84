package sqlxrepos

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/examprep/core/study"
)

func TestStudyRows_positions(t *testing.T) {
	now := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)

	concepts := []study.KeyConcept{
		{ID: "c1", StudyMaterialID: "m", Concept: "Zeta", Definition: "last letter"},
		{ID: "c2", StudyMaterialID: "m", Concept: "Alpha", Definition: "first letter"},
	}
	for i, c := range concepts {
		row := toConceptRow(c, i)
		assert.Equal(t, i, row.Position)
		assert.Equal(t, c, row.toKeyConcept())
	}

	insights := []study.Insight{
		{ID: "i1", StudyMaterialID: "m", Content: "Sorting is important", ImportanceLevel: 5, CreatedAt: now},
		{ID: "i2", StudyMaterialID: "m", Content: "Merge sort is key", ImportanceLevel: 5, CreatedAt: now},
	}
	for i, in := range insights {
		row := toInsightRow(in, i)
		assert.Equal(t, i, row.Position)
		assert.Equal(t, in, row.toInsight())
	}

	questions := []study.GeneratedQuestion{
		{ID: "q1", StudyMaterialID: "m", Question: "What is Zeta?", CorrectAnswer: "last letter", Option1: "a", Option2: "b", Option3: "c", Option4: "last letter"},
		{ID: "q2", StudyMaterialID: "m", Question: "What is Alpha?", CorrectAnswer: "first letter", Option1: "first letter", Option2: "b", Option3: "c", Option4: "d"},
	}
	for i, q := range questions {
		row := toGenQuestionRow(q, i)
		assert.Equal(t, i, row.Position)
		assert.Equal(t, q, row.toGeneratedQuestion())
	}
}

func TestStudyQueries_extractionOrder(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "key concepts", query: conceptsQuery, want: " ORDER BY position"},
		{name: "milestones", query: milestonesQuery, want: ` ORDER BY "order"`},
		{name: "insights", query: insightsQuery, want: " ORDER BY position"},
		{name: "generated questions", query: genQsQuery, want: " ORDER BY position"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, strings.HasSuffix(tt.query, tt.want), tt.query)
		})
	}
}
