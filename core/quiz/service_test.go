package quiz_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/quiz"
	"github.com/trezcool/examprep/core/user"
	"github.com/trezcool/examprep/storage/database/inmem"
	"github.com/trezcool/examprep/tests"
)

func newQuestion(text, answer string) quiz.NewQuestion {
	return quiz.NewQuestion{Text: text, CorrectAnswer: answer, Option1: answer, Option2: "b", Option3: "c", Option4: "d"}
}

func TestNewQuiz_Validate(t *testing.T) {
	validate, translator := testutil.NewValidator()

	nq := quiz.NewQuiz{}
	err := nq.Validate(validate)
	vErrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok, "want validator.ValidationErrors, got %v", err)
	got := make(map[string]string, len(vErrs))
	for _, e := range vErrs {
		got[e.Field()] = e.Translate(translator)
	}
	assert.Equal(t, map[string]string{"title": "this field is required", "questions": "this field is required"}, got)

	nq = quiz.NewQuiz{Title: "Q", Questions: []quiz.NewQuestion{{Text: "What?"}}}
	err = nq.Validate(validate)
	vErrs, ok = err.(validator.ValidationErrors)
	require.True(t, ok, "want validator.ValidationErrors, got %v", err)
	assert.Len(t, vErrs, 5) // answer + 4 options

	nq = quiz.NewQuiz{Title: " Q ", Description: " D ", Questions: []quiz.NewQuestion{newQuestion(" What? ", " a ")}}
	require.NoError(t, nq.Validate(validate))
	assert.Equal(t, "Q", nq.Title)
	assert.Equal(t, "D", nq.Description)
	assert.Equal(t, newQuestion("What?", "a"), nq.Questions[0])
}

func TestQuiz_WithoutAnswers(t *testing.T) {
	q := quiz.Quiz{Title: "Q", Questions: []quiz.Question{{Text: "1", CorrectAnswer: "a"}, {Text: "2", CorrectAnswer: "b"}}}
	hidden := q.WithoutAnswers()
	for _, qn := range hidden.Questions {
		assert.Empty(t, qn.CorrectAnswer)
	}
	assert.Equal(t, "a", q.Questions[0].CorrectAnswer, "the original quiz is untouched")
}

func TestService(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.Open()
	svc := quiz.NewService(inmemdb.NewQuizRepository(db), inmemdb.NewTransactor(db))
	usr := testutil.CreateUser(t, inmemdb.NewUserRepository(db), "Bob", "bob", "", "", []string{user.RoleStudent}, true)

	q, err := svc.Create(ctx, quiz.NewQuiz{
		Title:       "Sorting",
		Description: "Sorting algorithms",
		Questions: []quiz.NewQuestion{
			newQuestion("Fastest average sort?", "quick sort"),
			newQuestion("Stable divide and conquer sort?", "merge sort"),
			newQuestion("Sort using a heap?", "heap sort"),
		},
	})
	require.NoError(t, err)
	require.Len(t, q.Questions, 3)
	for i, qn := range q.Questions {
		assert.Equal(t, q.ID, qn.QuizID)
		assert.Equal(t, i, qn.Position)
	}
	other, err := svc.Create(ctx, quiz.NewQuiz{Title: "Graphs", Questions: []quiz.NewQuestion{newQuestion("?", "a")}})
	require.NoError(t, err)

	t.Run("get", func(t *testing.T) {
		got, err := svc.Get(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, q, got)

		_, err = svc.Get(ctx, "unknown")
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("query", func(t *testing.T) {
		got, err := svc.Query(ctx, &quiz.QueryFilter{Search: "ALGO"}, nil)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, q.ID, got[0].ID)
		assert.Nil(t, got[0].Questions)

		got, err = svc.Query(ctx, nil, []core.DBOrdering{{Field: "title", Ascending: true}})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, other.ID, got[0].ID)
	})

	t.Run("submit", func(t *testing.T) {
		res, err := svc.Submit(ctx, usr, q.ID, quiz.Submission{Answers: map[string]string{
			q.Questions[0].ID: " quick sort ",
			q.Questions[1].ID: "bubble sort",
			"unknown":         "heap sort",
		}})
		require.NoError(t, err)
		assert.Equal(t, quiz.Result{
			QuizID: q.ID,
			Score:  1,
			Total:  3,
			Answers: []quiz.AnswerResult{
				{QuestionID: q.Questions[0].ID, Answer: "quick sort", Correct: true, CorrectAnswer: "quick sort"},
				{QuestionID: q.Questions[1].ID, Answer: "bubble sort", Correct: false, CorrectAnswer: "merge sort"},
				{QuestionID: q.Questions[2].ID, Answer: "", Correct: false, CorrectAnswer: "heap sort"},
			},
			XPEarned: 30,
		}, res)

		// resubmitting replaces the previous result
		res, err = svc.Submit(ctx, usr, q.ID, quiz.Submission{Answers: map[string]string{
			q.Questions[0].ID: "quick sort",
			q.Questions[1].ID: "merge sort",
			q.Questions[2].ID: "heap sort",
		}})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Score)

		progress, err := svc.UserProgress(ctx, usr)
		require.NoError(t, err)
		require.Len(t, progress, 1)
		assert.Equal(t, 3, progress[0].Score)
		assert.Equal(t, "Sorting", progress[0].QuizTitle)
		assert.Equal(t, usr.ID, progress[0].UserID)

		_, err = svc.Submit(ctx, usr, "unknown", quiz.Submission{})
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, q.ID))
		_, err := svc.Get(ctx, q.ID)
		assert.Equal(t, quiz.ErrNotFound, err)

		progress, err := svc.UserProgress(ctx, usr)
		require.NoError(t, err)
		assert.Empty(t, progress)
	})
}
