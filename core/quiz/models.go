package quiz

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/examprep/core"
)

type (
	Quiz struct {
		ID          string     `json:"id"`
		Title       string     `json:"title"`
		Description string     `json:"description"`
		CreatedAt   time.Time  `json:"created_at"` // UTC
		Questions   []Question `json:"questions,omitempty"`
	}

	Question struct {
		ID            string `json:"id"`
		QuizID        string `json:"quiz_id"`
		Text          string `json:"text"`
		CorrectAnswer string `json:"correct_answer,omitempty"`
		Option1       string `json:"option1"`
		Option2       string `json:"option2"`
		Option3       string `json:"option3"`
		Option4       string `json:"option4"`
		Position      int    `json:"-"`
	}

	// Progress is a user's latest result on a quiz.
	Progress struct {
		ID          string    `json:"id"`
		UserID      string    `json:"user_id"`
		QuizID      string    `json:"quiz_id"`
		QuizTitle   string    `json:"quiz_title"`
		Score       int       `json:"score"`
		CompletedAt time.Time `json:"completed_at"` // UTC
	}
)

// WithoutAnswers returns a copy of the quiz whose questions hide their correct answer.
func (q Quiz) WithoutAnswers() Quiz {
	questions := make([]Question, len(q.Questions))
	for i, qn := range q.Questions {
		qn.CorrectAnswer = ""
		questions[i] = qn
	}
	q.Questions = questions
	return q
}

type NewQuestion struct {
	Text          string `json:"text" validate:"required"`
	CorrectAnswer string `json:"correct_answer" validate:"required,max=200"`
	Option1       string `json:"option1" validate:"required,max=200"`
	Option2       string `json:"option2" validate:"required,max=200"`
	Option3       string `json:"option3" validate:"required,max=200"`
	Option4       string `json:"option4" validate:"required,max=200"`
}

func (nq *NewQuestion) clean() {
	nq.Text = core.CleanString(nq.Text)
	nq.CorrectAnswer = core.CleanString(nq.CorrectAnswer)
	nq.Option1 = core.CleanString(nq.Option1)
	nq.Option2 = core.CleanString(nq.Option2)
	nq.Option3 = core.CleanString(nq.Option3)
	nq.Option4 = core.CleanString(nq.Option4)
}

// NewQuiz contains the information needed to create a Quiz with its questions.
type NewQuiz struct {
	Title       string        `json:"title" validate:"required,max=200"`
	Description string        `json:"description"`
	Questions   []NewQuestion `json:"questions" validate:"required,min=1,dive"`
}

func (nq *NewQuiz) Validate(validate *validator.Validate) error {
	nq.Title = core.CleanString(nq.Title)
	nq.Description = core.CleanString(nq.Description)
	for i := range nq.Questions {
		nq.Questions[i].clean()
	}
	return validate.Struct(nq)
}

// Submission maps question IDs to the chosen answers.
type Submission struct {
	Answers map[string]string `json:"answers" validate:"required"`
}

type (
	AnswerResult struct {
		QuestionID    string `json:"question_id"`
		Answer        string `json:"answer"`
		Correct       bool   `json:"correct"`
		CorrectAnswer string `json:"correct_answer"`
	}

	Result struct {
		QuizID   string         `json:"quiz_id"`
		Score    int            `json:"score"`
		Total    int            `json:"total"`
		Answers  []AnswerResult `json:"answers"`
		XPEarned int            `json:"xp_earned"`
	}
)

type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
