// Package quiz manages quizzes and the results of their submissions.
package quiz

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/gamification"
	"github.com/trezcool/examprep/core/user"
)

// ErrNotFound is returned when a quiz does not exist.
var ErrNotFound = core.NewNotFoundError("quiz")

type (
	Repository interface {
		// CreateQuiz inserts the quiz and its questions.
		CreateQuiz(ctx context.Context, q Quiz, exec ...core.DBExecutor) (Quiz, error)
		// QueryQuizzes returns quizzes without their questions.
		// QueryFilter.Search does a case-insensitive match on Quiz.Title or Quiz.Description.
		QueryQuizzes(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Quiz, error)
		// GetQuiz returns the quiz with its questions, in insertion order.
		GetQuiz(ctx context.Context, id string, exec ...core.DBExecutor) (Quiz, error)
		DeleteQuizzesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)

		// UpsertProgress saves the result of a user on a quiz, replacing any previous one.
		UpsertProgress(ctx context.Context, p Progress, exec ...core.DBExecutor) (Progress, error)
		// QueryProgress returns the results of a user, most recent first.
		QueryProgress(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Progress, error)
	}

	Service struct {
		repo Repository
		tx   core.Transactor
	}
)

func NewService(repo Repository, tx core.Transactor) *Service {
	return &Service{repo: repo, tx: tx}
}

func (svc *Service) Create(ctx context.Context, nq NewQuiz) (Quiz, error) {
	q := Quiz{
		Title:       nq.Title,
		Description: nq.Description,
		CreatedAt:   time.Now().UTC(),
		Questions:   make([]Question, 0, len(nq.Questions)),
	}
	for i, qn := range nq.Questions {
		q.Questions = append(q.Questions, Question{
			Text:          qn.Text,
			CorrectAnswer: qn.CorrectAnswer,
			Option1:       qn.Option1,
			Option2:       qn.Option2,
			Option3:       qn.Option3,
			Option4:       qn.Option4,
			Position:      i,
		})
	}

	err := svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		var err error
		q, err = svc.repo.CreateQuiz(ctx, q, exec)
		return err
	})
	return q, errors.Wrap(err, "creating quiz")
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Quiz, error) {
	if filter != nil {
		filter.Clean()
	}
	ordering = core.FilterOrderings(ordering, "title", "created_at")
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	return svc.repo.QueryQuizzes(ctx, filter, ordering)
}

func (svc *Service) Get(ctx context.Context, id string) (Quiz, error) {
	return svc.repo.GetQuiz(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteQuizzesByID(ctx, ids)
	return errors.Wrap(err, "deleting quizzes")
}

// Submit grades the answers of a user and saves their score, replacing any previous result on the quiz.
// Answers to questions that are not part of the quiz are ignored.
func (svc *Service) Submit(ctx context.Context, usr user.User, quizID string, sub Submission) (Result, error) {
	q, err := svc.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return Result{}, err
	}

	res := Result{QuizID: q.ID, Total: len(q.Questions), Answers: make([]AnswerResult, 0, len(q.Questions))}
	for _, qn := range q.Questions {
		answer, ok := sub.Answers[qn.ID]
		answer = strings.TrimSpace(answer)
		correct := ok && answer == strings.TrimSpace(qn.CorrectAnswer)
		if correct {
			res.Score++
		}
		res.Answers = append(res.Answers, AnswerResult{
			QuestionID:    qn.ID,
			Answer:        answer,
			Correct:       correct,
			CorrectAnswer: qn.CorrectAnswer,
		})
	}

	if _, err = svc.repo.UpsertProgress(ctx, Progress{
		UserID:      usr.ID,
		QuizID:      q.ID,
		QuizTitle:   q.Title,
		Score:       res.Score,
		CompletedAt: time.Now().UTC(),
	}); err != nil {
		return Result{}, errors.Wrap(err, "saving quiz progress")
	}

	res.XPEarned = gamification.AwardXP(gamification.ActionCompleteQuiz)
	return res, nil
}

// UserProgress returns the quiz results of a user.
func (svc *Service) UserProgress(ctx context.Context, usr user.User) ([]Progress, error) {
	return svc.repo.QueryProgress(ctx, usr.ID)
}
