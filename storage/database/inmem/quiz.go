package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/quiz"
)

type quizRepository struct {
	db *quizTable
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *DB) quiz.Repository {
	return &quizRepository{db: db.quiz}
}

func copyQuiz(q *quiz.Quiz) quiz.Quiz {
	res := *q
	res.Questions = append([]quiz.Question(nil), q.Questions...)
	return res
}

func (repo *quizRepository) CreateQuiz(_ context.Context, q quiz.Quiz, _ ...core.DBExecutor) (quiz.Quiz, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	q.ID = newID()
	q.Questions = append([]quiz.Question(nil), q.Questions...)
	for i := range q.Questions {
		q.Questions[i].ID = newID()
		q.Questions[i].QuizID = q.ID
		q.Questions[i].Position = i
	}
	rec := copyQuiz(&q)
	repo.db.table[q.ID] = &rec
	return q, nil
}

func (repo *quizRepository) QueryQuizzes(_ context.Context, filter *quiz.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]quiz.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	quizzes := make([]quiz.Quiz, 0, len(repo.db.table))
	for _, q := range repo.db.table {
		if filter != nil && filter.Search != "" && !containsFold(filter.Search, q.Title, q.Description) {
			continue
		}
		res := *q
		res.Questions = nil
		quizzes = append(quizzes, res)
	}

	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].ID < quizzes[j].ID })
	sort.SliceStable(quizzes, orderBy(ordering, func(i, j int, field string) (bool, bool) {
		a, b := quizzes[i], quizzes[j]
		switch field {
		case "title":
			return a.Title < b.Title, a.Title == b.Title
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
		}
		return false, true
	}))
	return quizzes, nil
}

func (repo *quizRepository) GetQuiz(_ context.Context, id string, _ ...core.DBExecutor) (quiz.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if q, ok := repo.db.table[id]; ok {
		return copyQuiz(q), nil
	}
	return quiz.Quiz{}, quiz.ErrNotFound
}

func (repo *quizRepository) DeleteQuizzesByID(_ context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; !ok {
			continue
		}
		delete(repo.db.table, id)
		for key, p := range repo.db.progress {
			if p.QuizID == id {
				delete(repo.db.progress, key)
			}
		}
		n++
	}
	return n, nil
}

func (repo *quizRepository) UpsertProgress(_ context.Context, p quiz.Progress, _ ...core.DBExecutor) (quiz.Progress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := p.UserID + "/" + p.QuizID
	if existing, ok := repo.db.progress[key]; ok {
		p.ID = existing.ID
	} else {
		p.ID = newID()
	}
	rec := p
	repo.db.progress[key] = &rec
	return p, nil
}

func (repo *quizRepository) QueryProgress(_ context.Context, userID string, _ ...core.DBExecutor) ([]quiz.Progress, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	res := make([]quiz.Progress, 0)
	for _, p := range repo.db.progress {
		if p.UserID != userID {
			continue
		}
		rec := *p
		if q, ok := repo.db.table[p.QuizID]; ok {
			rec.QuizTitle = q.Title
		}
		res = append(res, rec)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CompletedAt.After(res[j].CompletedAt) })
	return res, nil
}
