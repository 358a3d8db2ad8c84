package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/quiz"
)

const (
	quizColumns     = `id, title, description, created_at`
	questionColumns = `id, quiz_id, text, correct_answer, option1, option2, option3, option4, position`
)

type (
	quizRow struct {
		ID          string    `db:"id"`
		Title       string    `db:"title"`
		Description string    `db:"description"`
		CreatedAt   time.Time `db:"created_at"`
	}

	questionRow struct {
		ID            string `db:"id"`
		QuizID        string `db:"quiz_id"`
		Text          string `db:"text"`
		CorrectAnswer string `db:"correct_answer"`
		Option1       string `db:"option1"`
		Option2       string `db:"option2"`
		Option3       string `db:"option3"`
		Option4       string `db:"option4"`
		Position      int    `db:"position"`
	}

	quizProgressRow struct {
		ID          string    `db:"id"`
		UserID      string    `db:"user_id"`
		QuizID      string    `db:"quiz_id"`
		QuizTitle   string    `db:"quiz_title"`
		Score       int       `db:"score"`
		CompletedAt time.Time `db:"completed_at"`
	}
)

func (r quizRow) toQuiz() quiz.Quiz {
	return quiz.Quiz{ID: r.ID, Title: r.Title, Description: r.Description, CreatedAt: r.CreatedAt.UTC()}
}

func (r questionRow) toQuestion() quiz.Question {
	return quiz.Question(r)
}

type quizRepository struct {
	repository
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *sqlx.DB) quiz.Repository {
	return &quizRepository{repository{db: db}}
}

func (repo quizRepository) CreateQuiz(ctx context.Context, q quiz.Quiz, exec ...core.DBExecutor) (quiz.Quiz, error) {
	exe := repo.getExec(exec)
	q.ID = uuid.New().String()

	qRow := quizRow{ID: q.ID, Title: q.Title, Description: q.Description, CreatedAt: q.CreatedAt.UTC()}
	if _, err := sqlx.NamedExecContext(ctx, exe, `INSERT INTO quiz (`+quizColumns+`) VALUES (:id, :title, :description, :created_at)`, qRow); err != nil {
		return quiz.Quiz{}, errors.Wrap(err, "inserting quiz")
	}

	if len(q.Questions) == 0 {
		return q, nil
	}
	q.Questions = append([]quiz.Question(nil), q.Questions...)
	rows := make([]questionRow, 0, len(q.Questions))
	for i := range q.Questions {
		q.Questions[i].ID = uuid.New().String()
		q.Questions[i].QuizID = q.ID
		q.Questions[i].Position = i
		rows = append(rows, questionRow(q.Questions[i]))
	}
	insertQuestions := `INSERT INTO question (` + questionColumns + `)
		VALUES (:id, :quiz_id, :text, :correct_answer, :option1, :option2, :option3, :option4, :position)`
	if _, err := sqlx.NamedExecContext(ctx, exe, insertQuestions, rows); err != nil {
		return quiz.Quiz{}, errors.Wrap(err, "inserting questions")
	}
	return q, nil
}

func (repo quizRepository) QueryQuizzes(ctx context.Context, filter *quiz.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]quiz.Quiz, error) {
	exe := repo.getExec(exec)
	var w where
	if filter != nil && filter.Search != "" {
		val := "%" + filter.Search + "%"
		w.add("title ILIKE ? OR description ILIKE ?", val, val)
	}

	var rows []quizRow
	q := `SELECT ` + quizColumns + ` FROM quiz` + w.String() + orderBy(ordering)
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying quizzes")
	}
	quizzes := make([]quiz.Quiz, 0, len(rows))
	for _, r := range rows {
		quizzes = append(quizzes, r.toQuiz())
	}
	return quizzes, nil
}

func (repo quizRepository) GetQuiz(ctx context.Context, id string, exec ...core.DBExecutor) (quiz.Quiz, error) {
	if !isUUID(id) {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	exe := repo.getExec(exec)

	var row quizRow
	if err := sqlx.GetContext(ctx, exe, &row, exe.Rebind(`SELECT `+quizColumns+` FROM quiz WHERE id = ?`), id); err != nil {
		return quiz.Quiz{}, trapNoRowsErr(err, quiz.ErrNotFound, "getting quiz")
	}

	var qRows []questionRow
	q := `SELECT ` + questionColumns + ` FROM question WHERE quiz_id = ? ORDER BY position`
	if err := sqlx.SelectContext(ctx, exe, &qRows, exe.Rebind(q), id); err != nil {
		return quiz.Quiz{}, errors.Wrap(err, "querying questions")
	}

	res := row.toQuiz()
	res.Questions = make([]quiz.Question, 0, len(qRows))
	for _, r := range qRows {
		res.Questions = append(res.Questions, r.toQuestion())
	}
	return res, nil
}

func (repo quizRepository) DeleteQuizzesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	return deleteByIDs(ctx, repo.getExec(exec), "quiz", ids)
}

func (repo quizRepository) UpsertProgress(ctx context.Context, p quiz.Progress, exec ...core.DBExecutor) (quiz.Progress, error) {
	exe := repo.getExec(exec)
	q := `INSERT INTO quiz_progress (id, user_id, quiz_id, score, completed_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, quiz_id) DO UPDATE SET score = EXCLUDED.score, completed_at = EXCLUDED.completed_at
		RETURNING id`
	err := exe.QueryRowxContext(ctx, exe.Rebind(q), uuid.New().String(), p.UserID, p.QuizID, p.Score, p.CompletedAt.UTC()).Scan(&p.ID)
	if err != nil {
		return quiz.Progress{}, errors.Wrap(err, "upserting quiz progress")
	}
	return p, nil
}

func (repo quizRepository) QueryProgress(ctx context.Context, userID string, exec ...core.DBExecutor) ([]quiz.Progress, error) {
	res := make([]quiz.Progress, 0)
	if !isUUID(userID) {
		return res, nil
	}
	exe := repo.getExec(exec)
	var rows []quizProgressRow
	q := `SELECT p.id, p.user_id, p.quiz_id, q.title AS quiz_title, p.score, p.completed_at
		FROM quiz_progress p JOIN quiz q ON q.id = p.quiz_id
		WHERE p.user_id = ? ORDER BY p.completed_at DESC`
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(q), userID); err != nil {
		return nil, errors.Wrap(err, "querying quiz progress")
	}
	for _, r := range rows {
		res = append(res, quiz.Progress{
			ID:          r.ID,
			UserID:      r.UserID,
			QuizID:      r.QuizID,
			QuizTitle:   r.QuizTitle,
			Score:       r.Score,
			CompletedAt: r.CompletedAt.UTC(),
		})
	}
	return res, nil
}
