package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/paper"
)

const paperColumns = `id, title, subject, year, file_url, uploaded_at`

type paperRow struct {
	ID         string    `db:"id"`
	Title      string    `db:"title"`
	Subject    string    `db:"subject"`
	Year       int       `db:"year"`
	FileURL    string    `db:"file_url"`
	UploadedAt time.Time `db:"uploaded_at"`
}

func (r paperRow) toPaper() paper.Paper {
	return paper.Paper{ID: r.ID, Title: r.Title, Subject: r.Subject, Year: r.Year, FileURL: r.FileURL, UploadedAt: r.UploadedAt.UTC()}
}

func toPaperRow(p paper.Paper) paperRow {
	return paperRow{ID: p.ID, Title: p.Title, Subject: p.Subject, Year: p.Year, FileURL: p.FileURL, UploadedAt: p.UploadedAt.UTC()}
}

type paperRepository struct {
	repository
}

var _ paper.Repository = (*paperRepository)(nil)

func NewPaperRepository(db *sqlx.DB) paper.Repository {
	return &paperRepository{repository{db: db}}
}

func (repo paperRepository) CreatePaper(ctx context.Context, p paper.Paper, exec ...core.DBExecutor) (paper.Paper, error) {
	p.ID = uuid.New().String()
	q := `INSERT INTO past_paper (` + paperColumns + `) VALUES (:id, :title, :subject, :year, :file_url, :uploaded_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, toPaperRow(p)); err != nil {
		return paper.Paper{}, errors.Wrap(err, "inserting past paper")
	}
	return p, nil
}

func (repo paperRepository) QueryPapers(ctx context.Context, filter *paper.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]paper.Paper, error) {
	exe := repo.getExec(exec)
	var w where
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			w.add("title ILIKE ? OR subject ILIKE ?", val, val)
		}
		if filter.Subject != "" {
			w.add("LOWER(subject) = LOWER(?)", filter.Subject)
		}
		if filter.Year != 0 {
			w.add("year = ?", filter.Year)
		}
	}

	var rows []paperRow
	q := `SELECT ` + paperColumns + ` FROM past_paper` + w.String() + orderBy(ordering)
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying past papers")
	}
	papers := make([]paper.Paper, 0, len(rows))
	for _, r := range rows {
		papers = append(papers, r.toPaper())
	}
	return papers, nil
}

func (repo paperRepository) GetPaper(ctx context.Context, id string, exec ...core.DBExecutor) (paper.Paper, error) {
	if !isUUID(id) {
		return paper.Paper{}, paper.ErrNotFound
	}
	exe := repo.getExec(exec)
	var row paperRow
	q := `SELECT ` + paperColumns + ` FROM past_paper WHERE id = ?`
	if err := sqlx.GetContext(ctx, exe, &row, exe.Rebind(q), id); err != nil {
		return paper.Paper{}, trapNoRowsErr(err, paper.ErrNotFound, "getting past paper")
	}
	return row.toPaper(), nil
}

func (repo paperRepository) UpdatePaper(ctx context.Context, p paper.Paper, exec ...core.DBExecutor) (paper.Paper, error) {
	if !isUUID(p.ID) {
		return paper.Paper{}, paper.ErrNotFound
	}
	q := `UPDATE past_paper SET title = :title, subject = :subject, year = :year, file_url = :file_url WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, toPaperRow(p))
	if err != nil {
		return paper.Paper{}, errors.Wrap(err, "updating past paper")
	}
	if err = checkAffected(res, paper.ErrNotFound); err != nil {
		return paper.Paper{}, err
	}
	return p, nil
}

func (repo paperRepository) DeletePapersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	return deleteByIDs(ctx, repo.getExec(exec), "past_paper", ids)
}
