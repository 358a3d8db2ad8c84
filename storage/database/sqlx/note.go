package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/note"
)

const noteColumns = `id, user_id, title, content, created_at, updated_at`

type noteRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r noteRow) toNote() note.Note {
	return note.Note{ID: r.ID, UserID: r.UserID, Title: r.Title, Content: r.Content, CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC()}
}

func toNoteRow(n note.Note) noteRow {
	return noteRow{ID: n.ID, UserID: n.UserID, Title: n.Title, Content: n.Content, CreatedAt: n.CreatedAt.UTC(), UpdatedAt: n.UpdatedAt.UTC()}
}

type noteRepository struct {
	repository
}

var _ note.Repository = (*noteRepository)(nil)

func NewNoteRepository(db *sqlx.DB) note.Repository {
	return &noteRepository{repository{db: db}}
}

func (repo noteRepository) CreateNote(ctx context.Context, n note.Note, exec ...core.DBExecutor) (note.Note, error) {
	n.ID = uuid.New().String()
	q := `INSERT INTO note (` + noteColumns + `) VALUES (:id, :user_id, :title, :content, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, toNoteRow(n)); err != nil {
		return note.Note{}, errors.Wrap(err, "inserting note")
	}
	return n, nil
}

func (repo noteRepository) QueryNotes(ctx context.Context, userID string, exec ...core.DBExecutor) ([]note.Note, error) {
	notes := make([]note.Note, 0)
	if !isUUID(userID) {
		return notes, nil
	}
	exe := repo.getExec(exec)
	var rows []noteRow
	q := `SELECT ` + noteColumns + ` FROM note WHERE user_id = ? ORDER BY updated_at DESC`
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(q), userID); err != nil {
		return nil, errors.Wrap(err, "querying notes")
	}
	for _, r := range rows {
		notes = append(notes, r.toNote())
	}
	return notes, nil
}

func (repo noteRepository) GetNote(ctx context.Context, id string, exec ...core.DBExecutor) (note.Note, error) {
	if !isUUID(id) {
		return note.Note{}, note.ErrNotFound
	}
	exe := repo.getExec(exec)
	var row noteRow
	q := `SELECT ` + noteColumns + ` FROM note WHERE id = ?`
	if err := sqlx.GetContext(ctx, exe, &row, exe.Rebind(q), id); err != nil {
		return note.Note{}, trapNoRowsErr(err, note.ErrNotFound, "getting note")
	}
	return row.toNote(), nil
}

func (repo noteRepository) UpdateNote(ctx context.Context, n note.Note, exec ...core.DBExecutor) (note.Note, error) {
	if !isUUID(n.ID) {
		return note.Note{}, note.ErrNotFound
	}
	q := `UPDATE note SET title = :title, content = :content, updated_at = :updated_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, toNoteRow(n))
	if err != nil {
		return note.Note{}, errors.Wrap(err, "updating note")
	}
	if err = checkAffected(res, note.ErrNotFound); err != nil {
		return note.Note{}, err
	}
	return n, nil
}

func (repo noteRepository) DeleteNote(ctx context.Context, id string, exec ...core.DBExecutor) error {
	n, err := deleteByIDs(ctx, repo.getExec(exec), "note", []string{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return note.ErrNotFound
	}
	return nil
}
