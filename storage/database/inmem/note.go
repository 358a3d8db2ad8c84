package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/note"
)

type noteRepository struct {
	db *noteTable
}

var _ note.Repository = (*noteRepository)(nil)

func NewNoteRepository(db *DB) note.Repository {
	return &noteRepository{db: db.note}
}

func (repo *noteRepository) CreateNote(_ context.Context, n note.Note, _ ...core.DBExecutor) (note.Note, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n.ID = newID()
	n.ContentHTML = ""
	rec := n
	repo.db.table[n.ID] = &rec
	return n, nil
}

func (repo *noteRepository) QueryNotes(_ context.Context, userID string, _ ...core.DBExecutor) ([]note.Note, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	notes := make([]note.Note, 0)
	for _, n := range repo.db.table {
		if n.UserID == userID {
			notes = append(notes, *n)
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].UpdatedAt.After(notes[j].UpdatedAt) })
	return notes, nil
}

func (repo *noteRepository) GetNote(_ context.Context, id string, _ ...core.DBExecutor) (note.Note, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if n, ok := repo.db.table[id]; ok {
		return *n, nil
	}
	return note.Note{}, note.ErrNotFound
}

func (repo *noteRepository) UpdateNote(_ context.Context, n note.Note, _ ...core.DBExecutor) (note.Note, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[n.ID]; !ok {
		return note.Note{}, note.ErrNotFound
	}
	n.ContentHTML = ""
	rec := n
	repo.db.table[n.ID] = &rec
	return n, nil
}

func (repo *noteRepository) DeleteNote(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return note.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
