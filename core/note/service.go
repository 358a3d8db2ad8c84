// Package note manages the personal study notes of users.
package note

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/user"
)

// ErrNotFound is returned when a note does not exist or belongs to another user.
var ErrNotFound = core.NewNotFoundError("note")

type (
	Repository interface {
		CreateNote(ctx context.Context, n Note, exec ...core.DBExecutor) (Note, error)
		// QueryNotes returns the notes of a user, most recently updated first.
		QueryNotes(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Note, error)
		GetNote(ctx context.Context, id string, exec ...core.DBExecutor) (Note, error)
		UpdateNote(ctx context.Context, n Note, exec ...core.DBExecutor) (Note, error)
		DeleteNote(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) render(n Note) (Note, error) {
	html, err := RenderMarkdown(n.Content)
	if err != nil {
		return Note{}, errors.Wrap(err, "rendering note")
	}
	n.ContentHTML = html
	return n, nil
}

func (svc *Service) Query(ctx context.Context, usr user.User) ([]Note, error) {
	notes, err := svc.repo.QueryNotes(ctx, usr.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying notes")
	}
	for i := range notes {
		if notes[i], err = svc.render(notes[i]); err != nil {
			return nil, err
		}
	}
	return notes, nil
}

// Get returns the note `id` of `usr`. Notes of other users are reported as not found.
func (svc *Service) Get(ctx context.Context, usr user.User, id string) (Note, error) {
	n, err := svc.repo.GetNote(ctx, id)
	if err != nil {
		return Note{}, err
	}
	if n.UserID != usr.ID {
		return Note{}, ErrNotFound
	}
	return svc.render(n)
}

func (svc *Service) Create(ctx context.Context, usr user.User, nn NewNote) (Note, error) {
	now := time.Now().UTC()
	n, err := svc.repo.CreateNote(ctx, Note{
		UserID:    usr.ID,
		Title:     nn.Title,
		Content:   nn.Content,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Note{}, errors.Wrap(err, "creating note")
	}
	return svc.render(n)
}

func (svc *Service) Update(ctx context.Context, usr user.User, id string, nn NewNote) (Note, error) {
	n, err := svc.Get(ctx, usr, id)
	if err != nil {
		return Note{}, err
	}
	n.Title = nn.Title
	n.Content = nn.Content
	n.UpdatedAt = time.Now().UTC()
	if n, err = svc.repo.UpdateNote(ctx, n); err != nil {
		return Note{}, errors.Wrap(err, "updating note")
	}
	return svc.render(n)
}

func (svc *Service) Delete(ctx context.Context, usr user.User, id string) error {
	if _, err := svc.Get(ctx, usr, id); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteNote(ctx, id), "deleting note")
}
