// Package paper manages past exam papers.
package paper

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core"
)

// ErrNotFound is returned when a past paper does not exist.
var ErrNotFound = core.NewNotFoundError("past paper")

type (
	Repository interface {
		CreatePaper(ctx context.Context, p Paper, exec ...core.DBExecutor) (Paper, error)
		// QueryPapers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Paper.Title or Paper.Subject.
		// QueryFilter.Subject is matched case-insensitively.
		QueryPapers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Paper, error)
		GetPaper(ctx context.Context, id string, exec ...core.DBExecutor) (Paper, error)
		UpdatePaper(ctx context.Context, p Paper, exec ...core.DBExecutor) (Paper, error)
		DeletePapersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, np NewPaper) (Paper, error) {
	p, err := svc.repo.CreatePaper(ctx, Paper{
		Title:      np.Title,
		Subject:    np.Subject,
		Year:       np.Year,
		FileURL:    np.FileURL,
		UploadedAt: time.Now().UTC(),
	})
	return p, errors.Wrap(err, "creating past paper")
}

// Query lists papers, newest first unless an ordering is given.
func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Paper, error) {
	if filter != nil {
		filter.Clean()
	}
	ordering = core.FilterOrderings(ordering, "title", "subject", "year", "uploaded_at")
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "year"}, {Field: "subject", Ascending: true}}
	}
	return svc.repo.QueryPapers(ctx, filter, ordering)
}

func (svc *Service) Get(ctx context.Context, id string) (Paper, error) {
	return svc.repo.GetPaper(ctx, id)
}

func (svc *Service) Update(ctx context.Context, p Paper, np NewPaper) (Paper, error) {
	p.Title = np.Title
	p.Subject = np.Subject
	p.Year = np.Year
	p.FileURL = np.FileURL
	return svc.repo.UpdatePaper(ctx, p)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeletePapersByID(ctx, ids)
	return errors.Wrap(err, "deleting past papers")
}
