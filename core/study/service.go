// Package study turns scraped webpages and PDF documents into study materials.
package study

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/content"
	"github.com/trezcool/examprep/core/user"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("study material")
	ErrMilestoneNotFound = core.NewNotFoundError("study milestone")
	ErrNoSource          = errors.New("Please provide either a URL or a PDF file.")
	ErrForbidden         = errors.New("only the creator of a study material or an admin may delete it")
)

type (
	Repository interface {
		CreateScrapedContent(ctx context.Context, sc ScrapedContent, exec ...core.DBExecutor) (ScrapedContent, error)
		// CreateMaterial inserts the material and all of its children.
		CreateMaterial(ctx context.Context, m Material, exec ...core.DBExecutor) (Material, error)
		// GetMaterial returns the material with all of its children; milestones ordered by Milestone.Order.
		GetMaterial(ctx context.Context, id string, exec ...core.DBExecutor) (Material, error)
		// QueryMaterials returns materials without their children.
		// QueryFilter.Search does a case-insensitive match on Material.Title or Material.Summary.
		QueryMaterials(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Material, error)
		GetMilestone(ctx context.Context, id string, exec ...core.DBExecutor) (Milestone, error)
		// DeleteMaterial deletes the material, its children and its scraped content.
		DeleteMaterial(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	// Source acquires raw text from a webpage or a PDF document.
	Source interface {
		ProcessURL(ctx context.Context, rawURL string) (content.Raw, error)
		ProcessPDF(ctx context.Context, r io.ReaderAt, size int64, filename string) (content.Raw, error)
	}

	// Analyzer derives study aids from raw text.
	Analyzer interface {
		Process(ctx context.Context, text, title string) content.Processed
	}

	Service struct {
		repo     Repository
		tx       core.Transactor
		source   Source
		analyzer Analyzer
	}
)

func NewService(repo Repository, tx core.Transactor, source Source, analyzer Analyzer) *Service {
	return &Service{repo: repo, tx: tx, source: source, analyzer: analyzer}
}

// CreateFromURL scrapes a webpage from a supported domain and saves the study material derived from it.
// It returns the new material's ID.
func (svc *Service) CreateFromURL(ctx context.Context, usr user.User, rawURL string) (string, error) {
	raw, err := svc.source.ProcessURL(ctx, rawURL)
	if err != nil {
		return "", sourceErr(err)
	}
	return svc.create(ctx, usr, raw)
}

// CreateFromPDF extracts the text of a PDF document and saves the study material derived from it.
// It returns the new material's ID.
func (svc *Service) CreateFromPDF(ctx context.Context, usr user.User, r io.ReaderAt, size int64, filename string) (string, error) {
	raw, err := svc.source.ProcessPDF(ctx, r, size, filename)
	if err != nil {
		return "", sourceErr(err)
	}
	return svc.create(ctx, usr, raw)
}

// sourceErr reports failures caused by the submitted source as validation errors.
func sourceErr(err error) error {
	if content.IsSourceError(err) {
		return core.NewValidationError(errors.Cause(err))
	}
	return errors.Wrap(err, "acquiring content")
}

func (svc *Service) create(ctx context.Context, usr user.User, raw content.Raw) (string, error) {
	processed := svc.analyzer.Process(ctx, raw.Content, raw.Title)
	now := time.Now().UTC()

	var materialID string
	err := svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		sc, err := svc.repo.CreateScrapedContent(ctx, ScrapedContent{
			URL:        raw.URL,
			Title:      cleanTitle(raw.Title),
			RawContent: raw.Content,
			SourceType: raw.SourceType,
			ScrapedAt:  now,
		}, exec)
		if err != nil {
			return errors.Wrap(err, "saving scraped content")
		}

		m := newMaterial(processed, usr.ID, now)
		m.ScrapedContentID = sc.ID
		if m, err = svc.repo.CreateMaterial(ctx, m, exec); err != nil {
			return errors.Wrap(err, "saving study material")
		}
		materialID = m.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return materialID, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Material, error) {
	return svc.repo.GetMaterial(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Material, error) {
	if filter != nil {
		filter.Clean()
	}
	ordering = core.FilterOrderings(ordering, "title", "study_duration", "created_at", "updated_at")
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	return svc.repo.QueryMaterials(ctx, filter, ordering)
}

func (svc *Service) GetMilestone(ctx context.Context, id string) (Milestone, error) {
	return svc.repo.GetMilestone(ctx, id)
}

// Delete removes a material. Only its creator or an admin may do so.
func (svc *Service) Delete(ctx context.Context, usr user.User, id string) error {
	m, err := svc.repo.GetMaterial(ctx, id)
	if err != nil {
		return err
	}
	if m.CreatedBy != usr.ID && !usr.IsAdmin() {
		return ErrForbidden
	}
	return errors.Wrap(svc.repo.DeleteMaterial(ctx, id), "deleting study material")
}
