package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/paper"
)

type paperRepository struct {
	db *paperTable
}

var _ paper.Repository = (*paperRepository)(nil)

func NewPaperRepository(db *DB) paper.Repository {
	return &paperRepository{db: db.paper}
}

func (repo *paperRepository) CreatePaper(_ context.Context, p paper.Paper, _ ...core.DBExecutor) (paper.Paper, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p.ID = newID()
	rec := p
	repo.db.table[p.ID] = &rec
	return p, nil
}

func (repo *paperRepository) QueryPapers(_ context.Context, filter *paper.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]paper.Paper, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	papers := make([]paper.Paper, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		if filter != nil {
			if filter.Search != "" && !containsFold(filter.Search, p.Title, p.Subject) {
				continue
			}
			if filter.Subject != "" && !strings.EqualFold(filter.Subject, p.Subject) {
				continue
			}
			if filter.Year != 0 && filter.Year != p.Year {
				continue
			}
		}
		papers = append(papers, *p)
	}

	sort.Slice(papers, func(i, j int) bool { return papers[i].ID < papers[j].ID })
	sort.SliceStable(papers, orderBy(ordering, func(i, j int, field string) (bool, bool) {
		a, b := papers[i], papers[j]
		switch field {
		case "title":
			return a.Title < b.Title, a.Title == b.Title
		case "subject":
			return a.Subject < b.Subject, a.Subject == b.Subject
		case "year":
			return a.Year < b.Year, a.Year == b.Year
		case "uploaded_at":
			return a.UploadedAt.Before(b.UploadedAt), a.UploadedAt.Equal(b.UploadedAt)
		}
		return false, true
	}))
	return papers, nil
}

func (repo *paperRepository) GetPaper(_ context.Context, id string, _ ...core.DBExecutor) (paper.Paper, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.table[id]; ok {
		return *p, nil
	}
	return paper.Paper{}, paper.ErrNotFound
}

func (repo *paperRepository) UpdatePaper(_ context.Context, p paper.Paper, _ ...core.DBExecutor) (paper.Paper, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[p.ID]; !ok {
		return paper.Paper{}, paper.ErrNotFound
	}
	rec := p
	repo.db.table[p.ID] = &rec
	return p, nil
}

func (repo *paperRepository) DeletePapersByID(_ context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			n++
		}
	}
	return n, nil
}
