package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/study"
)

type studyRepository struct {
	db    *studyTable
	progs *gamificationTable
}

var _ study.Repository = (*studyRepository)(nil)

func NewStudyRepository(db *DB) study.Repository {
	return &studyRepository{db: db.study, progs: db.gamification}
}

func copyMaterial(m *study.Material) study.Material {
	res := *m
	res.KeyConcepts = append([]study.KeyConcept(nil), m.KeyConcepts...)
	res.Milestones = append([]study.Milestone(nil), m.Milestones...)
	res.Insights = append([]study.Insight(nil), m.Insights...)
	res.Questions = append([]study.GeneratedQuestion(nil), m.Questions...)
	return res
}

func (repo *studyRepository) CreateScrapedContent(_ context.Context, sc study.ScrapedContent, _ ...core.DBExecutor) (study.ScrapedContent, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sc.ID = newID()
	rec := sc
	repo.db.scraped[sc.ID] = &rec
	return sc, nil
}

func (repo *studyRepository) CreateMaterial(_ context.Context, m study.Material, _ ...core.DBExecutor) (study.Material, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	m.ID = newID()
	m = copyMaterial(&m)
	for i := range m.KeyConcepts {
		m.KeyConcepts[i].ID, m.KeyConcepts[i].StudyMaterialID = newID(), m.ID
	}
	for i := range m.Milestones {
		m.Milestones[i].ID, m.Milestones[i].StudyMaterialID = newID(), m.ID
	}
	for i := range m.Insights {
		m.Insights[i].ID, m.Insights[i].StudyMaterialID = newID(), m.ID
	}
	for i := range m.Questions {
		m.Questions[i].ID, m.Questions[i].StudyMaterialID = newID(), m.ID
	}
	rec := copyMaterial(&m)
	repo.db.materials[m.ID] = &rec
	return m, nil
}

func (repo *studyRepository) GetMaterial(_ context.Context, id string, _ ...core.DBExecutor) (study.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	m, ok := repo.db.materials[id]
	if !ok {
		return study.Material{}, study.ErrNotFound
	}
	res := copyMaterial(m)
	sort.SliceStable(res.Milestones, func(i, j int) bool { return res.Milestones[i].Order < res.Milestones[j].Order })
	return res, nil
}

func (repo *studyRepository) QueryMaterials(_ context.Context, filter *study.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]study.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	materials := make([]study.Material, 0, len(repo.db.materials))
	for _, m := range repo.db.materials {
		if filter != nil {
			if filter.Search != "" && !containsFold(filter.Search, m.Title, m.Summary) {
				continue
			}
			if filter.CreatedBy != "" && filter.CreatedBy != m.CreatedBy {
				continue
			}
		}
		res := *m
		res.KeyConcepts, res.Milestones, res.Insights, res.Questions = nil, nil, nil, nil
		materials = append(materials, res)
	}

	sort.Slice(materials, func(i, j int) bool { return materials[i].ID < materials[j].ID })
	sort.SliceStable(materials, orderBy(ordering, func(i, j int, field string) (bool, bool) {
		a, b := materials[i], materials[j]
		switch field {
		case "title":
			return a.Title < b.Title, a.Title == b.Title
		case "study_duration":
			return a.StudyDuration < b.StudyDuration, a.StudyDuration == b.StudyDuration
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
		case "updated_at":
			return a.UpdatedAt.Before(b.UpdatedAt), a.UpdatedAt.Equal(b.UpdatedAt)
		}
		return false, true
	}))
	return materials, nil
}

func (repo *studyRepository) GetMilestone(_ context.Context, id string, _ ...core.DBExecutor) (study.Milestone, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, m := range repo.db.materials {
		for _, ms := range m.Milestones {
			if ms.ID == id {
				return ms, nil
			}
		}
	}
	return study.Milestone{}, study.ErrMilestoneNotFound
}

func (repo *studyRepository) DeleteMaterial(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	m, ok := repo.db.materials[id]
	if !ok {
		return study.ErrNotFound
	}
	delete(repo.db.scraped, m.ScrapedContentID)
	delete(repo.db.materials, id)

	// cascade to milestone progress
	repo.progs.Lock()
	defer repo.progs.Unlock()
	for key, p := range repo.progs.progress {
		if p.StudyMaterialID == id {
			delete(repo.progs.progress, key)
		}
	}
	return nil
}
