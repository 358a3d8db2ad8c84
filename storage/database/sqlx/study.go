package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/study"
)

const (
	materialColumns  = `id, scraped_content_id, title, summary, eli5_explanation, study_duration, created_by, created_at, updated_at`
	conceptColumns   = `id, study_material_id, concept, definition, position`
	milestoneColumns = `id, study_material_id, title, description, "order", xp_reward`
	insightColumns   = `id, study_material_id, content, importance_level, created_at, position`
	genQColumns      = `id, study_material_id, question, correct_answer, option1, option2, option3, option4, position`

	// children come back in the order they were extracted
	conceptsQuery   = `SELECT ` + conceptColumns + ` FROM key_concept WHERE study_material_id = ? ORDER BY position`
	milestonesQuery = `SELECT ` + milestoneColumns + ` FROM study_milestone WHERE study_material_id = ? ORDER BY "order"`
	insightsQuery   = `SELECT ` + insightColumns + ` FROM bookmarked_insight WHERE study_material_id = ? ORDER BY position`
	genQsQuery      = `SELECT ` + genQColumns + ` FROM generated_question WHERE study_material_id = ? ORDER BY position`
)

type (
	scrapedContentRow struct {
		ID         string    `db:"id"`
		URL        string    `db:"url"`
		Title      string    `db:"title"`
		RawContent string    `db:"raw_content"`
		SourceType string    `db:"source_type"`
		ScrapedAt  time.Time `db:"scraped_at"`
	}

	materialRow struct {
		ID               string         `db:"id"`
		ScrapedContentID string         `db:"scraped_content_id"`
		Title            string         `db:"title"`
		Summary          string         `db:"summary"`
		ELI5Explanation  string         `db:"eli5_explanation"`
		StudyDuration    int            `db:"study_duration"`
		CreatedBy        sql.NullString `db:"created_by"`
		CreatedAt        time.Time      `db:"created_at"`
		UpdatedAt        time.Time      `db:"updated_at"`
	}

	conceptRow struct {
		ID              string `db:"id"`
		StudyMaterialID string `db:"study_material_id"`
		Concept         string `db:"concept"`
		Definition      string `db:"definition"`
		Position        int    `db:"position"`
	}

	milestoneRow struct {
		ID              string `db:"id"`
		StudyMaterialID string `db:"study_material_id"`
		Title           string `db:"title"`
		Description     string `db:"description"`
		Order           int    `db:"order"`
		XPReward        int    `db:"xp_reward"`
	}

	insightRow struct {
		ID              string    `db:"id"`
		StudyMaterialID string    `db:"study_material_id"`
		Content         string    `db:"content"`
		ImportanceLevel int       `db:"importance_level"`
		CreatedAt       time.Time `db:"created_at"`
		Position        int       `db:"position"`
	}

	genQuestionRow struct {
		ID              string `db:"id"`
		StudyMaterialID string `db:"study_material_id"`
		Question        string `db:"question"`
		CorrectAnswer   string `db:"correct_answer"`
		Option1         string `db:"option1"`
		Option2         string `db:"option2"`
		Option3         string `db:"option3"`
		Option4         string `db:"option4"`
		Position        int    `db:"position"`
	}
)

func toMaterialRow(m study.Material) materialRow {
	return materialRow{
		ID:               m.ID,
		ScrapedContentID: m.ScrapedContentID,
		Title:            m.Title,
		Summary:          m.Summary,
		ELI5Explanation:  m.ELI5Explanation,
		StudyDuration:    m.StudyDuration,
		CreatedBy:        nullString(m.CreatedBy),
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

func (r materialRow) toMaterial() study.Material {
	return study.Material{
		ID:               r.ID,
		ScrapedContentID: r.ScrapedContentID,
		Title:            r.Title,
		Summary:          r.Summary,
		ELI5Explanation:  r.ELI5Explanation,
		StudyDuration:    r.StudyDuration,
		CreatedBy:        r.CreatedBy.String,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
}

func toConceptRow(c study.KeyConcept, pos int) conceptRow {
	return conceptRow{ID: c.ID, StudyMaterialID: c.StudyMaterialID, Concept: c.Concept, Definition: c.Definition, Position: pos}
}

func (r conceptRow) toKeyConcept() study.KeyConcept {
	return study.KeyConcept{ID: r.ID, StudyMaterialID: r.StudyMaterialID, Concept: r.Concept, Definition: r.Definition}
}

func toInsightRow(in study.Insight, pos int) insightRow {
	return insightRow{
		ID:              in.ID,
		StudyMaterialID: in.StudyMaterialID,
		Content:         in.Content,
		ImportanceLevel: in.ImportanceLevel,
		CreatedAt:       in.CreatedAt.UTC(),
		Position:        pos,
	}
}

func (r insightRow) toInsight() study.Insight {
	return study.Insight{
		ID:              r.ID,
		StudyMaterialID: r.StudyMaterialID,
		Content:         r.Content,
		ImportanceLevel: r.ImportanceLevel,
		CreatedAt:       r.CreatedAt.UTC(),
	}
}

func toGenQuestionRow(q study.GeneratedQuestion, pos int) genQuestionRow {
	return genQuestionRow{
		ID:              q.ID,
		StudyMaterialID: q.StudyMaterialID,
		Question:        q.Question,
		CorrectAnswer:   q.CorrectAnswer,
		Option1:         q.Option1,
		Option2:         q.Option2,
		Option3:         q.Option3,
		Option4:         q.Option4,
		Position:        pos,
	}
}

func (r genQuestionRow) toGeneratedQuestion() study.GeneratedQuestion {
	return study.GeneratedQuestion{
		ID:              r.ID,
		StudyMaterialID: r.StudyMaterialID,
		Question:        r.Question,
		CorrectAnswer:   r.CorrectAnswer,
		Option1:         r.Option1,
		Option2:         r.Option2,
		Option3:         r.Option3,
		Option4:         r.Option4,
	}
}

type studyRepository struct {
	repository
}

var _ study.Repository = (*studyRepository)(nil)

func NewStudyRepository(db *sqlx.DB) study.Repository {
	return &studyRepository{repository{db: db}}
}

func (repo studyRepository) CreateScrapedContent(ctx context.Context, sc study.ScrapedContent, exec ...core.DBExecutor) (study.ScrapedContent, error) {
	sc.ID = uuid.New().String()
	row := scrapedContentRow{
		ID:         sc.ID,
		URL:        sc.URL,
		Title:      sc.Title,
		RawContent: sc.RawContent,
		SourceType: string(sc.SourceType),
		ScrapedAt:  sc.ScrapedAt.UTC(),
	}
	q := `INSERT INTO scraped_content (id, url, title, raw_content, source_type, scraped_at)
		VALUES (:id, :url, :title, :raw_content, :source_type, :scraped_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, row); err != nil {
		return study.ScrapedContent{}, errors.Wrap(err, "inserting scraped content")
	}
	return sc, nil
}

func (repo studyRepository) CreateMaterial(ctx context.Context, m study.Material, exec ...core.DBExecutor) (study.Material, error) {
	exe := repo.getExec(exec)
	m.ID = uuid.New().String()

	q := `INSERT INTO study_material (` + materialColumns + `)
		VALUES (:id, :scraped_content_id, :title, :summary, :eli5_explanation, :study_duration, :created_by, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exe, q, toMaterialRow(m)); err != nil {
		return study.Material{}, errors.Wrap(err, "inserting study material")
	}

	if len(m.KeyConcepts) > 0 {
		m.KeyConcepts = append([]study.KeyConcept(nil), m.KeyConcepts...)
		rows := make([]conceptRow, 0, len(m.KeyConcepts))
		for i := range m.KeyConcepts {
			m.KeyConcepts[i].ID, m.KeyConcepts[i].StudyMaterialID = uuid.New().String(), m.ID
			rows = append(rows, toConceptRow(m.KeyConcepts[i], i))
		}
		q = `INSERT INTO key_concept (` + conceptColumns + `) VALUES (:id, :study_material_id, :concept, :definition, :position)`
		if _, err := sqlx.NamedExecContext(ctx, exe, q, rows); err != nil {
			return study.Material{}, errors.Wrap(err, "inserting key concepts")
		}
	}

	if len(m.Milestones) > 0 {
		m.Milestones = append([]study.Milestone(nil), m.Milestones...)
		rows := make([]milestoneRow, 0, len(m.Milestones))
		for i := range m.Milestones {
			m.Milestones[i].ID, m.Milestones[i].StudyMaterialID = uuid.New().String(), m.ID
			rows = append(rows, milestoneRow(m.Milestones[i]))
		}
		q = `INSERT INTO study_milestone (` + milestoneColumns + `)
			VALUES (:id, :study_material_id, :title, :description, :order, :xp_reward)`
		if _, err := sqlx.NamedExecContext(ctx, exe, q, rows); err != nil {
			return study.Material{}, errors.Wrap(err, "inserting milestones")
		}
	}

	if len(m.Insights) > 0 {
		m.Insights = append([]study.Insight(nil), m.Insights...)
		rows := make([]insightRow, 0, len(m.Insights))
		for i := range m.Insights {
			m.Insights[i].ID, m.Insights[i].StudyMaterialID = uuid.New().String(), m.ID
			rows = append(rows, toInsightRow(m.Insights[i], i))
		}
		q = `INSERT INTO bookmarked_insight (` + insightColumns + `)
			VALUES (:id, :study_material_id, :content, :importance_level, :created_at, :position)`
		if _, err := sqlx.NamedExecContext(ctx, exe, q, rows); err != nil {
			return study.Material{}, errors.Wrap(err, "inserting insights")
		}
	}

	if len(m.Questions) > 0 {
		m.Questions = append([]study.GeneratedQuestion(nil), m.Questions...)
		rows := make([]genQuestionRow, 0, len(m.Questions))
		for i := range m.Questions {
			m.Questions[i].ID, m.Questions[i].StudyMaterialID = uuid.New().String(), m.ID
			rows = append(rows, toGenQuestionRow(m.Questions[i], i))
		}
		q = `INSERT INTO generated_question (` + genQColumns + `)
			VALUES (:id, :study_material_id, :question, :correct_answer, :option1, :option2, :option3, :option4, :position)`
		if _, err := sqlx.NamedExecContext(ctx, exe, q, rows); err != nil {
			return study.Material{}, errors.Wrap(err, "inserting generated questions")
		}
	}
	return m, nil
}

func (repo studyRepository) GetMaterial(ctx context.Context, id string, exec ...core.DBExecutor) (study.Material, error) {
	if !isUUID(id) {
		return study.Material{}, study.ErrNotFound
	}
	exe := repo.getExec(exec)

	var row materialRow
	if err := sqlx.GetContext(ctx, exe, &row, exe.Rebind(`SELECT `+materialColumns+` FROM study_material WHERE id = ?`), id); err != nil {
		return study.Material{}, trapNoRowsErr(err, study.ErrNotFound, "getting study material")
	}
	m := row.toMaterial()

	var concepts []conceptRow
	if err := sqlx.SelectContext(ctx, exe, &concepts, exe.Rebind(conceptsQuery), id); err != nil {
		return study.Material{}, errors.Wrap(err, "querying key concepts")
	}
	for _, r := range concepts {
		m.KeyConcepts = append(m.KeyConcepts, r.toKeyConcept())
	}

	var milestones []milestoneRow
	if err := sqlx.SelectContext(ctx, exe, &milestones, exe.Rebind(milestonesQuery), id); err != nil {
		return study.Material{}, errors.Wrap(err, "querying milestones")
	}
	for _, r := range milestones {
		m.Milestones = append(m.Milestones, study.Milestone(r))
	}

	var insights []insightRow
	if err := sqlx.SelectContext(ctx, exe, &insights, exe.Rebind(insightsQuery), id); err != nil {
		return study.Material{}, errors.Wrap(err, "querying insights")
	}
	for _, r := range insights {
		m.Insights = append(m.Insights, r.toInsight())
	}

	var questions []genQuestionRow
	if err := sqlx.SelectContext(ctx, exe, &questions, exe.Rebind(genQsQuery), id); err != nil {
		return study.Material{}, errors.Wrap(err, "querying generated questions")
	}
	for _, r := range questions {
		m.Questions = append(m.Questions, r.toGeneratedQuestion())
	}
	return m, nil
}

func (repo studyRepository) QueryMaterials(ctx context.Context, filter *study.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]study.Material, error) {
	exe := repo.getExec(exec)
	var w where
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			w.add("title ILIKE ? OR summary ILIKE ?", val, val)
		}
		if filter.CreatedBy != "" {
			if !isUUID(filter.CreatedBy) {
				return make([]study.Material, 0), nil
			}
			w.add("created_by = ?", filter.CreatedBy)
		}
	}

	var rows []materialRow
	q := `SELECT ` + materialColumns + ` FROM study_material` + w.String() + orderBy(ordering)
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying study materials")
	}
	materials := make([]study.Material, 0, len(rows))
	for _, r := range rows {
		materials = append(materials, r.toMaterial())
	}
	return materials, nil
}

func (repo studyRepository) GetMilestone(ctx context.Context, id string, exec ...core.DBExecutor) (study.Milestone, error) {
	if !isUUID(id) {
		return study.Milestone{}, study.ErrMilestoneNotFound
	}
	exe := repo.getExec(exec)
	var row milestoneRow
	q := `SELECT ` + milestoneColumns + ` FROM study_milestone WHERE id = ?`
	if err := sqlx.GetContext(ctx, exe, &row, exe.Rebind(q), id); err != nil {
		return study.Milestone{}, trapNoRowsErr(err, study.ErrMilestoneNotFound, "getting milestone")
	}
	return study.Milestone(row), nil
}

// DeleteMaterial relies on ON DELETE CASCADE: removing the scraped content removes the material and its children.
func (repo studyRepository) DeleteMaterial(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !isUUID(id) {
		return study.ErrNotFound
	}
	exe := repo.getExec(exec)
	q := `DELETE FROM scraped_content WHERE id = (SELECT scraped_content_id FROM study_material WHERE id = ?)`
	res, err := exe.ExecContext(ctx, exe.Rebind(q), id)
	if err != nil {
		return errors.Wrap(err, "deleting study material")
	}
	return checkAffected(res, study.ErrNotFound)
}
