package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/gamification"
)

const (
	badgeColumns    = `id, name, description, icon_url, xp_requirement`
	progressColumns = `id, user_id, study_material_id, milestone_id, completed, completed_at, xp_earned`
)

type (
	badgeRow struct {
		ID            string `db:"id"`
		Name          string `db:"name"`
		Description   string `db:"description"`
		IconURL       string `db:"icon_url"`
		XPRequirement int    `db:"xp_requirement"`
	}

	userBadgeRow struct {
		ID       string    `db:"id"`
		UserID   string    `db:"user_id"`
		EarnedAt time.Time `db:"earned_at"`
		badgeRow
	}

	progressRow struct {
		ID              string       `db:"id"`
		UserID          string       `db:"user_id"`
		StudyMaterialID string       `db:"study_material_id"`
		MilestoneID     string       `db:"milestone_id"`
		Completed       bool         `db:"completed"`
		CompletedAt     sql.NullTime `db:"completed_at"`
		XPEarned        int          `db:"xp_earned"`
	}

	leaderboardRow struct {
		UserID   string `db:"user_id"`
		Name     string `db:"name"`
		Username string `db:"username"`
		TotalXP  int    `db:"total_xp"`
	}
)

func toProgressRow(p gamification.Progress) progressRow {
	row := progressRow{
		ID:              p.ID,
		UserID:          p.UserID,
		StudyMaterialID: p.StudyMaterialID,
		MilestoneID:     p.MilestoneID,
		Completed:       p.Completed,
		XPEarned:        p.XPEarned,
	}
	if p.CompletedAt != nil {
		row.CompletedAt = sql.NullTime{Time: p.CompletedAt.UTC(), Valid: true}
	}
	return row
}

func (r progressRow) toProgress() gamification.Progress {
	p := gamification.Progress{
		ID:              r.ID,
		UserID:          r.UserID,
		StudyMaterialID: r.StudyMaterialID,
		MilestoneID:     r.MilestoneID,
		Completed:       r.Completed,
		XPEarned:        r.XPEarned,
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time.UTC()
		p.CompletedAt = &t
	}
	return p
}

type gamificationRepository struct {
	repository
}

var _ gamification.Repository = (*gamificationRepository)(nil)

func NewGamificationRepository(db *sqlx.DB) gamification.Repository {
	return &gamificationRepository{repository{db: db}}
}

func (repo gamificationRepository) GetOrCreateBadge(ctx context.Context, b gamification.Badge, exec ...core.DBExecutor) (gamification.Badge, bool, error) {
	exe := repo.getExec(exec)
	row := badgeRow(b)
	row.ID = uuid.New().String()

	q := `INSERT INTO badge (` + badgeColumns + `) VALUES (:id, :name, :description, :icon_url, :xp_requirement)
		ON CONFLICT (name) DO NOTHING`
	res, err := sqlx.NamedExecContext(ctx, exe, q, row)
	if err != nil {
		return gamification.Badge{}, false, errors.Wrap(err, "inserting badge")
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return gamification.Badge(row), true, nil
	}

	if err = sqlx.GetContext(ctx, exe, &row, exe.Rebind(`SELECT `+badgeColumns+` FROM badge WHERE name = ?`), b.Name); err != nil {
		return gamification.Badge{}, false, errors.Wrap(err, "getting badge")
	}
	return gamification.Badge(row), false, nil
}

func (repo gamificationRepository) QueryBadges(ctx context.Context, exec ...core.DBExecutor) ([]gamification.Badge, error) {
	var rows []badgeRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, `SELECT `+badgeColumns+` FROM badge ORDER BY xp_requirement, name`); err != nil {
		return nil, errors.Wrap(err, "querying badges")
	}
	badges := make([]gamification.Badge, 0, len(rows))
	for _, r := range rows {
		badges = append(badges, gamification.Badge(r))
	}
	return badges, nil
}

func (repo gamificationRepository) QueryUserBadges(ctx context.Context, userID string, exec ...core.DBExecutor) ([]gamification.UserBadge, error) {
	res := make([]gamification.UserBadge, 0)
	if !isUUID(userID) {
		return res, nil
	}
	exe := repo.getExec(exec)
	var rows []userBadgeRow
	q := `SELECT ub.id, ub.user_id, ub.earned_at, b.id, b.name, b.description, b.icon_url, b.xp_requirement
		FROM user_badge ub JOIN badge b ON b.id = ub.badge_id
		WHERE ub.user_id = ? ORDER BY ub.earned_at, b.xp_requirement`
	rs, err := exe.QueryxContext(ctx, exe.Rebind(q), userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying user badges")
	}
	defer func() { _ = rs.Close() }()
	for rs.Next() {
		var r userBadgeRow
		if err = rs.Scan(&r.ID, &r.UserID, &r.EarnedAt, &r.badgeRow.ID, &r.Name, &r.Description, &r.IconURL, &r.XPRequirement); err != nil {
			return nil, errors.Wrap(err, "scanning user badge")
		}
		rows = append(rows, r)
	}
	if err = rs.Err(); err != nil {
		return nil, errors.Wrap(err, "querying user badges")
	}

	for _, r := range rows {
		res = append(res, gamification.UserBadge{
			ID:       r.ID,
			UserID:   r.UserID,
			Badge:    gamification.Badge(r.badgeRow),
			EarnedAt: r.EarnedAt.UTC(),
		})
	}
	return res, nil
}

func (repo gamificationRepository) CreateUserBadge(ctx context.Context, ub gamification.UserBadge, exec ...core.DBExecutor) (gamification.UserBadge, bool, error) {
	exe := repo.getExec(exec)
	ub.ID = uuid.New().String()
	q := `INSERT INTO user_badge (id, user_id, badge_id, earned_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, badge_id) DO NOTHING`
	res, err := exe.ExecContext(ctx, exe.Rebind(q), ub.ID, ub.UserID, ub.Badge.ID, ub.EarnedAt.UTC())
	if err != nil {
		return gamification.UserBadge{}, false, errors.Wrap(err, "inserting user badge")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return gamification.UserBadge{}, false, errors.Wrap(err, "reading affected rows")
	}
	return ub, n == 1, nil
}

func (repo gamificationRepository) SumUserXP(ctx context.Context, userID string, exec ...core.DBExecutor) (int, error) {
	if !isUUID(userID) {
		return 0, nil
	}
	exe := repo.getExec(exec)
	var xp int
	q := `SELECT COALESCE(SUM(xp_earned), 0) FROM user_progress WHERE user_id = ?`
	if err := sqlx.GetContext(ctx, exe, &xp, exe.Rebind(q), userID); err != nil {
		return 0, errors.Wrap(err, "summing user XP")
	}
	return xp, nil
}

func (repo gamificationRepository) CountCompletedMilestones(ctx context.Context, userID string, exec ...core.DBExecutor) (int, error) {
	if !isUUID(userID) {
		return 0, nil
	}
	exe := repo.getExec(exec)
	var n int
	q := `SELECT COUNT(*) FROM user_progress WHERE user_id = ? AND completed`
	if err := sqlx.GetContext(ctx, exe, &n, exe.Rebind(q), userID); err != nil {
		return 0, errors.Wrap(err, "counting completed milestones")
	}
	return n, nil
}

// GetOrCreateProgress inserts p unless the (user, material, milestone) row exists, then locks the row until the end of the transaction.
func (repo gamificationRepository) GetOrCreateProgress(ctx context.Context, p gamification.Progress, exec ...core.DBExecutor) (gamification.Progress, bool, error) {
	exe := repo.getExec(exec)
	p.ID = uuid.New().String()

	q := `INSERT INTO user_progress (` + progressColumns + `)
		VALUES (:id, :user_id, :study_material_id, :milestone_id, :completed, :completed_at, :xp_earned)
		ON CONFLICT (user_id, study_material_id, milestone_id) DO NOTHING`
	res, err := sqlx.NamedExecContext(ctx, exe, q, toProgressRow(p))
	if err != nil {
		return gamification.Progress{}, false, errors.Wrap(err, "inserting user progress")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return gamification.Progress{}, false, errors.Wrap(err, "reading affected rows")
	}
	if n == 1 {
		return p, true, nil
	}

	var row progressRow
	q = `SELECT ` + progressColumns + ` FROM user_progress
		WHERE user_id = ? AND study_material_id = ? AND milestone_id = ? FOR UPDATE`
	if err = sqlx.GetContext(ctx, exe, &row, exe.Rebind(q), p.UserID, p.StudyMaterialID, p.MilestoneID); err != nil {
		return gamification.Progress{}, false, errors.Wrap(err, "getting user progress")
	}
	return row.toProgress(), false, nil
}

func (repo gamificationRepository) UpdateProgress(ctx context.Context, p gamification.Progress, exec ...core.DBExecutor) (gamification.Progress, error) {
	q := `UPDATE user_progress SET completed = :completed, completed_at = :completed_at, xp_earned = :xp_earned WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, toProgressRow(p))
	if err != nil {
		return gamification.Progress{}, errors.Wrap(err, "updating user progress")
	}
	if err = checkAffected(res, core.NewNotFoundError("user progress")); err != nil {
		return gamification.Progress{}, err
	}
	return p, nil
}

func (repo gamificationRepository) Leaderboard(ctx context.Context, limit int, exec ...core.DBExecutor) ([]gamification.LeaderboardEntry, error) {
	exe := repo.getExec(exec)
	var rows []leaderboardRow
	q := `SELECT u.id AS user_id, u.name, COALESCE(u.username, '') AS username, COALESCE(SUM(p.xp_earned), 0) AS total_xp
		FROM "user" u LEFT JOIN user_progress p ON p.user_id = u.id
		WHERE u.is_active
		GROUP BY u.id
		ORDER BY total_xp DESC, username
		LIMIT ?`
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(q), limit); err != nil {
		return nil, errors.Wrap(err, "querying leaderboard")
	}
	entries := make([]gamification.LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, gamification.LeaderboardEntry(r))
	}
	return entries, nil
}
