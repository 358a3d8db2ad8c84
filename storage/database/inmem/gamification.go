package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/gamification"
)

type gamificationRepository struct {
	db    *gamificationTable
	users *userTable
}

var _ gamification.Repository = (*gamificationRepository)(nil)

func NewGamificationRepository(db *DB) gamification.Repository {
	return &gamificationRepository{db: db.gamification, users: db.user}
}

func (repo *gamificationRepository) GetOrCreateBadge(_ context.Context, b gamification.Badge, _ ...core.DBExecutor) (gamification.Badge, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, badge := range repo.db.badges {
		if badge.Name == b.Name {
			return *badge, false, nil
		}
	}
	b.ID = newID()
	rec := b
	repo.db.badges[b.ID] = &rec
	return b, true, nil
}

func (repo *gamificationRepository) QueryBadges(_ context.Context, _ ...core.DBExecutor) ([]gamification.Badge, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	badges := make([]gamification.Badge, 0, len(repo.db.badges))
	for _, b := range repo.db.badges {
		badges = append(badges, *b)
	}
	sort.Slice(badges, func(i, j int) bool {
		if badges[i].XPRequirement == badges[j].XPRequirement {
			return badges[i].Name < badges[j].Name
		}
		return badges[i].XPRequirement < badges[j].XPRequirement
	})
	return badges, nil
}

func (repo *gamificationRepository) QueryUserBadges(_ context.Context, userID string, _ ...core.DBExecutor) ([]gamification.UserBadge, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	res := make([]gamification.UserBadge, 0)
	for _, ub := range repo.db.userBadges {
		if ub.UserID != userID {
			continue
		}
		rec := *ub
		if b, ok := repo.db.badges[ub.Badge.ID]; ok {
			rec.Badge = *b
		}
		res = append(res, rec)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].EarnedAt.Equal(res[j].EarnedAt) {
			return res[i].Badge.XPRequirement < res[j].Badge.XPRequirement
		}
		return res[i].EarnedAt.Before(res[j].EarnedAt)
	})
	return res, nil
}

func (repo *gamificationRepository) CreateUserBadge(_ context.Context, ub gamification.UserBadge, _ ...core.DBExecutor) (gamification.UserBadge, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := ub.UserID + "/" + ub.Badge.ID
	if existing, ok := repo.db.userBadges[key]; ok {
		return *existing, false, nil
	}
	ub.ID = newID()
	rec := ub
	repo.db.userBadges[key] = &rec
	return ub, true, nil
}

func (repo *gamificationRepository) sumXP(userID string) int {
	var xp int
	for _, p := range repo.db.progress {
		if p.UserID == userID {
			xp += p.XPEarned
		}
	}
	return xp
}

func (repo *gamificationRepository) SumUserXP(_ context.Context, userID string, _ ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.sumXP(userID), nil
}

func (repo *gamificationRepository) CountCompletedMilestones(_ context.Context, userID string, _ ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var n int
	for _, p := range repo.db.progress {
		if p.UserID == userID && p.Completed {
			n++
		}
	}
	return n, nil
}

func progressKey(p gamification.Progress) string {
	return p.UserID + "/" + p.StudyMaterialID + "/" + p.MilestoneID
}

func (repo *gamificationRepository) GetOrCreateProgress(_ context.Context, p gamification.Progress, _ ...core.DBExecutor) (gamification.Progress, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := progressKey(p)
	if existing, ok := repo.db.progress[key]; ok {
		return *existing, false, nil
	}
	p.ID = newID()
	rec := p
	repo.db.progress[key] = &rec
	return p, true, nil
}

func (repo *gamificationRepository) UpdateProgress(_ context.Context, p gamification.Progress, _ ...core.DBExecutor) (gamification.Progress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := progressKey(p)
	if _, ok := repo.db.progress[key]; !ok {
		return gamification.Progress{}, core.NewNotFoundError("user progress")
	}
	rec := p
	repo.db.progress[key] = &rec
	return p, nil
}

func (repo *gamificationRepository) Leaderboard(_ context.Context, limit int, _ ...core.DBExecutor) ([]gamification.LeaderboardEntry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	entries := make([]gamification.LeaderboardEntry, 0, len(repo.users.table))
	for _, usr := range repo.users.table {
		if !usr.IsActive {
			continue
		}
		entries = append(entries, gamification.LeaderboardEntry{
			UserID:   usr.ID,
			Name:     usr.Name,
			Username: usr.Username,
			TotalXP:  repo.sumXP(usr.ID),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalXP == entries[j].TotalXP {
			return entries[i].Username < entries[j].Username
		}
		return entries[i].TotalXP > entries[j].TotalXP
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
