// Package gamification rewards study progress with XP and badges.
package gamification

import (
	"context"
	"net/mail"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/study"
	"github.com/trezcool/examprep/core/user"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

type (
	Repository interface {
		// GetOrCreateBadge looks a badge up by name and creates it if it does not exist.
		GetOrCreateBadge(ctx context.Context, b Badge, exec ...core.DBExecutor) (badge Badge, created bool, err error)
		// QueryBadges returns all badges ordered by XPRequirement.
		QueryBadges(ctx context.Context, exec ...core.DBExecutor) ([]Badge, error)
		// QueryUserBadges returns the badges earned by a user, oldest first.
		QueryUserBadges(ctx context.Context, userID string, exec ...core.DBExecutor) ([]UserBadge, error)
		// CreateUserBadge awards a badge. created is false if the user already held it.
		CreateUserBadge(ctx context.Context, ub UserBadge, exec ...core.DBExecutor) (userBadge UserBadge, created bool, err error)

		// SumUserXP returns the sum of Progress.XPEarned for a user.
		SumUserXP(ctx context.Context, userID string, exec ...core.DBExecutor) (int, error)
		CountCompletedMilestones(ctx context.Context, userID string, exec ...core.DBExecutor) (int, error)
		// GetOrCreateProgress locks the (user, material, milestone) progress row, creating it from p if needed.
		GetOrCreateProgress(ctx context.Context, p Progress, exec ...core.DBExecutor) (progress Progress, created bool, err error)
		UpdateProgress(ctx context.Context, p Progress, exec ...core.DBExecutor) (Progress, error)

		// Leaderboard returns the users with the most XP, best first.
		Leaderboard(ctx context.Context, limit int, exec ...core.DBExecutor) ([]LeaderboardEntry, error)
	}

	Service struct {
		repo    Repository
		tx      core.Transactor
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, tx core.Transactor, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, tx: tx, mailSvc: mailSvc}
}

// InitializeBadges creates the badges of BadgeDefinitions that do not exist yet.
// It returns the number of badges created.
func (svc *Service) InitializeBadges(ctx context.Context) (int, error) {
	var n int
	for _, def := range BadgeDefinitions {
		_, created, err := svc.repo.GetOrCreateBadge(ctx, def)
		if err != nil {
			return n, errors.Wrapf(err, "initializing badge %q", def.Name)
		}
		if created {
			n++
		}
	}
	return n, nil
}

func (svc *Service) Badges(ctx context.Context) ([]Badge, error) {
	return svc.repo.QueryBadges(ctx)
}

func (svc *Service) UserBadges(ctx context.Context, usr user.User) ([]UserBadge, error) {
	return svc.repo.QueryUserBadges(ctx, usr.ID)
}

func (svc *Service) GetUserXP(ctx context.Context, usr user.User) (int, error) {
	return svc.repo.SumUserXP(ctx, usr.ID)
}

// CheckAndAwardBadges awards every badge whose XP requirement the user meets and that they do not hold yet.
// A badge_earned email is sent for each new badge.
func (svc *Service) CheckAndAwardBadges(ctx context.Context, usr user.User) ([]Badge, error) {
	badges, err := svc.checkAndAwardBadges(ctx, usr)
	if err != nil {
		return nil, err
	}
	svc.notifyBadges(usr, badges)
	return badges, nil
}

func (svc *Service) checkAndAwardBadges(ctx context.Context, usr user.User, exec ...core.DBExecutor) ([]Badge, error) {
	xp, err := svc.repo.SumUserXP(ctx, usr.ID, exec...)
	if err != nil {
		return nil, errors.Wrap(err, "computing user XP")
	}
	available, err := svc.unheldBadges(ctx, usr, exec...)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	newBadges := make([]Badge, 0)
	for _, b := range available {
		if xp < b.XPRequirement {
			continue
		}
		_, created, err := svc.repo.CreateUserBadge(ctx, UserBadge{UserID: usr.ID, Badge: b, EarnedAt: now}, exec...)
		if err != nil {
			return nil, errors.Wrapf(err, "awarding badge %q", b.Name)
		}
		if created {
			newBadges = append(newBadges, b)
		}
	}
	return newBadges, nil
}

// unheldBadges returns the badges the user does not hold, ordered by XPRequirement.
func (svc *Service) unheldBadges(ctx context.Context, usr user.User, exec ...core.DBExecutor) ([]Badge, error) {
	all, err := svc.repo.QueryBadges(ctx, exec...)
	if err != nil {
		return nil, errors.Wrap(err, "querying badges")
	}
	held, err := svc.repo.QueryUserBadges(ctx, usr.ID, exec...)
	if err != nil {
		return nil, errors.Wrap(err, "querying user badges")
	}
	heldIDs := make(map[string]bool, len(held))
	for _, ub := range held {
		heldIDs[ub.Badge.ID] = true
	}

	res := make([]Badge, 0, len(all))
	for _, b := range all {
		if !heldIDs[b.ID] {
			res = append(res, b)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].XPRequirement < res[j].XPRequirement })
	return res, nil
}

func (svc *Service) notifyBadges(usr user.User, badges []Badge) {
	if usr.Email == "" || len(badges) == 0 {
		return
	}
	msgs := make([]*core.EmailMessage, 0, len(badges))
	for _, b := range badges {
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject:      "You earned the " + b.Name + " badge",
			TemplateName: "badge_earned",
			TemplateData: map[string]interface{}{
				"Name":             usr.Name,
				"BadgeName":        b.Name,
				"BadgeDescription": b.Description,
				"XPRequirement":    b.XPRequirement,
			},
		})
	}
	svc.mailSvc.SendMessages(msgs...)
}

// GetProgressStats sums up a user's progress. The next badge is the cheapest unheld badge requiring more XP than the user has.
func (svc *Service) GetProgressStats(ctx context.Context, usr user.User) (Stats, error) {
	xp, err := svc.repo.SumUserXP(ctx, usr.ID)
	if err != nil {
		return Stats{}, errors.Wrap(err, "computing user XP")
	}
	completed, err := svc.repo.CountCompletedMilestones(ctx, usr.ID)
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting completed milestones")
	}
	held, err := svc.repo.QueryUserBadges(ctx, usr.ID)
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying user badges")
	}
	available, err := svc.unheldBadges(ctx, usr)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{TotalXP: xp, CompletedMilestones: completed, BadgesEarned: len(held)}
	for _, b := range available {
		if b.XPRequirement > xp {
			name, req := b.Name, b.XPRequirement
			stats.NextBadge = NextBadge{Name: &name, XPRequired: &req, XPRemaining: req - xp}
			break
		}
	}
	return stats, nil
}

// CompleteMilestone marks a milestone as completed and awards its XP plus the complete_milestone reward.
// Completing an already completed milestone earns nothing.
func (svc *Service) CompleteMilestone(ctx context.Context, usr user.User, milestone study.Milestone) (CompletionResult, error) {
	res := CompletionResult{NewBadges: make([]string, 0)}
	var newBadges []Badge

	err := svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		now := time.Now().UTC()
		progress, created, err := svc.repo.GetOrCreateProgress(ctx, Progress{
			UserID:          usr.ID,
			StudyMaterialID: milestone.StudyMaterialID,
			MilestoneID:     milestone.ID,
			Completed:       true,
			CompletedAt:     &now,
		}, exec)
		if err != nil {
			return errors.Wrap(err, "getting milestone progress")
		}
		if !created && progress.Completed {
			return nil
		}

		progress.XPEarned = AwardXP(ActionCompleteMilestone) + milestone.XPReward
		progress.Completed = true
		progress.CompletedAt = &now
		if _, err = svc.repo.UpdateProgress(ctx, progress, exec); err != nil {
			return errors.Wrap(err, "saving milestone progress")
		}

		if newBadges, err = svc.checkAndAwardBadges(ctx, usr, exec); err != nil {
			return err
		}
		res.XPEarned = progress.XPEarned
		res.NewBadges = badgeNames(newBadges)
		return nil
	})
	if err != nil {
		return CompletionResult{}, err
	}

	svc.notifyBadges(usr, newBadges)
	return res, nil
}

// Leaderboard returns the top `limit` users by XP. limit defaults to 10 and is capped at 100.
func (svc *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}
	return svc.repo.Leaderboard(ctx, limit)
}
