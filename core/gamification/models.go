package gamification

import "time"

// actions rewarded with XP
const (
	ActionCompleteMilestone = "complete_milestone"
	ActionCompleteQuiz      = "complete_quiz"
	ActionReadMaterial      = "read_material"
	ActionBookmarkInsight   = "bookmark_insight"
)

var (
	XPRewards = map[string]int{
		ActionCompleteMilestone: 50,
		ActionCompleteQuiz:      30,
		ActionReadMaterial:      20,
		ActionBookmarkInsight:   10,
	}

	BadgeDefinitions = []Badge{
		{Name: "Study Starter", Description: "Started your learning journey", IconURL: "/static/badges/starter.svg", XPRequirement: 100},
		{Name: "Knowledge Seeker", Description: "Completed 5 study milestones", IconURL: "/static/badges/seeker.svg", XPRequirement: 500},
		{Name: "Quiz Master", Description: "Achieved perfect scores in 3 quizzes", IconURL: "/static/badges/master.svg", XPRequirement: 1000},
		{Name: "Dedicated Learner", Description: "Studied for over 10 hours", IconURL: "/static/badges/dedicated.svg", XPRequirement: 2000},
		{Name: "Subject Expert", Description: "Mastered all materials in a subject", IconURL: "/static/badges/expert.svg", XPRequirement: 5000},
	}
)

// AwardXP returns the XP rewarded for `action`, 0 for unknown actions.
func AwardXP(action string) int {
	return XPRewards[action]
}

type (
	Badge struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Description   string `json:"description"`
		IconURL       string `json:"icon_url"`
		XPRequirement int    `json:"xp_requirement"`
	}

	UserBadge struct {
		ID       string    `json:"id"`
		UserID   string    `json:"user_id"`
		Badge    Badge     `json:"badge"`
		EarnedAt time.Time `json:"earned_at"` // UTC
	}

	// Progress tracks a user's completion of a study milestone.
	Progress struct {
		ID              string     `json:"id"`
		UserID          string     `json:"user_id"`
		StudyMaterialID string     `json:"study_material_id"`
		MilestoneID     string     `json:"milestone_id"`
		Completed       bool       `json:"completed"`
		CompletedAt     *time.Time `json:"completed_at"` // UTC
		XPEarned        int        `json:"xp_earned"`
	}

	NextBadge struct {
		Name        *string `json:"name"`
		XPRequired  *int    `json:"xp_required"`
		XPRemaining int     `json:"xp_remaining"`
	}

	Stats struct {
		TotalXP             int       `json:"total_xp"`
		CompletedMilestones int       `json:"completed_milestones"`
		BadgesEarned        int       `json:"badges_earned"`
		NextBadge           NextBadge `json:"next_badge"`
	}

	CompletionResult struct {
		XPEarned  int      `json:"xp_earned"`
		NewBadges []string `json:"new_badges"`
	}

	LeaderboardEntry struct {
		UserID   string `json:"user_id"`
		Name     string `json:"name"`
		Username string `json:"username"`
		TotalXP  int    `json:"total_xp"`
	}
)

func badgeNames(badges []Badge) []string {
	names := make([]string, 0, len(badges))
	for _, b := range badges {
		names = append(names, b.Name)
	}
	return names
}
