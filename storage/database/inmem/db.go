// Package inmemdb implements the repositories in memory. It backs tests and TEST runs.
package inmemdb

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/gamification"
	"github.com/trezcool/examprep/core/note"
	"github.com/trezcool/examprep/core/paper"
	"github.com/trezcool/examprep/core/quiz"
	"github.com/trezcool/examprep/core/study"
	"github.com/trezcool/examprep/core/user"
)

type (
	DB struct {
		txMu sync.Mutex

		user         *userTable
		paper        *paperTable
		quiz         *quizTable
		note         *noteTable
		study        *studyTable
		gamification *gamificationTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	paperTable struct {
		sync.RWMutex
		table map[string]*paper.Paper
	}

	quizTable struct {
		sync.RWMutex
		table    map[string]*quiz.Quiz
		progress map[string]*quiz.Progress // {userID/quizID: progress}
	}

	noteTable struct {
		sync.RWMutex
		table map[string]*note.Note
	}

	studyTable struct {
		sync.RWMutex
		scraped   map[string]*study.ScrapedContent
		materials map[string]*study.Material
	}

	gamificationTable struct {
		sync.RWMutex
		badges     map[string]*gamification.Badge
		userBadges map[string]*gamification.UserBadge // {userID/badgeID: userBadge}
		progress   map[string]*gamification.Progress  // {userID/materialID/milestoneID: progress}
	}
)

func Open() *DB {
	return &DB{
		user:  &userTable{table: make(map[string]*user.User)},
		paper: &paperTable{table: make(map[string]*paper.Paper)},
		quiz: &quizTable{
			table:    make(map[string]*quiz.Quiz),
			progress: make(map[string]*quiz.Progress),
		},
		note: &noteTable{table: make(map[string]*note.Note)},
		study: &studyTable{
			scraped:   make(map[string]*study.ScrapedContent),
			materials: make(map[string]*study.Material),
		},
		gamification: &gamificationTable{
			badges:     make(map[string]*gamification.Badge),
			userBadges: make(map[string]*gamification.UserBadge),
			progress:   make(map[string]*gamification.Progress),
		},
	}
}

type transactor struct {
	db *DB
}

var _ core.Transactor = (*transactor)(nil)

// NewTransactor returns a Transactor that serializes transactions. Changes are not rolled back on failure.
func NewTransactor(db *DB) core.Transactor {
	return &transactor{db: db}
}

func (t *transactor) WithinTx(_ context.Context, fn func(exec core.DBExecutor) error) error {
	t.db.txMu.Lock()
	defer t.db.txMu.Unlock()
	return fn(nil)
}

func newID() string {
	return uuid.New().String()
}

// containsFold reports whether any of `values` contains `substr`, ignoring case.
func containsFold(substr string, values ...string) bool {
	substr = strings.ToLower(substr)
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), substr) {
			return true
		}
	}
	return false
}

// lessFunc compares two items on a field; it returns (less, equal).
type lessFunc func(i, j int, field string) (bool, bool)

// orderBy returns a sort.Slice less function applying `ordering` in turn.
func orderBy(ordering []core.DBOrdering, cmp lessFunc) func(i, j int) bool {
	return func(i, j int) bool {
		for _, ord := range ordering {
			less, equal := cmp(i, j, ord.Field)
			if equal {
				continue
			}
			if ord.Ascending {
				return less
			}
			return !less
		}
		return false
	}
}
