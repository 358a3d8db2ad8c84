package main

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/gamification"
	"github.com/trezcool/examprep/core/paper"
	"github.com/trezcool/examprep/core/quiz"
	"github.com/trezcool/examprep/core/user"
	emailsvc "github.com/trezcool/examprep/services/email"
	inmemdb "github.com/trezcool/examprep/storage/database/inmem"
	testutil "github.com/trezcool/examprep/tests"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	db := inmemdb.Open()
	tx := inmemdb.NewTransactor(db)
	usrRepo = inmemdb.NewUserRepository(db)
	validate, _ := testutil.NewValidator()
	mailSvc := emailsvc.NewConsoleServiceMock(core.NewTestConfig(), &testutil.Logger{})

	// start CLI
	return &commandLine{
		usrRepo:  usrRepo,
		paperSvc: paper.NewService(inmemdb.NewPaperRepository(db)),
		quizSvc:  quiz.NewService(inmemdb.NewQuizRepository(db), tx),
		gameSvc:  gamification.NewService(inmemdb.NewGamificationRepository(db), tx, mailSvc),
		validate: validate,
		out:      ioutil.Discard,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	switch {
	case err == nil:
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() error = nil, wantErr %v %s", tt.wantErr, tt.wantErrStr)
		}
	case tt.wantErr != nil:
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	default:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli := setup(t)
	var out bytes.Buffer
	cli.out = &out

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"addpaper", "-lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}
	assert.Contains(t, out.String(), "Usage:")
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	runMigrationsFunc = func(db *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()
	existing := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "mdr", []string{user.RoleStudent}, false)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no email", args: []string{"adduser", "-username", "bob"}, extra: extra{pwd: "lol"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "bob", "-email", "bob@test.cd"}, wantErr: errHelp},
		{name: "new student", args: []string{"adduser", "-username", " Bob ", "-email", "BOB@test.cd"}, extra: extra{pwd: "lol"}},
		{name: "new admin", args: []string{"adduser", "-username", "root", "-email", "root@test.cd", "-name", "Root", "-admin"}, extra: extra{pwd: "lol"}},
		{name: "existing user", args: []string{"adduser", "-username", "awe", "-email", "awe@test.cd", "-admin"}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		pwd := ""
		if e, ok := tt.extra.(extra); ok {
			pwd = e.pwd
		}
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	bob, err := usrRepo.GetUser(ctx, user.GetFilter{Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "bob@test.cd", bob.Email)
	assert.Equal(t, "bob", bob.Name)
	assert.Equal(t, []string{user.RoleStudent}, bob.Roles)
	assert.True(t, bob.IsActive)
	assert.NoError(t, bob.CheckPassword("lol"))

	root, err := usrRepo.GetUser(ctx, user.GetFilter{Username: "root"})
	require.NoError(t, err)
	assert.Equal(t, "Root", root.Name)
	assert.True(t, root.IsAdmin())

	awe, err := usrRepo.GetUser(ctx, user.GetFilter{ID: existing.ID})
	require.NoError(t, err)
	assert.True(t, awe.IsActive)
	assert.True(t, awe.IsAdmin())
	assert.Equal(t, "User", awe.Name)
	assert.NoError(t, awe.CheckPassword("lmao"))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "mdr", nil, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", "AWE@test.cd"}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		pwd := ""
		if e, ok := tt.extra.(extra); ok {
			pwd = e.pwd
		}
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			tt.check(t, err)
			if err != nil {
				return
			}
			refreshedUsr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
			if err != nil {
				t.Fatalf("GetUser() failed, %v", err)
			}
			if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
				t.Error("failed to update new password")
			}
			assert.NoError(t, refreshedUsr.CheckPassword(pwd))
		})
	}
}

func Test_commandLine_initBadges(t *testing.T) {
	cli := setup(t)
	var out bytes.Buffer
	cli.out = &out

	require.NoError(t, cli.run([]string{"admin", "initbadges"}))
	require.NoError(t, cli.run([]string{"admin", "initbadges"}))
	assert.Equal(t, fmt.Sprintf("%d badges created\n0 badges created\n", len(gamification.BadgeDefinitions)), out.String())

	badges, err := cli.gameSvc.Badges(context.Background())
	require.NoError(t, err)
	assert.Len(t, badges, len(gamification.BadgeDefinitions))
}

func Test_commandLine_addPaper(t *testing.T) {
	cli := setup(t)

	t.Run("invalid", func(t *testing.T) {
		err := cli.run([]string{"admin", "addpaper", "-title", "Final", "-year", "1800"})
		require.Error(t, err)
		assert.IsType(t, validator.ValidationErrors{}, err)
	})

	t.Run("added", func(t *testing.T) {
		err := cli.run([]string{"admin", "addpaper", "-title", " Final ", "-subject", "Algorithms", "-year", "2019", "-url", "https://papers.test/algo-2019.pdf"})
		require.NoError(t, err)

		papers, err := cli.paperSvc.Query(context.Background(), nil, nil)
		require.NoError(t, err)
		require.Len(t, papers, 1)
		assert.Equal(t, "Final", papers[0].Title)
		assert.Equal(t, 2019, papers[0].Year)
	})
}

func Test_commandLine_addQuiz(t *testing.T) {
	cli := setup(t)
	dir := t.TempDir()

	write := func(name, data string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, ioutil.WriteFile(path, []byte(data), 0o600))
		return path
	}
	valid := write("valid.json", `{
		"title": "Networks",
		"description": "OSI model basics",
		"questions": [
			{"text": "Which layer does IP belong to?", "correct_answer": "Network",
			 "option1": "Transport", "option2": "Network", "option3": "Link", "option4": "Application"}
		]
	}`)
	noQuestions := write("empty.json", `{"title": "Empty"}`)
	malformed := write("malformed.json", `{"title": `)

	t.Run("no file", func(t *testing.T) {
		assert.Equal(t, errHelp, cli.run([]string{"admin", "addquiz"}))
	})

	t.Run("missing file", func(t *testing.T) {
		assert.Error(t, cli.run([]string{"admin", "addquiz", "-file", filepath.Join(dir, "lol.json")}))
	})

	t.Run("malformed", func(t *testing.T) {
		assert.Error(t, cli.run([]string{"admin", "addquiz", "-file", malformed}))
	})

	t.Run("invalid", func(t *testing.T) {
		err := cli.run([]string{"admin", "addquiz", "-file", noQuestions})
		assert.IsType(t, validator.ValidationErrors{}, err)
	})

	t.Run("imported", func(t *testing.T) {
		require.NoError(t, cli.run([]string{"admin", "addquiz", "-file", valid}))

		quizzes, err := cli.quizSvc.Query(context.Background(), nil, nil)
		require.NoError(t, err)
		require.Len(t, quizzes, 1)
		q, err := cli.quizSvc.Get(context.Background(), quizzes[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "Networks", q.Title)
		require.Len(t, q.Questions, 1)
		assert.Equal(t, "Network", q.Questions[0].CorrectAnswer)
	})
}
