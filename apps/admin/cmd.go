package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/examprep/core/gamification"
	"github.com/trezcool/examprep/core/paper"
	"github.com/trezcool/examprep/core/quiz"
	"github.com/trezcool/examprep/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sqlx.DB
	usrRepo  user.Repository
	paperSvc *paper.Service
	quizSvc  *quiz.Service
	gameSvc  *gamification.Service
	validate *validator.Validate
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -email EMAIL [-name NAME] [-admin] - create or update a user")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command: up, down, status, redo, version...")
	fmt.Fprintln(cli.out, "  initbadges - create the default badges")
	fmt.Fprintln(cli.out, "  addpaper -title TITLE -subject SUBJECT -year YEAR -url FILE_URL - add a past paper")
	fmt.Fprintln(cli.out, "  addquiz -file QUIZ.json - import a quiz with its questions")
}

// promptPassword reads a password from the terminal without echoing it.
func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserName := addUserCmd.String("name", "", "The user's name. Defaults to the username.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Give the user all roles.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	addPaperCmd := flag.NewFlagSet("addpaper", flag.ContinueOnError)
	addPaperTitle := addPaperCmd.String("title", "", "The paper's title.")
	addPaperSubject := addPaperCmd.String("subject", "", "The paper's subject.")
	addPaperYear := addPaperCmd.Int("year", 0, "The year of the exam.")
	addPaperURL := addPaperCmd.String("url", "", "The URL of the paper's file.")

	addQuizCmd := flag.NewFlagSet("addquiz", flag.ContinueOnError)
	addQuizFile := addQuizCmd.String("file", "", "A JSON file holding the quiz and its questions.")

	for _, fs := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, addPaperCmd, addQuizCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, pwd, *addUserAdmin)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "initbadges":
		return cli.initBadges()

	case "addpaper":
		if err := addPaperCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.addPaper(paper.NewPaper{
			Title:   *addPaperTitle,
			Subject: *addPaperSubject,
			Year:    *addPaperYear,
			FileURL: *addPaperURL,
		})

	case "addquiz":
		if err := addQuizCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addQuizFile == "" {
			addQuizCmd.Usage()
			return errHelp
		}
		return cli.addQuiz(*addQuizFile)

	default:
		cli.printUsage()
		return errHelp
	}
}
