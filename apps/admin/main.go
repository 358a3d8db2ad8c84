package main

import (
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/gamification"
	"github.com/trezcool/examprep/core/paper"
	"github.com/trezcool/examprep/core/quiz"
	"github.com/trezcool/examprep/core/user"
	emailsvc "github.com/trezcool/examprep/services/email"
	logsvc "github.com/trezcool/examprep/services/logger"
	"github.com/trezcool/examprep/storage/database"
	sqlxrepos "github.com/trezcool/examprep/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.New("ADMIN : ", conf)
	defer logger.Close()

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal("setting up database", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer func() { _ = db.Close() }()
	tx := database.NewTransactor(db)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// badge emails are only printed
	mailSvc := emailsvc.NewConsoleService(conf, logger)

	// start CLI
	cli := commandLine{
		db:       db,
		usrRepo:  sqlxrepos.NewUserRepository(db),
		paperSvc: paper.NewService(sqlxrepos.NewPaperRepository(db)),
		quizSvc:  quiz.NewService(sqlxrepos.NewQuizRepository(db), tx),
		gameSvc:  gamification.NewService(sqlxrepos.NewGamificationRepository(db), tx, mailSvc),
		validate: validate,
		out:      os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed: "+err.Error(), err)
		}
		logger.Close()
		os.Exit(1)
	}
}
