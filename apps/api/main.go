package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/examprep/apps/api/echo"
	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/content"
	"github.com/trezcool/examprep/core/gamification"
	"github.com/trezcool/examprep/core/note"
	"github.com/trezcool/examprep/core/paper"
	"github.com/trezcool/examprep/core/quiz"
	"github.com/trezcool/examprep/core/study"
	"github.com/trezcool/examprep/core/user"
	aisvc "github.com/trezcool/examprep/services/ai"
	emailsvc "github.com/trezcool/examprep/services/email"
	logsvc "github.com/trezcool/examprep/services/logger"
	"github.com/trezcool/examprep/services/textextract"
	"github.com/trezcool/examprep/storage/database"
	sqlxrepos "github.com/trezcool/examprep/storage/database/sqlx"
)

// TODO: serve the badge icons under /static once the frontend ships them
func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.New("API : ", conf)
	defer logger.Close()
	dbLogger := logsvc.New("DB : ", conf)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()
	tx := database.NewTransactor(db)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	var enhancer content.Enhancer
	if e := aisvc.NewEnhancer(conf.OpenAI); e != nil {
		enhancer = e
	}
	scraper := content.NewScraper(conf.Scraper, textextract.New(conf.Scraper))
	processor := content.NewProcessor(enhancer, logger)

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, conf)
	paperSvc := paper.NewService(sqlxrepos.NewPaperRepository(db))
	quizSvc := quiz.NewService(sqlxrepos.NewQuizRepository(db), tx)
	noteSvc := note.NewService(sqlxrepos.NewNoteRepository(db))
	studySvc := study.NewService(sqlxrepos.NewStudyRepository(db), tx, scraper, processor)
	gameSvc := gamification.NewService(sqlxrepos.NewGamificationRepository(db), tx, mailSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	user.LoadCommonPasswords(logger)

	if n, err := gameSvc.InitializeBadges(context.Background()); err != nil {
		logger.Error(fmt.Sprintf("initializing badges: %v", err), err)
	} else if n > 0 {
		logger.Info(fmt.Sprintf("created %d badges", n))
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:            conf,
		Logger:          logger,
		Validate:        validate,
		Translator:      translator,
		UserSvc:         usrSvc,
		PaperSvc:        paperSvc,
		QuizSvc:         quizSvc,
		NoteSvc:         noteSvc,
		StudySvc:        studySvc,
		GamificationSvc: gameSvc,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
