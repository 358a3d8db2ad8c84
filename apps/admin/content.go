package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core/paper"
	"github.com/trezcool/examprep/core/quiz"
)

func (cli *commandLine) initBadges() error {
	n, err := cli.gameSvc.InitializeBadges(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d badges created\n", n)
	return nil
}

func (cli *commandLine) addPaper(np paper.NewPaper) error {
	if err := np.Validate(cli.validate); err != nil {
		return err
	}
	p, err := cli.paperSvc.Create(context.Background(), np)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "past paper %q added: %s\n", p.String(), p.ID)
	return nil
}

// addQuiz imports a quiz.NewQuiz from the JSON file at `path`.
func (cli *commandLine) addQuiz(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening quiz file")
	}
	defer func() { _ = file.Close() }()

	var nq quiz.NewQuiz
	if err = json.NewDecoder(file).Decode(&nq); err != nil {
		return errors.Wrap(err, "decoding quiz file")
	}
	if err = nq.Validate(cli.validate); err != nil {
		return err
	}

	q, err := cli.quizSvc.Create(context.Background(), nq)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "quiz %q added with %d questions: %s\n", q.Title, len(q.Questions), q.ID)
	return nil
}
