package paper

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/examprep/core"
)

type Paper struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Subject    string    `json:"subject"`
	Year       int       `json:"year"`
	FileURL    string    `json:"file_url"`
	UploadedAt time.Time `json:"uploaded_at"` // UTC
}

func (p Paper) String() string {
	return fmt.Sprintf("%s - %d - %s", p.Subject, p.Year, p.Title)
}

// NewPaper contains the information needed to create or replace a Paper.
type NewPaper struct {
	Title   string `json:"title" validate:"required,max=200"`
	Subject string `json:"subject" validate:"required,max=100"`
	Year    int    `json:"year" validate:"required,min=1900,max=2100"`
	FileURL string `json:"file_url" validate:"required,url,max=500"`
}

func (np *NewPaper) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	np.Subject = core.CleanString(np.Subject)
	np.FileURL = core.CleanString(np.FileURL)
	return validate.Struct(np)
}

type QueryFilter struct {
	Search  string `query:"search"`
	Subject string `query:"subject"`
	Year    int    `query:"year"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Subject = core.CleanString(qf.Subject)
}
