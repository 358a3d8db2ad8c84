package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/examprep/apps/api/echo"
	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/content"
	"github.com/trezcool/examprep/core/gamification"
	"github.com/trezcool/examprep/core/note"
	"github.com/trezcool/examprep/core/paper"
	"github.com/trezcool/examprep/core/quiz"
	"github.com/trezcool/examprep/core/study"
	"github.com/trezcool/examprep/core/user"
	"github.com/trezcool/examprep/services/email"
	"github.com/trezcool/examprep/storage/database/inmem"
	"github.com/trezcool/examprep/tests"
)

const (
	// the scraper collapses whitespace: materials get a single milestone rewarding 10 XP
	sortingText = "Sorting: arranging items in a given order.\n\n" +
		"Merge sort is an important divide and conquer algorithm. It splits the input in halves.\n\n" +
		"Quick sort picks a pivot and partitions the input around it.\n\n" +
		"Heap sort builds a binary heap out of the input.\n\n" +
		"Insertion sort inserts each item into a sorted prefix."

	sortingPage = `<html><head><title>Sorting Algorithms</title></head><body><nav>Menu</nav>` +
		`<article><p>Sorting: arranging items in a given order.</p>` +
		`<p>Merge sort is an important divide and conquer algorithm. It splits the input in halves.</p></article>` +
		`</body></html>`
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type fixture struct {
	app      *echoapi.Server
	conf     *core.Config
	logger   *testutil.Logger
	usrRepo  user.Repository
	paperSvc *paper.Service
	quizSvc  *quiz.Service
	noteSvc  *note.Service
	studySvc *study.Service
	gameSvc  *gamification.Service
}

// stubPDF returns the same text for any document.
type stubPDF struct{}

func (stubPDF) ExtractText(context.Context, io.ReaderAt, int64) (string, error) { return sortingText, nil }

// stubTransport serves sortingPage for any URL.
type stubTransport struct{}

func (stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"text/html; charset=utf-8"}},
		Body:       ioutil.NopCloser(strings.NewReader(sortingPage)),
		Request:    req,
	}, nil
}

func setup(t *testing.T) *fixture {
	conf := core.NewTestConfig()
	logger := &testutil.Logger{}
	validate, translator := testutil.NewValidator()

	// set up DB & repos
	db := inmemdb.Open()
	tx := inmemdb.NewTransactor(db)
	usrRepo := inmemdb.NewUserRepository(db)

	// set up services
	emailsvc.ResetSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	scraper := content.NewScraper(conf.Scraper, stubPDF{}, &http.Client{Transport: stubTransport{}})
	f := &fixture{
		conf:     conf,
		logger:   logger,
		usrRepo:  usrRepo,
		paperSvc: paper.NewService(inmemdb.NewPaperRepository(db)),
		quizSvc:  quiz.NewService(inmemdb.NewQuizRepository(db), tx),
		noteSvc:  note.NewService(inmemdb.NewNoteRepository(db)),
		studySvc: study.NewService(inmemdb.NewStudyRepository(db), tx, scraper, content.NewProcessor(nil, logger)),
		gameSvc:  gamification.NewService(inmemdb.NewGamificationRepository(db), tx, mailSvc),
	}

	// set up server
	f.app = echoapi.NewServer(echoapi.ServerDeps{
		Conf:            conf,
		Logger:          logger,
		Validate:        validate,
		Translator:      translator,
		UserSvc:         user.NewService(usrRepo, mailSvc, conf),
		PaperSvc:        f.paperSvc,
		QuizSvc:         f.quizSvc,
		NoteSvc:         f.noteSvc,
		StudySvc:        f.studySvc,
		GamificationSvc: f.gameSvc,
	})
	t.Cleanup(func() { _ = f.app.Close() })
	return f
}

func (f *fixture) createUser(t *testing.T, name, uname string, roles ...string) user.User {
	return testutil.CreateUser(t, f.usrRepo, name, uname, uname+"@test.cd", "", roles, true)
}

func (f *fixture) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.app.ServeHTTP(rec, req)
	return rec
}

// run serves the httpTest and checks the response code and body.
func (f *fixture) run(t *testing.T, tt httpTest) {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	f.app.ServeHTTP(rec, req)
	if tt.wantCode == 0 {
		tt.wantCode = http.StatusOK
	}
	checkCodeAndData(t, tt, rec)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newMultipartRequest posts the form `fields` and, when fileName is set, the file `fileField`.
func newMultipartRequest(t *testing.T, path, token string, fields map[string]string, fileField, fileName string, file []byte) *http.Request {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(): %v", err)
		}
	}
	if fileName != "" {
		fw, err := w.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("CreateFormFile(): %v", err)
		}
		if _, err = fw.Write(file); err != nil {
			t.Fatalf("Write(): %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (f *fixture) getToken(t *testing.T, usr user.User) string {
	token, err := echoapi.GenerateToken(echoapi.GetUserClaims(usr, f.conf), f.conf.SecretKey)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("json.Unmarshal(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	l1, ok1 := j1.([]interface{})
	l2, ok2 := j2.([]interface{})
	if !(ok1 && ok2) {
		return false, nil
	}
	return assert.ElementsMatch(t, l1, l2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
