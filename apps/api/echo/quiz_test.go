package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/examprep/core/quiz"
	"github.com/trezcool/examprep/core/user"
)

func createQuiz(t *testing.T, f *fixture, title string) quiz.Quiz {
	q, err := f.quizSvc.Create(context.Background(), quiz.NewQuiz{
		Title:       title,
		Description: "Test your knowledge of " + title,
		Questions: []quiz.NewQuestion{
			{Text: "What does CPU stand for?", CorrectAnswer: "Central Processing Unit", Option1: "Central Processing Unit", Option2: "Computer Personal Unit", Option3: "Central Program Utility", Option4: "Core Processing Unit"},
			{Text: "Which sort is stable?", CorrectAnswer: "Merge sort", Option1: "Quick sort", Option2: "Heap sort", Option3: "Merge sort", Option4: "Selection sort"},
		},
	})
	require.NoError(t, err)
	q, err = f.quizSvc.Get(context.Background(), q.ID)
	require.NoError(t, err)
	return q
}

func Test_quizApi_query(t *testing.T) {
	f := setup(t)
	basics := createQuiz(t, f, "Computer Basics")
	algo := createQuiz(t, f, "Algorithms")
	basics.Questions, algo.Questions = nil, nil

	tests := []httpTest{
		{name: "list: public", path: "/api/quizzes", wantData: marchallList(t, basics, algo)},
		{name: "list: search", path: "/api/quizzes?search=algo", wantData: marchallList(t, algo)},
		{name: "list: no match", path: "/api/quizzes?search=chemistry", wantData: marchallList(t)},
		{name: "list: ordering", path: "/api/quizzes?ordering=title", wantData: marchallList(t, algo, basics)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.run(t, tt)
		})
	}
}

func Test_quizApi_retrieve(t *testing.T) {
	f := setup(t)
	student := f.createUser(t, "Bob", "bob", user.RoleStudent)
	admin := f.createUser(t, "Admin", "admin", user.RoleAdmin)
	q := createQuiz(t, f, "Computer Basics")

	tests := []httpTest{
		{name: "anonymous: answers hidden", path: "/api/quizzes/" + q.ID, wantData: marchallObj(t, q.WithoutAnswers())},
		{name: "student: answers hidden", path: "/api/quizzes/" + q.ID, token: f.getToken(t, student), wantData: marchallObj(t, q.WithoutAnswers())},
		{name: "admin: answers shown", path: "/api/quizzes/" + q.ID, token: f.getToken(t, admin), wantData: marchallObj(t, q)},
		{
			name: "invalid token", path: "/api/quizzes/" + q.ID, token: "lol",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{
			name: "unknown", path: "/api/quizzes/lol",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "quiz not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.run(t, tt)
		})
	}
}

func Test_quizApi_submit(t *testing.T) {
	f := setup(t)
	student := f.createUser(t, "Bob", "bob", user.RoleStudent)
	token := f.getToken(t, student)
	q := createQuiz(t, f, "Computer Basics")
	path := "/api/quizzes/" + q.ID + "/submit"
	cpu, sorting := q.Questions[0], q.Questions[1]

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: path, body: []byte(`{"answers":{}}`),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "answers required", method: http.MethodPost, path: path, body: []byte(`{}`), token: token,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"answers": "this field is required"}),
		},
		{
			name: "unknown quiz", method: http.MethodPost, path: "/api/quizzes/lol/submit", body: []byte(`{"answers":{}}`), token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "quiz not found"}),
		},
		{
			name: "graded", method: http.MethodPost, path: path, token: token,
			body: marchallObj(t, quiz.Submission{Answers: map[string]string{
				cpu.ID:     " Central Processing Unit ",
				sorting.ID: "Quick sort",
				"lol":      "ignored",
			}}),
			wantData: marchallObj(t, quiz.Result{
				QuizID: q.ID,
				Score:  1,
				Total:  2,
				Answers: []quiz.AnswerResult{
					{QuestionID: cpu.ID, Answer: "Central Processing Unit", Correct: true, CorrectAnswer: cpu.CorrectAnswer},
					{QuestionID: sorting.ID, Answer: "Quick sort", Correct: false, CorrectAnswer: sorting.CorrectAnswer},
				},
				XPEarned: 30,
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.run(t, tt)
		})
	}

	t.Run("resubmission replaces the score", func(t *testing.T) {
		body := marchallObj(t, quiz.Submission{Answers: map[string]string{cpu.ID: cpu.CorrectAnswer, sorting.ID: sorting.CorrectAnswer}})
		req, rec := newAuthRequest(http.MethodPost, path, token, body)
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		progress, err := f.quizSvc.UserProgress(context.Background(), student)
		require.NoError(t, err)
		require.Len(t, progress, 1)
		assert.Equal(t, 2, progress[0].Score)
		assert.Equal(t, "Computer Basics", progress[0].QuizTitle)
	})
}

func Test_quizApi_admin(t *testing.T) {
	f := setup(t)
	student := f.createUser(t, "Bob", "bob", user.RoleStudent)
	admin := f.createUser(t, "Admin", "admin", user.RoleAdmin)
	adminToken := f.getToken(t, admin)
	q := createQuiz(t, f, "Computer Basics")

	newQuiz := marchallObj(t, quiz.NewQuiz{
		Title: "Networks",
		Questions: []quiz.NewQuestion{
			{Text: "Which layer does IP belong to?", CorrectAnswer: "Network", Option1: "Transport", Option2: "Network", Option3: "Link", Option4: "Application"},
		},
	})

	tests := []httpTest{
		{
			name: "create: admin required", method: http.MethodPost, path: "/api/quizzes", body: newQuiz, token: f.getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "create: invalid", method: http.MethodPost, path: "/api/quizzes", body: []byte(`{"description":"empty"}`), token: adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"title":     "this field is required",
				"questions": "this field is required",
			}),
		},
		{
			name: "delete: unknown", method: http.MethodDelete, path: "/api/quizzes/lol", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "quiz not found"}),
		},
		{name: "delete", method: http.MethodDelete, path: "/api/quizzes/" + q.ID, token: adminToken, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.run(t, tt)
		})
	}

	t.Run("create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/quizzes", adminToken, newQuiz)
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got quiz.Quiz
		unmarshal(t, rec, &got)
		require.Len(t, got.Questions, 1)
		assert.Equal(t, "Networks", got.Title)
		assert.Equal(t, "Network", got.Questions[0].CorrectAnswer)
		assert.Equal(t, got.ID, got.Questions[0].QuizID)
	})
}
