package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/examprep/core/paper"
	"github.com/trezcool/examprep/core/user"
)

func Test_paperApi(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	student := f.createUser(t, "Bob", "bob", user.RoleStudent)
	admin := f.createUser(t, "Admin", "admin", user.RoleAdmin)
	studentToken := f.getToken(t, student)
	adminToken := f.getToken(t, admin)

	algo, err := f.paperSvc.Create(ctx, paper.NewPaper{Title: "Final", Subject: "Algorithms", Year: 2019, FileURL: "https://papers.test/algo-2019.pdf"})
	require.NoError(t, err)
	nets, err := f.paperSvc.Create(ctx, paper.NewPaper{Title: "Midterm", Subject: "Networks", Year: 2021, FileURL: "https://papers.test/nets-2021.pdf"})
	require.NoError(t, err)

	forbidden := marchallObj(t, httpErr{Error: "permission denied"})
	newPaper := marchallObj(t, paper.NewPaper{Title: "Resit", Subject: "Algorithms", Year: 2020, FileURL: "https://papers.test/algo-2020.pdf"})

	tests := []httpTest{
		{name: "list: public, newest first", path: "/api/past-papers", wantData: marchallList(t, nets, algo)},
		{name: "list: subject", path: "/api/past-papers?subject=algorithms", wantData: marchallList(t, algo)},
		{name: "list: year", path: "/api/past-papers?year=2021", wantData: marchallList(t, nets)},
		{name: "list: search", path: "/api/past-papers?search=MID", wantData: marchallList(t, nets)},
		{name: "list: ordering", path: "/api/past-papers?ordering=title", wantData: marchallList(t, algo, nets)},
		{name: "get", path: "/api/past-papers/" + algo.ID, wantData: marchallObj(t, algo)},
		{
			name: "get: unknown", path: "/api/past-papers/lol",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "past paper not found"}),
		},
		{
			name: "create: auth required", method: http.MethodPost, path: "/api/past-papers", body: newPaper,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "create: admin required", method: http.MethodPost, path: "/api/past-papers", body: newPaper, token: studentToken,
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "create: invalid", method: http.MethodPost, path: "/api/past-papers", body: []byte(`{}`), token: adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"title":    "this field is required",
				"subject":  "this field is required",
				"year":     "this field is required",
				"file_url": "this field is required",
			}),
		},
		{
			name: "update: admin required", method: http.MethodPut, path: "/api/past-papers/" + algo.ID, body: newPaper, token: studentToken,
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "delete: admin required", method: http.MethodDelete, path: "/api/past-papers/" + algo.ID, token: studentToken,
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.run(t, tt)
		})
	}

	t.Run("create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/past-papers", adminToken, newPaper)
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got paper.Paper
		unmarshal(t, rec, &got)
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, "Resit", got.Title)
		assert.Equal(t, 2020, got.Year)
	})

	t.Run("update", func(t *testing.T) {
		body := marchallObj(t, paper.NewPaper{Title: " Final exam ", Subject: "Algorithms", Year: 2019, FileURL: algo.FileURL})
		req, rec := newAuthRequest(http.MethodPut, "/api/past-papers/"+algo.ID, adminToken, body)
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got, err := f.paperSvc.Get(ctx, algo.ID)
		require.NoError(t, err)
		assert.Equal(t, "Final exam", got.Title)
	})

	t.Run("delete", func(t *testing.T) {
		f.run(t, httpTest{method: http.MethodDelete, path: "/api/past-papers/" + nets.ID, token: adminToken, wantCode: http.StatusNoContent})
		_, err := f.paperSvc.Get(ctx, nets.ID)
		assert.Equal(t, paper.ErrNotFound, err)
	})
}
