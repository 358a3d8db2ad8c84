package note_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/examprep/core/note"
	"github.com/trezcool/examprep/core/user"
	"github.com/trezcool/examprep/storage/database/inmem"
	"github.com/trezcool/examprep/tests"
)

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "empty", src: "", want: ""},
		{name: "heading", src: "# Sorting", want: "<h1>Sorting</h1>\n"},
		{name: "hard wraps", src: "line one\nline two", want: "<p>line one<br>\nline two</p>\n"},
		{name: "strikethrough", src: "~~slow~~", want: "<p><del>slow</del></p>\n"},
		{name: "raw html is dropped", src: "<script>alert(1)</script>", want: "<!-- raw HTML omitted -->\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := note.RenderMarkdown(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.Open()
	svc := note.NewService(inmemdb.NewNoteRepository(db))
	usrRepo := inmemdb.NewUserRepository(db)
	bob := testutil.CreateUser(t, usrRepo, "Bob", "bob", "", "", []string{user.RoleStudent}, true)
	ann := testutil.CreateUser(t, usrRepo, "Ann", "ann", "", "", []string{user.RoleStudent}, true)

	n, err := svc.Create(ctx, bob, note.NewNote{Title: "Sorting", Content: "**merge** sort"})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, n.UserID)
	assert.Equal(t, "<p><strong>merge</strong> sort</p>\n", n.ContentHTML)

	t.Run("owner only", func(t *testing.T) {
		_, err := svc.Get(ctx, ann, n.ID)
		assert.Equal(t, note.ErrNotFound, err)
		_, err = svc.Update(ctx, ann, n.ID, note.NewNote{Title: "Mine"})
		assert.Equal(t, note.ErrNotFound, err)
		assert.Equal(t, note.ErrNotFound, svc.Delete(ctx, ann, n.ID))

		notes, err := svc.Query(ctx, ann)
		require.NoError(t, err)
		assert.Empty(t, notes)
	})

	t.Run("update", func(t *testing.T) {
		got, err := svc.Update(ctx, bob, n.ID, note.NewNote{Title: "Sorting algorithms", Content: "quick sort"})
		require.NoError(t, err)
		assert.Equal(t, "Sorting algorithms", got.Title)
		assert.Equal(t, "<p>quick sort</p>\n", got.ContentHTML)
		assert.True(t, !got.UpdatedAt.Before(n.UpdatedAt))

		notes, err := svc.Query(ctx, bob)
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, got, notes[0])
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, bob, n.ID))
		_, err := svc.Get(ctx, bob, n.ID)
		assert.Equal(t, note.ErrNotFound, err)
	})
}
