package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blogful/internal/apperror"
	"github.com/sakif/blogful/internal/database"
	"github.com/sakif/blogful/internal/model"
)

// TESTING WITH IN-MEMORY SQLITE:
// ":memory:" gives each test a fresh, empty blogful_articles table that
// disappears when the connection closes. Because every repository function
// takes the connection as an argument, each test simply passes its own.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(context.Background(), database.Config{
		Driver: database.DriverSQLite,
		DSN:    ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedArticles inserts the three fixture articles and returns them as stored.
func seedArticles(t *testing.T, db *sqlx.DB) []model.Article {
	t.Helper()
	published := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	var out []model.Article
	for _, title := range []string{"Title 1", "Title 2", "Title 3"} {
		a, err := InsertArticle(context.Background(), db, model.NewArticle{
			Title:         title,
			Content:       "foo bar baz fake content",
			DatePublished: published,
		})
		if err != nil {
			t.Fatalf("failed to seed article %q: %v", title, err)
		}
		out = append(out, a)
	}
	return out
}

func ptr[T any](v T) *T { return &v }

// =========================================================================
// LIST
// =========================================================================

func TestGetAllArticles_Empty(t *testing.T) {
	db := newTestDB(t)

	articles, err := GetAllArticles(context.Background(), db)
	require.NoError(t, err)

	assert.NotNil(t, articles, "empty table should give an empty slice, not nil")
	assert.Empty(t, articles)
}

func TestGetAllArticles_InsertionOrder(t *testing.T) {
	db := newTestDB(t)
	seeded := seedArticles(t, db)

	articles, err := GetAllArticles(context.Background(), db)
	require.NoError(t, err)

	if diff := cmp.Diff(seeded, articles); diff != "" {
		t.Fatalf("GetAllArticles mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int64{1, 2, 3}, []int64{articles[0].ID, articles[1].ID, articles[2].ID})
}

// =========================================================================
// INSERT
// =========================================================================

func TestInsertArticle_AssignsID(t *testing.T) {
	db := newTestDB(t)
	published := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := InsertArticle(context.Background(), db, model.NewArticle{
		Title:         "Test new title",
		Content:       "Test new content",
		DatePublished: published,
	})
	require.NoError(t, err)

	want := model.Article{
		ID:            1,
		Title:         "Test new title",
		Content:       "Test new content",
		DatePublished: published,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("InsertArticle mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertArticle_RoundTripsThroughGetByID(t *testing.T) {
	db := newTestDB(t)

	// A local zone and nanoseconds: what comes back must still match.
	published := time.Date(2024, 5, 17, 13, 45, 12, 987654321, time.FixedZone("JST", 9*60*60))

	inserted, err := InsertArticle(context.Background(), db, model.NewArticle{
		Title:         "round trip",
		Content:       "body",
		DatePublished: published,
	})
	require.NoError(t, err)

	found, ok, err := GetArticleByID(context.Background(), db, inserted.ID)
	require.NoError(t, err)
	require.True(t, ok)

	if diff := cmp.Diff(inserted, found); diff != "" {
		t.Fatalf("read-back mismatch (-inserted +found):\n%s", diff)
	}
	assert.True(t, found.DatePublished.Equal(published.Truncate(time.Microsecond)))
}

func TestInsertArticle_MissingFields(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		in        model.NewArticle
		wantField string
	}{
		{name: "no title", in: model.NewArticle{Content: "c", DatePublished: now}, wantField: "title"},
		{name: "blank title", in: model.NewArticle{Title: "   ", Content: "c", DatePublished: now}, wantField: "title"},
		{name: "no content", in: model.NewArticle{Title: "t", DatePublished: now}, wantField: "content"},
		{name: "no date", in: model.NewArticle{Title: "t", Content: "c"}, wantField: "date_published"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)

			_, err := InsertArticle(context.Background(), db, tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrValidation), "error = %v, want ErrValidation", err)

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantField, appErr.Field)

			// Nothing reached the table.
			all, err := GetAllArticles(context.Background(), db)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestInsertArticle_BackendFailureIsStorageError(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Exec(`DROP TABLE blogful_articles`)
	require.NoError(t, err)

	_, err = InsertArticle(context.Background(), db, model.NewArticle{
		Title: "t", Content: "c", DatePublished: time.Now(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrStorage), "error = %v, want ErrStorage", err)
}

// =========================================================================
// GET BY ID
// =========================================================================

func TestGetArticleByID(t *testing.T) {
	db := newTestDB(t)
	seeded := seedArticles(t, db)

	got, ok, err := GetArticleByID(context.Background(), db, 3)
	require.NoError(t, err)
	require.True(t, ok)

	if diff := cmp.Diff(seeded[2], got); diff != "" {
		t.Fatalf("GetArticleByID mismatch (-want +got):\n%s", diff)
	}
}

func TestGetArticleByID_NotFoundIsAbsenceNotError(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db)

	got, ok, err := GetArticleByID(context.Background(), db, 42)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, model.Article{}, got)
}

// =========================================================================
// DELETE
// =========================================================================

func TestDeleteArticle(t *testing.T) {
	db := newTestDB(t)
	seeded := seedArticles(t, db)

	n, err := DeleteArticle(context.Background(), db, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	all, err := GetAllArticles(context.Background(), db)
	require.NoError(t, err)

	if diff := cmp.Diff(seeded[:2], all); diff != "" {
		t.Fatalf("after delete (-want +got):\n%s", diff)
	}
}

func TestDeleteArticle_MissingIDIsNoOp(t *testing.T) {
	db := newTestDB(t)
	seeded := seedArticles(t, db)

	n, err := DeleteArticle(context.Background(), db, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	all, err := GetAllArticles(context.Background(), db)
	require.NoError(t, err)
	assert.Len(t, all, len(seeded))
}

// =========================================================================
// UPDATE
// =========================================================================

func TestUpdateArticle_AllFields(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db)
	newDate := time.Date(2021, 6, 1, 12, 30, 0, 0, time.UTC)

	n, err := UpdateArticle(context.Background(), db, 3, model.ArticlePatch{
		Title:         ptr("updated title"),
		Content:       ptr("updated content"),
		DatePublished: &newDate,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, ok, err := GetArticleByID(context.Background(), db, 3)
	require.NoError(t, err)
	require.True(t, ok)

	want := model.Article{ID: 3, Title: "updated title", Content: "updated content", DatePublished: newDate}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("after update (-want +got):\n%s", diff)
	}
}

func TestUpdateArticle_PartialMergeKeepsOmittedFields(t *testing.T) {
	db := newTestDB(t)
	seeded := seedArticles(t, db)

	_, err := UpdateArticle(context.Background(), db, 2, model.ArticlePatch{Title: ptr("only the title")})
	require.NoError(t, err)

	got, ok, err := GetArticleByID(context.Background(), db, 2)
	require.NoError(t, err)
	require.True(t, ok)

	want := seeded[1]
	want.Title = "only the title"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("partial update (-want +got):\n%s", diff)
	}

	// The neighbours are untouched.
	other, _, err := GetArticleByID(context.Background(), db, 1)
	require.NoError(t, err)
	assert.Equal(t, "Title 1", other.Title)
}

func TestUpdateArticle_MissingIDReportsZeroRows(t *testing.T) {
	db := newTestDB(t)

	n, err := UpdateArticle(context.Background(), db, 7, model.ArticlePatch{Content: ptr("x")})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestUpdateArticle_EmptyPatch(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db)

	_, err := UpdateArticle(context.Background(), db, 1, model.ArticlePatch{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestUpdateArticle_BlankingARequiredField(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db)

	_, err := UpdateArticle(context.Background(), db, 1, model.ArticlePatch{Content: ptr("")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

// =========================================================================
// FULL SCENARIO
// =========================================================================

// TestArticlesScenario walks the fixture through get → update → delete the
// way a client of the service would.
func TestArticlesScenario(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seeded := seedArticles(t, db)

	// 1. The third article comes back verbatim.
	third, ok, err := GetArticleByID(ctx, db, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, cmp.Diff(seeded[2], third))

	// 2. Update it and read it back.
	updatedAt := time.Date(2022, 2, 2, 2, 2, 2, 0, time.UTC)
	_, err = UpdateArticle(ctx, db, 3, model.ArticlePatch{
		Title:         ptr("updated title"),
		Content:       ptr("updated content"),
		DatePublished: &updatedAt,
	})
	require.NoError(t, err)

	third, _, err = GetArticleByID(ctx, db, 3)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(model.Article{
		ID: 3, Title: "updated title", Content: "updated content", DatePublished: updatedAt,
	}, third))

	// 3. Delete it; only 1 and 2 remain, in order.
	_, err = DeleteArticle(ctx, db, 3)
	require.NoError(t, err)

	all, err := GetAllArticles(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(seeded[:2], all))
}

func TestArticles_ContextCancelled(t *testing.T) {
	db := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GetAllArticles(ctx, db)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "error = %v, want context.Canceled in chain", err)
}
