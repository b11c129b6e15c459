package articles

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/pevans/blogscraper/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: create a test article store
func createTestStore(t *testing.T) *Store {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")
	store, err := NewStore(dbPath)
	require.NoError(t, err, "should create article store")
	t.Cleanup(func() { store.Close() })
	return store
}

// Test helper: create sample scraped fields
func sampleFields(url string) ArticleFields {
	content := "## Heading\n\nBody text of the article."
	return ArticleFields{
		Title:      "Sample article",
		URL:        url,
		Excerpt:    "An excerpt",
		Image:      "https://example.com/cover.png",
		ImageAlt:   "Cover",
		AuthorName: "Jane Doe",
		AuthorURL:  "https://example.com/author/jane/",
		Date:       "November 28, 2025",
		Categories: []scraper.Category{
			{Name: "AI", URL: "https://example.com/tag/ai/"},
		},
		FullContent: &content,
	}
}

func ptr[T any](v T) *T {
	return &v
}

// TestNewStore_ExistingDatabase verifies opening an existing database
func TestNewStore_ExistingDatabase(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")
	ctx := context.Background()

	store1, err := NewStore(dbPath)
	require.NoError(t, err)
	_, err = store1.Create(ctx, sampleFields("https://example.com/a"))
	require.NoError(t, err)
	store1.Close()

	store2, err := NewStore(dbPath)
	require.NoError(t, err)
	defer store2.Close()

	article, err := store2.FindByURL(ctx, "https://example.com/a")
	require.NoError(t, err)
	require.NotNil(t, article, "data should persist across opens")
}

// TestCreate_Success verifies article creation and derived columns
func TestCreate_Success(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	article, err := store.Create(ctx, sampleFields("https://example.com/a"))
	require.NoError(t, err)

	assert.Positive(t, article.ID)
	assert.Equal(t, "Sample article", article.Title)
	assert.Equal(t, "Jane Doe", article.AuthorName)
	assert.Equal(t, []scraper.Category{{Name: "AI", URL: "https://example.com/tag/ai/"}}, article.Categories)
	require.NotNil(t, article.FullContent)
	assert.Equal(t, "## Heading\n\nBody text of the article.", *article.FullContent)
	assert.False(t, article.IsOptimized)
	assert.Nil(t, article.ReferenceArticles)
	assert.Nil(t, article.OptimizedAt)
	assert.True(t, article.CreatedAt.After(before))

	require.NotNil(t, article.PublishedAt, "display date should be parsed")
	assert.Equal(t, "2025-11-28", article.PublishedAt.Format("2006-01-02"))
}

// TestCreate_UnparseableDate verifies published_at stays empty
func TestCreate_UnparseableDate(t *testing.T) {
	store := createTestStore(t)

	fields := sampleFields("https://example.com/a")
	fields.Date = "sometime last week"
	article, err := store.Create(context.Background(), fields)

	require.NoError(t, err)
	assert.Equal(t, "sometime last week", article.Date)
	assert.Nil(t, article.PublishedAt)
}

// TestCreate_NilCategoriesAndContent verifies empty defaults
func TestCreate_NilCategoriesAndContent(t *testing.T) {
	store := createTestStore(t)

	fields := sampleFields("https://example.com/a")
	fields.Categories = nil
	fields.FullContent = nil
	article, err := store.Create(context.Background(), fields)

	require.NoError(t, err)
	assert.NotNil(t, article.Categories)
	assert.Empty(t, article.Categories)
	assert.Nil(t, article.FullContent)
}

// TestCreate_DuplicateURL verifies the unique url constraint
func TestCreate_DuplicateURL(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, sampleFields("https://example.com/a"))
	require.NoError(t, err)

	_, err = store.Create(ctx, sampleFields("https://example.com/a"))
	assert.ErrorIs(t, err, ErrDuplicateURL)
}

// TestFindByURL_Missing verifies absence is not an error
func TestFindByURL_Missing(t *testing.T) {
	store := createTestStore(t)

	article, err := store.FindByURL(context.Background(), "https://example.com/missing")

	require.NoError(t, err)
	assert.Nil(t, article)
}

// TestGet_NotFound verifies the not found sentinel
func TestGet_NotFound(t *testing.T) {
	store := createTestStore(t)

	_, err := store.Get(context.Background(), 42)

	assert.ErrorIs(t, err, ErrArticleNotFound)
}

// TestUpdate_PartialFields verifies only supplied fields change
func TestUpdate_PartialFields(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, sampleFields("https://example.com/a"))
	require.NoError(t, err)

	updated, err := store.Update(ctx, created.ID, ArticleUpdate{
		Title:       ptr("Renamed"),
		IsOptimized: ptr(true),
		ReferenceArticles: &[]ReferenceArticle{
			{Title: "Source", URL: "https://other.example.com/source"},
		},
		OptimizedAt: ptr(time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, created.URL, updated.URL)
	assert.Equal(t, created.Excerpt, updated.Excerpt)
	assert.Equal(t, created.Categories, updated.Categories)
	assert.True(t, updated.IsOptimized)
	assert.Equal(t, []ReferenceArticle{{Title: "Source", URL: "https://other.example.com/source"}}, updated.ReferenceArticles)
	require.NotNil(t, updated.OptimizedAt)
	assert.Equal(t, "2025-12-24", updated.OptimizedAt.Format("2006-01-02"))
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
}

// TestUpdate_DateRecomputesPublishedAt verifies the derived column follows
// the display date
func TestUpdate_DateRecomputesPublishedAt(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, sampleFields("https://example.com/a"))
	require.NoError(t, err)

	updated, err := store.Update(ctx, created.ID, ArticleUpdate{Date: ptr("2024-03-05")})
	require.NoError(t, err)
	require.NotNil(t, updated.PublishedAt)
	assert.Equal(t, "2024-03-05", updated.PublishedAt.Format("2006-01-02"))

	updated, err = store.Update(ctx, created.ID, ArticleUpdate{Date: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.PublishedAt)
}

// TestUpdate_NotFound verifies updating a missing article
func TestUpdate_NotFound(t *testing.T) {
	store := createTestStore(t)

	_, err := store.Update(context.Background(), 99, ArticleUpdate{Title: ptr("x")})

	assert.ErrorIs(t, err, ErrArticleNotFound)
}

// TestUpdate_DuplicateURL verifies url uniqueness on update
func TestUpdate_DuplicateURL(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, sampleFields("https://example.com/a"))
	require.NoError(t, err)
	b, err := store.Create(ctx, sampleFields("https://example.com/b"))
	require.NoError(t, err)

	_, err = store.Update(ctx, b.ID, ArticleUpdate{URL: ptr("https://example.com/a")})
	assert.ErrorIs(t, err, ErrDuplicateURL)
}

// TestRescrape_PreservesOptimization verifies a full replace of scraped
// fields leaves optimization metadata untouched
func TestRescrape_PreservesOptimization(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, sampleFields("https://example.com/a"))
	require.NoError(t, err)

	refs := []ReferenceArticle{{Title: "Ref", URL: "https://ref.example.com"}}
	_, err = store.Update(ctx, created.ID, ArticleUpdate{
		IsOptimized:       ptr(true),
		ReferenceArticles: &refs,
		OptimizedAt:       ptr(time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)

	rescraped := sampleFields("https://example.com/a")
	rescraped.Title = "Fresh title"
	rescraped.Categories = []scraper.Category{}
	rescraped.FullContent = nil
	updated, err := store.Update(ctx, created.ID, rescraped.AsUpdate())
	require.NoError(t, err)

	assert.Equal(t, "Fresh title", updated.Title)
	assert.Empty(t, updated.Categories)
	assert.Nil(t, updated.FullContent, "scraped fields are fully replaced")
	assert.True(t, updated.IsOptimized)
	assert.Equal(t, refs, updated.ReferenceArticles)
	require.NotNil(t, updated.OptimizedAt)
	assert.Equal(t, "2025-12-25", updated.OptimizedAt.Format("2006-01-02"))
}

// TestListPaged_OrderAndPagination verifies ordering and page metadata
func TestListPaged_OrderAndPagination(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	dates := []string{"January 5, 2025", "March 1, 2025", "not a date", "February 10, 2025"}
	for i, date := range dates {
		fields := sampleFields(fmt.Sprintf("https://example.com/%d", i))
		fields.Title = date
		fields.Date = date
		_, err := store.Create(ctx, fields)
		require.NoError(t, err)
	}

	page, err := store.ListPaged(ctx, ListFilter{PerPage: 3, Page: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, 3, page.PerPage)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 2, page.LastPage)
	require.Len(t, page.Data, 3)
	assert.Equal(t, "March 1, 2025", page.Data[0].Title)
	assert.Equal(t, "February 10, 2025", page.Data[1].Title)
	assert.Equal(t, "January 5, 2025", page.Data[2].Title)

	page, err = store.ListPaged(ctx, ListFilter{PerPage: 3, Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "not a date", page.Data[0].Title, "undated articles sort last")
}

// TestListPaged_Defaults verifies page size normalization
func TestListPaged_Defaults(t *testing.T) {
	store := createTestStore(t)

	page, err := store.ListPaged(context.Background(), ListFilter{})
	require.NoError(t, err)

	assert.Equal(t, DefaultPerPage, page.PerPage)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 1, page.LastPage)
	assert.Equal(t, int64(0), page.Total)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)

	page, err = store.ListPaged(context.Background(), ListFilter{PerPage: 500})
	require.NoError(t, err)
	assert.Equal(t, MaxPerPage, page.PerPage)
}

// TestListPaged_CategoryFilter verifies matching on category name
func TestListPaged_CategoryFilter(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	ai := sampleFields("https://example.com/ai")
	ai.Categories = []scraper.Category{{Name: "AI"}, {Name: "Support"}}
	other := sampleFields("https://example.com/other")
	other.Categories = []scraper.Category{{Name: "Sales"}}
	none := sampleFields("https://example.com/none")
	none.Categories = nil

	for _, f := range []ArticleFields{ai, other, none} {
		_, err := store.Create(ctx, f)
		require.NoError(t, err)
	}

	page, err := store.ListPaged(ctx, ListFilter{Category: "Support"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "https://example.com/ai", page.Data[0].URL)
	assert.Equal(t, int64(1), page.Total)

	page, err = store.ListPaged(ctx, ListFilter{Category: "Unknown"})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
}

// TestDeleteByID verifies single deletion
func TestDeleteByID(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, sampleFields("https://example.com/a"))
	require.NoError(t, err)

	deleted, err := store.DeleteByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "second delete finds nothing")
}

// TestDeleteByIDs_IgnoresMissing verifies the store deletes what exists
func TestDeleteByIDs_IgnoresMissing(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Create(ctx, sampleFields(fmt.Sprintf("https://example.com/%d", i)))
		require.NoError(t, err)
	}

	count, err := store.DeleteByIDs(ctx, []int64{1, 2, 999})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	remaining, err := store.ListPaged(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, remaining.Data, 1)
	assert.Equal(t, int64(3), remaining.Data[0].ID)

	count, err = store.DeleteByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, count)
}

// TestExistingIDs verifies id membership lookup
func TestExistingIDs(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	a, err := store.Create(ctx, sampleFields("https://example.com/a"))
	require.NoError(t, err)

	existing, err := store.ExistingIDs(ctx, []int64{a.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{a.ID: true}, existing)
}

// TestWithTx_Commit verifies writes inside a transaction are committed
func TestWithTx_Commit(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(repo Repository) error {
		if _, err := repo.Create(ctx, sampleFields("https://example.com/a")); err != nil {
			return err
		}
		_, err := repo.Create(ctx, sampleFields("https://example.com/b"))
		return err
	})
	require.NoError(t, err)

	page, err := store.ListPaged(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
}

// TestWithTx_Rollback verifies a failing callback leaves no writes behind
func TestWithTx_Rollback(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(repo Repository) error {
		if _, err := repo.Create(ctx, sampleFields("https://example.com/a")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	article, err := store.FindByURL(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.Nil(t, article, "create should be rolled back")
}

// TestDSN verifies connection option handling
func TestDSN(t *testing.T) {
	assert.Equal(t,
		"file:/tmp/a.db?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate",
		DSN("/tmp/a.db"))
	assert.Equal(t, "file:x.db?mode=memory", DSN("file:x.db?mode=memory"))
}
