package articles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mattn/go-sqlite3"
	"github.com/pevans/blogscraper/scraper"
)

// Custom errors for article operations
var (
	ErrArticleNotFound = errors.New("article not found")
	ErrDuplicateURL    = errors.New("article with this URL already exists")
)

// Default and maximum page sizes for ListPaged.
const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Storage formats. Timestamps keep a fixed-width fraction so that text
// ordering matches time ordering.
const (
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

const articleColumns = `id, title, url, excerpt, image, image_alt,
	author_name, author_url, date, published_at, categories, full_content,
	is_optimized, reference_articles, optimized_at, created_at, updated_at`

// Repository is the article record store. Store implements it directly and
// hands a transaction-scoped implementation to WithTx callbacks.
type Repository interface {
	// FindByURL returns nil and no error when no article has url.
	FindByURL(ctx context.Context, url string) (*Article, error)
	Get(ctx context.Context, id int64) (*Article, error)
	Create(ctx context.Context, fields ArticleFields) (*Article, error)
	Update(ctx context.Context, id int64, update ArticleUpdate) (*Article, error)
	ListPaged(ctx context.Context, filter ListFilter) (*Page, error)
	DeleteByID(ctx context.Context, id int64) (bool, error)
	// DeleteByIDs deletes the articles that exist and returns how many were
	// removed. Missing ids are ignored.
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
	ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error)
}

// querier is the subset of *sql.DB and *sql.Tx the repository needs.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type repo struct {
	q querier
}

// Store manages articles using SQLite.
type Store struct {
	*repo
	db *sql.DB
}

// NewStore creates a new article store with the given database path.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{repo: &repo{q: db}, db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// DSN turns a database path into a go-sqlite3 data source name with WAL,
// foreign keys, a busy timeout and immediate write transactions. Paths that
// already carry options are returned unchanged.
func DSN(dbPath string) string {
	if strings.Contains(dbPath, "?") {
		return dbPath
	}
	return "file:" + dbPath + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
}

// initSchema creates the articles table and its indexes if they don't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		excerpt TEXT,
		image TEXT,
		image_alt TEXT,
		author_name TEXT,
		author_url TEXT,
		date TEXT,
		published_at TEXT,
		categories TEXT,
		full_content TEXT,
		is_optimized INTEGER NOT NULL DEFAULT 0,
		reference_articles TEXT,
		optimized_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at);
	CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at);
	CREATE INDEX IF NOT EXISTS idx_articles_is_optimized ON articles(is_optimized);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(Repository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// No-op once committed.
		_ = tx.Rollback()
	}()

	if err := fn(&repo{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// FindByURL retrieves an article by URL.
func (r *repo) FindByURL(ctx context.Context, url string) (*Article, error) {
	query := "SELECT " + articleColumns + " FROM articles WHERE url = ?"

	article, err := scanArticle(r.q.QueryRowContext(ctx, query, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query article: %w", err)
	}
	return article, nil
}

// Get retrieves an article by ID.
func (r *repo) Get(ctx context.Context, id int64) (*Article, error) {
	query := "SELECT " + articleColumns + " FROM articles WHERE id = ?"

	article, err := scanArticle(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query article: %w", err)
	}
	return article, nil
}

// Create creates a new article from scraped fields.
func (r *repo) Create(ctx context.Context, fields ArticleFields) (*Article, error) {
	categories, err := marshalJSON(nonNilCategories(fields.Categories))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal categories: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO articles (
			title, url, excerpt, image, image_alt, author_name, author_url,
			date, published_at, categories, full_content, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.q.ExecContext(ctx, query,
		fields.Title,
		fields.URL,
		fields.Excerpt,
		fields.Image,
		fields.ImageAlt,
		fields.AuthorName,
		fields.AuthorURL,
		fields.Date,
		publishedAt(fields.Date),
		categories,
		fields.FullContent,
		formatTime(&now),
		formatTime(&now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateURL
		}
		return nil, fmt.Errorf("failed to insert article: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted id: %w", err)
	}

	return r.Get(ctx, id)
}

// Update updates an article with the provided fields and returns the result.
func (r *repo) Update(ctx context.Context, id int64, update ArticleUpdate) (*Article, error) {
	// Build dynamic UPDATE query based on provided fields
	setClauses := []string{"updated_at = ?"}
	now := time.Now()
	args := []any{formatTime(&now)}

	set := func(column string, value any) {
		setClauses = append(setClauses, column+" = ?")
		args = append(args, value)
	}

	if update.Title != nil {
		set("title", *update.Title)
	}
	if update.URL != nil {
		set("url", *update.URL)
	}
	if update.Excerpt != nil {
		set("excerpt", *update.Excerpt)
	}
	if update.Image != nil {
		set("image", *update.Image)
	}
	if update.ImageAlt != nil {
		set("image_alt", *update.ImageAlt)
	}
	if update.AuthorName != nil {
		set("author_name", *update.AuthorName)
	}
	if update.AuthorURL != nil {
		set("author_url", *update.AuthorURL)
	}
	if update.Date != nil {
		set("date", *update.Date)
		set("published_at", publishedAt(*update.Date))
	}
	if update.Categories != nil {
		data, err := marshalJSON(nonNilCategories(*update.Categories))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal categories: %w", err)
		}
		set("categories", data)
	}
	if update.ClearContent {
		set("full_content", nil)
	} else if update.FullContent != nil {
		set("full_content", *update.FullContent)
	}
	if update.IsOptimized != nil {
		set("is_optimized", *update.IsOptimized)
	}
	if update.ReferenceArticles != nil {
		data, err := marshalJSON(*update.ReferenceArticles)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal reference_articles: %w", err)
		}
		set("reference_articles", data)
	}
	if update.OptimizedAt != nil {
		set("optimized_at", update.OptimizedAt.Format(dateLayout))
	}

	// Add WHERE clause
	args = append(args, id)

	query := fmt.Sprintf("UPDATE articles SET %s WHERE id = ?", strings.Join(setClauses, ", "))

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateURL
		}
		return nil, fmt.Errorf("failed to update article: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, ErrArticleNotFound
	}

	return r.Get(ctx, id)
}

// ListPaged returns one page of articles, newest first. Articles without a
// parseable publication date sort after dated ones.
func (r *repo) ListPaged(ctx context.Context, filter ListFilter) (*Page, error) {
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	var where string
	var args []any
	if filter.Category != "" {
		where = ` WHERE EXISTS (
			SELECT 1 FROM json_each(articles.categories) AS c
			WHERE json_extract(c.value, '$.name') = ?
		)`
		args = append(args, filter.Category)
	}

	var total int64
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count articles: %w", err)
	}

	query := "SELECT " + articleColumns + " FROM articles" + where +
		" ORDER BY published_at DESC, created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	data := []Article{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		data = append(data, *article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}

	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage < 1 {
		lastPage = 1
	}

	return &Page{
		Data:        data,
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		LastPage:    lastPage,
	}, nil
}

// DeleteByID deletes an article and reports whether it existed.
func (r *repo) DeleteByID(ctx context.Context, id int64) (bool, error) {
	result, err := r.q.ExecContext(ctx, "DELETE FROM articles WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete article: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// DeleteByIDs deletes every listed article that exists.
func (r *repo) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders, args := inClause(ids)
	result, err := r.q.ExecContext(ctx, "DELETE FROM articles WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete articles: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// ExistingIDs reports which of ids belong to stored articles.
func (r *repo) ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	existing := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	placeholders, args := inClause(ids)
	rows, err := r.q.QueryContext(ctx, "SELECT id FROM articles WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query article ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan article id: %w", err)
		}
		existing[id] = true
	}
	return existing, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanArticle reads one row selected with articleColumns.
func scanArticle(row rowScanner) (*Article, error) {
	var a Article
	var excerpt, image, imageAlt, authorName, authorURL, date sql.NullString
	var publishedAtStr, categoriesJSON, fullContent, referencesJSON, optimizedAtStr sql.NullString
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&a.ID, &a.Title, &a.URL, &excerpt, &image, &imageAlt,
		&authorName, &authorURL, &date, &publishedAtStr, &categoriesJSON, &fullContent,
		&a.IsOptimized, &referencesJSON, &optimizedAtStr, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	a.Excerpt = excerpt.String
	a.Image = image.String
	a.ImageAlt = imageAlt.String
	a.AuthorName = authorName.String
	a.AuthorURL = authorURL.String
	a.Date = date.String
	a.PublishedAt = parseDate(publishedAtStr)
	a.OptimizedAt = parseDate(optimizedAtStr)
	a.CreatedAt = parseTime(createdAtStr)
	a.UpdatedAt = parseTime(updatedAtStr)

	if fullContent.Valid {
		a.FullContent = &fullContent.String
	}

	a.Categories = []scraper.Category{}
	if categoriesJSON.Valid && categoriesJSON.String != "" {
		if err := json.Unmarshal([]byte(categoriesJSON.String), &a.Categories); err != nil {
			return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
		}
	}

	if referencesJSON.Valid && referencesJSON.String != "" {
		if err := json.Unmarshal([]byte(referencesJSON.String), &a.ReferenceArticles); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reference_articles: %w", err)
		}
	}

	return &a, nil
}

func inClause(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

func nonNilCategories(c []scraper.Category) []scraper.Category {
	if c == nil {
		return []scraper.Category{}
	}
	return c
}

func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// publishedAt derives the stored publication date from a display date
// string, or nil when it cannot be parsed.
func publishedAt(display string) any {
	display = strings.TrimSpace(display)
	if display == "" {
		return nil
	}
	t, err := dateparse.ParseIn(display, time.UTC)
	if err != nil {
		return nil
	}
	return t.Format(dateLayout)
}

// Helper functions for time formatting
func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	// Strip monotonic clock for consistent storage and comparisons
	return t.Truncate(0).UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	// Try RFC3339Nano first, fall back to RFC3339 for compatibility
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	// Strip monotonic clock for consistent comparisons
	return t.Truncate(0)
}

func parseDate(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}
