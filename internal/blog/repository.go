package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/inkwell/internal/infrastructure/database"
)

// AuthorRepository persists authors.
type AuthorRepository interface {
	CreateAuthor(ctx context.Context, author *Author) error
	GetAuthor(ctx context.Context, id int64) (*Author, error)
	ListAuthors(ctx context.Context, opts ListOptions) ([]Author, error)
	UpdateAuthor(ctx context.Context, id int64, patch AuthorPatch) (*Author, error)
	DeleteAuthor(ctx context.Context, id int64) error
}

// PostRepository persists posts.
type PostRepository interface {
	CreatePost(ctx context.Context, post *Post) error
	GetPost(ctx context.Context, id int64) (*Post, error)
	ListPosts(ctx context.Context, opts ListOptions) ([]Post, error)
	ListPostsByAuthor(ctx context.Context, authorID int64) ([]Post, error)
	UpdatePost(ctx context.Context, id int64, patch PostPatch) (*Post, error)
	DeletePost(ctx context.Context, id int64) error
}

// SQLiteRepository implements AuthorRepository and PostRepository.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a new SQLite-backed blog repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) timestamp() (time.Time, string) {
	t := r.now().UTC().Truncate(time.Second)
	return t, t.Format(time.RFC3339)
}

// likePattern wraps s for a LIKE ... ESCAPE '\' substring match.
func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}

type scanner interface {
	Scan(dest ...any) error
}

// ─── Authors ───────────────────────────────────────────────────────

// CreateAuthor validates and inserts author, filling in ID and timestamps.
func (r *SQLiteRepository) CreateAuthor(ctx context.Context, author *Author) error {
	author.Name = strings.TrimSpace(author.Name)
	author.Surname = strings.TrimSpace(author.Surname)
	if err := ValidateAuthor(author); err != nil {
		return err
	}

	now, stamp := r.timestamp()
	const query = `INSERT INTO authors (name, surname, created_at, updated_at) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, author.Name, author.Surname, stamp, stamp)
	if err != nil {
		return fmt.Errorf("inserting author %s %s: %w", author.Name, author.Surname, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading author id: %w", err)
	}
	author.ID = id
	author.CreatedAt = now
	author.UpdatedAt = now
	return nil
}

// GetAuthor returns a single author by ID.
func (r *SQLiteRepository) GetAuthor(ctx context.Context, id int64) (*Author, error) {
	const query = `SELECT id, name, surname, created_at, updated_at FROM authors WHERE id = ?`
	return scanAuthor(r.db.QueryRowContext(ctx, query, id))
}

// ListAuthors returns one page of authors ordered by id, optionally
// filtered by a substring of name or surname.
func (r *SQLiteRepository) ListAuthors(ctx context.Context, opts ListOptions) ([]Author, error) {
	query := `SELECT id, name, surname, created_at, updated_at FROM authors`
	var args []any
	if opts.Search != "" {
		query += ` WHERE name LIKE ? ESCAPE '\' OR surname LIKE ? ESCAPE '\'`
		p := likePattern(opts.Search)
		args = append(args, p, p)
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, PageSize, opts.offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying authors: %w", err)
	}
	defer rows.Close()

	authors := make([]Author, 0, PageSize)
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, err
		}
		authors = append(authors, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating authors: %w", err)
	}
	return authors, nil
}

// UpdateAuthor applies patch to author id and returns the stored result.
func (r *SQLiteRepository) UpdateAuthor(ctx context.Context, id int64, patch AuthorPatch) (*Author, error) {
	author, err := r.GetAuthor(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(author)
	if err := ValidateAuthor(author); err != nil {
		return nil, err
	}

	now, stamp := r.timestamp()
	const query = `UPDATE authors SET name = ?, surname = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, author.Name, author.Surname, stamp, id)
	if err != nil {
		return nil, fmt.Errorf("updating author %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // always succeeds on SQLite
		return nil, ErrAuthorNotFound
	}
	author.UpdatedAt = now
	return author, nil
}

// DeleteAuthor removes an author and, through the foreign key, their posts.
func (r *SQLiteRepository) DeleteAuthor(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM authors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting author %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // always succeeds on SQLite
		return ErrAuthorNotFound
	}
	return nil
}

func scanAuthor(s scanner) (*Author, error) {
	var a Author
	var createdAt, updatedAt string
	if err := s.Scan(&a.ID, &a.Name, &a.Surname, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAuthorNotFound
		}
		return nil, fmt.Errorf("scanning author: %w", err)
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled
	return &a, nil
}

// ─── Posts ─────────────────────────────────────────────────────────

// CreatePost validates and inserts post. The author must exist.
func (r *SQLiteRepository) CreatePost(ctx context.Context, post *Post) error {
	post.Title = strings.TrimSpace(post.Title)
	if err := ValidatePost(post); err != nil {
		return err
	}

	now, stamp := r.timestamp()
	const query = `INSERT INTO posts (title, content, author_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, post.Title, post.Content, post.AuthorID, stamp, stamp)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrAuthorNotFound
		}
		return fmt.Errorf("inserting post %q: %w", post.Title, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading post id: %w", err)
	}
	post.ID = id
	post.CreatedAt = now
	post.UpdatedAt = now
	return nil
}

// GetPost returns a single post by ID.
func (r *SQLiteRepository) GetPost(ctx context.Context, id int64) (*Post, error) {
	const query = `SELECT id, title, content, author_id, created_at, updated_at FROM posts WHERE id = ?`
	return scanPost(r.db.QueryRowContext(ctx, query, id))
}

// ListPosts returns one page of posts ordered by id, optionally filtered
// by a substring of title or content.
func (r *SQLiteRepository) ListPosts(ctx context.Context, opts ListOptions) ([]Post, error) {
	query := `SELECT id, title, content, author_id, created_at, updated_at FROM posts`
	var args []any
	if opts.Search != "" {
		query += ` WHERE title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\'`
		p := likePattern(opts.Search)
		args = append(args, p, p)
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, PageSize, opts.offset())
	return r.queryPosts(ctx, query, args...)
}

// ListPostsByAuthor returns every post by authorID. An unknown author
// yields ErrAuthorNotFound rather than an empty list.
func (r *SQLiteRepository) ListPostsByAuthor(ctx context.Context, authorID int64) ([]Post, error) {
	if _, err := r.GetAuthor(ctx, authorID); err != nil {
		return nil, err
	}
	const query = `SELECT id, title, content, author_id, created_at, updated_at
		FROM posts WHERE author_id = ? ORDER BY id`
	return r.queryPosts(ctx, query, authorID)
}

// UpdatePost applies patch to post id and returns the stored result.
func (r *SQLiteRepository) UpdatePost(ctx context.Context, id int64, patch PostPatch) (*Post, error) {
	post, err := r.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(post)
	if err := ValidatePost(post); err != nil {
		return nil, err
	}

	now, stamp := r.timestamp()
	const query = `UPDATE posts SET title = ?, content = ?, author_id = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, post.Title, post.Content, post.AuthorID, stamp, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ErrAuthorNotFound
		}
		return nil, fmt.Errorf("updating post %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // always succeeds on SQLite
		return nil, ErrPostNotFound
	}
	post.UpdatedAt = now
	return post, nil
}

// DeletePost removes a post.
func (r *SQLiteRepository) DeletePost(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting post %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // always succeeds on SQLite
		return ErrPostNotFound
	}
	return nil
}

func (r *SQLiteRepository) queryPosts(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	posts := make([]Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posts: %w", err)
	}
	return posts, nil
}

func scanPost(s scanner) (*Post, error) {
	var p Post
	var createdAt, updatedAt string
	if err := s.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("scanning post: %w", err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled
	return &p, nil
}
