package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gamehubio/gamehub-backend/internal/apperror"
	"github.com/gamehubio/gamehub-backend/internal/entity"
)

type BlogRepository interface {
	Create(ctx context.Context, blog *entity.Blog) error
	GetByID(ctx context.Context, id string) (*entity.Blog, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*entity.Blog, error)
	// ListPublished returns one page of published posts, newest first,
	// together with the total published count for pagination info.
	ListPublished(ctx context.Context, page, limit int) ([]*entity.Blog, int, error)
	Update(ctx context.Context, blog *entity.Blog) error
	Delete(ctx context.Context, id, authorID string) error
}

type blogRepository struct {
	conn *sql.DB
}

func NewBlogRepository(conn *sql.DB) BlogRepository {
	return &blogRepository{
		conn: conn,
	}
}

const blogColumns = `id, author_id, title, content, tags, published, created_at, updated_at`

func (that *blogRepository) Create(ctx context.Context, blog *entity.Blog) error {
	query := `INSERT INTO blogs (` + blogColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := that.conn.ExecContext(ctx, query,
		blog.ID, blog.AuthorID, blog.Title, blog.Content,
		strings.Join(blog.Tags, ","), blog.Published, blog.CreatedAt, blog.UpdatedAt)
	if err != nil {
		return fmt.Errorf("can't save blog: %w", err)
	}

	return nil
}

func (that *blogRepository) GetByID(ctx context.Context, id string) (*entity.Blog, error) {
	query := `SELECT ` + blogColumns + ` FROM blogs WHERE id = ?`

	blog, err := scanBlog(that.conn.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	return blog, nil
}

func (that *blogRepository) ListByAuthor(ctx context.Context, authorID string) ([]*entity.Blog, error) {
	query := `SELECT ` + blogColumns + ` FROM blogs WHERE author_id = ? ORDER BY created_at DESC`

	rows, err := that.conn.QueryContext(ctx, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("can't list blogs: %w", err)
	}
	defer rows.Close()

	return collectBlogs(rows)
}

func (that *blogRepository) ListPublished(ctx context.Context, page, limit int) ([]*entity.Blog, int, error) {
	var total int
	if err := that.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM blogs WHERE published = 1`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("can't count blogs: %w", err)
	}

	query := `SELECT ` + blogColumns + ` FROM blogs WHERE published = 1 ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := that.conn.QueryContext(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("can't list blogs: %w", err)
	}
	defer rows.Close()

	blogs, err := collectBlogs(rows)
	if err != nil {
		return nil, 0, err
	}

	return blogs, total, nil
}

func (that *blogRepository) Update(ctx context.Context, blog *entity.Blog) error {
	query := `UPDATE blogs SET title = ?, content = ?, tags = ?, published = ?, updated_at = ?
		WHERE id = ? AND author_id = ?`

	result, err := that.conn.ExecContext(ctx, query,
		blog.Title, blog.Content, strings.Join(blog.Tags, ","), blog.Published, blog.UpdatedAt,
		blog.ID, blog.AuthorID)
	if err != nil {
		return fmt.Errorf("can't update blog: %w", err)
	}

	return requireAffected(result)
}

func (that *blogRepository) Delete(ctx context.Context, id, authorID string) error {
	result, err := that.conn.ExecContext(ctx, `DELETE FROM blogs WHERE id = ? AND author_id = ?`, id, authorID)
	if err != nil {
		return fmt.Errorf("can't delete blog: %w", err)
	}

	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't read affected rows: %w", err)
	}
	if affected == 0 {
		return apperror.ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlog(row rowScanner) (*entity.Blog, error) {
	var blog entity.Blog
	var tags string

	err := row.Scan(&blog.ID, &blog.AuthorID, &blog.Title, &blog.Content,
		&tags, &blog.Published, &blog.CreatedAt, &blog.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't scan blog: %w", err)
	}

	if tags != "" {
		blog.Tags = strings.Split(tags, ",")
	}

	return &blog, nil
}

func collectBlogs(rows *sql.Rows) ([]*entity.Blog, error) {
	var blogs []*entity.Blog

	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, blog)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("can't iterate blogs: %w", err)
	}

	return blogs, nil
}
