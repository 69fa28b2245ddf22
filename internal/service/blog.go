package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gamehubio/gamehub-backend/internal/apperror"
	"github.com/gamehubio/gamehub-backend/internal/entity"
	"github.com/gamehubio/gamehub-backend/internal/pkg"
)

type blogRepo interface {
	Create(ctx context.Context, blog *entity.Blog) error
	GetByID(ctx context.Context, id string) (*entity.Blog, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*entity.Blog, error)
	ListPublished(ctx context.Context, page, limit int) ([]*entity.Blog, int, error)
	Update(ctx context.Context, blog *entity.Blog) error
	Delete(ctx context.Context, id, authorID string) error
}

// BlogPage is one page of published posts plus enough to paginate.
type BlogPage struct {
	Blogs []*entity.Blog `json:"blogs"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type BlogService interface {
	Create(ctx context.Context, authorID, title, content string, tags []string, published bool) (*entity.Blog, error)
	GetByID(ctx context.Context, id string) (*entity.Blog, error)
	ListMine(ctx context.Context, authorID string) ([]*entity.Blog, error)
	ListPublished(ctx context.Context, page, limit int) (*BlogPage, error)
	Update(ctx context.Context, id, authorID, title, content string, tags []string, published bool) (*entity.Blog, error)
	Delete(ctx context.Context, id, authorID string) error
}

const (
	defaultPageLimit = 10
	maxPageLimit     = 50
)

type blogService struct {
	logger *slog.Logger
	blogs  blogRepo
}

func NewBlogService(logger *slog.Logger, blogs blogRepo) BlogService {
	return &blogService{
		logger: logger.With("component", "blogService"),
		blogs:  blogs,
	}
}

func (that *blogService) Create(ctx context.Context, authorID, title, content string, tags []string, published bool) (*entity.Blog, error) {
	now := time.Now().UTC()

	blog := &entity.Blog{
		ID:        pkg.GenerateNewSessionID(),
		AuthorID:  authorID,
		Title:     title,
		Content:   content,
		Tags:      tags,
		Published: published,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := that.blogs.Create(ctx, blog); err != nil {
		return nil, fmt.Errorf("failed to create blog: %w", err)
	}

	that.logger.Info("blog created", "blogID", blog.ID, "authorID", authorID)

	return blog, nil
}

func (that *blogService) GetByID(ctx context.Context, id string) (*entity.Blog, error) {
	return that.blogs.GetByID(ctx, id)
}

func (that *blogService) ListMine(ctx context.Context, authorID string) ([]*entity.Blog, error) {
	return that.blogs.ListByAuthor(ctx, authorID)
}

func (that *blogService) ListPublished(ctx context.Context, page, limit int) (*BlogPage, error) {
	if page < 1 {
		page = 1
	}

	if limit < 1 {
		limit = defaultPageLimit
	} else if limit > maxPageLimit {
		limit = maxPageLimit
	}

	blogs, total, err := that.blogs.ListPublished(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}

	return &BlogPage{Blogs: blogs, Total: total, Page: page, Limit: limit}, nil
}

func (that *blogService) Update(ctx context.Context, id, authorID, title, content string, tags []string, published bool) (*entity.Blog, error) {
	blog, err := that.blogs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if blog.AuthorID != authorID {
		return nil, apperror.ErrNotFound
	}

	blog.Title = title
	blog.Content = content
	blog.Tags = tags
	blog.Published = published
	blog.UpdatedAt = time.Now().UTC()

	if err = that.blogs.Update(ctx, blog); err != nil {
		return nil, err
	}

	return blog, nil
}

func (that *blogService) Delete(ctx context.Context, id, authorID string) error {
	return that.blogs.Delete(ctx, id, authorID)
}
