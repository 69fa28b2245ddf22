package rest

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/gamehubio/gamehub-backend/internal/apperror"
	"github.com/gamehubio/gamehub-backend/internal/service"
)

type blogHandler struct {
	logger *slog.Logger
	blogs  service.BlogService
}

func newBlogHandler(logger *slog.Logger, blogs service.BlogService) *blogHandler {
	return &blogHandler{
		logger: logger.With("component", "blogHandler"),
		blogs:  blogs,
	}
}

type blogRequest struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	Published bool     `json:"published"`
}

func (that *blogHandler) Create(ctx echo.Context) error {
	log := that.logger.With("method", "Create")

	var req blogRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Title == "" || req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and content are required")
	}

	blog, err := that.blogs.Create(ctx.Request().Context(), currentUserID(ctx), req.Title, req.Content, req.Tags, req.Published)
	if err != nil {
		log.Error("failed to create blog", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return ctx.JSON(http.StatusCreated, blog)
}

func (that *blogHandler) GetByID(ctx echo.Context) error {
	blog, err := that.blogs.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if errors.Is(err, apperror.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "blog not found")
	}
	if err != nil {
		that.logger.Error("failed to get blog", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return ctx.JSON(http.StatusOK, blog)
}

func (that *blogHandler) ListMine(ctx echo.Context) error {
	blogs, err := that.blogs.ListMine(ctx.Request().Context(), currentUserID(ctx))
	if err != nil {
		that.logger.Error("failed to list blogs", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return ctx.JSON(http.StatusOK, blogs)
}

func (that *blogHandler) ListPublished(ctx echo.Context) error {
	page, _ := strconv.Atoi(ctx.QueryParam("page"))
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))

	result, err := that.blogs.ListPublished(ctx.Request().Context(), page, limit)
	if err != nil {
		that.logger.Error("failed to list published blogs", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return ctx.JSON(http.StatusOK, result)
}

func (that *blogHandler) Update(ctx echo.Context) error {
	var req blogRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Title == "" || req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and content are required")
	}

	blog, err := that.blogs.Update(ctx.Request().Context(), ctx.Param("id"), currentUserID(ctx), req.Title, req.Content, req.Tags, req.Published)
	if errors.Is(err, apperror.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "blog not found")
	}
	if err != nil {
		that.logger.Error("failed to update blog", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return ctx.JSON(http.StatusOK, blog)
}

func (that *blogHandler) Delete(ctx echo.Context) error {
	err := that.blogs.Delete(ctx.Request().Context(), ctx.Param("id"), currentUserID(ctx))
	if errors.Is(err, apperror.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "blog not found")
	}
	if err != nil {
		that.logger.Error("failed to delete blog", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return ctx.NoContent(http.StatusNoContent)
}
