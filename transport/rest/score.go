package rest

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gamehubio/gamehub-backend/internal/service"
)

type scoreHandler struct {
	logger *slog.Logger
	scores service.ScoreService
}

func newScoreHandler(logger *slog.Logger, scores service.ScoreService) *scoreHandler {
	return &scoreHandler{
		logger: logger.With("component", "scoreHandler"),
		scores: scores,
	}
}

type submitScoreRequest struct {
	Username string `json:"username"`
	Score    int64  `json:"score"`
}

func (that *scoreHandler) Submit(ctx echo.Context) error {
	log := that.logger.With("method", "Submit")

	var req submitScoreRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Username == "" || req.Score < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "username and a non-negative score are required")
	}

	if err := that.scores.Submit(ctx.Request().Context(), ctx.Param("game"), req.Username, req.Score); err != nil {
		log.Error("failed to submit score", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return ctx.NoContent(http.StatusNoContent)
}

func (that *scoreHandler) Best(ctx echo.Context) error {
	best, err := that.scores.Best(ctx.Request().Context(), ctx.Param("game"), ctx.Param("username"))
	if err != nil {
		that.logger.Error("failed to get best score", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return ctx.JSON(http.StatusOK, map[string]int64{"best": best})
}

func (that *scoreHandler) Leaderboard(ctx echo.Context) error {
	top, err := that.scores.Leaderboard(ctx.Request().Context(), ctx.Param("game"))
	if err != nil {
		that.logger.Error("failed to get leaderboard", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return ctx.JSON(http.StatusOK, top)
}
