package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gamehubio/gamehub-backend/internal/apperror"
	"github.com/gamehubio/gamehub-backend/internal/entity"
	"github.com/gamehubio/gamehub-backend/internal/service"
)

type authHandler struct {
	logger *slog.Logger
	users  service.UserService
}

func newAuthHandler(logger *slog.Logger, users service.UserService) *authHandler {
	return &authHandler{
		logger: logger.With("component", "authHandler"),
		users:  users,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
}

func (that *authHandler) Register(ctx echo.Context) error {
	log := that.logger.With("method", "Register")

	var req registerRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Username == "" || req.Email == "" || len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "username, email and a password of at least 8 characters are required")
	}

	user, err := that.users.Register(ctx.Request().Context(), req.Username, req.Email, req.Password)
	if errors.Is(err, apperror.ErrEmailTaken) || errors.Is(err, apperror.ErrUsernameTaken) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if err != nil {
		log.Error("failed to register user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return ctx.JSON(http.StatusCreated, user)
}

func (that *authHandler) Login(ctx echo.Context) error {
	log := that.logger.With("method", "Login")

	var req loginRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	token, user, err := that.users.Login(ctx.Request().Context(), req.Email, req.Password)
	if errors.Is(err, apperror.ErrBadCredential) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}
	if err != nil {
		log.Error("failed to login user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return ctx.JSON(http.StatusOK, loginResponse{Token: token, User: user})
}
