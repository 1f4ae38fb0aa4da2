package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"shopsy/internal/middleware"
	"shopsy/internal/models"
	"shopsy/internal/respond"
)

type AccountService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Authenticate(ctx context.Context, req *models.LoginRequest) (*models.User, error)
	GetUserByID(ctx context.Context, userID int) (*models.User, error)
}

type TokenIssuer interface {
	GenerateToken(user *models.User) (string, error)
}

type AuthHandler struct {
	users  AccountService
	tokens TokenIssuer
	logger zerolog.Logger
}

func NewAuthHandler(users AccountService, tokens TokenIssuer, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.AppError(w, r, h.logger, err)
		return
	}

	user, err := h.users.Register(r.Context(), &req)
	if err != nil {
		respond.AppError(w, r, h.logger, err)
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.AppError(w, r, h.logger, err)
		return
	}

	user, err := h.users.Authenticate(r.Context(), &req)
	if err != nil {
		respond.AppError(w, r, h.logger, err)
		return
	}

	h.respondWithToken(w, r, http.StatusOK, user)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		respond.AppError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, code int, user *models.User) {
	token, err := h.tokens.GenerateToken(user)
	if err != nil {
		h.logger.Error().Err(err).Int("user_id", user.ID).Msg("Token generation failed")
		respond.Error(w, http.StatusInternalServerError, "token_generation_failed", "Failed to generate token")
		return
	}
	respond.JSON(w, code, models.AuthResponse{
		User:  user,
		Token: token,
	})
}
