package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"shopsy/internal/middleware"
	"shopsy/internal/models"
	"shopsy/internal/respond"
)

type StatsProvider interface {
	GetStats(ctx context.Context) (*models.Stats, error)
	Invalidate(ctx context.Context)
}

type AdminCreator interface {
	CreateAdmin(ctx context.Context, req *models.CreateAdminRequest, createdBy int) (*models.User, error)
}

// AdminHandler serves the admin-only routes. The router puts
// Authentication and RequireAdmin in front of every method.
type AdminHandler struct {
	stats  StatsProvider
	users  AdminCreator
	logger zerolog.Logger
}

func NewAdminHandler(stats StatsProvider, users AdminCreator, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		stats:  stats,
		users:  users,
		logger: logger,
	}
}

// Stats returns {users, products, orders, revenue}.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.GetStats(r.Context())
	if err != nil {
		respond.AppError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	respond.JSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	var req models.CreateAdminRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.AppError(w, r, h.logger, err)
		return
	}

	user, err := h.users.CreateAdmin(r.Context(), &req, adminID)
	if err != nil {
		respond.AppError(w, r, h.logger, err)
		return
	}
	h.stats.Invalidate(r.Context())

	respond.JSON(w, http.StatusCreated, map[string]any{
		"message": "Admin created successfully",
		"user":    user,
	})
}
