package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"shopsy/internal/models"
	"shopsy/internal/respond"
	"shopsy/internal/services"
)

type ProductLister interface {
	List(ctx context.Context, filter services.ProductFilter) ([]*models.Product, error)
}

type ProductHandler struct {
	products ProductLister
	logger   zerolog.Logger
}

func NewProductHandler(products ProductLister, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger,
	}
}

// List serves GET /products?search=&limit=&offset=. Invalid paging values
// fall back to the defaults.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.ProductFilter{Search: q.Get("search")}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
		filter.Limit = l
	}
	if o, err := strconv.Atoi(q.Get("offset")); err == nil && o >= 0 {
		filter.Offset = o
	}

	products, err := h.products.List(r.Context(), filter)
	if err != nil {
		respond.AppError(w, r, h.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"products": products,
		"count":    len(products),
	})
}
