package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"shopsy/internal/apperrors"
	"shopsy/internal/models"
)

const (
	DefaultProductLimit = 20
	MaxProductLimit     = 100
)

type ProductService struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewProductService(db *sql.DB, logger zerolog.Logger) *ProductService {
	return &ProductService{
		db:     db,
		logger: logger,
	}
}

type ProductFilter struct {
	Search string
	Limit  int
	Offset int
}

// List returns products whose name contains filter.Search, newest id last.
func (s *ProductService) List(ctx context.Context, filter ProductFilter) ([]*models.Product, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultProductLimit
	}
	if filter.Limit > MaxProductLimit {
		filter.Limit = MaxProductLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	query := "SELECT id, name, description, price, stock, created_at FROM products"
	var args []any
	if search := strings.TrimSpace(filter.Search); search != "" {
		query += " WHERE name LIKE ?"
		args = append(args, "%"+escapeLike(search)+"%")
	}
	query += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error().Err(err).Str("search", filter.Search).Msg("Error listing products")
		return nil, apperrors.Internal(fmt.Errorf("list products: %w", err))
	}
	defer rows.Close()

	products := make([]*models.Product, 0, filter.Limit)
	for rows.Next() {
		var p models.Product
		var description sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &description, &p.Price, &p.Stock, &p.CreatedAt); err != nil {
			return nil, apperrors.Internal(fmt.Errorf("scan product: %w", err))
		}
		p.Description = description.String
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("iterate products: %w", err))
	}
	return products, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
