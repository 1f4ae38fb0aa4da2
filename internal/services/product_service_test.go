package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopsy/internal/apperrors"
)

var productColumns = []string{"id", "name", "description", "price", "stock", "created_at"}

func TestProductService_ListWithSearch(t *testing.T) {
	conn, mock := newMockDB(t)
	svc := NewProductService(conn, zerolog.New(io.Discard))

	mock.ExpectQuery("SELECT id, name, description, price, stock, created_at FROM products WHERE name LIKE ? ORDER BY id LIMIT ? OFFSET ?").
		WithArgs("%running shoes%", 20, 0).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(3, "Running Shoes", nil, "79.99", 12, time.Now()))

	products, err := svc.List(context.Background(), ProductFilter{Search: "  running shoes "})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Running Shoes", products[0].Name)
	assert.Empty(t, products[0].Description)
	assert.True(t, decimal.RequireFromString("79.99").Equal(products[0].Price))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductService_ListClampsPaging(t *testing.T) {
	conn, mock := newMockDB(t)
	svc := NewProductService(conn, zerolog.New(io.Discard))

	mock.ExpectQuery("SELECT id, name, description, price, stock, created_at FROM products ORDER BY id LIMIT ? OFFSET ?").
		WithArgs(MaxProductLimit, 0).
		WillReturnRows(sqlmock.NewRows(productColumns))

	products, err := svc.List(context.Background(), ProductFilter{Limit: 5000, Offset: -3})
	require.NoError(t, err)
	assert.Empty(t, products)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductService_ListError(t *testing.T) {
	conn, mock := newMockDB(t)
	svc := NewProductService(conn, zerolog.New(io.Discard))

	mock.ExpectQuery("SELECT id, name, description, price, stock, created_at FROM products ORDER BY id LIMIT ? OFFSET ?").
		WillReturnError(errors.New("connection reset by peer"))

	_, err := svc.List(context.Background(), ProductFilter{})
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off`, escapeLike("50% off"))
	assert.Equal(t, `snake\_case`, escapeLike("snake_case"))
	assert.Equal(t, `back\\slash`, escapeLike(`back\slash`))
}
