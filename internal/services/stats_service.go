package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"shopsy/internal/apperrors"
	"shopsy/internal/metrics"
	"shopsy/internal/models"
)

const (
	countUsersQuery    = "SELECT COUNT(*) FROM users"
	countProductsQuery = "SELECT COUNT(*) FROM products"
	countOrdersQuery   = "SELECT COUNT(*) FROM orders"
	revenueQuery       = "SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status = ?"
)

// StatsCache is an optional store for the last loaded snapshot.
type StatsCache interface {
	Get(ctx context.Context) (*models.Stats, bool, error)
	Set(ctx context.Context, stats *models.Stats) error
	Invalidate(ctx context.Context) error
}

// StatsService computes the admin dashboard figures.
//
// In snapshot mode the four reads share one read-only REPEATABLE READ
// transaction and always describe a single point in time. Otherwise each read
// runs on its own and concurrent writes may make the figures disagree slightly.
type StatsService struct {
	db         *sql.DB
	logger     zerolog.Logger
	snapshot   bool
	maxRetries uint64
	cache      StatsCache
	newBackOff func() backoff.BackOff
}

type StatsOption func(*StatsService)

func WithSnapshot(enabled bool) StatsOption {
	return func(s *StatsService) { s.snapshot = enabled }
}

func WithMaxRetries(n uint64) StatsOption {
	return func(s *StatsService) { s.maxRetries = n }
}

func WithStatsCache(c StatsCache) StatsOption {
	return func(s *StatsService) { s.cache = c }
}

func WithBackOff(fn func() backoff.BackOff) StatsOption {
	return func(s *StatsService) { s.newBackOff = fn }
}

func NewStatsService(db *sql.DB, logger zerolog.Logger, opts ...StatsOption) *StatsService {
	s := &StatsService{
		db:         db,
		logger:     logger,
		snapshot:   true,
		maxRetries: 3,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxInterval = time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *StatsService) GetStats(ctx context.Context) (*models.Stats, error) {
	if s.cache != nil {
		stats, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			metrics.StatsCacheTotal.WithLabelValues("error").Inc()
			s.logger.Warn().Err(err).Msg("Stats cache read failed, loading from database")
		case ok:
			metrics.StatsCacheTotal.WithLabelValues("hit").Inc()
			return stats, nil
		default:
			metrics.StatsCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	var stats *models.Stats
	attempts := 0
	op := func() error {
		attempts++
		loaded, err := s.load(ctx)
		if err != nil {
			if !isTransient(err) {
				return backoff.Permanent(err)
			}
			s.logger.Warn().Err(err).Int("attempt", attempts).Msg("Transient error loading stats")
			return err
		}
		stats = loaded
		return nil
	}
	notify := func(error, time.Duration) { metrics.StatsRetriesTotal.Inc() }

	policy := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.maxRetries), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		// Deadlines and cancellations are reported like any other
		// persistence failure; the log keeps them apart.
		timedOut := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
		s.logger.Error().Err(err).Int("attempts", attempts).Bool("timed_out", timedOut).Msg("Error loading dashboard stats")
		return nil, apperrors.Internal(err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, stats); err != nil {
			s.logger.Warn().Err(err).Msg("Stats cache write failed")
		}
	}
	return stats, nil
}

// Invalidate drops the cached snapshot after a write that changes the figures.
func (s *StatsService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Stats cache invalidation failed")
	}
}

func (s *StatsService) load(ctx context.Context) (*models.Stats, error) {
	mode := "independent"
	if s.snapshot {
		mode = "snapshot"
	}
	start := time.Now()
	defer func() {
		metrics.StatsLoadDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	}()

	if !s.snapshot {
		return readStats(ctx, s.db)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin stats snapshot: %w", err)
	}
	defer tx.Rollback()

	stats, err := readStats(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit stats snapshot: %w", err)
	}
	return stats, nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readStats(ctx context.Context, q rowQuerier) (*models.Stats, error) {
	var stats models.Stats

	if err := q.QueryRowContext(ctx, countUsersQuery).Scan(&stats.Users); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if err := q.QueryRowContext(ctx, countProductsQuery).Scan(&stats.Products); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	if err := q.QueryRowContext(ctx, countOrdersQuery).Scan(&stats.Orders); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	if err := q.QueryRowContext(ctx, revenueQuery, string(models.OrderStatusDelivered)).Scan(&stats.Revenue); err != nil {
		return nil, fmt.Errorf("sum delivered revenue: %w", err)
	}
	return &stats, nil
}

// isTransient reports whether a retry could succeed: broken connections,
// lock wait timeouts, deadlocks and connection exhaustion.
func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1040, 1205, 1213:
			return true
		}
	}
	return false
}
