package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"shopsy/internal/apperrors"
	"shopsy/internal/config"
	"shopsy/internal/models"
)

const mysqlDuplicateEntry = 1062

const selectUserColumns = "SELECT id, name, email, password_hash, role, created_at FROM users"

type UserService struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewUserService(db *sql.DB, logger zerolog.Logger) *UserService {
	return &UserService{
		db:     db,
		logger: logger,
	}
}

// Register creates a customer account. Public registration never grants admin.
func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	user, err := s.create(ctx, req.Name, req.Email, req.Password, models.RoleCustomer)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int("user_id", user.ID).Str("email", user.Email).Msg("User registered successfully")
	return user, nil
}

// CreateAdmin creates an admin account on behalf of an existing admin.
func (s *UserService) CreateAdmin(ctx context.Context, req *models.CreateAdminRequest, createdBy int) (*models.User, error) {
	user, err := s.create(ctx, req.Name, req.Email, req.Password, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int("user_id", user.ID).Int("created_by", createdBy).Msg("Admin account created")
	return user, nil
}

// EnsureAdmin seeds the configured admin when the users table has none.
// It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) (bool, error) {
	if cfg.Email == "" || cfg.Password == "" {
		return false, nil
	}

	var admins int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE role = ?", string(models.RoleAdmin)).Scan(&admins); err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	if admins > 0 {
		return false, nil
	}

	user, err := s.create(ctx, cfg.Name, cfg.Email, cfg.Password, models.RoleAdmin)
	if err != nil {
		return false, err
	}
	s.logger.Info().Int("user_id", user.ID).Str("email", user.Email).Msg("Bootstrap admin created")
	return true, nil
}

func (s *UserService) create(ctx context.Context, name, email, password string, role models.Role) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, apperrors.Validation("name, email and password are required")
	}

	var existingID int
	err := s.db.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?", email).Scan(&existingID)
	if err == nil {
		return nil, apperrors.Conflict("a user with this email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		s.logger.Error().Err(err).Msg("Error checking existing user")
		return nil, apperrors.Internal(fmt.Errorf("check existing user: %w", err))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error hashing password")
		return nil, apperrors.Internal(fmt.Errorf("hash password: %w", err))
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role) VALUES (?, ?, ?, ?)",
		name, email, string(hashedPassword), string(role),
	)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
			return nil, apperrors.Conflict("a user with this email already exists")
		}
		s.logger.Error().Err(err).Msg("Error creating user")
		return nil, apperrors.Internal(fmt.Errorf("insert user: %w", err))
	}

	userID, err := result.LastInsertId()
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("last insert id: %w", err))
	}

	return s.GetUserByID(ctx, int(userID))
}

func (s *UserService) Authenticate(ctx context.Context, req *models.LoginRequest) (*models.User, error) {
	email := models.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperrors.Validation("email and password are required")
	}

	user, err := s.scanUser(s.db.QueryRowContext(ctx, selectUserColumns+" WHERE email = ?", email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Error querying user")
		return nil, apperrors.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn().Str("email", email).Msg("Failed authentication attempt")
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	s.logger.Info().Int("user_id", user.ID).Msg("User authenticated successfully")
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.scanUser(s.db.QueryRowContext(ctx, selectUserColumns+" WHERE id = ?", userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user")
	}
	if err != nil {
		s.logger.Error().Err(err).Int("user_id", userID).Msg("Error fetching user")
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

func (s *UserService) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var role string
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &role, &user.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", user.ID, err)
	}
	user.Role = parsed
	return &user, nil
}
