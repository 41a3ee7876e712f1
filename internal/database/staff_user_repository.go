package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cretedrive/rental-booking-backend/internal/models"
)

const staffUserColumns = `id, email, password_hash, full_name, role, is_active, last_login_at, created_at, updated_at`

// StaffUserRepository handles staff user database operations
type StaffUserRepository struct {
	db *sqlx.DB
}

// NewStaffUserRepository creates a new staff user repository
func NewStaffUserRepository(db *sqlx.DB) *StaffUserRepository {
	return &StaffUserRepository{db: db}
}

// GetByEmail retrieves a staff user by email
func (r *StaffUserRepository) GetByEmail(ctx context.Context, email string) (*models.StaffUser, error) {
	query := `SELECT ` + staffUserColumns + ` FROM staff_users WHERE email = $1`

	var user models.StaffUser
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrStaffUserNotFound
		}
		return nil, fmt.Errorf("failed to get staff user: %w", err)
	}

	return &user, nil
}

// GetByID retrieves a staff user by ID
func (r *StaffUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StaffUser, error) {
	query := `SELECT ` + staffUserColumns + ` FROM staff_users WHERE id = $1`

	var user models.StaffUser
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrStaffUserNotFound
		}
		return nil, fmt.Errorf("failed to get staff user: %w", err)
	}

	return &user, nil
}

// Upsert creates a staff user or refreshes the password, name and role of an existing one
func (r *StaffUserRepository) Upsert(ctx context.Context, user *models.StaffUser) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	query := `
		INSERT INTO staff_users (id, email, password_hash, full_name, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE
		SET password_hash = EXCLUDED.password_hash,
		    full_name = EXCLUDED.full_name,
		    role = EXCLUDED.role,
		    is_active = EXCLUDED.is_active,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FullName, user.Role, user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert staff user: %w", err)
	}

	return nil
}

// UpdateLastLogin updates the last login timestamp
func (r *StaffUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE staff_users
		SET last_login_at = $1, updated_at = $1
		WHERE id = $2`

	if _, err := r.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}
