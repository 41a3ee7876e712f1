package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/cretedrive/rental-booking-backend/internal/config"
	"github.com/cretedrive/rental-booking-backend/internal/models"
	"github.com/cretedrive/rental-booking-backend/pkg/jwt"
)

// AdminAuthService handles staff authentication business logic
type AdminAuthService struct {
	staffRepo  StaffUserStore
	jwtService *jwt.Service
	logger     *logrus.Logger
}

// NewAdminAuthService creates a new staff auth service
func NewAdminAuthService(staffRepo StaffUserStore, jwtService *jwt.Service, logger *logrus.Logger) *AdminAuthService {
	return &AdminAuthService{
		staffRepo:  staffRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

// Login authenticates a staff user and returns an access token
func (s *AdminAuthService) Login(ctx context.Context, email, password string) (*models.StaffLoginResponse, error) {
	user, err := s.staffRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, models.ErrStaffUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load staff user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	roles := []string{user.Role}
	if user.Role == models.StaffRoleAdmin {
		roles = append(roles, models.StaffRoleStaff)
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, roles)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	// Update last login; a failure doesn't fail the login
	if err := s.staffRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.WithError(err).WithField("staff_id", user.ID).Warn("Failed to update last login")
	}

	s.logger.WithFields(logrus.Fields{
		"staff_id": user.ID,
		"email":    user.Email,
	}).Info("Staff user logged in")

	return &models.StaffLoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.jwtService.AccessTokenExpiry().Seconds()),
		StaffUser:   user,
	}, nil
}

// GetProfile returns the staff user behind a token
func (s *AdminAuthService) GetProfile(ctx context.Context, staffID uuid.UUID) (*models.StaffUser, error) {
	return s.staffRepo.GetByID(ctx, staffID)
}

// EnsureBootstrapAdmin creates or refreshes the admin account from configuration
func (s *AdminAuthService) EnsureBootstrapAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if cfg.Email == "" || cfg.PasswordHash == "" {
		return nil
	}
	if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err)
	}

	user := &models.StaffUser{
		Email:        strings.ToLower(cfg.Email),
		PasswordHash: cfg.PasswordHash,
		FullName:     cfg.FullName,
		Role:         models.StaffRoleAdmin,
		IsActive:     true,
	}
	if err := s.staffRepo.Upsert(ctx, user); err != nil {
		return fmt.Errorf("failed to ensure bootstrap admin: %w", err)
	}

	s.logger.WithField("email", user.Email).Info("Bootstrap admin ensured")
	return nil
}

// MemoryStaffStore keeps staff users in memory for runs without postgres
type MemoryStaffStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*models.StaffUser
}

// NewMemoryStaffStore creates an empty in-memory staff store
func NewMemoryStaffStore() *MemoryStaffStore {
	return &MemoryStaffStore{users: make(map[uuid.UUID]*models.StaffUser)}
}

func (m *MemoryStaffStore) GetByEmail(_ context.Context, email string) (*models.StaffUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, models.ErrStaffUserNotFound
}

func (m *MemoryStaffStore) GetByID(_ context.Context, id uuid.UUID) (*models.StaffUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrStaffUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *MemoryStaffStore) Upsert(_ context.Context, user *models.StaffUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	for id, u := range m.users {
		if u.Email == user.Email {
			user.ID = id
			user.CreatedAt = u.CreatedAt
			user.UpdatedAt = now
			copied := *user
			m.users[id] = &copied
			return nil
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *MemoryStaffStore) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.ErrStaffUserNotFound
	}
	now := time.Now().UTC()
	u.LastLoginAt = &now
	return nil
}
