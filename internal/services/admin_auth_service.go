package services

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/numtrip/numtrip-backend/internal/database"
	"github.com/numtrip/numtrip-backend/internal/models"
	"github.com/numtrip/numtrip-backend/pkg/jwt"
)

var (
	// ErrInvalidCredentials indicates a failed admin login
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountInactive indicates the admin account is disabled
	ErrAccountInactive = errors.New("account is inactive")
)

// AdminAuthService handles admin authentication
type AdminAuthService struct {
	adminRepo  *database.AdminUserRepository
	jwtService *jwt.Service
	bcryptCost int
}

// NewAdminAuthService creates a new admin auth service
func NewAdminAuthService(adminRepo *database.AdminUserRepository, jwtService *jwt.Service, bcryptCost int) *AdminAuthService {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AdminAuthService{
		adminRepo:  adminRepo,
		jwtService: jwtService,
		bcryptCost: bcryptCost,
	}
}

// AdminTokens holds the token pair issued on login
type AdminTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login authenticates an admin user and returns a token pair
func (s *AdminAuthService) Login(email, password string) (*models.AdminUser, *AdminTokens, error) {
	admin, err := s.adminRepo.GetByEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if admin == nil {
		return nil, nil, ErrInvalidCredentials
	}

	if !admin.Active {
		return nil, nil, ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwtService.GenerateAccessToken(admin.ID, admin.Email, []string{"admin"})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(admin.ID, admin.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.adminRepo.UpdateLastLogin(admin.ID); err != nil {
		return nil, nil, err
	}

	return admin, &AdminTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh validates a refresh token and issues a fresh token pair
func (s *AdminAuthService) Refresh(refreshToken string) (*AdminTokens, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	admin, err := s.adminRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if admin == nil || !admin.Active {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwtService.GenerateAccessToken(admin.ID, admin.Email, []string{"admin"})
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	newRefreshToken, err := s.jwtService.GenerateRefreshToken(admin.ID, admin.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AdminTokens{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// HashPassword hashes a password for admin account provisioning
func (s *AdminAuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
