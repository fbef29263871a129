package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/learnforge/course-service/internal/models"
	"github.com/learnforge/course-service/internal/repositories"
	"github.com/learnforge/course-service/internal/validator"
)

// AuthConfig holds token signing settings
type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// AccessClaims is the JWT payload of an access token
type AccessClaims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

type authService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	config    AuthConfig
}

func NewAuthService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, config AuthConfig) AuthService {
	return &authService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*UserResponse, error) {
	s.logger.Info("Registering user", "email", req.Email)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exists, err := s.repo.User().ExistsByEmail(ctx, nil, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Every new account starts as a student; RoleTeacher and RoleAdmin
	// are granted through UpdateRoles by an admin.
	rolesJSON, err := json.Marshal([]models.UserRole{models.RoleStudent})
	if err != nil {
		return nil, fmt.Errorf("failed to encode roles: %w", err)
	}

	user := &models.User{
		ID:       uuid.New(),
		Email:    req.Email,
		Username: req.Name,
		Password: string(hash),
		Roles:    rolesJSON,
	}

	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "email", user.Email)
	return s.toUserResponse(user), nil
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*TokenPair, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", "user_id", user.ID, "email", user.Email)
	return pair, nil
}

func (s *authService) Refresh(ctx context.Context, req *RefreshRequest) (*TokenPair, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	email, err := s.repo.Token().Validate(ctx, req.RefreshToken)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to validate refresh token: %w", err)
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Rotate: the used refresh token is revoked before a new one is issued
	if err := s.repo.Token().Revoke(ctx, email, req.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, email, refreshToken string) error {
	if err := s.repo.Token().Revoke(ctx, email, refreshToken); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	s.logger.Info("User logged out", "email", email)
	return nil
}

func (s *authService) LogoutAll(ctx context.Context, email string) error {
	if err := s.repo.Token().RevokeAll(ctx, email); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	s.logger.Info("User logged out everywhere", "email", email)
	return nil
}

// UpdateRoles replaces a user's role set. Only admins may grant or
// revoke roles.
func (s *authService) UpdateRoles(ctx context.Context, actorID, targetID uuid.UUID, req *UpdateRolesRequest) (*UserResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	isAdmin, err := s.repo.User().HasRole(ctx, nil, actorID, models.RoleAdmin)
	if err != nil && !repositories.IsNotFoundError(err) && !repositories.IsNotActiveError(err) {
		return nil, fmt.Errorf("failed to check role: %w", err)
	}
	if !isAdmin {
		return nil, NewPermissionError(actorID.String(), "user", "update_roles", "admin role required")
	}

	user, err := s.repo.User().GetActive(ctx, nil, targetID)
	if err != nil {
		if repositories.IsNotFoundError(err) || repositories.IsNotActiveError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	roles := make([]models.UserRole, len(req.Roles))
	for i, r := range req.Roles {
		roles[i] = models.UserRole(r)
	}
	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return nil, fmt.Errorf("failed to encode roles: %w", err)
	}

	user.Roles = rolesJSON
	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to update roles: %w", err)
	}

	s.logger.Info("Roles updated", "user_id", targetID, "roles", req.Roles, "actor_id", actorID)
	return s.toUserResponse(user), nil
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every refresh token so stolen sessions die with the old
// password.
func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, req *ChangePasswordRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	user, err := s.repo.User().GetActive(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) || repositories.IsNotActiveError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.Password = string(hash)
	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.repo.Token().RevokeAll(ctx, user.Email); err != nil {
		s.logger.Warn("Failed to revoke sessions after password change",
			"user_id", userID, "error", err)
	}

	s.logger.Info("Password changed", "user_id", userID)
	return nil
}

func (s *authService) GetUser(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.User().GetActive(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) || repositories.IsNotActiveError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return s.toUserResponse(user), nil
}

func (s *authService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.AccessTokenTTL)

	roles := user.RoleList()
	roleStrings := make([]string, len(roles))
	for i, r := range roles {
		roleStrings[i] = string(r)
	}

	claims := AccessClaims{
		Email: user.Email,
		Roles: roleStrings,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := newOpaqueToken()
	if err != nil {
		return nil, err
	}

	if err := s.repo.Token().Store(ctx, user.Email, refreshToken, s.config.RefreshTokenTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
		User:         s.toUserResponse(user),
	}, nil
}

// ParseAccessToken validates a JWT and returns its claims. Used by the
// auth middleware.
func ParseAccessToken(tokenString, secret string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func newOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (s *authService) toUserResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Username,
		Roles:     user.RoleList(),
		CreatedAt: user.CreatedAt,
	}
}
