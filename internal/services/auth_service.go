package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"gstbill/internal/caching"
	"gstbill/internal/common"
	"gstbill/internal/models"
	"gstbill/internal/repositories"
)

const (
	tokenIssuer   = "gstbill-auth"
	tokenAudience = "gstbill-api"
)

// AuthService handles accounts and JWT token management
type AuthService interface {
	// Accounts
	Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Me(ctx context.Context, actor models.Actor) (*models.User, error)
	CreateUser(ctx context.Context, actor models.Actor, req *CreateUserRequest) (*models.User, error)
	ListUsers(ctx context.Context, actor models.Actor, limit, offset int) ([]*models.User, error)
	ChangePassword(ctx context.Context, actor models.Actor, req *ChangePasswordRequest) error
	UpdateUserRole(ctx context.Context, actor models.Actor, userID uuid.UUID, role models.Role) (*models.User, error)
	DeleteUser(ctx context.Context, actor models.Actor, userID uuid.UUID) error

	// Issuer profile
	GetIssuer(ctx context.Context, actor models.Actor) (*models.Issuer, error)
	UpdateIssuer(ctx context.Context, actor models.Actor, req *UpdateIssuerRequest) (*models.Issuer, error)

	// Token management
	GenerateTokens(ctx context.Context, user *models.User) (*models.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
	RevokeRefreshToken(ctx context.Context, refreshToken string) error
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
}

// TokenClaims represents JWT claims
type TokenClaims struct {
	UserID   string      `json:"user_id"`
	IssuerID string      `json:"issuer_id"`
	Role     models.Role `json:"role"`
	TokenID  string      `json:"token_id"`
	jwt.RegisteredClaims
}

// Actor converts validated claims into the caller identity.
func (c *TokenClaims) Actor() (models.Actor, error) {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return models.Actor{}, fmt.Errorf("invalid user_id claim: %w", err)
	}
	issuerID, err := uuid.Parse(c.IssuerID)
	if err != nil {
		return models.Actor{}, fmt.Errorf("invalid issuer_id claim: %w", err)
	}
	switch c.Role {
	case models.RoleAdmin, models.RoleManager, models.RoleUser:
	default:
		return models.Actor{}, fmt.Errorf("invalid role claim %q", c.Role)
	}
	return models.Actor{UserID: userID, IssuerID: issuerID, Role: c.Role}, nil
}

type SignupRequest struct {
	CompanyName   string             `json:"company_name" validate:"required"`
	Address       string             `json:"address" validate:"required"`
	TaxID         string             `json:"tax_id" validate:"required,gstin"`
	ContactNumber string             `json:"contact_number" validate:"required,phone10"`
	BankDetails   models.BankDetails `json:"bank_details"`
	Name          string             `json:"name" validate:"required"`
	Email         string             `json:"email" validate:"required,email"`
	Password      string             `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateUserRequest struct {
	Name     string      `json:"name" validate:"required"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=8"`
	Role     models.Role `json:"role" validate:"required,oneof=admin manager user"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type UpdateUserRoleRequest struct {
	Role models.Role `json:"role" validate:"required,oneof=admin manager user"`
}

// UpdateIssuerRequest edits the issuer profile. The tax ID is fixed at signup.
type UpdateIssuerRequest struct {
	CompanyName   *string             `json:"company_name"`
	Address       *string             `json:"address"`
	ContactNumber *string             `json:"contact_number" validate:"omitempty,phone10"`
	BankDetails   *models.BankDetails `json:"bank_details"`
}

type AuthResponse struct {
	models.TokenResponse
	User *models.User `json:"user"`
}

type authService struct {
	users      repositories.UserRepository
	issuers    repositories.IssuerRepository
	cacheSvc   caching.CacheService
	jwtSecret  []byte
	tokenTTL   int // Access token TTL in seconds
	refreshTTL int // Refresh token TTL in seconds
	now        func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(users repositories.UserRepository, issuers repositories.IssuerRepository, cacheSvc caching.CacheService, jwtSecret string, tokenTTLSeconds, refreshTTLSeconds int) AuthService {
	return &authService{
		users:      users,
		issuers:    issuers,
		cacheSvc:   cacheSvc,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTLSeconds,
		refreshTTL: refreshTTLSeconds,
		now:        time.Now,
	}
}

// Signup registers a new issuer together with its first administrator.
func (s *authService) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.TaxID = strings.ToUpper(strings.TrimSpace(req.TaxID))
	if err := common.ValidateRequiredString(req.CompanyName, "company_name"); err != nil {
		return nil, err
	}
	if err := common.ValidateGSTIN(req.TaxID, "tax_id"); err != nil {
		return nil, err
	}
	if err := common.ValidatePhone(req.ContactNumber, "contact_number"); err != nil {
		return nil, err
	}
	if err := common.ValidateEmail(req.Email, "email"); err != nil {
		return nil, err
	}
	if len(req.Password) < 8 {
		return nil, common.NewValidationError("password", "must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	issuer := &models.Issuer{
		ID:            uuid.New(),
		CompanyName:   strings.TrimSpace(req.CompanyName),
		Address:       strings.TrimSpace(req.Address),
		TaxID:         req.TaxID,
		ContactNumber: req.ContactNumber,
		BankDetails:   req.BankDetails,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	admin := &models.User{
		ID:           uuid.New(),
		IssuerID:     issuer.ID,
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.issuers.CreateWithAdmin(ctx, issuer, admin); err != nil {
		return nil, err
	}

	tokens, err := s.GenerateTokens(ctx, admin)
	if err != nil {
		return nil, err
	}
	log.Info().Str("issuer_id", issuer.ID.String()).Msg("issuer registered")
	return &AuthResponse{TokenResponse: *tokens, User: admin}, nil
}

// Login verifies the bcrypt password. Unknown emails and wrong passwords are
// reported identically.
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		var notFound *common.NotFoundError
		if errors.As(err, &notFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, err
	}
	if user.PasswordHash == "" {
		return nil, common.ErrUnauthenticated
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, common.ErrUnauthenticated
	}

	tokens, err := s.GenerateTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{TokenResponse: *tokens, User: user}, nil
}

func (s *authService) Me(ctx context.Context, actor models.Actor) (*models.User, error) {
	return s.users.GetByID(ctx, actor.IssuerID, actor.UserID)
}

// CreateUser adds a member to the actor's issuer. Only admins may add users.
func (s *authService) CreateUser(ctx context.Context, actor models.Actor, req *CreateUserRequest) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, &common.AuthorizationError{Action: "create users"}
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return nil, err
	}
	if err := common.ValidateEmail(req.Email, "email"); err != nil {
		return nil, err
	}
	if len(req.Password) < 8 {
		return nil, common.NewValidationError("password", "must be at least 8 characters")
	}
	switch req.Role {
	case models.RoleAdmin, models.RoleManager, models.RoleUser:
	default:
		return nil, common.NewValidationError("role", "must be one of admin, manager, user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.New(),
		IssuerID:     actor.IssuerID,
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context, actor models.Actor, limit, offset int) ([]*models.User, error) {
	if actor.Role == models.RoleUser {
		return nil, &common.AuthorizationError{Action: "list users"}
	}
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return nil, err
	}
	return s.users.List(ctx, actor.IssuerID, limit, offset)
}

// ChangePassword replaces the caller's own password after checking the current one.
func (s *authService) ChangePassword(ctx context.Context, actor models.Actor, req *ChangePasswordRequest) error {
	if len(req.NewPassword) < 8 {
		return common.NewValidationError("new_password", "must be at least 8 characters")
	}
	user, err := s.users.GetByID(ctx, actor.IssuerID, actor.UserID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return common.NewValidationError("current_password", "is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, actor.IssuerID, actor.UserID, string(hash)); err != nil {
		return err
	}
	log.Info().Str("user_id", actor.UserID.String()).Msg("password changed")
	return nil
}

// UpdateUserRole changes another member's role. Admins cannot demote themselves.
func (s *authService) UpdateUserRole(ctx context.Context, actor models.Actor, userID uuid.UUID, role models.Role) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, &common.AuthorizationError{Action: "change user roles"}
	}
	switch role {
	case models.RoleAdmin, models.RoleManager, models.RoleUser:
	default:
		return nil, common.NewValidationError("role", "must be one of admin, manager, user")
	}
	if userID == actor.UserID {
		return nil, common.NewValidationError("id", "cannot change your own role")
	}

	user, err := s.users.GetByID(ctx, actor.IssuerID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateRole(ctx, actor.IssuerID, userID, role); err != nil {
		return nil, err
	}
	user.Role = role
	user.UpdatedAt = s.now()
	return user, nil
}

func (s *authService) DeleteUser(ctx context.Context, actor models.Actor, userID uuid.UUID) error {
	if !actor.IsAdmin() {
		return &common.AuthorizationError{Action: "delete users"}
	}
	if userID == actor.UserID {
		return common.NewValidationError("id", "cannot delete yourself")
	}
	if err := s.users.Delete(ctx, actor.IssuerID, userID); err != nil {
		return err
	}
	log.Info().Str("issuer_id", actor.IssuerID.String()).Str("user_id", userID.String()).Msg("user deleted")
	return nil
}

func (s *authService) GetIssuer(ctx context.Context, actor models.Actor) (*models.Issuer, error) {
	return s.issuers.GetByID(ctx, actor.IssuerID)
}

// UpdateIssuer edits the profile printed on documents and drops the issuer's cached views.
func (s *authService) UpdateIssuer(ctx context.Context, actor models.Actor, req *UpdateIssuerRequest) (*models.Issuer, error) {
	if !actor.IsAdmin() {
		return nil, &common.AuthorizationError{Action: "update issuer profile"}
	}
	issuer, err := s.issuers.GetByID(ctx, actor.IssuerID)
	if err != nil {
		return nil, err
	}

	if req.CompanyName != nil {
		if err := common.ValidateRequiredString(*req.CompanyName, "company_name"); err != nil {
			return nil, err
		}
		issuer.CompanyName = strings.TrimSpace(*req.CompanyName)
	}
	if req.Address != nil {
		if err := common.ValidateRequiredString(*req.Address, "address"); err != nil {
			return nil, err
		}
		issuer.Address = strings.TrimSpace(*req.Address)
	}
	if req.ContactNumber != nil {
		if err := common.ValidatePhone(*req.ContactNumber, "contact_number"); err != nil {
			return nil, err
		}
		issuer.ContactNumber = *req.ContactNumber
	}
	if req.BankDetails != nil {
		issuer.BankDetails = *req.BankDetails
	}

	if err := s.issuers.Update(ctx, issuer); err != nil {
		return nil, err
	}
	if err := s.cacheSvc.InvalidateIssuerCache(ctx, issuer.ID); err != nil {
		log.Warn().Err(err).Str("issuer_id", issuer.ID.String()).Msg("failed to invalidate issuer cache")
	}
	issuer.UpdatedAt = s.now()
	return issuer, nil
}

// GenerateTokens generates access and refresh tokens for a user
func (s *authService) GenerateTokens(ctx context.Context, user *models.User) (*models.TokenResponse, error) {
	now := s.now()
	tokenID := uuid.NewString()

	claims := TokenClaims{
		UserID:   user.ID.String(),
		IssuerID: user.IssuerID.String(),
		Role:     user.Role,
		TokenID:  tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.tokenTTL) * time.Second)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tokenID,
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessTokenString, err := accessToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}

	refreshToken, err := generateSecureToken()
	if err != nil {
		return nil, err
	}
	refreshTokenData := fmt.Sprintf("%s:%s:%d", user.ID, user.IssuerID, now.Unix()+int64(s.refreshTTL))
	if err := s.cacheSvc.SetString(ctx, refreshTokenKey(refreshToken), refreshTokenData, time.Duration(s.refreshTTL)*time.Second); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.TokenResponse{
		AccessToken:  accessTokenString,
		TokenType:    "Bearer",
		ExpiresIn:    s.tokenTTL,
		RefreshToken: refreshToken,
		UserID:       user.ID.String(),
		IssuerID:     user.IssuerID.String(),
		Role:         user.Role,
		TokenID:      tokenID,
		IssuedAt:     now,
	}, nil
}

// RefreshToken exchanges a refresh token for a new pair. The old refresh token is
// consumed, and the role is read again from the user record.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	key := refreshTokenKey(refreshToken)
	tokenData, err := s.cacheSvc.GetString(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh token: %w", err)
	}
	if tokenData == "" {
		return nil, common.ErrUnauthenticated
	}

	parts := strings.Split(tokenData, ":")
	if len(parts) != 3 {
		return nil, common.ErrUnauthenticated
	}
	expiry, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || s.now().Unix() > expiry {
		_ = s.cacheSvc.Delete(ctx, key)
		return nil, common.ErrUnauthenticated
	}
	userID, err := uuid.Parse(parts[0])
	if err != nil {
		return nil, common.ErrUnauthenticated
	}
	issuerID, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, common.ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, issuerID, userID)
	if err != nil {
		var notFound *common.NotFoundError
		if errors.As(err, &notFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, err
	}

	if err := s.cacheSvc.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Msg("failed to delete used refresh token")
	}
	return s.GenerateTokens(ctx, user)
}

func (s *authService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	return s.cacheSvc.Delete(ctx, refreshTokenKey(refreshToken))
}

// ValidateToken validates JWT access token
func (s *authService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	jwtToken, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithAudience(tokenAudience))
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	if claims, ok := jwtToken.Claims.(*TokenClaims); ok && jwtToken.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token claims")
}

// refreshTokenKey stores only the SHA-256 of a refresh token.
func refreshTokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "refresh_token:" + hex.EncodeToString(sum[:])
}

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}
