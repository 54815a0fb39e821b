package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"prepboard/internal/common/db"
	"prepboard/internal/user/repository"
	pkgerrors "prepboard/pkg/errors"
	"prepboard/pkg/utils/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultAccessTokenTTL = 24 * time.Hour
	defaultLoginFailTTL   = 15 * time.Minute
	defaultLoginFailLimit = 5
	defaultJWTIssuer      = "prepboard"
)

// AuthServiceConfig holds configuration for AuthService.
type AuthServiceConfig struct {
	JWTSecret      []byte
	JWTIssuer      string
	AccessTokenTTL time.Duration
	LoginFailTTL   time.Duration
	LoginFailLimit int
	BcryptCost     int
}

// AuthService handles sign-up, sign-in and access token checks.
type AuthService struct {
	dbProvider db.Provider
	users      repository.UserRepository
	attempts   repository.LoginAttemptRepository
	config     AuthServiceConfig
	now        func() time.Time
}

// NewAuthService creates a new AuthService. attempts may be nil, which
// disables the sign-in failure limit.
func NewAuthService(
	provider db.Provider,
	users repository.UserRepository,
	attempts repository.LoginAttemptRepository,
	cfg AuthServiceConfig,
) *AuthService {
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = defaultAccessTokenTTL
	}
	if cfg.LoginFailTTL <= 0 {
		cfg.LoginFailTTL = defaultLoginFailTTL
	}
	if cfg.LoginFailLimit <= 0 {
		cfg.LoginFailLimit = defaultLoginFailLimit
	}
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = defaultJWTIssuer
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	return &AuthService{
		dbProvider: provider,
		users:      users,
		attempts:   attempts,
		config:     cfg,
		now:        time.Now,
	}
}

// RegisterInput represents input for user registration.
type RegisterInput struct {
	Email    string
	Password string
}

// LoginInput represents input for user login.
type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// UserInfo represents basic user info for auth responses.
type UserInfo struct {
	ID        int64
	Email     string
	CreatedAt time.Time
}

// AuthResult represents the result of auth operations.
type AuthResult struct {
	AccessToken     string
	AccessExpiresAt time.Time
	User            UserInfo
}

// Register creates a new user and issues an access token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	email := normalizeEmail(input.Email)
	if err := validateEmail(email); err != nil {
		return AuthResult{}, err
	}
	if err := validatePassword(input.Password); err != nil {
		return AuthResult{}, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.config.BcryptCost)
	if err != nil {
		return AuthResult{}, pkgerrors.Wrap(fmt.Errorf("hash password failed: %w", err), pkgerrors.InternalServerError)
	}

	user := &repository.User{
		Email:        email,
		PasswordHash: string(passwordHash),
		CreatedAt:    s.now().UTC(),
	}
	err = s.withTransaction(ctx, func(tx db.Transaction) error {
		userID, createErr := s.users.Create(ctx, tx, user)
		if createErr != nil {
			return mapUserCreateError(createErr)
		}
		user.ID = userID
		return nil
	})
	if err != nil {
		return AuthResult{}, err
	}

	logger.Info(ctx, "user registered", zap.Int64("user_id", user.ID))
	return s.issueToken(user)
}

// Login verifies credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	email := normalizeEmail(input.Email)
	if err := validateEmail(email); err != nil {
		return AuthResult{}, err
	}
	if err := validateLoginPassword(input.Password); err != nil {
		return AuthResult{}, err
	}

	if err := s.checkLoginLimit(ctx, email, input.IP); err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.GetByEmail(ctx, nil, email)
	if err != nil {
		if stderrors.Is(err, repository.ErrUserNotFound) {
			s.recordLoginFailure(ctx, email, input.IP)
			return AuthResult{}, pkgerrors.New(pkgerrors.InvalidCredentials)
		}
		return AuthResult{}, pkgerrors.Wrap(fmt.Errorf("get user failed: %w", err), pkgerrors.DatabaseError)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.recordLoginFailure(ctx, email, input.IP)
		return AuthResult{}, pkgerrors.New(pkgerrors.InvalidCredentials)
	}

	s.clearLoginFailure(ctx, email, input.IP)
	return s.issueToken(user)
}

// Authenticate resolves an access token to its user id.
func (s *AuthService) Authenticate(ctx context.Context, token string) (int64, error) {
	if strings.TrimSpace(token) == "" {
		return 0, pkgerrors.New(pkgerrors.Unauthorized)
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return 0, err
	}
	return userIDFromClaims(claims)
}

// Me returns the account behind userID.
func (s *AuthService) Me(ctx context.Context, userID int64) (UserInfo, error) {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		if stderrors.Is(err, repository.ErrUserNotFound) {
			return UserInfo{}, pkgerrors.New(pkgerrors.UserNotFound)
		}
		return UserInfo{}, pkgerrors.Wrap(fmt.Errorf("get user failed: %w", err), pkgerrors.DatabaseError)
	}
	return toUserInfo(user), nil
}

func (s *AuthService) issueToken(user *repository.User) (AuthResult, error) {
	token, expiresAt, err := s.generateToken(user.ID, s.now())
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{
		AccessToken:     token,
		AccessExpiresAt: expiresAt,
		User:            toUserInfo(user),
	}, nil
}

func (s *AuthService) checkLoginLimit(ctx context.Context, email, ip string) error {
	if s.attempts == nil {
		return nil
	}
	failures, err := s.attempts.Failures(ctx, email, ip)
	if err != nil {
		// sign-in stays available when redis is down
		logger.Warn(ctx, "read login failures failed", zap.Error(err))
		return nil
	}
	if failures >= int64(s.config.LoginFailLimit) {
		return pkgerrors.New(pkgerrors.TooManyRequests).
			WithMessage("too many failed sign-in attempts").
			WithDetail("retry_after_seconds", int(s.config.LoginFailTTL.Seconds()))
	}
	return nil
}

func (s *AuthService) recordLoginFailure(ctx context.Context, email, ip string) {
	if s.attempts == nil {
		return
	}
	if _, err := s.attempts.RecordFailure(ctx, email, ip, s.config.LoginFailTTL); err != nil {
		logger.Warn(ctx, "record login failure failed", zap.Error(err))
	}
}

func (s *AuthService) clearLoginFailure(ctx context.Context, email, ip string) {
	if s.attempts == nil {
		return
	}
	if err := s.attempts.Clear(ctx, email, ip); err != nil {
		logger.Warn(ctx, "clear login failures failed", zap.Error(err))
	}
}

func (s *AuthService) withTransaction(ctx context.Context, fn func(tx db.Transaction) error) error {
	database, err := db.CurrentDatabase(s.dbProvider)
	if err != nil {
		return fn(nil)
	}
	if err := database.Transaction(ctx, fn); err != nil {
		var coded *pkgerrors.Error
		if stderrors.As(err, &coded) {
			return err
		}
		return pkgerrors.Wrap(fmt.Errorf("transaction failed: %w", err), pkgerrors.TransactionFailed)
	}
	return nil
}

func mapUserCreateError(err error) error {
	if stderrors.Is(err, repository.ErrEmailExists) {
		return pkgerrors.New(pkgerrors.EmailAlreadyExists)
	}
	return pkgerrors.Wrap(fmt.Errorf("create user failed: %w", err), pkgerrors.DatabaseError)
}

func toUserInfo(user *repository.User) UserInfo {
	return UserInfo{ID: user.ID, Email: user.Email, CreatedAt: user.CreatedAt}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
