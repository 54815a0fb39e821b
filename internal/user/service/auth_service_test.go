package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"prepboard/internal/common/db"
	"prepboard/internal/testutil"
	"prepboard/internal/user/repository"
	pkgerrors "prepboard/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]repository.User
	byEmail map[string]int64
	failOn  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[int64]repository.User{}, byEmail: map[string]int64{}}
}

func (f *fakeUserRepo) Create(_ context.Context, _ db.Transaction, user *repository.User) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != nil {
		return 0, f.failOn
	}
	if _, ok := f.byEmail[user.Email]; ok {
		return 0, repository.ErrEmailExists
	}
	f.nextID++
	stored := *user
	stored.ID = f.nextID
	f.byID[stored.ID] = stored
	f.byEmail[stored.Email] = stored.ID
	return stored.ID, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, _ db.Transaction, id int64) (*repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, _ db.Transaction, email string) (*repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	user := f.byID[id]
	return &user, nil
}

func newTestAuthService(t *testing.T, users repository.UserRepository) *AuthService {
	t.Helper()
	redisCache, _ := testutil.NewRedis(t)
	return NewAuthService(nil, users, repository.NewLoginAttemptRepository(redisCache), AuthServiceConfig{
		JWTSecret:      []byte("test-secret"),
		LoginFailLimit: 3,
		BcryptCost:     bcrypt.MinCost,
	})
}

func TestRegisterIssuesUsableToken(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{Email: "  Ada@Example.com ", Password: "lovelace1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.User.Email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %q", result.User.Email)
	}
	if result.AccessToken == "" || !result.AccessExpiresAt.After(time.Now()) {
		t.Fatalf("unexpected token result: %+v", result)
	}

	userID, err := svc.Authenticate(ctx, result.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if userID != result.User.ID {
		t.Fatalf("expected user %d, got %d", result.User.ID, userID)
	}

	me, err := svc.Me(ctx, userID)
	if err != nil || me.Email != "ada@example.com" {
		t.Fatalf("unexpected me result: %+v (%v)", me, err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	tests := []struct {
		name     string
		email    string
		password string
		want     pkgerrors.ErrorCode
	}{
		{name: "empty email", email: "", password: "abc12345", want: pkgerrors.RequiredFieldEmpty},
		{name: "bad email", email: "not-an-email", password: "abc12345", want: pkgerrors.InvalidEmail},
		{name: "short password", email: "a@b.co", password: "ab1", want: pkgerrors.PasswordTooWeak},
		{name: "no digit", email: "a@b.co", password: "abcdefgh", want: pkgerrors.PasswordTooWeak},
		{name: "space in password", email: "a@b.co", password: "abc 12345", want: pkgerrors.InvalidPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), RegisterInput{Email: tt.email, Password: tt.password})
			if pkgerrors.GetCode(err) != tt.want {
				t.Fatalf("expected %d, got %v", tt.want, err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "a@b.co", Password: "abc12345"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, RegisterInput{Email: "A@B.co", Password: "abc12345"})
	if pkgerrors.GetCode(err) != pkgerrors.EmailAlreadyExists {
		t.Fatalf("expected EmailAlreadyExists, got %v", err)
	}
}

func TestRegisterStoreFailure(t *testing.T) {
	users := newFakeUserRepo()
	users.failOn = errors.New("disk full")
	svc := newTestAuthService(t, users)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.co", Password: "abc12345"})
	if pkgerrors.GetCode(err) != pkgerrors.DatabaseError {
		t.Fatalf("expected DatabaseError, got %v", err)
	}
}

func TestLoginLockout(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Email: "a@b.co", Password: "abc12345"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	for i := 0; i < 3; i++ {
		_, err := svc.Login(ctx, LoginInput{Email: "a@b.co", Password: "wrong1234", IP: "1.2.3.4"})
		if pkgerrors.GetCode(err) != pkgerrors.InvalidCredentials {
			t.Fatalf("attempt %d: expected InvalidCredentials, got %v", i+1, err)
		}
	}

	_, err := svc.Login(ctx, LoginInput{Email: "a@b.co", Password: "abc12345", IP: "1.2.3.4"})
	if pkgerrors.GetCode(err) != pkgerrors.TooManyRequests {
		t.Fatalf("expected lockout, got %v", err)
	}

	if _, err := svc.Login(ctx, LoginInput{Email: "a@b.co", Password: "abc12345", IP: "5.6.7.8"}); err != nil {
		t.Fatalf("other address should sign in: %v", err)
	}
}

func TestLoginSuccessClearsFailures(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Email: "a@b.co", Password: "abc12345"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	for round := 0; round < 3; round++ {
		for i := 0; i < 2; i++ {
			_, _ = svc.Login(ctx, LoginInput{Email: "a@b.co", Password: "wrong1234", IP: "ip"})
		}
		if _, err := svc.Login(ctx, LoginInput{Email: "a@b.co", Password: "abc12345", IP: "ip"}); err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	_, err := svc.Login(context.Background(), LoginInput{Email: "ghost@b.co", Password: "abc12345"})
	if pkgerrors.GetCode(err) != pkgerrors.InvalidCredentials {
		t.Fatalf("expected InvalidCredentials, got %v", err)
	}
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()
	result, err := svc.Register(ctx, RegisterInput{Email: "a@b.co", Password: "abc12345"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Authenticate(ctx, ""); pkgerrors.GetCode(err) != pkgerrors.Unauthorized {
		t.Fatalf("expected Unauthorized for empty token, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "garbage"); pkgerrors.GetCode(err) != pkgerrors.TokenInvalid {
		t.Fatalf("expected TokenInvalid, got %v", err)
	}

	other := NewAuthService(nil, newFakeUserRepo(), nil, AuthServiceConfig{JWTSecret: []byte("other")})
	if _, err := other.Authenticate(ctx, result.AccessToken); pkgerrors.GetCode(err) != pkgerrors.TokenInvalid {
		t.Fatalf("expected TokenInvalid for foreign secret, got %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	if _, err := svc.Authenticate(ctx, result.AccessToken); pkgerrors.GetCode(err) != pkgerrors.TokenExpired {
		t.Fatalf("expected TokenExpired, got %v", err)
	}
}

func TestAuthenticateRejectsWrongType(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	now := time.Now()
	claims := tokenClaims{
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    defaultJWTIssuer,
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), signed); pkgerrors.GetCode(err) != pkgerrors.TokenInvalid {
		t.Fatalf("expected TokenInvalid, got %v", err)
	}
}

func TestRegisterWithSQLite(t *testing.T) {
	database := testutil.NewSQLite(t)
	provider := db.NewStaticProvider(database)
	svc := NewAuthService(provider, repository.NewUserRepository(provider, nil), nil, AuthServiceConfig{
		JWTSecret:  []byte("s"),
		BcryptCost: bcrypt.MinCost,
	})
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "sql@b.co", Password: "abc12345"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, RegisterInput{Email: "sql@b.co", Password: "abc12345"})
	if pkgerrors.GetCode(err) != pkgerrors.EmailAlreadyExists {
		t.Fatalf("expected EmailAlreadyExists, got %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "SQL@b.co", Password: "abc12345"}); err != nil {
		t.Fatalf("login: %v", err)
	}
}
