package controller_test

import (
	"context"
	"net/http"
	"testing"

	"prepboard/internal/common/db"
	"prepboard/internal/common/http/middleware"
	"prepboard/internal/testutil"
	"prepboard/internal/user/controller"
	"prepboard/internal/user/repository"
	"prepboard/internal/user/service"
	pkgerrors "prepboard/pkg/errors"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database := testutil.NewSQLite(t)
	redisCache, _ := testutil.NewRedis(t)
	provider := db.NewStaticProvider(database)
	authService := service.NewAuthService(
		provider,
		repository.NewUserRepository(provider, redisCache),
		repository.NewLoginAttemptRepository(redisCache),
		service.AuthServiceConfig{JWTSecret: []byte("secret"), BcryptCost: bcrypt.MinCost, LoginFailLimit: 2},
	)
	authController := controller.NewAuthController(authService)

	router := gin.New()
	router.POST("/signup", authController.Register)
	router.POST("/signin", authController.Login)
	router.GET("/me", middleware.AuthMiddleware(authService), authController.Me)
	return router
}

func TestSignupSigninFlow(t *testing.T) {
	router := newAuthRouter(t)
	creds := map[string]string{"email": "ada@example.com", "password": "lovelace1"}

	rec, resp := testutil.PerformRequest(t, router, http.MethodPost, "/signup", creds, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected signup status %d (%s)", rec.Code, resp.Message)
	}
	var signup controller.AuthResponse
	testutil.MustUnmarshalJSON(t, resp.Data, &signup)
	if signup.AccessToken == "" || signup.User.ID <= 0 || signup.User.Email != "ada@example.com" {
		t.Fatalf("unexpected signup payload: %+v", signup)
	}

	rec, resp = testutil.PerformRequest(t, router, http.MethodPost, "/signup", creds, nil)
	if rec.Code != http.StatusConflict || resp.Code != int(pkgerrors.EmailAlreadyExists) {
		t.Fatalf("expected conflict, got %d %d", rec.Code, resp.Code)
	}

	rec, resp = testutil.PerformRequest(t, router, http.MethodPost, "/signin", creds, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected signin status %d", rec.Code)
	}
	var signin controller.AuthResponse
	testutil.MustUnmarshalJSON(t, resp.Data, &signin)

	rec, resp = testutil.PerformRequest(t, router, http.MethodGet, "/me", nil, map[string]string{
		"Authorization": "Bearer " + signin.AccessToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected me status %d", rec.Code)
	}
	var me controller.UserInfo
	testutil.MustUnmarshalJSON(t, resp.Data, &me)
	if me.ID != signup.User.ID {
		t.Fatalf("expected user %d, got %d", signup.User.ID, me.ID)
	}
}

func TestSigninErrors(t *testing.T) {
	router := newAuthRouter(t)
	if rec, _ := testutil.PerformRequest(t, router, http.MethodPost, "/signup",
		map[string]string{"email": "a@b.co", "password": "abc12345"}, nil); rec.Code != http.StatusCreated {
		t.Fatalf("signup failed: %d", rec.Code)
	}

	cases := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantCode   pkgerrors.ErrorCode
	}{
		{name: "malformed json", body: "{", wantStatus: http.StatusBadRequest, wantCode: pkgerrors.InvalidParams},
		{name: "missing password", body: map[string]string{"email": "a@b.co"}, wantStatus: http.StatusBadRequest, wantCode: pkgerrors.InvalidParams},
		{name: "wrong password", body: map[string]string{"email": "a@b.co", "password": "nope12345"}, wantStatus: http.StatusUnauthorized, wantCode: pkgerrors.InvalidCredentials},
		{name: "second wrong password", body: map[string]string{"email": "a@b.co", "password": "nope12345"}, wantStatus: http.StatusUnauthorized, wantCode: pkgerrors.InvalidCredentials},
		{name: "locked out", body: map[string]string{"email": "a@b.co", "password": "abc12345"}, wantStatus: http.StatusTooManyRequests, wantCode: pkgerrors.TooManyRequests},
	}
	for _, tc := range cases {
		rec, resp := testutil.PerformRequest(t, router, http.MethodPost, "/signin", tc.body, nil)
		if rec.Code != tc.wantStatus || resp.Code != int(tc.wantCode) {
			t.Fatalf("%s: got %d %d", tc.name, rec.Code, resp.Code)
		}
	}
}

type meOnly struct{}

func (meOnly) Register(context.Context, service.RegisterInput) (service.AuthResult, error) {
	return service.AuthResult{}, nil
}

func (meOnly) Login(context.Context, service.LoginInput) (service.AuthResult, error) {
	return service.AuthResult{}, nil
}

func (meOnly) Me(context.Context, int64) (service.UserInfo, error) {
	return service.UserInfo{}, pkgerrors.New(pkgerrors.UserNotFound)
}

func TestMeWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/me", controller.NewAuthController(meOnly{}).Me)

	rec, resp := testutil.PerformRequest(t, router, http.MethodGet, "/me", nil, nil)
	if rec.Code != http.StatusUnauthorized || resp.Code != int(pkgerrors.Unauthorized) {
		t.Fatalf("unexpected response %d %d", rec.Code, resp.Code)
	}
}
