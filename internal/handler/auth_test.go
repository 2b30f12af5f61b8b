package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"

	"github.com/authgate/authgate-go/internal/crypto"
	"github.com/authgate/authgate-go/internal/middleware"
	"github.com/authgate/authgate-go/internal/model"
	"github.com/authgate/authgate-go/internal/repository"
	"github.com/authgate/authgate-go/internal/service"
)

// memStore is an in-memory service.UserStore for handler tests.
type memStore struct {
	nextID int64
	users  map[int64]*model.User
}

func newMemStore() *memStore {
	return &memStore{nextID: 1, users: make(map[int64]*model.User)}
}

func (m *memStore) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email || u.Username == user.Username {
			return repository.ErrDuplicateUser
		}
	}
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.nextID++
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	codec, err := crypto.NewCodec("test-secret", "HS256", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	svc := service.NewAuthService(newMemStore(), crypto.BcryptHasher{Cost: 4}, codec)
	gate := middleware.RequestGate(codec, []string{"/auth", "/docs"})

	return NewRouter(NewAuthHandler(svc), NewUserHandler(svc), gate)
}

func registerTestUser(t *testing.T, router http.Handler) {
	t.Helper()
	apitest.Handler(router).
		Post("/auth/register").
		JSON(`{"username": "alice", "email": "a@x.com", "password": "secret123"}`).
		Expect(t).
		Status(http.StatusCreated).
		End()
}

// loginTestUser logs in and returns the issued bearer token.
func loginTestUser(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email": "a@x.com", "password": "secret123"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}

	var env struct {
		Error bool `json:"error"`
		Data  struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if env.Error || env.Data.AccessToken == "" {
		t.Fatalf("login envelope missing token: %+v", env)
	}
	if env.Data.TokenType != "bearer" {
		t.Fatalf("token_type = %q, want %q", env.Data.TokenType, "bearer")
	}
	return env.Data.AccessToken
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	apitest.Handler(router).
		Get("/").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal(`$.error`, false)).
		Assert(jsonpath.Equal(`$.message`, "welcome to authgate")).
		End()
}

func TestRegister(t *testing.T) {
	router := newTestRouter(t)

	apitest.Handler(router).
		Post("/auth/register").
		JSON(`{"username": "alice", "email": "a@x.com", "password": "secret123"}`).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Equal(`$.error`, false)).
		Assert(jsonpath.Equal(`$.data.username`, "alice")).
		Assert(jsonpath.Equal(`$.data.email`, "a@x.com")).
		Assert(jsonpath.NotPresent(`$.data.password_hash`)).
		Assert(jsonpath.NotPresent(`$.data.password`)).
		End()
}

func TestRegisterDuplicate(t *testing.T) {
	router := newTestRouter(t)
	registerTestUser(t, router)

	apitest.Handler(router).
		Post("/auth/register").
		JSON(`{"username": "alice2", "email": "a@x.com", "password": "other456"}`).
		Expect(t).
		Status(http.StatusConflict).
		Assert(jsonpath.Equal(`$.error`, true)).
		End()
}

func TestRegisterMalformedBody(t *testing.T) {
	router := newTestRouter(t)

	apitest.Handler(router).
		Post("/auth/register").
		Body(`{not json`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal(`$.error`, true)).
		End()
}

func TestRegisterMissingFields(t *testing.T) {
	router := newTestRouter(t)

	apitest.Handler(router).
		Post("/auth/register").
		JSON(`{"username": "alice", "email": "a@x.com"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal(`$.error`, true)).
		Assert(jsonpath.Equal(`$.message`, "password is required")).
		End()
}

func TestLogin(t *testing.T) {
	router := newTestRouter(t)
	registerTestUser(t, router)

	apitest.Handler(router).
		Post("/auth/login").
		JSON(`{"email": "a@x.com", "password": "secret123"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal(`$.error`, false)).
		Assert(jsonpath.Present(`$.data.access_token`)).
		Assert(jsonpath.Equal(`$.data.token_type`, "bearer")).
		End()
}

func TestLoginFormEncoded(t *testing.T) {
	router := newTestRouter(t)
	registerTestUser(t, router)

	apitest.Handler(router).
		Post("/auth/login").
		Header("Content-Type", "application/x-www-form-urlencoded").
		Body("email=a%40x.com&password=secret123").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Present(`$.data.access_token`)).
		Assert(jsonpath.Equal(`$.data.token_type`, "bearer")).
		End()
}

func TestLoginBadCredentials(t *testing.T) {
	router := newTestRouter(t)
	registerTestUser(t, router)

	apitest.Handler(router).
		Post("/auth/login").
		JSON(`{"email": "a@x.com", "password": "wrong"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal(`$.error`, true)).
		Assert(jsonpath.Equal(`$.message`, "invalid email or password")).
		End()

	apitest.Handler(router).
		Post("/auth/login").
		JSON(`{"email": "nobody@x.com", "password": "whatever"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal(`$.error`, true)).
		Assert(jsonpath.Equal(`$.message`, "invalid email or password")).
		End()
}

func TestMe(t *testing.T) {
	router := newTestRouter(t)
	registerTestUser(t, router)
	token := loginTestUser(t, router)

	apitest.Handler(router).
		Get("/users/me").
		Header("Authorization", "Bearer "+token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal(`$.error`, false)).
		Assert(jsonpath.Equal(`$.data.username`, "alice")).
		Assert(jsonpath.Equal(`$.data.email`, "a@x.com")).
		Assert(jsonpath.NotPresent(`$.data.exp`)).
		End()
}

func TestMeWithoutToken(t *testing.T) {
	router := newTestRouter(t)

	apitest.Handler(router).
		Get("/users/me").
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal(`$.error`, true)).
		End()
}

func TestMeWithGarbageToken(t *testing.T) {
	router := newTestRouter(t)

	apitest.Handler(router).
		Get("/users/me").
		Header("Authorization", "Bearer garbage").
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal(`$.error`, true)).
		Assert(jsonpath.Equal(`$.message`, "invalid or expired token")).
		End()
}

func TestGetUserByID(t *testing.T) {
	router := newTestRouter(t)
	registerTestUser(t, router)
	token := loginTestUser(t, router)

	apitest.Handler(router).
		Get("/users/1").
		Header("Authorization", "Bearer "+token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal(`$.error`, false)).
		Assert(jsonpath.Equal(`$.data.email`, "a@x.com")).
		Assert(jsonpath.NotPresent(`$.data.password_hash`)).
		End()

	apitest.Handler(router).
		Get("/users/9999").
		Header("Authorization", "Bearer "+token).
		Expect(t).
		Status(http.StatusNotFound).
		Assert(jsonpath.Equal(`$.error`, true)).
		End()

	apitest.Handler(router).
		Get("/users/abc").
		Header("Authorization", "Bearer "+token).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal(`$.error`, true)).
		End()
}
