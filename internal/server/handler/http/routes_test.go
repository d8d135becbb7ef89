package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/avetrov/todo-api/internal/apperror"
	"github.com/avetrov/todo-api/internal/middleware"
	"github.com/avetrov/todo-api/internal/models"
	"github.com/avetrov/todo-api/internal/service"
	"github.com/avetrov/todo-api/internal/token"
)

// memUserRepo is an in-memory service.UserRepository used to exercise
// the full router with real services.
type memUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[primitive.ObjectID]*models.User{}}
}

func (r *memUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, apperror.NewConflictError("email already in use", nil)
		}
	}
	stored := *user
	r.users[user.ID] = &stored
	return user, nil
}

func (r *memUserRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFoundError("user not found", nil)
}

func (r *memUserRepo) FindUserByToken(ctx context.Context, id primitive.ObjectID, tok string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	for _, entry := range u.Tokens {
		if entry.Token == tok && entry.Access == models.AccessAuth {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFoundError("user not found", nil)
}

func (r *memUserRepo) AddToken(ctx context.Context, id primitive.ObjectID, entry models.TokenEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.Tokens = append(u.Tokens, entry)
	}
	return nil
}

func (r *memUserRepo) RemoveToken(ctx context.Context, id primitive.ObjectID, tok string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	kept := u.Tokens[:0]
	for _, entry := range u.Tokens {
		if entry.Token != tok {
			kept = append(kept, entry)
		}
	}
	u.Tokens = kept
	return nil
}

// memTodoRepo is an in-memory service.TodoRepository.
type memTodoRepo struct {
	mu    sync.Mutex
	todos map[primitive.ObjectID]*models.Todo
}

func newMemTodoRepo() *memTodoRepo {
	return &memTodoRepo{todos: map[primitive.ObjectID]*models.Todo{}}
}

func (r *memTodoRepo) InsertTodo(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	todo.ID = primitive.NewObjectID()
	stored := *todo
	r.todos[todo.ID] = &stored
	return todo, nil
}

func (r *memTodoRepo) FindTodosByCreator(ctx context.Context, creator primitive.ObjectID) ([]models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	todos := []models.Todo{}
	for _, todo := range r.todos {
		if todo.Creator == creator {
			todos = append(todos, *todo)
		}
	}
	return todos, nil
}

func (r *memTodoRepo) FindTodoByID(ctx context.Context, id, creator primitive.ObjectID) (*models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	todo, ok := r.todos[id]
	if !ok || todo.Creator != creator {
		return nil, apperror.NewNotFoundError("todo not found", nil)
	}
	copied := *todo
	return &copied, nil
}

func (r *memTodoRepo) DeleteTodoByID(ctx context.Context, id, creator primitive.ObjectID) (*models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	todo, ok := r.todos[id]
	if !ok || todo.Creator != creator {
		return nil, apperror.NewNotFoundError("todo not found", nil)
	}
	delete(r.todos, id)
	return todo, nil
}

func (r *memTodoRepo) UpdateTodoByID(ctx context.Context, id, creator primitive.ObjectID, update models.TodoUpdate) (*models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	todo, ok := r.todos[id]
	if !ok || todo.Creator != creator {
		return nil, apperror.NewNotFoundError("todo not found", nil)
	}
	if update.Text != nil {
		todo.Text = *update.Text
	}
	todo.Completed = update.Completed
	todo.CompletedAt = update.CompletedAt
	copied := *todo
	return &copied, nil
}

// newTestServer wires real services over in-memory repositories behind
// the production router.
func newTestServer() http.Handler {
	userRepo := newMemUserRepo()
	todoRepo := newMemTodoRepo()
	authService := service.NewAuthService(userRepo, token.New("routes-test-secret"))
	todoService := service.NewTodoService(todoRepo)

	return NewRouter(
		&AuthHandler{AuthService: authService},
		&TodoHandler{TodoService: todoService},
		authService,
		zap.NewNop(),
	)
}

func doJSON(t *testing.T, router http.Handler, method, path, body, authToken string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authToken != "" {
		req.Header.Set(middleware.AuthHeader, authToken)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_RegisterThenMe(t *testing.T) {
	router := newTestServer()

	rec := doJSON(t, router, "POST", "/users", `{"email":"a@b.com","password":"longenough1"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("register status = %d; want 200 (body %q)", rec.Code, rec.Body.String())
	}
	authToken := rec.Header().Get(middleware.AuthHeader)
	if authToken == "" {
		t.Fatal("register must return a token in the x-auth header")
	}

	var registered models.PublicUser
	if err := json.Unmarshal(rec.Body.Bytes(), &registered); err != nil {
		t.Fatalf("failed to decode register body: %v", err)
	}
	if registered.Email != "a@b.com" {
		t.Errorf("email = %q; want %q", registered.Email, "a@b.com")
	}

	rec = doJSON(t, router, "GET", "/users/me", "", authToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d; want 200", rec.Code)
	}
	var me models.PublicUser
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("failed to decode me body: %v", err)
	}
	if me.ID != registered.ID || me.Email != registered.Email {
		t.Errorf("me = %+v; want %+v", me, registered)
	}
}

func TestRouter_DuplicateEmail(t *testing.T) {
	router := newTestServer()

	rec := doJSON(t, router, "POST", "/users", `{"email":"a@b.com","password":"longenough1"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("first register status = %d; want 200", rec.Code)
	}
	rec = doJSON(t, router, "POST", "/users", `{"email":"a@b.com","password":"different1"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second register status = %d; want 400", rec.Code)
	}
}

func TestRouter_LogoutRevokesToken(t *testing.T) {
	router := newTestServer()

	rec := doJSON(t, router, "POST", "/users", `{"email":"a@b.com","password":"longenough1"}`, "")
	authToken := rec.Header().Get(middleware.AuthHeader)

	rec = doJSON(t, router, "DELETE", "/users/me/token", "", authToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d; want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("logout body = %q; want empty", rec.Body.String())
	}

	// The signature still verifies, but the token left the active list.
	rec = doJSON(t, router, "GET", "/users/me", "", authToken)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout status = %d; want 401", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("401 body = %q; want empty", rec.Body.String())
	}
}

func TestRouter_LoginIssuesFreshToken(t *testing.T) {
	router := newTestServer()

	rec := doJSON(t, router, "POST", "/users", `{"email":"a@b.com","password":"longenough1"}`, "")
	registerToken := rec.Header().Get(middleware.AuthHeader)

	rec = doJSON(t, router, "POST", "/users/login", `{"email":"a@b.com","password":"longenough1"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d; want 200", rec.Code)
	}
	loginToken := rec.Header().Get(middleware.AuthHeader)
	if loginToken == "" || loginToken == registerToken {
		t.Fatal("login must issue a fresh token")
	}

	// Both sessions are valid concurrently.
	for _, tok := range []string{registerToken, loginToken} {
		if rec := doJSON(t, router, "GET", "/users/me", "", tok); rec.Code != http.StatusOK {
			t.Errorf("me with token %q status = %d; want 200", tok, rec.Code)
		}
	}
}

func TestRouter_OwnershipScoping(t *testing.T) {
	router := newTestServer()

	rec := doJSON(t, router, "POST", "/users", `{"email":"alice@example.com","password":"longenough1"}`, "")
	aliceToken := rec.Header().Get(middleware.AuthHeader)
	rec = doJSON(t, router, "POST", "/users", `{"email":"bob@example.com","password":"longenough1"}`, "")
	bobToken := rec.Header().Get(middleware.AuthHeader)

	rec = doJSON(t, router, "POST", "/todos", `{"text":"buy milk"}`, aliceToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d; want 200", rec.Code)
	}
	var created models.Todo
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode create body: %v", err)
	}

	// Bob sees an empty list and cannot reach Alice's todo by id.
	rec = doJSON(t, router, "GET", "/todos", "", bobToken)
	var bobTodos []models.Todo
	if err := json.Unmarshal(rec.Body.Bytes(), &bobTodos); err != nil {
		t.Fatalf("failed to decode list body: %v", err)
	}
	if len(bobTodos) != 0 {
		t.Errorf("bob's list = %+v; want empty", bobTodos)
	}
	if rec := doJSON(t, router, "GET", "/todos/"+created.ID.Hex(), "", bobToken); rec.Code != http.StatusNotFound {
		t.Errorf("bob fetching alice's todo status = %d; want 404", rec.Code)
	}
	if rec := doJSON(t, router, "DELETE", "/todos/"+created.ID.Hex(), "", bobToken); rec.Code != http.StatusNotFound {
		t.Errorf("bob deleting alice's todo status = %d; want 404", rec.Code)
	}

	// Alice still can.
	if rec := doJSON(t, router, "GET", "/todos/"+created.ID.Hex(), "", aliceToken); rec.Code != http.StatusOK {
		t.Errorf("alice fetching her todo status = %d; want 200", rec.Code)
	}
}

func TestRouter_CompletionLifecycle(t *testing.T) {
	router := newTestServer()

	rec := doJSON(t, router, "POST", "/users", `{"email":"a@b.com","password":"longenough1"}`, "")
	authToken := rec.Header().Get(middleware.AuthHeader)

	rec = doJSON(t, router, "POST", "/todos", `{"text":"buy milk"}`, authToken)
	var created models.Todo
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Completed || created.CompletedAt != nil {
		t.Fatalf("created todo = %+v; want incomplete with nil completedAt", created)
	}

	rec = doJSON(t, router, "PATCH", "/todos/"+created.ID.Hex(), `{"completed":true}`, authToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d; want 200", rec.Code)
	}
	var completed todoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &completed); err != nil {
		t.Fatal(err)
	}
	if !completed.Todo.Completed || completed.Todo.CompletedAt == nil {
		t.Fatalf("completed todo = %+v; want completed with a timestamp", completed.Todo)
	}

	rec = doJSON(t, router, "PATCH", "/todos/"+created.ID.Hex(), `{"completed":false,"completedAt":12345}`, authToken)
	var cleared todoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &cleared); err != nil {
		t.Fatal(err)
	}
	if cleared.Todo.Completed || cleared.Todo.CompletedAt != nil {
		t.Fatalf("cleared todo = %+v; want incomplete with nil completedAt", cleared.Todo)
	}
}

func TestRouter_MalformedAndMissingIDs(t *testing.T) {
	router := newTestServer()

	rec := doJSON(t, router, "POST", "/users", `{"email":"a@b.com","password":"longenough1"}`, "")
	authToken := rec.Header().Get(middleware.AuthHeader)

	if rec := doJSON(t, router, "GET", "/todos/123", "", authToken); rec.Code != http.StatusNotFound {
		t.Errorf("malformed id status = %d; want 404", rec.Code)
	}
	missing := primitive.NewObjectID().Hex()
	if rec := doJSON(t, router, "GET", "/todos/"+missing, "", authToken); rec.Code != http.StatusNotFound {
		t.Errorf("missing id status = %d; want 404", rec.Code)
	}
	if rec := doJSON(t, router, "DELETE", "/todos/123", "", authToken); rec.Code != http.StatusNotFound {
		t.Errorf("malformed id delete status = %d; want 404", rec.Code)
	}
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	router := newTestServer()

	paths := []struct {
		method string
		path   string
	}{
		{"GET", "/users/me"},
		{"DELETE", "/users/me/token"},
		{"GET", "/todos"},
		{"GET", "/todos/507f1f77bcf86cd799439011"},
		{"DELETE", "/todos/507f1f77bcf86cd799439011"},
	}
	for _, p := range paths {
		rec := doJSON(t, router, p.method, p.path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d; want 401", p.method, p.path, rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("%s %s body = %q; want empty", p.method, p.path, rec.Body.String())
		}
	}
}

func TestRouter_RejectsNonJSONContentType(t *testing.T) {
	router := newTestServer()

	req := httptest.NewRequest("POST", "/users", bytes.NewBufferString("email=a@b.com"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d; want %d", rec.Code, http.StatusUnsupportedMediaType)
	}
}
