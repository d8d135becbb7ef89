package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/avetrov/todo-api/internal/apperror"
	"github.com/avetrov/todo-api/internal/middleware"
	"github.com/avetrov/todo-api/internal/models"
)

// TodoService defines the todo operations required by the HTTP
// handlers. Raw ids from the URL are passed through unparsed; the
// service decides what counts as a well-formed identifier.
type TodoService interface {
	// Create stores a new todo owned by creator.
	Create(ctx context.Context, creator primitive.ObjectID, text string) (*models.Todo, error)
	// List returns every todo owned by creator.
	List(ctx context.Context, creator primitive.ObjectID) ([]models.Todo, error)
	// Get returns the owned todo with the given raw id.
	Get(ctx context.Context, creator primitive.ObjectID, rawID string) (*models.Todo, error)
	// Delete removes the owned todo and returns the removed document.
	Delete(ctx context.Context, creator primitive.ObjectID, rawID string) (*models.Todo, error)
	// Update applies a partial update and returns the updated document.
	Update(ctx context.Context, creator primitive.ObjectID, rawID string, patch models.TodoPatch) (*models.Todo, error)
}

// TodoHandler handles the todo CRUD endpoints. All of them require an
// authenticated user in the request context.
type TodoHandler struct {
	// TodoService performs the underlying todo operations.
	TodoService TodoService
}

// createTodoRequest represents the JSON payload for todo creation.
type createTodoRequest struct {
	Text string `json:"text"`
}

// todoResponse wraps a single todo for get, delete and update
// responses.
type todoResponse struct {
	Todo models.Todo `json:"todo"`
}

// Create handles POST /todos and responds with the created todo.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req createTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.NewValidationError("invalid request body", err))
		return
	}

	todo, err := h.TodoService.Create(r.Context(), user.ID, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

// List handles GET /todos and responds with the caller's todos.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	todos, err := h.TodoService.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

// Get handles GET /todos/{id}.
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	todo, err := h.TodoService.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todoResponse{Todo: *todo})
}

// Delete handles DELETE /todos/{id} and responds with the deleted todo.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	todo, err := h.TodoService.Delete(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todoResponse{Todo: *todo})
}

// Update handles PATCH /todos/{id}. The body is decoded into the
// field allow-list, so anything besides text and completed is dropped
// before it can reach the store.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var patch models.TodoPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, apperror.NewValidationError("invalid request body", err))
		return
	}

	todo, err := h.TodoService.Update(r.Context(), user.ID, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todoResponse{Todo: *todo})
}
