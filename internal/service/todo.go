package service

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/avetrov/todo-api/internal/apperror"
	"github.com/avetrov/todo-api/internal/models"
)

// TodoRepository defines the persistence operations required by the
// todo service. Every operation is scoped by the creator id.
type TodoRepository interface {
	// InsertTodo inserts a new todo and returns it with the stored id.
	InsertTodo(ctx context.Context, todo *models.Todo) (*models.Todo, error)
	// FindTodosByCreator returns every todo owned by the given user.
	FindTodosByCreator(ctx context.Context, creator primitive.ObjectID) ([]models.Todo, error)
	// FindTodoByID fetches a single owned todo by id.
	FindTodoByID(ctx context.Context, id, creator primitive.ObjectID) (*models.Todo, error)
	// DeleteTodoByID removes an owned todo and returns the removed
	// document.
	DeleteTodoByID(ctx context.Context, id, creator primitive.ObjectID) (*models.Todo, error)
	// UpdateTodoByID applies the update to an owned todo and returns
	// the document as stored afterwards.
	UpdateTodoByID(ctx context.Context, id, creator primitive.ObjectID, update models.TodoUpdate) (*models.Todo, error)
}

// TodoService implements todo CRUD with ownership scoping.
type TodoService struct {
	repo TodoRepository
}

// NewTodoService constructs a TodoService using the provided repository.
func NewTodoService(repo TodoRepository) *TodoService {
	return &TodoService{repo: repo}
}

// parseID converts a raw path identifier into an ObjectID. A malformed
// id is indistinguishable from a missing record for the caller: both
// are not-found.
func parseID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperror.NewNotFoundError("todo not found", err)
	}
	return id, nil
}

// Create validates the text and stores a new incomplete todo owned by
// creator.
func (s *TodoService) Create(ctx context.Context, creator primitive.ObjectID, text string) (*models.Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.NewValidationError("text is required", nil)
	}

	todo := &models.Todo{
		Text:      text,
		Completed: false,
		Creator:   creator,
	}
	return s.repo.InsertTodo(ctx, todo)
}

// List returns every todo owned by creator.
func (s *TodoService) List(ctx context.Context, creator primitive.ObjectID) ([]models.Todo, error) {
	return s.repo.FindTodosByCreator(ctx, creator)
}

// Get returns the owned todo with the given raw id.
func (s *TodoService) Get(ctx context.Context, creator primitive.ObjectID, rawID string) (*models.Todo, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindTodoByID(ctx, id, creator)
}

// Delete permanently removes the owned todo with the given raw id and
// returns the removed document.
func (s *TodoService) Delete(ctx context.Context, creator primitive.ObjectID, rawID string) (*models.Todo, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	return s.repo.DeleteTodoByID(ctx, id, creator)
}

// Update applies a partial update to the owned todo with the given raw
// id. Only the patch's text and completed fields are honored. Setting
// completed to true stamps completedAt with the current time; any other
// case forces completed=false and clears completedAt, regardless of
// what the caller sent.
func (s *TodoService) Update(ctx context.Context, creator primitive.ObjectID, rawID string, patch models.TodoPatch) (*models.Todo, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	update := models.TodoUpdate{}
	if patch.Text != nil {
		text := strings.TrimSpace(*patch.Text)
		if text == "" {
			return nil, apperror.NewValidationError("text is required", nil)
		}
		update.Text = &text
	}

	if patch.Completed != nil && *patch.Completed {
		update.Completed = true
		now := time.Now().UnixMilli()
		update.CompletedAt = &now
	} else {
		update.Completed = false
		update.CompletedAt = nil
	}

	return s.repo.UpdateTodoByID(ctx, id, creator, update)
}
