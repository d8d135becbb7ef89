package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/avetrov/todo-api/internal/apperror"
	"github.com/avetrov/todo-api/internal/models"
)

const todosCollection = "todos"

// MongoTodoRepository implements todo persistence against MongoDB.
// Every lookup and mutation is scoped by the creator id, so a caller
// can never reach another user's documents through this type.
type MongoTodoRepository struct {
	// Todos is the collection handle used for all todo queries.
	Todos *mongo.Collection
}

// NewMongoTodoRepository creates a MongoTodoRepository on the given
// database.
func NewMongoTodoRepository(database *mongo.Database) *MongoTodoRepository {
	return &MongoTodoRepository{Todos: database.Collection(todosCollection)}
}

// InsertTodo inserts a new todo and returns it with the stored id.
func (r *MongoTodoRepository) InsertTodo(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	res, err := r.Todos.InsertOne(ctx, todo)
	if err != nil {
		return nil, apperror.NewStoreError("failed to create todo", err)
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		todo.ID = id
	}
	return todo, nil
}

// FindTodosByCreator returns every todo owned by the given user.
// The result is never nil, so an empty list serializes as [].
func (r *MongoTodoRepository) FindTodosByCreator(ctx context.Context, creator primitive.ObjectID) ([]models.Todo, error) {
	cur, err := r.Todos.Find(ctx, bson.M{"creator": creator})
	if err != nil {
		return nil, apperror.NewStoreError("failed to list todos", err)
	}

	todos := []models.Todo{}
	if err := cur.All(ctx, &todos); err != nil {
		return nil, apperror.NewStoreError("failed to decode todos", err)
	}
	return todos, nil
}

// FindTodoByID fetches a single todo by id, scoped to its creator.
func (r *MongoTodoRepository) FindTodoByID(ctx context.Context, id, creator primitive.ObjectID) (*models.Todo, error) {
	var todo models.Todo
	err := r.Todos.FindOne(ctx, bson.M{"_id": id, "creator": creator}).Decode(&todo)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperror.NewNotFoundError("todo not found", err)
		}
		return nil, apperror.NewStoreError("failed to find todo", err)
	}
	return &todo, nil
}

// DeleteTodoByID removes a todo by id, scoped to its creator, and
// returns the removed document.
func (r *MongoTodoRepository) DeleteTodoByID(ctx context.Context, id, creator primitive.ObjectID) (*models.Todo, error) {
	var todo models.Todo
	err := r.Todos.FindOneAndDelete(ctx, bson.M{"_id": id, "creator": creator}).Decode(&todo)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperror.NewNotFoundError("todo not found", err)
		}
		return nil, apperror.NewStoreError("failed to delete todo", err)
	}
	return &todo, nil
}

// UpdateTodoByID applies the resolved update to a todo by id, scoped to
// its creator, and returns the document as stored after the update.
func (r *MongoTodoRepository) UpdateTodoByID(ctx context.Context, id, creator primitive.ObjectID, update models.TodoUpdate) (*models.Todo, error) {
	set := bson.M{
		"completed":   update.Completed,
		"completedAt": update.CompletedAt,
	}
	if update.Text != nil {
		set["text"] = *update.Text
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var todo models.Todo
	err := r.Todos.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "creator": creator},
		bson.M{"$set": set},
		opts,
	).Decode(&todo)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperror.NewNotFoundError("todo not found", err)
		}
		return nil, apperror.NewStoreError("failed to update todo", err)
	}
	return &todo, nil
}
