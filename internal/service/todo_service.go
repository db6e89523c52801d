package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanasan/todo-api/internal/model"
)

// TodoStore persists todos. Every read and write is filtered by owner and
// skips soft-deleted rows; a todo owned by someone else reports
// model.ErrTodoNotFound.
type TodoStore interface {
	ListByOwner(ctx context.Context, ownerID string, skip int, limit int) ([]model.Todo, error)
	FindByOwner(ctx context.Context, id string, ownerID string) (model.Todo, error)
	Create(ctx context.Context, todo model.Todo) error
	Update(ctx context.Context, todo model.Todo) error
	SoftDelete(ctx context.Context, id string, ownerID string) error
}

type TodoService struct {
	todos TodoStore
	now   func() time.Time
}

func NewTodoService(todos TodoStore) *TodoService {
	return &TodoService{todos: todos, now: time.Now}
}

func (s *TodoService) List(ctx context.Context, owner model.User, query model.ListTodosQuery) ([]model.Todo, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return s.todos.ListByOwner(ctx, owner.ID, query.Skip, query.Limit)
}

func (s *TodoService) Get(ctx context.Context, owner model.User, id string) (model.Todo, error) {
	return s.todos.FindByOwner(ctx, id, owner.ID)
}

func (s *TodoService) Create(ctx context.Context, owner model.User, req model.CreateTodoRequest) (model.Todo, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := req.Validate(); err != nil {
		return model.Todo{}, err
	}

	now := s.now().UTC()
	todo := model.Todo{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		UserID:      owner.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.todos.Create(ctx, todo); err != nil {
		return model.Todo{}, err
	}

	return todo, nil
}

func (s *TodoService) Update(ctx context.Context, owner model.User, id string, req model.UpdateTodoRequest) (model.Todo, error) {
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		req.Title = &trimmed
	}
	if err := req.Validate(); err != nil {
		return model.Todo{}, err
	}

	todo, err := s.todos.FindByOwner(ctx, id, owner.ID)
	if err != nil {
		return model.Todo{}, err
	}

	if req.Title != nil {
		todo.Title = *req.Title
	}
	if req.Description.Set {
		todo.Description = req.Description.Value
	}
	if req.Completed != nil {
		todo.Completed = *req.Completed
	}
	todo.UpdatedAt = s.now().UTC()

	if err := s.todos.Update(ctx, todo); err != nil {
		return model.Todo{}, err
	}

	return todo, nil
}

func (s *TodoService) Delete(ctx context.Context, owner model.User, id string) error {
	return s.todos.SoftDelete(ctx, id, owner.ID)
}
