package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/yanasan/todo-api/internal/model"
)

// MemoryUserRepository keeps users in process memory. It backs the "memory"
// store driver used for local runs and tests.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: map[string]model.User{}}
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists || user.IsDeleted {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.findByEmailLocked(email)
	if !exists {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func (r *MemoryUserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.findByEmailLocked(email)
	return exists, nil
}

func (r *MemoryUserRepository) Create(_ context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.findByEmailLocked(user.Email); exists {
		return model.ErrEmailTaken
	}
	r.users[user.ID] = user
	return nil
}

func (r *MemoryUserRepository) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists || user.IsDeleted {
		return model.ErrUserNotFound
	}
	user.IsDeleted = true
	r.users[id] = user
	return nil
}

func (r *MemoryUserRepository) findByEmailLocked(email string) (model.User, bool) {
	key := strings.ToLower(strings.TrimSpace(email))
	for _, user := range r.users {
		if !user.IsDeleted && strings.ToLower(user.Email) == key {
			return user, true
		}
	}
	return model.User{}, false
}

type MemoryTodoRepository struct {
	mu    sync.RWMutex
	todos map[string]model.Todo
}

func NewMemoryTodoRepository() *MemoryTodoRepository {
	return &MemoryTodoRepository{todos: map[string]model.Todo{}}
}

func (r *MemoryTodoRepository) ListByOwner(_ context.Context, ownerID string, skip int, limit int) ([]model.Todo, error) {
	r.mu.RLock()
	owned := make([]model.Todo, 0)
	for _, todo := range r.todos {
		if todo.UserID == ownerID && !todo.IsDeleted {
			owned = append(owned, todo)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(owned, func(i, j int) bool {
		if owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].ID < owned[j].ID
		}
		return owned[i].CreatedAt.Before(owned[j].CreatedAt)
	})

	if skip >= len(owned) {
		return []model.Todo{}, nil
	}
	end := len(owned)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return owned[skip:end], nil
}

func (r *MemoryTodoRepository) FindByOwner(_ context.Context, id string, ownerID string) (model.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	todo, exists := r.todos[id]
	if !exists || todo.IsDeleted || todo.UserID != ownerID {
		return model.Todo{}, model.ErrTodoNotFound
	}
	return todo, nil
}

func (r *MemoryTodoRepository) Create(_ context.Context, todo model.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.todos[todo.ID] = todo
	return nil
}

func (r *MemoryTodoRepository) Update(_ context.Context, todo model.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.todos[todo.ID]
	if !exists || current.IsDeleted || current.UserID != todo.UserID {
		return model.ErrTodoNotFound
	}
	r.todos[todo.ID] = todo
	return nil
}

func (r *MemoryTodoRepository) SoftDelete(_ context.Context, id string, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	todo, exists := r.todos[id]
	if !exists || todo.IsDeleted || todo.UserID != ownerID {
		return model.ErrTodoNotFound
	}
	todo.IsDeleted = true
	r.todos[id] = todo
	return nil
}
