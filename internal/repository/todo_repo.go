package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanasan/todo-api/internal/model"
)

const todoColumns = `id::text, title, description, completed, user_id::text, created_at, updated_at, is_deleted`

type TodoRepository struct {
	pool *pgxpool.Pool
}

func NewTodoRepository(pool *pgxpool.Pool) *TodoRepository {
	return &TodoRepository{pool: pool}
}

func (r *TodoRepository) ListByOwner(ctx context.Context, ownerID string, skip int, limit int) ([]model.Todo, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+todoColumns+`
		 FROM todos
		 WHERE user_id = $1::uuid AND is_deleted = false
		 ORDER BY created_at, id
		 OFFSET $2 LIMIT $3`, ownerID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]model.Todo, 0)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	return todos, rows.Err()
}

func (r *TodoRepository) FindByOwner(ctx context.Context, id string, ownerID string) (model.Todo, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Todo{}, model.ErrTodoNotFound
	}

	row := r.pool.QueryRow(ctx,
		`SELECT `+todoColumns+`
		 FROM todos
		 WHERE id = $1::uuid AND user_id = $2::uuid AND is_deleted = false`, id, ownerID)
	todo, err := scanTodo(row)
	if err != nil {
		return model.Todo{}, fmt.Errorf("find todo: %w", err)
	}
	return todo, nil
}

func (r *TodoRepository) Create(ctx context.Context, t model.Todo) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO todos (id, title, description, completed, user_id, created_at, updated_at)
		 VALUES ($1::uuid, $2, $3, $4, $5::uuid, $6, $7)`,
		t.ID, t.Title, t.Description, t.Completed, t.UserID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	return nil
}

func (r *TodoRepository) Update(ctx context.Context, t model.Todo) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE todos SET title = $3, description = $4, completed = $5, updated_at = $6
		 WHERE id = $1::uuid AND user_id = $2::uuid AND is_deleted = false`,
		t.ID, t.UserID, t.Title, t.Description, t.Completed, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTodoNotFound
	}
	return nil
}

func (r *TodoRepository) SoftDelete(ctx context.Context, id string, ownerID string) error {
	if _, err := uuid.Parse(id); err != nil {
		return model.ErrTodoNotFound
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE todos SET is_deleted = true, updated_at = now()
		 WHERE id = $1::uuid AND user_id = $2::uuid AND is_deleted = false`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTodoNotFound
	}
	return nil
}

func scanTodo(row pgx.Row) (model.Todo, error) {
	var t model.Todo
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.UserID, &t.CreatedAt, &t.UpdatedAt, &t.IsDeleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Todo{}, model.ErrTodoNotFound
	}
	if err != nil {
		return model.Todo{}, err
	}
	return t, nil
}
