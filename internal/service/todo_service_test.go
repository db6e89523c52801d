package service

import (
	"context"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanasan/todo-api/internal/model"
	"github.com/yanasan/todo-api/internal/repository"
)

func newTodoFixture(t *testing.T) (*TodoService, *testClock) {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewTodoService(repository.NewMemoryTodoRepository())
	svc.now = clock.Now
	return svc, clock
}

func ptr[T any](v T) *T {
	return &v
}

func TestTodoServiceCreateAndGet(t *testing.T) {
	t.Parallel()

	svc, _ := newTodoFixture(t)
	ctx := context.Background()
	owner := model.User{ID: uuid.NewString()}

	created, err := svc.Create(ctx, owner, model.CreateTodoRequest{Title: "  buy milk ", Description: ptr("2 litres")})
	require.NoError(t, err)
	assert.Equal(t, "buy milk", created.Title)
	assert.Equal(t, owner.ID, created.UserID)
	assert.False(t, created.Completed)

	found, err := svc.Get(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, found)

	_, err = svc.Create(ctx, owner, model.CreateTodoRequest{Title: "   "})
	var fieldErrs validation.Errors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs, "title")
}

func TestTodoServiceOwnershipScoping(t *testing.T) {
	t.Parallel()

	svc, _ := newTodoFixture(t)
	ctx := context.Background()
	alice := model.User{ID: uuid.NewString()}
	bob := model.User{ID: uuid.NewString()}

	todo, err := svc.Create(ctx, alice, model.CreateTodoRequest{Title: "alice only"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob, todo.ID)
	require.ErrorIs(t, err, model.ErrTodoNotFound)

	_, err = svc.Update(ctx, bob, todo.ID, model.UpdateTodoRequest{Completed: ptr(true)})
	require.ErrorIs(t, err, model.ErrTodoNotFound)

	require.ErrorIs(t, svc.Delete(ctx, bob, todo.ID), model.ErrTodoNotFound)

	listed, err := svc.List(ctx, bob, model.ListTodosQuery{Limit: model.DefaultTodoLimit})
	require.NoError(t, err)
	assert.Empty(t, listed)

	unchanged, err := svc.Get(ctx, alice, todo.ID)
	require.NoError(t, err)
	assert.False(t, unchanged.Completed)
}

func TestTodoServicePartialUpdate(t *testing.T) {
	t.Parallel()

	svc, clock := newTodoFixture(t)
	ctx := context.Background()
	owner := model.User{ID: uuid.NewString()}

	todo, err := svc.Create(ctx, owner, model.CreateTodoRequest{Title: "draft", Description: ptr("notes")})
	require.NoError(t, err)

	clock.Advance(time.Minute)
	updated, err := svc.Update(ctx, owner, todo.ID, model.UpdateTodoRequest{Completed: ptr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "draft", updated.Title)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "notes", *updated.Description)
	assert.Equal(t, todo.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(todo.UpdatedAt))

	renamed, err := svc.Update(ctx, owner, todo.ID, model.UpdateTodoRequest{Title: ptr(" final ")})
	require.NoError(t, err)
	assert.Equal(t, "final", renamed.Title)
	assert.True(t, renamed.Completed)

	_, err = svc.Update(ctx, owner, todo.ID, model.UpdateTodoRequest{Title: ptr("  ")})
	var fieldErrs validation.Errors
	require.ErrorAs(t, err, &fieldErrs)
}

func TestTodoServiceUpdateDescription(t *testing.T) {
	t.Parallel()

	svc, _ := newTodoFixture(t)
	ctx := context.Background()
	owner := model.User{ID: uuid.NewString()}

	todo, err := svc.Create(ctx, owner, model.CreateTodoRequest{Title: "draft", Description: ptr("notes")})
	require.NoError(t, err)

	kept, err := svc.Update(ctx, owner, todo.ID, model.UpdateTodoRequest{Title: ptr("renamed")})
	require.NoError(t, err)
	require.NotNil(t, kept.Description)
	assert.Equal(t, "notes", *kept.Description)

	replaced, err := svc.Update(ctx, owner, todo.ID, model.UpdateTodoRequest{Description: model.Some("new notes")})
	require.NoError(t, err)
	require.NotNil(t, replaced.Description)
	assert.Equal(t, "new notes", *replaced.Description)

	cleared, err := svc.Update(ctx, owner, todo.ID, model.UpdateTodoRequest{Description: model.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, cleared.Description)
	assert.Equal(t, "renamed", cleared.Title)

	stored, err := svc.Get(ctx, owner, todo.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Description)
}

func TestTodoServiceListAndDelete(t *testing.T) {
	t.Parallel()

	svc, clock := newTodoFixture(t)
	ctx := context.Background()
	owner := model.User{ID: uuid.NewString()}

	var ids []string
	for _, title := range []string{"first", "second", "third"} {
		todo, err := svc.Create(ctx, owner, model.CreateTodoRequest{Title: title})
		require.NoError(t, err)
		ids = append(ids, todo.ID)
		clock.Advance(time.Second)
	}

	page, err := svc.List(ctx, owner, model.ListTodosQuery{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "second", page[0].Title)

	require.NoError(t, svc.Delete(ctx, owner, ids[0]))
	_, err = svc.Get(ctx, owner, ids[0])
	require.ErrorIs(t, err, model.ErrTodoNotFound)
	require.ErrorIs(t, svc.Delete(ctx, owner, ids[0]), model.ErrTodoNotFound)

	all, err := svc.List(ctx, owner, model.ListTodosQuery{Limit: model.DefaultTodoLimit})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[0].Title)
	assert.Equal(t, "third", all[1].Title)

	for _, query := range []model.ListTodosQuery{
		{Skip: -1, Limit: 10},
		{Skip: 0, Limit: 0},
		{Skip: 0, Limit: model.MaxTodoLimit + 1},
	} {
		_, err := svc.List(ctx, owner, query)
		var fieldErrs validation.Errors
		require.ErrorAs(t, err, &fieldErrs, "%+v", query)
	}
}
