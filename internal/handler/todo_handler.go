package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yanasan/todo-api/internal/model"
	"github.com/yanasan/todo-api/internal/service"
	"github.com/yanasan/todo-api/pkg/apierror"
)

type TodoHandler struct {
	service *service.TodoService
}

func NewTodoHandler(service *service.TodoService) *TodoHandler {
	return &TodoHandler{service: service}
}

func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	query, err := parseListQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	todos, err := h.service.List(r.Context(), user, query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.TodoListData{Items: todos}, &model.Meta{
		Skip:  query.Skip,
		Limit: query.Limit,
		Count: len(todos),
	})
}

func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	todoID, err := todoIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	todo, err := h.service.Get(r.Context(), user, todoID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, todo, nil)
}

func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.CreateTodoRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	todo, err := h.service.Create(r.Context(), user, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, todo, nil)
}

func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	todoID, err := todoIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.UpdateTodoRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	todo, err := h.service.Update(r.Context(), user, todoID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, todo, nil)
}

func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	todoID, err := todoIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), user, todoID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func todoIDParam(r *http.Request) (string, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "todo_id"))
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", apierror.BadRequest("invalid todo id", raw)
	}
	return parsed.String(), nil
}

func parseListQuery(r *http.Request) (model.ListTodosQuery, error) {
	query := model.ListTodosQuery{Skip: 0, Limit: model.DefaultTodoLimit}
	values := r.URL.Query()

	if raw := strings.TrimSpace(values.Get("skip")); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil {
			return query, apierror.BadRequest("skip must be an integer", raw)
		}
		query.Skip = skip
	}

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return query, apierror.BadRequest("limit must be an integer", raw)
		}
		query.Limit = limit
	}

	return query, nil
}
