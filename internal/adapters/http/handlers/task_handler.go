package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"taskledger/internal/adapters/http/dto"
	"taskledger/internal/ports"
)

// TaskHandler handles HTTP requests for task operations, including state
// transitions and audit history.
type TaskHandler struct {
	svc     ports.TaskService
	history ports.HistoryService
}

// NewTaskHandler creates a new TaskHandler with the given service ports.
func NewTaskHandler(svc ports.TaskService, history ports.HistoryService) *TaskHandler {
	return &TaskHandler{svc: svc, history: history}
}

// ListProjectTasks handles GET /api/v1/projects/{projectId}/tasks.
func (h *TaskHandler) ListProjectTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	tasks, err := h.svc.ListByProject(r.Context(), actor, chi.URLParam(r, "projectId"))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTaskListResponse(tasks))
}

// CreateTask handles POST /api/v1/projects/{projectId}/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.svc.Create(r.Context(), actor, chi.URLParam(r, "projectId"), req.ToTaskCreate())
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToTaskResponse(created))
}

// GetTask handles GET /api/v1/tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	t, err := h.svc.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTaskResponse(t))
}

// UpdateTask handles PUT /api/v1/tasks/{id}. The submitted body wholly
// replaces the task's name, description, and assignee list.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.svc.Update(r.Context(), actor, chi.URLParam(r, "id"), req.ToTaskUpdate())
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTaskResponse(updated))
}

// CloseTask handles POST /api/v1/tasks/{id}/close.
func (h *TaskHandler) CloseTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	closed, err := h.svc.Close(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTaskResponse(closed))
}

// ReopenTask handles POST /api/v1/tasks/{id}/reopen.
func (h *TaskHandler) ReopenTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	reopened, err := h.svc.Reopen(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTaskResponse(reopened))
}

// TaskHistory handles GET /api/v1/tasks/{id}/history.
func (h *TaskHandler) TaskHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	entries, err := h.history.Task(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTaskHistoryResponse(entries))
}
