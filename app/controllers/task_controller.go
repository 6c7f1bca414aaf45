package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"tasktree/app/models"
	"tasktree/app/services"
)

// TaskController handles HTTP requests for tasks.
type TaskController struct {
	Service  *services.TaskService
	PageSize int
	Logger   *log.Logger
}

// NewTaskController creates a new TaskController.
func NewTaskController(service *services.TaskService, pageSize int, logger *log.Logger) *TaskController {
	if pageSize < 1 {
		pageSize = 20
	}
	if logger == nil {
		logger = log.Default()
	}
	return &TaskController{Service: service, PageSize: pageSize, Logger: logger}
}

type createTaskRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
}

type renameTaskRequest struct {
	Name *string `json:"name"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type statsResponse struct {
	InProgress int                `json:"inProgress"`
	Roots      services.RootStats `json:"roots"`
	TotalPages int                `json:"totalPages"`
}

// GetTasks handles GET /tasks.
//
// Without a page parameter it returns every task matching status (root
// tasks only when root=true). With page it returns a Page of root tasks.
func (c *TaskController) GetTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := models.ParseStatusFilter(q.Get("status"))
	if err != nil {
		c.writeError(w, http.StatusBadRequest, err)
		return
	}

	if q.Get("page") == "" {
		rootOnly := q.Get("root") == "true"
		c.writeJSON(w, http.StatusOK, c.Service.Query(filter, rootOnly))
		return
	}

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		c.writeError(w, http.StatusBadRequest, errors.New("page must be a positive integer"))
		return
	}
	pageSize := c.PageSize
	if raw := q.Get("pageSize"); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil || pageSize < 1 {
			c.writeError(w, http.StatusBadRequest, errors.New("pageSize must be a positive integer"))
			return
		}
	}
	c.writeJSON(w, http.StatusOK, c.Service.ListRoots(filter, page, pageSize))
}

// CreateTask handles POST /tasks.
func (c *TaskController) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeError(w, http.StatusBadRequest, errors.New("invalid request payload"))
		return
	}

	task, err := c.Service.CreateTask(r.Context(), req.Name, req.ParentID)
	if err != nil {
		c.writeServiceError(w, err)
		return
	}
	c.writeJSON(w, http.StatusCreated, task)
}

// GetTaskByID handles GET /tasks/{taskID}.
func (c *TaskController) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	task, err := c.Service.GetTask(mux.Vars(r)["taskID"])
	if err != nil {
		c.writeServiceError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, task)
}

// GetChildren handles GET /tasks/{taskID}/children.
func (c *TaskController) GetChildren(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]
	if _, err := c.Service.GetTask(taskID); err != nil {
		c.writeServiceError(w, err)
		return
	}
	filter, err := models.ParseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		c.writeError(w, http.StatusBadRequest, err)
		return
	}
	c.writeJSON(w, http.StatusOK, c.Service.Children(taskID, filter))
}

// RenameTask handles PUT /tasks/{taskID}.
func (c *TaskController) RenameTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]
	var req renameTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == nil {
		c.writeError(w, http.StatusBadRequest, errors.New("invalid request payload"))
		return
	}

	if err := c.Service.RenameTask(r.Context(), taskID, *req.Name); err != nil {
		c.writeServiceError(w, err)
		return
	}
	c.writeTask(w, taskID)
}

// ToggleStatus handles POST /tasks/{taskID}/status.
func (c *TaskController) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]
	if err := c.Service.ToggleStatus(r.Context(), taskID); err != nil {
		c.writeServiceError(w, err)
		return
	}
	c.writeTask(w, taskID)
}

// ToggleExpanded handles POST /tasks/{taskID}/expanded.
func (c *TaskController) ToggleExpanded(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]
	if err := c.Service.ToggleExpanded(r.Context(), taskID); err != nil {
		c.writeServiceError(w, err)
		return
	}
	c.writeTask(w, taskID)
}

// DeleteTask handles DELETE /tasks/{taskID}.
func (c *TaskController) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if _, err := c.Service.DeleteTask(r.Context(), mux.Vars(r)["taskID"]); err != nil {
		c.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStats handles GET /stats.
func (c *TaskController) GetStats(w http.ResponseWriter, r *http.Request) {
	roots := c.Service.RootStats()
	c.writeJSON(w, http.StatusOK, statsResponse{
		InProgress: c.Service.CountInProgress(),
		Roots:      roots,
		TotalPages: services.TotalPages(roots.Total, c.PageSize),
	})
}

func (c *TaskController) writeTask(w http.ResponseWriter, taskID string) {
	task, err := c.Service.GetTask(taskID)
	if err != nil {
		c.writeServiceError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, task)
}

func (c *TaskController) writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrEmptyName):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrTaskNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrCircularDependency), errors.Is(err, services.ErrChildrenIncomplete):
		status = http.StatusConflict
	case errors.Is(err, services.ErrParentNotFound):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		c.Logger.Error("request failed", "err", err)
	}
	c.writeError(w, status, err)
}

func (c *TaskController) writeError(w http.ResponseWriter, status int, err error) {
	c.writeJSON(w, status, errorResponse{Error: err.Error(), Kind: services.ErrorKind(err)})
}

func (c *TaskController) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		c.Logger.Warn("failed to encode response", "err", err)
	}
}
