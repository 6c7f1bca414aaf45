package routes

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"tasktree/app/controllers"
)

// RegisterRoutes sets up all routes for the application.
func RegisterRoutes(router *mux.Router, taskController *controllers.TaskController) {
	router.HandleFunc("/tasks", taskController.GetTasks).Methods(http.MethodGet)
	router.HandleFunc("/tasks", taskController.CreateTask).Methods(http.MethodPost)
	router.HandleFunc("/tasks/{taskID}", taskController.GetTaskByID).Methods(http.MethodGet)
	router.HandleFunc("/tasks/{taskID}", taskController.RenameTask).Methods(http.MethodPut)
	router.HandleFunc("/tasks/{taskID}", taskController.DeleteTask).Methods(http.MethodDelete)
	router.HandleFunc("/tasks/{taskID}/children", taskController.GetChildren).Methods(http.MethodGet)
	router.HandleFunc("/tasks/{taskID}/status", taskController.ToggleStatus).Methods(http.MethodPost)
	router.HandleFunc("/tasks/{taskID}/expanded", taskController.ToggleExpanded).Methods(http.MethodPost)
	router.HandleFunc("/stats", taskController.GetStats).Methods(http.MethodGet)
}

// NewRouter returns a router with every task route and request logging.
func NewRouter(taskController *controllers.TaskController, logger *log.Logger) *mux.Router {
	router := mux.NewRouter()
	if logger != nil {
		router.Use(requestLogger(logger))
	}
	RegisterRoutes(router, taskController)
	return router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(logger *log.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}
