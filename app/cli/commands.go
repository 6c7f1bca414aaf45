package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tasktree/app/controllers"
	"tasktree/app/models"
	"tasktree/app/routes"
	"tasktree/app/services"
	"tasktree/app/tui"
)

func newAddCommand(a *app) *cobra.Command {
	var parent string
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a task, optionally under a parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var parentID *string
			if parent != "" {
				parentID = &parent
			}
			task, err := a.svc.CreateTask(cmd.Context(), args[0], parentID)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "New Task %q created: %s\n", task.Name, task.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "parent task id")
	return cmd
}

func newRenameCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return describe(a.svc.RenameTask(cmd.Context(), args[0], args[1]))
		},
	}
}

func newToggleCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Mark a task done (or undone); completes the parent when all siblings are done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.ToggleStatus(cmd.Context(), args[0]); err != nil {
				return describe(err)
			}
			task, err := a.svc.GetTask(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", task.ID, task.Status)
			return nil
		},
	}
}

func newExpandCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "expand ID",
		Short: "Show or hide a task's subtasks in listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return describe(a.svc.ToggleExpanded(cmd.Context(), args[0]))
		},
	}
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a single task; its subtasks are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := a.svc.DeleteTask(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %q deleted!\n", task.Name)
			return nil
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	var (
		status string
		page   int
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List root tasks a page at a time, with expanded subtasks nested",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := models.ParseStatusFilter(status)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			p := a.svc.ListRoots(filter, page, a.cfg.PageSize)
			for _, t := range p.Tasks {
				printTree(out, a.svc, t, filter, all, 0, map[string]bool{})
			}
			fmt.Fprintf(out, "page %d of %d\n", p.Page, p.TotalPages)
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "all", "filter: all, in_progress or complete")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "show subtasks of collapsed tasks too")
	return cmd
}

func printTree(w io.Writer, svc *services.TaskService, t models.Task, filter models.StatusFilter, all bool, depth int, visited map[string]bool) {
	if visited[t.ID] {
		return
	}
	visited[t.ID] = true

	fmt.Fprintf(w, "%s%s  %-11s  %s\n", strings.Repeat("  ", depth), t.ID, t.Status, t.Name)
	if !t.Expanded && !all {
		return
	}
	for _, child := range svc.Children(t.ID, filter) {
		printTree(w, svc, child, filter, all, depth+1, visited)
	}
}

func newStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			roots := a.svc.RootStats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "root tasks left: %d/%d\n", roots.InProgress, roots.Total)
			fmt.Fprintf(out, "in progress (all levels): %d\n", a.svc.CountInProgress())
			fmt.Fprintf(out, "pages: %d\n", services.TotalPages(roots.Total, a.cfg.PageSize))
			return nil
		},
	}
}

func newServeCommand(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			controller := controllers.NewTaskController(a.svc, a.cfg.PageSize, a.logger)
			server := &http.Server{
				Addr:              addr,
				Handler:           routes.NewRouter(controller, a.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("server is running", "addr", addr, "store", a.cfg.Store)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			a.logger.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func newTUICommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and edit tasks interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Start(cmd.Context(), a.svc, a.cfg.PageSize)
		},
	}
}
