// Package cli wires configuration, storage and the task service into a
// cobra command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"tasktree/app/config"
	"tasktree/app/services"
	"tasktree/app/store"
)

type app struct {
	configPath string
	storeKind  string
	path       string
	logLevel   string

	cfg    config.Config
	logger *log.Logger
	store  store.Store
	svc    *services.TaskService
	stderr io.Writer
}

// NewRootCommand builds the tasktree command tree.
func NewRootCommand() *cobra.Command {
	root, _ := newRoot()
	return root
}

func newRoot() (*cobra.Command, *app) {
	a := &app{stderr: os.Stderr}

	root := &cobra.Command{
		Use:           "tasktree",
		Short:         "Hierarchical task list",
		Long:          "tasktree manages a list of tasks and subtasks. A parent completes once all of its subtasks are done.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ./tasktree.toml if present)")
	flags.StringVar(&a.storeKind, "store", "", "storage backend: file, sqlite, neo4j or memory")
	flags.StringVar(&a.path, "path", "", "snapshot file or database path")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newAddCommand(a),
		newRenameCommand(a),
		newToggleCommand(a),
		newExpandCommand(a),
		newDeleteCommand(a),
		newListCommand(a),
		newStatsCommand(a),
		newServeCommand(a),
		newTUICommand(a),
	)
	root.SetContext(context.Background())
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return a.close()
	}
	return root, a
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, args []string) error {
	root, a := newRoot()
	defer a.close()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.storeKind != "" {
		cfg.Store = a.storeKind
	}
	if a.path != "" {
		cfg.Path = a.path
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg, a.stderr)
	if err != nil {
		return err
	}

	st, err := config.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store, err)
	}

	svc := services.NewTaskService(st,
		services.WithLogger(logger),
		services.WithStrictCompletion(cfg.StrictCompletion),
	)
	if err := svc.Load(cmd.Context()); err != nil {
		st.Close()
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.store = st
	a.svc = svc
	logger.Debug("store opened", "kind", cfg.Store, "path", cfg.Path)
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	if err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

// describe turns task-rule failures into the wording shown to users.
func describe(err error) error {
	if err == nil || services.ErrorKind(err) == "" {
		return err
	}
	switch {
	case errors.Is(err, services.ErrEmptyName):
		return errors.New("task name cannot be empty")
	case errors.Is(err, services.ErrCircularDependency):
		return errors.New("cannot set this parent task as it creates a circular dependency")
	case errors.Is(err, services.ErrParentNotFound):
		return errors.New("selected parent task does not exist")
	}
	return err
}
