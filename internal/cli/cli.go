package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/internal/config"
	internal_http "github.com/wilbe-developer/wilbe-marketing-branch-sub004/internal/http"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/internal/log"
	internal_storage "github.com/wilbe-developer/wilbe-marketing-branch-sub004/internal/storage"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/autosave"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/interpreter"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/service"
)

// SetupCLI adds the sprint commands to rootCmd. Every command reads the
// --db persistent flag, falling back to the environment.
func SetupCLI(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().String("db", "", "Database connection string (optional if DB_URL or DB_* env vars are set)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sprint HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(cmd)
			if port, _ := cmd.Flags().GetString("port"); port != "" {
				cfg.Port = port
			}
			serve(cfg)
		},
	}
	serveCmd.Flags().String("port", "", "Port to listen on (defaults to PORT or 8080)")

	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Manage sprint task definitions",
	}

	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import tasks from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(cmd)
			store := initStore(cfg.DBConnStr)
			defer store.Close()
			importTasks(service.NewTaskService(store, log.GetLogger()), args[0])
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all sprint tasks",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(cmd)
			store := initStore(cfg.DBConnStr)
			defer store.Close()
			listTasks(service.NewTaskService(store, log.GetLogger()))
		},
	}
	taskCmd.AddCommand(importCmd, listCmd)

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Print the next view of a task for a user",
		Run: func(cmd *cobra.Command, args []string) {
			user, _ := cmd.Flags().GetString("user")
			taskID, _ := cmd.Flags().GetString("task")
			if user == "" || taskID == "" {
				fmt.Println("Error: --user and --task are required")
				os.Exit(1)
			}
			cfg := loadConfig(cmd)
			store := initStore(cfg.DBConnStr)
			defer store.Close()
			svc := service.NewSprintService(store, log.GetLogger(), service.SprintOptions{
				Router:       newRouter(cfg),
				SprintLength: cfg.SprintLength,
			})
			printView(svc, user, taskID)
		},
	}
	viewCmd.Flags().String("user", "", "Sprint owner")
	viewCmd.Flags().String("task", "", "Task id")

	rootCmd.AddCommand(serveCmd, taskCmd, viewCmd)
}

func serve(cfg config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := initStore(cfg.DBConnStr)
	defer store.Close()

	mgr := autosave.NewManager(ctx, autosave.Options{Wait: cfg.AutoSaveDebounce, Logger: log.GetLogger()})
	sprints := service.NewSprintService(store, log.GetLogger(), service.SprintOptions{
		Router:       newRouter(cfg),
		AutoSave:     mgr,
		SprintLength: cfg.SprintLength,
	})
	tasks := service.NewTaskService(store, log.GetLogger())

	err := internal_http.StartServer(ctx, cfg.Port, internal_http.NewHandler(sprints, tasks))
	// Pending edits are written before the store closes.
	mgr.Flush()
	mgr.Wait()
	mgr.Close()
	if err != nil {
		log.GetLogger().Errorf("Server failed: %v", err)
		os.Exit(1)
	}
}

func newRouter(cfg config.Config) *interpreter.Router {
	router := interpreter.NewRouter()
	for _, id := range cfg.UploadTasks {
		router.Register(id, interpreter.FileUploadRenderer())
	}
	return router
}

func importTasks(svc *service.TaskService, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.GetLogger().Errorf("Failed to read %s: %v", path, err)
		fmt.Fprintf(os.Stderr, "Error: failed to read %s: %v\n", path, err)
		os.Exit(1)
	}
	tasks, err := ParseTaskFile(data)
	if err != nil {
		log.GetLogger().Errorf("Failed to parse %s: %v", path, err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, task := range tasks {
		saved, err := svc.SaveTask(task)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to import task '%s': %v\n", task.ID, err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, "Imported task '%s' (%s)\n", saved.Title, saved.ID)
	}
}

func listTasks(svc *service.TaskService) {
	tasks, err := svc.ListTasks()
	if err != nil {
		log.GetLogger().Errorf("Failed to list tasks: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to list tasks: %v\n", err)
		os.Exit(1)
	}
	if len(tasks) == 0 {
		fmt.Fprintf(os.Stdout, "No tasks found.\n")
		return
	}
	fmt.Fprintf(os.Stdout, "Tasks:\n")
	for _, t := range tasks {
		shape := "none"
		if t.HasDefinition() {
			shape = "definition"
		}
		fmt.Fprintf(os.Stdout, "- ID: %s, Title: %s, Order: %d, Definition: %s\n", t.ID, t.Title, t.OrderIndex, shape)
	}
}

func printView(svc *service.SprintService, user, taskID string) {
	view, err := svc.LoadTaskView(context.Background(), user, user, taskID)
	if err != nil {
		log.GetLogger().Errorf("Failed to render task %s for %s: %v", taskID, user, err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	out, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stdout, string(out))
}

func loadConfig(cmd *cobra.Command) config.Config {
	cfg := config.Load()
	if dbConnStr, _ := cmd.Flags().GetString("db"); dbConnStr != "" {
		cfg.DBConnStr = dbConnStr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	log.SetLevel(cfg.LogLevel)
	log.GetLogger().Debugf("Using port %s, auto-save debounce %s", cfg.Port, cfg.AutoSaveDebounce)
	return cfg
}

func initStore(dbConnStr string) *internal_storage.PostgresStore {
	store, err := internal_storage.InitStore(dbConnStr)
	if err != nil {
		log.GetLogger().Errorf("Failed to initialize store: %v", err)
		os.Exit(1)
	}
	return store
}
