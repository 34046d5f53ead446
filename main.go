package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CrowderSoup/taskboard/board"
	"github.com/CrowderSoup/taskboard/database"
	"github.com/CrowderSoup/taskboard/handlers"
	"github.com/CrowderSoup/taskboard/services"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries what every subcommand shares.
type app struct {
	configFile string
	envFile    string
	cfg        *Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "taskboard",
		Short:         "Kanban task board with persisted state and live updates",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load environment variables from .env file
			if err := LoadEnv(a.envFile); err != nil {
				return fmt.Errorf("load %s: %w", a.envFile, err)
			}
			cfg, err := LoadConfig(a.configFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "environment file loaded before the config")

	rootCmd.AddCommand(a.serveCmd())
	rootCmd.AddCommand(a.listCmd())
	rootCmd.AddCommand(a.addCmd())
	rootCmd.AddCommand(a.toggleCmd())
	rootCmd.AddCommand(a.moveCmd())
	rootCmd.AddCommand(a.editCmd())
	rootCmd.AddCommand(a.rmCmd())
	rootCmd.AddCommand(a.purgeCmd())
	rootCmd.AddCommand(a.configCmd())

	return rootCmd
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Initialize store and board
	b, kv, err := a.openBoard(ctx)
	if err != nil {
		return err
	}
	defer kv.Close()

	// Initialize WebSocket hub and the loop that owns the board
	hub := services.NewHub()
	loop := services.NewLoop(b, hub, cfg.TickInterval)
	hub.SetRefresher(loop.Refresher())

	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(ctx) }()

	// The loop and hub must be gone before the store closes.
	stopWorkers := func() {
		cancel()
		<-loopDone
		<-hubDone
	}

	// Setup router
	r := mux.NewRouter()
	r.Use(handlers.Logging(nil))
	r.HandleFunc("/health", handlers.Health).Methods("GET")
	handlers.NewDataHandler(loop, hub).Routes(r)

	// Static file server for the frontend
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.StaticDir)))

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s (store %s)", cfg.Port, cfg.Store)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		stopWorkers()
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		log.Printf("Shutting down")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}

	stopWorkers()
	return nil
}

// openBoard opens the configured store and loads the board from it.
func (a *app) openBoard(ctx context.Context) (*board.Board, database.KVStore, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	kv, err := database.Open(ctx, a.cfg.StoreOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", a.cfg.Store, err)
	}

	store := database.NewTaskStore(kv, nil)
	b := board.New(store, board.WithLocation(loc))
	if err := b.Load(ctx); err != nil {
		// The repaired board is still usable; the next save retries.
		log.Printf("Error saving repaired tasks: %v", err)
	}
	return b, kv, nil
}
