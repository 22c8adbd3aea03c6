package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tasks-server/internal/config"
	"tasks-server/internal/httpserver"
	"tasks-server/internal/logging"
	"tasks-server/internal/router"
	"tasks-server/internal/store"
	"tasks-server/internal/version"
)

const shutdownTimeout = 5 * time.Second

var (
	configPath  string
	listenAddr  string
	dbPath      string
	debug       bool
	showVersion bool
	noColor     bool
	cfg         *config.Config
)

// NewRootCmd creates the root command for tasks-server
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   version.AppName,
		Short: version.Description,
		Long: fmt.Sprintf(`%s - %s

Serves a task list over HTTP. Without a subcommand the server starts and runs
until it receives SIGINT or SIGTERM.
`, version.AppName, version.Description),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				cfg = config.LoadOrDefault(configPath)
			} else {
				cfg = config.LoadDefault()
				config.ApplyEnv(cfg)
			}

			// Flags win over the file and the environment
			if listenAddr != "" {
				cfg.Server.ListenAddr = listenAddr
			}
			if dbPath != "" {
				cfg.Store.SnapshotPath = dbPath
			}
			if noColor {
				color.NoColor = true
			}

			logging.InitGlobalLogger(debug, cfg)
			if debug {
				logging.Debug("Debug logging enabled")
			}
			if configPath != "" {
				logging.InfoWith("Loaded configuration", map[string]interface{}{"path": configPath})
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), version.GetVersionInfo())
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Specify configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&noColor, "no-color", "", false, "Disable color output")
	rootCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Address to listen on (overrides config)")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "Path of the JSON snapshot file (empty keeps data in memory)")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Display version information")

	rootCmd.AddCommand(newRoutesCmd())

	return rootCmd
}

func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the route table in match order",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.New()
			if err != nil {
				return err
			}
			printRoutes(cmd.OutOrStdout(), httpserver.NewServer(cfg, st).Routes())
			return nil
		},
	}
}

func printRoutes(w io.Writer, routes []router.Route) {
	for _, route := range routes {
		fmt.Fprintf(w, "%s %s\n", methodColor(route.Method)("%-7s", route.Method), route.Pattern)
	}
}

func methodColor(method string) func(format string, a ...interface{}) string {
	switch method {
	case "GET":
		return color.GreenString
	case "POST":
		return color.CyanString
	case "PUT":
		return color.YellowString
	case "PATCH":
		return color.MagentaString
	case "DELETE":
		return color.RedString
	default:
		return fmt.Sprintf
	}
}

// runServer opens the store, starts listening and serves until ctx is done
func runServer(ctx context.Context, cfg *config.Config) error {
	var opts []store.Option
	if cfg.Store.SnapshotPath != "" {
		opts = append(opts, store.WithSnapshot(cfg.Store.SnapshotPath))
		logging.InfoWith("Using snapshot file", map[string]interface{}{"path": cfg.Store.SnapshotPath})
	}

	st, err := store.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	server := httpserver.NewServer(cfg, st)

	ln, err := net.Listen("tcp", cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.ListenAddr, err)
	}

	return serveUntilDone(ctx, server, ln)
}

func serveUntilDone(ctx context.Context, server *httpserver.Server, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logging.Info("Received signal, shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return <-errc
}
