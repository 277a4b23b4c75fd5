package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/toolgate-io/toolgate/internal/catalog"
	"github.com/toolgate-io/toolgate/internal/config"
	"github.com/toolgate-io/toolgate/internal/logger"
	"github.com/toolgate-io/toolgate/internal/metrics"
	"github.com/toolgate-io/toolgate/pkg/rpc"
	"github.com/toolgate-io/toolgate/pkg/server"
	"github.com/toolgate-io/toolgate/pkg/tool"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tool server",
	Long: `Start the JSON-RPC tool server in the foreground.
Tool backends are initialized at startup; a backend that fails to come up
does not prevent the server from starting, the affected tool reports the
problem on first invocation instead.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Local .env is a convenience for development, absence is not an error
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logg, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logg.Close()

	zl := logg.GetZerolog()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	registry, err := catalog.Build(cfg, zl)
	if err != nil {
		return fmt.Errorf("failed to build tool catalog: %w", err)
	}

	failed := tool.RunInitializers(cmd.Context(), registry.Initializers(), zl)
	if failed > 0 {
		zl.Warn().Int("failed", failed).Msg("Some tool initializers failed, affected tools will report errors on use")
		if m != nil {
			m.InitializerFailuresTotal.Add(float64(failed))
		}
	}
	if m != nil {
		m.ToolsRegistered.Set(float64(registry.Len()))
	}

	dispatcher := rpc.NewDispatcher(registry, m, zl)

	srv, err := server.New(server.Options{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		Name:        cfg.Server.Name,
		Description: cfg.Server.Description,
		Version:     version,
	}, registry, dispatcher, m, zl)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zl.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		return srv.Stop()
	case err := <-errCh:
		return err
	}
}
