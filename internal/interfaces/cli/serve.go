package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpiface "github.com/turtacn/FigureLens/internal/interfaces/http"
	"github.com/turtacn/FigureLens/internal/interfaces/http/handlers"
)

func newServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the recognition API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			log, err := buildLogger(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			healthChecks := []handlers.HealthChecker{
				handlers.CheckerFunc{
					CheckerName: "catalog",
					Fn: func(ctx context.Context) error {
						_, err := a.provider.Snapshot(ctx)
						return err
					},
				},
			}

			router := httpiface.NewRouter(httpiface.RouterConfig{
				RecognitionHandler: handlers.NewRecognitionHandler(a.orch, log),
				CatalogHandler:     handlers.NewCatalogHandler(a.provider, log),
				HealthHandler:      handlers.NewHealthHandler(log, healthChecks...),
				Logger:             log,
				Registry:           a.registry,
				Mode:               cfg.Server.Mode,
			})

			server := httpiface.NewServer(cfg.Server, router, log)

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				log.Info("Shutdown signal received")
				return server.Stop(context.Background())
			}
		},
	}
}
