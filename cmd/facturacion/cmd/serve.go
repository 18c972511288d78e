package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/authority"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/config"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/lifecycle"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/mail"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/pdf"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/server"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/storage"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/store"
)

var serverDebug bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the middleware HTTP API.

The API provides endpoints for:
  - POST /api/company                      - Register issuing company
  - POST /api/factura/envio                - Submit or refresh a document
  - POST /api/factura/consulta-ride        - Printable representation
  - POST /api/factura/notificacion-correo  - Email delivery
  - GET  /health                           - Health check

Examples:
  # Start with a config file
  facturacion serve --config config.yaml

  # Start in debug mode
  facturacion serve --config config.yaml --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Logger)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := store.OpenSQLite(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	authorityClient := authority.NewClient(authority.Config{
		BaseURL: cfg.Authority.BaseURL,
		Timeout: cfg.Authority.Timeout,
	})

	renderer := pdf.NewRenderer(pdf.Config{
		Timeout:   cfg.PDF.Timeout,
		RemoteURL: cfg.PDF.RemoteURL,
		NoSandbox: cfg.PDF.NoSandbox,
		Logger:    logger,
	})
	defer renderer.Close()

	srv := server.NewServer(&server.Config{
		Address:      fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Debug:        serverDebug,
	}, server.Deps{
		Store:     db,
		Lifecycle: lifecycle.NewService(db, authorityClient),
		Uploader:  authorityClient,
		Files:     storage.NewFileStore(cfg.Storage.BaseDir, logger),
		Renderer:  renderer,
		Mailer:    mail.NewSender(logger),
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("authority", cfg.Authority.BaseURL))

	return srv.RunContext(ctx)
}

func buildLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zapCfg.Level = level
	}
	return zapCfg.Build()
}
