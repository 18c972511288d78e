package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"

	// Global flags
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "facturacion",
	Short: "Middleware for Ecuadorian SRI electronic invoicing",
	Long: `Facturacion is the middleware between billing systems and the SRI
authorization service.

It mints 49-digit claves de acceso, drives the document authorization
lifecycle, and produces the printable RIDE representation of authorized
documents.

Examples:
  # Start the HTTP API
  facturacion serve --config config.yaml

  # Mint an access key from the command line
  facturacion clave --ruc 1790012345001 --fecha 18/07/2026 \
      --estab 001 --pto-emi 001 --secuencial 123 --ambiente 1

  # Render the RIDE of a stored document
  facturacion ride --clave-acceso <49 digits>`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (env: FACTURACION_CONFIG)")

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if configPath == "" {
		configPath = os.Getenv("FACTURACION_CONFIG")
	}
}
