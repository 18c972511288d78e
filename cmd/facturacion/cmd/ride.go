package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/barcode"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/config"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/ride"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/store"
)

var (
	rideClaveAcceso string
	rideHTMLOut     string
)

var rideCmd = &cobra.Command{
	Use:   "ride",
	Short: "Render the printable representation of a stored document",
	Long: `Build the RIDE of an authorized document from the database.

Prints the structural document as JSON; --html additionally writes the
HTML rendition used for PDF printing.

Examples:
  facturacion ride --config config.yaml \
      --clave-acceso 1807202601179001234500110010010000001231234567815

  facturacion ride --config config.yaml --clave-acceso <key> --html ride.html`,
	RunE: runRide,
}

func init() {
	rootCmd.AddCommand(rideCmd)

	rideCmd.Flags().StringVar(&rideClaveAcceso, "clave-acceso", "", "Access key of the document (49 digits)")
	rideCmd.Flags().StringVar(&rideHTMLOut, "html", "", "Write the HTML rendition to this file")
	rideCmd.MarkFlagRequired("clave-acceso")
}

func runRide(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := store.OpenSQLite(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	doc, err := db.FindByClaveAcceso(cmd.Context(), rideClaveAcceso)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("document not found")
	}
	if !doc.Estado.IsAuthorized() {
		return fmt.Errorf("document is not authorized (estado %s)", doc.Estado)
	}

	rideDoc, err := ride.FromStoredResponse(doc.JSONRespuesta)
	if err != nil {
		return err
	}

	printable, err := ride.Render(rideDoc, barcode.NewCode128Encoder())
	if err != nil {
		return err
	}

	if rideHTMLOut != "" {
		html, err := ride.HTML(printable)
		if err != nil {
			return err
		}
		if err := os.WriteFile(rideHTMLOut, []byte(html), 0o644); err != nil {
			return err
		}
	}

	encoded, err := json.MarshalIndent(printable, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
