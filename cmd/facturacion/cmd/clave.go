package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/clave"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/model"
)

var (
	claveRUC         string
	claveFecha       string
	claveEstab       string
	clavePtoEmi      string
	claveSecuencial  string
	claveAmbiente    string
	claveTipoEmision string
	claveCodDoc      string
	claveValidate    string
)

var claveCmd = &cobra.Command{
	Use:   "clave",
	Short: "Mint or validate a clave de acceso",
	Long: `Mint a 49-digit clave de acceso from its fields, or validate an
existing one.

Examples:
  # Mint a key
  facturacion clave --ruc 1790012345001 --fecha 18/07/2026 \
      --estab 001 --pto-emi 001 --secuencial 123 --ambiente 1

  # Validate a key
  facturacion clave --validate 1807202601179001234500110010010000001231234567815`,
	RunE: runClave,
}

func init() {
	rootCmd.AddCommand(claveCmd)

	claveCmd.Flags().StringVar(&claveRUC, "ruc", "", "Issuer RUC (13 digits)")
	claveCmd.Flags().StringVar(&claveFecha, "fecha", "", "Emission date (d/m/Y)")
	claveCmd.Flags().StringVar(&claveEstab, "estab", "", "Establishment code (3 digits)")
	claveCmd.Flags().StringVar(&clavePtoEmi, "pto-emi", "", "Emission point code (3 digits)")
	claveCmd.Flags().StringVar(&claveSecuencial, "secuencial", "", "Sequential number (up to 9 digits)")
	claveCmd.Flags().StringVar(&claveAmbiente, "ambiente", "1", "Environment (1 pruebas, 2 produccion)")
	claveCmd.Flags().StringVar(&claveTipoEmision, "tipo-emision", "1", "Emission type")
	claveCmd.Flags().StringVar(&claveCodDoc, "cod-doc", model.CodeFactura, "Document type code")
	claveCmd.Flags().StringVar(&claveValidate, "validate", "", "Validate an existing 49-digit key instead of minting")
}

func runClave(cmd *cobra.Command, args []string) error {
	if claveValidate != "" {
		if !clave.Validate(claveValidate) {
			return fmt.Errorf("invalid clave de acceso")
		}
		fmt.Println("valid")
		return nil
	}

	key, err := clave.Mint(model.AccessKeyFields{
		FechaEmision: claveFecha,
		CodDoc:       claveCodDoc,
		RUC:          claveRUC,
		Ambiente:     claveAmbiente,
		Estab:        claveEstab,
		PtoEmi:       clavePtoEmi,
		Secuencial:   claveSecuencial,
		NumericCode:  clave.NumericCode(),
		TipoEmision:  claveTipoEmision,
	})
	if err != nil {
		return err
	}

	fmt.Println(key)
	return nil
}
