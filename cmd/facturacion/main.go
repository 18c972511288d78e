package main

import (
	"fmt"
	"os"

	"github.com/dfalconiUTC/api-midd-facturacion/cmd/facturacion/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
