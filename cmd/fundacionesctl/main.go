// Command fundacionesctl dumps, reloads and pushes the foundations catalog.
package main

import (
	"os"

	"github.com/fundaciones-espana/catalog-backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
