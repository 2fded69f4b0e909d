package main

import (
	"fmt"
	"os"

	"github.com/philipparndt/terrastl/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "terrastl",
	Short: "A CLI tool for turning elevation data into printable terrain models",
	Long: `terrastl fetches digital elevation tiles, stitches them into a seamless
heightfield, and extrudes a watertight solid ready for 3D printing.
Tiles come from the public Copernicus DEM distribution or a local
directory of SRTM-style files.`,
	Version: version.GetFullVersion(),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
