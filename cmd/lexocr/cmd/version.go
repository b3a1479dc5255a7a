package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/lexocr/internal/recognizer/tesseract"
	"github.com/MeKo-Tech/lexocr/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		v, commit, date := version.Info()
		_, _ = fmt.Fprintf(out, "lexocr version %s\n", v)
		_, _ = fmt.Fprintf(out, "Commit: %s\n", commit)
		_, _ = fmt.Fprintf(out, "Date: %s\n", date)
		if withEngine, _ := cmd.Flags().GetBool("engine"); withEngine {
			_, _ = fmt.Fprintf(out, "Tesseract: %s\n", tesseract.Version())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("engine", false, "also print the Tesseract version")
}
