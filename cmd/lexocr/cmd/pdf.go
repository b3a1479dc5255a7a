package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/MeKo-Tech/lexocr/internal/document"
	"github.com/spf13/cobra"
)

// pdfCmd represents the pdf command.
var pdfCmd = &cobra.Command{
	Use:   "pdf <file>",
	Short: "Recognize the text of a scanned PDF",
	Long: `Render every selected page of a PDF and recognize its text.

Pages are written in page order under "--- Page N ---" banners, or as JSON,
YAML or CSV. Pages without enough dictionary words are reported with a
placeholder instead of failing the run.

Examples:
  lexocr pdf scan.pdf
  lexocr pdf scan.pdf --pages 1-5 --workers 4
  lexocr pdf locked.pdf --password secret --renderer auto`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         processPDF,
}

func init() {
	rootCmd.AddCommand(pdfCmd)

	addRecognitionFlags(pdfCmd)
	pdfCmd.Flags().String("pages", "", "page range to process (e.g., '1-5', '1,3,5')")
	pdfCmd.Flags().String("renderer", document.BackendPdftoppm, "page renderer (pdftoppm, embedded, auto)")
	pdfCmd.Flags().Int("dpi", document.DefaultDPI, "rendering resolution")
	pdfCmd.Flags().String("pdftoppm", "", "path to the pdftoppm binary")
	pdfCmd.Flags().StringP("password", "p", "", "password for encrypted PDFs")
}

func processPDF(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("PDF path does not exist: %s", path)
	}

	cfg := GetConfig()
	flags := cmd.Flags()
	if flags.Changed("renderer") {
		cfg.Render.Backend, _ = flags.GetString("renderer")
	}
	if flags.Changed("dpi") {
		cfg.Render.DPI, _ = flags.GetInt("dpi")
	}
	if flags.Changed("pdftoppm") {
		cfg.Render.PdftoppmPath, _ = flags.GetString("pdftoppm")
	}
	if flags.Changed("password") {
		cfg.Render.Password, _ = flags.GetString("password")
	}
	if err := applyRecognitionFlags(cmd, cfg); err != nil {
		return err
	}

	renderer, err := document.NewRenderer(cfg.ToRendererConfig())
	if err != nil {
		return err
	}
	pages, _ := flags.GetString("pages")
	doc, err := document.Open(path, document.Options{
		Pages:    pages,
		Password: cfg.Render.Password,
		Renderer: renderer,
	})
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	defer func() { _ = doc.Close() }()

	_, err = runRecognition(cmd, cfg, doc, path)
	return err
}
