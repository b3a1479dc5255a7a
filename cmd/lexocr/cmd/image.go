package cmd

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/lexocr/internal/document"
	"github.com/spf13/cobra"
)

// imageCmd represents the image command.
var imageCmd = &cobra.Command{
	Use:   "image <file|dir>...",
	Short: "Recognize the text of scanned page images",
	Long: `Recognize the text of page images (png, jpeg, bmp, tiff).

Directories are expanded to the images they contain, sorted by path, and
every image is treated as one page.

Examples:
  lexocr image page1.png page2.png
  lexocr image scans/ --recursive --format json`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         processImages,
}

func init() {
	rootCmd.AddCommand(imageCmd)

	addRecognitionFlags(imageCmd)
	imageCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	imageCmd.Flags().StringSlice("include", nil, "only include files matching these glob patterns")
	imageCmd.Flags().StringSlice("exclude", nil, "skip files matching these glob patterns")
}

func processImages(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := applyRecognitionFlags(cmd, cfg); err != nil {
		return err
	}

	var opts document.DiscoveryOptions
	opts.Recursive, _ = cmd.Flags().GetBool("recursive")
	opts.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	opts.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")

	src, err := document.NewImageSource(args, opts)
	if err != nil {
		return fmt.Errorf("failed to discover images: %w", err)
	}
	defer func() { _ = src.Close() }()

	_, err = runRecognition(cmd, cfg, src, strings.Join(args, ","))
	return err
}
