package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/jwh1000/Manga2EPUB/pkg/app"
	"github.com/jwh1000/Manga2EPUB/pkg/app/components"
	"github.com/jwh1000/Manga2EPUB/pkg/integrations"
	"github.com/jwh1000/Manga2EPUB/pkg/services"
	"github.com/spf13/cobra"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Compile chapter folders into one EPUB",
	Long: "Sort the Chapter_<n>[_<m>] folders under the root directory, collect their page images " +
		"and write <output>/<title>.epub.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		flags := cmd.Flags()
		if flags.Changed("root") {
			cfg.Pack.RootDir, _ = flags.GetString("root")
		}
		if flags.Changed("output") {
			cfg.Pack.OutputDir, _ = flags.GetString("output")
		}
		if flags.Changed("title") {
			cfg.Pack.Title, _ = flags.GetString("title")
		}
		if flags.Changed("author") {
			cfg.Pack.Author, _ = flags.GetString("author")
		}
		if flags.Changed("recursive") {
			cfg.Pack.Recursive, _ = flags.GetBool("recursive")
		}

		title := cfg.Pack.Title
		if interactive, _ := flags.GetBool("interactive"); interactive {
			var err error
			title, err = app.PromptTitle(os.Stdin, os.Stdout, cfg.Pack.DefaultTitle)
			if errors.Is(err, app.ErrCancelled) {
				fmt.Println("👋 Cancelled")
				return
			}
			cobra.CheckErr(err)
		}

		fmt.Printf("🔍 Scanning %s\n", cfg.Pack.RootDir)

		packer := services.NewPacker(integrations.NewEPubBuilder(cfg.Pack.OutputDir), newLogger())

		// Listen for progress
		done := make(chan struct{})
		go func() {
			defer close(done)
			for progress := range packer.GetProgressChannel() {
				if progress.Status == "scanning" || progress.Status == "complete" {
					continue
				}
				fmt.Println(components.PackLine(progress))
			}
		}()

		result, err := packer.Pack(cmd.Context(), services.PackRequest{
			RootDir:     cfg.Pack.RootDir,
			Title:       title,
			Author:      cfg.Pack.Author,
			Language:    cfg.Pack.Language,
			Description: cfg.Pack.Description,
			Recursive:   cfg.Pack.Recursive,
		})
		packer.Close()
		<-done

		if errors.Is(err, integrations.ErrNoPages) {
			fmt.Println("❌ FAILED: no images were found in any chapter")
			os.Exit(1)
		}
		if err != nil {
			cobra.CheckErr(fmt.Errorf("pack failed: %w", err))
		}

		fmt.Printf("✅ Packed %d pages from %d chapters\n", result.Pages, result.Chapters)
		fmt.Printf("📖 EPUB created: %s\n", result.Path)
	},
}

func init() {
	packCmd.Flags().BoolP("interactive", "i", false, "Prompt for the book title")
	packCmd.Flags().StringP("title", "t", "", "Book title (overrides config)")
	packCmd.Flags().String("root", "", "Directory holding the chapter folders")
	packCmd.Flags().StringP("output", "o", "", "Directory the EPUB is written to")
	packCmd.Flags().String("author", "", "Book author")
	packCmd.Flags().BoolP("recursive", "r", false, "Search chapter folders recursively for images")
}
