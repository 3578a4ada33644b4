package cmd

import (
	"fmt"
	"net/http"

	"github.com/jwh1000/Manga2EPUB/pkg/app/components"
	"github.com/jwh1000/Manga2EPUB/pkg/services"
	"github.com/jwh1000/Manga2EPUB/pkg/sources"
	"github.com/jwh1000/Manga2EPUB/pkg/utils"
	"github.com/spf13/cobra"
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge [chapter-url]",
	Short: "Copy chapters from a reader site into the listener",
	Long: "Scrape the page images of a chapter, post them to a running listener " +
		"and follow the next chapter link.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		flags := cmd.Flags()
		if flags.Changed("server") {
			cfg.Bridge.ServerURL, _ = flags.GetString("server")
		}
		if flags.Changed("chapters") {
			cfg.Bridge.MaxChapters, _ = flags.GetInt("chapters")
		}
		if flags.Changed("pattern") {
			cfg.Bridge.ImagePattern, _ = flags.GetString("pattern")
		}

		client := &http.Client{Timeout: cfg.Bridge.Timeout}
		source, err := sources.NewReaderSite(client, cfg.Bridge.ImagePattern)
		cobra.CheckErr(err)
		sink := utils.NewAPI(cfg.Bridge.ServerURL).WithClient(client)

		opts := services.DefaultBridgeOptions()
		if cfg.Bridge.RequestsPerSecond > 0 {
			opts.RequestsPerSecond = cfg.Bridge.RequestsPerSecond
		}
		if cfg.Bridge.Attempts > 0 {
			opts.Attempts = cfg.Bridge.Attempts
		}
		if cfg.Bridge.RetryDelay > 0 {
			opts.RetryDelay = cfg.Bridge.RetryDelay
		}
		bridge := services.NewBridge(source, sink, opts, newLogger())

		// Listen for progress
		done := make(chan struct{})
		go func() {
			defer close(done)
			for progress := range bridge.GetProgressChannel() {
				switch progress.Status {
				case "saved":
					fmt.Printf("\r%s", components.ChapterLine(progress, 30))
				case "complete":
					fmt.Printf("\r%s\n", components.ChapterLine(progress, 30))
				default:
					fmt.Printf("\n%s\n", components.ChapterLine(progress, 30))
				}
			}
		}()

		fmt.Printf("📡 Bridge to %s\n", cfg.Bridge.ServerURL)
		synced, err := bridge.Run(cmd.Context(), args[0], cfg.Bridge.MaxChapters)
		bridge.Close()
		<-done

		if err != nil {
			cobra.CheckErr(fmt.Errorf("bridge stopped after %d chapters: %w", synced, err))
		}
		fmt.Printf("✅ Synced %d chapters\n", synced)
	},
}

func init() {
	bridgeCmd.Flags().String("server", "http://127.0.0.1:5000", "Listener URL")
	bridgeCmd.Flags().IntP("chapters", "c", 0, "Stop after this many chapters (0 = follow until the end)")
	bridgeCmd.Flags().String("pattern", "storage", "Regular expression page image URLs must match")
}
