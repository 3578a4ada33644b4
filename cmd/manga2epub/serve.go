package cmd

import (
	"fmt"

	"github.com/jwh1000/Manga2EPUB/pkg/integrations"
	"github.com/jwh1000/Manga2EPUB/pkg/server"
	"github.com/jwh1000/Manga2EPUB/pkg/services"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the page ingest listener",
	Long:  "Listen for POST /save_page requests and store each page under <base-dir>/<manga>/<chapter>.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if cmd.Flags().Changed("host") {
			cfg.Ingest.Host, _ = cmd.Flags().GetString("host")
		}
		if cmd.Flags().Changed("port") {
			cfg.Ingest.Port, _ = cmd.Flags().GetString("port")
		}
		if cmd.Flags().Changed("base-dir") {
			cfg.Ingest.BaseDir, _ = cmd.Flags().GetString("base-dir")
		}

		logger := newLogger()
		store := services.NewPageStore(cfg.Ingest.BaseDir, integrations.NewImageSniffer(), logger)

		srv, err := server.New(server.Config{
			Host:   cfg.Ingest.Host,
			Port:   cfg.Ingest.Port,
			Store:  store,
			Logger: logger,
		})
		cobra.CheckErr(err)

		fmt.Printf("🚀 Listener on http://%s, saving to %s\n", srv.Addr(), cfg.Ingest.BaseDir)
		if err := srv.Start(cmd.Context()); err != nil {
			cobra.CheckErr(fmt.Errorf("listener failed: %w", err))
		}
	},
}

func init() {
	serveCmd.Flags().String("host", "127.0.0.1", "Address to bind")
	serveCmd.Flags().StringP("port", "p", "5000", "Port to listen on")
	serveCmd.Flags().String("base-dir", "./Downloaded_Raw_Chapters", "Directory pages are saved under")
}
