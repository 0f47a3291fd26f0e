package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qixuan-zhu/deckagent/internal/api"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8010", "listen address")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serve exposes the engine over HTTP: upload, outline, expansion,
search and downloads. Server settings come from the server.* config
keys (DECKAGENT_SERVER_API_KEY and friends).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		opts := api.Options{
			APIKey:      viper.GetString("server.api_key"),
			CORSOrigins: viper.GetString("server.cors_origins"),
			UploadDir:   viper.GetString("server.upload_dir"),
			MaxUpload:   viper.GetInt64("server.max_upload_mb") << 20,
		}
		if err := os.MkdirAll(opts.UploadDir, 0o755); err != nil {
			return err
		}

		srv := &http.Server{
			Addr:         serveAddr,
			Handler:      api.NewServer(eng, opts),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 0, // expansion requests can run for minutes
			IdleTimeout:  120 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			slog.Info("server starting", "addr", serveAddr, "upload_dir", opts.UploadDir)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		case <-cmd.Context().Done():
		}

		slog.Info("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}
