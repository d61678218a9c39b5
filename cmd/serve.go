package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generated tiles and GeoJSON for local preview",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "HTTP server port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	port, _ := cmd.Flags().GetInt("port")
	if port == 0 {
		port = cfg.Serve.Port
	}

	mux := newServeMux(cfg.Serve.Dir)
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	zap.L().Info("starting preview server",
		zap.String("addr", addr),
		zap.String("dir", cfg.Serve.Dir))

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down preview server")
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "preview server")
	}
	return nil
}

// newServeMux serves the data directory as static files. Tippecanoe
// writes uncompressed tiles, so .pbf only needs the MVT content type.
func newServeMux(dir string) *http.ServeMux {
	fs := http.FileServer(http.Dir(dir))

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".pbf") {
			w.Header().Set("Content-Type", "application/x-protobuf")
		}
		fs.ServeHTTP(w, r)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
