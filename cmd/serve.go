package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anoixa/imagebank/api/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start API server",
	Run: func(cmd *cobra.Command, args []string) {
		RunServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer() {
	container := newContainer()
	cfg := container.Config()

	if err := container.InitAuth(); err != nil {
		_ = container.Close()
		log.Fatalf("Failed to initialize JWT: %s", err)
	}

	deps := &core.Dependencies{
		Config:   cfg,
		DB:       container.DatabaseProvider(),
		Storage:  container.Storage(),
		Cache:    container.Cache(),
		JWT:      container.JWT,
		Albums:   container.AlbumsRepo,
		Images:   container.Images,
		Metrics:  container.Metrics(),
		Gatherer: prometheus.DefaultGatherer,
	}

	// 启动gin
	server, cleanup := core.StartServer(deps)
	go func() {
		log.Printf("Server started on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// 处理退出signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if cleanup != nil {
		cleanup()
	}

	// 关闭 DI 容器，同时释放 libvips
	if err := container.Close(); err != nil {
		log.Printf("Error closing container: %v", err)
	}

	log.Println("Server exited successfully")
}
