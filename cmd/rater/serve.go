package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "alrater/api/swagger" // swagger docs
	"alrater/internal/handler"
	"alrater/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func runServeCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("serve", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	addr := cmd.String("addr", "", "Listen address (default RATER_HTTP_ADDR)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	a, err := bootstrap(bootOptions{store: true})
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()
	if *addr != "" {
		a.cfg.HTTPAddr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.serve(ctx); err != nil {
		return fail(stderr, err)
	}
	return 0
}

func (a *app) serve(ctx context.Context) error {
	if a.cfg.GinMode != "" {
		gin.SetMode(a.cfg.GinMode)
	}
	go a.hub.Run(ctx)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", a.cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *app) router() *gin.Engine {
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:8080", "http://127.0.0.1:8080"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"edition": a.tables.Edition.Code,
			"clients": a.hub.ClientCount(),
		})
	})
	router.GET("/metrics", gin.WrapH(a.metrics.Handler()))

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(a.hub, c)
	})

	handler.NewRatingHandler(a.quotes).RegisterRoutes(router.Group(""))
	handler.NewTableHandler(a.tabs).RegisterRoutes(router.Group(""))
	if a.calcs != nil {
		handler.NewCalculationHandler(a.calcs).RegisterRoutes(router.Group(""))
		handler.NewAuditHandler(a.audits).RegisterRoutes(router.Group(""))
	}
	return router
}
