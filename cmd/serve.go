package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"jobboard_back_end_go/auth"
	"jobboard_back_end_go/config"
	"jobboard_back_end_go/logger"
	"jobboard_back_end_go/routes"
	"jobboard_back_end_go/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configName)
	if err != nil {
		return err
	}
	l, err := logger.NewLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStores, err := provideStores(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer closeStores()

	broker, closeBroker, err := provideBroker(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer closeBroker()

	authn := auth.NewAuthenticator(cfg.JWT, st.profiles)
	chat := services.NewChatService(st.messages, st.profiles, broker, l)
	socket := services.NewChatSocket(chat, l, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: newRouter(cfg, l, chat, socket, authn),
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	l.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(cfg *config.Config, l *logger.Logger, chat *services.ChatService, socket *services.ChatSocket, authn *auth.Authenticator) *gin.Engine {
	if !cfg.Logger.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(l))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupAuthRoutes(r, authn)
	routes.SetupChatRoutes(r, chat, socket, authn)
	routes.SetupProfileRoutes(r, chat, authn)
	return r
}
