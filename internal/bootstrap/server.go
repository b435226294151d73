package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dojokit/booking/api"
	"github.com/dojokit/booking/config"
	"github.com/dojokit/booking/internal/service/booking"
	"github.com/dojokit/booking/internal/service/schedule"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, bookingSvc booking.BookingUseCase, scheduleSvc schedule.ScheduleUseCase) error {
	router := gin.Default()

	v1 := router.Group("/v1")
	api.NewReservationHandler(bookingSvc).Register(v1.Group("/reservations"))
	api.NewSessionHandler(bookingSvc, scheduleSvc).Register(v1.Group("/sessions"))

	if cfg.HTTP.SwaggerDir != "" {
		router.StaticFS("/swagger", http.Dir(cfg.HTTP.SwaggerDir))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger/openapi.json"),
		)))
	}

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
