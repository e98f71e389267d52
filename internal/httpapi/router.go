// Package httpapi wires the read-only ops inspection surface: health,
// metrics, and a GET-only view over the DTW and cron trigger stores.
// Grounded on the teacher's gin router shape (request ID, security
// headers, structured access log, metrics middleware).
package httpapi

import (
	"log/slog"

	"github.com/ErlanBelekov/dist-job-scheduler/internal/httpapi/handler"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/httpapi/middleware"
	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
)

func NewRouter(logger *slog.Logger, dtwHandler *handler.DTWHandler, cronHandler *handler.CronTriggerHandler, healthHandler *handler.HealthHandler, jwksURL string, hmacKey []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	authMW := middleware.Auth(jwksURL, hmacKey)

	dtws := r.Group("/v2/delay_tolerant_workload", authMW)
	dtws.GET("", dtwHandler.List)
	dtws.GET("/:name", dtwHandler.Get)

	triggers := r.Group("/v2/cron_trigger", authMW)
	triggers.GET("/:name", cronHandler.Get)

	return r
}
