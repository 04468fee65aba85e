package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/oshokin/alarm-manager/internal/domain/alarm"
	"github.com/oshokin/alarm-manager/internal/logger"
	"github.com/oshokin/alarm-manager/internal/observability/metrics"
	"github.com/oshokin/alarm-manager/internal/service/scheduler"
)

// Service abstracts the business operations the HTTP API depends on.
type Service interface {
	List(ctx context.Context) ([]scheduler.Snapshot, error)
	Get(ctx context.Context, id domain.ID) (scheduler.Snapshot, error)
	Save(ctx context.Context, draft *domain.Alarm) (scheduler.Snapshot, error)
	Delete(ctx context.Context, id domain.ID) error
	Move(ctx context.Context, id domain.ID, newIndex int) error
	Start(ctx context.Context, id domain.ID) (scheduler.Snapshot, error)
	Stop(ctx context.Context, id domain.ID) (scheduler.Snapshot, error)
	Acknowledge(ctx context.Context, id domain.ID) (bool, error)
	AcknowledgeAll(ctx context.Context) (int, error)
	Suspend(ctx context.Context) (int, error)
	Resume(ctx context.Context) (int, error)
	DefaultAlert(ctx context.Context) (*domain.Alert, error)
	SetDefaultAlert(ctx context.Context, a *domain.Alert) error
}

// HandlerFunc handles a request and returns the value to send as JSON.
type HandlerFunc func(c *gin.Context) (any, *Error)

// resolve adapts a HandlerFunc to gin.
func resolve(h HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, apiErr := h(c)
		if apiErr != nil {
			c.JSON(apiErr.Code, gin.H{"error": apiErr.Message})

			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// NewRouter builds the HTTP handler of the alarm manager.
func NewRouter(ctx context.Context, service Service) *gin.Engine {
	h := &handlers{
		service: service,
		now:     time.Now,
	}

	return h.router(logger.WithName(ctx, "http"))
}

func (h *handlers) router(ctx context.Context) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), observe(ctx))

	router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	{
		api.GET("/alarms", resolve(h.listAlarms))
		api.POST("/alarms", resolve(h.createAlarm))
		api.GET("/alarms/:id", resolve(h.getAlarm))
		api.PUT("/alarms/:id", resolve(h.updateAlarm))
		api.DELETE("/alarms/:id", resolve(h.deleteAlarm))
		api.POST("/alarms/:id/move", resolve(h.moveAlarm))
		api.POST("/alarms/:id/start", resolve(h.startAlarm))
		api.POST("/alarms/:id/stop", resolve(h.stopAlarm))
		api.POST("/alarms/:id/ack", resolve(h.acknowledge))
		api.GET("/alarms/:id/upcoming", resolve(h.upcoming))

		api.POST("/ack", resolve(h.acknowledgeAll))
		api.POST("/power/suspend", resolve(h.suspend))
		api.POST("/power/resume", resolve(h.resume))

		api.GET("/default-alert", resolve(h.getDefaultAlert))
		api.PUT("/default-alert", resolve(h.setDefaultAlert))

		api.GET("/calendar.ics", h.calendar)
	}

	return router
}

// observe records metrics for every request and logs failed ones.
func observe(ctx context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		code := c.Writer.Status()
		metrics.ObserveRequest("http", c.Request.Method+" "+route, strconv.Itoa(code), time.Since(started))

		if code >= http.StatusInternalServerError {
			logger.WarnKV(ctx, "HTTP request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "status", code)
		}
	}
}
