// Package server exposes scan triggers and the message relay over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"SignalScanner/internal/scheduler"
)

// ScanRunner runs one scan and delivers its report.
type ScanRunner interface {
	RunScan(ctx context.Context) (scheduler.Outcome, error)
}

// MessageSender delivers a chat message as plain text.
type MessageSender interface {
	SendPlain(ctx context.Context, text string) error
}

// Handler holds the HTTP handlers.
type Handler struct {
	scans  ScanRunner
	sender MessageSender
	log    zerolog.Logger
}

func NewHandler(scans ScanRunner, sender MessageSender, log zerolog.Logger) *Handler {
	return &Handler{scans: scans, sender: sender, log: log}
}

// NewRouter wires the routes. gatherer may be nil to omit /metrics.
func NewRouter(h *Handler, gatherer prometheus.Gatherer, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), requestLogger(log))
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "error": "Method not allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Not found"})
	})

	r.GET("/healthz", Health)
	r.HEAD("/healthz", Health)

	api := r.Group("/api")
	{
		api.POST("/scan", h.Scan)
		api.POST("/notify", h.Notify)
	}

	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

// Health answers liveness checks without caching.
func Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Scan runs a scan pass and returns the report.
//
// POST /api/scan
func (h *Handler) Scan(c *gin.Context) {
	out, err := h.scans.RunScan(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, ScanResponse{Status: "error", Error: err.Error()})
		return
	}
	resp := ScanResponse{Status: "ok", Data: out.Report}
	if out.NotifyErr != nil {
		resp.NotifyError = out.NotifyErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

type notifyRequest struct {
	Message string `json:"message"`
}

// Notify relays a message to the configured chat.
//
// POST /api/notify {"message": "..."}
func (h *Handler) Notify(c *gin.Context) {
	var req notifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, NotifyResponse{Success: false, Error: "Message is required"})
		return
	}
	if err := h.sender.SendPlain(c.Request.Context(), req.Message); err != nil {
		h.log.Error().Err(err).Msg("relay message to telegram failed")
		c.JSON(http.StatusInternalServerError, NotifyResponse{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, NotifyResponse{Success: true, Message: "Message sent to Telegram successfully!"})
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}
