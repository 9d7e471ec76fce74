package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Brownie44l1/croprec-api/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

type RouterOptions struct {
	// CORS enables permissive cross-origin headers.
	CORS bool
}

// NewRouter wires the handler's routes onto a gin engine.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(requestID(), accessLog(), gin.CustomRecovery(recovery))
	if opts.CORS {
		r.Use(cors())
	}

	r.GET("/health", h.Health)
	r.GET("/model", h.ModelInfo)
	r.POST("/predict", h.Predict)
	for _, p := range []string{"/health", "/model", "/predict"} {
		r.OPTIONS(p, func(c *gin.Context) { c.Status(http.StatusOK) })
	}
	return r
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// requestID propagates or assigns an X-Request-ID.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestID returns the id assigned by the requestID middleware.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logf(RequestID(c), "%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// recovery is the last-resort 500 for panics outside the inference path.
func recovery(c *gin.Context, err any) {
	logf(RequestID(c), "panic: %v", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, model.ErrorResponse{Error: fmt.Sprint(err)})
}
