package handlers

import (
	"errors"
	"net/http"

	"github.com/Brownie44l1/croprec-api/internal/apperr"
	"github.com/Brownie44l1/croprec-api/internal/model"
	"github.com/gin-gonic/gin"
)

// maxBodyBytes bounds a /predict request body.
const maxBodyBytes = 1 << 20

// Backend is what the HTTP layer needs from the model store.
type Backend interface {
	Predictor
	Info() model.Info
}

type Handler struct {
	backend Backend
	inferer *Inferer
}

func NewHandler(backend Backend) *Handler {
	return &Handler{
		backend: backend,
		inferer: NewInferer(backend),
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// ModelInfo describes the loaded classifier.
func (h *Handler) ModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.backend.Info())
}

func (h *Handler) Predict(c *gin.Context) {
	reqID := RequestID(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: "request body too large"})
			return
		}
		err = &apperr.MalformedPayloadError{Err: err}
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	status, payload := h.inferer.Infer(body)
	switch {
	case status >= http.StatusInternalServerError:
		logf(reqID, "prediction error: %v", payload)
	case status >= http.StatusBadRequest:
		debugf(reqID, "rejected request: %v", payload)
	default:
		if resp, ok := payload.(*model.PredictionResponse); ok && len(resp.TopCrops) > 0 {
			debugf(reqID, "top crop %s (%.4f)", resp.TopCrops[0].Crop, resp.TopCrops[0].Confidence)
		}
	}
	c.JSON(status, payload)
}
