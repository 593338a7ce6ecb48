package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Brownie44l1/scene-api/internal/inference"
	"github.com/Brownie44l1/scene-api/internal/metrics"
	"github.com/Brownie44l1/scene-api/internal/middleware"
	"github.com/Brownie44l1/scene-api/internal/model"
)

// Predictor classifies a single upload.
type Predictor interface {
	Predict(upload inference.Upload) (*model.PredictionResponse, error)
}

type Handler struct {
	predictor      Predictor
	metadata       model.Metadata
	logger         *zap.Logger
	metrics        *metrics.Metrics
	maxUploadBytes int64
}

func NewHandler(predictor Predictor, metadata model.Metadata, logger *zap.Logger, m *metrics.Metrics, maxUploadBytes int64) *Handler {
	return &Handler{
		predictor:      predictor,
		metadata:       metadata,
		logger:         logger,
		metrics:        m,
		maxUploadBytes: maxUploadBytes,
	}
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// ReadyResponse describes the loaded model.
type ReadyResponse struct {
	Status   string         `json:"status"`
	Metadata model.Metadata `json:"model"`
}

// Ready handles GET /ready. The process only serves once the model is
// loaded, so reaching this handler means it is ready.
func (h *Handler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, ReadyResponse{
		Status:   "ready",
		Metadata: h.metadata,
	})
}

// Predict handles POST /predict
func (h *Handler) Predict(c *gin.Context) {
	requestID := c.GetString(middleware.RequestIDKey)

	upload, err := readUpload(c.Writer, c.Request, h.maxUploadBytes)
	if err != nil {
		h.fail(c, requestID, "", err)
		return
	}

	h.logger.Info("Received file",
		zap.String("request_id", requestID),
		zap.String("filename", upload.Filename),
		zap.Int("size", len(upload.Data)),
	)

	result, err := h.predictor.Predict(*upload)
	if err != nil {
		h.fail(c, requestID, upload.Filename, err)
		return
	}

	h.metrics.ObservePrediction(result.Label)
	c.JSON(http.StatusOK, result)
}

func (h *Handler) fail(c *gin.Context, requestID, filename string, err error) {
	mapping := mapError(err)
	h.metrics.ObserveFailure(mapping.reason)

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("reason", mapping.reason),
		zap.Error(err),
	}
	if filename != "" {
		fields = append(fields, zap.String("filename", filename))
	}

	if mapping.status >= http.StatusInternalServerError {
		h.logger.Error("Prediction error", fields...)
	} else {
		h.logger.Info("Rejected upload", fields...)
	}

	respondError(c, mapping.status, mapping.message)
}
