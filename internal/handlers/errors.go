package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Brownie44l1/scene-api/internal/inference"
)

// Messages returned to callers. Processing failures never expose their cause.
const (
	MsgNoFile           = "No image file uploaded"
	MsgNoSelectedFile   = "No selected file"
	MsgTooLarge         = "Uploaded file too large"
	MsgPredictionFailed = "Prediction failed. Check server logs for more info."
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

type errorMapping struct {
	status  int
	message string
	reason  string
}

// mapError maps upload and prediction errors to an HTTP status, the caller
// facing message and a metrics reason.
func mapError(err error) errorMapping {
	var decodeErr *inference.DecodeError
	var inferErr *inference.InferenceError

	switch {
	case errors.Is(err, errEmptyFilename):
		return errorMapping{http.StatusBadRequest, MsgNoSelectedFile, "empty_filename"}
	case errors.Is(err, errNoFile):
		return errorMapping{http.StatusBadRequest, MsgNoFile, "missing_file"}
	case errors.Is(err, errTooLarge):
		return errorMapping{http.StatusRequestEntityTooLarge, MsgTooLarge, "too_large"}
	case errors.As(err, &decodeErr):
		return errorMapping{http.StatusInternalServerError, MsgPredictionFailed, "decode"}
	case errors.As(err, &inferErr):
		return errorMapping{http.StatusInternalServerError, MsgPredictionFailed, "inference"}
	default:
		return errorMapping{http.StatusInternalServerError, MsgPredictionFailed, "internal"}
	}
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}
