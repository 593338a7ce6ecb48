// Package inference implements the scene prediction pipeline: decode the
// upload, build the input tensor, run the classifier and pick the label.
package inference

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Brownie44l1/scene-api/internal/imageproc"
	"github.com/Brownie44l1/scene-api/internal/metrics"
	"github.com/Brownie44l1/scene-api/internal/model"
)

// Upload is one image file received from a client.
type Upload struct {
	Filename string
	Data     []byte
}

type Service struct {
	classifier   model.Classifier
	preprocessor *imageproc.Preprocessor
	labels       []string
	logger       *zap.Logger
	metrics      *metrics.Metrics
}

// NewService wires a classifier described by metadata to the preprocessor.
// Every output column of the classifier must have a label.
func NewService(
	classifier model.Classifier,
	metadata model.Metadata,
	preprocessor *imageproc.Preprocessor,
	logger *zap.Logger,
	m *metrics.Metrics,
) (*Service, error) {
	if err := metadata.Validate(); err != nil {
		return nil, err
	}
	if preprocessor.Size != metadata.ImageSize {
		return nil, fmt.Errorf("preprocessor size %d does not match model input %d", preprocessor.Size, metadata.ImageSize)
	}

	return &Service{
		classifier:   classifier,
		preprocessor: preprocessor,
		labels:       metadata.Classes,
		logger:       logger,
		metrics:      m,
	}, nil
}

// Labels returns the class labels in output order.
func (s *Service) Labels() []string {
	labels := make([]string, len(s.labels))
	copy(labels, s.labels)
	return labels
}

// Predict classifies an upload. Failures are reported as *DecodeError or
// *InferenceError.
func (s *Service) Predict(upload Upload) (result *model.PredictionResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &InferenceError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	start := time.Now()
	tensor, format, err := s.preprocessor.Load(upload.Data)
	s.metrics.ObserveStage(metrics.StageDecode, time.Since(start))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	s.logger.Debug("Preprocessed upload",
		zap.String("filename", upload.Filename),
		zap.Int("bytes", len(upload.Data)),
		zap.String("format", format),
		zap.String("mime", imageproc.Sniff(upload.Data)),
	)

	start = time.Now()
	scores, err := s.classifier.Infer(tensor)
	s.metrics.ObserveStage(metrics.StageInference, time.Since(start))
	if err != nil {
		return nil, &InferenceError{Err: err}
	}

	result, err = model.Classify(scores, s.labels)
	if err != nil {
		return nil, &InferenceError{Err: err}
	}
	return result, nil
}
