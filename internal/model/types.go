package model

import "fmt"

// ImageSize is the side length, in pixels, of the square input the model was
// trained on.
const ImageSize = 150

// Channels is the number of color channels of the model input.
const Channels = 3

// ClassLabels maps output column index to scene name.
var ClassLabels = []string{"buildings", "forest", "glacier", "mountain", "sea", "street"}

// Classifier runs forward inference on a preprocessed NHWC tensor and returns
// one score per class.
type Classifier interface {
	Infer(input []float32) ([]float32, error)
}

type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
}

// DefaultMetadata describes the scene model: a (1,150,150,3) input and a
// (1,6) output.
func DefaultMetadata() Metadata {
	classes := make([]string, len(ClassLabels))
	copy(classes, ClassLabels)

	return Metadata{
		InputShape:  []int64{1, ImageSize, ImageSize, Channels},
		OutputShape: []int64{1, int64(len(classes))},
		Classes:     classes,
		ImageSize:   ImageSize,
	}
}

// InputSize returns the number of elements of the input tensor.
func (m Metadata) InputSize() int {
	return shapeSize(m.InputShape)
}

// OutputSize returns the number of elements of the output tensor.
func (m Metadata) OutputSize() int {
	return shapeSize(m.OutputShape)
}

// Validate checks that every output column has a label.
func (m Metadata) Validate() error {
	if len(m.InputShape) != 4 {
		return fmt.Errorf("input shape %v is not NHWC", m.InputShape)
	}
	if m.InputSize() <= 0 {
		return fmt.Errorf("invalid input shape %v", m.InputShape)
	}
	if m.OutputSize() != len(m.Classes) {
		return fmt.Errorf("output shape %v does not match %d classes", m.OutputShape, len(m.Classes))
	}
	return nil
}

func shapeSize(shape []int64) int {
	if len(shape) == 0 {
		return 0
	}
	size := 1
	for _, dim := range shape {
		size *= int(dim)
	}
	return size
}

type PredictionResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}
