package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmptyOutput is returned when the classifier produced no scores.
var ErrEmptyOutput = errors.New("classifier returned no scores")

// Classify picks the highest score and maps it to its label. The first
// maximum wins ties. Scores are not required to be probabilities; the
// confidence is the raw maximum as a percentage rounded to two decimals.
func Classify(scores []float32, labels []string) (*PredictionResponse, error) {
	if len(scores) == 0 {
		return nil, ErrEmptyOutput
	}
	if len(scores) != len(labels) {
		return nil, fmt.Errorf("classifier returned %d scores for %d labels", len(scores), len(labels))
	}

	maxIdx := 0
	maxVal := scores[0]
	for i, val := range scores {
		if val > maxVal {
			maxVal = val
			maxIdx = i
		}
	}

	return &PredictionResponse{
		Label:      labels[maxIdx],
		Confidence: Percent(maxVal),
	}, nil
}

// Percent converts a score to a percentage rounded to two decimal places.
func Percent(score float32) float64 {
	return math.Round(float64(score)*100*100) / 100
}
