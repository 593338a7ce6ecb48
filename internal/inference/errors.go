package inference

import "fmt"

// DecodeError reports that the upload could not be turned into a tensor.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// InferenceError reports that the classifier failed or returned unusable
// output.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("run inference: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
