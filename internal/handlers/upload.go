package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/Brownie44l1/scene-api/internal/inference"
)

// FileField is the multipart field carrying the image.
const FileField = "file"

var (
	errNoFile        = errors.New("no file part in request")
	errEmptyFilename = errors.New("file part has an empty filename")
	errTooLarge      = errors.New("request body too large")
)

// readUpload returns the first file part named FileField. A part without a
// filename parameter is a plain form value and does not count as a file.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (*inference.Upload, error) {
	if r.ContentLength > maxBytes {
		return nil, errTooLarge
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	reader, err := r.MultipartReader()
	if err != nil {
		return nil, errNoFile
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, errNoFile
		}
		if err != nil {
			return nil, classifyReadError(err)
		}

		filename, isFile := partFilename(part)
		if part.FormName() != FileField || !isFile {
			part.Close()
			continue
		}
		if filename == "" {
			part.Close()
			return nil, errEmptyFilename
		}

		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, classifyReadError(err)
		}

		return &inference.Upload{
			Filename: part.FileName(),
			Data:     data,
		}, nil
	}
}

func partFilename(part *multipart.Part) (string, bool) {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return "", false
	}
	filename, ok := params["filename"]
	return filename, ok
}

func classifyReadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errTooLarge
	}
	return fmt.Errorf("%w: %v", errNoFile, err)
}
