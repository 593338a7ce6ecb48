// Package imageproc turns uploaded image bytes into the float32 tensor the
// scene model consumes.
package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxPixels bounds the declared width*height of an upload. Decoding
// allocates the full bitmap, so larger images are rejected from their header.
const MaxPixels = 89_478_485

var (
	// ErrEmptyImage is returned when the upload has no content.
	ErrEmptyImage = errors.New("image is empty")
	// ErrTooManyPixels is returned when the header declares more than MaxPixels.
	ErrTooManyPixels = errors.New("image exceeds pixel limit")
)

// Resampler scales img to exactly width x height.
type Resampler func(img image.Image, width, height int) image.Image

// Nearest samples, for each output pixel, the source pixel under its center:
// floor((x+0.5)*srcW/dstW).
func Nearest(img image.Image, width, height int) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func filtered(interp resize.InterpolationFunction) Resampler {
	return func(img image.Image, width, height int) image.Image {
		return resize.Resize(uint(width), uint(height), img, interp)
	}
}

var resamplers = map[string]Resampler{
	"nearest":  Nearest,
	"bilinear": filtered(resize.Bilinear),
	"bicubic":  filtered(resize.Bicubic),
	"lanczos3": filtered(resize.Lanczos3),
}

// ParseInterpolation maps a configuration name to a resampler.
func ParseInterpolation(name string) (Resampler, error) {
	r, ok := resamplers[name]
	if !ok {
		return nil, fmt.Errorf("unknown interpolation %q", name)
	}
	return r, nil
}

// Sniff returns the MIME type detected from the content of data.
func Sniff(data []byte) string {
	return mimetype.Detect(data).String()
}

// Decode decodes data in any registered format and reports the format name.
// The header is checked against MaxPixels before any pixel is decoded.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", fmt.Errorf("image has invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, "", fmt.Errorf("image has invalid dimensions %dx%d", bounds.Dx(), bounds.Dy())
	}
	return img, format, nil
}

// Preprocessor resizes images to a fixed square and lays them out as a
// (1, size, size, 3) tensor scaled to [0, 1].
type Preprocessor struct {
	Size     int
	Resample Resampler
}

func NewPreprocessor(size int, resample Resampler) *Preprocessor {
	return &Preprocessor{
		Size:     size,
		Resample: resample,
	}
}

// Tensor resizes img without cropping and returns it in NHWC order. Alpha is
// discarded, the color channels are used unpremultiplied.
func (p *Preprocessor) Tensor(img image.Image) []float32 {
	resized := p.Resample(img, p.Size, p.Size)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	inputData := make([]float32, height*width*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBAModel.Convert(resized.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)

			i := (y*width + x) * 3
			inputData[i] = float32(c.R) / 255.0
			inputData[i+1] = float32(c.G) / 255.0
			inputData[i+2] = float32(c.B) / 255.0
		}
	}

	return inputData
}

// Load decodes data and returns its tensor together with the decoded format.
func (p *Preprocessor) Load(data []byte) ([]float32, string, error) {
	img, format, err := Decode(data)
	if err != nil {
		return nil, "", err
	}
	return p.Tensor(img), format, nil
}
