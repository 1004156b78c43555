package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/speedata/imageimport/bag"
)

// Codec is the pixel level primitive the pipeline delegates to:
// decoding raw bytes to a canvas, resampling and re-encoding. It is
// an interface so tests can substitute a fake backend.
type Codec interface {
	// Decode parses data into a canvas. The concrete image type is
	// preserved, a paletted source yields *image.Paletted.
	Decode(data []byte) (image.Image, error)
	// Resample scales img to exactly width x height using an
	// area-averaging filter.
	Resample(img image.Image, width, height int) *image.NRGBA
	// Encode writes img in the target format, PNG at maximum
	// lossless compression or JPEG at the given quality.
	Encode(img image.Image, target Format, quality int) ([]byte, error)
}

// NewCodec returns the default codec backed by the imaging library.
// It decodes PNG, JPEG, GIF, TIFF and BMP.
func NewCodec() Codec {
	return codec{}
}

type codec struct{}

func (codec) Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bag.ErrDecode, err)
	}
	return img, nil
}

func (codec) Resample(img image.Image, width, height int) *image.NRGBA {
	return imaging.Resize(img, width, height, imaging.Box)
}

func (codec) Encode(img image.Image, target Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch target {
	case FormatPNG:
		err = imaging.Encode(&buf, img, imaging.PNG,
			imaging.PNGCompressionLevel(png.BestCompression))
	case FormatJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG,
			imaging.JPEGQuality(quality))
	default:
		return nil, fmt.Errorf("%w: no encoder for %s", bag.ErrEncode, target)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bag.ErrEncode, err)
	}
	return buf.Bytes(), nil
}
