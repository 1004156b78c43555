package raster

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/speedata/imageimport/bag"
)

func TestCodecRoundtrip(t *testing.T) {
	c := NewCodec()
	src := image.NewRGBA(image.Rect(0, 0, 40, 20))
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	img, err := c.Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode() = %v, want nil error", err)
	}
	small := c.Resample(img, 10, 5)
	if got, want := small.Bounds().Dx(), 10; got != want {
		t.Errorf("width = %d, want %d", got, want)
	}
	if got, want := small.Bounds().Dy(), 5; got != want {
		t.Errorf("height = %d, want %d", got, want)
	}

	data, err := c.Encode(small, FormatPNG, 100)
	if err != nil {
		t.Fatalf("Encode() = %v, want nil error", err)
	}
	info, err := Sniff(data)
	if err != nil {
		t.Fatal(err)
	}
	if info.Width != 10 || info.Height != 5 {
		t.Errorf("re-encoded size = %dx%d, want 10x5", info.Width, info.Height)
	}
}

func TestCodecErrors(t *testing.T) {
	c := NewCodec()
	if _, err := c.Decode([]byte("this is not an image")); !errors.Is(err, bag.ErrDecode) {
		t.Errorf("Decode(garbage) error = %v, want ErrDecode", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if _, err := c.Encode(img, FormatGIF, 100); !errors.Is(err, bag.ErrEncode) {
		t.Errorf("Encode(gif) error = %v, want ErrEncode", err)
	}
}
