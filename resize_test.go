package imageimport

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/speedata/imageimport/bag"
)

func TestRecodeErrors(t *testing.T) {
	im := New(nil, nil, nil)

	rec := newRecord()
	rec.Raw = []byte("not an image")
	if err := im.recode(rec, 10, 10, true, 100); !errors.Is(err, bag.ErrDecode) {
		t.Errorf("recode(garbage) error = %v, want ErrDecode", err)
	}

	rec = newRecord()
	rec.Raw = pngBytes(t, image.NewRGBA(image.Rect(0, 0, 4, 4)))
	if err := rec.refreshMetadata(); err != nil {
		t.Fatal(err)
	}
	if err := im.recode(rec, 0, 10, true, 100); !errors.Is(err, bag.ErrEncode) {
		t.Errorf("recode(0x10) error = %v, want ErrEncode", err)
	}
}

func TestRecodeRefreshesRecord(t *testing.T) {
	im := New(nil, nil, nil)
	rec := newRecord()
	rec.Raw = pngBytes(t, image.NewRGBA(image.Rect(0, 0, 40, 20)))
	rec.Source.Embed = false
	if err := rec.refreshMetadata(); err != nil {
		t.Fatal(err)
	}

	if err := im.recode(rec, 10, 5, true, 100); err != nil {
		t.Fatalf("recode() = %v, want nil error", err)
	}
	if rec.Width != 10 || rec.Height != 5 {
		t.Errorf("size = %dx%d, want 10x5", rec.Width, rec.Height)
	}
	if !rec.Recoded {
		t.Error("Recoded = false, want true")
	}
	if !rec.Source.Embed {
		t.Error("Source.Embed = false after recode, want true")
	}
}

func TestRecodeFlattensAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < 4; i++ {
		src.SetNRGBA(i%2, i/2, color.NRGBA{R: 0xff, A: 0x80})
	}
	im := New(nil, nil, nil)
	rec := newRecord()
	rec.Raw = pngBytes(t, src)
	if err := rec.refreshMetadata(); err != nil {
		t.Fatal(err)
	}

	if err := im.recode(rec, 2, 2, false, 100); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(rec.Raw))
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, a := img.At(0, 0).RGBA()
	if a != 0xffff {
		t.Fatalf("alpha = %#x after flatten, want opaque", a)
	}
	// half transparent red over white is a light red
	if r>>8 != 0xff {
		t.Errorf("red = %d, want 255", r>>8)
	}
	if g>>8 < 0x70 || g>>8 > 0x90 {
		t.Errorf("green = %d, want around 127", g>>8)
	}
	if b>>8 < 0x70 || b>>8 > 0x90 {
		t.Errorf("blue = %d, want around 127", b>>8)
	}
}

func TestRecodeKeepsPaletteTransparency(t *testing.T) {
	pal := color.Palette{
		color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		color.NRGBA{R: 0xff, A: 0}, // transparent red
	}
	src := image.NewPaletted(image.Rect(0, 0, 4, 4), pal)
	for y := 0; y < 4; y++ {
		for x := 2; x < 4; x++ {
			src.SetColorIndex(x, y, 1)
		}
	}
	im := New(nil, nil, nil)
	rec := newRecord()
	rec.Raw = pngBytes(t, src)
	if err := rec.refreshMetadata(); err != nil {
		t.Fatal(err)
	}

	if err := im.recode(rec, 2, 2, true, 100); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(rec.Raw))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0xffff {
		t.Errorf("left half alpha = %#x, want opaque", a)
	}
	if _, _, _, a := img.At(1, 0).RGBA(); a != 0 {
		t.Errorf("right half alpha = %#x, want transparent", a)
	}
}
