package imageimport

import (
	"image"
	"image/color"
	"math"

	"github.com/speedata/imageimport/raster"
)

// extractAlphaMask builds a standalone grayscale image from the alpha
// channel of the record's raw bytes. The source alpha is taken on the
// 7 bit scale where 0 means fully opaque and 127 fully transparent;
// the destination gray level gets a 2.2 gamma correction so the mask
// represents perceptually linear opacity.
func (im *Importer) extractAlphaMask(rec *Record) (*Record, error) {
	src, err := im.codec.Decode(rec.Raw)
	if err != nil {
		return nil, err
	}

	pal := make(color.Palette, 256)
	for n := 0; n < 256; n++ {
		pal[n] = color.RGBA{R: uint8(n), G: uint8(n), B: uint8(n), A: 0xff}
	}
	b := src.Bounds()
	canvas := image.NewPaletted(b, pal)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := src.At(x, y).RGBA()
			alpha := (255 - int(a>>8)) >> 1
			gray := math.Round(math.Pow(float64(127-alpha)/127, 2.2) * 255)
			canvas.SetColorIndex(x, y, uint8(gray))
		}
	}

	mask := newRecord()
	data, err := im.codec.Encode(canvas, raster.FormatPNG, 100)
	if err != nil {
		return nil, err
	}
	mask.Raw = data
	mask.Source.Embed = true
	mask.Recoded = true
	if err := mask.refreshMetadata(); err != nil {
		return nil, err
	}
	mask.ColorSpace = "DeviceGray"
	return mask, nil
}
