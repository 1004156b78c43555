package imageimport

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/blend"
	"github.com/speedata/imageimport/bag"
)

// recode decodes the record's raw bytes, resamples them to exactly
// width x height and re-encodes them in the record's target format.
// With preserveAlpha the per-pixel alpha values survive as straight
// alpha; without it the image is flattened against an opaque white
// background. A paletted source with a fully transparent palette
// entry keeps its single-color transparency through the resample.
func (im *Importer) recode(rec *Record, width, height int, preserveAlpha bool, quality int) error {
	src, err := im.codec.Decode(rec.Raw)
	if err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: cannot encode a %dx%d canvas", bag.ErrEncode, width, height)
	}

	trns, hasTrns := transparentEntry(src)
	dst := im.codec.Resample(src, width, height)

	var out image.Image = dst
	switch {
	case !preserveAlpha:
		out = flatten(dst, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	case hasTrns:
		// fill the background with the transparent color, then mark
		// that color transparent again on the result
		flat := flatten(dst, trns)
		for i := 0; i < len(flat.Pix); i += 4 {
			if flat.Pix[i] == trns.R && flat.Pix[i+1] == trns.G && flat.Pix[i+2] == trns.B {
				flat.Pix[i+3] = 0
			}
		}
		out = flat
	}

	data, err := im.codec.Encode(out, rec.TargetFormat, quality)
	if err != nil {
		return err
	}
	rec.Raw = data
	// a resized image is always embedded, never link-only
	rec.Source.Embed = true
	rec.Recoded = true
	rec.FinalData = nil
	rec.Palette = nil
	rec.TransparencyKeys = nil
	rec.StreamParms = ""
	rec.StreamFilter = "FlateDecode"
	return rec.refreshMetadata()
}

// transparentEntry returns the RGB of the first fully transparent
// palette entry of a paletted source.
func transparentEntry(src image.Image) (color.NRGBA, bool) {
	p, ok := src.(*image.Paletted)
	if !ok {
		return color.NRGBA{}, false
	}
	for _, c := range p.Palette {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		if n.A == 0 {
			n.A = 0xff
			return n, true
		}
	}
	return color.NRGBA{}, false
}

// flatten composes img over an opaque background of the given color.
func flatten(img *image.NRGBA, bg color.NRGBA) *image.NRGBA {
	canvas := image.NewNRGBA(img.Bounds())
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)
	blended := blend.Normal(canvas, img)
	res := image.NewNRGBA(blended.Bounds())
	draw.Draw(res, res.Bounds(), blended, image.Point{}, draw.Src)
	return res
}
