// Package raster detects raster image formats, reads their header
// metadata without a full pixel decode and wraps the codec used for
// decoding, resampling and re-encoding.
package raster

// Format is the detected raster format of a byte stream.
type Format string

// All formats the sniffer can detect. TIFF appears twice, once per
// byte order.
const (
	FormatPNG         Format = "png"
	FormatJPEG        Format = "jpeg"
	FormatGIF         Format = "gif"
	FormatBMP         Format = "bmp"
	FormatTIFFLittle  Format = "tiff-ii"
	FormatTIFFBig     Format = "tiff-mm"
	FormatPSD         Format = "psd"
	FormatICO         Format = "ico"
	FormatWBMP        Format = "wbmp"
	FormatXBM         Format = "xbm"
	FormatIFF         Format = "iff"
	FormatSWC         Format = "swc"
	FormatUnsupported Format = "unsupported"
)

// Native reports whether the format can be embedded in the target
// container without transcoding.
func (f Format) Native() bool {
	return f == FormatPNG || f == FormatJPEG
}

// Target returns the canonical format the image must be encoded as:
// PNG for the lossless set, JPEG for everything else.
func (f Format) Target() Format {
	switch f {
	case FormatGIF, FormatPNG, FormatPSD, FormatBMP, FormatWBMP, FormatXBM,
		FormatTIFFLittle, FormatTIFFBig, FormatIFF, FormatSWC, FormatICO:
		return FormatPNG
	}
	return FormatJPEG
}
