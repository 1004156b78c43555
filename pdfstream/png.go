// Package pdfstream provides the per-format finalizers that turn an
// imported image record into the stream bytes and parameters a PDF
// style container embeds.
package pdfstream

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/speedata/imageimport"
	"github.com/speedata/imageimport/bag"
)

// The PNG chunk walk is adapted from the decoder in
// https://github.com/signintech/gopdf (via boxesandglue). gopdf is
// covered by this license:

// The MIT License (MIT)
//
// Copyright (c) 2015 signintech
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

var pngSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

func readUInt(f io.Reader) (uint, error) {
	buff, err := readBytes(f, 4)
	if err != nil {
		return 0, err
	}
	return uint(binary.BigEndian.Uint32(buff)), nil
}

func readBytes(f io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(f, b); err != nil {
		return nil, err
	}
	return b, nil
}

// PNG finalizes records whose target format is PNG. The raw IDAT
// stream becomes the FlateDecode encoded payload; 16 bit depth and
// interlacing are reported back as a recode request, color types
// with an alpha channel as an alpha split request.
type PNG struct{}

// NewPNG returns the PNG finalizer.
func NewPNG() *PNG {
	return &PNG{}
}

// Finalize implements imageimport.Finalizer.
func (p *PNG) Finalize(rec *imageimport.Record) (imageimport.Flags, error) {
	r := bytes.NewReader(rec.Raw)
	sig, err := readBytes(r, 8)
	if err != nil || !bytes.Equal(sig, pngSignature) {
		return imageimport.Flags{NeedsRecode: true}, nil
	}
	// length of the IHDR chunk, then its tag
	if _, err = readBytes(r, 4); err != nil {
		return imageimport.Flags{NeedsRecode: true}, nil
	}
	tag, err := readBytes(r, 4)
	if err != nil || !bytes.Equal(tag, []byte("IHDR")) {
		return imageimport.Flags{NeedsRecode: true}, nil
	}
	w, err := readUInt(r)
	if err != nil {
		return imageimport.Flags{NeedsRecode: true}, nil
	}
	if _, err = readUInt(r); err != nil {
		return imageimport.Flags{NeedsRecode: true}, nil
	}
	hdr, err := readBytes(r, 5)
	if err != nil {
		return imageimport.Flags{NeedsRecode: true}, nil
	}
	bpc, colorType := hdr[0], hdr[1]
	compression, filterMethod, interlacing := hdr[2], hdr[3], hdr[4]
	if bpc > 8 || interlacing != 0 || compression != 0 || filterMethod != 0 {
		// normalize through the resize engine first
		return imageimport.Flags{NeedsRecode: true}, nil
	}
	if _, err = readBytes(r, 4); err != nil {
		return imageimport.Flags{NeedsRecode: true}, nil
	}

	var pal, trns, icc, data []byte
	for {
		un, err := readUInt(r)
		if err != nil {
			return imageimport.Flags{}, fmt.Errorf("%w: broken PNG chunk list", bag.ErrDecode)
		}
		n := int(un)
		typ, err := readBytes(r, 4)
		if err != nil {
			return imageimport.Flags{}, fmt.Errorf("%w: broken PNG chunk list", bag.ErrDecode)
		}
		// a chunk cannot be longer than the remaining bytes, reject
		// bogus lengths before allocating for them
		if n < 0 || n > r.Len() {
			return imageimport.Flags{}, fmt.Errorf("%w: broken PNG chunk list", bag.ErrDecode)
		}
		switch string(typ) {
		case "PLTE":
			if pal, err = readBytes(r, n); err != nil {
				return imageimport.Flags{}, fmt.Errorf("%w: short PLTE chunk", bag.ErrDecode)
			}
			r.Seek(4, io.SeekCurrent)
		case "tRNS":
			t, err := readBytes(r, n)
			if err != nil {
				return imageimport.Flags{}, fmt.Errorf("%w: short tRNS chunk", bag.ErrDecode)
			}
			switch colorType {
			case 0:
				trns = []byte{t[1]}
			case 2:
				trns = []byte{t[1], t[3], t[5]}
			default:
				if pos := bytes.IndexByte(t, 0); pos >= 0 {
					trns = []byte{byte(pos)}
				}
			}
			r.Seek(4, io.SeekCurrent)
		case "iCCP":
			t, err := readBytes(r, n)
			if err != nil {
				return imageimport.Flags{}, fmt.Errorf("%w: short iCCP chunk", bag.ErrDecode)
			}
			icc = inflateProfile(t)
			r.Seek(4, io.SeekCurrent)
		case "IDAT":
			d, err := readBytes(r, n)
			if err != nil {
				return imageimport.Flags{}, fmt.Errorf("%w: short IDAT chunk", bag.ErrDecode)
			}
			data = append(data, d...)
			r.Seek(4, io.SeekCurrent)
		case "IEND":
			goto done
		default:
			r.Seek(int64(n+4), io.SeekCurrent)
		}
		if n <= 0 {
			break
		}
	}
done:
	if colorType == 3 && len(pal) == 0 {
		return imageimport.Flags{}, fmt.Errorf("%w: indexed PNG without palette", bag.ErrDecode)
	}

	rec.BitsPerChannel = int(bpc)
	switch colorType {
	case 0, 4:
		rec.ChannelCount = 1
		rec.ColorSpace = "DeviceGray"
	case 2, 6:
		rec.ChannelCount = 3
		rec.ColorSpace = "DeviceRGB"
	case 3:
		// indexed: one sample per pixel, the palette holds RGB; the
		// color space set by the caller stays untouched
		rec.ChannelCount = 1
	}
	rec.Palette = pal
	rec.TransparencyKeys = trns
	if len(icc) > 0 {
		rec.ICCProfile = icc
	}
	rec.StreamFilter = "FlateDecode"
	rec.StreamParms = fmt.Sprintf("/Predictor 15 /Colors %d /BitsPerComponent %d /Columns %d",
		colorsPerPixel(colorType), bpc, w)
	rec.FinalData = data

	return imageimport.Flags{SplitAlpha: colorType >= 4}, nil
}

// colorsPerPixel is the number of interleaved samples in the filtered
// IDAT stream for a PNG color type.
func colorsPerPixel(colorType byte) int {
	switch colorType {
	case 2:
		return 3
	case 4:
		return 2
	case 6:
		return 4
	}
	return 1
}

// inflateProfile unpacks an iCCP chunk body: a latin-1 profile name,
// a zero byte, the compression method and the deflated profile.
func inflateProfile(t []byte) []byte {
	pos := bytes.IndexByte(t, 0)
	if pos < 0 || pos+2 >= len(t) || t[pos+1] != 0 {
		return nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(t[pos+2:]))
	if err != nil {
		return nil
	}
	defer zr.Close()
	profile, err := io.ReadAll(zr)
	if err != nil {
		return nil
	}
	return profile
}
