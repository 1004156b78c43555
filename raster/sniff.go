package raster

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/speedata/imageimport/bag"
)

// Info holds the metadata a format header reports about its pixel
// data. BitsPerChannel and Channels are 0 when the header does not
// carry them.
type Info struct {
	Width          int
	Height         int
	Format         Format
	BitsPerChannel int
	Channels       int
}

var xbmWidthRE, xbmHeightRE *regexp.Regexp

func init() {
	xbmWidthRE = regexp.MustCompile(`#define\s+\S*width\s+(\d+)`)
	xbmHeightRE = regexp.MustCompile(`#define\s+\S*height\s+(\d+)`)
}

// Sniff inspects the first bytes of data and returns the image
// metadata the format header reports, without decoding any pixels.
// Empty input returns a zero Info and no error.
func Sniff(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, nil
	}
	switch {
	case hasPrefix(data, 0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a):
		return sniffPNG(data)
	case hasPrefix(data, 0xff, 0xd8, 0xff):
		return sniffJPEG(data)
	case hasPrefix(data, 'G', 'I', 'F', '8'):
		return sniffGIF(data)
	case hasPrefix(data, 'B', 'M'):
		return sniffBMP(data)
	case hasPrefix(data, 'I', 'I', 0x2a, 0x00):
		return sniffTIFF(data, binary.LittleEndian, FormatTIFFLittle)
	case hasPrefix(data, 'M', 'M', 0x00, 0x2a):
		return sniffTIFF(data, binary.BigEndian, FormatTIFFBig)
	case hasPrefix(data, '8', 'B', 'P', 'S'):
		return sniffPSD(data)
	case hasPrefix(data, 0x00, 0x00, 0x01, 0x00):
		return sniffICO(data)
	case hasPrefix(data, 'F', 'O', 'R', 'M'):
		return sniffIFF(data)
	case hasPrefix(data, 'C', 'W', 'S'):
		return sniffSWC(data)
	case hasPrefix(data, '#', 'd', 'e', 'f', 'i', 'n', 'e'):
		return sniffXBM(data)
	case len(data) > 2 && data[0] == 0 && data[1] == 0:
		return sniffWBMP(data)
	}
	return Info{Format: FormatUnsupported}, fmt.Errorf("%w: unknown image format", bag.ErrDecode)
}

func hasPrefix(data []byte, magic ...byte) bool {
	return bytes.HasPrefix(data, magic)
}

func truncated(f Format) (Info, error) {
	return Info{Format: f}, fmt.Errorf("%w: truncated %s header", bag.ErrDecode, f)
}

func sniffPNG(data []byte) (Info, error) {
	// 8 byte signature, 4 byte length, "IHDR", then the header fields
	if len(data) < 26 || !bytes.Equal(data[12:16], []byte("IHDR")) {
		return truncated(FormatPNG)
	}
	// the channel count in the color sense is derived from the color
	// type by the PNG finalizer, not reported here
	return Info{
		Width:          int(binary.BigEndian.Uint32(data[16:20])),
		Height:         int(binary.BigEndian.Uint32(data[20:24])),
		Format:         FormatPNG,
		BitsPerChannel: int(data[24]),
	}, nil
}

func sniffJPEG(data []byte) (Info, error) {
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xff {
			break
		}
		marker := data[i+1]
		if marker == 0xff {
			// padding
			i++
			continue
		}
		if marker == 0x01 || (marker >= 0xd0 && marker <= 0xd9) {
			// standalone marker without a length field
			i += 2
			continue
		}
		length := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		isSOF := marker >= 0xc0 && marker <= 0xcf &&
			marker != 0xc4 && marker != 0xc8 && marker != 0xcc
		if isSOF {
			if i+10 > len(data) {
				break
			}
			return Info{
				Width:          int(binary.BigEndian.Uint16(data[i+7 : i+9])),
				Height:         int(binary.BigEndian.Uint16(data[i+5 : i+7])),
				Format:         FormatJPEG,
				BitsPerChannel: int(data[i+4]),
				Channels:       int(data[i+9]),
			}, nil
		}
		i += 2 + length
	}
	return truncated(FormatJPEG)
}

func sniffGIF(data []byte) (Info, error) {
	if len(data) < 11 {
		return truncated(FormatGIF)
	}
	return Info{
		Width:          int(binary.LittleEndian.Uint16(data[6:8])),
		Height:         int(binary.LittleEndian.Uint16(data[8:10])),
		Format:         FormatGIF,
		BitsPerChannel: int(data[10]&0x07) + 1,
		Channels:       3,
	}, nil
}

func sniffBMP(data []byte) (Info, error) {
	if len(data) < 30 {
		return truncated(FormatBMP)
	}
	height := int(int32(binary.LittleEndian.Uint32(data[22:26])))
	if height < 0 {
		// top-down DIB
		height = -height
	}
	// the header stores bits per pixel: one sample for the paletted
	// depths, three or four samples for truecolor
	bpc := int(binary.LittleEndian.Uint16(data[28:30]))
	switch bpc {
	case 16:
		bpc = 5
	case 24, 32:
		bpc = 8
	}
	return Info{
		Width:          int(int32(binary.LittleEndian.Uint32(data[18:22]))),
		Height:         height,
		Format:         FormatBMP,
		BitsPerChannel: bpc,
	}, nil
}

func sniffTIFF(data []byte, order binary.ByteOrder, f Format) (Info, error) {
	if len(data) < 8 {
		return truncated(f)
	}
	ifd := int(order.Uint32(data[4:8]))
	if ifd+2 > len(data) {
		return truncated(f)
	}
	count := int(order.Uint16(data[ifd : ifd+2]))
	info := Info{Format: f}
	for n := 0; n < count; n++ {
		off := ifd + 2 + n*12
		if off+12 > len(data) {
			return truncated(f)
		}
		tag := order.Uint16(data[off : off+2])
		typ := order.Uint16(data[off+2 : off+4])
		num := order.Uint32(data[off+4 : off+8])
		// inline values only; anything stored behind an offset is skipped
		var val int
		switch typ {
		case 3: // SHORT
			val = int(order.Uint16(data[off+8 : off+10]))
		case 4: // LONG
			val = int(order.Uint32(data[off+8 : off+12]))
		default:
			continue
		}
		switch tag {
		case 256:
			info.Width = val
		case 257:
			info.Height = val
		case 258:
			if num == 1 {
				info.BitsPerChannel = val
			}
		case 277:
			info.Channels = val
		}
	}
	if info.Width == 0 || info.Height == 0 {
		return truncated(f)
	}
	return info, nil
}

func sniffPSD(data []byte) (Info, error) {
	if len(data) < 26 {
		return truncated(FormatPSD)
	}
	return Info{
		Width:          int(binary.BigEndian.Uint32(data[18:22])),
		Height:         int(binary.BigEndian.Uint32(data[14:18])),
		Format:         FormatPSD,
		BitsPerChannel: int(binary.BigEndian.Uint16(data[22:24])),
		Channels:       int(binary.BigEndian.Uint16(data[12:14])),
	}, nil
}

func sniffICO(data []byte) (Info, error) {
	if len(data) < 6 {
		return truncated(FormatICO)
	}
	count := int(binary.LittleEndian.Uint16(data[4:6]))
	if count == 0 || 6+count*16 > len(data) {
		return truncated(FormatICO)
	}
	// report the largest directory entry
	info := Info{Format: FormatICO}
	for n := 0; n < count; n++ {
		off := 6 + n*16
		w, h := int(data[off]), int(data[off+1])
		if w == 0 {
			w = 256
		}
		if h == 0 {
			h = 256
		}
		if w*h > info.Width*info.Height {
			info.Width = w
			info.Height = h
			info.BitsPerChannel = int(binary.LittleEndian.Uint16(data[off+6 : off+8]))
		}
	}
	return info, nil
}

func sniffIFF(data []byte) (Info, error) {
	// FORM <size> <type>, then chunks. Dimensions live in BMHD.
	i := 12
	for i+8 <= len(data) {
		id := string(data[i : i+4])
		size := int(binary.BigEndian.Uint32(data[i+4 : i+8]))
		if id == "BMHD" {
			if i+8+9 > len(data) {
				return truncated(FormatIFF)
			}
			return Info{
				Width:          int(binary.BigEndian.Uint16(data[i+8 : i+10])),
				Height:         int(binary.BigEndian.Uint16(data[i+10 : i+12])),
				Format:         FormatIFF,
				BitsPerChannel: int(data[i+16]),
			}, nil
		}
		// chunks are padded to an even size
		i += 8 + size + size%2
	}
	return truncated(FormatIFF)
}

func sniffSWC(data []byte) (Info, error) {
	// compressed SWF: 8 byte header, zlib body starting with a RECT
	if len(data) < 9 {
		return truncated(FormatSWC)
	}
	zr, err := zlib.NewReader(bytes.NewReader(data[8:]))
	if err != nil {
		return truncated(FormatSWC)
	}
	defer zr.Close()
	// a RECT is at most 5 + 4*31 bits long
	buf := make([]byte, 17)
	if _, err := io.ReadFull(zr, buf[:1]); err != nil {
		return truncated(FormatSWC)
	}
	nbits := int(buf[0] >> 3)
	need := (5 + 4*nbits + 7) / 8
	if _, err := io.ReadFull(zr, buf[1:need]); err != nil {
		return truncated(FormatSWC)
	}
	readBits := func(pos, n int) int {
		v := 0
		for b := 0; b < n; b++ {
			bit := pos + b
			v = v<<1 | int(buf[bit/8]>>(7-bit%8)&1)
		}
		return v
	}
	xmin := readBits(5, nbits)
	xmax := readBits(5+nbits, nbits)
	ymin := readBits(5+2*nbits, nbits)
	ymax := readBits(5+3*nbits, nbits)
	return Info{
		// stage coordinates are in twips
		Width:  (xmax - xmin) / 20,
		Height: (ymax - ymin) / 20,
		Format: FormatSWC,
	}, nil
}

func sniffXBM(data []byte) (Info, error) {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	wm := xbmWidthRE.FindSubmatch(head)
	hm := xbmHeightRE.FindSubmatch(head)
	if wm == nil || hm == nil {
		return truncated(FormatXBM)
	}
	w, _ := strconv.Atoi(string(wm[1]))
	h, _ := strconv.Atoi(string(hm[1]))
	return Info{
		Width:          w,
		Height:         h,
		Format:         FormatXBM,
		BitsPerChannel: 1,
	}, nil
}

func sniffWBMP(data []byte) (Info, error) {
	w, i, ok := wbmpUint(data, 2)
	if !ok {
		return truncated(FormatWBMP)
	}
	h, _, ok := wbmpUint(data, i)
	if !ok || w == 0 || h == 0 {
		return truncated(FormatWBMP)
	}
	return Info{
		Width:          w,
		Height:         h,
		Format:         FormatWBMP,
		BitsPerChannel: 1,
	}, nil
}

// wbmpUint reads one of WBMP's variable length integers: 7 bits per
// byte, high bit set on all but the last byte.
func wbmpUint(data []byte, i int) (int, int, bool) {
	v := 0
	for ; i < len(data); i++ {
		v = v<<7 | int(data[i]&0x7f)
		if data[i]&0x80 == 0 {
			return v, i + 1, true
		}
	}
	return 0, i, false
}
