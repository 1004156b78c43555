package pdfstream

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/speedata/imageimport"
	"github.com/speedata/imageimport/raster"
)

const iccMarkerTag = "ICC_PROFILE\x00"

// JPEG finalizes records whose target format is JPEG. The raw bytes
// are embedded as-is behind a DCTDecode filter; a stream the marker
// scan cannot parse is reported back as a recode request.
type JPEG struct{}

// NewJPEG returns the JPEG finalizer.
func NewJPEG() *JPEG {
	return &JPEG{}
}

// Finalize implements imageimport.Finalizer.
func (j *JPEG) Finalize(rec *imageimport.Record) (imageimport.Flags, error) {
	info, err := raster.Sniff(rec.Raw)
	if err != nil || info.Format != raster.FormatJPEG {
		return imageimport.Flags{NeedsRecode: true}, nil
	}
	switch info.Channels {
	case 1, 3, 4:
	default:
		return imageimport.Flags{NeedsRecode: true}, nil
	}

	app2, adobe := scanMarkers(rec.Raw)
	if icc := assembleICC(app2); len(icc) > 0 {
		rec.ICCProfile = icc
	}
	if info.Channels == 4 && adobe {
		// Adobe CMYK stores inverted values
		rec.StreamParms = "/Decode [1 0 1 0 1 0 1 0]"
	}
	rec.StreamFilter = "DCTDecode"
	rec.FinalData = rec.Raw
	return imageimport.Flags{}, nil
}

// scanMarkers walks the marker segments up to the scan data and
// collects APP2 payloads plus the presence of an Adobe APP14 marker.
func scanMarkers(data []byte) (app2 [][]byte, adobe bool) {
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xff {
			return
		}
		marker := data[i+1]
		if marker == 0xff {
			i++
			continue
		}
		if marker == 0x01 || (marker >= 0xd0 && marker <= 0xd9) {
			i += 2
			continue
		}
		length := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if marker == 0xda {
			// start of scan
			return
		}
		end := i + 2 + length
		if end > len(data) {
			return
		}
		body := data[i+4 : end]
		switch marker {
		case 0xe2:
			app2 = append(app2, body)
		case 0xee:
			if bytes.HasPrefix(body, []byte("Adobe")) {
				adobe = true
			}
		}
		i = end
	}
	return
}

// assembleICC reassembles an ICC profile from APP2 marker payloads.
// Malformed chunk sequences are ignored rather than failing the
// import, an image without a usable profile is still embeddable.
func assembleICC(markers [][]byte) []byte {
	type chunk struct {
		seq  int
		data []byte
	}
	var chunks []chunk
	expected := 0
	for _, m := range markers {
		if len(m) < 14 || string(m[:12]) != iccMarkerTag {
			continue
		}
		seq, count := int(m[12]), int(m[13])
		if seq == 0 || seq > count {
			return nil
		}
		if expected == 0 {
			expected = count
		} else if count != expected {
			return nil
		}
		chunks = append(chunks, chunk{seq: seq, data: m[14:]})
	}
	if len(chunks) == 0 || len(chunks) != expected {
		return nil
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].seq < chunks[j].seq })
	var buf bytes.Buffer
	for _, c := range chunks {
		buf.Write(c.data)
	}
	return buf.Bytes()
}

// Finalizers returns the closed finalizer table for the two native
// target formats.
func Finalizers() map[raster.Format]imageimport.Finalizer {
	return map[raster.Format]imageimport.Finalizer{
		raster.FormatPNG:  NewPNG(),
		raster.FormatJPEG: NewJPEG(),
	}
}
