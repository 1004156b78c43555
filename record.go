// Package imageimport turns image references (inline bytes, local
// files, remote URLs) into normalized records that a container writer
// can embed: pixel dimensions, bit depth, color space, transparency
// data and an encoded byte stream. Imports are cached under a
// content-addressed key.
package imageimport

import (
	"strings"

	"github.com/speedata/imageimport/raster"
)

// SourceKind says where the raw bytes of a record came from.
type SourceKind int

const (
	// SourceInline marks bytes passed literally in the reference.
	SourceInline SourceKind = iota
	// SourceLocal marks a filesystem path.
	SourceLocal
	// SourceRemote marks a URL.
	SourceRemote
)

// Source records the provenance of a record's raw bytes. Embed is
// false when the caller marked the reference as link-only.
type Source struct {
	Kind  SourceKind
	Ref   string
	Embed bool
}

// Record is the image value threaded through the import pipeline. It
// is mutated in place by the pipeline stages and must be treated as
// read only once it has been handed out by the importer.
type Record struct {
	// Key is the derived cache identity.
	Key string
	// DefaultForPrint marks this record as the default choice when
	// used as an alternate image.
	DefaultForPrint bool
	// Raw holds the current-stage encoded image bytes.
	Raw []byte
	// Source is the provenance of the original bytes.
	Source Source
	// Width and Height describe the current Raw bytes.
	Width  int
	Height int
	// Format is the detected or current raster format.
	Format raster.Format
	// IsNativeFormat is true if Format can be embedded without
	// transcoding.
	IsNativeFormat bool
	// TargetFormat is the canonical format this record ends up
	// encoded as. It is fixed at first detection.
	TargetFormat raster.Format
	// BitsPerChannel and ChannelCount as reported by the format
	// header.
	BitsPerChannel int
	ChannelCount   int
	// ColorSpace is the name derived from ChannelCount.
	ColorSpace string
	// ICCProfile holds an embedded color profile, if any.
	ICCProfile []byte
	// StreamFilter and StreamParms describe the container stream
	// encoding of FinalData.
	StreamFilter string
	StreamParms  string
	// Palette and TransparencyKeys are set for indexed sources only.
	Palette          []byte
	TransparencyKeys []byte
	// FinalData is the container-ready payload built by the
	// finalizer.
	FinalData []byte
	// Recoded is true once the record passed through the resize
	// engine.
	Recoded bool
	// Plain and Mask are set together when an alpha channel was
	// split off: Plain is the color image without alpha, Mask the
	// grayscale alpha image.
	Plain *Record
	Mask  *Record
}

func newRecord() *Record {
	return &Record{
		Format:         raster.FormatUnsupported,
		BitsPerChannel: 8,
		ChannelCount:   3,
		ColorSpace:     "DeviceRGB",
		StreamFilter:   "FlateDecode",
	}
}

// refreshMetadata re-reads the format header of the current Raw bytes
// and updates the derived fields. Empty bytes leave the record
// untouched. TargetFormat is only ever set once.
func (rec *Record) refreshMetadata() error {
	if len(rec.Raw) == 0 {
		return nil
	}
	info, err := raster.Sniff(rec.Raw)
	if err != nil {
		return err
	}
	rec.Width = info.Width
	rec.Height = info.Height
	rec.Format = info.Format
	rec.IsNativeFormat = info.Format.Native()
	if rec.TargetFormat == "" {
		rec.TargetFormat = info.Format.Target()
	}
	if info.BitsPerChannel > 0 {
		rec.BitsPerChannel = info.BitsPerChannel
	}
	if info.Channels > 0 {
		rec.ChannelCount = info.Channels
	}
	switch rec.ChannelCount {
	case 1:
		rec.ColorSpace = "DeviceGray"
	case 3:
		rec.ColorSpace = "DeviceRGB"
	case 4:
		rec.ColorSpace = "DeviceCMYK"
	}
	return nil
}

// Clone returns a deep copy of the record without its derived Plain
// and Mask records.
func (rec *Record) Clone() *Record {
	c := *rec
	c.Raw = append([]byte(nil), rec.Raw...)
	c.ICCProfile = append([]byte(nil), rec.ICCProfile...)
	c.Palette = append([]byte(nil), rec.Palette...)
	c.TransparencyKeys = append([]byte(nil), rec.TransparencyKeys...)
	c.FinalData = append([]byte(nil), rec.FinalData...)
	c.Plain = nil
	c.Mask = nil
	return &c
}

func sourceKind(ref string) SourceKind {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return SourceRemote
	}
	return SourceLocal
}
